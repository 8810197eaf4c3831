package main

import "github.com/mcoot/humanbench/internal/cli"

func main() {
	cli.Execute()
}
