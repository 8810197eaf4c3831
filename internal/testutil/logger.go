package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
)

// NopLogger returns a logger that discards all output.
// Use this in tests to avoid log noise.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// BufferLogger returns a debug-level JSON logger writing to the returned
// buffer, for tests that assert on log output.
func BufferLogger() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

// LogLines decodes every JSON log line written to buf
func LogLines(buf *bytes.Buffer) []map[string]any {
	var lines []map[string]any
	dec := json.NewDecoder(bytes.NewReader(buf.Bytes()))
	for {
		var line map[string]any
		if err := dec.Decode(&line); err != nil {
			return lines
		}
		lines = append(lines, line)
	}
}
