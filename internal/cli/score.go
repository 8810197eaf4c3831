package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

func newScoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Benchmark score commands",
	}

	cmd.AddCommand(newScoreSubmitCmd())
	cmd.AddCommand(newScoreListCmd())

	return cmd
}

func newScoreSubmitCmd() *cobra.Command {
	var roomID, stats string

	cmd := &cobra.Command{
		Use:   "submit CATEGORY VALUE",
		Short: "Submit a benchmark result",
		Example: `  benchctl score submit REACTION_TIME 231
  benchctl score submit CHIMP_TEST 14 --room <room id> --stats '{"strikes":2}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("value must be a number: %q", args[1])
			}

			req := map[string]any{
				"category": args[0],
				"value":    value,
			}
			if roomID != "" {
				req["roomId"] = roomID
			}
			if stats != "" {
				var raw map[string]any
				if err := json.Unmarshal([]byte(stats), &raw); err != nil {
					return fmt.Errorf("--stats must be a JSON object: %w", err)
				}
				req["rawStats"] = raw
			}

			var result Score
			if err := client.Post("/api/benchmarks", req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&roomID, "room", "", "Room id to associate the score with")
	cmd.Flags().StringVar(&stats, "stats", "", "Raw per-attempt stats as a JSON object")

	return cmd
}

func newScoreListCmd() *cobra.Command {
	var category, roomID, userID string
	var mine bool
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent benchmark results, newest first",
		Example: `  benchctl score list --mine
  benchctl score list --category CHIMP_TEST --room <room id> --limit 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if mine {
				if userID != "" {
					return errors.New("--mine and --user are mutually exclusive")
				}
				var me User
				if err := client.Get("/api/auth/me", &me); err != nil {
					return err
				}
				userID = me.ID
			}

			q := url.Values{}
			if category != "" {
				q.Set("category", category)
			}
			if roomID != "" {
				q.Set("roomId", roomID)
			}
			if userID != "" {
				q.Set("userId", userID)
			}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}
			path := "/api/benchmarks"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			var result []ScoreHistoryEntry
			if err := client.Get(path, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Only show this category")
	cmd.Flags().StringVar(&roomID, "room", "", "Only show scores submitted to this room id")
	cmd.Flags().StringVar(&userID, "user", "", "Only show scores by this user id")
	cmd.Flags().BoolVar(&mine, "mine", false, "Only show your own scores")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum entries (server caps this)")

	return cmd
}
