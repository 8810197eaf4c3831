package cli

import (
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

func newLeaderboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "leaderboard",
		Aliases: []string{"lb"},
		Short:   "Show ranked scores",
	}

	cmd.AddCommand(newLeaderboardGlobalCmd())
	cmd.AddCommand(newLeaderboardRoomCmd())

	return cmd
}

func leaderboardQuery(category string, limit int) string {
	q := url.Values{}
	q.Set("category", category)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return "?" + q.Encode()
}

func newLeaderboardGlobalCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "global CATEGORY",
		Short: "Show the global leaderboard for a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []LeaderboardEntry

			if err := client.Get("/api/rankings/global"+leaderboardQuery(args[0], limit), &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum entries (server caps this)")

	return cmd
}

func newLeaderboardRoomCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "room CODE CATEGORY",
		Short: "Show a room's leaderboard for a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []LeaderboardEntry

			path := "/api/rankings/room/" + url.PathEscape(args[0]) + leaderboardQuery(args[1], limit)
			if err := client.Get(path, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum entries (server caps this)")

	return cmd
}
