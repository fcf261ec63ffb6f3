package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/walkbuddy/walkbuddy/internal/domain"
)

func init() {
	rootCmd.AddCommand(teamCmd)
	teamCmd.AddCommand(teamJoinCmd)
	rootCmd.AddCommand(leaderboardCmd)

	leaderboardCmd.Flags().Bool("teams", false, "Rank teams instead of users")
	leaderboardCmd.Flags().Int("limit", 10, "Number of rows")
}

var teamCmd = &cobra.Command{
	Use:   "team",
	Short: "Manage team membership",
}

var teamJoinCmd = &cobra.Command{
	Use:   "join USER TEAM",
	Short: "Join a team, leaving the current one",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := apiClient()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		info, err := c.JoinTeam(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		printf(cmd, "%s joined %s (%d members, captain %s)\n", args[0], info.Name, len(info.Members), info.Captain)
		return nil
	},
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show the points leaderboard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := domain.LeaderboardUsers
		if teams, _ := cmd.Flags().GetBool("teams"); teams {
			kind = domain.LeaderboardTeams
		}
		limit, _ := cmd.Flags().GetInt("limit")

		c, err := apiClient()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		rows, err := c.Leaderboard(ctx, kind, limit)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			printf(cmd, "No standings yet.\n")
			return nil
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "RANK\tNAME\tPOINTS")
		for _, r := range rows {
			fmt.Fprintf(tw, "%d\t%s\t%d\n", r.Rank, r.Name, r.Points)
		}
		return tw.Flush()
	},
}
