package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/walkbuddy/walkbuddy/internal/app/engine"
)

// ─── Activity Commands ──────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(walkCmd)
	rootCmd.AddCommand(inviteCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(redeemCmd)

	walkCmd.Flags().Int("minutes", 0, "Minutes walked")
	walkCmd.Flags().Int("steps", 0, "Steps taken")
	walkCmd.Flags().Float64("miles", 0, "Miles walked")
	walkCmd.Flags().Bool("group", false, "Walked with a group")
	walkCmd.Flags().Bool("photo", false, "Shared a photo of the walk")
}

var walkCmd = &cobra.Command{
	Use:   "walk USER",
	Short: "Log a walk",
	Args:  cobra.ExactArgs(1),
	RunE:  runWalk,
}

func runWalk(cmd *cobra.Command, args []string) error {
	in := engine.WalkInput{UserID: args[0]}
	in.Minutes, _ = cmd.Flags().GetInt("minutes")
	in.Steps, _ = cmd.Flags().GetInt("steps")
	in.Miles, _ = cmd.Flags().GetFloat64("miles")
	in.GroupWalk, _ = cmd.Flags().GetBool("group")
	in.SharedPhoto, _ = cmd.Flags().GetBool("photo")

	c, err := apiClient()
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(cmd)
	defer cancel()

	res, err := c.RecordWalk(ctx, in)
	if err != nil {
		return err
	}
	printf(cmd, "+%d points (total %d, streak %d days)\n", res.Gained, res.Total, res.Streak)
	if len(res.Completed) > 0 {
		printf(cmd, "Completed: %s\n", strings.Join(res.Completed, ", "))
	}
	return nil
}

var inviteCmd = &cobra.Command{
	Use:   "invite USER FRIEND",
	Short: "Invite a friend",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := apiClient()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		res, err := c.SendInvite(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		printf(cmd, "+%d points (total %d, %d invites this month)\n", res.Gained, res.Total, res.Invites)
		return nil
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile USER",
	Short: "Show a user's points, tier and streak",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := apiClient()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		p, err := c.Profile(ctx, args[0])
		if err != nil {
			return err
		}
		printf(cmd, "%s (%s)\n", p.DisplayName, p.ID)
		printf(cmd, "  Points: %d  Tier: %s", p.Points, p.Tier)
		if p.PointsToNext > 0 {
			printf(cmd, "  (%d to %s)", p.PointsToNext, p.NextTier)
		}
		printf(cmd, "\n  Streak: %d days  Walks: %d\n", p.Streak, p.TotalWalks)
		if p.Team != "" {
			printf(cmd, "  Team: %s\n", p.Team)
		}
		return nil
	},
}

var redeemCmd = &cobra.Command{
	Use:   "redeem USER REWARD",
	Short: "Spend points on a reward",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := apiClient()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		res, err := c.Redeem(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		printf(cmd, "%s (balance %d)\n", res.Status, res.Balance)
		return nil
	},
}
