package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/walkbuddy/walkbuddy/internal/app/engine"
	"github.com/walkbuddy/walkbuddy/internal/client"
	"github.com/walkbuddy/walkbuddy/internal/domain"
)

// ─── Challenge Commands ─────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(challengeCmd)
	challengeCmd.AddCommand(challengeListCmd)
	challengeCmd.AddCommand(challengeJoinCmd)
	challengeCmd.AddCommand(challengeLeaveCmd)
	challengeCmd.AddCommand(challengeProgressCmd)
	challengeCmd.AddCommand(challengeCreateCmd)

	challengeListCmd.Flags().String("user", "", "Show this user's status for each challenge")

	challengeCreateCmd.Flags().String("name", "", "Challenge name")
	challengeCreateCmd.Flags().String("description", "", "Challenge description")
	challengeCreateCmd.Flags().String("metric", "miles", "Metric: steps, minutes, miles or walks")
	challengeCreateCmd.Flags().Float64("target", 0, "Target value")
	challengeCreateCmd.Flags().String("period", "weekly", "Period: daily, weekly, weekend, monthly or alltime")
	challengeCreateCmd.Flags().String("scope", "individual", "Scope: individual or team")
	challengeCreateCmd.Flags().Int64("reward", 0, "Reward points")
}

var challengeCmd = &cobra.Command{
	Use:   "challenge",
	Short: "Browse, join and track challenges",
}

var challengeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List challenges",
	Args:  cobra.NoArgs,
	RunE:  runChallengeList,
}

func runChallengeList(cmd *cobra.Command, args []string) error {
	c, err := apiClient()
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(cmd)
	defer cancel()

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	defer tw.Flush()

	user, _ := cmd.Flags().GetString("user")
	if user == "" {
		defs, err := c.Challenges(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(tw, "ID\tNAME\tPERIOD\tREWARD")
		for _, d := range defs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", d.ID, d.Name, d.Period, d.RewardPoints)
		}
		return nil
	}

	board, err := c.Board(ctx, user)
	if err != nil {
		return err
	}
	fmt.Fprintln(tw, "ID\tNAME\tSTATE\tPROGRESS")
	for _, st := range board {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", st.Challenge.ID, st.Challenge.Name, st.State, progressText(st))
	}
	return nil
}

var challengeJoinCmd = &cobra.Command{
	Use:   "join USER CHALLENGE",
	Short: "Join a challenge",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return challengeStatusCall(cmd, func(c *client.Client) (client.ChallengeStatus, error) {
			ctx, cancel := requestContext(cmd)
			defer cancel()
			return c.JoinChallenge(ctx, args[0], args[1])
		})
	},
}

var challengeLeaveCmd = &cobra.Command{
	Use:   "leave USER CHALLENGE",
	Short: "Leave a challenge",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return challengeStatusCall(cmd, func(c *client.Client) (client.ChallengeStatus, error) {
			ctx, cancel := requestContext(cmd)
			defer cancel()
			return c.LeaveChallenge(ctx, args[0], args[1])
		})
	},
}

var challengeProgressCmd = &cobra.Command{
	Use:   "progress USER CHALLENGE",
	Short: "Show progress on a challenge",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return challengeStatusCall(cmd, func(c *client.Client) (client.ChallengeStatus, error) {
			ctx, cancel := requestContext(cmd)
			defer cancel()
			return c.Progress(ctx, args[0], args[1])
		})
	},
}

var challengeCreateCmd = &cobra.Command{
	Use:   "create USER",
	Short: "Create a custom challenge",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := engine.CustomChallengeInput{CreatedBy: args[0]}
		in.Name, _ = cmd.Flags().GetString("name")
		in.Description, _ = cmd.Flags().GetString("description")
		in.Metric, _ = cmd.Flags().GetString("metric")
		in.Target, _ = cmd.Flags().GetFloat64("target")
		in.Period, _ = cmd.Flags().GetString("period")
		in.Scope, _ = cmd.Flags().GetString("scope")
		in.RewardPoints, _ = cmd.Flags().GetInt64("reward")

		c, err := apiClient()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		def, err := c.CreateChallenge(ctx, in)
		if err != nil {
			return err
		}
		printf(cmd, "Created %s (%s)\n", def.ID, def.Name)
		return nil
	},
}

func challengeStatusCall(cmd *cobra.Command, call func(*client.Client) (client.ChallengeStatus, error)) error {
	c, err := apiClient()
	if err != nil {
		return err
	}
	st, err := call(c)
	if err != nil {
		return err
	}
	printf(cmd, "%s: %s, %s\n", st.Challenge.Name, st.State, progressText(st))
	return nil
}

func progressText(st client.ChallengeStatus) string {
	if st.State == domain.StateNotJoined {
		return "-"
	}
	return fmt.Sprintf("%.4g/%.4g %s (%.0f%%)", st.Progress.Current, st.Progress.Target, st.Progress.Unit, st.Percent)
}
