package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/walkbuddy/walkbuddy/internal/daemon"
	"github.com/walkbuddy/walkbuddy/internal/infra/observability"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	serveCmd.Flags().String("host", "", "Listen host (overrides [api].host)")
	serveCmd.Flags().Int("port", 0, "Listen port (overrides [api].port)")
	serveCmd.Flags().String("log-level", "", "Log level (overrides [log].level)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Walking Buddies server",
	Long: `Run the HTTP API with the in-memory engine. Depending on the config this
also writes the points journal, mirrors leaderboards to Redis and runs the
battle settlement and reminder jobs. Stops gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.API.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.API.Port = port
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}

	logger := observability.NewLogger(cfg.Log.Level, cmd.ErrOrStderr())
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := daemon.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	return d.Run(ctx)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check that the server is reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := apiClient()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		if err := c.Health(ctx); err != nil {
			return fmt.Errorf("server at %s is not reachable: %w", c.BaseURL, err)
		}
		printf(cmd, "Server at %s is up\n", c.BaseURL)
		return nil
	},
}
