// Package cli implements the walkbuddy command tree.
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/walkbuddy/walkbuddy/internal/client"
	"github.com/walkbuddy/walkbuddy/internal/daemon"
)

var (
	flagHome   string
	flagServer string
)

var rootCmd = &cobra.Command{
	Use:   "walkbuddy",
	Short: "Walking Buddies challenge and points engine",
	Long: `walkbuddy runs the Walking Buddies server and talks to it.

Start the server with 'walkbuddy serve'. Other commands call a running
server over HTTP, except 'journal' and 'config' which read local files.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagHome, "home", "", "walkbuddy home directory (default $WALKBUDDY_HOME or ~/.walkbuddy)")
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "server URL (default from config or $WALKBUDDY_SERVER)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func homeDir() string {
	if flagHome != "" {
		return flagHome
	}
	return daemon.Home()
}

func loadConfig() (daemon.Config, error) {
	return daemon.LoadConfig(homeDir())
}

// apiClient resolves the server URL from --server, $WALKBUDDY_SERVER or
// the config file, in that order.
func apiClient() (*client.Client, error) {
	url := flagServer
	if url == "" {
		url = os.Getenv("WALKBUDDY_SERVER")
	}
	if url == "" {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		url = cfg.API.URL()
	}
	return client.New(url, 10*time.Second)
}

func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, 15*time.Second)
}

func printf(cmd *cobra.Command, format string, args ...interface{}) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
