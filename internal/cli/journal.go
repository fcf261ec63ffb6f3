package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/walkbuddy/walkbuddy/internal/domain"
	"github.com/walkbuddy/walkbuddy/internal/infra/sqlite"
)

// ─── Journal Commands ───────────────────────────────────────────────────────
// These read the SQLite journal directly and work while the server is down.

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalSummaryCmd)

	journalCmd.Flags().Int("limit", 20, "Number of entries (0 for all)")
}

var journalCmd = &cobra.Command{
	Use:   "journal [ACCOUNT]",
	Short: "Show points journal entries, newest first",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runJournal,
}

func runJournal(cmd *cobra.Command, args []string) error {
	db, err := openJournal()
	if err != nil {
		return err
	}
	defer db.Close()

	account := ""
	if len(args) == 1 {
		account = args[0]
	}
	limit, _ := cmd.Flags().GetInt("limit")

	entries, err := db.ListEntries(cmd.Context(), account, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		printf(cmd, "No journal entries.\n")
		return nil
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tACCOUNT\tTYPE\tAMOUNT\tBALANCE\tDESCRIPTION")
	for _, e := range entries {
		amount := fmt.Sprintf("+%d", e.Amount)
		if e.EntryType == domain.EntryDebit {
			amount = fmt.Sprintf("-%d", e.Amount)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			e.Timestamp.Local().Format("2006-01-02 15:04"), e.Account, e.Type, amount, e.Balance, e.Description)
	}
	return tw.Flush()
}

var journalSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show per-account totals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openJournal()
		if err != nil {
			return err
		}
		defer db.Close()

		sums, err := db.Summaries(cmd.Context())
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ACCOUNT\tEARNED\tSPENT\tBALANCE\tENTRIES")
		for _, s := range sums {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", s.Account, s.Earned, s.Spent, s.Balance, s.Entries)
		}
		return tw.Flush()
	},
}

func openJournal() (*sqlite.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(cfg.Journal.Dir, sqlite.FileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("no journal at %s\nStart the server with [journal].enabled = true to record one", path)
	}
	return sqlite.OpenPath(path)
}
