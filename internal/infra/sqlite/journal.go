package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/walkbuddy/walkbuddy/internal/domain"
)

// tsLayout has a fixed width so timestamps sort lexically.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

var _ domain.LedgerSink = (*DB)(nil)

// ─── Journal Writes ─────────────────────────────────────────────────────────

// Append writes ledger entries in one transaction. Entries already present
// (same id) are skipped, so redelivery is harmless.
func (db *DB) Append(ctx context.Context, entries []domain.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO points_ledger
			(id, ts, type, entry_type, account, amount, reference, description, balance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx,
			e.ID, e.Timestamp.UTC().Format(tsLayout), string(e.Type), string(e.EntryType),
			e.Account, e.Amount, e.Reference, e.Description, e.Balance,
		); err != nil {
			return fmt.Errorf("insert entry %s: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

// ─── Journal Reads ──────────────────────────────────────────────────────────

// ListEntries returns an account's entries, newest first. An empty account
// lists every account. A limit of zero or less means no limit.
func (db *DB) ListEntries(ctx context.Context, account string, limit int) ([]domain.LedgerEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.db.QueryContext(ctx, `
		SELECT id, ts, type, entry_type, account, amount, reference, description, balance
		FROM points_ledger
		WHERE (? = '' OR account = ?)
		ORDER BY ts DESC, rowid DESC
		LIMIT ?
	`, account, account, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.LedgerEntry
	for rows.Next() {
		var (
			e         domain.LedgerEntry
			ts        string
			txType    string
			entryType string
		)
		if err := rows.Scan(&e.ID, &ts, &txType, &entryType, &e.Account, &e.Amount, &e.Reference, &e.Description, &e.Balance); err != nil {
			return nil, err
		}
		e.Timestamp, _ = time.Parse(tsLayout, ts)
		e.Type = domain.TransactionType(txType)
		e.EntryType = domain.EntryType(entryType)
		out = append(out, e)
	}
	return out, rows.Err()
}

// AccountSummary aggregates one account's journal.
type AccountSummary struct {
	Account string `json:"account"`
	Earned  int64  `json:"earned"`
	Spent   int64  `json:"spent"`
	Balance int64  `json:"balance"`
	Entries int    `json:"entries"`
}

// Summaries returns per-account totals ordered by balance, highest first.
// Balance is the balance column of the account's latest entry.
func (db *DB) Summaries(ctx context.Context) ([]AccountSummary, error) {
	rows, err := db.db.QueryContext(ctx, `
		SELECT
			l.account,
			COALESCE(SUM(CASE WHEN l.entry_type = 'CREDIT' THEN l.amount END), 0),
			COALESCE(SUM(CASE WHEN l.entry_type = 'DEBIT' THEN l.amount END), 0),
			(SELECT balance FROM points_ledger x
				WHERE x.account = l.account ORDER BY x.ts DESC, x.rowid DESC LIMIT 1),
			COUNT(*)
		FROM points_ledger l
		GROUP BY l.account
		ORDER BY 4 DESC, l.account
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AccountSummary
	for rows.Next() {
		var s AccountSummary
		if err := rows.Scan(&s.Account, &s.Earned, &s.Spent, &s.Balance, &s.Entries); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CountByType returns how many entries each transaction type has.
func (db *DB) CountByType(ctx context.Context) (map[domain.TransactionType]int, error) {
	rows, err := db.db.QueryContext(ctx, `SELECT type, COUNT(*) FROM points_ledger GROUP BY type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[domain.TransactionType]int)
	for rows.Next() {
		var (
			t string
			n int
		)
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		out[domain.TransactionType(t)] = n
	}
	return out, rows.Err()
}
