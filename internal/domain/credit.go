package domain

import "time"

// ─── Points Ledger Types ────────────────────────────────────────────────────
// Every balance change is recorded as a ledger entry. The balance column is
// the account balance after the entry was applied.

// EntryType represents the accounting side of a ledger entry.
type EntryType string

const (
	EntryDebit  EntryType = "DEBIT"
	EntryCredit EntryType = "CREDIT"
)

// TransactionType represents the business reason for a points operation.
type TransactionType string

const (
	TxEarn  TransactionType = "EARN"  // points from a logged walk
	TxBonus TransactionType = "BONUS" // invites, challenge rewards, battle wins
	TxSpend TransactionType = "SPEND" // reward redemption
)

// LedgerEntry is a single row in the points ledger.
type LedgerEntry struct {
	ID          string          `json:"id"`
	Timestamp   time.Time       `json:"timestamp"`
	Type        TransactionType `json:"type"`
	EntryType   EntryType       `json:"entry_type"`
	Account     string          `json:"account"`
	Amount      int64           `json:"amount"`
	Reference   string          `json:"reference,omitempty"`
	Description string          `json:"description,omitempty"`
	Balance     int64           `json:"balance"`
}
