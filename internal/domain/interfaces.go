package domain

import "context"

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.

// LedgerSink receives points ledger entries after they are committed in
// memory. Sinks are best-effort mirrors: a failing sink never rolls back
// the engine.
type LedgerSink interface {
	Append(ctx context.Context, entries []LedgerEntry) error
}

// LeaderboardPublisher mirrors ranked standings to an external store.
type LeaderboardPublisher interface {
	PublishStandings(ctx context.Context, kind LeaderboardType, entries []LeaderboardEntry) error
}
