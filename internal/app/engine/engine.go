// Package engine implements the Walking Buddies challenge and points engine.
//
// All state lives in one in-memory store guarded by a single lock. Every
// exported operation is one atomic step against that store:
//
//	walk submission → activity ledger → points & streak → broad challenge
//	re-evaluation (ledger + team aggregation) → balance mutation
//
// Balance mutations are also appended to a points ledger. Ledger entries are
// handed to the configured sinks after the store lock is released.
package engine

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/walkbuddy/walkbuddy/internal/domain"
	"github.com/walkbuddy/walkbuddy/internal/infra/observability"
)

// ─── Configuration ──────────────────────────────────────────────────────────

// Config tunes the engine.
type Config struct {
	Rules     domain.PointRules
	Location  *time.Location
	Reminders domain.ReminderSettings
	Rewards   []domain.Reward
	// SinkTimeout bounds one round of sink delivery.
	SinkTimeout time.Duration
}

// DefaultConfig returns the standard rules in the local time zone.
func DefaultConfig() Config {
	return Config{
		Rules:       domain.DefaultPointRules(),
		Location:    time.Local,
		Reminders:   domain.DefaultReminderSettings(),
		Rewards:     domain.DefaultRewards(),
		SinkTimeout: 5 * time.Second,
	}
}

// ─── Engine ─────────────────────────────────────────────────────────────────

// Engine owns the application state.
type Engine struct {
	mu  sync.RWMutex
	cfg Config
	now func() time.Time
	log *logrus.Entry

	sinks      []domain.LedgerSink
	publishers []domain.LeaderboardPublisher

	// flushMu orders deliveries. flushSeq is stamped under mu at commit;
	// published is the newest seq whose standings reached the publishers.
	flushMu   sync.Mutex
	flushSeq  uint64
	published uint64

	users    map[string]*domain.User
	teams    map[string]*domain.Team
	progress map[string]map[string]*domain.ChallengeProgress // user → challenge → progress

	catalog     []domain.ChallengeDefinition
	custom      map[string]domain.ChallengeDefinition
	customOrder []string

	invites     []domain.Invite
	routes      []domain.Route
	messages    []domain.Message
	msgSeq      int64
	battles     map[string]*domain.Battle
	battleOrder []string

	rewards     map[string]domain.Reward
	rewardOrder []string
	redemptions []domain.Redemption

	reminders map[string]*domain.ReminderState

	ledger  []domain.LedgerEntry
	pending []domain.LedgerEntry
}

// New creates an engine with the built-in challenge catalog.
func New(cfg Config) *Engine {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.SinkTimeout <= 0 {
		cfg.SinkTimeout = 5 * time.Second
	}
	if cfg.Rewards == nil {
		cfg.Rewards = domain.DefaultRewards()
	}
	e := &Engine{
		cfg:       cfg,
		now:       time.Now,
		log:       logrus.NewEntry(logrus.StandardLogger()).WithField("component", "engine"),
		users:     make(map[string]*domain.User),
		teams:     make(map[string]*domain.Team),
		progress:  make(map[string]map[string]*domain.ChallengeProgress),
		catalog:   domain.BuiltinCatalog(),
		custom:    make(map[string]domain.ChallengeDefinition),
		battles:   make(map[string]*domain.Battle),
		rewards:   make(map[string]domain.Reward),
		reminders: make(map[string]*domain.ReminderState),
	}
	for _, r := range cfg.Rewards {
		if _, dup := e.rewards[r.ID]; dup {
			continue
		}
		e.rewards[r.ID] = r
		e.rewardOrder = append(e.rewardOrder, r.ID)
	}
	return e
}

// SetClock replaces the time source.
func (e *Engine) SetClock(now func() time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = now
}

// SetLogger replaces the logger.
func (e *Engine) SetLogger(l *logrus.Entry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.log = l
}

// AddSink registers a ledger sink.
func (e *Engine) AddSink(s domain.LedgerSink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sinks = append(e.sinks, s)
}

// AddPublisher registers a leaderboard publisher.
func (e *Engine) AddPublisher(p domain.LeaderboardPublisher) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.publishers = append(e.publishers, p)
}

// Rules returns the point rules in effect.
func (e *Engine) Rules() domain.PointRules { return e.cfg.Rules }

// Now returns the engine clock in the engine's location.
func (e *Engine) Now() time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.clock()
}

// clock must be called with mu held.
func (e *Engine) clock() time.Time { return e.now().In(e.cfg.Location) }

// ─── Users ──────────────────────────────────────────────────────────────────

// EnsureUser creates the user if missing and returns a profile.
// A non-empty display name replaces the stored one.
func (e *Engine) EnsureUser(id, displayName string) (Profile, error) {
	if id == "" {
		return Profile{}, domain.ErrEmptyUserID
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.clock()
	u := e.ensureUserLocked(id, displayName, now)
	if displayName != "" {
		u.DisplayName = displayName
	}
	return e.profileLocked(u, now), nil
}

// Profile returns a user's dashboard. Unknown users yield a zero profile
// and false.
func (e *Engine) Profile(id string) (Profile, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	u, ok := e.users[id]
	if !ok {
		return Profile{}, false
	}
	return e.profileLocked(u, e.clock()), true
}

// Profile is the display snapshot of a user.
type Profile struct {
	ID           string          `json:"id"`
	DisplayName  string          `json:"display_name"`
	Points       int64           `json:"points"`
	Tier         domain.Tier     `json:"tier"`
	NextTier     domain.Tier     `json:"next_tier"`
	PointsToNext int64           `json:"points_to_next"`
	Team         string          `json:"team,omitempty"`
	Streak       int             `json:"streak"`
	Today        domain.DailyLog `json:"today"`
	ThisWeek     domain.DailyLog `json:"this_week"`
	TotalWalks   int             `json:"total_walks"`
}

func (e *Engine) profileLocked(u *domain.User, now time.Time) Profile {
	next, missing := domain.NextTier(u.Points)
	return Profile{
		ID:           u.ID,
		DisplayName:  u.DisplayName,
		Points:       u.Points,
		Tier:         domain.TierFor(u.Points),
		NextTier:     next,
		PointsToNext: missing,
		Team:         u.Team,
		Streak:       domain.StreakLength(u.WalkEvents, now),
		Today:        u.Totals(domain.PeriodDates(domain.PeriodDaily, now)),
		ThisWeek:     u.Totals(domain.PeriodDates(domain.PeriodWeekly, now)),
		TotalWalks:   len(u.WalkEvents),
	}
}

func (e *Engine) ensureUserLocked(id, displayName string, now time.Time) *domain.User {
	if u, ok := e.users[id]; ok {
		return u
	}
	u := domain.NewUser(id, displayName, now)
	e.users[id] = u
	observability.UsersTotal.Set(float64(len(e.users)))
	return u
}

// ─── Points Ledger ──────────────────────────────────────────────────────────

// credit adds points to a user and records the ledger entry.
func (e *Engine) credit(u *domain.User, amount int64, tx domain.TransactionType, ref, desc string) {
	if amount <= 0 {
		return
	}
	u.Points += amount
	e.record(u, tx, domain.EntryCredit, amount, ref, desc)
	observability.PointsAwarded.WithLabelValues(string(tx)).Add(float64(amount))
}

// debit removes points from a user. Callers check the balance first.
func (e *Engine) debit(u *domain.User, amount int64, ref, desc string) {
	u.Points -= amount
	e.record(u, domain.TxSpend, domain.EntryDebit, amount, ref, desc)
	observability.PointsSpent.Add(float64(amount))
}

func (e *Engine) record(u *domain.User, tx domain.TransactionType, side domain.EntryType, amount int64, ref, desc string) {
	entry := domain.LedgerEntry{
		ID:          uuid.NewString(),
		Timestamp:   e.clock(),
		Type:        tx,
		EntryType:   side,
		Account:     u.ID,
		Amount:      amount,
		Reference:   ref,
		Description: desc,
		Balance:     u.Points,
	}
	e.ledger = append(e.ledger, entry)
	e.pending = append(e.pending, entry)
}

// History returns a user's most recent ledger entries, newest first.
// A limit of zero or less returns all of them.
func (e *Engine) History(userID string, limit int) []domain.LedgerEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []domain.LedgerEntry
	for i := len(e.ledger) - 1; i >= 0; i-- {
		if e.ledger[i].Account != userID {
			continue
		}
		out = append(out, e.ledger[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// unlockAndFlush releases the write lock and delivers the ledger entries
// produced while it was held. Standings snapshots are published in commit
// order: a snapshot older than one already published is dropped.
func (e *Engine) unlockAndFlush() {
	entries := e.pending
	e.pending = nil
	if len(entries) == 0 {
		e.mu.Unlock()
		return
	}
	e.flushSeq++
	seq := e.flushSeq
	sinks, publishers := e.sinks, e.publishers
	var users, teams []domain.LeaderboardEntry
	if len(publishers) > 0 {
		users, teams = e.userStandingsLocked(0), e.teamStandingsLocked(0)
	}
	log, timeout := e.log, e.cfg.SinkTimeout
	e.mu.Unlock()

	e.flushMu.Lock()
	defer e.flushMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	for _, s := range sinks {
		if err := s.Append(ctx, entries); err != nil {
			observability.SinkErrors.WithLabelValues("ledger").Inc()
			log.WithError(err).WithField("entries", len(entries)).Warn("ledger sink append failed")
		}
	}
	if seq < e.published {
		log.WithField("seq", seq).Debug("stale standings snapshot dropped")
		return
	}
	e.published = seq
	for _, p := range publishers {
		for kind, rows := range map[domain.LeaderboardType][]domain.LeaderboardEntry{
			domain.LeaderboardUsers: users,
			domain.LeaderboardTeams: teams,
		} {
			if err := p.PublishStandings(ctx, kind, rows); err != nil {
				observability.SinkErrors.WithLabelValues("leaderboard").Inc()
				log.WithError(err).WithField("board", kind).Warn("leaderboard publish failed")
			}
		}
	}
}

// ─── Input Policy ───────────────────────────────────────────────────────────
// Negative or non-finite activity values are clamped to zero.

func clampInt(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

func clampFloat(v float64) float64 {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
