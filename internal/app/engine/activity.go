package engine

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/walkbuddy/walkbuddy/internal/domain"
	"github.com/walkbuddy/walkbuddy/internal/infra/observability"
)

// ─── Activity Ledger ────────────────────────────────────────────────────────

// WalkInput is one walk submission.
type WalkInput struct {
	UserID      string  `json:"user_id"`
	DisplayName string  `json:"display_name,omitempty"`
	Minutes     int     `json:"minutes"`
	Steps       int     `json:"steps"`
	Miles       float64 `json:"miles"`
	GroupWalk   bool    `json:"group_walk"`
	SharedPhoto bool    `json:"shared_photo"`
}

// WalkResult confirms a logged walk. Total includes challenge rewards
// awarded by the re-evaluation that followed the walk.
type WalkResult struct {
	Gained    int64    `json:"gained"`
	Total     int64    `json:"total"`
	Streak    int      `json:"streak"`
	Completed []string `json:"completed"`
}

// RecordWalk logs a walk for today, awards walk points, and re-evaluates
// every challenge for the user.
func (e *Engine) RecordWalk(in WalkInput) (WalkResult, error) {
	if in.UserID == "" {
		return WalkResult{}, domain.ErrEmptyUserID
	}
	e.mu.Lock()
	defer e.unlockAndFlush()

	now := e.clock()
	u := e.ensureUserLocked(in.UserID, in.DisplayName, now)
	minutes := clampInt(in.Minutes)
	u.LogWalk(now, domain.DailyLog{
		Minutes: minutes,
		Steps:   clampInt(in.Steps),
		Miles:   clampFloat(in.Miles),
	})

	streak := domain.StreakLength(u.WalkEvents, now)
	gained := e.cfg.Rules.ForWalk(minutes, in.GroupWalk, in.SharedPhoto, streak)
	if in.SharedPhoto {
		u.AddPhoto(domain.PeriodKey(domain.PeriodWeekly, now))
	}
	e.credit(u, gained, domain.TxEarn, "walk", "Walk logged")

	if rs, ok := e.reminders[u.ID]; ok {
		rs.WalkLogged(now)
	}

	completed := e.evaluateAllLocked(u, now)
	observability.WalksRecorded.Inc()
	observability.StreakLength.Observe(float64(streak))

	e.log.WithFields(logrus.Fields{
		"user":      u.ID,
		"gained":    gained,
		"streak":    streak,
		"completed": len(completed),
	}).Debug("walk recorded")

	return WalkResult{Gained: gained, Total: u.Points, Streak: streak, Completed: completed}, nil
}

// InviteResult confirms a sent invite.
type InviteResult struct {
	Gained    int64    `json:"gained"`
	Total     int64    `json:"total"`
	Invites   int      `json:"invites_this_month"`
	Completed []string `json:"completed"`
}

// SendInvite records an invitation, awards the invite bonus, and
// re-evaluates every challenge for the inviter.
func (e *Engine) SendInvite(userID, friend string) (InviteResult, error) {
	friend = strings.TrimSpace(friend)
	if userID == "" {
		return InviteResult{}, domain.ErrEmptyUserID
	}
	if friend == "" {
		return InviteResult{}, domain.ErrInvalidInput
	}
	e.mu.Lock()
	defer e.unlockAndFlush()

	now := e.clock()
	u := e.ensureUserLocked(userID, "", now)
	e.invites = append(e.invites, domain.Invite{Inviter: userID, Friend: friend, SentAt: now})
	monthKey := domain.PeriodKey(domain.PeriodMonthly, now)
	u.AddInvite(monthKey)
	e.credit(u, e.cfg.Rules.InviteBonus, domain.TxBonus, "invite", "Invited "+friend)

	completed := e.evaluateAllLocked(u, now)
	observability.InvitesSent.Inc()

	return InviteResult{
		Gained:    e.cfg.Rules.InviteBonus,
		Total:     u.Points,
		Invites:   u.Invites(monthKey),
		Completed: completed,
	}, nil
}

// Invites returns the invitations sent by a user.
func (e *Engine) Invites(userID string) []domain.Invite {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []domain.Invite
	for _, inv := range e.invites {
		if inv.Inviter == userID {
			out = append(out, inv)
		}
	}
	return out
}

// Totals sums a user's activity over explicit date keys. A nil list sums
// all time.
func (e *Engine) Totals(userID string, dates []string) domain.DailyLog {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.viewLocked(e.clock()).Totals(userID, dates)
}

// WalkCount counts a user's walk events on the given date keys.
func (e *Engine) WalkCount(userID string, dates []string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.viewLocked(e.clock()).WalkCount(userID, dates)
}

// ─── Activity View ──────────────────────────────────────────────────────────

// storeView exposes the store to goals. It must only be used with mu held.
type storeView struct {
	e     *Engine
	today time.Time
}

func (e *Engine) viewLocked(today time.Time) storeView { return storeView{e: e, today: today} }

func (v storeView) Today() time.Time { return v.today }

func (v storeView) Totals(userID string, dates []string) domain.DailyLog {
	u, ok := v.e.users[userID]
	if !ok {
		return domain.DailyLog{}
	}
	if dates == nil {
		return u.AllTimeTotals()
	}
	return u.Totals(dates)
}

func (v storeView) WalkCount(userID string, dates []string) int {
	u, ok := v.e.users[userID]
	if !ok {
		return 0
	}
	return u.WalkCount(dates, v.today.Location())
}

func (v storeView) TeamMembers(userID string) []string {
	u, ok := v.e.users[userID]
	if !ok || u.Team == "" {
		return nil
	}
	t, ok := v.e.teams[u.Team]
	if !ok {
		return nil
	}
	return t.Members()
}

func (v storeView) Photos(userID string) int {
	u, ok := v.e.users[userID]
	if !ok {
		return 0
	}
	return u.Photos(domain.PeriodKey(domain.PeriodWeekly, v.today))
}

func (v storeView) Invites(userID string) int {
	u, ok := v.e.users[userID]
	if !ok {
		return 0
	}
	return u.Invites(domain.PeriodKey(domain.PeriodMonthly, v.today))
}

func (v storeView) DistinctRoutes(userID string) int {
	u, ok := v.e.users[userID]
	if !ok {
		return 0
	}
	return len(u.DistinctRoutes(domain.PeriodKey(domain.PeriodMonthly, v.today)))
}
