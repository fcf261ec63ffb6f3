package engine

import (
	"sort"
	"time"

	"github.com/walkbuddy/walkbuddy/internal/domain"
)

// ─── Reminders ──────────────────────────────────────────────────────────────
// Reminder state is created with the engine's default settings the first
// time a user's reminders are touched.

// Reminders returns a copy of the user's reminder state.
func (e *Engine) Reminders(userID string) (domain.ReminderState, error) {
	if userID == "" {
		return domain.ReminderState{}, domain.ErrEmptyUserID
	}
	e.mu.Lock()
	defer e.unlockAndFlush()
	return *e.remindersLocked(userID), nil
}

// UpdateReminders replaces the user's reminder settings.
func (e *Engine) UpdateReminders(userID string, s domain.ReminderSettings) (domain.ReminderState, error) {
	if userID == "" {
		return domain.ReminderState{}, domain.ErrEmptyUserID
	}
	e.mu.Lock()
	defer e.unlockAndFlush()
	rs := e.remindersLocked(userID)
	rs.Apply(s, e.clock())
	return *rs, nil
}

// DueReminders lists the user's reminders that are due now.
func (e *Engine) DueReminders(userID string) []domain.ReminderKind {
	e.mu.RLock()
	defer e.mu.RUnlock()
	rs, ok := e.reminders[userID]
	if !ok {
		return nil
	}
	return rs.Due(e.clock())
}

// AllDueReminders maps every user with a due reminder to the due kinds.
func (e *Engine) AllDueReminders() map[string][]domain.ReminderKind {
	e.mu.RLock()
	defer e.mu.RUnlock()
	now := e.clock()
	out := make(map[string][]domain.ReminderKind)
	ids := make([]string, 0, len(e.reminders))
	for id := range e.reminders {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if due := e.reminders[id].Due(now); len(due) > 0 {
			out[id] = due
		}
	}
	return out
}

// AckReminder acknowledges a reminder and restarts its interval.
func (e *Engine) AckReminder(userID string, kind domain.ReminderKind) (domain.ReminderState, error) {
	return e.changeReminder(userID, kind, (*domain.ReminderState).Ack)
}

// SnoozeReminder postpones a reminder.
func (e *Engine) SnoozeReminder(userID string, kind domain.ReminderKind) (domain.ReminderState, error) {
	return e.changeReminder(userID, kind, (*domain.ReminderState).Snooze)
}

// DismissReminder skips a reminder until its next full interval.
func (e *Engine) DismissReminder(userID string, kind domain.ReminderKind) (domain.ReminderState, error) {
	return e.changeReminder(userID, kind, (*domain.ReminderState).Dismiss)
}

func (e *Engine) changeReminder(userID string, kind domain.ReminderKind, apply func(*domain.ReminderState, domain.ReminderKind, time.Time) error) (domain.ReminderState, error) {
	if userID == "" {
		return domain.ReminderState{}, domain.ErrEmptyUserID
	}
	e.mu.Lock()
	defer e.unlockAndFlush()
	rs := e.remindersLocked(userID)
	if err := apply(rs, kind, e.clock()); err != nil {
		return domain.ReminderState{}, err
	}
	return *rs, nil
}

func (e *Engine) remindersLocked(userID string) *domain.ReminderState {
	if rs, ok := e.reminders[userID]; ok {
		return rs
	}
	now := e.clock()
	e.ensureUserLocked(userID, "", now)
	rs := domain.NewReminderState(e.cfg.Reminders, now)
	e.reminders[userID] = rs
	return rs
}
