package domain

import "time"

// ─── In-App Reminders ───────────────────────────────────────────────────────
// Reminders are polled, never pushed. A reminder is due once its next-fire
// time has passed; acknowledging or snoozing moves the next-fire time.

// ReminderKind names a reminder.
type ReminderKind string

const (
	ReminderWalk  ReminderKind = "walk"
	ReminderStand ReminderKind = "stand"
)

// StandSnoozeMinutes is the fixed snooze for stand reminders.
const StandSnoozeMinutes = 5

// ReminderSettings are user-tunable reminder intervals.
type ReminderSettings struct {
	WalkEnabled   bool `json:"walk_enabled" toml:"walk_enabled"`
	WalkEveryMin  int  `json:"walk_every_min" toml:"walk_every_min"`
	StandEnabled  bool `json:"stand_enabled" toml:"stand_enabled"`
	StandEveryMin int  `json:"stand_every_min" toml:"stand_every_min"`
	SnoozeMinutes int  `json:"snooze_minutes" toml:"snooze_minutes"`
}

// DefaultReminderSettings returns walk every 2h, stand every 30m, 10m snooze.
func DefaultReminderSettings() ReminderSettings {
	return ReminderSettings{
		WalkEnabled:   true,
		WalkEveryMin:  120,
		StandEnabled:  true,
		StandEveryMin: 30,
		SnoozeMinutes: 10,
	}
}

// Normalize clamps intervals to sane minimums. Snooze stays within 5..60.
func (s ReminderSettings) Normalize() ReminderSettings {
	if s.WalkEveryMin < 1 {
		s.WalkEveryMin = 1
	}
	if s.StandEveryMin < 1 {
		s.StandEveryMin = 1
	}
	if s.SnoozeMinutes < 5 {
		s.SnoozeMinutes = 5
	}
	if s.SnoozeMinutes > 60 {
		s.SnoozeMinutes = 60
	}
	return s
}

// ReminderState is one user's reminder schedule.
type ReminderState struct {
	Settings       ReminderSettings `json:"settings"`
	NextWalkAt     time.Time        `json:"next_walk_at,omitempty"`
	NextStandAt    time.Time        `json:"next_stand_at,omitempty"`
	LastWalkAt     time.Time        `json:"last_walk_at,omitempty"`
	LastStandAckAt time.Time        `json:"last_stand_ack_at,omitempty"`
}

// NewReminderState schedules the first reminders relative to now.
func NewReminderState(s ReminderSettings, now time.Time) *ReminderState {
	r := &ReminderState{}
	r.Apply(s, now)
	return r
}

// Apply replaces the settings. Disabled reminders are cleared; enabled
// reminders without a schedule, or whose interval changed, are scheduled
// from now.
func (r *ReminderState) Apply(s ReminderSettings, now time.Time) {
	prev := r.Settings
	r.Settings = s.Normalize()
	if !r.Settings.WalkEnabled {
		r.NextWalkAt = time.Time{}
	} else if r.NextWalkAt.IsZero() || prev.WalkEveryMin != r.Settings.WalkEveryMin {
		r.NextWalkAt = now.Add(minutes(r.Settings.WalkEveryMin))
	}
	if !r.Settings.StandEnabled {
		r.NextStandAt = time.Time{}
	} else if r.NextStandAt.IsZero() || prev.StandEveryMin != r.Settings.StandEveryMin {
		r.NextStandAt = now.Add(minutes(r.Settings.StandEveryMin))
	}
}

// Due lists the reminders whose next-fire time is not after now.
func (r *ReminderState) Due(now time.Time) []ReminderKind {
	var due []ReminderKind
	if r.Settings.WalkEnabled && !r.NextWalkAt.IsZero() && !now.Before(r.NextWalkAt) {
		due = append(due, ReminderWalk)
	}
	if r.Settings.StandEnabled && !r.NextStandAt.IsZero() && !now.Before(r.NextStandAt) {
		due = append(due, ReminderStand)
	}
	return due
}

// WalkLogged restarts the walk interval.
func (r *ReminderState) WalkLogged(now time.Time) {
	r.LastWalkAt = now
	if r.Settings.WalkEnabled {
		r.NextWalkAt = now.Add(minutes(r.Settings.WalkEveryMin))
	}
}

// Ack acknowledges a reminder and schedules the next full interval.
func (r *ReminderState) Ack(kind ReminderKind, now time.Time) error {
	switch kind {
	case ReminderWalk:
		r.WalkLogged(now)
	case ReminderStand:
		r.LastStandAckAt = now
		r.NextStandAt = now.Add(minutes(r.Settings.StandEveryMin))
	default:
		return ErrUnknownReminder
	}
	return nil
}

// Dismiss skips a reminder without recording activity.
func (r *ReminderState) Dismiss(kind ReminderKind, now time.Time) error {
	switch kind {
	case ReminderWalk:
		r.NextWalkAt = now.Add(minutes(r.Settings.WalkEveryMin))
	case ReminderStand:
		r.NextStandAt = now.Add(minutes(r.Settings.StandEveryMin))
	default:
		return ErrUnknownReminder
	}
	return nil
}

// Snooze postpones a reminder by the snooze interval.
func (r *ReminderState) Snooze(kind ReminderKind, now time.Time) error {
	switch kind {
	case ReminderWalk:
		r.NextWalkAt = now.Add(minutes(r.Settings.SnoozeMinutes))
	case ReminderStand:
		r.NextStandAt = now.Add(minutes(StandSnoozeMinutes))
	default:
		return ErrUnknownReminder
	}
	return nil
}

func minutes(n int) time.Duration { return time.Duration(n) * time.Minute }
