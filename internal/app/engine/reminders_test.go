package engine

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/walkbuddy/walkbuddy/internal/domain"
)

func TestReminders_DefaultSchedule(t *testing.T) {
	e, clock := newTestEngine(t)

	rs, err := e.Reminders("u")
	if err != nil {
		t.Fatalf("Reminders() error: %v", err)
	}
	if want := clock.Now().Add(2 * time.Hour); !rs.NextWalkAt.Equal(want) {
		t.Errorf("NextWalkAt = %v, want %v", rs.NextWalkAt, want)
	}
	if due := e.DueReminders("u"); len(due) != 0 {
		t.Errorf("due right after creation = %v, want none", due)
	}

	clock.Advance(30 * time.Minute)
	if due := e.DueReminders("u"); !reflect.DeepEqual(due, []domain.ReminderKind{domain.ReminderStand}) {
		t.Errorf("due at +30m = %v, want [stand]", due)
	}
	clock.Advance(90 * time.Minute)
	want := []domain.ReminderKind{domain.ReminderWalk, domain.ReminderStand}
	if due := e.DueReminders("u"); !reflect.DeepEqual(due, want) {
		t.Errorf("due at +2h = %v, want %v", due, want)
	}
}

func TestReminders_WalkRestartsInterval(t *testing.T) {
	e, clock := newTestEngine(t)
	e.Reminders("u")

	clock.Advance(2 * time.Hour)
	mustWalk(t, e, WalkInput{UserID: "u", Minutes: 20})

	for _, k := range e.DueReminders("u") {
		if k == domain.ReminderWalk {
			t.Error("walk reminder still due after logging a walk")
		}
	}
}

func TestReminders_SnoozeAckDismiss(t *testing.T) {
	e, clock := newTestEngine(t)
	e.Reminders("u")
	clock.Advance(30 * time.Minute)

	rs, err := e.SnoozeReminder("u", domain.ReminderStand)
	if err != nil {
		t.Fatalf("SnoozeReminder() error: %v", err)
	}
	if want := clock.Now().Add(5 * time.Minute); !rs.NextStandAt.Equal(want) {
		t.Errorf("stand snooze NextStandAt = %v, want %v", rs.NextStandAt, want)
	}

	clock.Advance(5 * time.Minute)
	rs, _ = e.AckReminder("u", domain.ReminderStand)
	if !rs.LastStandAckAt.Equal(clock.Now()) {
		t.Error("Ack did not record LastStandAckAt")
	}

	clock.Advance(2 * time.Hour)
	rs, _ = e.SnoozeReminder("u", domain.ReminderWalk)
	if want := clock.Now().Add(10 * time.Minute); !rs.NextWalkAt.Equal(want) {
		t.Errorf("walk snooze NextWalkAt = %v, want %v", rs.NextWalkAt, want)
	}
	rs, _ = e.DismissReminder("u", domain.ReminderWalk)
	if want := clock.Now().Add(2 * time.Hour); !rs.NextWalkAt.Equal(want) {
		t.Errorf("dismiss NextWalkAt = %v, want %v", rs.NextWalkAt, want)
	}
	if !rs.LastWalkAt.IsZero() {
		t.Error("dismiss must not record a walk")
	}

	if _, err := e.AckReminder("u", "nap"); !errors.Is(err, domain.ErrUnknownReminder) {
		t.Errorf("unknown kind error = %v, want ErrUnknownReminder", err)
	}
}

func TestReminders_UpdateAndAllDue(t *testing.T) {
	e, clock := newTestEngine(t)
	e.Reminders("a")
	_, err := e.UpdateReminders("b", domain.ReminderSettings{WalkEnabled: true, WalkEveryMin: 15, SnoozeMinutes: 90})
	if err != nil {
		t.Fatalf("UpdateReminders() error: %v", err)
	}
	rs, _ := e.Reminders("b")
	if rs.Settings.SnoozeMinutes != 60 {
		t.Errorf("SnoozeMinutes = %d, want clamped 60", rs.Settings.SnoozeMinutes)
	}
	if !rs.NextStandAt.IsZero() {
		t.Error("disabled stand reminder should have no schedule")
	}

	clock.Advance(20 * time.Minute)
	all := e.AllDueReminders()
	if len(all) != 1 || len(all["b"]) != 1 {
		t.Errorf("AllDueReminders = %v, want only b", all)
	}
	if e.DueReminders("nobody") != nil {
		t.Error("users without reminder state have nothing due")
	}
}
