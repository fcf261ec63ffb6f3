package domain

import (
	"fmt"
	"time"
)

// ─── Period Keys ────────────────────────────────────────────────────────────
// A period key names the recurrence instance "today" belongs to. Progress
// records remember the key they were last reset under; a different key means
// the period rolled over.

// Period is the recurrence of a challenge.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodWeekend Period = "weekend"
	PeriodMonthly Period = "monthly"
	PeriodAllTime Period = "alltime"
)

// AllTimeKey is the key of every period that never resets.
const AllTimeKey = "alltime"

// ParsePeriod maps a tag to a Period. Unknown tags become PeriodAllTime.
func ParsePeriod(tag string) Period {
	switch p := Period(tag); p {
	case PeriodDaily, PeriodWeekly, PeriodWeekend, PeriodMonthly:
		return p
	default:
		return PeriodAllTime
	}
}

// PeriodKey returns the canonical key of the period instance containing today.
//
//	daily   → 2026-10-18
//	weekly  → 2026-W42
//	weekend → weekend-2026-10-17
//	monthly → 2026-10
//	other   → alltime
func PeriodKey(p Period, today time.Time) string {
	switch p {
	case PeriodDaily:
		return DateKey(today)
	case PeriodWeekly:
		y, w := today.ISOWeek()
		return fmt.Sprintf("%d-W%02d", y, w)
	case PeriodWeekend:
		return "weekend-" + DateKey(WeekendSaturday(today))
	case PeriodMonthly:
		return today.Format("2006-01")
	default:
		return AllTimeKey
	}
}

// PeriodDates lists the calendar date keys of the period instance containing
// today. The all-time period has no finite date list and returns nil.
func PeriodDates(p Period, today time.Time) []string {
	day := StartOfDay(today)
	switch p {
	case PeriodDaily:
		return []string{DateKey(day)}
	case PeriodWeekly:
		return DateRange(ISOWeekMonday(day), 7)
	case PeriodWeekend:
		return DateRange(WeekendSaturday(day), 2)
	case PeriodMonthly:
		first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		return DateRange(first, first.AddDate(0, 1, -1).Day())
	default:
		return nil
	}
}

// ─── Calendar Helpers ───────────────────────────────────────────────────────

// DateKey formats t as an ISO calendar date.
func DateKey(t time.Time) string { return t.Format(time.DateOnly) }

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ParseDate parses an ISO calendar date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, s, loc)
}

// ISOWeekMonday returns the Monday that starts t's ISO week.
func ISOWeekMonday(t time.Time) time.Time {
	day := StartOfDay(t)
	return day.AddDate(0, 0, -isoWeekday(day))
}

// WeekendSaturday returns the Saturday of the current or upcoming weekend.
// Monday through Saturday map forward to that week's Saturday; Sunday maps
// back to yesterday.
func WeekendSaturday(t time.Time) time.Time {
	day := StartOfDay(t)
	wd := isoWeekday(day)
	if wd <= 5 {
		return day.AddDate(0, 0, 5-wd)
	}
	return day.AddDate(0, 0, -(wd - 5))
}

// DateRange returns n consecutive date keys starting at from.
func DateRange(from time.Time, n int) []string {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, DateKey(from.AddDate(0, 0, i)))
	}
	return out
}

// DatesBetween returns every date key in the inclusive range [start, end].
// It returns nil when end precedes start.
func DatesBetween(start, end time.Time) []string {
	s, e := StartOfDay(start), StartOfDay(end)
	if e.Before(s) {
		return nil
	}
	var out []string
	for d := s; !d.After(e); d = d.AddDate(0, 0, 1) {
		out = append(out, DateKey(d))
	}
	return out
}

// isoWeekday numbers Monday as 0 and Sunday as 6.
func isoWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
