package domain

import (
	"sort"
	"time"
)

// ─── User Types ─────────────────────────────────────────────────────────────

// DailyLog is the additive activity bucket for one calendar date.
type DailyLog struct {
	Minutes int     `json:"minutes"`
	Steps   int     `json:"steps"`
	Miles   float64 `json:"miles"`
}

// Add accumulates another bucket into d.
func (d *DailyLog) Add(o DailyLog) {
	d.Minutes += o.Minutes
	d.Steps += o.Steps
	d.Miles += o.Miles
}

// User is a walker and everything the engine tracks about them.
// Counters are scoped to the period key stored next to them; a counter read
// under a different key is zero.
type User struct {
	ID          string              `json:"id"`
	DisplayName string              `json:"display_name"`
	Points      int64               `json:"points"`
	Team        string              `json:"team,omitempty"`
	Daily       map[string]DailyLog `json:"daily"`
	WalkEvents  []time.Time         `json:"walk_events"`
	CreatedAt   time.Time           `json:"created_at"`

	PhotoWeek        string `json:"photo_week,omitempty"`
	PhotosThisWeek   int    `json:"photos_this_week"`
	InviteMonth      string `json:"invite_month,omitempty"`
	InvitesThisMonth int    `json:"invites_this_month"`

	RouteMonth      string              `json:"route_month,omitempty"`
	RoutesThisMonth map[string]struct{} `json:"-"`
}

// NewUser creates a user with every collection allocated.
func NewUser(id, displayName string, now time.Time) *User {
	if displayName == "" {
		displayName = id
	}
	return &User{
		ID:              id,
		DisplayName:     displayName,
		Daily:           make(map[string]DailyLog),
		RoutesThisMonth: make(map[string]struct{}),
		CreatedAt:       now,
	}
}

// LogWalk appends a walk event and adds the activity to its date bucket.
func (u *User) LogWalk(at time.Time, activity DailyLog) {
	u.WalkEvents = append(u.WalkEvents, at)
	key := DateKey(at)
	bucket := u.Daily[key]
	bucket.Add(activity)
	u.Daily[key] = bucket
}

// Totals sums the daily buckets for the given date keys.
func (u *User) Totals(dates []string) DailyLog {
	var sum DailyLog
	for _, d := range dates {
		if b, ok := u.Daily[d]; ok {
			sum.Add(b)
		}
	}
	return sum
}

// AllTimeTotals sums every daily bucket.
func (u *User) AllTimeTotals() DailyLog {
	var sum DailyLog
	for _, b := range u.Daily {
		sum.Add(b)
	}
	return sum
}

// WalkCount counts walk events whose date falls in dates. A nil date list
// counts every event.
func (u *User) WalkCount(dates []string, loc *time.Location) int {
	if dates == nil {
		return len(u.WalkEvents)
	}
	set := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		set[d] = struct{}{}
	}
	n := 0
	for _, ev := range u.WalkEvents {
		if _, ok := set[DateKey(ev.In(loc))]; ok {
			n++
		}
	}
	return n
}

// ─── Period-Scoped Counters ─────────────────────────────────────────────────

// AddPhoto counts a shared photo in the given week.
func (u *User) AddPhoto(weekKey string) {
	if u.PhotoWeek != weekKey {
		u.PhotoWeek, u.PhotosThisWeek = weekKey, 0
	}
	u.PhotosThisWeek++
}

// Photos returns the number of photos shared in the given week.
func (u *User) Photos(weekKey string) int {
	if u.PhotoWeek != weekKey {
		return 0
	}
	return u.PhotosThisWeek
}

// AddInvite counts a sent invite in the given month.
func (u *User) AddInvite(monthKey string) {
	if u.InviteMonth != monthKey {
		u.InviteMonth, u.InvitesThisMonth = monthKey, 0
	}
	u.InvitesThisMonth++
}

// Invites returns the number of invites sent in the given month.
func (u *User) Invites(monthKey string) int {
	if u.InviteMonth != monthKey {
		return 0
	}
	return u.InvitesThisMonth
}

// TouchRoute records a route name as explored in the given month.
func (u *User) TouchRoute(monthKey, name string) {
	if u.RouteMonth != monthKey {
		u.RouteMonth = monthKey
		u.RoutesThisMonth = make(map[string]struct{})
	}
	u.RoutesThisMonth[name] = struct{}{}
}

// DistinctRoutes returns the sorted route names explored in the given month.
func (u *User) DistinctRoutes(monthKey string) []string {
	if u.RouteMonth != monthKey {
		return nil
	}
	out := make([]string, 0, len(u.RoutesThisMonth))
	for name := range u.RoutesThisMonth {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
