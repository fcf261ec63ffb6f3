package domain

import (
	"sort"
	"time"
)

// ─── Point Rules ────────────────────────────────────────────────────────────

const (
	// StreakWeek is the streak length that earns the weekly bonus.
	StreakWeek = 7
	// StreakMonth is the streak length that earns the monthly bonus.
	StreakMonth = 30
)

// PointRules defines how activity converts to points.
type PointRules struct {
	BasePerMinute   int64 `json:"base_per_minute" toml:"base_per_minute"`
	GroupWalkBonus  int64 `json:"group_walk_bonus" toml:"group_walk_bonus"`
	PhotoShareBonus int64 `json:"photo_share_bonus" toml:"photo_share_bonus"`
	Streak7Bonus    int64 `json:"streak_7_bonus" toml:"streak_7_bonus"`
	Streak30Bonus   int64 `json:"streak_30_bonus" toml:"streak_30_bonus"`
	InviteBonus     int64 `json:"invite_bonus" toml:"invite_bonus"`
}

// DefaultPointRules returns the standard point table.
func DefaultPointRules() PointRules {
	return PointRules{
		BasePerMinute:   1,
		GroupWalkBonus:  20,
		PhotoShareBonus: 5,
		Streak7Bonus:    10,
		Streak30Bonus:   50,
		InviteBonus:     50,
	}
}

// ForWalk returns the points earned by one walk. The streak must already
// include the walk being scored.
func (r PointRules) ForWalk(minutes int, group, sharedPhoto bool, streak int) int64 {
	pts := int64(minutes) * r.BasePerMinute
	if group {
		pts += r.GroupWalkBonus
	}
	if sharedPhoto {
		pts += r.PhotoShareBonus
	}
	return pts + r.StreakBonus(streak)
}

// StreakBonus returns the bonus for a streak. Only the highest tier applies.
func (r PointRules) StreakBonus(streak int) int64 {
	switch {
	case streak >= StreakMonth:
		return r.Streak30Bonus
	case streak >= StreakWeek:
		return r.Streak7Bonus
	default:
		return 0
	}
}

// ─── Streaks ────────────────────────────────────────────────────────────────

// StreakLength counts consecutive calendar days, ending today, on which at
// least one walk was logged. Events dated after today are ignored and the
// count stops at the first missing day.
func StreakLength(events []time.Time, today time.Time) int {
	if len(events) == 0 {
		return 0
	}
	loc := today.Location()
	seen := make(map[string]struct{}, len(events))
	days := make([]string, 0, len(events))
	for _, ev := range events {
		k := DateKey(ev.In(loc))
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		days = append(days, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))

	streak := 0
	expected := StartOfDay(today)
	for _, d := range days {
		want := DateKey(expected)
		if d == want {
			streak++
			expected = expected.AddDate(0, 0, -1)
		} else if d < want {
			break
		}
	}
	return streak
}

// ─── Tiers ──────────────────────────────────────────────────────────────────

// Tier is a named bracket derived from a point balance.
type Tier string

const (
	TierBronze   Tier = "Bronze"
	TierSilver   Tier = "Silver"
	TierGold     Tier = "Gold"
	TierPlatinum Tier = "Platinum"
)

// tierThresholds is ordered from the highest bracket down.
var tierThresholds = []struct {
	tier Tier
	min  int64
}{
	{TierPlatinum, 5000},
	{TierGold, 1000},
	{TierSilver, 500},
	{TierBronze, 0},
}

// TierFor returns the tier for a point balance.
func TierFor(points int64) Tier {
	for _, t := range tierThresholds {
		if points >= t.min {
			return t.tier
		}
	}
	return TierBronze
}

// Rank orders tiers: Bronze 0 through Platinum 3. Unknown tiers rank 0.
func (t Tier) Rank() int {
	switch t {
	case TierSilver:
		return 1
	case TierGold:
		return 2
	case TierPlatinum:
		return 3
	default:
		return 0
	}
}

// AtLeast reports whether t is the same bracket as min or higher.
func (t Tier) AtLeast(min Tier) bool { return t.Rank() >= min.Rank() }

// NextTier returns the next bracket above points and how many points are
// missing. At Platinum it returns Platinum and 0.
func NextTier(points int64) (Tier, int64) {
	for i := len(tierThresholds) - 1; i >= 0; i-- {
		if points < tierThresholds[i].min {
			return tierThresholds[i].tier, tierThresholds[i].min - points
		}
	}
	return TierPlatinum, 0
}
