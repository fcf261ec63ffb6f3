package domain

import (
	"math"
	"sort"
	"time"
)

// ─── Social Types ───────────────────────────────────────────────────────────
// Teams, invites, routes, messages, and battles.

// ─── Team Types ─────────────────────────────────────────────────────────────

// Team is a named group of walkers. The name is the unique key.
type Team struct {
	Name      string
	Captain   string
	CreatedAt time.Time
	members   map[string]struct{}
}

// NewTeam creates an empty team captained by captain.
func NewTeam(name, captain string, now time.Time) *Team {
	return &Team{Name: name, Captain: captain, CreatedAt: now, members: make(map[string]struct{})}
}

// Add inserts a member.
func (t *Team) Add(userID string) { t.members[userID] = struct{}{} }

// Remove deletes a member. When the captain leaves, the captaincy passes to
// the first remaining member in id order.
func (t *Team) Remove(userID string) {
	delete(t.members, userID)
	if t.Captain == userID {
		t.Captain = ""
		if ids := t.Members(); len(ids) > 0 {
			t.Captain = ids[0]
		}
	}
}

// Has reports membership.
func (t *Team) Has(userID string) bool {
	_, ok := t.members[userID]
	return ok
}

// Size returns the member count.
func (t *Team) Size() int { return len(t.members) }

// Members returns member ids in sorted order.
func (t *Team) Members() []string {
	out := make([]string, 0, len(t.members))
	for id := range t.members {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// TeamInfo is the display snapshot of a team.
type TeamInfo struct {
	Name      string    `json:"name"`
	Captain   string    `json:"captain"`
	Members   []string  `json:"members"`
	Size      int       `json:"size"`
	Points    int64     `json:"points"`
	CreatedAt time.Time `json:"created_at"`
}

// ─── Leaderboard Types ──────────────────────────────────────────────────────

// LeaderboardType defines the scope of a leaderboard.
type LeaderboardType string

const (
	LeaderboardUsers LeaderboardType = "users"
	LeaderboardTeams LeaderboardType = "teams"
)

// LeaderboardEntry is one ranked row.
type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	ID     string `json:"id"`
	Name   string `json:"name"`
	Points int64  `json:"points"`
	Tier   Tier   `json:"tier,omitempty"`
	Team   string `json:"team,omitempty"`
}

// RankEntries sorts by points descending, then id, and assigns ranks.
// Equal points share a rank.
func RankEntries(entries []LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		return entries[i].ID < entries[j].ID
	})
	for i := range entries {
		if i > 0 && entries[i].Points == entries[i-1].Points {
			entries[i].Rank = entries[i-1].Rank
		} else {
			entries[i].Rank = i + 1
		}
	}
}

// ─── Invites, Routes, Messages ──────────────────────────────────────────────

// Invite records a friend invitation.
type Invite struct {
	Inviter string    `json:"inviter"`
	Friend  string    `json:"friend"`
	SentAt  time.Time `json:"sent_at"`
}

// Route is a user-named walking route. The name doubles as a neighborhood tag.
type Route struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Name       string    `json:"name"`
	DistanceKm float64   `json:"distance_km"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Message is a directed chat message.
type Message struct {
	ID     string    `json:"id"`
	From   string    `json:"from"`
	To     string    `json:"to"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
	Seq    int64     `json:"seq"`
}

// ─── Battles ────────────────────────────────────────────────────────────────

// BattleDraw is the winner value of a tied battle.
const BattleDraw = "draw"

// Battle is a fixed-window head-to-head team distance competition.
type Battle struct {
	ID           string     `json:"id"`
	TeamA        string     `json:"team_a"`
	TeamB        string     `json:"team_b"`
	Start        string     `json:"start"`
	End          string     `json:"end"`
	Metric       Metric     `json:"metric"`
	RewardPoints int64      `json:"reward_points"`
	Winner       string     `json:"winner,omitempty"`
	TotalA       float64    `json:"total_a"`
	TotalB       float64    `json:"total_b"`
	CreatedAt    time.Time  `json:"created_at"`
	SettledAt    *time.Time `json:"settled_at,omitempty"`
}

// Settled reports whether a winner was recorded.
func (b *Battle) Settled() bool { return b.Winner != "" }

// Due reports whether the battle window closed before today. Date keys
// compare lexically.
func (b *Battle) Due(today time.Time) bool {
	return !b.Settled() && DateKey(today) > b.End
}

// DecideWinner picks the higher total; equal totals are a draw.
func DecideWinner(teamA string, totalA float64, teamB string, totalB float64) string {
	switch {
	case math.Abs(totalA-totalB) <= distanceEpsilon:
		return BattleDraw
	case totalA > totalB:
		return teamA
	case totalB > totalA:
		return teamB
	default:
		return BattleDraw
	}
}
