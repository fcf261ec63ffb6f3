package engine

import (
	"sort"

	"github.com/walkbuddy/walkbuddy/internal/domain"
)

// ─── Leaderboards ───────────────────────────────────────────────────────────

// Leaderboard ranks users or teams by points. Team points are the sum of
// their current members' balances. A limit of zero or less returns all rows.
func (e *Engine) Leaderboard(kind domain.LeaderboardType, limit int) []domain.LeaderboardEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if kind == domain.LeaderboardTeams {
		return e.teamStandingsLocked(limit)
	}
	return e.userStandingsLocked(limit)
}

func (e *Engine) userStandingsLocked(limit int) []domain.LeaderboardEntry {
	entries := make([]domain.LeaderboardEntry, 0, len(e.users))
	for _, u := range e.users {
		entries = append(entries, domain.LeaderboardEntry{
			ID:     u.ID,
			Name:   u.DisplayName,
			Points: u.Points,
			Tier:   domain.TierFor(u.Points),
			Team:   u.Team,
		})
	}
	domain.RankEntries(entries)
	return truncate(entries, limit)
}

func (e *Engine) teamStandingsLocked(limit int) []domain.LeaderboardEntry {
	entries := make([]domain.LeaderboardEntry, 0, len(e.teams))
	for _, t := range e.teams {
		info := e.teamInfoLocked(t)
		entries = append(entries, domain.LeaderboardEntry{
			ID:     info.Name,
			Name:   info.Name,
			Points: info.Points,
		})
	}
	domain.RankEntries(entries)
	return truncate(entries, limit)
}

func (e *Engine) teamNamesLocked() []string {
	names := make([]string, 0, len(e.teams))
	for name := range e.teams {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func truncate(entries []domain.LeaderboardEntry, limit int) []domain.LeaderboardEntry {
	if limit > 0 && len(entries) > limit {
		return entries[:limit]
	}
	return entries
}
