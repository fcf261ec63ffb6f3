package engine

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/walkbuddy/walkbuddy/internal/domain"
	"github.com/walkbuddy/walkbuddy/internal/infra/observability"
)

// ─── Teams ──────────────────────────────────────────────────────────────────

// JoinTeam moves the user into the named team, creating it with the user as
// captain if it does not exist. A user is in at most one team: joining
// leaves the previous one first.
func (e *Engine) JoinTeam(userID, teamName string) (domain.TeamInfo, error) {
	teamName = strings.TrimSpace(teamName)
	if userID == "" {
		return domain.TeamInfo{}, domain.ErrEmptyUserID
	}
	if teamName == "" || teamName == domain.BattleDraw {
		return domain.TeamInfo{}, domain.ErrEmptyTeamName
	}
	e.mu.Lock()
	defer e.unlockAndFlush()

	now := e.clock()
	u := e.ensureUserLocked(userID, "", now)
	if u.Team != "" && u.Team != teamName {
		e.leaveTeamLocked(u)
	}
	t := e.ensureTeamLocked(teamName, userID, now)
	t.Add(userID)
	if t.Captain == "" {
		t.Captain = userID
	}
	u.Team = teamName
	return e.teamInfoLocked(t), nil
}

// LeaveTeam removes the user from their team. It is a no-op for users
// without a team.
func (e *Engine) LeaveTeam(userID string) {
	e.mu.Lock()
	defer e.unlockAndFlush()
	if u, ok := e.users[userID]; ok {
		e.leaveTeamLocked(u)
	}
}

// Team returns a team snapshot. Unknown teams yield a zero value and false.
func (e *Engine) Team(name string) (domain.TeamInfo, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	t, ok := e.teams[name]
	if !ok {
		return domain.TeamInfo{}, false
	}
	return e.teamInfoLocked(t), true
}

// Teams returns every team ordered by name.
func (e *Engine) Teams() []domain.TeamInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]domain.TeamInfo, 0, len(e.teams))
	for _, name := range e.teamNamesLocked() {
		out = append(out, e.teamInfoLocked(e.teams[name]))
	}
	return out
}

// TeamMetricSum totals a metric across the team's current members over the
// inclusive date range. Unknown teams and inverted ranges sum to zero.
func (e *Engine) TeamMetricSum(team string, metric domain.Metric, start, end time.Time) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.teamMetricSumLocked(team, metric, start, end)
}

func (e *Engine) teamMetricSumLocked(team string, metric domain.Metric, start, end time.Time) float64 {
	t, ok := e.teams[team]
	if !ok {
		return 0
	}
	loc := e.cfg.Location
	dates := domain.DatesBetween(start.In(loc), end.In(loc))
	if len(dates) == 0 {
		return 0
	}
	v := e.viewLocked(e.clock())
	var total float64
	for _, m := range t.Members() {
		switch metric {
		case domain.MetricWalks:
			total += float64(v.WalkCount(m, dates))
		case domain.MetricSteps:
			total += float64(v.Totals(m, dates).Steps)
		case domain.MetricMinutes:
			total += float64(v.Totals(m, dates).Minutes)
		default:
			total += v.Totals(m, dates).Miles
		}
	}
	return total
}

func (e *Engine) ensureTeamLocked(name, captain string, now time.Time) *domain.Team {
	if t, ok := e.teams[name]; ok {
		return t
	}
	t := domain.NewTeam(name, captain, now)
	e.teams[name] = t
	observability.TeamsTotal.Set(float64(len(e.teams)))
	return t
}

func (e *Engine) leaveTeamLocked(u *domain.User) {
	if u.Team == "" {
		return
	}
	if t, ok := e.teams[u.Team]; ok && t.Has(u.ID) {
		t.Remove(u.ID)
	}
	u.Team = ""
}

func (e *Engine) teamInfoLocked(t *domain.Team) domain.TeamInfo {
	members := t.Members()
	var pts int64
	for _, id := range members {
		if u, ok := e.users[id]; ok {
			pts += u.Points
		}
	}
	return domain.TeamInfo{
		Name:      t.Name,
		Captain:   t.Captain,
		Members:   members,
		Size:      t.Size(),
		Points:    pts,
		CreatedAt: t.CreatedAt,
	}
}

// ─── Team Battles ───────────────────────────────────────────────────────────

// BattleInput describes a new team battle. Dates are calendar days in the
// engine's time zone; the window is inclusive.
type BattleInput struct {
	TeamA        string    `json:"team_a"`
	TeamB        string    `json:"team_b"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	RewardPoints int64     `json:"reward_points"`
}

// CreateTeamBattle registers a distance battle between two teams. Teams
// that do not exist yet are created without members.
func (e *Engine) CreateTeamBattle(in BattleInput) (domain.Battle, error) {
	a, b := strings.TrimSpace(in.TeamA), strings.TrimSpace(in.TeamB)
	switch {
	case a == "" || b == "" || a == domain.BattleDraw || b == domain.BattleDraw:
		return domain.Battle{}, domain.ErrEmptyTeamName
	case a == b:
		return domain.Battle{}, domain.ErrSameTeam
	case in.RewardPoints < 0:
		return domain.Battle{}, domain.ErrInvalidInput
	}
	e.mu.Lock()
	defer e.unlockAndFlush()

	loc := e.cfg.Location
	start, end := domain.StartOfDay(in.Start.In(loc)), domain.StartOfDay(in.End.In(loc))
	if end.Before(start) {
		return domain.Battle{}, domain.ErrInvalidRange
	}
	now := e.clock()
	e.ensureTeamLocked(a, "", now)
	e.ensureTeamLocked(b, "", now)

	battle := &domain.Battle{
		ID:           uuid.NewString(),
		TeamA:        a,
		TeamB:        b,
		Start:        domain.DateKey(start),
		End:          domain.DateKey(end),
		Metric:       domain.MetricMiles,
		RewardPoints: in.RewardPoints,
		CreatedAt:    now,
	}
	e.battles[battle.ID] = battle
	e.battleOrder = append(e.battleOrder, battle.ID)
	return *battle, nil
}

// Battles returns every battle in creation order.
func (e *Engine) Battles() []domain.Battle {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]domain.Battle, 0, len(e.battleOrder))
	for _, id := range e.battleOrder {
		out = append(out, *e.battles[id])
	}
	return out
}

// Battle returns one battle. Unknown ids yield a zero value and false.
func (e *Engine) Battle(id string) (domain.Battle, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	b, ok := e.battles[id]
	if !ok {
		return domain.Battle{}, false
	}
	return *b, true
}

// Settle resolves one battle if its window has closed. It reports whether
// this call settled it; settled battles are never recomputed.
func (e *Engine) Settle(id string) (domain.Battle, bool) {
	e.mu.Lock()
	defer e.unlockAndFlush()
	b, ok := e.battles[id]
	if !ok {
		return domain.Battle{}, false
	}
	return *b, e.settleLocked(b, e.clock())
}

// SettleDue resolves every battle whose window has closed and returns the
// battles settled by this call.
func (e *Engine) SettleDue() []domain.Battle {
	e.mu.Lock()
	defer e.unlockAndFlush()
	now := e.clock()
	var settled []domain.Battle
	for _, id := range e.battleOrder {
		b := e.battles[id]
		if e.settleLocked(b, now) {
			settled = append(settled, *b)
		}
	}
	return settled
}

func (e *Engine) settleLocked(b *domain.Battle, now time.Time) bool {
	if !b.Due(now) {
		return false
	}
	loc := e.cfg.Location
	start, err := domain.ParseDate(b.Start, loc)
	if err != nil {
		return false
	}
	end, err := domain.ParseDate(b.End, loc)
	if err != nil {
		return false
	}
	b.TotalA = e.teamMetricSumLocked(b.TeamA, b.Metric, start, end)
	b.TotalB = e.teamMetricSumLocked(b.TeamB, b.Metric, start, end)
	b.Winner = domain.DecideWinner(b.TeamA, b.TotalA, b.TeamB, b.TotalB)
	settledAt := now
	b.SettledAt = &settledAt

	outcome := "win"
	if b.Winner == domain.BattleDraw {
		outcome = "draw"
	} else if t, ok := e.teams[b.Winner]; ok {
		for _, id := range t.Members() {
			if u, ok := e.users[id]; ok {
				e.credit(u, b.RewardPoints, domain.TxBonus, b.ID, "Team battle won")
			}
		}
	}
	observability.BattlesSettled.WithLabelValues(outcome).Inc()
	e.log.WithFields(logrus.Fields{
		"battle":  b.ID,
		"winner":  b.Winner,
		"total_a": b.TotalA,
		"total_b": b.TotalB,
	}).Info("battle settled")
	return true
}
