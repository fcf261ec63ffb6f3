package domain

import (
	"encoding/json"
	"math"
	"time"
)

// ─── Challenge Types ────────────────────────────────────────────────────────
// A challenge definition pairs catalog metadata with a Goal. Each goal kind
// carries its own parameters and measures itself against an ActivityView.

// ChallengeKind tags the goal variant of a challenge.
type ChallengeKind string

const (
	KindDailySteps     ChallengeKind = "daily_steps"
	KindPeriodDistance ChallengeKind = "distance_period"
	KindPhotoShare     ChallengeKind = "boolean_weekly"
	KindInviteCount    ChallengeKind = "count_monthly"
	KindTeamDistance   ChallengeKind = "team_distance_weekly"
	KindTeamRelay      ChallengeKind = "team_each_member_distance_weekly"
	KindDistinctRoutes ChallengeKind = "distinct_routes_monthly"
	KindCustom         ChallengeKind = "custom"
)

// Metric is the ledger quantity a custom challenge sums.
type Metric string

const (
	MetricSteps   Metric = "steps"
	MetricMinutes Metric = "minutes"
	MetricMiles   Metric = "miles"
	MetricWalks   Metric = "walks"
)

// Valid reports whether m is a known metric.
func (m Metric) Valid() bool {
	switch m {
	case MetricSteps, MetricMinutes, MetricMiles, MetricWalks:
		return true
	}
	return false
}

// Unit is the display unit of m.
func (m Metric) Unit() string {
	if m == MetricWalks {
		return "walks"
	}
	return string(m)
}

// Scope selects whose activity a custom challenge sums.
type Scope string

const (
	ScopeIndividual Scope = "individual"
	ScopeTeam       Scope = "team"
)

// ActivityView is the read-only window a goal is measured through. Date
// lists are calendar date keys; a nil list means all time.
type ActivityView interface {
	Today() time.Time
	Totals(userID string, dates []string) DailyLog
	WalkCount(userID string, dates []string) int
	TeamMembers(userID string) []string
	Photos(userID string) int
	Invites(userID string) int
	DistinctRoutes(userID string) int
}

// Measure is how far a user is toward a goal.
type Measure struct {
	Current float64 `json:"current"`
	Target  float64 `json:"target"`
	Unit    string  `json:"unit"`
}

// Met reports whether the target is reached. A zero target is never met.
func (m Measure) Met() bool { return m.Target > 0 && Reached(m.Current, m.Target) }

// distanceEpsilon absorbs float drift from summing many fractional miles.
const distanceEpsilon = 1e-9

// Reached reports current >= target, treating values within
// distanceEpsilon as equal.
func Reached(current, target float64) bool { return current >= target-distanceEpsilon }

// Percent returns progress in [0, 100].
func (m Measure) Percent() float64 {
	if m.Target <= 0 {
		return 0
	}
	return math.Min(100, 100*m.Current/m.Target)
}

// Goal is the predicate of one challenge kind.
type Goal interface {
	Kind() ChallengeKind
	Measure(v ActivityView, userID string, p Period) Measure
}

// ─── Goal Variants ──────────────────────────────────────────────────────────

// StepsGoal is met when steps logged in the period reach Steps.
type StepsGoal struct {
	Steps int `json:"target"`
}

func (StepsGoal) Kind() ChallengeKind { return KindDailySteps }

func (g StepsGoal) Measure(v ActivityView, userID string, p Period) Measure {
	t := v.Totals(userID, PeriodDates(p, v.Today()))
	return Measure{Current: float64(t.Steps), Target: float64(g.Steps), Unit: "steps"}
}

// DistanceGoal is met when miles logged in the period reach Miles.
type DistanceGoal struct {
	Miles float64 `json:"target_miles"`
}

func (DistanceGoal) Kind() ChallengeKind { return KindPeriodDistance }

func (g DistanceGoal) Measure(v ActivityView, userID string, p Period) Measure {
	t := v.Totals(userID, PeriodDates(p, v.Today()))
	return Measure{Current: t.Miles, Target: g.Miles, Unit: "miles"}
}

// PhotoShareGoal is met once Photos photos were shared this week.
type PhotoShareGoal struct {
	Photos int `json:"target"`
}

func (PhotoShareGoal) Kind() ChallengeKind { return KindPhotoShare }

func (g PhotoShareGoal) Measure(v ActivityView, userID string, _ Period) Measure {
	return Measure{Current: float64(v.Photos(userID)), Target: float64(g.Photos), Unit: "photos"}
}

// InviteGoal is met once Invites invites were sent this month.
type InviteGoal struct {
	Invites int `json:"target"`
}

func (InviteGoal) Kind() ChallengeKind { return KindInviteCount }

func (g InviteGoal) Measure(v ActivityView, userID string, _ Period) Measure {
	return Measure{Current: float64(v.Invites(userID)), Target: float64(g.Invites), Unit: "invites"}
}

// TeamDistanceGoal is met when the user's whole team logs Miles in the period.
type TeamDistanceGoal struct {
	Miles float64 `json:"target_miles"`
}

func (TeamDistanceGoal) Kind() ChallengeKind { return KindTeamDistance }

func (g TeamDistanceGoal) Measure(v ActivityView, userID string, p Period) Measure {
	dates := PeriodDates(p, v.Today())
	var total float64
	for _, m := range v.TeamMembers(userID) {
		total += v.Totals(m, dates).Miles
	}
	return Measure{Current: total, Target: g.Miles, Unit: "team miles"}
}

// RelayGoal is met when every member of the user's team logs MilesPerMember
// in the period. A user without a team, or an empty team, never meets it.
type RelayGoal struct {
	MilesPerMember float64 `json:"target_miles"`
}

func (RelayGoal) Kind() ChallengeKind { return KindTeamRelay }

// Measure reports members at target over team size.
func (g RelayGoal) Measure(v ActivityView, userID string, p Period) Measure {
	dates := PeriodDates(p, v.Today())
	members := v.TeamMembers(userID)
	done := 0
	for _, m := range members {
		if Reached(v.Totals(m, dates).Miles, g.MilesPerMember) {
			done++
		}
	}
	return Measure{Current: float64(done), Target: float64(len(members)), Unit: "members"}
}

// RouteExplorerGoal is met once Routes distinct route names were added this month.
type RouteExplorerGoal struct {
	Routes int `json:"target_count"`
}

func (RouteExplorerGoal) Kind() ChallengeKind { return KindDistinctRoutes }

func (g RouteExplorerGoal) Measure(v ActivityView, userID string, _ Period) Measure {
	return Measure{Current: float64(v.DistinctRoutes(userID)), Target: float64(g.Routes), Unit: "routes"}
}

// CustomGoal sums a ledger metric over the period for the user or their team.
type CustomGoal struct {
	Metric Metric  `json:"metric"`
	Target float64 `json:"target"`
	Scope  Scope   `json:"scope"`
}

func (CustomGoal) Kind() ChallengeKind { return KindCustom }

func (g CustomGoal) Measure(v ActivityView, userID string, p Period) Measure {
	dates := PeriodDates(p, v.Today())
	who := []string{userID}
	if g.Scope == ScopeTeam {
		who = v.TeamMembers(userID)
	}
	var cur float64
	for _, id := range who {
		cur += metricValue(v, id, g.Metric, dates)
	}
	return Measure{Current: cur, Target: g.Target, Unit: g.Metric.Unit()}
}

func metricValue(v ActivityView, userID string, m Metric, dates []string) float64 {
	if m == MetricWalks {
		return float64(v.WalkCount(userID, dates))
	}
	t := v.Totals(userID, dates)
	switch m {
	case MetricSteps:
		return float64(t.Steps)
	case MetricMinutes:
		return float64(t.Minutes)
	case MetricMiles:
		return t.Miles
	}
	return 0
}

// ─── Definitions ────────────────────────────────────────────────────────────

// ChallengeDefinition is an immutable catalog entry.
type ChallengeDefinition struct {
	ID           string
	Name         string
	Description  string
	Period       Period
	RewardPoints int64
	Goal         Goal
	CreatedBy    string // empty for built-ins
	CreatedAt    time.Time
}

// Kind returns the goal kind.
func (c ChallengeDefinition) Kind() ChallengeKind { return c.Goal.Kind() }

// MarshalJSON flattens the goal next to its kind tag.
func (c ChallengeDefinition) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID           string        `json:"id"`
		Name         string        `json:"name"`
		Description  string        `json:"description"`
		Kind         ChallengeKind `json:"type"`
		Period       Period        `json:"period"`
		RewardPoints int64         `json:"reward_points"`
		Goal         Goal          `json:"goal"`
		CreatedBy    string        `json:"created_by,omitempty"`
	}{c.ID, c.Name, c.Description, c.Kind(), c.Period, c.RewardPoints, c.Goal, c.CreatedBy})
}

// BuiltinCatalog returns the fixed challenge catalog.
func BuiltinCatalog() []ChallengeDefinition {
	return []ChallengeDefinition{
		{
			ID:           "daily_5000",
			Name:         "Daily 5,000 Steps",
			Description:  "Hit 5,000 steps today.",
			Period:       PeriodDaily,
			RewardPoints: 50,
			Goal:         StepsGoal{Steps: 5000},
		},
		{
			ID:           "weekend_walkathon",
			Name:         "Weekend Walkathon",
			Description:  "Walk 10 miles over Saturday and Sunday.",
			Period:       PeriodWeekend,
			RewardPoints: 150,
			Goal:         DistanceGoal{Miles: 10.0},
		},
		{
			ID:           "photo_share",
			Name:         "Photo Share",
			Description:  "Share a walk photo this week.",
			Period:       PeriodWeekly,
			RewardPoints: 20,
			Goal:         PhotoShareGoal{Photos: 1},
		},
		{
			ID:           "invite_3",
			Name:         "Invite 3 Friends",
			Description:  "Invite three friends this month.",
			Period:       PeriodMonthly,
			RewardPoints: 100,
			Goal:         InviteGoal{Invites: 3},
		},
		{
			ID:           "team_100_miles",
			Name:         "Team 100 Miles",
			Description:  "Your team walks 100 miles together this week.",
			Period:       PeriodWeekly,
			RewardPoints: 300,
			Goal:         TeamDistanceGoal{Miles: 100.0},
		},
		{
			ID:           "relay_pass_baton",
			Name:         "Relay: Pass the Baton",
			Description:  "Every team member walks at least 2 miles this week.",
			Period:       PeriodWeekly,
			RewardPoints: 200,
			Goal:         RelayGoal{MilesPerMember: 2.0},
		},
		{
			ID:           "city_explorer",
			Name:         "City Explorer",
			Description:  "Add 5 distinct routes this month.",
			Period:       PeriodMonthly,
			RewardPoints: 120,
			Goal:         RouteExplorerGoal{Routes: 5},
		},
	}
}

// ─── Progress ───────────────────────────────────────────────────────────────

// ChallengeState is the lifecycle position of a user in a challenge.
type ChallengeState string

const (
	StateNotJoined ChallengeState = "not_joined"
	StateJoined    ChallengeState = "joined"
	StateCompleted ChallengeState = "completed"
)

// ChallengeProgress is the per-user state of one challenge.
type ChallengeProgress struct {
	ChallengeID string    `json:"challenge_id"`
	Joined      bool      `json:"joined"`
	Completed   bool      `json:"completed"`
	PeriodKey   string    `json:"period_key"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

// Refresh clears completion when key differs from the stored period key.
// It reports whether a reset happened.
func (p *ChallengeProgress) Refresh(key string) bool {
	if p.PeriodKey == key {
		return false
	}
	p.PeriodKey = key
	p.Completed = false
	p.CompletedAt = time.Time{}
	return true
}

// State derives the lifecycle state.
func (p ChallengeProgress) State() ChallengeState {
	switch {
	case p.Completed:
		return StateCompleted
	case p.Joined:
		return StateJoined
	default:
		return StateNotJoined
	}
}

// ChallengeStatus is a progress snapshot for display.
type ChallengeStatus struct {
	Challenge ChallengeDefinition `json:"challenge"`
	State     ChallengeState      `json:"state"`
	Joined    bool                `json:"joined"`
	Completed bool                `json:"completed"`
	PeriodKey string              `json:"period_key"`
	Progress  Measure             `json:"progress"`
	Percent   float64             `json:"percent"`
}
