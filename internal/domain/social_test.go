package domain

import (
	"encoding/json"
	"testing"
	"time"
)

// fakeView is a hand-filled ActivityView.
type fakeView struct {
	today   time.Time
	miles   map[string]float64
	steps   map[string]int
	walks   map[string]int
	members map[string][]string
	photos  int
	invites int
	routes  int
}

func (v fakeView) Today() time.Time { return v.today }

func (v fakeView) Totals(userID string, _ []string) DailyLog {
	return DailyLog{Miles: v.miles[userID], Steps: v.steps[userID]}
}

func (v fakeView) WalkCount(userID string, _ []string) int { return v.walks[userID] }
func (v fakeView) TeamMembers(userID string) []string      { return v.members[userID] }
func (v fakeView) Photos(string) int                       { return v.photos }
func (v fakeView) Invites(string) int                      { return v.invites }
func (v fakeView) DistinctRoutes(string) int               { return v.routes }

// ─── Goal Tests ─────────────────────────────────────────────────────────────

func TestGoals_Measure(t *testing.T) {
	team := []string{"a", "b", "c"}
	view := fakeView{
		today:   time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC),
		miles:   map[string]float64{"a": 2.0, "b": 2.5, "c": 1.5},
		steps:   map[string]int{"a": 5000},
		walks:   map[string]int{"a": 2, "b": 1},
		members: map[string][]string{"a": team, "b": team, "c": team},
		photos:  1,
		invites: 2,
		routes:  5,
	}

	tests := []struct {
		name    string
		goal    Goal
		current float64
		met     bool
	}{
		{"steps met at threshold", StepsGoal{Steps: 5000}, 5000, true},
		{"distance", DistanceGoal{Miles: 10}, 2.0, false},
		{"photo", PhotoShareGoal{Photos: 1}, 1, true},
		{"invites short", InviteGoal{Invites: 3}, 2, false},
		{"team distance", TeamDistanceGoal{Miles: 6}, 6.0, true},
		{"relay one short", RelayGoal{MilesPerMember: 2.0}, 2, false},
		{"relay lowered", RelayGoal{MilesPerMember: 1.5}, 3, true},
		{"routes", RouteExplorerGoal{Routes: 5}, 5, true},
		{"custom team walks", CustomGoal{Metric: MetricWalks, Target: 3, Scope: ScopeTeam}, 3, true},
		{"custom individual steps", CustomGoal{Metric: MetricSteps, Target: 6000, Scope: ScopeIndividual}, 5000, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.goal.Measure(view, "a", PeriodWeekly)
			if m.Current != tt.current {
				t.Errorf("Current = %v, want %v", m.Current, tt.current)
			}
			if m.Met() != tt.met {
				t.Errorf("Met() = %v, want %v", m.Met(), tt.met)
			}
		})
	}
}

func TestDistanceGoal_FractionalMiles(t *testing.T) {
	u := NewUser("a", "", time.Date(2026, time.October, 17, 9, 0, 0, 0, time.UTC))
	for i := 0; i < 100; i++ {
		u.LogWalk(time.Date(2026, time.October, 17, 9, 0, 0, 0, time.UTC), DailyLog{Miles: 0.1})
	}
	total := u.Totals([]string{"2026-10-17"}).Miles
	view := fakeView{miles: map[string]float64{"a": total}}

	if m := (DistanceGoal{Miles: 10}).Measure(view, "a", PeriodWeekend); !m.Met() {
		t.Errorf("100 walks of 0.1 mi (sum %v) did not meet 10 mi", total)
	}
	if m := (DistanceGoal{Miles: 10.1}).Measure(view, "a", PeriodWeekend); m.Met() {
		t.Error("10 mi met a 10.1 mi target")
	}
}

func TestRelayGoal_NoTeam(t *testing.T) {
	m := RelayGoal{MilesPerMember: 2}.Measure(fakeView{}, "solo", PeriodWeekly)
	if m.Met() {
		t.Error("relay without a team must not be met")
	}
	if m.Target != 0 || m.Percent() != 0 {
		t.Errorf("measure = %+v, want zero target", m)
	}
}

func TestMeasure_PercentCapped(t *testing.T) {
	m := Measure{Current: 150, Target: 100}
	if m.Percent() != 100 {
		t.Errorf("Percent() = %v, want 100", m.Percent())
	}
}

func TestBuiltinCatalog(t *testing.T) {
	cat := BuiltinCatalog()
	if len(cat) != 7 {
		t.Fatalf("catalog has %d challenges, want 7", len(cat))
	}
	ids := make(map[string]bool)
	for _, c := range cat {
		if ids[c.ID] {
			t.Errorf("duplicate id %s", c.ID)
		}
		ids[c.ID] = true
		if c.RewardPoints <= 0 {
			t.Errorf("%s has no reward", c.ID)
		}
	}
	if cat[0].ID != "daily_5000" || cat[0].Period != PeriodDaily {
		t.Errorf("first challenge = %s/%s, want daily_5000/daily", cat[0].ID, cat[0].Period)
	}
}

func TestChallengeDefinition_MarshalJSON(t *testing.T) {
	def := ChallengeDefinition{ID: "x", Name: "X", Period: PeriodWeekly, RewardPoints: 5, Goal: DistanceGoal{Miles: 3}}
	b, err := json.Marshal(def)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if out["type"] != string(KindPeriodDistance) {
		t.Errorf("type = %v, want %s", out["type"], KindPeriodDistance)
	}
	if _, ok := out["goal"]; !ok {
		t.Error("goal field missing")
	}
}

func TestChallengeProgress_Refresh(t *testing.T) {
	p := &ChallengeProgress{Joined: true, Completed: true, PeriodKey: "2026-10-14"}
	if p.Refresh("2026-10-14") {
		t.Error("same key must not reset")
	}
	if !p.Refresh("2026-10-15") {
		t.Fatal("new key must reset")
	}
	if p.Completed || !p.Joined || p.State() != StateJoined {
		t.Errorf("after reset = %+v, want joined and not completed", p)
	}
}

// ─── Social Tests ───────────────────────────────────────────────────────────

func TestTeam_CaptainHandoff(t *testing.T) {
	team := NewTeam("red", "mia", time.Now())
	team.Add("mia")
	team.Add("zed")
	team.Add("ann")

	team.Remove("mia")
	if team.Captain != "ann" {
		t.Errorf("Captain = %q, want ann", team.Captain)
	}
	team.Remove("zed")
	if team.Captain != "ann" || team.Size() != 1 {
		t.Errorf("non-captain removal changed captain to %q", team.Captain)
	}
	team.Remove("ann")
	if team.Captain != "" {
		t.Errorf("empty team Captain = %q, want none", team.Captain)
	}
}

func TestRankEntries(t *testing.T) {
	entries := []LeaderboardEntry{
		{ID: "c", Points: 10},
		{ID: "a", Points: 30},
		{ID: "d", Points: 5},
		{ID: "b", Points: 10},
	}
	RankEntries(entries)

	want := []struct {
		id   string
		rank int
	}{{"a", 1}, {"b", 2}, {"c", 2}, {"d", 4}}
	for i, w := range want {
		if entries[i].ID != w.id || entries[i].Rank != w.rank {
			t.Errorf("row %d = %s/#%d, want %s/#%d", i, entries[i].ID, entries[i].Rank, w.id, w.rank)
		}
	}
}

func TestBattle_DueAndWinner(t *testing.T) {
	b := &Battle{TeamA: "A", TeamB: "B", Start: "2026-10-12", End: "2026-10-14"}
	if b.Due(time.Date(2026, time.October, 14, 23, 0, 0, 0, time.UTC)) {
		t.Error("battle due on its last day")
	}
	if !b.Due(time.Date(2026, time.October, 15, 0, 1, 0, 0, time.UTC)) {
		t.Error("battle not due the next day")
	}
	b.Winner = DecideWinner("A", 12, "B", 9.5)
	if b.Winner != "A" || b.Due(time.Date(2026, time.October, 20, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("settled battle = %+v, want winner A and not due", b)
	}
	if got := DecideWinner("A", 5, "B", 5); got != BattleDraw {
		t.Errorf("tie = %q, want draw", got)
	}
	x, y := 0.1, 0.3
	x += 0.2
	if got := DecideWinner("A", x, "B", y); got != BattleDraw {
		t.Errorf("0.1+0.2 vs 0.3 = %q, want draw", got)
	}
}

// ─── Reminder Tests ─────────────────────────────────────────────────────────

func TestReminderState(t *testing.T) {
	now := time.Date(2026, time.October, 14, 9, 0, 0, 0, time.UTC)
	rs := NewReminderState(DefaultReminderSettings(), now)

	if due := rs.Due(now); len(due) != 0 {
		t.Errorf("due at start = %v, want none", due)
	}
	later := now.Add(3 * time.Hour)
	if due := rs.Due(later); len(due) != 2 {
		t.Errorf("due after 3h = %v, want walk and stand", due)
	}
	if err := rs.Snooze(ReminderStand, later); err != nil {
		t.Fatal(err)
	}
	if !rs.NextStandAt.Equal(later.Add(StandSnoozeMinutes * time.Minute)) {
		t.Errorf("NextStandAt = %v", rs.NextStandAt)
	}
	if err := rs.Dismiss("lunch", later); err != ErrUnknownReminder {
		t.Errorf("Dismiss(unknown) = %v, want ErrUnknownReminder", err)
	}

	rs.Apply(ReminderSettings{StandEnabled: true, StandEveryMin: 45, SnoozeMinutes: 1}, later)
	if !rs.NextWalkAt.IsZero() {
		t.Error("disabled walk reminder kept a schedule")
	}
	if rs.Settings.SnoozeMinutes != 5 || rs.Settings.WalkEveryMin != 1 {
		t.Errorf("Normalize() = %+v", rs.Settings)
	}
	if !rs.NextStandAt.Equal(later.Add(45 * time.Minute)) {
		t.Errorf("NextStandAt after interval change = %v", rs.NextStandAt)
	}
}

// ─── Reward Tests ───────────────────────────────────────────────────────────

func TestDefaultRewards(t *testing.T) {
	rewards := DefaultRewards()
	if len(rewards) != 4 {
		t.Fatalf("got %d rewards, want 4", len(rewards))
	}
	for _, r := range rewards {
		if r.Cost <= 0 || r.ID == "" {
			t.Errorf("invalid reward %+v", r)
		}
	}
	if (RedeemResult{Status: RedeemTierLocked}).OK() {
		t.Error("tier_locked reported OK")
	}
}
