package engine

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/walkbuddy/walkbuddy/internal/domain"
)

func contains(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func mustJoin(t *testing.T, e *Engine, user, challenge string) {
	t.Helper()
	if _, err := e.JoinChallenge(user, challenge); err != nil {
		t.Fatalf("JoinChallenge(%s, %s) error: %v", user, challenge, err)
	}
}

// ─── State Machine ──────────────────────────────────────────────────────────

func TestChallenge_NotJoinedNeverCompletes(t *testing.T) {
	e, _ := newTestEngine(t)

	res := mustWalk(t, e, WalkInput{UserID: "u", Minutes: 10, Steps: 9000})

	if len(res.Completed) != 0 {
		t.Errorf("Completed = %v, want none", res.Completed)
	}
	st := e.ProgressFor("u", "daily_5000")
	if st.State != domain.StateNotJoined {
		t.Errorf("State = %s, want not_joined", st.State)
	}
	if st.Progress.Current != 9000 {
		t.Errorf("Progress.Current = %v, want 9000", st.Progress.Current)
	}
}

func TestChallenge_IdempotentCompletion(t *testing.T) {
	e, _ := newTestEngine(t)
	mustJoin(t, e, "u", "daily_5000")

	res := mustWalk(t, e, WalkInput{UserID: "u", Minutes: 10, Steps: 6000})
	if !contains(res.Completed, "daily_5000") {
		t.Fatalf("Completed = %v, want daily_5000", res.Completed)
	}
	if res.Total != 60 {
		t.Errorf("Total = %d, want 60 (10 walk + 50 reward)", res.Total)
	}

	for i := 0; i < 2; i++ {
		done, err := e.Evaluate("u", "daily_5000")
		if err != nil {
			t.Fatalf("Evaluate() error: %v", err)
		}
		if done {
			t.Error("Evaluate() completed an already completed challenge")
		}
	}
	mustWalk(t, e, WalkInput{UserID: "u", Minutes: 0, Steps: 6000})
	if got := points(t, e, "u"); got != 60 {
		t.Errorf("points = %d, want 60", got)
	}
}

func TestChallenge_DailyRollover(t *testing.T) {
	e, clock := newTestEngine(t)
	mustJoin(t, e, "u", "daily_5000")
	mustWalk(t, e, WalkInput{UserID: "u", Steps: 6000})

	clock.AddDays(1)
	st := e.ProgressFor("u", "daily_5000")
	if st.Completed {
		t.Error("Completed should reset on a new day")
	}
	if !st.Joined {
		t.Error("Joined should survive a period reset")
	}
	if st.Progress.Current != 0 {
		t.Errorf("Progress.Current = %v, want 0 on the new day", st.Progress.Current)
	}
	if st.PeriodKey != "2026-10-15" {
		t.Errorf("PeriodKey = %q, want 2026-10-15", st.PeriodKey)
	}

	res := mustWalk(t, e, WalkInput{UserID: "u", Steps: 3000})
	if contains(res.Completed, "daily_5000") {
		t.Error("3000 steps on the new day should not complete")
	}
	res = mustWalk(t, e, WalkInput{UserID: "u", Steps: 2500})
	if !contains(res.Completed, "daily_5000") {
		t.Errorf("Completed = %v, want daily_5000 after 5500 steps", res.Completed)
	}
	if got := points(t, e, "u"); got != 100 {
		t.Errorf("points = %d, want 100 (two daily rewards)", got)
	}
}

func TestChallenge_LeaveKeepsPoints(t *testing.T) {
	e, _ := newTestEngine(t)
	mustJoin(t, e, "u", "daily_5000")
	mustWalk(t, e, WalkInput{UserID: "u", Steps: 5000})

	st, err := e.LeaveChallenge("u", "daily_5000")
	if err != nil {
		t.Fatalf("LeaveChallenge() error: %v", err)
	}
	if st.Joined {
		t.Error("Joined should be false after leaving")
	}
	if got := points(t, e, "u"); got != 50 {
		t.Errorf("points = %d, want 50", got)
	}
}

func TestChallenge_LeftChallengeStopsCompleting(t *testing.T) {
	e, clock := newTestEngine(t)
	mustJoin(t, e, "u", "daily_5000")
	e.LeaveChallenge("u", "daily_5000")

	clock.AddDays(1)
	res := mustWalk(t, e, WalkInput{UserID: "u", Steps: 8000})
	if contains(res.Completed, "daily_5000") {
		t.Error("a left challenge must not complete")
	}
}

func TestChallenge_UnknownID(t *testing.T) {
	e, _ := newTestEngine(t)
	mustWalk(t, e, WalkInput{UserID: "u"})

	if _, err := e.JoinChallenge("u", "nope"); !errors.Is(err, domain.ErrChallengeNotFound) {
		t.Errorf("JoinChallenge error = %v, want ErrChallengeNotFound", err)
	}
	if _, err := e.Evaluate("u", "nope"); !errors.Is(err, domain.ErrChallengeNotFound) {
		t.Errorf("Evaluate error = %v, want ErrChallengeNotFound", err)
	}
	st := e.ProgressFor("u", "nope")
	if st.State != domain.StateNotJoined || st.Progress.Target != 0 {
		t.Errorf("ProgressFor(unknown) = %+v, want zero status", st)
	}
	if done, err := e.Evaluate("ghost", "daily_5000"); done || err != nil {
		t.Errorf("Evaluate(ghost) = %v, %v; want false, nil", done, err)
	}
}

func TestEvaluateAll_CompletesAfterLateJoin(t *testing.T) {
	e, _ := newTestEngine(t)
	mustWalk(t, e, WalkInput{UserID: "u", Steps: 6000})
	mustJoin(t, e, "u", "daily_5000")

	if got := e.EvaluateAll("u"); !contains(got, "daily_5000") {
		t.Errorf("EvaluateAll = %v, want daily_5000", got)
	}
	if got := e.EvaluateAll("u"); len(got) != 0 {
		t.Errorf("second EvaluateAll = %v, want none", got)
	}
	if got := e.EvaluateAll("ghost"); got != nil {
		t.Errorf("EvaluateAll(ghost) = %v, want nil", got)
	}
}

// ─── Built-in Predicates ────────────────────────────────────────────────────

func TestChallenge_WeekendWalkathon(t *testing.T) {
	e, clock := newTestEngine(t)
	mustJoin(t, e, "u", "weekend_walkathon")

	// Friday miles belong to no weekend.
	clock.Set(2026, time.October, 16)
	mustWalk(t, e, WalkInput{UserID: "u", Miles: 9})
	clock.Set(2026, time.October, 17)
	mustWalk(t, e, WalkInput{UserID: "u", Miles: 6})
	clock.Set(2026, time.October, 18)
	res := mustWalk(t, e, WalkInput{UserID: "u", Miles: 4})

	if !contains(res.Completed, "weekend_walkathon") {
		t.Errorf("Completed = %v, want weekend_walkathon after 10 weekend miles", res.Completed)
	}
}

func TestChallenge_FractionalMilesReachTarget(t *testing.T) {
	e, clock := newTestEngine(t)
	mustJoin(t, e, "u", "weekend_walkathon")
	clock.Set(2026, time.October, 17)

	doneAt := -1
	for i := 0; i < 100; i++ {
		res := mustWalk(t, e, WalkInput{UserID: "u", Miles: 0.1})
		if contains(res.Completed, "weekend_walkathon") {
			doneAt = i
		}
	}
	if doneAt != 99 {
		t.Errorf("completed on walk %d, want the 100th (10 miles)", doneAt+1)
	}
}

func TestChallenge_StalePhotoCompletesOnInvite(t *testing.T) {
	e, _ := newTestEngine(t)

	mustWalk(t, e, WalkInput{UserID: "u", Minutes: 5, SharedPhoto: true})
	mustJoin(t, e, "u", "photo_share")

	res, err := e.SendInvite("u", "friend@example.com")
	if err != nil {
		t.Fatalf("SendInvite() error: %v", err)
	}
	if !contains(res.Completed, "photo_share") {
		t.Errorf("Completed = %v, want photo_share on an unrelated invite", res.Completed)
	}
}

func TestChallenge_PhotoCounterIsWeekly(t *testing.T) {
	e, clock := newTestEngine(t)
	mustWalk(t, e, WalkInput{UserID: "u", SharedPhoto: true})
	mustJoin(t, e, "u", "photo_share")

	clock.AddDays(7)
	res := mustWalk(t, e, WalkInput{UserID: "u"})
	if contains(res.Completed, "photo_share") {
		t.Error("last week's photo must not complete this week's challenge")
	}
}

func TestChallenge_InviteThree(t *testing.T) {
	e, _ := newTestEngine(t)
	mustJoin(t, e, "u", "invite_3")

	var last InviteResult
	for _, f := range []string{"a@x.io", "b@x.io", "c@x.io"} {
		last, _ = e.SendInvite("u", f)
	}
	if !contains(last.Completed, "invite_3") {
		t.Errorf("Completed = %v, want invite_3", last.Completed)
	}
	if last.Total != 250 {
		t.Errorf("Total = %d, want 250 (3×50 + 100)", last.Total)
	}
}

func TestChallenge_CityExplorer(t *testing.T) {
	e, _ := newTestEngine(t)
	mustJoin(t, e, "u", "city_explorer")

	for _, name := range []string{"Park", "River", "Old Town", "Harbor", "Park"} {
		if _, err := e.CreateRoute("u", name, 3.2, ""); err != nil {
			t.Fatalf("CreateRoute(%s) error: %v", name, err)
		}
	}
	res := mustWalk(t, e, WalkInput{UserID: "u"})
	if contains(res.Completed, "city_explorer") {
		t.Fatal("four distinct routes must not complete city_explorer")
	}

	e.CreateRoute("u", "Hilltop", 1.0, "")
	e.DeleteRoute("u", "Hilltop")
	res = mustWalk(t, e, WalkInput{UserID: "u"})
	if !contains(res.Completed, "city_explorer") {
		t.Errorf("Completed = %v, want city_explorer after five distinct names", res.Completed)
	}
}

func TestChallenge_TeamMileage(t *testing.T) {
	e, _ := newTestEngine(t)
	for _, u := range []string{"a", "b"} {
		if _, err := e.JoinTeam(u, "striders"); err != nil {
			t.Fatalf("JoinTeam(%s) error: %v", u, err)
		}
	}
	mustJoin(t, e, "a", "team_100_miles")

	mustWalk(t, e, WalkInput{UserID: "b", Miles: 60})
	res := mustWalk(t, e, WalkInput{UserID: "a", Miles: 39.5})
	if contains(res.Completed, "team_100_miles") {
		t.Fatal("99.5 team miles must not complete")
	}
	res = mustWalk(t, e, WalkInput{UserID: "a", Miles: 0.5})
	if !contains(res.Completed, "team_100_miles") {
		t.Errorf("Completed = %v, want team_100_miles", res.Completed)
	}
}

func TestChallenge_Relay(t *testing.T) {
	tests := []struct {
		name  string
		miles []float64 // a, b, c
		want  bool
	}{
		{"all members at target", []float64{2.0, 2.0, 2.0}, true},
		{"one member short", []float64{2.0, 2.0, 1.5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t)
			users := []string{"a", "b", "c"}
			for _, u := range users {
				e.JoinTeam(u, "relay")
			}
			mustJoin(t, e, "a", "relay_pass_baton")

			mustWalk(t, e, WalkInput{UserID: "b", Miles: tt.miles[1]})
			mustWalk(t, e, WalkInput{UserID: "c", Miles: tt.miles[2]})
			res := mustWalk(t, e, WalkInput{UserID: "a", Miles: tt.miles[0]})

			if got := contains(res.Completed, "relay_pass_baton"); got != tt.want {
				t.Errorf("relay completed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChallenge_RelayWithoutTeam(t *testing.T) {
	e, _ := newTestEngine(t)
	mustJoin(t, e, "solo", "relay_pass_baton")

	res := mustWalk(t, e, WalkInput{UserID: "solo", Miles: 20})
	if contains(res.Completed, "relay_pass_baton") {
		t.Error("relay must not complete without a team")
	}
	st := e.ProgressFor("solo", "relay_pass_baton")
	if st.Progress.Target != 0 {
		t.Errorf("Target = %v, want 0 members", st.Progress.Target)
	}
}

// ─── Custom Challenges ──────────────────────────────────────────────────────

func TestCustomChallenge_WeeklyMiles(t *testing.T) {
	e, clock := newTestEngine(t)

	clock.Set(2026, time.October, 11) // Sunday, ISO week 41
	def, err := e.CreateCustomChallenge(CustomChallengeInput{
		CreatedBy:    "u",
		Name:         "Ten Mile Week",
		Metric:       "miles",
		Target:       10,
		Period:       "weekly",
		RewardPoints: 40,
	})
	if err != nil {
		t.Fatalf("CreateCustomChallenge() error: %v", err)
	}
	if !strings.HasPrefix(def.ID, "custom-ten-mile-week-") {
		t.Errorf("ID = %q, want custom-ten-mile-week- prefix", def.ID)
	}
	mustWalk(t, e, WalkInput{UserID: "u", Miles: 8})

	clock.Set(2026, time.October, 12) // Monday, ISO week 42
	res := mustWalk(t, e, WalkInput{UserID: "u", Miles: 4})
	if contains(res.Completed, def.ID) {
		t.Fatal("last week's miles must not count")
	}

	clock.Set(2026, time.October, 15)
	res = mustWalk(t, e, WalkInput{UserID: "u", Miles: 6})
	if !contains(res.Completed, def.ID) {
		t.Errorf("Completed = %v, want %s at 10 weekly miles", res.Completed, def.ID)
	}
}

func TestCustomChallenge_WalkCountTeamScope(t *testing.T) {
	e, _ := newTestEngine(t)
	e.JoinTeam("a", "crew")
	e.JoinTeam("b", "crew")

	def, err := e.CreateCustomChallenge(CustomChallengeInput{
		CreatedBy: "a", Name: "Crew walks", Metric: "walks", Target: 3, Period: "daily", Scope: "team",
	})
	if err != nil {
		t.Fatalf("CreateCustomChallenge() error: %v", err)
	}

	mustWalk(t, e, WalkInput{UserID: "b"})
	mustWalk(t, e, WalkInput{UserID: "b"})
	res := mustWalk(t, e, WalkInput{UserID: "a"})
	if !contains(res.Completed, def.ID) {
		t.Errorf("Completed = %v, want %s after 3 team walks", res.Completed, def.ID)
	}
}

func TestCustomChallenge_OnlyTouchedUsersEvaluate(t *testing.T) {
	e, _ := newTestEngine(t)
	def, _ := e.CreateCustomChallenge(CustomChallengeInput{
		CreatedBy: "author", Name: "Steps", Metric: "steps", Target: 100, Period: "daily",
	})

	res := mustWalk(t, e, WalkInput{UserID: "other", Steps: 500})
	if contains(res.Completed, def.ID) {
		t.Error("a user who never joined must not complete a custom challenge")
	}
}

func TestCustomChallenge_Validation(t *testing.T) {
	e, _ := newTestEngine(t)

	tests := []struct {
		name string
		in   CustomChallengeInput
		want error
	}{
		{"missing creator", CustomChallengeInput{Name: "x", Metric: "steps", Target: 1}, domain.ErrEmptyUserID},
		{"missing name", CustomChallengeInput{CreatedBy: "u", Metric: "steps", Target: 1}, domain.ErrInvalidInput},
		{"bad metric", CustomChallengeInput{CreatedBy: "u", Name: "x", Metric: "laps", Target: 1}, domain.ErrInvalidMetric},
		{"zero target", CustomChallengeInput{CreatedBy: "u", Name: "x", Metric: "steps"}, domain.ErrInvalidTarget},
		{"negative target", CustomChallengeInput{CreatedBy: "u", Name: "x", Metric: "steps", Target: -5}, domain.ErrInvalidTarget},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.CreateCustomChallenge(tt.in); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBoard_ListsEveryChallenge(t *testing.T) {
	e, _ := newTestEngine(t)
	e.CreateCustomChallenge(CustomChallengeInput{CreatedBy: "u", Name: "Mine", Metric: "minutes", Target: 30})

	board := e.Board("u")
	if len(board) != 8 {
		t.Fatalf("Board returned %d rows, want 8", len(board))
	}
	last := board[len(board)-1]
	if !last.Joined || last.Challenge.Period != domain.PeriodAllTime {
		t.Errorf("custom row = %+v, want joined all-time", last)
	}
}
