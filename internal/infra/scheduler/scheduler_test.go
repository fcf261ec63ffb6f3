package scheduler

import (
	"sync"
	"testing"
	"time"

	"github.com/walkbuddy/walkbuddy/internal/domain"
	"github.com/walkbuddy/walkbuddy/internal/infra/observability"
)

type fakeEngine struct {
	mu      sync.Mutex
	settles int
	polls   int
	battles []domain.Battle
	due     map[string][]domain.ReminderKind
}

func (f *fakeEngine) SettleDue() []domain.Battle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settles++
	out := f.battles
	f.battles = nil
	return out
}

func (f *fakeEngine) AllDueReminders() map[string][]domain.ReminderKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	return f.due
}

func (f *fakeEngine) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settles, f.polls
}

func TestSettleBattles(t *testing.T) {
	eng := &fakeEngine{battles: []domain.Battle{{ID: "b1", Winner: "A"}, {ID: "b2", Winner: domain.BattleDraw}}}
	s, err := New(eng, nil, Config{}, nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	n, err := s.SettleBattles()
	if err != nil || n != 2 {
		t.Errorf("SettleBattles() = %d, %v; want 2, nil", n, err)
	}
	if n, _ := s.SettleBattles(); n != 0 {
		t.Errorf("second SettleBattles() = %d, want 0", n)
	}
}

func TestPollReminders(t *testing.T) {
	eng := &fakeEngine{due: map[string][]domain.ReminderKind{
		"a": {domain.ReminderWalk, domain.ReminderStand},
		"b": {domain.ReminderStand},
	}}
	s, _ := New(eng, nil, Config{}, nil)

	n, err := s.PollReminders()
	if err != nil || n != 2 {
		t.Errorf("PollReminders() = %d, %v; want 2, nil", n, err)
	}
}

func TestNew_NilEngine(t *testing.T) {
	if _, err := New(nil, nil, DefaultConfig(), nil); err == nil {
		t.Error("expected an error for a nil engine")
	}
}

func TestScheduler_RunsJobs(t *testing.T) {
	eng := &fakeEngine{}
	jobs := observability.NewJobLog(100)
	s, err := New(eng, jobs, Config{
		SettleEvery:   20 * time.Millisecond,
		ReminderEvery: 20 * time.Millisecond,
		RunOnStart:    true,
	}, nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	s.Start()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		settles, polls := eng.counts()
		if settles >= 2 && polls >= 2 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err := s.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error: %v", err)
	}

	settles, polls := eng.counts()
	if settles < 2 || polls < 2 {
		t.Fatalf("jobs ran settle=%d poll=%d times, want at least 2 each", settles, polls)
	}
	seen := map[string]bool{}
	for _, r := range jobs.Runs(0) {
		seen[r.Job] = true
	}
	if !seen[JobSettleBattles] || !seen[JobPollReminders] {
		t.Errorf("job log = %v, want both jobs", seen)
	}
}

func TestScheduler_DisabledJobs(t *testing.T) {
	eng := &fakeEngine{}
	s, err := New(eng, nil, Config{}, nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	s.Start()
	time.Sleep(30 * time.Millisecond)
	s.Shutdown()

	if settles, polls := eng.counts(); settles != 0 || polls != 0 {
		t.Errorf("disabled jobs ran settle=%d poll=%d", settles, polls)
	}
}
