package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Job Runs ───────────────────────────────────────────────────────────────
// Background jobs record each run into a bounded ring buffer so the API can
// show what the scheduler did recently.

// JobRun is one execution of a background job.
type JobRun struct {
	Job       string        `json:"job"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Items     int           `json:"items"`
	Error     string        `json:"error,omitempty"`
}

// JobLog keeps the most recent job runs.
type JobLog struct {
	mu      sync.Mutex
	runs    []JobRun
	maxRuns int
	now     func() time.Time
}

// NewJobLog creates a job log holding up to maxRuns entries (default 500).
func NewJobLog(maxRuns int) *JobLog {
	if maxRuns <= 0 {
		maxRuns = 500
	}
	return &JobLog{runs: make([]JobRun, 0, maxRuns), maxRuns: maxRuns, now: time.Now}
}

// Track runs fn and records its outcome. fn returns how many items it
// processed.
func (l *JobLog) Track(job string, fn func() (int, error)) error {
	start := l.now()
	items, err := fn()
	run := JobRun{
		Job:       job,
		StartedAt: start,
		Duration:  l.now().Sub(start),
		Items:     items,
	}
	if err != nil {
		run.Error = err.Error()
	}
	JobRuns.WithLabelValues(job, boolLabel(err == nil)).Inc()
	JobDuration.WithLabelValues(job).Observe(run.Duration.Seconds())

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.runs) >= l.maxRuns {
		l.runs = l.runs[1:]
	}
	l.runs = append(l.runs, run)
	return err
}

// Runs returns up to limit most recent runs, oldest first.
func (l *JobLog) Runs(limit int) []JobRun {
	l.mu.Lock()
	defer l.mu.Unlock()
	if limit <= 0 || limit > len(l.runs) {
		limit = len(l.runs)
	}
	out := make([]JobRun, limit)
	copy(out, l.runs[len(l.runs)-limit:])
	return out
}

// Len returns the number of recorded runs.
func (l *JobLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.runs)
}

func boolLabel(ok bool) string {
	if ok {
		return "true"
	}
	return "false"
}

// JobRuns counts background job executions by job and success.
var JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: Namespace,
	Subsystem: "jobs",
	Name:      "runs_total",
	Help:      "Background job runs by job and success.",
}, []string{"job", "success"})

// JobDuration observes background job latency.
var JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: Namespace,
	Subsystem: "jobs",
	Name:      "duration_seconds",
	Help:      "Background job duration.",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
}, []string{"job"})
