// Package scheduler runs the engine's periodic jobs: settling team battles
// whose window has closed and polling in-app reminders.
package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"

	"github.com/walkbuddy/walkbuddy/internal/domain"
	"github.com/walkbuddy/walkbuddy/internal/infra/observability"
)

// Job names as they appear in the job log and metrics.
const (
	JobSettleBattles = "settle_battles"
	JobPollReminders = "poll_reminders"
)

// Engine is the subset of the engine the jobs drive.
type Engine interface {
	SettleDue() []domain.Battle
	AllDueReminders() map[string][]domain.ReminderKind
}

// Config sets job intervals. A zero interval disables the job.
type Config struct {
	SettleEvery   time.Duration
	ReminderEvery time.Duration
	// RunOnStart fires every job once as soon as the scheduler starts.
	RunOnStart bool
	Location   *time.Location
}

// DefaultConfig settles battles every 15 minutes and polls reminders every
// minute.
func DefaultConfig() Config {
	return Config{
		SettleEvery:   15 * time.Minute,
		ReminderEvery: time.Minute,
		RunOnStart:    true,
	}
}

// Scheduler owns a gocron scheduler and the registered jobs.
type Scheduler struct {
	sched gocron.Scheduler
	eng   Engine
	jobs  *observability.JobLog
	log   *logrus.Entry
}

// New builds the scheduler and registers the enabled jobs. It does not
// start them.
func New(eng Engine, jobs *observability.JobLog, cfg Config, log *logrus.Entry) (*Scheduler, error) {
	if eng == nil {
		return nil, errors.New("scheduler: nil engine")
	}
	if jobs == nil {
		jobs = observability.NewJobLog(0)
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	var opts []gocron.SchedulerOption
	if cfg.Location != nil {
		opts = append(opts, gocron.WithLocation(cfg.Location))
	}
	sched, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	s := &Scheduler{sched: sched, eng: eng, jobs: jobs, log: log.WithField("component", "scheduler")}
	if err := s.register(JobSettleBattles, cfg.SettleEvery, cfg.RunOnStart, s.SettleBattles); err != nil {
		return nil, err
	}
	if err := s.register(JobPollReminders, cfg.ReminderEvery, cfg.RunOnStart, s.PollReminders); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) register(name string, every time.Duration, immediately bool, fn func() (int, error)) error {
	if every <= 0 {
		s.log.WithField("job", name).Info("job disabled")
		return nil
	}
	opts := []gocron.JobOption{
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if immediately {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}
	_, err := s.sched.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() {
			if err := s.jobs.Track(name, fn); err != nil {
				s.log.WithError(err).WithField("job", name).Error("job failed")
			}
		}),
		opts...,
	)
	if err != nil {
		return fmt.Errorf("register %s: %w", name, err)
	}
	return nil
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() { s.sched.Start() }

// Shutdown stops the scheduler and waits for running jobs.
func (s *Scheduler) Shutdown() error { return s.sched.Shutdown() }

// Jobs returns the job log the scheduler writes to.
func (s *Scheduler) Jobs() *observability.JobLog { return s.jobs }

// ─── Jobs ───────────────────────────────────────────────────────────────────

// SettleBattles settles every due battle and returns how many were settled.
func (s *Scheduler) SettleBattles() (int, error) {
	settled := s.eng.SettleDue()
	for _, b := range settled {
		s.log.WithFields(logrus.Fields{
			"battle": b.ID,
			"winner": b.Winner,
		}).Info("battle settled by scheduler")
	}
	return len(settled), nil
}

// PollReminders counts the reminders currently due and returns how many
// users have at least one.
func (s *Scheduler) PollReminders() (int, error) {
	due := s.eng.AllDueReminders()
	for user, kinds := range due {
		for _, k := range kinds {
			observability.RemindersDue.WithLabelValues(string(k)).Inc()
		}
		s.log.WithFields(logrus.Fields{"user": user, "kinds": kinds}).Debug("reminders due")
	}
	return len(due), nil
}
