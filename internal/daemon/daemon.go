package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/walkbuddy/walkbuddy/internal/api"
	"github.com/walkbuddy/walkbuddy/internal/app/engine"
	"github.com/walkbuddy/walkbuddy/internal/infra/cache"
	"github.com/walkbuddy/walkbuddy/internal/infra/observability"
	"github.com/walkbuddy/walkbuddy/internal/infra/scheduler"
	"github.com/walkbuddy/walkbuddy/internal/infra/sqlite"
)

// shutdownGrace bounds graceful HTTP shutdown.
const shutdownGrace = 10 * time.Second

// Daemon is a fully wired walkbuddy server process.
type Daemon struct {
	cfg Config
	log *logrus.Entry

	eng     *engine.Engine
	server  *api.Server
	journal *sqlite.DB
	mirror  *cache.RedisCache
	sched   *scheduler.Scheduler
	limiter *api.RateLimiter
}

// New builds the engine and every enabled component. Optional mirrors that
// cannot be reached are logged and skipped.
func New(ctx context.Context, cfg Config, logger *logrus.Logger) (*Daemon, error) {
	if logger == nil {
		logger = observability.NewLogger(cfg.Log.Level, nil)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ec, err := cfg.EngineConfig()
	if err != nil {
		return nil, err
	}

	d := &Daemon{cfg: cfg, log: observability.Component(logger, "daemon")}
	d.eng = engine.New(ec)
	d.eng.SetLogger(observability.Component(logger, "engine"))

	d.server = api.NewServer(d.eng)
	d.server.SetLogger(observability.Component(logger, "api"))
	d.server.SetCORSOrigins(cfg.API.CORSOrigins)
	if cfg.API.Metrics {
		d.server.EnableMetrics()
	}
	if timeout, _ := parseDuration(cfg.API.Timeout); timeout > 0 {
		d.server.SetTimeout(timeout)
	}
	if cfg.RateLimit.Enabled {
		d.limiter = api.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		d.server.SetRateLimiter(d.limiter)
	}

	if cfg.Journal.Enabled {
		db, err := sqlite.Open(cfg.Journal.Dir)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		d.journal = db
		d.eng.AddSink(db)
		d.server.SetJournal(db)
		d.log.WithField("dir", cfg.Journal.Dir).Info("points journal enabled")
	}

	if cfg.Redis.Enabled {
		mirror, err := cache.NewRedisCache(ctx, cfg.Redis.URL, cfg.Redis.Prefix)
		if err != nil {
			d.log.WithError(err).Warn("redis mirror unavailable, continuing without it")
		} else {
			d.mirror = mirror
			d.eng.AddPublisher(mirror)
			d.server.SetMirror(mirror)
			d.log.Info("redis leaderboard mirror enabled")
		}
	}

	if cfg.Scheduler.Enabled {
		sc, err := cfg.SchedulerConfig()
		if err != nil {
			d.Close()
			return nil, err
		}
		jobs := observability.NewJobLog(0)
		d.sched, err = scheduler.New(d.eng, jobs, sc, observability.Component(logger, "scheduler"))
		if err != nil {
			d.Close()
			return nil, err
		}
		d.server.SetJobLog(d.sched.Jobs())
	}
	return d, nil
}

// Engine returns the daemon's engine.
func (d *Daemon) Engine() *engine.Engine { return d.eng }

// Handler returns the HTTP handler.
func (d *Daemon) Handler() http.Handler { return d.server.Handler() }

// Run listens on the configured address and serves until ctx is done.
func (d *Daemon) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", d.cfg.API.Addr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", d.cfg.API.Addr(), err)
	}
	return d.Serve(ctx, ln)
}

// Serve runs background jobs and serves HTTP on ln until ctx is done, then
// shuts everything down gracefully.
func (d *Daemon) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           d.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	bg, cancel := context.WithCancel(ctx)
	defer cancel()
	if d.limiter != nil {
		go d.limiter.Run(bg)
	}
	if d.sched != nil {
		d.sched.Start()
	}

	errCh := make(chan error, 1)
	go func() {
		d.log.WithField("addr", ln.Addr().String()).Info("walkbuddy listening")
		errCh <- srv.Serve(ln)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	d.log.Info("shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownGrace)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		d.log.WithError(err).Warn("http shutdown")
	}
	if err := d.Close(); err != nil {
		d.log.WithError(err).Warn("close components")
	}
	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return serveErr
	}
	return nil
}

// Close stops the scheduler and releases the journal and mirror.
func (d *Daemon) Close() error {
	var errs []error
	if d.sched != nil {
		if err := d.sched.Shutdown(); err != nil {
			errs = append(errs, err)
		}
		d.sched = nil
	}
	if d.journal != nil {
		if err := d.journal.Close(); err != nil {
			errs = append(errs, err)
		}
		d.journal = nil
	}
	if d.mirror != nil {
		if err := d.mirror.Close(); err != nil {
			errs = append(errs, err)
		}
		d.mirror = nil
	}
	return errors.Join(errs...)
}
