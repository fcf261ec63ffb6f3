// Package daemon loads the walkbuddy configuration and wires the server
// process together.
package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/walkbuddy/walkbuddy/internal/app/engine"
	"github.com/walkbuddy/walkbuddy/internal/domain"
	"github.com/walkbuddy/walkbuddy/internal/infra/scheduler"
)

// ConfigFileName is the config file inside the home directory.
const ConfigFileName = "config.toml"

// ─── Config Sections ────────────────────────────────────────────────────────

// Config is the full daemon configuration, one struct per TOML section.
type Config struct {
	API       APIConfig               `toml:"api"`
	Engine    EngineConfig            `toml:"engine"`
	Points    domain.PointRules       `toml:"points"`
	Journal   JournalConfig           `toml:"journal"`
	Redis     RedisConfig             `toml:"redis"`
	Scheduler SchedulerConfig         `toml:"scheduler"`
	Reminders domain.ReminderSettings `toml:"reminders"`
	RateLimit RateLimitConfig         `toml:"ratelimit"`
	Log       LogConfig               `toml:"log"`
}

// APIConfig configures the HTTP server.
type APIConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	Metrics     bool     `toml:"metrics"`
	CORSOrigins []string `toml:"cors_origins"`
	Timeout     string   `toml:"timeout"`
}

// Addr returns host:port.
func (c APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// URL returns the base URL clients use to reach the server.
func (c APIConfig) URL() string {
	host := c.Host
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s:%d", host, c.Port)
}

// EngineConfig configures the in-memory engine.
type EngineConfig struct {
	// Timezone names the IANA zone that defines calendar days. "Local"
	// uses the host zone.
	Timezone    string `toml:"timezone"`
	SinkTimeout string `toml:"sink_timeout"`
}

// JournalConfig configures the SQLite points journal.
type JournalConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"` // defaults to <home>/data
}

// RedisConfig configures the leaderboard mirror.
type RedisConfig struct {
	Enabled bool   `toml:"enabled"`
	URL     string `toml:"url"`
	Prefix  string `toml:"prefix"`
}

// SchedulerConfig configures the periodic jobs. A "0" interval disables
// a job.
type SchedulerConfig struct {
	Enabled       bool   `toml:"enabled"`
	SettleEvery   string `toml:"settle_every"`
	ReminderEvery string `toml:"reminder_every"`
	RunOnStart    bool   `toml:"run_on_start"`
}

// RateLimitConfig configures per-client rate limiting.
type RateLimitConfig struct {
	Enabled bool    `toml:"enabled"`
	RPS     float64 `toml:"rps"`
	Burst   int     `toml:"burst"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `toml:"level"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host:    "127.0.0.1",
			Port:    8787,
			Metrics: true,
			Timeout: "30s",
		},
		Engine: EngineConfig{
			Timezone:    "Local",
			SinkTimeout: "5s",
		},
		Points:  domain.DefaultPointRules(),
		Journal: JournalConfig{Enabled: true},
		Redis: RedisConfig{
			URL:    "redis://localhost:6379/0",
			Prefix: "walkbuddy",
		},
		Scheduler: SchedulerConfig{
			Enabled:       true,
			SettleEvery:   "15m",
			ReminderEvery: "1m",
			RunOnStart:    true,
		},
		Reminders: domain.DefaultReminderSettings(),
		RateLimit: RateLimitConfig{Enabled: true, RPS: 10, Burst: 20},
		Log:       LogConfig{Level: "info"},
	}
}

// ─── Loading ────────────────────────────────────────────────────────────────

// Home returns the walkbuddy home directory: $WALKBUDDY_HOME or
// ~/.walkbuddy.
func Home() string {
	if env := os.Getenv("WALKBUDDY_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".walkbuddy")
}

// ConfigPath returns the config file location inside home.
func ConfigPath(home string) string {
	return filepath.Join(home, ConfigFileName)
}

// LoadConfig reads <home>/config.toml over the defaults, then applies
// .env files and WALKBUDDY_* environment overrides. A missing config file
// is not an error.
func LoadConfig(home string) (Config, error) {
	cfg := DefaultConfig()

	if _, err := toml.DecodeFile(ConfigPath(home), &cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("parse %s: %w", ConfigPath(home), err)
	}

	// godotenv.Load never overrides variables that are already set.
	for _, f := range []string{filepath.Join(home, ".env"), ".env"} {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("load %s: %w", f, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	if cfg.Journal.Dir == "" {
		cfg.Journal.Dir = filepath.Join(home, "data")
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	str("WALKBUDDY_HOST", &c.API.Host)
	str("WALKBUDDY_TIMEZONE", &c.Engine.Timezone)
	str("WALKBUDDY_JOURNAL_DIR", &c.Journal.Dir)
	str("WALKBUDDY_REDIS_URL", &c.Redis.URL)
	str("WALKBUDDY_LOG_LEVEL", &c.Log.Level)

	if v, ok := os.LookupEnv("WALKBUDDY_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("WALKBUDDY_PORT: %w", err)
		}
		c.API.Port = port
	}
	bools := map[string]*bool{
		"WALKBUDDY_METRICS":   &c.API.Metrics,
		"WALKBUDDY_JOURNAL":   &c.Journal.Enabled,
		"WALKBUDDY_REDIS":     &c.Redis.Enabled,
		"WALKBUDDY_SCHEDULER": &c.Scheduler.Enabled,
		"WALKBUDDY_RATELIMIT": &c.RateLimit.Enabled,
	}
	for key, dst := range bools {
		v, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = b
	}
	return nil
}

// Validate checks values that would otherwise fail at startup.
func (c Config) Validate() error {
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port %d out of range", c.API.Port)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	for name, v := range map[string]string{
		"api.timeout":              c.API.Timeout,
		"engine.sink_timeout":      c.Engine.SinkTimeout,
		"scheduler.settle_every":   c.Scheduler.SettleEvery,
		"scheduler.reminder_every": c.Scheduler.ReminderEvery,
	} {
		if _, err := parseDuration(v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if c.RateLimit.Enabled && c.RateLimit.RPS <= 0 {
		return fmt.Errorf("ratelimit.rps must be positive")
	}
	if c.Redis.Enabled && c.Redis.URL == "" {
		return fmt.Errorf("redis.url is required when redis is enabled")
	}
	return nil
}

// Save writes the config as TOML to path, creating parent directories.
func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(c)
}

// ─── Derived Settings ───────────────────────────────────────────────────────

// Location resolves the engine time zone.
func (c Config) Location() (*time.Location, error) {
	switch strings.TrimSpace(c.Engine.Timezone) {
	case "", "Local", "local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Engine.Timezone)
	if err != nil {
		return nil, fmt.Errorf("engine.timezone: %w", err)
	}
	return loc, nil
}

// EngineConfig converts the file settings into an engine configuration.
func (c Config) EngineConfig() (engine.Config, error) {
	loc, err := c.Location()
	if err != nil {
		return engine.Config{}, err
	}
	sinkTimeout, err := parseDuration(c.Engine.SinkTimeout)
	if err != nil {
		return engine.Config{}, fmt.Errorf("engine.sink_timeout: %w", err)
	}
	ec := engine.DefaultConfig()
	ec.Rules = c.Points
	ec.Location = loc
	ec.Reminders = c.Reminders.Normalize()
	ec.SinkTimeout = sinkTimeout
	return ec, nil
}

// SchedulerConfig converts the [scheduler] section.
func (c Config) SchedulerConfig() (scheduler.Config, error) {
	settle, err := parseDuration(c.Scheduler.SettleEvery)
	if err != nil {
		return scheduler.Config{}, fmt.Errorf("scheduler.settle_every: %w", err)
	}
	remind, err := parseDuration(c.Scheduler.ReminderEvery)
	if err != nil {
		return scheduler.Config{}, fmt.Errorf("scheduler.reminder_every: %w", err)
	}
	loc, err := c.Location()
	if err != nil {
		return scheduler.Config{}, err
	}
	return scheduler.Config{
		SettleEvery:   settle,
		ReminderEvery: remind,
		RunOnStart:    c.Scheduler.RunOnStart,
		Location:      loc,
	}, nil
}

// parseDuration accepts Go duration strings. Empty and "0" mean zero.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}
