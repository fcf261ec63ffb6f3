package daemon

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "127.0.0.1")
	}
	if cfg.API.Port != 8787 {
		t.Errorf("API.Port = %d, want %d", cfg.API.Port, 8787)
	}
	if cfg.Points.GroupWalkBonus != 20 || cfg.Points.InviteBonus != 50 {
		t.Errorf("Points = %+v, want default rules", cfg.Points)
	}
	if cfg.Reminders.WalkEveryMin != 120 || cfg.Reminders.StandEveryMin != 30 {
		t.Errorf("Reminders = %+v", cfg.Reminders)
	}
	if cfg.Redis.Enabled {
		t.Error("Redis.Enabled should be false by default (opt-in)")
	}
	if !cfg.Journal.Enabled {
		t.Error("Journal.Enabled should be true by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadConfig_File(t *testing.T) {
	home := t.TempDir()
	data := `
[api]
port = 9090

[engine]
timezone = "UTC"

[points]
base_per_minute = 2
group_walk_bonus = 20
photo_share_bonus = 5
streak_7_bonus = 10
streak_30_bonus = 50
invite_bonus = 75

[scheduler]
settle_every = "5m"
reminder_every = "0"
`
	if err := os.WriteFile(filepath.Join(home, ConfigFileName), []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(home)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port = %d, want 9090", cfg.API.Port)
	}
	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host = %q, default should survive", cfg.API.Host)
	}
	if cfg.Points.BasePerMinute != 2 || cfg.Points.InviteBonus != 75 {
		t.Errorf("Points = %+v", cfg.Points)
	}
	if cfg.Journal.Dir != filepath.Join(home, "data") {
		t.Errorf("Journal.Dir = %q", cfg.Journal.Dir)
	}

	sc, err := cfg.SchedulerConfig()
	if err != nil {
		t.Fatalf("SchedulerConfig() error: %v", err)
	}
	if sc.SettleEvery != 5*time.Minute || sc.ReminderEvery != 0 {
		t.Errorf("scheduler = %+v", sc)
	}
	ec, err := cfg.EngineConfig()
	if err != nil {
		t.Fatalf("EngineConfig() error: %v", err)
	}
	if ec.Location != time.UTC || ec.Rules.BasePerMinute != 2 {
		t.Errorf("engine config = %+v", ec)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.API.Port != DefaultConfig().API.Port {
		t.Errorf("API.Port = %d, want default", cfg.API.Port)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"syntax", "[api\nport = 1"},
		{"port range", "[api]\nport = 70000"},
		{"timezone", "[engine]\ntimezone = \"Mars/Olympus\""},
		{"duration", "[scheduler]\nsettle_every = \"soon\""},
		{"rate", "[ratelimit]\nenabled = true\nrps = 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := t.TempDir()
			if err := os.WriteFile(filepath.Join(home, ConfigFileName), []byte(tt.toml), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadConfig(home); err == nil {
				t.Error("LoadConfig() should fail")
			}
		})
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	home := t.TempDir()
	t.Setenv("WALKBUDDY_PORT", "9191")
	t.Setenv("WALKBUDDY_REDIS", "true")
	t.Setenv("WALKBUDDY_REDIS_URL", "redis://cache:6379/1")

	cfg, err := LoadConfig(home)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.API.Port != 9191 {
		t.Errorf("API.Port = %d, want 9191", cfg.API.Port)
	}
	if !cfg.Redis.Enabled || cfg.Redis.URL != "redis://cache:6379/1" {
		t.Errorf("Redis = %+v", cfg.Redis)
	}

	t.Setenv("WALKBUDDY_PORT", "eighty")
	if _, err := LoadConfig(home); err == nil {
		t.Error("bad WALKBUDDY_PORT should fail")
	}
}

func TestLoadConfig_DotEnv(t *testing.T) {
	home := t.TempDir()
	if err := os.WriteFile(filepath.Join(home, ".env"), []byte("WALKBUDDY_LOG_LEVEL=debug\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	os.Unsetenv("WALKBUDDY_LOG_LEVEL")
	t.Cleanup(func() { os.Unsetenv("WALKBUDDY_LOG_LEVEL") })

	cfg, err := LoadConfig(home)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug from .env", cfg.Log.Level)
	}
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	home := t.TempDir()
	cfg := DefaultConfig()
	cfg.API.Port = 9300
	cfg.Reminders.SnoozeMinutes = 15
	if err := cfg.Save(ConfigPath(home)); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	got, err := LoadConfig(home)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if got.API.Port != 9300 || got.Reminders.SnoozeMinutes != 15 {
		t.Errorf("round trip = %+v / %+v", got.API, got.Reminders)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"", 0, false},
		{"0", 0, false},
		{"90s", 90 * time.Second, false},
		{"-1m", 0, true},
		{"later", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseDuration(tt.input)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("parseDuration(%q) = %v, %v; want %v, err %v", tt.input, got, err, tt.want, tt.wantErr)
			}
		})
	}
}

func TestAPIConfig_URL(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"127.0.0.1", "http://127.0.0.1:8787"},
		{"0.0.0.0", "http://127.0.0.1:8787"},
		{"walk.local", "http://walk.local:8787"},
	}
	for _, tt := range tests {
		if got := (APIConfig{Host: tt.host, Port: 8787}).URL(); got != tt.want {
			t.Errorf("URL() = %q, want %q", got, tt.want)
		}
	}
}
