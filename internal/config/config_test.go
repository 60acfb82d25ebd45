package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("NURSEJOBS_MAX_JOBS", "")
	t.Setenv("NURSEJOBS_RETRY_DELAY", "")
	cfg := DefaultConfig()
	if cfg.MaxJobsPerSite != 100 || cfg.RetryAttempts != 3 || cfg.RetryDelay() != 5*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if strings.Join(cfg.Formats, ",") != "csv,json" {
		t.Fatalf("unexpected formats: %v", cfg.Formats)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestDefaultConfigEnv(t *testing.T) {
	t.Setenv("NURSEJOBS_MAX_JOBS", "25")
	t.Setenv("NURSEJOBS_REQUEST_INTERVAL", "bogus")
	t.Setenv("NURSEJOBS_SCHEDULE", "09:30")
	cfg := DefaultConfig()
	if cfg.MaxJobsPerSite != 25 {
		t.Fatalf("MaxJobsPerSite = %d, want 25", cfg.MaxJobsPerSite)
	}
	if cfg.RequestInterval() != time.Second {
		t.Fatalf("expected invalid env to fall back, got %v", cfg.RequestInterval())
	}
	if cfg.ScheduleAt != "09:30" {
		t.Fatalf("ScheduleAt = %q", cfg.ScheduleAt)
	}
}

func TestLoadFileJSON5(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	data := `{
  // comments are fine
  output_dir: "/tmp/jobs",
  max_jobs_per_site: 10,
  formats: ["json"],
}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.OutputDir != "/tmp/jobs" || cfg.MaxJobsPerSite != 10 || len(cfg.Formats) != 1 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.RetryAttempts != 3 {
		t.Fatalf("expected defaults for missing keys, got %d", cfg.RetryAttempts)
	}
}

func TestLoadFileMissing(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.ScheduleAt == "" {
		t.Fatalf("expected defaults")
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScheduleAt = "25:00"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected invalid schedule error")
	}
	cfg = DefaultConfig()
	cfg.RetryAttempts = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected retry_attempts error")
	}
}

func TestParseClock(t *testing.T) {
	hour, minute, err := ParseClock(" 6:05 ")
	if err != nil || hour != 6 || minute != 5 {
		t.Fatalf("ParseClock() = %d, %d, %v", hour, minute, err)
	}
}

func TestInitDir(t *testing.T) {
	dir := t.TempDir()
	created, err := InitDir(dir)
	if err != nil {
		t.Fatalf("InitDir() error = %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("expected two files created, got %v", created)
	}
	again, err := InitDir(dir)
	if err != nil || len(again) != 0 {
		t.Fatalf("second InitDir() = %v, %v", again, err)
	}
	cfg, err := LoadFile(filepath.Join(dir, ConfigFileName))
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	want := DefaultConfig()
	if cfg.ScheduleAt != want.ScheduleAt || cfg.MaxJobsPerSite != want.MaxJobsPerSite {
		t.Fatalf("round trip lost values: %+v", cfg)
	}
	if cfg.URLs["nursefern"] != want.URLs["nursefern"] || len(cfg.Formats) != 2 {
		t.Fatalf("round trip lost urls/formats: %+v", cfg)
	}
}

func TestLoadProxiesPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), ProxiesFileName)
	if err := os.WriteFile(path, []byte("# comment\nhttp://file:1\n\n"), 0o644); err != nil {
		t.Fatalf("write proxies: %v", err)
	}
	t.Setenv("NURSEJOBS_PROXIES", "")
	t.Setenv("PROXY_URL", "")

	got, err := loadProxies("", path)
	if err != nil || strings.Join(got, ",") != "http://file:1" {
		t.Fatalf("file proxies = %v, %v", got, err)
	}

	t.Setenv("PROXY_URL", "http://single:2")
	got, _ = loadProxies("", path)
	if strings.Join(got, ",") != "http://single:2" {
		t.Fatalf("PROXY_URL proxies = %v", got)
	}

	t.Setenv("NURSEJOBS_PROXIES", "http://a:1, http://b:2")
	got, _ = loadProxies("", path)
	if strings.Join(got, ",") != "http://a:1,http://b:2" {
		t.Fatalf("env proxies = %v", got)
	}

	got, _ = loadProxies("http://flag:3", path)
	if strings.Join(got, ",") != "http://flag:3" {
		t.Fatalf("flag proxies = %v", got)
	}
}
