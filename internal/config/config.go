package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/yosuke-furukawa/json5/encoding/json5"
)

const (
	DirName         = "nursejobs"
	ConfigFileName  = "config.json"
	ProxiesFileName = "proxies.txt"
)

// Config holds run settings. Missing keys keep their defaults.
type Config struct {
	OutputDir         string            `json:"output_dir"`
	MaxJobsPerSite    int               `json:"max_jobs_per_site"`
	RetryAttempts     int               `json:"retry_attempts"`
	RetryDelaySeconds int               `json:"retry_delay_seconds"`
	RequestIntervalMS int               `json:"request_interval_ms"`
	ScheduleAt        string            `json:"schedule_at"`
	Formats           []string          `json:"formats"`
	URLs              map[string]string `json:"urls"`
}

func DefaultConfig() Config {
	return Config{
		OutputDir:         envString("NURSEJOBS_OUTPUT_DIR", "output"),
		MaxJobsPerSite:    envInt("NURSEJOBS_MAX_JOBS", 100),
		RetryAttempts:     envInt("NURSEJOBS_RETRY_ATTEMPTS", 3),
		RetryDelaySeconds: envInt("NURSEJOBS_RETRY_DELAY", 5),
		RequestIntervalMS: envInt("NURSEJOBS_REQUEST_INTERVAL", 1000),
		ScheduleAt:        envString("NURSEJOBS_SCHEDULE", "06:00"),
		Formats:           []string{"csv", "json"},
		URLs: map[string]string{
			"remotenurse": "https://remotenurseconnection.com/remote-nursing-job-board/",
			"nursefern":   "https://app.nursefern.com/",
		},
	}
}

func (c Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySeconds) * time.Second
}

func (c Config) RequestInterval() time.Duration {
	return time.Duration(c.RequestIntervalMS) * time.Millisecond
}

// Validate rejects settings the pipeline cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.OutputDir) == "" {
		return errors.New("output_dir is required")
	}
	if c.MaxJobsPerSite < 0 {
		return fmt.Errorf("max_jobs_per_site must be >= 0, got %d", c.MaxJobsPerSite)
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("retry_attempts must be >= 1, got %d", c.RetryAttempts)
	}
	if c.RetryDelaySeconds < 0 || c.RequestIntervalMS < 0 {
		return errors.New("retry_delay_seconds and request_interval_ms must be >= 0")
	}
	if _, _, err := ParseClock(c.ScheduleAt); err != nil {
		return fmt.Errorf("schedule_at: %w", err)
	}
	return nil
}

// ParseClock parses a 24-hour HH:MM time of day.
func ParseClock(value string) (hour int, minute int, err error) {
	ts, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return 0, 0, fmt.Errorf("want HH:MM, got %q", value)
	}
	return ts.Hour(), ts.Minute(), nil
}

func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, DirName), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

func ProxiesPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ProxiesFileName), nil
}

func Load() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), err
	}
	return LoadFile(path)
}

// LoadFile reads a json5 config over the defaults. A missing or blank file
// yields the defaults.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return cfg, nil
	}

	if err := json5.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Init writes default config.json and proxies.txt if they don't already exist.
func Init() ([]string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	return InitDir(dir)
}

func InitDir(dir string) ([]string, error) {
	var created []string

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return created, err
	}

	configPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		if err := writeConfig(configPath, DefaultConfig()); err != nil {
			return created, err
		}
		created = append(created, configPath)
	}

	proxiesPath := filepath.Join(dir, ProxiesFileName)
	if _, err := os.Stat(proxiesPath); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(proxiesPath, []byte("# one proxy URL per line\n"), 0o644); err != nil {
			return created, err
		}
		created = append(created, proxiesPath)
	}

	return created, nil
}

// writeConfig writes cfg as commented json5 so the file documents itself.
func writeConfig(path string, cfg Config) error {
	quote := func(v any) string {
		data, _ := json.Marshal(v)
		return string(data)
	}

	var b strings.Builder
	b.WriteString("{\n")
	b.WriteString("  // Exports and seen_jobs.json land here.\n")
	fmt.Fprintf(&b, "  \"output_dir\": %s,\n", quote(cfg.OutputDir))
	b.WriteString("  // Detail pages fetched per site and run; 0 means no cap.\n")
	fmt.Fprintf(&b, "  \"max_jobs_per_site\": %d,\n", cfg.MaxJobsPerSite)
	b.WriteString("  // Attempts per page, with a fixed delay between them.\n")
	fmt.Fprintf(&b, "  \"retry_attempts\": %d,\n", cfg.RetryAttempts)
	fmt.Fprintf(&b, "  \"retry_delay_seconds\": %d,\n", cfg.RetryDelaySeconds)
	b.WriteString("  // Minimum gap between requests to the same site.\n")
	fmt.Fprintf(&b, "  \"request_interval_ms\": %d,\n", cfg.RequestIntervalMS)
	b.WriteString("  // Daily run time for `nursejobs schedule`, 24-hour HH:MM.\n")
	fmt.Fprintf(&b, "  \"schedule_at\": %s,\n", quote(cfg.ScheduleAt))
	fmt.Fprintf(&b, "  \"formats\": %s,\n", quote(cfg.Formats))
	fmt.Fprintf(&b, "  \"urls\": %s\n", quote(cfg.URLs))
	b.WriteString("}\n")

	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// LoadProxies resolves proxies from the flag, NURSEJOBS_PROXIES, PROXY_URL,
// then the proxies file, first non-empty wins.
func LoadProxies(flagValue string) ([]string, error) {
	path, err := ProxiesPath()
	if err != nil {
		return nil, err
	}
	return loadProxies(flagValue, path)
}

func loadProxies(flagValue string, path string) ([]string, error) {
	if strings.TrimSpace(flagValue) != "" {
		return splitCSV(flagValue), nil
	}

	if env := strings.TrimSpace(os.Getenv("NURSEJOBS_PROXIES")); env != "" {
		return splitCSV(env), nil
	}

	if single := strings.TrimSpace(os.Getenv("PROXY_URL")); single != "" {
		return []string{single}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var proxies []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		proxies = append(proxies, line)
	}
	return proxies, nil
}

func envString(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func envInt(key string, fallback int) int {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
