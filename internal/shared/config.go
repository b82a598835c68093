package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

const appName = "ytq"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Downloads DownloadsConfig `toml:"downloads"`
	Probe     ProbeConfig     `toml:"probe"`
	Cache     CacheConfig     `toml:"cache"`
	Log       LogConfig       `toml:"log"`
	UI        UIConfig        `toml:"ui"`
}

// DownloadsConfig controls where and how many downloads run.
type DownloadsConfig struct {
	OutputDir     string `toml:"output_dir"`
	MaxConcurrent int    `toml:"max_concurrent"`
}

// ProbeConfig configures the external extraction tool.
type ProbeConfig struct {
	Binary               string   `toml:"binary"`
	DetectTimeoutSeconds int      `toml:"detect_timeout_seconds"`
	ExtraArgs            []string `toml:"extra_args"`
}

// CacheConfig configures the probe result cache.
type CacheConfig struct {
	Path     string `toml:"path"`
	TTLHours int    `toml:"ttl_hours"`
}

// LogConfig configures file logging used while the TUI is running.
type LogConfig struct {
	Path  string `toml:"path"`
	Level string `toml:"level"`
}

// UIConfig contains render cadence settings.
type UIConfig struct {
	TickMillis   int     `toml:"tick_ms"`
	ProgressRate float64 `toml:"progress_rate"` // progress events per second per download
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate rejects values the queue cannot run with.
func (c *Config) Validate() error {
	if c.Downloads.MaxConcurrent < 1 {
		return fmt.Errorf("%w: downloads.max_concurrent must be at least 1", ErrInvalidConfig)
	}
	if c.Probe.Binary == "" {
		return fmt.Errorf("%w: probe.binary is required", ErrInvalidConfig)
	}
	if c.Probe.DetectTimeoutSeconds < 1 {
		return fmt.Errorf("%w: probe.detect_timeout_seconds must be at least 1", ErrInvalidConfig)
	}
	if c.Cache.TTLHours < 1 {
		return fmt.Errorf("%w: cache.ttl_hours must be at least 1", ErrInvalidConfig)
	}
	return nil
}

// DetectTimeout is the per-branch timeout of the single/collection detection race.
func (c *Config) DetectTimeout() time.Duration {
	return time.Duration(c.Probe.DetectTimeoutSeconds) * time.Second
}

// CacheTTL is the lifetime of a cached probe result.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLHours) * time.Hour
}

// TickInterval is the render cadence of the TUI.
func (c *Config) TickInterval() time.Duration {
	if c.UI.TickMillis <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(c.UI.TickMillis) * time.Millisecond
}

// ResolveOutputDir returns the configured output directory or the user's Downloads folder.
func (c *Config) ResolveOutputDir() string {
	if c.Downloads.OutputDir != "" {
		return expandHome(c.Downloads.OutputDir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Downloads")
}

// ResolveCachePath returns the configured cache database path or one under the per-user cache directory.
func (c *Config) ResolveCachePath() string {
	if c.Cache.Path != "" {
		return expandHome(c.Cache.Path)
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, appName, "cache.db")
}

// ResolveLogPath returns the configured log file or one next to the cache database.
func (c *Config) ResolveLogPath() string {
	if c.Log.Path != "" {
		return expandHome(c.Log.Path)
	}
	return filepath.Join(filepath.Dir(c.ResolveCachePath()), appName+".log")
}

func expandHome(p string) string {
	if len(p) < 2 || p[:2] != "~/" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}
