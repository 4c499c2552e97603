package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// BMS contains configuration for the upstream repair-job system.
type BMS struct {
	// Driver is the database/sql driver name used to reach the system.
	Driver string `toml:"driver"`
	// DSN is handed opaquely to the named driver.
	DSN string `toml:"dsn"`
	// DeptControl is the dept_control value jobs must carry to be ingested.
	DeptControl string `toml:"dept_control"`
	// DeptPrefix is the dept_tech prefix a mirrored job must keep to stay in scope.
	DeptPrefix string `toml:"dept_prefix"`
	// FetchTimeout bounds a single fetch against the upstream system, in seconds.
	FetchTimeout int `toml:"fetch_timeout"`
}

// Sync contains configuration for the reconciliation loop.
type Sync struct {
	// Interval between background synchronize runs, in seconds.
	Interval int `toml:"interval"`
	// RefreshBatchSize caps how many job numbers one refresh query may name.
	RefreshBatchSize int `toml:"refresh_batch_size"`
}

// Shift contains configuration for the nightly auto-close window.
type Shift struct {
	AutoCloseEnabled bool `toml:"auto_close_enabled"`
	// CloseHour is the local hour the service window closes (inclusive).
	CloseHour int `toml:"close_hour"`
	// OpenHour is the local hour the service window reopens (exclusive).
	OpenHour int `toml:"open_hour"`
	// CheckSchedule is the cron expression driving auto-close checks.
	CheckSchedule string `toml:"check_schedule"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for itq.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories
//   - BMS: upstream repair-job system connection and scoping filters
//   - Sync: reconciliation loop timing and batch sizing
//   - Shift: nightly auto-close window
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	BMS     BMS     `toml:"bms"`
	Sync    Sync    `toml:"sync"`
	Shift   Shift   `toml:"shift"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/itq/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("itq.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the local queue database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "itq.db")
}

// SampleConfig returns the embedded annotated sample configuration file.
func SampleConfig() string {
	return sampleConfig
}

// ExpandPath resolves ~ and relative segments to an absolute path.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		trimmed = filepath.Join(home, trimmed[2:])
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve path %q: %w", path, err)
	}
	return abs, nil
}
