package testsupport

import (
	"path/filepath"
	"testing"

	"itq/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.BMS.DSN = "test"

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithSyncInterval overrides the reconciliation interval, in seconds.
func WithSyncInterval(seconds int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Sync.Interval = seconds
	}
}

// WithRefreshBatchSize overrides the refresh batch cap.
func WithRefreshBatchSize(size int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Sync.RefreshBatchSize = size
	}
}
