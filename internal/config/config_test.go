package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"itq/internal/config"
)

func TestLoadReturnsDefaultsWhenFileMissing(t *testing.T) {
	cfg, path, exists, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatalf("expected missing config, got exists for %s", path)
	}
	if cfg.Sync.Interval != 60 {
		t.Fatalf("expected default sync interval 60, got %d", cfg.Sync.Interval)
	}
	if cfg.Sync.RefreshBatchSize != 50 {
		t.Fatalf("expected default refresh batch size 50, got %d", cfg.Sync.RefreshBatchSize)
	}
	if cfg.BMS.DeptPrefix != "T" {
		t.Fatalf("expected default dept prefix T, got %q", cfg.BMS.DeptPrefix)
	}
	if cfg.Shift.CloseHour != 21 || cfg.Shift.OpenHour != 6 {
		t.Fatalf("unexpected shift window: %d-%d", cfg.Shift.CloseHour, cfg.Shift.OpenHour)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
data_dir = "` + filepath.Join(dir, "data") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[bms]
dept_control = " 2 "
dept_prefix = ""

[sync]
interval = 30

[logging]
format = "JSON"
level = "DEBUG"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be detected")
	}
	if cfg.BMS.DeptControl != "2" {
		t.Fatalf("expected trimmed dept_control, got %q", cfg.BMS.DeptControl)
	}
	if cfg.BMS.DeptPrefix != "T" {
		t.Fatalf("expected empty dept_prefix to default to T, got %q", cfg.BMS.DeptPrefix)
	}
	if cfg.Sync.Interval != 30 {
		t.Fatalf("expected sync interval 30, got %d", cfg.Sync.Interval)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected normalized logging values, got %q/%q", cfg.Logging.Format, cfg.Logging.Level)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"short interval", func(c *config.Config) { c.Sync.Interval = 1 }, "sync.interval"},
		{"wide batch", func(c *config.Config) { c.Sync.RefreshBatchSize = 1000 }, "refresh_batch_size"},
		{"close hour", func(c *config.Config) { c.Shift.CloseHour = 24 }, "close_hour"},
		{"equal hours", func(c *config.Config) { c.Shift.OpenHour = c.Shift.CloseHour }, "must differ"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestSampleConfigMentionsAllSections(t *testing.T) {
	sample := config.SampleConfig()
	for _, section := range []string{"[paths]", "[bms]", "[sync]", "[shift]", "[logging]"} {
		if !strings.Contains(sample, section) {
			t.Fatalf("sample config missing section %s", section)
		}
	}
}
