package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeBMS()
	c.normalizeSync()
	c.normalizeShift()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = ExpandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeBMS() {
	c.BMS.Driver = strings.TrimSpace(c.BMS.Driver)
	if c.BMS.Driver == "" {
		c.BMS.Driver = defaultBMSDriver
	}
	if c.BMS.DSN == "" {
		if value, ok := os.LookupEnv("ITQ_BMS_DSN"); ok {
			c.BMS.DSN = strings.TrimSpace(value)
		}
	}
	c.BMS.DeptControl = strings.TrimSpace(c.BMS.DeptControl)
	if c.BMS.DeptControl == "" {
		c.BMS.DeptControl = defaultDeptControl
	}
	c.BMS.DeptPrefix = strings.TrimSpace(c.BMS.DeptPrefix)
	if c.BMS.DeptPrefix == "" {
		c.BMS.DeptPrefix = defaultDeptPrefix
	}
	if c.BMS.FetchTimeout <= 0 {
		c.BMS.FetchTimeout = defaultFetchTimeout
	}
}

func (c *Config) normalizeSync() {
	if c.Sync.Interval <= 0 {
		c.Sync.Interval = defaultSyncInterval
	}
	if c.Sync.RefreshBatchSize <= 0 {
		c.Sync.RefreshBatchSize = defaultRefreshBatchSize
	}
}

func (c *Config) normalizeShift() {
	c.Shift.CheckSchedule = strings.TrimSpace(c.Shift.CheckSchedule)
	if c.Shift.CheckSchedule == "" {
		c.Shift.CheckSchedule = defaultCheckSchedule
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
