package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSync(); err != nil {
		return err
	}
	if err := c.validateShift(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSync() error {
	if c.Sync.Interval < 5 {
		return fmt.Errorf("sync.interval must be at least 5 seconds, got %d", c.Sync.Interval)
	}
	if c.Sync.RefreshBatchSize > 500 {
		return fmt.Errorf("sync.refresh_batch_size must not exceed 500, got %d", c.Sync.RefreshBatchSize)
	}
	return nil
}

func (c *Config) validateShift() error {
	if c.Shift.CloseHour < 0 || c.Shift.CloseHour > 23 {
		return errors.New("shift.close_hour must be between 0 and 23")
	}
	if c.Shift.OpenHour < 0 || c.Shift.OpenHour > 23 {
		return errors.New("shift.open_hour must be between 0 and 23")
	}
	if c.Shift.CloseHour == c.Shift.OpenHour {
		return errors.New("shift.close_hour and shift.open_hour must differ")
	}
	return nil
}
