package config

const (
	defaultDataDir          = "~/.local/share/itq"
	defaultLogDir           = "~/.local/share/itq/logs"
	defaultBMSDriver        = "sqlite"
	defaultDeptControl      = "2"
	defaultDeptPrefix       = "T"
	defaultFetchTimeout     = 30
	defaultSyncInterval     = 60
	defaultRefreshBatchSize = 50
	defaultCloseHour        = 21
	defaultOpenHour         = 6
	defaultCheckSchedule    = "*/5 21-23,0-5 * * *"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		BMS: BMS{
			Driver:       defaultBMSDriver,
			DeptControl:  defaultDeptControl,
			DeptPrefix:   defaultDeptPrefix,
			FetchTimeout: defaultFetchTimeout,
		},
		Sync: Sync{
			Interval:         defaultSyncInterval,
			RefreshBatchSize: defaultRefreshBatchSize,
		},
		Shift: Shift{
			AutoCloseEnabled: true,
			CloseHour:        defaultCloseHour,
			OpenHour:         defaultOpenHour,
			CheckSchedule:    defaultCheckSchedule,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
