package config

const (
	defaultDataDir       = "~/.local/share/rapidphoto"
	defaultLogDir        = "~/.local/share/rapidphoto/logs"
	defaultAPIBaseURL    = "http://localhost:8080"
	defaultAPITimeout    = 30
	defaultMaxConcurrent = 10
	defaultMaxRetries    = 3
	defaultRetryDelayMS  = 1000
	defaultMaxBatchFiles = 100
	defaultNotifyTimeout = 10
	defaultLogFormat     = "text"
	defaultLogLevel      = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		API: API{
			BaseURL:        defaultAPIBaseURL,
			RequestTimeout: defaultAPITimeout,
		},
		Uploads: Uploads{
			MaxConcurrent: defaultMaxConcurrent,
			MaxRetries:    defaultMaxRetries,
			RetryDelayMS:  defaultRetryDelayMS,
			MaxBatchFiles: defaultMaxBatchFiles,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Uploads:        true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
