package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}

	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	c.API.AuthToken = strings.TrimSpace(c.API.AuthToken)
	if c.API.RequestTimeout <= 0 {
		c.API.RequestTimeout = defaultAPITimeout
	}

	if c.Uploads.MaxConcurrent <= 0 {
		c.Uploads.MaxConcurrent = defaultMaxConcurrent
	}
	if c.Uploads.MaxRetries < 0 {
		c.Uploads.MaxRetries = defaultMaxRetries
	}
	if c.Uploads.RetryDelayMS <= 0 {
		c.Uploads.RetryDelayMS = defaultRetryDelayMS
	}
	if c.Uploads.MaxBatchFiles <= 0 {
		c.Uploads.MaxBatchFiles = defaultMaxBatchFiles
	}

	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	return nil
}
