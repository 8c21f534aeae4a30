package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateUploads(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url must be set")
	}
	parsed, err := url.Parse(c.API.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("api.base_url %q is not a valid URL", c.API.BaseURL)
	}
	switch parsed.Scheme {
	case "http", "https":
	default:
		return fmt.Errorf("api.base_url scheme %q is not supported", parsed.Scheme)
	}
	return nil
}

func (c *Config) validateUploads() error {
	if c.Uploads.MaxConcurrent < 1 || c.Uploads.MaxConcurrent > 64 {
		return errors.New("uploads.max_concurrent must be between 1 and 64")
	}
	if c.Uploads.MaxRetries > 10 {
		return errors.New("uploads.max_retries must not exceed 10")
	}
	if c.Uploads.MaxBatchFiles > 1000 {
		return errors.New("uploads.max_batch_files must not exceed 1000")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "text", "json", "console":
	default:
		return fmt.Errorf("logging.format %q is not supported (use text or json)", c.Logging.Format)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q is not supported", c.Logging.Level)
	}
}
