package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeStaging(); err != nil {
		return err
	}
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeHTTP()
	if c.Classify.CacheEntries <= 0 {
		c.Classify.CacheEntries = defaultCacheEntries
	}
	if err := c.normalizeCatalog(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeStaging() error {
	c.Staging.URL = strings.TrimSpace(c.Staging.URL)
	if c.Staging.URL == "" {
		if value, ok := os.LookupEnv("LEGALSCAN_STAGING"); ok {
			c.Staging.URL = strings.TrimSpace(value)
		}
	}
	if c.Staging.Filter == "" {
		if value, ok := os.LookupEnv("LEGALSCAN_FILTER"); ok {
			c.Staging.Filter = value
		}
	}
	if c.Staging.Filter == "" {
		c.Staging.Filter = defaultFilter
	}

	// A bare directory path is a local staging location.
	if c.Staging.URL != "" && !strings.Contains(c.Staging.URL, "://") {
		dir, err := expandPath(c.Staging.URL)
		if err != nil {
			return fmt.Errorf("staging.url: %w", err)
		}
		c.Staging.URL = (&url.URL{Scheme: "file", Path: filepath.ToSlash(dir)}).String()
	}

	// file: locations become absolute file:// URLs so prefix stripping is stable.
	if stagingScheme(c.Staging.URL) == "file" {
		dir, err := c.StagingDir()
		if err != nil {
			return err
		}
		c.Staging.URL = (&url.URL{Scheme: "file", Path: dir}).String()
	}
	return nil
}

func (c *Config) normalizePaths() error {
	c.Paths.OutputRoot = strings.TrimSpace(c.Paths.OutputRoot)
	if c.Paths.OutputRoot == "" {
		if value, ok := os.LookupEnv("LEGALSCAN_OUTPUT_ROOT"); ok {
			c.Paths.OutputRoot = strings.TrimSpace(value)
		}
	}
	if c.Paths.OutputRoot == "" {
		c.Paths.OutputRoot = lastSegment(c.Staging.URL)
	}
	var err error
	if c.Paths.OutputRoot, err = expandPath(c.Paths.OutputRoot); err != nil {
		return fmt.Errorf("paths.output_root: %w", err)
	}
	return nil
}

func (c *Config) normalizeHTTP() {
	if c.HTTP.Retries < 0 {
		c.HTTP.Retries = defaultRetries
	}
	if c.HTTP.RetryDelayMS < 0 {
		c.HTTP.RetryDelayMS = defaultRetryDelayMS
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		c.HTTP.TimeoutSeconds = defaultTimeoutSeconds
	}
	c.HTTP.UserAgent = strings.TrimSpace(c.HTTP.UserAgent)
	if c.HTTP.UserAgent == "" {
		c.HTTP.UserAgent = defaultUserAgent
	}
}

func (c *Config) normalizeCatalog() error {
	c.Catalog.Path = strings.TrimSpace(c.Catalog.Path)
	if c.Catalog.Path == "" {
		return nil
	}
	var err error
	if c.Catalog.Path, err = expandPath(c.Catalog.Path); err != nil {
		return fmt.Errorf("catalog.path: %w", err)
	}
	return nil
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
