package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"legalscan/internal/services"
)

// Validate ensures the configuration is usable for a pipeline run.
func (c *Config) Validate() error {
	if err := c.validateStaging(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Paths.OutputRoot) == "" {
		return configError("paths.output_root", "must be set when the staging url has no path")
	}
	if err := c.validateHTTP(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateStaging() error {
	if c.Staging.URL == "" {
		return configError("staging.url", "is required (pass it as an argument or set LEGALSCAN_STAGING)")
	}
	parsed, err := url.Parse(c.Staging.URL)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "config", "staging.url", c.Staging.URL, err)
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
		if parsed.Host == "" {
			return configError("staging.url", fmt.Sprintf("missing host in %q", c.Staging.URL))
		}
	case "file":
	default:
		return configError("staging.url", fmt.Sprintf("unsupported scheme %q (want http, https, or file)", parsed.Scheme))
	}
	if _, err := regexp.Compile(c.Staging.Filter); err != nil {
		return services.Wrap(services.ErrConfiguration, "config", "staging.filter", c.Staging.Filter, err)
	}
	return nil
}

func (c *Config) validateHTTP() error {
	if c.HTTP.Retries < 1 {
		return configError("http.retries", "must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return configError("logging.level", fmt.Sprintf("unsupported value %q", c.Logging.Level))
	}
}

func configError(field, message string) error {
	return services.Wrap(services.ErrConfiguration, "config", field, message, nil)
}
