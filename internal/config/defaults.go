package config

import "time"

const (
	defaultFilter          = "org/apache/openejb"
	defaultRetries         = 5
	defaultRetryDelayMS    = 250
	defaultTimeoutSeconds  = 300
	defaultUserAgent       = "Mozilla/5.0 (X11; U; Linux x86_64; en-US; rv:1.9.2.13) Gecko/20101206 Ubuntu/10.10 (maverick) Firefox/3.6.13"
	defaultCacheEntries    = 4096
	defaultCatalogFileName = "legal.db"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		HTTP: HTTP{
			Retries:        defaultRetries,
			RetryDelayMS:   defaultRetryDelayMS,
			TimeoutSeconds: defaultTimeoutSeconds,
			UserAgent:      defaultUserAgent,
		},
		Classify: Classify{
			CacheEntries: defaultCacheEntries,
		},
		Catalog: Catalog{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

// RetryDelay returns the fixed pause between HTTP attempts.
func (h HTTP) RetryDelay() time.Duration {
	return time.Duration(h.RetryDelayMS) * time.Millisecond
}

// Timeout returns the per-request HTTP timeout.
func (h HTTP) Timeout() time.Duration {
	return time.Duration(h.TimeoutSeconds) * time.Second
}
