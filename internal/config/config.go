package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"legalscan/internal/services"
)

//go:embed sample_config.toml
var sampleConfig string

// Staging describes where archives are mirrored from.
type Staging struct {
	// URL is an http(s):// index to crawl or a file:// directory to scan.
	URL string `toml:"url"`
	// Filter is matched against absolute paths in local mode only.
	Filter string `toml:"filter"`
}

// Paths contains output locations.
type Paths struct {
	// OutputRoot holds repo/, content/, the catalog, and the run lock.
	// Defaults to the last path segment of the staging URL.
	OutputRoot string `toml:"output_root"`
}

// HTTP contains transport settings for crawling and downloading.
type HTTP struct {
	Retries        int    `toml:"retries"`
	RetryDelayMS   int    `toml:"retry_delay_ms"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	UserAgent      string `toml:"user_agent"`
}

// Mirror contains mirror stage behaviour.
type Mirror struct {
	FailFast bool `toml:"fail_fast"`
}

// Classify contains legal document classification settings.
type Classify struct {
	CacheEntries int `toml:"cache_entries"`
}

// Catalog contains settings for the SQLite export consumed by report renderers.
type Catalog struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"` // Default: <output_root>/legal.db
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for legalscan.
//
// Configuration sections by subsystem:
//   - Staging: source location and local path filter
//   - Paths: output root for the mirror and content trees
//   - HTTP: retry policy, timeout, and User-Agent for crawling
//   - Mirror: failure policy
//   - Classify: canonicalization cache size
//   - Catalog: SQLite export of the classified model
//   - Logging: log format and level
type Config struct {
	Staging  Staging  `toml:"staging"`
	Paths    Paths    `toml:"paths"`
	HTTP     HTTP     `toml:"http"`
	Mirror   Mirror   `toml:"mirror"`
	Classify Classify `toml:"classify"`
	Catalog  Catalog  `toml:"catalog"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/legalscan/config.toml")
}

// Load locates and parses a configuration file. Validation is deferred to
// Resolve because the staging location usually arrives on the command line.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, services.Wrap(services.ErrConfiguration, "config", "parse", resolvedPath, err)
		}
	}

	return &cfg, resolvedPath, exists, nil
}

// Resolve normalizes the configuration and validates it for a pipeline run.
func (c *Config) Resolve() error {
	if err := c.normalize(); err != nil {
		return err
	}
	return c.Validate()
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("legalscan.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// IsRemote reports whether the staging location is crawled over HTTP.
func (c *Config) IsRemote() bool {
	scheme := stagingScheme(c.Staging.URL)
	return scheme == "http" || scheme == "https"
}

// StagingDir returns the filesystem directory for a file:// staging URL.
func (c *Config) StagingDir() (string, error) {
	parsed, err := url.Parse(c.Staging.URL)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "config", "staging", c.Staging.URL, err)
	}
	if parsed.Scheme != "file" {
		return "", services.Wrap(services.ErrConfiguration, "config", "staging", "not a file:// location", nil)
	}
	dir := parsed.Path
	if dir == "" {
		dir = parsed.Opaque
	}
	return expandPath(dir)
}

// CatalogPath returns the catalog database location.
func (c *Config) CatalogPath() string {
	if strings.TrimSpace(c.Catalog.Path) != "" {
		return c.Catalog.Path
	}
	return filepath.Join(c.Paths.OutputRoot, defaultCatalogFileName)
}

// EnsureDirectories creates the output root.
func (c *Config) EnsureDirectories() error {
	if strings.TrimSpace(c.Paths.OutputRoot) == "" {
		return nil
	}
	if err := os.MkdirAll(c.Paths.OutputRoot, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.OutputRoot, err)
	}
	return nil
}

func stagingScheme(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Scheme)
}

// lastSegment returns the final non-empty path element of the staging URL.
func lastSegment(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	p := parsed.Path
	if p == "" {
		p = parsed.Opaque
	}
	base := path.Base(strings.TrimRight(p, "/"))
	if base == "." || base == "/" {
		return ""
	}
	return base
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
