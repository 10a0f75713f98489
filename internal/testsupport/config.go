package testsupport

import (
	"path/filepath"
	"testing"

	"legalscan/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a resolved config whose staging and output directories are
// unique temp directories per test. The staging directory is not created.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Staging.URL = "file://" + filepath.ToSlash(filepath.Join(base, "staging"))
	cfgVal.Staging.Filter = ".*"
	cfgVal.Paths.OutputRoot = filepath.Join(base, "out")
	cfgVal.HTTP.Retries = 1
	cfgVal.HTTP.RetryDelayMS = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.Resolve(); err != nil {
		t.Fatalf("resolve test config: %v", err)
	}
	return builder.cfg
}

// StagingDir returns the local staging directory used by NewConfig.
func StagingDir(cfg *config.Config) string {
	dir, err := cfg.StagingDir()
	if err != nil {
		return ""
	}
	return dir
}

// WithStagingURL overrides the staging location.
func WithStagingURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Staging.URL = url
	}
}

// WithFilter overrides the local path filter.
func WithFilter(filter string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Staging.Filter = filter
	}
}

// WithOutputRoot overrides the output root.
func WithOutputRoot(dir string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.OutputRoot = dir
	}
}

// WithCatalog toggles the SQLite export.
func WithCatalog(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Catalog.Enabled = enabled
	}
}

// WithFailFast toggles aborting the mirror stage on the first failure.
func WithFailFast(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Mirror.FailFast = enabled
	}
}

// WithCatalogPath enables the SQLite export at path.
func WithCatalogPath(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Catalog.Enabled = true
		b.cfg.Catalog.Path = path
	}
}
