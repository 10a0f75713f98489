package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"legalscan/internal/config"
	"legalscan/internal/services"
)

func TestLoadDefaultConfigWithoutFile(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	want := filepath.Join(tempHome, ".config", "legalscan", "config.toml")
	if resolved != want {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, want)
	}
	if cfg.HTTP.Retries != 5 {
		t.Fatalf("expected 5 retries by default, got %d", cfg.HTTP.Retries)
	}
	if cfg.HTTP.RetryDelay().Milliseconds() != 250 {
		t.Fatalf("expected 250ms retry delay, got %s", cfg.HTTP.RetryDelay())
	}
	if cfg.Staging.Filter != "" {
		t.Fatalf("filter should be filled in by Resolve, got %q", cfg.Staging.Filter)
	}
	if !cfg.Catalog.Enabled {
		t.Fatal("expected catalog enabled by default")
	}
}

func TestResolveDerivesOutputRootFromStaging(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg := config.Default()
	cfg.Staging.URL = "https://repository.example.org/content/repositories/orgapache-094/"
	if err := cfg.Resolve(); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := filepath.Join(dir, "orgapache-094")
	if cfg.Paths.OutputRoot != want {
		t.Fatalf("output root = %q, want %q", cfg.Paths.OutputRoot, want)
	}
	if !cfg.IsRemote() {
		t.Fatal("expected https staging to be remote")
	}
	if cfg.CatalogPath() != filepath.Join(want, "legal.db") {
		t.Fatalf("unexpected catalog path %q", cfg.CatalogPath())
	}
}

func TestResolveFileStagingIsAbsolute(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.MkdirAll(filepath.Join(dir, "staging"), 0o755); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Staging.URL = "file://" + filepath.Join(dir, "staging")
	if err := cfg.Resolve(); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.IsRemote() {
		t.Fatal("expected file staging to be local")
	}
	stagingDir, err := cfg.StagingDir()
	if err != nil {
		t.Fatalf("StagingDir: %v", err)
	}
	if stagingDir != filepath.Join(dir, "staging") {
		t.Fatalf("unexpected staging dir %q", stagingDir)
	}
	if filepath.Base(cfg.Paths.OutputRoot) != "staging" {
		t.Fatalf("unexpected output root %q", cfg.Paths.OutputRoot)
	}
}

func TestResolveUsesEnvFallbacks(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("LEGALSCAN_STAGING", "http://nexus.example.org/staging/")
	t.Setenv("LEGALSCAN_OUTPUT_ROOT", filepath.Join(dir, "out"))

	cfg := config.Default()
	cfg.Staging.Filter = ""
	t.Setenv("LEGALSCAN_FILTER", "org/example")
	if err := cfg.Resolve(); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.Staging.URL != "http://nexus.example.org/staging/" {
		t.Fatalf("unexpected staging %q", cfg.Staging.URL)
	}
	if cfg.Paths.OutputRoot != filepath.Join(dir, "out") {
		t.Fatalf("unexpected output root %q", cfg.Paths.OutputRoot)
	}
	if cfg.Staging.Filter != "org/example" {
		t.Fatalf("unexpected filter %q", cfg.Staging.Filter)
	}
}

func TestResolveTreatsBarePathAsLocalStaging(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	staging := filepath.Join(dir, "staging")
	if err := os.MkdirAll(staging, 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LEGALSCAN_STAGING", staging)
	t.Setenv("LEGALSCAN_OUTPUT_ROOT", "")

	cfg := config.Default()
	if err := cfg.Resolve(); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.IsRemote() {
		t.Fatal("expected bare path staging to be local")
	}
	got, err := cfg.StagingDir()
	if err != nil {
		t.Fatalf("StagingDir: %v", err)
	}
	if got != staging {
		t.Fatalf("staging dir = %q, want %q", got, staging)
	}

	rel := config.Default()
	rel.Staging.URL = "staging"
	if err := rel.Resolve(); err != nil {
		t.Fatalf("Resolve relative: %v", err)
	}
	if got, _ := rel.StagingDir(); got != staging {
		t.Fatalf("relative staging dir = %q, want %q", got, staging)
	}
}

func TestValidateRejectsBadStaging(t *testing.T) {
	tests := []struct {
		name    string
		staging string
		filter  string
		want    string
	}{
		{name: "missing", staging: "", want: "staging.url"},
		{name: "scheme", staging: "ftp://example.org/repo", want: "unsupported scheme"},
		{name: "host", staging: "http:///repo", want: "missing host"},
		{name: "filter", staging: "file:///tmp/repo", filter: "([", want: "staging.filter"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("LEGALSCAN_STAGING", "")
			t.Chdir(t.TempDir())
			cfg := config.Default()
			cfg.Staging.URL = tc.staging
			cfg.Paths.OutputRoot = "out"
			if tc.filter != "" {
				cfg.Staging.Filter = tc.filter
			}
			err := cfg.Resolve()
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, services.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %q", tc.want, err.Error())
			}
		})
	}
}

func TestLoadParsesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfgVal := config.Default()
	cfgVal.Staging.URL = "http://nexus.example.org/staging/"
	cfgVal.HTTP.Retries = 2
	cfgVal.Mirror.FailFast = true
	cfgVal.Logging.Format = "json"
	data, err := toml.Marshal(cfgVal)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected file at %q to be used, got %q (exists=%v)", path, resolved, exists)
	}
	if cfg.HTTP.Retries != 2 || !cfg.Mirror.FailFast || cfg.Logging.Format != "json" {
		t.Fatalf("unexpected parsed config: %+v", cfg)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[http\nretries = "), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := config.Load(path); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.HTTP.Retries != 5 {
		t.Fatalf("unexpected sample retries %d", cfg.HTTP.Retries)
	}
}
