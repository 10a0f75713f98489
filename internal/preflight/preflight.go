package preflight

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"legalscan/internal/config"
	"legalscan/internal/services"
)

// StagingCheckName names the local staging directory check.
const StagingCheckName = "Staging directory"

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the checks that apply to cfg.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Output root (always checked)
	results = append(results, CheckDirectoryAccess("Output root", cfg.Paths.OutputRoot))

	// Local staging directory
	if !cfg.IsRemote() {
		dir, err := cfg.StagingDir()
		if err != nil {
			results = append(results, Result{Name: StagingCheckName, Detail: err.Error()})
		} else {
			results = append(results, CheckDirectoryReadable(StagingCheckName, dir))
		}
	}

	// Catalog directory, when it lives outside the output root
	if cfg.Catalog.Enabled {
		dir := filepath.Dir(cfg.CatalogPath())
		if !within(cfg.Paths.OutputRoot, dir) {
			results = append(results, CheckDirectoryAccess("Catalog directory", dir))
		}
	}

	if err := ctx.Err(); err != nil {
		results = append(results, Result{Name: "Context", Detail: err.Error()})
	}
	return results
}

// Err folds failed results into a single configuration error, or nil when
// every check passed.
func Err(results []Result) error {
	var failed []string
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return services.Wrap(services.ErrConfiguration, "preflight", "check", strings.Join(failed, "; "), nil)
}

func within(root, dir string) bool {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return false
	}
	return filepath.IsLocal(rel) || rel == "."
}
