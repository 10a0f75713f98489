// Package source resolves the archives a staging repository offers, either by
// crawling an HTTP directory listing or by walking a local directory.
package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"

	"legalscan/internal/config"
	"legalscan/internal/services"
	"legalscan/internal/services/httpindex"
)

// archivePattern selects the file types worth mirroring.
var archivePattern = regexp.MustCompile(`\.(jar|zip|war|ear|rar|tar\.gz)$`)

// IsArchive reports whether name carries one of the mirrored archive extensions.
func IsArchive(name string) bool {
	return archivePattern.MatchString(name)
}

// Resource is one archive offered by the staging repository.
type Resource struct {
	// Location is an absolute URL for HTTP sources or an absolute path for
	// local sources.
	Location string
	// RelPath is the slash-separated path below the staging root.
	RelPath string
	Remote  bool
}

// Source lists and reads staging resources.
type Source interface {
	Resolve(ctx context.Context) ([]Resource, error)
	Open(ctx context.Context, r Resource) (io.ReadCloser, error)
	Length(ctx context.Context, r Resource) (int64, error)
}

// New selects the source implementation for the configured staging URL.
func New(cfg *config.Config, logger *slog.Logger) (Source, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "source", "init", "config required", nil)
	}
	if cfg.IsRemote() {
		client := httpindex.NewClient(httpindex.Config{
			UserAgent:  cfg.HTTP.UserAgent,
			Timeout:    cfg.HTTP.Timeout(),
			Retries:    cfg.HTTP.Retries,
			RetryDelay: cfg.HTTP.RetryDelay(),
		})
		return NewHTTP(cfg.Staging.URL, client, logger), nil
	}
	dir, err := cfg.StagingDir()
	if err != nil {
		return nil, err
	}
	filter, err := regexp.Compile(cfg.Staging.Filter)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "source", "compile filter", cfg.Staging.Filter, err)
	}
	return NewLocal(dir, filter, logger), nil
}

func describe(r Resource) string {
	return fmt.Sprintf("%s (%s)", r.RelPath, r.Location)
}
