package source

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"legalscan/internal/logging"
	"legalscan/internal/services"
)

// Local resolves resources by walking a staging directory.
type Local struct {
	root   string
	filter *regexp.Regexp
	logger *slog.Logger
}

// NewLocal builds a local source. A nil filter accepts every path.
func NewLocal(root string, filter *regexp.Regexp, logger *slog.Logger) *Local {
	return &Local{
		root:   filepath.Clean(root),
		filter: filter,
		logger: logging.NewComponentLogger(logger, "source"),
	}
}

// Resolve walks the staging directory and keeps archives whose absolute path
// matches the filter.
func (s *Local) Resolve(ctx context.Context) ([]Resource, error) {
	logger := logging.WithContext(ctx, s.logger)
	info, err := os.Stat(s.root)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "source", "stat staging", s.root, err)
	}
	if !info.IsDir() {
		return nil, services.Wrap(services.ErrConfiguration, "source", "stat staging", s.root+" is not a directory", nil)
	}

	var resources []Resource
	err = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			logger.Warn("staging walk error",
				logging.String("path", path),
				logging.Error(walkErr),
				logging.String(logging.FieldEventType, "walk_error"),
			)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if !IsArchive(d.Name()) {
			return nil
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		if s.filter != nil && !s.filter.MatchString(filepath.ToSlash(abs)) {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		resources = append(resources, Resource{Location: abs, RelPath: filepath.ToSlash(rel)})
		return nil
	})
	if err != nil {
		return nil, services.Wrap(services.ErrCrawl, "source", "walk staging", s.root, err)
	}
	logger.Info("resources resolved",
		logging.String("staging", s.root),
		logging.Int("archives", len(resources)),
	)
	return resources, nil
}

// Open opens the staged file.
func (s *Local) Open(_ context.Context, r Resource) (io.ReadCloser, error) {
	f, err := os.Open(r.Location)
	if err != nil {
		return nil, services.Wrap(services.ErrMirror, "mirror", "open", describe(r), err)
	}
	return f, nil
}

// Length returns the staged file size.
func (s *Local) Length(_ context.Context, r Resource) (int64, error) {
	info, err := os.Stat(r.Location)
	if err != nil {
		return -1, services.Wrap(services.ErrMirror, "mirror", "stat", describe(r), err)
	}
	return info.Size(), nil
}
