// Package mirror copies staging resources into the output root's repo/ tree.
//
// A resource whose mirror copy already has the advertised size is skipped, so a
// rerun against an unchanged staging repository only issues HEAD requests.
// Failures are isolated per resource unless fail-fast is requested.
package mirror

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"legalscan/internal/fileutil"
	"legalscan/internal/layout"
	"legalscan/internal/logging"
	"legalscan/internal/services"
	"legalscan/internal/source"
)

// Outcome describes what happened to a mirrored resource.
type Outcome string

const (
	OutcomeDownloaded Outcome = "downloaded"
	OutcomeExists     Outcome = "exists"
	OutcomeReplaced   Outcome = "replaced"
)

// File is a resource present in the local mirror after the stage.
type File struct {
	RelPath string
	Path    string
	Size    int64
	Outcome Outcome
}

// Failure records a resource the stage could not mirror.
type Failure struct {
	Resource source.Resource
	Err      error
}

// Result summarizes one mirror pass.
type Result struct {
	Files    []File
	Failures []Failure
}

// Count returns how many files ended with the given outcome.
func (r Result) Count(outcome Outcome) int {
	n := 0
	for _, f := range r.Files {
		if f.Outcome == outcome {
			n++
		}
	}
	return n
}

// Mirror copies resources from a source into a layout.
type Mirror struct {
	src      source.Source
	layout   layout.Layout
	failFast bool
	logger   *slog.Logger
}

// New builds a mirror stage.
func New(src source.Source, l layout.Layout, failFast bool, logger *slog.Logger) *Mirror {
	return &Mirror{
		src:      src,
		layout:   l,
		failFast: failFast,
		logger:   logging.NewComponentLogger(logger, "mirror"),
	}
}

// Run mirrors each resource in order. The returned error is non-nil only for
// cancellation or, with fail-fast, the first resource failure.
func (m *Mirror) Run(ctx context.Context, resources []source.Resource) (Result, error) {
	var result Result
	for _, r := range resources {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		file, err := m.mirrorOne(services.WithArchive(ctx, r.RelPath), r)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return result, err
			}
			result.Failures = append(result.Failures, Failure{Resource: r, Err: err})
			if m.failFast {
				return result, err
			}
			continue
		}
		result.Files = append(result.Files, file)
	}
	return result, nil
}

func (m *Mirror) mirrorOne(ctx context.Context, r source.Resource) (File, error) {
	logger := logging.WithContext(ctx, m.logger)
	dst := m.layout.MirrorPath(r.RelPath)
	file := File{RelPath: layout.CleanRel(r.RelPath), Path: dst}

	length, err := m.src.Length(ctx, r)
	if err != nil {
		logger.Warn("mirror failed",
			logging.String("resource", r.Location),
			logging.Error(err),
			logging.String(logging.FieldEventType, "mirror_failed"),
			logging.Alert("resource_unavailable"),
		)
		return file, ensureMirrorErr(err, r)
	}

	file.Outcome = OutcomeDownloaded
	if info, statErr := os.Stat(dst); statErr == nil && info.Mode().IsRegular() {
		if length >= 0 && info.Size() == length {
			logger.Info("exists", logging.Int64("size", length))
			file.Size = length
			file.Outcome = OutcomeExists
			return file, nil
		}
		logger.Info("incomplete",
			logging.Int64("local_size", info.Size()),
			logging.Int64("remote_size", length),
		)
		file.Outcome = OutcomeReplaced
	}

	logger.Info("download", logging.String("resource", r.Location), logging.Int64("size", length))
	start := time.Now()
	body, err := m.src.Open(ctx, r)
	if err != nil {
		logger.Warn("mirror failed",
			logging.String("resource", r.Location),
			logging.Error(err),
			logging.String(logging.FieldEventType, "mirror_failed"),
		)
		return file, ensureMirrorErr(err, r)
	}
	defer body.Close()

	written, err := fileutil.WriteStream(dst, body, length)
	if err != nil {
		logger.Warn("mirror failed",
			logging.String("resource", r.Location),
			logging.Error(err),
			logging.String(logging.FieldEventType, "mirror_failed"),
		)
		return file, services.Wrap(services.ErrMirror, "mirror", "write", r.RelPath, err)
	}
	file.Size = written
	logger.Debug("mirrored",
		logging.Int64("bytes", written),
		logging.Duration("elapsed", time.Since(start)),
	)
	return file, nil
}

func ensureMirrorErr(err error, r source.Resource) error {
	if errors.Is(err, services.ErrMirror) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return services.Wrap(services.ErrMirror, "mirror", "resource", r.RelPath, err)
}
