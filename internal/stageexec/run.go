// Package stageexec runs one pipeline stage with consistent context,
// logging, and failure reporting.
package stageexec

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"legalscan/internal/logging"
	"legalscan/internal/services"
)

// Func is the body of a stage.
type Func func(ctx context.Context, logger *slog.Logger) error

// Options controls stage execution.
type Options struct {
	Logger *slog.Logger
	Name   string
	Func   Func
	// Fields are appended to the start and completion events.
	Fields []logging.Attr
	// Now overrides the clock for duration measurement.
	Now func() time.Time
}

// Run executes a stage under a stage-annotated context and logger. It logs
// the start, completion, or failure of the stage with its duration and
// returns the stage error unchanged.
func Run(ctx context.Context, opts Options) error {
	if opts.Func == nil {
		return fmt.Errorf("stage function unavailable: %s", opts.Name)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	stageCtx := services.WithStage(ctx, opts.Name)
	stageLogger := logging.WithContext(stageCtx, logger)

	stageLogger.Info(
		"stage started",
		logging.Args(append([]logging.Attr{logging.String(logging.FieldEventType, "stage_start")}, opts.Fields...)...)...,
	)

	started := now()
	err := opts.Func(stageCtx, stageLogger)
	elapsed := now().Sub(started)

	if err != nil {
		stageLogger.Error(
			"stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.Duration("duration", elapsed),
			logging.Bool("fatal", services.IsFatal(err)),
			logging.String("error_message", strings.TrimSpace(err.Error())),
			logging.Error(err),
		)
		return err
	}

	stageLogger.Info(
		"stage completed",
		logging.Args(append([]logging.Attr{
			logging.String(logging.FieldEventType, "stage_complete"),
			logging.Duration("duration", elapsed),
		}, opts.Fields...)...)...,
	)
	return nil
}
