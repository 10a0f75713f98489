package workflow

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"legalscan/internal/catalog"
	"legalscan/internal/config"
	"legalscan/internal/layout"
	"legalscan/internal/legal"
	"legalscan/internal/logging"
	"legalscan/internal/mirror"
	"legalscan/internal/preflight"
	"legalscan/internal/services"
	"legalscan/internal/source"
	"legalscan/internal/stageexec"
	"legalscan/internal/unpack"
)

// Stage names used for context and logging.
const (
	StageResolve  = "resolve"
	StageMirror   = "mirror"
	StageUnpack   = "unpack"
	StageCollect  = "collect"
	StageClassify = "classify"
	StageCatalog  = "catalog"
)

// UnpackFailure records an archive whose content tree could not be built.
type UnpackFailure struct {
	RelPath string
	Err     error
}

// Result is everything a run produced.
type Result struct {
	RunID          string
	StartedAt      time.Time
	FinishedAt     time.Time
	Resources      []source.Resource
	Mirror         mirror.Result
	UnpackFailures []UnpackFailure
	Archives       []*legal.Archive
	Store          *legal.Store
	// CatalogPath is empty when the catalog export is disabled.
	CatalogPath string
}

// Option customizes a Runner.
type Option func(*Runner)

// WithSource replaces the source derived from the staging configuration.
func WithSource(src source.Source) Option {
	return func(r *Runner) {
		r.src = src
	}
}

// WithReferences overrides how the reference license texts are loaded.
func WithReferences(load func() (legal.References, error)) Option {
	return func(r *Runner) {
		if load != nil {
			r.loadRefs = load
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// Runner executes pipeline runs for one configuration.
type Runner struct {
	cfg    *config.Config
	layout layout.Layout
	logger *slog.Logger
	src    source.Source
	now    func() time.Time

	loadRefs func() (legal.References, error)
}

// New builds a runner. cfg must already be resolved.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		cfg:    cfg,
		layout: layout.New(cfg.Paths.OutputRoot),
		logger: logging.NewComponentLogger(logger, "workflow"),
		now:    time.Now,

		loadRefs: legal.LoadReferences,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Layout returns the output root layout the runner writes to.
func (r *Runner) Layout() layout.Layout {
	return r.layout
}

func (r *Runner) source() (source.Source, error) {
	if r.src != nil {
		return r.src, nil
	}
	src, err := source.New(r.cfg, r.logger)
	if err != nil {
		return nil, err
	}
	r.src = src
	return src, nil
}

// Resolve lists the staging resources without mirroring them.
func (r *Runner) Resolve(ctx context.Context) ([]source.Resource, error) {
	src, err := r.source()
	if err != nil {
		return nil, err
	}
	return src.Resolve(ctx)
}

// Run executes the full pipeline.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	return r.execute(ctx, true)
}

// Scan unpacks and classifies every archive already mirrored under repo/.
func (r *Runner) Scan(ctx context.Context) (*Result, error) {
	return r.execute(ctx, false)
}

func (r *Runner) execute(ctx context.Context, fetch bool) (*Result, error) {
	if err := r.cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "output root", "", err)
	}
	checks := preflight.RunAll(ctx, r.cfg)
	if !fetch {
		checks = dropStagingCheck(checks)
	}
	if err := preflight.Err(checks); err != nil {
		return nil, err
	}
	// Reference texts are bundled; a missing one fails before anything is fetched.
	refs, err := r.loadRefs()
	if err != nil {
		return nil, err
	}
	if err := r.layout.Ensure(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "layout", "", err)
	}
	lock, err := acquireLock(r.layout)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = lock.Unlock()
	}()

	result := &Result{StartedAt: r.now()}
	if id, ok := services.RunIDFromContext(ctx); ok {
		result.RunID = id
	} else {
		result.RunID = uuid.NewString()
		ctx = services.WithRunID(ctx, result.RunID)
	}
	logger := logging.WithContext(ctx, r.logger)
	logger.Info("run started",
		logging.String("staging", r.cfg.Staging.URL),
		logging.String("output_root", r.layout.Root),
		logging.Bool("fetch", fetch),
	)

	if fetch {
		if err := r.resolveStage(ctx, result); err != nil {
			return result, err
		}
		if err := r.mirrorStage(ctx, result); err != nil {
			return result, err
		}
	}
	files, err := r.discover(ctx, result, fetch)
	if err != nil {
		return result, err
	}
	if err := r.unpackStage(ctx, result, files); err != nil {
		return result, err
	}
	if err := r.classifyStages(ctx, result, refs); err != nil {
		return result, err
	}
	result.FinishedAt = r.now()
	if err := r.catalogStage(ctx, result); err != nil {
		return result, err
	}

	logger.Info("run completed",
		logging.Int("archives", len(result.Archives)),
		logging.Int("mirror_failures", len(result.Mirror.Failures)),
		logging.Int("unpack_failures", len(result.UnpackFailures)),
		logging.Duration("duration", result.FinishedAt.Sub(result.StartedAt)),
	)
	return result, nil
}

func (r *Runner) stage(ctx context.Context, name string, fn stageexec.Func, fields ...logging.Attr) error {
	return stageexec.Run(ctx, stageexec.Options{
		Logger: r.logger,
		Name:   name,
		Func:   fn,
		Fields: fields,
		Now:    r.now,
	})
}

func (r *Runner) resolveStage(ctx context.Context, result *Result) error {
	return r.stage(ctx, StageResolve, func(ctx context.Context, logger *slog.Logger) error {
		resources, err := r.Resolve(ctx)
		if err != nil {
			return err
		}
		result.Resources = resources
		logger.Info("resources resolved", logging.Int("resources", len(resources)))
		return nil
	})
}

func (r *Runner) mirrorStage(ctx context.Context, result *Result) error {
	return r.stage(ctx, StageMirror, func(ctx context.Context, logger *slog.Logger) error {
		src, err := r.source()
		if err != nil {
			return err
		}
		m := mirror.New(src, r.layout, r.cfg.Mirror.FailFast, r.logger)
		res, err := m.Run(ctx, result.Resources)
		result.Mirror = res
		for _, f := range res.Failures {
			logger.Warn("resource not mirrored",
				logging.String(logging.FieldArchive, f.Resource.RelPath),
				logging.Alert("mirror_failure"),
				logging.Error(f.Err),
			)
		}
		if err != nil {
			return err
		}
		logger.Info("mirror summary",
			logging.Int(string(mirror.OutcomeDownloaded), res.Count(mirror.OutcomeDownloaded)),
			logging.Int(string(mirror.OutcomeExists), res.Count(mirror.OutcomeExists)),
			logging.Int(string(mirror.OutcomeReplaced), res.Count(mirror.OutcomeReplaced)),
			logging.Int("failed", len(res.Failures)),
		)
		return nil
	}, logging.Int("resources", len(result.Resources)))
}

// discover returns the repository-relative paths of the archives to unpack.
// A fetch run uses the files it just mirrored; a scan walks repo/.
func (r *Runner) discover(ctx context.Context, result *Result, fetch bool) ([]string, error) {
	if fetch {
		files := make([]string, 0, len(result.Mirror.Files))
		for _, f := range result.Mirror.Files {
			files = append(files, f.RelPath)
		}
		return files, nil
	}
	var files []string
	err := filepath.WalkDir(r.layout.Repo, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !d.Type().IsRegular() || !source.IsArchive(d.Name()) {
			return nil
		}
		rel, err := r.layout.RepoRel(p)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "scan", "walk repo", r.layout.Repo, err)
	}
	return files, nil
}

func (r *Runner) unpackStage(ctx context.Context, result *Result, files []string) error {
	return r.stage(ctx, StageUnpack, func(ctx context.Context, logger *slog.Logger) error {
		u := unpack.New(r.logger)
		archives := make([]*legal.Archive, 0, len(files))
		for _, rel := range files {
			if err := ctx.Err(); err != nil {
				return err
			}
			archive := legal.NewArchive(r.layout, rel)
			archiveCtx := services.WithArchive(ctx, archive.RelPath)
			if _, err := u.Unpack(archiveCtx, archive.File, archive.ContentRoot); err != nil {
				if services.IsFatal(err) {
					return err
				}
				logging.WithContext(archiveCtx, r.logger).Warn("archive not unpacked",
					logging.Alert("unpack_failure"),
					logging.Error(err),
				)
				result.UnpackFailures = append(result.UnpackFailures, UnpackFailure{RelPath: archive.RelPath, Err: err})
			}
			archives = append(archives, archive)
		}
		result.Archives = archives
		return nil
	}, logging.Int("archives", len(files)))
}

func (r *Runner) classifyStages(ctx context.Context, result *Result, refs legal.References) error {
	store := legal.NewStore(refs, r.cfg.Classify.CacheEntries)
	result.Store = store
	index := legal.NewIndex(store, r.layout, r.logger)

	if err := r.stage(ctx, StageCollect, func(ctx context.Context, logger *slog.Logger) error {
		if err := index.Collect(ctx, result.Archives); err != nil {
			return err
		}
		hits, misses := store.CacheStats()
		logger.Info("documents collected",
			logging.Int("licenses", len(store.Entities(legal.KindLicense))),
			logging.Int("notices", len(store.Entities(legal.KindNotice))),
			logging.Int("cache_hits", hits),
			logging.Int("cache_misses", misses),
		)
		return nil
	}); err != nil {
		return err
	}

	return r.stage(ctx, StageClassify, func(ctx context.Context, logger *slog.Logger) error {
		if err := index.ClassifyAll(ctx, result.Archives); err != nil {
			return err
		}
		undeclared := 0
		for _, a := range result.Archives {
			if a.OtherLicenses.Len() > 0 || a.OtherNotices.Len() > 0 {
				undeclared++
			}
		}
		logger.Info("archives classified",
			logging.Int("archives", len(result.Archives)),
			logging.Int("with_undeclared", undeclared),
		)
		return nil
	})
}

func (r *Runner) catalogStage(ctx context.Context, result *Result) error {
	if !r.cfg.Catalog.Enabled {
		return nil
	}
	path := r.cfg.CatalogPath()
	return r.stage(ctx, StageCatalog, func(ctx context.Context, logger *slog.Logger) error {
		store, err := catalog.Open(path)
		if err != nil {
			return fmt.Errorf("open catalog: %w", err)
		}
		defer store.Close()

		run := catalog.Run{
			ID:             result.RunID,
			Staging:        r.cfg.Staging.URL,
			OutputRoot:     r.layout.Root,
			StartedAt:      result.StartedAt,
			FinishedAt:     result.FinishedAt,
			MirrorFailures: len(result.Mirror.Failures),
			UnpackFailures: len(result.UnpackFailures),
		}
		if err := store.Record(ctx, run, result.Archives, result.Store.References()); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
		result.CatalogPath = path
		logger.Info("catalog written", logging.String("path", path))
		return nil
	})
}

func dropStagingCheck(results []preflight.Result) []preflight.Result {
	out := results[:0]
	for _, res := range results {
		if res.Name == preflight.StagingCheckName {
			continue
		}
		out = append(out, res)
	}
	return out
}
