package legal

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"legalscan/internal/layout"
	"legalscan/internal/logging"
	"legalscan/internal/services"
)

// Index collects legal documents from archive content trees into a Store and
// classifies them per archive.
type Index struct {
	store  *Store
	layout layout.Layout
	logger *slog.Logger
}

// NewIndex builds an index over store for archives laid out by l.
func NewIndex(store *Store, l layout.Layout, logger *slog.Logger) *Index {
	return &Index{
		store:  store,
		layout: l,
		logger: logging.NewComponentLogger(logger, "classify"),
	}
}

// Store exposes the backing entity store.
func (x *Index) Store() *Store {
	return x.store
}

// Collect walks every archive's content tree, nested trees included, and
// interns each LICENSE and NOTICE file. Unreadable files are skipped.
func (x *Index) Collect(ctx context.Context, archives []*Archive) error {
	for _, archive := range archives {
		if err := ctx.Err(); err != nil {
			return err
		}
		actx := services.WithArchive(ctx, archive.RelPath)
		logger := logging.WithContext(actx, x.logger)
		docs := Walk(actx, archive.ContentRoot, IsLegal, logger)
		for _, doc := range docs {
			data, err := os.ReadFile(doc)
			if err != nil {
				logger.Debug("skipping unreadable legal document", logging.String("path", doc), logging.Error(err))
				continue
			}
			x.store.Intern(KindOf(doc), data, archive, doc)
		}
		logger.Debug("legal documents collected",
			logging.Int("documents", len(docs)),
			logging.Int("licenses", archive.Licenses.Len()),
			logging.Int("notices", archive.Notices.Len()),
		)
	}
	return nil
}

// Classify splits the archive's entities into declared, other and implied,
// and fills its link maps. It only mutates archive.
func (x *Index) Classify(archive *Archive) {
	declared := Declared(archive.ContentRoot)
	for _, kind := range []Kind{KindLicense, KindNotice} {
		all := archive.All(kind)
		undeclared := all.Clone()
		for _, entity := range all.Items() {
			for _, loc := range entity.locations {
				if loc.Archive == archive && declared(loc.Path) {
					undeclared.Remove(entity)
					break
				}
			}
		}
		declaredSet := all.Difference(undeclared)

		implied := NewEntitySet()
		for _, u := range undeclared.Items() {
			for _, d := range declaredSet.Items() {
				if u.Implies(d) {
					implied.Add(u)
					break
				}
			}
		}
		other := undeclared.Difference(implied)
		archive.setClassification(kind, all.Difference(other), other, implied)
	}
	x.link(archive, declared)
}

// ClassifyAll classifies each archive in order.
func (x *Index) ClassifyAll(ctx context.Context, archives []*Archive) error {
	for _, archive := range archives {
		if err := ctx.Err(); err != nil {
			return err
		}
		x.Classify(archive)
		logging.WithContext(services.WithArchive(ctx, archive.RelPath), x.logger).Debug("archive classified",
			logging.Int("declared_licenses", archive.DeclaredLicenses.Len()),
			logging.Int("other_licenses", archive.OtherLicenses.Len()),
			logging.Int("implied_licenses", archive.ImpliedLicenses.Len()),
			logging.Int("declared_notices", archive.DeclaredNotices.Len()),
			logging.Int("other_notices", archive.OtherNotices.Len()),
			logging.Int("implied_notices", archive.ImpliedNotices.Len()),
		)
	}
	return nil
}

func (x *Index) link(archive *Archive, declared Predicate) {
	archive.Legal = map[string]string{}
	archive.OtherLegal = map[string]string{}
	for _, kind := range []Kind{KindLicense, KindNotice} {
		for _, entity := range archive.All(kind).Items() {
			for _, loc := range entity.locations {
				if loc.Archive != archive {
					continue
				}
				name, err := filepath.Rel(archive.ContentRoot, loc.Path)
				if err != nil {
					continue
				}
				link, err := x.layout.Link(loc.Path)
				if err != nil {
					continue
				}
				if declared(loc.Path) {
					archive.Legal[filepath.ToSlash(name)] = link
				} else {
					archive.OtherLegal[filepath.ToSlash(name)] = link
				}
			}
		}
	}
}

// Walk returns the regular files below root accepted by pred, in lexical
// order. Walk errors are logged and the affected subtree skipped.
func Walk(ctx context.Context, root string, pred Predicate, logger *slog.Logger) []string {
	var out []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if logger != nil && path != root {
				logger.Debug("content walk error", logging.String("path", path), logging.Error(err))
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctx.Err() != nil {
			return fs.SkipAll
		}
		if d.Type().IsRegular() && pred(path) {
			out = append(out, path)
		}
		return nil
	})
	return out
}

func containsKey(full, fragment string) bool {
	return strings.Contains(full, fragment)
}
