package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"legalscan/internal/fileutil"
	"legalscan/internal/legal"
)

// Run describes one pipeline execution.
type Run struct {
	ID             string
	Staging        string
	OutputRoot     string
	StartedAt      time.Time
	FinishedAt     time.Time
	MirrorFailures int
	UnpackFailures int
}

// Store writes runs to a SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or connects to the catalog database and applies migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure catalog directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the connection for read-side tooling and tests.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Record writes the run, its archives, their entities and classification in
// one transaction.
func (s *Store) Record(ctx context.Context, run Run, archives []*legal.Archive, refs legal.References) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, staging, output_root, started_at, finished_at, archives, mirror_failures, unpack_failures)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Staging,
		run.OutputRoot,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		len(archives),
		run.MirrorFailures,
		run.UnpackFailures,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	written := map[string]struct{}{}
	for _, archive := range archives {
		if err := insertArchive(ctx, tx, run.ID, archive); err != nil {
			return err
		}
		for _, kind := range []legal.Kind{legal.KindLicense, legal.KindNotice} {
			for _, entity := range archive.All(kind).Items() {
				key := string(kind) + "/" + entity.ID
				if _, ok := written[key]; !ok {
					if err := insertEntity(ctx, tx, run.ID, entity, refs); err != nil {
						return err
					}
					written[key] = struct{}{}
				}
				if err := insertLocations(ctx, tx, run.ID, archive, entity); err != nil {
					return err
				}
			}
			classes := []struct {
				name string
				set  *legal.EntitySet
			}{
				{"declared", archive.Declared(kind)},
				{"other", archive.Other(kind)},
				{"implied", archive.Implied(kind)},
			}
			for _, class := range classes {
				for _, entity := range class.set.Items() {
					if _, err := tx.ExecContext(ctx,
						`INSERT INTO archive_entities (run_id, archive_path, kind, entity_id, class) VALUES (?, ?, ?, ?, ?)`,
						run.ID, archive.RelPath, string(kind), entity.ID, class.name,
					); err != nil {
						return fmt.Errorf("insert %s classification for %s: %w", class.name, archive.RelPath, err)
					}
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record: %w", err)
	}
	return nil
}

func insertArchive(ctx context.Context, tx *sql.Tx, runID string, archive *legal.Archive) error {
	summary := archive.Summary()
	digest, err := fileutil.HashFile(archive.File)
	if err != nil {
		digest = ""
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO archives (run_id, path, name, type, jars, digest, content_root, license_id, notice_id)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		archive.RelPath,
		summary.Name,
		summary.Type,
		summary.Jars,
		nullableString(digest),
		archive.ContentRoot,
		nullableString(summary.License),
		nullableString(summary.Notice),
	); err != nil {
		return fmt.Errorf("insert archive %s: %w", archive.RelPath, err)
	}
	return nil
}

func insertEntity(ctx context.Context, tx *sql.Tx, runID string, entity *legal.Entity, refs legal.References) error {
	reference, _ := refs.Match(entity.Text)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO entities (run_id, kind, id, text, reference) VALUES (?, ?, ?, ?, ?)`,
		runID, string(entity.Kind), entity.ID, entity.Text, nullableString(reference),
	); err != nil {
		return fmt.Errorf("insert entity %s: %w", entity.ID, err)
	}
	return nil
}

func insertLocations(ctx context.Context, tx *sql.Tx, runID string, archive *legal.Archive, entity *legal.Entity) error {
	for _, name := range entity.Locations(archive) {
		link, declared := archive.Legal[name]
		if !declared {
			link = archive.OtherLegal[name]
		}
		if link == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO locations (run_id, archive_path, kind, entity_id, name, link, declared) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, archive.RelPath, string(entity.Kind), entity.ID, name, link, boolToInt(declared),
		); err != nil {
			return fmt.Errorf("insert location %s: %w", name, err)
		}
	}
	return nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
