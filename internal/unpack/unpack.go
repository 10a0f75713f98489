// Package unpack extracts mirrored archives into content trees.
//
// Every regular zip entry is written below the content root. Entries whose name
// ends in ".jar" are extracted recursively into a sibling "<entry>.contents"
// directory; no other nested archive type is descended into.
package unpack

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"

	"legalscan/internal/fileutil"
	"legalscan/internal/layout"
	"legalscan/internal/logging"
	"legalscan/internal/services"
)

const (
	nestedSuffix = ".jar"
	maxDepth     = 32
)

// Stats counts what one Unpack call wrote.
type Stats struct {
	Files   int
	Nested  int
	Skipped int
}

// Unpacker extracts zip-format archives.
type Unpacker struct {
	logger *slog.Logger
}

// New builds an unpacker.
func New(logger *slog.Logger) *Unpacker {
	return &Unpacker{logger: logging.NewComponentLogger(logger, "unpack")}
}

// Unpack replaces contentsRoot with the extracted contents of archivePath. The
// content root exists afterwards even when the archive is empty or unreadable.
// A top-level read failure returns services.ErrUnpack; failures inside nested
// jars are logged and skipped.
func (u *Unpacker) Unpack(ctx context.Context, archivePath, contentsRoot string) (Stats, error) {
	var stats Stats
	if err := os.RemoveAll(contentsRoot); err != nil {
		return stats, services.Wrap(services.ErrUnpack, "unpack", "clear content tree", contentsRoot, err)
	}
	if err := os.MkdirAll(contentsRoot, 0o755); err != nil {
		return stats, services.Wrap(services.ErrUnpack, "unpack", "create content tree", contentsRoot, err)
	}
	logger := logging.WithContext(ctx, u.logger)
	if err := u.extract(ctx, logger, archivePath, contentsRoot, 0, &stats); err != nil {
		return stats, err
	}
	logger.Debug("unpacked",
		logging.String("archive", archivePath),
		logging.Int("files", stats.Files),
		logging.Int("nested", stats.Nested),
		logging.Int("skipped", stats.Skipped),
	)
	return stats, nil
}

func (u *Unpacker) extract(ctx context.Context, logger *slog.Logger, archivePath, root string, depth int, stats *Stats) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return services.Wrap(services.ErrUnpack, "unpack", "not a zip", archivePath, err)
	}
	defer reader.Close()

	for _, entry := range reader.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.FileInfo().IsDir() || strings.HasSuffix(entry.Name, "/") {
			continue
		}
		name := filepath.FromSlash(entry.Name)
		if !filepath.IsLocal(name) {
			stats.Skipped++
			logger.Warn("skipping entry outside content root",
				logging.String("entry", entry.Name),
				logging.String(logging.FieldEventType, "unsafe_entry"),
				logging.Alert("zip_slip"),
			)
			continue
		}
		target := filepath.Join(root, name)
		if err := writeEntry(entry, target); err != nil {
			stats.Skipped++
			logger.Warn("entry extraction failed",
				logging.String("entry", entry.Name),
				logging.Error(err),
				logging.String(logging.FieldEventType, "entry_failed"),
			)
			continue
		}
		stats.Files++

		if !strings.HasSuffix(entry.Name, nestedSuffix) {
			continue
		}
		if depth+1 >= maxDepth {
			logger.Warn("nesting too deep, not descending", logging.String("entry", entry.Name), logging.Int("depth", depth+1))
			continue
		}
		nestedRoot := target + layout.ContentsSuffix
		if err := os.MkdirAll(nestedRoot, 0o755); err != nil {
			logger.Warn("create nested content tree failed", logging.String("entry", entry.Name), logging.Error(err))
			continue
		}
		stats.Nested++
		if err := u.extract(ctx, logger, target, nestedRoot, depth+1, stats); err != nil {
			if ctx.Err() != nil {
				return err
			}
			logger.Warn("not a zip",
				logging.String("entry", entry.Name),
				logging.Error(err),
				logging.String(logging.FieldEventType, "nested_unpack_failed"),
			)
		}
	}
	return nil
}

func writeEntry(entry *zip.File, target string) error {
	rc, err := entry.Open()
	if err != nil {
		return fmt.Errorf("open entry: %w", err)
	}
	defer rc.Close()
	_, err = fileutil.WriteStream(target, rc, -1)
	return err
}
