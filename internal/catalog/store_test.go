package catalog_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"legalscan/internal/catalog"
	"legalscan/internal/layout"
	"legalscan/internal/legal"
	"legalscan/internal/logging"
	"legalscan/internal/testsupport"
)

func classified(t *testing.T, root string) ([]*legal.Archive, legal.References) {
	t.Helper()
	l := layout.New(root)
	refs, err := legal.LoadReferences()
	if err != nil {
		t.Fatalf("LoadReferences: %v", err)
	}
	index := legal.NewIndex(legal.NewStore(refs, 16), l, logging.NewNop())

	a := legal.NewArchive(l, "a.jar")
	b := legal.NewArchive(l, "lib/b.war")
	testsupport.WriteZip(t, a.File, testsupport.Entry("LICENSE", "shared license"))
	testsupport.WriteZip(t, b.File, testsupport.Entry("LICENSE", "shared license"))
	testsupport.WriteFile(t, filepath.Join(a.ContentRoot, "LICENSE"), "shared license")
	testsupport.WriteFile(t, filepath.Join(b.ContentRoot, "LICENSE"), "shared license")
	testsupport.WriteFile(t, filepath.Join(b.ContentRoot, "WEB-INF", "lib", "x.jar.contents", "NOTICE"), "vendored notice")

	archives := []*legal.Archive{a, b}
	ctx := context.Background()
	if err := index.Collect(ctx, archives); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if err := index.ClassifyAll(ctx, archives); err != nil {
		t.Fatalf("ClassifyAll: %v", err)
	}
	return archives, refs
}

func count(t *testing.T, store *catalog.Store, query string, args ...any) int {
	t.Helper()
	var n int
	if err := store.DB().QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("query %q: %v", query, err)
	}
	return n
}

func TestRecordWritesRun(t *testing.T) {
	root := t.TempDir()
	archives, refs := classified(t, root)

	store, err := catalog.Open(filepath.Join(root, "legal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	run := catalog.Run{
		ID:             "run-1",
		Staging:        "file:///staging",
		OutputRoot:     root,
		StartedAt:      started,
		FinishedAt:     started.Add(time.Minute),
		MirrorFailures: 2,
	}
	if err := store.Record(context.Background(), run, archives, refs); err != nil {
		t.Fatalf("Record: %v", err)
	}

	if got := count(t, store, "SELECT COUNT(*) FROM runs WHERE id = ? AND archives = 2 AND mirror_failures = 2", "run-1"); got != 1 {
		t.Fatalf("runs = %d, want 1", got)
	}
	if got := count(t, store, "SELECT COUNT(*) FROM archives WHERE run_id = ?", "run-1"); got != 2 {
		t.Fatalf("archives = %d, want 2", got)
	}
	if got := count(t, store, "SELECT COUNT(*) FROM entities WHERE run_id = ? AND kind = 'license'", "run-1"); got != 1 {
		t.Fatalf("license entities = %d, want 1 (deduplicated)", got)
	}
	if got := count(t, store, "SELECT COUNT(*) FROM archive_entities WHERE class = 'declared' AND kind = 'license'"); got != 2 {
		t.Fatalf("declared license rows = %d, want 2", got)
	}
	if got := count(t, store, "SELECT COUNT(*) FROM archive_entities WHERE archive_path = 'lib/b.war' AND class = 'other' AND kind = 'notice'"); got != 1 {
		t.Fatalf("other notice rows = %d, want 1", got)
	}
	if got := count(t, store, "SELECT COUNT(*) FROM locations WHERE declared = 0 AND link LIKE 'content/lib/b.war.contents/%'"); got != 1 {
		t.Fatalf("undeclared locations = %d, want 1", got)
	}

	var digest, typ string
	if err := store.DB().QueryRow("SELECT digest, type FROM archives WHERE path = 'a.jar'").Scan(&digest, &typ); err != nil {
		t.Fatalf("scan archive: %v", err)
	}
	if len(digest) != 64 || typ != "jar" {
		t.Fatalf("archive digest=%q type=%q", digest, typ)
	}
}

func TestRecordIsAtomic(t *testing.T) {
	root := t.TempDir()
	archives, refs := classified(t, root)

	store, err := catalog.Open(filepath.Join(root, "legal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	run := catalog.Run{ID: "dup", StartedAt: time.Now(), FinishedAt: time.Now()}
	if err := store.Record(context.Background(), run, archives, refs); err != nil {
		t.Fatalf("first Record: %v", err)
	}
	if err := store.Record(context.Background(), run, archives, refs); err == nil {
		t.Fatal("expected duplicate run id to fail")
	}
	if got := count(t, store, "SELECT COUNT(*) FROM archives"); got != 2 {
		t.Fatalf("archives = %d, want 2 after rolled back duplicate", got)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "legal.db")
	for i := 0; i < 2; i++ {
		store, err := catalog.Open(path)
		if err != nil {
			t.Fatalf("Open #%d: %v", i+1, err)
		}
		if got := count(t, store, "SELECT COUNT(*) FROM schema_migrations"); got != 1 {
			t.Fatalf("migrations = %d, want 1", got)
		}
		if err := store.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("database missing: %v", err)
	}
}

func TestRecordWithoutMirroredFile(t *testing.T) {
	root := t.TempDir()
	l := layout.New(root)
	a := legal.NewArchive(l, "missing.zip")

	store, err := catalog.Open(filepath.Join(root, "legal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	run := catalog.Run{ID: "r", StartedAt: time.Now(), FinishedAt: time.Now()}
	if err := store.Record(context.Background(), run, []*legal.Archive{a}, nil); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if got := count(t, store, "SELECT COUNT(*) FROM archives WHERE digest IS NULL"); got != 1 {
		t.Fatalf("archives without digest = %d, want 1", got)
	}
}
