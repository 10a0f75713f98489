package unpack

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"legalscan/internal/logging"
	"legalscan/internal/services"
	"legalscan/internal/testsupport"
)

func exists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Stat(path)
	return err == nil
}

func TestUnpackDescendsIntoNestedJars(t *testing.T) {
	dir := t.TempDir()
	inner := testsupport.ZipBytes(t, testsupport.Entry("META-INF/LICENSE", "inner license"))
	deepest := testsupport.ZipBytes(t, testsupport.Entry("NOTICE", "deep"))
	middle := testsupport.ZipBytes(t, testsupport.ZipEntry{Name: "lib/deep.jar", Data: deepest})
	war := testsupport.ZipBytes(t, testsupport.Entry("WEB-INF/LICENSE", "war license"))

	archive := filepath.Join(dir, "outer.jar")
	testsupport.WriteJar(t, archive,
		testsupport.Entry("META-INF/", ""),
		testsupport.Entry("META-INF/LICENSE", "outer license"),
		testsupport.ZipEntry{Name: "inner.jar", Data: inner},
		testsupport.ZipEntry{Name: "lib/middle.jar", Data: middle},
		testsupport.ZipEntry{Name: "app.war", Data: war},
	)

	root := filepath.Join(dir, "content", "outer.jar.contents")
	stats, err := New(logging.NewNop()).Unpack(context.Background(), archive, root)
	if err != nil {
		t.Fatalf("Unpack returned error: %v", err)
	}

	for _, rel := range []string{
		"META-INF/LICENSE",
		"inner.jar",
		"inner.jar.contents/META-INF/LICENSE",
		"lib/middle.jar.contents/lib/deep.jar.contents/NOTICE",
		"app.war",
	} {
		if !exists(t, filepath.Join(root, filepath.FromSlash(rel))) {
			t.Fatalf("expected %s to be extracted", rel)
		}
	}
	if exists(t, filepath.Join(root, "app.war.contents")) {
		t.Fatal("war entries must not be descended into")
	}
	if stats.Nested != 3 {
		t.Fatalf("expected 3 nested jars, got %+v", stats)
	}
}

func TestUnpackCorruptArchive(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "broken.jar")
	testsupport.WriteFile(t, archive, "this is not a zip")
	root := filepath.Join(dir, "broken.jar.contents")

	_, err := New(nil).Unpack(context.Background(), archive, root)
	if !errors.Is(err, services.ErrUnpack) {
		t.Fatalf("expected ErrUnpack, got %v", err)
	}
	if services.IsFatal(err) {
		t.Fatal("unpack failures must not be fatal")
	}
	if info, statErr := os.Stat(root); statErr != nil || !info.IsDir() {
		t.Fatalf("content root should exist even for corrupt archives: %v", statErr)
	}
}

func TestUnpackCorruptNestedJarContinues(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "outer.jar")
	testsupport.WriteJar(t, archive,
		testsupport.Entry("broken.jar", "garbage"),
		testsupport.Entry("LICENSE", "outer"),
	)
	root := filepath.Join(dir, "outer.jar.contents")
	if _, err := New(nil).Unpack(context.Background(), archive, root); err != nil {
		t.Fatalf("Unpack returned error: %v", err)
	}
	if !exists(t, filepath.Join(root, "LICENSE")) {
		t.Fatal("outer extraction should continue after a broken nested jar")
	}
	if !exists(t, filepath.Join(root, "broken.jar.contents")) {
		t.Fatal("nested content root should exist")
	}
}

func TestUnpackEmptyArchiveCreatesRoot(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "a.jar")
	testsupport.WriteJar(t, archive)
	root := filepath.Join(dir, "a.jar.contents")
	if _, err := New(nil).Unpack(context.Background(), archive, root); err != nil {
		t.Fatalf("Unpack returned error: %v", err)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("read content root: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty content root, got %v", entries)
	}
}

func TestUnpackSkipsEntriesOutsideRoot(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "evil.jar")
	testsupport.WriteJar(t, archive,
		testsupport.Entry("../escape.txt", "x"),
		testsupport.Entry("ok.txt", "fine"),
	)
	root := filepath.Join(dir, "sub", "evil.jar.contents")
	// Readers that reject insecure names outright fail the whole archive;
	// either way nothing may land outside the root.
	_, _ = New(nil).Unpack(context.Background(), archive, root)
	if exists(t, filepath.Join(dir, "sub", "escape.txt")) || exists(t, filepath.Join(dir, "escape.txt")) {
		t.Fatal("entry escaped the content root")
	}
}

func TestUnpackReplacesStaleContent(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "a.jar")
	root := filepath.Join(dir, "a.jar.contents")
	testsupport.WriteFile(t, filepath.Join(root, "stale.txt"), "old")
	testsupport.WriteJar(t, archive, testsupport.Entry("fresh.txt", "new"))

	if _, err := New(nil).Unpack(context.Background(), archive, root); err != nil {
		t.Fatalf("Unpack returned error: %v", err)
	}
	if exists(t, filepath.Join(root, "stale.txt")) {
		t.Fatal("stale content should be removed before extraction")
	}
	if !exists(t, filepath.Join(root, "fresh.txt")) {
		t.Fatal("expected fresh content")
	}
}
