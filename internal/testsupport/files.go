package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
)

// ZipEntry is one file written into a fixture archive. A trailing slash in
// Name produces a directory entry.
type ZipEntry struct {
	Name string
	Data []byte
}

// Entry is shorthand for a text entry.
func Entry(name, content string) ZipEntry {
	return ZipEntry{Name: name, Data: []byte(content)}
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// ZipBytes builds an in-memory zip archive, used to nest jars inside jars.
func ZipBytes(t testing.TB, entries ...ZipEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, entry := range entries {
		w, err := zw.Create(entry.Name)
		if err != nil {
			t.Fatalf("zip create %s: %v", entry.Name, err)
		}
		if len(entry.Data) == 0 {
			continue
		}
		if _, err := w.Write(entry.Data); err != nil {
			t.Fatalf("zip write %s: %v", entry.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

// WriteZip writes a zip archive with the given entries to path.
func WriteZip(t testing.TB, path string, entries ...ZipEntry) {
	t.Helper()
	data := ZipBytes(t, entries...)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteJar is WriteZip for callers that want to be explicit about jar fixtures.
func WriteJar(t testing.TB, path string, entries ...ZipEntry) {
	t.Helper()
	WriteZip(t, path, entries...)
}
