package mirror

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"legalscan/internal/layout"
	"legalscan/internal/logging"
	"legalscan/internal/services"
	"legalscan/internal/source"
)

type fakeSource struct {
	files map[string]string
	opens map[string]int
}

func newFakeSource(files map[string]string) *fakeSource {
	return &fakeSource{files: files, opens: map[string]int{}}
}

func (f *fakeSource) Resolve(context.Context) ([]source.Resource, error) { return nil, nil }

func (f *fakeSource) Open(_ context.Context, r source.Resource) (io.ReadCloser, error) {
	f.opens[r.RelPath]++
	content, ok := f.files[r.RelPath]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

func (f *fakeSource) Length(_ context.Context, r source.Resource) (int64, error) {
	content, ok := f.files[r.RelPath]
	if !ok {
		return -1, errors.New("not found")
	}
	return int64(len(content)), nil
}

func resources(rels ...string) []source.Resource {
	out := make([]source.Resource, 0, len(rels))
	for _, rel := range rels {
		out = append(out, source.Resource{Location: "mem:" + rel, RelPath: rel})
	}
	return out
}

func TestMirrorDownloadsThenSkipsExisting(t *testing.T) {
	l := layout.New(t.TempDir())
	src := newFakeSource(map[string]string{"org/a.jar": "aaaa", "b.jar": "bb"})
	m := New(src, l, false, logging.NewNop())

	result, err := m.Run(context.Background(), resources("org/a.jar", "b.jar"))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(result.Files) != 2 || result.Count(OutcomeDownloaded) != 2 {
		t.Fatalf("unexpected first result %+v", result)
	}
	data, err := os.ReadFile(l.MirrorPath("org/a.jar"))
	if err != nil || string(data) != "aaaa" {
		t.Fatalf("mirror content = %q, %v", data, err)
	}

	result, err = m.Run(context.Background(), resources("org/a.jar", "b.jar"))
	if err != nil {
		t.Fatalf("second Run returned error: %v", err)
	}
	if result.Count(OutcomeExists) != 2 {
		t.Fatalf("expected both files to be skipped, got %+v", result.Files)
	}
	if src.opens["org/a.jar"] != 1 {
		t.Fatalf("expected a single download, got %d", src.opens["org/a.jar"])
	}
}

func TestMirrorReplacesSizeMismatch(t *testing.T) {
	l := layout.New(t.TempDir())
	if err := os.MkdirAll(l.Repo, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(l.MirrorPath("a.jar"), []byte("partial"), 0o644); err != nil {
		t.Fatal(err)
	}
	src := newFakeSource(map[string]string{"a.jar": "complete archive"})
	result, err := New(src, l, false, nil).Run(context.Background(), resources("a.jar"))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(result.Files) != 1 || result.Files[0].Outcome != OutcomeReplaced {
		t.Fatalf("expected replaced outcome, got %+v", result.Files)
	}
	data, _ := os.ReadFile(l.MirrorPath("a.jar"))
	if string(data) != "complete archive" {
		t.Fatalf("expected overwrite, got %q", data)
	}
}

func TestMirrorIsolatesFailures(t *testing.T) {
	l := layout.New(t.TempDir())
	src := newFakeSource(map[string]string{"a.jar": "a", "c.jar": "c"})
	result, err := New(src, l, false, nil).Run(context.Background(), resources("a.jar", "missing.jar", "c.jar"))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(result.Files) != 2 {
		t.Fatalf("expected remaining resources to be mirrored, got %+v", result.Files)
	}
	if len(result.Failures) != 1 || result.Failures[0].Resource.RelPath != "missing.jar" {
		t.Fatalf("unexpected failures %+v", result.Failures)
	}
	if !errors.Is(result.Failures[0].Err, services.ErrMirror) {
		t.Fatalf("expected ErrMirror, got %v", result.Failures[0].Err)
	}
	if services.IsFatal(result.Failures[0].Err) {
		t.Fatal("mirror failures must not be fatal")
	}
}

func TestMirrorFailFast(t *testing.T) {
	l := layout.New(t.TempDir())
	src := newFakeSource(map[string]string{"c.jar": "c"})
	result, err := New(src, l, true, nil).Run(context.Background(), resources("missing.jar", "c.jar"))
	if !errors.Is(err, services.ErrMirror) {
		t.Fatalf("expected ErrMirror, got %v", err)
	}
	if len(result.Files) != 0 {
		t.Fatalf("expected no further resources after failure, got %+v", result.Files)
	}
}

func TestMirrorStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := newFakeSource(map[string]string{"a.jar": "a"})
	_, err := New(src, layout.New(t.TempDir()), false, nil).Run(ctx, resources("a.jar"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}
