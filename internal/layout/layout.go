// Package layout names the directories a run writes under its output root.
package layout

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const (
	RepoDir        = "repo"
	ContentDir     = "content"
	ContentsSuffix = ".contents"
	lockFileName   = ".legalscan.lock"
)

// Layout resolves mirror and content paths below an output root.
type Layout struct {
	Root    string
	Repo    string
	Content string
}

// New builds the layout for an output root.
func New(root string) Layout {
	root = filepath.Clean(root)
	return Layout{
		Root:    root,
		Repo:    filepath.Join(root, RepoDir),
		Content: filepath.Join(root, ContentDir),
	}
}

// Ensure creates the repo and content directories.
func (l Layout) Ensure() error {
	for _, dir := range []string{l.Repo, l.Content} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// MirrorPath is where the resource with the given slash-separated relative
// path is mirrored.
func (l Layout) MirrorPath(rel string) string {
	return filepath.Join(l.Repo, filepath.FromSlash(CleanRel(rel)))
}

// ContentsDir is the content-tree root of the archive mirrored at rel.
func (l Layout) ContentsDir(rel string) string {
	return filepath.Join(l.Content, filepath.FromSlash(CleanRel(rel))+ContentsSuffix)
}

// LockPath is the single-run lock file.
func (l Layout) LockPath() string {
	return filepath.Join(l.Root, lockFileName)
}

// Link returns the slash-separated path of abs relative to the output root,
// suitable for links in rendered pages.
func (l Layout) Link(abs string) (string, error) {
	rel, err := filepath.Rel(l.Root, abs)
	if err != nil {
		return "", fmt.Errorf("link %s: %w", abs, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("link %s: outside output root %s", abs, l.Root)
	}
	return filepath.ToSlash(rel), nil
}

// RepoRel returns the relative path of a file under repo/, as used by MirrorPath.
func (l Layout) RepoRel(abs string) (string, error) {
	rel, err := filepath.Rel(l.Repo, abs)
	if err != nil {
		return "", fmt.Errorf("repo path %s: %w", abs, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("repo path %s: outside %s", abs, l.Repo)
	}
	return filepath.ToSlash(rel), nil
}

// CleanRel normalizes a slash-separated relative path and strips any leading
// slashes or parent references so it cannot escape its base directory.
func CleanRel(rel string) string {
	cleaned := path.Clean("/" + strings.ReplaceAll(rel, "\\", "/"))
	return strings.TrimPrefix(cleaned, "/")
}
