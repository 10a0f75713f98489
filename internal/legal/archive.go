package legal

import (
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"legalscan/internal/layout"
)

// Archive is one mirrored top-level archive and its classified documents.
// Nested archives only exist as subtrees of its content tree.
type Archive struct {
	// RelPath is the slash-separated path below repo/.
	RelPath     string
	File        string
	ContentRoot string

	Licenses         *EntitySet
	Notices          *EntitySet
	DeclaredLicenses *EntitySet
	DeclaredNotices  *EntitySet
	OtherLicenses    *EntitySet
	OtherNotices     *EntitySet
	// ImpliedLicenses and ImpliedNotices hold undeclared entities whose text
	// is contained in a declared one. They are members of the Declared sets.
	ImpliedLicenses *EntitySet
	ImpliedNotices  *EntitySet

	// Legal maps declared document paths (relative to ContentRoot) to links
	// relative to the output root. OtherLegal does the same for undeclared ones.
	Legal      map[string]string
	OtherLegal map[string]string
}

// NewArchive builds the archive mirrored at rel within l.
func NewArchive(l layout.Layout, rel string) *Archive {
	rel = layout.CleanRel(rel)
	return &Archive{
		RelPath:          rel,
		File:             l.MirrorPath(rel),
		ContentRoot:      l.ContentsDir(rel),
		Licenses:         NewEntitySet(),
		Notices:          NewEntitySet(),
		DeclaredLicenses: NewEntitySet(),
		DeclaredNotices:  NewEntitySet(),
		OtherLicenses:    NewEntitySet(),
		OtherNotices:     NewEntitySet(),
		ImpliedLicenses:  NewEntitySet(),
		ImpliedNotices:   NewEntitySet(),
		Legal:            map[string]string{},
		OtherLegal:       map[string]string{},
	}
}

// Name is the file name without directories.
func (a *Archive) Name() string {
	return path.Base(a.RelPath)
}

// Type is the archive extension without the dot ("jar", "war", "tar.gz").
func (a *Archive) Type() string {
	name := strings.ToLower(a.Name())
	if strings.HasSuffix(name, ".tar.gz") {
		return "tar.gz"
	}
	return strings.TrimPrefix(path.Ext(name), ".")
}

// All returns every entity of kind found in the archive.
func (a *Archive) All(kind Kind) *EntitySet {
	if kind == KindNotice {
		return a.Notices
	}
	return a.Licenses
}

// Declared returns the declared entities of kind.
func (a *Archive) Declared(kind Kind) *EntitySet {
	if kind == KindNotice {
		return a.DeclaredNotices
	}
	return a.DeclaredLicenses
}

// Other returns the undeclared, non-implied entities of kind.
func (a *Archive) Other(kind Kind) *EntitySet {
	if kind == KindNotice {
		return a.OtherNotices
	}
	return a.OtherLicenses
}

// Implied returns the undeclared entities of kind covered by a declared one.
func (a *Archive) Implied(kind Kind) *EntitySet {
	if kind == KindNotice {
		return a.ImpliedNotices
	}
	return a.ImpliedLicenses
}

func (a *Archive) setClassification(kind Kind, declared, other, implied *EntitySet) {
	if kind == KindNotice {
		a.DeclaredNotices, a.OtherNotices, a.ImpliedNotices = declared, other, implied
		return
	}
	a.DeclaredLicenses, a.OtherLicenses, a.ImpliedLicenses = declared, other, implied
}

// Summary is the tabular view of an archive.
type Summary struct {
	Path    string `json:"path"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Jars    int    `json:"jars"`
	License string `json:"license,omitempty"`
	Notice  string `json:"notice,omitempty"`
}

// Summary builds the tabular view. License and Notice carry the ID of the
// first declared entity.
func (a *Archive) Summary() Summary {
	s := Summary{
		Path: a.RelPath,
		Name: a.Name(),
		Type: a.Type(),
		Jars: a.nestedJars(),
	}
	if e := a.DeclaredLicenses.First(); e != nil {
		s.License = e.ID
	}
	if e := a.DeclaredNotices.First(); e != nil {
		s.Notice = e.ID
	}
	return s
}

func (a *Archive) nestedJars() int {
	count := 0
	_ = filepath.WalkDir(a.ContentRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && p != a.ContentRoot && strings.HasSuffix(d.Name(), ".jar"+layout.ContentsSuffix) {
			count++
		}
		return nil
	})
	return count
}

// SortedKeys returns the keys of a link map in lexical order.
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
