package legal

import (
	"path/filepath"
	"strings"

	"legalscan/internal/layout"
)

// Kind tags a legal document type.
type Kind string

const (
	KindNone    Kind = ""
	KindLicense Kind = "license"
	KindNotice  Kind = "notice"
)

// KindOf classifies a file by its base name, case-insensitively.
func KindOf(name string) Kind {
	switch strings.ToLower(filepath.Base(name)) {
	case "license", "license.txt":
		return KindLicense
	case "notice", "notice.txt":
		return KindNotice
	default:
		return KindNone
	}
}

// Predicate selects files during a content-tree walk. Paths are absolute.
type Predicate func(path string) bool

// And matches when every predicate matches.
func And(preds ...Predicate) Predicate {
	return func(path string) bool {
		for _, p := range preds {
			if !p(path) {
				return false
			}
		}
		return true
	}
}

// Or matches when any predicate matches.
func Or(preds ...Predicate) Predicate {
	return func(path string) bool {
		for _, p := range preds {
			if p(path) {
				return true
			}
		}
		return false
	}
}

// Not inverts a predicate.
func Not(p Predicate) Predicate {
	return func(path string) bool { return !p(path) }
}

// OfKind matches files of the given kind.
func OfKind(kind Kind) Predicate {
	return func(path string) bool { return kind != KindNone && KindOf(path) == kind }
}

var (
	IsLicense = OfKind(KindLicense)
	IsNotice  = OfKind(KindNotice)
	IsLegal   = Or(IsLicense, IsNotice)
)

// Declared matches files below root whose ancestors up to root include no
// nested ".contents" directory.
func Declared(root string) Predicate {
	root = filepath.Clean(root)
	return func(path string) bool {
		dir := filepath.Dir(filepath.Clean(path))
		for {
			if dir == root {
				return true
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				// Reached the filesystem root without meeting the content root.
				return false
			}
			if strings.HasSuffix(filepath.Base(dir), layout.ContentsSuffix) {
				return false
			}
			dir = parent
		}
	}
}
