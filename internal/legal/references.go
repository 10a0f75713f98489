package legal

import (
	"embed"
	"errors"
	"io/fs"
	"strings"

	"legalscan/internal/services"
)

//go:embed licenses/*.txt
var bundled embed.FS

// ReferenceNames lists the bundled reference licenses in replacement order.
var ReferenceNames = []string{"asl-2.0", "cpl-1.0", "cddl-1.0"}

// Reference is a well-known license body.
type Reference struct {
	Name string
	Body string
}

// References is an ordered reference table.
type References []Reference

// Lookup returns the body for name.
func (r References) Lookup(name string) (string, bool) {
	for _, ref := range r {
		if ref.Name == name {
			return ref.Body, true
		}
	}
	return "", false
}

// Match returns the name of the first reference whose marker appears in display.
func (r References) Match(display string) (string, bool) {
	for _, ref := range r {
		if strings.Contains(display, Marker(ref.Name)) {
			return ref.Name, true
		}
	}
	return "", false
}

// LoadReferences reads the bundled reference bodies, trimmed.
func LoadReferences() (References, error) {
	return loadReferences(bundled, ReferenceNames)
}

func loadReferences(fsys fs.FS, names []string) (References, error) {
	refs := make(References, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, "licenses/"+name+".txt")
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, services.Wrap(services.ErrResourceMissing, "classify", "load reference license", name, err)
			}
			return nil, services.Wrap(services.ErrResourceMissing, "classify", "read reference license", name, err)
		}
		body := strings.TrimSpace(string(data))
		if body == "" {
			return nil, services.Wrap(services.ErrResourceMissing, "classify", "load reference license", name+" is empty", nil)
		}
		refs = append(refs, Reference{Name: name, Body: body})
	}
	return refs, nil
}
