package legal

import (
	"path/filepath"

	"legalscan/internal/fileutil"
)

// Location is one file backing an entity.
type Location struct {
	Archive *Archive
	Path    string
}

// Entity is a deduplicated license or notice text shared by every archive
// that ships it.
type Entity struct {
	Kind Kind
	// Key is the identity form; never displayed.
	Key string
	// Text is the display form with reference bodies replaced by markers.
	Text string
	// ID is a short stable identifier derived from Key.
	ID string

	archives  []*Archive
	seen      map[*Archive]struct{}
	locations []Location
}

func newEntity(kind Kind, key, text string) *Entity {
	return &Entity{
		Kind: kind,
		Key:  key,
		Text: text,
		ID:   fileutil.HashBytes([]byte(key))[:16],
		seen: map[*Archive]struct{}{},
	}
}

func (e *Entity) add(archive *Archive, path string) {
	if _, ok := e.seen[archive]; !ok {
		e.seen[archive] = struct{}{}
		e.archives = append(e.archives, archive)
	}
	e.locations = append(e.locations, Location{Archive: archive, Path: path})
}

// Archives returns the archives that contain this entity, in first-seen order.
func (e *Entity) Archives() []*Archive {
	out := make([]*Archive, len(e.archives))
	copy(out, e.archives)
	return out
}

// AllLocations returns every file backing this entity.
func (e *Entity) AllLocations() []Location {
	out := make([]Location, len(e.locations))
	copy(out, e.locations)
	return out
}

// Locations returns the slash-separated paths, relative to archive's content
// root, of the files backing this entity inside that archive.
func (e *Entity) Locations(archive *Archive) []string {
	var out []string
	for _, loc := range e.locations {
		if loc.Archive != archive {
			continue
		}
		rel, err := filepath.Rel(archive.ContentRoot, loc.Path)
		if err != nil {
			continue
		}
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

// Implies reports whether e's text is contained in full's text, meaning a
// declared full copy covers this fragment.
func (e *Entity) Implies(full *Entity) bool {
	return containsKey(full.Key, e.Key)
}

// EntitySet is an insertion-ordered set of entities.
type EntitySet struct {
	items []*Entity
	index map[*Entity]struct{}
}

// NewEntitySet returns an empty set.
func NewEntitySet() *EntitySet {
	return &EntitySet{index: map[*Entity]struct{}{}}
}

// Add inserts e when absent.
func (s *EntitySet) Add(e *Entity) {
	if _, ok := s.index[e]; ok {
		return
	}
	s.index[e] = struct{}{}
	s.items = append(s.items, e)
}

// Remove deletes e, keeping the order of the rest.
func (s *EntitySet) Remove(e *Entity) {
	if _, ok := s.index[e]; !ok {
		return
	}
	delete(s.index, e)
	for i, item := range s.items {
		if item == e {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

// Contains reports membership.
func (s *EntitySet) Contains(e *Entity) bool {
	_, ok := s.index[e]
	return ok
}

// Len returns the number of entities.
func (s *EntitySet) Len() int { return len(s.items) }

// Items returns the entities in insertion order.
func (s *EntitySet) Items() []*Entity {
	out := make([]*Entity, len(s.items))
	copy(out, s.items)
	return out
}

// Clone returns an independent copy.
func (s *EntitySet) Clone() *EntitySet {
	out := NewEntitySet()
	for _, e := range s.items {
		out.Add(e)
	}
	return out
}

// Difference returns the entities of s not in other, in s's order.
func (s *EntitySet) Difference(other *EntitySet) *EntitySet {
	out := NewEntitySet()
	for _, e := range s.items {
		if !other.Contains(e) {
			out.Add(e)
		}
	}
	return out
}

// First returns the earliest inserted entity, or nil.
func (s *EntitySet) First() *Entity {
	if len(s.items) == 0 {
		return nil
	}
	return s.items[0]
}
