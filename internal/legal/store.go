package legal

import "sync"

// Store interns entities by key for one run. It is safe for concurrent use;
// Intern also records the entity on the owning archive while holding the lock.
type Store struct {
	mu       sync.Mutex
	refs     References
	cache    *canonicalCache
	entities map[Kind]map[string]*Entity
	order    map[Kind][]*Entity
}

// NewStore builds an empty store that canonicalizes with refs and memoizes up
// to cacheEntries distinct document bodies.
func NewStore(refs References, cacheEntries int) *Store {
	return &Store{
		refs:     refs,
		cache:    newCanonicalCache(refs, cacheEntries),
		entities: map[Kind]map[string]*Entity{KindLicense: {}, KindNotice: {}},
		order:    map[Kind][]*Entity{},
	}
}

// References returns the reference table used for display text.
func (s *Store) References() References {
	return s.refs
}

// Intern returns the entity for raw, creating it on first sight, and records
// path inside archive as one of its locations.
func (s *Store) Intern(kind Kind, raw []byte, archive *Archive, path string) *Entity {
	s.mu.Lock()
	defer s.mu.Unlock()

	form := s.cache.canonical(raw)
	byKey, ok := s.entities[kind]
	if !ok {
		byKey = map[string]*Entity{}
		s.entities[kind] = byKey
	}
	entity, ok := byKey[form.key]
	if !ok {
		entity = newEntity(kind, form.key, form.display)
		byKey[form.key] = entity
		s.order[kind] = append(s.order[kind], entity)
	}
	entity.add(archive, path)
	if archive != nil {
		archive.All(kind).Add(entity)
	}
	return entity
}

// Lookup returns the entity with the given key.
func (s *Store) Lookup(kind Kind, key string) (*Entity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entity, ok := s.entities[kind][key]
	return entity, ok
}

// Entities returns every entity of kind in creation order.
func (s *Store) Entities(kind Kind) []*Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Entity, len(s.order[kind]))
	copy(out, s.order[kind])
	return out
}

// CacheStats reports canonicalization cache hits and misses.
func (s *Store) CacheStats() (hits, misses int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.hits, s.cache.misses
}
