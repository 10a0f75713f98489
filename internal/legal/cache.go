package legal

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zeebo/blake3"
)

const defaultCacheEntries = 4096

type canonicalForm struct {
	key     string
	display string
}

// canonicalCache memoizes Canonical by content digest. Vendored jars repeat
// the same LICENSE bytes thousands of times in a large repository.
type canonicalCache struct {
	refs   References
	lru    *lru.Cache[[32]byte, canonicalForm]
	hits   int
	misses int
}

func newCanonicalCache(refs References, entries int) *canonicalCache {
	if entries <= 0 {
		entries = defaultCacheEntries
	}
	cache, err := lru.New[[32]byte, canonicalForm](entries)
	if err != nil {
		// Only reachable with a non-positive size, excluded above.
		panic(err)
	}
	return &canonicalCache{refs: refs, lru: cache}
}

func (c *canonicalCache) canonical(raw []byte) canonicalForm {
	digest := blake3.Sum256(raw)
	if form, ok := c.lru.Get(digest); ok {
		c.hits++
		return form
	}
	c.misses++
	key, display := Canonical(string(raw), c.refs)
	form := canonicalForm{key: key, display: display}
	c.lru.Add(digest, form)
	return form
}
