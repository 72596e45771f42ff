package highlight

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cached memoizes another highlighter by input text. Entries expire after
// ttl so a long stream of intermediate documents does not pile up.
type Cached struct {
	inner Highlighter
	cache *gocache.Cache
}

// NewCached wraps inner. A zero ttl keeps entries for one minute.
func NewCached(inner Highlighter, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Cached{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (c *Cached) Highlight(text string) string {
	sum := sha256.Sum256([]byte(text))
	key := hex.EncodeToString(sum[:])
	if v, ok := c.cache.Get(key); ok {
		return v.(string)
	}
	markup := c.inner.Highlight(text)
	c.cache.Set(key, markup, gocache.DefaultExpiration)
	return markup
}

// Len reports the number of cached entries, expired ones included.
func (c *Cached) Len() int {
	return c.cache.ItemCount()
}
