package session

import (
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/clarivox/clarivox/internal/annotate"
)

const (
	// DefaultCacheTTL is how long a cached annotation result stays
	// servable.
	DefaultCacheTTL = 5 * time.Minute

	// DefaultFingerprintLength bounds the fingerprint prefix in runes.
	// Near-identical utterances collide on purpose — the cache exists to
	// absorb repeated and overlapping speech, not to be an exact index.
	DefaultFingerprintLength = 100
)

// Cache is the per-session annotation result cache. Keys are fingerprints
// of redacted text; staleness is checked at read time (no background
// sweep) and an entry past its TTL is never served. Wipe empties the
// cache completely — it is part of the session-end compliance wipe, so it
// must leave no residual entries behind.
//
// Safe for concurrent use.
type Cache struct {
	store *gocache.Cache
	fpLen int
}

// NewCache creates a cache with the given TTL and fingerprint prefix
// length. Non-positive arguments fall back to the defaults. The
// underlying store runs without a janitor: expiry is enforced lazily on
// Get, matching the read-time staleness contract.
func NewCache(ttl time.Duration, fingerprintLen int) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if fingerprintLen <= 0 {
		fingerprintLen = DefaultFingerprintLength
	}
	return &Cache{
		store: gocache.New(ttl, 0),
		fpLen: fingerprintLen,
	}
}

// Fingerprint derives the cache key for redacted text: a bounded-length
// prefix plus a length tag. The input must already be redacted — raw
// transcript text never becomes a map key.
func (c *Cache) Fingerprint(redacted string) string {
	runes := []rune(redacted)
	prefix := redacted
	if len(runes) > c.fpLen {
		prefix = string(runes[:c.fpLen])
	}
	return prefix + "#" + strconv.Itoa(len(runes))
}

// Get returns the cached result for fingerprint, or ok=false when absent
// or expired.
func (c *Cache) Get(fingerprint string) (*annotate.Result, bool) {
	v, ok := c.store.Get(fingerprint)
	if !ok {
		return nil, false
	}
	res, ok := v.(*annotate.Result)
	return res, ok
}

// Set stores a result under fingerprint with the cache's TTL.
func (c *Cache) Set(fingerprint string, result *annotate.Result) {
	c.store.SetDefault(fingerprint, result)
}

// Len reports the number of stored entries, including any that have
// expired but not yet been wiped.
func (c *Cache) Len() int {
	return c.store.ItemCount()
}

// Wipe discards every entry. Callable at any time; afterwards every Get
// is a miss.
func (c *Cache) Wipe() {
	c.store.Flush()
}
