// Package statcache memoizes stat lookups on the host adapter side of the
// engine. The engine invalidates entries after structural and metadata
// mutations; it never reads from the cache itself.
package statcache

import (
	"strings"

	"github.com/brettbedarf/memvfs"
	"github.com/brettbedarf/memvfs/filesystem"
	"github.com/brettbedarf/memvfs/internal/util"
	"github.com/puzpuzpuz/xsync/v4"
)

// Statter is the lookup the cache sits in front of, usually *filesystem.Engine.
// Its resolver canonicalizes keys so every spelling of a path shares one entry.
type Statter interface {
	Stat(url string) (filesystem.Stat, bool)
	Resolver() *filesystem.Resolver
}

type entry struct {
	stat filesystem.Stat
	ok   bool
}

// Cache is safe for concurrent use, though the underlying engine is not.
type Cache struct {
	src      Statter
	resolver *filesystem.Resolver
	entries  *xsync.Map[string, entry]
}

var _ memvfs.StatInvalidator = (*Cache)(nil)

func New(src Statter) *Cache {
	return &Cache{
		src:      src,
		resolver: src.Resolver(),
		entries:  xsync.NewMap[string, entry](),
	}
}

// Attach creates a cache in front of e and registers it for invalidation
func Attach(e *filesystem.Engine) *Cache {
	c := New(e)
	e.SetStatInvalidator(c)
	return c
}

// Stat returns the cached result for url, looking it up on a miss.
// Negative results are cached too, like the host stat caches this emulates.
func (c *Cache) Stat(url string) (filesystem.Stat, bool) {
	key := c.key(url)
	if e, ok := c.entries.Load(key); ok {
		return e.stat, e.ok
	}
	st, ok := c.src.Stat(key)
	c.entries.Store(key, entry{stat: st, ok: ok})
	return st, ok
}

// key is the canonical spelling of url. URLs that do not split never
// resolve, so they keep their raw spelling.
func (c *Cache) key(url string) string {
	if canonical, ok := c.resolver.Canonical(url); ok {
		return canonical
	}
	return url
}

// Exists is a cached existence check
func (c *Cache) Exists(url string) bool {
	_, ok := c.Stat(url)
	return ok
}

// Invalidate drops url and every entry below it, whatever spelling either
// was given in. Negative entries for the same url are dropped as well so
// newly created nodes show up.
func (c *Cache) Invalidate(url string) {
	logger := util.GetLogger("StatCache.Invalidate")
	target := c.key(url)
	prefix := target + filesystem.Separator
	dropped := 0
	c.entries.Range(func(key string, _ entry) bool {
		if key == target || strings.HasPrefix(key, prefix) {
			c.entries.Delete(key)
			dropped++
		}
		return true
	})
	logger.Trace().Str("url", url).Int("dropped", dropped).Msg("Invalidated")
}

// Clear drops every entry
func (c *Cache) Clear() {
	c.entries.Clear()
}

// Len returns the number of cached entries
func (c *Cache) Len() int {
	return c.entries.Size()
}
