package activity

import (
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/opsdesk/opsdesk/internal/types"
)

// DefaultFacetCacheSize bounds the facet cache to roughly the number of
// entities users have open at once.
const DefaultFacetCacheSize = 256

// FacetCache memoizes hydrated actor facets per filtered stream. It is an
// explicit object owned by the caller and passed into the feed, bounded by
// an LRU policy rather than living as hidden component state.
type FacetCache struct {
	cache *lru.Cache[string, []types.ActorRef]
}

// NewFacetCache creates a FacetCache holding at most size entries.
func NewFacetCache(size int) (*FacetCache, error) {
	if size <= 0 {
		size = DefaultFacetCacheSize
	}
	c, err := lru.New[string, []types.ActorRef](size)
	if err != nil {
		return nil, err
	}
	return &FacetCache{cache: c}, nil
}

// facetKey identifies the filtered stream a facet set was computed for.
// The cursor never participates: facets cover the whole stream.
func facetKey(p Predicate) string {
	var b strings.Builder
	b.WriteString(p.TenantID)
	b.WriteByte('/')
	b.WriteString(p.EntityType)
	b.WriteByte('/')
	b.WriteString(p.EntityID)
	b.WriteByte('?')
	b.WriteString(strings.Join(p.ActorIDs, ","))
	if p.From != nil {
		b.WriteByte('|')
		b.WriteString(p.From.UTC().Format(time.RFC3339Nano))
	}
	if p.To != nil {
		b.WriteByte('|')
		b.WriteString(p.To.UTC().Format(time.RFC3339Nano))
	}
	return b.String()
}

func (c *FacetCache) get(key string) ([]types.ActorRef, bool) {
	if c == nil {
		return nil, false
	}
	return c.cache.Get(key)
}

func (c *FacetCache) put(key string, actors []types.ActorRef) {
	if c == nil {
		return
	}
	c.cache.Add(key, actors)
}

// Invalidate drops the cached facets for every stream. Called by write
// paths that know new actors may have appeared.
func (c *FacetCache) Invalidate() {
	if c == nil {
		return
	}
	c.cache.Purge()
}
