package memory

import (
	"fmt"
	"time"

	"ai-companion-be/internal/dto"

	"github.com/patrickmn/go-cache"
)

// ListingCache keeps recently served companion listings keyed by their filter.
type ListingCache struct {
	cache *cache.Cache
}

func NewListingCache(ttl time.Duration) *ListingCache {
	// purge expired items twice per TTL
	c := cache.New(ttl, ttl/2+time.Second)
	return &ListingCache{
		cache: c,
	}
}

func ListingKey(q dto.ListCompanionsQuery) string {
	author := ""
	if q.AuthorId != nil {
		author = q.AuthorId.String()
	}
	return fmt.Sprintf("subject=%s|topic=%s|author=%s|page=%d|limit=%d", q.Subject, q.Topic, author, q.Page, q.Limit)
}

func (r *ListingCache) Save(q dto.ListCompanionsQuery, res *dto.ListCompanionsResponse) {
	r.cache.Set(ListingKey(q), res, cache.DefaultExpiration)
}

func (r *ListingCache) Get(q dto.ListCompanionsQuery) (*dto.ListCompanionsResponse, bool) {
	if x, found := r.cache.Get(ListingKey(q)); found {
		return x.(*dto.ListCompanionsResponse), true
	}
	return nil, false
}

// Invalidate drops every cached listing. A new companion can appear on
// any page of the unfiltered list, so per-subject eviction is not enough.
func (r *ListingCache) Invalidate() {
	r.cache.Flush()
}

func (r *ListingCache) Len() int {
	return r.cache.ItemCount()
}
