package session

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"bankportal.org/internal/tokenstore"
)

// Registry hands out one Store per browser session id. Evicted stores are rebuilt
// from persisted storage on the next request; eviction never logs anyone out.
type Registry struct {
	storageKey string
	tokens     tokenstore.Store
	auth       Authenticator
	opts       []Option
	cache      *lru.Cache[string, *Store]
}

// NewRegistry keeps at most size live stores.
func NewRegistry(size int, storageKey string, tokens tokenstore.Store, auth Authenticator, opts ...Option) (*Registry, error) {
	cache, err := lru.New[string, *Store](size)
	if err != nil {
		return nil, fmt.Errorf("session registry: %w", err)
	}
	return &Registry{
		storageKey: storageKey,
		tokens:     tokens,
		auth:       auth,
		opts:       opts,
		cache:      cache,
	}, nil
}

// StorageKey returns the persisted key for a session id.
func (r *Registry) StorageKey(sid string) string {
	return r.storageKey + ":" + sid
}

// Get returns the store for sid, creating it if needed.
func (r *Registry) Get(sid string) *Store {
	if s, ok := r.cache.Get(sid); ok {
		return s
	}
	s := NewStore(r.StorageKey(sid), r.tokens, r.auth, r.opts...)
	// Another request may have raced us; keep whichever landed first.
	if prev, ok, _ := r.cache.PeekOrAdd(sid, s); ok {
		return prev
	}
	return s
}

// Len reports the number of live stores.
func (r *Registry) Len() int { return r.cache.Len() }
