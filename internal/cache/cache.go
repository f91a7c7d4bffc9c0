// Package cache memoizes (branch, query) inventory results for a
// short TTL so repeated identical searches don't hammer the upstream
// yards. It is read-through: callers never populate entries directly.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"yardsearch-backend/internal/chrono"
	"yardsearch-backend/internal/inventory"
	"yardsearch-backend/lib/textutil"
)

// Loader performs the actual fetch+parse for one branch and query.
type Loader func(ctx context.Context) ([]inventory.RawListing, error)

type entry struct {
	listings  []inventory.RawListing
	createdAt time.Time
}

type Cache struct {
	ttl   time.Duration
	clock chrono.API

	mu      sync.Mutex
	entries map[string]entry
	flight  singleflight.Group
}

func New(ttl time.Duration, clock chrono.API) *Cache {
	if ttl == 0 {
		ttl = 300 * time.Second
	}
	if clock == nil {
		clock = chrono.StandardImpl{}
	}
	return &Cache{
		ttl:     ttl,
		clock:   clock,
		entries: map[string]entry{},
	}
}

func key(branchCode, query string) string {
	return branchCode + "|" + textutil.NormalizeName(query)
}

// GetOrFetch returns the cached listings for (branchCode, query) when
// the entry is younger than the TTL, otherwise it runs loader and
// stores the result. Concurrent callers for the identical key join the
// same in-flight load instead of firing duplicate upstream requests.
func (c *Cache) GetOrFetch(ctx context.Context, branchCode, query string, loader Loader) ([]inventory.RawListing, error) {
	k := key(branchCode, query)

	if listings, ok := c.lookup(k); ok {
		return listings, nil
	}

	result, err, _ := c.flight.Do(k, func() (any, error) {
		// a racing caller may have populated the entry while this one
		// waited on the flight group
		if listings, ok := c.lookup(k); ok {
			return listings, nil
		}
		listings, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		c.store(k, listings)
		return listings, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]inventory.RawListing), nil
}

func (c *Cache) lookup(k string) ([]inventory.RawListing, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[k]
	if !ok {
		return nil, false
	}
	if c.clock.Now().Sub(e.createdAt) >= c.ttl {
		delete(c.entries, k)
		return nil, false
	}
	return e.listings, true
}

func (c *Cache) store(k string, listings []inventory.RawListing) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[k] = entry{listings: listings, createdAt: c.clock.Now()}
}

// Clear drops every entry immediately regardless of TTL.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]entry{}
}

// Evict drops every entry belonging to one branch, for targeted
// operational revalidation.
func (c *Cache) Evict(branchCode string) {
	prefix := branchCode + "|"
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
}

// Len reports the live entry count, for operational introspection.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
