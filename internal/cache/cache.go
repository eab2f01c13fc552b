// Package cache stores recent quotes so repeated runs within a short window do
// not hit the providers again.
package cache

import (
	"context"
	"sync"
	"time"

	"kadig/internal/marketdata"
)

// PriceCache is keyed by provider name and provider identifier.
type PriceCache interface {
	Get(ctx context.Context, provider, key string) (marketdata.Quote, bool, error)
	Set(ctx context.Context, provider, key string, q marketdata.Quote) error
}

type entry struct {
	quote   marketdata.Quote
	expires time.Time
}

// Memory is an in-process PriceCache with a fixed TTL.
type Memory struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]entry
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, now: time.Now, entries: map[string]entry{}}
}

func (m *Memory) Get(_ context.Context, provider, key string) (marketdata.Quote, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[cacheKey(provider, key)]
	if !ok {
		return marketdata.Quote{}, false, nil
	}
	if !m.now().Before(e.expires) {
		delete(m.entries, cacheKey(provider, key))
		return marketdata.Quote{}, false, nil
	}
	return e.quote, true, nil
}

func (m *Memory) Set(_ context.Context, provider, key string, q marketdata.Quote) error {
	if m.ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[cacheKey(provider, key)] = entry{quote: q, expires: m.now().Add(m.ttl)}
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func cacheKey(provider, key string) string {
	return "price:" + provider + ":" + key
}
