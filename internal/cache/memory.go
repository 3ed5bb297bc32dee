package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is a process-local Cache. Expired entries are swept every two TTLs.
type Memory struct {
	items *gocache.Cache
}

// NewMemory creates a cache whose entries default to ttl
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{items: gocache.New(ttl, 2*ttl)}
}

func (m *Memory) Get(key string) ([]byte, bool) {
	v, ok := m.items.Get(key)
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

// Set stores value; a zero ttl uses the cache default
func (m *Memory) Set(key string, value []byte, ttl time.Duration) {
	m.items.Set(key, value, ttl)
}

// Len returns the number of entries, including expired ones not yet swept
func (m *Memory) Len() int {
	return m.items.ItemCount()
}
