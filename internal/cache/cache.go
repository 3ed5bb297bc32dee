// Package cache memoizes small byte values such as robots.txt bodies and
// warmed local models.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache stores byte values with per-entry expiry
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
}

// Key derives a fixed-length key from a namespace and its parts
func Key(namespace string, parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return "distill:v1:" + namespace + ":" + hex.EncodeToString(hash[:])
}

// Remember returns the cached value for key, or calls fill and caches its
// result for ttl. Failed fills are not cached. Concurrent callers for the
// same key share one fill and its result.
func Remember(c Cache, key string, ttl time.Duration, fill func() ([]byte, error)) ([]byte, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	v, err, _ := fills.Do(key, func() (any, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := fill()
		if err != nil {
			return nil, err
		}
		c.Set(key, v, ttl)
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

var fills singleflight.Group
