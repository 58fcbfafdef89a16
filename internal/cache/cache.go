// Package cache holds short-lived copies of marketplace listings. Entries
// expire after a fixed TTL and are dropped wholesale when a purchase changes
// sales counts.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
)

// Store is a byte-oriented cache. A miss is reported with ok=false and a nil
// error.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Purge(ctx context.Context) error
}

// GetJSON decodes a cached value into dst
func GetJSON(ctx context.Context, s Store, key string, dst any) (bool, error) {
	b, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, fmt.Errorf("decoding cached %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes value and stores it under key
func SetJSON(ctx context.Context, s Store, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return s.Set(ctx, key, b)
}
