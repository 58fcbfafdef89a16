package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const defaultSize = 128

// LRUStore is an in-process cache for single-instance deployments
type LRUStore struct {
	entries *expirable.LRU[string, []byte]
}

func NewLRUStore(size int, ttl time.Duration) *LRUStore {
	if size <= 0 {
		size = defaultSize
	}
	return &LRUStore{entries: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (s *LRUStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, ok := s.entries.Get(key)
	return b, ok, nil
}

func (s *LRUStore) Set(_ context.Context, key string, value []byte) error {
	s.entries.Add(key, value)
	return nil
}

func (s *LRUStore) Purge(_ context.Context) error {
	s.entries.Purge()
	return nil
}

func (s *LRUStore) Len() int {
	return s.entries.Len()
}
