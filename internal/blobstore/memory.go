package blobstore

import (
	"context"
	"fmt"
	"sort"
)

// MemoryStore is a non-durable Store used in tests and when no data path is
// configured. Same quota semantics as the SQLite store.
type MemoryStore struct {
	values     map[string]string
	quotaBytes int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(quotaBytes int64) *MemoryStore {
	return &MemoryStore{values: map[string]string{}, quotaBytes: quotaBytes}
}

func (s *MemoryStore) Put(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("store key is required")
	}
	if s.quotaBytes > 0 {
		var used int64
		for k, v := range s.values {
			if k == key {
				continue
			}
			used += int64(len(v))
		}
		if used+int64(len(value)) > s.quotaBytes {
			return fmt.Errorf("put %q (%d bytes): %w", key, len(value), ErrQuotaExceeded)
		}
	}
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, ok := s.values[key]
	return value, ok, nil
}

func (s *MemoryStore) Remove(ctx context.Context, key string) error {
	delete(s.values, key)
	return nil
}

func (s *MemoryStore) Keys(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(s.values))
	for key := range s.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

var _ Store = (*MemoryStore)(nil)
var _ Store = (*SQLiteStore)(nil)
