package store

import (
	"context"
	"time"

	"github.com/gofiber/storage/memory/v2"
)

// MemoryStorage adapts the fiber in-process storage to the Storage interface.
// Used when no Redis instance is configured; entries still expire natively.
type MemoryStorage struct {
	mem *memory.Storage
}

func (s *MemoryStorage) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.mem.Get(key)
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, ErrNotFound
	}
	return val, nil
}

func (s *MemoryStorage) Set(ctx context.Context, key string, val []byte, expiresIn time.Duration) error {
	return s.mem.Set(key, val, expiresIn)
}

func (s *MemoryStorage) Exists(ctx context.Context, key string) (bool, error) {
	val, err := s.mem.Get(key)
	if err != nil {
		return false, err
	}
	return val != nil, nil
}

func (s *MemoryStorage) Delete(ctx context.Context, key string) error {
	return s.mem.Delete(key)
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		mem: memory.New(),
	}
}
