package auth

import (
	"context"
	"errors"
	"time"

	"github.com/khanghh/taskvault/internal/store"
)

// TokenBlacklist tracks revoked access tokens. Entries carry a TTL mirroring
// the token's own expiry, so the backing store purges them without any sweep
// logic here. Inserting an already-revoked token overwrites the entry, which
// makes revocation idempotent.
type TokenBlacklist struct {
	storage store.Storage
}

func (b *TokenBlacklist) Insert(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return b.storage.Set(ctx, token, []byte("1"), ttl)
}

func (b *TokenBlacklist) Exists(ctx context.Context, token string) (bool, error) {
	exists, err := b.storage.Exists(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	return exists, err
}

func NewTokenBlacklist(storage store.Storage) *TokenBlacklist {
	return &TokenBlacklist{
		storage: storage,
	}
}
