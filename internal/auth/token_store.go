package auth

import (
	"context"
	"time"

	"imtapp/internal/cache"
)

const revokedTokenKeyPrefix = "revoked:"

// TokenStoreInterface defines the revocation operations.
type TokenStoreInterface interface {
	MarkInvalid(ctx context.Context, token string, ttl time.Duration) error
	IsInvalid(ctx context.Context, token string) (bool, error)
}

// TokenStore keeps logged-out tokens in Redis until they would have expired.
type TokenStore struct {
	cache *cache.Client
}

// Ensure TokenStore implements TokenStoreInterface
var _ TokenStoreInterface = (*TokenStore)(nil)

// NewTokenStore creates a new token store.
func NewTokenStore(cache *cache.Client) *TokenStore {
	return &TokenStore{cache: cache}
}

// MarkInvalid stores a marker for token that disappears after ttl. A token
// with no remaining lifetime needs no marker.
func (s *TokenStore) MarkInvalid(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.cache.Set(ctx, revokedTokenKeyPrefix+token, []byte("1"), ttl)
}

// IsInvalid checks whether token was revoked.
func (s *TokenStore) IsInvalid(ctx context.Context, token string) (bool, error) {
	return s.cache.Exists(ctx, revokedTokenKeyPrefix+token)
}
