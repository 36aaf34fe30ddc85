package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/hrdesk/hrdesk/internal/shared"
)

const keyBytes = 20

// TokenStore keeps API tokens in Redis. Each user owns at most one live
// token; logging in again returns it.
type TokenStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
	group  singleflight.Group
}

// NewTokenStore constructs a TokenStore.
func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{client: client, ttl: ttl, now: time.Now}
}

// TTL exposes the configured token lifetime.
func (s *TokenStore) TTL() time.Duration {
	return s.ttl
}

// Issue returns the user's live token or creates a new one.
func (s *TokenStore) Issue(ctx context.Context, userID uuid.UUID) (Token, bool, error) {
	now := s.now().UTC()
	existing, err := s.client.Get(ctx, userKey(userID)).Result()
	switch {
	case err == nil:
		ttl, err := s.client.TTL(ctx, tokenKey(existing)).Result()
		if err == nil && ttl > 0 {
			return Token{Key: existing, UserID: userID, CreatedAt: now, ExpiresAt: now.Add(ttl)}, false, nil
		}
	case !errors.Is(err, redis.Nil):
		return Token{}, false, fmt.Errorf("auth: load user token: %w", err)
	}

	key, err := generateKey()
	if err != nil {
		return Token{}, false, err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, tokenKey(key), userID.String(), s.ttl)
		pipe.Set(ctx, userKey(userID), key, s.ttl)
		return nil
	})
	if err != nil {
		return Token{}, false, fmt.Errorf("auth: store token: %w", err)
	}
	return Token{Key: key, UserID: userID, CreatedAt: now, ExpiresAt: now.Add(s.ttl)}, true, nil
}

// Resolve maps a token key to its user. Concurrent lookups of the same key
// share one Redis round trip.
func (s *TokenStore) Resolve(ctx context.Context, key string) (uuid.UUID, error) {
	if !validKey(key) {
		return uuid.Nil, shared.ErrInvalidToken
	}
	v, err, _ := s.group.Do(key, func() (any, error) {
		raw, err := s.client.Get(ctx, tokenKey(key)).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return uuid.Nil, shared.ErrInvalidToken
			}
			return uuid.Nil, fmt.Errorf("auth: resolve token: %w", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return uuid.Nil, shared.ErrInvalidToken
		}
		return id, nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return v.(uuid.UUID), nil
}

// Revoke deletes a token. Unknown keys are ignored.
func (s *TokenStore) Revoke(ctx context.Context, key string) error {
	raw, err := s.client.Get(ctx, tokenKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("auth: revoke token: %w", err)
	}
	keys := []string{tokenKey(key)}
	if id, err := uuid.Parse(raw); err == nil {
		keys = append(keys, userKey(id))
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("auth: revoke token: %w", err)
	}
	return nil
}

func tokenKey(key string) string {
	return "token:" + key
}

func userKey(id uuid.UUID) string {
	return "token_user:" + id.String()
}

func generateKey() (string, error) {
	b := make([]byte, keyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("auth: generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func validKey(key string) bool {
	if len(key) != keyBytes*2 {
		return false
	}
	_, err := hex.DecodeString(key)
	return err == nil
}
