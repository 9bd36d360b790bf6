package utils

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// AuthSession is the cached identity behind a bearer token, keyed by the
// token's hash so raw tokens never reach Redis.
type AuthSession struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// SaveAuthSession caches the session under the hashed token with the
// standard TTL.
func SaveAuthSession(client *redis.Client, tokenHash string, session AuthSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal auth session: %w", err)
	}
	ctx := context.Background()
	if err := client.Set(ctx, AuthCachePrefix+tokenHash, data, AuthCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to save auth session: %w", err)
	}
	return nil
}

// GetAuthSession retrieves a cached session; redis.Nil propagates on a miss.
func GetAuthSession(client *redis.Client, tokenHash string) (*AuthSession, error) {
	ctx := context.Background()
	data, err := client.Get(ctx, AuthCachePrefix+tokenHash).Result()
	if err != nil {
		return nil, err
	}
	var session AuthSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal auth session: %w", err)
	}
	return &session, nil
}

// DeleteAuthSession drops a cached session, forcing the next request through
// full token validation.
func DeleteAuthSession(client *redis.Client, tokenHash string) error {
	ctx := context.Background()
	return client.Del(ctx, AuthCachePrefix+tokenHash).Err()
}
