package auth

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	radix "github.com/mediocregopher/radix/v3"
)

// TokenCache stores parsed JWT claims and the logout revocation list in
// Redis, keyed through a consistent hash ring. A nil redis client turns
// every method into a no-op, which keeps auth working without Redis at the
// cost of logout revocation.
type TokenCache struct {
	redis radix.Client
	ring  *HashRing
	ttl   time.Duration
}

// NewTokenCache builds the cache.
func NewTokenCache(redis radix.Client, ring *HashRing, ttl time.Duration) *TokenCache {
	if ring == nil {
		ring = NewHashRing(nil, 0)
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &TokenCache{
		redis: redis,
		ring:  ring,
		ttl:   ttl,
	}
}

func (c *TokenCache) tokenDigest(token string) string {
	sum := sha1.Sum([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (c *TokenCache) claimsKey(token string) string {
	return fmt.Sprintf("auth:jwt:%s:%s", c.ring.Node(token), c.tokenDigest(token))
}

func (c *TokenCache) revokedKey(token string) string {
	return fmt.Sprintf("auth:revoked:%s", c.tokenDigest(token))
}

// Get returns cached claims for the token, if any.
func (c *TokenCache) Get(ctx context.Context, token string) (*Claims, bool, error) {
	if c.redis == nil {
		return nil, false, nil
	}
	var raw string
	if err := c.redis.Do(radix.Cmd(&raw, "GET", c.claimsKey(token))); err != nil {
		return nil, false, err
	}
	if raw == "" {
		return nil, false, nil
	}
	var claims Claims
	if err := json.Unmarshal([]byte(raw), &claims); err != nil {
		// corrupt entry, drop it and fall back to parsing
		_ = c.redis.Do(radix.Cmd(nil, "DEL", c.claimsKey(token)))
		return nil, false, nil
	}
	// A cache entry may outlive the token it was parsed from. Expired
	// claims are a miss, so the caller falls through to signature
	// verification and rejects the token there.
	if claims.Expired(time.Now()) {
		_ = c.redis.Do(radix.Cmd(nil, "DEL", c.claimsKey(token)))
		return nil, false, nil
	}
	return &claims, true, nil
}

// Set caches parsed claims.
func (c *TokenCache) Set(ctx context.Context, token string, claims *Claims) error {
	if c.redis == nil || claims == nil {
		return nil
	}
	body, _ := json.Marshal(claims)
	return c.redis.Do(radix.FlatCmd(nil, "SETEX", c.claimsKey(token), int64(c.ttl/time.Second), body))
}

// Revoke blacklists a token until it would have expired anyway and drops
// its cached claims.
func (c *TokenCache) Revoke(ctx context.Context, token string) error {
	if c.redis == nil {
		return nil
	}
	if err := c.redis.Do(radix.FlatCmd(nil, "SETEX", c.revokedKey(token), int64(TokenTTL/time.Second), "1")); err != nil {
		return err
	}
	return c.redis.Do(radix.Cmd(nil, "DEL", c.claimsKey(token)))
}

// IsRevoked reports whether the token has been logged out.
func (c *TokenCache) IsRevoked(ctx context.Context, token string) (bool, error) {
	if c.redis == nil {
		return false, nil
	}
	var n int
	if err := c.redis.Do(radix.Cmd(&n, "EXISTS", c.revokedKey(token))); err != nil {
		return false, err
	}
	return n > 0, nil
}
