package auth

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// TokenCache хранит результат проверки токена ограниченное время.
type TokenCache interface {
	Get(ctx context.Context, key string) (*Identity, bool, error)
	Set(ctx context.Context, key string, id *Identity, ttl time.Duration) error
}

// CachingVerifier оборачивает Verifier кэшем. TTL записи никогда не выходит
// за exp самого токена, поэтому кэш не продлевает его валидность.
type CachingVerifier struct {
	next   Verifier
	cache  TokenCache
	ttl    time.Duration
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewCachingVerifier(next Verifier, cache TokenCache, ttl time.Duration, logger *zap.SugaredLogger) *CachingVerifier {
	return &CachingVerifier{next: next, cache: cache, ttl: ttl, logger: logger, now: time.Now}
}

func (v *CachingVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	key := cacheKey(token)
	if id, ok, err := v.cache.Get(ctx, key); err != nil {
		v.logger.Warnw("token cache get failed", "error", err)
	} else if ok && v.now().Before(id.ExpiresAt) {
		return id, nil
	}

	id, err := v.next.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	ttl := v.ttl
	if left := id.ExpiresAt.Sub(v.now()); left < ttl {
		ttl = left
	}
	if ttl > 0 {
		if err := v.cache.Set(ctx, key, id, ttl); err != nil {
			v.logger.Warnw("token cache set failed", "error", err)
		}
	}
	return id, nil
}

// cacheKey: сам токен в кэш не попадает, только его хэш.
func cacheKey(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return "tok:" + hex.EncodeToString(sum[:])
}

// RedisTokenCache — TokenCache поверх redis.
type RedisTokenCache struct {
	rdb *redis.Client
}

func NewRedisTokenCache(rdb *redis.Client) *RedisTokenCache {
	return &RedisTokenCache{rdb: rdb}
}

type cachedIdentity struct {
	Subject   string         `json:"sub"`
	Email     string         `json:"email,omitempty"`
	Name      string         `json:"name,omitempty"`
	ExpiresAt time.Time      `json:"exp"`
	Claims    map[string]any `json:"claims,omitempty"`
}

func (c *RedisTokenCache) Get(ctx context.Context, key string) (*Identity, bool, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var ci cachedIdentity
	if err := json.Unmarshal(raw, &ci); err != nil {
		return nil, false, err
	}
	return &Identity{Subject: ci.Subject, Email: ci.Email, Name: ci.Name, ExpiresAt: ci.ExpiresAt, Claims: ci.Claims}, true, nil
}

func (c *RedisTokenCache) Set(ctx context.Context, key string, id *Identity, ttl time.Duration) error {
	raw, err := json.Marshal(cachedIdentity{
		Subject:   id.Subject,
		Email:     id.Email,
		Name:      id.Name,
		ExpiresAt: id.ExpiresAt,
		Claims:    id.Claims,
	})
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, raw, ttl).Err()
}
