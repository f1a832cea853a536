package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("key not found in cache")

// RedisCache wraps a redis client. It backs the rate limiter and the cron job locks.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache connects to redisURL and pings it. Keys are namespaced with prefix.
func NewRedisCache(redisURL, prefix string) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return newRedisCache(redis.NewClient(opt), prefix)
}

func newRedisCache(client *redis.Client, prefix string) (*RedisCache, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &RedisCache{client: client, prefix: prefix}, nil
}

func (r *RedisCache) key(k string) string {
	return r.prefix + k
}

// Ping checks the connection
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the underlying client
func (r *RedisCache) Close() error {
	return r.client.Close()
}

// unlockScript deletes the lock only if it still holds our token
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

// TryLock takes a lock for ttl with SETNX. ok is false when someone else holds it.
// The returned release func is safe to call after the lock has expired.
func (r *RedisCache) TryLock(ctx context.Context, name string, ttl time.Duration) (release func(), ok bool, err error) {
	key := r.key("lock:" + name)
	token := uuid.NewString()

	ok, err = r.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil || !ok {
		return func() {}, false, err
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = unlockScript.Run(ctx, r.client, []string{key}, token).Err()
	}, true, nil
}

// Storage adapts the cache to fiber.Storage so the limiter shares counters across replicas
func (r *RedisCache) Storage() *Storage {
	return &Storage{cache: r}
}

// Storage implements fiber.Storage on top of RedisCache
type Storage struct {
	cache *RedisCache
}

func (s *Storage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	val, err := s.cache.client.Get(context.Background(), s.cache.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

func (s *Storage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	return s.cache.client.Set(context.Background(), s.cache.key(key), val, exp).Err()
}

func (s *Storage) Delete(key string) error {
	if key == "" {
		return nil
	}
	return s.cache.client.Del(context.Background(), s.cache.key(key)).Err()
}

// Reset removes every key under the cache prefix
func (s *Storage) Reset() error {
	ctx := context.Background()
	iter := s.cache.client.Scan(ctx, 0, s.cache.key("*"), 100).Iterator()
	for iter.Next(ctx) {
		if err := s.cache.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Close is a no-op; the owning RedisCache closes the client
func (s *Storage) Close() error {
	return nil
}
