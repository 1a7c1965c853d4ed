package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yeremiapane/notification-hub/config"
	"github.com/yeremiapane/notification-hub/utils"
)

const keyPrefix = "notifications:user:"

// NewRedisClient connects and pings Redis.
func NewRedisClient(cfg *config.RedisConfig) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	utils.InfoLogger.Printf("Redis connected at %s", cfg.Addr)
	return rdb, nil
}

// RedisPageCache stores every page under its own key with its own TTL:
//
//	notifications:user:<id>:gen         current generation (no TTL)
//	notifications:user:<id>:<gen>:<sub> one cached page
//
// Invalidate only increments the generation. Pages of older generations are
// never read again and expire on their own.
type RedisPageCache struct {
	client *goredis.Client
}

func NewRedisPageCache(client *goredis.Client) *RedisPageCache {
	return &RedisPageCache{client: client}
}

func userKey(userID uint) string {
	return keyPrefix + strconv.FormatUint(uint64(userID), 10)
}

func genKey(userID uint) string {
	return userKey(userID) + ":gen"
}

func entryKey(userID uint, gen int64, subKey string) string {
	return userKey(userID) + ":" + strconv.FormatInt(gen, 10) + ":" + subKey
}

// Generation returns the user's current generation; 0 when it was never
// invalidated.
func (c *RedisPageCache) Generation(ctx context.Context, userID uint) (int64, error) {
	gen, err := c.client.Get(ctx, genKey(userID)).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *RedisPageCache) Get(ctx context.Context, userID uint, subKey string) ([]byte, int64, bool, error) {
	gen, err := c.Generation(ctx, userID)
	if err != nil {
		return nil, 0, false, err
	}
	val, err := c.client.Get(ctx, entryKey(userID, gen, subKey)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, 0, false, err
	}
	return val, gen, true, nil
}

// Put writes under gen even when it is no longer current; such an entry is
// unreachable and only waits for its TTL.
func (c *RedisPageCache) Put(ctx context.Context, userID uint, gen int64, subKey string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return c.client.Set(ctx, entryKey(userID, gen, subKey), value, ttl).Err()
}

func (c *RedisPageCache) Invalidate(ctx context.Context, userID uint) error {
	return c.client.Incr(ctx, genKey(userID)).Err()
}
