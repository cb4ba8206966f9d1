package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/iwvelando/price-optimizer/internal/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CostSource returns the unit cost of a product.
type CostSource interface {
	EstimateCost(ctx context.Context, productName string) (float64, error)
}

// NewRedisClient connects to Redis and verifies the connection with a ping.
func NewRedisClient(ctx context.Context, conf config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return rdb, nil
}

// RedisCostCache shares resolved unit costs between processes. Each cost is
// stored as a string at key "priceopt:cost:{product}" with a TTL. Redis
// failures are logged and the wrapped source answers instead.
type RedisCostCache struct {
	logger *zap.Logger
	rdb    redis.Cmdable
	next   CostSource
	ttl    time.Duration
}

// NewRedisCostCache wraps next with a Redis cache.
func NewRedisCostCache(logger *zap.Logger, rdb redis.Cmdable, next CostSource, ttl time.Duration) *RedisCostCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCostCache{logger: logger, rdb: rdb, next: next, ttl: ttl}
}

func costKey(productName string) string {
	return "priceopt:cost:" + productName
}

// EstimateCost returns the cached cost of a product, resolving and storing it
// on a miss.
func (c *RedisCostCache) EstimateCost(ctx context.Context, productName string) (float64, error) {
	key := costKey(productName)

	cached, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		cost, parseErr := strconv.ParseFloat(cached, 64)
		if parseErr == nil {
			return cost, nil
		}
		c.logger.Warn("discarding unparsable cached cost",
			zap.String("op", "catalog.RedisCostCache.EstimateCost"),
			zap.String("key", key),
			zap.Error(parseErr),
		)
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("redis cost lookup failed",
			zap.String("op", "catalog.RedisCostCache.EstimateCost"),
			zap.String("key", key),
			zap.Error(err),
		)
	}

	cost, err := c.next.EstimateCost(ctx, productName)
	if err != nil {
		return 0, err
	}

	value := strconv.FormatFloat(cost, 'f', -1, 64)
	if err := c.rdb.Set(ctx, key, value, c.ttl).Err(); err != nil {
		c.logger.Warn("redis cost store failed",
			zap.String("op", "catalog.RedisCostCache.EstimateCost"),
			zap.String("key", key),
			zap.Error(err),
		)
	}
	return cost, nil
}
