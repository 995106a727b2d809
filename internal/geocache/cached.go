package geocache

import (
	"context"
	"errors"
	"time"

	"tree-adopt/internal/geofence"
	"tree-adopt/internal/logger"
	"tree-adopt/internal/metrics"
	"tree-adopt/internal/roads"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix      = "geo:"
	hashPrecision  = 9
	DefaultTTL     = 7 * 24 * time.Hour
	defaultLRUSize = 4096
)

// 文档注释：带缓存的反地理编码器
// 背景：L1 为进程内 LRU，L2 为 Redis（可选，rc 为 nil 时跳过）；均未命中时调用 Next。
// 约束：仅缓存非空的成功结果；错误与空结果不落缓存，下次重新查询。Redis 读写失败只记日志不影响主流程。
type Cached struct {
	Next roads.Geocoder
	lru  *LRU
	rc   *redis.Client
	ttl  time.Duration
}

func NewCached(next roads.Geocoder, rc *redis.Client, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cached{Next: next, lru: NewLRU(defaultLRUSize, ttl), rc: rc, ttl: ttl}
}

// Key 返回坐标对应的缓存键
func Key(pt geofence.Point) string {
	return keyPrefix + Geohash(pt.Lat, pt.Lng, hashPrecision)
}

func (c *Cached) ReverseGeocode(ctx context.Context, pt geofence.Point) (string, error) {
	key := Key(pt)
	if v, ok := c.lru.Get(key); ok {
		metrics.GeocodeCacheHitsTotal.WithLabelValues("lru").Inc()
		return v, nil
	}
	if c.rc != nil {
		v, err := c.rc.Get(ctx, key).Result()
		switch {
		case err == nil && v != "":
			metrics.GeocodeCacheHitsTotal.WithLabelValues("redis").Inc()
			c.lru.Set(key, v)
			return v, nil
		case err != nil && !errors.Is(err, redis.Nil):
			logger.L().Warn("geocache_redis_get_error", "key", key, "err", err)
		}
	}
	metrics.GeocodeCacheMissesTotal.Inc()
	v, err := c.Next.ReverseGeocode(ctx, pt)
	if err != nil || v == "" {
		return v, err
	}
	c.lru.Set(key, v)
	if c.rc != nil {
		if err := c.rc.Set(ctx, key, v, c.ttl).Err(); err != nil {
			logger.L().Warn("geocache_redis_set_error", "key", key, "err", err)
		}
	}
	return v, nil
}
