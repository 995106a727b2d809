// 包 zonecache：区域快照的短时读缓存，由调用方持有
package zonecache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"tree-adopt/internal/geofence"
	"tree-adopt/internal/logger"
	"tree-adopt/internal/metrics"
)

const DefaultTTL = 5 * time.Second

// ErrNoSnapshot 从未成功加载过区域，且本次加载失败；此时区域集合未知，不能按“未配置区域”处理
var ErrNoSnapshot = errors.New("zone snapshot unavailable")

// LoadFunc 从外部存储加载区域快照
type LoadFunc func(ctx context.Context) ([]geofence.Zone, error)

// 文档注释：区域快照缓存
// 背景：每次放置图钉都要读取启用区域；短 TTL 避免每个请求都访问数据库。
// 约束：快照年龄小于 TTL 时直接返回；重新加载失败时返回旧快照并同时返回错误；从未加载成功时返回 nil 与 ErrNoSnapshot。
// 返回的切片为只读快照，调用方不得修改。
type Cache struct {
	ttl  time.Duration
	now  func() time.Time
	load LoadFunc

	mu      sync.Mutex
	zones   []geofence.Zone
	fetched time.Time
	valid   bool
	loaded  bool
}

func New(load LoadFunc, ttl time.Duration, now func() time.Time) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Cache{ttl: ttl, now: now, load: load}
}

func (c *Cache) Get(ctx context.Context) ([]geofence.Zone, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now()
	if c.valid && t.Sub(c.fetched) < c.ttl {
		return c.zones, nil
	}
	zones, err := c.load(ctx)
	if err != nil {
		metrics.ZoneCacheReloadsTotal.WithLabelValues("error").Inc()
		logger.L().Error("zonecache_load_error", "err", err, "stale", len(c.zones))
		if !c.loaded {
			return nil, fmt.Errorf("%w: %w", ErrNoSnapshot, err)
		}
		return c.zones, err
	}
	metrics.ZoneCacheReloadsTotal.WithLabelValues("ok").Inc()
	c.zones = zones
	c.fetched = t
	c.valid = true
	c.loaded = true
	logger.L().Debug("zonecache_reload", "zones", len(zones))
	return zones, nil
}

// Invalidate 使当前快照失效，下次 Get 重新加载
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.mu.Unlock()
}
