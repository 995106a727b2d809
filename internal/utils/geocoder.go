package utils

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"tree-adopt/internal/geocache"
	"tree-adopt/internal/gmaps"
	"tree-adopt/internal/logger"
	"tree-adopt/internal/roads"

	"github.com/redis/go-redis/v9"
)

// 文档注释：由环境变量构建最近道路标签器
// 背景：服务端与批量重算命令共用同一套地理编码栈：Google 反向地理编码 + 进程内 LRU + 可选 Redis 二级缓存。
// 约束：未配置 GOOGLE_MAPS_API_KEY 时仍返回可用的标签器，所有查询失败并得到“无法确定”占位标签。
func LabelerFromEnv(rc *redis.Client) *roads.Labeler {
	key := os.Getenv("GOOGLE_MAPS_API_KEY")
	if key == "" {
		logger.L().Warn("geocode_key_missing")
	}
	lang := os.Getenv("GEOCODE_LANGUAGE")
	if lang == "" {
		lang = "el"
	}
	timeout := 5 * time.Second
	if v := os.Getenv("GEOCODE_TIMEOUT_MS"); v != "" {
		if n, e := strconv.Atoi(v); e == nil && n > 0 {
			timeout = time.Duration(n) * time.Millisecond
		}
	}
	var ttl time.Duration
	if v := os.Getenv("GEOCODE_CACHE_TTL_S"); v != "" {
		if n, e := strconv.Atoi(v); e == nil && n > 0 {
			ttl = time.Duration(n) * time.Second
		}
	}
	client := gmaps.NewClient(key, lang, &http.Client{Timeout: timeout})
	logger.L().Debug("geocoder_ready", "language", lang, "timeout_ms", timeout.Milliseconds(), "redis", rc != nil)
	return roads.NewLabeler(geocache.NewCached(client, rc, ttl))
}
