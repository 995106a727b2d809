// 包 api：集中注册 HTTP API 路由，主入口挂载到 API_BASE 前缀
package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"tree-adopt/internal/metrics"
	"tree-adopt/internal/relabel"

	"github.com/redis/go-redis/v9"
)

// Deps：路由依赖
// 约束：AdminToken 为空时所有管理接口均拒绝访问；Redis 为空时不做提交去重
type Deps struct {
	Zones              ZoneStore
	Pins               PinStore
	Snapshot           ZoneSnapshot
	Labeler            relabel.Labeler
	AdminToken         string
	RelabelConcurrency int
	Redis              *redis.Client
}

type server struct {
	Deps
	filter submitFilter
}

// 构建并返回 API 路由：独立 ServeMux 便于在主入口挂载到 /api 前缀
func BuildRoutes(d Deps) *http.ServeMux {
	s := &server{Deps: d}
	if d.Redis != nil {
		s.filter = &bloomFilter{rc: d.Redis}
	}
	return s.routes()
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/zones", instrument("zones", http.HandlerFunc(s.zones)))
	mux.Handle("/zones/update-roads", instrument("zones_update_roads", http.HandlerFunc(s.updateRoads)))
	mux.Handle("/zones/check", instrument("zones_check", http.HandlerFunc(s.checkPoint)))
	mux.Handle("/zones.geojson", instrument("zones_geojson", http.HandlerFunc(s.zonesGeoJSON)))
	mux.Handle("/pins", instrument("pins", http.HandlerFunc(s.pins)))
	return mux
}

func instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t0 := time.Now()
		metrics.RequestsTotal.WithLabelValues(route).Inc()
		next.ServeHTTP(w, r)
		metrics.RequestDurationMs.WithLabelValues(route).Observe(float64(time.Since(t0).Milliseconds()))
	})
}

func (s *server) isAdmin(r *http.Request) bool {
	t := r.Header.Get("x-admin-token")
	if s.AdminToken == "" || t == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(t), []byte(s.AdminToken)) == 1
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}
