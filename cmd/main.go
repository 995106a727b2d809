// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"tree-adopt/internal/api"
	"tree-adopt/internal/logger"
	"tree-adopt/internal/metrics"
	"tree-adopt/internal/middleware"
	"tree-adopt/internal/migrate"
	"tree-adopt/internal/store"
	"tree-adopt/internal/utils"
	"tree-adopt/internal/version"
	"tree-adopt/internal/zonecache"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	// 日志初始化
	l := logger.Setup()
	l.Debug("log_init_ok", "commit", version.Commit)
	apiBase := os.Getenv("API_BASE")
	if apiBase == "" {
		apiBase = "/api"
	}
	l.Debug("config_api_base", "base", apiBase)
	ui := os.Getenv("UI_DIST")
	if ui == "" {
		ui = filepath.Join("ui", "dist")
	}
	l.Debug("config_ui_dir", "dir", ui)

	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		l.Error("db_open_error", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	l.Info("db_open_ok")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := db.PingContext(ctx); err != nil {
		l.Error("db_ping_error", "err", err)
	} else {
		l.Info("db_ping_ok")
	}
	if err := migrate.EnsureSchema(ctx, db); err != nil {
		cancel()
		l.Error("schema_error", "err", err)
		os.Exit(1)
	}
	cancel()
	st := store.AttachDB(db)

	rc := utils.OpenRedisFromEnv()
	if rc == nil {
		l.Info("redis_disabled")
	} else {
		defer rc.Close()
		if err := rc.Ping(context.Background()).Err(); err != nil {
			l.Error("redis_ping_error", "err", err)
		} else {
			l.Info("redis_ping_ok")
		}
	}

	// 区域快照：准入判定需要全部区域（含停用区域，用于拒绝提示）
	zoneTTL := zonecache.DefaultTTL
	if v := os.Getenv("ZONE_CACHE_TTL_MS"); v != "" {
		if n, e := strconv.Atoi(v); e == nil && n > 0 {
			zoneTTL = time.Duration(n) * time.Millisecond
		}
	}
	snap := zonecache.New(st.ListZones, zoneTTL, nil)

	relabelN := 1
	if v := os.Getenv("RELABEL_CONCURRENCY"); v != "" {
		if n, e := strconv.Atoi(v); e == nil && n > 0 {
			relabelN = n
		}
	}
	adminToken := os.Getenv("ADMIN_TOKEN")
	if adminToken == "" {
		l.Warn("admin_token_missing")
	}

	apiMux := api.BuildRoutes(api.Deps{
		Zones:              st,
		Pins:               st,
		Snapshot:           snap,
		Labeler:            utils.LabelerFromEnv(rc),
		AdminToken:         adminToken,
		RelabelConcurrency: relabelN,
		Redis:              rc,
	})
	mux := http.NewServeMux()
	mux.Handle(apiBase+"/", http.StripPrefix(apiBase, apiMux))
	mux.Handle(apiBase+"/metrics", metrics.Handler())
	mux.HandleFunc(apiBase+"/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	fs := http.FileServer(http.Dir(ui))
	mux.Handle("/", fs)

	// NOTE: 向前端暴露 API 基础路径，避免硬编码
	mux.HandleFunc("/config.js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/javascript; charset=utf-8")
		w.Header().Set("cache-control", "no-store")
		_, _ = w.Write([]byte("window.__API_BASE__='" + apiBase + "'"))
		_, _ = w.Write([]byte("\n"))
		_, _ = w.Write([]byte("window.__COMMIT_SHA__='" + version.Commit + "'"))
	})

	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":8080"
	}
	handler := logger.AccessMiddleware(l)(mux)
	handler = middleware.Wrap(handler)
	s := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		l.Info("shutdown_begin")
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.Shutdown(ctx); err != nil {
			l.Error("shutdown_error", "err", err)
		}
	}()

	l.Info("listening", "addr", addr)
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("listen_error", "err", err)
		os.Exit(1)
	}
	l.Info("shutdown_done")
}
