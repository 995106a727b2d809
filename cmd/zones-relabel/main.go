// 批量重算全部种植区域的最近道路标签并写回数据库
// 用法：go run ./cmd/zones-relabel
// 约束：任一区域失败时以退出码 1 结束，其余区域照常处理
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"tree-adopt/internal/logger"
	"tree-adopt/internal/migrate"
	"tree-adopt/internal/relabel"
	"tree-adopt/internal/store"
	"tree-adopt/internal/utils"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	l := logger.Setup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		l.Error("db_open_error", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := migrate.EnsureSchema(ctx, db); err != nil {
		l.Error("schema_error", "err", err)
		os.Exit(1)
	}
	if ok, err := migrate.HasNearestRoadsColumn(ctx, db); err != nil || !ok {
		l.Error("schema_verify_error", "column", "nearest_roads", "err", err)
		os.Exit(1)
	}

	rc := utils.OpenRedisFromEnv()
	if rc != nil {
		defer rc.Close()
	}
	n := 1
	if v := os.Getenv("RELABEL_CONCURRENCY"); v != "" {
		if x, e := strconv.Atoi(v); e == nil && x > 0 {
			n = x
		}
	}
	r := &relabel.Runner{Zones: store.AttachDB(db), Labeler: utils.LabelerFromEnv(rc), Concurrency: n}
	results, err := r.Run(ctx)
	if err != nil {
		l.Error("relabel_error", "err", err)
		os.Exit(1)
	}
	if failed := relabel.Failed(results); len(failed) > 0 {
		l.Error("relabel_incomplete", "failed_ids", failed)
		os.Exit(1)
	}
	l.Info("relabel_complete", "zones", len(results))
}
