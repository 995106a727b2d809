package migrate

import (
	"context"
	"database/sql"

	"tree-adopt/internal/logger"
)

// 背景：首次运行自动创建图钉与区域表；旧库补齐 nearest_roads 列
// 约束：全部使用 IF NOT EXISTS，可重复执行
var statements = []string{
	`CREATE TABLE IF NOT EXISTS tree_pins (
        id SERIAL PRIMARY KEY,
        latitude DECIMAL(10, 8) NOT NULL,
        longitude DECIMAL(11, 8) NOT NULL,
        user_name VARCHAR(255) NOT NULL,
        user_email VARCHAR(255) NOT NULL,
        tree_label VARCHAR(255) NOT NULL,
        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
        UNIQUE(latitude, longitude)
    )`,
	`CREATE TABLE IF NOT EXISTS planting_zones (
        id SERIAL PRIMARY KEY,
        name VARCHAR(255) NOT NULL,
        description TEXT,
        coordinates JSONB NOT NULL,
        enabled BOOLEAN DEFAULT true,
        nearest_roads TEXT,
        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
        updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
    )`,
	`ALTER TABLE planting_zones ADD COLUMN IF NOT EXISTS nearest_roads TEXT`,
	`CREATE INDEX IF NOT EXISTS idx_planting_zones_enabled ON planting_zones(enabled)`,
}

func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, s := range statements {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}

// HasNearestRoadsColumn 校验 nearest_roads 列是否存在
func HasNearestRoadsColumn(ctx context.Context, db *sql.DB) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(1) FROM information_schema.columns
        WHERE table_name = 'planting_zones' AND column_name = 'nearest_roads'`).Scan(&n)
	return n > 0, err
}
