// 包 store：PostgreSQL 数据访问层，负责种植区域与领养图钉的读写
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tree-adopt/internal/geofence"
	"tree-adopt/internal/logger"

	"github.com/lib/pq"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrDuplicatePin 同一坐标已有领养记录（唯一约束冲突）
	ErrDuplicatePin = errors.New("a tree has already been adopted at this location")
)

const uniqueViolation = "23505"

// Store：数据库访问入口，持有连接池
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

// Pin：一次树木领养记录
type Pin struct {
	ID        int64     `json:"id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	UserName  string    `json:"user_name"`
	UserEmail string    `json:"user_email"`
	TreeLabel string    `json:"tree_label"`
	CreatedAt time.Time `json:"created_at"`
}

const zoneColumns = `id, name, COALESCE(description, ''), coordinates, enabled, nearest_roads, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

// scanZone：读取一行区域记录；coordinates 严格解析，脏数据直接报错
func scanZone(row scanner) (geofence.Zone, error) {
	var z geofence.Zone
	var coords []byte
	var roads sql.NullString
	if err := row.Scan(&z.ID, &z.Name, &z.Description, &coords, &z.Enabled, &roads, &z.CreatedAt, &z.UpdatedAt); err != nil {
		return z, err
	}
	poly, err := geofence.DecodePolygon(coords)
	if err != nil {
		return z, fmt.Errorf("zone %d coordinates: %w", z.ID, err)
	}
	z.Polygon = poly
	if roads.Valid {
		v := roads.String
		z.NearestRoads = &v
	}
	return z, nil
}

type zoneRows interface {
	scanner
	Next() bool
	Err() error
}

func (s *Store) queryZones(ctx context.Context, q string, args ...any) ([]geofence.Zone, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectZones(rows)
}

// collectZones：坐标无法解析的行记录日志后跳过，不影响其余区域
// 约束：扫描本身失败（列类型不符、连接中断）仍整体返回错误
func collectZones(rows zoneRows) ([]geofence.Zone, error) {
	out := []geofence.Zone{}
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			if errors.Is(err, geofence.ErrInvalidCoordinate) {
				logger.L().Error("zone_row_skipped", "id", z.ID, "name", z.Name, "err", err)
				continue
			}
			return nil, err
		}
		out = append(out, z)
	}
	return out, rows.Err()
}

// ListZones：全部区域，按创建时间倒序
func (s *Store) ListZones(ctx context.Context) ([]geofence.Zone, error) {
	return s.queryZones(ctx, `SELECT `+zoneColumns+` FROM planting_zones ORDER BY created_at DESC`)
}

// ListEnabledZones：仅启用区域，按创建时间倒序
func (s *Store) ListEnabledZones(ctx context.Context) ([]geofence.Zone, error) {
	return s.queryZones(ctx, `SELECT `+zoneColumns+` FROM planting_zones WHERE enabled = true ORDER BY created_at DESC`)
}

func (s *Store) GetZone(ctx context.Context, id int64) (geofence.Zone, error) {
	z, err := scanZone(s.db.QueryRowContext(ctx, `SELECT `+zoneColumns+` FROM planting_zones WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return z, ErrNotFound
	}
	return z, err
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// CreateZone：新建区域，返回数据库生成的记录
func (s *Store) CreateZone(ctx context.Context, z geofence.Zone) (geofence.Zone, error) {
	coords, err := geofence.EncodePolygon(z.Polygon)
	if err != nil {
		return z, err
	}
	row := s.db.QueryRowContext(ctx, `INSERT INTO planting_zones (name, description, coordinates, enabled, nearest_roads)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING `+zoneColumns,
		z.Name, z.Description, string(coords), z.Enabled, nullable(z.NearestRoads))
	return scanZone(row)
}

// UpdateZone：整体更新区域（名称、描述、坐标、启用、最近道路）
func (s *Store) UpdateZone(ctx context.Context, z geofence.Zone) (geofence.Zone, error) {
	coords, err := geofence.EncodePolygon(z.Polygon)
	if err != nil {
		return z, err
	}
	row := s.db.QueryRowContext(ctx, `UPDATE planting_zones
        SET name = $2, description = $3, coordinates = $4, enabled = $5, nearest_roads = $6, updated_at = CURRENT_TIMESTAMP
        WHERE id = $1
        RETURNING `+zoneColumns,
		z.ID, z.Name, z.Description, string(coords), z.Enabled, nullable(z.NearestRoads))
	out, err := scanZone(row)
	if errors.Is(err, sql.ErrNoRows) {
		return out, ErrNotFound
	}
	return out, err
}

func (s *Store) SetZoneEnabled(ctx context.Context, id int64, enabled bool) (geofence.Zone, error) {
	row := s.db.QueryRowContext(ctx, `UPDATE planting_zones SET enabled = $2, updated_at = CURRENT_TIMESTAMP
        WHERE id = $1 RETURNING `+zoneColumns, id, enabled)
	out, err := scanZone(row)
	if errors.Is(err, sql.ErrNoRows) {
		return out, ErrNotFound
	}
	return out, err
}

// UpdateNearestRoads：只写派生标签，不触碰几何与启用状态
func (s *Store) UpdateNearestRoads(ctx context.Context, id int64, label string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE planting_zones SET nearest_roads = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`, id, label)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteZone(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM planting_zones WHERE id = $1`, id)
	if err == nil {
		logger.L().Info("zone_deleted", "id", id)
	}
	return err
}

// 文档注释：新建领养图钉
// 约束：(latitude, longitude) 唯一，冲突时返回 ErrDuplicatePin；准入判定由调用方在写入前完成。
func (s *Store) CreatePin(ctx context.Context, p Pin) (Pin, error) {
	row := s.db.QueryRowContext(ctx, `INSERT INTO tree_pins (latitude, longitude, user_name, user_email, tree_label)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, latitude, longitude, user_name, user_email, tree_label, created_at`,
		p.Latitude, p.Longitude, p.UserName, p.UserEmail, p.TreeLabel)
	var out Pin
	err := row.Scan(&out.ID, &out.Latitude, &out.Longitude, &out.UserName, &out.UserEmail, &out.TreeLabel, &out.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return out, ErrDuplicatePin
		}
		return out, err
	}
	return out, nil
}

func (s *Store) ListPins(ctx context.Context) ([]Pin, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, latitude, longitude, user_name, user_email, tree_label, created_at
        FROM tree_pins ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Pin{}
	for rows.Next() {
		var p Pin
		if err := rows.Scan(&p.ID, &p.Latitude, &p.Longitude, &p.UserName, &p.UserEmail, &p.TreeLabel, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
