package api

import (
	"context"
	"encoding/json"

	"tree-adopt/internal/geofence"
	"tree-adopt/internal/store"
)

// ZoneStore：区域持久化（由 store.Store 实现）
type ZoneStore interface {
	ListZones(ctx context.Context) ([]geofence.Zone, error)
	ListEnabledZones(ctx context.Context) ([]geofence.Zone, error)
	GetZone(ctx context.Context, id int64) (geofence.Zone, error)
	CreateZone(ctx context.Context, z geofence.Zone) (geofence.Zone, error)
	UpdateZone(ctx context.Context, z geofence.Zone) (geofence.Zone, error)
	SetZoneEnabled(ctx context.Context, id int64, enabled bool) (geofence.Zone, error)
	DeleteZone(ctx context.Context, id int64) error
	UpdateNearestRoads(ctx context.Context, id int64, label string) error
}

// PinStore：图钉持久化（由 store.Store 实现）
type PinStore interface {
	CreatePin(ctx context.Context, p store.Pin) (store.Pin, error)
	ListPins(ctx context.Context) ([]store.Pin, error)
}

// ZoneSnapshot：准入判定读取的区域快照（由 zonecache.Cache 实现）
type ZoneSnapshot interface {
	Get(ctx context.Context) ([]geofence.Zone, error)
	Invalidate()
}

// 请求体：坐标保留原始 JSON，交由 geofence.DecodePolygon 严格解析
type zoneRequest struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Coordinates json.RawMessage `json:"coordinates"`
	Enabled     *bool           `json:"enabled"`
}

// 经纬度必须为 JSON 数值；字符串在解码阶段即失败
type pinRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Label     string   `json:"label"`
}

type checkResult struct {
	Allowed    bool   `json:"allowed"`
	Restricted bool   `json:"restricted"`
	ZoneID     int64  `json:"zoneId,omitempty"`
	ZoneName   string `json:"zoneName,omitempty"`
	Message    string `json:"message,omitempty"`
}

// 对外公开的图钉信息，不含邮箱
type publicPin struct {
	ID        int64   `json:"id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	TreeLabel string  `json:"tree_label"`
}
