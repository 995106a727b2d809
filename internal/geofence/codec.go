package geofence

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

type rawPoint struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// 文档注释：解析存储格式的顶点数组 [{"lat":..,"lng":..}, ...]
// 约束：经纬度必须是 JSON 数值；字符串、null 或缺失字段直接返回 ErrInvalidCoordinate，不做隐式转换。
func DecodePolygon(b []byte) (Polygon, error) {
	var raw []rawPoint
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCoordinate, err)
	}
	poly := make(Polygon, 0, len(raw))
	for i, r := range raw {
		if r.Lat == nil || r.Lng == nil {
			return nil, fmt.Errorf("%w: vertex %d missing lat/lng", ErrInvalidCoordinate, i)
		}
		pt, err := NewPoint(*r.Lat, *r.Lng)
		if err != nil {
			return nil, fmt.Errorf("vertex %d: %w", i, err)
		}
		poly = append(poly, pt)
	}
	return poly, nil
}

// EncodePolygon 输出与 DecodePolygon 对应的存储格式
func EncodePolygon(p Polygon) ([]byte, error) {
	if p == nil {
		p = Polygon{}
	}
	return json.Marshal(p)
}

// 文档注释：区域集合转为 GeoJSON FeatureCollection
// 背景：供地图前端或外部 GIS 工具直接加载；属性只携带元数据，几何为闭合外环。
func FeatureCollection(zones []Zone) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, z := range zones {
		f := geojson.NewFeature(orb.Polygon{z.Polygon.Ring()})
		f.ID = z.ID
		f.Properties["name"] = z.Name
		f.Properties["description"] = z.Description
		f.Properties["enabled"] = z.Enabled
		if z.NearestRoads != nil {
			f.Properties["nearest_roads"] = *z.NearestRoads
		}
		fc.Append(f)
	}
	return fc
}
