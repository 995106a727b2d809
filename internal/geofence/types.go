// 包 geofence：种植区域的几何判定（距离、点入多边形、区域归属、最远点对）
package geofence

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/paulmach/orb"
)

var (
	// ErrInvalidCoordinate 坐标非数值、非有限或超出经纬度范围
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	// ErrInsufficientPoints 点数不足以计算最远点对
	ErrInsufficientPoints = errors.New("insufficient points")
)

// 点坐标（WGS84，度）
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// 文档注释：构造并校验点坐标
// 约束：非有限值（NaN/Inf）或 |lat|>90、|lng|>180 返回 ErrInvalidCoordinate，不做截断或修正。
func NewPoint(lat, lng float64) (Point, error) {
	p := Point{Lat: lat, Lng: lng}
	if err := p.Validate(); err != nil {
		return Point{}, err
	}
	return p, nil
}

func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || math.IsNaN(p.Lng) || math.IsInf(p.Lng, 0) {
		return fmt.Errorf("%w: non-finite (%v, %v)", ErrInvalidCoordinate, p.Lat, p.Lng)
	}
	if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("%w: out of range (%v, %v)", ErrInvalidCoordinate, p.Lat, p.Lng)
	}
	return nil
}

// orb 约定 X=经度、Y=纬度
func (p Point) orb() orb.Point { return orb.Point{p.Lng, p.Lat} }

// Polygon：闭合环的顶点序列，末点到首点的边隐含，不重复存储首点
type Polygon []Point

// MinPolygonPoints 有效区域多边形的最少顶点数
const MinPolygonPoints = 3

// 文档注释：校验多边形
// 约束：至少 3 个顶点且每个顶点合法；区域写入前调用，几何判定本身不重复校验。
func (p Polygon) Validate() error {
	if len(p) < MinPolygonPoints {
		return fmt.Errorf("%w: polygon has %d points, need %d", ErrInsufficientPoints, len(p), MinPolygonPoints)
	}
	for i, pt := range p {
		if err := pt.Validate(); err != nil {
			return fmt.Errorf("vertex %d: %w", i, err)
		}
	}
	return nil
}

// Bound 返回包围盒，用于快速排除
func (p Polygon) Bound() orb.Bound {
	if len(p) == 0 {
		return orb.Bound{}
	}
	b := orb.Bound{Min: p[0].orb(), Max: p[0].orb()}
	for _, pt := range p[1:] {
		b = b.Extend(pt.orb())
	}
	return b
}

// Ring 转为 orb 闭合环（首尾相接），用于 GeoJSON 输出
func (p Polygon) Ring() orb.Ring {
	r := make(orb.Ring, 0, len(p)+1)
	for _, pt := range p {
		r = append(r, pt.orb())
	}
	if len(p) > 0 {
		r = append(r, p[0].orb())
	}
	return r
}

// 文档注释：种植区域
// 背景：由外部存储持有；几何层只读取快照，NearestRoads 为可空的派生标签。
type Zone struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Polygon      Polygon   `json:"coordinates"`
	Enabled      bool      `json:"enabled"`
	NearestRoads *string   `json:"nearest_roads"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
