// 包 roads：区域“最近道路”标签计算（最远点对 + 反地理编码）
package roads

import (
	"context"
	"tree-adopt/internal/geofence"
	"tree-adopt/internal/logger"
	"tree-adopt/internal/metrics"

	"github.com/sourcegraph/conc"
)

const (
	PlaceholderInsufficient = "Insufficient coordinates"
	PlaceholderUnknown      = "Unable to determine nearest roads"
	PlaceholderError        = "Error calculating nearest roads"
)

// 文档注释：反地理编码协作方
// 约束：返回坐标附近的街道名（可含门牌号）；无可用结果时返回空串，失败时返回 error。
type Geocoder interface {
	ReverseGeocode(ctx context.Context, pt geofence.Point) (string, error)
}

// GeocoderFunc 将普通函数适配为 Geocoder
type GeocoderFunc func(ctx context.Context, pt geofence.Point) (string, error)

func (f GeocoderFunc) ReverseGeocode(ctx context.Context, pt geofence.Point) (string, error) {
	return f(ctx, pt)
}

// Labeler 绑定一个 Geocoder，供批处理与 HTTP 层复用
type Labeler struct {
	Geocoder Geocoder
}

func NewLabeler(g Geocoder) *Labeler { return &Labeler{Geocoder: g} }

func (l *Labeler) Label(ctx context.Context, poly geofence.Polygon) string {
	return ComputeLabel(ctx, poly, l.Geocoder)
}

// 文档注释：计算区域的最近道路标签
// 背景：取多边形中距离最远的两个顶点，分别反查街道名，拼接为 “A - B”。
// 约束：总是返回字符串，不向调用方传播错误。
// - 少于 3 个顶点返回 PlaceholderInsufficient；
// - 两次查询并发执行后汇合；单次查询报错视为无结果；
// - 两者均无结果返回 PlaceholderUnknown；
// - 协作方 panic 在汇合处恢复，返回 PlaceholderError。
func ComputeLabel(ctx context.Context, poly geofence.Polygon, g Geocoder) string {
	if len(poly) < geofence.MinPolygonPoints {
		metrics.LabelsTotal.WithLabelValues("insufficient").Inc()
		return PlaceholderInsufficient
	}
	a, b, err := geofence.FarthestPair(poly)
	if err != nil {
		logger.L().Error("roads_farthest_pair_error", "err", err)
		metrics.LabelsTotal.WithLabelValues("error").Inc()
		return PlaceholderError
	}
	var addrA, addrB string
	var wg conc.WaitGroup
	wg.Go(func() { addrA = lookup(ctx, g, a) })
	wg.Go(func() { addrB = lookup(ctx, g, b) })
	if r := wg.WaitAndRecover(); r != nil {
		logger.L().Error("roads_geocode_panic", "err", r.AsError())
		metrics.LabelsTotal.WithLabelValues("error").Inc()
		return PlaceholderError
	}
	label := combine(addrA, addrB)
	if label == PlaceholderUnknown {
		metrics.LabelsTotal.WithLabelValues("unknown").Inc()
	} else {
		metrics.LabelsTotal.WithLabelValues("ok").Inc()
	}
	logger.L().Debug("roads_label", "a", a, "b", b, "label", label)
	return label
}

func lookup(ctx context.Context, g Geocoder, pt geofence.Point) string {
	s, err := g.ReverseGeocode(ctx, pt)
	if err != nil {
		logger.L().Warn("roads_geocode_error", "lat", pt.Lat, "lng", pt.Lng, "err", err)
		return ""
	}
	return s
}

func combine(a, b string) string {
	switch {
	case a != "" && b != "":
		return a + " - " + b
	case a != "":
		return a
	case b != "":
		return b
	}
	return PlaceholderUnknown
}
