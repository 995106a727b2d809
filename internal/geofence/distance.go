package geofence

import "math"

// EarthRadiusM 地球平均半径（米）
const EarthRadiusM = 6371000.0

// 文档注释：球面距离（Haversine），返回米
// 约束：对任意有限经纬度有效；对称，Distance(p, p) == 0。
func Distance(p1, p2 Point) float64 {
	phi1 := p1.Lat * math.Pi / 180
	phi2 := p2.Lat * math.Pi / 180
	dPhi := (p2.Lat - p1.Lat) * math.Pi / 180
	dLambda := (p2.Lng - p1.Lng) * math.Pi / 180
	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) + math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusM * c
}
