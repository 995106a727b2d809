package geofence

// 文档注释：点入多边形判定（Even-Odd 射线法）
// 背景：以点为起点向东发射水平射线，统计与各边的交叉次数，奇数为在内。x 取经度、y 取纬度。
// 约束：点恰在边或顶点上的结果不做约定，取决于严格不等式的浮点比较；不足 3 点的多边形恒为 false。
func Contains(pt Point, poly Polygon) bool {
	n := len(poly)
	if n < MinPolygonPoints {
		return false
	}
	// 包围盒外的点射线必然不与任何边相交
	if !poly.Bound().Contains(pt.orb()) {
		return false
	}
	return rayCast(pt, poly)
}

func rayCast(pt Point, poly Polygon) bool {
	n := len(poly)
	inside := false
	x := pt.Lng
	y := pt.Lat
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := poly[i].Lng, poly[i].Lat
		xj, yj := poly[j].Lng, poly[j].Lat
		// (yi > y) != (yj > y) 成立时 yi != yj，除法安全
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}
