package geofence

import "fmt"

// 文档注释：最远点对（穷举）
// 背景：区域顶点数很少，O(n²) 两两比较即可，无需空间索引。
// 约束：少于 2 个点返回 ErrInsufficientPoints；距离相等时保留先遍历到的点对；全部重合时返回前两个点。
func FarthestPair(points []Point) (Point, Point, error) {
	if len(points) < 2 {
		return Point{}, Point{}, fmt.Errorf("%w: got %d, need at least 2", ErrInsufficientPoints, len(points))
	}
	a, b := points[0], points[1]
	maxD := 0.0
	for i := 0; i < len(points); i++ {
		for j := i + 1; j < len(points); j++ {
			if d := Distance(points[i], points[j]); d > maxD {
				maxD = d
				a, b = points[i], points[j]
			}
		}
	}
	return a, b, nil
}
