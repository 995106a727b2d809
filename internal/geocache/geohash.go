package geocache

// 文档注释：geohash 编码（base32）
// 背景：作为缓存键，精度 9 约 5m，足以区分相邻门牌。
// 约束：只用于构造键，不做解码与邻域枚举。
var base32 = []byte("0123456789bcdefghjkmnpqrstuvwxyz")

func Geohash(lat, lng float64, precision int) string {
	latInt := [2]float64{-90, 90}
	lngInt := [2]float64{-180, 180}
	bit, ch := 0, 0
	even := true
	out := make([]byte, 0, precision)
	for len(out) < precision {
		if even {
			mid := (lngInt[0] + lngInt[1]) / 2
			if lng >= mid {
				ch |= 16 >> bit
				lngInt[0] = mid
			} else {
				lngInt[1] = mid
			}
		} else {
			mid := (latInt[0] + latInt[1]) / 2
			if lat >= mid {
				ch |= 16 >> bit
				latInt[0] = mid
			} else {
				latInt[1] = mid
			}
		}
		even = !even
		if bit < 4 {
			bit++
		} else {
			out = append(out, base32[ch])
			bit, ch = 0, 0
		}
	}
	return string(out)
}
