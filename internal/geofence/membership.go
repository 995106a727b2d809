package geofence

// 文档注释：筛选启用的区域，保持输入顺序
func ActiveZones(zones []Zone) []Zone {
	out := make([]Zone, 0, len(zones))
	for _, z := range zones {
		if z.Enabled {
			out = append(out, z)
		}
	}
	return out
}

// 文档注释：判定点是否允许放置
// 约束：不存在任何启用区域时不做地理限制，恒返回 true；否则命中任一启用区域即可。
func IsAdmitted(pt Point, zones []Zone) bool {
	active := ActiveZones(zones)
	if len(active) == 0 {
		return true
	}
	for i := range active {
		if Contains(pt, active[i].Polygon) {
			return true
		}
	}
	return false
}

// 文档注释：返回包含该点的第一个启用区域（按输入顺序），无则返回 nil
func FindOwningZone(pt Point, zones []Zone) *Zone {
	for i := range zones {
		if zones[i].Enabled && Contains(pt, zones[i].Polygon) {
			z := zones[i]
			return &z
		}
	}
	return nil
}

// 文档注释：区域归属判定结果
// Restricted：存在至少一个启用区域（即启用了地理限制）。
// Zone：命中的启用区域；Attempted：命中的已停用区域，仅用于拒绝时提示。
type Membership struct {
	Admitted   bool
	Restricted bool
	Zone       *Zone
	Attempted  *Zone
}

// 文档注释：一次性给出准入结果与诊断信息
// 背景：调用方据此决定接受放置，或生成包含区域名的拒绝提示。
func Check(pt Point, zones []Zone) Membership {
	var m Membership
	for i := range zones {
		if zones[i].Enabled {
			m.Restricted = true
			break
		}
	}
	m.Zone = FindOwningZone(pt, zones)
	m.Admitted = !m.Restricted || m.Zone != nil
	if !m.Admitted {
		for i := range zones {
			if !zones[i].Enabled && Contains(pt, zones[i].Polygon) {
				z := zones[i]
				m.Attempted = &z
				break
			}
		}
	}
	return m
}
