// 包 relabel：批量重算全部区域的最近道路标签并写回
package relabel

import (
	"context"
	"fmt"
	"sort"
	"time"

	"tree-adopt/internal/geofence"
	"tree-adopt/internal/logger"
	"tree-adopt/internal/metrics"

	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
)

// Source：区域的读取与标签写回
type Source interface {
	ListZones(ctx context.Context) ([]geofence.Zone, error)
	UpdateNearestRoads(ctx context.Context, id int64, label string) error
}

// Labeler：为多边形生成标签，约定总是返回字符串
type Labeler interface {
	Label(ctx context.Context, poly geofence.Polygon) string
}

// Result：单个区域的处理结果
type Result struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	NearestRoads string `json:"nearestRoads,omitempty"`
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
}

// 文档注释：批量重算执行器
// 约束：单个区域失败（写库报错或 panic）只记录在该区域结果中，不中断其余区域；
// Concurrency<=1 时顺序执行，与区域列表顺序一致。
type Runner struct {
	Zones       Source
	Labeler     Labeler
	Concurrency int
}

// Run 返回每个区域的结果（按输入顺序）；仅在无法列出区域时返回 error
func (r *Runner) Run(ctx context.Context) ([]Result, error) {
	zones, err := r.Zones.ListZones(ctx)
	if err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}
	logger.L().Info("relabel_begin", "zones", len(zones))
	t0 := time.Now()
	n := r.Concurrency
	if n < 1 {
		n = 1
	}
	results := make([]Result, len(zones))
	p := pool.New().WithMaxGoroutines(n)
	for i, z := range zones {
		i, z := i, z
		p.Go(func() {
			results[i] = r.one(ctx, z)
		})
	}
	p.Wait()
	ok := 0
	for _, res := range results {
		if res.Success {
			ok++
		}
	}
	logger.L().Info("relabel_done", "zones", len(zones), "ok", ok, "failed", len(zones)-ok, "duration_ms", time.Since(t0).Milliseconds())
	return results, nil
}

func (r *Runner) one(ctx context.Context, z geofence.Zone) Result {
	res := Result{ID: z.ID, Name: z.Name}
	var label string
	var err error
	if rec := panics.Try(func() {
		label = r.Labeler.Label(ctx, z.Polygon)
		err = r.Zones.UpdateNearestRoads(ctx, z.ID, label)
	}); rec != nil {
		err = rec.AsError()
	}
	if err != nil {
		metrics.RelabelZonesTotal.WithLabelValues("fail").Inc()
		logger.L().Error("relabel_zone_error", "id", z.ID, "name", z.Name, "err", err)
		res.Error = err.Error()
		return res
	}
	metrics.RelabelZonesTotal.WithLabelValues("ok").Inc()
	logger.L().Info("relabel_zone_ok", "id", z.ID, "name", z.Name, "nearest_roads", label)
	res.NearestRoads = label
	res.Success = true
	return res
}

// Failed 返回失败区域的 ID，升序
func Failed(results []Result) []int64 {
	var ids []int64
	for _, r := range results {
		if !r.Success {
			ids = append(ids, r.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
