package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"tree-adopt/internal/geofence"
	"tree-adopt/internal/logger"
	"tree-adopt/internal/metrics"
	"tree-adopt/internal/relabel"
	"tree-adopt/internal/store"
	"tree-adopt/internal/zonecache"
)

// 区域集合：GET 公开；POST/PUT/PATCH/DELETE 需要管理令牌
func (s *server) zones(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		s.listZones(w, r)
		return
	}
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		methodNotAllowed(w)
		return
	}
	if !s.isAdmin(r) {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	switch r.Method {
	case http.MethodPost:
		s.createZone(w, r)
	case http.MethodPut:
		s.updateZone(w, r)
	case http.MethodPatch:
		s.toggleZone(w, r)
	case http.MethodDelete:
		s.deleteZone(w, r)
	}
}

func (s *server) loadZones(ctx context.Context, r *http.Request) ([]geofence.Zone, error) {
	if r.URL.Query().Get("enabled") == "true" {
		return s.Zones.ListEnabledZones(ctx)
	}
	return s.Zones.ListZones(ctx)
}

func (s *server) listZones(w http.ResponseWriter, r *http.Request) {
	zs, err := s.loadZones(r.Context(), r)
	if err != nil {
		logger.L().Error("zones_list_error", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch planting zones")
		return
	}
	if zs == nil {
		zs = []geofence.Zone{}
	}
	writeJSON(w, http.StatusOK, zs)
}

func (s *server) zonesGeoJSON(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	zs, err := s.loadZones(r.Context(), r)
	if err != nil {
		logger.L().Error("zones_geojson_error", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch planting zones")
		return
	}
	b, err := geofence.FeatureCollection(zs).MarshalJSON()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode planting zones")
		return
	}
	w.Header().Set("content-type", "application/geo+json")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

// 解析请求体；坐标非法或不足三个点时返回可直接回显的错误信息
func decodeZone(r *http.Request, needID bool) (zoneRequest, geofence.Polygon, string) {
	var req zoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, nil, "Invalid request body"
	}
	req.Name = strings.TrimSpace(req.Name)
	if (needID && req.ID <= 0) || req.Name == "" || len(req.Coordinates) == 0 {
		return req, nil, "Missing required fields"
	}
	poly, err := geofence.DecodePolygon(req.Coordinates)
	if err != nil {
		return req, nil, "Invalid coordinates"
	}
	if err := poly.Validate(); err != nil {
		return req, nil, "A zone needs at least 3 points"
	}
	return req, poly, ""
}

func (s *server) label(ctx context.Context, poly geofence.Polygon) *string {
	if s.Labeler == nil {
		return nil
	}
	l := s.Labeler.Label(ctx, poly)
	return &l
}

func (s *server) createZone(w http.ResponseWriter, r *http.Request) {
	req, poly, msg := decodeZone(r, false)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	z := geofence.Zone{
		Name:         req.Name,
		Description:  req.Description,
		Polygon:      poly,
		Enabled:      enabled,
		NearestRoads: s.label(r.Context(), poly),
	}
	out, err := s.Zones.CreateZone(r.Context(), z)
	if err != nil {
		logger.L().Error("zone_create_error", "name", z.Name, "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to create planting zone")
		return
	}
	s.invalidate()
	logger.L().Info("zone_created", "id", out.ID, "name", out.Name, "points", len(poly))
	writeJSON(w, http.StatusCreated, out)
}

func (s *server) updateZone(w http.ResponseWriter, r *http.Request) {
	req, poly, msg := decodeZone(r, true)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	cur, err := s.Zones.GetZone(r.Context(), req.ID)
	if err != nil {
		s.storeError(w, "zone_get_error", req.ID, err)
		return
	}
	cur.Name = req.Name
	cur.Description = req.Description
	cur.Polygon = poly
	if req.Enabled != nil {
		cur.Enabled = *req.Enabled
	}
	cur.NearestRoads = s.label(r.Context(), poly)
	out, err := s.Zones.UpdateZone(r.Context(), cur)
	if err != nil {
		s.storeError(w, "zone_update_error", req.ID, err)
		return
	}
	s.invalidate()
	logger.L().Info("zone_updated", "id", out.ID, "name", out.Name, "points", len(poly))
	writeJSON(w, http.StatusOK, out)
}

func (s *server) toggleZone(w http.ResponseWriter, r *http.Request) {
	var req zoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ID <= 0 || req.Enabled == nil {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	out, err := s.Zones.SetZoneEnabled(r.Context(), req.ID, *req.Enabled)
	if err != nil {
		s.storeError(w, "zone_toggle_error", req.ID, err)
		return
	}
	s.invalidate()
	logger.L().Info("zone_toggled", "id", out.ID, "enabled", out.Enabled)
	writeJSON(w, http.StatusOK, out)
}

func (s *server) deleteZone(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Zone ID is required")
		return
	}
	if err := s.Zones.DeleteZone(r.Context(), id); err != nil {
		s.storeError(w, "zone_delete_error", id, err)
		return
	}
	s.invalidate()
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// 批量重算全部区域的最近道路标签
func (s *server) updateRoads(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.isAdmin(r) {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if s.Labeler == nil {
		writeError(w, http.StatusServiceUnavailable, "Road labelling is not configured")
		return
	}
	runner := &relabel.Runner{Zones: s.Zones, Labeler: s.Labeler, Concurrency: s.RelabelConcurrency}
	results, err := runner.Run(r.Context())
	if err != nil {
		logger.L().Error("zones_update_roads_error", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to update zones")
		return
	}
	s.invalidate()
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Zones updated successfully",
		"results": results,
	})
}

// 判定坐标是否允许种植，前端在放置图钉前调用
func (s *server) checkPoint(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	q := r.URL.Query()
	lat, err1 := strconv.ParseFloat(q.Get("lat"), 64)
	lng, err2 := strconv.ParseFloat(q.Get("lng"), 64)
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "lat and lng are required numbers")
		return
	}
	pt, err := geofence.NewPoint(lat, lng)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid coordinates")
		return
	}
	m, ok := s.admission(r.Context(), pt)
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "Planting zones are temporarily unavailable")
		return
	}
	res := checkResult{Allowed: m.Admitted, Restricted: m.Restricted}
	if m.Zone != nil {
		res.ZoneID = m.Zone.ID
		res.ZoneName = m.Zone.Name
	}
	if !m.Admitted {
		res.Message = rejectMessage(m)
	}
	writeJSON(w, http.StatusOK, res)
}

// admission 基于区域快照做准入判定；快照刷新失败时沿用旧快照
// 约束：从未成功加载过区域时 ok=false，调用方返回 503，不按“未配置区域”放行
func (s *server) admission(ctx context.Context, pt geofence.Point) (m geofence.Membership, ok bool) {
	zs, err := s.Snapshot.Get(ctx)
	if err != nil {
		if errors.Is(err, zonecache.ErrNoSnapshot) {
			logger.L().Error("zone_snapshot_unavailable", "err", err)
			metrics.AdmissionChecksTotal.WithLabelValues("unavailable").Inc()
			return m, false
		}
		logger.L().Warn("zone_snapshot_stale", "zones", len(zs), "err", err)
	}
	m = geofence.Check(pt, zs)
	result := "admitted"
	if !m.Admitted {
		result = "rejected"
	}
	metrics.AdmissionChecksTotal.WithLabelValues(result).Inc()
	return m, true
}

func rejectMessage(m geofence.Membership) string {
	if m.Attempted != nil {
		return "Planting zone \"" + m.Attempted.Name + "\" is currently disabled"
	}
	return "This location is outside the allowed planting zones"
}

func (s *server) invalidate() {
	if s.Snapshot != nil {
		s.Snapshot.Invalidate()
	}
}

func (s *server) storeError(w http.ResponseWriter, event string, id int64, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Planting zone not found")
		return
	}
	logger.L().Error(event, "id", id, "err", err)
	writeError(w, http.StatusInternalServerError, "Database error")
}
