package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"tree-adopt/internal/geofence"
	"tree-adopt/internal/logger"
	"tree-adopt/internal/metrics"
	"tree-adopt/internal/store"
)

func (s *server) pins(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listPins(w, r)
	case http.MethodPost:
		s.createPin(w, r)
	default:
		methodNotAllowed(w)
	}
}

// 列表：管理令牌返回完整记录，否则隐去领养人信息
func (s *server) listPins(w http.ResponseWriter, r *http.Request) {
	ps, err := s.Pins.ListPins(r.Context())
	if err != nil {
		logger.L().Error("pins_list_error", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch pins")
		return
	}
	if s.isAdmin(r) {
		if ps == nil {
			ps = []store.Pin{}
		}
		writeJSON(w, http.StatusOK, ps)
		return
	}
	out := make([]publicPin, 0, len(ps))
	for _, p := range ps {
		out = append(out, publicPin{ID: p.ID, Latitude: p.Latitude, Longitude: p.Longitude, TreeLabel: p.TreeLabel})
	}
	writeJSON(w, http.StatusOK, out)
}

// 文档注释：放置领养图钉
// 约束：坐标必须为 JSON 数值且在合法范围内；启用区域存在时须落在其中之一，否则 403；
// 同一坐标重复领养返回 409。
func (s *server) createPin(w http.ResponseWriter, r *http.Request) {
	var req pinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Label = strings.TrimSpace(req.Label)
	if req.Latitude == nil || req.Longitude == nil || req.Name == "" || req.Email == "" || req.Label == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	pt, err := geofence.NewPoint(*req.Latitude, *req.Longitude)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid coordinates")
		return
	}
	ip := clientIP(r)
	m, ok := s.admission(r.Context(), pt)
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "Planting zones are temporarily unavailable")
		return
	}
	if !m.Admitted {
		logger.L().Info("pin_rejected", "ip", ip, "lat", pt.Lat, "lng", pt.Lng, "attempted", m.Attempted != nil)
		writeError(w, http.StatusForbidden, rejectMessage(m))
		return
	}
	fp := pinFingerprint(ip, pt)
	if s.recentlyAdopted(r, fp) {
		logger.L().Debug("pin_dedupe_hit", "ip", ip)
		writeError(w, http.StatusConflict, store.ErrDuplicatePin.Error())
		return
	}
	out, err := s.Pins.CreatePin(r.Context(), store.Pin{
		Latitude:  pt.Lat,
		Longitude: pt.Lng,
		UserName:  req.Name,
		UserEmail: req.Email,
		TreeLabel: req.Label,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicatePin) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		logger.L().Error("pin_create_error", "lat", pt.Lat, "lng", pt.Lng, "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to save pin")
		return
	}
	if s.filter != nil {
		if err := s.filter.Mark(r.Context(), fp); err != nil {
			logger.L().Warn("pin_dedupe_mark_error", "err", err)
		}
	}
	metrics.PinsCreatedTotal.Inc()
	zone := ""
	if m.Zone != nil {
		zone = m.Zone.Name
	}
	logger.L().Info("pin_created", "id", out.ID, "ip", ip, "zone", zone)
	writeJSON(w, http.StatusCreated, out)
}

// 同一客户端刚在该坐标领养成功时直接返回，不再访问数据库；过滤器出错时放行交给唯一约束
func (s *server) recentlyAdopted(r *http.Request, fp []byte) bool {
	if s.filter == nil {
		return false
	}
	seen, err := s.filter.Seen(r.Context(), fp)
	if err != nil {
		logger.L().Warn("pin_dedupe_error", "err", err)
		return false
	}
	return seen
}
