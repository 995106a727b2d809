package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"tree-adopt/internal/geofence"
	"tree-adopt/internal/zonecache"
)

func TestAdmissionUnavailableWhenZonesNeverLoaded(t *testing.T) {
	pins := &memPins{}
	snap := zonecache.New(func(ctx context.Context) ([]geofence.Zone, error) {
		return nil, errors.New("zone 7 coordinates: invalid coordinate")
	}, time.Minute, nil)
	f := &fixture{zones: &memZones{}, pins: pins, h: BuildRoutes(Deps{Zones: &memZones{}, Pins: pins, Snapshot: snap})}

	if rec := f.do(http.MethodPost, "/pins", pinBody("-33", "151"), false); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("POST /pins status = %d, body %s; want 503", rec.Code, rec.Body.String())
	}
	if pins.calls != 0 {
		t.Fatalf("CreatePin calls = %d, want 0", pins.calls)
	}
	if rec := f.do(http.MethodGet, "/zones/check?lat=-33&lng=151", "", false); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("GET /zones/check status = %d, want 503", rec.Code)
	}
}

func TestAdmissionKeepsStaleZonesOnReloadError(t *testing.T) {
	now := time.Unix(0, 0)
	fail := false
	snap := zonecache.New(func(ctx context.Context) ([]geofence.Zone, error) {
		if fail {
			return nil, errors.New("db down")
		}
		return []geofence.Zone{{ID: 1, Name: "Kalamaria", Enabled: true, Polygon: geofence.Polygon{{Lat: 40, Lng: 22}, {Lat: 40, Lng: 23}, {Lat: 41, Lng: 23}, {Lat: 41, Lng: 22}}}}, nil
	}, time.Second, func() time.Time { return now })
	pins := &memPins{}
	f := &fixture{pins: pins, h: BuildRoutes(Deps{Zones: &memZones{}, Pins: pins, Snapshot: snap})}

	if rec := f.do(http.MethodPost, "/pins", pinBody("40.5", "22.5"), false); rec.Code != http.StatusCreated {
		t.Fatalf("inside status = %d", rec.Code)
	}
	fail = true
	now = now.Add(time.Minute)
	if rec := f.do(http.MethodPost, "/pins", pinBody("-33", "151"), false); rec.Code != http.StatusForbidden {
		t.Fatalf("outside with stale zones status = %d, want 403", rec.Code)
	}
}

type memFilter struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (m *memFilter) Seen(ctx context.Context, fp []byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seen[string(fp)], nil
}

func (m *memFilter) Mark(ctx context.Context, fp []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen[string(fp)] = true
	return nil
}

func TestSubmitFilterMarksOnlyAfterInsert(t *testing.T) {
	zs := &memZones{}
	pins := &memPins{fail: errors.New("connection reset")}
	s := &server{
		Deps:   Deps{Zones: zs, Pins: pins, Snapshot: zonecache.New(zs.ListZones, time.Minute, nil)},
		filter: &memFilter{seen: map[string]bool{}},
	}
	f := &fixture{zones: zs, pins: pins, h: s.routes()}

	if rec := f.do(http.MethodPost, "/pins", pinBody("10", "10"), false); rec.Code != http.StatusInternalServerError {
		t.Fatalf("first status = %d, want 500", rec.Code)
	}
	if rec := f.do(http.MethodPost, "/pins", pinBody("10", "10"), false); rec.Code != http.StatusCreated {
		t.Fatalf("retry after failed insert status = %d, want 201", rec.Code)
	}
	rec := f.do(http.MethodPost, "/pins", pinBody("10", "10"), false)
	if rec.Code != http.StatusConflict || !strings.Contains(rec.Body.String(), "already been adopted") {
		t.Fatalf("repeat status = %d, body %s; want 409 already adopted", rec.Code, rec.Body.String())
	}
	if pins.calls != 2 {
		t.Fatalf("CreatePin calls = %d, want 2", pins.calls)
	}
}
