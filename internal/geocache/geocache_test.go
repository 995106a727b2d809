package geocache

import (
	"context"
	"errors"
	"testing"
	"time"

	"tree-adopt/internal/geofence"
	"tree-adopt/internal/roads"
)

func TestGeohashKnownValues(t *testing.T) {
	// 参考值：ezs42 为 geohash 经典示例 (42.6, -5.6)
	if got := Geohash(42.6, -5.6, 5); got != "ezs42" {
		t.Fatalf("Geohash = %q, want ezs42", got)
	}
	if got := Geohash(57.64911, 10.40744, 11); got != "u4pruydqqvj" {
		t.Fatalf("Geohash = %q, want u4pruydqqvj", got)
	}
	if a, b := Key(geofence.Point{Lat: 37.9755, Lng: 23.7348}), Key(geofence.Point{Lat: 37.9755, Lng: 23.7348}); a != b {
		t.Fatalf("Key not stable: %s vs %s", a, b)
	}
}

func TestLRUExpiryAndEviction(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRU(2, time.Minute).WithClock(func() time.Time { return now })
	c.Set("a", "1")
	c.Set("b", "2")
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("Get(a) = %q, %v", v, ok)
	}
	c.Set("c", "3") // b 为最久未用，被淘汰
	if _, ok := c.Get("b"); ok {
		t.Fatalf("Get(b) hit after eviction")
	}
	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("Get(a) hit after expiry")
	}
}

func TestCachedOnlyCachesNonEmptySuccess(t *testing.T) {
	calls := 0
	answers := map[geofence.Point]string{{Lat: 1, Lng: 1}: "Ermou"}
	next := roads.GeocoderFunc(func(ctx context.Context, pt geofence.Point) (string, error) {
		calls++
		if pt.Lat == 2 {
			return "", errors.New("timeout")
		}
		return answers[pt], nil
	})
	c := NewCached(next, nil, time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if v, err := c.ReverseGeocode(ctx, geofence.Point{Lat: 1, Lng: 1}); err != nil || v != "Ermou" {
			t.Fatalf("ReverseGeocode = %q, %v", v, err)
		}
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	_, _ = c.ReverseGeocode(ctx, geofence.Point{Lat: 3, Lng: 3})
	_, _ = c.ReverseGeocode(ctx, geofence.Point{Lat: 3, Lng: 3})
	if calls != 3 {
		t.Fatalf("empty results cached: calls = %d, want 3", calls)
	}
	if _, err := c.ReverseGeocode(ctx, geofence.Point{Lat: 2, Lng: 2}); err == nil {
		t.Fatalf("error not propagated")
	}
}
