package zonecache

import (
	"context"
	"errors"
	"testing"
	"time"

	"tree-adopt/internal/geofence"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }

func TestCacheServesFreshSnapshot(t *testing.T) {
	clk := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	loads := 0
	c := New(func(ctx context.Context) ([]geofence.Zone, error) {
		loads++
		return []geofence.Zone{{ID: int64(loads), Enabled: true}}, nil
	}, 5*time.Second, clk.Now)

	z, _ := c.Get(context.Background())
	clk.t = clk.t.Add(4 * time.Second)
	z2, _ := c.Get(context.Background())
	if loads != 1 || z[0].ID != 1 || z2[0].ID != 1 {
		t.Fatalf("loads = %d, want 1 within TTL", loads)
	}
	clk.t = clk.t.Add(2 * time.Second)
	z3, _ := c.Get(context.Background())
	if loads != 2 || z3[0].ID != 2 {
		t.Fatalf("loads = %d, want reload after TTL", loads)
	}
	c.Invalidate()
	_, _ = c.Get(context.Background())
	if loads != 3 {
		t.Fatalf("loads = %d, want reload after Invalidate", loads)
	}
}

func TestCacheReturnsStaleOnError(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	fail := false
	c := New(func(ctx context.Context) ([]geofence.Zone, error) {
		if fail {
			return nil, errors.New("db down")
		}
		return []geofence.Zone{{ID: 7}}, nil
	}, time.Second, clk.Now)

	if _, err := c.Get(context.Background()); err != nil {
		t.Fatalf("Get: %v", err)
	}
	fail = true
	clk.t = clk.t.Add(time.Minute)
	z, err := c.Get(context.Background())
	if err == nil || len(z) != 1 || z[0].ID != 7 {
		t.Fatalf("Get = %v, %v, want stale snapshot and error", z, err)
	}
}

func TestCacheNoSnapshotOnFirstError(t *testing.T) {
	down := errors.New("db down")
	c := New(func(ctx context.Context) ([]geofence.Zone, error) {
		return nil, down
	}, 0, nil)
	z, err := c.Get(context.Background())
	if z != nil || !errors.Is(err, ErrNoSnapshot) || !errors.Is(err, down) {
		t.Fatalf("Get = %v, %v, want nil and ErrNoSnapshot wrapping the load error", z, err)
	}
}
