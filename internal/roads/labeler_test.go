package roads

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tree-adopt/internal/geofence"
)

var zone = geofence.Polygon{{Lat: 37.97, Lng: 23.72}, {Lat: 37.99, Lng: 23.73}, {Lat: 37.98, Lng: 23.75}}

func byPoint(m map[geofence.Point]string, fail map[geofence.Point]bool) Geocoder {
	return GeocoderFunc(func(ctx context.Context, pt geofence.Point) (string, error) {
		if fail[pt] {
			return "", errors.New("network down")
		}
		return m[pt], nil
	})
}

func farthest(t *testing.T) (geofence.Point, geofence.Point) {
	t.Helper()
	a, b, err := geofence.FarthestPair(zone)
	if err != nil {
		t.Fatalf("FarthestPair: %v", err)
	}
	return a, b
}

func TestComputeLabelBoth(t *testing.T) {
	a, b := farthest(t)
	g := byPoint(map[geofence.Point]string{a: "Ermou 12", b: "Athinas"}, nil)
	if got := ComputeLabel(context.Background(), zone, g); got != "Ermou 12 - Athinas" {
		t.Fatalf("label = %q, want %q", got, "Ermou 12 - Athinas")
	}
}

func TestComputeLabelOneSide(t *testing.T) {
	a, b := farthest(t)
	g := byPoint(map[geofence.Point]string{a: "Main St"}, nil)
	if got := ComputeLabel(context.Background(), zone, g); got != "Main St" {
		t.Fatalf("label = %q, want %q", got, "Main St")
	}
	g = byPoint(map[geofence.Point]string{a: "Main St", b: "Side St"}, map[geofence.Point]bool{a: true})
	if got := ComputeLabel(context.Background(), zone, g); got != "Side St" {
		t.Fatalf("label = %q, want %q", got, "Side St")
	}
}

func TestComputeLabelNone(t *testing.T) {
	g := byPoint(nil, nil)
	if got := ComputeLabel(context.Background(), zone, g); got != PlaceholderUnknown {
		t.Fatalf("label = %q, want %q", got, PlaceholderUnknown)
	}
	a, b := farthest(t)
	g = byPoint(nil, map[geofence.Point]bool{a: true, b: true})
	if got := ComputeLabel(context.Background(), zone, g); got != PlaceholderUnknown {
		t.Fatalf("label with failing geocoder = %q, want %q", got, PlaceholderUnknown)
	}
}

func TestComputeLabelInsufficient(t *testing.T) {
	called := false
	g := GeocoderFunc(func(ctx context.Context, pt geofence.Point) (string, error) {
		called = true
		return "x", nil
	})
	if got := ComputeLabel(context.Background(), zone[:2], g); got != PlaceholderInsufficient {
		t.Fatalf("label = %q, want %q", got, PlaceholderInsufficient)
	}
	if called {
		t.Fatalf("geocoder called for a 2-point polygon")
	}
}

func TestComputeLabelPanicRecovered(t *testing.T) {
	g := GeocoderFunc(func(ctx context.Context, pt geofence.Point) (string, error) {
		panic("provider exploded")
	})
	if got := ComputeLabel(context.Background(), zone, g); got != PlaceholderError {
		t.Fatalf("label = %q, want %q", got, PlaceholderError)
	}
}

func TestComputeLabelLookupsRunConcurrently(t *testing.T) {
	var mu sync.Mutex
	arrived := 0
	both := make(chan struct{})
	g := GeocoderFunc(func(ctx context.Context, pt geofence.Point) (string, error) {
		mu.Lock()
		arrived++
		if arrived == 2 {
			close(both)
		}
		mu.Unlock()
		select {
		case <-both:
			return "road", nil
		case <-time.After(2 * time.Second):
			return "", errors.New("lookups were serialized")
		}
	})
	if got := ComputeLabel(context.Background(), zone, g); got != "road - road" {
		t.Fatalf("label = %q, want %q", got, "road - road")
	}
}

func TestLabelerUsesGeocoder(t *testing.T) {
	l := NewLabeler(byPoint(nil, nil))
	if got := l.Label(context.Background(), zone); got != PlaceholderUnknown {
		t.Fatalf("Label = %q, want %q", got, PlaceholderUnknown)
	}
}
