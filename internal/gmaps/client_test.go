package gmaps

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tree-adopt/internal/geofence"
)

func serve(t *testing.T, status int, body string, check func(r *http.Request)) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("content-type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	c := NewClient("k123", "", srv.Client())
	c.BaseURL = srv.URL
	return c
}

const routeBody = `{"status":"OK","results":[
 {"formatted_address":"Greece","address_components":[{"long_name":"Greece","types":["country"]}]},
 {"formatted_address":"Ermou 12, Athina","address_components":[
   {"long_name":"12","types":["street_number"]},
   {"long_name":"Ermou","short_name":"Ermou","types":["route"]}]}
]}`

func TestReverseGeocodeRouteWithNumber(t *testing.T) {
	c := serve(t, 200, routeBody, func(r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/maps/api/geocode/json" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if q.Get("latlng") != "37.9755,23.7348" || q.Get("key") != "k123" || q.Get("language") != "el" {
			t.Errorf("query = %v", q)
		}
	})
	got, err := c.ReverseGeocode(context.Background(), geofence.Point{Lat: 37.9755, Lng: 23.7348})
	if err != nil {
		t.Fatalf("ReverseGeocode: %v", err)
	}
	if got != "Ermou 12" {
		t.Fatalf("ReverseGeocode = %q, want %q", got, "Ermou 12")
	}
}

func TestStreetNameFallbacks(t *testing.T) {
	noNumber := &Response{Results: []Result{{AddressComponents: []Component{{LongName: "Athinas", Types: []string{"route"}}}}}}
	if got := StreetName(noNumber); got != "Athinas" {
		t.Fatalf("StreetName = %q, want Athinas", got)
	}
	noRoute := &Response{Results: []Result{
		{FormattedAddress: "Syntagma, Athina"},
		{FormattedAddress: "Attica"},
	}}
	if got := StreetName(noRoute); got != "Syntagma, Athina" {
		t.Fatalf("StreetName = %q, want formatted address", got)
	}
	if got := StreetName(nil); got != "" {
		t.Fatalf("StreetName(nil) = %q", got)
	}
}

func TestReverseGeocodeZeroResults(t *testing.T) {
	c := serve(t, 200, `{"status":"ZERO_RESULTS","results":[]}`, nil)
	got, err := c.ReverseGeocode(context.Background(), geofence.Point{Lat: 0, Lng: 0})
	if err != nil || got != "" {
		t.Fatalf("ReverseGeocode = %q, %v, want empty and nil", got, err)
	}
	if _, err := c.Reverse(context.Background(), 0, 0); !errors.Is(err, ErrNoResult) {
		t.Fatalf("Reverse err = %v, want ErrNoResult", err)
	}
}

func TestReverseGeocodeFailures(t *testing.T) {
	denied := serve(t, 200, `{"status":"REQUEST_DENIED","error_message":"bad key","results":[]}`, nil)
	if _, err := denied.ReverseGeocode(context.Background(), geofence.Point{}); err == nil {
		t.Fatalf("REQUEST_DENIED: want error")
	}
	down := serve(t, 503, `oops`, nil)
	if _, err := down.ReverseGeocode(context.Background(), geofence.Point{}); err == nil {
		t.Fatalf("503: want error")
	}
	garbage := serve(t, 200, `not json`, nil)
	if _, err := garbage.ReverseGeocode(context.Background(), geofence.Point{}); err == nil {
		t.Fatalf("bad body: want error")
	}
	nokey := NewClient("", "el", nil)
	if _, err := nokey.Reverse(context.Background(), 1, 1); !errors.Is(err, ErrMissingKey) {
		t.Fatalf("missing key err = %v", err)
	}
}

func TestTransportErrorOmitsKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()
	c := NewClient("SECRET-KEY-123", "", &http.Client{})
	c.BaseURL = base
	_, err := c.ReverseGeocode(context.Background(), geofence.Point{Lat: 40, Lng: 22})
	if err == nil {
		t.Fatalf("ReverseGeocode: want error against closed server")
	}
	if strings.Contains(err.Error(), "SECRET-KEY-123") {
		t.Fatalf("error leaks key: %v", err)
	}
}

func TestTransportErrorKeepsContextCause(t *testing.T) {
	c := serve(t, 200, routeBody, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Reverse(ctx, 40, 22)
	if !errors.Is(err, context.Canceled) || strings.Contains(err.Error(), "k123") {
		t.Fatalf("err = %v, want context.Canceled without key", err)
	}
}
