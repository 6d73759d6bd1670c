package places_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/placeshub/internal/places"
)

func TestQueryValidate(t *testing.T) {
	tests := []struct {
		name    string
		q       places.Query
		wantErr bool
	}{
		{name: "city", q: places.Query{City: "Lima"}},
		{name: "coordinates", q: places.Query{Coordinates: "-12.04,-77.04"}},
		{name: "both", q: places.Query{City: "Lima", Coordinates: "-12.04,-77.04"}, wantErr: true},
		{name: "neither", q: places.Query{}, wantErr: true},
		{name: "negative_radius", q: places.Query{City: "Lima", Radius: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.q.Validate()
			if tt.wantErr != (err != nil) {
				t.Fatalf("wantErr=%v, got %v", tt.wantErr, err)
			}
			if err != nil && !errors.Is(err, places.ErrInvalidQuery) {
				t.Fatalf("expected ErrInvalidQuery, got %v", err)
			}
		})
	}
}

func TestNearby_CitySearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/textsearch/json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		q := r.URL.Query()
		if q.Get("query") != "restaurants in Lima" || q.Get("radius") != "5000" || q.Get("key") != "k" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK","results":[
			{"name":"Central","vicinity":"Av. Pedro de Osma 301","rating":4.7},
			{"name":"No Rating","formatted_address":"Jr. Lampa 1"},
			{"name":"Zero Rating","vicinity":"Calle 5","rating":0}
		]}`))
	}))
	defer srv.Close()

	c := places.NewClient(srv.URL, "k", srv.Client())

	got, err := c.Nearby(context.Background(), places.Query{City: "Lima"})
	if err != nil {
		t.Fatalf("nearby failed: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("got %d places, want 3", len(got))
	}

	if got[0].Name != "Central" || got[0].Address != "Av. Pedro de Osma 301" || got[0].Rating == nil || *got[0].Rating != 4.7 {
		t.Fatalf("unexpected first place: %+v", got[0])
	}

	if got[1].Rating != nil || got[1].Address != "Jr. Lampa 1" {
		t.Fatalf("unexpected second place: %+v", got[1])
	}

	if got[2].Rating != nil {
		t.Fatalf("zero rating must be reported as null, got %v", *got[2].Rating)
	}
}

func TestNearby_CoordinatesSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/nearbysearch/json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		q := r.URL.Query()
		if q.Get("location") != "-12.04,-77.04" || q.Get("type") != "restaurant" || q.Get("radius") != "800" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}

		_, _ = w.Write([]byte(`{"status":"OK","results":[]}`))
	}))
	defer srv.Close()

	c := places.NewClient(srv.URL, "k", srv.Client())

	got, err := c.Nearby(context.Background(), places.Query{Coordinates: "-12.04,-77.04", Radius: 800})
	if err != nil {
		t.Fatalf("nearby failed: %v", err)
	}

	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestNearby_UpstreamFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "status_not_ok", status: http.StatusOK, body: `{"status":"REQUEST_DENIED","results":[]}`},
		{name: "http_error", status: http.StatusBadGateway, body: `oops`},
		{name: "bad_json", status: http.StatusOK, body: `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := places.NewClient(srv.URL, "k", srv.Client())

			_, err := c.Nearby(context.Background(), places.Query{City: "Lima"})
			if !errors.Is(err, places.ErrUpstream) {
				t.Fatalf("expected ErrUpstream, got %v", err)
			}
		})
	}
}
