package elevation_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samirrijal/ymaps2gpx/internal/adapters/elevation"
	"github.com/samirrijal/ymaps2gpx/internal/core/domain"
)

// elevationServer answers with latitude*10 for every requested point.
func elevationServer(t *testing.T, maxPoints int, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		lats := strings.Split(r.URL.Query().Get("latitude"), ",")
		if maxPoints > 0 && len(lats) > maxPoints {
			http.Error(w, "too many points", http.StatusBadRequest)
			return
		}
		out := make([]float64, len(lats))
		for i, s := range lats {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			out[i] = v * 10
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"elevation": out})
	}))
}

// --- Mock CacheService ---

type mockCache struct {
	data map[string][]byte
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) { return m.data[key], nil }
func (m *mockCache) GetMany(ctx context.Context, keys []string) ([][]byte, error) {
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = m.data[k]
	}
	return out, nil
}
func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl int) error {
	m.data[key] = value
	return nil
}
func (m *mockCache) SetMany(ctx context.Context, values map[string][]byte, ttl int) error {
	for k, v := range values {
		m.data[k] = v
	}
	return nil
}

func newClient(t *testing.T, url string, batch int, shared *mockCache) *elevation.Client {
	t.Helper()
	cfg := elevation.Config{BaseURL: url, Timeout: 5 * time.Second, BatchSize: batch, CacheSize: 100}
	var c *elevation.Client
	var err error
	if shared != nil {
		c, err = elevation.New(cfg, shared)
	} else {
		c, err = elevation.New(cfg, nil)
	}
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestElevationFor_CachesResult(t *testing.T) {
	var calls atomic.Int32
	srv := elevationServer(t, 0, &calls)
	defer srv.Close()

	c := newClient(t, srv.URL, 10, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		v, err := c.ElevationFor(ctx, 43.25, -2.93)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v == nil || *v != 432.5 {
			t.Fatalf("expected 432.5, got %v", v)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected 1 API call, got %d", got)
	}
}

func TestAddElevations_Batches(t *testing.T) {
	var calls atomic.Int32
	srv := elevationServer(t, 0, &calls)
	defer srv.Close()

	c := newClient(t, srv.URL, 2, nil)
	doc := &domain.TrackDocument{Tracks: []domain.Track{{Segments: []domain.TrackSegment{{
		Points: []domain.TrackPoint{{Lat: 1}, {Lat: 2}, {Lat: 3}, {Lat: 4}, {Lat: 5}},
	}}}}}

	if err := c.AddElevations(context.Background(), doc, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 batched calls, got %d", got)
	}
	for i, p := range doc.Tracks[0].Segments[0].Points {
		want := float64(i+1) * 10
		if p.Elevation == nil || *p.Elevation != want {
			t.Errorf("point %d: expected %v, got %v", i, want, p.Elevation)
		}
	}
}

func TestAddElevations_FallsBackPerPoint(t *testing.T) {
	var calls atomic.Int32
	srv := elevationServer(t, 1, &calls)
	defer srv.Close()

	c := newClient(t, srv.URL, 10, nil)
	doc := &domain.TrackDocument{Tracks: []domain.Track{{Segments: []domain.TrackSegment{{
		Points: []domain.TrackPoint{{Lat: 1}, {Lat: 2}, {Lat: 3}},
	}}}}}

	if err := c.AddElevations(context.Background(), doc, false); err != nil {
		t.Fatalf("per-point fallback should succeed: %v", err)
	}
	if got := calls.Load(); got != 4 {
		t.Errorf("expected 1 failed batch + 3 single calls, got %d", got)
	}
	if e := doc.Tracks[0].Segments[0].Points[2].Elevation; e == nil || *e != 30 {
		t.Errorf("expected 30, got %v", e)
	}
}

func TestAddElevations_APIDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, 10, nil)
	doc := &domain.TrackDocument{Tracks: []domain.Track{{Segments: []domain.TrackSegment{{
		Points: []domain.TrackPoint{{Lat: 1}, {Lat: 2}},
	}}}}}

	if err := c.AddElevations(context.Background(), doc, true); err == nil {
		t.Fatal("expected an error")
	}
	for _, p := range doc.Tracks[0].Segments[0].Points {
		if p.Elevation != nil {
			t.Errorf("point should stay without elevation, got %v", *p.Elevation)
		}
	}
}

func TestSharedCache(t *testing.T) {
	var calls atomic.Int32
	srv := elevationServer(t, 0, &calls)
	defer srv.Close()

	shared := &mockCache{data: map[string][]byte{}}
	first := newClient(t, srv.URL, 10, shared)
	if _, err := first.ElevationFor(context.Background(), 10, 20); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(shared.data) != 1 {
		t.Fatalf("expected shared cache write, got %v", shared.data)
	}

	// A fresh process reads the shared cache instead of the API
	second := newClient(t, srv.URL, 10, shared)
	v, err := second.ElevationFor(context.Background(), 10, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v == nil || *v != 100 {
		t.Errorf("expected 100, got %v", v)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected 1 API call, got %d", got)
	}
}

func TestSmooth(t *testing.T) {
	e := func(v float64) *float64 { return &v }
	pts := []domain.TrackPoint{{Elevation: e(10)}, {Elevation: e(40)}, {Elevation: e(10)}, {}}

	elevation.Smooth(pts)

	if *pts[0].Elevation != 25 {
		t.Errorf("first: expected 25, got %v", *pts[0].Elevation)
	}
	if *pts[1].Elevation != 20 {
		t.Errorf("middle: expected 20, got %v", *pts[1].Elevation)
	}
	if *pts[2].Elevation != 25 {
		t.Errorf("last known: expected 25, got %v", *pts[2].Elevation)
	}
	if pts[3].Elevation != nil {
		t.Error("unknown elevation must stay unknown")
	}
}
