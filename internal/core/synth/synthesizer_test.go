package synth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samirrijal/ymaps2gpx/internal/core/domain"
	"github.com/samirrijal/ymaps2gpx/internal/core/synth"
)

// --- Mock ElevationService ---

type mockElevation struct {
	elevationForFn  func(ctx context.Context, lat, lon float64) (*float64, error)
	addElevationsFn func(ctx context.Context, doc *domain.TrackDocument, smooth bool) error
	calls           int
}

func (m *mockElevation) ElevationFor(ctx context.Context, lat, lon float64) (*float64, error) {
	m.calls++
	if m.elevationForFn != nil {
		return m.elevationForFn(ctx, lat, lon)
	}
	return nil, nil
}

func (m *mockElevation) AddElevations(ctx context.Context, doc *domain.TrackDocument, smooth bool) error {
	if m.addElevationsFn != nil {
		return m.addElevationsFn(ctx, doc, smooth)
	}
	return nil
}

func line(name string, n int) domain.GeoFeature {
	coords := make([]domain.Coordinate, n)
	for i := range coords {
		coords[i] = domain.Coordinate{Lon: float64(10 + i), Lat: float64(20 + i)}
	}
	return domain.NewLine(name, coords)
}

func TestSynthesize_TrackSegments(t *testing.T) {
	s := synth.New(nil)
	doc := s.Synthesize(context.Background(), nil, synth.Input{
		TrackSegments: []domain.GeoFeature{line("a", 2), line("b", 3), line("c", 4)},
	})

	if len(doc.Tracks) != 1 {
		t.Fatalf("expected 1 track, got %d", len(doc.Tracks))
	}
	if doc.Tracks[0].Name != "" {
		t.Errorf("segment track should be unnamed, got %q", doc.Tracks[0].Name)
	}
	want := []int{2, 3, 4}
	if len(doc.Tracks[0].Segments) != len(want) {
		t.Fatalf("expected %d segments, got %d", len(want), len(doc.Tracks[0].Segments))
	}
	for i, n := range want {
		if got := len(doc.Tracks[0].Segments[i].Points); got != n {
			t.Errorf("segment %d: expected %d points, got %d", i, n, got)
		}
	}
}

func TestSynthesize_RoutesSwapAxes(t *testing.T) {
	s := synth.New(nil)
	x := domain.NewLine("X", []domain.Coordinate{{Lon: 10, Lat: 20}, {Lon: 11, Lat: 21}})
	doc := s.Synthesize(context.Background(), nil, synth.Input{Routes: []domain.GeoFeature{x}})

	if len(doc.Routes) != 1 || doc.Routes[0].Name != "X" {
		t.Fatalf("expected one route named X, got %+v", doc.Routes)
	}
	pts := doc.Routes[0].Points
	if len(pts) != 2 {
		t.Fatalf("expected 2 points, got %d", len(pts))
	}
	if pts[0].Lat != 20 || pts[0].Lon != 10 || pts[1].Lat != 21 || pts[1].Lon != 11 {
		t.Errorf("axes not swapped: %+v", pts)
	}
	if pts[0].Elevation != nil {
		t.Error("elevation should be absent until populated")
	}
}

func TestSynthesize_TracksAndWaypoints(t *testing.T) {
	s := synth.New(nil)
	doc := s.Synthesize(context.Background(), nil, synth.Input{
		Tracks: []domain.GeoFeature{line("one", 2), line("two", 5)},
		Points: []domain.GeoFeature{domain.NewPoint("Cafe", domain.Coordinate{Lon: 37.6, Lat: 55.7})},
	})

	if len(doc.Tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(doc.Tracks))
	}
	for i, name := range []string{"one", "two"} {
		if doc.Tracks[i].Name != name || len(doc.Tracks[i].Segments) != 1 {
			t.Errorf("track %d: expected %q with one segment, got %+v", i, name, doc.Tracks[i])
		}
	}
	if len(doc.Waypoints) != 1 {
		t.Fatalf("expected 1 waypoint, got %d", len(doc.Waypoints))
	}
	w := doc.Waypoints[0]
	if w.Name != "Cafe" || w.Lat != 55.7 || w.Lon != 37.6 {
		t.Errorf("unexpected waypoint %+v", w)
	}
}

func TestSynthesize_AppendsToExistingDocument(t *testing.T) {
	s := synth.New(nil)
	doc := s.Synthesize(context.Background(), nil, synth.Input{Routes: []domain.GeoFeature{line("r1", 2)}})
	same := s.Synthesize(context.Background(), doc, synth.Input{
		Routes: []domain.GeoFeature{line("r2", 2)},
		Tracks: []domain.GeoFeature{line("t1", 3)},
	})

	if same != doc {
		t.Fatal("expected the passed document to be extended in place")
	}
	if len(doc.Routes) != 2 || doc.Routes[0].Name != "r1" || doc.Routes[1].Name != "r2" {
		t.Errorf("expected r1, r2 routes, got %+v", doc.Routes)
	}
	if len(doc.Tracks) != 1 {
		t.Errorf("expected 1 track, got %d", len(doc.Tracks))
	}
}

func TestSynthesize_ElevationIsBestEffort(t *testing.T) {
	elev := &mockElevation{
		elevationForFn: func(ctx context.Context, lat, lon float64) (*float64, error) {
			if lat == 20 {
				return nil, errors.New("tile unavailable")
			}
			e := lat * 10
			return &e, nil
		},
		addElevationsFn: func(ctx context.Context, doc *domain.TrackDocument, smooth bool) error {
			if !smooth {
				t.Error("tracks should be smoothed")
			}
			doc.Tracks[0].Segments[0].Points[1].SetElevation(42)
			return errors.New("1 point failed")
		},
	}

	s := synth.New(elev)
	doc := s.Synthesize(context.Background(), nil, synth.Input{
		Routes:       []domain.GeoFeature{line("r", 3)},
		Tracks:       []domain.GeoFeature{line("t", 2)},
		Points:       []domain.GeoFeature{domain.NewPoint("p", domain.Coordinate{Lon: 1, Lat: 50})},
		AddElevation: true,
	})

	if elev.calls != 4 {
		t.Errorf("expected one lookup per route point and waypoint (4), got %d", elev.calls)
	}
	r := doc.Routes[0].Points
	if r[0].Elevation != nil {
		t.Error("failed lookup should leave elevation absent")
	}
	if r[1].Elevation == nil || *r[1].Elevation != 210 || r[2].Elevation == nil {
		t.Errorf("later points should still resolve, got %+v", r)
	}
	if doc.Waypoints[0].Elevation == nil || *doc.Waypoints[0].Elevation != 500 {
		t.Errorf("waypoint elevation not set: %+v", doc.Waypoints[0])
	}
	tp := doc.Tracks[0].Segments[0].Points
	if tp[0].Elevation != nil || tp[1].Elevation == nil {
		t.Errorf("track elevation should come from AddElevations only, got %+v", tp)
	}
}

func TestSynthesize_NoElevationWithoutFlag(t *testing.T) {
	elev := &mockElevation{}
	synth.New(elev).Synthesize(context.Background(), nil, synth.Input{Routes: []domain.GeoFeature{line("r", 3)}})
	if elev.calls != 0 {
		t.Errorf("expected no lookups, got %d", elev.calls)
	}
}

func TestParseShape(t *testing.T) {
	cases := map[string]synth.Shape{
		"":               synth.ShapeTracks,
		"routes":         synth.ShapeRoutes,
		"Tracks":         synth.ShapeTracks,
		"segments":       synth.ShapeSegments,
		"track_segments": synth.ShapeSegments,
	}
	for in, want := range cases {
		got, err := synth.ParseShape(in)
		if err != nil || got != want {
			t.Errorf("ParseShape(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := synth.ParseShape("polygons"); err == nil {
		t.Error("expected error for unknown shape")
	}
}

func TestShaped(t *testing.T) {
	e := domain.Extraction{
		Lines:  []domain.GeoFeature{line("a", 2)},
		Points: []domain.GeoFeature{domain.NewPoint("p", domain.Coordinate{})},
	}

	in := synth.Shaped(synth.ShapeRoutes, e, true)
	if len(in.Routes) != 1 || len(in.Tracks) != 0 || len(in.TrackSegments) != 0 || !in.AddElevation {
		t.Errorf("routes shape: unexpected input %+v", in)
	}
	in = synth.Shaped(synth.ShapeSegments, e, false)
	if len(in.TrackSegments) != 1 || len(in.Points) != 1 {
		t.Errorf("segments shape: unexpected input %+v", in)
	}
	in = synth.Shaped(synth.ShapeTracks, e, false)
	if len(in.Tracks) != 1 {
		t.Errorf("tracks shape: unexpected input %+v", in)
	}
}
