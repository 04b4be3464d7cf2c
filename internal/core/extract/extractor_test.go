package extract_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/samirrijal/ymaps2gpx/internal/core/document"
	"github.com/samirrijal/ymaps2gpx/internal/core/domain"
	"github.com/samirrijal/ymaps2gpx/internal/core/extract"
)

func parse(t *testing.T, s string) document.Node {
	t.Helper()
	n, err := document.Parse([]byte(s))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return n
}

func run(t *testing.T, s string) (domain.Extraction, error) {
	t.Helper()
	return extract.New().Extract(context.Background(), parse(t, s))
}

func TestExtract_UserLineOnly(t *testing.T) {
	for _, n := range []int{1, 2, 7} {
		coords := make([]string, n)
		for i := range coords {
			coords[i] = "[37.6,55.7]"
		}
		doc := `{"config":{"userMap":{"features":[{"type":"line","title":"Walk","geometry":{"coordinates":[` +
			strings.Join(coords, ",") + `]}}]}}}`

		got, err := run(t, doc)
		if err != nil {
			t.Fatalf("n=%d: unexpected error: %v", n, err)
		}
		if len(got.Lines) != 1 || len(got.Points) != 0 {
			t.Fatalf("n=%d: expected 1 line and 0 points, got %d/%d", n, len(got.Lines), len(got.Points))
		}
		if len(got.Lines[0].Geometry) != n {
			t.Errorf("n=%d: expected %d coordinates, got %d", n, n, len(got.Lines[0].Geometry))
		}
		if got.Lines[0].Name != "Walk" {
			t.Errorf("expected name Walk, got %q", got.Lines[0].Name)
		}
	}
}

func TestExtract_UserFeaturesMixed(t *testing.T) {
	doc := `{"config":{"userMap":{"features":[
		{"type":"placemark","title":"Cafe","coordinates":[37.1,55.1]},
		{"type":"polygon","title":"Park","geometry":{"coordinates":[[[1,2],[3,4]]]}},
		{"type":"line","title":"Leg 1","geometry":{"coordinates":[[37.1,55.1],[37.2,55.2]]}}
	]}}}`

	got, err := run(t, doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Lines) != 1 || len(got.Points) != 1 {
		t.Fatalf("expected 1 line and 1 point, got %d/%d", len(got.Lines), len(got.Points))
	}
	p := got.Points[0].Position()
	if p.Lon != 37.1 || p.Lat != 55.1 {
		t.Errorf("placemark should keep lon/lat order, got %+v", p)
	}
}

func TestExtract_MalformedUserFeatureStopsEverything(t *testing.T) {
	doc := `{"config":{
		"userMap":{"features":[{"type":"line","title":"Broken"}]},
		"routePoints":[{"title":"A","coordinates":[1,2]}]
	}}`

	got, err := run(t, doc)
	if !errors.Is(err, domain.ErrMalformedDocument) {
		t.Fatalf("expected ErrMalformedDocument, got %v", err)
	}
	if !got.Empty() {
		t.Errorf("expected no features, got %+v", got)
	}
	if domain.UserMessage(err) == "" {
		t.Error("expected a user-facing message")
	}
}

func TestExtract_PlacemarkWithLineShapeIsMalformed(t *testing.T) {
	doc := `{"config":{"userMap":{"features":[{"type":"placemark","coordinates":[[1,2],[3,4]]}]}}}`
	if _, err := run(t, doc); !errors.Is(err, domain.ErrMalformedDocument) {
		t.Fatalf("expected ErrMalformedDocument, got %v", err)
	}
}

func TestExtract_RoutePointsDefaultLabel(t *testing.T) {
	doc := `{"config":{"routePoints":[
		{"title":"Home","coordinates":[30.1,59.9]},
		{"coordinates":[30.2,59.8]},
		{"title":"unresolved"}
	]}}`

	got, err := run(t, doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(got.Points))
	}
	if got.Points[0].Name != "Home" || got.Points[1].Name != extract.PointOfInterestLabel {
		t.Errorf("unexpected names %q, %q", got.Points[0].Name, got.Points[1].Name)
	}
}

func TestExtract_RoutePointNotAnObjectIsMalformed(t *testing.T) {
	for _, entry := range []string{`42`, `"x"`, `[1,2]`} {
		doc := `{"config":{"routePoints":[{"title":"Home","coordinates":[30.1,59.9]},` + entry + `]}}`
		got, err := run(t, doc)
		if !errors.Is(err, domain.ErrMalformedDocument) {
			t.Errorf("entry %s: expected ErrMalformedDocument, got %v (points %d)", entry, err, len(got.Points))
		}
	}
}

const routesDoc = `{"config":{
	"query":{"rtn":%s},
	"routerResponse":{"routes":[
		{"type":"auto","distance":{"value":12345},"coordinates":[[1,2],[3,4]]},
		{"distance":{"value":900},"coordinates":[[5,6],[7,8],[9,10]]}
	]}
}}`

func routes(rtn string) string {
	return strings.Replace(routesDoc, "%s", rtn, 1)
}

func TestExtract_ComputedRouteSelection(t *testing.T) {
	cases := []struct {
		rtn    string
		name   string
		points int
	}{
		{`0`, "auto 12.3 km", 2},
		{`1`, "Route 0.9 km", 3},
		{`"1"`, "Route 0.9 km", 3},
		{`null`, "auto 12.3 km", 2},
	}
	for _, c := range cases {
		got, err := run(t, routes(c.rtn))
		if err != nil {
			t.Fatalf("rtn=%s: unexpected error: %v", c.rtn, err)
		}
		if len(got.Lines) != 1 {
			t.Fatalf("rtn=%s: expected 1 line, got %d", c.rtn, len(got.Lines))
		}
		if got.Lines[0].Name != c.name {
			t.Errorf("rtn=%s: expected %q, got %q", c.rtn, c.name, got.Lines[0].Name)
		}
		if len(got.Lines[0].Geometry) != c.points {
			t.Errorf("rtn=%s: expected %d points, got %d", c.rtn, c.points, len(got.Lines[0].Geometry))
		}
	}
}

func TestExtract_RouteIndexOutOfRangeFallsBack(t *testing.T) {
	for _, rtn := range []string{`2`, `17`, `-1`, `"5"`} {
		got, err := run(t, routes(rtn))
		if err != nil {
			t.Fatalf("rtn=%s: unexpected error: %v", rtn, err)
		}
		if len(got.Lines) != 1 || got.Lines[0].Name != "auto 12.3 km" {
			t.Errorf("rtn=%s: expected fallback to first route, got %+v", rtn, got.Lines)
		}
	}
}

func TestExtract_RouteIndexSequenceIsDuplicatedSource(t *testing.T) {
	_, err := run(t, routes(`["0","1"]`))
	if !errors.Is(err, domain.ErrDuplicatedSource) {
		t.Fatalf("expected ErrDuplicatedSource, got %v", err)
	}
	if errors.Is(err, domain.ErrMalformedDocument) {
		t.Error("duplicated source must not look like a generic parse failure")
	}
}

func TestExtract_StrategyMalformationWinsAfterOthersRun(t *testing.T) {
	var seen []string
	x := extract.New(extract.WithObserver(func(strategy string, lines, points int) {
		seen = append(seen, strategy)
	}))

	doc := `{"config":{
		"routePoints":"oops",
		"ruler":{"points":[[1,2],[3,4]]}
	}}`
	_, err := x.Extract(context.Background(), parse(t, doc))
	if !errors.Is(err, domain.ErrMalformedDocument) {
		t.Fatalf("expected ErrMalformedDocument, got %v", err)
	}
	if len(seen) != 1 || seen[0] != extract.StrategyRuler {
		t.Errorf("expected ruler strategy to still run, saw %v", seen)
	}
}

func TestExtract_Ruler(t *testing.T) {
	single := `{"config":{"ruler":{"points":[[1,2]]},"routePoints":[{"coordinates":[1,2]}]}}`
	got, err := run(t, single)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Lines) != 0 {
		t.Errorf("single ruler point must not become a line, got %d lines", len(got.Lines))
	}

	for _, pts := range []string{`[[1,2],[3,4]]`, `[[1,2],[3,4],[5,6],[7,8]]`} {
		got, err := run(t, `{"config":{"ruler":{"points":`+pts+`}}}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got.Lines) != 1 || got.Lines[0].Name != extract.RulerLabel {
			t.Errorf("expected one Ruler line, got %+v", got.Lines)
		}
	}
}

func TestExtract_SingleRulerPointAloneIsNotFound(t *testing.T) {
	_, err := run(t, `{"config":{"ruler":{"points":[[1,2]]}}}`)
	if !errors.Is(err, domain.ErrNoGeodataFound) {
		t.Fatalf("expected ErrNoGeodataFound, got %v", err)
	}
}

func TestExtract_StrategyOrder(t *testing.T) {
	doc := `{"config":{
		"ruler":{"points":[[1,2],[3,4]]},
		"routerResponse":{"routes":[{"type":"bicycle","distance":{"value":2000},"coordinates":[[1,2],[3,4]]}]},
		"routePoints":[{"title":"Start","coordinates":[1,2]}],
		"userMap":{"features":[
			{"type":"line","title":"Drawn","geometry":{"coordinates":[[1,2]]}},
			{"type":"placemark","title":"Pin","coordinates":[1,2]}
		]}
	}}`

	got, err := run(t, doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantLines := []string{"Drawn", "bicycle 2.0 km", extract.RulerLabel}
	if len(got.Lines) != len(wantLines) {
		t.Fatalf("expected %d lines, got %d", len(wantLines), len(got.Lines))
	}
	for i, w := range wantLines {
		if got.Lines[i].Name != w {
			t.Errorf("line %d: expected %q, got %q", i, w, got.Lines[i].Name)
		}
	}
	if len(got.Points) != 2 || got.Points[0].Name != "Pin" || got.Points[1].Name != "Start" {
		t.Errorf("unexpected points %+v", got.Points)
	}
}

func TestExtract_NothingFound(t *testing.T) {
	for _, doc := range []string{`{}`, `{"config":{}}`, `{"config":{"userMap":{"features":[]}}}`} {
		_, err := run(t, doc)
		if !errors.Is(err, domain.ErrNoGeodataFound) {
			t.Errorf("%s: expected ErrNoGeodataFound, got %v", doc, err)
		}
		if !strings.Contains(err.Error(), extract.DefaultHelpURL) {
			t.Errorf("expected help link in %q", err.Error())
		}
	}
}

func TestExtract_UnsupportedMarkers(t *testing.T) {
	long := `{"config":{"routerResponse":{"coordinatesOmitted":true,"routes":[{"type":"auto","distance":{"value":900000}}]}}}`
	_, err := run(t, long)
	if !errors.Is(err, domain.ErrUnsupportedContent) {
		t.Fatalf("expected ErrUnsupportedContent for long route, got %v", err)
	}
	if !strings.Contains(err.Error(), "too long") {
		t.Errorf("expected long-route text, got %q", err.Error())
	}

	bookmarks := `{"config":{"bookmarksPublicList":{"title":"My places"}}}`
	_, err = run(t, bookmarks)
	if !errors.Is(err, domain.ErrUnsupportedContent) {
		t.Fatalf("expected ErrUnsupportedContent for bookmarks, got %v", err)
	}
	if !strings.Contains(err.Error(), "bookmark") {
		t.Errorf("expected bookmark text, got %q", err.Error())
	}
}

func TestExtract_RootNotObject(t *testing.T) {
	_, err := run(t, `[1,2,3]`)
	if !errors.Is(err, domain.ErrMalformedDocument) {
		t.Fatalf("expected ErrMalformedDocument, got %v", err)
	}
}

func TestExtract_CustomHelpURL(t *testing.T) {
	x := extract.New(extract.WithHelpURL("https://example.org/help"))
	_, err := x.Extract(context.Background(), parse(t, `{}`))
	if err == nil || !strings.Contains(err.Error(), "https://example.org/help") {
		t.Fatalf("expected custom help link, got %v", err)
	}
}
