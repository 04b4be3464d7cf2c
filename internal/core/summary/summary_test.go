package summary_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/samirrijal/ymaps2gpx/internal/core/domain"
	"github.com/samirrijal/ymaps2gpx/internal/core/summary"
)

func entries(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if strings.HasPrefix(l, "- ") {
			out = append(out, l)
		}
	}
	return out
}

func TestSummarize_TruncatesWaypoints(t *testing.T) {
	doc := &domain.TrackDocument{}
	for i := 0; i < 15; i++ {
		doc.Waypoints = append(doc.Waypoints, domain.TrackPoint{Name: fmt.Sprintf("wp%d", i)})
	}

	got := summary.Summarize(doc, 10)

	if n := len(entries(got)); n != 10 {
		t.Errorf("expected 10 entries, got %d:\n%s", n, got)
	}
	if c := strings.Count(got, "... and 5 more"); c != 1 {
		t.Errorf("expected one truncation marker, got %d:\n%s", c, got)
	}
	if !strings.Contains(got, "- wp9\n... and 5 more") {
		t.Errorf("marker should follow the last listed entry:\n%s", got)
	}
}

func TestSummarize_SectionsAndFormatting(t *testing.T) {
	ele := 143.6
	doc := &domain.TrackDocument{
		Routes: []domain.Route{{Name: "Drive", Points: []domain.TrackPoint{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 0}}}},
		Tracks: []domain.Track{{Segments: []domain.TrackSegment{
			{Points: []domain.TrackPoint{{Lat: 0, Lon: 0}, {Lat: 0.1, Lon: 0}}},
		}}},
		Waypoints: []domain.TrackPoint{{Name: "Peak", Elevation: &ele}, {Name: ""}},
	}

	got := summary.Summarize(doc, 10)

	want := "Waypoints (2):\n- Peak, 144 m\n- Unnamed\n" +
		"\nTracks (1):\n- Unnamed, 11.1 km\n" +
		"\nRoutes (1):\n- Drive, 111.2 km\n"
	if got != want {
		t.Errorf("unexpected summary:\n%q\nwant\n%q", got, want)
	}
}

func TestSummarize_EmptyDocument(t *testing.T) {
	if got := summary.Summarize(&domain.TrackDocument{}, 10); got != "" {
		t.Errorf("expected empty summary, got %q", got)
	}
	if got := summary.Summarize(nil, 10); got != "" {
		t.Errorf("expected empty summary for nil, got %q", got)
	}
}

func TestSummarize_ExactlyLimitHasNoMarker(t *testing.T) {
	doc := &domain.TrackDocument{}
	for i := 0; i < 3; i++ {
		doc.Routes = append(doc.Routes, domain.Route{Name: fmt.Sprintf("r%d", i)})
	}
	got := summary.Summarize(doc, 3)
	if strings.Contains(got, "more") {
		t.Errorf("unexpected truncation marker:\n%s", got)
	}
	if n := len(entries(got)); n != 3 {
		t.Errorf("expected 3 entries, got %d", n)
	}
}
