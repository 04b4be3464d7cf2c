package workflows_test

import (
	"context"
	"strings"
	"testing"

	"go.temporal.io/sdk/testsuite"

	"github.com/samirrijal/ymaps2gpx/internal/adapters/gpxenc"
	"github.com/samirrijal/ymaps2gpx/internal/core/domain"
	"github.com/samirrijal/ymaps2gpx/internal/core/synth"
	"github.com/samirrijal/ymaps2gpx/internal/core/usecases"
	"github.com/samirrijal/ymaps2gpx/internal/workflows"
)

// --- Mock PageFetcher ---

type mockFetcher struct {
	pages map[string]string
}

func (m *mockFetcher) FetchState(ctx context.Context, url string) ([]byte, error) {
	page, ok := m.pages[url]
	if !ok {
		return nil, domain.NewUserError(domain.ErrFetchFailed, "Could not download the map page (HTTP 404).")
	}
	return []byte(page), nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	events []domain.ConversionEvent
}

func (m *mockPublisher) PublishConversion(ctx context.Context, e domain.ConversionEvent) error {
	m.events = append(m.events, e)
	return nil
}

const (
	lineState  = `{"config":{"userMap":{"features":[{"type":"line","title":"North","geometry":{"coordinates":[[37.6,55.7],[37.7,55.8]]}}]}}}`
	placeState = `{"config":{"routePoints":[{"title":"Camp","coordinates":[37.9,55.9]}]}}`
)

func newActivities(pub *mockPublisher) *workflows.MergeActivities {
	f := &mockFetcher{pages: map[string]string{
		"https://maps/a": lineState,
		"https://maps/b": placeState,
	}}
	return &workflows.MergeActivities{
		Conversions: usecases.NewConversionService(f, gpxenc.New(""), nil, pub, nil, nil, 0),
	}
}

func TestMergeWorkflow(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()

	pub := &mockPublisher{}
	env.RegisterWorkflow(workflows.MergeWorkflow)
	env.RegisterActivity(newActivities(pub))

	env.ExecuteWorkflow(workflows.MergeWorkflow, workflows.MergeInput{
		URLs:  []string{"https://maps/a", "https://maps/b", "https://maps/missing"},
		Shape: "routes",
	})

	if !env.IsWorkflowCompleted() {
		t.Fatal("workflow did not complete")
	}
	if err := env.GetWorkflowError(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var res workflows.MergeResult
	if err := env.GetWorkflowResult(&res); err != nil {
		t.Fatalf("result: %v", err)
	}
	if res.ConversionID == "" {
		t.Error("expected a conversion id")
	}
	if res.Lines != 1 || res.Points != 1 {
		t.Errorf("expected 1 line and 1 point, got %d/%d", res.Lines, res.Points)
	}
	if len(res.Failed) != 1 || res.Failed[0] != "https://maps/missing" {
		t.Errorf("expected the missing link to be reported, got %v", res.Failed)
	}
	if !strings.Contains(res.Summary, "Routes (1)") || !strings.Contains(res.Summary, "Camp") {
		t.Errorf("unexpected summary:\n%s", res.Summary)
	}
	if len(pub.events) != 1 {
		t.Errorf("expected one conversion event, got %d", len(pub.events))
	}
}

func TestMergeWorkflow_AllFail(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()

	env.RegisterWorkflow(workflows.MergeWorkflow)
	env.RegisterActivity(newActivities(&mockPublisher{}))

	env.ExecuteWorkflow(workflows.MergeWorkflow, workflows.MergeInput{
		URLs: []string{"https://maps/nope"},
	})

	if !env.IsWorkflowCompleted() {
		t.Fatal("workflow did not complete")
	}
	if env.GetWorkflowError() == nil {
		t.Fatal("expected an error when no link converts")
	}
}

// --- Mock ElevationService ---

type mockElevation struct {
	bulkCalls   int
	singleCalls int
}

func (m *mockElevation) ElevationFor(ctx context.Context, lat, lon float64) (*float64, error) {
	m.singleCalls++
	v := 100.0
	return &v, nil
}

func (m *mockElevation) AddElevations(ctx context.Context, doc *domain.TrackDocument, smooth bool) error {
	m.bulkCalls++
	for i := range doc.Tracks {
		for j := range doc.Tracks[i].Segments {
			for k := range doc.Tracks[i].Segments[j].Points {
				doc.Tracks[i].Segments[j].Points[k].SetElevation(100)
			}
		}
	}
	return nil
}

func TestBuildMerged_ElevationLookedUpOnce(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestActivityEnvironment()

	ele := &mockElevation{}
	acts := &workflows.MergeActivities{
		Conversions: usecases.NewConversionService(nil, gpxenc.New(""), nil, nil, nil, synth.New(ele), 0),
	}
	env.RegisterActivity(acts)

	line := func(name string) domain.GeoFeature {
		return domain.NewLine(name, []domain.Coordinate{{Lon: 37.6, Lat: 55.7}, {Lon: 37.7, Lat: 55.8}})
	}
	place := func(name string) domain.GeoFeature {
		return domain.NewPoint(name, domain.Coordinate{Lon: 37.9, Lat: 55.9})
	}
	extractions := []domain.Extraction{
		{Lines: []domain.GeoFeature{line("A")}, Points: []domain.GeoFeature{place("a")}},
		{Lines: []domain.GeoFeature{line("B")}, Points: []domain.GeoFeature{place("b")}},
		{Lines: []domain.GeoFeature{line("C")}, Points: []domain.GeoFeature{place("c")}},
	}

	val, err := env.ExecuteActivity(acts.BuildMerged, workflows.MergeInput{
		URLs:      []string{"https://maps/a", "https://maps/b", "https://maps/c"},
		Shape:     "tracks",
		Elevation: true,
	}, extractions)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var res workflows.MergeResult
	if err := val.Get(&res); err != nil {
		t.Fatalf("result: %v", err)
	}
	if res.Lines != 3 || res.Points != 3 {
		t.Errorf("expected 3 lines and 3 points, got %d/%d", res.Lines, res.Points)
	}
	if ele.bulkCalls != 1 {
		t.Errorf("expected one bulk track lookup, got %d", ele.bulkCalls)
	}
	// Each waypoint resolved exactly once
	if ele.singleCalls != 3 {
		t.Errorf("expected 3 single lookups, got %d", ele.singleCalls)
	}
}
