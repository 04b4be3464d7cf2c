// Package synth builds a track document out of extracted features.
package synth

import (
	"context"

	"github.com/samirrijal/ymaps2gpx/internal/core/domain"
	"github.com/samirrijal/ymaps2gpx/internal/core/ports"
	"github.com/samirrijal/ymaps2gpx/internal/pkg/logging"
)

// Input lists the features for each collection. Any subset may be set;
// each one is added independently.
type Input struct {
	Routes        []domain.GeoFeature
	Tracks        []domain.GeoFeature
	TrackSegments []domain.GeoFeature
	Points        []domain.GeoFeature
	AddElevation  bool
}

// Synthesizer populates track documents.
type Synthesizer struct {
	elevation ports.ElevationService
}

// New creates a Synthesizer. elevation may be nil, in which case
// AddElevation is ignored.
func New(elevation ports.ElevationService) *Synthesizer {
	return &Synthesizer{elevation: elevation}
}

// Synthesize appends in to doc, creating a document when doc is nil.
func (s *Synthesizer) Synthesize(ctx context.Context, doc *domain.TrackDocument, in Input) *domain.TrackDocument {
	if doc == nil {
		doc = &domain.TrackDocument{}
	}

	for _, line := range in.Routes {
		doc.Routes = append(doc.Routes, domain.Route{Name: line.Name, Points: trackPoints(line.Geometry)})
	}

	for _, line := range in.Tracks {
		doc.Tracks = append(doc.Tracks, domain.Track{
			Name:     line.Name,
			Segments: []domain.TrackSegment{{Points: trackPoints(line.Geometry)}},
		})
	}

	if len(in.TrackSegments) > 0 {
		track := domain.Track{Segments: make([]domain.TrackSegment, 0, len(in.TrackSegments))}
		for _, line := range in.TrackSegments {
			track.Segments = append(track.Segments, domain.TrackSegment{Points: trackPoints(line.Geometry)})
		}
		doc.Tracks = append(doc.Tracks, track)
	}

	for _, place := range in.Points {
		p := place.Position().Point()
		doc.Waypoints = append(doc.Waypoints, domain.TrackPoint{Lat: p.Lat, Lon: p.Lon, Name: place.Name})
	}

	if in.AddElevation && s.elevation != nil {
		s.addElevation(ctx, doc)
	}
	return doc
}

// addElevation resolves elevation point by point; failures leave the
// point untouched.
func (s *Synthesizer) addElevation(ctx context.Context, doc *domain.TrackDocument) {
	logger := logging.FromContext(ctx)

	if err := s.elevation.AddElevations(ctx, doc, true); err != nil {
		logger.Warn("track elevation partially unavailable", "error", err)
	}

	failed := 0
	resolve := func(p *domain.TrackPoint) {
		e, err := s.elevation.ElevationFor(ctx, p.Lat, p.Lon)
		if err != nil {
			failed++
			return
		}
		if e != nil {
			p.SetElevation(*e)
		}
	}
	for i := range doc.Routes {
		for j := range doc.Routes[i].Points {
			resolve(&doc.Routes[i].Points[j])
		}
	}
	for i := range doc.Waypoints {
		resolve(&doc.Waypoints[i])
	}
	if failed > 0 {
		logger.Warn("elevation lookups failed", "points", failed)
	}
}

func trackPoints(coords []domain.Coordinate) []domain.TrackPoint {
	out := make([]domain.TrackPoint, len(coords))
	for i, c := range coords {
		p := c.Point()
		out[i] = domain.TrackPoint{Lat: p.Lat, Lon: p.Lon}
	}
	return out
}
