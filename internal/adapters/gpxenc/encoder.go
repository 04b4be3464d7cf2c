// Package gpxenc writes track documents as GPX 1.1.
package gpxenc

import (
	"fmt"

	"github.com/tkrajina/gpxgo/gpx"

	"github.com/samirrijal/ymaps2gpx/internal/core/domain"
)

// DefaultCreator is written to the creator attribute when none is set.
const DefaultCreator = "ymaps2gpx"

// Encoder implements ports.TrackEncoder.
type Encoder struct {
	creator string
}

// New creates an Encoder stamping files with creator.
func New(creator string) *Encoder {
	if creator == "" {
		creator = DefaultCreator
	}
	return &Encoder{creator: creator}
}

// Encode renders doc as indented GPX 1.1. name, if set, becomes the file's
// metadata name.
func (e *Encoder) Encode(doc *domain.TrackDocument, name string) ([]byte, error) {
	if doc == nil {
		doc = &domain.TrackDocument{}
	}

	g := &gpx.GPX{}
	g.Creator = e.creator
	g.Name = name

	for _, w := range doc.Waypoints {
		g.Waypoints = append(g.Waypoints, point(w))
	}

	for _, r := range doc.Routes {
		rte := gpx.GPXRoute{Name: r.Name}
		for _, p := range r.Points {
			rte.Points = append(rte.Points, point(p))
		}
		g.Routes = append(g.Routes, rte)
	}

	for _, t := range doc.Tracks {
		trk := gpx.GPXTrack{Name: t.Name}
		for _, s := range t.Segments {
			seg := gpx.GPXTrackSegment{}
			for _, p := range s.Points {
				seg.Points = append(seg.Points, point(p))
			}
			trk.Segments = append(trk.Segments, seg)
		}
		g.Tracks = append(g.Tracks, trk)
	}

	out, err := g.ToXml(gpx.ToXmlParams{Version: "1.1", Indent: true})
	if err != nil {
		return nil, fmt.Errorf("gpx to xml: %w", err)
	}
	return out, nil
}

func point(p domain.TrackPoint) gpx.GPXPoint {
	var out gpx.GPXPoint
	out.Latitude = p.Lat
	out.Longitude = p.Lon
	out.Name = p.Name
	if p.Elevation != nil {
		out.Elevation = *gpx.NewNullableFloat64(*p.Elevation)
	}
	return out
}
