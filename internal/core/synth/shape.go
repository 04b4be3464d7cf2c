package synth

import (
	"fmt"
	"strings"

	"github.com/samirrijal/ymaps2gpx/internal/core/domain"
)

// Shape selects how line features become GPX objects.
type Shape string

const (
	// ShapeRoutes turns every line into a named <rte>.
	ShapeRoutes Shape = "routes"
	// ShapeTracks turns every line into a named <trk> with one segment.
	ShapeTracks Shape = "tracks"
	// ShapeSegments puts all lines into one unnamed <trk>, one <trkseg> each.
	ShapeSegments Shape = "segments"
)

// DefaultShape matches what a plain link conversion produces.
const DefaultShape = ShapeTracks

// ParseShape reads a shape name; the empty string yields DefaultShape.
func ParseShape(s string) (Shape, error) {
	switch Shape(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultShape, nil
	case ShapeRoutes:
		return ShapeRoutes, nil
	case ShapeTracks:
		return ShapeTracks, nil
	case ShapeSegments, "track_segments":
		return ShapeSegments, nil
	default:
		return "", fmt.Errorf("unknown shape %q (want routes, tracks or segments)", s)
	}
}

// Shaped routes the extracted lines to the collection named by shape.
// Points always become waypoints.
func Shaped(shape Shape, e domain.Extraction, addElevation bool) Input {
	in := Input{Points: e.Points, AddElevation: addElevation}
	switch shape {
	case ShapeRoutes:
		in.Routes = e.Lines
	case ShapeSegments:
		in.TrackSegments = e.Lines
	default:
		in.Tracks = e.Lines
	}
	return in
}
