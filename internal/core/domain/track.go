package domain

// TrackPoint is a position in a route, track segment or waypoint list.
// Elevation stays nil until an elevation lookup resolves it.
type TrackPoint struct {
	Lat       float64  `json:"lat"`
	Lon       float64  `json:"lon"`
	Elevation *float64 `json:"elevation,omitempty"`
	Name      string   `json:"name,omitempty"`
}

// SetElevation stores a resolved elevation in meters.
func (p *TrackPoint) SetElevation(meters float64) {
	p.Elevation = &meters
}

// Route is a named ordered list of route points.
type Route struct {
	Name   string       `json:"name"`
	Points []TrackPoint `json:"points"`
}

// TrackSegment is a continuous run of track points.
type TrackSegment struct {
	Points []TrackPoint `json:"points"`
}

// Track is an optionally named list of segments.
type Track struct {
	Name     string         `json:"name,omitempty"`
	Segments []TrackSegment `json:"segments"`
}

// TrackDocument is the normalized model handed to the GPX encoder.
type TrackDocument struct {
	Routes    []Route      `json:"routes"`
	Tracks    []Track      `json:"tracks"`
	Waypoints []TrackPoint `json:"waypoints"`
}

// PointCount returns the number of points across all collections.
func (d *TrackDocument) PointCount() int {
	n := len(d.Waypoints)
	for _, r := range d.Routes {
		n += len(r.Points)
	}
	for _, t := range d.Tracks {
		for _, s := range t.Segments {
			n += len(s.Points)
		}
	}
	return n
}
