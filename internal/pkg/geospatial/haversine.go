package geospatial

import (
	"math"

	"github.com/samirrijal/ymaps2gpx/internal/core/domain"
)

const earthRadiusKm = 6371.0

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c * 1000 // meters
}

// Length2D sums the surface distance in meters along pts, ignoring elevation.
func Length2D(pts []domain.TrackPoint) float64 {
	var total float64
	for i := 1; i < len(pts); i++ {
		total += Haversine(pts[i-1].Lat, pts[i-1].Lon, pts[i].Lat, pts[i].Lon)
	}
	return total
}

// TrackLength2D sums the segments of t. Gaps between segments do not count.
func TrackLength2D(t domain.Track) float64 {
	var total float64
	for _, s := range t.Segments {
		total += Length2D(s.Points)
	}
	return total
}

// DocumentBounds returns the box around every point of doc, and false if
// doc has no points.
func DocumentBounds(doc *domain.TrackDocument) (domain.Bounds, bool) {
	b := domain.Bounds{MinLat: math.Inf(1), MinLon: math.Inf(1), MaxLat: math.Inf(-1), MaxLon: math.Inf(-1)}
	seen := false
	add := func(p domain.TrackPoint) {
		seen = true
		b.MinLat = math.Min(b.MinLat, p.Lat)
		b.MinLon = math.Min(b.MinLon, p.Lon)
		b.MaxLat = math.Max(b.MaxLat, p.Lat)
		b.MaxLon = math.Max(b.MaxLon, p.Lon)
	}
	for _, w := range doc.Waypoints {
		add(w)
	}
	for _, r := range doc.Routes {
		for _, p := range r.Points {
			add(p)
		}
	}
	for _, t := range doc.Tracks {
		for _, s := range t.Segments {
			for _, p := range s.Points {
				add(p)
			}
		}
	}
	if !seen {
		return domain.Bounds{}, false
	}
	return b, true
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
