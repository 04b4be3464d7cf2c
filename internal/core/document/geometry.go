package document

import "github.com/samirrijal/ymaps2gpx/internal/core/domain"

// Coordinate reads a [lon, lat, ...] pair. Extra members such as altitude
// are ignored.
func (n Node) Coordinate() (domain.Coordinate, bool) {
	if n.Len() < 2 {
		return domain.Coordinate{}, false
	}
	lon, ok := n.Index(0).Float()
	if !ok {
		return domain.Coordinate{}, false
	}
	lat, ok := n.Index(1).Float()
	if !ok {
		return domain.Coordinate{}, false
	}
	return domain.Coordinate{Lon: lon, Lat: lat}, true
}

// LineString reads an array of coordinate pairs. It fails if the node is
// not an array or any member is not a pair.
func (n Node) LineString() ([]domain.Coordinate, bool) {
	if !n.IsArray() {
		return nil, false
	}
	items := n.Items()
	out := make([]domain.Coordinate, 0, len(items))
	for _, item := range items {
		c, ok := item.Coordinate()
		if !ok {
			return nil, false
		}
		out = append(out, c)
	}
	return out, true
}
