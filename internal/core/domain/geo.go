package domain

// Coordinate is a position in the source document's native axis order:
// longitude first, latitude second.
type Coordinate struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// GeoPoint is a geographic position in output order (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Point swaps the coordinate into latitude-then-longitude order.
func (c Coordinate) Point() GeoPoint {
	return GeoPoint{Lat: c.Lat, Lon: c.Lon}
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}
