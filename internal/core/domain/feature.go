package domain

// GeoFeature is a named line or point pulled out of a map document.
// Line features hold one or more coordinates, point features exactly one.
type GeoFeature struct {
	Name     string       `json:"name"`
	Geometry []Coordinate `json:"geometry"`
}

// NewLine builds a line feature.
func NewLine(name string, coords []Coordinate) GeoFeature {
	return GeoFeature{Name: name, Geometry: coords}
}

// NewPoint builds a point feature.
func NewPoint(name string, c Coordinate) GeoFeature {
	return GeoFeature{Name: name, Geometry: []Coordinate{c}}
}

// Position returns the single coordinate of a point feature.
func (f GeoFeature) Position() Coordinate {
	if len(f.Geometry) == 0 {
		return Coordinate{}
	}
	return f.Geometry[0]
}

// Extraction holds the features found in one document, in discovery order.
type Extraction struct {
	Lines  []GeoFeature `json:"lines"`
	Points []GeoFeature `json:"points"`
}

// Empty reports whether nothing was extracted.
func (e Extraction) Empty() bool {
	return len(e.Lines) == 0 && len(e.Points) == 0
}

// Merge appends other after e, keeping order.
func (e Extraction) Merge(other Extraction) Extraction {
	return Extraction{
		Lines:  append(append([]GeoFeature(nil), e.Lines...), other.Lines...),
		Points: append(append([]GeoFeature(nil), e.Points...), other.Points...),
	}
}
