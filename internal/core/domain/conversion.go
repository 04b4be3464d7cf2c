package domain

import "time"

// Conversion is the record of one finished map-to-GPX run.
type Conversion struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Shape     string    `json:"shape"`
	Elevation bool      `json:"elevation"`
	Lines     int       `json:"lines"`
	Points    int       `json:"points"`
	Summary   string    `json:"summary"`
	GPX       []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// ConversionEvent is published once a conversion has been recorded.
type ConversionEvent struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Shape     string    `json:"shape"`
	Lines     int       `json:"lines"`
	Points    int       `json:"points"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}

// Event builds the broker payload for c.
func (c *Conversion) Event() ConversionEvent {
	return ConversionEvent{
		ID:        c.ID,
		Source:    c.Source,
		Shape:     c.Shape,
		Lines:     c.Lines,
		Points:    c.Points,
		Summary:   c.Summary,
		CreatedAt: c.CreatedAt,
	}
}

// MergeRequest asks for several map links to be combined into one GPX file.
type MergeRequest struct {
	URLs      []string `json:"urls"`
	Shape     string   `json:"shape,omitempty"`
	Elevation bool     `json:"elevation,omitempty"`
}
