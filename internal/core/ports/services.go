package ports

import (
	"context"

	"github.com/samirrijal/ymaps2gpx/internal/core/domain"
)

// ElevationService resolves terrain elevation in meters.
type ElevationService interface {
	// ElevationFor returns nil when the position has no known elevation.
	ElevationFor(ctx context.Context, lat, lon float64) (*float64, error)
	// AddElevations fills track points in place. A failed point is left
	// without elevation and does not stop the others; the returned error
	// describes any such failures.
	AddElevations(ctx context.Context, doc *domain.TrackDocument, smooth bool) error
}

// PageFetcher downloads a map page and returns the embedded state JSON.
type PageFetcher interface {
	FetchState(ctx context.Context, url string) ([]byte, error)
}

// TrackEncoder serializes a track document to GPX.
type TrackEncoder interface {
	Encode(doc *domain.TrackDocument, name string) ([]byte, error)
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishConversion(ctx context.Context, event domain.ConversionEvent) error
}

// CacheService provides read-through caching. A miss is a nil value with a
// nil error.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	GetMany(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	SetMany(ctx context.Context, values map[string][]byte, ttlSeconds int) error
}
