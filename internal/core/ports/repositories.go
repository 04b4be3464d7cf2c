package ports

import (
	"context"

	"github.com/samirrijal/ymaps2gpx/internal/core/domain"
)

// ConversionRepository persists finished conversions.
type ConversionRepository interface {
	Insert(ctx context.Context, c *domain.Conversion) error
	GetByID(ctx context.Context, id string) (*domain.Conversion, error)
	ListRecent(ctx context.Context, offset, limit int) ([]domain.Conversion, int, error)
}
