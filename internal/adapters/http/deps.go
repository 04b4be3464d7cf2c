package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/ymaps2gpx/internal/adapters/postgres"
	"github.com/samirrijal/ymaps2gpx/internal/adapters/valkey"
	"github.com/samirrijal/ymaps2gpx/internal/core/domain"
	"github.com/samirrijal/ymaps2gpx/internal/core/synth"
	"github.com/samirrijal/ymaps2gpx/internal/core/usecases"
)

// MergeQueue accepts merge jobs for the background worker.
type MergeQueue interface {
	PublishMergeRequest(ctx context.Context, req domain.MergeRequest) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Conversions  *usecases.ConversionService
	Merges       MergeQueue
	DefaultShape synth.Shape
	Version      string
	NATS         *nats.Conn
	DB           *postgres.DB
	Cache        *valkey.Cache
}
