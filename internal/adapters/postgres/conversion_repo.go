package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/ymaps2gpx/internal/core/domain"
)

// ConversionRepo implements ports.ConversionRepository.
type ConversionRepo struct {
	db *DB
}

func NewConversionRepo(db *DB) *ConversionRepo {
	return &ConversionRepo{db: db}
}

func (r *ConversionRepo) Insert(ctx context.Context, c *domain.Conversion) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO conversions (id, source, shape, elevation, lines, points, summary, gpx, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, c.ID, c.Source, c.Shape, c.Elevation, c.Lines, c.Points, c.Summary, c.GPX, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert conversion: %w", err)
	}
	return nil
}

func (r *ConversionRepo) GetByID(ctx context.Context, id string) (*domain.Conversion, error) {
	c := &domain.Conversion{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, source, shape, elevation, lines, points, summary, gpx, created_at
		FROM conversions WHERE id = $1
	`, id).Scan(&c.ID, &c.Source, &c.Shape, &c.Elevation, &c.Lines, &c.Points, &c.Summary, &c.GPX, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListRecent returns one page of conversions, newest first, without GPX
// bodies, plus the total number stored.
func (r *ConversionRepo) ListRecent(ctx context.Context, offset, limit int) ([]domain.Conversion, int, error) {
	var total int
	if err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM conversions`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, source, shape, elevation, lines, points, summary, created_at
		FROM conversions
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	conversions := []domain.Conversion{}
	for rows.Next() {
		var c domain.Conversion
		if err := rows.Scan(&c.ID, &c.Source, &c.Shape, &c.Elevation, &c.Lines, &c.Points, &c.Summary, &c.CreatedAt); err != nil {
			return nil, 0, err
		}
		conversions = append(conversions, c)
	}
	return conversions, total, rows.Err()
}
