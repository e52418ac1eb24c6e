package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/spec-kit/civic-service/pkg/util"
)

// SequenceRepository backs record-number sequences with a Postgres counter
// table. The increment is a single upsert statement, so concurrent callers
// each observe a distinct value; there is no read-then-write window.
type SequenceRepository struct {
	pool *pgxpool.Pool
}

// NewSequenceRepository builds the repository.
func NewSequenceRepository(pool *pgxpool.Pool) *SequenceRepository {
	return &SequenceRepository{pool: pool}
}

// Next atomically increments and returns the counter for key.
func (r *SequenceRepository) Next(ctx context.Context, key string) (int64, error) {
	const query = `
        INSERT INTO record_counters (key, value) VALUES ($1, 1)
        ON CONFLICT (key) DO UPDATE SET value = record_counters.value + 1
        RETURNING value`
	var value int64
	if err := r.pool.QueryRow(ctx, query, key).Scan(&value); err != nil {
		return 0, apperrors.NewDependencyUnavailable("sequence store", err)
	}
	return value, nil
}
