package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/identifier"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
)

type sequenceRepositoryImpl struct {
	db *database.DB
}

func NewSequenceRepository(db *database.DB) identifier.SequenceRepository {
	return &sequenceRepositoryImpl{db: db}
}

// Next implements identifier.SequenceRepository. The upsert takes a row
// lock, so concurrent callers for the same key serialize and each gets a
// distinct value.
func (r *sequenceRepositoryImpl) Next(ctx context.Context, key identifier.SequenceKey) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO identifier_sequences (tenant_id, entity_class, scope, year, last_value)
		VALUES ($1, $2, $3, $4, 1)
		ON CONFLICT (tenant_id, entity_class, scope, year)
		DO UPDATE SET last_value = identifier_sequences.last_value + 1, updated_at = now()
		RETURNING last_value
	`
	var next int64
	err := q.QueryRow(ctx, query, key.TenantID, string(key.EntityClass), key.Scope, key.Year).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", identifier.ErrAllocation, database.Classify(err))
	}
	return next, nil
}
