package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/identifier"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
)

type sequenceRepositoryImpl struct {
	client *redis.Client
}

// NewSequenceRepository keeps counters in Redis. INCR is atomic, so the
// counter needs no lock; durability follows the server's persistence setup.
func NewSequenceRepository(client *redis.Client) identifier.SequenceRepository {
	return &sequenceRepositoryImpl{client: client}
}

func sequenceKey(key identifier.SequenceKey) string {
	return fmt.Sprintf("seq:%s:%s:%s:%d", key.TenantID, key.EntityClass, key.Scope, key.Year)
}

// Next implements identifier.SequenceRepository.
func (r *sequenceRepositoryImpl) Next(ctx context.Context, key identifier.SequenceKey) (int64, error) {
	next, err := r.client.Incr(ctx, sequenceKey(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", identifier.ErrAllocation, database.Classify(err))
	}
	return next, nil
}
