package memory

import (
	"context"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/identifier"
)

type sequenceRepositoryImpl struct {
	store *Store
}

func NewSequenceRepository(store *Store) identifier.SequenceRepository {
	return &sequenceRepositoryImpl{store: store}
}

func (r *sequenceRepositoryImpl) Next(ctx context.Context, key identifier.SequenceKey) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.counters[key]++
	return r.store.counters[key], nil
}
