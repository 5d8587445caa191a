package memory

import (
	"context"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
)

type policyRepositoryImpl struct {
	store *Store
}

func NewPolicyRepository(store *Store) attendance.PolicyRepository {
	return &policyRepositoryImpl{store: store}
}

func (r *policyRepositoryImpl) Get(ctx context.Context, tenantID string, c attendance.Context) (attendance.Policy, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	p, ok := r.store.policies[policyKey(tenantID, c)]
	if !ok {
		return attendance.Policy{}, attendance.ErrPolicyNotFound
	}
	return p, nil
}

func (r *policyRepositoryImpl) Upsert(ctx context.Context, policy attendance.Policy) (attendance.Policy, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	policy.UpdatedAt = time.Now().UTC()
	r.store.policies[policyKey(policy.TenantID, policy.Context)] = policy
	return policy, nil
}
