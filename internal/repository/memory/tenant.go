package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/tenant"
	"github.com/google/uuid"
)

type tenantRepositoryImpl struct {
	store *Store
}

func NewTenantRepository(store *Store) tenant.TenantRepository {
	return &tenantRepositoryImpl{store: store}
}

func (r *tenantRepositoryImpl) Create(ctx context.Context, t tenant.Tenant) (tenant.Tenant, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.tenants {
		if strings.EqualFold(existing.Code, t.Code) {
			return tenant.Tenant{}, tenant.ErrTenantCodeExists
		}
	}
	if t.ID == "" {
		t.ID = uuid.Must(uuid.NewV7()).String()
	}
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	r.store.tenants[t.ID] = t
	return t, nil
}

func (r *tenantRepositoryImpl) GetByID(ctx context.Context, id string) (tenant.Tenant, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	t, ok := r.store.tenants[id]
	if !ok {
		return tenant.Tenant{}, tenant.ErrTenantNotFound
	}
	return t, nil
}

func (r *tenantRepositoryImpl) List(ctx context.Context) ([]tenant.Tenant, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]tenant.Tenant, 0, len(r.store.tenants))
	for _, t := range r.store.tenants {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (r *tenantRepositoryImpl) UpdateCode(ctx context.Context, id string, code string) (tenant.Tenant, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	t, ok := r.store.tenants[id]
	if !ok {
		return tenant.Tenant{}, tenant.ErrTenantNotFound
	}
	for _, p := range r.store.persons {
		if p.TenantID == id {
			return tenant.Tenant{}, tenant.ErrTenantCodeLocked
		}
	}
	for key := range r.store.counters {
		if key.TenantID == id {
			return tenant.Tenant{}, tenant.ErrTenantCodeLocked
		}
	}
	for otherID, other := range r.store.tenants {
		if otherID != id && strings.EqualFold(other.Code, code) {
			return tenant.Tenant{}, tenant.ErrTenantCodeExists
		}
	}

	t.Code = code
	t.UpdatedAt = time.Now().UTC()
	r.store.tenants[id] = t
	return t, nil
}
