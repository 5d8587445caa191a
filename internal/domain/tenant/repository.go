package tenant

import "context"

type TenantRepository interface {
	Create(ctx context.Context, tenant Tenant) (Tenant, error)
	GetByID(ctx context.Context, id string) (Tenant, error)
	List(ctx context.Context) ([]Tenant, error)
	// UpdateCode fails with ErrTenantCodeLocked once any person or sequence
	// counter references the tenant.
	UpdateCode(ctx context.Context, id string, code string) (Tenant, error)
}
