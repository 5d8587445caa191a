package tenant

import "context"

type TenantService interface {
	// UpdateCode renames the identifier prefix. Refused with
	// ErrTenantCodeLocked once any identifier has been issued.
	UpdateCode(ctx context.Context, req UpdateCodeRequest) (TenantResponse, error)
}
