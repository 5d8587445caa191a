package tenant

import "errors"

var (
	ErrTenantNotFound   = errors.New("tenant not found")
	ErrTenantCodeExists = errors.New("tenant code already exists")
	ErrTenantCodeLocked = errors.New("tenant code is referenced by issued identifiers and cannot change")
)
