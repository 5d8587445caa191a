package auth

import "errors"

var (
	ErrInvalidToken           = errors.New("invalid or expired token")
	ErrTenantRequired         = errors.New("token carries no tenant")
	ErrInsufficientPermission = errors.New("insufficient permissions")
	ErrPersonAccessDenied     = errors.New("members may only access their own attendance")
)
