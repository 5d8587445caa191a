package middleware

import (
	"context"
	"net/http"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/tenant"
	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/response"
)

type tenantKey struct{}

// RequireTenant resolves the tenant named by the caller's token. Requests
// for an unknown tenant are rejected before reaching a handler.
func RequireTenant(tenants tenant.TenantRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := auth.ClaimsFromContext(r.Context())
			if !ok {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			t, err := tenants.GetByID(r.Context(), claims.TenantID)
			if err != nil {
				response.HandleError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), tenantKey{}, t)))
		})
	}
}

// TenantFromContext returns the tenant resolved by RequireTenant.
func TenantFromContext(ctx context.Context) (tenant.Tenant, bool) {
	t, ok := ctx.Value(tenantKey{}).(tenant.Tenant)
	return t, ok
}
