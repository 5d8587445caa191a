package http

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/tenant"
	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/response"
	tenantService "github.com/cmlabs-hris/attendance-backend-go/internal/service/tenant"
)

type TenantHandler interface {
	Get(w http.ResponseWriter, r *http.Request)
	UpdateCode(w http.ResponseWriter, r *http.Request)
}

type tenantHandlerImpl struct {
	tenantService tenant.TenantService
}

func NewTenantHandler(tenantService tenant.TenantService) TenantHandler {
	return &tenantHandlerImpl{
		tenantService: tenantService,
	}
}

// Get implements TenantHandler. Returns the caller's tenant as resolved by
// middleware.RequireTenant.
func (h *tenantHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	t, ok := middleware.TenantFromContext(r.Context())
	if !ok {
		response.HandleError(w, auth.ErrTenantRequired)
		return
	}
	response.Success(w, tenantService.ToResponse(t))
}

// UpdateCode implements TenantHandler.
func (h *tenantHandlerImpl) UpdateCode(w http.ResponseWriter, r *http.Request) {
	t, ok := middleware.TenantFromContext(r.Context())
	if !ok {
		response.HandleError(w, auth.ErrTenantRequired)
		return
	}

	var req tenant.UpdateCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.TenantID = t.ID

	result, err := h.tenantService.UpdateCode(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Tenant code updated", result)
}
