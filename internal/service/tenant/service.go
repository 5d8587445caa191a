package tenant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/tenant"
)

type TenantServiceImpl struct {
	tenant.TenantRepository
}

var _ tenant.TenantService = (*TenantServiceImpl)(nil)

func NewTenantService(tenantRepository tenant.TenantRepository) *TenantServiceImpl {
	return &TenantServiceImpl{
		TenantRepository: tenantRepository,
	}
}

// UpdateCode implements tenant.TenantService.
func (s *TenantServiceImpl) UpdateCode(ctx context.Context, req tenant.UpdateCodeRequest) (tenant.TenantResponse, error) {
	if err := req.Validate(); err != nil {
		return tenant.TenantResponse{}, err
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	updated, err := s.TenantRepository.UpdateCode(ctx, req.TenantID, code)
	if err != nil {
		if errors.Is(err, tenant.ErrTenantNotFound) ||
			errors.Is(err, tenant.ErrTenantCodeLocked) ||
			errors.Is(err, tenant.ErrTenantCodeExists) {
			return tenant.TenantResponse{}, err
		}
		return tenant.TenantResponse{}, fmt.Errorf("failed to update tenant code: %w", err)
	}

	slog.Info("tenant code updated", "tenant_id", updated.ID, "code", updated.Code)
	return ToResponse(updated), nil
}

func ToResponse(t tenant.Tenant) tenant.TenantResponse {
	return tenant.TenantResponse{
		ID:        t.ID,
		Code:      t.Code,
		Name:      t.Name,
		Timezone:  t.Location().String(),
		CreatedAt: t.CreatedAt.Format(time.RFC3339),
		UpdatedAt: t.UpdatedAt.Format(time.RFC3339),
	}
}
