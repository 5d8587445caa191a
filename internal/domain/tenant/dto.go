package tenant

import (
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
)

type UpdateCodeRequest struct {
	TenantID string `json:"-"`
	Code     string `json:"code" validate:"required,alphanum,min=2,max=10"`
}

func (r *UpdateCodeRequest) Validate() error {
	errs := validator.Struct(r)
	if validator.IsEmpty(r.TenantID) {
		errs.Add("tenant_id", "is required")
	}
	return errs.OrNil()
}

type TenantResponse struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Timezone  string `json:"timezone"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}
