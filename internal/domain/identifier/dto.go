package identifier

import (
	"fmt"
	"strings"

	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
)

type IssueIdentifierRequest struct {
	TenantID    string `json:"-"`
	EntityClass string `json:"entity_class" validate:"required,oneof=student teacher staff"`
	Scope       string `json:"scope,omitempty" validate:"omitempty,max=50"`
	Year        int    `json:"year,omitempty" validate:"omitempty,gte=1000,lte=9999"`
}

func (r *IssueIdentifierRequest) Validate() error {
	errs := validator.Struct(r)
	if validator.IsEmpty(r.TenantID) {
		errs.Add("tenant_id", "is required")
	}
	// The scope is not printed in the identifier, so a second counter per
	// (tenant, class, year) would reissue the same strings.
	class := EntityClass(r.EntityClass)
	if scope := strings.TrimSpace(r.Scope); scope != "" && class.Valid() && scope != class.DefaultScope() {
		errs.Add("scope", fmt.Sprintf("must be %q for %s identifiers", class.DefaultScope(), class))
	}
	return errs.OrNil()
}

type AssignRollNumberRequest struct {
	TenantID string `json:"-"`
	ClassID  string `json:"class_id" validate:"required,max=64"`
}

func (r *AssignRollNumberRequest) Validate() error {
	errs := validator.Struct(r)
	if validator.IsEmpty(r.TenantID) {
		errs.Add("tenant_id", "is required")
	}
	return errs.OrNil()
}

type IdentifierResponse struct {
	Identifier  string `json:"identifier"`
	TenantID    string `json:"tenant_id"`
	EntityClass string `json:"entity_class"`
	Scope       string `json:"scope"`
	Year        int    `json:"year"`
	Ordinal     int64  `json:"ordinal"`
	IssuedAt    string `json:"issued_at"`
}

type RollNumberResponse struct {
	ClassID    string `json:"class_id"`
	RollNumber string `json:"roll_number"`
}
