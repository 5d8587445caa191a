package person

import (
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
)

type CreatePersonRequest struct {
	TenantID         string  `json:"-"`
	EntityClass      string  `json:"entity_class" validate:"required,oneof=student teacher staff"`
	FullName         string  `json:"full_name" validate:"required,max=255"`
	Scope            string  `json:"scope,omitempty" validate:"omitempty,max=50"`
	ClassID          *string `json:"class_id,omitempty" validate:"omitempty,max=64"`
	AssignRollNumber bool    `json:"assign_roll_number,omitempty"`
	EnrolledOn       string  `json:"enrolled_on" validate:"required,date"`
	LeftOn           *string `json:"left_on,omitempty" validate:"omitempty,date"`
}

func (r *CreatePersonRequest) Validate() error {
	errs := validator.Struct(r)
	if validator.IsEmpty(r.TenantID) {
		errs.Add("tenant_id", "is required")
	}
	if validator.IsEmpty(r.FullName) && !errs.Has("full_name") {
		errs.Add("full_name", "is required")
	}
	if r.AssignRollNumber && (r.ClassID == nil || validator.IsEmpty(*r.ClassID)) {
		errs.Add("class_id", ErrClassRequired.Error())
	}
	if r.LeftOn != nil && !errs.Has("left_on") && !errs.Has("enrolled_on") {
		enrolled, _ := validator.IsValidDate(r.EnrolledOn)
		left, _ := validator.IsValidDate(*r.LeftOn)
		if left.Before(enrolled) {
			errs.Add("left_on", ErrLeftBeforeEnrolled.Error())
		}
	}
	return errs.OrNil()
}

type PersonResponse struct {
	ID          string  `json:"id"`
	TenantID    string  `json:"tenant_id"`
	EntityClass string  `json:"entity_class"`
	Identifier  string  `json:"identifier"`
	IssueYear   int     `json:"issue_year"`
	FullName    string  `json:"full_name"`
	ClassID     *string `json:"class_id,omitempty"`
	RollNumber  *string `json:"roll_number,omitempty"`
	EnrolledOn  string  `json:"enrolled_on"`
	LeftOn      *string `json:"left_on,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

type ImportRowResult struct {
	Row        int     `json:"row"`
	Success    bool    `json:"success"`
	PersonID   *string `json:"person_id,omitempty"`
	Identifier *string `json:"identifier,omitempty"`
	Error      *string `json:"error,omitempty"`
}

type ImportResult struct {
	Total     int               `json:"total"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Rows      []ImportRowResult `json:"rows"`
}
