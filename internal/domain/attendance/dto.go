package attendance

import (
	"fmt"

	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
)

// ========================================
// CAPTURE DTOs
// ========================================

type CheckInRequest struct {
	TenantID     string   `json:"-"`
	MarkedBy     string   `json:"-"`
	PersonID     string   `json:"person_id" validate:"required,max=64"`
	Date         string   `json:"date,omitempty" validate:"omitempty,date"`
	Context      string   `json:"context,omitempty" validate:"omitempty,oneof=daily subject event"`
	ContextRefID string   `json:"context_ref_id,omitempty" validate:"omitempty,max=64"`
	Timestamp    string   `json:"timestamp" validate:"required,datetime_offset"`
	Latitude     *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude    *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
	DeviceTag    *string  `json:"device_tag,omitempty" validate:"omitempty,max=128"`
}

func (r *CheckInRequest) Validate() error {
	errs := validator.Struct(r)
	validateScope(&errs, r.TenantID, r.Context, r.ContextRefID)
	validateCoordinates(&errs, r.Latitude, r.Longitude)
	return errs.OrNil()
}

// CheckOutRequest mirrors CheckInRequest; the record is located by person,
// date and context.
type CheckOutRequest struct {
	TenantID     string   `json:"-"`
	MarkedBy     string   `json:"-"`
	PersonID     string   `json:"person_id" validate:"required,max=64"`
	Date         string   `json:"date,omitempty" validate:"omitempty,date"`
	Context      string   `json:"context,omitempty" validate:"omitempty,oneof=daily subject event"`
	ContextRefID string   `json:"context_ref_id,omitempty" validate:"omitempty,max=64"`
	Timestamp    string   `json:"timestamp" validate:"required,datetime_offset"`
	Latitude     *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude    *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
	DeviceTag    *string  `json:"device_tag,omitempty" validate:"omitempty,max=128"`
}

func (r *CheckOutRequest) Validate() error {
	errs := validator.Struct(r)
	validateScope(&errs, r.TenantID, r.Context, r.ContextRefID)
	validateCoordinates(&errs, r.Latitude, r.Longitude)
	return errs.OrNil()
}

type ManualEntry struct {
	PersonID     string  `json:"person_id" validate:"required,max=64"`
	Date         string  `json:"date" validate:"required,date"`
	Context      string  `json:"context,omitempty" validate:"omitempty,oneof=daily subject event"`
	ContextRefID string  `json:"context_ref_id,omitempty" validate:"omitempty,max=64"`
	Status       string  `json:"status" validate:"required,oneof=present late absent half-day excused early_checkout"`
	Remarks      *string `json:"remarks,omitempty" validate:"omitempty,max=500"`
}

// Validate checks a single entry; tenantID comes from the enclosing batch.
func (e *ManualEntry) Validate(tenantID string) error {
	errs := validator.Struct(e)
	validateScope(&errs, tenantID, e.Context, e.ContextRefID)
	return errs.OrNil()
}

type ManualBatchRequest struct {
	TenantID   string        `json:"-"`
	OperatorID string        `json:"-"`
	Entries    []ManualEntry `json:"entries"`
}

// Validate checks the batch envelope only. Entries are validated one by one
// so that a bad entry fails alone.
func (r *ManualBatchRequest) Validate(maxEntries int) error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.TenantID) {
		errs.Add("tenant_id", "is required")
	}
	if validator.IsEmpty(r.OperatorID) {
		errs.Add("operator_id", "is required")
	}
	if len(r.Entries) == 0 {
		errs.Add("entries", "must contain at least one entry")
	} else if maxEntries > 0 && len(r.Entries) > maxEntries {
		errs.Add("entries", fmt.Sprintf("must contain at most %d entries", maxEntries))
	}
	return errs.OrNil()
}

type CorrectRecordRequest struct {
	RecordID   string  `json:"-"`
	TenantID   string  `json:"-"`
	OperatorID string  `json:"-"`
	Status     string  `json:"status" validate:"required,oneof=present late absent half-day excused early_checkout"`
	Remarks    *string `json:"remarks,omitempty" validate:"omitempty,max=500"`
	Reason     *string `json:"reason,omitempty" validate:"omitempty,max=500"`
	// Version, when sent, must match the stored version.
	Version *int `json:"version,omitempty" validate:"omitempty,gte=1"`
}

func (r *CorrectRecordRequest) Validate() error {
	errs := validator.Struct(r)
	if validator.IsEmpty(r.RecordID) {
		errs.Add("record_id", "is required")
	}
	if validator.IsEmpty(r.TenantID) {
		errs.Add("tenant_id", "is required")
	}
	if validator.IsEmpty(r.OperatorID) {
		errs.Add("operator_id", "is required")
	}
	return errs.OrNil()
}

type MarkAbsentRequest struct {
	TenantID     string   `json:"-"`
	OperatorID   string   `json:"-"`
	Date         string   `json:"date" validate:"required,date"`
	Context      string   `json:"context,omitempty" validate:"omitempty,oneof=daily subject event"`
	ContextRefID string   `json:"context_ref_id,omitempty" validate:"omitempty,max=64"`
	PersonIDs    []string `json:"person_ids,omitempty" validate:"omitempty,dive,required"`
}

func (r *MarkAbsentRequest) Validate() error {
	errs := validator.Struct(r)
	validateScope(&errs, r.TenantID, r.Context, r.ContextRefID)
	return errs.OrNil()
}

// ========================================
// REPORTING DTOs
// ========================================

type SummaryRequest struct {
	TenantID string `json:"-"`
	PersonID string `json:"person_id" validate:"required"`
	From     string `json:"from" validate:"required,date"`
	To       string `json:"to" validate:"required,date"`
	Context  string `json:"context,omitempty" validate:"omitempty,oneof=daily subject event"`
}

// MaxSummaryDays caps a single summary or export window.
const MaxSummaryDays = 366

func (r *SummaryRequest) Validate() error {
	errs := validator.Struct(r)
	if validator.IsEmpty(r.TenantID) {
		errs.Add("tenant_id", "is required")
	}
	validateRange(&errs, r.From, r.To)
	return errs.OrNil()
}

type HistoryRequest struct {
	TenantID string `json:"-"`
	PersonID string `json:"person_id" validate:"required"`
	Cursor   string `json:"cursor,omitempty"`
	PageSize int    `json:"page_size,omitempty" validate:"omitempty,gte=1,lte=100"`
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

func (r *HistoryRequest) Validate() error {
	errs := validator.Struct(r)
	if validator.IsEmpty(r.TenantID) {
		errs.Add("tenant_id", "is required")
	}
	return errs.OrNil()
}

type ExportRequest struct {
	TenantID string `json:"-"`
	PersonID string `json:"person_id" validate:"required"`
	From     string `json:"from" validate:"required,date"`
	To       string `json:"to" validate:"required,date"`
	Context  string `json:"context,omitempty" validate:"omitempty,oneof=daily subject event"`
}

func (r *ExportRequest) Validate() error {
	errs := validator.Struct(r)
	if validator.IsEmpty(r.TenantID) {
		errs.Add("tenant_id", "is required")
	}
	validateRange(&errs, r.From, r.To)
	return errs.OrNil()
}

// ========================================
// POLICY DTOs
// ========================================

type UpsertPolicyRequest struct {
	TenantID              string   `json:"-"`
	Context               string   `json:"-" validate:"required,oneof=daily subject event"`
	ExpectedCheckIn       string   `json:"expected_check_in" validate:"required,clock"`
	ExpectedCheckOut      string   `json:"expected_check_out" validate:"required,clock"`
	NextDayCheckOut       bool     `json:"next_day_check_out"`
	GracePeriodMinutes    *int     `json:"grace_period_minutes" validate:"required,gte=0,lte=1440"`
	StandardDayHours      *float64 `json:"standard_day_hours" validate:"required,gte=0,lte=24"`
	HalfDayThresholdHours *float64 `json:"half_day_threshold_hours" validate:"required,gte=0,lte=24"`
	Timezone              string   `json:"timezone,omitempty" validate:"omitempty,timezone"`
}

func (r *UpsertPolicyRequest) Validate() error {
	errs := validator.Struct(r)
	if validator.IsEmpty(r.TenantID) {
		errs.Add("tenant_id", "is required")
	}
	return errs.OrNil()
}

type PolicyResponse struct {
	TenantID              string   `json:"tenant_id"`
	Context               string   `json:"context"`
	ExpectedCheckIn       *string  `json:"expected_check_in"`
	ExpectedCheckOut      *string  `json:"expected_check_out"`
	NextDayCheckOut       bool     `json:"next_day_check_out"`
	GracePeriodMinutes    *int     `json:"grace_period_minutes"`
	StandardDayHours      *float64 `json:"standard_day_hours"`
	HalfDayThresholdHours *float64 `json:"half_day_threshold_hours"`
	Timezone              string   `json:"timezone"`
	UpdatedAt             string   `json:"updated_at"`
}

// ========================================
// RESPONSES
// ========================================

type EventResponse struct {
	Timestamp string   `json:"timestamp"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	DeviceTag *string  `json:"device_tag,omitempty"`
}

type AttendanceResponse struct {
	ID                  string         `json:"id"`
	TenantID            string         `json:"tenant_id"`
	PersonID            string         `json:"person_id"`
	Date                string         `json:"date"`
	Context             string         `json:"context"`
	ContextRefID        *string        `json:"context_ref_id,omitempty"`
	CheckIn             *EventResponse `json:"check_in,omitempty"`
	CheckOut            *EventResponse `json:"check_out,omitempty"`
	State               string         `json:"state"`
	Status              string         `json:"status"`
	LateByMinutes       int            `json:"late_by_minutes"`
	EarlyLeaveByMinutes int            `json:"early_leave_by_minutes"`
	WorkingHours        float64        `json:"working_hours"`
	OvertimeHours       float64        `json:"overtime_hours"`
	Remarks             *string        `json:"remarks,omitempty"`
	MarkedBy            *string        `json:"marked_by,omitempty"`
	UpdatedBy           *string        `json:"updated_by,omitempty"`
	Version             int            `json:"version"`
	CreatedAt           string         `json:"created_at"`
	UpdatedAt           string         `json:"updated_at"`
}

type CorrectionResponse struct {
	ID                          string   `json:"id"`
	RecordID                    string   `json:"record_id"`
	PreviousState               *string  `json:"previous_state,omitempty"`
	PreviousStatus              *string  `json:"previous_status,omitempty"`
	PreviousLateByMinutes       int      `json:"previous_late_by_minutes"`
	PreviousEarlyLeaveByMinutes int      `json:"previous_early_leave_by_minutes"`
	PreviousWorkingHours        float64  `json:"previous_working_hours"`
	PreviousOvertimeHours       float64  `json:"previous_overtime_hours"`
	PreviousRemarks             *string  `json:"previous_remarks,omitempty"`
	NewState                    string   `json:"new_state"`
	NewStatus                   string   `json:"new_status"`
	Reason                      *string  `json:"reason,omitempty"`
	CorrectedBy                 string   `json:"corrected_by"`
	CorrectedAt                 string   `json:"corrected_at"`
}

type BatchEntryResult struct {
	Index     int     `json:"index"`
	PersonID  string  `json:"person_id"`
	Date      string  `json:"date"`
	Success   bool    `json:"success"`
	RecordID  *string `json:"record_id,omitempty"`
	ErrorKind *string `json:"error_kind,omitempty"`
	Message   *string `json:"message,omitempty"`
}

type BatchResult struct {
	Total     int                `json:"total"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
	Results   []BatchEntryResult `json:"results"`
}

type ReconcileResult struct {
	Date     string             `json:"date"`
	Context  string             `json:"context"`
	Marked   int                `json:"marked"`
	Skipped  int                `json:"skipped"`
	Failed   int                `json:"failed"`
	Failures []BatchEntryResult `json:"failures,omitempty"`
}

type SummaryResponse struct {
	PersonID          string  `json:"person_id"`
	Context           string  `json:"context"`
	From              string  `json:"from"`
	To                string  `json:"to"`
	TotalExpectedDays int     `json:"total_expected_days"`
	Present           int     `json:"present"`
	Late              int     `json:"late"`
	Absent            int     `json:"absent"`
	HalfDay           int     `json:"half_day"`
	Excused           int     `json:"excused"`
	EarlyCheckout     int     `json:"early_checkout"`
	Unrecorded        int     `json:"unrecorded"`
	Percentage        float64 `json:"percentage"`
}

type HistoryResponse struct {
	Records    []AttendanceResponse `json:"records"`
	NextCursor *string              `json:"next_cursor,omitempty"`
}

func validateScope(errs *validator.ValidationErrors, tenantID, c, ref string) {
	if validator.IsEmpty(tenantID) {
		errs.Add("tenant_id", "is required")
	}
	if errs.Has("context") {
		return
	}
	ctxValue := Context(c)
	if c == "" {
		ctxValue = ContextDaily
	}
	if ctxValue.RequiresRef() && validator.IsEmpty(ref) {
		errs.Add("context_ref_id", "is required for "+string(ctxValue)+" attendance")
	}
	if !ctxValue.RequiresRef() && !validator.IsEmpty(ref) {
		errs.Add("context_ref_id", "must be empty for daily attendance")
	}
}

func validateCoordinates(errs *validator.ValidationErrors, lat, lng *float64) {
	if (lat == nil) != (lng == nil) && !errs.Has("latitude") && !errs.Has("longitude") {
		errs.Add("latitude", "latitude and longitude must be given together")
	}
}

func validateRange(errs *validator.ValidationErrors, from, to string) {
	if errs.Has("from") || errs.Has("to") {
		return
	}
	fromDate, _ := validator.IsValidDate(from)
	toDate, _ := validator.IsValidDate(to)
	if toDate.Before(fromDate) {
		errs.Add("to", "must not be before from")
		return
	}
	if int(toDate.Sub(fromDate).Hours()/24)+1 > MaxSummaryDays {
		errs.Add("to", fmt.Sprintf("range must not exceed %d days", MaxSummaryDays))
	}
}
