package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/identifier"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/person"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/tenant"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Retryable infrastructure errors
	case errors.Is(err, identifier.ErrAllocation):
		ServiceUnavailable(w, "Identifier allocation failed, retry the request")
	case errors.Is(err, database.ErrStorageUnavailable):
		ServiceUnavailable(w, "Storage unavailable, retry the request")

	// Auth errors
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, auth.ErrTenantRequired):
		Forbidden(w, "Token carries no tenant")
	case errors.Is(err, auth.ErrInsufficientPermission):
		Forbidden(w, "Insufficient permissions")
	case errors.Is(err, auth.ErrPersonAccessDenied):
		Forbidden(w, "Members may only access their own attendance")

	// Identifier errors
	case errors.Is(err, identifier.ErrRollNumberExhausted):
		Conflict(w, "ROLL_NUMBER_EXHAUSTED", "No free roll number found, retry later")
	case errors.Is(err, identifier.ErrEmptyTenantCode):
		InternalServerError(w, "INVALID_TENANT", "Tenant has no code configured")

	// Tenant errors
	case errors.Is(err, tenant.ErrTenantNotFound):
		NotFound(w, "TENANT_NOT_FOUND", "Tenant not found")
	case errors.Is(err, tenant.ErrTenantCodeExists):
		Conflict(w, "TENANT_CODE_EXISTS", "Tenant code already exists")
	case errors.Is(err, tenant.ErrTenantCodeLocked):
		Conflict(w, "TENANT_CODE_LOCKED", "Tenant code is already referenced by issued identifiers")

	// Person errors
	case errors.Is(err, person.ErrPersonNotFound):
		NotFound(w, "PERSON_NOT_FOUND", "Person not found")
	case errors.Is(err, person.ErrIdentifierExists):
		Conflict(w, "IDENTIFIER_EXISTS", "Identifier already assigned in this tenant")
	case errors.Is(err, person.ErrRollNumberTaken):
		Conflict(w, "ROLL_NUMBER_TAKEN", "Roll number already taken in this class")
	case errors.Is(err, person.ErrInvalidWorkbook):
		UnprocessableEntity(w, "INVALID_WORKBOOK", err.Error())

	// Attendance errors
	case errors.Is(err, attendance.ErrDuplicateCheckIn):
		Conflict(w, "DUPLICATE_CHECK_IN", "Attendance already recorded for this person, date and context")
	case errors.Is(err, attendance.ErrAlreadyCheckedOut):
		Conflict(w, "ALREADY_CHECKED_OUT", "Already checked out")
	case errors.Is(err, attendance.ErrRecordNotOpen):
		Conflict(w, "RECORD_NOT_OPEN", "Attendance record is not open")
	case errors.Is(err, attendance.ErrConcurrentModification):
		Conflict(w, "CONCURRENT_MODIFICATION", "Attendance record was modified concurrently, reload and retry")
	case errors.Is(err, attendance.ErrInvalidOrdering):
		UnprocessableEntity(w, "INVALID_ORDERING", "Check-out cannot be earlier than check-in")
	case errors.Is(err, attendance.ErrInvalidCursor):
		BadRequest(w, "Invalid history cursor", nil)
	case errors.Is(err, attendance.ErrNoCheckInFound):
		NotFound(w, "NO_CHECK_IN_FOUND", "No check-in found for this person, date and context")
	case errors.Is(err, attendance.ErrRecordNotFound):
		NotFound(w, "RECORD_NOT_FOUND", "Attendance record not found")
	case errors.Is(err, attendance.ErrInvalidPolicy):
		slog.Error("Punctuality policy misconfigured", "error", err)
		InternalServerError(w, "INVALID_POLICY", err.Error())
	case errors.Is(err, attendance.ErrPolicyNotFound):
		NotFound(w, "POLICY_NOT_FOUND", "No punctuality policy configured for this context")

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "INTERNAL_SERVER_ERROR", "An unexpected error occurred")
	}
}
