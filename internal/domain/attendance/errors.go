package attendance

import (
	"errors"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/person"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
)

// Attendance domain errors
var (
	// Capture errors
	ErrDuplicateCheckIn       = errors.New("an attendance record already exists for this person, date and context")
	ErrNoCheckInFound         = errors.New("no check-in found for this person, date and context")
	ErrAlreadyCheckedOut      = errors.New("already checked out")
	ErrRecordNotOpen          = errors.New("attendance record is not open")
	ErrInvalidOrdering        = errors.New("check-out cannot be earlier than check-in")
	ErrConcurrentModification = errors.New("attendance record was modified concurrently")

	// Policy errors
	ErrPolicyNotFound = errors.New("no punctuality policy configured for this context")
	ErrInvalidPolicy  = errors.New("invalid punctuality policy")

	// General errors
	ErrRecordNotFound     = errors.New("attendance record not found")
	ErrInvalidCursor      = errors.New("invalid history cursor")
	ErrPersonNotFound     = person.ErrPersonNotFound
	ErrStorageUnavailable = database.ErrStorageUnavailable
)

// ErrorKind names the failure class of err for batch results.
func ErrorKind(err error) string {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrs):
		return "ValidationError"
	case errors.Is(err, ErrStorageUnavailable):
		return "StorageUnavailableError"
	case errors.Is(err, ErrDuplicateCheckIn):
		return "DuplicateCheckInError"
	case errors.Is(err, ErrNoCheckInFound):
		return "NoCheckInFoundError"
	case errors.Is(err, ErrAlreadyCheckedOut):
		return "AlreadyCheckedOutError"
	case errors.Is(err, ErrRecordNotOpen):
		return "RecordNotOpenError"
	case errors.Is(err, ErrInvalidOrdering):
		return "InvalidOrderingError"
	case errors.Is(err, ErrConcurrentModification):
		return "ConcurrentModificationError"
	case errors.Is(err, ErrPersonNotFound):
		return "PersonNotFoundError"
	case errors.Is(err, ErrInvalidPolicy):
		return "InvalidPolicyError"
	default:
		return "InternalError"
	}
}
