package identifier

import (
	"errors"

	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
)

var (
	// ErrAllocation means the counter store failed; no number may be assumed consumed.
	ErrAllocation          = errors.New("sequence allocation failed")
	ErrRollNumberExhausted = errors.New("no free roll number found within the attempt limit")
	ErrEmptyTenantCode     = errors.New("tenant code is empty")
	ErrInvalidOrdinal      = errors.New("ordinal must be positive")
	ErrUnknownEntityClass  = errors.New("unknown entity class")
	ErrInvalidYear         = errors.New("year must be between 1000 and 9999")
	ErrStorageUnavailable  = database.ErrStorageUnavailable
)
