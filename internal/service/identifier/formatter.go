package identifier

import (
	"fmt"
	"strings"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/identifier"
)

// Format renders an allocated ordinal as a human-readable identifier:
//
//	student  GUL-25-0007
//	teacher  GUL-TCH-2025-0007
//	staff    GUL-STF-2025-0007
//
// Ordinals above 9999 keep their natural width.
func Format(tenantCode string, entityClass identifier.EntityClass, year int, ordinal int64) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(tenantCode))
	if code == "" {
		return "", identifier.ErrEmptyTenantCode
	}
	if ordinal <= 0 {
		return "", identifier.ErrInvalidOrdinal
	}
	if year < 1000 || year > 9999 {
		return "", identifier.ErrInvalidYear
	}

	switch entityClass {
	case identifier.EntityClassStudent:
		return fmt.Sprintf("%s-%02d-%04d", code, year%100, ordinal), nil
	case identifier.EntityClassTeacher:
		return fmt.Sprintf("%s-TCH-%04d-%04d", code, year, ordinal), nil
	case identifier.EntityClassStaff:
		return fmt.Sprintf("%s-STF-%04d-%04d", code, year, ordinal), nil
	default:
		return "", fmt.Errorf("%w: %q", identifier.ErrUnknownEntityClass, entityClass)
	}
}
