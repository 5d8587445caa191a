package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/identifier"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/person"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/tenant"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"allocation", fmt.Errorf("%w: %w", identifier.ErrAllocation, database.ErrStorageUnavailable), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"storage", fmt.Errorf("failed to list: %w", database.ErrStorageUnavailable), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"roll number exhausted", identifier.ErrRollNumberExhausted, http.StatusConflict, "ROLL_NUMBER_EXHAUSTED"},
		{"duplicate check-in", attendance.ErrDuplicateCheckIn, http.StatusConflict, "DUPLICATE_CHECK_IN"},
		{"already checked out", attendance.ErrAlreadyCheckedOut, http.StatusConflict, "ALREADY_CHECKED_OUT"},
		{"record not open", attendance.ErrRecordNotOpen, http.StatusConflict, "RECORD_NOT_OPEN"},
		{"concurrent modification", attendance.ErrConcurrentModification, http.StatusConflict, "CONCURRENT_MODIFICATION"},
		{"no check-in", attendance.ErrNoCheckInFound, http.StatusNotFound, "NO_CHECK_IN_FOUND"},
		{"record not found", attendance.ErrRecordNotFound, http.StatusNotFound, "RECORD_NOT_FOUND"},
		{"tenant not found", tenant.ErrTenantNotFound, http.StatusNotFound, "TENANT_NOT_FOUND"},
		{"person not found", person.ErrPersonNotFound, http.StatusNotFound, "PERSON_NOT_FOUND"},
		{"policy not found", attendance.ErrPolicyNotFound, http.StatusNotFound, "POLICY_NOT_FOUND"},
		{"invalid ordering", attendance.ErrInvalidOrdering, http.StatusUnprocessableEntity, "INVALID_ORDERING"},
		{"missing policy during capture", errors.Join(attendance.ErrInvalidPolicy, attendance.ErrPolicyNotFound), http.StatusInternalServerError, "INVALID_POLICY"},
		{"validation", validator.ValidationErrors{{Field: "date", Message: "is required"}}, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"workbook", fmt.Errorf("%w: no header row", person.ErrInvalidWorkbook), http.StatusUnprocessableEntity, "INVALID_WORKBOOK"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.wantCode, body.Error.Code)
		})
	}
}

func TestServiceUnavailableSetsRetryAfter(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleError(rec, database.ErrStorageUnavailable)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}
