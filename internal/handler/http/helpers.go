package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
)

const maxJSONBody = 1 << 20

// decodeJSON reads a JSON body into dst, answering 400 on malformed input.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return false
	}
	return true
}

// callerClaims returns the claims stored by middleware.AuthRequired.
func callerClaims(w http.ResponseWriter, r *http.Request) (auth.Claims, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		response.HandleError(w, auth.ErrInvalidToken)
		return auth.Claims{}, false
	}
	return claims, true
}

// requirePersonAccess stops members from touching someone else's attendance.
func requirePersonAccess(w http.ResponseWriter, claims auth.Claims, personID string) bool {
	if !claims.CanAccessPerson(personID) {
		response.HandleError(w, auth.ErrPersonAccessDenied)
		return false
	}
	return true
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		var errs validator.ValidationErrors
		errs.Add(name, "must be an integer")
		return 0, errs
	}
	return n, nil
}
