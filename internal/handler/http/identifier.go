package http

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/identifier"
	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/response"
	identifierService "github.com/cmlabs-hris/attendance-backend-go/internal/service/identifier"
)

type IdentifierHandler interface {
	Issue(w http.ResponseWriter, r *http.Request)
	AssignRollNumber(w http.ResponseWriter, r *http.Request)
}

type identifierHandlerImpl struct {
	identifierService identifier.IdentifierService
}

func NewIdentifierHandler(identifierService identifier.IdentifierService) IdentifierHandler {
	return &identifierHandlerImpl{
		identifierService: identifierService,
	}
}

// Issue implements IdentifierHandler.
func (h *identifierHandlerImpl) Issue(w http.ResponseWriter, r *http.Request) {
	claims, ok := callerClaims(w, r)
	if !ok {
		return
	}

	var req identifier.IssueIdentifierRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.TenantID = claims.TenantID

	result, err := h.identifierService.IssueIdentifier(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Identifier issued", identifierService.ToResponse(result))
}

// AssignRollNumber implements IdentifierHandler.
func (h *identifierHandlerImpl) AssignRollNumber(w http.ResponseWriter, r *http.Request) {
	claims, ok := callerClaims(w, r)
	if !ok {
		return
	}

	var req identifier.AssignRollNumberRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.TenantID = claims.TenantID

	rollNumber, err := h.identifierService.AssignRollNumber(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Roll number assigned", identifier.RollNumberResponse{
		ClassID:    req.ClassID,
		RollNumber: rollNumber,
	})
}
