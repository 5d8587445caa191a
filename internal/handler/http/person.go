package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/person"
	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

const maxRosterUpload = 10 << 20

type PersonHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Import(w http.ResponseWriter, r *http.Request)
}

type personHandlerImpl struct {
	personService person.PersonService
}

func NewPersonHandler(personService person.PersonService) PersonHandler {
	return &personHandlerImpl{
		personService: personService,
	}
}

// Create implements PersonHandler.
func (h *personHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := callerClaims(w, r)
	if !ok {
		return
	}

	var req person.CreatePersonRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.TenantID = claims.TenantID

	result, err := h.personService.Create(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Person created", result)
}

// Get implements PersonHandler.
func (h *personHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := callerClaims(w, r)
	if !ok {
		return
	}

	personID := chi.URLParam(r, "id")
	if !requirePersonAccess(w, claims, personID) {
		return
	}

	result, err := h.personService.GetByID(r.Context(), personID, claims.TenantID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Import implements PersonHandler. Expects a multipart form with the roster
// workbook in the 'file' field.
func (h *personHandlerImpl) Import(w http.ResponseWriter, r *http.Request) {
	claims, ok := callerClaims(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxRosterUpload); err != nil {
		slog.Error("Failed to parse multipart form", "error", err)
		response.BadRequest(w, "Failed to parse form data", nil)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			response.BadRequest(w, "Roster workbook is required", nil)
			return
		}
		slog.Error("Failed to get file from form", "error", err)
		response.BadRequest(w, "Invalid file upload", nil)
		return
	}
	defer file.Close()

	result, err := h.personService.Import(r.Context(), claims.TenantID, file)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Roster imported", result)
}
