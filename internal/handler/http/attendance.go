package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/events"
	"github.com/go-chi/chi/v5"
)

type AttendanceHandler interface {
	CheckIn(w http.ResponseWriter, r *http.Request)
	CheckOut(w http.ResponseWriter, r *http.Request)
	ManualBatch(w http.ResponseWriter, r *http.Request)
	History(w http.ResponseWriter, r *http.Request)
	Summary(w http.ResponseWriter, r *http.Request)
	Export(w http.ResponseWriter, r *http.Request)
	Correct(w http.ResponseWriter, r *http.Request)
	Corrections(w http.ResponseWriter, r *http.Request)
	Reconcile(w http.ResponseWriter, r *http.Request)
	GetPolicy(w http.ResponseWriter, r *http.Request)
	UpsertPolicy(w http.ResponseWriter, r *http.Request)
	Stream(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
	hub               *events.Hub
	keepalive         time.Duration
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService, hub *events.Hub) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
		hub:               hub,
		keepalive:         30 * time.Second,
	}
}

// CheckIn implements AttendanceHandler.
func (h *attendanceHandlerImpl) CheckIn(w http.ResponseWriter, r *http.Request) {
	claims, ok := callerClaims(w, r)
	if !ok {
		return
	}

	var req attendance.CheckInRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !requirePersonAccess(w, claims, req.PersonID) {
		return
	}
	req.TenantID = claims.TenantID
	req.MarkedBy = claims.UserID

	result, err := h.attendanceService.RecordCheckIn(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Check in recorded", result)
}

// CheckOut implements AttendanceHandler.
func (h *attendanceHandlerImpl) CheckOut(w http.ResponseWriter, r *http.Request) {
	claims, ok := callerClaims(w, r)
	if !ok {
		return
	}

	var req attendance.CheckOutRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !requirePersonAccess(w, claims, req.PersonID) {
		return
	}
	req.TenantID = claims.TenantID
	req.MarkedBy = claims.UserID

	result, err := h.attendanceService.RecordCheckOut(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Check out recorded", result)
}

// ManualBatch implements AttendanceHandler. Per-entry failures are reported
// in the body; the request itself succeeds.
func (h *attendanceHandlerImpl) ManualBatch(w http.ResponseWriter, r *http.Request) {
	claims, ok := callerClaims(w, r)
	if !ok {
		return
	}

	var req attendance.ManualBatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.TenantID = claims.TenantID
	req.OperatorID = claims.UserID

	result, err := h.attendanceService.RecordManualBatch(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, fmt.Sprintf("%d of %d entries recorded", result.Succeeded, result.Total), result)
}

// History implements AttendanceHandler.
func (h *attendanceHandlerImpl) History(w http.ResponseWriter, r *http.Request) {
	claims, ok := callerClaims(w, r)
	if !ok {
		return
	}

	personID := chi.URLParam(r, "personId")
	if !requirePersonAccess(w, claims, personID) {
		return
	}

	pageSize, err := queryInt(r, "pageSize")
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.ListHistory(r.Context(), attendance.HistoryRequest{
		TenantID: claims.TenantID,
		PersonID: personID,
		Cursor:   r.URL.Query().Get("cursor"),
		PageSize: pageSize,
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Records, &response.Meta{
		PageSize:   len(result.Records),
		NextCursor: result.NextCursor,
	})
}

// Summary implements AttendanceHandler.
func (h *attendanceHandlerImpl) Summary(w http.ResponseWriter, r *http.Request) {
	claims, ok := callerClaims(w, r)
	if !ok {
		return
	}

	personID := chi.URLParam(r, "personId")
	if !requirePersonAccess(w, claims, personID) {
		return
	}

	query := r.URL.Query()
	result, err := h.attendanceService.Summarize(r.Context(), attendance.SummaryRequest{
		TenantID: claims.TenantID,
		PersonID: personID,
		From:     query.Get("from"),
		To:       query.Get("to"),
		Context:  query.Get("context"),
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Export implements AttendanceHandler. The workbook is built in memory so a
// failure can still be answered with a JSON error.
func (h *attendanceHandlerImpl) Export(w http.ResponseWriter, r *http.Request) {
	claims, ok := callerClaims(w, r)
	if !ok {
		return
	}

	personID := chi.URLParam(r, "personId")
	if !requirePersonAccess(w, claims, personID) {
		return
	}

	query := r.URL.Query()
	req := attendance.ExportRequest{
		TenantID: claims.TenantID,
		PersonID: personID,
		From:     query.Get("from"),
		To:       query.Get("to"),
		Context:  query.Get("context"),
	}

	var buf bytes.Buffer
	if err := h.attendanceService.ExportHistory(r.Context(), req, &buf); err != nil {
		response.HandleError(w, err)
		return
	}

	filename := fmt.Sprintf("attendance_%s_%s_%s.xlsx", personID, req.From, req.To)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("Failed to write attendance export", "person_id", personID, "error", err)
	}
}

// Correct implements AttendanceHandler.
func (h *attendanceHandlerImpl) Correct(w http.ResponseWriter, r *http.Request) {
	claims, ok := callerClaims(w, r)
	if !ok {
		return
	}

	var req attendance.CorrectRecordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.RecordID = chi.URLParam(r, "recordId")
	req.TenantID = claims.TenantID
	req.OperatorID = claims.UserID

	result, err := h.attendanceService.CorrectRecord(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance record corrected", result)
}

// Corrections implements AttendanceHandler.
func (h *attendanceHandlerImpl) Corrections(w http.ResponseWriter, r *http.Request) {
	claims, ok := callerClaims(w, r)
	if !ok {
		return
	}

	result, err := h.attendanceService.ListCorrections(r.Context(), chi.URLParam(r, "recordId"), claims.TenantID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Reconcile implements AttendanceHandler.
func (h *attendanceHandlerImpl) Reconcile(w http.ResponseWriter, r *http.Request) {
	claims, ok := callerClaims(w, r)
	if !ok {
		return
	}

	var req attendance.MarkAbsentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.TenantID = claims.TenantID
	req.OperatorID = claims.UserID

	result, err := h.attendanceService.MarkAbsent(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Absentees marked", result)
}

// GetPolicy implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetPolicy(w http.ResponseWriter, r *http.Request) {
	claims, ok := callerClaims(w, r)
	if !ok {
		return
	}

	result, err := h.attendanceService.GetPolicy(r.Context(), claims.TenantID, attendance.Context(chi.URLParam(r, "context")))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// UpsertPolicy implements AttendanceHandler.
func (h *attendanceHandlerImpl) UpsertPolicy(w http.ResponseWriter, r *http.Request) {
	claims, ok := callerClaims(w, r)
	if !ok {
		return
	}

	var req attendance.UpsertPolicyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.TenantID = claims.TenantID
	req.Context = chi.URLParam(r, "context")

	result, err := h.attendanceService.UpsertPolicy(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Policy saved", result)
}

// Stream handles the SSE connection carrying the tenant's attendance events.
func (h *attendanceHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	claims, ok := callerClaims(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	stream, cleanup := h.hub.Subscribe(claims.TenantID)
	defer cleanup()

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"tenant_id\":%q}\n\n", claims.TenantID)
	flusher.Flush()

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-stream:
			if !ok {
				return
			}
			if !claims.CanAccessPerson(event.PersonID) {
				continue
			}
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
