package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/events"
)

// CorrectRecord implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CorrectRecord(ctx context.Context, req attendance.CorrectRecordRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	record, err := s.AttendanceRepository.GetByID(ctx, req.RecordID, req.TenantID)
	if err != nil {
		if errors.Is(err, attendance.ErrRecordNotFound) {
			return attendance.AttendanceResponse{}, err
		}
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get attendance record: %w", err)
	}
	if req.Version != nil && *req.Version != record.Version {
		return attendance.AttendanceResponse{}, attendance.ErrConcurrentModification
	}

	now := s.now().UTC()
	previousState, previousStatus := record.State, record.Status
	correction := attendance.Correction{
		ID:                          newID(),
		RecordID:                    record.ID,
		TenantID:                    record.TenantID,
		PreviousState:               &previousState,
		PreviousStatus:              &previousStatus,
		PreviousLateByMinutes:       record.LateByMinutes,
		PreviousEarlyLeaveByMinutes: record.EarlyLeaveByMinutes,
		PreviousWorkingHours:        record.WorkingHours,
		PreviousOvertimeHours:       record.OvertimeHours,
		PreviousRemarks:             record.Remarks,
		NewState:                    attendance.StateCorrected,
		NewStatus:                   attendance.Status(req.Status),
		Reason:                      req.Reason,
		CorrectedBy:                 req.OperatorID,
		CorrectedAt:                 now,
	}

	record.State = attendance.StateCorrected
	record.Status = attendance.Status(req.Status)
	if req.Remarks != nil {
		record.Remarks = req.Remarks
	}
	record.UpdatedBy = &req.OperatorID
	record.UpdatedAt = now

	updated, err := s.AttendanceRepository.ApplyCorrection(ctx, record, correction)
	if err != nil {
		if errors.Is(err, attendance.ErrConcurrentModification) || errors.Is(err, attendance.ErrRecordNotFound) {
			return attendance.AttendanceResponse{}, err
		}
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to apply correction: %w", err)
	}

	s.metrics.IncCorrection()
	slog.Info("attendance corrected",
		"record_id", updated.ID,
		"tenant_id", updated.TenantID,
		"operator_id", req.OperatorID,
		"previous_status", previousStatus,
		"new_status", updated.Status,
	)
	s.afterWrite(ctx, updated, events.TypeAttendanceCorrected)

	return mapRecordToResponse(updated), nil
}

// ListCorrections implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListCorrections(ctx context.Context, recordID string, tenantID string) ([]attendance.CorrectionResponse, error) {
	corrections, err := s.AttendanceRepository.ListCorrections(ctx, recordID, tenantID)
	if err != nil {
		if errors.Is(err, attendance.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to list corrections: %w", err)
	}

	result := make([]attendance.CorrectionResponse, 0, len(corrections))
	for _, c := range corrections {
		result = append(result, mapCorrectionToResponse(c))
	}
	return result, nil
}
