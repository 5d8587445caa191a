package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/events"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
)

// RecordManualBatch implements attendance.AttendanceService.
//
// Entries fan out on an errgroup whose goroutines always return nil, so no
// entry can cancel another; each writes its own slot of results.
func (s *AttendanceServiceImpl) RecordManualBatch(ctx context.Context, req attendance.ManualBatchRequest) (attendance.BatchResult, error) {
	if err := req.Validate(s.cfg.BatchMaxEntries); err != nil {
		return attendance.BatchResult{}, err
	}

	results := make([]attendance.BatchEntryResult, len(req.Entries))

	var g errgroup.Group
	g.SetLimit(s.cfg.BatchConcurrency)
	for i, entry := range req.Entries {
		g.Go(func() error {
			results[i] = s.applyManualEntry(ctx, req.TenantID, req.OperatorID, i, entry)
			return nil
		})
	}
	_ = g.Wait()

	result := attendance.BatchResult{Total: len(results), Results: results}
	for _, r := range results {
		if r.Success {
			result.Succeeded++
			s.metrics.IncBatchEntry("succeeded")
		} else {
			result.Failed++
			s.metrics.IncBatchEntry("failed")
		}
	}

	slog.Info("manual batch processed",
		"tenant_id", req.TenantID,
		"operator_id", req.OperatorID,
		"total", result.Total,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
	)
	return result, nil
}

func (s *AttendanceServiceImpl) applyManualEntry(ctx context.Context, tenantID, operatorID string, index int, entry attendance.ManualEntry) attendance.BatchEntryResult {
	result := attendance.BatchEntryResult{
		Index:    index,
		PersonID: entry.PersonID,
		Date:     entry.Date,
	}

	record, err := s.recordManualEntry(ctx, tenantID, operatorID, entry)
	if err != nil {
		kind := attendance.ErrorKind(err)
		msg := err.Error()
		result.ErrorKind = &kind
		result.Message = &msg
		if kind == "InternalError" || kind == "StorageUnavailableError" {
			slog.Error("manual entry failed",
				"tenant_id", tenantID,
				"index", index,
				"person_id", entry.PersonID,
				"error", err,
			)
		}
		return result
	}

	result.Success = true
	result.RecordID = &record.ID
	return result
}

func (s *AttendanceServiceImpl) recordManualEntry(ctx context.Context, tenantID, operatorID string, entry attendance.ManualEntry) (attendance.Record, error) {
	if err := entry.Validate(tenantID); err != nil {
		return attendance.Record{}, err
	}
	if _, err := s.requirePerson(ctx, tenantID, entry.PersonID); err != nil {
		return attendance.Record{}, err
	}

	date, _ := validator.IsValidDate(entry.Date)
	key := attendance.Key{
		TenantID:     tenantID,
		PersonID:     entry.PersonID,
		Date:         date,
		Context:      contextOrDefault(entry.Context),
		ContextRefID: entry.ContextRefID,
	}
	return s.createManual(ctx, key, operatorID, attendance.Status(entry.Status), entry.Remarks, nil)
}

// createManual writes an operator-entered record with its audit row. The
// status is taken as given; the deriver is not consulted.
func (s *AttendanceServiceImpl) createManual(ctx context.Context, key attendance.Key, operatorID string, status attendance.Status, remarks, reason *string) (attendance.Record, error) {
	state := attendance.StateCorrected
	if status == attendance.StatusAbsent {
		state = attendance.StateAbsent
	}

	now := s.now().UTC()
	record := attendance.Record{
		ID:           newID(),
		TenantID:     key.TenantID,
		PersonID:     key.PersonID,
		Date:         key.Date,
		Context:      key.Context,
		ContextRefID: key.ContextRefID,
		State:        state,
		Status:       status,
		Remarks:      remarks,
		MarkedBy:     &operatorID,
		UpdatedBy:    &operatorID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	correction := attendance.Correction{
		ID:          newID(),
		RecordID:    record.ID,
		TenantID:    key.TenantID,
		NewState:    state,
		NewStatus:   status,
		Reason:      reason,
		CorrectedBy: operatorID,
		CorrectedAt: now,
	}

	created, err := s.AttendanceRepository.CreateManual(ctx, record, correction)
	if err != nil {
		if errors.Is(err, attendance.ErrDuplicateCheckIn) {
			return attendance.Record{}, err
		}
		return attendance.Record{}, fmt.Errorf("failed to create manual attendance record: %w", err)
	}

	s.afterWrite(ctx, created, events.TypeAttendanceRecorded)
	return created, nil
}

// MarkAbsent implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) MarkAbsent(ctx context.Context, req attendance.MarkAbsentRequest) (attendance.ReconcileResult, error) {
	if err := req.Validate(); err != nil {
		return attendance.ReconcileResult{}, err
	}
	operatorID := req.OperatorID
	if operatorID == "" {
		operatorID = "system"
	}
	date, _ := validator.IsValidDate(req.Date)
	recordContext := contextOrDefault(req.Context)

	personIDs := req.PersonIDs
	if len(personIDs) == 0 {
		var err error
		personIDs, err = s.directory.ActivePersonIDs(ctx, req.TenantID, date)
		if err != nil {
			return attendance.ReconcileResult{}, fmt.Errorf("failed to list active persons: %w", err)
		}
	}

	type outcome struct {
		marked, skipped bool
		failure         *attendance.BatchEntryResult
	}
	outcomes := make([]outcome, len(personIDs))
	reason := "no attendance recorded by end of day"

	var g errgroup.Group
	g.SetLimit(s.cfg.BatchConcurrency)
	for i, personID := range personIDs {
		g.Go(func() error {
			window, err := s.requirePerson(ctx, req.TenantID, personID)
			if err == nil {
				if _, _, active := window.Clamp(date, date); !active {
					outcomes[i] = outcome{skipped: true}
					return nil
				}
				key := attendance.Key{
					TenantID:     req.TenantID,
					PersonID:     personID,
					Date:         date,
					Context:      recordContext,
					ContextRefID: req.ContextRefID,
				}
				_, err = s.createManual(ctx, key, operatorID, attendance.StatusAbsent, nil, &reason)
			}

			switch {
			case err == nil:
				outcomes[i] = outcome{marked: true}
			case errors.Is(err, attendance.ErrDuplicateCheckIn):
				outcomes[i] = outcome{skipped: true}
			default:
				kind := attendance.ErrorKind(err)
				msg := err.Error()
				outcomes[i] = outcome{failure: &attendance.BatchEntryResult{
					Index:     i,
					PersonID:  personID,
					Date:      req.Date,
					ErrorKind: &kind,
					Message:   &msg,
				}}
			}
			return nil
		})
	}
	_ = g.Wait()

	result := attendance.ReconcileResult{Date: req.Date, Context: string(recordContext)}
	for _, o := range outcomes {
		switch {
		case o.marked:
			result.Marked++
		case o.skipped:
			result.Skipped++
		case o.failure != nil:
			result.Failed++
			result.Failures = append(result.Failures, *o.failure)
		}
	}

	slog.Info("absentees reconciled",
		"tenant_id", req.TenantID,
		"date", req.Date,
		"context", recordContext,
		"marked", result.Marked,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result, nil
}
