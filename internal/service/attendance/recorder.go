package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/events"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
)

// RecordCheckIn implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) RecordCheckIn(ctx context.Context, req attendance.CheckInRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}
	timestamp, _ := validator.IsValidDateTime(req.Timestamp)
	recordContext := contextOrDefault(req.Context)

	if _, err := s.requirePerson(ctx, req.TenantID, req.PersonID); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	policy, err := s.loadPolicy(ctx, req.TenantID, recordContext)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	date := attendance.DateOf(timestamp.In(policy.Location()))
	if req.Date != "" {
		date, _ = validator.IsValidDate(req.Date)
	}

	derivation, err := s.deriver.Derive(date, &timestamp, nil, policy)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	now := s.now().UTC()
	recordID := newID()
	record := attendance.Record{
		ID:           recordID,
		TenantID:     req.TenantID,
		PersonID:     req.PersonID,
		Date:         date,
		Context:      recordContext,
		ContextRefID: req.ContextRefID,
		CheckIn: &attendance.Event{
			ID:        newID(),
			RecordID:  recordID,
			Kind:      attendance.EventCheckIn,
			Timestamp: timestamp.UTC(),
			Latitude:  req.Latitude,
			Longitude: req.Longitude,
			DeviceTag: req.DeviceTag,
			CreatedAt: now,
		},
		State:     attendance.StateOpen,
		MarkedBy:  stringOrNil(req.MarkedBy),
		CreatedAt: now,
		UpdatedAt: now,
	}
	record.ApplyDerivation(derivation)

	created, err := s.AttendanceRepository.CreateWithCheckIn(ctx, record)
	if err != nil {
		if errors.Is(err, attendance.ErrDuplicateCheckIn) {
			s.metrics.IncCaptureRejection(string(attendance.EventCheckIn), attendance.ErrorKind(err))
			return attendance.AttendanceResponse{}, err
		}
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to create attendance record: %w", err)
	}

	s.metrics.IncAttendanceEvent(string(attendance.EventCheckIn), string(created.Status))
	slog.Info("check-in recorded",
		"record_id", created.ID,
		"tenant_id", created.TenantID,
		"person_id", created.PersonID,
		"date", created.Date.Format(attendance.DateLayout),
		"status", created.Status,
	)
	s.afterWrite(ctx, created, events.TypeAttendanceRecorded)

	return mapRecordToResponse(created), nil
}

// RecordCheckOut implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) RecordCheckOut(ctx context.Context, req attendance.CheckOutRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}
	timestamp, _ := validator.IsValidDateTime(req.Timestamp)
	recordContext := contextOrDefault(req.Context)

	policy, err := s.loadPolicy(ctx, req.TenantID, recordContext)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	record, err := s.findCheckOutTarget(ctx, req, policy, timestamp)
	if err != nil {
		s.metrics.IncCaptureRejection(string(attendance.EventCheckOut), attendance.ErrorKind(err))
		return attendance.AttendanceResponse{}, err
	}

	switch {
	case record.CheckOut != nil:
		err = attendance.ErrAlreadyCheckedOut
	case record.CheckIn == nil:
		err = attendance.ErrNoCheckInFound
	case record.State != attendance.StateOpen:
		err = attendance.ErrRecordNotOpen
	case timestamp.Before(record.CheckIn.Timestamp):
		err = attendance.ErrInvalidOrdering
	}
	if err != nil {
		s.metrics.IncCaptureRejection(string(attendance.EventCheckOut), attendance.ErrorKind(err))
		return attendance.AttendanceResponse{}, err
	}

	checkIn := record.CheckIn.Timestamp
	derivation, err := s.deriver.Derive(record.Date, &checkIn, &timestamp, policy)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	now := s.now().UTC()
	record.CheckOut = &attendance.Event{
		ID:        newID(),
		RecordID:  record.ID,
		Kind:      attendance.EventCheckOut,
		Timestamp: timestamp.UTC(),
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		DeviceTag: req.DeviceTag,
		CreatedAt: now,
	}
	record.ApplyDerivation(derivation)
	if req.MarkedBy != "" {
		record.UpdatedBy = stringOrNil(req.MarkedBy)
	}
	record.UpdatedAt = now

	closed, err := s.AttendanceRepository.CloseWithCheckOut(ctx, record)
	if err != nil {
		if errors.Is(err, attendance.ErrConcurrentModification) {
			err = s.explainCloseConflict(ctx, record)
		}
		if errors.Is(err, attendance.ErrAlreadyCheckedOut) || errors.Is(err, attendance.ErrRecordNotOpen) {
			s.metrics.IncCaptureRejection(string(attendance.EventCheckOut), attendance.ErrorKind(err))
			return attendance.AttendanceResponse{}, err
		}
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to close attendance record: %w", err)
	}

	s.metrics.IncAttendanceEvent(string(attendance.EventCheckOut), string(closed.Status))
	slog.Info("check-out recorded",
		"record_id", closed.ID,
		"tenant_id", closed.TenantID,
		"person_id", closed.PersonID,
		"status", closed.Status,
		"working_hours", closed.WorkingHours,
	)
	s.afterWrite(ctx, closed, events.TypeAttendanceRecorded)

	return mapRecordToResponse(closed), nil
}

// findCheckOutTarget locates the record a check-out belongs to. Without an
// explicit date the check-out's local date is used; night shifts
// (next_day_check_out) also look at the previous day.
func (s *AttendanceServiceImpl) findCheckOutTarget(ctx context.Context, req attendance.CheckOutRequest, policy attendance.Policy, timestamp time.Time) (attendance.Record, error) {
	key := attendance.Key{
		TenantID:     req.TenantID,
		PersonID:     req.PersonID,
		Context:      contextOrDefault(req.Context),
		ContextRefID: req.ContextRefID,
	}

	var dates []time.Time
	if req.Date != "" {
		date, _ := validator.IsValidDate(req.Date)
		dates = append(dates, date)
	} else {
		date := attendance.DateOf(timestamp.In(policy.Location()))
		if policy.NextDayCheckOut {
			dates = append(dates, date.AddDate(0, 0, -1))
		}
		dates = append(dates, date)
	}

	for i, date := range dates {
		key.Date = date
		record, err := s.AttendanceRepository.GetByKey(ctx, key)
		if err == nil {
			// Yesterday's shift already closed: the check-out belongs to today.
			if record.CheckOut != nil && i < len(dates)-1 {
				continue
			}
			return record, nil
		}
		if !errors.Is(err, attendance.ErrRecordNotFound) {
			return attendance.Record{}, fmt.Errorf("failed to get attendance record: %w", err)
		}
	}
	return attendance.Record{}, attendance.ErrNoCheckInFound
}

// explainCloseConflict turns a lost version race into the error the caller
// would have seen had it arrived second.
func (s *AttendanceServiceImpl) explainCloseConflict(ctx context.Context, record attendance.Record) error {
	current, err := s.AttendanceRepository.GetByID(ctx, record.ID, record.TenantID)
	if err != nil {
		return attendance.ErrConcurrentModification
	}
	if current.CheckOut != nil {
		return attendance.ErrAlreadyCheckedOut
	}
	if current.State != attendance.StateOpen {
		return attendance.ErrRecordNotOpen
	}
	return attendance.ErrConcurrentModification
}
