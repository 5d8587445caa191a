package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/events"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/metrics"
	"github.com/google/uuid"
)

const (
	DefaultBatchConcurrency = 8
	DefaultBatchMaxEntries  = 500
)

type Config struct {
	// BatchConcurrency bounds in-flight entries of a manual batch or reconciliation.
	BatchConcurrency int
	BatchMaxEntries  int
}

type AttendanceServiceImpl struct {
	attendance.AttendanceRepository
	attendance.PolicyRepository
	directory attendance.PersonDirectory
	cache     attendance.SummaryCache
	publisher events.Publisher
	deriver   *StatusDeriver
	metrics   *metrics.Metrics
	cfg       Config
	now       func() time.Time
}

var _ attendance.AttendanceService = (*AttendanceServiceImpl)(nil)

func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	policyRepo attendance.PolicyRepository,
	directory attendance.PersonDirectory,
	cache attendance.SummaryCache,
	publisher events.Publisher,
	m *metrics.Metrics,
	cfg Config,
) *AttendanceServiceImpl {
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = DefaultBatchConcurrency
	}
	if cfg.BatchMaxEntries <= 0 {
		cfg.BatchMaxEntries = DefaultBatchMaxEntries
	}
	if publisher == nil {
		publisher = events.LogPublisher{}
	}
	return &AttendanceServiceImpl{
		AttendanceRepository: attendanceRepo,
		PolicyRepository:     policyRepo,
		directory:            directory,
		cache:                cache,
		publisher:            publisher,
		deriver:              NewStatusDeriver(),
		metrics:              m,
		cfg:                  cfg,
		now:                  time.Now,
	}
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// loadPolicy returns the policy for (tenant, context). A missing policy is
// a configuration error, never a silent default.
func (s *AttendanceServiceImpl) loadPolicy(ctx context.Context, tenantID string, c attendance.Context) (attendance.Policy, error) {
	policy, err := s.PolicyRepository.Get(ctx, tenantID, c)
	if err != nil {
		if errors.Is(err, attendance.ErrPolicyNotFound) {
			return attendance.Policy{}, fmt.Errorf("%w: %w", attendance.ErrInvalidPolicy, err)
		}
		return attendance.Policy{}, fmt.Errorf("failed to get punctuality policy: %w", err)
	}
	return policy, nil
}

func (s *AttendanceServiceImpl) requirePerson(ctx context.Context, tenantID, personID string) (attendance.EnrollmentWindow, error) {
	window, err := s.directory.EnrollmentWindow(ctx, tenantID, personID)
	if err != nil {
		if errors.Is(err, attendance.ErrPersonNotFound) {
			return attendance.EnrollmentWindow{}, err
		}
		return attendance.EnrollmentWindow{}, fmt.Errorf("failed to get enrollment window: %w", err)
	}
	return window, nil
}

// afterWrite invalidates the person's cached summaries and emits the domain
// event. Neither failure is returned: the write already succeeded.
func (s *AttendanceServiceImpl) afterWrite(ctx context.Context, record attendance.Record, eventType string) {
	ctx = context.WithoutCancel(ctx)

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, record.TenantID, record.PersonID); err != nil {
			slog.Error("failed to invalidate summary cache",
				"tenant_id", record.TenantID,
				"person_id", record.PersonID,
				"error", err,
			)
		}
	}

	event := events.Event{
		ID:         newID(),
		Type:       eventType,
		TenantID:   record.TenantID,
		PersonID:   record.PersonID,
		RecordID:   record.ID,
		OccurredAt: s.now().UTC(),
		Data:       mapRecordToResponse(record),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		slog.Warn("failed to publish attendance event",
			"event_type", eventType,
			"record_id", record.ID,
			"error", err,
		)
	}
}

func contextOrDefault(c string) attendance.Context {
	if c == "" {
		return attendance.ContextDaily
	}
	return attendance.Context(c)
}

func stringOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func mapEventToResponse(ev *attendance.Event) *attendance.EventResponse {
	if ev == nil {
		return nil
	}
	return &attendance.EventResponse{
		Timestamp: formatTime(ev.Timestamp),
		Latitude:  ev.Latitude,
		Longitude: ev.Longitude,
		DeviceTag: ev.DeviceTag,
	}
}

func mapRecordToResponse(r attendance.Record) attendance.AttendanceResponse {
	return attendance.AttendanceResponse{
		ID:                  r.ID,
		TenantID:            r.TenantID,
		PersonID:            r.PersonID,
		Date:                r.Date.Format(attendance.DateLayout),
		Context:             string(r.Context),
		ContextRefID:        stringOrNil(r.ContextRefID),
		CheckIn:             mapEventToResponse(r.CheckIn),
		CheckOut:            mapEventToResponse(r.CheckOut),
		State:               string(r.State),
		Status:              string(r.Status),
		LateByMinutes:       r.LateByMinutes,
		EarlyLeaveByMinutes: r.EarlyLeaveByMinutes,
		WorkingHours:        r.WorkingHours,
		OvertimeHours:       r.OvertimeHours,
		Remarks:             r.Remarks,
		MarkedBy:            r.MarkedBy,
		UpdatedBy:           r.UpdatedBy,
		Version:             r.Version,
		CreatedAt:           formatTime(r.CreatedAt),
		UpdatedAt:           formatTime(r.UpdatedAt),
	}
}

func mapCorrectionToResponse(c attendance.Correction) attendance.CorrectionResponse {
	resp := attendance.CorrectionResponse{
		ID:                          c.ID,
		RecordID:                    c.RecordID,
		PreviousLateByMinutes:       c.PreviousLateByMinutes,
		PreviousEarlyLeaveByMinutes: c.PreviousEarlyLeaveByMinutes,
		PreviousWorkingHours:        c.PreviousWorkingHours,
		PreviousOvertimeHours:       c.PreviousOvertimeHours,
		PreviousRemarks:             c.PreviousRemarks,
		NewState:                    string(c.NewState),
		NewStatus:                   string(c.NewStatus),
		Reason:                      c.Reason,
		CorrectedBy:                 c.CorrectedBy,
		CorrectedAt:                 formatTime(c.CorrectedAt),
	}
	if c.PreviousState != nil {
		v := string(*c.PreviousState)
		resp.PreviousState = &v
	}
	if c.PreviousStatus != nil {
		v := string(*c.PreviousStatus)
		resp.PreviousStatus = &v
	}
	return resp
}
