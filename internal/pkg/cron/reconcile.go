package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/tenant"
)

// AbsenceMarker is the part of the attendance service the job drives.
type AbsenceMarker interface {
	MarkAbsent(ctx context.Context, req attendance.MarkAbsentRequest) (attendance.ReconcileResult, error)
}

// ReconcileJobs marks absentees for the daily register once per tenant per
// day, during the configured local hour.
type ReconcileJobs struct {
	tenants tenant.TenantRepository
	marker  AbsenceMarker
	hour    int
	now     func() time.Time

	mu      sync.Mutex
	lastRun map[string]string
}

func NewReconcileJobs(tenants tenant.TenantRepository, marker AbsenceMarker, hour int) *ReconcileJobs {
	return &ReconcileJobs{
		tenants: tenants,
		marker:  marker,
		hour:    hour,
		now:     time.Now,
		lastRun: make(map[string]string),
	}
}

func (j *ReconcileJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob("mark_absent_persons", interval, j.MarkAbsentPersons)
}

func (j *ReconcileJobs) MarkAbsentPersons(ctx context.Context) error {
	tenants, err := j.tenants.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tenants: %w", err)
	}

	var errs []error
	for _, t := range tenants {
		local := j.now().In(t.Location())
		if local.Hour() != j.hour {
			continue
		}
		date := local.Format(attendance.DateLayout)
		if !j.claim(t.ID, date) {
			continue
		}

		result, err := j.marker.MarkAbsent(ctx, attendance.MarkAbsentRequest{
			TenantID:   t.ID,
			OperatorID: "system",
			Date:       date,
		})
		if err != nil {
			j.release(t.ID)
			errs = append(errs, fmt.Errorf("tenant %s: %w", t.ID, err))
			continue
		}

		slog.Info("Cron: absentees marked",
			"tenant_id", t.ID,
			"date", date,
			"marked", result.Marked,
			"skipped", result.Skipped,
			"failed", result.Failed,
		)
	}
	return errors.Join(errs...)
}

func (j *ReconcileJobs) claim(tenantID, date string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.lastRun[tenantID] == date {
		return false
	}
	j.lastRun[tenantID] = date
	return true
}

func (j *ReconcileJobs) release(tenantID string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.lastRun, tenantID)
}
