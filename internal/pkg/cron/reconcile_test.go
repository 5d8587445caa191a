package cron

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/tenant"
	"github.com/cmlabs-hris/attendance-backend-go/internal/repository/memory"
)

type recordingMarker struct {
	mu    sync.Mutex
	calls []attendance.MarkAbsentRequest
	err   error
}

func (m *recordingMarker) MarkAbsent(ctx context.Context, req attendance.MarkAbsentRequest) (attendance.ReconcileResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
	if m.err != nil {
		return attendance.ReconcileResult{}, m.err
	}
	return attendance.ReconcileResult{Date: req.Date, Marked: 1}, nil
}

func setupTenants(t *testing.T) tenant.TenantRepository {
	t.Helper()
	repo := memory.NewTenantRepository(memory.NewStore())
	_, err := repo.Create(context.Background(), tenant.Tenant{ID: "jkt", Code: "JKT", Timezone: "Asia/Jakarta"})
	require.NoError(t, err)
	_, err = repo.Create(context.Background(), tenant.Tenant{ID: "lon", Code: "LON", Timezone: "Europe/London"})
	require.NoError(t, err)
	return repo
}

func TestReconcileJobs_RunsOncePerTenantAtLocalHour(t *testing.T) {
	marker := &recordingMarker{}
	jobs := NewReconcileJobs(setupTenants(t), marker, 23)
	// 16:30 UTC is 23:30 in Jakarta and 16:30 in London (GMT).
	jobs.now = func() time.Time { return time.Date(2025, 1, 15, 16, 30, 0, 0, time.UTC) }

	scheduler := NewScheduler()
	jobs.RegisterJobs(scheduler, time.Minute)
	scheduler.RunOnce(context.Background())
	scheduler.RunOnce(context.Background())

	require.Len(t, marker.calls, 1)
	assert.Equal(t, "jkt", marker.calls[0].TenantID)
	assert.Equal(t, "2025-01-15", marker.calls[0].Date)
	assert.Equal(t, "system", marker.calls[0].OperatorID)
}

func TestReconcileJobs_FailureIsRetried(t *testing.T) {
	marker := &recordingMarker{err: errors.New("storage unavailable")}
	jobs := NewReconcileJobs(setupTenants(t), marker, 23)
	jobs.now = func() time.Time { return time.Date(2025, 1, 15, 16, 30, 0, 0, time.UTC) }

	err := jobs.MarkAbsentPersons(context.Background())
	require.Error(t, err)

	marker.err = nil
	require.NoError(t, jobs.MarkAbsentPersons(context.Background()))
	assert.Len(t, marker.calls, 2)
}

func TestScheduler_StartStop(t *testing.T) {
	ran := make(chan struct{}, 1)
	scheduler := NewScheduler()
	scheduler.AddJob("heartbeat", time.Hour, func(ctx context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})

	scheduler.Start(context.Background())
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("job did not run on start")
	}
	scheduler.Stop()
}
