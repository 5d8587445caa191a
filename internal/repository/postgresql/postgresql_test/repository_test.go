//go:build integration

package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/identifier"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/person"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/tenant"
	"github.com/cmlabs-hris/attendance-backend-go/internal/repository/postgresql"
)

var testDB *TestDatabaseSetup

func TestMain(m *testing.M) {
	ctx := context.Background()
	setup, err := NewTestDatabase(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	testDB = setup

	code := m.Run()
	setup.Close()
	os.Exit(code)
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func resetDatabase(t *testing.T) {
	t.Helper()
	require.NoError(t, testDB.TruncateAllTables(context.Background()))
}

func seedTenantAndPerson(t *testing.T) (tenant.Tenant, person.Person) {
	t.Helper()
	ctx := context.Background()

	tn, err := postgresql.NewTenantRepository(testDB.DB).Create(ctx, tenant.Tenant{Code: "GUL", Name: "Gulmohar School"})
	require.NoError(t, err)

	p, err := postgresql.NewPersonRepository(testDB.DB).Create(ctx, person.Person{
		TenantID:    tn.ID,
		EntityClass: identifier.EntityClassStudent,
		Identifier:  "GUL-25-0001",
		IssueYear:   2025,
		FullName:    "Asha Rao",
		EnrolledOn:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return tn, p
}

func openRecord(tenantID, personID string, date time.Time) attendance.Record {
	now := time.Now().UTC().Truncate(time.Microsecond)
	id := newID()
	return attendance.Record{
		ID:       id,
		TenantID: tenantID,
		PersonID: personID,
		Date:     date,
		Context:  attendance.ContextDaily,
		CheckIn: &attendance.Event{
			ID:        newID(),
			RecordID:  id,
			Kind:      attendance.EventCheckIn,
			Timestamp: date.Add(9 * time.Hour),
			CreatedAt: now,
		},
		State:     attendance.StateOpen,
		Status:    attendance.StatusPresent,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestSequenceRepository_ConcurrentNext(t *testing.T) {
	resetDatabase(t)
	tn, _ := seedTenantAndPerson(t)
	repo := postgresql.NewSequenceRepository(testDB.DB)
	key := identifier.SequenceKey{TenantID: tn.ID, EntityClass: identifier.EntityClassTeacher, Scope: identifier.ScopeEmployee, Year: 2025}

	const n = 50
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int64]bool)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := repo.Next(context.Background(), key)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			seen[v] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, n)
	for i := int64(1); i <= n; i++ {
		assert.True(t, seen[i])
	}
}

func TestTenantRepository_CodeLockedOnceReferenced(t *testing.T) {
	resetDatabase(t)
	ctx := context.Background()
	tenants := postgresql.NewTenantRepository(testDB.DB)

	fresh, err := tenants.Create(ctx, tenant.Tenant{Code: "NEW"})
	require.NoError(t, err)
	updated, err := tenants.UpdateCode(ctx, fresh.ID, "NXT")
	require.NoError(t, err)
	assert.Equal(t, "NXT", updated.Code)

	tn, _ := seedTenantAndPerson(t)
	_, err = tenants.UpdateCode(ctx, tn.ID, "ABC")
	assert.ErrorIs(t, err, tenant.ErrTenantCodeLocked)

	_, err = tenants.Create(ctx, tenant.Tenant{Code: "gul"})
	assert.ErrorIs(t, err, tenant.ErrTenantCodeExists)

	_, err = tenants.GetByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, tenant.ErrTenantNotFound)
}

func TestPersonRepository_Uniqueness(t *testing.T) {
	resetDatabase(t)
	ctx := context.Background()
	tn, p := seedTenantAndPerson(t)
	repo := postgresql.NewPersonRepository(testDB.DB)

	dup := p
	dup.ID = ""
	_, err := repo.Create(ctx, dup)
	assert.ErrorIs(t, err, person.ErrIdentifierExists)

	class, roll := "class-7a", "482913"
	first := person.Person{
		TenantID: tn.ID, EntityClass: identifier.EntityClassStudent, Identifier: "GUL-25-0002", IssueYear: 2025,
		FullName: "Ravi", ClassID: &class, RollNumber: &roll, EnrolledOn: p.EnrolledOn,
	}
	_, err = repo.Create(ctx, first)
	require.NoError(t, err)

	second := first
	second.Identifier = "GUL-25-0003"
	_, err = repo.Create(ctx, second)
	assert.ErrorIs(t, err, person.ErrRollNumberTaken)

	exists, err := repo.RollNumberExists(ctx, tn.ID, class, roll)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestAttendanceRepository_Lifecycle(t *testing.T) {
	resetDatabase(t)
	ctx := context.Background()
	tn, p := seedTenantAndPerson(t)
	repo := postgresql.NewAttendanceRepository(testDB.DB)
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	created, err := repo.CreateWithCheckIn(ctx, openRecord(tn.ID, p.ID, date))
	require.NoError(t, err)
	assert.Equal(t, 1, created.Version)
	assert.Positive(t, created.Seq)

	_, err = repo.CreateWithCheckIn(ctx, openRecord(tn.ID, p.ID, date))
	assert.ErrorIs(t, err, attendance.ErrDuplicateCheckIn)

	stored, err := repo.GetByKey(ctx, created.Key())
	require.NoError(t, err)
	require.NotNil(t, stored.CheckIn)
	assert.Nil(t, stored.CheckOut)
	assert.True(t, stored.Date.Equal(date))

	toClose := stored
	toClose.Status = attendance.StatusPresent
	toClose.WorkingHours = 8.25
	toClose.UpdatedAt = time.Now().UTC()
	toClose.CheckOut = &attendance.Event{
		ID:        newID(),
		Kind:      attendance.EventCheckOut,
		Timestamp: date.Add(17*time.Hour + 15*time.Minute),
		CreatedAt: time.Now().UTC(),
	}
	closed, err := repo.CloseWithCheckOut(ctx, toClose)
	require.NoError(t, err)
	assert.Equal(t, attendance.StateClosed, closed.State)
	assert.Equal(t, 2, closed.Version)

	_, err = repo.CloseWithCheckOut(ctx, toClose)
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedOut)

	reloaded, err := repo.GetByID(ctx, created.ID, tn.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.CheckOut)
	assert.Equal(t, 8.25, reloaded.WorkingHours)

	previousState, previousStatus := reloaded.State, reloaded.Status
	reason := "left for a medical appointment"
	reloaded.State = attendance.StateCorrected
	reloaded.Status = attendance.StatusExcused
	corrected, err := repo.ApplyCorrection(ctx, reloaded, attendance.Correction{
		ID:             newID(),
		RecordID:       reloaded.ID,
		TenantID:       tn.ID,
		PreviousState:  &previousState,
		PreviousStatus: &previousStatus,
		NewState:       attendance.StateCorrected,
		NewStatus:      attendance.StatusExcused,
		Reason:         &reason,
		CorrectedBy:    "operator-1",
		CorrectedAt:    time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusExcused, corrected.Status)
	assert.Equal(t, 3, corrected.Version)
	assert.NotNil(t, corrected.CheckOut, "events survive a correction")

	_, err = repo.ApplyCorrection(ctx, reloaded, attendance.Correction{ID: newID(), RecordID: reloaded.ID, TenantID: tn.ID, CorrectedBy: "x", CorrectedAt: time.Now()})
	assert.ErrorIs(t, err, attendance.ErrConcurrentModification)

	corrections, err := repo.ListCorrections(ctx, created.ID, tn.ID)
	require.NoError(t, err)
	require.Len(t, corrections, 1)
	assert.Equal(t, attendance.StatusPresent, *corrections[0].PreviousStatus)
}

func TestAttendanceRepository_HistoryKeyset(t *testing.T) {
	resetDatabase(t)
	ctx := context.Background()
	tn, p := seedTenantAndPerson(t)
	repo := postgresql.NewAttendanceRepository(testDB.DB)

	for day := 1; day <= 12; day++ {
		_, err := repo.CreateWithCheckIn(ctx, openRecord(tn.ID, p.ID, time.Date(2025, 4, day, 0, 0, 0, 0, time.UTC)))
		require.NoError(t, err)
	}

	page1, err := repo.ListHistory(ctx, attendance.HistoryFilter{TenantID: tn.ID, PersonID: p.ID, Limit: 5})
	require.NoError(t, err)
	require.Len(t, page1, 5)
	assert.Equal(t, 12, page1[0].Date.Day())

	last := page1[len(page1)-1]
	page2, err := repo.ListHistory(ctx, attendance.HistoryFilter{
		TenantID: tn.ID,
		PersonID: p.ID,
		After:    &attendance.Cursor{Date: last.Date, Seq: last.Seq},
		Limit:    10,
	})
	require.NoError(t, err)
	require.Len(t, page2, 7)
	assert.Equal(t, 7, page2[0].Date.Day())
	assert.Equal(t, 1, page2[6].Date.Day())

	daily := attendance.ContextDaily
	inRange, err := repo.ListByPersonInRange(ctx, attendance.RangeFilter{
		TenantID: tn.ID,
		PersonID: p.ID,
		Context:  &daily,
		From:     time.Date(2025, 4, 3, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2025, 4, 5, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Len(t, inRange, 3)
}

func TestPolicyRepository_Upsert(t *testing.T) {
	resetDatabase(t)
	ctx := context.Background()
	tn, _ := seedTenantAndPerson(t)
	repo := postgresql.NewPolicyRepository(testDB.DB)

	_, err := repo.Get(ctx, tn.ID, attendance.ContextDaily)
	assert.ErrorIs(t, err, attendance.ErrPolicyNotFound)

	in, out, grace, std, half := "09:00", "17:00", 10, 8.0, 4.0
	_, err = repo.Upsert(ctx, attendance.Policy{
		TenantID: tn.ID, Context: attendance.ContextDaily,
		ExpectedCheckIn: &in, ExpectedCheckOut: &out, GracePeriodMinutes: &grace,
		StandardDayHours: &std, HalfDayThresholdHours: &half, Timezone: "Asia/Jakarta",
	})
	require.NoError(t, err)

	got, err := repo.Get(ctx, tn.ID, attendance.ContextDaily)
	require.NoError(t, err)
	assert.Equal(t, "09:00", *got.ExpectedCheckIn)
	assert.Equal(t, 4.0, *got.HalfDayThresholdHours)
	assert.Equal(t, "Asia/Jakarta", got.Timezone)
}
