package attendance

import (
	"bytes"
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/person"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/events"
	"github.com/cmlabs-hris/attendance-backend-go/internal/repository/memory"
	personsvc "github.com/cmlabs-hris/attendance-backend-go/internal/service/person"
)

const (
	testTenant   = "tenant-1"
	testOperator = "operator-1"
)

type fixture struct {
	svc     *AttendanceServiceImpl
	repo    attendance.AttendanceRepository
	persons person.PersonRepository
	cache   *memory.SummaryCache
	hub     *events.Hub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	repo := memory.NewAttendanceRepository(store)
	policies := memory.NewPolicyRepository(store)
	persons := memory.NewPersonRepository(store)
	cache := memory.NewSummaryCache(time.Minute)
	hub := events.NewHub()

	_, err := policies.Upsert(context.Background(), officePolicy())
	require.NoError(t, err)

	svc := NewAttendanceService(repo, policies, personsvc.NewDirectory(persons), cache, hub, nil, Config{})
	svc.now = func() time.Time { return time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC) }

	return &fixture{svc: svc, repo: repo, persons: persons, cache: cache, hub: hub}
}

var personSeq atomic.Int64

func (f *fixture) addPerson(t *testing.T, enrolled string, left *string) string {
	t.Helper()
	enrolledOn, err := time.Parse(attendance.DateLayout, enrolled)
	require.NoError(t, err)
	p := person.Person{
		TenantID:    testTenant,
		EntityClass: "student",
		Identifier:  fmt.Sprintf("GUL-25-%04d", personSeq.Add(1)),
		IssueYear:   2025,
		FullName:    "Asha Rao",
		EnrolledOn:  enrolledOn,
	}
	if left != nil {
		leftOn, err := time.Parse(attendance.DateLayout, *left)
		require.NoError(t, err)
		p.LeftOn = &leftOn
	}
	created, err := f.persons.Create(context.Background(), p)
	require.NoError(t, err)
	return created.ID
}

func checkIn(personID, timestamp string) attendance.CheckInRequest {
	return attendance.CheckInRequest{
		TenantID:  testTenant,
		MarkedBy:  "device-1",
		PersonID:  personID,
		Timestamp: timestamp,
	}
}

func checkOut(personID, timestamp string) attendance.CheckOutRequest {
	return attendance.CheckOutRequest{
		TenantID:  testTenant,
		PersonID:  personID,
		Timestamp: timestamp,
	}
}

func TestRecordCheckIn(t *testing.T) {
	f := newFixture(t)
	personID := f.addPerson(t, "2025-01-01", nil)

	resp, err := f.svc.RecordCheckIn(context.Background(), checkIn(personID, "2025-03-10T09:25:00+00:00"))
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", resp.Date)
	assert.Equal(t, string(attendance.StateOpen), resp.State)
	assert.Equal(t, string(attendance.StatusLate), resp.Status)
	assert.Equal(t, 15, resp.LateByMinutes)
	assert.Equal(t, 1, resp.Version)
	require.NotNil(t, resp.CheckIn)
	assert.Nil(t, resp.CheckOut)
}

func TestRecordCheckIn_DuplicateLeavesOriginalUntouched(t *testing.T) {
	f := newFixture(t)
	personID := f.addPerson(t, "2025-01-01", nil)
	ctx := context.Background()

	first, err := f.svc.RecordCheckIn(ctx, checkIn(personID, "2025-03-10T09:05:00+00:00"))
	require.NoError(t, err)

	_, err = f.svc.RecordCheckIn(ctx, checkIn(personID, "2025-03-10T09:40:00+00:00"))
	require.ErrorIs(t, err, attendance.ErrDuplicateCheckIn)

	stored, err := f.repo.GetByID(ctx, first.ID, testTenant)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 9, 5, 0, 0, time.UTC), stored.CheckIn.Timestamp)
	assert.Equal(t, attendance.StatusPresent, stored.Status)
	assert.Equal(t, 1, stored.Version)
}

func TestRecordCheckIn_SeparateContextsDoNotCollide(t *testing.T) {
	f := newFixture(t)
	personID := f.addPerson(t, "2025-01-01", nil)
	ctx := context.Background()

	subject := officePolicy()
	subject.Context = attendance.ContextSubject
	_, err := f.svc.PolicyRepository.Upsert(ctx, subject)
	require.NoError(t, err)

	_, err = f.svc.RecordCheckIn(ctx, checkIn(personID, "2025-03-10T09:00:00+00:00"))
	require.NoError(t, err)

	req := checkIn(personID, "2025-03-10T09:00:00+00:00")
	req.Context = string(attendance.ContextSubject)
	req.ContextRefID = "math-7a"
	_, err = f.svc.RecordCheckIn(ctx, req)
	require.NoError(t, err)

	req.ContextRefID = "physics-7a"
	_, err = f.svc.RecordCheckIn(ctx, req)
	require.NoError(t, err)
}

func TestRecordCheckIn_Rejections(t *testing.T) {
	f := newFixture(t)
	personID := f.addPerson(t, "2025-01-01", nil)
	ctx := context.Background()

	_, err := f.svc.RecordCheckIn(ctx, checkIn("nobody", "2025-03-10T09:00:00+00:00"))
	assert.ErrorIs(t, err, attendance.ErrPersonNotFound)

	_, err = f.svc.RecordCheckIn(ctx, checkIn(personID, "2025-03-10 09:00"))
	require.Error(t, err)
	assert.Equal(t, "ValidationError", attendance.ErrorKind(err))

	req := checkIn(personID, "2025-03-10T09:00:00+00:00")
	req.Context = string(attendance.ContextEvent)
	req.ContextRefID = "sports-day"
	_, err = f.svc.RecordCheckIn(ctx, req)
	assert.ErrorIs(t, err, attendance.ErrInvalidPolicy)
	assert.ErrorIs(t, err, attendance.ErrPolicyNotFound)
}

func TestRecordCheckOut(t *testing.T) {
	f := newFixture(t)
	personID := f.addPerson(t, "2025-01-01", nil)
	ctx := context.Background()

	_, err := f.svc.RecordCheckIn(ctx, checkIn(personID, "2025-03-10T09:00:00+00:00"))
	require.NoError(t, err)

	resp, err := f.svc.RecordCheckOut(ctx, checkOut(personID, "2025-03-10T17:30:00+00:00"))
	require.NoError(t, err)
	assert.Equal(t, string(attendance.StateClosed), resp.State)
	assert.Equal(t, string(attendance.StatusPresent), resp.Status)
	assert.Equal(t, 8.5, resp.WorkingHours)
	assert.Equal(t, 0.5, resp.OvertimeHours)
	assert.Equal(t, 2, resp.Version)

	_, err = f.svc.RecordCheckOut(ctx, checkOut(personID, "2025-03-10T18:00:00+00:00"))
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedOut)
}

func TestRecordCheckOut_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("no check-in", func(t *testing.T) {
		personID := f.addPerson(t, "2025-01-01", nil)
		_, err := f.svc.RecordCheckOut(ctx, checkOut(personID, "2025-03-10T17:00:00+00:00"))
		assert.ErrorIs(t, err, attendance.ErrNoCheckInFound)
	})

	t.Run("check-out before check-in", func(t *testing.T) {
		personID := f.addPerson(t, "2025-01-01", nil)
		_, err := f.svc.RecordCheckIn(ctx, checkIn(personID, "2025-03-10T09:00:00+00:00"))
		require.NoError(t, err)

		_, err = f.svc.RecordCheckOut(ctx, checkOut(personID, "2025-03-10T08:00:00+00:00"))
		assert.ErrorIs(t, err, attendance.ErrInvalidOrdering)
	})

	t.Run("absent record has no check-in", func(t *testing.T) {
		personID := f.addPerson(t, "2025-01-01", nil)
		_, err := f.svc.MarkAbsent(ctx, attendance.MarkAbsentRequest{
			TenantID:  testTenant,
			Date:      "2025-03-10",
			PersonIDs: []string{personID},
		})
		require.NoError(t, err)

		_, err = f.svc.RecordCheckOut(ctx, checkOut(personID, "2025-03-10T17:00:00+00:00"))
		assert.ErrorIs(t, err, attendance.ErrNoCheckInFound)
		assert.NotErrorIs(t, err, attendance.ErrRecordNotOpen)
	})

	t.Run("corrected record is not open", func(t *testing.T) {
		personID := f.addPerson(t, "2025-01-01", nil)
		created, err := f.svc.RecordCheckIn(ctx, checkIn(personID, "2025-03-10T09:00:00+00:00"))
		require.NoError(t, err)
		_, err = f.svc.CorrectRecord(ctx, attendance.CorrectRecordRequest{
			RecordID:   created.ID,
			TenantID:   testTenant,
			OperatorID: testOperator,
			Status:     "excused",
		})
		require.NoError(t, err)

		_, err = f.svc.RecordCheckOut(ctx, checkOut(personID, "2025-03-10T17:00:00+00:00"))
		assert.ErrorIs(t, err, attendance.ErrRecordNotOpen)
	})
}

func TestRecordCheckIn_PublishesToTenantStream(t *testing.T) {
	f := newFixture(t)
	personID := f.addPerson(t, "2025-01-01", nil)

	stream, cancel := f.hub.Subscribe(testTenant)
	defer cancel()

	resp, err := f.svc.RecordCheckIn(context.Background(), checkIn(personID, "2025-03-10T09:00:00+00:00"))
	require.NoError(t, err)

	select {
	case evt := <-stream:
		assert.Equal(t, events.TypeAttendanceRecorded, evt.Type)
		assert.Equal(t, resp.ID, evt.RecordID)
		assert.Equal(t, personID, evt.PersonID)
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
}

func TestRecordManualBatch_PartialSuccess(t *testing.T) {
	f := newFixture(t)
	personID := f.addPerson(t, "2025-01-01", nil)
	ctx := context.Background()

	_, err := f.svc.RecordCheckIn(ctx, checkIn(personID, "2025-03-03T09:00:00+00:00"))
	require.NoError(t, err)

	entries := []attendance.ManualEntry{
		{PersonID: personID, Date: "2025-03-01", Status: "present"},
		{PersonID: personID, Date: "2025-03-02", Status: "late"},
		{PersonID: personID, Date: "2025-03-03", Status: "excused"},
		{PersonID: personID, Date: "2025-03-04", Status: "absent"},
		{PersonID: personID, Date: "2025-03-05", Status: "half-day"},
	}
	result, err := f.svc.RecordManualBatch(ctx, attendance.ManualBatchRequest{
		TenantID:   testTenant,
		OperatorID: testOperator,
		Entries:    entries,
	})
	require.NoError(t, err)

	assert.Equal(t, 5, result.Total)
	assert.Equal(t, 4, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Results, 5)
	for i, r := range result.Results {
		assert.Equal(t, i, r.Index)
		if i == 2 {
			assert.False(t, r.Success)
			require.NotNil(t, r.ErrorKind)
			assert.Equal(t, "DuplicateCheckInError", *r.ErrorKind)
			continue
		}
		assert.True(t, r.Success, "entry %d", i)
		assert.NotNil(t, r.RecordID)
	}

	absent, err := f.repo.GetByID(ctx, *result.Results[3].RecordID, testTenant)
	require.NoError(t, err)
	assert.Equal(t, attendance.StateAbsent, absent.State)

	halfDay, err := f.repo.GetByID(ctx, *result.Results[4].RecordID, testTenant)
	require.NoError(t, err)
	assert.Equal(t, attendance.StateCorrected, halfDay.State)
	assert.Equal(t, attendance.StatusHalfDay, halfDay.Status)
}

func TestRecordManualBatch_InvalidEntryFailsAlone(t *testing.T) {
	f := newFixture(t)
	personID := f.addPerson(t, "2025-01-01", nil)

	result, err := f.svc.RecordManualBatch(context.Background(), attendance.ManualBatchRequest{
		TenantID:   testTenant,
		OperatorID: testOperator,
		Entries: []attendance.ManualEntry{
			{PersonID: personID, Date: "2025-03-01", Status: "on-leave"},
			{PersonID: "nobody", Date: "2025-03-01", Status: "present"},
			{PersonID: personID, Date: "2025-03-01", Status: "present"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, "ValidationError", *result.Results[0].ErrorKind)
	assert.Equal(t, "PersonNotFoundError", *result.Results[1].ErrorKind)
}

func TestRecordManualBatch_EnvelopeValidation(t *testing.T) {
	f := newFixture(t)
	f.svc.cfg.BatchMaxEntries = 2

	_, err := f.svc.RecordManualBatch(context.Background(), attendance.ManualBatchRequest{
		TenantID:   testTenant,
		OperatorID: testOperator,
		Entries:    make([]attendance.ManualEntry, 3),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at most 2")
}

// seedMonth records 20 present, 5 late, 3 absent and 2 half-day entries
// across April 2025.
func seedMonth(t *testing.T, f *fixture, personID string) {
	t.Helper()
	var entries []attendance.ManualEntry
	for day := 1; day <= 30; day++ {
		status := "present"
		switch {
		case day > 28:
			status = "half-day"
		case day > 25:
			status = "absent"
		case day > 20:
			status = "late"
		}
		entries = append(entries, attendance.ManualEntry{
			PersonID: personID,
			Date:     fmt.Sprintf("2025-04-%02d", day),
			Status:   status,
		})
	}
	result, err := f.svc.RecordManualBatch(context.Background(), attendance.ManualBatchRequest{
		TenantID:   testTenant,
		OperatorID: testOperator,
		Entries:    entries,
	})
	require.NoError(t, err)
	require.Equal(t, 30, result.Succeeded)
}

func TestSummarize(t *testing.T) {
	f := newFixture(t)
	personID := f.addPerson(t, "2025-01-01", nil)
	seedMonth(t, f, personID)
	ctx := context.Background()

	req := attendance.SummaryRequest{TenantID: testTenant, PersonID: personID, From: "2025-04-01", To: "2025-04-30"}
	first, err := f.svc.Summarize(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, 30, first.TotalExpectedDays)
	assert.Equal(t, 20, first.Present)
	assert.Equal(t, 5, first.Late)
	assert.Equal(t, 3, first.Absent)
	assert.Equal(t, 2, first.HalfDay)
	assert.Equal(t, 0, first.Unrecorded)
	assert.Equal(t, 86.7, first.Percentage)

	second, err := f.svc.Summarize(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSummarize_ClampsToEnrollmentWindow(t *testing.T) {
	f := newFixture(t)
	left := "2025-04-10"
	personID := f.addPerson(t, "2025-04-06", &left)
	ctx := context.Background()

	result, err := f.svc.RecordManualBatch(ctx, attendance.ManualBatchRequest{
		TenantID:   testTenant,
		OperatorID: testOperator,
		Entries: []attendance.ManualEntry{
			{PersonID: personID, Date: "2025-04-07", Status: "present"},
			{PersonID: personID, Date: "2025-04-08", Status: "present"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 2, result.Succeeded)

	summary, err := f.svc.Summarize(ctx, attendance.SummaryRequest{
		TenantID: testTenant, PersonID: personID, From: "2025-04-01", To: "2025-04-30",
	})
	require.NoError(t, err)
	assert.Equal(t, 5, summary.TotalExpectedDays)
	assert.Equal(t, 3, summary.Unrecorded)
	assert.Equal(t, 40.0, summary.Percentage)
}

func TestSummarize_OutsideEnrollmentIsEmpty(t *testing.T) {
	f := newFixture(t)
	personID := f.addPerson(t, "2025-06-01", nil)

	summary, err := f.svc.Summarize(context.Background(), attendance.SummaryRequest{
		TenantID: testTenant, PersonID: personID, From: "2025-04-01", To: "2025-04-30",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TotalExpectedDays)
	assert.Equal(t, 0.0, summary.Percentage)
}

func TestSummarize_CorrectionInvalidatesCache(t *testing.T) {
	f := newFixture(t)
	personID := f.addPerson(t, "2025-01-01", nil)
	seedMonth(t, f, personID)
	ctx := context.Background()

	req := attendance.SummaryRequest{TenantID: testTenant, PersonID: personID, From: "2025-04-01", To: "2025-04-30"}
	before, err := f.svc.Summarize(ctx, req)
	require.NoError(t, err)

	record, err := f.repo.GetByKey(ctx, attendance.Key{
		TenantID: testTenant,
		PersonID: personID,
		Date:     time.Date(2025, 4, 27, 0, 0, 0, 0, time.UTC),
		Context:  attendance.ContextDaily,
	})
	require.NoError(t, err)
	require.Equal(t, attendance.StatusAbsent, record.Status)

	_, err = f.svc.CorrectRecord(ctx, attendance.CorrectRecordRequest{
		RecordID:   record.ID,
		TenantID:   testTenant,
		OperatorID: testOperator,
		Status:     "present",
	})
	require.NoError(t, err)

	after, err := f.svc.Summarize(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, before.Absent-1, after.Absent)
	assert.Equal(t, before.Present+1, after.Present)
	assert.Equal(t, 90.0, after.Percentage)
}

func TestSummarize_Validation(t *testing.T) {
	f := newFixture(t)
	personID := f.addPerson(t, "2025-01-01", nil)

	_, err := f.svc.Summarize(context.Background(), attendance.SummaryRequest{
		TenantID: testTenant, PersonID: personID, From: "2025-04-30", To: "2025-04-01",
	})
	require.Error(t, err)
	assert.Equal(t, "ValidationError", attendance.ErrorKind(err))
}

func TestCorrectRecord_WritesAuditRow(t *testing.T) {
	f := newFixture(t)
	personID := f.addPerson(t, "2025-01-01", nil)
	ctx := context.Background()

	created, err := f.svc.RecordCheckIn(ctx, checkIn(personID, "2025-03-10T09:30:00+00:00"))
	require.NoError(t, err)

	reason := "bus breakdown"
	version := created.Version
	corrected, err := f.svc.CorrectRecord(ctx, attendance.CorrectRecordRequest{
		RecordID:   created.ID,
		TenantID:   testTenant,
		OperatorID: testOperator,
		Status:     "excused",
		Reason:     &reason,
		Version:    &version,
	})
	require.NoError(t, err)
	assert.Equal(t, string(attendance.StateCorrected), corrected.State)
	assert.Equal(t, string(attendance.StatusExcused), corrected.Status)
	assert.Equal(t, created.Version+1, corrected.Version)

	corrections, err := f.svc.ListCorrections(ctx, created.ID, testTenant)
	require.NoError(t, err)
	require.Len(t, corrections, 1)
	c := corrections[0]
	require.NotNil(t, c.PreviousStatus)
	assert.Equal(t, string(attendance.StatusLate), *c.PreviousStatus)
	assert.Equal(t, string(attendance.StateOpen), *c.PreviousState)
	assert.Equal(t, 20, c.PreviousLateByMinutes)
	assert.Equal(t, string(attendance.StatusExcused), c.NewStatus)
	assert.Equal(t, testOperator, c.CorrectedBy)
	assert.Equal(t, &reason, c.Reason)

	stale := created.Version
	_, err = f.svc.CorrectRecord(ctx, attendance.CorrectRecordRequest{
		RecordID:   created.ID,
		TenantID:   testTenant,
		OperatorID: testOperator,
		Status:     "present",
		Version:    &stale,
	})
	assert.ErrorIs(t, err, attendance.ErrConcurrentModification)

	_, err = f.svc.CorrectRecord(ctx, attendance.CorrectRecordRequest{
		RecordID:   "missing",
		TenantID:   testTenant,
		OperatorID: testOperator,
		Status:     "present",
	})
	assert.ErrorIs(t, err, attendance.ErrRecordNotFound)
}

func TestMarkAbsent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	checkedIn := f.addPerson(t, "2025-01-01", nil)
	missing := f.addPerson(t, "2025-01-01", nil)
	left := "2025-02-28"
	f.addPerson(t, "2025-01-01", &left)
	f.addPerson(t, "2025-04-01", nil)

	_, err := f.svc.RecordCheckIn(ctx, checkIn(checkedIn, "2025-03-10T09:00:00+00:00"))
	require.NoError(t, err)

	result, err := f.svc.MarkAbsent(ctx, attendance.MarkAbsentRequest{TenantID: testTenant, Date: "2025-03-10"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Marked)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0, result.Failed)

	record, err := f.repo.GetByKey(ctx, attendance.Key{
		TenantID: testTenant,
		PersonID: missing,
		Date:     time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Context:  attendance.ContextDaily,
	})
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusAbsent, record.Status)
	require.NotNil(t, record.MarkedBy)
	assert.Equal(t, "system", *record.MarkedBy)

	again, err := f.svc.MarkAbsent(ctx, attendance.MarkAbsentRequest{TenantID: testTenant, Date: "2025-03-10"})
	require.NoError(t, err)
	assert.Equal(t, 0, again.Marked)
	assert.Equal(t, 2, again.Skipped)
}

func TestListHistory_KeysetPagingIsStable(t *testing.T) {
	f := newFixture(t)
	personID := f.addPerson(t, "2025-01-01", nil)
	seedMonth(t, f, personID)
	ctx := context.Background()

	var (
		seen   = make(map[string]bool)
		dates  []string
		cursor string
		pages  int
	)
	for {
		page, err := f.svc.ListHistory(ctx, attendance.HistoryRequest{
			TenantID: testTenant,
			PersonID: personID,
			Cursor:   cursor,
			PageSize: 7,
		})
		require.NoError(t, err)
		pages++

		for _, r := range page.Records {
			assert.False(t, seen[r.ID], "record %s returned twice", r.ID)
			seen[r.ID] = true
			dates = append(dates, r.Date)
		}

		if pages == 1 {
			// A newer record arriving mid-scan must not shift later pages.
			_, err := f.svc.RecordCheckIn(ctx, checkIn(personID, "2025-05-02T09:00:00+00:00"))
			require.NoError(t, err)
		}

		if page.NextCursor == nil {
			break
		}
		cursor = *page.NextCursor
	}

	assert.Equal(t, 5, pages)
	assert.Len(t, seen, 30)
	assert.Equal(t, "2025-04-30", dates[0])
	assert.Equal(t, "2025-04-01", dates[len(dates)-1])
}

func TestListHistory_InvalidCursor(t *testing.T) {
	f := newFixture(t)
	personID := f.addPerson(t, "2025-01-01", nil)

	_, err := f.svc.ListHistory(context.Background(), attendance.HistoryRequest{
		TenantID: testTenant,
		PersonID: personID,
		Cursor:   "not-a-cursor",
	})
	require.Error(t, err)
	assert.Equal(t, "ValidationError", attendance.ErrorKind(err))
}

func TestCursorRoundTrip(t *testing.T) {
	c := attendance.Cursor{Date: time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC), Seq: 42}
	got, err := DecodeCursor(EncodeCursor(c))
	require.NoError(t, err)
	assert.True(t, c.Date.Equal(got.Date))
	assert.Equal(t, c.Seq, got.Seq)
}

func TestExportHistory(t *testing.T) {
	f := newFixture(t)
	personID := f.addPerson(t, "2025-01-01", nil)
	seedMonth(t, f, personID)

	var buf bytes.Buffer
	err := f.svc.ExportHistory(context.Background(), attendance.ExportRequest{
		TenantID: testTenant,
		PersonID: personID,
		From:     "2025-04-01",
		To:       "2025-04-30",
	}, &buf)
	require.NoError(t, err)

	wb, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer wb.Close()

	assert.Equal(t, []string{historySheet, summarySheet}, wb.GetSheetList())

	rows, err := wb.GetRows(historySheet)
	require.NoError(t, err)
	assert.Len(t, rows, 31)
	assert.Equal(t, "Date", rows[0][0])
	assert.Equal(t, "2025-04-01", rows[1][0])
}

func TestPolicy_UpsertRejectsInconsistentValues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	grace, standard, half := 5, 8.0, 4.0
	resp, err := f.svc.UpsertPolicy(ctx, attendance.UpsertPolicyRequest{
		TenantID:              testTenant,
		Context:               "subject",
		ExpectedCheckIn:       "08:00",
		ExpectedCheckOut:      "08:45",
		GracePeriodMinutes:    &grace,
		StandardDayHours:      &standard,
		HalfDayThresholdHours: &half,
	})
	require.NoError(t, err)
	assert.Equal(t, "subject", resp.Context)

	got, err := f.svc.GetPolicy(ctx, testTenant, "subject")
	require.NoError(t, err)
	assert.Equal(t, "08:45", *got.ExpectedCheckOut)

	_, err = f.svc.UpsertPolicy(ctx, attendance.UpsertPolicyRequest{
		TenantID:              testTenant,
		Context:               "event",
		ExpectedCheckIn:       "25:00",
		ExpectedCheckOut:      "17:00",
		GracePeriodMinutes:    &grace,
		StandardDayHours:      &standard,
		HalfDayThresholdHours: &half,
	})
	require.Error(t, err)
}
