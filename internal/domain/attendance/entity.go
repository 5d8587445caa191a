package attendance

import (
	"time"
)

// Context distinguishes a daily register from per-subject or per-event registers.
type Context string

const (
	ContextDaily   Context = "daily"
	ContextSubject Context = "subject"
	ContextEvent   Context = "event"
)

func (c Context) Valid() bool {
	switch c {
	case ContextDaily, ContextSubject, ContextEvent:
		return true
	}
	return false
}

// RequiresRef reports whether records in this context need a context_ref_id
// (the subject or event they belong to).
func (c Context) RequiresRef() bool {
	return c == ContextSubject || c == ContextEvent
}

type EventKind string

const (
	EventCheckIn  EventKind = "check_in"
	EventCheckOut EventKind = "check_out"
)

type State string

const (
	StateOpen      State = "OPEN"
	StateClosed    State = "CLOSED"
	StateCorrected State = "CORRECTED"
	StateAbsent    State = "ABSENT"
)

type Status string

const (
	StatusPresent       Status = "present"
	StatusLate          Status = "late"
	StatusAbsent        Status = "absent"
	StatusHalfDay       Status = "half-day"
	StatusExcused       Status = "excused"
	StatusEarlyCheckout Status = "early_checkout"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusLate, StatusAbsent, StatusHalfDay, StatusExcused, StatusEarlyCheckout:
		return true
	}
	return false
}

// Event is an immutable check-in or check-out.
type Event struct {
	ID        string
	RecordID  string
	Kind      EventKind
	Timestamp time.Time
	Latitude  *float64
	Longitude *float64
	DeviceTag *string
	CreatedAt time.Time
}

// Key identifies the single record a person may have per date and context.
// ContextRefID is empty for the daily register.
type Key struct {
	TenantID     string
	PersonID     string
	Date         time.Time
	Context      Context
	ContextRefID string
}

type Record struct {
	ID                  string
	Seq                 int64
	TenantID            string
	PersonID            string
	Date                time.Time
	Context             Context
	ContextRefID        string
	CheckIn             *Event
	CheckOut            *Event
	State               State
	Status              Status
	LateByMinutes       int
	EarlyLeaveByMinutes int
	WorkingHours        float64
	OvertimeHours       float64
	Remarks             *string
	MarkedBy            *string
	UpdatedBy           *string
	Version             int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (r Record) Key() Key {
	return Key{
		TenantID:     r.TenantID,
		PersonID:     r.PersonID,
		Date:         r.Date,
		Context:      r.Context,
		ContextRefID: r.ContextRefID,
	}
}

// Derivation is the outcome of classifying a record against a policy.
type Derivation struct {
	Status              Status
	LateByMinutes       int
	EarlyLeaveByMinutes int
	WorkingHours        float64
	OvertimeHours       float64
}

func (r *Record) ApplyDerivation(d Derivation) {
	r.Status = d.Status
	r.LateByMinutes = d.LateByMinutes
	r.EarlyLeaveByMinutes = d.EarlyLeaveByMinutes
	r.WorkingHours = d.WorkingHours
	r.OvertimeHours = d.OvertimeHours
}

// Correction is an append-only audit row written for every operator
// correction and manual entry. Previous* fields are zero for manual entries
// that created the record.
type Correction struct {
	ID                          string
	RecordID                    string
	TenantID                    string
	PreviousState               *State
	PreviousStatus              *Status
	PreviousLateByMinutes       int
	PreviousEarlyLeaveByMinutes int
	PreviousWorkingHours        float64
	PreviousOvertimeHours       float64
	PreviousRemarks             *string
	NewState                    State
	NewStatus                   Status
	Reason                      *string
	CorrectedBy                 string
	CorrectedAt                 time.Time
}

// EnrollmentWindow bounds the days a person is expected to attend. To is
// nil while the person is still enrolled.
type EnrollmentWindow struct {
	From time.Time
	To   *time.Time
}

// Clamp intersects [from, to] with the window. ok is false when they do not overlap.
func (w EnrollmentWindow) Clamp(from, to time.Time) (time.Time, time.Time, bool) {
	if w.From.After(from) {
		from = w.From
	}
	if w.To != nil && w.To.Before(to) {
		to = *w.To
	}
	return from, to, !from.After(to)
}

type Summary struct {
	TenantID          string
	PersonID          string
	Context           Context
	From              time.Time
	To                time.Time
	TotalExpectedDays int
	Present           int
	Late              int
	Absent            int
	HalfDay           int
	Excused           int
	EarlyCheckout     int
	Unrecorded        int
	Percentage        float64
}

// Cursor is a keyset position in a person's history, ordered by (date, seq) descending.
type Cursor struct {
	Date time.Time `json:"d"`
	Seq  int64     `json:"s"`
}

// DateOf truncates t to its calendar date in t's own location, returned as UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

const DateLayout = "2006-01-02"
