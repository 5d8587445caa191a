package attendance

import (
	"context"
	"fmt"
	"time"
)

// AttendanceRepository persists records, their events and the correction log.
// Every write is atomic: a record and the event or audit row written with it
// either both land or neither does. All reads are tenant scoped.
type AttendanceRepository interface {
	// CreateWithCheckIn inserts an OPEN record together with its check-in
	// event. Returns ErrDuplicateCheckIn when a record already exists for the key.
	CreateWithCheckIn(ctx context.Context, record Record) (Record, error)

	// CloseWithCheckOut stores the check-out event and derived measures and
	// moves the record to CLOSED. record.Version must equal the stored
	// version; otherwise ErrConcurrentModification.
	CloseWithCheckOut(ctx context.Context, record Record) (Record, error)

	// CreateManual inserts an operator-entered record and its audit row.
	// Returns ErrDuplicateCheckIn when a record already exists for the key.
	CreateManual(ctx context.Context, record Record, correction Correction) (Record, error)

	// ApplyCorrection overwrites status/remarks under the version guard and
	// appends the audit row.
	ApplyCorrection(ctx context.Context, record Record, correction Correction) (Record, error)

	GetByKey(ctx context.Context, key Key) (Record, error)
	GetByID(ctx context.Context, id string, tenantID string) (Record, error)
	ListCorrections(ctx context.Context, recordID string, tenantID string) ([]Correction, error)

	// ListByPersonInRange returns records dated within [From, To] inclusive.
	ListByPersonInRange(ctx context.Context, filter RangeFilter) ([]Record, error)

	// ListHistory returns up to Limit records ordered by (date DESC, seq DESC),
	// strictly after the cursor when one is given.
	ListHistory(ctx context.Context, filter HistoryFilter) ([]Record, error)
}

type RangeFilter struct {
	TenantID string
	PersonID string
	Context  *Context
	From     time.Time
	To       time.Time
}

type HistoryFilter struct {
	TenantID string
	PersonID string
	After    *Cursor
	Limit    int
}

type PolicyRepository interface {
	// Get returns ErrPolicyNotFound when nothing is configured.
	Get(ctx context.Context, tenantID string, c Context) (Policy, error)
	Upsert(ctx context.Context, policy Policy) (Policy, error)
}

// PersonDirectory is the attendance view of the person registry.
type PersonDirectory interface {
	// EnrollmentWindow returns ErrPersonNotFound for unknown persons.
	EnrollmentWindow(ctx context.Context, tenantID string, personID string) (EnrollmentWindow, error)
	ActivePersonIDs(ctx context.Context, tenantID string, date time.Time) ([]string, error)
}

// SummaryCache stores computed summaries. Entries are keyed by a per-person
// version so a single Invalidate retires every cached window for that person.
type SummaryCache interface {
	Version(ctx context.Context, tenantID string, personID string) (int64, error)
	Get(ctx context.Context, key SummaryCacheKey) (Summary, bool, error)
	Set(ctx context.Context, key SummaryCacheKey, summary Summary) error
	Invalidate(ctx context.Context, tenantID string, personID string) error
}

type SummaryCacheKey struct {
	TenantID string
	PersonID string
	Version  int64
	Context  Context
	From     time.Time
	To       time.Time
}

func (k SummaryCacheKey) String() string {
	return fmt.Sprintf("%s:%s:%d:%s:%s:%s",
		k.TenantID, k.PersonID, k.Version, k.Context,
		k.From.Format(DateLayout), k.To.Format(DateLayout))
}
