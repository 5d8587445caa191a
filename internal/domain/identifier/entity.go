package identifier

import "time"

type EntityClass string

const (
	EntityClassStudent EntityClass = "student"
	EntityClassTeacher EntityClass = "teacher"
	EntityClassStaff   EntityClass = "staff"
)

func (c EntityClass) Valid() bool {
	switch c {
	case EntityClassStudent, EntityClassTeacher, EntityClassStaff:
		return true
	}
	return false
}

// DefaultScope is the counter namespace used when the caller gives none.
func (c EntityClass) DefaultScope() string {
	if c == EntityClassStudent {
		return ScopeRegistration
	}
	return ScopeEmployee
}

const (
	ScopeRegistration = "registration"
	ScopeEmployee     = "employee"
)

// SequenceKey names one monotonic counter.
type SequenceKey struct {
	TenantID    string
	EntityClass EntityClass
	Scope       string
	Year        int
}

// Identifier is an issued human-readable code together with the counter
// position it consumed.
type Identifier struct {
	Value       string
	TenantID    string
	EntityClass EntityClass
	Scope       string
	Year        int
	Ordinal     int64
	IssuedAt    time.Time
}
