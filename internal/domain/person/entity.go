package person

import (
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/identifier"
)

// Person is anyone attendance is taken for: a student, teacher or staff member.
type Person struct {
	ID          string
	TenantID    string
	EntityClass identifier.EntityClass
	Identifier  string
	IssueYear   int
	FullName    string
	ClassID     *string
	RollNumber  *string
	EnrolledOn  time.Time
	LeftOn      *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ActiveOn reports whether date falls inside the enrollment window.
func (p Person) ActiveOn(date time.Time) bool {
	if date.Before(p.EnrolledOn) {
		return false
	}
	return p.LeftOn == nil || !date.After(*p.LeftOn)
}
