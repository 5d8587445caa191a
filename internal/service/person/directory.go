package person

import (
	"context"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/person"
)

// Directory exposes person enrollment to the attendance service.
type Directory struct {
	repo person.PersonRepository
}

var _ attendance.PersonDirectory = (*Directory)(nil)

func NewDirectory(repo person.PersonRepository) *Directory {
	return &Directory{repo: repo}
}

func (d *Directory) EnrollmentWindow(ctx context.Context, tenantID string, personID string) (attendance.EnrollmentWindow, error) {
	p, err := d.repo.GetByID(ctx, personID, tenantID)
	if err != nil {
		return attendance.EnrollmentWindow{}, err
	}
	return attendance.EnrollmentWindow{From: p.EnrolledOn, To: p.LeftOn}, nil
}

func (d *Directory) ActivePersonIDs(ctx context.Context, tenantID string, date time.Time) ([]string, error) {
	return d.repo.ListActiveIDs(ctx, tenantID, date)
}
