package person

import (
	"context"
	"time"
)

type PersonRepository interface {
	Create(ctx context.Context, person Person) (Person, error)
	GetByID(ctx context.Context, id string, tenantID string) (Person, error)
	RollNumberExists(ctx context.Context, tenantID string, classID string, rollNumber string) (bool, error)
	// ListActiveIDs returns ids of persons whose enrollment window covers date.
	ListActiveIDs(ctx context.Context, tenantID string, date time.Time) ([]string, error)
}
