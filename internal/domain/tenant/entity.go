package tenant

import "time"

// Tenant is a branch. Its code prefixes every identifier issued in it.
type Tenant struct {
	ID        string
	Code      string
	Name      string
	Timezone  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Location returns the tenant's time zone, falling back to UTC.
func (t Tenant) Location() *time.Location {
	if t.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(t.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
