package attendance

import (
	"fmt"
	"time"
)

// Policy holds the punctuality thresholds for one tenant and context.
// Pointer fields are nil when unset; an unset field makes the policy invalid.
type Policy struct {
	TenantID              string
	Context               Context
	ExpectedCheckIn       *string
	ExpectedCheckOut      *string
	NextDayCheckOut       bool
	GracePeriodMinutes    *int
	StandardDayHours      *float64
	HalfDayThresholdHours *float64
	Timezone              string
	UpdatedAt             time.Time
}

// ResolvedPolicy is a validated policy anchored on a concrete date.
type ResolvedPolicy struct {
	ExpectedCheckIn       time.Time
	ExpectedCheckOut      time.Time
	GracePeriod           time.Duration
	StandardDayHours      float64
	HalfDayThresholdHours float64
	Location              *time.Location
}

// Resolve validates the policy and places the expected times on date in
// the policy time zone. Any problem is reported as ErrInvalidPolicy.
func (p Policy) Resolve(date time.Time) (ResolvedPolicy, error) {
	if p.ExpectedCheckIn == nil || *p.ExpectedCheckIn == "" {
		return ResolvedPolicy{}, fmt.Errorf("%w: expected_check_in is missing", ErrInvalidPolicy)
	}
	if p.ExpectedCheckOut == nil || *p.ExpectedCheckOut == "" {
		return ResolvedPolicy{}, fmt.Errorf("%w: expected_check_out is missing", ErrInvalidPolicy)
	}
	if p.GracePeriodMinutes == nil {
		return ResolvedPolicy{}, fmt.Errorf("%w: grace_period_minutes is missing", ErrInvalidPolicy)
	}
	if p.StandardDayHours == nil {
		return ResolvedPolicy{}, fmt.Errorf("%w: standard_day_hours is missing", ErrInvalidPolicy)
	}
	if p.HalfDayThresholdHours == nil {
		return ResolvedPolicy{}, fmt.Errorf("%w: half_day_threshold_hours is missing", ErrInvalidPolicy)
	}
	if *p.GracePeriodMinutes < 0 || *p.StandardDayHours < 0 || *p.HalfDayThresholdHours < 0 {
		return ResolvedPolicy{}, fmt.Errorf("%w: thresholds must not be negative", ErrInvalidPolicy)
	}

	loc := time.UTC
	if p.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(p.Timezone)
		if err != nil {
			return ResolvedPolicy{}, fmt.Errorf("%w: unknown timezone %q", ErrInvalidPolicy, p.Timezone)
		}
	}

	expectedIn, err := clockOn(date, *p.ExpectedCheckIn, loc)
	if err != nil {
		return ResolvedPolicy{}, fmt.Errorf("%w: expected_check_in: %v", ErrInvalidPolicy, err)
	}
	expectedOut, err := clockOn(date, *p.ExpectedCheckOut, loc)
	if err != nil {
		return ResolvedPolicy{}, fmt.Errorf("%w: expected_check_out: %v", ErrInvalidPolicy, err)
	}
	if p.NextDayCheckOut {
		expectedOut = expectedOut.AddDate(0, 0, 1)
	}

	return ResolvedPolicy{
		ExpectedCheckIn:       expectedIn,
		ExpectedCheckOut:      expectedOut,
		GracePeriod:           time.Duration(*p.GracePeriodMinutes) * time.Minute,
		StandardDayHours:      *p.StandardDayHours,
		HalfDayThresholdHours: *p.HalfDayThresholdHours,
		Location:              loc,
	}, nil
}

// Location returns the policy time zone or UTC when unset or unknown.
func (p Policy) Location() *time.Location {
	if p.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func clockOn(date time.Time, hhmm string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, loc), nil
}
