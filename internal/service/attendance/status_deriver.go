package attendance

import (
	"math"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/shopspring/decimal"
)

// StatusDeriver classifies a record from its events and the punctuality
// policy. It never produces excused; that only comes from an operator.
type StatusDeriver struct{}

func NewStatusDeriver() *StatusDeriver {
	return &StatusDeriver{}
}

// Derive applies, in order:
//  1. no check-in: absent
//  2. check-in only: present, or late when past expected check-in + grace
//  3. both: half-day below the threshold, else early_checkout, else late, else present
//
// date is the record's calendar date; expected times are placed on it in
// the policy time zone.
func (d *StatusDeriver) Derive(date time.Time, checkIn, checkOut *time.Time, policy attendance.Policy) (attendance.Derivation, error) {
	resolved, err := policy.Resolve(date)
	if err != nil {
		return attendance.Derivation{}, err
	}

	if checkIn == nil {
		return attendance.Derivation{Status: attendance.StatusAbsent}, nil
	}

	lateBy := ceilMinutes(checkIn.Sub(resolved.ExpectedCheckIn) - resolved.GracePeriod)

	if checkOut == nil {
		status := attendance.StatusPresent
		if lateBy > 0 {
			status = attendance.StatusLate
		}
		return attendance.Derivation{
			Status:        status,
			LateByMinutes: lateBy,
		}, nil
	}

	if checkOut.Before(*checkIn) {
		return attendance.Derivation{}, attendance.ErrInvalidOrdering
	}

	worked := checkOut.Sub(*checkIn).Hours()
	workingHours := roundHours(worked)
	overtime := roundHours(math.Max(0, worked-resolved.StandardDayHours))
	earlyLeaveBy := ceilMinutes(resolved.ExpectedCheckOut.Sub(*checkOut))

	var status attendance.Status
	switch {
	case worked < resolved.HalfDayThresholdHours:
		status = attendance.StatusHalfDay
	case earlyLeaveBy > 0:
		status = attendance.StatusEarlyCheckout
	case lateBy > 0:
		status = attendance.StatusLate
	default:
		status = attendance.StatusPresent
	}

	return attendance.Derivation{
		Status:              status,
		LateByMinutes:       lateBy,
		EarlyLeaveByMinutes: earlyLeaveBy,
		WorkingHours:        workingHours,
		OvertimeHours:       overtime,
	}, nil
}

// ceilMinutes rounds a positive duration up to whole minutes; zero or
// negative durations are 0.
func ceilMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Minutes()))
}

func roundHours(h float64) float64 {
	return decimal.NewFromFloat(h).Round(2).InexactFloat64()
}
