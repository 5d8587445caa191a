package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
)

// GetPolicy implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetPolicy(ctx context.Context, tenantID string, c attendance.Context) (attendance.PolicyResponse, error) {
	policy, err := s.PolicyRepository.Get(ctx, tenantID, c)
	if err != nil {
		if errors.Is(err, attendance.ErrPolicyNotFound) {
			return attendance.PolicyResponse{}, err
		}
		return attendance.PolicyResponse{}, fmt.Errorf("failed to get punctuality policy: %w", err)
	}
	return mapPolicyToResponse(policy), nil
}

// UpsertPolicy implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) UpsertPolicy(ctx context.Context, req attendance.UpsertPolicyRequest) (attendance.PolicyResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.PolicyResponse{}, err
	}

	policy := attendance.Policy{
		TenantID:              req.TenantID,
		Context:               attendance.Context(req.Context),
		ExpectedCheckIn:       &req.ExpectedCheckIn,
		ExpectedCheckOut:      &req.ExpectedCheckOut,
		NextDayCheckOut:       req.NextDayCheckOut,
		GracePeriodMinutes:    req.GracePeriodMinutes,
		StandardDayHours:      req.StandardDayHours,
		HalfDayThresholdHours: req.HalfDayThresholdHours,
		Timezone:              req.Timezone,
	}
	// Anything the deriver would reject later is rejected now.
	if _, err := policy.Resolve(time.Now().UTC()); err != nil {
		return attendance.PolicyResponse{}, err
	}

	saved, err := s.PolicyRepository.Upsert(ctx, policy)
	if err != nil {
		return attendance.PolicyResponse{}, fmt.Errorf("failed to save punctuality policy: %w", err)
	}
	return mapPolicyToResponse(saved), nil
}

func mapPolicyToResponse(p attendance.Policy) attendance.PolicyResponse {
	return attendance.PolicyResponse{
		TenantID:              p.TenantID,
		Context:               string(p.Context),
		ExpectedCheckIn:       p.ExpectedCheckIn,
		ExpectedCheckOut:      p.ExpectedCheckOut,
		NextDayCheckOut:       p.NextDayCheckOut,
		GracePeriodMinutes:    p.GracePeriodMinutes,
		StandardDayHours:      p.StandardDayHours,
		HalfDayThresholdHours: p.HalfDayThresholdHours,
		Timezone:              p.Timezone,
		UpdatedAt:             formatTime(p.UpdatedAt),
	}
}
