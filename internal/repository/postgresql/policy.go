package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type policyRepositoryImpl struct {
	db *database.DB
}

func NewPolicyRepository(db *database.DB) attendance.PolicyRepository {
	return &policyRepositoryImpl{db: db}
}

// Get implements attendance.PolicyRepository.
func (r *policyRepositoryImpl) Get(ctx context.Context, tenantID string, c attendance.Context) (attendance.Policy, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT tenant_id, context, expected_check_in, expected_check_out, next_day_check_out,
		       grace_period_minutes, standard_day_hours, half_day_threshold_hours, timezone, updated_at
		FROM attendance_policies
		WHERE tenant_id = $1 AND context = $2
	`
	var (
		p         attendance.Policy
		policyCtx string
	)
	err := q.QueryRow(ctx, query, tenantID, string(c)).Scan(
		&p.TenantID, &policyCtx, &p.ExpectedCheckIn, &p.ExpectedCheckOut, &p.NextDayCheckOut,
		&p.GracePeriodMinutes, &p.StandardDayHours, &p.HalfDayThresholdHours, &p.Timezone, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || database.IsInvalidInput(err) {
			return attendance.Policy{}, attendance.ErrPolicyNotFound
		}
		return attendance.Policy{}, fmt.Errorf("failed to get policy: %w", database.Classify(err))
	}
	p.Context = attendance.Context(policyCtx)
	return p, nil
}

// Upsert implements attendance.PolicyRepository.
func (r *policyRepositoryImpl) Upsert(ctx context.Context, p attendance.Policy) (attendance.Policy, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendance_policies (
			tenant_id, context, expected_check_in, expected_check_out, next_day_check_out,
			grace_period_minutes, standard_day_hours, half_day_threshold_hours, timezone
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (tenant_id, context) DO UPDATE SET
			expected_check_in = EXCLUDED.expected_check_in,
			expected_check_out = EXCLUDED.expected_check_out,
			next_day_check_out = EXCLUDED.next_day_check_out,
			grace_period_minutes = EXCLUDED.grace_period_minutes,
			standard_day_hours = EXCLUDED.standard_day_hours,
			half_day_threshold_hours = EXCLUDED.half_day_threshold_hours,
			timezone = EXCLUDED.timezone,
			updated_at = now()
		RETURNING updated_at
	`
	err := q.QueryRow(ctx, query,
		p.TenantID, string(p.Context), p.ExpectedCheckIn, p.ExpectedCheckOut, p.NextDayCheckOut,
		p.GracePeriodMinutes, p.StandardDayHours, p.HalfDayThresholdHours, p.Timezone,
	).Scan(&p.UpdatedAt)
	if err != nil {
		return attendance.Policy{}, fmt.Errorf("failed to upsert policy: %w", database.Classify(err))
	}
	return p, nil
}
