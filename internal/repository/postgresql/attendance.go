package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

const recordColumns = `
	r.id, r.seq, r.tenant_id, r.person_id, r.date, r.context, r.context_ref_id,
	r.state, r.status, r.late_by_minutes, r.early_leave_by_minutes,
	r.working_hours, r.overtime_hours, r.remarks, r.marked_by, r.updated_by,
	r.version, r.created_at, r.updated_at,
	ci.id, ci.occurred_at, ci.latitude, ci.longitude, ci.device_tag, ci.created_at,
	co.id, co.occurred_at, co.latitude, co.longitude, co.device_tag, co.created_at
`

const recordFrom = `
	FROM attendance_records r
	LEFT JOIN attendance_events ci ON ci.record_id = r.id AND ci.kind = 'check_in'
	LEFT JOIN attendance_events co ON co.record_id = r.id AND co.kind = 'check_out'
`

type eventColumns struct {
	id        *string
	timestamp *time.Time
	latitude  *float64
	longitude *float64
	deviceTag *string
	createdAt *time.Time
}

func (c eventColumns) toEvent(recordID string, kind attendance.EventKind) *attendance.Event {
	if c.id == nil {
		return nil
	}
	ev := &attendance.Event{
		ID:        *c.id,
		RecordID:  recordID,
		Kind:      kind,
		Latitude:  c.latitude,
		Longitude: c.longitude,
		DeviceTag: c.deviceTag,
	}
	if c.timestamp != nil {
		ev.Timestamp = c.timestamp.UTC()
	}
	if c.createdAt != nil {
		ev.CreatedAt = *c.createdAt
	}
	return ev
}

func scanRecord(row pgx.Row) (attendance.Record, error) {
	var (
		rec               attendance.Record
		recordCtx         string
		state, status     string
		checkIn, checkOut eventColumns
	)
	err := row.Scan(
		&rec.ID, &rec.Seq, &rec.TenantID, &rec.PersonID, &rec.Date, &recordCtx, &rec.ContextRefID,
		&state, &status, &rec.LateByMinutes, &rec.EarlyLeaveByMinutes,
		&rec.WorkingHours, &rec.OvertimeHours, &rec.Remarks, &rec.MarkedBy, &rec.UpdatedBy,
		&rec.Version, &rec.CreatedAt, &rec.UpdatedAt,
		&checkIn.id, &checkIn.timestamp, &checkIn.latitude, &checkIn.longitude, &checkIn.deviceTag, &checkIn.createdAt,
		&checkOut.id, &checkOut.timestamp, &checkOut.latitude, &checkOut.longitude, &checkOut.deviceTag, &checkOut.createdAt,
	)
	if err != nil {
		return attendance.Record{}, err
	}
	rec.Context = attendance.Context(recordCtx)
	rec.State = attendance.State(state)
	rec.Status = attendance.Status(status)
	rec.CheckIn = checkIn.toEvent(rec.ID, attendance.EventCheckIn)
	rec.CheckOut = checkOut.toEvent(rec.ID, attendance.EventCheckOut)
	return rec, nil
}

func collectRecords(rows pgx.Rows) ([]attendance.Record, error) {
	defer rows.Close()
	var result []attendance.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Classify(err)
	}
	return result, nil
}

// insertRecord writes the record row. A record already present for the key
// yields ErrDuplicateCheckIn without aborting the transaction.
func (a *attendanceRepository) insertRecord(ctx context.Context, record *attendance.Record) error {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendance_records (
			id, tenant_id, person_id, date, context, context_ref_id, state, status,
			late_by_minutes, early_leave_by_minutes, working_hours, overtime_hours,
			remarks, marked_by, updated_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (tenant_id, person_id, date, context, context_ref_id) DO NOTHING
		RETURNING seq, version
	`
	err := q.QueryRow(ctx, query,
		record.ID, record.TenantID, record.PersonID, record.Date, string(record.Context), record.ContextRefID,
		string(record.State), string(record.Status),
		record.LateByMinutes, record.EarlyLeaveByMinutes, record.WorkingHours, record.OvertimeHours,
		record.Remarks, record.MarkedBy, record.UpdatedBy, record.CreatedAt, record.UpdatedAt,
	).Scan(&record.Seq, &record.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.ErrDuplicateCheckIn
		}
		return fmt.Errorf("failed to insert attendance record: %w", database.Classify(err))
	}
	return nil
}

// insertEvent returns false when the record already has an event of that kind.
func (a *attendanceRepository) insertEvent(ctx context.Context, ev *attendance.Event) (bool, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendance_events (id, record_id, kind, occurred_at, latitude, longitude, device_tag, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (record_id, kind) DO NOTHING
		RETURNING id
	`
	var id string
	err := q.QueryRow(ctx, query,
		ev.ID, ev.RecordID, string(ev.Kind), ev.Timestamp, ev.Latitude, ev.Longitude, ev.DeviceTag, ev.CreatedAt,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert attendance event: %w", database.Classify(err))
	}
	return true, nil
}

func (a *attendanceRepository) insertCorrection(ctx context.Context, c attendance.Correction) error {
	q := GetQuerier(ctx, a.db)

	var previousState, previousStatus *string
	if c.PreviousState != nil {
		v := string(*c.PreviousState)
		previousState = &v
	}
	if c.PreviousStatus != nil {
		v := string(*c.PreviousStatus)
		previousStatus = &v
	}

	query := `
		INSERT INTO attendance_corrections (
			id, record_id, tenant_id, previous_state, previous_status,
			previous_late_by_minutes, previous_early_leave_by_minutes,
			previous_working_hours, previous_overtime_hours, previous_remarks,
			new_state, new_status, reason, corrected_by, corrected_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := q.Exec(ctx, query,
		c.ID, c.RecordID, c.TenantID, previousState, previousStatus,
		c.PreviousLateByMinutes, c.PreviousEarlyLeaveByMinutes,
		c.PreviousWorkingHours, c.PreviousOvertimeHours, c.PreviousRemarks,
		string(c.NewState), string(c.NewStatus), c.Reason, c.CorrectedBy, c.CorrectedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert attendance correction: %w", database.Classify(err))
	}
	return nil
}

// CreateWithCheckIn implements attendance.AttendanceRepository.
func (a *attendanceRepository) CreateWithCheckIn(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	err := WithTransaction(ctx, a.db, func(ctx context.Context) error {
		if err := a.insertRecord(ctx, &record); err != nil {
			return err
		}
		if record.CheckIn == nil {
			return nil
		}
		record.CheckIn.RecordID = record.ID
		if _, err := a.insertEvent(ctx, record.CheckIn); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return attendance.Record{}, err
	}
	return record, nil
}

// CreateManual implements attendance.AttendanceRepository.
func (a *attendanceRepository) CreateManual(ctx context.Context, record attendance.Record, correction attendance.Correction) (attendance.Record, error) {
	err := WithTransaction(ctx, a.db, func(ctx context.Context) error {
		if err := a.insertRecord(ctx, &record); err != nil {
			return err
		}
		correction.RecordID = record.ID
		return a.insertCorrection(ctx, correction)
	})
	if err != nil {
		return attendance.Record{}, err
	}
	return record, nil
}

// CloseWithCheckOut implements attendance.AttendanceRepository.
func (a *attendanceRepository) CloseWithCheckOut(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	err := WithTransaction(ctx, a.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, a.db)

		query := `
			UPDATE attendance_records SET
				state = $3, status = $4,
				late_by_minutes = $5, early_leave_by_minutes = $6,
				working_hours = $7, overtime_hours = $8,
				updated_by = $9, updated_at = $10,
				version = version + 1
			WHERE id = $1 AND tenant_id = $2 AND version = $11 AND state = $12
			RETURNING seq, version, created_at
		`
		err := q.QueryRow(ctx, query,
			record.ID, record.TenantID, string(attendance.StateClosed), string(record.Status),
			record.LateByMinutes, record.EarlyLeaveByMinutes,
			record.WorkingHours, record.OvertimeHours,
			record.UpdatedBy, record.UpdatedAt,
			record.Version, string(attendance.StateOpen),
		).Scan(&record.Seq, &record.Version, &record.CreatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return a.explainMissedUpdate(ctx, record.ID, record.TenantID)
			}
			return fmt.Errorf("failed to close attendance record: %w", database.Classify(err))
		}
		record.State = attendance.StateClosed

		if record.CheckOut == nil {
			return nil
		}
		record.CheckOut.RecordID = record.ID
		inserted, err := a.insertEvent(ctx, record.CheckOut)
		if err != nil {
			return err
		}
		if !inserted {
			return attendance.ErrAlreadyCheckedOut
		}
		return nil
	})
	if err != nil {
		return attendance.Record{}, err
	}
	return record, nil
}

// explainMissedUpdate tells apart a missing record, one already checked out
// and a plain version conflict after a guarded update matched nothing.
func (a *attendanceRepository) explainMissedUpdate(ctx context.Context, id, tenantID string) error {
	q := GetQuerier(ctx, a.db)

	var checkedOut bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM attendance_events WHERE record_id = r.id AND kind = 'check_out'
		)
		FROM attendance_records r
		WHERE r.id = $1 AND r.tenant_id = $2
	`, id, tenantID).Scan(&checkedOut)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return attendance.ErrRecordNotFound
	case err != nil:
		return fmt.Errorf("failed to inspect attendance record: %w", database.Classify(err))
	case checkedOut:
		return attendance.ErrAlreadyCheckedOut
	default:
		return attendance.ErrConcurrentModification
	}
}

// ApplyCorrection implements attendance.AttendanceRepository.
func (a *attendanceRepository) ApplyCorrection(ctx context.Context, record attendance.Record, correction attendance.Correction) (attendance.Record, error) {
	var updated attendance.Record
	err := WithTransaction(ctx, a.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, a.db)

		tag, err := q.Exec(ctx, `
			UPDATE attendance_records SET
				state = $3, status = $4, remarks = $5,
				updated_by = $6, updated_at = $7,
				version = version + 1
			WHERE id = $1 AND tenant_id = $2 AND version = $8
		`,
			record.ID, record.TenantID, string(record.State), string(record.Status), record.Remarks,
			record.UpdatedBy, record.UpdatedAt, record.Version,
		)
		if err != nil {
			return fmt.Errorf("failed to correct attendance record: %w", database.Classify(err))
		}
		if tag.RowsAffected() == 0 {
			if err := a.explainMissedUpdate(ctx, record.ID, record.TenantID); errors.Is(err, attendance.ErrRecordNotFound) {
				return err
			}
			return attendance.ErrConcurrentModification
		}

		if err := a.insertCorrection(ctx, correction); err != nil {
			return err
		}

		updated, err = a.GetByID(ctx, record.ID, record.TenantID)
		return err
	})
	if err != nil {
		return attendance.Record{}, err
	}
	return updated, nil
}

// GetByKey implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByKey(ctx context.Context, key attendance.Key) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + recordColumns + recordFrom + `
		WHERE r.tenant_id = $1 AND r.person_id = $2 AND r.date = $3
		  AND r.context = $4 AND r.context_ref_id = $5
	`
	rec, err := scanRecord(q.QueryRow(ctx, query,
		key.TenantID, key.PersonID, key.Date, string(key.Context), key.ContextRefID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || database.IsInvalidInput(err) {
			return attendance.Record{}, attendance.ErrRecordNotFound
		}
		return attendance.Record{}, fmt.Errorf("failed to get attendance record: %w", database.Classify(err))
	}
	return rec, nil
}

// GetByID implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string, tenantID string) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + recordColumns + recordFrom + `WHERE r.id = $1 AND r.tenant_id = $2`
	rec, err := scanRecord(q.QueryRow(ctx, query, id, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || database.IsInvalidInput(err) {
			return attendance.Record{}, attendance.ErrRecordNotFound
		}
		return attendance.Record{}, fmt.Errorf("failed to get attendance record: %w", database.Classify(err))
	}
	return rec, nil
}

// ListCorrections implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListCorrections(ctx context.Context, recordID string, tenantID string) ([]attendance.Correction, error) {
	q := GetQuerier(ctx, a.db)

	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM attendance_records WHERE id = $1 AND tenant_id = $2)`,
		recordID, tenantID,
	).Scan(&exists)
	if err != nil {
		if database.IsInvalidInput(err) {
			return nil, attendance.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to check attendance record: %w", database.Classify(err))
	}
	if !exists {
		return nil, attendance.ErrRecordNotFound
	}

	rows, err := q.Query(ctx, `
		SELECT id, record_id, tenant_id, previous_state, previous_status,
		       previous_late_by_minutes, previous_early_leave_by_minutes,
		       previous_working_hours, previous_overtime_hours, previous_remarks,
		       new_state, new_status, reason, corrected_by, corrected_at
		FROM attendance_corrections
		WHERE record_id = $1 AND tenant_id = $2
		ORDER BY corrected_at, id
	`, recordID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance corrections: %w", database.Classify(err))
	}
	defer rows.Close()

	var result []attendance.Correction
	for rows.Next() {
		var (
			c                             attendance.Correction
			previousState, previousStatus *string
			newState, newStatus           string
		)
		if err := rows.Scan(
			&c.ID, &c.RecordID, &c.TenantID, &previousState, &previousStatus,
			&c.PreviousLateByMinutes, &c.PreviousEarlyLeaveByMinutes,
			&c.PreviousWorkingHours, &c.PreviousOvertimeHours, &c.PreviousRemarks,
			&newState, &newStatus, &c.Reason, &c.CorrectedBy, &c.CorrectedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan attendance correction: %w", err)
		}
		if previousState != nil {
			s := attendance.State(*previousState)
			c.PreviousState = &s
		}
		if previousStatus != nil {
			s := attendance.Status(*previousStatus)
			c.PreviousStatus = &s
		}
		c.NewState = attendance.State(newState)
		c.NewStatus = attendance.Status(newStatus)
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Classify(err)
	}
	return result, nil
}

// ListByPersonInRange implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByPersonInRange(ctx context.Context, filter attendance.RangeFilter) ([]attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + recordColumns + recordFrom + `
		WHERE r.tenant_id = $1 AND r.person_id = $2
		  AND r.date BETWEEN $3 AND $4
	`
	args := []interface{}{filter.TenantID, filter.PersonID, filter.From, filter.To}
	if filter.Context != nil {
		query += ` AND r.context = $5`
		args = append(args, string(*filter.Context))
	}
	query += ` ORDER BY r.date, r.seq`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance records: %w", database.Classify(err))
	}
	return collectRecords(rows)
}

// ListHistory implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListHistory(ctx context.Context, filter attendance.HistoryFilter) ([]attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + recordColumns + recordFrom + `
		WHERE r.tenant_id = $1 AND r.person_id = $2
	`
	args := []interface{}{filter.TenantID, filter.PersonID}
	if filter.After != nil {
		query += ` AND (r.date, r.seq) < ($3, $4)`
		args = append(args, filter.After.Date, filter.After.Seq)
	}
	query += ` ORDER BY r.date DESC, r.seq DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance history: %w", database.Classify(err))
	}
	return collectRecords(rows)
}
