package memory

import (
	"context"
	"sort"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
)

type attendanceRepositoryImpl struct {
	store *Store
}

func NewAttendanceRepository(store *Store) attendance.AttendanceRepository {
	return &attendanceRepositoryImpl{store: store}
}

func (r *attendanceRepositoryImpl) CreateWithCheckIn(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	if err := ctx.Err(); err != nil {
		return attendance.Record{}, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.keyTakenLocked(record); err != nil {
		return attendance.Record{}, err
	}
	return r.insertLocked(record), nil
}

func (r *attendanceRepositoryImpl) CreateManual(ctx context.Context, record attendance.Record, correction attendance.Correction) (attendance.Record, error) {
	if err := ctx.Err(); err != nil {
		return attendance.Record{}, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.keyTakenLocked(record); err != nil {
		return attendance.Record{}, err
	}
	created := r.insertLocked(record)
	correction.RecordID = created.ID
	r.store.corrections[created.ID] = append(r.store.corrections[created.ID], correction)
	return created, nil
}

func (r *attendanceRepositoryImpl) keyTakenLocked(record attendance.Record) error {
	if _, exists := r.store.recordKeys[recordKey(record.Key())]; exists {
		return attendance.ErrDuplicateCheckIn
	}
	return nil
}

// insertLocked stores record; callers check the key first.
func (r *attendanceRepositoryImpl) insertLocked(record attendance.Record) attendance.Record {
	key := recordKey(record.Key())
	r.store.recordSeq++
	record.Seq = r.store.recordSeq
	record.Version = 1
	if record.CheckIn != nil {
		record.CheckIn.RecordID = record.ID
	}
	r.store.records[record.ID] = cloneRecord(record)
	r.store.recordKeys[key] = record.ID
	return cloneRecord(record)
}

func (r *attendanceRepositoryImpl) CloseWithCheckOut(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	if err := ctx.Err(); err != nil {
		return attendance.Record{}, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.records[record.ID]
	if !ok || stored.TenantID != record.TenantID {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	if stored.CheckOut != nil {
		return attendance.Record{}, attendance.ErrAlreadyCheckedOut
	}
	if stored.Version != record.Version || stored.State != attendance.StateOpen {
		return attendance.Record{}, attendance.ErrConcurrentModification
	}

	record.State = attendance.StateClosed
	record.Version = stored.Version + 1
	record.Seq = stored.Seq
	record.CreatedAt = stored.CreatedAt
	if record.CheckOut != nil {
		record.CheckOut.RecordID = record.ID
	}
	r.store.records[record.ID] = cloneRecord(record)
	return cloneRecord(record), nil
}

func (r *attendanceRepositoryImpl) ApplyCorrection(ctx context.Context, record attendance.Record, correction attendance.Correction) (attendance.Record, error) {
	if err := ctx.Err(); err != nil {
		return attendance.Record{}, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.records[record.ID]
	if !ok || stored.TenantID != record.TenantID {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	if stored.Version != record.Version {
		return attendance.Record{}, attendance.ErrConcurrentModification
	}

	// Only operator-editable columns change; events stay as stored.
	stored.State = record.State
	stored.Status = record.Status
	stored.Remarks = record.Remarks
	stored.UpdatedBy = record.UpdatedBy
	stored.UpdatedAt = record.UpdatedAt
	stored.Version++
	r.store.records[stored.ID] = stored
	r.store.corrections[stored.ID] = append(r.store.corrections[stored.ID], correction)
	return cloneRecord(stored), nil
}

func (r *attendanceRepositoryImpl) GetByKey(ctx context.Context, key attendance.Key) (attendance.Record, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	id, ok := r.store.recordKeys[recordKey(key)]
	if !ok {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	return cloneRecord(r.store.records[id]), nil
}

func (r *attendanceRepositoryImpl) GetByID(ctx context.Context, id string, tenantID string) (attendance.Record, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rec, ok := r.store.records[id]
	if !ok || rec.TenantID != tenantID {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	return cloneRecord(rec), nil
}

func (r *attendanceRepositoryImpl) ListCorrections(ctx context.Context, recordID string, tenantID string) ([]attendance.Correction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rec, ok := r.store.records[recordID]
	if !ok || rec.TenantID != tenantID {
		return nil, attendance.ErrRecordNotFound
	}
	result := make([]attendance.Correction, len(r.store.corrections[recordID]))
	copy(result, r.store.corrections[recordID])
	return result, nil
}

func (r *attendanceRepositoryImpl) ListByPersonInRange(ctx context.Context, filter attendance.RangeFilter) ([]attendance.Record, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var result []attendance.Record
	for _, rec := range r.store.records {
		if rec.TenantID != filter.TenantID || rec.PersonID != filter.PersonID {
			continue
		}
		if filter.Context != nil && rec.Context != *filter.Context {
			continue
		}
		if rec.Date.Before(filter.From) || rec.Date.After(filter.To) {
			continue
		}
		result = append(result, cloneRecord(rec))
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].Seq < result[j].Seq
	})
	return result, nil
}

func (r *attendanceRepositoryImpl) ListHistory(ctx context.Context, filter attendance.HistoryFilter) ([]attendance.Record, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var result []attendance.Record
	for _, rec := range r.store.records {
		if rec.TenantID != filter.TenantID || rec.PersonID != filter.PersonID {
			continue
		}
		if c := filter.After; c != nil {
			if rec.Date.After(c.Date) || (rec.Date.Equal(c.Date) && rec.Seq >= c.Seq) {
				continue
			}
		}
		result = append(result, cloneRecord(rec))
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.After(result[j].Date)
		}
		return result[i].Seq > result[j].Seq
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}
