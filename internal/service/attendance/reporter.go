package attendance

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
)

// Summarize implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Summarize(ctx context.Context, req attendance.SummaryRequest) (attendance.SummaryResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.SummaryResponse{}, err
	}
	from, _ := validator.IsValidDate(req.From)
	to, _ := validator.IsValidDate(req.To)

	summary, err := s.summarize(ctx, req.TenantID, req.PersonID, contextOrDefault(req.Context), from, to)
	if err != nil {
		return attendance.SummaryResponse{}, err
	}
	return mapSummaryToResponse(summary), nil
}

func (s *AttendanceServiceImpl) summarize(ctx context.Context, tenantID, personID string, c attendance.Context, from, to time.Time) (attendance.Summary, error) {
	window, err := s.requirePerson(ctx, tenantID, personID)
	if err != nil {
		return attendance.Summary{}, err
	}

	key, cacheable := s.summaryCacheKey(ctx, tenantID, personID, c, from, to)
	if cacheable {
		cached, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			s.metrics.IncSummaryCacheLookup("error")
			slog.Warn("summary cache read failed", "person_id", personID, "error", err)
		case ok:
			s.metrics.IncSummaryCacheLookup("hit")
			return cached, nil
		default:
			s.metrics.IncSummaryCacheLookup("miss")
		}
	}

	start := time.Now()
	summary := attendance.Summary{
		TenantID: tenantID,
		PersonID: personID,
		Context:  c,
		From:     from,
		To:       to,
	}

	if effFrom, effTo, ok := window.Clamp(from, to); ok {
		records, err := s.AttendanceRepository.ListByPersonInRange(ctx, attendance.RangeFilter{
			TenantID: tenantID,
			PersonID: personID,
			Context:  &c,
			From:     effFrom,
			To:       effTo,
		})
		if err != nil {
			return attendance.Summary{}, fmt.Errorf("failed to list attendance records: %w", err)
		}
		expected := int(effTo.Sub(effFrom).Hours()/24) + 1
		tallySummary(&summary, records, expected)
	}
	s.metrics.ObserveSummary(start)

	if cacheable {
		if err := s.cache.Set(ctx, key, summary); err != nil {
			slog.Warn("summary cache write failed", "person_id", personID, "error", err)
		}
	}
	return summary, nil
}

// summaryCacheKey reads the person's cache version before any data is read,
// so a write landing mid-computation bumps the version past this entry.
func (s *AttendanceServiceImpl) summaryCacheKey(ctx context.Context, tenantID, personID string, c attendance.Context, from, to time.Time) (attendance.SummaryCacheKey, bool) {
	if s.cache == nil {
		return attendance.SummaryCacheKey{}, false
	}
	version, err := s.cache.Version(ctx, tenantID, personID)
	if err != nil {
		s.metrics.IncSummaryCacheLookup("error")
		slog.Warn("summary cache version read failed", "person_id", personID, "error", err)
		return attendance.SummaryCacheKey{}, false
	}
	return attendance.SummaryCacheKey{
		TenantID: tenantID,
		PersonID: personID,
		Version:  version,
		Context:  c,
		From:     from,
		To:       to,
	}, true
}

var (
	fullDay = decimal.NewFromInt(1)
	halfDay = decimal.NewFromFloat(0.5)
	hundred = decimal.NewFromInt(100)
)

// tallySummary counts records per status and computes
// (present + late + early_checkout + 0.5*half-day) / expected * 100,
// rounded half-up to one decimal. Records are assumed to be inside the window.
// A day is credited once, with its best record, so subject and event
// contexts holding several records on one date never exceed 100%.
func tallySummary(summary *attendance.Summary, records []attendance.Record, expectedDays int) {
	summary.TotalExpectedDays = expectedDays

	credits := make(map[string]decimal.Decimal, len(records))
	for _, r := range records {
		credit := decimal.Zero
		switch r.Status {
		case attendance.StatusPresent:
			summary.Present++
			credit = fullDay
		case attendance.StatusLate:
			summary.Late++
			credit = fullDay
		case attendance.StatusEarlyCheckout:
			summary.EarlyCheckout++
			credit = fullDay
		case attendance.StatusHalfDay:
			summary.HalfDay++
			credit = halfDay
		case attendance.StatusAbsent:
			summary.Absent++
		case attendance.StatusExcused:
			summary.Excused++
		}

		day := r.Date.Format(attendance.DateLayout)
		if best, seen := credits[day]; !seen || credit.GreaterThan(best) {
			credits[day] = credit
		}
	}

	attended := decimal.Zero
	for _, credit := range credits {
		attended = attended.Add(credit)
	}

	summary.Unrecorded = max(0, expectedDays-len(credits))

	if expectedDays == 0 {
		summary.Percentage = 0
		return
	}
	summary.Percentage = attended.Mul(hundred).
		Div(decimal.NewFromInt(int64(expectedDays))).
		Round(1).
		InexactFloat64()
}

func mapSummaryToResponse(s attendance.Summary) attendance.SummaryResponse {
	return attendance.SummaryResponse{
		PersonID:          s.PersonID,
		Context:           string(s.Context),
		From:              s.From.Format(attendance.DateLayout),
		To:                s.To.Format(attendance.DateLayout),
		TotalExpectedDays: s.TotalExpectedDays,
		Present:           s.Present,
		Late:              s.Late,
		Absent:            s.Absent,
		HalfDay:           s.HalfDay,
		Excused:           s.Excused,
		EarlyCheckout:     s.EarlyCheckout,
		Unrecorded:        s.Unrecorded,
		Percentage:        s.Percentage,
	}
}

// ListHistory implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListHistory(ctx context.Context, req attendance.HistoryRequest) (attendance.HistoryResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.HistoryResponse{}, err
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = attendance.DefaultPageSize
	}
	if pageSize > attendance.MaxPageSize {
		pageSize = attendance.MaxPageSize
	}

	var after *attendance.Cursor
	if req.Cursor != "" {
		c, err := DecodeCursor(req.Cursor)
		if err != nil {
			return attendance.HistoryResponse{}, validator.ValidationErrors{{Field: "cursor", Message: err.Error()}}
		}
		after = &c
	}

	if _, err := s.requirePerson(ctx, req.TenantID, req.PersonID); err != nil {
		return attendance.HistoryResponse{}, err
	}

	records, err := s.AttendanceRepository.ListHistory(ctx, attendance.HistoryFilter{
		TenantID: req.TenantID,
		PersonID: req.PersonID,
		After:    after,
		Limit:    pageSize + 1,
	})
	if err != nil {
		return attendance.HistoryResponse{}, fmt.Errorf("failed to list attendance history: %w", err)
	}

	resp := attendance.HistoryResponse{Records: make([]attendance.AttendanceResponse, 0, pageSize)}
	hasMore := len(records) > pageSize
	if hasMore {
		records = records[:pageSize]
	}
	for _, r := range records {
		resp.Records = append(resp.Records, mapRecordToResponse(r))
	}
	if hasMore {
		last := records[len(records)-1]
		next := EncodeCursor(attendance.Cursor{Date: last.Date, Seq: last.Seq})
		resp.NextCursor = &next
	}
	return resp, nil
}

// EncodeCursor renders a keyset position as an opaque URL-safe token.
func EncodeCursor(c attendance.Cursor) string {
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

func DecodeCursor(token string) (attendance.Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return attendance.Cursor{}, attendance.ErrInvalidCursor
	}
	var c attendance.Cursor
	if err := json.Unmarshal(raw, &c); err != nil || c.Seq <= 0 || c.Date.IsZero() {
		return attendance.Cursor{}, attendance.ErrInvalidCursor
	}
	c.Date = attendance.DateOf(c.Date)
	return c, nil
}
