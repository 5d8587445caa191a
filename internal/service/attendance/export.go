package attendance

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
)

const (
	historySheet = "History"
	summarySheet = "Summary"
)

var historyHeader = []interface{}{
	"Date", "Context", "Context Ref", "State", "Status", "Check In", "Check Out",
	"Late (min)", "Early Leave (min)", "Working Hours", "Overtime Hours", "Remarks",
}

// ExportHistory implements attendance.AttendanceService. It writes an XLSX
// workbook with one row per record in the range and a summary sheet.
func (s *AttendanceServiceImpl) ExportHistory(ctx context.Context, req attendance.ExportRequest, w io.Writer) error {
	if err := req.Validate(); err != nil {
		return err
	}
	from, _ := validator.IsValidDate(req.From)
	to, _ := validator.IsValidDate(req.To)
	recordContext := contextOrDefault(req.Context)

	summary, err := s.summarize(ctx, req.TenantID, req.PersonID, recordContext, from, to)
	if err != nil {
		return err
	}

	records, err := s.AttendanceRepository.ListByPersonInRange(ctx, attendance.RangeFilter{
		TenantID: req.TenantID,
		PersonID: req.PersonID,
		Context:  &recordContext,
		From:     from,
		To:       to,
	})
	if err != nil {
		return fmt.Errorf("failed to list attendance records: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", historySheet); err != nil {
		return fmt.Errorf("failed to name history sheet: %w", err)
	}
	if err := writeHistorySheet(f, records); err != nil {
		return err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := writeSummarySheet(f, summary); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeHistorySheet(f *excelize.File, records []attendance.Record) error {
	header := historyHeader
	if err := f.SetSheetRow(historySheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write history header: %w", err)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(historySheet, 1, 1, style)
	}

	for i, r := range records {
		row := []interface{}{
			r.Date.Format(attendance.DateLayout),
			string(r.Context),
			r.ContextRefID,
			string(r.State),
			string(r.Status),
			eventCell(r.CheckIn),
			eventCell(r.CheckOut),
			r.LateByMinutes,
			r.EarlyLeaveByMinutes,
			r.WorkingHours,
			r.OvertimeHours,
			stringCell(r.Remarks),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(historySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write history row %d: %w", i+1, err)
		}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, s attendance.Summary) error {
	rows := [][]interface{}{
		{"Person", s.PersonID},
		{"Context", string(s.Context)},
		{"From", s.From.Format(attendance.DateLayout)},
		{"To", s.To.Format(attendance.DateLayout)},
		{"Expected Days", s.TotalExpectedDays},
		{"Present", s.Present},
		{"Late", s.Late},
		{"Early Checkout", s.EarlyCheckout},
		{"Half Day", s.HalfDay},
		{"Absent", s.Absent},
		{"Excused", s.Excused},
		{"Unrecorded", s.Unrecorded},
		{"Attendance %", s.Percentage},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
	}
	return nil
}

func eventCell(ev *attendance.Event) string {
	if ev == nil {
		return ""
	}
	return formatTime(ev.Timestamp)
}

func stringCell(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
