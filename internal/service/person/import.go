package person

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/person"
)

// Expected header of the roster sheet, case-insensitive. Only entity_class,
// full_name and enrolled_on are mandatory columns.
var importColumns = []string{"entity_class", "full_name", "class_id", "enrolled_on", "left_on", "assign_roll_number", "scope"}

// Import implements person.PersonService. Rows are created in sheet order
// so identifiers follow the roster order.
func (s *PersonServiceImpl) Import(ctx context.Context, tenantID string, workbook io.Reader) (person.ImportResult, error) {
	f, err := excelize.OpenReader(workbook)
	if err != nil {
		return person.ImportResult{}, fmt.Errorf("%w: %v", person.ErrInvalidWorkbook, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return person.ImportResult{}, person.ErrInvalidWorkbook
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return person.ImportResult{}, fmt.Errorf("%w: %v", person.ErrInvalidWorkbook, err)
	}
	if len(rows) < 2 {
		return person.ImportResult{}, fmt.Errorf("%w: no data rows", person.ErrInvalidWorkbook)
	}

	index := make(map[string]int)
	for i, name := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range importColumns[:2] {
		if _, ok := index[required]; !ok {
			return person.ImportResult{}, fmt.Errorf("%w: missing column %q", person.ErrInvalidWorkbook, required)
		}
	}
	if _, ok := index["enrolled_on"]; !ok {
		return person.ImportResult{}, fmt.Errorf("%w: missing column %q", person.ErrInvalidWorkbook, "enrolled_on")
	}

	cell := func(row []string, column string) string {
		i, ok := index[column]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	result := person.ImportResult{}
	for i, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if isBlankRow(row) {
			continue
		}

		req := person.CreatePersonRequest{
			TenantID:         tenantID,
			EntityClass:      strings.ToLower(cell(row, "entity_class")),
			FullName:         cell(row, "full_name"),
			Scope:            cell(row, "scope"),
			EnrolledOn:       cell(row, "enrolled_on"),
			AssignRollNumber: isTruthy(cell(row, "assign_roll_number")),
		}
		if v := cell(row, "class_id"); v != "" {
			req.ClassID = &v
		}
		if v := cell(row, "left_on"); v != "" {
			req.LeftOn = &v
		}

		rowResult := person.ImportRowResult{Row: i + 2}
		created, err := s.Create(ctx, req)
		if err != nil {
			msg := err.Error()
			rowResult.Error = &msg
			result.Failed++
		} else {
			rowResult.Success = true
			rowResult.PersonID = &created.ID
			rowResult.Identifier = &created.Identifier
			result.Succeeded++
		}
		result.Rows = append(result.Rows, rowResult)
		result.Total++
	}
	return result, nil
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func isTruthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}
