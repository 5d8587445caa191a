package person

import (
	"context"
	"io"
)

type PersonService interface {
	// Create issues the identifier (and roll number when asked) before
	// inserting; if issuance fails nothing is persisted.
	Create(ctx context.Context, req CreatePersonRequest) (PersonResponse, error)
	GetByID(ctx context.Context, id string, tenantID string) (PersonResponse, error)
	// Import creates one person per spreadsheet row; rows fail independently.
	Import(ctx context.Context, tenantID string, workbook io.Reader) (ImportResult, error)
}
