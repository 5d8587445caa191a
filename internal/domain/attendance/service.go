package attendance

import (
	"context"
	"io"
)

// AttendanceService captures attendance events and reports on them.
type AttendanceService interface {
	RecordCheckIn(ctx context.Context, req CheckInRequest) (AttendanceResponse, error)
	RecordCheckOut(ctx context.Context, req CheckOutRequest) (AttendanceResponse, error)

	// RecordManualBatch applies every entry independently; one failing entry
	// never affects the others.
	RecordManualBatch(ctx context.Context, req ManualBatchRequest) (BatchResult, error)

	CorrectRecord(ctx context.Context, req CorrectRecordRequest) (AttendanceResponse, error)
	ListCorrections(ctx context.Context, recordID string, tenantID string) ([]CorrectionResponse, error)

	// MarkAbsent writes ABSENT records for persons without any record on the date.
	MarkAbsent(ctx context.Context, req MarkAbsentRequest) (ReconcileResult, error)

	Summarize(ctx context.Context, req SummaryRequest) (SummaryResponse, error)
	ListHistory(ctx context.Context, req HistoryRequest) (HistoryResponse, error)
	ExportHistory(ctx context.Context, req ExportRequest, w io.Writer) error

	GetPolicy(ctx context.Context, tenantID string, c Context) (PolicyResponse, error)
	UpsertPolicy(ctx context.Context, req UpsertPolicyRequest) (PolicyResponse, error)
}
