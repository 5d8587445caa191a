package identifier

import "context"

type IdentifierService interface {
	// IssueIdentifier allocates the next ordinal for the tenant/class/scope/year
	// and formats it. Nothing is written besides the counter.
	IssueIdentifier(ctx context.Context, req IssueIdentifierRequest) (Identifier, error)
	AssignRollNumber(ctx context.Context, req AssignRollNumberRequest) (string, error)
}
