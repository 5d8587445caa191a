package identifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/identifier"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/tenant"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/metrics"
)

type IdentifierServiceImpl struct {
	tenant.TenantRepository
	sequences identifier.SequenceRepository
	rolls     *RollNumberGenerator
	metrics   *metrics.Metrics
	now       func() time.Time
}

var _ identifier.IdentifierService = (*IdentifierServiceImpl)(nil)

func NewIdentifierService(
	tenantRepository tenant.TenantRepository,
	sequenceRepository identifier.SequenceRepository,
	rolls *RollNumberGenerator,
	m *metrics.Metrics,
) *IdentifierServiceImpl {
	return &IdentifierServiceImpl{
		TenantRepository: tenantRepository,
		sequences:        sequenceRepository,
		rolls:            rolls,
		metrics:          m,
		now:              time.Now,
	}
}

// IssueIdentifier implements identifier.IdentifierService.
func (s *IdentifierServiceImpl) IssueIdentifier(ctx context.Context, req identifier.IssueIdentifierRequest) (identifier.Identifier, error) {
	if err := req.Validate(); err != nil {
		return identifier.Identifier{}, err
	}

	entityClass := identifier.EntityClass(req.EntityClass)
	scope := strings.TrimSpace(req.Scope)
	if scope == "" {
		scope = entityClass.DefaultScope()
	}

	t, err := s.TenantRepository.GetByID(ctx, req.TenantID)
	if err != nil {
		if errors.Is(err, tenant.ErrTenantNotFound) {
			return identifier.Identifier{}, err
		}
		return identifier.Identifier{}, fmt.Errorf("failed to get tenant: %w", err)
	}

	// Reject before touching the counter so a bad tenant never burns an ordinal.
	if strings.TrimSpace(t.Code) == "" {
		return identifier.Identifier{}, identifier.ErrEmptyTenantCode
	}

	issuedAt := s.now().In(t.Location())
	year := req.Year
	if year == 0 {
		year = issuedAt.Year()
	}

	key := identifier.SequenceKey{
		TenantID:    t.ID,
		EntityClass: entityClass,
		Scope:       scope,
		Year:        year,
	}
	ordinal, err := s.sequences.Next(ctx, key)
	if err != nil {
		s.metrics.IncAllocationFailure()
		slog.Error("sequence allocation failed",
			"tenant_id", t.ID,
			"entity_class", entityClass,
			"scope", scope,
			"year", year,
			"error", err,
		)
		if errors.Is(err, identifier.ErrAllocation) {
			return identifier.Identifier{}, err
		}
		return identifier.Identifier{}, fmt.Errorf("%w: %w", identifier.ErrAllocation, err)
	}

	value, err := Format(t.Code, entityClass, year, ordinal)
	if err != nil {
		return identifier.Identifier{}, err
	}

	s.metrics.IncIdentifierIssued(string(entityClass))

	return identifier.Identifier{
		Value:       value,
		TenantID:    t.ID,
		EntityClass: entityClass,
		Scope:       scope,
		Year:        year,
		Ordinal:     ordinal,
		IssuedAt:    issuedAt,
	}, nil
}

// AssignRollNumber implements identifier.IdentifierService.
func (s *IdentifierServiceImpl) AssignRollNumber(ctx context.Context, req identifier.AssignRollNumberRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	return s.rolls.Generate(ctx, req.TenantID, req.ClassID)
}

// ToResponse maps an issued identifier to its API shape.
func ToResponse(id identifier.Identifier) identifier.IdentifierResponse {
	return identifier.IdentifierResponse{
		Identifier:  id.Value,
		TenantID:    id.TenantID,
		EntityClass: string(id.EntityClass),
		Scope:       id.Scope,
		Year:        id.Year,
		Ordinal:     id.Ordinal,
		IssuedAt:    id.IssuedAt.Format(time.RFC3339),
	}
}
