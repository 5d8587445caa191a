package person

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/identifier"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/person"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
)

// rollNumberRetries covers the window between the existence check and the
// insert, where another request may take the same number.
const rollNumberRetries = 3

type PersonServiceImpl struct {
	person.PersonRepository
	identifiers identifier.IdentifierService
}

var _ person.PersonService = (*PersonServiceImpl)(nil)

func NewPersonService(personRepository person.PersonRepository, identifierService identifier.IdentifierService) *PersonServiceImpl {
	return &PersonServiceImpl{
		PersonRepository: personRepository,
		identifiers:      identifierService,
	}
}

// Create implements person.PersonService.
func (s *PersonServiceImpl) Create(ctx context.Context, req person.CreatePersonRequest) (person.PersonResponse, error) {
	if err := req.Validate(); err != nil {
		return person.PersonResponse{}, err
	}

	enrolledOn, _ := validator.IsValidDate(req.EnrolledOn)
	var leftOn *time.Time
	if req.LeftOn != nil {
		t, _ := validator.IsValidDate(*req.LeftOn)
		leftOn = &t
	}

	issued, err := s.identifiers.IssueIdentifier(ctx, identifier.IssueIdentifierRequest{
		TenantID:    req.TenantID,
		EntityClass: req.EntityClass,
		Scope:       req.Scope,
	})
	if err != nil {
		return person.PersonResponse{}, err
	}

	p := person.Person{
		TenantID:    req.TenantID,
		EntityClass: issued.EntityClass,
		Identifier:  issued.Value,
		IssueYear:   issued.Year,
		FullName:    strings.TrimSpace(req.FullName),
		ClassID:     req.ClassID,
		EnrolledOn:  enrolledOn,
		LeftOn:      leftOn,
	}

	attempts := 1
	if req.AssignRollNumber {
		attempts = rollNumberRetries
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		if req.AssignRollNumber {
			roll, err := s.identifiers.AssignRollNumber(ctx, identifier.AssignRollNumberRequest{
				TenantID: req.TenantID,
				ClassID:  *req.ClassID,
			})
			if err != nil {
				return person.PersonResponse{}, err
			}
			p.RollNumber = &roll
		}

		created, err := s.PersonRepository.Create(ctx, p)
		if err == nil {
			slog.Info("person created",
				"person_id", created.ID,
				"tenant_id", created.TenantID,
				"identifier", created.Identifier,
			)
			return mapPersonToResponse(created), nil
		}
		if errors.Is(err, person.ErrRollNumberTaken) && req.AssignRollNumber {
			continue
		}
		if errors.Is(err, person.ErrIdentifierExists) || errors.Is(err, person.ErrRollNumberTaken) {
			return person.PersonResponse{}, err
		}
		return person.PersonResponse{}, fmt.Errorf("failed to create person: %w", err)
	}

	return person.PersonResponse{}, identifier.ErrRollNumberExhausted
}

// GetByID implements person.PersonService.
func (s *PersonServiceImpl) GetByID(ctx context.Context, id string, tenantID string) (person.PersonResponse, error) {
	p, err := s.PersonRepository.GetByID(ctx, id, tenantID)
	if err != nil {
		if errors.Is(err, person.ErrPersonNotFound) {
			return person.PersonResponse{}, err
		}
		return person.PersonResponse{}, fmt.Errorf("failed to get person: %w", err)
	}
	return mapPersonToResponse(p), nil
}

func mapPersonToResponse(p person.Person) person.PersonResponse {
	resp := person.PersonResponse{
		ID:          p.ID,
		TenantID:    p.TenantID,
		EntityClass: string(p.EntityClass),
		Identifier:  p.Identifier,
		IssueYear:   p.IssueYear,
		FullName:    p.FullName,
		ClassID:     p.ClassID,
		RollNumber:  p.RollNumber,
		EnrolledOn:  p.EnrolledOn.Format("2006-01-02"),
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
	}
	if p.LeftOn != nil {
		left := p.LeftOn.Format("2006-01-02")
		resp.LeftOn = &left
	}
	return resp
}
