package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/identifier"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/person"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type personRepositoryImpl struct {
	db *database.DB
}

func NewPersonRepository(db *database.DB) person.PersonRepository {
	return &personRepositoryImpl{db: db}
}

// Create implements person.PersonRepository.
func (r *personRepositoryImpl) Create(ctx context.Context, p person.Person) (person.Person, error) {
	q := GetQuerier(ctx, r.db)

	if p.ID == "" {
		p.ID = uuid.Must(uuid.NewV7()).String()
	}

	query := `
		INSERT INTO persons (
			id, tenant_id, entity_class, identifier, issue_year, full_name,
			class_id, roll_number, enrolled_on, left_on
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`
	err := q.QueryRow(ctx, query,
		p.ID, p.TenantID, string(p.EntityClass), p.Identifier, p.IssueYear, p.FullName,
		p.ClassID, p.RollNumber, p.EnrolledOn, p.LeftOn,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			switch database.ConstraintName(err) {
			case "persons_roll_number_key":
				return person.Person{}, person.ErrRollNumberTaken
			default:
				return person.Person{}, person.ErrIdentifierExists
			}
		}
		return person.Person{}, fmt.Errorf("failed to create person: %w", database.Classify(err))
	}
	return p, nil
}

// GetByID implements person.PersonRepository.
func (r *personRepositoryImpl) GetByID(ctx context.Context, id string, tenantID string) (person.Person, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, tenant_id, entity_class, identifier, issue_year, full_name,
		       class_id, roll_number, enrolled_on, left_on, created_at, updated_at
		FROM persons
		WHERE id = $1 AND tenant_id = $2
	`
	var (
		p           person.Person
		entityClass string
	)
	err := q.QueryRow(ctx, query, id, tenantID).Scan(
		&p.ID, &p.TenantID, &entityClass, &p.Identifier, &p.IssueYear, &p.FullName,
		&p.ClassID, &p.RollNumber, &p.EnrolledOn, &p.LeftOn, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || database.IsInvalidInput(err) {
			return person.Person{}, person.ErrPersonNotFound
		}
		return person.Person{}, fmt.Errorf("failed to get person: %w", database.Classify(err))
	}
	p.EntityClass = identifier.EntityClass(entityClass)
	return p, nil
}

// RollNumberExists implements person.PersonRepository.
func (r *personRepositoryImpl) RollNumberExists(ctx context.Context, tenantID string, classID string, rollNumber string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM persons
			WHERE tenant_id = $1 AND class_id = $2 AND roll_number = $3
		)
	`, tenantID, classID, rollNumber).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check roll number: %w", database.Classify(err))
	}
	return exists, nil
}

// ListActiveIDs implements person.PersonRepository.
func (r *personRepositoryImpl) ListActiveIDs(ctx context.Context, tenantID string, date time.Time) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id FROM persons
		WHERE tenant_id = $1
		  AND enrolled_on <= $2
		  AND (left_on IS NULL OR left_on >= $2)
		ORDER BY id
	`, tenantID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list active persons: %w", database.Classify(err))
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan active persons: %w", database.Classify(err))
	}
	return ids, nil
}
