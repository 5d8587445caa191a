package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/tenant"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type tenantRepositoryImpl struct {
	db *database.DB
}

func NewTenantRepository(db *database.DB) tenant.TenantRepository {
	return &tenantRepositoryImpl{db: db}
}

// Create implements tenant.TenantRepository.
func (r *tenantRepositoryImpl) Create(ctx context.Context, t tenant.Tenant) (tenant.Tenant, error) {
	q := GetQuerier(ctx, r.db)

	if t.ID == "" {
		t.ID = uuid.Must(uuid.NewV7()).String()
	}
	if t.Timezone == "" {
		t.Timezone = "UTC"
	}

	query := `
		INSERT INTO tenants (id, code, name, timezone)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`
	err := q.QueryRow(ctx, query, t.ID, t.Code, t.Name, t.Timezone).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return tenant.Tenant{}, tenant.ErrTenantCodeExists
		}
		return tenant.Tenant{}, fmt.Errorf("failed to create tenant: %w", database.Classify(err))
	}
	return t, nil
}

// GetByID implements tenant.TenantRepository.
func (r *tenantRepositoryImpl) GetByID(ctx context.Context, id string) (tenant.Tenant, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, code, name, timezone, created_at, updated_at
		FROM tenants
		WHERE id = $1
	`
	var t tenant.Tenant
	err := q.QueryRow(ctx, query, id).Scan(&t.ID, &t.Code, &t.Name, &t.Timezone, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || database.IsInvalidInput(err) {
			return tenant.Tenant{}, tenant.ErrTenantNotFound
		}
		return tenant.Tenant{}, fmt.Errorf("failed to get tenant: %w", database.Classify(err))
	}
	return t, nil
}

// List implements tenant.TenantRepository.
func (r *tenantRepositoryImpl) List(ctx context.Context) ([]tenant.Tenant, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, code, name, timezone, created_at, updated_at
		FROM tenants
		ORDER BY code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", database.Classify(err))
	}
	defer rows.Close()

	var result []tenant.Tenant
	for rows.Next() {
		var t tenant.Tenant
		if err := rows.Scan(&t.ID, &t.Code, &t.Name, &t.Timezone, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tenants: %w", database.Classify(err))
	}
	return result, nil
}

// UpdateCode implements tenant.TenantRepository. The reference check runs
// under the tenant row lock.
func (r *tenantRepositoryImpl) UpdateCode(ctx context.Context, id string, code string) (tenant.Tenant, error) {
	var updated tenant.Tenant
	err := WithTransaction(ctx, r.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, r.db)

		var locked bool
		err := q.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM persons WHERE tenant_id = t.id)
			    OR EXISTS (SELECT 1 FROM identifier_sequences WHERE tenant_id = t.id)
			FROM tenants t
			WHERE t.id = $1
			FOR UPDATE
		`, id).Scan(&locked)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) || database.IsInvalidInput(err) {
				return tenant.ErrTenantNotFound
			}
			return fmt.Errorf("failed to check tenant references: %w", database.Classify(err))
		}
		if locked {
			return tenant.ErrTenantCodeLocked
		}

		err = q.QueryRow(ctx, `
			UPDATE tenants SET code = $2, updated_at = now()
			WHERE id = $1
			RETURNING id, code, name, timezone, created_at, updated_at
		`, id, code).Scan(&updated.ID, &updated.Code, &updated.Name, &updated.Timezone, &updated.CreatedAt, &updated.UpdatedAt)
		if err != nil {
			if database.IsUniqueViolation(err) {
				return tenant.ErrTenantCodeExists
			}
			return fmt.Errorf("failed to update tenant code: %w", database.Classify(err))
		}
		return nil
	})
	if err != nil {
		return tenant.Tenant{}, err
	}
	return updated, nil
}
