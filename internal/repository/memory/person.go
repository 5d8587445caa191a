package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/person"
	"github.com/google/uuid"
)

type personRepositoryImpl struct {
	store *Store
}

func NewPersonRepository(store *Store) person.PersonRepository {
	return &personRepositoryImpl{store: store}
}

func (r *personRepositoryImpl) Create(ctx context.Context, p person.Person) (person.Person, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.persons {
		if existing.TenantID != p.TenantID {
			continue
		}
		if existing.EntityClass == p.EntityClass && existing.IssueYear == p.IssueYear && existing.Identifier == p.Identifier {
			return person.Person{}, person.ErrIdentifierExists
		}
		if p.RollNumber != nil && existing.RollNumber != nil && existing.ClassID != nil && p.ClassID != nil &&
			*existing.ClassID == *p.ClassID && *existing.RollNumber == *p.RollNumber {
			return person.Person{}, person.ErrRollNumberTaken
		}
	}

	if p.ID == "" {
		p.ID = uuid.Must(uuid.NewV7()).String()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	r.store.persons[p.ID] = p
	return p, nil
}

func (r *personRepositoryImpl) GetByID(ctx context.Context, id string, tenantID string) (person.Person, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	p, ok := r.store.persons[id]
	if !ok || p.TenantID != tenantID {
		return person.Person{}, person.ErrPersonNotFound
	}
	return p, nil
}

func (r *personRepositoryImpl) RollNumberExists(ctx context.Context, tenantID string, classID string, rollNumber string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, p := range r.store.persons {
		if p.TenantID == tenantID && p.ClassID != nil && *p.ClassID == classID &&
			p.RollNumber != nil && *p.RollNumber == rollNumber {
			return true, nil
		}
	}
	return false, nil
}

func (r *personRepositoryImpl) ListActiveIDs(ctx context.Context, tenantID string, date time.Time) ([]string, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var ids []string
	for _, p := range r.store.persons {
		if p.TenantID == tenantID && p.ActiveOn(date) {
			ids = append(ids, p.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
