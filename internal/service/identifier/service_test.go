package identifier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/identifier"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/tenant"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
	"github.com/cmlabs-hris/attendance-backend-go/internal/repository/memory"
)

type fixedRandom struct {
	mu     sync.Mutex
	values []int64
	calls  int
}

func (f *fixedRandom) Int64N(n int64) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.values[f.calls%len(f.values)]
	f.calls++
	return v % n
}

type stubChecker struct {
	taken map[string]bool
	err   error
	calls int
}

func (s *stubChecker) RollNumberExists(ctx context.Context, tenantID, classID, rollNumber string) (bool, error) {
	s.calls++
	if s.err != nil {
		return false, s.err
	}
	return s.taken[rollNumber], nil
}

type failingSequences struct{ err error }

func (f failingSequences) Next(ctx context.Context, key identifier.SequenceKey) (int64, error) {
	return 0, f.err
}

func newTestService(t *testing.T, code string) (*IdentifierServiceImpl, tenant.Tenant, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	tenants := memory.NewTenantRepository(store)
	created, err := tenants.Create(context.Background(), tenant.Tenant{Code: code, Name: "Gulmohar School", Timezone: "UTC"})
	require.NoError(t, err)

	rolls := NewRollNumberGenerator(memory.NewPersonRepository(store), RollNumberConfig{}, nil, nil)
	svc := NewIdentifierService(tenants, memory.NewSequenceRepository(store), rolls, nil)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC) }
	return svc, created, store
}

func TestIssueIdentifier_SequentialOrdinals(t *testing.T) {
	svc, tn, _ := newTestService(t, "GUL")
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		id, err := svc.IssueIdentifier(ctx, identifier.IssueIdentifierRequest{TenantID: tn.ID, EntityClass: "student"})
		require.NoError(t, err)
		assert.Equal(t, int64(i), id.Ordinal)
		assert.Equal(t, fmt.Sprintf("GUL-25-%04d", i), id.Value)
		assert.Equal(t, identifier.ScopeRegistration, id.Scope)
	}

	teacher, err := svc.IssueIdentifier(ctx, identifier.IssueIdentifierRequest{TenantID: tn.ID, EntityClass: "teacher"})
	require.NoError(t, err)
	assert.Equal(t, "GUL-TCH-2025-0001", teacher.Value, "each entity class has its own counter")
}

func TestIssueIdentifier_ExplicitYearHasOwnCounter(t *testing.T) {
	svc, tn, _ := newTestService(t, "GUL")
	ctx := context.Background()

	_, err := svc.IssueIdentifier(ctx, identifier.IssueIdentifierRequest{TenantID: tn.ID, EntityClass: "staff"})
	require.NoError(t, err)

	id, err := svc.IssueIdentifier(ctx, identifier.IssueIdentifierRequest{TenantID: tn.ID, EntityClass: "staff", Year: 2026})
	require.NoError(t, err)
	assert.Equal(t, "GUL-STF-2026-0001", id.Value)
}

func TestIssueIdentifier_ConcurrentCallsAreUnique(t *testing.T) {
	svc, tn, _ := newTestService(t, "GUL")
	ctx := context.Background()

	const n = 200
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]bool, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := svc.IssueIdentifier(ctx, identifier.IssueIdentifierRequest{TenantID: tn.ID, EntityClass: "student"})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			seen[id.Value] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, n)
	for i := 1; i <= n; i++ {
		assert.True(t, seen[fmt.Sprintf("GUL-25-%04d", i)], "ordinal %d missing", i)
	}
}

func TestIssueIdentifier_EmptyTenantCodeDoesNotConsumeOrdinal(t *testing.T) {
	svc, tn, _ := newTestService(t, "")
	_, err := svc.IssueIdentifier(context.Background(), identifier.IssueIdentifierRequest{TenantID: tn.ID, EntityClass: "student"})
	require.ErrorIs(t, err, identifier.ErrEmptyTenantCode)

	next, err := svc.sequences.Next(context.Background(), identifier.SequenceKey{
		TenantID:    tn.ID,
		EntityClass: identifier.EntityClassStudent,
		Scope:       identifier.ScopeRegistration,
		Year:        2025,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), next)
}

func TestIssueIdentifier_AllocationFailure(t *testing.T) {
	svc, tn, _ := newTestService(t, "GUL")
	svc.sequences = failingSequences{err: errors.Join(database.ErrStorageUnavailable, context.DeadlineExceeded)}

	_, err := svc.IssueIdentifier(context.Background(), identifier.IssueIdentifierRequest{TenantID: tn.ID, EntityClass: "student"})
	require.ErrorIs(t, err, identifier.ErrAllocation)
	assert.ErrorIs(t, err, database.ErrStorageUnavailable)
}

func TestIssueIdentifier_Validation(t *testing.T) {
	svc, tn, _ := newTestService(t, "GUL")

	_, err := svc.IssueIdentifier(context.Background(), identifier.IssueIdentifierRequest{TenantID: tn.ID, EntityClass: "parent"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entity_class")

	_, err = svc.IssueIdentifier(context.Background(), identifier.IssueIdentifierRequest{TenantID: "missing", EntityClass: "student"})
	require.ErrorIs(t, err, tenant.ErrTenantNotFound)
}

func TestIssueIdentifier_CustomScopeRejected(t *testing.T) {
	svc, tn, _ := newTestService(t, "GUL")
	ctx := context.Background()

	for _, scope := range []string{"class-7a", "class-7b", "employee"} {
		_, err := svc.IssueIdentifier(ctx, identifier.IssueIdentifierRequest{TenantID: tn.ID, EntityClass: "student", Scope: scope})
		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs, scope)
		assert.True(t, verrs.Has("scope"), scope)
	}

	explicit, err := svc.IssueIdentifier(ctx, identifier.IssueIdentifierRequest{TenantID: tn.ID, EntityClass: "student", Scope: identifier.ScopeRegistration})
	require.NoError(t, err)
	implicit, err := svc.IssueIdentifier(ctx, identifier.IssueIdentifierRequest{TenantID: tn.ID, EntityClass: "student"})
	require.NoError(t, err)

	assert.Equal(t, "GUL-25-0001", explicit.Value, "rejected scopes never touch the counter")
	assert.Equal(t, "GUL-25-0002", implicit.Value)
	assert.NotEqual(t, explicit.Value, implicit.Value)
}

func TestRollNumberGenerator_SkipsTakenCandidates(t *testing.T) {
	checker := &stubChecker{taken: map[string]bool{"100000": true, "100001": true}}
	gen := NewRollNumberGenerator(checker, RollNumberConfig{Digits: 6, MaxAttempts: 5}, &fixedRandom{values: []int64{0, 1, 2}}, nil)

	got, err := gen.Generate(context.Background(), "tenant-1", "class-7a")
	require.NoError(t, err)
	assert.Equal(t, "100002", got)
	assert.Equal(t, 3, checker.calls)
}

func TestRollNumberGenerator_Exhausted(t *testing.T) {
	checker := &stubChecker{taken: map[string]bool{"100000": true}}
	gen := NewRollNumberGenerator(checker, RollNumberConfig{Digits: 6, MaxAttempts: 4}, &fixedRandom{values: []int64{0}}, nil)

	_, err := gen.Generate(context.Background(), "tenant-1", "class-7a")
	require.ErrorIs(t, err, identifier.ErrRollNumberExhausted)
	assert.Equal(t, 4, checker.calls)
}

func TestRollNumberGenerator_StorageErrorIsNotExhaustion(t *testing.T) {
	checker := &stubChecker{err: errors.New("connection reset")}
	gen := NewRollNumberGenerator(checker, RollNumberConfig{MaxAttempts: 10}, nil, nil)

	_, err := gen.Generate(context.Background(), "tenant-1", "class-7a")
	require.ErrorIs(t, err, identifier.ErrStorageUnavailable)
	assert.NotErrorIs(t, err, identifier.ErrRollNumberExhausted)
	assert.Equal(t, 1, checker.calls)
}

func TestRollNumberGenerator_DigitsAndLeadingDigit(t *testing.T) {
	gen := NewRollNumberGenerator(&stubChecker{}, RollNumberConfig{Digits: 4}, nil, nil)
	for i := 0; i < 100; i++ {
		got, err := gen.Generate(context.Background(), "tenant-1", "class-7a")
		require.NoError(t, err)
		require.Len(t, got, 4)
		assert.NotEqual(t, byte('0'), got[0])
	}
}
