//go:build integration

package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/identifier"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
)

func newRedisClient(t *testing.T) *goredis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	url, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := database.NewRedisClient(ctx, database.RedisConfig{URL: url})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestSequenceRepository_Next(t *testing.T) {
	client := newRedisClient(t)
	repo := NewSequenceRepository(client)
	key := identifier.SequenceKey{TenantID: "tenant-1", EntityClass: identifier.EntityClassStudent, Scope: identifier.ScopeRegistration, Year: 2025}

	const n = 100
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int64]bool)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := repo.Next(context.Background(), key)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			seen[v] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, n)

	other := key
	other.Year = 2026
	v, err := repo.Next(context.Background(), other)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

func TestSequenceRepository_Unreachable(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond})
	defer client.Close()

	_, err := NewSequenceRepository(client).Next(context.Background(), identifier.SequenceKey{TenantID: "t", EntityClass: "staff", Scope: "employee", Year: 2025})
	require.ErrorIs(t, err, identifier.ErrAllocation)
	assert.ErrorIs(t, err, database.ErrStorageUnavailable)
}

func TestSummaryCache_VersionedEntries(t *testing.T) {
	client := newRedisClient(t)
	cache := NewSummaryCache(client, time.Minute)
	ctx := context.Background()

	version, err := cache.Version(ctx, "tenant-1", "person-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)

	key := attendance.SummaryCacheKey{
		TenantID: "tenant-1",
		PersonID: "person-1",
		Version:  version,
		Context:  attendance.ContextDaily,
		From:     time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC),
	}
	summary := attendance.Summary{TenantID: "tenant-1", PersonID: "person-1", TotalExpectedDays: 30, Present: 20, Percentage: 86.7}
	require.NoError(t, cache.Set(ctx, key, summary))

	got, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 86.7, got.Percentage)

	require.NoError(t, cache.Invalidate(ctx, "tenant-1", "person-1"))
	version, err = cache.Version(ctx, "tenant-1", "person-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	key.Version = version
	_, ok, err = cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}
