package memory

import (
	"context"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
)

type summaryEntry struct {
	summary   attendance.Summary
	expiresAt time.Time
}

// SummaryCache is a process-local attendance.SummaryCache.
type SummaryCache struct {
	mu       sync.Mutex
	ttl      time.Duration
	versions map[string]int64
	entries  map[string]summaryEntry
	now      func() time.Time
}

func NewSummaryCache(ttl time.Duration) *SummaryCache {
	return &SummaryCache{
		ttl:      ttl,
		versions: make(map[string]int64),
		entries:  make(map[string]summaryEntry),
		now:      time.Now,
	}
}

func (c *SummaryCache) Version(ctx context.Context, tenantID string, personID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versions[tenantID+":"+personID], nil
}

func (c *SummaryCache) Get(ctx context.Context, key attendance.SummaryCacheKey) (attendance.Summary, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key.String()]
	if !ok {
		return attendance.Summary{}, false, nil
	}
	if c.ttl > 0 && c.now().After(entry.expiresAt) {
		delete(c.entries, key.String())
		return attendance.Summary{}, false, nil
	}
	return entry.summary, true, nil
}

func (c *SummaryCache) Set(ctx context.Context, key attendance.SummaryCacheKey, summary attendance.Summary) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key.String()] = summaryEntry{summary: summary, expiresAt: c.now().Add(c.ttl)}
	return nil
}

// Invalidate bumps the person's version and drops entries cached under older ones.
func (c *SummaryCache) Invalidate(ctx context.Context, tenantID string, personID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.versions[tenantID+":"+personID]++
	prefix := tenantID + ":" + personID + ":"
	for k := range c.entries {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			delete(c.entries, k)
		}
	}
	return nil
}
