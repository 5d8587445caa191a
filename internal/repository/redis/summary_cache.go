package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
)

const DefaultSummaryTTL = 10 * time.Minute

type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ attendance.SummaryCache = (*SummaryCache)(nil)

func NewSummaryCache(client *redis.Client, ttl time.Duration) *SummaryCache {
	if ttl <= 0 {
		ttl = DefaultSummaryTTL
	}
	return &SummaryCache{client: client, ttl: ttl}
}

func versionKey(tenantID, personID string) string {
	return "summary:ver:" + tenantID + ":" + personID
}

func entryKey(key attendance.SummaryCacheKey) string {
	return "summary:" + key.String()
}

// Version implements attendance.SummaryCache. A missing key is version 0.
func (c *SummaryCache) Version(ctx context.Context, tenantID string, personID string) (int64, error) {
	v, err := c.client.Get(ctx, versionKey(tenantID, personID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read summary version: %w", database.Classify(err))
	}
	return v, nil
}

// Get implements attendance.SummaryCache.
func (c *SummaryCache) Get(ctx context.Context, key attendance.SummaryCacheKey) (attendance.Summary, bool, error) {
	raw, err := c.client.Get(ctx, entryKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return attendance.Summary{}, false, nil
	}
	if err != nil {
		return attendance.Summary{}, false, fmt.Errorf("failed to read cached summary: %w", database.Classify(err))
	}

	var summary attendance.Summary
	if err := json.Unmarshal(raw, &summary); err != nil {
		// A corrupt entry is a miss; the next Set overwrites it.
		return attendance.Summary{}, false, nil
	}
	return summary, true, nil
}

// Set implements attendance.SummaryCache.
func (c *SummaryCache) Set(ctx context.Context, key attendance.SummaryCacheKey, summary attendance.Summary) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	if err := c.client.Set(ctx, entryKey(key), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache summary: %w", database.Classify(err))
	}
	return nil
}

// Invalidate implements attendance.SummaryCache. Bumping the version
// orphans every entry built on the old one; they expire with their TTL.
func (c *SummaryCache) Invalidate(ctx context.Context, tenantID string, personID string) error {
	if err := c.client.Incr(ctx, versionKey(tenantID, personID)).Err(); err != nil {
		return fmt.Errorf("failed to bump summary version: %w", database.Classify(err))
	}
	return nil
}
