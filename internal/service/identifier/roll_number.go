package identifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"sync"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/identifier"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/metrics"
)

const (
	DefaultRollNumberDigits      = 6
	DefaultRollNumberMaxAttempts = 50
)

// RandomSource draws a uniform value in [0, n).
type RandomSource interface {
	Int64N(n int64) int64
}

type globalRandom struct{}

func (globalRandom) Int64N(n int64) int64 { return rand.Int64N(n) }

type RollNumberConfig struct {
	Digits      int
	MaxAttempts int
}

// RollNumberGenerator draws random candidates and keeps the first one not
// already used in the class.
type RollNumberGenerator struct {
	checker     identifier.RollNumberChecker
	digits      int
	maxAttempts int
	metrics     *metrics.Metrics

	mu  sync.Mutex
	src RandomSource
}

// NewRollNumberGenerator builds a generator. A nil src uses math/rand/v2.
func NewRollNumberGenerator(checker identifier.RollNumberChecker, cfg RollNumberConfig, src RandomSource, m *metrics.Metrics) *RollNumberGenerator {
	if cfg.Digits <= 0 {
		cfg.Digits = DefaultRollNumberDigits
	}
	if cfg.Digits > 18 {
		cfg.Digits = 18
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultRollNumberMaxAttempts
	}
	if src == nil {
		src = globalRandom{}
	}
	return &RollNumberGenerator{
		checker:     checker,
		digits:      cfg.Digits,
		maxAttempts: cfg.MaxAttempts,
		metrics:     m,
		src:         src,
	}
}

// Generate returns a roll number not yet used in (tenantID, classID), or
// ErrRollNumberExhausted after MaxAttempts collisions. A failing existence
// check is returned immediately.
func (g *RollNumberGenerator) Generate(ctx context.Context, tenantID string, classID string) (string, error) {
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		candidate := g.candidate()
		exists, err := g.checker.RollNumberExists(ctx, tenantID, classID, candidate)
		if err != nil {
			if !errors.Is(err, database.ErrStorageUnavailable) {
				err = errors.Join(identifier.ErrStorageUnavailable, err)
			}
			return "", fmt.Errorf("failed to check roll number: %w", err)
		}
		if !exists {
			g.metrics.ObserveRollNumberAttempts(attempt)
			return candidate, nil
		}
	}

	g.metrics.IncRollNumberExhausted()
	slog.Warn("roll number space exhausted",
		"tenant_id", tenantID,
		"class_id", classID,
		"attempts", g.maxAttempts,
	)
	return "", identifier.ErrRollNumberExhausted
}

func (g *RollNumberGenerator) candidate() string {
	low := pow10(g.digits - 1)
	high := pow10(g.digits)

	g.mu.Lock()
	n := low + g.src.Int64N(high-low)
	g.mu.Unlock()

	return strconv.FormatInt(n, 10)
}

func pow10(n int) int64 {
	v := int64(1)
	for i := 0; i < n; i++ {
		v *= 10
	}
	return v
}
