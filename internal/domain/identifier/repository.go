package identifier

import "context"

// SequenceRepository hands out counter values atomically. The first value
// for a key is 1 and values are never reused.
type SequenceRepository interface {
	Next(ctx context.Context, key SequenceKey) (int64, error)
}

// RollNumberChecker reports whether a roll number is already taken within a class.
type RollNumberChecker interface {
	RollNumberExists(ctx context.Context, tenantID string, classID string, rollNumber string) (bool, error)
}
