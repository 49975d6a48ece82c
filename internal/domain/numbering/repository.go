package numbering

import "context"

// CounterStore hands out document numbers. Implementations run on the
// transaction carried in ctx when there is one.
type CounterStore interface {
	// Peek returns the last issued value without consuming one
	Peek(ctx context.Context, kind Kind) (int64, error)

	// Next atomically increments the counter and returns the new value.
	// A failed call must not be treated as having consumed a number.
	Next(ctx context.Context, kind Kind) (int64, error)

	// GetConfig returns the numbering row
	GetConfig(ctx context.Context) (*Config, error)
}
