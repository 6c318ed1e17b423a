package numerator

import (
	"context"
	"time"
)

// Generator allocates human-readable document numbers.
//
// Implementations must be called with the transaction that inserts the
// numbered row in ctx, so that allocation and insert are serialized
// against concurrent callers.
type Generator interface {
	// NextNumber returns the next number for cfg in the period's year.
	NextNumber(ctx context.Context, cfg Config, period time.Time) (string, error)

	// NextSequence returns max(Field)+1 among rows matching the scope.
	NextSequence(ctx context.Context, cfg SequenceConfig) (int64, error)
}
