package inventory

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDelta     = errors.New("stock delta must be positive")
	ErrBatchTooLarge    = errors.New("too many items for one stock adjustment")
	ErrInvalidBatchSize = errors.New("seed batch size out of range")
	ErrEmptyName        = errors.New("inventory item without a name")
)

// SeedError reports a seed run that stopped at a failing chunk. Chunks before it are committed.
type SeedError struct {
	Written int
	Chunk   int
	Err     error
}

func (e *SeedError) Error() string {
	return fmt.Sprintf("seed stopped at chunk %d after %d items written: %v", e.Chunk, e.Written, e.Err)
}

func (e *SeedError) Unwrap() error { return e.Err }
