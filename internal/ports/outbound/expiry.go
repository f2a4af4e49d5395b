package outbound

import (
	"context"
	"time"
)

// ExpiryIndex is a lookup aid for auctions whose end time has passed.
// It never drives settlement by itself; finalization stays caller
// triggered and the ledger remains correct if the index is absent.
type ExpiryIndex interface {
	// Track records a token's end time
	Track(ctx context.Context, tokenID uint64, endTime time.Time) error

	// Remove drops a token from the index after settlement
	Remove(ctx context.Context, tokenID uint64) error

	// Due returns tokens whose tracked end time is at or before now
	Due(ctx context.Context, now time.Time) ([]uint64, error)
}
