package outbound

import (
	"context"
	"time"

	"nft-auction-ledger/internal/domain/auction"
)

// AuctionStore defines the interface for auction record persistence
type AuctionStore interface {
	// Create inserts a new auction record
	Create(ctx context.Context, a *auction.Auction) error

	// Get retrieves the latest auction record for a token
	Get(ctx context.Context, tokenID uint64) (*auction.Auction, error)

	// Update overwrites the record for a token
	Update(ctx context.Context, a *auction.Auction) error

	// ListActive retrieves every record with active status
	ListActive(ctx context.Context) ([]*auction.Auction, error)

	// ListBySeller retrieves every record, active or historical, for a seller
	ListBySeller(ctx context.Context, seller string) ([]*auction.Auction, error)

	// ListExpired retrieves active records whose end time has passed
	ListExpired(ctx context.Context, now time.Time) ([]*auction.Auction, error)
}

// WhitelistStore persists collection whitelist entries across restarts.
type WhitelistStore interface {
	// Put records the status for a collection
	Put(ctx context.Context, collection string, status bool) error

	// All returns every stored collection and its status
	All(ctx context.Context) (map[string]bool, error)
}
