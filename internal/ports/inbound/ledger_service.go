package inbound

import (
	"context"
	"time"

	"nft-auction-ledger/internal/domain/auction"
	"nft-auction-ledger/internal/domain/shared"
)

// AuctionLedger defines the mutating auction operations. Every call
// takes the authenticated caller address explicitly; the ledger never
// infers identity from ambient context.
type AuctionLedger interface {
	// CreateAuction lists a token for timed auction and takes custody of it
	CreateAuction(ctx context.Context, req CreateAuctionRequest) (*auction.Auction, error)

	// PlaceBid accepts a competing bid, refunding the displaced bidder
	PlaceBid(ctx context.Context, req PlaceBidRequest) (*shared.BidResult, error)

	// CancelAuction cancels a bid-free auction and returns the token to its seller
	CancelAuction(ctx context.Context, caller string, tokenID uint64) error

	// EndAuction settles an auction; seller-only, permitted before expiry
	EndAuction(ctx context.Context, caller string, tokenID uint64) (*shared.SettlementResult, error)

	// FinalizeExpiredAuction settles an expired auction; callable by anyone
	FinalizeExpiredAuction(ctx context.Context, caller string, tokenID uint64) (*shared.SettlementResult, error)

	// UpdateAuctionParameters adjusts reserve price and duration pre-bid
	UpdateAuctionParameters(ctx context.Context, req UpdateParametersRequest) error
}

// AuctionQueries defines the read-only views over ledger state. Safe for
// unauthenticated callers.
type AuctionQueries interface {
	// GetAuction retrieves the latest record for a token
	GetAuction(ctx context.Context, tokenID uint64) (*auction.Auction, error)

	// GetUserAuctions retrieves all records, active or historical, for a seller
	GetUserAuctions(ctx context.Context, user string) ([]*auction.Auction, error)

	// GetAllActiveAuctions retrieves every active record
	GetAllActiveAuctions(ctx context.Context) ([]*auction.Auction, error)

	// GetUserExpiredAuctions retrieves a seller's active records awaiting finalization
	GetUserExpiredAuctions(ctx context.Context, user string) ([]*auction.Auction, error)
}

// ExpiryFinalizer defines the anyone-callable expiry trigger.
type ExpiryFinalizer interface {
	// FinalizeExpired settles one expired auction on behalf of any caller
	FinalizeExpired(ctx context.Context, caller string, tokenID uint64) (*shared.SettlementResult, error)

	// SweepDue finalizes every auction whose end time has passed
	SweepDue(ctx context.Context, caller string) ([]*shared.SettlementResult, error)
}

// AdminService defines the privileged owner-only operations.
type AdminService interface {
	// WhitelistCollection authorizes or revokes a collection for listing
	WhitelistCollection(ctx context.Context, caller, collection string, status bool) error

	// UpdateCreationFee sets the flat auction creation fee
	UpdateCreationFee(ctx context.Context, caller string, fee uint64) error

	// UpdateBidFee sets the flat bid fee
	UpdateBidFee(ctx context.Context, caller string, fee uint64) error

	// UpdateFinalizePercentage sets the settlement cut in basis points
	UpdateFinalizePercentage(ctx context.Context, caller string, bps uint64) error

	// EmergencyWithdraw pays accumulated protocol revenue to a recipient
	EmergencyWithdraw(ctx context.Context, caller, recipient string, amount uint64) error

	// EmergencyWithdrawNFT releases a custodied token to a recipient and
	// deactivates its auction record
	EmergencyWithdrawNFT(ctx context.Context, caller string, tokenID uint64, recipient string) error
}

// request to create an auction
type CreateAuctionRequest struct {
	Caller        string        `json:"caller"`
	TokenID       uint64        `json:"token_id"`
	StartingPrice uint64        `json:"starting_price"`
	ReservePrice  uint64        `json:"reserve_price"`
	Duration      time.Duration `json:"duration"`
	Payment       uint64        `json:"payment"`
}

// request to place a bid; Payment is the full attached value, bid fee
// included
type PlaceBidRequest struct {
	Caller  string `json:"caller"`
	TokenID uint64 `json:"token_id"`
	Payment uint64 `json:"payment"`
}

// request to adjust auction parameters pre-bid
type UpdateParametersRequest struct {
	Caller          string        `json:"caller"`
	TokenID         uint64        `json:"token_id"`
	NewReservePrice uint64        `json:"new_reserve_price"`
	NewDuration     time.Duration `json:"new_duration"`
}
