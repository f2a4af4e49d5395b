package app

import (
	"context"
	"time"

	"nft-auction-ledger/internal/domain/auction"
	"nft-auction-ledger/internal/domain/escrow"
	"nft-auction-ledger/internal/ports/outbound"

	"github.com/rs/zerolog"
)

// QueryService implements the read-only views over ledger state. Pure
// reads, no side effects, safe for unauthenticated callers.
type QueryService struct {
	store  outbound.AuctionStore
	escrow *escrow.Table
	clock  func() time.Time
	logger zerolog.Logger
}

type QueryServiceParams struct {
	Store  outbound.AuctionStore
	Escrow *escrow.Table
	Clock  func() time.Time
	Logger zerolog.Logger
}

// NewQueryService creates a new query service
func NewQueryService(params QueryServiceParams) *QueryService {
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}

	return &QueryService{
		store:  params.Store,
		escrow: params.Escrow,
		clock:  clock,
		logger: params.Logger.With().Str("component", "query_service").Logger(),
	}
}

// GetAuction retrieves the latest record for a token
func (service *QueryService) GetAuction(ctx context.Context, tokenID uint64) (*auction.Auction, error) {
	record, err := service.store.Get(ctx, tokenID)
	if err != nil {
		service.logger.Debug().Err(err).Uint64("token_id", tokenID).Msg("Auction lookup failed")
		return nil, err
	}
	return record, nil
}

// GetUserAuctions retrieves all records, active or historical, where the
// given user is the seller.
func (service *QueryService) GetUserAuctions(ctx context.Context, user string) ([]*auction.Auction, error) {
	return service.store.ListBySeller(ctx, user)
}

// GetAllActiveAuctions retrieves every active record
func (service *QueryService) GetAllActiveAuctions(ctx context.Context) ([]*auction.Auction, error) {
	return service.store.ListActive(ctx)
}

// GetUserExpiredAuctions retrieves a seller's active auctions whose end
// time has passed, i.e. the ones awaiting finalization.
func (service *QueryService) GetUserExpiredAuctions(ctx context.Context, user string) ([]*auction.Auction, error) {
	records, err := service.store.ListBySeller(ctx, user)
	if err != nil {
		return nil, err
	}

	now := service.clock()
	expired := make([]*auction.Auction, 0)
	for _, record := range records {
		if record.IsActive() && record.IsExpired(now) {
			expired = append(expired, record)
		}
	}
	return expired, nil
}

// ProtocolBalance returns the accumulated protocol revenue.
func (service *QueryService) ProtocolBalance() uint64 {
	return service.escrow.Revenue()
}
