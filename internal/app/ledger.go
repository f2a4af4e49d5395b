package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"nft-auction-ledger/internal/domain/auction"
	"nft-auction-ledger/internal/domain/escrow"
	"nft-auction-ledger/internal/domain/shared"
	"nft-auction-ledger/internal/fees"
	"nft-auction-ledger/internal/ports/inbound"
	"nft-auction-ledger/internal/ports/outbound"
	"nft-auction-ledger/internal/whitelist"

	"github.com/rs/zerolog"
)

// LedgerService implements the auction ledger state machine. Mutating
// operations on the same token are serialized through a per-token lock;
// operations on distinct tokens run in parallel.
type LedgerService struct {
	store       outbound.AuctionStore
	assets      outbound.AssetRegistry
	payments    outbound.PaymentSender
	whitelist   *whitelist.Registry
	fees        *fees.Calculator
	escrow      *escrow.Table
	broadcaster outbound.Broadcaster
	expiryIndex outbound.ExpiryIndex
	escrowAddr  string
	minDuration time.Duration
	maxDuration time.Duration
	clock       func() time.Time
	locks       map[uint64]*sync.Mutex
	locksMu     sync.Mutex
	logger      zerolog.Logger
}

type LedgerServiceParams struct {
	Store       outbound.AuctionStore
	Assets      outbound.AssetRegistry
	Payments    outbound.PaymentSender
	Whitelist   *whitelist.Registry
	Fees        *fees.Calculator
	Escrow      *escrow.Table
	Broadcaster outbound.Broadcaster
	ExpiryIndex outbound.ExpiryIndex
	EscrowAddr  string
	MinDuration time.Duration
	MaxDuration time.Duration
	Clock       func() time.Time
	Logger      zerolog.Logger
}

// NewLedgerService creates a new auction ledger service
func NewLedgerService(params LedgerServiceParams) *LedgerService {
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}

	return &LedgerService{
		store:       params.Store,
		assets:      params.Assets,
		payments:    params.Payments,
		whitelist:   params.Whitelist,
		fees:        params.Fees,
		escrow:      params.Escrow,
		broadcaster: params.Broadcaster,
		expiryIndex: params.ExpiryIndex,
		escrowAddr:  params.EscrowAddr,
		minDuration: params.MinDuration,
		maxDuration: params.MaxDuration,
		clock:       clock,
		locks:       make(map[uint64]*sync.Mutex),
		logger:      params.Logger.With().Str("component", "auction_ledger").Logger(),
	}
}

// lockToken serializes mutating operations on one token id.
func (service *LedgerService) lockToken(tokenID uint64) func() {
	service.locksMu.Lock()
	lock, ok := service.locks[tokenID]
	if !ok {
		lock = &sync.Mutex{}
		service.locks[tokenID] = lock
	}
	service.locksMu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// CreateAuction lists a token for timed auction. The attached payment
// must cover the creation fee; it is retained as protocol revenue only
// after every precondition passed, so a rejected call charges nothing.
func (service *LedgerService) CreateAuction(ctx context.Context, req inbound.CreateAuctionRequest) (*auction.Auction, error) {
	service.logger.Info().
		Uint64("token_id", req.TokenID).
		Str("caller", req.Caller).
		Uint64("starting_price", req.StartingPrice).
		Uint64("reserve_price", req.ReservePrice).
		Dur("duration", req.Duration).
		Msg("Attempting to create auction")

	if req.StartingPrice == 0 {
		service.logger.Warn().Uint64("token_id", req.TokenID).Msg("Starting price must be greater than 0")
		return nil, shared.ErrInvalidStartingPrice
	}

	if req.ReservePrice < req.StartingPrice {
		service.logger.Warn().
			Uint64("reserve_price", req.ReservePrice).
			Uint64("starting_price", req.StartingPrice).
			Msg("Reserve price below starting price")
		return nil, shared.ErrReserveBelowStarting
	}

	if req.Duration < service.minDuration || req.Duration > service.maxDuration {
		service.logger.Warn().
			Dur("duration", req.Duration).
			Dur("min", service.minDuration).
			Dur("max", service.maxDuration).
			Msg("Duration outside the allowed range")
		return nil, shared.ErrDurationOutOfRange
	}

	if req.Payment < service.fees.CreationFee() {
		service.logger.Warn().
			Uint64("payment", req.Payment).
			Uint64("creation_fee", service.fees.CreationFee()).
			Msg("Attached payment below the creation fee")
		return nil, shared.ErrInsufficientFee
	}

	unlock := service.lockToken(req.TokenID)
	defer unlock()

	existing, err := service.store.Get(ctx, req.TokenID)
	if err != nil && !errors.Is(err, shared.ErrAuctionNotFound) {
		service.logger.Error().Err(err).Uint64("token_id", req.TokenID).Msg("Failed to check for an existing auction")
		return nil, err
	}
	if existing != nil && existing.IsActive() {
		service.logger.Warn().Uint64("token_id", req.TokenID).Msg("Token already has an active auction")
		return nil, shared.ErrAuctionAlreadyActive
	}

	collection, err := service.assets.CollectionOf(ctx, req.TokenID)
	if err != nil {
		service.logger.Error().Err(err).Uint64("token_id", req.TokenID).Msg("Token not found in the asset registry")
		return nil, shared.ErrTokenNotFound
	}

	if !service.whitelist.IsWhitelisted(collection) {
		service.logger.Warn().
			Uint64("token_id", req.TokenID).
			Str("collection", collection).
			Msg("Collection is not whitelisted")
		return nil, shared.ErrCollectionNotWhitelisted
	}

	owner, err := service.assets.OwnerOf(ctx, req.TokenID)
	if err != nil {
		service.logger.Error().Err(err).Uint64("token_id", req.TokenID).Msg("Failed to resolve token owner")
		return nil, shared.ErrTokenNotFound
	}
	if owner != req.Caller {
		service.logger.Warn().
			Uint64("token_id", req.TokenID).
			Str("caller", req.Caller).
			Str("owner", owner).
			Msg("Caller does not own the token")
		return nil, shared.ErrNotTokenOwner
	}

	// Take custody before touching ledger state. A failed transfer
	// leaves everything as it was.
	if err := service.assets.Transfer(ctx, req.Caller, service.escrowAddr, req.TokenID); err != nil {
		service.logger.Error().Err(err).Uint64("token_id", req.TokenID).Msg("Failed to take custody of the token")
		return nil, shared.ErrAssetTransferFailed
	}

	now := service.clock()
	record := &auction.Auction{
		TokenID:       req.TokenID,
		Collection:    collection,
		Seller:        req.Caller,
		StartingPrice: req.StartingPrice,
		ReservePrice:  req.ReservePrice,
		Duration:      req.Duration,
		StartTime:     now,
		Status:        auction.StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := service.store.Create(ctx, record); err != nil {
		service.logger.Error().Err(err).Uint64("token_id", req.TokenID).Msg("Failed to save auction, returning custody")
		if retErr := service.assets.Transfer(ctx, service.escrowAddr, req.Caller, req.TokenID); retErr != nil {
			service.logger.Error().Err(retErr).Uint64("token_id", req.TokenID).Msg("Failed to return custody after store failure")
		}
		return nil, err
	}

	// Creation fee retained, surplus included (payable-call semantics).
	service.escrow.AddRevenue(req.Payment)

	if service.expiryIndex != nil {
		if err := service.expiryIndex.Track(ctx, record.TokenID, record.EndTime()); err != nil {
			service.logger.Warn().Err(err).Uint64("token_id", record.TokenID).Msg("Failed to track auction in the expiry index")
		}
	}

	service.publish(ctx, record.TokenID, outbound.Event{
		Type:    outbound.EventTypeAuctionCreated,
		TokenID: record.TokenID,
		Data: map[string]interface{}{
			"seller":         record.Seller,
			"collection":     record.Collection,
			"starting_price": record.StartingPrice,
			"reserve_price":  record.ReservePrice,
			"end_time":       record.EndTime().Unix(),
		},
		Timestamp: now.Unix(),
	})

	service.logger.Info().
		Uint64("token_id", record.TokenID).
		Str("seller", record.Seller).
		Time("end_time", record.EndTime()).
		Msg("Auction created successfully")

	return record, nil
}

// PlaceBid accepts a competing bid. The displaced bidder is refunded
// exactly their previous bid before the new funds are accepted; the bid
// fee is retained immediately and never refunded.
func (service *LedgerService) PlaceBid(ctx context.Context, req inbound.PlaceBidRequest) (*shared.BidResult, error) {
	service.logger.Info().
		Uint64("token_id", req.TokenID).
		Str("caller", req.Caller).
		Uint64("payment", req.Payment).
		Msg("Attempting to place bid")

	unlock := service.lockToken(req.TokenID)
	defer unlock()

	record, err := service.store.Get(ctx, req.TokenID)
	if err != nil {
		service.logger.Warn().Err(err).Uint64("token_id", req.TokenID).Msg("Auction not found")
		return nil, shared.ErrAuctionNotFound
	}

	if !record.IsActive() {
		service.logger.Warn().Uint64("token_id", req.TokenID).Msg("Auction is not active")
		return nil, shared.ErrAuctionNotActive
	}

	now := service.clock()
	if record.IsExpired(now) {
		service.logger.Warn().
			Uint64("token_id", req.TokenID).
			Time("end_time", record.EndTime()).
			Msg("Auction has expired")
		return nil, shared.ErrAuctionExpired
	}

	if req.Caller == record.Seller {
		service.logger.Warn().Uint64("token_id", req.TokenID).Str("caller", req.Caller).Msg("Seller cannot bid on their own auction")
		return nil, shared.ErrSelfBid
	}

	bidFee := service.fees.BidFee()
	minBid := service.fees.MinAcceptableBid(record.HighestBid, record.StartingPrice)
	if req.Payment < bidFee+minBid {
		service.logger.Warn().
			Uint64("token_id", req.TokenID).
			Uint64("payment", req.Payment).
			Uint64("required", bidFee+minBid).
			Uint64("current_highest", record.HighestBid).
			Msg("Bid below the minimum acceptable amount")
		return nil, shared.ErrBidTooLow
	}

	netBid := req.Payment - bidFee

	// Refund the displaced bidder first; a failed refund aborts the bid
	// with no state change.
	result := &shared.BidResult{
		TokenID: req.TokenID,
		Bidder:  req.Caller,
		Amount:  netBid,
	}
	if record.HasBids() {
		if err := service.payments.Send(ctx, record.HighestBidder, record.HighestBid); err != nil {
			service.logger.Error().
				Err(err).
				Uint64("token_id", req.TokenID).
				Str("previous_bidder", record.HighestBidder).
				Uint64("previous_bid", record.HighestBid).
				Msg("Refund to previous bidder failed")
			return nil, shared.ErrRefundFailed
		}
		result.RefundedBidder = record.HighestBidder
		result.RefundedAmount = record.HighestBid
	}

	record.RecordBid(req.Caller, netBid, now)
	if err := service.store.Update(ctx, record); err != nil {
		service.logger.Error().Err(err).Uint64("token_id", req.TokenID).Msg("Failed to persist bid")
		return nil, err
	}

	service.escrow.Hold(req.TokenID, req.Caller, netBid)
	service.escrow.AddRevenue(bidFee)

	service.publish(ctx, req.TokenID, outbound.Event{
		Type:    outbound.EventTypeBidPlaced,
		TokenID: req.TokenID,
		Data: map[string]interface{}{
			"bidder":           result.Bidder,
			"amount":           result.Amount,
			"previous_bidder":  result.RefundedBidder,
			"refunded":         result.Refunded(),
			"refunded_amount":  result.RefundedAmount,
			"minimum_next_bid": service.fees.MinAcceptableBid(netBid, record.StartingPrice),
		},
		Timestamp: now.Unix(),
	})

	service.logger.Info().
		Uint64("token_id", req.TokenID).
		Str("bidder", result.Bidder).
		Uint64("amount", result.Amount).
		Bool("refunded_previous", result.Refunded()).
		Msg("Bid placed successfully")

	return result, nil
}

// CancelAuction cancels a bid-free auction and returns the token to its
// seller. The creation fee is not refunded.
func (service *LedgerService) CancelAuction(ctx context.Context, caller string, tokenID uint64) error {
	service.logger.Info().Uint64("token_id", tokenID).Str("caller", caller).Msg("Attempting to cancel auction")

	unlock := service.lockToken(tokenID)
	defer unlock()

	record, err := service.store.Get(ctx, tokenID)
	if err != nil {
		return shared.ErrAuctionNotFound
	}

	if !record.IsActive() {
		service.logger.Warn().Uint64("token_id", tokenID).Msg("Auction is not active")
		return shared.ErrAuctionNotActive
	}

	if caller != record.Seller {
		service.logger.Warn().Uint64("token_id", tokenID).Str("caller", caller).Str("seller", record.Seller).Msg("Caller is not the auction seller")
		return shared.ErrNotSeller
	}

	if record.HasBids() {
		service.logger.Warn().Uint64("token_id", tokenID).Uint64("highest_bid", record.HighestBid).Msg("Auction already has bids")
		return shared.ErrBidsAlreadyPlaced
	}

	if err := service.assets.Transfer(ctx, service.escrowAddr, record.Seller, tokenID); err != nil {
		service.logger.Error().Err(err).Uint64("token_id", tokenID).Msg("Failed to return custody to seller")
		return shared.ErrAssetTransferFailed
	}

	now := service.clock()
	record.Cancel(now)
	if err := service.store.Update(ctx, record); err != nil {
		service.logger.Error().Err(err).Uint64("token_id", tokenID).Msg("Failed to persist cancellation")
		return err
	}

	service.dropFromExpiryIndex(ctx, tokenID)

	service.publish(ctx, tokenID, outbound.Event{
		Type:    outbound.EventTypeAuctionCancelled,
		TokenID: tokenID,
		Data: map[string]interface{}{
			"seller": record.Seller,
		},
		Timestamp: now.Unix(),
	})

	service.logger.Info().Uint64("token_id", tokenID).Msg("Auction cancelled successfully")
	return nil
}

// EndAuction settles an auction at the seller's request, before or
// after expiry. Same settlement routine as FinalizeExpiredAuction,
// gated on the caller instead of the clock.
func (service *LedgerService) EndAuction(ctx context.Context, caller string, tokenID uint64) (*shared.SettlementResult, error) {
	service.logger.Info().Uint64("token_id", tokenID).Str("caller", caller).Msg("Seller ending auction")

	unlock := service.lockToken(tokenID)
	defer unlock()

	record, err := service.store.Get(ctx, tokenID)
	if err != nil {
		return nil, shared.ErrAuctionNotFound
	}

	if !record.IsActive() {
		return nil, shared.ErrAuctionNotActive
	}

	if caller != record.Seller {
		service.logger.Warn().Uint64("token_id", tokenID).Str("caller", caller).Msg("Caller is not the auction seller")
		return nil, shared.ErrNotSeller
	}

	return service.settle(ctx, record)
}

// FinalizeExpiredAuction settles an expired auction. Callable by any
// principal, so auctions terminate even when the seller is unresponsive.
func (service *LedgerService) FinalizeExpiredAuction(ctx context.Context, caller string, tokenID uint64) (*shared.SettlementResult, error) {
	service.logger.Info().Uint64("token_id", tokenID).Str("caller", caller).Msg("Finalizing expired auction")

	unlock := service.lockToken(tokenID)
	defer unlock()

	record, err := service.store.Get(ctx, tokenID)
	if err != nil {
		return nil, shared.ErrAuctionNotFound
	}

	if !record.IsActive() {
		return nil, shared.ErrAuctionNotActive
	}

	if !record.IsExpired(service.clock()) {
		service.logger.Warn().
			Uint64("token_id", tokenID).
			Time("end_time", record.EndTime()).
			Msg("Auction has not expired yet")
		return nil, shared.ErrAuctionNotExpired
	}

	return service.settle(ctx, record)
}

// settle runs the shared settlement path. The asset transfer, the
// payout and the state flip commit together: a failure in either
// transfer leaves the record active and all funds in place.
func (service *LedgerService) settle(ctx context.Context, record *auction.Auction) (*shared.SettlementResult, error) {
	now := service.clock()
	result := &shared.SettlementResult{TokenID: record.TokenID}

	if !record.HasBids() {
		// Zero-bid settlement: the token goes home, no funds move.
		if err := service.assets.Transfer(ctx, service.escrowAddr, record.Seller, record.TokenID); err != nil {
			service.logger.Error().Err(err).Uint64("token_id", record.TokenID).Msg("Failed to return token to seller")
			return nil, shared.ErrAssetTransferFailed
		}
	} else {
		sellerAmount, protocolCut := service.fees.SplitProceeds(record.HighestBid)
		result.Winner = record.HighestBidder
		result.FinalBid = record.HighestBid
		result.SellerPayout = sellerAmount
		result.ProtocolCut = protocolCut

		if err := service.assets.Transfer(ctx, service.escrowAddr, record.HighestBidder, record.TokenID); err != nil {
			service.logger.Error().Err(err).Uint64("token_id", record.TokenID).Msg("Failed to transfer token to winner")
			return nil, shared.ErrAssetTransferFailed
		}

		if err := service.payments.Send(ctx, record.Seller, sellerAmount); err != nil {
			service.logger.Error().
				Err(err).
				Uint64("token_id", record.TokenID).
				Uint64("seller_amount", sellerAmount).
				Msg("Seller payout failed, reverting asset transfer")
			if revErr := service.assets.Transfer(ctx, record.HighestBidder, service.escrowAddr, record.TokenID); revErr != nil {
				service.logger.Error().Err(revErr).Uint64("token_id", record.TokenID).Msg("Failed to revert asset transfer after payout failure")
			}
			return nil, shared.ErrPayoutFailed
		}

		service.escrow.Release(record.TokenID)
		service.escrow.AddRevenue(protocolCut)
	}

	record.Finalize(now)
	if err := service.store.Update(ctx, record); err != nil {
		service.logger.Error().Err(err).Uint64("token_id", record.TokenID).Msg("Failed to persist settlement")
		return nil, err
	}

	service.dropFromExpiryIndex(ctx, record.TokenID)

	service.publish(ctx, record.TokenID, outbound.Event{
		Type:    outbound.EventTypeAuctionFinalized,
		TokenID: record.TokenID,
		Data: map[string]interface{}{
			"seller":        record.Seller,
			"winner":        result.Winner,
			"final_bid":     result.FinalBid,
			"seller_payout": result.SellerPayout,
			"protocol_cut":  result.ProtocolCut,
		},
		Timestamp: now.Unix(),
	})

	logger := service.logger.Info().Uint64("token_id", record.TokenID)
	if result.HasWinner() {
		logger = logger.Str("winner", result.Winner).Uint64("final_bid", result.FinalBid)
	}
	logger.Msg("Auction finalized successfully")

	return result, nil
}

// UpdateAuctionParameters adjusts reserve price and duration. Seller
// only, and only while no bid exists.
func (service *LedgerService) UpdateAuctionParameters(ctx context.Context, req inbound.UpdateParametersRequest) error {
	service.logger.Info().
		Uint64("token_id", req.TokenID).
		Str("caller", req.Caller).
		Uint64("new_reserve_price", req.NewReservePrice).
		Dur("new_duration", req.NewDuration).
		Msg("Attempting to update auction parameters")

	unlock := service.lockToken(req.TokenID)
	defer unlock()

	record, err := service.store.Get(ctx, req.TokenID)
	if err != nil {
		return shared.ErrAuctionNotFound
	}

	if !record.IsActive() {
		return shared.ErrAuctionNotActive
	}

	if req.Caller != record.Seller {
		return shared.ErrNotSeller
	}

	if record.HasBids() {
		service.logger.Warn().Uint64("token_id", req.TokenID).Msg("Parameters are frozen once bids exist")
		return shared.ErrBidsAlreadyPlaced
	}

	if req.NewReservePrice < record.StartingPrice {
		return shared.ErrReserveBelowStarting
	}

	if req.NewDuration < service.minDuration || req.NewDuration > service.maxDuration {
		return shared.ErrDurationOutOfRange
	}

	record.ReservePrice = req.NewReservePrice
	record.Duration = req.NewDuration
	record.UpdatedAt = service.clock()

	if err := service.store.Update(ctx, record); err != nil {
		service.logger.Error().Err(err).Uint64("token_id", req.TokenID).Msg("Failed to persist parameter update")
		return err
	}

	if service.expiryIndex != nil {
		if err := service.expiryIndex.Track(ctx, record.TokenID, record.EndTime()); err != nil {
			service.logger.Warn().Err(err).Uint64("token_id", record.TokenID).Msg("Failed to retrack auction in the expiry index")
		}
	}

	service.logger.Info().Uint64("token_id", req.TokenID).Msg("Auction parameters updated")
	return nil
}

// publish emits an event without failing the operation on broadcast
// errors.
func (service *LedgerService) publish(ctx context.Context, tokenID uint64, event outbound.Event) {
	if service.broadcaster == nil {
		return
	}
	if err := service.broadcaster.Publish(ctx, tokenID, event); err != nil {
		service.logger.Error().Err(err).Uint64("token_id", tokenID).Str("event_type", string(event.Type)).Msg("Failed to broadcast event")
	}
}

func (service *LedgerService) dropFromExpiryIndex(ctx context.Context, tokenID uint64) {
	if service.expiryIndex == nil {
		return
	}
	if err := service.expiryIndex.Remove(ctx, tokenID); err != nil {
		service.logger.Warn().Err(err).Uint64("token_id", tokenID).Msg("Failed to drop auction from the expiry index")
	}
}
