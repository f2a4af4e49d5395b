package app

import (
	"context"
	"errors"
	"time"

	"nft-auction-ledger/internal/domain/shared"
	"nft-auction-ledger/internal/ports/outbound"

	"github.com/rs/zerolog"
)

// ExpiryFinalizer is the anyone-callable trigger that guarantees
// auctions terminate. It holds no state of its own: it reuses the
// ledger's finalize path and, for sweeps, consults the expiry index
// (falling back to a store scan when no index is wired). Finalization
// is always caller triggered; nothing here runs on a timer.
type ExpiryFinalizer struct {
	ledger      *LedgerService
	store       outbound.AuctionStore
	expiryIndex outbound.ExpiryIndex
	clock       func() time.Time
	logger      zerolog.Logger
}

type ExpiryFinalizerParams struct {
	Ledger      *LedgerService
	Store       outbound.AuctionStore
	ExpiryIndex outbound.ExpiryIndex
	Clock       func() time.Time
	Logger      zerolog.Logger
}

// NewExpiryFinalizer creates a new expiry finalizer
func NewExpiryFinalizer(params ExpiryFinalizerParams) *ExpiryFinalizer {
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}

	return &ExpiryFinalizer{
		ledger:      params.Ledger,
		store:       params.Store,
		expiryIndex: params.ExpiryIndex,
		clock:       clock,
		logger:      params.Logger.With().Str("component", "expiry_finalizer").Logger(),
	}
}

// FinalizeExpired settles one expired auction on behalf of any caller.
// Idempotent after the first success: later calls fail with a state
// conflict and change nothing.
func (finalizer *ExpiryFinalizer) FinalizeExpired(ctx context.Context, caller string, tokenID uint64) (*shared.SettlementResult, error) {
	return finalizer.ledger.FinalizeExpiredAuction(ctx, caller, tokenID)
}

// SweepDue finalizes every auction whose end time has passed, returning
// the settlements that succeeded. Individual failures are logged and
// skipped so one stuck auction cannot block the rest.
func (finalizer *ExpiryFinalizer) SweepDue(ctx context.Context, caller string) ([]*shared.SettlementResult, error) {
	due, err := finalizer.dueTokens(ctx)
	if err != nil {
		return nil, err
	}

	if len(due) > 0 {
		finalizer.logger.Info().Int("count", len(due)).Str("caller", caller).Msg("Sweeping due auctions")
	}

	results := make([]*shared.SettlementResult, 0, len(due))
	for _, tokenID := range due {
		result, err := finalizer.ledger.FinalizeExpiredAuction(ctx, caller, tokenID)
		if err != nil {
			// Already settled entries surface as state conflicts; that
			// just means someone beat us to it.
			if errors.Is(err, shared.ErrAuctionNotActive) || errors.Is(err, shared.ErrAuctionNotFound) {
				continue
			}
			finalizer.logger.Error().Err(err).Uint64("token_id", tokenID).Msg("Failed to finalize due auction")
			continue
		}
		results = append(results, result)
	}

	return results, nil
}

func (finalizer *ExpiryFinalizer) dueTokens(ctx context.Context) ([]uint64, error) {
	now := finalizer.clock()

	if finalizer.expiryIndex != nil {
		due, err := finalizer.expiryIndex.Due(ctx, now)
		if err == nil {
			return due, nil
		}
		finalizer.logger.Warn().Err(err).Msg("Expiry index unavailable, falling back to store scan")
	}

	records, err := finalizer.store.ListExpired(ctx, now)
	if err != nil {
		return nil, err
	}

	due := make([]uint64, 0, len(records))
	for _, record := range records {
		due = append(due, record.TokenID)
	}
	return due, nil
}
