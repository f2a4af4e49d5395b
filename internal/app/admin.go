package app

import (
	"context"

	"nft-auction-ledger/internal/domain/escrow"
	"nft-auction-ledger/internal/domain/shared"
	"nft-auction-ledger/internal/fees"
	"nft-auction-ledger/internal/ports/outbound"
	"nft-auction-ledger/internal/whitelist"

	"github.com/rs/zerolog"
)

// AdminService implements the privileged owner-only operations: the
// whitelist gate, fee tuning and the emergency escape hatches.
type AdminService struct {
	owner          string
	escrowAddr     string
	whitelist      *whitelist.Registry
	whitelistStore outbound.WhitelistStore
	fees           *fees.Calculator
	escrow         *escrow.Table
	assets         outbound.AssetRegistry
	payments       outbound.PaymentSender
	store          outbound.AuctionStore
	ledger         *LedgerService
	logger         zerolog.Logger
}

type AdminServiceParams struct {
	Owner          string
	EscrowAddr     string
	Whitelist      *whitelist.Registry
	WhitelistStore outbound.WhitelistStore
	Fees           *fees.Calculator
	Escrow         *escrow.Table
	Assets         outbound.AssetRegistry
	Payments       outbound.PaymentSender
	Store          outbound.AuctionStore
	Ledger         *LedgerService
	Logger         zerolog.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(params AdminServiceParams) *AdminService {
	return &AdminService{
		owner:          params.Owner,
		escrowAddr:     params.EscrowAddr,
		whitelist:      params.Whitelist,
		whitelistStore: params.WhitelistStore,
		fees:           params.Fees,
		escrow:         params.Escrow,
		assets:         params.Assets,
		payments:       params.Payments,
		store:          params.Store,
		ledger:         params.Ledger,
		logger:         params.Logger.With().Str("component", "admin_service").Logger(),
	}
}

func (service *AdminService) requireOwner(caller string) error {
	if caller != service.owner {
		service.logger.Warn().Str("caller", caller).Msg("Caller is not the contract owner")
		return shared.ErrNotContractOwner
	}
	return nil
}

// WhitelistCollection authorizes or revokes a collection for listing.
// Revocation does not touch auctions already active.
func (service *AdminService) WhitelistCollection(ctx context.Context, caller, collection string, status bool) error {
	if err := service.requireOwner(caller); err != nil {
		return err
	}

	service.whitelist.SetWhitelisted(collection, status)

	if service.whitelistStore != nil {
		if err := service.whitelistStore.Put(ctx, collection, status); err != nil {
			service.logger.Error().Err(err).Str("collection", collection).Msg("Failed to persist whitelist entry")
			return err
		}
	}

	return nil
}

// UpdateCreationFee sets the flat auction creation fee.
func (service *AdminService) UpdateCreationFee(ctx context.Context, caller string, fee uint64) error {
	if err := service.requireOwner(caller); err != nil {
		return err
	}

	service.fees.SetCreationFee(fee)
	service.logger.Info().Uint64("creation_fee", fee).Msg("Creation fee updated")
	return nil
}

// UpdateBidFee sets the flat bid fee.
func (service *AdminService) UpdateBidFee(ctx context.Context, caller string, fee uint64) error {
	if err := service.requireOwner(caller); err != nil {
		return err
	}

	service.fees.SetBidFee(fee)
	service.logger.Info().Uint64("bid_fee", fee).Msg("Bid fee updated")
	return nil
}

// UpdateFinalizePercentage sets the settlement cut in basis points. The
// same percentage drives the minimum bid increment.
func (service *AdminService) UpdateFinalizePercentage(ctx context.Context, caller string, bps uint64) error {
	if err := service.requireOwner(caller); err != nil {
		return err
	}

	service.fees.SetFinalizeBps(bps)
	service.logger.Info().Uint64("finalize_bps", bps).Msg("Finalize percentage updated")
	return nil
}

// EmergencyWithdraw pays accumulated protocol revenue out to a
// recipient. Escrowed bid funds are untouchable through this path.
func (service *AdminService) EmergencyWithdraw(ctx context.Context, caller, recipient string, amount uint64) error {
	if err := service.requireOwner(caller); err != nil {
		return err
	}

	if err := service.escrow.WithdrawRevenue(amount); err != nil {
		service.logger.Warn().Uint64("amount", amount).Uint64("revenue", service.escrow.Revenue()).Msg("Insufficient protocol balance")
		return err
	}

	if err := service.payments.Send(ctx, recipient, amount); err != nil {
		// Re-credit so the books stay balanced.
		service.escrow.AddRevenue(amount)
		service.logger.Error().Err(err).Str("recipient", recipient).Uint64("amount", amount).Msg("Emergency withdrawal payout failed")
		return shared.ErrPayoutFailed
	}

	service.logger.Info().Str("recipient", recipient).Uint64("amount", amount).Msg("Protocol revenue withdrawn")
	return nil
}

// EmergencyWithdrawNFT releases a custodied token to a recipient and
// cancels its auction record. Escrowed bid funds for the auction are
// refunded to the displaced bidder first.
func (service *AdminService) EmergencyWithdrawNFT(ctx context.Context, caller string, tokenID uint64, recipient string) error {
	if err := service.requireOwner(caller); err != nil {
		return err
	}

	unlock := service.ledger.lockToken(tokenID)
	defer unlock()

	record, err := service.store.Get(ctx, tokenID)
	if err != nil {
		return shared.ErrAuctionNotFound
	}

	if !record.IsActive() {
		return shared.ErrAuctionNotActive
	}

	if entry, held := service.escrow.Held(tokenID); held {
		if err := service.payments.Send(ctx, entry.Bidder, entry.Amount); err != nil {
			service.logger.Error().Err(err).Uint64("token_id", tokenID).Str("bidder", entry.Bidder).Msg("Failed to refund bidder during emergency withdrawal")
			return shared.ErrRefundFailed
		}
		service.escrow.Release(tokenID)
	}

	if err := service.assets.Transfer(ctx, service.escrowAddr, recipient, tokenID); err != nil {
		service.logger.Error().Err(err).Uint64("token_id", tokenID).Msg("Emergency token transfer failed")
		return shared.ErrAssetTransferFailed
	}

	record.Cancel(service.ledger.clock())
	if err := service.store.Update(ctx, record); err != nil {
		service.logger.Error().Err(err).Uint64("token_id", tokenID).Msg("Failed to persist emergency withdrawal")
		return err
	}

	service.ledger.dropFromExpiryIndex(ctx, tokenID)

	service.logger.Info().Uint64("token_id", tokenID).Str("recipient", recipient).Msg("Token withdrawn through the emergency path")
	return nil
}
