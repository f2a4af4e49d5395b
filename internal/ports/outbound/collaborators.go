package outbound

import "context"

// AssetRegistry is the external asset-ownership collaborator. The ledger
// only reads ownership and moves custody; minting and metadata live
// entirely on the other side of this interface.
type AssetRegistry interface {
	// OwnerOf returns the current owner address of a token
	OwnerOf(ctx context.Context, tokenID uint64) (string, error)

	// CollectionOf returns the collection a token belongs to
	CollectionOf(ctx context.Context, tokenID uint64) (string, error)

	// Transfer moves a token between addresses. The transfer either
	// completes or leaves ownership untouched.
	Transfer(ctx context.Context, from, to string, tokenID uint64) error
}

// PaymentSender is the external value-transfer collaborator used for
// refunds and payouts. Incoming payments arrive attached to ledger
// calls; only outbound transfers go through this interface.
type PaymentSender interface {
	// Send transfers funds from the ledger to a recipient address
	Send(ctx context.Context, to string, amount uint64) error
}
