package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nft-auction-ledger/internal/domain/auction"
	"nft-auction-ledger/internal/domain/shared"
)

func newActiveRecord(tokenID uint64, seller string, start time.Time) *auction.Auction {
	return &auction.Auction{
		TokenID:       tokenID,
		Collection:    "cool-cats",
		Seller:        seller,
		StartingPrice: 1_000,
		ReservePrice:  1_000,
		Duration:      24 * time.Hour,
		StartTime:     start,
		Status:        auction.StatusActive,
		CreatedAt:     start,
		UpdatedAt:     start,
	}
}

func TestAuctionStoreRoundTrip(t *testing.T) {
	store := NewAuctionStore()
	ctx := context.Background()
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	_, err := store.Get(ctx, 1)
	assert.ErrorIs(t, err, shared.ErrAuctionNotFound)

	require.NoError(t, store.Create(ctx, newActiveRecord(1, "alice", start)))

	record, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "alice", record.Seller)

	// Mutating the returned copy does not leak into the store.
	record.Seller = "mallory"
	fresh, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "alice", fresh.Seller)
}

func TestAuctionStoreUpdate(t *testing.T) {
	store := NewAuctionStore()
	ctx := context.Background()
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	err := store.Update(ctx, newActiveRecord(1, "alice", start))
	assert.ErrorIs(t, err, shared.ErrAuctionNotFound)

	require.NoError(t, store.Create(ctx, newActiveRecord(1, "alice", start)))

	record, err := store.Get(ctx, 1)
	require.NoError(t, err)
	record.RecordBid("bob", 1_500, start.Add(time.Minute))
	require.NoError(t, store.Update(ctx, record))

	fresh, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "bob", fresh.HighestBidder)
}

func TestAuctionStoreListing(t *testing.T) {
	store := NewAuctionStore()
	ctx := context.Background()
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Create(ctx, newActiveRecord(3, "alice", start)))
	require.NoError(t, store.Create(ctx, newActiveRecord(1, "alice", start)))

	cancelled := newActiveRecord(2, "dave", start)
	cancelled.Cancel(start)
	require.NoError(t, store.Create(ctx, cancelled))

	active, err := store.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, uint64(1), active[0].TokenID)
	assert.Equal(t, uint64(3), active[1].TokenID)

	bySeller, err := store.ListBySeller(ctx, "dave")
	require.NoError(t, err)
	require.Len(t, bySeller, 1)
	assert.Equal(t, uint64(2), bySeller[0].TokenID)

	expired, err := store.ListExpired(ctx, start.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, expired, 2)

	expired, err = store.ListExpired(ctx, start.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, expired)
}

func TestAssetRegistryTransfer(t *testing.T) {
	registry := NewAssetRegistry()
	ctx := context.Background()

	registry.Register(1, "cool-cats", "alice")

	owner, err := registry.OwnerOf(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "alice", owner)

	collection, err := registry.CollectionOf(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "cool-cats", collection)

	err = registry.Transfer(ctx, "mallory", "bob", 1)
	assert.ErrorIs(t, err, shared.ErrNotTokenOwner)

	err = registry.Transfer(ctx, "alice", "bob", 1)
	require.NoError(t, err)

	owner, err = registry.OwnerOf(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "bob", owner)

	_, err = registry.OwnerOf(ctx, 99)
	assert.ErrorIs(t, err, shared.ErrTokenNotFound)
}

func TestPaymentVaultCredits(t *testing.T) {
	vault := NewPaymentVault()
	ctx := context.Background()

	assert.Zero(t, vault.BalanceOf("alice"))

	require.NoError(t, vault.Send(ctx, "alice", 1_000))
	require.NoError(t, vault.Send(ctx, "alice", 500))
	assert.Equal(t, uint64(1_500), vault.BalanceOf("alice"))
}
