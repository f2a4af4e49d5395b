package app

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nft-auction-ledger/internal/domain/shared"
	"nft-auction-ledger/internal/ports/inbound"
)

func newQueries(f *fixture) *QueryService {
	return NewQueryService(QueryServiceParams{
		Store:  f.store,
		Escrow: f.escrowTable,
		Clock:  f.clock.Now,
		Logger: zerolog.Nop(),
	})
}

func TestGetAuction(t *testing.T) {
	f := newFixture(t)
	queries := newQueries(f)

	f.listToken(t, 1, "alice")

	record, err := queries.GetAuction(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), record.TokenID)
	assert.Equal(t, "alice", record.Seller)

	_, err = queries.GetAuction(context.Background(), 99)
	assert.ErrorIs(t, err, shared.ErrAuctionNotFound)
}

func TestGetUserAuctionsIncludesHistory(t *testing.T) {
	f := newFixture(t)
	queries := newQueries(f)

	f.listToken(t, 1, "alice")
	f.listToken(t, 2, "alice")
	f.listToken(t, 3, "dave")

	require.NoError(t, f.service.CancelAuction(context.Background(), "alice", 2))

	records, err := queries.GetUserAuctions(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, uint64(1), records[0].TokenID)
	assert.Equal(t, uint64(2), records[1].TokenID)
	assert.False(t, records[1].IsActive())
}

func TestGetAllActiveAuctions(t *testing.T) {
	f := newFixture(t)
	queries := newQueries(f)

	f.listToken(t, 1, "alice")
	f.listToken(t, 2, "dave")
	require.NoError(t, f.service.CancelAuction(context.Background(), "dave", 2))

	records, err := queries.GetAllActiveAuctions(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, uint64(1), records[0].TokenID)
}

func TestGetUserExpiredAuctions(t *testing.T) {
	f := newFixture(t)
	queries := newQueries(f)

	f.listToken(t, 1, "alice")
	f.registry.Register(2, collection, "alice")
	_, err := f.service.CreateAuction(context.Background(), inbound.CreateAuctionRequest{
		Caller:        "alice",
		TokenID:       2,
		StartingPrice: unit,
		ReservePrice:  unit,
		Duration:      48 * time.Hour,
		Payment:       creationFee,
	})
	require.NoError(t, err)

	// Before expiry nothing is awaiting finalization.
	records, err := queries.GetUserExpiredAuctions(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, records)

	f.clock.Advance(24 * time.Hour)

	records, err = queries.GetUserExpiredAuctions(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, uint64(1), records[0].TokenID)

	// Finalized records drop out of the pending view.
	_, err = f.service.FinalizeExpiredAuction(context.Background(), "keeper", 1)
	require.NoError(t, err)

	records, err = queries.GetUserExpiredAuctions(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestProtocolBalanceTracksRevenue(t *testing.T) {
	f := newFixture(t)
	queries := newQueries(f)

	assert.Zero(t, queries.ProtocolBalance())

	f.listToken(t, 1, "alice")
	assert.Equal(t, creationFee, queries.ProtocolBalance())

	_, err := f.service.PlaceBid(context.Background(), inbound.PlaceBidRequest{
		Caller:  "bob",
		TokenID: 1,
		Payment: bidFee + unit,
	})
	require.NoError(t, err)
	assert.Equal(t, creationFee+bidFee, queries.ProtocolBalance())
}
