package escrow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nft-auction-ledger/internal/domain/shared"
)

func TestHoldReplacesPreviousEntry(t *testing.T) {
	table := NewTable()

	table.Hold(1, "bob", 1_000)
	table.Hold(1, "carol", 1_100)

	entry, ok := table.Held(1)
	require.True(t, ok)
	assert.Equal(t, "carol", entry.Bidder)
	assert.Equal(t, uint64(1_100), entry.Amount)
}

func TestReleaseRemovesEntry(t *testing.T) {
	table := NewTable()
	table.Hold(1, "bob", 1_000)

	entry, ok := table.Release(1)
	require.True(t, ok)
	assert.Equal(t, "bob", entry.Bidder)

	_, ok = table.Held(1)
	assert.False(t, ok)

	_, ok = table.Release(1)
	assert.False(t, ok)
}

func TestRevenueAccounting(t *testing.T) {
	table := NewTable()

	table.AddRevenue(1_000)
	table.AddRevenue(500)
	assert.Equal(t, uint64(1_500), table.Revenue())

	err := table.WithdrawRevenue(2_000)
	assert.ErrorIs(t, err, shared.ErrInsufficientProtocolBalance)
	assert.Equal(t, uint64(1_500), table.Revenue())

	require.NoError(t, table.WithdrawRevenue(1_500))
	assert.Zero(t, table.Revenue())
}
