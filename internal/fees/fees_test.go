package fees

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newCalculator() *Calculator {
	return NewCalculator(CalculatorParams{
		CreationFee: 1_000_000,
		BidFee:      1_000_000,
		FinalizeBps: 250,
	})
}

func TestSplitProceeds(t *testing.T) {
	c := newCalculator()

	tests := []struct {
		name         string
		finalBid     uint64
		wantSeller   uint64
		wantProtocol uint64
	}{
		{
			name:         "round amount",
			finalBid:     1_100_000_000,
			wantSeller:   1_072_500_000,
			wantProtocol: 27_500_000,
		},
		{
			name:         "floor division favours the protocol",
			finalBid:     39, // 39 * 250 / 10000 = 0.975, floors to 0
			wantSeller:   39,
			wantProtocol: 0,
		},
		{
			name:         "one above the floor boundary",
			finalBid:     40,
			wantSeller:   39,
			wantProtocol: 1,
		},
		{
			name:         "zero bid",
			finalBid:     0,
			wantSeller:   0,
			wantProtocol: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seller, protocol := c.SplitProceeds(tt.finalBid)
			assert.Equal(t, tt.wantSeller, seller)
			assert.Equal(t, tt.wantProtocol, protocol)
			assert.Equal(t, tt.finalBid, seller+protocol)
		})
	}
}

func TestMinBidIncrement(t *testing.T) {
	c := newCalculator()

	// First bid: the increment is the full starting price.
	assert.Equal(t, uint64(1_000_000_000), c.MinBidIncrement(0, 1_000_000_000))

	// Raises: 2.5% of the current highest.
	assert.Equal(t, uint64(25_000_000), c.MinBidIncrement(1_000_000_000, 1_000_000_000))

	// Tiny highest bids can floor the increment to zero.
	assert.Equal(t, uint64(0), c.MinBidIncrement(39, 10))
}

func TestMinAcceptableBid(t *testing.T) {
	c := newCalculator()

	// No bids yet: the starting price itself is acceptable.
	assert.Equal(t, uint64(1_000_000_000), c.MinAcceptableBid(0, 1_000_000_000))

	// With a standing bid the raise must clear the increment.
	assert.Equal(t, uint64(1_025_000_000), c.MinAcceptableBid(1_000_000_000, 1_000_000_000))

	// Never below the starting price.
	assert.Equal(t, uint64(500), c.MinAcceptableBid(10, 500))
}

func TestSettersTakeEffect(t *testing.T) {
	c := newCalculator()

	c.SetCreationFee(42)
	c.SetBidFee(43)
	c.SetFinalizeBps(500)

	assert.Equal(t, uint64(42), c.CreationFee())
	assert.Equal(t, uint64(43), c.BidFee())
	assert.Equal(t, uint64(500), c.FinalizeBps())

	seller, protocol := c.SplitProceeds(1_000)
	assert.Equal(t, uint64(950), seller)
	assert.Equal(t, uint64(50), protocol)
}
