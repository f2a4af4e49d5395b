package fees

import "sync"

// basis points denominator, 250 bps = 2.5%
const bpsDenominator = 10_000

// Calculator computes the protocol's fees from configured basis-point
// parameters. Flat fees and the finalize percentage are owner-tunable at
// runtime; reads and updates are safe for concurrent use.
type Calculator struct {
	creationFee uint64
	bidFee      uint64
	finalizeBps uint64
	mu          sync.RWMutex
}

type CalculatorParams struct {
	CreationFee uint64
	BidFee      uint64
	FinalizeBps uint64
}

// NewCalculator creates a fee calculator from configured parameters
func NewCalculator(params CalculatorParams) *Calculator {
	return &Calculator{
		creationFee: params.CreationFee,
		bidFee:      params.BidFee,
		finalizeBps: params.FinalizeBps,
	}
}

// CreationFee returns the flat fee attached to createAuction calls.
func (c *Calculator) CreationFee() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.creationFee
}

// BidFee returns the flat fee attached to placeBid calls.
func (c *Calculator) BidFee() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bidFee
}

// FinalizeBps returns the protocol's settlement cut in basis points.
func (c *Calculator) FinalizeBps() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.finalizeBps
}

// MinBidIncrement returns the smallest raise over the current highest
// bid. Before the first bid the increment is the full starting price, so
// the first acceptable bid is exactly the listing price.
func (c *Calculator) MinBidIncrement(currentHighest, startingPrice uint64) uint64 {
	if currentHighest == 0 {
		return startingPrice
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return currentHighest * c.finalizeBps / bpsDenominator
}

// MinAcceptableBid returns the net amount (fee excluded) a new bid must
// reach to be accepted.
func (c *Calculator) MinAcceptableBid(currentHighest, startingPrice uint64) uint64 {
	floor := currentHighest + c.MinBidIncrement(currentHighest, startingPrice)
	if floor < startingPrice {
		floor = startingPrice
	}
	return floor
}

// SplitProceeds divides the final bid between seller and protocol.
// Integer floor division: rounding favours the protocol so the cut is
// never under-collected.
func (c *Calculator) SplitProceeds(finalBid uint64) (seller, protocol uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	protocol = finalBid * c.finalizeBps / bpsDenominator
	seller = finalBid - protocol
	return seller, protocol
}

// SetCreationFee updates the flat creation fee.
func (c *Calculator) SetCreationFee(fee uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creationFee = fee
}

// SetBidFee updates the flat bid fee.
func (c *Calculator) SetBidFee(fee uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bidFee = fee
}

// SetFinalizeBps updates the settlement percentage.
func (c *Calculator) SetFinalizeBps(bps uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finalizeBps = bps
}
