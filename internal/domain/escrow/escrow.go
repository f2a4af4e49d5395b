package escrow

import (
	"sync"

	"nft-auction-ledger/internal/domain/shared"
)

// Entry is the funds the ledger holds for the current highest bidder of
// one auction.
type Entry struct {
	TokenID uint64 `json:"token_id"`
	Bidder  string `json:"bidder"`
	Amount  uint64 `json:"amount"`
}

// Table tracks escrowed bid funds per token plus accumulated protocol
// revenue (creation fees, bid fees and the finalize cut).
type Table struct {
	held    map[uint64]Entry
	revenue uint64
	mu      sync.RWMutex
}

// NewTable creates an empty escrow table
func NewTable() *Table {
	return &Table{
		held: make(map[uint64]Entry),
	}
}

// Hold records funds held on behalf of a bidder, replacing any previous
// entry for the token. The displaced entry must already be refunded.
func (t *Table) Hold(tokenID uint64, bidder string, amount uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.held[tokenID] = Entry{TokenID: tokenID, Bidder: bidder, Amount: amount}
}

// Release removes and returns the held entry for a token. The second
// return value is false when nothing is held.
func (t *Table) Release(tokenID uint64) (Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.held[tokenID]
	if ok {
		delete(t.held, tokenID)
	}
	return entry, ok
}

// Held returns the entry currently held for a token without removing it.
func (t *Table) Held(tokenID uint64) (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entry, ok := t.held[tokenID]
	return entry, ok
}

// AddRevenue credits non-refundable protocol revenue.
func (t *Table) AddRevenue(amount uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.revenue += amount
}

// Revenue returns the accumulated protocol revenue.
func (t *Table) Revenue() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.revenue
}

// WithdrawRevenue debits protocol revenue, failing if the balance is
// insufficient.
func (t *Table) WithdrawRevenue(amount uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if amount > t.revenue {
		return shared.ErrInsufficientProtocolBalance
	}
	t.revenue -= amount
	return nil
}
