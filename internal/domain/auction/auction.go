package auction

import (
	"time"
)

// Status represents the current status of an auction record
type Status string

const (
	StatusActive    Status = "active"
	StatusFinalized Status = "finalized"
	StatusCancelled Status = "cancelled"
)

// Auction is the ledger record for one listed token. At most one active
// record exists per token id; terminal records are kept for history.
// Amounts are integer base units.
type Auction struct {
	TokenID       uint64        `json:"token_id"`
	Collection    string        `json:"collection"`
	Seller        string        `json:"seller"`
	StartingPrice uint64        `json:"starting_price"`
	ReservePrice  uint64        `json:"reserve_price"`
	Duration      time.Duration `json:"duration"`
	StartTime     time.Time     `json:"start_time"`
	HighestBid    uint64        `json:"highest_bid"`
	HighestBidder string        `json:"highest_bidder"`
	Status        Status        `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// IsActive returns true if the auction has not been settled yet
func (a *Auction) IsActive() bool {
	return a.Status == StatusActive
}

// EndTime returns the moment after which the auction can be finalized
// by anyone.
func (a *Auction) EndTime() time.Time {
	return a.StartTime.Add(a.Duration)
}

// IsExpired reports whether the auction's bidding window has closed.
func (a *Auction) IsExpired(now time.Time) bool {
	return !now.Before(a.EndTime())
}

// HasBids reports whether at least one bid was accepted.
func (a *Auction) HasBids() bool {
	return a.HighestBidder != ""
}

// CanBid returns true if a bid can be accepted at the given time
func (a *Auction) CanBid(now time.Time) bool {
	return a.IsActive() && !a.IsExpired(now)
}

// CanCancel returns true while the auction is still cancellable, which
// is only before the first bid lands.
func (a *Auction) CanCancel() bool {
	return a.IsActive() && !a.HasBids()
}

// RecordBid replaces the highest bid. The caller has already refunded
// the displaced bidder.
func (a *Auction) RecordBid(bidder string, amount uint64, now time.Time) {
	a.HighestBid = amount
	a.HighestBidder = bidder
	a.UpdatedAt = now
}

// Finalize marks the auction as settled.
func (a *Auction) Finalize(now time.Time) {
	a.Status = StatusFinalized
	a.UpdatedAt = now
}

// Cancel marks the auction as cancelled.
func (a *Auction) Cancel(now time.Time) {
	a.Status = StatusCancelled
	a.UpdatedAt = now
}
