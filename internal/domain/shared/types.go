package shared

// SettlementResult describes how an auction left the active state.
type SettlementResult struct {
	TokenID      uint64
	Winner       string
	FinalBid     uint64
	SellerPayout uint64
	ProtocolCut  uint64
}

// HasWinner reports whether the settlement paid out a winning bid.
func (r *SettlementResult) HasWinner() bool {
	return r.Winner != ""
}

// BidResult describes an accepted bid, including the displaced bidder
// that was refunded (empty when the bid was the first one).
type BidResult struct {
	TokenID        uint64
	Bidder         string
	Amount         uint64
	RefundedBidder string
	RefundedAmount uint64
}

// Refunded reports whether a previous bidder was displaced.
func (r *BidResult) Refunded() bool {
	return r.RefundedBidder != ""
}
