package shared

import "errors"

// Domain-specific errors
var (
	// Auction lifecycle errors
	ErrAuctionNotFound      = errors.New("auction not found")
	ErrAuctionNotActive     = errors.New("auction is not active")
	ErrAuctionAlreadyActive = errors.New("token already has an active auction")
	ErrAuctionExpired       = errors.New("auction has expired")
	ErrAuctionNotExpired    = errors.New("auction has not expired yet")

	// Creation errors
	ErrCollectionNotWhitelisted = errors.New("collection is not whitelisted")
	ErrDurationOutOfRange       = errors.New("duration outside the allowed range")
	ErrReserveBelowStarting     = errors.New("reserve price below starting price")
	ErrNotTokenOwner            = errors.New("caller does not own the token")
	ErrInvalidStartingPrice     = errors.New("starting price must be greater than 0")

	// Bid errors
	ErrBidTooLow = errors.New("bid below the minimum acceptable amount")
	ErrSelfBid   = errors.New("seller cannot bid on their own auction")

	// Authorization errors
	ErrNotSeller        = errors.New("caller is not the auction seller")
	ErrNotContractOwner = errors.New("caller is not the contract owner")

	// Cancel errors
	ErrBidsAlreadyPlaced = errors.New("auction already has bids")

	// Funds errors
	ErrInsufficientFee             = errors.New("attached payment below the required fee")
	ErrAssetTransferFailed         = errors.New("asset transfer failed")
	ErrPayoutFailed                = errors.New("payout failed")
	ErrRefundFailed                = errors.New("refund to previous bidder failed")
	ErrInsufficientProtocolBalance = errors.New("insufficient protocol balance")

	// Token registry errors
	ErrTokenNotFound = errors.New("token not found in registry")

	// Database errors
	ErrDatabaseConnection = errors.New("database connection failed")
	ErrDatabaseQuery      = errors.New("database query failed")

	// Gateway message validation errors
	ErrMessageTypeRequired = errors.New("message type is required")
	ErrTokenIDRequired     = errors.New("token_id is required")
	ErrInvalidAmount       = errors.New("valid amount is required")
	ErrUnknownMessageType  = errors.New("unknown message type")
	ErrUserRequired        = errors.New("user is required")

	// Broadcasting errors
	ErrBroadcastFailed            = errors.New("broadcast failed")
	ErrClientEventChannelNotFound = errors.New("client event channel not found")
)

// ErrorKind groups sentinel errors into the families callers branch on.
type ErrorKind string

const (
	KindAuthorization ErrorKind = "authorization"
	KindStateConflict ErrorKind = "state_conflict"
	KindValidation    ErrorKind = "validation"
	KindFunds         ErrorKind = "funds"
	KindUnknown       ErrorKind = "unknown"
)

// KindOf classifies a ledger error. Adapters use the kind to pick a
// transport-level status without matching individual sentinels.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrNotSeller),
		errors.Is(err, ErrNotContractOwner),
		errors.Is(err, ErrNotTokenOwner),
		errors.Is(err, ErrSelfBid),
		errors.Is(err, ErrCollectionNotWhitelisted):
		return KindAuthorization
	case errors.Is(err, ErrAuctionNotFound),
		errors.Is(err, ErrAuctionNotActive),
		errors.Is(err, ErrAuctionAlreadyActive),
		errors.Is(err, ErrAuctionExpired),
		errors.Is(err, ErrAuctionNotExpired),
		errors.Is(err, ErrBidsAlreadyPlaced):
		return KindStateConflict
	case errors.Is(err, ErrDurationOutOfRange),
		errors.Is(err, ErrReserveBelowStarting),
		errors.Is(err, ErrInvalidStartingPrice),
		errors.Is(err, ErrBidTooLow):
		return KindValidation
	case errors.Is(err, ErrInsufficientFee),
		errors.Is(err, ErrAssetTransferFailed),
		errors.Is(err, ErrPayoutFailed),
		errors.Is(err, ErrRefundFailed),
		errors.Is(err, ErrInsufficientProtocolBalance):
		return KindFunds
	default:
		return KindUnknown
	}
}
