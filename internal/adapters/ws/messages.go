package ws

import (
	"encoding/json"
	"fmt"
	"time"

	"nft-auction-ledger/internal/domain/auction"
	"nft-auction-ledger/internal/domain/shared"
)

type MessageType string

const (
	// Client to Server message types
	MessageTypeSubscribe              MessageType = "subscribe"
	MessageTypeUnsubscribe            MessageType = "unsubscribe"
	MessageTypeCreateAuction          MessageType = "create_auction"
	MessageTypePlaceBid               MessageType = "place_bid"
	MessageTypeCancelAuction          MessageType = "cancel_auction"
	MessageTypeEndAuction             MessageType = "end_auction"
	MessageTypeFinalizeExpired        MessageType = "finalize_expired"
	MessageTypeSweepExpired           MessageType = "sweep_expired"
	MessageTypeUpdateParameters       MessageType = "update_parameters"
	MessageTypeGetAuction             MessageType = "get_auction"
	MessageTypeGetUserAuctions        MessageType = "get_user_auctions"
	MessageTypeListActiveAuctions     MessageType = "list_active_auctions"
	MessageTypeGetUserExpiredAuctions MessageType = "get_user_expired_auctions"
	MessageTypeWhitelistCollection    MessageType = "whitelist_collection"
	MessageTypeUpdateCreationFee      MessageType = "update_creation_fee"
	MessageTypeUpdateBidFee           MessageType = "update_bid_fee"
	MessageTypeUpdateFinalizePct      MessageType = "update_finalize_percentage"
	MessageTypeEmergencyWithdraw      MessageType = "emergency_withdraw"
	MessageTypePing                   MessageType = "ping"

	// Server to Client message types
	MessageTypeAuctionCreated   MessageType = "auction_created"
	MessageTypeBidPlaced        MessageType = "bid_placed"
	MessageTypeAuctionCancelled MessageType = "auction_cancelled"
	MessageTypeAuctionFinalized MessageType = "auction_finalized"
	MessageTypeAuctionUpdate    MessageType = "auction_update"
	MessageTypeError            MessageType = "error"
	MessageTypePong             MessageType = "pong"
)

type ClientMessage struct {
	Type      MessageType            `json:"type"`
	TokenID   *uint64                `json:"token_id,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp int64                  `json:"timestamp"`
}

// ServerMessage represents a message sent from server to client
type ServerMessage struct {
	Type      MessageType            `json:"type"`
	TokenID   *uint64                `json:"token_id,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Error     *string                `json:"error,omitempty"`
	ErrorKind *string                `json:"error_kind,omitempty"`
	Timestamp int64                  `json:"timestamp"`
}

func NewServerMessage(msgType MessageType) *ServerMessage {
	return &ServerMessage{
		Type:      msgType,
		Data:      make(map[string]interface{}),
		Timestamp: time.Now().Unix(),
	}
}

// NewErrorMessage builds an error response carrying the error kind so
// clients can branch without string matching.
func NewErrorMessage(err error, tokenID *uint64) *ServerMessage {
	text := err.Error()
	kind := string(shared.KindOf(err))
	return &ServerMessage{
		Type:      MessageTypeError,
		TokenID:   tokenID,
		Error:     &text,
		ErrorKind: &kind,
		Timestamp: time.Now().Unix(),
	}
}

// AuctionPayload flattens an auction record into a message data map.
func AuctionPayload(record *auction.Auction) map[string]interface{} {
	return map[string]interface{}{
		"token_id":       record.TokenID,
		"collection":     record.Collection,
		"seller":         record.Seller,
		"starting_price": record.StartingPrice,
		"reserve_price":  record.ReservePrice,
		"highest_bid":    record.HighestBid,
		"highest_bidder": record.HighestBidder,
		"status":         string(record.Status),
		"start_time":     record.StartTime.Format(time.RFC3339),
		"end_time":       record.EndTime().Format(time.RFC3339),
	}
}

// ParseClientMessage parses a JSON message from client
func ParseClientMessage(data []byte) (*ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse client message: %w", err)
	}

	if msg.Type == "" {
		return nil, shared.ErrMessageTypeRequired
	}

	return &msg, nil
}

func (m *ClientMessage) validateTokenID() error {
	if m.TokenID == nil {
		return shared.ErrTokenIDRequired
	}
	return nil
}

func (m *ClientMessage) validateAmount(key string) error {
	amount, ok := m.Data[key].(float64)
	if !ok || amount <= 0 {
		return shared.ErrInvalidAmount
	}
	return nil
}

// Validate validates a client message
func (m *ClientMessage) Validate() error {
	switch m.Type {
	case MessageTypeSubscribe, MessageTypeUnsubscribe,
		MessageTypeCancelAuction, MessageTypeEndAuction,
		MessageTypeFinalizeExpired, MessageTypeGetAuction:
		return m.validateTokenID()

	case MessageTypeCreateAuction:
		if err := m.validateTokenID(); err != nil {
			return err
		}
		if err := m.validateAmount("starting_price"); err != nil {
			return err
		}
		if err := m.validateAmount("duration_secs"); err != nil {
			return err
		}
		return m.validateAmount("payment")

	case MessageTypePlaceBid:
		if err := m.validateTokenID(); err != nil {
			return err
		}
		return m.validateAmount("payment")

	case MessageTypeUpdateParameters:
		if err := m.validateTokenID(); err != nil {
			return err
		}
		return m.validateAmount("new_duration_secs")

	case MessageTypeGetUserAuctions, MessageTypeGetUserExpiredAuctions:
		if user, ok := m.Data["user"].(string); !ok || user == "" {
			return shared.ErrUserRequired
		}
		return nil

	case MessageTypeWhitelistCollection:
		if collection, ok := m.Data["collection"].(string); !ok || collection == "" {
			return shared.ErrUserRequired
		}
		return nil

	case MessageTypeUpdateCreationFee, MessageTypeUpdateBidFee, MessageTypeUpdateFinalizePct:
		if _, ok := m.Data["value"].(float64); !ok {
			return shared.ErrInvalidAmount
		}
		return nil

	case MessageTypeEmergencyWithdraw:
		if recipient, ok := m.Data["recipient"].(string); !ok || recipient == "" {
			return shared.ErrUserRequired
		}
		return nil

	case MessageTypeListActiveAuctions, MessageTypeSweepExpired, MessageTypePing:
		return nil

	default:
		return shared.ErrUnknownMessageType
	}
}

// Uint64 reads a numeric data field; JSON numbers arrive as float64.
func (m *ClientMessage) Uint64(key string) uint64 {
	value, ok := m.Data[key].(float64)
	if !ok || value < 0 {
		return 0
	}
	return uint64(value)
}

// String reads a string data field.
func (m *ClientMessage) String(key string) string {
	value, _ := m.Data[key].(string)
	return value
}

// Bool reads a boolean data field.
func (m *ClientMessage) Bool(key string) bool {
	value, _ := m.Data[key].(bool)
	return value
}
