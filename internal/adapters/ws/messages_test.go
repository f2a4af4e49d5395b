package ws

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nft-auction-ledger/internal/domain/auction"
	"nft-auction-ledger/internal/domain/shared"
)

func TestParseClientMessage(t *testing.T) {
	data := []byte(`{"type":"place_bid","token_id":7,"data":{"payment":1100000000}}`)

	msg, err := ParseClientMessage(data)
	require.NoError(t, err)
	assert.Equal(t, MessageTypePlaceBid, msg.Type)
	require.NotNil(t, msg.TokenID)
	assert.Equal(t, uint64(7), *msg.TokenID)
	assert.Equal(t, uint64(1_100_000_000), msg.Uint64("payment"))
}

func TestParseClientMessageRejectsMalformedJSON(t *testing.T) {
	_, err := ParseClientMessage([]byte(`{"type":`))
	assert.Error(t, err)
}

func TestParseClientMessageRequiresType(t *testing.T) {
	_, err := ParseClientMessage([]byte(`{"token_id":7}`))
	assert.ErrorIs(t, err, shared.ErrMessageTypeRequired)
}

func TestValidate(t *testing.T) {
	tokenID := uint64(7)

	tests := []struct {
		name    string
		msg     ClientMessage
		wantErr error
	}{
		{
			name: "subscribe without token id",
			msg:  ClientMessage{Type: MessageTypeSubscribe},
			wantErr: shared.ErrTokenIDRequired,
		},
		{
			name: "subscribe with token id",
			msg:  ClientMessage{Type: MessageTypeSubscribe, TokenID: &tokenID},
		},
		{
			name: "create auction missing starting price",
			msg: ClientMessage{
				Type:    MessageTypeCreateAuction,
				TokenID: &tokenID,
				Data:    map[string]interface{}{"duration_secs": 3600.0, "payment": 1000.0},
			},
			wantErr: shared.ErrInvalidAmount,
		},
		{
			name: "create auction complete",
			msg: ClientMessage{
				Type:    MessageTypeCreateAuction,
				TokenID: &tokenID,
				Data: map[string]interface{}{
					"starting_price": 1000.0,
					"duration_secs":  3600.0,
					"payment":        1000.0,
				},
			},
		},
		{
			name: "place bid with non-positive payment",
			msg: ClientMessage{
				Type:    MessageTypePlaceBid,
				TokenID: &tokenID,
				Data:    map[string]interface{}{"payment": 0.0},
			},
			wantErr: shared.ErrInvalidAmount,
		},
		{
			name: "get user auctions without user",
			msg:  ClientMessage{Type: MessageTypeGetUserAuctions, Data: map[string]interface{}{}},
			wantErr: shared.ErrUserRequired,
		},
		{
			name: "update creation fee without value",
			msg:  ClientMessage{Type: MessageTypeUpdateCreationFee, Data: map[string]interface{}{}},
			wantErr: shared.ErrInvalidAmount,
		},
		{
			name: "emergency withdraw without recipient",
			msg:  ClientMessage{Type: MessageTypeEmergencyWithdraw, Data: map[string]interface{}{}},
			wantErr: shared.ErrUserRequired,
		},
		{
			name: "list active needs nothing",
			msg:  ClientMessage{Type: MessageTypeListActiveAuctions},
		},
		{
			name: "ping needs nothing",
			msg:  ClientMessage{Type: MessageTypePing},
		},
		{
			name:    "unknown type",
			msg:     ClientMessage{Type: "frobnicate"},
			wantErr: shared.ErrUnknownMessageType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewErrorMessageCarriesKind(t *testing.T) {
	tokenID := uint64(7)
	msg := NewErrorMessage(shared.ErrBidTooLow, &tokenID)

	assert.Equal(t, MessageTypeError, msg.Type)
	require.NotNil(t, msg.Error)
	assert.Equal(t, shared.ErrBidTooLow.Error(), *msg.Error)
	require.NotNil(t, msg.ErrorKind)
	assert.Equal(t, string(shared.KindOf(shared.ErrBidTooLow)), *msg.ErrorKind)
}

func TestAuctionPayload(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	record := &auction.Auction{
		TokenID:       7,
		Collection:    "cool-cats",
		Seller:        "alice",
		StartingPrice: 1_000,
		ReservePrice:  2_000,
		Duration:      24 * time.Hour,
		StartTime:     start,
		HighestBid:    1_500,
		HighestBidder: "bob",
		Status:        auction.StatusActive,
	}

	payload := AuctionPayload(record)
	assert.Equal(t, uint64(7), payload["token_id"])
	assert.Equal(t, "alice", payload["seller"])
	assert.Equal(t, "active", payload["status"])
	assert.Equal(t, start.Add(24*time.Hour).Format(time.RFC3339), payload["end_time"])
}

func TestDataAccessors(t *testing.T) {
	msg := &ClientMessage{
		Data: map[string]interface{}{
			"payment":   1000.0,
			"user":      "alice",
			"status":    true,
			"negative":  -1.0,
			"not_a_num": "x",
		},
	}

	assert.Equal(t, uint64(1000), msg.Uint64("payment"))
	assert.Zero(t, msg.Uint64("negative"))
	assert.Zero(t, msg.Uint64("not_a_num"))
	assert.Zero(t, msg.Uint64("missing"))
	assert.Equal(t, "alice", msg.String("user"))
	assert.True(t, msg.Bool("status"))
}
