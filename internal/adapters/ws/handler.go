package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"nft-auction-ledger/internal/auth"
	"nft-auction-ledger/internal/domain/auction"
	"nft-auction-ledger/internal/domain/shared"
	"nft-auction-ledger/internal/ports/inbound"
	"nft-auction-ledger/internal/ports/outbound"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// WsHandler manages WebSocket connections and message routing
type WsHandler struct {
	clients       map[string]*WsClient // clientID -> Client
	clientsMu     sync.RWMutex
	eventChannels map[string]chan outbound.Event // clientID -> local event channel
	channelsMu    sync.RWMutex
	upgrader      websocket.Upgrader
	ledger        inbound.AuctionLedger
	queries       inbound.AuctionQueries
	admin         inbound.AdminService
	finalizer     inbound.ExpiryFinalizer
	broadcaster   outbound.Broadcaster
	authService   *auth.AuthService
	logger        zerolog.Logger
}

type WsHandlerParams struct {
	Upgrader    websocket.Upgrader
	Ledger      inbound.AuctionLedger
	Queries     inbound.AuctionQueries
	Admin       inbound.AdminService
	Finalizer   inbound.ExpiryFinalizer
	Broadcaster outbound.Broadcaster
	AuthService *auth.AuthService
	Logger      zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(params WsHandlerParams) *WsHandler {
	return &WsHandler{
		clients:       make(map[string]*WsClient),
		eventChannels: make(map[string]chan outbound.Event),
		upgrader:      params.Upgrader,
		ledger:        params.Ledger,
		queries:       params.Queries,
		admin:         params.Admin,
		finalizer:     params.Finalizer,
		broadcaster:   params.Broadcaster,
		authService:   params.AuthService,
		logger:        params.Logger.With().Str("component", "ws_handler").Logger(),
	}
}

// HandleWebSocket handles WebSocket connection upgrades. The caller
// principal comes from the bearer token presented at upgrade time.
func (handler *WsHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		http.Error(w, "token is required", http.StatusUnauthorized)
		return
	}

	address, err := handler.authService.AddressFromToken(tokenString)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := handler.upgrader.Upgrade(w, r, nil)
	if err != nil {
		handler.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	client := NewClient(WsClientParams{
		Address: address,
		Conn:    conn,
		Handler: handler,
		Logger:  handler.logger,
	})

	handler.registerClient(client)
	handler.createEventChannel(client.id)

	client.Start()
	go handler.listenForClientEvents(client)

	go func() {
		<-client.ctx.Done()
		handler.unregisterClient(client)
	}()

	handler.logger.Info().Str("client_id", client.id).Str("address", client.address).Msg("WebSocket client connected")
}

// createEventChannel creates a local event channel for a client
func (handler *WsHandler) createEventChannel(clientID string) chan outbound.Event {
	handler.channelsMu.Lock()
	defer handler.channelsMu.Unlock()

	if eventChan, exists := handler.eventChannels[clientID]; exists {
		return eventChan
	}

	eventChan := make(chan outbound.Event, 100)
	handler.eventChannels[clientID] = eventChan
	return eventChan
}

func (handler *WsHandler) getEventChannel(clientID string) chan outbound.Event {
	handler.channelsMu.RLock()
	defer handler.channelsMu.RUnlock()

	return handler.eventChannels[clientID]
}

func (handler *WsHandler) removeEventChannel(clientID string) {
	handler.channelsMu.Lock()
	defer handler.channelsMu.Unlock()

	if eventChan, exists := handler.eventChannels[clientID]; exists {
		close(eventChan)
		delete(handler.eventChannels, clientID)
	}
}

func (handler *WsHandler) registerClient(client *WsClient) {
	handler.clientsMu.Lock()
	defer handler.clientsMu.Unlock()
	handler.clients[client.id] = client
}

func (handler *WsHandler) unregisterClient(client *WsClient) {
	handler.clientsMu.Lock()
	defer handler.clientsMu.Unlock()

	delete(handler.clients, client.id)
	client.Stop()
	handler.removeEventChannel(client.id)

	handler.logger.Info().Str("client_id", client.id).Str("address", client.address).Int("total_clients", len(handler.clients)).Msg("WebSocket client disconnected")
}

// listenForClientEvents forwards broadcast events to the client socket
func (handler *WsHandler) listenForClientEvents(client *WsClient) {
	eventChan := handler.getEventChannel(client.id)
	if eventChan == nil {
		handler.logger.Error().Str("client_id", client.id).Msg("No event channel found for client")
		return
	}

	for {
		select {
		case event := <-eventChan:
			wsMessage := handler.convertEventToMessage(event)
			if err := client.Send(wsMessage); err != nil {
				handler.logger.Error().Err(err).Str("client_id", client.id).Msg("Failed to send event to WebSocket client")
			}

		case <-client.ctx.Done():
			return
		}
	}
}

func (handler *WsHandler) convertEventToMessage(event outbound.Event) *ServerMessage {
	var msgType MessageType
	switch event.Type {
	case outbound.EventTypeAuctionCreated:
		msgType = MessageTypeAuctionCreated
	case outbound.EventTypeBidPlaced:
		msgType = MessageTypeBidPlaced
	case outbound.EventTypeAuctionCancelled:
		msgType = MessageTypeAuctionCancelled
	case outbound.EventTypeAuctionFinalized:
		msgType = MessageTypeAuctionFinalized
	default:
		msgType = MessageTypeAuctionUpdate
	}

	tokenID := event.TokenID
	return &ServerMessage{
		Type:      msgType,
		TokenID:   &tokenID,
		Data:      event.Data,
		Timestamp: event.Timestamp,
	}
}

func (handler *WsHandler) HandleClientMessage(client *WsClient, msg *ClientMessage) error {
	switch msg.Type {
	case MessageTypeSubscribe:
		return handler.handleSubscribe(client, msg)

	case MessageTypeUnsubscribe:
		return handler.handleUnsubscribe(client, msg)

	case MessageTypeCreateAuction:
		return handler.handleCreateAuction(client, msg)

	case MessageTypePlaceBid:
		return handler.handlePlaceBid(client, msg)

	case MessageTypeCancelAuction:
		return handler.handleCancelAuction(client, msg)

	case MessageTypeEndAuction:
		return handler.handleEndAuction(client, msg)

	case MessageTypeFinalizeExpired:
		return handler.handleFinalizeExpired(client, msg)

	case MessageTypeSweepExpired:
		return handler.handleSweepExpired(client)

	case MessageTypeUpdateParameters:
		return handler.handleUpdateParameters(client, msg)

	case MessageTypeGetAuction:
		return handler.handleGetAuction(client, msg)

	case MessageTypeGetUserAuctions:
		return handler.handleGetUserAuctions(client, msg)

	case MessageTypeListActiveAuctions:
		return handler.handleListActiveAuctions(client)

	case MessageTypeGetUserExpiredAuctions:
		return handler.handleGetUserExpiredAuctions(client, msg)

	case MessageTypeWhitelistCollection:
		return handler.handleWhitelistCollection(client, msg)

	case MessageTypeUpdateCreationFee, MessageTypeUpdateBidFee, MessageTypeUpdateFinalizePct:
		return handler.handleFeeUpdate(client, msg)

	case MessageTypeEmergencyWithdraw:
		return handler.handleEmergencyWithdraw(client, msg)

	default:
		handler.logger.Warn().Str("client_id", client.id).Str("message_type", string(msg.Type)).Msg("Unknown message type from client")
		return nil
	}
}

func (handler *WsHandler) handleSubscribe(client *WsClient, msg *ClientMessage) error {
	ctx := context.Background()

	eventChan := handler.getEventChannel(client.id)
	if eventChan == nil {
		handler.logger.Error().Str("client_id", client.id).Msg("No event channel found for client")
		return client.Send(NewErrorMessage(shared.ErrClientEventChannelNotFound, msg.TokenID))
	}

	if err := handler.broadcaster.Subscribe(ctx, *msg.TokenID, client.id, eventChan); err != nil {
		handler.logger.Error().Err(err).Str("client_id", client.id).Uint64("token_id", *msg.TokenID).Msg("Failed to subscribe to auction")
		return client.Send(NewErrorMessage(err, msg.TokenID))
	}

	response := NewServerMessage(MessageTypeAuctionUpdate)
	response.TokenID = msg.TokenID
	response.Data["status"] = "subscribed"
	return client.Send(response)
}

func (handler *WsHandler) handleUnsubscribe(client *WsClient, msg *ClientMessage) error {
	if err := handler.broadcaster.Unsubscribe(context.Background(), *msg.TokenID, client.id); err != nil {
		return client.Send(NewErrorMessage(err, msg.TokenID))
	}

	response := NewServerMessage(MessageTypeAuctionUpdate)
	response.TokenID = msg.TokenID
	response.Data["status"] = "unsubscribed"
	return client.Send(response)
}

func (handler *WsHandler) handleCreateAuction(client *WsClient, msg *ClientMessage) error {
	req := inbound.CreateAuctionRequest{
		Caller:        client.address,
		TokenID:       *msg.TokenID,
		StartingPrice: msg.Uint64("starting_price"),
		ReservePrice:  msg.Uint64("reserve_price"),
		Duration:      time.Duration(msg.Uint64("duration_secs")) * time.Second,
		Payment:       msg.Uint64("payment"),
	}

	record, err := handler.ledger.CreateAuction(context.Background(), req)
	if err != nil {
		return client.Send(NewErrorMessage(err, msg.TokenID))
	}

	response := NewServerMessage(MessageTypeAuctionCreated)
	response.TokenID = msg.TokenID
	response.Data = AuctionPayload(record)
	return client.Send(response)
}

func (handler *WsHandler) handlePlaceBid(client *WsClient, msg *ClientMessage) error {
	req := inbound.PlaceBidRequest{
		Caller:  client.address,
		TokenID: *msg.TokenID,
		Payment: msg.Uint64("payment"),
	}

	result, err := handler.ledger.PlaceBid(context.Background(), req)
	if err != nil {
		return client.Send(NewErrorMessage(err, msg.TokenID))
	}

	response := NewServerMessage(MessageTypeBidPlaced)
	response.TokenID = msg.TokenID
	response.Data["bidder"] = result.Bidder
	response.Data["amount"] = result.Amount
	response.Data["refunded"] = result.Refunded()
	response.Data["refunded_bidder"] = result.RefundedBidder
	response.Data["refunded_amount"] = result.RefundedAmount
	return client.Send(response)
}

func (handler *WsHandler) handleCancelAuction(client *WsClient, msg *ClientMessage) error {
	if err := handler.ledger.CancelAuction(context.Background(), client.address, *msg.TokenID); err != nil {
		return client.Send(NewErrorMessage(err, msg.TokenID))
	}

	response := NewServerMessage(MessageTypeAuctionCancelled)
	response.TokenID = msg.TokenID
	return client.Send(response)
}

func (handler *WsHandler) handleEndAuction(client *WsClient, msg *ClientMessage) error {
	result, err := handler.ledger.EndAuction(context.Background(), client.address, *msg.TokenID)
	if err != nil {
		return client.Send(NewErrorMessage(err, msg.TokenID))
	}
	return client.Send(settlementResponse(msg.TokenID, result))
}

func (handler *WsHandler) handleFinalizeExpired(client *WsClient, msg *ClientMessage) error {
	result, err := handler.finalizer.FinalizeExpired(context.Background(), client.address, *msg.TokenID)
	if err != nil {
		return client.Send(NewErrorMessage(err, msg.TokenID))
	}
	return client.Send(settlementResponse(msg.TokenID, result))
}

func (handler *WsHandler) handleSweepExpired(client *WsClient) error {
	results, err := handler.finalizer.SweepDue(context.Background(), client.address)
	if err != nil {
		return client.Send(NewErrorMessage(err, nil))
	}

	response := NewServerMessage(MessageTypeAuctionUpdate)
	response.Data["finalized_count"] = len(results)
	return client.Send(response)
}

func (handler *WsHandler) handleUpdateParameters(client *WsClient, msg *ClientMessage) error {
	req := inbound.UpdateParametersRequest{
		Caller:          client.address,
		TokenID:         *msg.TokenID,
		NewReservePrice: msg.Uint64("new_reserve_price"),
		NewDuration:     time.Duration(msg.Uint64("new_duration_secs")) * time.Second,
	}

	if err := handler.ledger.UpdateAuctionParameters(context.Background(), req); err != nil {
		return client.Send(NewErrorMessage(err, msg.TokenID))
	}

	response := NewServerMessage(MessageTypeAuctionUpdate)
	response.TokenID = msg.TokenID
	response.Data["status"] = "parameters_updated"
	return client.Send(response)
}

func (handler *WsHandler) handleGetAuction(client *WsClient, msg *ClientMessage) error {
	record, err := handler.queries.GetAuction(context.Background(), *msg.TokenID)
	if err != nil {
		return client.Send(NewErrorMessage(err, msg.TokenID))
	}

	response := NewServerMessage(MessageTypeAuctionUpdate)
	response.TokenID = msg.TokenID
	response.Data = AuctionPayload(record)
	return client.Send(response)
}

func (handler *WsHandler) handleGetUserAuctions(client *WsClient, msg *ClientMessage) error {
	records, err := handler.queries.GetUserAuctions(context.Background(), msg.String("user"))
	if err != nil {
		return client.Send(NewErrorMessage(err, nil))
	}
	return client.Send(auctionListResponse(records))
}

func (handler *WsHandler) handleListActiveAuctions(client *WsClient) error {
	records, err := handler.queries.GetAllActiveAuctions(context.Background())
	if err != nil {
		return client.Send(NewErrorMessage(err, nil))
	}
	return client.Send(auctionListResponse(records))
}

func (handler *WsHandler) handleGetUserExpiredAuctions(client *WsClient, msg *ClientMessage) error {
	records, err := handler.queries.GetUserExpiredAuctions(context.Background(), msg.String("user"))
	if err != nil {
		return client.Send(NewErrorMessage(err, nil))
	}
	return client.Send(auctionListResponse(records))
}

func (handler *WsHandler) handleWhitelistCollection(client *WsClient, msg *ClientMessage) error {
	err := handler.admin.WhitelistCollection(context.Background(), client.address, msg.String("collection"), msg.Bool("status"))
	if err != nil {
		return client.Send(NewErrorMessage(err, nil))
	}

	response := NewServerMessage(MessageTypeAuctionUpdate)
	response.Data["collection"] = msg.String("collection")
	response.Data["whitelisted"] = msg.Bool("status")
	return client.Send(response)
}

func (handler *WsHandler) handleFeeUpdate(client *WsClient, msg *ClientMessage) error {
	ctx := context.Background()
	value := msg.Uint64("value")

	var err error
	switch msg.Type {
	case MessageTypeUpdateCreationFee:
		err = handler.admin.UpdateCreationFee(ctx, client.address, value)
	case MessageTypeUpdateBidFee:
		err = handler.admin.UpdateBidFee(ctx, client.address, value)
	case MessageTypeUpdateFinalizePct:
		err = handler.admin.UpdateFinalizePercentage(ctx, client.address, value)
	}
	if err != nil {
		return client.Send(NewErrorMessage(err, nil))
	}

	response := NewServerMessage(MessageTypeAuctionUpdate)
	response.Data["updated"] = string(msg.Type)
	response.Data["value"] = value
	return client.Send(response)
}

func (handler *WsHandler) handleEmergencyWithdraw(client *WsClient, msg *ClientMessage) error {
	ctx := context.Background()

	var err error
	if msg.TokenID != nil {
		err = handler.admin.EmergencyWithdrawNFT(ctx, client.address, *msg.TokenID, msg.String("recipient"))
	} else {
		err = handler.admin.EmergencyWithdraw(ctx, client.address, msg.String("recipient"), msg.Uint64("amount"))
	}
	if err != nil {
		return client.Send(NewErrorMessage(err, msg.TokenID))
	}

	response := NewServerMessage(MessageTypeAuctionUpdate)
	response.TokenID = msg.TokenID
	response.Data["status"] = "withdrawn"
	return client.Send(response)
}

// GetConnectedClients returns the number of connected clients
func (handler *WsHandler) GetConnectedClients() int {
	handler.clientsMu.RLock()
	defer handler.clientsMu.RUnlock()
	return len(handler.clients)
}

func settlementResponse(tokenID *uint64, result *shared.SettlementResult) *ServerMessage {
	response := NewServerMessage(MessageTypeAuctionFinalized)
	response.TokenID = tokenID
	response.Data["winner"] = result.Winner
	response.Data["final_bid"] = result.FinalBid
	response.Data["seller_payout"] = result.SellerPayout
	response.Data["protocol_cut"] = result.ProtocolCut
	response.Data["had_winner"] = result.HasWinner()
	return response
}

func auctionListResponse(records []*auction.Auction) *ServerMessage {
	response := NewServerMessage(MessageTypeAuctionUpdate)

	payloads := make([]map[string]interface{}, 0, len(records))
	for _, record := range records {
		payloads = append(payloads, AuctionPayload(record))
	}
	response.Data["auctions"] = payloads
	response.Data["count"] = len(records)
	return response
}
