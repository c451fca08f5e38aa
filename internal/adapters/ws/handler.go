package ws

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"subastas-service/internal/domain/auction"
	"subastas-service/internal/domain/bid"
	"subastas-service/internal/domain/request"
	"subastas-service/internal/domain/shared"
	"subastas-service/internal/format"
	"subastas-service/internal/ports/inbound"
	"subastas-service/internal/ports/outbound"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// WsHandler manages WebSocket connections and message routing. Every
// connection is authenticated at upgrade time; role checks happen per
// message in the application services.
type WsHandler struct {
	clients             map[string]*WsClient // clientID -> Client
	clientsMu           sync.RWMutex
	eventChannels       map[string]chan outbound.Event // clientID -> local event channel
	channelsMu          sync.RWMutex
	upgrader            websocket.Upgrader
	authService         inbound.AuthService
	auctionService      inbound.AuctionService
	bidService          inbound.BidService
	requestService      inbound.RequestService
	notificationService inbound.NotificationService
	broadcaster         outbound.Broadcaster
	logger              zerolog.Logger
}

type WsHandlerParams struct {
	Upgrader            websocket.Upgrader
	AuthService         inbound.AuthService
	AuctionService      inbound.AuctionService
	BidService          inbound.BidService
	RequestService      inbound.RequestService
	NotificationService inbound.NotificationService
	Broadcaster         outbound.Broadcaster
	Logger              zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(params WsHandlerParams) *WsHandler {
	return &WsHandler{
		clients:             make(map[string]*WsClient),
		eventChannels:       make(map[string]chan outbound.Event),
		upgrader:            params.Upgrader,
		authService:         params.AuthService,
		auctionService:      params.AuctionService,
		bidService:          params.BidService,
		requestService:      params.RequestService,
		notificationService: params.NotificationService,
		broadcaster:         params.Broadcaster,
		logger:              params.Logger.With().Str("component", "ws_handler").Logger(),
	}
}

// HandleWebSocket handles WebSocket connection upgrades. The session token
// comes from the token query parameter or the Authorization header, and is
// resolved to a user before the upgrade.
func (handler *WsHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	if token == "" {
		http.Error(w, "token is required", http.StatusUnauthorized)
		return
	}

	user, err := handler.authService.Resolve(r.Context(), token)
	if err != nil {
		http.Error(w, "invalid session token", http.StatusUnauthorized)
		return
	}

	conn, err := handler.upgrader.Upgrade(w, r, nil)
	if err != nil {
		handler.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	client := NewClient(WsClientParams{
		User:    user,
		Conn:    conn,
		Handler: handler,
		Logger:  handler.logger,
	})

	handler.registerClient(client)
	handler.createEventChannel(client.id)

	client.Start()

	go handler.listenForClientEvents(client)

	// Wait for client to disconnect
	go func() {
		<-client.ctx.Done()
		handler.unregisterClient(client)
	}()

	handler.logger.Info().
		Str("client_id", client.id).
		Str("user_id", user.ID.String()).
		Str("role", string(user.Role)).
		Msg("WebSocket client connected")
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

	if _, exists := handler.eventChannels[clientID]; exists {
		// UnsubscribeAll already closed the channel if the broadcaster
		// held it; here we only drop the reference
		delete(handler.eventChannels, clientID)
	}
}

func (handler *WsHandler) registerClient(client *WsClient) {
	handler.clientsMu.Lock()
	defer handler.clientsMu.Unlock()
	handler.clients[client.id] = client
	handler.logger.Debug().Str("client_id", client.id).Int("total_clients", len(handler.clients)).Msg("Client registered")
}

func (handler *WsHandler) unregisterClient(client *WsClient) {
	handler.clientsMu.Lock()
	defer handler.clientsMu.Unlock()

	delete(handler.clients, client.id)

	client.Stop()

	// Release every broadcast subscription before dropping the event
	// channel, otherwise the pubsub connection outlives the socket
	if err := handler.broadcaster.UnsubscribeAll(context.Background(), client.id); err != nil {
		handler.logger.Error().Err(err).Str("client_id", client.id).Msg("Failed to release subscriptions for client")
	}
	handler.removeEventChannel(client.id)

	handler.logger.Info().
		Str("client_id", client.id).
		Str("user_id", client.user.ID.String()).
		Int("total_clients", len(handler.clients)).
		Msg("WebSocket client disconnected")
}

// listenForClientEvents forwards broadcast events to the WebSocket
func (handler *WsHandler) listenForClientEvents(client *WsClient) {
	eventChan := handler.getEventChannel(client.id)
	if eventChan == nil {
		handler.logger.Error().Str("client_id", client.id).Msg("No event channel found for client")
		return
	}

	for {
		select {
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			wsMessage := handler.convertEventToMessage(event)

			if err := client.Send(wsMessage); err != nil {
				handler.logger.Error().Err(err).Str("client_id", client.id).Msg("Failed to send event to WebSocket client")
			}

		case <-client.ctx.Done():
			handler.logger.Debug().Str("client_id", client.id).Msg("Client disconnected, stopping event listener")
			return
		}
	}
}

func (handler *WsHandler) HandleClientMessage(client *WsClient, msg *ClientMessage) error {
	switch msg.Type {
	case MessageTypeSubscribe:
		return handler.handleSubscribe(client, msg)

	case MessageTypeUnsubscribe:
		return handler.handleUnsubscribe(client, msg)

	case MessageTypePlaceBid:
		return handler.handlePlaceBid(client, msg)

	case MessageTypeCreateAuction:
		return handler.handleCreateAuction(client, msg)

	case MessageTypeDeleteAuction:
		return handler.handleDeleteAuction(client, msg)

	case MessageTypeGetAuction:
		return handler.handleGetAuction(client, msg)

	case MessageTypeListAuctions:
		return handler.handleListAuctions(client, msg)

	case MessageTypeMyBids:
		return handler.handleMyBids(client, msg)

	case MessageTypeRequestAuction:
		return handler.handleRequestAuction(client, msg)

	case MessageTypeListRequests:
		return handler.handleListRequests(client, msg)

	case MessageTypeApproveRequest:
		return handler.handleApproveRequest(client, msg)

	case MessageTypeRejectRequest:
		return handler.handleRejectRequest(client, msg)

	case MessageTypeListNotifications:
		return handler.handleListNotifications(client, msg)

	case MessageTypeMarkNotificationsRead:
		return handler.handleMarkNotificationsRead(client, msg)

	default:
		handler.logger.Warn().Str("client_id", client.id).Str("message_type", string(msg.Type)).Msg("Unknown message type from client")
		return shared.ErrUnknownMessageType
	}
}

func (handler *WsHandler) convertEventToMessage(event outbound.Event) *ServerMessage {
	msg := &ServerMessage{
		Topic:     event.Topic,
		Data:      event.Data,
		Timestamp: event.Timestamp,
	}

	switch event.Type {
	case outbound.EventTypeBidPlaced:
		msg.Type = MessageTypeBidPlaced
	case outbound.EventTypeAuctionCreated:
		msg.Type = MessageTypeAuctionCreated
	case outbound.EventTypeAuctionDeleted:
		msg.Type = MessageTypeAuctionDeleted
	case outbound.EventTypeAuctionEnded:
		msg.Type = MessageTypeAuctionEnded
	case outbound.EventTypeNotification:
		msg.Type = MessageTypeNotification
	default:
		msg.Type = MessageTypeAuctionUpdate
	}

	return msg
}

// GetConnectedClients returns the number of connected clients
func (handler *WsHandler) GetConnectedClients() int {
	handler.clientsMu.RLock()
	defer handler.clientsMu.RUnlock()
	return len(handler.clients)
}

// allowedTopic reports whether the client may subscribe to topic. The
// shared auctions topic is open to everyone; notification topics belong to
// exactly one admin.
func (handler *WsHandler) allowedTopic(client *WsClient, topic string) bool {
	if topic == outbound.TopicAuctions {
		return true
	}
	return client.user.Role.CanModerate() && topic == outbound.TopicNotifications(client.user.ID)
}

func (handler *WsHandler) handleSubscribe(client *WsClient, msg *ClientMessage) error {
	if !handler.allowedTopic(client, msg.Topic) {
		return shared.ErrNotAuthorized
	}

	ctx := context.Background()

	eventChan := handler.getEventChannel(client.id)
	if eventChan == nil {
		handler.logger.Error().Str("client_id", client.id).Msg("No event channel found for client")
		return shared.ErrClientEventChannelNotFound
	}

	if err := handler.broadcaster.Subscribe(ctx, msg.Topic, client.id, eventChan); err != nil {
		handler.logger.Error().Err(err).Str("client_id", client.id).Str("topic", msg.Topic).Msg("Failed to subscribe to topic")
		return err
	}

	response := NewServerMessage(MessageTypeAuctionUpdate)
	response.Topic = msg.Topic
	response.Data["status"] = "subscribed"

	handler.logger.Info().Str("client_id", client.id).Str("topic", msg.Topic).Msg("Client subscribed to topic")
	return client.Send(response)
}

// handleUnsubscribe handles unsubscription from a topic
func (handler *WsHandler) handleUnsubscribe(client *WsClient, msg *ClientMessage) error {
	ctx := context.Background()

	if err := handler.broadcaster.Unsubscribe(ctx, msg.Topic, client.id); err != nil {
		return err
	}

	response := NewServerMessage(MessageTypeAuctionUpdate)
	response.Topic = msg.Topic
	response.Data["status"] = "unsubscribed"

	handler.logger.Info().Str("client_id", client.id).Str("topic", msg.Topic).Msg("Client unsubscribed from topic")
	return client.Send(response)
}

// handlePlaceBid handles bid placement
func (handler *WsHandler) handlePlaceBid(client *WsClient, msg *ClientMessage) error {
	amount, err := msg.Amount("amount")
	if err != nil {
		return err
	}

	ctx := context.Background()

	placed, err := handler.bidService.PlaceBid(ctx, inbound.PlaceBidRequest{
		Actor:     client.user,
		AuctionID: *msg.AuctionID,
		Amount:    amount,
	})
	if err != nil {
		return client.Send(NewErrorMessage(err.Error()))
	}

	response := NewServerMessage(MessageTypeBidPlaced)
	response.Data["bid"] = bidPayload(placed)

	return client.Send(response)
}

// handleCreateAuction handles direct auction creation
func (handler *WsHandler) handleCreateAuction(client *WsClient, msg *ClientMessage) error {
	title, _ := msg.Data["title"].(string)
	description, _ := msg.Data["description"].(string)

	imageURLs := stringSlice(msg.Data["image_urls"])

	startingPrice, err := msg.Amount("starting_price")
	if err != nil {
		return shared.ErrInvalidStartingPrice
	}

	durationHours, ok := msg.Data["duration_hours"].(float64)
	if !ok {
		return shared.ErrInvalidDuration
	}

	ctx := context.Background()

	created, err := handler.auctionService.CreateAuction(ctx, inbound.CreateAuctionRequest{
		Actor:         client.user,
		Title:         title,
		Description:   description,
		ImageURLs:     imageURLs,
		StartingPrice: startingPrice,
		DurationHours: int(durationHours),
	})
	if err != nil {
		return client.Send(NewErrorMessage(err.Error()))
	}

	response := NewServerMessage(MessageTypeAuctionCreated)
	response.Data["auction"] = auctionPayload(created, time.Now())

	return client.Send(response)
}

// handleDeleteAuction handles auction removal (admin only)
func (handler *WsHandler) handleDeleteAuction(client *WsClient, msg *ClientMessage) error {
	ctx := context.Background()

	if err := handler.auctionService.DeleteAuction(ctx, client.user, *msg.AuctionID); err != nil {
		return client.Send(NewErrorMessage(err.Error()))
	}

	response := NewServerMessage(MessageTypeAuctionDeleted)
	response.Data["auction_id"] = msg.AuctionID.String()

	return client.Send(response)
}

// handleGetAuction handles getting auction details with its bids
func (handler *WsHandler) handleGetAuction(client *WsClient, msg *ClientMessage) error {
	ctx := context.Background()

	found, err := handler.auctionService.GetAuction(ctx, *msg.AuctionID)
	if err != nil {
		return client.Send(NewErrorMessage(err.Error()))
	}

	bids, err := handler.bidService.GetBids(ctx, found.ID)
	if err != nil {
		return client.Send(NewErrorMessage(err.Error()))
	}

	bidPayloads := make([]map[string]interface{}, 0, len(bids))
	for _, b := range bids {
		bidPayloads = append(bidPayloads, bidPayload(b))
	}

	response := NewServerMessage(MessageTypeAuctionUpdate)
	response.Data["auction"] = auctionPayload(found, time.Now())
	response.Data["bids"] = bidPayloads

	return client.Send(response)
}

// handleListAuctions handles listing auctions. The default scope is the
// public active listing; scope "all" is the admin moderation view.
func (handler *WsHandler) handleListAuctions(client *WsClient, msg *ClientMessage) error {
	ctx := context.Background()

	var auctions []*auction.Auction
	var err error

	if scope, _ := msg.Data["scope"].(string); scope == "all" {
		auctions, err = handler.auctionService.ListAllAuctions(ctx, client.user)
	} else {
		auctions, err = handler.auctionService.ListActiveAuctions(ctx)
	}
	if err != nil {
		return client.Send(NewErrorMessage(err.Error()))
	}

	now := time.Now()
	payloads := make([]map[string]interface{}, 0, len(auctions))
	for _, a := range auctions {
		payloads = append(payloads, auctionPayload(a, now))
	}

	response := NewServerMessage(MessageTypeAuctionUpdate)
	response.Data["auctions"] = payloads
	response.Data["count"] = len(payloads)

	return client.Send(response)
}

// handleMyBids handles the caller's bid history view
func (handler *WsHandler) handleMyBids(client *WsClient, msg *ClientMessage) error {
	ctx := context.Background()

	myBids, err := handler.bidService.MyBids(ctx, client.user)
	if err != nil {
		return client.Send(NewErrorMessage(err.Error()))
	}

	now := time.Now()
	payloads := make([]map[string]interface{}, 0, len(myBids))
	for _, mb := range myBids {
		payloads = append(payloads, map[string]interface{}{
			"bid":     bidPayload(mb.Bid),
			"auction": auctionPayload(mb.Auction, now),
			"winning": mb.Winning,
		})
	}

	response := NewServerMessage(MessageTypeAuctionUpdate)
	response.Data["my_bids"] = payloads

	return client.Send(response)
}

// handleRequestAuction handles filing a listing proposal
func (handler *WsHandler) handleRequestAuction(client *WsClient, msg *ClientMessage) error {
	title, _ := msg.Data["title"].(string)
	description, _ := msg.Data["description"].(string)
	imageURL, _ := msg.Data["image_url"].(string)
	phone, _ := msg.Data["phone"].(string)

	startingPrice, err := msg.Amount("starting_price")
	if err != nil {
		return shared.ErrInvalidStartingPrice
	}

	durationHours, ok := msg.Data["duration_hours"].(float64)
	if !ok {
		return shared.ErrInvalidDuration
	}

	ctx := context.Background()

	submitted, err := handler.requestService.SubmitRequest(ctx, inbound.SubmitRequestInput{
		Actor:         client.user,
		Phone:         phone,
		Title:         title,
		Description:   description,
		ImageURL:      imageURL,
		StartingPrice: startingPrice,
		DurationHours: int(durationHours),
	})
	if err != nil {
		return client.Send(NewErrorMessage(err.Error()))
	}

	response := NewServerMessage(MessageTypeAuctionUpdate)
	response.Data["request"] = requestPayload(submitted)

	return client.Send(response)
}

// handleListRequests handles the admin pending-requests view
func (handler *WsHandler) handleListRequests(client *WsClient, msg *ClientMessage) error {
	ctx := context.Background()

	pending, err := handler.requestService.ListPendingRequests(ctx, client.user)
	if err != nil {
		return client.Send(NewErrorMessage(err.Error()))
	}

	payloads := make([]map[string]interface{}, 0, len(pending))
	for _, r := range pending {
		payloads = append(payloads, requestPayload(r))
	}

	response := NewServerMessage(MessageTypeAuctionUpdate)
	response.Data["requests"] = payloads
	response.Data["count"] = len(payloads)

	return client.Send(response)
}

// handleApproveRequest handles approving a listing proposal
func (handler *WsHandler) handleApproveRequest(client *WsClient, msg *ClientMessage) error {
	ctx := context.Background()

	created, err := handler.requestService.ApproveRequest(ctx, client.user, *msg.RequestID)
	if err != nil {
		return client.Send(NewErrorMessage(err.Error()))
	}

	response := NewServerMessage(MessageTypeAuctionCreated)
	response.Data["request_id"] = msg.RequestID.String()
	response.Data["auction"] = auctionPayload(created, time.Now())

	return client.Send(response)
}

// handleRejectRequest handles rejecting a listing proposal
func (handler *WsHandler) handleRejectRequest(client *WsClient, msg *ClientMessage) error {
	ctx := context.Background()

	if err := handler.requestService.RejectRequest(ctx, client.user, *msg.RequestID); err != nil {
		return client.Send(NewErrorMessage(err.Error()))
	}

	response := NewServerMessage(MessageTypeAuctionUpdate)
	response.Data["request_id"] = msg.RequestID.String()
	response.Data["status"] = string(request.StatusRejected)

	return client.Send(response)
}

// handleListNotifications handles the admin notification view
func (handler *WsHandler) handleListNotifications(client *WsClient, msg *ClientMessage) error {
	ctx := context.Background()

	notifications, err := handler.notificationService.ListNotifications(ctx, client.user)
	if err != nil {
		return client.Send(NewErrorMessage(err.Error()))
	}

	unread, err := handler.notificationService.UnreadCount(ctx, client.user)
	if err != nil {
		return client.Send(NewErrorMessage(err.Error()))
	}

	payloads := make([]map[string]interface{}, 0, len(notifications))
	for _, n := range notifications {
		payloads = append(payloads, map[string]interface{}{
			"id":         n.ID.String(),
			"request_id": n.RequestID.String(),
			"message":    n.Message,
			"read":       n.Read,
			"created_at": n.CreatedAt.Format(time.RFC3339),
		})
	}

	response := NewServerMessage(MessageTypeNotification)
	response.Data["notifications"] = payloads
	response.Data["unread_count"] = unread

	return client.Send(response)
}

// handleMarkNotificationsRead handles clearing the notification badge
func (handler *WsHandler) handleMarkNotificationsRead(client *WsClient, msg *ClientMessage) error {
	ctx := context.Background()

	if err := handler.notificationService.MarkAllRead(ctx, client.user); err != nil {
		return client.Send(NewErrorMessage(err.Error()))
	}

	response := NewServerMessage(MessageTypeNotification)
	response.Data["unread_count"] = 0

	return client.Send(response)
}

// auctionPayload renders an auction with the display fields clients show
// on listing cards: formatted price and countdown included.
func auctionPayload(a *auction.Auction, now time.Time) map[string]interface{} {
	countdown := format.TimeRemaining(a.EndTime, now)

	return map[string]interface{}{
		"id":                      a.ID.String(),
		"title":                   a.Title,
		"description":             a.Description,
		"image_urls":              a.ImageURLs,
		"primary_image":           a.PrimaryImage(),
		"starting_price":          a.StartingPrice.String(),
		"current_price":           a.CurrentPrice.String(),
		"current_price_formatted": format.Currency(a.CurrentPrice),
		"minimum_bid":             a.MinimumBid().String(),
		"end_time":                a.EndTime.Format(time.RFC3339),
		"time_remaining":          countdown.String(),
		"ending_soon":             countdown.EndingSoon,
		"active":                  a.IsActive(now),
		"created_by":              a.CreatedBy.String(),
		"created_at":              a.CreatedAt.Format(time.RFC3339),
	}
}

func bidPayload(b *bid.Bid) map[string]interface{} {
	return map[string]interface{}{
		"id":               b.ID.String(),
		"auction_id":       b.AuctionID.String(),
		"user_id":          b.UserID.String(),
		"user_name":        b.UserName,
		"amount":           b.Amount.String(),
		"amount_formatted": format.Currency(b.Amount),
		"created_at":       b.CreatedAt.Format(time.RFC3339),
	}
}

func requestPayload(r *request.AuctionRequest) map[string]interface{} {
	payload := map[string]interface{}{
		"id":             r.ID.String(),
		"user_id":        r.UserID.String(),
		"user_name":      r.UserName,
		"user_email":     r.UserEmail,
		"user_phone":     r.UserPhone,
		"title":          r.Title,
		"description":    r.Description,
		"image_url":      r.ImageURL,
		"starting_price": r.StartingPrice.String(),
		"duration_hours": r.DurationHours,
		"status":         string(r.Status),
		"requested_at":   r.RequestedAt.Format(time.RFC3339),
	}
	if r.ReviewedAt != nil {
		payload["reviewed_at"] = r.ReviewedAt.Format(time.RFC3339)
	}
	return payload
}

func stringSlice(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
