package ws

import (
	"encoding/json"
	"fmt"
	"time"

	"subastas-service/internal/domain/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type MessageType string

const (
	// Client to Server message types
	MessageTypeSubscribe             MessageType = "subscribe"
	MessageTypeUnsubscribe           MessageType = "unsubscribe"
	MessageTypePlaceBid              MessageType = "place_bid"
	MessageTypeCreateAuction         MessageType = "create_auction"
	MessageTypeDeleteAuction         MessageType = "delete_auction"
	MessageTypeGetAuction            MessageType = "get_auction"
	MessageTypeListAuctions          MessageType = "list_auctions"
	MessageTypeMyBids                MessageType = "my_bids"
	MessageTypeRequestAuction        MessageType = "request_auction"
	MessageTypeListRequests          MessageType = "list_requests"
	MessageTypeApproveRequest        MessageType = "approve_request"
	MessageTypeRejectRequest         MessageType = "reject_request"
	MessageTypeListNotifications     MessageType = "list_notifications"
	MessageTypeMarkNotificationsRead MessageType = "mark_notifications_read"
	MessageTypePing                  MessageType = "ping"

	// Server to Client message types
	MessageTypeBidPlaced      MessageType = "bid_placed"
	MessageTypeAuctionCreated MessageType = "auction_created"
	MessageTypeAuctionDeleted MessageType = "auction_deleted"
	MessageTypeAuctionEnded   MessageType = "auction_ended"
	MessageTypeAuctionUpdate  MessageType = "auction_update"
	MessageTypeNotification   MessageType = "notification"
	MessageTypeError          MessageType = "error"
	MessageTypePong           MessageType = "pong"
)

type ClientMessage struct {
	Type      MessageType            `json:"type"`
	Topic     string                 `json:"topic,omitempty"`
	AuctionID *uuid.UUID             `json:"auction_id,omitempty"`
	RequestID *uuid.UUID             `json:"request_id,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp int64                  `json:"timestamp"`
}

// ServerMessage represents a message sent from server to client
type ServerMessage struct {
	Type      MessageType            `json:"type"`
	Topic     string                 `json:"topic,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Error     *string                `json:"error,omitempty"`
	Timestamp int64                  `json:"timestamp"`
}

func NewServerMessage(msgType MessageType) *ServerMessage {
	return &ServerMessage{
		Type:      msgType,
		Data:      make(map[string]interface{}),
		Timestamp: time.Now().Unix(),
	}
}

func NewErrorMessage(err string) *ServerMessage {
	return &ServerMessage{
		Type:      MessageTypeError,
		Error:     &err,
		Timestamp: time.Now().Unix(),
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

func (m *ClientMessage) validateAuctionID() error {
	if m.AuctionID == nil || *m.AuctionID == uuid.Nil {
		return shared.ErrAuctionIDRequired
	}
	return nil
}

func (m *ClientMessage) validateRequestID() error {
	if m.RequestID == nil || *m.RequestID == uuid.Nil {
		return shared.ErrRequestIDRequired
	}
	return nil
}

// Amount extracts a money amount from the message data. Clients may send
// amounts as JSON numbers or as strings; strings survive large values
// without float rounding.
func (m *ClientMessage) Amount(field string) (decimal.Decimal, error) {
	switch v := m.Data[field].(type) {
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		amount, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, shared.ErrInvalidAmount
		}
		return amount, nil
	default:
		return decimal.Zero, shared.ErrInvalidAmount
	}
}

// Validate validates a client message
func (m *ClientMessage) Validate() error {
	switch m.Type {
	case MessageTypeSubscribe, MessageTypeUnsubscribe:
		if m.Topic == "" {
			return shared.ErrTopicRequired
		}
	case MessageTypePlaceBid:
		if err := m.validateAuctionID(); err != nil {
			return err
		}
		amount, err := m.Amount("amount")
		if err != nil {
			return err
		}
		if !amount.IsPositive() {
			return shared.ErrInvalidAmount
		}
	case MessageTypeCreateAuction:
		if m.Data["title"] == nil {
			return shared.ErrTitleRequired
		}
		if m.Data["image_urls"] == nil {
			return shared.ErrImageRequired
		}
		if m.Data["starting_price"] == nil {
			return shared.ErrInvalidStartingPrice
		}
		if m.Data["duration_hours"] == nil {
			return shared.ErrInvalidDuration
		}
	case MessageTypeRequestAuction:
		if m.Data["title"] == nil {
			return shared.ErrTitleRequired
		}
		if m.Data["image_url"] == nil {
			return shared.ErrImageRequired
		}
		if m.Data["starting_price"] == nil {
			return shared.ErrInvalidStartingPrice
		}
		if m.Data["duration_hours"] == nil {
			return shared.ErrInvalidDuration
		}
	case MessageTypeGetAuction, MessageTypeDeleteAuction:
		if err := m.validateAuctionID(); err != nil {
			return err
		}
	case MessageTypeApproveRequest, MessageTypeRejectRequest:
		if err := m.validateRequestID(); err != nil {
			return err
		}
	case MessageTypeListAuctions, MessageTypeMyBids, MessageTypeListRequests,
		MessageTypeListNotifications, MessageTypeMarkNotificationsRead:

	case MessageTypePing:

	default:
		return shared.ErrUnknownMessageType
	}

	return nil
}
