package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Frame is what live feed clients receive
type Frame struct {
	Type string          `json:"type"`
	Data MessageSentData `json:"data"`
}

// Client is one live feed connection for one account
type Client struct {
	AccountID string
	send      chan []byte
}

// Messages yields encoded frames for this client
func (c *Client) Messages() <-chan []byte {
	return c.send
}

// Hub fans message events out to connected participants
type Hub struct {
	subscriber message.Subscriber
	logger     *slog.Logger

	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewHub(subscriber message.Subscriber, logger *slog.Logger) *Hub {
	return &Hub{
		subscriber: subscriber,
		logger:     logger,
		clients:    make(map[string]map[*Client]struct{}),
	}
}

// Start subscribes before returning so no event published afterwards is missed
func (h *Hub) Start(ctx context.Context) error {
	messages, err := h.subscriber.Subscribe(ctx, TopicMessageSent)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", TopicMessageSent, err)
	}

	go func() {
		for msg := range messages {
			h.dispatch(msg)
			msg.Ack()
		}
		h.logger.Info("Live feed stopped")
	}()
	return nil
}

func (h *Hub) dispatch(msg *message.Message) {
	var evt struct {
		Type string          `json:"type"`
		Data MessageSentData `json:"data"`
	}
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		h.logger.Warn("Dropping malformed event", "message_uuid", msg.UUID, "error", err)
		return
	}

	frame, err := json.Marshal(Frame{Type: "message", Data: evt.Data})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, accountID := range []string{evt.Data.SenderID, evt.Data.ReceiverID} {
		for client := range h.clients[accountID] {
			select {
			case client.send <- frame:
			default:
				h.logger.Warn("Live feed client too slow, dropping frame", "account_id", accountID)
			}
		}
	}
}

func (h *Hub) Register(accountID string) *Client {
	client := &Client{AccountID: accountID, send: make(chan []byte, 32)}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[accountID] == nil {
		h.clients[accountID] = make(map[*Client]struct{})
	}
	h.clients[accountID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.clients[client.AccountID]; ok {
		if _, ok := set[client]; ok {
			delete(set, client)
			close(client.send)
		}
		if len(set) == 0 {
			delete(h.clients, client.AccountID)
		}
	}
}

// Connected returns how many live connections an account has
func (h *Hub) Connected(accountID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[accountID])
}
