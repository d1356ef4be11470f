package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/SAP-F-2025/lms-service/internal/events"
	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/utils"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = streamPongWait * 9 / 10
	streamReadLimit  = 512
)

// LiveFeed hands out per-account subscriptions to message events
type LiveFeed interface {
	Register(accountID string) *events.Client
	Unregister(client *events.Client)
}

type MessageHandler struct {
	BaseHandler
	messagingService services.MessagingService
	feed             LiveFeed
	upgrader         websocket.Upgrader
}

func NewMessageHandler(messagingService services.MessagingService, feed LiveFeed, allowedOrigin string, logger utils.Logger) *MessageHandler {
	return &MessageHandler{
		BaseHandler:      NewBaseHandler(logger),
		messagingService: messagingService,
		feed:             feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origin == allowedOrigin
			},
		},
	}
}

// SendMessage sends a direct message
// @Summary Send message
// @Tags messages
// @Accept json
// @Produce json
// @Param message body services.SendMessageRequest true "Recipient and text"
// @Success 201 {object} models.Message
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /messages [post]
func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req services.SendMessageRequest
	if !h.bindJSON(c, &req) {
		return
	}

	message, err := h.messagingService.Send(c.Request.Context(), GetActorFromContext(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, message)
}

func (h *MessageHandler) ListConversations(c *gin.Context) {
	conversations, err := h.messagingService.ListConversations(c.Request.Context(), GetActorFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

// GetConversation opens a conversation, marking it read. Messages are grouped
// by day in the ?tz= location (IANA name, default UTC).
// @Summary View conversation
// @Tags messages
// @Produce json
// @Param id path string true "Conversation ID"
// @Param tz query string false "IANA time zone"
// @Success 200 {object} services.ConversationDetail
// @Router /conversations/{id} [get]
func (h *MessageHandler) GetConversation(c *gin.Context) {
	conversationID, ok := h.parseStringParam(c, "id")
	if !ok {
		return
	}

	loc := time.UTC
	if tz := c.Query("tz"); tz != "" {
		parsed, err := time.LoadLocation(tz)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid time zone",
				Details: err.Error(),
			})
			return
		}
		loc = parsed
	}

	detail, err := h.messagingService.View(c.Request.Context(), GetActorFromContext(c), conversationID, loc)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

func (h *MessageHandler) MarkRead(c *gin.Context) {
	conversationID, ok := h.parseStringParam(c, "id")
	if !ok {
		return
	}

	if err := h.messagingService.MarkRead(c.Request.Context(), GetActorFromContext(c), conversationID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Conversation marked as read"})
}

func (h *MessageHandler) UnreadTotal(c *gin.Context) {
	total, err := h.messagingService.UnreadTotal(c.Request.Context(), GetActorFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": total})
}

func (h *MessageHandler) Contacts(c *gin.Context) {
	contacts, err := h.messagingService.Contacts(c.Request.Context(), GetActorFromContext(c), c.Query("q"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"contacts": contacts})
}

// Stream upgrades to a WebSocket and pushes every new message of the
// conversation. Messages pushed to their recipient are marked read.
func (h *MessageHandler) Stream(c *gin.Context) {
	conversationID, ok := h.parseStringParam(c, "id")
	if !ok {
		return
	}

	actor := GetActorFromContext(c)
	ctx := c.Request.Context()
	conversation, err := h.messagingService.CanAccess(ctx, actor, conversationID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		utils.GetLogger(c, h.logger).Warn("WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	client := h.feed.Register(actor.ID)
	defer h.feed.Unregister(client)

	logger := utils.GetLogger(c, h.logger).With("conversation_id", conversation.ID, "account_id", actor.ID)
	logger.Info("Live feed connected")

	// The read loop only exists to notice the close and answer pings
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(streamReadLimit)
		_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(streamPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			logger.Info("Live feed disconnected")
			return
		case payload, ok := <-client.Messages():
			if !ok {
				return
			}

			var frame events.Frame
			if err := json.Unmarshal(payload, &frame); err != nil || frame.Data.ConversationID != conversation.ID {
				continue
			}

			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Warn("Live feed write failed", "error", err)
				return
			}

			if frame.Data.ReceiverID == actor.ID {
				if err := h.messagingService.MarkRead(ctx, actor, conversation.ID); err != nil {
					logger.Warn("Failed to mark pushed message read", "message_id", frame.Data.MessageID, "error", err)
				}
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		}
	}
}
