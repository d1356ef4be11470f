package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/lms-service/internal/events"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/services"
)

type stubMessaging struct {
	services.MessagingService
	marked   atomic.Int32
	lastLoc  *time.Location
	lastSent *services.SendMessageRequest
}

func (s *stubMessaging) CanAccess(ctx context.Context, actor *services.Actor, conversationID string) (*models.Conversation, error) {
	if conversationID != "ins_stu" || (actor.ID != "ins" && actor.ID != "stu") {
		return nil, services.ErrConversationNotFound
	}
	return &models.Conversation{ID: conversationID, Participants: []string{"ins", "stu"}}, nil
}

func (s *stubMessaging) MarkRead(ctx context.Context, actor *services.Actor, conversationID string) error {
	s.marked.Add(1)
	return nil
}

func (s *stubMessaging) View(ctx context.Context, actor *services.Actor, conversationID string, loc *time.Location) (*services.ConversationDetail, error) {
	s.lastLoc = loc
	return &services.ConversationDetail{}, nil
}

func (s *stubMessaging) Send(ctx context.Context, actor *services.Actor, req *services.SendMessageRequest) (*models.Message, error) {
	s.lastSent = req
	return &models.Message{ID: 1, SenderID: actor.ID, ReceiverID: req.ReceiverID, Text: req.Text}, nil
}

func (s *stubMessaging) UnreadTotal(ctx context.Context, actor *services.Actor) (int64, error) {
	return 3, nil
}

func publishMessageSent(t *testing.T, pub message.Publisher, data events.MessageSentData) {
	t.Helper()
	payload, err := json.Marshal(events.NewEvent(events.TopicMessageSent, data))
	require.NoError(t, err)
	require.NoError(t, pub.Publish(events.TopicMessageSent, message.NewMessage(watermill.NewUUID(), payload)))
}

func TestMessageHandler_Stream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, watermill.NopLogger{})
	defer bus.Close()

	hub := events.NewHub(bus, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, hub.Start(ctx))

	f := newAuthFixture()
	f.addUser("stu", models.RoleStudent, false)
	f.addUser("ins", models.RoleInstructor, false)
	messaging := &stubMessaging{}
	router := newTestRouter(f, &stubServiceManager{messaging: messaging}, hub)

	server := httptest.NewServer(router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/conversations/ins_stu/stream?access_token=stu-token"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	assert.Eventually(t, func() bool { return hub.Connected("stu") == 1 }, 2*time.Second, 10*time.Millisecond)

	// a frame for another conversation is filtered out
	publishMessageSent(t, bus, events.MessageSentData{ConversationID: "adm_stu", MessageID: 1, SenderID: "adm", ReceiverID: "stu", Text: "elsewhere"})
	publishMessageSent(t, bus, events.MessageSentData{ConversationID: "ins_stu", MessageID: 2, SenderID: "ins", ReceiverID: "stu", Text: "hello"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame events.Frame
	require.NoError(t, json.Unmarshal(payload, &frame))
	assert.Equal(t, "message", frame.Type)
	assert.Equal(t, "ins_stu", frame.Data.ConversationID)
	assert.Equal(t, "hello", frame.Data.Text)

	assert.Eventually(t, func() bool { return messaging.marked.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Connected("stu") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestMessageHandler_StreamRejectsOutsiders(t *testing.T) {
	f := newAuthFixture()
	outsider := f.addUser("eve", models.RoleStudent, false)
	router := newTestRouter(f, &stubServiceManager{messaging: &stubMessaging{}}, nil)

	w := performRequest(router, http.MethodGet, "/api/v1/conversations/ins_stu/stream", outsider, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performRequest(router, http.MethodGet, "/api/v1/conversations/ins_stu/stream", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMessageHandler_GetConversationTimezone(t *testing.T) {
	f := newAuthFixture()
	token := f.addUser("stu", models.RoleStudent, false)
	messaging := &stubMessaging{}
	router := newTestRouter(f, &stubServiceManager{messaging: messaging}, nil)

	w := performRequest(router, http.MethodGet, "/api/v1/conversations/ins_stu?tz=Asia/Ho_Chi_Minh", token, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, messaging.lastLoc)
	assert.Equal(t, "Asia/Ho_Chi_Minh", messaging.lastLoc.String())

	w = performRequest(router, http.MethodGet, "/api/v1/conversations/ins_stu?tz=Mars/Olympus", token, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMessageHandler_SendAndUnread(t *testing.T) {
	f := newAuthFixture()
	token := f.addUser("stu", models.RoleStudent, false)
	messaging := &stubMessaging{}
	router := newTestRouter(f, &stubServiceManager{messaging: messaging}, nil)

	w := performRequest(router, http.MethodPost, "/api/v1/messages", token, `{"receiver_id":"ins","text":"hi there"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotNil(t, messaging.lastSent)
	assert.Equal(t, "ins", messaging.lastSent.ReceiverID)

	w = performRequest(router, http.MethodGet, "/api/v1/messages/unread", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"unread":3}`, w.Body.String())
}
