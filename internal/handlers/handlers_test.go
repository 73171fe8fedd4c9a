package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mentorlink/internal/api"
	"mentorlink/internal/config"
	"mentorlink/internal/database/memory"
	"mentorlink/internal/engine"
	"mentorlink/internal/mentorship"
	"mentorlink/internal/messaging"
	"mentorlink/internal/models"
	"mentorlink/internal/presence"
	"mentorlink/internal/realtime"
	"mentorlink/internal/utils"
	"mentorlink/internal/websocket"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	store    *memory.Store
	server   *Server
	handler  http.Handler
	registry presence.Registry
	tokens   map[string]string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := utils.NewMetricsCollector()

	store := memory.NewStore()
	accounts := []*models.Account{
		{ID: "s1", Name: "Sam Student", Role: models.RoleStudent},
		{ID: "s2", Name: "Sid Student", Role: models.RoleStudent},
		{ID: "m1", Name: "Maya Mentor", Role: models.RoleMentor},
	}
	for _, a := range accounts {
		require.NoError(t, store.SaveAccount(ctx, a))
	}

	eng := engine.NewEngine(actor.NewActorSystem(), metrics)
	t.Cleanup(eng.Stop)
	registry := presence.NewActorRegistry(eng.Root(), eng.GetPresenceActor(), 5*time.Second)

	hubCtx, stopHub := context.WithCancel(ctx)
	t.Cleanup(stopHub)
	hub := websocket.NewHub(logger)
	go hub.Run(hubCtx)

	dispatcher := realtime.NewDispatcher(registry, hub, metrics, logger)
	messages := messaging.NewService(store, metrics, logger)
	messages.OnSend(messaging.NotificationHook(store), dispatcher.MessageHook())
	messages.OnRead(dispatcher.ReadHook())

	cfg := &config.Config{
		Server:         &config.ServerConfig{MetricsEnabled: true, RequestTimeout: 5 * time.Second},
		Database:       &config.DatabaseConfig{Type: config.DatabaseMemory},
		JWTSecret:      "test-secret",
		AllowedOrigins: []string{"*"},
	}
	server := NewServer(cfg, Deps{
		Messaging:     messages,
		Mentorship:    mentorship.NewService(store, store, logger),
		Notifications: store,
		Dispatcher:    dispatcher,
		Presence:      registry,
		Hub:           hub,
		Store:         store,
		Metrics:       metrics,
		Logger:        logger,
	})

	env := &testEnv{store: store, server: server, handler: server.Routes(), registry: registry, tokens: map[string]string{}}
	for _, a := range accounts {
		token, err := server.Tokens.GenerateToken(a.ID, a.Role)
		require.NoError(t, err)
		env.tokens[a.ID] = token
	}
	return env
}

func (e *testEnv) do(t *testing.T, method, path, as string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if as != "" {
		req.Header.Set("Authorization", "Bearer "+e.tokens[as])
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (e *testEnv) connect(t *testing.T, student, mentor string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/requests/"+mentor, student, map[string]string{"message": "Hi!"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[api.MentorshipRequestResponse](t, rec)

	rec = e.do(t, http.MethodPut, "/api/requests/"+created.Request.ID+"/accept", mentor, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestAPIRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/messages/conversations", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decode[api.ErrorResponse](t, rec).Error)
}

func TestMessagingLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/messages", "s1", map[string]string{"recipientId": "m1", "content": "hello"})
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, utils.ErrNoMentorshipConnection, decode[api.ErrorResponse](t, rec).Error)

	env.connect(t, "s1", "m1")

	rec = env.do(t, http.MethodPost, "/api/messages", "s1", map[string]string{"recipientId": "m1", "content": "hello"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sent := decode[api.SendMessageResponse](t, rec)
	assert.True(t, sent.Success)
	assert.Equal(t, "m1_s1", sent.ConversationID)
	assert.Equal(t, "Sam Student", sent.Message.Sender.Name)

	rec = env.do(t, http.MethodGet, "/api/messages/unread-count", "m1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[api.UnreadCountResponse](t, rec).UnreadCount)

	rec = env.do(t, http.MethodGet, "/api/messages/conversations", "m1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listing := decode[api.ConversationsResponse](t, rec)
	require.Len(t, listing.Conversations, 1)
	assert.Equal(t, 1, listing.Conversations[0].UnreadCount)
	assert.Equal(t, "s1", listing.Conversations[0].OtherUser.ID)

	rec = env.do(t, http.MethodGet, "/api/messages/s1", "m1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	thread := decode[api.ThreadResponse](t, rec)
	require.Len(t, thread.Messages, 1)
	assert.Equal(t, "hello", thread.Messages[0].Content)
	assert.False(t, thread.HasMore)

	rec = env.do(t, http.MethodPut, "/api/messages/mark-read/s1", "m1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[api.MarkReadResponse](t, rec).MarkedCount)

	rec = env.do(t, http.MethodGet, "/api/messages/unread-count", "m1", nil)
	assert.Equal(t, 0, decode[api.UnreadCountResponse](t, rec).UnreadCount)

	rec = env.do(t, http.MethodDelete, "/api/messages/"+sent.Message.ID, "m1", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/messages/"+sent.Message.ID, "s1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	deleted := decode[api.DeleteMessageResponse](t, rec)
	assert.Equal(t, []string{"s1"}, deleted.DeletedBy)
	assert.False(t, deleted.IsDeleted)

	rec = env.do(t, http.MethodGet, "/api/notifications", "m1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	notifications := decode[api.NotificationsResponse](t, rec)
	types := []models.NotificationType{}
	for _, n := range notifications.Notifications {
		types = append(types, n.Type)
	}
	assert.ElementsMatch(t, []models.NotificationType{models.NotificationRequest, models.NotificationMessage}, types)
}

func TestSendValidation(t *testing.T) {
	env := newTestEnv(t)
	env.connect(t, "s1", "m1")

	tests := []struct {
		name string
		body interface{}
		code int
	}{
		{"missing content", map[string]string{"recipientId": "m1"}, http.StatusBadRequest},
		{"missing recipient", map[string]string{"content": "x"}, http.StatusBadRequest},
		{"self", map[string]string{"recipientId": "s1", "content": "x"}, http.StatusBadRequest},
		{"unknown recipient", map[string]string{"recipientId": "ghost", "content": "x"}, http.StatusNotFound},
		{"no connection", map[string]string{"recipientId": "s2", "content": "x"}, http.StatusForbidden},
		{"image without attachments", map[string]string{"recipientId": "m1", "messageType": "image"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/messages", "s1", tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader("{not json"))
	req.Header.Set("Authorization", "Bearer "+env.tokens["s1"])
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestThreadQueryParameters(t *testing.T) {
	env := newTestEnv(t)
	env.connect(t, "s1", "m1")
	for _, text := range []string{"one", "two", "three"} {
		rec := env.do(t, http.MethodPost, "/api/messages", "s1", map[string]string{"recipientId": "m1", "content": text})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := env.do(t, http.MethodGet, "/api/messages/m1?limit=2", "s1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[api.ThreadResponse](t, rec)
	require.Len(t, page.Messages, 2)
	assert.True(t, page.HasMore)
	assert.Equal(t, "three", page.Messages[1].Content)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/messages/m1?limit=zero", "s1", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/messages/m1?before=yesterday", "s1", nil).Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/api/messages/s2", "s1", nil).Code)
}

func TestSearchAndArchive(t *testing.T) {
	env := newTestEnv(t)
	env.connect(t, "s1", "m1")
	rec := env.do(t, http.MethodPost, "/api/messages", "s1", map[string]string{"recipientId": "m1", "content": "Résumé review (draft)"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/messages/search?q=(draft", "m1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[api.SearchResponse](t, rec).Count)

	rec = env.do(t, http.MethodPut, "/api/messages/conversations/s1/archive", "m1", map[string]bool{"archived": true})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/messages/conversations", "m1", nil)
	assert.Equal(t, 0, decode[api.ConversationsResponse](t, rec).Count)
	rec = env.do(t, http.MethodGet, "/api/messages/conversations", "s1", nil)
	assert.Equal(t, 1, decode[api.ConversationsResponse](t, rec).Count)
}

func TestMentorshipRoutes(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/requests/m1", "s1", map[string]string{"message": "Please mentor me"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[api.MentorshipRequestResponse](t, rec)

	rec = env.do(t, http.MethodPost, "/api/requests/m1", "s1", map[string]string{"message": "again"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/requests/check-mentorship-status/m1", "s1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[models.ConnectionStatus](t, rec)
	assert.True(t, status.HasPendingRequest)
	assert.False(t, status.CanMessage)

	rec = env.do(t, http.MethodPut, "/api/requests/"+created.Request.ID+"/accept", "s1", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/requests?status=pending", "m1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[api.MentorshipRequestsResponse](t, rec).Count)

	rec = env.do(t, http.MethodPut, "/api/requests/"+created.Request.ID+"/reject", "m1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.MentorshipRejected, decode[api.MentorshipRequestResponse](t, rec).Request.Status)

	rec = env.do(t, http.MethodPut, "/api/requests/"+created.Request.ID+"/accept", "m1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/requests/my-requests", "s1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[api.MentorshipRequestsResponse](t, rec).Count)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/requests?status=bogus", "m1", nil).Code)
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode[api.HealthResponse](t, rec)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, config.DatabaseMemory, health.Store)

	rec = env.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mentorlink_requests_total")
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/messages", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
