package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"mentorlink/internal/api"
	"mentorlink/internal/messaging"
	"mentorlink/internal/realtime"
	"mentorlink/internal/utils"
	"mentorlink/internal/websocket"
)

// HandleWebSocket handles WebSocket connection requests. The token in the
// query string fixes the account for the life of the connection.
func (s *Server) HandleWebSocket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			s.writeError(w, r, utils.NewUnauthorizedError("missing authentication token"))
			return
		}

		claims, err := s.Tokens.ValidateToken(tokenString)
		if err != nil {
			s.Logger.Debug("websocket auth failed", "error", err)
			s.writeError(w, r, utils.NewAppError(utils.ErrInvalidToken, "Invalid or expired token", nil))
			return
		}

		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			// The upgrader has already written the HTTP error.
			s.Logger.Warn("websocket upgrade failed", "account", claims.AccountID, "error", err)
			return
		}

		client := websocket.NewClient(s.Hub, conn, claims.AccountID, &socketEvents{server: s})
		s.Logger.Debug("websocket connected", "account", claims.AccountID, "conn", client.ID())
		client.Start()
	}
}

// socketEvents turns inbound frames into service calls and realtime events.
type socketEvents struct {
	server *Server
}

func (e *socketEvents) logger() *slog.Logger { return e.server.Logger }

// frameContext bounds the work done for one frame or disconnect.
func (e *socketEvents) frameContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), e.server.RequestTimeout)
}

func (e *socketEvents) HandleFrame(c *websocket.Client, raw []byte) {
	frame, err := realtime.Decode(raw)
	if err != nil || frame.Event == "" {
		e.reply(c, realtime.EventError, realtime.ErrorPayload{Message: "malformed frame", Error: utils.ErrValidation})
		return
	}

	ctx, cancel := e.frameContext()
	defer cancel()

	switch frame.Event {
	case realtime.EventUserOnline:
		err = e.userOnline(ctx, c, frame.Data)
	case realtime.EventSendMessage:
		err = e.sendMessage(ctx, c, frame.Data)
	case realtime.EventTypingStart:
		err = e.typing(ctx, c, frame.Data, realtime.EventUserTyping)
	case realtime.EventTypingStop:
		err = e.typing(ctx, c, frame.Data, realtime.EventUserStoppedTyping)
	case realtime.EventMessagesRead:
		err = e.messagesRead(ctx, c, frame.Data)
	default:
		err = utils.NewValidationError("unknown event: " + frame.Event)
	}
	if err != nil {
		e.fail(c, frame.Event, err)
	}
}

// HandleClose drops the presence entry if this connection still owns it and
// tells everyone else the account went offline.
func (e *socketEvents) HandleClose(c *websocket.Client) {
	ctx, cancel := e.frameContext()
	defer cancel()

	removed, err := e.server.Presence.Unregister(ctx, c.AccountID, c)
	if err != nil {
		e.logger().Warn("presence unregister failed", "account", c.AccountID, "error", err)
		return
	}
	if !removed {
		return
	}
	if err := e.server.Dispatcher.BroadcastStatus(ctx, c.AccountID, false, c.ID()); err != nil {
		e.logger().Warn("offline broadcast failed", "account", c.AccountID, "error", err)
	}
}

func (e *socketEvents) userOnline(ctx context.Context, c *websocket.Client, data json.RawMessage) error {
	var accountID string
	if len(data) > 0 {
		if err := json.Unmarshal(data, &accountID); err != nil {
			return utils.NewValidationError("user_online expects an account id")
		}
	}
	if accountID != "" && accountID != c.AccountID {
		return utils.NewForbiddenError("account id does not match the authenticated user")
	}

	replaced, err := e.server.Presence.Register(ctx, c.AccountID, c)
	if err != nil {
		return err
	}
	if replaced != nil {
		e.logger().Debug("presence taken over by newer connection", "account", c.AccountID, "previous", replaced.ID())
	}
	return e.server.Dispatcher.BroadcastStatus(ctx, c.AccountID, true, c.ID())
}

func (e *socketEvents) sendMessage(ctx context.Context, c *websocket.Client, data json.RawMessage) error {
	var req realtime.SendMessageRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return utils.NewValidationError("send_message expects {recipientId, message}")
	}

	sent, err := e.server.Messaging.Send(ctx, messaging.SendInput{
		SenderID:    c.AccountID,
		RecipientID: strings.TrimSpace(req.RecipientID),
		Content:     req.Message.Content,
		MessageType: req.Message.MessageType,
		Attachments: req.Message.Attachments,
	})
	if err != nil {
		return err
	}
	// The recipient is reached by the send hook; the sender gets an ack.
	e.reply(c, realtime.EventMessageSent, api.NewSentMessageView(sent))
	return nil
}

func (e *socketEvents) typing(ctx context.Context, c *websocket.Client, data json.RawMessage, event string) error {
	var req realtime.TypingRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return utils.NewValidationError("typing events expect {recipientId}")
	}
	if err := messaging.ValidateAccountID(req.RecipientID, "recipient id"); err != nil {
		return err
	}
	return e.server.Dispatcher.SendTo(ctx, req.RecipientID, event, realtime.Typing{UserID: c.AccountID})
}

func (e *socketEvents) messagesRead(ctx context.Context, c *websocket.Client, data json.RawMessage) error {
	var req realtime.MessagesReadRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return utils.NewValidationError("messages_read expects {senderId}")
	}
	// The read hook notifies req.SenderID.
	_, err := e.server.Messaging.MarkRead(ctx, c.AccountID, strings.TrimSpace(req.SenderID))
	return err
}

func (e *socketEvents) fail(c *websocket.Client, event string, err error) {
	appErr, ok := utils.AsAppError(err)
	if !ok || utils.AppErrorToHTTPStatus(appErr.Code) >= http.StatusInternalServerError {
		e.logger().Error("websocket event failed", "event", event, "account", c.AccountID, "error", err)
		appErr = utils.NewAppError(utils.ErrInternal, "Internal server error", nil)
	}
	e.reply(c, realtime.EventError, realtime.ErrorPayload{Event: event, Message: appErr.Message, Error: appErr.Code})
}

func (e *socketEvents) reply(c *websocket.Client, event string, data interface{}) {
	frame, err := realtime.Encode(event, data)
	if err != nil {
		e.logger().Error("failed to encode frame", "event", event, "error", err)
		return
	}
	if !c.Send(frame) {
		e.logger().Warn("client buffer full, reply dropped", "event", event, "account", c.AccountID)
	}
}
