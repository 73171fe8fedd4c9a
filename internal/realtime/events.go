package realtime

import (
	"encoding/json"
	"time"

	"mentorlink/internal/models"
)

// Client -> server events
const (
	EventUserOnline   = "user_online"
	EventSendMessage  = "send_message"
	EventTypingStart  = "typing_start"
	EventTypingStop   = "typing_stop"
	EventMessagesRead = "messages_read"
)

// Server -> client events
const (
	EventReceiveMessage     = "receive_message"
	EventMessageSent        = "message_sent"
	EventUserTyping         = "user_typing"
	EventUserStoppedTyping  = "user_stopped_typing"
	EventMessagesMarkedRead = "messages_marked_read"
	EventUserStatusChanged  = "user_status_changed"
	EventError              = "error"
)

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Frame is the envelope of every websocket message in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func Encode(event string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: event, Data: raw})
}

func Decode(frame []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(frame, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

type StatusChanged struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}

type Typing struct {
	UserID string `json:"userId"`
}

type MessagesMarkedRead struct {
	ReadBy    string    `json:"readBy"`
	Timestamp time.Time `json:"timestamp"`
}

type ErrorPayload struct {
	Event   string `json:"event,omitempty"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// Inbound payloads

type OutgoingMessage struct {
	Content     string              `json:"content"`
	MessageType models.MessageType  `json:"messageType"`
	Attachments []models.Attachment `json:"attachments,omitempty"`
}

type SendMessageRequest struct {
	RecipientID string          `json:"recipientId"`
	Message     OutgoingMessage `json:"message"`
}

type TypingRequest struct {
	RecipientID string `json:"recipientId"`
	SenderID    string `json:"senderId,omitempty"`
}

type MessagesReadRequest struct {
	SenderID string `json:"senderId"`
	ReadBy   string `json:"readBy,omitempty"`
}
