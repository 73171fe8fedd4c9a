package messaging

import (
	"context"
	"fmt"
	"time"

	"mentorlink/internal/models"

	"github.com/google/uuid"
)

// SentMessage is what send hooks observe once the message is stored.
type SentMessage struct {
	Message      *models.DirectMessage
	Conversation *models.Conversation
	Sender       *models.Account
	Recipient    *models.Account
}

// ReadReceipt is what read hooks observe after a mark-read.
type ReadReceipt struct {
	ConversationID string
	ReaderID       string
	SenderID       string
	Count          int64
	At             time.Time
}

// SendHook runs after a message is committed. Hooks run in order; a failing
// hook is logged and the next one still runs.
type SendHook struct {
	Name string
	Run  func(ctx context.Context, sent *SentMessage) error
}

type ReadHook struct {
	Name string
	Run  func(ctx context.Context, receipt *ReadReceipt) error
}

// NotificationSink persists user-facing notifications.
type NotificationSink interface {
	CreateNotification(ctx context.Context, notification *models.Notification) error
}

// NotificationHook records a "message" notification for the recipient.
func NotificationHook(sink NotificationSink) SendHook {
	return SendHook{
		Name: "notification",
		Run: func(ctx context.Context, sent *SentMessage) error {
			return sink.CreateNotification(ctx, newMessageNotification(sent))
		},
	}
}

func newMessageNotification(sent *SentMessage) *models.Notification {
	msg := sent.Message
	return &models.Notification{
		ID:      uuid.NewString(),
		UserID:  msg.RecipientID,
		Type:    models.NotificationMessage,
		Title:   "New Message",
		Message: fmt.Sprintf("%s sent you a message", sent.Sender.DisplayName()),
		Link:    "/messages/" + msg.SenderID,
		Icon:    "message",
		Data: map[string]interface{}{
			"messageId": msg.ID,
			"senderId":  msg.SenderID,
		},
		CreatedAt: msg.CreatedAt,
	}
}
