package api

import (
	"time"

	"mentorlink/internal/messaging"
	"mentorlink/internal/models"
)

type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// MessageView is a message with its sender and recipient profiles embedded.
type MessageView struct {
	ID             string              `json:"_id"`
	ConversationID string              `json:"conversationId"`
	Sender         *models.Account     `json:"sender"`
	Recipient      *models.Account     `json:"recipient"`
	Content        string              `json:"content,omitempty"`
	MessageType    models.MessageType  `json:"messageType"`
	Attachments    []models.Attachment `json:"attachments"`
	IsRead         bool                `json:"isRead"`
	ReadAt         *time.Time          `json:"readAt,omitempty"`
	IsDeleted      bool                `json:"isDeleted"`
	DeletedBy      []string            `json:"deletedBy"`
	CreatedAt      time.Time           `json:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}

func profile(accounts map[string]*models.Account, id string) *models.Account {
	if account, ok := accounts[id]; ok && account != nil {
		return account
	}
	return &models.Account{ID: id}
}

func NewMessageView(m *models.DirectMessage, accounts map[string]*models.Account) MessageView {
	attachments := m.Attachments
	if attachments == nil {
		attachments = []models.Attachment{}
	}
	return MessageView{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Sender:         profile(accounts, m.SenderID),
		Recipient:      profile(accounts, m.RecipientID),
		Content:        m.Content,
		MessageType:    m.MessageType,
		Attachments:    attachments,
		IsRead:         m.IsRead,
		ReadAt:         m.ReadAt,
		IsDeleted:      m.IsDeleted,
		DeletedBy:      m.DeletedBy.IDs(),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func NewMessageViews(messages []*models.DirectMessage, accounts map[string]*models.Account) []MessageView {
	views := make([]MessageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, NewMessageView(m, accounts))
	}
	return views
}

// NewSentMessageView embeds the profiles already resolved during the send.
func NewSentMessageView(sent *messaging.SentMessage) MessageView {
	return NewMessageView(sent.Message, map[string]*models.Account{
		sent.Sender.ID:    sent.Sender,
		sent.Recipient.ID: sent.Recipient,
	})
}

type ConversationView struct {
	ID            string              `json:"_id"`
	OtherUser     *models.Account     `json:"otherUser"`
	LastMessage   *models.LastMessage `json:"lastMessage"`
	LastMessageAt time.Time           `json:"lastMessageAt"`
	UnreadCount   int                 `json:"unreadCount"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

func NewConversationViews(summaries []messaging.ConversationSummary) []ConversationView {
	views := make([]ConversationView, 0, len(summaries))
	for _, s := range summaries {
		views = append(views, ConversationView{
			ID:            s.Conversation.ID,
			OtherUser:     s.OtherUser,
			LastMessage:   s.Conversation.LastMessage,
			LastMessageAt: s.Conversation.LastMessageAt,
			UnreadCount:   s.UnreadCount,
			CreatedAt:     s.Conversation.CreatedAt,
			UpdatedAt:     s.Conversation.UpdatedAt,
		})
	}
	return views
}

type SendMessageResponse struct {
	Success        bool        `json:"success"`
	Message        MessageView `json:"message"`
	ConversationID string      `json:"conversationId"`
}

type ConversationsResponse struct {
	Conversations []ConversationView `json:"conversations"`
	Count         int                `json:"count"`
}

type ThreadResponse struct {
	Messages []MessageView `json:"messages"`
	Count    int           `json:"count"`
	HasMore  bool          `json:"hasMore"`
}

type SearchResponse struct {
	Messages []MessageView `json:"messages"`
	Count    int           `json:"count"`
}

type UnreadCountResponse struct {
	UnreadCount int `json:"unreadCount"`
}

type MarkReadResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	MarkedCount int64  `json:"markedCount"`
}

type DeleteMessageResponse struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message"`
	DeletedBy []string `json:"deletedBy"`
	IsDeleted bool     `json:"isDeleted"`
}

type ArchiveResponse struct {
	Success  bool `json:"success"`
	Archived bool `json:"archived"`
}

type MentorshipRequestResponse struct {
	Message string                    `json:"message"`
	Request *models.MentorshipRequest `json:"request"`
}

type MentorshipRequestsResponse struct {
	Requests []*models.MentorshipRequest `json:"requests"`
	Count    int                         `json:"count"`
}

type NotificationsResponse struct {
	Notifications []*models.Notification `json:"notifications"`
	Count         int                    `json:"count"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
	Online int    `json:"online"`
	Uptime string `json:"uptime"`
}
