package models

import (
	"strings"
	"time"
)

// MessageType is the payload kind of a direct message.
type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeFile  MessageType = "file"
)

// Valid reports whether t is one of the supported message types.
func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeFile:
		return true
	}
	return false
}

type Attachment struct {
	FileName string `json:"fileName" bson:"fileName"`
	FileURL  string `json:"fileUrl" bson:"fileUrl"`
	FileType string `json:"fileType" bson:"fileType"`
	FileSize int64  `json:"fileSize" bson:"fileSize"`
}

// DirectMessage belongs to exactly one conversation, addressed by the
// conversation key rather than a document reference.
type DirectMessage struct {
	ID             string       `json:"_id" bson:"_id"`
	ConversationID string       `json:"conversationId" bson:"conversationId"`
	SenderID       string       `json:"sender" bson:"sender"`
	RecipientID    string       `json:"recipient" bson:"recipient"`
	Content        string       `json:"content,omitempty" bson:"content,omitempty"`
	MessageType    MessageType  `json:"messageType" bson:"messageType"`
	Attachments    []Attachment `json:"attachments" bson:"attachments"`
	IsRead         bool         `json:"isRead" bson:"isRead"`
	ReadAt         *time.Time   `json:"readAt,omitempty" bson:"readAt,omitempty"`
	IsDeleted      bool         `json:"isDeleted" bson:"isDeleted"`
	DeletedBy      DeletionSet  `json:"deletedBy" bson:"deletedBy"`
	CreatedAt      time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt" bson:"updatedAt"`
}

// HasContent reports whether the message carries non-blank text.
func (m *DirectMessage) HasContent() bool {
	return strings.TrimSpace(m.Content) != ""
}

// Preview is the denormalized text shown in conversation listings.
func (m *DirectMessage) Preview() string {
	if m.MessageType == MessageTypeText || m.MessageType == "" {
		return m.Content
	}
	return "Sent a " + string(m.MessageType)
}

// MarkDeletedBy records accountID's deletion. The message becomes deleted
// exactly when both participants are in the set. Returns false when the
// account had already deleted it.
func (m *DirectMessage) MarkDeletedBy(accountID string) bool {
	added := m.DeletedBy.Add(accountID)
	m.IsDeleted = m.DeletedBy.Full()
	return added
}
