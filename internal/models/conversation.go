package models

import "time"

// LastMessage is the snapshot of the newest message kept on the conversation
// so listings need no join.
type LastMessage struct {
	Content     string      `json:"content" bson:"content"`
	SenderID    string      `json:"sender" bson:"sender"`
	CreatedAt   time.Time   `json:"createdAt" bson:"createdAt"`
	MessageType MessageType `json:"messageType" bson:"messageType"`
}

// Conversation is the two-party thread document. ID is the conversation key,
// which makes the participant pair unique at the storage level.
type Conversation struct {
	ID            string          `json:"_id" bson:"_id"`
	Participants  []string        `json:"participants" bson:"participants"`
	LastMessage   *LastMessage    `json:"lastMessage,omitempty" bson:"lastMessage,omitempty"`
	LastMessageAt time.Time       `json:"lastMessageAt" bson:"lastMessageAt"`
	UnreadCount   map[string]int  `json:"unreadCount" bson:"unreadCount"`
	IsArchived    map[string]bool `json:"isArchived" bson:"isArchived"`
	CreatedAt     time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt" bson:"updatedAt"`
}

// OtherParticipant returns the participant that is not accountID.
func (c *Conversation) OtherParticipant(accountID string) string {
	for _, p := range c.Participants {
		if p != accountID {
			return p
		}
	}
	return ""
}

// HasParticipant reports whether accountID is one of the two participants.
func (c *Conversation) HasParticipant(accountID string) bool {
	for _, p := range c.Participants {
		if p == accountID {
			return true
		}
	}
	return false
}

// UnreadFor returns the unread counter of accountID; a missing entry is zero.
func (c *Conversation) UnreadFor(accountID string) int {
	if c.UnreadCount == nil {
		return 0
	}
	return c.UnreadCount[accountID]
}

func (c *Conversation) ArchivedFor(accountID string) bool {
	if c.IsArchived == nil {
		return false
	}
	return c.IsArchived[accountID]
}
