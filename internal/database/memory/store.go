// Package memory keeps every store in process memory. It backs DB_TYPE=memory
// and the service and handler tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"mentorlink/internal/database"
	"mentorlink/internal/models"
	"mentorlink/internal/utils"
)

type Store struct {
	mu            sync.RWMutex
	accounts      map[string]*models.Account
	conversations map[string]*models.Conversation
	messages      map[string]*models.DirectMessage
	requests      map[string]*models.MentorshipRequest
	notifications []*models.Notification
}

func NewStore() *Store {
	return &Store{
		accounts:      make(map[string]*models.Account),
		conversations: make(map[string]*models.Conversation),
		messages:      make(map[string]*models.DirectMessage),
		requests:      make(map[string]*models.MentorshipRequest),
	}
}

func (s *Store) Ping(ctx context.Context) error { return nil }

// Accounts

func (s *Store) SaveAccount(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *account
	s.accounts[account.ID] = &copied
	return nil
}

func (s *Store) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[id]
	if !ok {
		return nil, utils.NewNotFoundError("User not found")
	}
	copied := *account
	return &copied, nil
}

func (s *Store) GetAccounts(ctx context.Context, ids []string) (map[string]*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[string]*models.Account, len(ids))
	for _, id := range ids {
		if account, ok := s.accounts[id]; ok {
			copied := *account
			result[id] = &copied
		}
	}
	return result, nil
}

// Conversations

func (s *Store) FindOrCreateConversation(ctx context.Context, key string, participants []string, now time.Time) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[key]
	if !ok {
		conv = &models.Conversation{
			ID:            key,
			Participants:  append([]string(nil), participants...),
			LastMessageAt: now,
			UnreadCount:   make(map[string]int, len(participants)),
			IsArchived:    make(map[string]bool, len(participants)),
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		for _, p := range participants {
			conv.UnreadCount[p] = 0
			conv.IsArchived[p] = false
		}
		s.conversations[key] = conv
	}
	return cloneConversation(conv), nil
}

func (s *Store) GetConversation(ctx context.Context, key string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[key]
	if !ok {
		return nil, utils.NewNotFoundError("Conversation not found")
	}
	return cloneConversation(conv), nil
}

func (s *Store) ListConversations(ctx context.Context, accountID string, partners []string, limit int) ([]*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	allowed := make(map[string]bool, len(partners))
	for _, p := range partners {
		allowed[p] = true
	}

	result := []*models.Conversation{}
	for _, conv := range s.conversations {
		if !conv.HasParticipant(accountID) || !allowed[conv.OtherParticipant(accountID)] || conv.ArchivedFor(accountID) {
			continue
		}
		result = append(result, cloneConversation(conv))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].LastMessageAt.After(result[j].LastMessageAt)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) SetArchived(ctx context.Context, key, accountID string, archived bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[key]
	if !ok || !conv.HasParticipant(accountID) {
		return utils.NewNotFoundError("Conversation not found")
	}
	conv.IsArchived[accountID] = archived
	return nil
}

func (s *Store) UnreadTotal(ctx context.Context, accountID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, conv := range s.conversations {
		if conv.HasParticipant(accountID) {
			total += conv.UnreadFor(accountID)
		}
	}
	return total, nil
}

// Messages

func (s *Store) AppendMessage(ctx context.Context, message *models.DirectMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[message.ConversationID]
	if !ok {
		return utils.NewNotFoundError("Conversation not found")
	}
	if message.Attachments == nil {
		message.Attachments = []models.Attachment{}
	}
	s.messages[message.ID] = cloneMessage(message)

	conv.LastMessage = &models.LastMessage{
		Content:     message.Preview(),
		SenderID:    message.SenderID,
		CreatedAt:   message.CreatedAt,
		MessageType: message.MessageType,
	}
	conv.LastMessageAt = message.CreatedAt
	conv.UpdatedAt = message.CreatedAt
	conv.UnreadCount[message.RecipientID]++
	conv.IsArchived[message.SenderID] = false
	conv.IsArchived[message.RecipientID] = false
	return nil
}

func (s *Store) ListMessages(ctx context.Context, conversationKey string, limit int, before *time.Time) ([]*models.DirectMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.filterMessages(func(m *models.DirectMessage) bool {
		return m.ConversationID == conversationKey && !m.IsDeleted &&
			(before == nil || m.CreatedAt.Before(*before))
	})
	newestFirst(matched)
	if len(matched) > limit {
		matched = matched[:limit]
	}
	for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
		matched[i], matched[j] = matched[j], matched[i]
	}
	return matched, nil
}

func (s *Store) GetMessage(ctx context.Context, messageID string) (*models.DirectMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	message, ok := s.messages[messageID]
	if !ok {
		return nil, utils.NewNotFoundError("Message not found")
	}
	return cloneMessage(message), nil
}

func (s *Store) AddDeletion(ctx context.Context, messageID, accountID string, at time.Time) (*models.DirectMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	message, ok := s.messages[messageID]
	if !ok {
		return nil, utils.NewNotFoundError("Message not found")
	}
	if message.MarkDeletedBy(accountID) {
		message.UpdatedAt = at
	}
	return cloneMessage(message), nil
}

func (s *Store) SearchMessages(ctx context.Context, accountID, query string, limit int) ([]*models.DirectMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(query)
	matched := s.filterMessages(func(m *models.DirectMessage) bool {
		return (m.SenderID == accountID || m.RecipientID == accountID) && !m.IsDeleted &&
			strings.Contains(strings.ToLower(m.Content), needle)
	})
	newestFirst(matched)
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *Store) MarkConversationRead(ctx context.Context, conversationKey, reader, sender string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var modified int64
	for _, m := range s.messages {
		if m.ConversationID == conversationKey && m.RecipientID == reader && m.SenderID == sender && !m.IsRead {
			readAt := at
			m.IsRead = true
			m.ReadAt = &readAt
			m.UpdatedAt = at
			modified++
		}
	}
	if conv, ok := s.conversations[conversationKey]; ok {
		conv.UnreadCount[reader] = 0
	}
	return modified, nil
}

// Mentorship requests

func (s *Store) CreateRequest(ctx context.Context, request *models.MentorshipRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *request
	s.requests[request.ID] = &copied
	return nil
}

func (s *Store) FindActiveRequest(ctx context.Context, studentID, mentorID string) (*models.MentorshipRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.requests {
		if r.StudentID == studentID && r.MentorID == mentorID &&
			(r.Status == models.MentorshipPending || r.Status == models.MentorshipAccepted) {
			copied := *r
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *Store) TransitionRequest(ctx context.Context, requestID, mentorID string, to models.MentorshipStatus, at time.Time) (*models.MentorshipRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[requestID]
	if !ok || r.MentorID != mentorID || r.Status != models.MentorshipPending {
		return nil, utils.NewNotFoundError("Pending request not found")
	}
	r.Status = to
	r.UpdatedAt = at
	copied := *r
	return &copied, nil
}

func (s *Store) ListRequests(ctx context.Context, filter database.RequestFilter) ([]*models.MentorshipRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := []*models.MentorshipRequest{}
	for _, r := range s.requests {
		if filter.MentorID != "" && r.MentorID != filter.MentorID {
			continue
		}
		if filter.StudentID != "" && r.StudentID != filter.StudentID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		copied := *r
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *Store) HasRequestBetween(ctx context.Context, a, b string, status models.MentorshipStatus) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.requests {
		if r.Status != status {
			continue
		}
		if (r.MentorID == a && r.StudentID == b) || (r.MentorID == b && r.StudentID == a) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) AcceptedPartners(ctx context.Context, accountID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool)
	partners := []string{}
	for _, r := range s.requests {
		if r.Status != models.MentorshipAccepted {
			continue
		}
		var other string
		switch accountID {
		case r.MentorID:
			other = r.StudentID
		case r.StudentID:
			other = r.MentorID
		default:
			continue
		}
		if !seen[other] {
			seen[other] = true
			partners = append(partners, other)
		}
	}
	sort.Strings(partners)
	return partners, nil
}

// Notifications

func (s *Store) CreateNotification(ctx context.Context, notification *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *notification
	s.notifications = append(s.notifications, &copied)
	return nil
}

func (s *Store) ListNotifications(ctx context.Context, userID string, limit int) ([]*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := []*models.Notification{}
	for i := len(s.notifications) - 1; i >= 0 && len(result) < limit; i-- {
		if n := s.notifications[i]; n.UserID == userID {
			copied := *n
			result = append(result, &copied)
		}
	}
	return result, nil
}

// filterMessages must be called with s.mu held.
func (s *Store) filterMessages(keep func(*models.DirectMessage) bool) []*models.DirectMessage {
	result := []*models.DirectMessage{}
	for _, m := range s.messages {
		if keep(m) {
			result = append(result, cloneMessage(m))
		}
	}
	return result
}

func newestFirst(messages []*models.DirectMessage) {
	sort.Slice(messages, func(i, j int) bool {
		if messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].ID > messages[j].ID
		}
		return messages[i].CreatedAt.After(messages[j].CreatedAt)
	})
}

func cloneConversation(c *models.Conversation) *models.Conversation {
	copied := *c
	copied.Participants = append([]string(nil), c.Participants...)
	copied.UnreadCount = make(map[string]int, len(c.UnreadCount))
	for k, v := range c.UnreadCount {
		copied.UnreadCount[k] = v
	}
	copied.IsArchived = make(map[string]bool, len(c.IsArchived))
	for k, v := range c.IsArchived {
		copied.IsArchived[k] = v
	}
	if c.LastMessage != nil {
		last := *c.LastMessage
		copied.LastMessage = &last
	}
	return &copied
}

func cloneMessage(m *models.DirectMessage) *models.DirectMessage {
	copied := *m
	copied.Attachments = append([]models.Attachment{}, m.Attachments...)
	copied.DeletedBy = models.NewDeletionSet(m.DeletedBy.IDs()...)
	if m.ReadAt != nil {
		readAt := *m.ReadAt
		copied.ReadAt = &readAt
	}
	return &copied
}
