package messaging

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"mentorlink/internal/models"
	"mentorlink/internal/utils"

	"github.com/google/uuid"
)

const (
	DefaultThreadLimit = 50
	MaxThreadLimit     = 100
	ConversationLimit  = 50
	SearchLimit        = 50
)

// Store is everything the messaging core reads and writes.
type Store interface {
	ConnectionStore

	GetAccount(ctx context.Context, id string) (*models.Account, error)
	GetAccounts(ctx context.Context, ids []string) (map[string]*models.Account, error)

	FindOrCreateConversation(ctx context.Context, key string, participants []string, now time.Time) (*models.Conversation, error)
	ListConversations(ctx context.Context, accountID string, partners []string, limit int) ([]*models.Conversation, error)
	SetArchived(ctx context.Context, key, accountID string, archived bool) error
	UnreadTotal(ctx context.Context, accountID string) (int, error)

	AppendMessage(ctx context.Context, message *models.DirectMessage) error
	ListMessages(ctx context.Context, conversationKey string, limit int, before *time.Time) ([]*models.DirectMessage, error)
	GetMessage(ctx context.Context, messageID string) (*models.DirectMessage, error)
	AddDeletion(ctx context.Context, messageID, accountID string, at time.Time) (*models.DirectMessage, error)
	SearchMessages(ctx context.Context, accountID, query string, limit int) ([]*models.DirectMessage, error)
	MarkConversationRead(ctx context.Context, conversationKey, reader, sender string, at time.Time) (int64, error)
}

type SendInput struct {
	SenderID    string
	RecipientID string
	Content     string
	MessageType models.MessageType
	Attachments []models.Attachment
}

// ConversationSummary is one row of a conversation listing, seen from the requester.
type ConversationSummary struct {
	Conversation *models.Conversation
	OtherUser    *models.Account
	UnreadCount  int
}

// Thread is one page of a conversation, oldest first. HasMore is a
// heuristic: it is true whenever the page came back full, so a final "load
// more" may return nothing.
type Thread struct {
	Messages []*models.DirectMessage
	Accounts map[string]*models.Account
	HasMore  bool
}

type SearchResult struct {
	Messages []*models.DirectMessage
	Accounts map[string]*models.Account
}

// Service is the messaging API surface.
type Service struct {
	store     Store
	gate      *Gate
	sendHooks []SendHook
	readHooks []ReadHook
	metrics   *utils.MetricsCollector
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(store Store, metrics *utils.MetricsCollector, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   store,
		gate:    NewGate(store),
		metrics: metrics,
		logger:  logger.With("component", "messaging"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// OnSend appends post-commit hooks for sent messages.
func (s *Service) OnSend(hooks ...SendHook) {
	s.sendHooks = append(s.sendHooks, hooks...)
}

// OnRead appends post-commit hooks for read receipts.
func (s *Service) OnRead(hooks ...ReadHook) {
	s.readHooks = append(s.readHooks, hooks...)
}

func (s *Service) Gate() *Gate { return s.gate }

func validateSend(in *SendInput) error {
	if err := validatePair(in.SenderID, in.RecipientID, "recipient"); err != nil {
		return err
	}
	if in.MessageType == "" {
		in.MessageType = models.MessageTypeText
	}
	if !in.MessageType.Valid() {
		return utils.NewValidationError("invalid message type: " + string(in.MessageType))
	}
	if in.MessageType == models.MessageTypeText && strings.TrimSpace(in.Content) == "" {
		return utils.NewValidationError("Message content is required for text messages")
	}
	if in.MessageType != models.MessageTypeText && len(in.Attachments) == 0 {
		return utils.NewValidationError("At least one attachment is required for " + string(in.MessageType) + " messages")
	}
	return nil
}

func (s *Service) requireConnection(ctx context.Context, a, b string) error {
	ok, err := s.gate.IsAuthorized(ctx, a, b)
	if err != nil {
		return err
	}
	if !ok {
		return utils.NewNoMentorshipConnectionError("You can only message users you have an accepted mentorship connection with")
	}
	return nil
}

// Send authorizes, stores and announces a new message.
func (s *Service) Send(ctx context.Context, in SendInput) (*SentMessage, error) {
	start := time.Now()
	defer func() { s.observe("send_message", start) }()

	if err := validateSend(&in); err != nil {
		return nil, err
	}

	recipient, err := s.store.GetAccount(ctx, in.RecipientID)
	if err != nil {
		if utils.IsErrorCode(err, utils.ErrNotFound) {
			return nil, utils.NewNotFoundError("Recipient not found")
		}
		return nil, err
	}
	if err := s.requireConnection(ctx, in.SenderID, in.RecipientID); err != nil {
		return nil, err
	}

	now := s.now()
	key := ConversationKey(in.SenderID, in.RecipientID)
	conv, err := s.store.FindOrCreateConversation(ctx, key, Participants(in.SenderID, in.RecipientID), now)
	if err != nil {
		return nil, err
	}

	attachments := in.Attachments
	if attachments == nil {
		attachments = []models.Attachment{}
	}
	msg := &models.DirectMessage{
		ID:             uuid.NewString(),
		ConversationID: key,
		SenderID:       in.SenderID,
		RecipientID:    in.RecipientID,
		Content:        strings.TrimSpace(in.Content),
		MessageType:    in.MessageType,
		Attachments:    attachments,
		DeletedBy:      models.NewDeletionSet(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}

	sender, err := s.store.GetAccount(ctx, in.SenderID)
	if err != nil {
		s.logger.Warn("sender profile unavailable", "sender", in.SenderID, "error", err)
		sender = &models.Account{ID: in.SenderID}
	}

	sent := &SentMessage{Message: msg, Conversation: conv, Sender: sender, Recipient: recipient}
	for _, hook := range s.sendHooks {
		if err := hook.Run(ctx, sent); err != nil {
			s.hookFailed(hook.Name, err, "message", msg.ID)
		}
	}
	return sent, nil
}

// ListConversations returns the requester's visible conversations, newest
// activity first. Pairs without an accepted connection are left out.
func (s *Service) ListConversations(ctx context.Context, accountID string) ([]ConversationSummary, error) {
	if err := ValidateAccountID(accountID, "user id"); err != nil {
		return nil, err
	}

	partners, err := s.gate.AuthorizedPartners(ctx, accountID)
	if err != nil {
		return nil, err
	}
	convs, err := s.store.ListConversations(ctx, accountID, partners, ConversationLimit)
	if err != nil {
		return nil, err
	}

	others := make([]string, 0, len(convs))
	for _, c := range convs {
		others = append(others, c.OtherParticipant(accountID))
	}
	accounts, err := s.store.GetAccounts(ctx, others)
	if err != nil {
		return nil, err
	}

	summaries := make([]ConversationSummary, 0, len(convs))
	for _, c := range convs {
		other := c.OtherParticipant(accountID)
		account, ok := accounts[other]
		if !ok {
			account = &models.Account{ID: other}
		}
		summaries = append(summaries, ConversationSummary{
			Conversation: c,
			OtherUser:    account,
			UnreadCount:  c.UnreadFor(accountID),
		})
	}
	return summaries, nil
}

// Thread returns up to limit messages exchanged with otherID, older than
// before when set. limit <= 0 means the default page size.
func (s *Service) Thread(ctx context.Context, accountID, otherID string, limit int, before *time.Time) (*Thread, error) {
	if err := validatePair(accountID, otherID, "recipient"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultThreadLimit
	}
	if limit > MaxThreadLimit {
		limit = MaxThreadLimit
	}
	if err := s.requireConnection(ctx, accountID, otherID); err != nil {
		return nil, err
	}

	messages, err := s.store.ListMessages(ctx, ConversationKey(accountID, otherID), limit, before)
	if err != nil {
		return nil, err
	}
	accounts, err := s.store.GetAccounts(ctx, []string{accountID, otherID})
	if err != nil {
		return nil, err
	}
	return &Thread{
		Messages: messages,
		Accounts: accounts,
		HasMore:  len(messages) == limit,
	}, nil
}

// MarkRead marks everything otherID sent to readerID as read and resets
// readerID's counter. Returns the number of messages that changed.
func (s *Service) MarkRead(ctx context.Context, readerID, otherID string) (int64, error) {
	if err := validatePair(readerID, otherID, "recipient"); err != nil {
		return 0, err
	}

	now := s.now()
	key := ConversationKey(readerID, otherID)
	count, err := s.store.MarkConversationRead(ctx, key, readerID, otherID, now)
	if err != nil {
		return 0, err
	}

	receipt := &ReadReceipt{ConversationID: key, ReaderID: readerID, SenderID: otherID, Count: count, At: now}
	for _, hook := range s.readHooks {
		if err := hook.Run(ctx, receipt); err != nil {
			s.hookFailed(hook.Name, err, "conversation", key)
		}
	}
	return count, nil
}

// Delete records the requester's deletion of a message they sent. The
// message disappears once both participants have deleted it.
func (s *Service) Delete(ctx context.Context, requesterID, messageID string) (*models.DirectMessage, error) {
	if strings.TrimSpace(messageID) == "" {
		return nil, utils.NewValidationError("message id is required")
	}
	msg, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != requesterID {
		return nil, utils.NewForbiddenError("You can only delete your own messages")
	}
	return s.store.AddDeletion(ctx, messageID, requesterID, s.now())
}

func (s *Service) UnreadCount(ctx context.Context, accountID string) (int, error) {
	if err := ValidateAccountID(accountID, "user id"); err != nil {
		return 0, err
	}
	return s.store.UnreadTotal(ctx, accountID)
}

// Search matches query literally and case-insensitively against the
// account's visible messages. A blank query returns nothing without a lookup.
func (s *Service) Search(ctx context.Context, accountID, query string) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &SearchResult{Messages: []*models.DirectMessage{}, Accounts: map[string]*models.Account{}}, nil
	}
	if err := ValidateAccountID(accountID, "user id"); err != nil {
		return nil, err
	}

	messages, err := s.store.SearchMessages(ctx, accountID, query, SearchLimit)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	ids := []string{}
	for _, m := range messages {
		for _, id := range []string{m.SenderID, m.RecipientID} {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	accounts, err := s.store.GetAccounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	return &SearchResult{Messages: messages, Accounts: accounts}, nil
}

// Archive sets the requester's own archive flag on the conversation with otherID.
func (s *Service) Archive(ctx context.Context, accountID, otherID string, archived bool) error {
	if err := validatePair(accountID, otherID, "recipient"); err != nil {
		return err
	}
	return s.store.SetArchived(ctx, ConversationKey(accountID, otherID), accountID, archived)
}

func (s *Service) hookFailed(name string, err error, attrs ...any) {
	s.logger.Warn("post-commit hook failed", append([]any{"hook", name, "error", err}, attrs...)...)
	if s.metrics != nil {
		s.metrics.IncrementErrors(name)
	}
}

func (s *Service) observe(operation string, start time.Time) {
	if s.metrics != nil {
		s.metrics.AddOperationLatency(operation, time.Since(start))
	}
}
