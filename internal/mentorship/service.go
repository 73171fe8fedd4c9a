// Package mentorship owns the request lifecycle that gates messaging:
// pending -> accepted | rejected, with no transitions out of either end.
package mentorship

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mentorlink/internal/database"
	"mentorlink/internal/messaging"
	"mentorlink/internal/models"
	"mentorlink/internal/utils"

	"github.com/google/uuid"
)

type Store interface {
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	CreateRequest(ctx context.Context, request *models.MentorshipRequest) error
	FindActiveRequest(ctx context.Context, studentID, mentorID string) (*models.MentorshipRequest, error)
	TransitionRequest(ctx context.Context, requestID, mentorID string, to models.MentorshipStatus, at time.Time) (*models.MentorshipRequest, error)
	ListRequests(ctx context.Context, filter database.RequestFilter) ([]*models.MentorshipRequest, error)
	HasRequestBetween(ctx context.Context, a, b string, status models.MentorshipStatus) (bool, error)
}

type Service struct {
	store         Store
	notifications messaging.NotificationSink
	logger        *slog.Logger
	now           func() time.Time
}

func NewService(store Store, notifications messaging.NotificationSink, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:         store,
		notifications: notifications,
		logger:        logger.With("component", "mentorship"),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Submit files a pending request from studentID to mentorID. Only one
// pending or accepted request may exist per student and mentor.
func (s *Service) Submit(ctx context.Context, studentID, mentorID, message string) (*models.MentorshipRequest, error) {
	if err := messaging.ValidateAccountID(studentID, "user id"); err != nil {
		return nil, err
	}
	if err := messaging.ValidateAccountID(mentorID, "mentor id"); err != nil {
		return nil, err
	}
	if studentID == mentorID {
		return nil, utils.NewValidationError("You cannot request mentorship from yourself")
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, utils.NewValidationError("Please provide all required fields")
	}

	mentor, err := s.store.GetAccount(ctx, mentorID)
	if err != nil && !utils.IsErrorCode(err, utils.ErrNotFound) {
		return nil, err
	}
	if mentor == nil || mentor.Role != models.RoleMentor {
		return nil, utils.NewNotFoundError("Mentor not found")
	}

	existing, err := s.store.FindActiveRequest(ctx, studentID, mentorID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, utils.NewAppError(utils.ErrConflict, "You already have a pending or accepted request with this mentor", nil)
	}

	now := s.now()
	request := &models.MentorshipRequest{
		ID:        uuid.NewString(),
		StudentID: studentID,
		MentorID:  mentorID,
		Status:    models.MentorshipPending,
		Message:   message,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateRequest(ctx, request); err != nil {
		return nil, err
	}

	s.notify(ctx, &models.Notification{
		UserID:  mentorID,
		Type:    models.NotificationRequest,
		Title:   "New Mentorship Request",
		Message: fmt.Sprintf("%s sent you a mentorship request", s.displayName(ctx, studentID)),
		Link:    "/requests",
		Icon:    "user-plus",
		Data:    map[string]interface{}{"requestId": request.ID},
	})
	return request, nil
}

// Accept moves a pending request addressed to mentorID to accepted, which
// opens messaging between the pair.
func (s *Service) Accept(ctx context.Context, mentorID, requestID string) (*models.MentorshipRequest, error) {
	request, err := s.store.TransitionRequest(ctx, requestID, mentorID, models.MentorshipAccepted, s.now())
	if err != nil {
		return nil, err
	}
	s.notify(ctx, &models.Notification{
		UserID:  request.StudentID,
		Type:    models.NotificationConnection,
		Title:   "Request Accepted",
		Message: fmt.Sprintf("%s accepted your mentorship request", s.displayName(ctx, mentorID)),
		Link:    "/messages/" + mentorID,
		Icon:    "check",
		Data:    map[string]interface{}{"requestId": request.ID},
	})
	return request, nil
}

func (s *Service) Reject(ctx context.Context, mentorID, requestID string) (*models.MentorshipRequest, error) {
	return s.store.TransitionRequest(ctx, requestID, mentorID, models.MentorshipRejected, s.now())
}

// Status summarizes the connection between the requester and otherID.
func (s *Service) Status(ctx context.Context, accountID, otherID string) (*models.ConnectionStatus, error) {
	if err := messaging.ValidateAccountID(otherID, "user id"); err != nil {
		return nil, err
	}
	accepted, err := s.store.HasRequestBetween(ctx, accountID, otherID, models.MentorshipAccepted)
	if err != nil {
		return nil, err
	}
	pending, err := s.store.HasRequestBetween(ctx, accountID, otherID, models.MentorshipPending)
	if err != nil {
		return nil, err
	}

	status := "none"
	switch {
	case accepted:
		status = string(models.MentorshipAccepted)
	case pending:
		status = string(models.MentorshipPending)
	}
	return &models.ConnectionStatus{
		CanMessage:            accepted,
		HasAcceptedConnection: accepted,
		HasPendingRequest:     pending,
		ConnectionStatus:      status,
	}, nil
}

// Incoming lists requests addressed to mentorID, newest first.
func (s *Service) Incoming(ctx context.Context, mentorID string, status models.MentorshipStatus) ([]*models.MentorshipRequest, error) {
	if err := validateStatus(status); err != nil {
		return nil, err
	}
	return s.store.ListRequests(ctx, database.RequestFilter{MentorID: mentorID, Status: status})
}

// Outgoing lists requests studentID has made, newest first.
func (s *Service) Outgoing(ctx context.Context, studentID string, status models.MentorshipStatus) ([]*models.MentorshipRequest, error) {
	if err := validateStatus(status); err != nil {
		return nil, err
	}
	return s.store.ListRequests(ctx, database.RequestFilter{StudentID: studentID, Status: status})
}

func validateStatus(status models.MentorshipStatus) error {
	switch status {
	case "", models.MentorshipPending, models.MentorshipAccepted, models.MentorshipRejected:
		return nil
	}
	return utils.NewValidationError("invalid status: " + string(status))
}

func (s *Service) displayName(ctx context.Context, accountID string) string {
	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return (*models.Account)(nil).DisplayName()
	}
	return account.DisplayName()
}

// notify is best-effort; the request change is already committed.
func (s *Service) notify(ctx context.Context, n *models.Notification) {
	if s.notifications == nil {
		return
	}
	n.ID = uuid.NewString()
	n.CreatedAt = s.now()
	if err := s.notifications.CreateNotification(ctx, n); err != nil {
		s.logger.Warn("failed to record notification", "type", n.Type, "user", n.UserID, "error", err)
	}
}
