package models

import "time"

type MentorshipStatus string

const (
	MentorshipPending  MentorshipStatus = "pending"
	MentorshipAccepted MentorshipStatus = "accepted"
	MentorshipRejected MentorshipStatus = "rejected"
)

// Terminal reports whether no further transitions are allowed.
func (s MentorshipStatus) Terminal() bool {
	return s == MentorshipAccepted || s == MentorshipRejected
}

// MentorshipRequest is a student's request to a mentor. Only an accepted
// request authorizes the pair to exchange messages.
type MentorshipRequest struct {
	ID        string           `json:"_id" bson:"_id"`
	StudentID string           `json:"student" bson:"student"`
	MentorID  string           `json:"mentor" bson:"mentor"`
	Status    MentorshipStatus `json:"status" bson:"status"`
	Message   string           `json:"message" bson:"message"`
	CreatedAt time.Time        `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt" bson:"updatedAt"`
}

// ConnectionStatus summarizes the mentorship state between two accounts.
type ConnectionStatus struct {
	CanMessage            bool   `json:"canMessage"`
	HasAcceptedConnection bool   `json:"hasAcceptedConnection"`
	HasPendingRequest     bool   `json:"hasPendingRequest"`
	ConnectionStatus      string `json:"connectionStatus"`
}
