package messaging

import (
	"context"

	"mentorlink/internal/models"
)

// ConnectionStore is the read side of the mentorship request store.
type ConnectionStore interface {
	HasRequestBetween(ctx context.Context, a, b string, status models.MentorshipStatus) (bool, error)
	AcceptedPartners(ctx context.Context, accountID string) ([]string, error)
}

// Gate decides whether two accounts may exchange messages: only while an
// accepted mentorship connection exists between them, in either direction.
type Gate struct {
	connections ConnectionStore
}

func NewGate(connections ConnectionStore) *Gate {
	return &Gate{connections: connections}
}

// IsAuthorized is a pure read. A missing connection yields false, not an error.
func (g *Gate) IsAuthorized(ctx context.Context, a, b string) (bool, error) {
	return g.connections.HasRequestBetween(ctx, a, b, models.MentorshipAccepted)
}

// AuthorizedPartners lists every account accountID may currently message.
func (g *Gate) AuthorizedPartners(ctx context.Context, accountID string) ([]string, error) {
	return g.connections.AcceptedPartners(ctx, accountID)
}
