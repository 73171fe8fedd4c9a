// internal/database/mentorship_repository.go
package database

import (
	"context"
	"errors"
	"time"

	"mentorlink/internal/models"
	"mentorlink/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RequestFilter narrows request listings. Empty fields match anything.
type RequestFilter struct {
	MentorID  string
	StudentID string
	Status    models.MentorshipStatus
}

func (f RequestFilter) bson() bson.M {
	filter := bson.M{}
	if f.MentorID != "" {
		filter["mentor"] = f.MentorID
	}
	if f.StudentID != "" {
		filter["student"] = f.StudentID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	return filter
}

// pairStatusFilter matches a request between a and b in the given status,
// whichever of the two is the mentor.
func pairStatusFilter(a, b string, status models.MentorshipStatus) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"mentor": a, "student": b, "status": status},
		bson.M{"mentor": b, "student": a, "status": status},
	}}
}

func activeRequestFilter(studentID, mentorID string) bson.M {
	return bson.M{
		"student": studentID,
		"mentor":  mentorID,
		"status":  bson.M{"$in": bson.A{models.MentorshipPending, models.MentorshipAccepted}},
	}
}

func (m *MongoDB) CreateRequest(ctx context.Context, request *models.MentorshipRequest) error {
	if _, err := m.Requests.InsertOne(ctx, request); err != nil {
		return utils.NewDatabaseError("failed to save mentorship request", err)
	}
	return nil
}

// FindActiveRequest returns the pending or accepted request from studentID
// to mentorID, or nil when there is none.
func (m *MongoDB) FindActiveRequest(ctx context.Context, studentID, mentorID string) (*models.MentorshipRequest, error) {
	var request models.MentorshipRequest
	err := m.Requests.FindOne(ctx, activeRequestFilter(studentID, mentorID)).Decode(&request)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, utils.NewDatabaseError("failed to get mentorship request", err)
	}
	return &request, nil
}

// TransitionRequest moves a pending request addressed to mentorID into status to.
func (m *MongoDB) TransitionRequest(ctx context.Context, requestID, mentorID string, to models.MentorshipStatus, at time.Time) (*models.MentorshipRequest, error) {
	filter := bson.M{"_id": requestID, "mentor": mentorID, "status": models.MentorshipPending}
	update := bson.M{"$set": bson.M{"status": to, "updatedAt": at}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var request models.MentorshipRequest
	err := m.Requests.FindOneAndUpdate(ctx, filter, update, opts).Decode(&request)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NewNotFoundError("Pending request not found")
	}
	if err != nil {
		return nil, utils.NewDatabaseError("failed to update mentorship request", err)
	}
	return &request, nil
}

func (m *MongoDB) ListRequests(ctx context.Context, filter RequestFilter) ([]*models.MentorshipRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := m.Requests.Find(ctx, filter.bson(), opts)
	if err != nil {
		return nil, utils.NewDatabaseError("failed to list mentorship requests", err)
	}
	defer cursor.Close(ctx)

	requests := []*models.MentorshipRequest{}
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, utils.NewDatabaseError("failed to decode mentorship requests", err)
	}
	return requests, nil
}

// HasRequestBetween reports whether a request in status exists between a and b in either direction.
func (m *MongoDB) HasRequestBetween(ctx context.Context, a, b string, status models.MentorshipStatus) (bool, error) {
	n, err := m.Requests.CountDocuments(ctx, pairStatusFilter(a, b, status), options.Count().SetLimit(1))
	if err != nil {
		return false, utils.NewDatabaseError("failed to check mentorship connection", err)
	}
	return n > 0, nil
}

// AcceptedPartners lists every account holding an accepted connection with accountID.
func (m *MongoDB) AcceptedPartners(ctx context.Context, accountID string) ([]string, error) {
	filter := bson.M{
		"status": models.MentorshipAccepted,
		"$or": bson.A{
			bson.M{"mentor": accountID},
			bson.M{"student": accountID},
		},
	}
	opts := options.Find().SetProjection(bson.M{"mentor": 1, "student": 1})
	cursor, err := m.Requests.Find(ctx, filter, opts)
	if err != nil {
		return nil, utils.NewDatabaseError("failed to list mentorship connections", err)
	}
	defer cursor.Close(ctx)

	var requests []models.MentorshipRequest
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, utils.NewDatabaseError("failed to decode mentorship connections", err)
	}
	return partnersOf(accountID, requests), nil
}

func partnersOf(accountID string, requests []models.MentorshipRequest) []string {
	seen := make(map[string]bool, len(requests))
	partners := make([]string, 0, len(requests))
	for _, r := range requests {
		other := r.MentorID
		if other == accountID {
			other = r.StudentID
		}
		if other == accountID || seen[other] {
			continue
		}
		seen[other] = true
		partners = append(partners, other)
	}
	return partners
}
