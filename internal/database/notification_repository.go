package database

import (
	"context"

	"mentorlink/internal/models"
	"mentorlink/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (m *MongoDB) CreateNotification(ctx context.Context, notification *models.Notification) error {
	if _, err := m.Notifications.InsertOne(ctx, notification); err != nil {
		return utils.NewDatabaseError("failed to save notification", err)
	}
	return nil
}

// ListNotifications returns the account's newest notifications.
func (m *MongoDB) ListNotifications(ctx context.Context, userID string, limit int) ([]*models.Notification, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := m.Notifications.Find(ctx, bson.M{"user": userID}, opts)
	if err != nil {
		return nil, utils.NewDatabaseError("failed to list notifications", err)
	}
	defer cursor.Close(ctx)

	notifications := []*models.Notification{}
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, utils.NewDatabaseError("failed to decode notifications", err)
	}
	return notifications, nil
}
