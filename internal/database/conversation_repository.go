// internal/database/conversation_repository.go
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

// conversationSeed is the document written only when the pair has no conversation yet.
func conversationSeed(participants []string, now time.Time) bson.M {
	unread := bson.M{}
	archived := bson.M{}
	for _, p := range participants {
		unread[p] = 0
		archived[p] = false
	}
	return bson.M{
		"participants":  participants,
		"unreadCount":   unread,
		"isArchived":    archived,
		"lastMessageAt": now,
		"createdAt":     now,
		"updatedAt":     now,
	}
}

// recordSendUpdate denormalizes msg onto its conversation and bumps the
// recipient's counter. A new message un-archives the thread for both sides.
func recordSendUpdate(msg *models.DirectMessage) bson.M {
	return bson.M{
		"$set": bson.M{
			"lastMessage": models.LastMessage{
				Content:     msg.Preview(),
				SenderID:    msg.SenderID,
				CreatedAt:   msg.CreatedAt,
				MessageType: msg.MessageType,
			},
			"lastMessageAt":                 msg.CreatedAt,
			"updatedAt":                     msg.CreatedAt,
			"isArchived." + msg.SenderID:    false,
			"isArchived." + msg.RecipientID: false,
		},
		"$inc": bson.M{"unreadCount." + msg.RecipientID: 1},
	}
}

// listConversationsFilter matches the account's conversations with one of
// the given partners that the account has not archived.
func listConversationsFilter(accountID string, partners []string) bson.M {
	return bson.M{
		"$and": bson.A{
			bson.M{"participants": accountID},
			bson.M{"participants": bson.M{"$in": partners}},
		},
		"isArchived." + accountID: bson.M{"$ne": true},
	}
}

func unreadTotalPipeline(accountID string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"participants": accountID}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": bson.M{"$ifNull": bson.A{"$unreadCount." + accountID, 0}}},
		}}},
	}
}

// FindOrCreateConversation returns the conversation stored under key,
// inserting it first if needed. Two racing upserts on the same _id leave one
// winner; the loser reads the winner's document.
func (m *MongoDB) FindOrCreateConversation(ctx context.Context, key string, participants []string, now time.Time) (*models.Conversation, error) {
	filter := bson.M{"_id": key}
	update := bson.M{"$setOnInsert": conversationSeed(participants, now)}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var conv models.Conversation
	err := m.Conversations.FindOneAndUpdate(ctx, filter, update, opts).Decode(&conv)
	if mongo.IsDuplicateKeyError(err) {
		err = m.Conversations.FindOne(ctx, filter).Decode(&conv)
	}
	if err != nil {
		return nil, utils.NewDatabaseError("failed to resolve conversation", err)
	}
	return &conv, nil
}

func (m *MongoDB) GetConversation(ctx context.Context, key string) (*models.Conversation, error) {
	var conv models.Conversation
	err := m.Conversations.FindOne(ctx, bson.M{"_id": key}).Decode(&conv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NewNotFoundError("Conversation not found")
	}
	if err != nil {
		return nil, utils.NewDatabaseError("failed to get conversation", err)
	}
	return &conv, nil
}

// ListConversations returns the account's conversations with the given
// partners, newest activity first.
func (m *MongoDB) ListConversations(ctx context.Context, accountID string, partners []string, limit int) ([]*models.Conversation, error) {
	if len(partners) == 0 {
		return []*models.Conversation{}, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "lastMessageAt", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := m.Conversations.Find(ctx, listConversationsFilter(accountID, partners), opts)
	if err != nil {
		return nil, utils.NewDatabaseError("failed to list conversations", err)
	}
	defer cursor.Close(ctx)

	conversations := []*models.Conversation{}
	if err := cursor.All(ctx, &conversations); err != nil {
		return nil, utils.NewDatabaseError("failed to decode conversations", err)
	}
	return conversations, nil
}

// SetArchived flips the account's own archive flag on the conversation.
func (m *MongoDB) SetArchived(ctx context.Context, key, accountID string, archived bool) error {
	filter := bson.M{"_id": key, "participants": accountID}
	update := bson.M{"$set": bson.M{"isArchived." + accountID: archived}}

	result, err := m.Conversations.UpdateOne(ctx, filter, update)
	if err != nil {
		return utils.NewDatabaseError("failed to archive conversation", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewNotFoundError("Conversation not found")
	}
	return nil
}

// UnreadTotal sums the account's counter over every conversation it is part of.
func (m *MongoDB) UnreadTotal(ctx context.Context, accountID string) (int, error) {
	cursor, err := m.Conversations.Aggregate(ctx, unreadTotalPipeline(accountID))
	if err != nil {
		return 0, utils.NewDatabaseError("failed to count unread messages", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total int `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, utils.NewDatabaseError("failed to decode unread count", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}
