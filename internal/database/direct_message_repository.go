package database

import (
	"context"
	"errors"
	"regexp"
	"time"

	"mentorlink/internal/models"
	"mentorlink/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// threadFilter selects the visible messages of a conversation, optionally
// only those older than before.
func threadFilter(conversationKey string, before *time.Time) bson.M {
	filter := bson.M{
		"conversationId": conversationKey,
		"isDeleted":      false,
	}
	if before != nil {
		filter["createdAt"] = bson.M{"$lt": *before}
	}
	return filter
}

// unreadFromFilter selects what reader has not yet read from sender in the conversation.
func unreadFromFilter(conversationKey, reader, sender string) bson.M {
	return bson.M{
		"conversationId": conversationKey,
		"recipient":      reader,
		"sender":         sender,
		"isRead":         false,
	}
}

// searchFilter is a case-insensitive literal substring match over the
// account's visible messages.
func searchFilter(accountID, query string) bson.M {
	return bson.M{
		"$or": bson.A{
			bson.M{"sender": accountID},
			bson.M{"recipient": accountID},
		},
		"isDeleted": false,
		"content":   primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"},
	}
}

// deletionFilter matches the message while accountID can still be added to
// its deletion set, or is already in it.
func deletionFilter(messageID, accountID string) bson.M {
	return bson.M{
		"_id": messageID,
		"$or": bson.A{
			bson.M{"deletedBy": accountID},
			bson.M{"deletedBy.1": bson.M{"$exists": false}},
		},
	}
}

// deletionUpdate adds accountID to deletedBy and recomputes isDeleted from
// the resulting set size in the same write.
func deletionUpdate(accountID string, at time.Time) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"deletedBy": bson.M{"$setUnion": bson.A{
				bson.M{"$ifNull": bson.A{"$deletedBy", bson.A{}}},
				bson.A{bson.M{"$literal": accountID}},
			}},
			"updatedAt": at,
		}}},
		{{Key: "$set", Value: bson.M{
			"isDeleted": bson.M{"$gte": bson.A{bson.M{"$size": "$deletedBy"}, models.DeletionCapacity}},
		}}},
	}
}

func (m *MongoDB) insertMessage(ctx context.Context, message *models.DirectMessage) error {
	if message.Attachments == nil {
		message.Attachments = []models.Attachment{}
	}
	if _, err := m.Messages.InsertOne(ctx, message); err != nil {
		return utils.NewDatabaseError("failed to save message", err)
	}
	return nil
}

// AppendMessage stores the message and then records it on its conversation.
// The two writes are separate; a failure in the second leaves the message
// stored with a stale counter.
func (m *MongoDB) AppendMessage(ctx context.Context, message *models.DirectMessage) error {
	if err := m.insertMessage(ctx, message); err != nil {
		return err
	}

	result, err := m.Conversations.UpdateOne(ctx, bson.M{"_id": message.ConversationID}, recordSendUpdate(message))
	if err != nil {
		return utils.NewDatabaseError("failed to update conversation", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewNotFoundError("Conversation not found")
	}
	return nil
}

// ListMessages returns up to limit visible messages of a conversation,
// oldest first.
func (m *MongoDB) ListMessages(ctx context.Context, conversationKey string, limit int, before *time.Time) ([]*models.DirectMessage, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	messages, err := m.findMessages(ctx, threadFilter(conversationKey, before), opts)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (m *MongoDB) GetMessage(ctx context.Context, messageID string) (*models.DirectMessage, error) {
	var message models.DirectMessage
	err := m.Messages.FindOne(ctx, bson.M{"_id": messageID}).Decode(&message)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NewNotFoundError("Message not found")
	}
	if err != nil {
		return nil, utils.NewDatabaseError("failed to get message", err)
	}
	return &message, nil
}

// AddDeletion records accountID in the message's deletion set. Adding an
// account twice changes nothing.
func (m *MongoDB) AddDeletion(ctx context.Context, messageID, accountID string, at time.Time) (*models.DirectMessage, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var message models.DirectMessage
	err := m.Messages.FindOneAndUpdate(ctx, deletionFilter(messageID, accountID), deletionUpdate(accountID, at), opts).Decode(&message)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Either unknown or its set is already full without accountID.
		return m.GetMessage(ctx, messageID)
	}
	if err != nil {
		return nil, utils.NewDatabaseError("failed to delete message", err)
	}
	return &message, nil
}

// SearchMessages returns the account's newest matching messages.
func (m *MongoDB) SearchMessages(ctx context.Context, accountID, query string, limit int) ([]*models.DirectMessage, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))
	return m.findMessages(ctx, searchFilter(accountID, query), opts)
}

// MarkConversationRead marks what reader received from sender as read and
// resets reader's counter on the conversation. Both sources of unread state
// change only through here.
func (m *MongoDB) MarkConversationRead(ctx context.Context, conversationKey, reader, sender string, at time.Time) (int64, error) {
	update := bson.M{"$set": bson.M{"isRead": true, "readAt": at, "updatedAt": at}}
	result, err := m.Messages.UpdateMany(ctx, unreadFromFilter(conversationKey, reader, sender), update)
	if err != nil {
		return 0, utils.NewDatabaseError("failed to mark messages as read", err)
	}

	reset := bson.M{"$set": bson.M{"unreadCount." + reader: 0}}
	if _, err := m.Conversations.UpdateOne(ctx, bson.M{"_id": conversationKey}, reset); err != nil {
		return result.ModifiedCount, utils.NewDatabaseError("failed to reset unread count", err)
	}
	return result.ModifiedCount, nil
}

func (m *MongoDB) findMessages(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.DirectMessage, error) {
	cursor, err := m.Messages.Find(ctx, filter, opts)
	if err != nil {
		return nil, utils.NewDatabaseError("failed to get messages", err)
	}
	defer cursor.Close(ctx)

	messages := []*models.DirectMessage{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, utils.NewDatabaseError("failed to decode messages", err)
	}
	return messages, nil
}
