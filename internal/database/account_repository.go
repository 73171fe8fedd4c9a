// internal/database/account_repository.go
package database

import (
	"context"
	"errors"

	"mentorlink/internal/models"
	"mentorlink/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Only the public profile is ever read from the identity collection.
var accountProjection = bson.M{"name": 1, "email": 1, "profileImage": 1, "role": 1}

// SaveAccount creates or updates the public projection of an account
func (m *MongoDB) SaveAccount(ctx context.Context, account *models.Account) error {
	opts := options.Update().SetUpsert(true)
	update := bson.M{"$set": bson.M{
		"name":         account.Name,
		"email":        account.Email,
		"profileImage": account.ProfileImage,
		"role":         account.Role,
	}}
	if _, err := m.Accounts.UpdateOne(ctx, bson.M{"_id": account.ID}, update, opts); err != nil {
		return utils.NewDatabaseError("failed to save account", err)
	}
	return nil
}

// GetAccount retrieves an account by its ID
func (m *MongoDB) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	opts := options.FindOne().SetProjection(accountProjection)
	err := m.Accounts.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&account)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NewNotFoundError("User not found")
	}
	if err != nil {
		return nil, utils.NewDatabaseError("failed to get account", err)
	}
	return &account, nil
}

// GetAccounts resolves several accounts at once. Unknown ids are absent from the result.
func (m *MongoDB) GetAccounts(ctx context.Context, ids []string) (map[string]*models.Account, error) {
	result := make(map[string]*models.Account, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	opts := options.Find().SetProjection(accountProjection)
	cursor, err := m.Accounts.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, utils.NewDatabaseError("failed to get accounts", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var account models.Account
		if err := cursor.Decode(&account); err != nil {
			return nil, utils.NewDatabaseError("failed to decode account", err)
		}
		result[account.ID] = &account
	}
	if err := cursor.Err(); err != nil {
		return nil, utils.NewDatabaseError("failed to read accounts", err)
	}
	return result, nil
}
