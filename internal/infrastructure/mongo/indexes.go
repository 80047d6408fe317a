package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the repositories rely on. The unique
// compound index on (canteenKey, clientId) is load-bearing: it enforces the
// one-review-per-client invariant under concurrent submissions.
func EnsureIndexes(ctx context.Context, db *mongo.Database, canteensCollection, reviewsCollection string) error {
	reviewIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "canteenKey", Value: 1},
				{Key: "clientId", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "createdAt", Value: -1}},
		},
	}
	if _, err := db.Collection(reviewsCollection).Indexes().CreateMany(ctx, reviewIndexes); err != nil {
		return fmt.Errorf("create review indexes: %w", err)
	}

	canteenIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "baseAddressKey", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "totalReviews", Value: -1}},
		},
	}
	if _, err := db.Collection(canteensCollection).Indexes().CreateMany(ctx, canteenIndexes); err != nil {
		return fmt.Errorf("create canteen indexes: %w", err)
	}
	return nil
}
