package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// FeedbackRepository stores anonymous free-text feedback.
type FeedbackRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewFeedbackRepository(db *mongo.Database, collectionName string) *FeedbackRepository {
	return &FeedbackRepository{
		collection: db.Collection(collectionName),
		now:        time.Now,
	}
}

func (r *FeedbackRepository) Add(ctx context.Context, message string) error {
	doc := FeedbackDocument{
		ID:        primitive.NewObjectID(),
		Message:   message,
		CreatedAt: r.now().UTC(),
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}
