package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kantineguiden/services/api/internal/registry/domain"
	"github.com/kantineguiden/services/api/pkg/metrics"
)

// CanteenRepository implements application.CanteenRepository using MongoDB.
type CanteenRepository struct {
	collection *mongo.Collection
	metrics    *metrics.Manager
}

// NewCanteenRepository binds the repository to the canteen collection.
func NewCanteenRepository(db *mongo.Database, collectionName string, m *metrics.Manager) *CanteenRepository {
	return &CanteenRepository{collection: db.Collection(collectionName), metrics: m}
}

// Get returns the canteen for key, nil when absent.
func (r *CanteenRepository) Get(ctx context.Context, key domain.AddressKey) (*domain.Canteen, error) {
	var doc CanteenDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": string(key)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	canteen := mapCanteenToDomain(doc)
	return &canteen, nil
}

// AtAddress returns every canteen sharing a base address key, ordered by
// their own keys so the unsuffixed slot comes first.
func (r *CanteenRepository) AtAddress(ctx context.Context, baseKey domain.AddressKey) ([]domain.Canteen, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"baseAddressKey": string(baseKey)}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	canteens := make([]domain.Canteen, 0)
	for cursor.Next(ctx) {
		var doc CanteenDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		canteens = append(canteens, mapCanteenToDomain(doc))
	}
	return canteens, cursor.Err()
}

// Top returns the most-reviewed canteens, at most limit.
func (r *CanteenRepository) Top(ctx context.Context, limit int) ([]domain.Canteen, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "totalReviews", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	canteens := make([]domain.Canteen, 0, limit)
	for cursor.Next(ctx) {
		var doc CanteenDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		canteens = append(canteens, mapCanteenToDomain(doc))
	}
	return canteens, cursor.Err()
}

// Create persists a new canteen document.
func (r *CanteenRepository) Create(ctx context.Context, canteen *domain.Canteen) error {
	_, err := r.collection.InsertOne(ctx, mapCanteenToDocument(*canteen))
	if err != nil {
		return fmt.Errorf("insert canteen %s: %w", canteen.AddressKey, err)
	}
	r.metrics.CanteenCreated()
	return nil
}

// Join refreshes updatedAt and appends the company to the membership set
// unless its org number is already present. Both steps are single-document
// atomic updates, so concurrent joins cannot lose members.
func (r *CanteenRepository) Join(ctx context.Context, key domain.AddressKey, company domain.Company) error {
	now := time.Now().UTC()

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": string(key)},
		bson.M{"$set": bson.M{"updatedAt": now}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrCanteenNotFound
	}

	_, err = r.collection.UpdateOne(ctx,
		bson.M{"_id": string(key), "companies.orgNumber": bson.M{"$ne": company.OrgNumber}},
		bson.M{"$push": bson.M{"companies": CompanyMemberDocument{
			OrgNumber: company.OrgNumber,
			Name:      company.Name,
			AddedAt:   now,
		}}},
	)
	return err
}
