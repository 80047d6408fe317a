package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kantineguiden/services/api/internal/registry/application"
	"github.com/kantineguiden/services/api/internal/registry/domain"
	"github.com/kantineguiden/services/api/pkg/metrics"
)

// errDuplicateInsert signals that the unique (canteenKey, clientId) index
// rejected a concurrent double-submit inside the transaction.
var errDuplicateInsert = errors.New("duplicate review insert")

// ReviewLedger persists reviews and keeps canteen aggregates consistent with
// them. Every write path runs inside a session transaction so a review and
// its derived aggregates never diverge.
type ReviewLedger struct {
	client   *mongo.Client
	reviews  *mongo.Collection
	canteens *mongo.Collection
	metrics  *metrics.Manager
	now      func() time.Time
}

func NewReviewLedger(client *mongo.Client, db *mongo.Database, reviewsCollection, canteensCollection string, m *metrics.Manager) *ReviewLedger {
	return &ReviewLedger{
		client:   client,
		reviews:  db.Collection(reviewsCollection),
		canteens: db.Collection(canteensCollection),
		metrics:  m,
		now:      time.Now,
	}
}

// Submit inserts the review and folds it into the canteen's aggregates in
// one transaction. A repeat submission by the same client returns the
// existing review unchanged rather than an error; the unique index closes
// the race two concurrent first submissions would otherwise win together.
func (l *ReviewLedger) Submit(ctx context.Context, key domain.AddressKey, clientID string, draft domain.ReviewDraft) (application.SubmitOutcome, error) {
	if existing, err := l.ByClient(ctx, key, clientID); err != nil {
		return application.SubmitOutcome{}, err
	} else if existing != nil {
		l.metrics.ReviewDuplicate()
		return application.SubmitOutcome{Review: existing, Duplicate: true}, nil
	}

	now := l.now().UTC()
	doc := ReviewDocument{
		ID:               primitive.NewObjectID(),
		CanteenKey:       string(key),
		Rating:           draft.Rating,
		Comment:          draft.Comment,
		CompanyName:      draft.CompanyName,
		ClientID:         clientID,
		Price:            draft.Price,
		EmployeeDiscount: draft.EmployeeDiscount,
		CreatedAt:        now,
	}
	if draft.PaymentType != nil {
		pt := string(*draft.PaymentType)
		doc.PaymentType = &pt
	}
	if draft.ServingType != nil {
		st := string(*draft.ServingType)
		doc.ServingType = &st
	}

	err := runTransaction(ctx, l.client, l.metrics.TransactionRetried, func(sc mongo.SessionContext) error {
		canteen, err := l.loadCanteen(sc, key)
		if err != nil {
			return err
		}
		if _, err := l.reviews.InsertOne(sc, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return errDuplicateInsert
			}
			return fmt.Errorf("insert review: %w", err)
		}
		canteen.ApplyReview(draft, now)
		return l.storeAggregates(sc, canteen)
	})
	if errors.Is(err, errDuplicateInsert) {
		existing, lookupErr := l.ByClient(ctx, key, clientID)
		if lookupErr != nil {
			return application.SubmitOutcome{}, lookupErr
		}
		l.metrics.ReviewDuplicate()
		return application.SubmitOutcome{Review: existing, Duplicate: true}, nil
	}
	if err != nil {
		return application.SubmitOutcome{}, err
	}

	l.metrics.ReviewSubmitted()
	review := mapReviewToDomain(doc)
	return application.SubmitOutcome{Review: &review}, nil
}

// Edit replaces the client's review in place and adjusts the aggregates by
// the delta between the stored attributes and the new draft. Ownership is
// re-checked inside the transaction so a stale caller cannot touch a review
// that was replaced since they last read it.
func (l *ReviewLedger) Edit(ctx context.Context, key domain.AddressKey, reviewID, clientID string, draft domain.ReviewDraft) error {
	err := runTransaction(ctx, l.client, l.metrics.TransactionRetried, func(sc mongo.SessionContext) error {
		canteen, err := l.loadCanteen(sc, key)
		if err != nil {
			return err
		}

		var stored ReviewDocument
		err = l.reviews.FindOne(sc, bson.M{"canteenKey": string(key), "clientId": clientID}).Decode(&stored)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.ErrReviewNotFound
		}
		if err != nil {
			return fmt.Errorf("load review: %w", err)
		}
		if stored.ID.Hex() != reviewID {
			return domain.ErrNotOwner
		}

		now := l.now().UTC()
		old := mapReviewToDomain(stored)
		canteen.ApplyEdit(old.Draft(), draft, now)

		set := bson.M{
			"rating":      draft.Rating,
			"comment":     draft.Comment,
			"companyName": draft.CompanyName,
			"updatedAt":   now,
		}
		unset := bson.M{}
		setOptional(set, unset, "paymentType", paymentTypeValue(draft.PaymentType))
		setOptional(set, unset, "price", intValue(draft.Price))
		setOptional(set, unset, "servingType", servingTypeValue(draft.ServingType))
		setOptional(set, unset, "employeeDiscount", boolValue(draft.EmployeeDiscount))

		update := bson.M{"$set": set}
		if len(unset) > 0 {
			update["$unset"] = unset
		}
		if _, err := l.reviews.UpdateOne(sc, bson.M{"_id": stored.ID}, update); err != nil {
			return fmt.Errorf("update review: %w", err)
		}
		return l.storeAggregates(sc, canteen)
	})
	if err != nil {
		return err
	}

	l.metrics.ReviewEdited()
	return nil
}

// ByClient returns the client's review for the canteen, or nil when the
// client has not reviewed it.
func (l *ReviewLedger) ByClient(ctx context.Context, key domain.AddressKey, clientID string) (*domain.Review, error) {
	var doc ReviewDocument
	err := l.reviews.FindOne(ctx, bson.M{"canteenKey": string(key), "clientId": clientID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find review: %w", err)
	}
	review := mapReviewToDomain(doc)
	return &review, nil
}

// ForCanteen returns the canteen's reviews, newest first.
func (l *ReviewLedger) ForCanteen(ctx context.Context, key domain.AddressKey, limit int) ([]domain.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := l.reviews.Find(ctx, bson.M{"canteenKey": string(key)}, opts)
	if err != nil {
		return nil, fmt.Errorf("find reviews: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []ReviewDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode reviews: %w", err)
	}
	reviews := make([]domain.Review, 0, len(docs))
	for _, doc := range docs {
		reviews = append(reviews, mapReviewToDomain(doc))
	}
	return reviews, nil
}

// Recent returns the newest reviews across every canteen, annotated with
// their canteen's display address.
func (l *ReviewLedger) Recent(ctx context.Context, limit int) ([]application.RecentReview, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := l.reviews.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find recent reviews: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []ReviewDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode recent reviews: %w", err)
	}

	canteens, err := l.loadCanteenMap(ctx, docs)
	if err != nil {
		return nil, err
	}

	recent := make([]application.RecentReview, 0, len(docs))
	for _, doc := range docs {
		canteen, ok := canteens[doc.CanteenKey]
		if !ok {
			continue
		}
		recent = append(recent, application.RecentReview{
			Review:      mapReviewToDomain(doc),
			CanteenKey:  domain.AddressKey(canteen.Key),
			CanteenName: canteen.CanteenName,
			Street:      canteen.Street,
			City:        canteen.City,
		})
	}
	return recent, nil
}

// loadCanteenMap resolves the distinct canteen keys of docs in one query.
func (l *ReviewLedger) loadCanteenMap(ctx context.Context, docs []ReviewDocument) (map[string]CanteenDocument, error) {
	keys := make([]string, 0, len(docs))
	seen := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		if _, ok := seen[doc.CanteenKey]; ok {
			continue
		}
		seen[doc.CanteenKey] = struct{}{}
		keys = append(keys, doc.CanteenKey)
	}
	if len(keys) == 0 {
		return map[string]CanteenDocument{}, nil
	}

	cursor, err := l.canteens.Find(ctx, bson.M{"_id": bson.M{"$in": keys}})
	if err != nil {
		return nil, fmt.Errorf("find canteens: %w", err)
	}
	defer cursor.Close(ctx)

	var canteenDocs []CanteenDocument
	if err := cursor.All(ctx, &canteenDocs); err != nil {
		return nil, fmt.Errorf("decode canteens: %w", err)
	}
	canteens := make(map[string]CanteenDocument, len(canteenDocs))
	for _, doc := range canteenDocs {
		canteens[doc.Key] = doc
	}
	return canteens, nil
}

func (l *ReviewLedger) loadCanteen(sc mongo.SessionContext, key domain.AddressKey) (*domain.Canteen, error) {
	var doc CanteenDocument
	err := l.canteens.FindOne(sc, bson.M{"_id": string(key)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrCanteenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load canteen: %w", err)
	}
	canteen := mapCanteenToDomain(doc)
	return &canteen, nil
}

// storeAggregates writes back the derived fields recomputed by the domain
// layer, never the identity fields.
func (l *ReviewLedger) storeAggregates(sc mongo.SessionContext, canteen *domain.Canteen) error {
	doc := mapCanteenToDocument(*canteen)
	update := bson.M{"$set": bson.M{
		"totalReviews":       doc.TotalReviews,
		"averageRating":      doc.AverageRating,
		"ratingDistribution": doc.RatingDistribution,
		"info":               doc.Info,
		"updatedAt":          doc.UpdatedAt,
	}}
	if _, err := l.canteens.UpdateOne(sc, bson.M{"_id": doc.Key}, update); err != nil {
		return fmt.Errorf("update canteen aggregates: %w", err)
	}
	return nil
}

// setOptional routes an optional attribute into $set when present and $unset
// when cleared.
func setOptional(set, unset bson.M, field string, value interface{}) {
	if value == nil {
		unset[field] = ""
		return
	}
	set[field] = value
}

func paymentTypeValue(pt *domain.PaymentType) interface{} {
	if pt == nil {
		return nil
	}
	return string(*pt)
}

func servingTypeValue(st *domain.ServingType) interface{} {
	if st == nil {
		return nil
	}
	return string(*st)
}

func intValue(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func boolValue(v *bool) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
