// Command seed populates a development database with realistic canteens and
// reviews. Aggregates are computed through the domain layer so seeded data
// obeys the same invariants as data written by the API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jaswdr/faker"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kantineguiden/services/api/internal/registry/domain"
)

type seedOptions struct {
	mongoURI          string
	database          string
	canteenCollection string
	reviewCollection  string
	canteenCount      int
	maxReviewsPer     int
	dropCollections   bool
	randomSeed        int64
}

type canteenDocument struct {
	Key                string                  `bson:"_id"`
	BaseAddressKey     string                  `bson:"baseAddressKey"`
	CanteenName        string                  `bson:"canteenName,omitempty"`
	Street             string                  `bson:"street"`
	PostalCode         string                  `bson:"postalCode"`
	City               string                  `bson:"city"`
	Companies          []companyMemberDocument `bson:"companies"`
	AverageRating      float64                 `bson:"averageRating"`
	TotalReviews       int                     `bson:"totalReviews"`
	RatingDistribution map[string]int          `bson:"ratingDistribution"`
	Info               infoDocument            `bson:"info"`
	CreatedAt          time.Time               `bson:"createdAt"`
	UpdatedAt          time.Time               `bson:"updatedAt"`
}

type companyMemberDocument struct {
	OrgNumber string    `bson:"orgNumber"`
	Name      string    `bson:"name"`
	AddedAt   time.Time `bson:"addedAt"`
}

type infoDocument struct {
	PaymentType       voteDocument  `bson:"paymentType"`
	ServingType       voteDocument  `bson:"servingType"`
	EmployeeDiscount  voteDocument  `bson:"employeeDiscount"`
	PriceSubscription priceDocument `bson:"priceSubscription"`
	PricePerVisit     priceDocument `bson:"pricePerVisit"`
}

type voteDocument struct {
	Consensus *string         `bson:"consensus"`
	Votes     []voteCountItem `bson:"votes,omitempty"`
}

type voteCountItem struct {
	Value string `bson:"value"`
	Count int    `bson:"count"`
}

type priceDocument struct {
	Median *int  `bson:"median"`
	Values []int `bson:"values,omitempty"`
}

type reviewDocument struct {
	ID               primitive.ObjectID `bson:"_id"`
	CanteenKey       string             `bson:"canteenKey"`
	Rating           int                `bson:"rating"`
	Comment          string             `bson:"comment"`
	CompanyName      string             `bson:"companyName,omitempty"`
	ClientID         string             `bson:"clientId"`
	PaymentType      *string            `bson:"paymentType,omitempty"`
	Price            *int               `bson:"price,omitempty"`
	ServingType      *string            `bson:"servingType,omitempty"`
	EmployeeDiscount *bool              `bson:"employeeDiscount,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt"`
}

var norwegianCities = []struct {
	postalCode string
	city       string
}{
	{"0150", "Oslo"},
	{"0191", "Oslo"},
	{"5003", "Bergen"},
	{"7010", "Trondheim"},
	{"4006", "Stavanger"},
	{"9008", "Tromsø"},
	{"3044", "Drammen"},
	{"1606", "Fredrikstad"},
}

func main() {
	opts := parseFlags()

	rng := rand.New(rand.NewSource(opts.randomSeed))
	fake := faker.NewWithSeed(rand.NewSource(opts.randomSeed))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.mongoURI))
	if err != nil {
		log.Fatalf("failed to connect to MongoDB: %v", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	db := client.Database(opts.database)
	canteens := db.Collection(opts.canteenCollection)
	reviews := db.Collection(opts.reviewCollection)

	if opts.dropCollections {
		if err := canteens.Drop(ctx); err != nil {
			log.Fatalf("failed to drop %s: %v", opts.canteenCollection, err)
		}
		if err := reviews.Drop(ctx); err != nil {
			log.Fatalf("failed to drop %s: %v", opts.reviewCollection, err)
		}
	}

	totalReviews := 0
	for i := 0; i < opts.canteenCount; i++ {
		canteen, reviewDocs := buildCanteen(rng, fake, opts.maxReviewsPer)
		if _, err := canteens.InsertOne(ctx, mapCanteen(canteen)); err != nil {
			log.Fatalf("failed to insert canteen %s: %v", canteen.AddressKey, err)
		}
		if len(reviewDocs) > 0 {
			docs := make([]any, 0, len(reviewDocs))
			for _, doc := range reviewDocs {
				docs = append(docs, doc)
			}
			if _, err := reviews.InsertMany(ctx, docs); err != nil {
				log.Fatalf("failed to insert reviews for %s: %v", canteen.AddressKey, err)
			}
		}
		totalReviews += len(reviewDocs)
	}

	fmt.Printf("seeded %d canteens and %d reviews into %s\n", opts.canteenCount, totalReviews, opts.database)
}

func parseFlags() seedOptions {
	opts := seedOptions{}
	flag.StringVar(&opts.mongoURI, "mongo-uri", envOrDefault("KANTINE_MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection URI")
	flag.StringVar(&opts.database, "db", envOrDefault("KANTINE_MONGO_DB", "kantineguiden"), "database name")
	flag.StringVar(&opts.canteenCollection, "canteens", "canteens", "canteen collection name")
	flag.StringVar(&opts.reviewCollection, "reviews", "reviews", "review collection name")
	flag.IntVar(&opts.canteenCount, "count", 12, "number of canteens to seed")
	flag.IntVar(&opts.maxReviewsPer, "max-reviews", 10, "maximum reviews per canteen")
	flag.BoolVar(&opts.dropCollections, "drop", false, "drop the collections before seeding")
	flag.Int64Var(&opts.randomSeed, "seed", time.Now().UnixNano(), "random seed for reproducible runs")
	flag.Parse()
	return opts
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// buildCanteen generates one canteen with its reviews, folding every review
// through ApplyReview so the stored aggregates are internally consistent.
func buildCanteen(rng *rand.Rand, fake faker.Faker, maxReviews int) (*domain.Canteen, []reviewDocument) {
	location := norwegianCities[rng.Intn(len(norwegianCities))]
	street := fmt.Sprintf("%s %d", fake.Address().StreetName(), 1+rng.Intn(60))

	key, err := domain.Canonicalize(street, location.postalCode, location.city)
	if err != nil {
		log.Fatalf("generated an uncanonicalizable address %q: %v", street, err)
	}

	company := domain.Company{
		OrgNumber: fmt.Sprintf("9%08d", rng.Intn(100000000)),
		Name:      fake.Company().Name(),
		Address: &domain.Address{
			Street:     street,
			PostalCode: location.postalCode,
			City:       location.city,
		},
	}
	createdAt := time.Now().AddDate(0, 0, -rng.Intn(365))
	canteen := domain.NewCanteen(key, key, "", company, createdAt)

	// Roughly a quarter of canteens host a second company.
	if rng.Intn(4) == 0 {
		canteen.AddCompany(domain.Company{
			OrgNumber: fmt.Sprintf("9%08d", rng.Intn(100000000)),
			Name:      fake.Company().Name(),
		}, createdAt.AddDate(0, 0, rng.Intn(30)))
	}

	reviewCount := rng.Intn(maxReviews + 1)
	docs := make([]reviewDocument, 0, reviewCount)
	for i := 0; i < reviewCount; i++ {
		draft := randomDraft(rng, fake, canteen)
		reviewedAt := createdAt.AddDate(0, 0, rng.Intn(120))
		canteen.ApplyReview(draft, reviewedAt)

		doc := reviewDocument{
			ID:               primitive.NewObjectID(),
			CanteenKey:       string(canteen.AddressKey),
			Rating:           draft.Rating,
			Comment:          draft.Comment,
			CompanyName:      draft.CompanyName,
			ClientID:         uuid.NewString(),
			Price:            draft.Price,
			EmployeeDiscount: draft.EmployeeDiscount,
			CreatedAt:        reviewedAt,
		}
		if draft.PaymentType != nil {
			pt := string(*draft.PaymentType)
			doc.PaymentType = &pt
		}
		if draft.ServingType != nil {
			st := string(*draft.ServingType)
			doc.ServingType = &st
		}
		docs = append(docs, doc)
	}
	return canteen, docs
}

func randomDraft(rng *rand.Rand, fake faker.Faker, canteen *domain.Canteen) domain.ReviewDraft {
	// Skewed towards the friendly end, like real canteen reviews.
	ratings := []int{2, 3, 3, 4, 4, 4, 5, 5}
	draft := domain.ReviewDraft{
		Rating:      ratings[rng.Intn(len(ratings))],
		CompanyName: canteen.Companies[rng.Intn(len(canteen.Companies))].Name,
	}
	if rng.Intn(3) > 0 {
		draft.Comment = fake.Lorem().Sentence(6 + rng.Intn(12))
	}
	if rng.Intn(3) > 0 {
		pt := domain.PaymentSubscription
		price := 650 + rng.Intn(12)*25
		if rng.Intn(2) == 0 {
			pt = domain.PaymentPerVisit
			price = 59 + rng.Intn(10)*10
		}
		draft.PaymentType = &pt
		draft.Price = &price
	}
	if rng.Intn(2) == 0 {
		servings := []domain.ServingType{domain.ServingBuffet, domain.ServingSpecificDish, domain.ServingByWeight}
		st := servings[rng.Intn(len(servings))]
		draft.ServingType = &st
	}
	if rng.Intn(2) == 0 {
		discount := rng.Intn(3) > 0
		draft.EmployeeDiscount = &discount
	}
	if err := draft.Validate(); err != nil {
		log.Fatalf("generated an invalid draft: %v", err)
	}
	return draft
}

func mapCanteen(c *domain.Canteen) canteenDocument {
	companies := make([]companyMemberDocument, 0, len(c.Companies))
	for _, member := range c.Companies {
		companies = append(companies, companyMemberDocument{
			OrgNumber: member.OrgNumber,
			Name:      member.Name,
			AddedAt:   member.AddedAt,
		})
	}
	return canteenDocument{
		Key:            string(c.AddressKey),
		BaseAddressKey: string(c.BaseAddressKey),
		CanteenName:    c.CanteenName,
		Street:         c.Street,
		PostalCode:     c.PostalCode,
		City:           c.City,
		Companies:      companies,
		AverageRating:  c.AverageRating,
		TotalReviews:   c.TotalReviews,
		RatingDistribution: map[string]int{
			"1": c.RatingDistribution.OneStar,
			"2": c.RatingDistribution.TwoStar,
			"3": c.RatingDistribution.ThreeStar,
			"4": c.RatingDistribution.FourStar,
			"5": c.RatingDistribution.FiveStar,
		},
		Info:      mapInfo(c.Info),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func mapInfo(info domain.CanteenInfo) infoDocument {
	return infoDocument{
		PaymentType:       mapVotes(info.PaymentType),
		ServingType:       mapVotes(info.ServingType),
		EmployeeDiscount:  mapVotes(info.EmployeeDiscount),
		PriceSubscription: mapPrices(info.PriceSubscription),
		PricePerVisit:     mapPrices(info.PricePerVisit),
	}
}

func mapVotes(agg domain.VoteAggregate) voteDocument {
	votes := make([]voteCountItem, 0, len(agg.Votes))
	for _, vote := range agg.Votes {
		votes = append(votes, voteCountItem{Value: vote.Value, Count: vote.Count})
	}
	return voteDocument{Consensus: agg.Consensus, Votes: votes}
}

func mapPrices(agg domain.PriceAggregate) priceDocument {
	return priceDocument{Median: agg.Median, Values: agg.Values}
}
