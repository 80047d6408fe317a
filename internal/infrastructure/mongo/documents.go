package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kantineguiden/services/api/internal/registry/domain"
)

// CanteenDocument is the MongoDB schema of a canteen, keyed by its address
// key.
type CanteenDocument struct {
	Key                string                     `bson:"_id"`
	BaseAddressKey     string                     `bson:"baseAddressKey"`
	CanteenName        string                     `bson:"canteenName,omitempty"`
	Street             string                     `bson:"street"`
	PostalCode         string                     `bson:"postalCode"`
	City               string                     `bson:"city"`
	Municipality       string                     `bson:"municipality,omitempty"`
	MunicipalityNumber string                     `bson:"municipalityNumber,omitempty"`
	Companies          []CompanyMemberDocument    `bson:"companies"`
	AverageRating      float64                    `bson:"averageRating"`
	TotalReviews       int                        `bson:"totalReviews"`
	RatingDistribution RatingDistributionDocument `bson:"ratingDistribution"`
	Info               CanteenInfoDocument        `bson:"info"`
	CreatedAt          time.Time                  `bson:"createdAt"`
	UpdatedAt          time.Time                  `bson:"updatedAt"`
}

// CompanyMemberDocument is one company's by-value membership entry.
type CompanyMemberDocument struct {
	OrgNumber string    `bson:"orgNumber"`
	Name      string    `bson:"name"`
	AddedAt   time.Time `bson:"addedAt"`
}

// RatingDistributionDocument stores one counter per star value.
type RatingDistributionDocument struct {
	OneStar   int `bson:"1"`
	TwoStar   int `bson:"2"`
	ThreeStar int `bson:"3"`
	FourStar  int `bson:"4"`
	FiveStar  int `bson:"5"`
}

// CanteenInfoDocument embeds the per-attribute aggregates.
type CanteenInfoDocument struct {
	PaymentType       VoteAggregateDocument  `bson:"paymentType"`
	ServingType       VoteAggregateDocument  `bson:"servingType"`
	EmployeeDiscount  VoteAggregateDocument  `bson:"employeeDiscount"`
	PriceSubscription PriceAggregateDocument `bson:"priceSubscription"`
	PricePerVisit     PriceAggregateDocument `bson:"pricePerVisit"`
}

// VoteAggregateDocument stores an ordered vote list with its consensus. The
// order carries the tie-break, so votes are an array rather than a map.
type VoteAggregateDocument struct {
	Consensus *string             `bson:"consensus"`
	Votes     []VoteCountDocument `bson:"votes,omitempty"`
}

// VoteCountDocument is one value/count pair.
type VoteCountDocument struct {
	Value string `bson:"value"`
	Count int    `bson:"count"`
}

// PriceAggregateDocument stores raw price samples with their median.
type PriceAggregateDocument struct {
	Median *int  `bson:"median"`
	Values []int `bson:"values,omitempty"`
}

// ReviewDocument is the MongoDB schema of a single review. The compound
// unique index on (canteenKey, clientId) backs the per-client uniqueness
// invariant.
type ReviewDocument struct {
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
	UpdatedAt        *time.Time         `bson:"updatedAt,omitempty"`
}

// FeedbackDocument stores one free-text feedback message.
type FeedbackDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	Message   string             `bson:"message"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func mapCanteenToDocument(c domain.Canteen) CanteenDocument {
	companies := make([]CompanyMemberDocument, 0, len(c.Companies))
	for _, member := range c.Companies {
		companies = append(companies, CompanyMemberDocument{
			OrgNumber: member.OrgNumber,
			Name:      member.Name,
			AddedAt:   member.AddedAt,
		})
	}
	return CanteenDocument{
		Key:                string(c.AddressKey),
		BaseAddressKey:     string(c.BaseAddressKey),
		CanteenName:        c.CanteenName,
		Street:             c.Street,
		PostalCode:         c.PostalCode,
		City:               c.City,
		Municipality:       c.Municipality,
		MunicipalityNumber: c.MunicipalityNumber,
		Companies:          companies,
		AverageRating:      c.AverageRating,
		TotalReviews:       c.TotalReviews,
		RatingDistribution: RatingDistributionDocument{
			OneStar:   c.RatingDistribution.OneStar,
			TwoStar:   c.RatingDistribution.TwoStar,
			ThreeStar: c.RatingDistribution.ThreeStar,
			FourStar:  c.RatingDistribution.FourStar,
			FiveStar:  c.RatingDistribution.FiveStar,
		},
		Info:      mapInfoToDocument(c.Info),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func mapCanteenToDomain(doc CanteenDocument) domain.Canteen {
	companies := make([]domain.CompanyMembership, 0, len(doc.Companies))
	for _, member := range doc.Companies {
		companies = append(companies, domain.CompanyMembership{
			OrgNumber: member.OrgNumber,
			Name:      member.Name,
			AddedAt:   member.AddedAt,
		})
	}
	return domain.Canteen{
		AddressKey:         domain.AddressKey(doc.Key),
		BaseAddressKey:     domain.AddressKey(doc.BaseAddressKey),
		CanteenName:        doc.CanteenName,
		Street:             doc.Street,
		PostalCode:         doc.PostalCode,
		City:               doc.City,
		Municipality:       doc.Municipality,
		MunicipalityNumber: doc.MunicipalityNumber,
		Companies:          companies,
		AverageRating:      doc.AverageRating,
		TotalReviews:       doc.TotalReviews,
		RatingDistribution: domain.RatingDistribution{
			OneStar:   doc.RatingDistribution.OneStar,
			TwoStar:   doc.RatingDistribution.TwoStar,
			ThreeStar: doc.RatingDistribution.ThreeStar,
			FourStar:  doc.RatingDistribution.FourStar,
			FiveStar:  doc.RatingDistribution.FiveStar,
		},
		Info:      mapInfoToDomain(doc.Info),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

func mapInfoToDocument(info domain.CanteenInfo) CanteenInfoDocument {
	return CanteenInfoDocument{
		PaymentType:       mapVotesToDocument(info.PaymentType),
		ServingType:       mapVotesToDocument(info.ServingType),
		EmployeeDiscount:  mapVotesToDocument(info.EmployeeDiscount),
		PriceSubscription: mapPricesToDocument(info.PriceSubscription),
		PricePerVisit:     mapPricesToDocument(info.PricePerVisit),
	}
}

func mapInfoToDomain(doc CanteenInfoDocument) domain.CanteenInfo {
	return domain.CanteenInfo{
		PaymentType:       mapVotesToDomain(doc.PaymentType),
		ServingType:       mapVotesToDomain(doc.ServingType),
		EmployeeDiscount:  mapVotesToDomain(doc.EmployeeDiscount),
		PriceSubscription: mapPricesToDomain(doc.PriceSubscription),
		PricePerVisit:     mapPricesToDomain(doc.PricePerVisit),
	}
}

func mapVotesToDocument(agg domain.VoteAggregate) VoteAggregateDocument {
	votes := make([]VoteCountDocument, 0, len(agg.Votes))
	for _, vote := range agg.Votes {
		votes = append(votes, VoteCountDocument{Value: vote.Value, Count: vote.Count})
	}
	return VoteAggregateDocument{Consensus: agg.Consensus, Votes: votes}
}

func mapVotesToDomain(doc VoteAggregateDocument) domain.VoteAggregate {
	votes := make(domain.VoteTally, 0, len(doc.Votes))
	for _, vote := range doc.Votes {
		votes = append(votes, domain.VoteCount{Value: vote.Value, Count: vote.Count})
	}
	return domain.VoteAggregate{Consensus: doc.Consensus, Votes: votes}
}

func mapPricesToDocument(agg domain.PriceAggregate) PriceAggregateDocument {
	return PriceAggregateDocument{Median: agg.Median, Values: append([]int(nil), agg.Values...)}
}

func mapPricesToDomain(doc PriceAggregateDocument) domain.PriceAggregate {
	return domain.PriceAggregate{Median: doc.Median, Values: append(domain.PriceSamples(nil), doc.Values...)}
}

func mapReviewToDomain(doc ReviewDocument) domain.Review {
	review := domain.Review{
		ID:               doc.ID.Hex(),
		CanteenKey:       domain.AddressKey(doc.CanteenKey),
		Rating:           doc.Rating,
		Comment:          doc.Comment,
		CompanyName:      doc.CompanyName,
		ClientID:         doc.ClientID,
		Price:            doc.Price,
		EmployeeDiscount: doc.EmployeeDiscount,
		CreatedAt:        doc.CreatedAt,
		UpdatedAt:        doc.UpdatedAt,
	}
	if doc.PaymentType != nil {
		pt := domain.PaymentType(*doc.PaymentType)
		review.PaymentType = &pt
	}
	if doc.ServingType != nil {
		st := domain.ServingType(*doc.ServingType)
		review.ServingType = &st
	}
	return review
}
