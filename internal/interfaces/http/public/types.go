package public

import (
	"time"

	"github.com/kantineguiden/services/api/internal/registry/application"
	"github.com/kantineguiden/services/api/internal/registry/domain"
)

type companyResponse struct {
	OrgNumber string `json:"orgNumber"`
	Name      string `json:"name"`
	Address   string `json:"address,omitempty"`
}

type companySearchResponse struct {
	Items []companyResponse `json:"items"`
}

type canteenSummaryResponse struct {
	AddressKey    string  `json:"addressKey"`
	CanteenName   string  `json:"canteenName,omitempty"`
	Street        string  `json:"street"`
	PostalCode    string  `json:"postalCode"`
	City          string  `json:"city"`
	AverageRating float64 `json:"averageRating"`
	TotalReviews  int     `json:"totalReviews"`
}

type companyMemberResponse struct {
	OrgNumber string    `json:"orgNumber"`
	Name      string    `json:"name"`
	AddedAt   time.Time `json:"addedAt"`
}

type voteAggregateResponse struct {
	Consensus *string        `json:"consensus"`
	Votes     map[string]int `json:"votes,omitempty"`
}

type priceAggregateResponse struct {
	Median *int `json:"median"`
	Count  int  `json:"count"`
}

type canteenInfoResponse struct {
	PaymentType       voteAggregateResponse  `json:"paymentType"`
	ServingType       voteAggregateResponse  `json:"servingType"`
	EmployeeDiscount  voteAggregateResponse  `json:"employeeDiscount"`
	PriceSubscription priceAggregateResponse `json:"priceSubscription"`
	PricePerVisit     priceAggregateResponse `json:"pricePerVisit"`
}

type ratingDistributionResponse struct {
	OneStar   int `json:"1"`
	TwoStar   int `json:"2"`
	ThreeStar int `json:"3"`
	FourStar  int `json:"4"`
	FiveStar  int `json:"5"`
}

type coordinatesResponse struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type canteenDetailResponse struct {
	canteenSummaryResponse
	Municipality       string                     `json:"municipality,omitempty"`
	Companies          []companyMemberResponse    `json:"companies"`
	RatingDistribution ratingDistributionResponse `json:"ratingDistribution"`
	Info               canteenInfoResponse        `json:"info"`
	Coordinates        *coordinatesResponse       `json:"coordinates,omitempty"`
	OthersAtAddress    []canteenSummaryResponse   `json:"othersAtAddress"`
	CreatedAt          time.Time                  `json:"createdAt"`
	UpdatedAt          time.Time                  `json:"updatedAt"`
}

type canteenListResponse struct {
	Items []canteenSummaryResponse `json:"items"`
}

type selectOutcomeResponse struct {
	Status     string                   `json:"status"`
	Action     string                   `json:"action"`
	CanteenKey string                   `json:"canteenKey,omitempty"`
	Company    *companyResponse         `json:"company,omitempty"`
	Candidates []canteenSummaryResponse `json:"candidates,omitempty"`
}

type reviewResponse struct {
	ID               string     `json:"id"`
	Rating           int        `json:"rating"`
	Comment          string     `json:"comment,omitempty"`
	CompanyName      string     `json:"companyName,omitempty"`
	PaymentType      *string    `json:"paymentType,omitempty"`
	Price            *int       `json:"price,omitempty"`
	ServingType      *string    `json:"servingType,omitempty"`
	EmployeeDiscount *bool      `json:"employeeDiscount,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        *time.Time `json:"updatedAt,omitempty"`
}

type reviewListResponse struct {
	Items []reviewResponse `json:"items"`
}

type recentReviewResponse struct {
	Review  reviewResponse        `json:"review"`
	Canteen recentCanteenResponse `json:"canteen"`
}

type recentCanteenResponse struct {
	AddressKey  string `json:"addressKey"`
	CanteenName string `json:"canteenName,omitempty"`
	Street      string `json:"street"`
	City        string `json:"city"`
}

type recentReviewListResponse struct {
	Items []recentReviewResponse `json:"items"`
}

type createReviewResponse struct {
	Status string         `json:"status"`
	Review reviewResponse `json:"review"`
}

func buildCompanyResponse(company domain.Company) companyResponse {
	res := companyResponse{OrgNumber: company.OrgNumber, Name: company.Name}
	if company.Address != nil {
		res.Address = company.Address.Street + ", " + company.Address.PostalCode + " " + company.Address.City
	}
	return res
}

func buildCanteenSummaryResponse(c domain.Canteen) canteenSummaryResponse {
	return canteenSummaryResponse{
		AddressKey:    string(c.AddressKey),
		CanteenName:   c.CanteenName,
		Street:        c.Street,
		PostalCode:    c.PostalCode,
		City:          c.City,
		AverageRating: c.AverageRating,
		TotalReviews:  c.TotalReviews,
	}
}

// localTime renders stored UTC timestamps in the configured display zone.
func localTime(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		return t
	}
	return t.In(loc)
}

func buildCanteenDetailResponse(c domain.Canteen, coords *application.Coordinates, others []domain.Canteen, loc *time.Location) canteenDetailResponse {
	companies := make([]companyMemberResponse, 0, len(c.Companies))
	for _, member := range c.Companies {
		companies = append(companies, companyMemberResponse{
			OrgNumber: member.OrgNumber,
			Name:      member.Name,
			AddedAt:   localTime(member.AddedAt, loc),
		})
	}

	siblings := make([]canteenSummaryResponse, 0, len(others))
	for _, other := range others {
		if other.AddressKey == c.AddressKey {
			continue
		}
		siblings = append(siblings, buildCanteenSummaryResponse(other))
	}

	res := canteenDetailResponse{
		canteenSummaryResponse: buildCanteenSummaryResponse(c),
		Municipality:           c.Municipality,
		Companies:              companies,
		RatingDistribution: ratingDistributionResponse{
			OneStar:   c.RatingDistribution.OneStar,
			TwoStar:   c.RatingDistribution.TwoStar,
			ThreeStar: c.RatingDistribution.ThreeStar,
			FourStar:  c.RatingDistribution.FourStar,
			FiveStar:  c.RatingDistribution.FiveStar,
		},
		Info:            buildCanteenInfoResponse(c.Info),
		OthersAtAddress: siblings,
		CreatedAt:       localTime(c.CreatedAt, loc),
		UpdatedAt:       localTime(c.UpdatedAt, loc),
	}
	if coords != nil {
		res.Coordinates = &coordinatesResponse{Lat: coords.Lat, Lon: coords.Lon}
	}
	return res
}

func buildCanteenInfoResponse(info domain.CanteenInfo) canteenInfoResponse {
	return canteenInfoResponse{
		PaymentType:       buildVoteAggregateResponse(info.PaymentType),
		ServingType:       buildVoteAggregateResponse(info.ServingType),
		EmployeeDiscount:  buildVoteAggregateResponse(info.EmployeeDiscount),
		PriceSubscription: buildPriceAggregateResponse(info.PriceSubscription),
		PricePerVisit:     buildPriceAggregateResponse(info.PricePerVisit),
	}
}

func buildVoteAggregateResponse(agg domain.VoteAggregate) voteAggregateResponse {
	votes := make(map[string]int, len(agg.Votes))
	for _, vote := range agg.Votes {
		if vote.Count > 0 {
			votes[vote.Value] = vote.Count
		}
	}
	return voteAggregateResponse{Consensus: agg.Consensus, Votes: votes}
}

func buildPriceAggregateResponse(agg domain.PriceAggregate) priceAggregateResponse {
	return priceAggregateResponse{Median: agg.Median, Count: len(agg.Values)}
}

func buildReviewResponse(review domain.Review, loc *time.Location) reviewResponse {
	res := reviewResponse{
		ID:          review.ID,
		Rating:      review.Rating,
		Comment:     review.Comment,
		CompanyName: review.CompanyName,
		Price:       review.Price,
		CreatedAt:   localTime(review.CreatedAt, loc),
	}
	if review.UpdatedAt != nil {
		updated := localTime(*review.UpdatedAt, loc)
		res.UpdatedAt = &updated
	}
	if review.PaymentType != nil {
		pt := string(*review.PaymentType)
		res.PaymentType = &pt
	}
	if review.ServingType != nil {
		st := string(*review.ServingType)
		res.ServingType = &st
	}
	res.EmployeeDiscount = review.EmployeeDiscount
	return res
}
