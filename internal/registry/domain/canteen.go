package domain

import (
	"strconv"
	"time"
)

// CanteenInfo is the closed set of categorical/numeric aggregates tracked per
// canteen. One vote aggregate per categorical attribute, one price aggregate
// per payment model.
type CanteenInfo struct {
	PaymentType       VoteAggregate
	ServingType       VoteAggregate
	EmployeeDiscount  VoteAggregate
	PriceSubscription PriceAggregate
	PricePerVisit     PriceAggregate
}

// priceBucket selects the price aggregate matching a payment model.
func (i *CanteenInfo) priceBucket(pt PaymentType) *PriceAggregate {
	if pt == PaymentSubscription {
		return &i.PriceSubscription
	}
	return &i.PricePerVisit
}

// Canteen is a rated workplace dining facility, keyed by its address key.
// Several companies can share one canteen, and several canteens can share one
// base address. Aggregate fields are only ever mutated through ApplyReview
// and ApplyEdit inside a store transaction.
type Canteen struct {
	AddressKey         AddressKey
	BaseAddressKey     AddressKey
	CanteenName        string
	Street             string
	PostalCode         string
	City               string
	Municipality       string
	MunicipalityNumber string
	Companies          []CompanyMembership
	AverageRating      float64
	TotalReviews       int
	RatingDistribution RatingDistribution
	Info               CanteenInfo
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewCanteen builds a canteen with the founding company as sole member and
// zeroed aggregates.
func NewCanteen(key, baseKey AddressKey, canteenName string, company Company, now time.Time) *Canteen {
	c := &Canteen{
		AddressKey:     key,
		BaseAddressKey: baseKey,
		CanteenName:    canteenName,
		Companies: []CompanyMembership{{
			OrgNumber: company.OrgNumber,
			Name:      company.Name,
			AddedAt:   now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if company.Address != nil {
		c.Street = company.Address.Street
		c.PostalCode = company.Address.PostalCode
		c.City = company.Address.City
		c.Municipality = company.Address.Municipality
		c.MunicipalityNumber = company.Address.MunicipalityNumber
	}
	return c
}

// HasCompany reports whether the organisation is already a member.
func (c *Canteen) HasCompany(orgNumber string) bool {
	for _, member := range c.Companies {
		if member.OrgNumber == orgNumber {
			return true
		}
	}
	return false
}

// AddCompany appends the company to the membership set. Returns false when
// the organisation was already a member.
func (c *Canteen) AddCompany(company Company, now time.Time) bool {
	if c.HasCompany(company.OrgNumber) {
		return false
	}
	c.Companies = append(c.Companies, CompanyMembership{
		OrgNumber: company.OrgNumber,
		Name:      company.Name,
		AddedAt:   now,
	})
	return true
}

// ApplyReview folds one new review into the aggregates: total, distribution
// bucket, average, and every optional attribute the draft carries. The caller
// runs this inside the same transaction that inserts the review document.
func (c *Canteen) ApplyReview(d ReviewDraft, now time.Time) {
	c.TotalReviews++
	c.RatingDistribution.Add(d.Rating)
	c.AverageRating = c.RatingDistribution.Average()

	if d.PaymentType != nil {
		c.Info.PaymentType.Record(string(*d.PaymentType))
		if d.Price != nil {
			c.Info.priceBucket(*d.PaymentType).Record(*d.Price)
		}
	}
	if d.ServingType != nil {
		c.Info.ServingType.Record(string(*d.ServingType))
	}
	if d.EmployeeDiscount != nil {
		c.Info.EmployeeDiscount.Record(strconv.FormatBool(*d.EmployeeDiscount))
	}
	c.UpdatedAt = now
}

// ApplyEdit adjusts the aggregates by the delta between the review's old and
// new attribute sets. Only this one review's contribution moves: the old
// rating bucket loses one, the new one gains one, and every changed or
// dropped optional attribute has its prior vote/value withdrawn before the
// replacement (if any) is recorded. TotalReviews never changes here.
func (c *Canteen) ApplyEdit(old, updated ReviewDraft, now time.Time) {
	if old.Rating != updated.Rating {
		c.RatingDistribution.Remove(old.Rating)
		c.RatingDistribution.Add(updated.Rating)
		c.AverageRating = c.RatingDistribution.Average()
	}

	if !paymentTypeEqual(old.PaymentType, updated.PaymentType) {
		if old.PaymentType != nil {
			c.Info.PaymentType.Withdraw(string(*old.PaymentType))
		}
		if updated.PaymentType != nil {
			c.Info.PaymentType.Record(string(*updated.PaymentType))
		}
	}

	if old.Price != nil && old.PaymentType != nil {
		c.Info.priceBucket(*old.PaymentType).Withdraw(*old.Price)
	}
	if updated.Price != nil && updated.PaymentType != nil {
		c.Info.priceBucket(*updated.PaymentType).Record(*updated.Price)
	}

	if !servingTypeEqual(old.ServingType, updated.ServingType) {
		if old.ServingType != nil {
			c.Info.ServingType.Withdraw(string(*old.ServingType))
		}
		if updated.ServingType != nil {
			c.Info.ServingType.Record(string(*updated.ServingType))
		}
	}

	if !boolPtrEqual(old.EmployeeDiscount, updated.EmployeeDiscount) {
		if old.EmployeeDiscount != nil {
			c.Info.EmployeeDiscount.Withdraw(strconv.FormatBool(*old.EmployeeDiscount))
		}
		if updated.EmployeeDiscount != nil {
			c.Info.EmployeeDiscount.Record(strconv.FormatBool(*updated.EmployeeDiscount))
		}
	}

	c.UpdatedAt = now
}

func paymentTypeEqual(a, b *PaymentType) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func servingTypeEqual(a, b *ServingType) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func boolPtrEqual(a, b *bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
