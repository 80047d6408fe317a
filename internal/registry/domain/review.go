package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// PaymentType distinguishes how a canteen charges for lunch.
type PaymentType string

// ServingType distinguishes how food is served.
type ServingType string

const (
	PaymentSubscription PaymentType = "subscription"
	PaymentPerVisit     PaymentType = "per_visit"

	ServingBuffet       ServingType = "buffet"
	ServingSpecificDish ServingType = "specific_dish"
	ServingByWeight     ServingType = "by_weight"
)

// MaxCommentLength bounds a review comment in runes.
const MaxCommentLength = 500

// Review is a single client's submitted rating for one canteen. At most one
// review exists per (canteen, client) pair; the ledger enforces this.
type Review struct {
	ID               string
	CanteenKey       AddressKey
	Rating           int
	Comment          string
	CompanyName      string
	ClientID         string
	PaymentType      *PaymentType
	Price            *int
	ServingType      *ServingType
	EmployeeDiscount *bool
	CreatedAt        time.Time
	UpdatedAt        *time.Time
}

// Draft returns the mutable attribute set of the review, used when computing
// edit deltas against a replacement draft.
func (r Review) Draft() ReviewDraft {
	return ReviewDraft{
		Rating:           r.Rating,
		Comment:          r.Comment,
		CompanyName:      r.CompanyName,
		PaymentType:      r.PaymentType,
		Price:            r.Price,
		ServingType:      r.ServingType,
		EmployeeDiscount: r.EmployeeDiscount,
	}
}

// ReviewDraft carries validated review input on its way into the ledger.
// Optional attributes are nil when the client left them out.
type ReviewDraft struct {
	Rating           int
	Comment          string
	CompanyName      string
	PaymentType      *PaymentType
	Price            *int
	ServingType      *ServingType
	EmployeeDiscount *bool
}

// Validate normalizes the draft in place and rejects out-of-range values
// before any transaction starts.
func (d *ReviewDraft) Validate() error {
	if d.Rating < 1 || d.Rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5, got %d", d.Rating)
	}

	d.Comment = strings.TrimSpace(d.Comment)
	if utf8.RuneCountInString(d.Comment) > MaxCommentLength {
		return fmt.Errorf("comment must be at most %d characters", MaxCommentLength)
	}
	d.CompanyName = strings.TrimSpace(d.CompanyName)

	if d.PaymentType != nil {
		switch *d.PaymentType {
		case PaymentSubscription, PaymentPerVisit:
		default:
			return fmt.Errorf("unknown payment type: %s", *d.PaymentType)
		}
	}
	if d.ServingType != nil {
		switch *d.ServingType {
		case ServingBuffet, ServingSpecificDish, ServingByWeight:
		default:
			return fmt.Errorf("unknown serving type: %s", *d.ServingType)
		}
	}
	if d.Price != nil {
		if *d.Price <= 0 {
			return fmt.Errorf("price must be a positive amount, got %d", *d.Price)
		}
		// A price is only meaningful relative to a payment model.
		if d.PaymentType == nil {
			d.Price = nil
		}
	}
	return nil
}
