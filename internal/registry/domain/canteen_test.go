package domain_test

import (
	"testing"
	"time"

	"github.com/kantineguiden/services/api/internal/registry/domain"
	. "github.com/smartystreets/goconvey/convey"
)

func ptStr(v domain.PaymentType) *domain.PaymentType { return &v }
func svStr(v domain.ServingType) *domain.ServingType { return &v }
func intPtr(v int) *int                              { return &v }
func boolPtr(v bool) *bool                           { return &v }

func newTestCanteen(now time.Time) *domain.Canteen {
	company := domain.Company{
		OrgNumber: "998877665",
		Name:      "Eksempel AS",
		Address: &domain.Address{
			Street:     "Forusbeen 50",
			PostalCode: "4035",
			City:       "Stavanger",
		},
	}
	return domain.NewCanteen("forusbeen-50_4035_stavanger", "forusbeen-50_4035_stavanger", "", company, now)
}

func TestCanteenApplyReview(t *testing.T) {
	now := time.Date(2026, 5, 12, 11, 0, 0, 0, time.UTC)

	Convey("Given a freshly created canteen", t, func() {
		canteen := newTestCanteen(now)
		So(canteen.TotalReviews, ShouldEqual, 0)
		So(canteen.AverageRating, ShouldEqual, 0.0)

		Convey("Each applied review keeps sum(distribution) == totalReviews", func() {
			ratings := []int{4, 2, 5, 5, 1, 3}
			for i, r := range ratings {
				canteen.ApplyReview(domain.ReviewDraft{Rating: r}, now)
				So(canteen.RatingDistribution.Total(), ShouldEqual, i+1)
				So(canteen.TotalReviews, ShouldEqual, i+1)
				So(canteen.AverageRating, ShouldEqual, canteen.RatingDistribution.Average())
			}
		})

		Convey("A 4-star then a 2-star review average to 3.0", func() {
			canteen.ApplyReview(domain.ReviewDraft{Rating: 4}, now)
			So(canteen.AverageRating, ShouldEqual, 4.0)
			So(canteen.TotalReviews, ShouldEqual, 1)

			canteen.ApplyReview(domain.ReviewDraft{Rating: 2}, now)
			So(canteen.AverageRating, ShouldEqual, 3.0)
			So(canteen.TotalReviews, ShouldEqual, 2)
		})

		Convey("Optional attributes land in their aggregates with fresh consensus", func() {
			canteen.ApplyReview(domain.ReviewDraft{
				Rating:           5,
				PaymentType:      ptStr(domain.PaymentSubscription),
				Price:            intPtr(950),
				ServingType:      svStr(domain.ServingBuffet),
				EmployeeDiscount: boolPtr(true),
			}, now)

			So(*canteen.Info.PaymentType.Consensus, ShouldEqual, "subscription")
			So(*canteen.Info.ServingType.Consensus, ShouldEqual, "buffet")
			So(*canteen.Info.EmployeeDiscount.Consensus, ShouldEqual, "true")
			So(*canteen.Info.PriceSubscription.Median, ShouldEqual, 950)
			So(canteen.Info.PricePerVisit.Median, ShouldBeNil)
		})

		Convey("A per-visit price lands in the per-visit bucket", func() {
			canteen.ApplyReview(domain.ReviewDraft{
				Rating:      3,
				PaymentType: ptStr(domain.PaymentPerVisit),
				Price:       intPtr(120),
			}, now)
			So(*canteen.Info.PricePerVisit.Median, ShouldEqual, 120)
			So(canteen.Info.PriceSubscription.Median, ShouldBeNil)
		})
	})
}

func TestCanteenApplyEdit(t *testing.T) {
	now := time.Date(2026, 5, 12, 11, 0, 0, 0, time.UTC)

	Convey("Given a canteen with existing reviews", t, func() {
		canteen := newTestCanteen(now)
		old := domain.ReviewDraft{
			Rating:           3,
			PaymentType:      ptStr(domain.PaymentSubscription),
			Price:            intPtr(900),
			ServingType:      svStr(domain.ServingBuffet),
			EmployeeDiscount: boolPtr(false),
		}
		canteen.ApplyReview(domain.ReviewDraft{Rating: 4}, now)
		canteen.ApplyReview(old, now)

		Convey("Editing the rating from 3 to 5 moves exactly one count between buckets", func() {
			updated := old
			updated.Rating = 5
			canteen.ApplyEdit(old, updated, now)

			So(canteen.RatingDistribution.Count(3), ShouldEqual, 0)
			So(canteen.RatingDistribution.Count(5), ShouldEqual, 1)
			So(canteen.TotalReviews, ShouldEqual, 2)
			// (4+5)/2 = 4.5
			So(canteen.AverageRating, ShouldEqual, 4.5)
		})

		Convey("Changing the payment model moves both the vote and the price sample", func() {
			updated := old
			updated.PaymentType = ptStr(domain.PaymentPerVisit)
			updated.Price = intPtr(130)
			canteen.ApplyEdit(old, updated, now)

			So(*canteen.Info.PaymentType.Consensus, ShouldEqual, "per_visit")
			So(canteen.Info.PriceSubscription.Median, ShouldBeNil)
			So(*canteen.Info.PricePerVisit.Median, ShouldEqual, 130)
		})

		Convey("Dropping an attribute withdraws its old contribution", func() {
			updated := old
			updated.ServingType = nil
			updated.EmployeeDiscount = nil
			updated.PaymentType = nil
			updated.Price = nil
			canteen.ApplyEdit(old, updated, now)

			So(canteen.Info.ServingType.Consensus, ShouldBeNil)
			So(canteen.Info.EmployeeDiscount.Consensus, ShouldBeNil)
			So(canteen.Info.PaymentType.Consensus, ShouldBeNil)
			So(canteen.Info.PriceSubscription.Median, ShouldBeNil)
		})

		Convey("An unchanged draft leaves every aggregate value intact", func() {
			canteen.ApplyEdit(old, old, now)

			So(canteen.TotalReviews, ShouldEqual, 2)
			So(canteen.AverageRating, ShouldEqual, 3.5)
			So(*canteen.Info.PaymentType.Consensus, ShouldEqual, "subscription")
			So(*canteen.Info.PriceSubscription.Median, ShouldEqual, 900)
			So(*canteen.Info.ServingType.Consensus, ShouldEqual, "buffet")
		})
	})
}

func TestCanteenMembership(t *testing.T) {
	now := time.Date(2026, 5, 12, 11, 0, 0, 0, time.UTC)

	Convey("Given a canteen with one founding company", t, func() {
		canteen := newTestCanteen(now)

		Convey("The founder is a member", func() {
			So(canteen.HasCompany("998877665"), ShouldBeTrue)
		})

		Convey("Adding a second company grows the membership once", func() {
			other := domain.Company{OrgNumber: "112233445", Name: "Nabo AS"}
			So(canteen.AddCompany(other, now), ShouldBeTrue)
			So(len(canteen.Companies), ShouldEqual, 2)
			So(canteen.AddCompany(other, now), ShouldBeFalse)
			So(len(canteen.Companies), ShouldEqual, 2)
		})
	})
}
