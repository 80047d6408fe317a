package domain_test

import (
	"testing"
	"time"

	"github.com/kantineguiden/services/api/internal/registry/domain"
	. "github.com/smartystreets/goconvey/convey"
)

func TestResolve(t *testing.T) {
	now := time.Date(2026, 5, 12, 11, 0, 0, 0, time.UTC)
	baseKey := domain.AddressKey("forusbeen-50_4035_stavanger")

	companyA := domain.Company{OrgNumber: "998877665", Name: "Eksempel AS"}
	companyB := domain.Company{OrgNumber: "112233445", Name: "Nabo AS"}

	Convey("Given canteens at a base address", t, func() {
		Convey("No canteens yet: the first company creates at the base key", func() {
			res := domain.Resolve(companyA.OrgNumber, baseKey, nil)
			So(res.Action, ShouldEqual, domain.ActionCreateFirst)
			So(res.Target, ShouldEqual, baseKey)
		})

		Convey("A returning company reuses its canteen without a chooser", func() {
			first := domain.NewCanteen(baseKey, baseKey, "", companyA, now)
			second := domain.NewCanteen(baseKey+"_2", baseKey, "Bygg B", companyB, now)
			res := domain.Resolve(companyB.OrgNumber, baseKey, []domain.Canteen{*first, *second})
			So(res.Action, ShouldEqual, domain.ActionReuseExisting)
			So(res.Target, ShouldEqual, baseKey+"_2")
		})

		Convey("A new company at an occupied address must choose", func() {
			first := domain.NewCanteen(baseKey, baseKey, "", companyA, now)
			res := domain.Resolve(companyB.OrgNumber, baseKey, []domain.Canteen{*first})
			So(res.Action, ShouldEqual, domain.ActionChoose)
			So(len(res.Candidates), ShouldEqual, 1)
		})
	})
}

func TestNextSiblingKey(t *testing.T) {
	now := time.Date(2026, 5, 12, 11, 0, 0, 0, time.UTC)
	baseKey := domain.AddressKey("storgata-1_0155_oslo")
	company := domain.Company{OrgNumber: "998877665", Name: "Eksempel AS"}

	Convey("Given the sibling canteens at a base address", t, func() {
		Convey("An empty address starts at the base key itself", func() {
			So(domain.NextSiblingKey(baseKey, nil), ShouldEqual, baseKey)
		})

		Convey("The second canteen gets suffix _2", func() {
			first := domain.NewCanteen(baseKey, baseKey, "", company, now)
			So(domain.NextSiblingKey(baseKey, []domain.Canteen{*first}), ShouldEqual, baseKey+"_2")
		})

		Convey("Further canteens continue above the highest suffix", func() {
			first := domain.NewCanteen(baseKey, baseKey, "", company, now)
			second := domain.NewCanteen(baseKey+"_2", baseKey, "", company, now)
			fourth := domain.NewCanteen(baseKey+"_4", baseKey, "", company, now)
			next := domain.NextSiblingKey(baseKey, []domain.Canteen{*first, *second, *fourth})
			So(next, ShouldEqual, baseKey+"_5")
		})
	})
}
