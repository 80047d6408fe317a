package domain_test

import (
	"errors"
	"testing"

	"github.com/kantineguiden/services/api/internal/registry/domain"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCanonicalize(t *testing.T) {
	Convey("Given address components", t, func() {
		Convey("A plain address becomes slug_postal_slug", func() {
			key, err := domain.Canonicalize("Forusbeen 50", "4035", "STAVANGER")
			So(err, ShouldBeNil)
			So(key, ShouldEqual, domain.AddressKey("forusbeen-50_4035_stavanger"))
		})

		Convey("Casing and whitespace variations normalize to the same key", func() {
			a, err := domain.Canonicalize("Storgata 1", "0155", "OSLO")
			So(err, ShouldBeNil)
			b, err := domain.Canonicalize("storgata   1", " 0155 ", "Oslo")
			So(err, ShouldBeNil)
			So(a, ShouldEqual, b)
		})

		Convey("Norwegian letters survive while other punctuation is stripped", func() {
			key, err := domain.Canonicalize("Søndre gate 4B!", "7010", "Trondheim")
			So(err, ShouldBeNil)
			So(key, ShouldEqual, domain.AddressKey("søndre-gate-4b_7010_trondheim"))
		})

		Convey("A leading c/o prefix is dropped before slugging", func() {
			key, err := domain.Canonicalize("c/o Regus, Dronning Eufemias gate 16", "0191", "Oslo")
			So(err, ShouldBeNil)
			So(key, ShouldEqual, domain.AddressKey("regus-dronning-eufemias-gate-16_0191_oslo"))
		})

		Convey("Canonicalization is idempotent on canonical parts", func() {
			key, err := domain.Canonicalize("Forusbeen 50", "4035", "Stavanger")
			So(err, ShouldBeNil)
			again, err := domain.Canonicalize("forusbeen-50", "4035", "stavanger")
			So(err, ShouldBeNil)
			So(again, ShouldEqual, key)
		})

		Convey("Empty components are rejected", func() {
			for _, parts := range [][3]string{
				{"", "4035", "Stavanger"},
				{"Forusbeen 50", "   ", "Stavanger"},
				{"Forusbeen 50", "4035", ""},
			} {
				_, err := domain.Canonicalize(parts[0], parts[1], parts[2])
				So(errors.Is(err, domain.ErrInvalidAddress), ShouldBeTrue)
			}
		})
	})
}
