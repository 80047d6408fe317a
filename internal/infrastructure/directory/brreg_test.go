package directory

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/kantineguiden/services/api/internal/cache"
	"github.com/kantineguiden/services/api/internal/registry/domain"
)

func newTestClient(handler http.Handler) (*BrregClient, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewBrregClient(
		server.URL,
		server.Client(),
		cache.New[[]domain.CompanyHit](5*time.Minute, 200),
		cache.New[*domain.Company](5*time.Minute, 200),
		nil,
	)
	return client, server
}

func TestSearch(t *testing.T) {
	Convey("Given a registry with matching companies", t, func() {
		var requests int64
		client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt64(&requests, 1)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"_embedded": {"enheter": [
					{
						"organisasjonsnummer": "910000001",
						"navn": "Fjordkraft AS",
						"forretningsadresse": {
							"adresse": ["Storgata 1"],
							"postnummer": "0155",
							"poststed": "Oslo"
						}
					},
					{
						"organisasjonsnummer": "910000002",
						"navn": "Uten Adresse AS"
					}
				]}
			}`))
		}))
		defer server.Close()

		Convey("Search returns hits with a display address", func() {
			hits, err := client.Search(context.Background(), "fjord")
			So(err, ShouldBeNil)
			So(hits, ShouldHaveLength, 1)
			So(hits[0].OrgNumber, ShouldEqual, "910000001")
			So(hits[0].Name, ShouldEqual, "Fjordkraft AS")
			So(hits[0].Address, ShouldEqual, "Storgata 1, 0155 Oslo")

			Convey("And a repeated query is served from cache", func() {
				again, err := client.Search(context.Background(), "FJORD")
				So(err, ShouldBeNil)
				So(again, ShouldResemble, hits)
				So(atomic.LoadInt64(&requests), ShouldEqual, 1)
			})
		})
	})

	Convey("Given a registry that is failing", t, func() {
		client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		Convey("Search surfaces the upstream failure", func() {
			_, err := client.Search(context.Background(), "fjord")
			So(errors.Is(err, domain.ErrUpstreamLookup), ShouldBeTrue)
		})
	})
}

func TestByOrgNumber(t *testing.T) {
	Convey("Given a company whose first address line is a c/o line", t, func() {
		client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"organisasjonsnummer": "910000003",
				"navn": "Regnskap AS",
				"forretningsadresse": {
					"adresse": ["c/o Regus", "Dronning Eufemias gate 16"],
					"postnummer": "0191",
					"poststed": "Oslo",
					"kommune": "OSLO",
					"kommunenummer": "0301"
				}
			}`))
		}))
		defer server.Close()

		Convey("The street skips the c/o line", func() {
			company, err := client.ByOrgNumber(context.Background(), "910000003")
			So(err, ShouldBeNil)
			So(company, ShouldNotBeNil)
			So(company.Address, ShouldNotBeNil)
			So(company.Address.Street, ShouldEqual, "Dronning Eufemias gate 16")
			So(company.Address.PostalCode, ShouldEqual, "0191")
			So(company.Address.Municipality, ShouldEqual, "OSLO")
		})
	})

	Convey("Given a company without any registered address", t, func() {
		client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"organisasjonsnummer": "910000004", "navn": "Postboks AS"}`))
		}))
		defer server.Close()

		Convey("The company comes back with a nil address", func() {
			company, err := client.ByOrgNumber(context.Background(), "910000004")
			So(err, ShouldBeNil)
			So(company, ShouldNotBeNil)
			So(company.Name, ShouldEqual, "Postboks AS")
			So(company.Address, ShouldBeNil)
		})
	})

	Convey("Given an organisation number the registry does not know", t, func() {
		client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		Convey("The lookup returns nil without an error", func() {
			company, err := client.ByOrgNumber(context.Background(), "000000000")
			So(err, ShouldBeNil)
			So(company, ShouldBeNil)
		})
	})
}
