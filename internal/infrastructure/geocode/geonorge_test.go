package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/kantineguiden/services/api/internal/cache"
	"github.com/kantineguiden/services/api/internal/registry/application"
)

func newTestClient(handler http.Handler) (*GeonorgeClient, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewGeonorgeClient(
		server.URL,
		server.Client(),
		cache.New[*application.Coordinates](time.Hour, 200),
		nil,
	)
	return client, server
}

func TestLocate(t *testing.T) {
	Convey("Given an address the service can resolve", t, func() {
		var requests int64
		client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt64(&requests, 1)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"adresser": [
					{"representasjonspunkt": {"lat": 59.9075, "lon": 10.7531}}
				]
			}`))
		}))
		defer server.Close()

		Convey("Locate returns the representative point", func() {
			coords := client.Locate(context.Background(), "Dronning Eufemias gate 16", "0191", "Oslo")
			So(coords, ShouldNotBeNil)
			So(coords.Lat, ShouldAlmostEqual, 59.9075)
			So(coords.Lon, ShouldAlmostEqual, 10.7531)

			Convey("And the result is cached", func() {
				again := client.Locate(context.Background(), "dronning eufemias gate 16", "0191", "oslo")
				So(again, ShouldNotBeNil)
				So(atomic.LoadInt64(&requests), ShouldEqual, 1)
			})
		})
	})

	Convey("Given a query with no hits", t, func() {
		client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"adresser": []}`))
		}))
		defer server.Close()

		Convey("Locate returns nil", func() {
			So(client.Locate(context.Background(), "Finnes Ikke 99", "9999", "Ingensteds"), ShouldBeNil)
		})
	})

	Convey("Given an upstream failure", t, func() {
		client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		Convey("Locate degrades to nil instead of an error", func() {
			So(client.Locate(context.Background(), "Storgata 1", "0155", "Oslo"), ShouldBeNil)
		})
	})

	Convey("Given a missing street", t, func() {
		client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected without a street")
		}))
		defer server.Close()

		Convey("Locate skips the lookup entirely", func() {
			So(client.Locate(context.Background(), "", "0155", "Oslo"), ShouldBeNil)
		})
	})
}
