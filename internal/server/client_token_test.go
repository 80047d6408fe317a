package server

import (
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	commonhttp "github.com/kantineguiden/services/api/internal/interfaces/http/common"
)

func newTestServer() *Server {
	return &Server{
		logger:            log.New(os.Stdout, "[test] ", log.LstdFlags),
		clientTokenSecret: []byte("test-secret"),
	}
}

func TestClientTokenMiddleware(t *testing.T) {
	srv := newTestServer()

	capture := func(into *string) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID, _ := commonhttp.ClientIDFromContext(r.Context())
			*into = clientID
			w.WriteHeader(http.StatusOK)
		})
	}

	Convey("Given a request without a client cookie", t, func() {
		var seen string
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/canteens/x/reviews", nil)
		srv.clientTokenMiddleware(capture(&seen)).ServeHTTP(rec, req)

		Convey("A new identity is minted and set as a cookie", func() {
			So(seen, ShouldNotBeEmpty)
			cookies := rec.Result().Cookies()
			So(cookies, ShouldHaveLength, 1)
			So(cookies[0].Name, ShouldEqual, clientCookieName)
			So(cookies[0].HttpOnly, ShouldBeTrue)

			Convey("And a follow-up request with that cookie reuses the identity", func() {
				var again string
				rec2 := httptest.NewRecorder()
				req2 := httptest.NewRequest(http.MethodPost, "/canteens/x/reviews", nil)
				req2.AddCookie(cookies[0])
				srv.clientTokenMiddleware(capture(&again)).ServeHTTP(rec2, req2)

				So(again, ShouldEqual, seen)
				So(rec2.Result().Cookies(), ShouldBeEmpty)
			})
		})
	})

	Convey("Given a tampered client cookie", t, func() {
		var seen string
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/canteens/x/reviews", nil)
		req.AddCookie(&http.Cookie{Name: clientCookieName, Value: "not-a-token"})
		srv.clientTokenMiddleware(capture(&seen)).ServeHTTP(rec, req)

		Convey("The cookie is replaced with a fresh identity", func() {
			So(seen, ShouldNotBeEmpty)
			So(rec.Result().Cookies(), ShouldHaveLength, 1)
		})
	})
}
