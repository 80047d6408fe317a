package public

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/kantineguiden/services/api/internal/interfaces/http/common"
	"github.com/kantineguiden/services/api/internal/registry/application"
	"github.com/kantineguiden/services/api/internal/registry/domain"
)

type fakeRegistry struct {
	hits    []domain.CompanyHit
	outcome *application.SelectOutcome
	err     error
	lastCmd application.SelectCompanyCommand
}

func (f *fakeRegistry) SearchCompanies(_ context.Context, _ string) ([]domain.CompanyHit, error) {
	return f.hits, f.err
}

func (f *fakeRegistry) Select(_ context.Context, cmd application.SelectCompanyCommand) (*application.SelectOutcome, error) {
	f.lastCmd = cmd
	return f.outcome, f.err
}

type fakeReviews struct {
	outcome application.SubmitOutcome
	mine    *domain.Review
	list    []domain.Review
	recent  []application.RecentReview
	err     error
	editErr error
}

func (f *fakeReviews) Submit(_ context.Context, cmd application.SubmitReviewCommand) (application.SubmitOutcome, error) {
	if err := cmd.Draft.Validate(); err != nil {
		return application.SubmitOutcome{}, domain.ErrInvalidReview
	}
	return f.outcome, f.err
}

func (f *fakeReviews) Edit(_ context.Context, _ application.EditReviewCommand) error {
	return f.editErr
}

func (f *fakeReviews) MyReview(_ context.Context, _ domain.AddressKey, _ string) (*domain.Review, error) {
	return f.mine, f.err
}

func (f *fakeReviews) CanteenReviews(_ context.Context, _ domain.AddressKey, _ int) ([]domain.Review, error) {
	return f.list, f.err
}

func (f *fakeReviews) RecentReviews(_ context.Context, _ int) ([]application.RecentReview, error) {
	return f.recent, f.err
}

type fakeQueries struct {
	canteen *domain.Canteen
	atAddr  []domain.Canteen
	top     []domain.Canteen
	err     error
}

func (f *fakeQueries) Canteen(_ context.Context, _ domain.AddressKey) (*domain.Canteen, error) {
	return f.canteen, f.err
}

func (f *fakeQueries) CanteensAtAddress(_ context.Context, _ domain.AddressKey) ([]domain.Canteen, error) {
	return f.atAddr, f.err
}

func (f *fakeQueries) TopCanteens(_ context.Context, _ int) ([]domain.Canteen, error) {
	return f.top, f.err
}

type fakeFeedback struct {
	messages []string
}

func (f *fakeFeedback) Add(_ context.Context, message string) error {
	f.messages = append(f.messages, message)
	return nil
}

func withTestClient(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := common.ContextWithClientID(r.Context(), "client-1")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func newTestRouter(registry *fakeRegistry, reviews *fakeReviews, queries *fakeQueries, feedback *fakeFeedback) *chi.Mux {
	handler := NewHandler(Config{
		Logger:   log.New(os.Stdout, "[test] ", log.LstdFlags),
		Registry: registry,
		Reviews:  reviews,
		Queries:  queries,
		Feedback: feedback,
		Location: time.UTC,
	})
	router := chi.NewRouter()
	handler.Register(router, withTestClient)
	return router
}

func testCanteen(key string, name string) *domain.Canteen {
	company := domain.Company{OrgNumber: "910000001", Name: name, Address: &domain.Address{
		Street: "Storgata 1", PostalCode: "0155", City: "Oslo",
	}}
	return domain.NewCanteen(domain.AddressKey(key), "storgata-1_0155_oslo", "", company, time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC))
}

func doJSON(router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCompanySelectHandler(t *testing.T) {
	Convey("Given an address with existing canteens", t, func() {
		registry := &fakeRegistry{outcome: &application.SelectOutcome{
			Action:  domain.ActionChoose,
			Company: domain.Company{OrgNumber: "910000001", Name: "Fjordkraft AS"},
			Candidates: []domain.Canteen{
				*testCanteen("storgata-1_0155_oslo", "Fjordkraft AS"),
			},
		}}
		router := newTestRouter(registry, &fakeReviews{}, &fakeQueries{}, &fakeFeedback{})

		Convey("Selecting without a choice returns the chooser", func() {
			rec := doJSON(router, http.MethodPost, "/companies/select", map[string]string{"orgNumber": "910000001"})
			So(rec.Code, ShouldEqual, http.StatusOK)

			var body selectOutcomeResponse
			So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
			So(body.Status, ShouldEqual, "choose")
			So(body.Candidates, ShouldHaveLength, 1)
		})

		Convey("Choosing existing without a canteen key is rejected", func() {
			rec := doJSON(router, http.MethodPost, "/companies/select", map[string]string{
				"orgNumber": "910000001",
				"choice":    "existing",
			})
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("An unknown choice is rejected", func() {
			rec := doJSON(router, http.MethodPost, "/companies/select", map[string]string{
				"orgNumber": "910000001",
				"choice":    "maybe",
			})
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})
	})

	Convey("Given a resolved registration", t, func() {
		registry := &fakeRegistry{outcome: &application.SelectOutcome{
			Action:     domain.ActionCreateFirst,
			CanteenKey: "storgata-1_0155_oslo",
		}}
		router := newTestRouter(registry, &fakeReviews{}, &fakeQueries{}, &fakeFeedback{})

		Convey("The canteen key is returned", func() {
			rec := doJSON(router, http.MethodPost, "/companies/select", map[string]string{"orgNumber": "910000001"})
			So(rec.Code, ShouldEqual, http.StatusOK)

			var body selectOutcomeResponse
			So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
			So(body.Status, ShouldEqual, "registered")
			So(body.CanteenKey, ShouldEqual, "storgata-1_0155_oslo")
		})
	})
}

func TestReviewCreateHandler(t *testing.T) {
	review := domain.Review{ID: "a1", Rating: 4, CreatedAt: time.Now()}

	Convey("Given a first submission", t, func() {
		reviews := &fakeReviews{outcome: application.SubmitOutcome{Review: &review}}
		router := newTestRouter(&fakeRegistry{}, reviews, &fakeQueries{}, &fakeFeedback{})

		Convey("The handler answers 201 created", func() {
			rec := doJSON(router, http.MethodPost, "/canteens/storgata-1_0155_oslo/reviews", map[string]any{"rating": 4})
			So(rec.Code, ShouldEqual, http.StatusCreated)

			var body createReviewResponse
			So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
			So(body.Status, ShouldEqual, "created")
			So(body.Review.ID, ShouldEqual, "a1")
		})
	})

	Convey("Given a repeat submission", t, func() {
		reviews := &fakeReviews{outcome: application.SubmitOutcome{Review: &review, Duplicate: true}}
		router := newTestRouter(&fakeRegistry{}, reviews, &fakeQueries{}, &fakeFeedback{})

		Convey("The handler answers 200 with the duplicate status", func() {
			rec := doJSON(router, http.MethodPost, "/canteens/storgata-1_0155_oslo/reviews", map[string]any{"rating": 4})
			So(rec.Code, ShouldEqual, http.StatusOK)

			var body createReviewResponse
			So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
			So(body.Status, ShouldEqual, "duplicate")
		})
	})

	Convey("Given an out-of-range rating", t, func() {
		router := newTestRouter(&fakeRegistry{}, &fakeReviews{}, &fakeQueries{}, &fakeFeedback{})

		Convey("The handler answers 400", func() {
			rec := doJSON(router, http.MethodPost, "/canteens/storgata-1_0155_oslo/reviews", map[string]any{"rating": 6})
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestMyReviewHandler(t *testing.T) {
	Convey("Given a client without a review", t, func() {
		router := newTestRouter(&fakeRegistry{}, &fakeReviews{}, &fakeQueries{}, &fakeFeedback{})

		Convey("The handler answers 204", func() {
			rec := doJSON(router, http.MethodGet, "/canteens/storgata-1_0155_oslo/reviews/mine", nil)
			So(rec.Code, ShouldEqual, http.StatusNoContent)
		})
	})

	Convey("Given a client with a review", t, func() {
		mine := &domain.Review{ID: "a1", Rating: 5, CreatedAt: time.Now()}
		router := newTestRouter(&fakeRegistry{}, &fakeReviews{mine: mine}, &fakeQueries{}, &fakeFeedback{})

		Convey("The review is returned", func() {
			rec := doJSON(router, http.MethodGet, "/canteens/storgata-1_0155_oslo/reviews/mine", nil)
			So(rec.Code, ShouldEqual, http.StatusOK)

			var body reviewResponse
			So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
			So(body.ID, ShouldEqual, "a1")
			So(body.Rating, ShouldEqual, 5)
		})
	})
}

func TestCanteenDetailHandler(t *testing.T) {
	Convey("Given a canteen with a sibling at the same address", t, func() {
		canteen := testCanteen("storgata-1_0155_oslo", "Fjordkraft AS")
		sibling := testCanteen("storgata-1_0155_oslo_2", "Bygg B")
		queries := &fakeQueries{canteen: canteen, atAddr: []domain.Canteen{*canteen, *sibling}}
		router := newTestRouter(&fakeRegistry{}, &fakeReviews{}, queries, &fakeFeedback{})

		Convey("The detail lists the sibling but not itself", func() {
			rec := doJSON(router, http.MethodGet, "/canteens/storgata-1_0155_oslo", nil)
			So(rec.Code, ShouldEqual, http.StatusOK)

			var body canteenDetailResponse
			So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
			So(body.AddressKey, ShouldEqual, "storgata-1_0155_oslo")
			So(body.OthersAtAddress, ShouldHaveLength, 1)
			So(body.OthersAtAddress[0].AddressKey, ShouldEqual, "storgata-1_0155_oslo_2")
		})
	})

	Convey("Given an unknown canteen", t, func() {
		router := newTestRouter(&fakeRegistry{}, &fakeReviews{}, &fakeQueries{}, &fakeFeedback{})

		Convey("The handler answers 404", func() {
			rec := doJSON(router, http.MethodGet, "/canteens/nowhere_0000_x", nil)
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestFeedbackHandler(t *testing.T) {
	Convey("Given a feedback message", t, func() {
		feedback := &fakeFeedback{}
		router := newTestRouter(&fakeRegistry{}, &fakeReviews{}, &fakeQueries{}, feedback)

		Convey("It is stored and acknowledged", func() {
			rec := doJSON(router, http.MethodPost, "/feedback", map[string]string{"message": "great service"})
			So(rec.Code, ShouldEqual, http.StatusCreated)
			So(feedback.messages, ShouldResemble, []string{"great service"})
		})

		Convey("An empty message is rejected", func() {
			rec := doJSON(router, http.MethodPost, "/feedback", map[string]string{"message": "   "})
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}
