package public

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kantineguiden/services/api/internal/registry/application"
)

// Handler wires public HTTP endpoints to application services.
type Handler struct {
	logger   *log.Logger
	registry application.RegistryService
	reviews  application.ReviewService
	queries  application.QueryService
	feedback application.FeedbackService
	geocoder application.Geocoder
	location *time.Location
}

// Config defines dependencies required by Handler.
type Config struct {
	Logger   *log.Logger
	Registry application.RegistryService
	Reviews  application.ReviewService
	Queries  application.QueryService
	Feedback application.FeedbackService
	Geocoder application.Geocoder
	Location *time.Location
}

// NewHandler constructs a public HTTP handler set.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		logger:   cfg.Logger,
		registry: cfg.Registry,
		reviews:  cfg.Reviews,
		queries:  cfg.Queries,
		feedback: cfg.Feedback,
		geocoder: cfg.Geocoder,
		location: cfg.Location,
	}
}

// Register mounts all public routes onto the router. clientMiddleware
// guarantees an anonymous client identity on the routes that need one.
func (h *Handler) Register(r chi.Router, clientMiddleware func(http.Handler) http.Handler) {
	r.Get("/canteens/top", h.canteenTopHandler())
	r.Get("/canteens/recent-reviews", h.recentReviewsHandler())
	r.Get("/canteens/{addressKey}", h.canteenDetailHandler())
	r.Get("/canteens/{addressKey}/reviews", h.reviewListHandler())
	r.Post("/companies/search", h.companySearchHandler())
	r.Post("/companies/select", h.companySelectHandler())
	r.Post("/feedback", h.feedbackHandler())

	r.With(clientMiddleware).Get("/canteens/{addressKey}/reviews/mine", h.myReviewHandler())
	r.With(clientMiddleware).Post("/canteens/{addressKey}/reviews", h.reviewCreateHandler())
	r.With(clientMiddleware).Patch("/canteens/{addressKey}/reviews/{id}", h.reviewEditHandler())
}
