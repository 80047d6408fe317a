package public

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kantineguiden/services/api/internal/interfaces/http/common"
	"github.com/kantineguiden/services/api/internal/registry/application"
	"github.com/kantineguiden/services/api/internal/registry/domain"
)

const (
	defaultReviewLimit = 20
	maxReviewLimit     = 100
	defaultRecentLimit = 8
)

type reviewRequest struct {
	Rating           int     `json:"rating"`
	Comment          string  `json:"comment"`
	CompanyName      string  `json:"companyName"`
	PaymentType      *string `json:"paymentType,omitempty"`
	Price            *int    `json:"price,omitempty"`
	ServingType      *string `json:"servingType,omitempty"`
	EmployeeDiscount *bool   `json:"employeeDiscount,omitempty"`
}

// draft converts the payload to a domain draft. Range validation happens in
// the domain layer so the bounds live in one place.
func (req reviewRequest) draft() domain.ReviewDraft {
	draft := domain.ReviewDraft{
		Rating:           req.Rating,
		Comment:          req.Comment,
		CompanyName:      req.CompanyName,
		Price:            req.Price,
		EmployeeDiscount: req.EmployeeDiscount,
	}
	if req.PaymentType != nil {
		pt := domain.PaymentType(*req.PaymentType)
		draft.PaymentType = &pt
	}
	if req.ServingType != nil {
		st := domain.ServingType(*req.ServingType)
		draft.ServingType = &st
	}
	return draft
}

func (h *Handler) reviewCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		clientID, ok := common.ClientIDFromContext(r.Context())
		if !ok {
			common.WriteError(h.logger, w, http.StatusInternalServerError, "client identity missing")
			return
		}

		key := domain.AddressKey(strings.TrimSpace(chi.URLParam(r, "addressKey")))
		var req reviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		outcome, err := h.reviews.Submit(ctx, application.SubmitReviewCommand{
			CanteenKey: key,
			ClientID:   clientID,
			Draft:      req.draft(),
		})
		if err != nil {
			h.writeValidationOrDomainError(w, err, "review submission failed")
			return
		}

		status := http.StatusCreated
		body := createReviewResponse{Status: "created"}
		if outcome.Duplicate {
			status = http.StatusOK
			body.Status = "duplicate"
		}
		if outcome.Review != nil {
			body.Review = buildReviewResponse(*outcome.Review, h.location)
		}
		common.WriteJSON(h.logger, w, status, body)
	}
}

func (h *Handler) reviewEditHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		clientID, ok := common.ClientIDFromContext(r.Context())
		if !ok {
			common.WriteError(h.logger, w, http.StatusInternalServerError, "client identity missing")
			return
		}

		key := domain.AddressKey(strings.TrimSpace(chi.URLParam(r, "addressKey")))
		reviewID := strings.TrimSpace(chi.URLParam(r, "id"))
		if reviewID == "" {
			common.WriteError(h.logger, w, http.StatusBadRequest, "missing review id")
			return
		}

		var req reviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		err := h.reviews.Edit(ctx, application.EditReviewCommand{
			CanteenKey: key,
			ReviewID:   reviewID,
			ClientID:   clientID,
			Draft:      req.draft(),
		})
		if err != nil {
			h.writeValidationOrDomainError(w, err, "review edit failed")
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, map[string]string{"status": "updated"})
	}
}

func (h *Handler) myReviewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		clientID, ok := common.ClientIDFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		key := domain.AddressKey(strings.TrimSpace(chi.URLParam(r, "addressKey")))
		review, err := h.reviews.MyReview(ctx, key, clientID)
		if err != nil {
			h.writeDomainError(w, err, "failed to load review")
			return
		}
		if review == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, buildReviewResponse(*review, h.location))
	}
}

func (h *Handler) reviewListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		key := domain.AddressKey(strings.TrimSpace(chi.URLParam(r, "addressKey")))
		limit, _ := common.ParsePositiveInt(r.URL.Query().Get("limit"), defaultReviewLimit)
		if limit > maxReviewLimit {
			limit = maxReviewLimit
		}

		reviews, err := h.reviews.CanteenReviews(ctx, key, limit)
		if err != nil {
			h.writeDomainError(w, err, "failed to load reviews")
			return
		}

		items := make([]reviewResponse, 0, len(reviews))
		for _, review := range reviews {
			items = append(items, buildReviewResponse(review, h.location))
		}
		common.WriteJSON(h.logger, w, http.StatusOK, reviewListResponse{Items: items})
	}
}

func (h *Handler) recentReviewsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		limit, _ := common.ParsePositiveInt(r.URL.Query().Get("limit"), defaultRecentLimit)
		if limit > maxReviewLimit {
			limit = maxReviewLimit
		}

		recent, err := h.reviews.RecentReviews(ctx, limit)
		if err != nil {
			h.writeDomainError(w, err, "failed to load recent reviews")
			return
		}

		items := make([]recentReviewResponse, 0, len(recent))
		for _, entry := range recent {
			items = append(items, recentReviewResponse{
				Review: buildReviewResponse(entry.Review, h.location),
				Canteen: recentCanteenResponse{
					AddressKey:  string(entry.CanteenKey),
					CanteenName: entry.CanteenName,
					Street:      entry.Street,
					City:        entry.City,
				},
			})
		}
		common.WriteJSON(h.logger, w, http.StatusOK, recentReviewListResponse{Items: items})
	}
}
