package public

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kantineguiden/services/api/internal/interfaces/http/common"
	"github.com/kantineguiden/services/api/internal/registry/application"
	"github.com/kantineguiden/services/api/internal/registry/domain"
)

const (
	defaultTopLimit = 6
	maxTopLimit     = 50
)

func (h *Handler) canteenTopHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		limit, _ := common.ParsePositiveInt(r.URL.Query().Get("limit"), defaultTopLimit)
		if limit > maxTopLimit {
			limit = maxTopLimit
		}

		canteens, err := h.queries.TopCanteens(ctx, limit)
		if err != nil {
			h.writeDomainError(w, err, "failed to load top canteens")
			return
		}

		items := make([]canteenSummaryResponse, 0, len(canteens))
		for _, canteen := range canteens {
			items = append(items, buildCanteenSummaryResponse(canteen))
		}
		common.WriteJSON(h.logger, w, http.StatusOK, canteenListResponse{Items: items})
	}
}

func (h *Handler) canteenDetailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
		defer cancel()

		key := domain.AddressKey(strings.TrimSpace(chi.URLParam(r, "addressKey")))
		if key == "" {
			common.WriteError(h.logger, w, http.StatusBadRequest, "missing address key")
			return
		}

		canteen, err := h.queries.Canteen(ctx, key)
		if err != nil {
			h.writeDomainError(w, err, "failed to load canteen")
			return
		}
		if canteen == nil {
			common.WriteError(h.logger, w, http.StatusNotFound, "canteen not found")
			return
		}

		others, err := h.queries.CanteensAtAddress(ctx, canteen.BaseAddressKey)
		if err != nil {
			h.writeDomainError(w, err, "failed to load canteens at address")
			return
		}

		// Best effort. A missing point never blocks the detail page.
		var coords *application.Coordinates
		if h.geocoder != nil {
			coords = h.geocoder.Locate(ctx, canteen.Street, canteen.PostalCode, canteen.City)
		}

		common.WriteJSON(h.logger, w, http.StatusOK, buildCanteenDetailResponse(*canteen, coords, others, h.location))
	}
}
