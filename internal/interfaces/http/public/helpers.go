package public

import (
	"errors"
	"net/http"

	"github.com/kantineguiden/services/api/internal/interfaces/http/common"
	"github.com/kantineguiden/services/api/internal/registry/domain"
)

// writeValidationOrDomainError additionally surfaces review validation
// messages verbatim, since they are written for the submitting user.
func (h *Handler) writeValidationOrDomainError(w http.ResponseWriter, err error, fallback string) {
	if errors.Is(err, domain.ErrInvalidReview) {
		common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeDomainError(w, err, fallback)
}

// writeDomainError maps domain sentinels onto HTTP statuses. Anything
// unrecognised is an internal error and gets logged by the caller.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrInvalidAddress):
		common.WriteError(h.logger, w, http.StatusUnprocessableEntity, "the company's address could not be canonicalized")
	case errors.Is(err, domain.ErrCompanyMissingAddress):
		common.WriteError(h.logger, w, http.StatusUnprocessableEntity, "the company has no registered address")
	case errors.Is(err, domain.ErrCanteenNotFound):
		common.WriteError(h.logger, w, http.StatusNotFound, "canteen not found")
	case errors.Is(err, domain.ErrReviewNotFound):
		common.WriteError(h.logger, w, http.StatusNotFound, "review not found")
	case errors.Is(err, domain.ErrNotOwner):
		common.WriteError(h.logger, w, http.StatusForbidden, "the review belongs to another client")
	case errors.Is(err, domain.ErrTransactionConflict):
		common.WriteError(h.logger, w, http.StatusConflict, "the canteen is being updated, try again")
	case errors.Is(err, domain.ErrUpstreamLookup):
		common.WriteError(h.logger, w, http.StatusBadGateway, "the business registry is unavailable")
	default:
		h.logger.Printf("%s: %v", fallback, err)
		common.WriteError(h.logger, w, http.StatusInternalServerError, fallback)
	}
}
