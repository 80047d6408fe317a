package public

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kantineguiden/services/api/internal/interfaces/http/common"
)

const maxFeedbackLength = 1000

type feedbackRequest struct {
	Message string `json:"message"`
}

func (req *feedbackRequest) validate() error {
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		return errors.New("message must not be empty")
	}
	if utf8.RuneCountInString(req.Message) > maxFeedbackLength {
		return errors.New("message is too long")
	}
	return nil
}

func (h *Handler) feedbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		var req feedbackRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if err := req.validate(); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}

		if err := h.feedback.Add(ctx, req.Message); err != nil {
			h.logger.Printf("feedback store failed: %v", err)
			common.WriteError(h.logger, w, http.StatusInternalServerError, "failed to store feedback")
			return
		}

		common.WriteJSON(h.logger, w, http.StatusCreated, map[string]string{"status": "ok"})
	}
}
