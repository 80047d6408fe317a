package public

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/kantineguiden/services/api/internal/interfaces/http/common"
	"github.com/kantineguiden/services/api/internal/registry/application"
	"github.com/kantineguiden/services/api/internal/registry/domain"
)

type companySearchRequest struct {
	Query string `json:"query"`
}

func (req *companySearchRequest) validate() error {
	req.Query = strings.TrimSpace(req.Query)
	if len(req.Query) < 2 {
		return errors.New("search query must be at least 2 characters")
	}
	return nil
}

type companySelectRequest struct {
	OrgNumber       string `json:"orgNumber"`
	Choice          string `json:"choice,omitempty"`
	SelectedCanteen string `json:"selectedCanteen,omitempty"`
	CanteenName     string `json:"canteenName,omitempty"`
}

func (req *companySelectRequest) validate() error {
	req.OrgNumber = strings.TrimSpace(req.OrgNumber)
	if req.OrgNumber == "" {
		return errors.New("orgNumber is required")
	}
	req.Choice = strings.TrimSpace(req.Choice)
	switch req.Choice {
	case "", application.ChoiceNew:
	case application.ChoiceExisting:
		if strings.TrimSpace(req.SelectedCanteen) == "" {
			return errors.New("selectedCanteen is required when choosing an existing canteen")
		}
	default:
		return errors.New("choice must be \"existing\" or \"new\"")
	}
	return nil
}

func (h *Handler) companySearchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		var req companySearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if err := req.validate(); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}

		hits, err := h.registry.SearchCompanies(ctx, req.Query)
		if err != nil {
			h.writeDomainError(w, err, "company search failed")
			return
		}

		items := make([]companyResponse, 0, len(hits))
		for _, hit := range hits {
			items = append(items, companyResponse{
				OrgNumber: hit.OrgNumber,
				Name:      hit.Name,
				Address:   hit.Address,
			})
		}
		common.WriteJSON(h.logger, w, http.StatusOK, companySearchResponse{Items: items})
	}
}

func (h *Handler) companySelectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		var req companySelectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if err := req.validate(); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}

		outcome, err := h.registry.Select(ctx, application.SelectCompanyCommand{
			OrgNumber:       req.OrgNumber,
			Choice:          req.Choice,
			SelectedCanteen: domain.AddressKey(strings.TrimSpace(req.SelectedCanteen)),
			CanteenName:     req.CanteenName,
		})
		if err != nil {
			h.writeDomainError(w, err, "canteen selection failed")
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, buildSelectOutcomeResponse(*outcome))
	}
}

func buildSelectOutcomeResponse(outcome application.SelectOutcome) selectOutcomeResponse {
	res := selectOutcomeResponse{Action: string(outcome.Action)}
	if outcome.Action == domain.ActionChoose {
		res.Status = "choose"
		company := buildCompanyResponse(outcome.Company)
		res.Company = &company
		res.Candidates = make([]canteenSummaryResponse, 0, len(outcome.Candidates))
		for _, candidate := range outcome.Candidates {
			res.Candidates = append(res.Candidates, buildCanteenSummaryResponse(candidate))
		}
		return res
	}
	res.Status = "registered"
	res.CanteenKey = string(outcome.CanteenKey)
	return res
}
