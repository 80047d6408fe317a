package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kantineguiden/services/api/internal/registry/domain"
)

// registryService resolves company registrations onto canteen identities.
type registryService struct {
	canteens  CanteenRepository
	directory CompanyDirectory
	now       func() time.Time
}

// NewRegistryService wires the canteen repository and company directory into
// a RegistryService.
func NewRegistryService(canteens CanteenRepository, directory CompanyDirectory) RegistryService {
	return &registryService{canteens: canteens, directory: directory, now: time.Now}
}

func (s *registryService) SearchCompanies(ctx context.Context, query string) ([]domain.CompanyHit, error) {
	return s.directory.Search(ctx, strings.TrimSpace(query))
}

// Select maps a company onto a canteen. Without a choice it resolves the
// address: a lone first company registers directly, a returning organisation
// reuses its canteen, and anything still ambiguous comes back as a chooser
// offer. With a choice it joins the selected sibling or mints the next
// suffix key for an additional canteen.
func (s *registryService) Select(ctx context.Context, cmd SelectCompanyCommand) (*SelectOutcome, error) {
	company, err := s.directory.ByOrgNumber(ctx, strings.TrimSpace(cmd.OrgNumber))
	if err != nil {
		return nil, err
	}
	if company == nil || company.Address == nil {
		return nil, domain.ErrCompanyMissingAddress
	}

	baseKey, err := company.BaseAddressKey()
	if err != nil {
		return nil, err
	}

	switch cmd.Choice {
	case ChoiceExisting:
		if cmd.SelectedCanteen == "" {
			return nil, fmt.Errorf("no canteen selected")
		}
		return s.join(ctx, cmd.SelectedCanteen, *company)
	case ChoiceNew:
		existing, err := s.canteens.AtAddress(ctx, baseKey)
		if err != nil {
			return nil, err
		}
		key := domain.NextSiblingKey(baseKey, existing)
		return s.create(ctx, key, baseKey, strings.TrimSpace(cmd.CanteenName), *company, domain.ActionCreateAdditional)
	}

	existing, err := s.canteens.AtAddress(ctx, baseKey)
	if err != nil {
		return nil, err
	}

	resolution := domain.Resolve(company.OrgNumber, baseKey, existing)
	switch resolution.Action {
	case domain.ActionCreateFirst:
		return s.create(ctx, resolution.Target, baseKey, "", *company, domain.ActionCreateFirst)
	case domain.ActionReuseExisting:
		return s.join(ctx, resolution.Target, *company)
	default:
		return &SelectOutcome{
			Action:     domain.ActionChoose,
			Company:    *company,
			Candidates: resolution.Candidates,
		}, nil
	}
}

func (s *registryService) create(ctx context.Context, key, baseKey domain.AddressKey, canteenName string, company domain.Company, action domain.ResolutionAction) (*SelectOutcome, error) {
	canteen := domain.NewCanteen(key, baseKey, canteenName, company, s.now())
	if err := s.canteens.Create(ctx, canteen); err != nil {
		return nil, err
	}
	return &SelectOutcome{Action: action, CanteenKey: key, Company: company}, nil
}

func (s *registryService) join(ctx context.Context, key domain.AddressKey, company domain.Company) (*SelectOutcome, error) {
	if err := s.canteens.Join(ctx, key, company); err != nil {
		return nil, err
	}
	return &SelectOutcome{Action: domain.ActionReuseExisting, CanteenKey: key, Company: company}, nil
}
