package application

import (
	"context"

	"github.com/kantineguiden/services/api/internal/registry/domain"
)

// CanteenRepository abstracts canteen reads and identity writes against the
// document store.
type CanteenRepository interface {
	// Get returns the canteen for key, or nil when absent.
	Get(ctx context.Context, key domain.AddressKey) (*domain.Canteen, error)
	// AtAddress returns every canteen sharing a base address key.
	AtAddress(ctx context.Context, baseKey domain.AddressKey) ([]domain.Canteen, error)
	// Top returns the most-reviewed canteens, at most limit.
	Top(ctx context.Context, limit int) ([]domain.Canteen, error)
	// Create persists a new canteen document.
	Create(ctx context.Context, canteen *domain.Canteen) error
	// Join adds the company to an existing canteen's membership inside one
	// transaction, refreshing updatedAt. Idempotent per organisation.
	Join(ctx context.Context, key domain.AddressKey, company domain.Company) error
}

// ReviewLedger owns the transactional review protocol and the review read
// paths that depend on its storage layout.
type ReviewLedger interface {
	Submit(ctx context.Context, key domain.AddressKey, clientID string, draft domain.ReviewDraft) (SubmitOutcome, error)
	Edit(ctx context.Context, key domain.AddressKey, reviewID, clientID string, draft domain.ReviewDraft) error
	ByClient(ctx context.Context, key domain.AddressKey, clientID string) (*domain.Review, error)
	ForCanteen(ctx context.Context, key domain.AddressKey, limit int) ([]domain.Review, error)
	Recent(ctx context.Context, limit int) ([]RecentReview, error)
}

// CompanyDirectory is the read-only business-registry lookup. Failures are
// wrapped as domain.ErrUpstreamLookup.
type CompanyDirectory interface {
	Search(ctx context.Context, query string) ([]domain.CompanyHit, error)
	ByOrgNumber(ctx context.Context, orgNumber string) (*domain.Company, error)
}

// Coordinates is a geocoded point for map display.
type Coordinates struct {
	Lat float64
	Lon float64
}

// Geocoder resolves an address to coordinates, best effort: nil means
// unknown, never an error.
type Geocoder interface {
	Locate(ctx context.Context, street, postalCode, city string) *Coordinates
}

// FeedbackRepository stores free-text user feedback.
type FeedbackRepository interface {
	Add(ctx context.Context, message string) error
}

// SubmitOutcome distinguishes a created review from a suppressed duplicate.
// Duplicate submission is an expected control-flow branch, not an error.
type SubmitOutcome struct {
	Review    *domain.Review
	Duplicate bool
}

// RecentReview is a review annotated with its parent canteen's address for
// display in cross-canteen listings.
type RecentReview struct {
	Review      domain.Review
	CanteenKey  domain.AddressKey
	CanteenName string
	Street      string
	City        string
}

// RegistryService maps companies onto canteen identities.
type RegistryService interface {
	SearchCompanies(ctx context.Context, query string) ([]domain.CompanyHit, error)
	Select(ctx context.Context, cmd SelectCompanyCommand) (*SelectOutcome, error)
}

// ReviewService validates and routes review submissions and edits.
type ReviewService interface {
	Submit(ctx context.Context, cmd SubmitReviewCommand) (SubmitOutcome, error)
	Edit(ctx context.Context, cmd EditReviewCommand) error
	MyReview(ctx context.Context, key domain.AddressKey, clientID string) (*domain.Review, error)
	CanteenReviews(ctx context.Context, key domain.AddressKey, limit int) ([]domain.Review, error)
	RecentReviews(ctx context.Context, limit int) ([]RecentReview, error)
}

// QueryService exposes the read-only registry surface.
type QueryService interface {
	Canteen(ctx context.Context, key domain.AddressKey) (*domain.Canteen, error)
	CanteensAtAddress(ctx context.Context, baseKey domain.AddressKey) ([]domain.Canteen, error)
	TopCanteens(ctx context.Context, limit int) ([]domain.Canteen, error)
}

// FeedbackService stores anonymous feedback messages.
type FeedbackService interface {
	Add(ctx context.Context, message string) error
}

// SelectCompanyCommand drives the two-step canteen selection flow. The first
// call leaves Choice empty; the second carries the user's decision.
type SelectCompanyCommand struct {
	OrgNumber string
	// Choice is "", ChoiceExisting or ChoiceNew.
	Choice          string
	SelectedCanteen domain.AddressKey
	CanteenName     string
}

const (
	ChoiceExisting = "existing"
	ChoiceNew      = "new"
)

// SelectOutcome is either a registered canteen key or a chooser offer.
type SelectOutcome struct {
	Action     domain.ResolutionAction
	CanteenKey domain.AddressKey
	Company    domain.Company
	Candidates []domain.Canteen
}

// SubmitReviewCommand carries one validated-on-entry review submission.
type SubmitReviewCommand struct {
	CanteenKey domain.AddressKey
	ClientID   string
	Draft      domain.ReviewDraft
}

// EditReviewCommand carries an in-place edit of the client's own review.
type EditReviewCommand struct {
	CanteenKey domain.AddressKey
	ReviewID   string
	ClientID   string
	Draft      domain.ReviewDraft
}
