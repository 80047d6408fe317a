package application

import (
	"context"
	"fmt"

	"github.com/kantineguiden/services/api/internal/registry/domain"
)

// reviewService validates review input and delegates the transactional work
// to the ledger.
type reviewService struct {
	ledger ReviewLedger
}

// NewReviewService builds a ReviewService on top of the transactional ledger.
func NewReviewService(ledger ReviewLedger) ReviewService {
	return &reviewService{ledger: ledger}
}

// Submit validates the draft, then hands it to the ledger. The duplicate
// outcome flows back as data, leaving the canteen's aggregates untouched.
func (s *reviewService) Submit(ctx context.Context, cmd SubmitReviewCommand) (SubmitOutcome, error) {
	if cmd.ClientID == "" {
		return SubmitOutcome{}, fmt.Errorf("client id is required")
	}
	if err := cmd.Draft.Validate(); err != nil {
		return SubmitOutcome{}, fmt.Errorf("%w: %s", domain.ErrInvalidReview, err)
	}
	return s.ledger.Submit(ctx, cmd.CanteenKey, cmd.ClientID, cmd.Draft)
}

// Edit checks ownership before any mutation: the review addressed by the id
// must exist and belong to the calling client. The ledger then applies the
// delta inside one transaction.
func (s *reviewService) Edit(ctx context.Context, cmd EditReviewCommand) error {
	if cmd.ClientID == "" {
		return fmt.Errorf("client id is required")
	}
	if err := cmd.Draft.Validate(); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidReview, err)
	}

	existing, err := s.ledger.ByClient(ctx, cmd.CanteenKey, cmd.ClientID)
	if err != nil {
		return err
	}
	if existing == nil {
		return domain.ErrReviewNotFound
	}
	if existing.ID != cmd.ReviewID {
		return domain.ErrNotOwner
	}

	return s.ledger.Edit(ctx, cmd.CanteenKey, cmd.ReviewID, cmd.ClientID, cmd.Draft)
}

func (s *reviewService) MyReview(ctx context.Context, key domain.AddressKey, clientID string) (*domain.Review, error) {
	return s.ledger.ByClient(ctx, key, clientID)
}

func (s *reviewService) CanteenReviews(ctx context.Context, key domain.AddressKey, limit int) ([]domain.Review, error) {
	return s.ledger.ForCanteen(ctx, key, limit)
}

func (s *reviewService) RecentReviews(ctx context.Context, limit int) ([]RecentReview, error) {
	return s.ledger.Recent(ctx, limit)
}
