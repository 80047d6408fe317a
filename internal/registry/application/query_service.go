package application

import (
	"context"
	"strings"

	"github.com/kantineguiden/services/api/internal/registry/domain"
)

// queryService is the read-only registry surface.
type queryService struct {
	canteens CanteenRepository
}

// NewQueryService builds a QueryService over the canteen repository.
func NewQueryService(canteens CanteenRepository) QueryService {
	return &queryService{canteens: canteens}
}

func (s *queryService) Canteen(ctx context.Context, key domain.AddressKey) (*domain.Canteen, error) {
	return s.canteens.Get(ctx, key)
}

func (s *queryService) CanteensAtAddress(ctx context.Context, baseKey domain.AddressKey) ([]domain.Canteen, error) {
	return s.canteens.AtAddress(ctx, baseKey)
}

func (s *queryService) TopCanteens(ctx context.Context, limit int) ([]domain.Canteen, error) {
	return s.canteens.Top(ctx, limit)
}

// feedbackService stores free-text feedback unrelated to any canteen.
type feedbackService struct {
	feedback FeedbackRepository
}

// NewFeedbackService builds a FeedbackService over the feedback repository.
func NewFeedbackService(feedback FeedbackRepository) FeedbackService {
	return &feedbackService{feedback: feedback}
}

func (s *feedbackService) Add(ctx context.Context, message string) error {
	return s.feedback.Add(ctx, strings.TrimSpace(message))
}
