package service

import (
	"context"

	"haul/internal/domain"
)

// Ratings is the driver's review summary.
type Ratings struct {
	Reviews []domain.Review `json:"reviews"`
	Average float64         `json:"average"`
	Count   int             `json:"count"`
}

// ReviewService reads the reviews left for the signed-in driver.
type ReviewService struct {
	backend  ReviewBackend
	identity Identity
}

// NewReviewService creates a new ReviewService.
func NewReviewService(backend ReviewBackend, identity Identity) *ReviewService {
	return &ReviewService{backend: backend, identity: identity}
}

// Ratings returns the driver's reviews with their average rating.
func (s *ReviewService) Ratings(ctx context.Context) (*Ratings, error) {
	me := s.identity.Current()
	if me == nil {
		return nil, ErrNotAuthenticated
	}

	reviews, err := s.backend.UserReviews(ctx, me.ID)
	if err != nil {
		return nil, err
	}
	if reviews == nil {
		reviews = []domain.Review{}
	}

	return &Ratings{Reviews: reviews, Average: averageRating(reviews), Count: len(reviews)}, nil
}

func averageRating(reviews []domain.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	var sum float64
	for _, r := range reviews {
		sum += r.Rating
	}
	return sum / float64(len(reviews))
}
