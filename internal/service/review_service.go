package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"campusportal/internal/model"
	"campusportal/internal/repository"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
)

const (
	minScore = 1
	maxScore = 10
)

// ReviewInput holds the five scores and an optional comment.
type ReviewInput struct {
	Rating         int
	Clarity        int
	Fairness       int
	Punctuality    int
	WouldTakeAgain int
	Comment        string
}

// ReviewService defines professor review operations.
type ReviewService interface {
	CreateReview(ctx context.Context, caller model.Identity, professorID string, in ReviewInput) (*model.Review, error)
	ListReviews(ctx context.Context, professorID string) ([]model.Review, error)
	// Summary averages every score, rounded to one decimal. It is cached
	// until a review for the professor is added.
	Summary(ctx context.Context, professorID string) (model.ReviewSummary, error)
}

type reviewService struct {
	repo      repository.ReviewRepository
	summaries *cache.Cache
	logger    zerolog.Logger
}

func NewReviewService(repo repository.ReviewRepository, logger zerolog.Logger) ReviewService {
	return &reviewService{
		repo:      repo,
		summaries: cache.New(10*time.Minute, 20*time.Minute),
		logger:    logger.With().Str("service", "ReviewService").Logger(),
	}
}

func (s *reviewService) CreateReview(ctx context.Context, caller model.Identity, professorID string, in ReviewInput) (*model.Review, error) {
	if caller.UserID == "" {
		return nil, ErrUnauthorized
	}
	professorID = strings.TrimSpace(professorID)
	if professorID == "" {
		return nil, fmt.Errorf("professor is required: %w", ErrInvalidInput)
	}
	scores := map[string]int{
		"rating":           in.Rating,
		"clarity":          in.Clarity,
		"fairness":         in.Fairness,
		"punctuality":      in.Punctuality,
		"would_take_again": in.WouldTakeAgain,
	}
	for name, v := range scores {
		if v < minScore || v > maxScore {
			return nil, fmt.Errorf("%s must be between %d and %d: %w", name, minScore, maxScore, ErrInvalidInput)
		}
	}

	rv := &model.Review{
		ProfessorID:    professorID,
		UserID:         caller.UserID,
		UserName:       caller.Name(),
		Rating:         in.Rating,
		Clarity:        in.Clarity,
		Fairness:       in.Fairness,
		Punctuality:    in.Punctuality,
		WouldTakeAgain: in.WouldTakeAgain,
		Comment:        strings.TrimSpace(in.Comment),
	}
	if err := s.repo.CreateReview(ctx, rv); err != nil {
		s.logger.Error().Err(err).Str("professor_id", professorID).Msg("Failed to create review")
		return nil, err
	}
	s.summaries.Delete(professorID)
	return rv, nil
}

func (s *reviewService) ListReviews(ctx context.Context, professorID string) ([]model.Review, error) {
	reviews, err := s.repo.ListReviewsByProfessor(ctx, professorID)
	if err != nil {
		return nil, err
	}
	if reviews == nil {
		reviews = []model.Review{}
	}
	return reviews, nil
}

func (s *reviewService) Summary(ctx context.Context, professorID string) (model.ReviewSummary, error) {
	if cached, ok := s.summaries.Get(professorID); ok {
		return cached.(model.ReviewSummary), nil
	}
	reviews, err := s.repo.ListReviewsByProfessor(ctx, professorID)
	if err != nil {
		return model.ReviewSummary{}, err
	}
	summary := summarize(professorID, reviews)
	s.summaries.SetDefault(professorID, summary)
	return summary, nil
}

func summarize(professorID string, reviews []model.Review) model.ReviewSummary {
	sum := model.ReviewSummary{ProfessorID: professorID, Count: len(reviews)}
	if len(reviews) == 0 {
		return sum
	}
	for _, rv := range reviews {
		sum.Rating += float64(rv.Rating)
		sum.Clarity += float64(rv.Clarity)
		sum.Fairness += float64(rv.Fairness)
		sum.Punctuality += float64(rv.Punctuality)
		sum.WouldTakeAgain += float64(rv.WouldTakeAgain)
	}
	n := float64(len(reviews))
	sum.Rating = roundTenth(sum.Rating / n)
	sum.Clarity = roundTenth(sum.Clarity / n)
	sum.Fairness = roundTenth(sum.Fairness / n)
	sum.Punctuality = roundTenth(sum.Punctuality / n)
	sum.WouldTakeAgain = roundTenth(sum.WouldTakeAgain / n)
	return sum
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
