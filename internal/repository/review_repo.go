package repository

import (
	"context"
	"fmt"

	"campusportal/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReviewRepository defines the interface for professor reviews.
type ReviewRepository interface {
	CreateReview(ctx context.Context, rv *model.Review) error
	// ListReviewsByProfessor returns the newest reviews first.
	ListReviewsByProfessor(ctx context.Context, professorID string) ([]model.Review, error)
}

type reviewRepo struct {
	pool *pgxpool.Pool
}

func NewReviewRepo(pool *pgxpool.Pool) ReviewRepository {
	return &reviewRepo{pool: pool}
}

func (r *reviewRepo) CreateReview(ctx context.Context, rv *model.Review) error {
	const q = `
		INSERT INTO professor_reviews
			(professor_id, user_id, user_name, rating, clarity, fairness, punctuality, would_take_again, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id::text, created_at
	`
	if err := r.pool.QueryRow(ctx, q,
		rv.ProfessorID, rv.UserID, rv.UserName,
		rv.Rating, rv.Clarity, rv.Fairness, rv.Punctuality, rv.WouldTakeAgain,
		rv.Comment,
	).Scan(&rv.ID, &rv.CreatedAt); err != nil {
		return fmt.Errorf("creating review for professor %s: %w", rv.ProfessorID, err)
	}
	return nil
}

func (r *reviewRepo) ListReviewsByProfessor(ctx context.Context, professorID string) ([]model.Review, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text AS id, professor_id, user_id, user_name,
			rating::int AS rating, clarity::int AS clarity, fairness::int AS fairness,
			punctuality::int AS punctuality, would_take_again::int AS would_take_again,
			comment, created_at
		FROM professor_reviews
		WHERE professor_id = $1
		ORDER BY created_at DESC
	`, professorID)
	if err != nil {
		return nil, fmt.Errorf("listing reviews for professor %s: %w", professorID, err)
	}
	reviews, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Review])
	if err != nil {
		return nil, fmt.Errorf("scanning reviews for professor %s: %w", professorID, err)
	}
	return reviews, nil
}
