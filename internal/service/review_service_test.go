package service

import (
	"context"
	"errors"
	"testing"

	"campusportal/internal/model"

	"github.com/rs/zerolog"
)

func scores(v int) ReviewInput {
	return ReviewInput{Rating: v, Clarity: v, Fairness: v, Punctuality: v, WouldTakeAgain: v}
}

func TestReviewServiceValidation(t *testing.T) {
	svc := NewReviewService(&fakeReviewRepo{}, zerolog.Nop())
	ctx := context.Background()

	bad := scores(5)
	bad.Clarity = 11
	tests := []struct {
		name   string
		caller model.Identity
		prof   string
		in     ReviewInput
		want   error
	}{
		{"anonymous", model.Identity{}, "p1", scores(5), ErrUnauthorized},
		{"no professor", ana, " ", scores(5), ErrInvalidInput},
		{"zero", ana, "p1", scores(0), ErrInvalidInput},
		{"above ten", ana, "p1", bad, ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateReview(ctx, tt.caller, tt.prof, tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	rv, err := svc.CreateReview(ctx, luis, "p1", scores(10))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rv.UserName != model.AnonymousName {
		t.Fatalf("expected anonymous user name, got %q", rv.UserName)
	}
}

func TestReviewServiceSummary(t *testing.T) {
	repo := &fakeReviewRepo{}
	svc := NewReviewService(repo, zerolog.Nop())
	ctx := context.Background()

	empty, err := svc.Summary(ctx, "p1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if empty.Count != 0 || empty.Rating != 0 {
		t.Fatalf("unexpected empty summary: %+v", empty)
	}

	for _, v := range []int{7, 8, 8} {
		if _, err := svc.CreateReview(ctx, ana, "p1", scores(v)); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	sum, err := svc.Summary(ctx, "p1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	// 23/3 = 7.666...
	if sum.Count != 3 || sum.Rating != 7.7 || sum.WouldTakeAgain != 7.7 {
		t.Fatalf("unexpected summary: %+v", sum)
	}

	lists := repo.lists
	if _, err := svc.Summary(ctx, "p1"); err != nil {
		t.Fatalf("summary: %v", err)
	}
	if repo.lists != lists {
		t.Fatal("expected the second summary to come from cache")
	}

	if _, err := svc.CreateReview(ctx, ana, "p1", scores(1)); err != nil {
		t.Fatalf("create: %v", err)
	}
	sum, _ = svc.Summary(ctx, "p1")
	if sum.Count != 4 || sum.Rating != 6 {
		t.Fatalf("expected cache invalidated after a new review, got %+v", sum)
	}
}
