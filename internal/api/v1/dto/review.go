package dto

import "campusportal/internal/model"

// ReviewCreateDTO carries the five scores of a professor review
type ReviewCreateDTO struct {
	Rating         int    `json:"rating" validate:"required,min=1,max=10"`
	Clarity        int    `json:"clarity" validate:"required,min=1,max=10"`
	Fairness       int    `json:"fairness" validate:"required,min=1,max=10"`
	Punctuality    int    `json:"punctuality" validate:"required,min=1,max=10"`
	WouldTakeAgain int    `json:"would_take_again" validate:"required,min=1,max=10"`
	Comment        string `json:"comment" validate:"max=1000"`
}

type ReviewListResponseDTO struct {
	Summary model.ReviewSummary `json:"summary"`
	Reviews []model.Review      `json:"reviews"`
}
