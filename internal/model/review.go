package model

import "time"

// Review represents one student's rating of a professor.
// Every score is an integer between 1 and 10.
type Review struct {
	ID             string    `db:"id" json:"id"`
	ProfessorID    string    `db:"professor_id" json:"professor_id"`
	UserID         string    `db:"user_id" json:"user_id"`
	UserName       string    `db:"user_name" json:"user_name"`
	Rating         int       `db:"rating" json:"rating"`
	Clarity        int       `db:"clarity" json:"clarity"`
	Fairness       int       `db:"fairness" json:"fairness"`
	Punctuality    int       `db:"punctuality" json:"punctuality"`
	WouldTakeAgain int       `db:"would_take_again" json:"would_take_again"`
	Comment        string    `db:"comment" json:"comment"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// ReviewSummary holds per-dimension averages rounded to one decimal
type ReviewSummary struct {
	ProfessorID    string  `json:"professor_id"`
	Count          int     `json:"count"`
	Rating         float64 `json:"rating"`
	Clarity        float64 `json:"clarity"`
	Fairness       float64 `json:"fairness"`
	Punctuality    float64 `json:"punctuality"`
	WouldTakeAgain float64 `json:"would_take_again"`
}
