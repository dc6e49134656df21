package handler

import (
	"encoding/json"
	"net/http"

	"campusportal/internal/api/v1/dto"
	"campusportal/internal/middleware"
	"campusportal/internal/model"
	"campusportal/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// ReviewHandler handles professor reviews
type ReviewHandler struct {
	reviewService service.ReviewService
	validate      *validator.Validate
	logger        zerolog.Logger
}

func NewReviewHandler(reviewService service.ReviewService, validate *validator.Validate, logger zerolog.Logger) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService, validate: validate, logger: logger}
}

func (h *ReviewHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	create := authMw(http.HandlerFunc(h.createReview))
	mux.HandleFunc("/professors/", func(w http.ResponseWriter, r *http.Request) {
		parts := pathParts(r.URL.Path, "/professors/")
		if len(parts) != 2 || parts[1] != "reviews" {
			http.NotFound(w, r)
			return
		}
		switch r.Method {
		case http.MethodGet:
			h.listReviews(w, r, parts[0])
		case http.MethodPost:
			create.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// listReviews godoc
// @Summary List a professor's reviews with their averages
// @Tags reviews
// @Produce json
// @Param professorId path string true "Professor ID"
// @Success 200 {object} dto.ReviewListResponseDTO
// @Router /professors/{professorId}/reviews [get]
func (h *ReviewHandler) listReviews(w http.ResponseWriter, r *http.Request, professorID string) {
	reviews, err := h.reviewService.ListReviews(r.Context(), professorID)
	if err != nil {
		writeServiceError(w, h.logger, err, "List reviews")
		return
	}
	summary, err := h.reviewService.Summary(r.Context(), professorID)
	if err != nil {
		writeServiceError(w, h.logger, err, "Summarize reviews")
		return
	}
	if reviews == nil {
		reviews = []model.Review{}
	}
	writeJSON(w, http.StatusOK, dto.ReviewListResponseDTO{Summary: summary, Reviews: reviews})
}

// createReview godoc
// @Summary Rate a professor
// @Tags reviews
// @Accept json
// @Produce json
// @Param professorId path string true "Professor ID"
// @Param review body dto.ReviewCreateDTO true "Scores from 1 to 10"
// @Success 201 {object} model.Review
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 401 {string} string "Unauthorized"
// @Router /professors/{professorId}/reviews [post]
func (h *ReviewHandler) createReview(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r.URL.Path, "/professors/")
	caller, _ := middleware.IdentityFromContext(r.Context())
	var req dto.ReviewCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	review, err := h.reviewService.CreateReview(r.Context(), caller, parts[0], service.ReviewInput{
		Rating:         req.Rating,
		Clarity:        req.Clarity,
		Fairness:       req.Fairness,
		Punctuality:    req.Punctuality,
		WouldTakeAgain: req.WouldTakeAgain,
		Comment:        req.Comment,
	})
	if err != nil {
		writeServiceError(w, h.logger, err, "Create review")
		return
	}
	writeJSON(w, http.StatusCreated, review)
}
