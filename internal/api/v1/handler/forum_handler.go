package handler

import (
	"encoding/json"
	"net/http"

	"campusportal/internal/api/v1/dto"
	"campusportal/internal/middleware"
	"campusportal/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// ForumHandler handles discussion topics and their messages
type ForumHandler struct {
	forumService service.ForumService
	validate     *validator.Validate
	logger       zerolog.Logger
}

func NewForumHandler(forumService service.ForumService, validate *validator.Validate, logger zerolog.Logger) *ForumHandler {
	return &ForumHandler{forumService: forumService, validate: validate, logger: logger}
}

// RegisterRoutes mounts forum routes. Reads are public, writes need a token.
func (h *ForumHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	createTopic := authMw(http.HandlerFunc(h.createTopic))
	mux.HandleFunc("/forum/topics", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.listTopics(w, r)
		case http.MethodPost:
			createTopic.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})

	deleteTopic := authMw(http.HandlerFunc(h.deleteTopic))
	addMessage := authMw(http.HandlerFunc(h.addMessage))
	mux.HandleFunc("/forum/topics/", func(w http.ResponseWriter, r *http.Request) {
		parts := pathParts(r.URL.Path, "/forum/topics/")
		switch {
		case len(parts) == 1 && r.Method == http.MethodGet:
			h.getTopic(w, r, parts[0])
		case len(parts) == 1 && r.Method == http.MethodDelete:
			deleteTopic.ServeHTTP(w, r)
		case len(parts) == 2 && parts[1] == "messages" && r.Method == http.MethodGet:
			h.listMessages(w, r, parts[0])
		case len(parts) == 2 && parts[1] == "messages" && r.Method == http.MethodPost:
			addMessage.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// listTopics godoc
// @Summary List forum topics
// @Tags forum
// @Produce json
// @Success 200 {array} model.Topic
// @Router /forum/topics [get]
func (h *ForumHandler) listTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := h.forumService.ListTopics(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "List topics")
		return
	}
	writeJSON(w, http.StatusOK, topics)
}

func (h *ForumHandler) getTopic(w http.ResponseWriter, r *http.Request, topicID string) {
	topic, err := h.forumService.GetTopic(r.Context(), topicID)
	if err != nil {
		writeServiceError(w, h.logger, err, "Get topic")
		return
	}
	writeJSON(w, http.StatusOK, topic)
}

func (h *ForumHandler) listMessages(w http.ResponseWriter, r *http.Request, topicID string) {
	msgs, err := h.forumService.ListMessages(r.Context(), topicID)
	if err != nil {
		writeServiceError(w, h.logger, err, "List topic messages")
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// createTopic godoc
// @Summary Create a forum topic
// @Tags forum
// @Accept json
// @Produce json
// @Param topic body dto.TopicCreateDTO true "Topic"
// @Success 201 {object} model.Topic
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 401 {string} string "Unauthorized"
// @Router /forum/topics [post]
func (h *ForumHandler) createTopic(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.IdentityFromContext(r.Context())
	var req dto.TopicCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	topic, err := h.forumService.CreateTopic(r.Context(), caller, req.Title, req.Description)
	if err != nil {
		writeServiceError(w, h.logger, err, "Create topic")
		return
	}
	writeJSON(w, http.StatusCreated, topic)
}

func (h *ForumHandler) addMessage(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r.URL.Path, "/forum/topics/")
	caller, _ := middleware.IdentityFromContext(r.Context())
	var req dto.TopicMessageCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	msg, err := h.forumService.AddMessage(r.Context(), caller, parts[0], req.Content)
	if err != nil {
		writeServiceError(w, h.logger, err, "Add topic message")
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// deleteTopic godoc
// @Summary Delete a forum topic
// @Description Only the creator may delete a topic. Its messages go with it.
// @Tags forum
// @Param topicId path string true "Topic ID"
// @Success 204
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Router /forum/topics/{topicId} [delete]
func (h *ForumHandler) deleteTopic(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r.URL.Path, "/forum/topics/")
	caller, _ := middleware.IdentityFromContext(r.Context())
	if err := h.forumService.DeleteTopic(r.Context(), caller, parts[0]); err != nil {
		writeServiceError(w, h.logger, err, "Delete topic")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
