package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"campusportal/internal/api/v1/dto"
	"campusportal/internal/middleware"
	"campusportal/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// ChatHandler exposes the public chat over plain HTTP
type ChatHandler struct {
	chatService service.ChatService
	validate    *validator.Validate
	logger      zerolog.Logger
}

func NewChatHandler(chatService service.ChatService, validate *validator.Validate, logger zerolog.Logger) *ChatHandler {
	return &ChatHandler{chatService: chatService, validate: validate, logger: logger}
}

// RegisterRoutes mounts chat routes. Reading history is public.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	send := authMw(http.HandlerFunc(h.sendMessage))
	mux.HandleFunc("/chat/messages", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.listMessages(w, r)
		case http.MethodPost:
			send.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
	mux.Handle("/chat/messages/", authMw(http.HandlerFunc(h.deleteMessage)))
}

// listMessages godoc
// @Summary List chat history
// @Description Returns up to limit messages older than before, ascending by timestamp.
// @Tags chat
// @Produce json
// @Param before query int false "Epoch millis cursor, 0 for the newest messages"
// @Param limit query int false "At most 50"
// @Success 200 {object} dto.ChatHistoryResponseDTO
// @Router /chat/messages [get]
func (h *ChatHandler) listMessages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var before int64
	var limit int
	var err error
	if raw := q.Get("before"); raw != "" {
		if before, err = strconv.ParseInt(raw, 10, 64); err != nil {
			http.Error(w, "Invalid before: "+err.Error(), http.StatusBadRequest)
			return
		}
	}
	if raw := q.Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			http.Error(w, "Invalid limit: "+err.Error(), http.StatusBadRequest)
			return
		}
	}
	msgs, err := h.chatService.History(r.Context(), before, limit)
	if err != nil {
		writeServiceError(w, h.logger, err, "Fetch chat history")
		return
	}
	resp := dto.ChatHistoryResponseDTO{Messages: msgs}
	if len(msgs) > 0 {
		resp.Before = msgs[0].Timestamp
	}
	writeJSON(w, http.StatusOK, resp)
}

// sendMessage godoc
// @Summary Send a chat message
// @Tags chat
// @Accept json
// @Produce json
// @Param message body dto.ChatMessageCreateDTO true "Message text"
// @Success 201 {object} model.ChatMessage
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 401 {string} string "Unauthorized"
// @Failure 429 {string} string "rate limited"
// @Router /chat/messages [post]
func (h *ChatHandler) sendMessage(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.IdentityFromContext(r.Context())
	var req dto.ChatMessageCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	msg, err := h.chatService.Send(r.Context(), caller, req.Text)
	if err != nil {
		writeServiceError(w, h.logger, err, "Send chat message")
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// deleteMessage godoc
// @Summary Delete a chat message
// @Description Requires the admin role claim.
// @Tags chat
// @Param messageId path string true "Message ID"
// @Success 204
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Router /chat/messages/{messageId} [delete]
func (h *ChatHandler) deleteMessage(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r.URL.Path, "/chat/messages/")
	if r.Method != http.MethodDelete || len(parts) != 1 {
		http.NotFound(w, r)
		return
	}
	caller, _ := middleware.IdentityFromContext(r.Context())
	if err := h.chatService.Delete(r.Context(), caller, parts[0]); err != nil {
		writeServiceError(w, h.logger, err, "Delete chat message")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
