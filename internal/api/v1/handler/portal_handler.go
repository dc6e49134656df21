package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"campusportal/internal/api/v1/dto"
	"campusportal/internal/middleware"
	"campusportal/internal/portal"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = pongWait * 9 / 10
	maxFrameBytes = 8 << 10
)

// PortalHandler drives live portal sessions over a WebSocket
type PortalHandler struct {
	registry *portal.Registry
	validate *validator.Validate
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

func NewPortalHandler(registry *portal.Registry, validate *validator.Validate, allowedOrigins []string, logger zerolog.Logger) *PortalHandler {
	return &PortalHandler{
		registry: registry,
		validate: validate,
		upgrader: websocket.Upgrader{CheckOrigin: originChecker(allowedOrigins)},
		logger:   logger.With().Str("handler", "PortalHandler").Logger(),
	}
}

// RegisterRoutes mounts the socket behind optional auth: anonymous visitors
// can browse and read the chat.
func (h *PortalHandler) RegisterRoutes(mux *http.ServeMux, optionalAuthMw func(http.Handler) http.Handler) {
	mux.Handle("/portal/ws", optionalAuthMw(http.HandlerFunc(h.serveWS)))
}

// serveWS godoc
// @Summary Open a portal session
// @Description Upgrades to a WebSocket. Pass session to resume a session dropped less than ten minutes ago.
// @Tags portal
// @Param session query string false "Session ID to resume"
// @Param access_token query string false "Bearer token for browsers that cannot set headers"
// @Router /portal/ws [get]
func (h *PortalHandler) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	identity, _ := middleware.IdentityFromContext(r.Context())
	session := h.registry.Attach(ctx, r.URL.Query().Get("session"), identity)
	defer h.registry.Release(session)
	logger := h.logger.With().Str("session_id", session.ID()).Str("user_id", identity.UserID).Logger()
	logger.Info().Msg("Portal session attached")

	var writeMu sync.Mutex
	send := func(frame dto.PortalViewDTO) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(frame)
	}

	done := make(chan struct{})
	defer close(done)
	go h.writeLoop(conn, session, send, done, logger)

	conn.SetReadLimit(maxFrameBytes)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn().Err(err).Msg("Portal connection closed unexpectedly")
			}
			logger.Info().Msg("Portal session detached")
			return
		}
		var cmd dto.PortalCommandDTO
		if err := json.Unmarshal(raw, &cmd); err != nil {
			_ = send(viewFrame(session, "Invalid JSON frame: "+err.Error()))
			continue
		}
		if err := h.validate.Struct(&cmd); err != nil {
			_ = send(viewFrame(session, "Validation failed: "+err.Error()))
			continue
		}
		if err := session.Handle(ctx, toPortalCommand(cmd)); err != nil {
			logger.Debug().Err(err).Str("command", cmd.Type).Msg("Portal command rejected")
			_ = send(viewFrame(session, err.Error()))
		}
	}
}

// writeLoop pushes a view frame after every change and keeps the socket alive.
func (h *PortalHandler) writeLoop(conn *websocket.Conn, session *portal.Session, send func(dto.PortalViewDTO) error, done <-chan struct{}, logger zerolog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-session.Changes():
			if err := send(viewFrame(session, "")); err != nil {
				logger.Debug().Err(err).Msg("Failed to write view frame")
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func toPortalCommand(cmd dto.PortalCommandDTO) portal.Command {
	return portal.Command{
		Type:     cmd.Type,
		Query:    cmd.Query,
		Campus:   cmd.Campus,
		Modality: cmd.Modality,
		Page:     cmd.Page,
		View:     cmd.View,
		Text:     cmd.Text,
		ID:       cmd.ID,
	}
}

func viewFrame(session *portal.Session, errMsg string) dto.PortalViewDTO {
	v := session.View()
	return dto.PortalViewDTO{
		Type:      "view",
		SessionID: v.SessionID,
		State:     v.State,
		Result:    dto.NewCatalogSearchResponse(v.Catalog, v.Result),
		Campuses:  v.Campuses,
		Chat: dto.PortalChatDTO{
			Open:     v.Chat.Open,
			Loading:  v.Chat.Loading,
			Unread:   v.Chat.Unread,
			Messages: v.Chat.Messages,
		},
		IsAdmin: v.IsAdmin,
		Error:   errMsg,
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(strings.TrimSpace(a), origin) {
				return true
			}
		}
		return false
	}
}
