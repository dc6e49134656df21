package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"campusportal/internal/chat"
	"campusportal/internal/model"
	"campusportal/internal/ratelimit"
	"campusportal/internal/realtime"

	"github.com/rs/zerolog"
)

// MaxChatMessageLength bounds a chat message in characters.
const MaxChatMessageLength = 500

// ChatService exposes the public chat to HTTP callers and builds the
// engines used by live portal sessions.
type ChatService interface {
	// History returns up to limit messages older than before, ascending.
	History(ctx context.Context, before int64, limit int) ([]model.ChatMessage, error)
	Send(ctx context.Context, caller model.Identity, text string) (*model.ChatMessage, error)
	// Delete requires the admin role claim.
	Delete(ctx context.Context, caller model.Identity, messageID string) error
	// AllowSend consumes one unit of the caller's send quota.
	AllowSend(ctx context.Context, caller model.Identity) bool
	NewEngine() *chat.Engine
}

type chatService struct {
	store   realtime.Store
	limiter ratelimit.Limiter
	timeout time.Duration
	now     func() time.Time
	logger  zerolog.Logger
}

func NewChatService(store realtime.Store, limiter ratelimit.Limiter, timeout time.Duration, logger zerolog.Logger) ChatService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &chatService{
		store:   store,
		limiter: limiter,
		timeout: timeout,
		now:     time.Now,
		logger:  logger.With().Str("service", "ChatService").Logger(),
	}
}

func (s *chatService) History(ctx context.Context, before int64, limit int) ([]model.ChatMessage, error) {
	if limit <= 0 || limit > chat.WindowSize {
		limit = chat.WindowSize
	}
	if before < 0 {
		return nil, fmt.Errorf("before must not be negative: %w", ErrInvalidInput)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	msgs, err := s.store.Fetch(ctx, realtime.Query{Limit: limit, Before: before})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to fetch chat history")
		return nil, err
	}
	return msgs, nil
}

func (s *chatService) Send(ctx context.Context, caller model.Identity, text string) (*model.ChatMessage, error) {
	if caller.UserID == "" {
		return nil, ErrUnauthorized
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("message text is required: %w", ErrInvalidInput)
	}
	if utf8.RuneCountInString(text) > MaxChatMessageLength {
		return nil, fmt.Errorf("message longer than %d characters: %w", MaxChatMessageLength, ErrInvalidInput)
	}
	if !s.AllowSend(ctx, caller) {
		return nil, ErrRateLimited
	}
	msg := model.ChatMessage{
		Text:      text,
		Timestamp: s.now().UnixMilli(),
		Username:  caller.Name(),
		IsAdmin:   caller.IsAdmin(),
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	id, err := s.store.Push(ctx, msg)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", caller.UserID).Msg("Failed to send chat message")
		return nil, err
	}
	msg.ID = id
	return &msg, nil
}

func (s *chatService) Delete(ctx context.Context, caller model.Identity, messageID string) error {
	if caller.UserID == "" {
		return ErrUnauthorized
	}
	if !caller.IsAdmin() {
		return ErrForbidden
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.store.Remove(ctx, messageID); err != nil {
		if errors.Is(err, realtime.ErrNotFound) {
			return ErrNotFound
		}
		s.logger.Error().Err(err).Str("message_id", messageID).Msg("Failed to delete chat message")
		return err
	}
	s.logger.Info().Str("message_id", messageID).Str("admin_id", caller.UserID).Msg("Chat message deleted")
	return nil
}

func (s *chatService) AllowSend(ctx context.Context, caller model.Identity) bool {
	if s.limiter == nil {
		return true
	}
	return s.limiter.Allow(ctx, "chat:"+caller.UserID)
}

func (s *chatService) NewEngine() *chat.Engine {
	return chat.New(s.store, s.logger, chat.WithTimeout(s.timeout))
}
