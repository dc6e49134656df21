// Package portal keeps the state of one live portal connection: the catalog
// filters, the active view and a chat engine.
package portal

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"campusportal/internal/catalog"
	"campusportal/internal/chat"
	"campusportal/internal/model"
	"campusportal/internal/service"

	"github.com/rs/zerolog"
)

// Command types accepted by Handle.
const (
	CmdSearch     = "search"
	CmdCampus     = "campus"
	CmdModality   = "modality"
	CmdPage       = "page"
	CmdReset      = "reset"
	CmdView       = "view"
	CmdChatOpen   = "chat_open"
	CmdChatClose  = "chat_close"
	CmdChatSend   = "chat_send"
	CmdChatDelete = "chat_delete"
	CmdChatMore   = "chat_more"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrDetached       = errors.New("session is not attached")
	ErrChatFailed     = errors.New("chat backend unavailable")
)

// Catalogs is the part of the catalog service a session reads.
type Catalogs interface {
	Current() *catalog.Catalog
	Campuses() []string
}

// ChatBackend builds chat engines and enforces the send quota.
type ChatBackend interface {
	NewEngine() *chat.Engine
	AllowSend(ctx context.Context, caller model.Identity) bool
}

// Command is one client request.
type Command struct {
	Type     string
	Query    string
	Campus   string
	Modality string
	Page     int
	View     string
	Text     string
	ID       string
}

type ChatView struct {
	Open     bool
	Loading  bool
	Unread   int
	Messages []model.ChatMessage
}

// View is everything the client renders.
type View struct {
	SessionID string
	State     catalog.State
	Catalog   *catalog.Catalog
	Result    catalog.Result
	Campuses  []string
	Chat      ChatView
	IsAdmin   bool
}

type Session struct {
	id       string
	catalogs Catalogs
	chat     ChatBackend
	logger   zerolog.Logger
	changes  chan struct{}

	mu       sync.Mutex
	state    catalog.State
	identity model.Identity
	engine   *chat.Engine
	chatOpen bool
	attached bool
}

func newSession(id string, catalogs Catalogs, backend ChatBackend, logger zerolog.Logger) *Session {
	return &Session{
		id:       id,
		catalogs: catalogs,
		chat:     backend,
		logger:   logger.With().Str("session_id", id).Logger(),
		changes:  make(chan struct{}, 1),
		state:    catalog.NewState(),
	}
}

func (s *Session) ID() string { return s.id }

// Changes receives a value whenever the view may have changed. Bursts
// collapse into one pending signal.
func (s *Session) Changes() <-chan struct{} { return s.changes }

// Attach binds the session to a connection. It builds a fresh chat engine and
// reopens the chat when it was open before the previous connection dropped.
func (s *Session) Attach(ctx context.Context, identity model.Identity) {
	s.mu.Lock()
	s.identity = identity
	s.attached = true
	if s.engine == nil {
		s.engine = s.chat.NewEngine()
		s.engine.OnChange(s.signal)
	}
	engine, reopen := s.engine, s.chatOpen
	s.mu.Unlock()

	engine.Start(ctx)
	if reopen {
		engine.Open(ctx)
	}
	s.signal()
}

// Detach releases the chat subscriptions. The catalog state survives so the
// session can be resumed.
func (s *Session) Detach() {
	s.mu.Lock()
	engine := s.engine
	s.engine = nil
	s.attached = false
	s.mu.Unlock()
	if engine != nil {
		engine.Shutdown()
	}
}

func (s *Session) Attached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attached
}

// Handle applies one command. Errors wrapping service sentinels describe a
// rejected request; the session stays usable after any error.
func (s *Session) Handle(ctx context.Context, cmd Command) error {
	err := s.handle(ctx, cmd)
	s.signal()
	return err
}

func (s *Session) handle(ctx context.Context, cmd Command) error {
	switch cmd.Type {
	case CmdSearch, CmdCampus:
		campus := strings.TrimSpace(cmd.Campus)
		if campus != "" && !slices.Contains(s.catalogs.Campuses(), campus) {
			return fmt.Errorf("unknown campus %q: %w", campus, service.ErrInvalidInput)
		}
		s.mu.Lock()
		if cmd.Type == CmdSearch {
			s.state.Search(cmd.Query, campus)
		} else {
			s.state.SetCampus(campus)
		}
		s.mu.Unlock()
	case CmdModality:
		m, err := catalog.ParseModality(cmd.Modality)
		if err != nil {
			return fmt.Errorf("%v: %w", err, service.ErrInvalidInput)
		}
		s.mu.Lock()
		s.state.ToggleModality(m)
		s.mu.Unlock()
	case CmdPage:
		s.mu.Lock()
		s.state.SetPage(cmd.Page)
		s.mu.Unlock()
	case CmdReset:
		s.mu.Lock()
		s.state.Reset()
		s.mu.Unlock()
	case CmdView:
		v, err := catalog.ParseView(cmd.View)
		if err != nil {
			return fmt.Errorf("%v: %w", err, service.ErrInvalidInput)
		}
		s.mu.Lock()
		s.state.Show(v)
		s.mu.Unlock()
	case CmdChatOpen, CmdChatClose, CmdChatSend, CmdChatDelete, CmdChatMore:
		return s.handleChat(ctx, cmd)
	default:
		return fmt.Errorf("%w %q", ErrUnknownCommand, cmd.Type)
	}
	return nil
}

func (s *Session) handleChat(ctx context.Context, cmd Command) error {
	s.mu.Lock()
	engine, identity := s.engine, s.identity
	s.mu.Unlock()
	if engine == nil {
		return ErrDetached
	}

	switch cmd.Type {
	case CmdChatOpen:
		engine.Open(ctx)
		s.setChatOpen(true)
	case CmdChatClose:
		engine.Close(ctx)
		s.setChatOpen(false)
	case CmdChatSend:
		if identity.UserID == "" {
			return service.ErrUnauthorized
		}
		text := strings.TrimSpace(cmd.Text)
		if text == "" || utf8.RuneCountInString(text) > service.MaxChatMessageLength {
			return fmt.Errorf("message must have 1 to %d characters: %w", service.MaxChatMessageLength, service.ErrInvalidInput)
		}
		if !s.chat.AllowSend(ctx, identity) {
			return service.ErrRateLimited
		}
		if !engine.SendMessage(ctx, text, identity.Name(), identity.IsAdmin()) {
			return ErrChatFailed
		}
	case CmdChatDelete:
		if identity.UserID == "" {
			return service.ErrUnauthorized
		}
		if !identity.IsAdmin() {
			return service.ErrForbidden
		}
		if !engine.DeleteMessage(ctx, cmd.ID) {
			return ErrChatFailed
		}
		s.logger.Info().Str("message_id", cmd.ID).Str("admin_id", identity.UserID).Msg("Chat message deleted from portal")
	case CmdChatMore:
		engine.LoadMoreMessages(ctx)
	}
	return nil
}

func (s *Session) setChatOpen(open bool) {
	s.mu.Lock()
	s.chatOpen = open
	s.mu.Unlock()
}

// View runs the search for the current state against the live catalog.
func (s *Session) View() View {
	cat := s.catalogs.Current()

	s.mu.Lock()
	res := s.state.Apply(cat)
	v := View{
		SessionID: s.id,
		State:     s.state,
		Catalog:   cat,
		Result:    res,
		Campuses:  s.catalogs.Campuses(),
		IsAdmin:   s.identity.IsAdmin(),
	}
	engine := s.engine
	s.mu.Unlock()

	v.Chat.Messages = []model.ChatMessage{}
	if engine != nil {
		v.Chat = ChatView{
			Open:     engine.IsOpen(),
			Loading:  engine.Loading(),
			Unread:   engine.UnreadCount(),
			Messages: engine.Messages(),
		}
	}
	return v
}

func (s *Session) signal() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}
