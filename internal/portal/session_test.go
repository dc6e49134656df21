package portal

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"campusportal/internal/catalog"
	"campusportal/internal/model"
	"campusportal/internal/ratelimit"
	"campusportal/internal/realtime"
	"campusportal/internal/service"

	"github.com/rs/zerolog"
)

type fixedCatalogs struct {
	c *catalog.Catalog
}

func (f fixedCatalogs) Current() *catalog.Catalog { return f.c }

func (f fixedCatalogs) Campuses() []string {
	return append([]string(nil), catalog.Campuses...)
}

var (
	ana   = model.Identity{UserID: "u-ana", DisplayName: "Ana"}
	admin = model.Identity{UserID: "u-admin", DisplayName: "Admin", Role: model.RoleAdmin}
)

func testCatalog() *catalog.Catalog {
	courses := []model.Course{
		{ID: "c1", Code: "MAT-101", Name: "Cálculo I"},
		{ID: "c2", Code: "FIS-201", Name: "Física II"},
	}
	var sections []model.Section
	for i := 0; i < 30; i++ {
		sections = append(sections, model.Section{
			NRC:       fmt.Sprintf("%d", 1000+i),
			CourseID:  "c1",
			Professor: "Pérez",
			Campus:    "Santiago",
			Modalidad: "Presencial",
		})
	}
	sections = append(sections, model.Section{NRC: "2000", CourseID: "c2", Professor: "Gómez", Campus: "Mao", Modalidad: "Online"})
	return catalog.New(courses, sections)
}

type harness struct {
	store    *realtime.MemoryStore
	registry *Registry
}

func newHarness(t *testing.T, sendLimit int) *harness {
	t.Helper()
	store := realtime.NewMemoryStore()
	limiter, err := ratelimit.NewMemoryFixedWindowLimiter(sendLimit, time.Minute)
	if err != nil {
		t.Fatalf("limiter: %v", err)
	}
	chatSvc := service.NewChatService(store, limiter, time.Second, zerolog.Nop())
	registry := NewRegistry(fixedCatalogs{c: testCatalog()}, chatSvc, time.Minute, zerolog.Nop())
	t.Cleanup(registry.Close)
	return &harness{store: store, registry: registry}
}

func TestSessionFilters(t *testing.T) {
	h := newHarness(t, 10)
	ctx := context.Background()
	s := h.registry.Attach(ctx, "", model.Identity{})

	v := s.View()
	if v.Result.TotalResults != 31 || v.Result.TotalPages != 2 || v.State.View != catalog.ViewHome {
		t.Fatalf("unexpected initial view: %+v", v.Result)
	}

	if err := s.Handle(ctx, Command{Type: CmdPage, Page: 7}); err != nil {
		t.Fatalf("page: %v", err)
	}
	if v := s.View(); v.Result.Page != 2 || v.State.Page != 2 {
		t.Fatalf("expected page clamped to 2, got %d", v.Result.Page)
	}

	if err := s.Handle(ctx, Command{Type: CmdView, View: "forum"}); err != nil {
		t.Fatalf("view: %v", err)
	}
	if err := s.Handle(ctx, Command{Type: CmdSearch, Query: "gomez", Campus: "Mao"}); err != nil {
		t.Fatalf("search: %v", err)
	}
	v = s.View()
	if v.State.View != catalog.ViewHome || v.State.Page != 1 || v.Result.TotalResults != 1 {
		t.Fatalf("search should reset view and page: %+v", v.State)
	}

	if err := s.Handle(ctx, Command{Type: CmdModality, Modality: "virtual"}); err != nil {
		t.Fatalf("modality: %v", err)
	}
	if v := s.View(); v.Result.TotalResults != 1 {
		t.Fatalf("expected the online section, got %d", v.Result.TotalResults)
	}
	if err := s.Handle(ctx, Command{Type: CmdCampus, Campus: "Santiago"}); err != nil {
		t.Fatalf("campus: %v", err)
	}
	if v := s.View(); v.Result.Empty != catalog.EmptyNoResultsCampus {
		t.Fatalf("expected campus empty state, got %q", v.Result.Empty)
	}

	if err := s.Handle(ctx, Command{Type: CmdReset}); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if v := s.View(); v.State != catalog.NewState() {
		t.Fatalf("reset left state %+v", v.State)
	}
}

func TestSessionRejectsBadCommands(t *testing.T) {
	h := newHarness(t, 10)
	ctx := context.Background()
	s := h.registry.Attach(ctx, "", model.Identity{})

	tests := []struct {
		name string
		cmd  Command
		want error
	}{
		{"unknown type", Command{Type: "dance"}, ErrUnknownCommand},
		{"unknown campus", Command{Type: CmdCampus, Campus: "Atlantis"}, service.ErrInvalidInput},
		{"unknown modality", Command{Type: CmdModality, Modality: "hybrid"}, service.ErrInvalidInput},
		{"unknown view", Command{Type: CmdView, View: "settings"}, service.ErrInvalidInput},
		{"anonymous send", Command{Type: CmdChatSend, Text: "hola"}, service.ErrUnauthorized},
		{"anonymous delete", Command{Type: CmdChatDelete, ID: "x"}, service.ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Handle(ctx, tt.cmd); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSessionChat(t *testing.T) {
	h := newHarness(t, 10)
	ctx := context.Background()
	for ts := int64(1); ts <= 60; ts++ {
		if _, err := h.store.Push(ctx, model.ChatMessage{Text: "m", Timestamp: ts}); err != nil {
			t.Fatalf("push: %v", err)
		}
	}
	s := h.registry.Attach(ctx, "", ana)

	if err := s.Handle(ctx, Command{Type: CmdChatOpen}); err != nil {
		t.Fatalf("open: %v", err)
	}
	v := s.View()
	if !v.Chat.Open || len(v.Chat.Messages) != 50 || v.Chat.Messages[0].Timestamp != 11 {
		t.Fatalf("expected newest 50 messages, got open=%v len=%d", v.Chat.Open, len(v.Chat.Messages))
	}

	if err := s.Handle(ctx, Command{Type: CmdChatMore}); err != nil {
		t.Fatalf("more: %v", err)
	}
	if v := s.View(); len(v.Chat.Messages) != 60 {
		t.Fatalf("expected 60 messages after paging, got %d", len(v.Chat.Messages))
	}

	if err := s.Handle(ctx, Command{Type: CmdChatSend, Text: "  hola  "}); err != nil {
		t.Fatalf("send: %v", err)
	}
	msgs := s.View().Chat.Messages
	last := msgs[len(msgs)-1]
	if last.Text != "hola" || last.Username != "Ana" || last.IsAdmin {
		t.Fatalf("unexpected sent message: %+v", last)
	}
	if err := s.Handle(ctx, Command{Type: CmdChatDelete, ID: last.ID}); !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-admin delete, got %v", err)
	}

	if err := s.Handle(ctx, Command{Type: CmdChatClose}); err != nil {
		t.Fatalf("close: %v", err)
	}
	if v := s.View(); v.Chat.Open || len(v.Chat.Messages) != 0 {
		t.Fatalf("closed chat should not hold a window: %+v", v.Chat)
	}
}

func TestSessionAdminDelete(t *testing.T) {
	h := newHarness(t, 10)
	ctx := context.Background()
	id, _ := h.store.Push(ctx, model.ChatMessage{Text: "spam", Timestamp: time.Now().UnixMilli()})

	s := h.registry.Attach(ctx, "", admin)
	_ = s.Handle(ctx, Command{Type: CmdChatOpen})
	if err := s.Handle(ctx, Command{Type: CmdChatDelete, ID: id}); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if v := s.View(); len(v.Chat.Messages) != 0 || !v.IsAdmin {
		t.Fatalf("expected message gone, got %+v", v.Chat.Messages)
	}
	if err := s.Handle(ctx, Command{Type: CmdChatDelete, ID: id}); !errors.Is(err, ErrChatFailed) {
		t.Fatalf("expected ErrChatFailed for a missing message, got %v", err)
	}
}

func TestSessionSendRateLimit(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()
	s := h.registry.Attach(ctx, "", ana)

	if err := s.Handle(ctx, Command{Type: CmdChatSend, Text: "uno"}); err != nil {
		t.Fatalf("first send: %v", err)
	}
	if err := s.Handle(ctx, Command{Type: CmdChatSend, Text: "dos"}); !errors.Is(err, service.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestSessionUnreadWhileClosed(t *testing.T) {
	h := newHarness(t, 10)
	ctx := context.Background()
	s := h.registry.Attach(ctx, "", ana)

	now := time.Now().UnixMilli()
	_, _ = h.store.Push(ctx, model.ChatMessage{Text: "old", Timestamp: now - int64(time.Hour/time.Millisecond)})
	_, _ = h.store.Push(ctx, model.ChatMessage{Text: "new", Timestamp: now})
	if v := s.View(); v.Chat.Unread != 1 || v.Chat.Open {
		t.Fatalf("expected 1 unread while closed, got %+v", v.Chat)
	}
}

func TestSessionSignalsChanges(t *testing.T) {
	h := newHarness(t, 10)
	ctx := context.Background()
	s := h.registry.Attach(ctx, "", ana)

	drain(s)
	_ = s.Handle(ctx, Command{Type: CmdPage, Page: 2})
	select {
	case <-s.Changes():
	default:
		t.Fatal("expected a change signal after a command")
	}

	drain(s)
	_, _ = h.store.Push(ctx, model.ChatMessage{Text: "ping", Timestamp: time.Now().UnixMilli()})
	select {
	case <-s.Changes():
	default:
		t.Fatal("expected a change signal after a chat update")
	}
}

func drain(s *Session) {
	for {
		select {
		case <-s.Changes():
		default:
			return
		}
	}
}
