package portal

import (
	"context"
	"errors"
	"testing"

	"campusportal/internal/model"
)

func TestRegistryResumeKeepsState(t *testing.T) {
	h := newHarness(t, 10)
	ctx := context.Background()

	s := h.registry.Attach(ctx, "", ana)
	_ = s.Handle(ctx, Command{Type: CmdSearch, Query: "calculo"})
	_ = s.Handle(ctx, Command{Type: CmdChatOpen})
	if h.store.SubscriberCount() != 1 {
		t.Fatalf("expected one subscription, got %d", h.store.SubscriberCount())
	}

	h.registry.Release(s)
	if h.store.SubscriberCount() != 0 {
		t.Fatalf("release should drop chat subscriptions, got %d", h.store.SubscriberCount())
	}
	if err := s.Handle(ctx, Command{Type: CmdChatOpen}); !errors.Is(err, ErrDetached) {
		t.Fatalf("expected ErrDetached, got %v", err)
	}

	resumed := h.registry.Attach(ctx, s.ID(), ana)
	if resumed != s {
		t.Fatal("expected the same session to be resumed")
	}
	v := resumed.View()
	if v.State.Query != "calculo" || !v.Chat.Open {
		t.Fatalf("resumed session lost state: query=%q open=%v", v.State.Query, v.Chat.Open)
	}
	if h.store.SubscriberCount() != 1 {
		t.Fatalf("expected one subscription after resume, got %d", h.store.SubscriberCount())
	}
}

func TestRegistryDoesNotShareAttachedSessions(t *testing.T) {
	h := newHarness(t, 10)
	ctx := context.Background()

	first := h.registry.Attach(ctx, "", ana)
	second := h.registry.Attach(ctx, first.ID(), ana)
	if second == first {
		t.Fatal("an attached session must not be handed to a second connection")
	}
	if h.registry.Len() != 2 {
		t.Fatalf("expected 2 sessions, got %d", h.registry.Len())
	}

	unknown := h.registry.Attach(ctx, "missing", model.Identity{})
	if unknown.ID() == "missing" {
		t.Fatal("unknown ids get a fresh session id")
	}
}

func TestRegistryCloseReleasesEverything(t *testing.T) {
	h := newHarness(t, 10)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		h.registry.Attach(ctx, "", ana)
	}
	if h.store.SubscriberCount() != 3 {
		t.Fatalf("expected 3 subscriptions, got %d", h.store.SubscriberCount())
	}
	h.registry.Close()
	if h.store.SubscriberCount() != 0 || h.registry.Len() != 0 {
		t.Fatalf("close left %d subscriptions and %d sessions", h.store.SubscriberCount(), h.registry.Len())
	}
}
