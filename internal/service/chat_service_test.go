package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"campusportal/internal/model"
	"campusportal/internal/ratelimit"
	"campusportal/internal/realtime"

	"github.com/rs/zerolog"
)

func newTestChatService(t *testing.T, limit int) (ChatService, *realtime.MemoryStore) {
	t.Helper()
	store := realtime.NewMemoryStore()
	limiter, err := ratelimit.NewMemoryFixedWindowLimiter(limit, time.Minute)
	if err != nil {
		t.Fatalf("limiter: %v", err)
	}
	return NewChatService(store, limiter, time.Second, zerolog.Nop()), store
}

func TestChatServiceSend(t *testing.T) {
	svc, store := newTestChatService(t, 10)
	ctx := context.Background()

	msg, err := svc.Send(ctx, admin, " hola ")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.ID == "" || msg.Text != "hola" || msg.Username != "Admin" || !msg.IsAdmin {
		t.Fatalf("unexpected message: %+v", msg)
	}
	stored, _ := store.Fetch(ctx, realtime.Query{})
	if len(stored) != 1 || stored[0].ID != msg.ID {
		t.Fatalf("expected message stored, got %+v", stored)
	}

	tests := []struct {
		name   string
		caller model.Identity
		text   string
		want   error
	}{
		{"anonymous", model.Identity{}, "hola", ErrUnauthorized},
		{"blank", ana, "  ", ErrInvalidInput},
		{"too long", ana, strings.Repeat("a", MaxChatMessageLength+1), ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Send(ctx, tt.caller, tt.text); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestChatServiceRateLimit(t *testing.T) {
	svc, _ := newTestChatService(t, 2)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := svc.Send(ctx, ana, "hola"); err != nil {
			t.Fatalf("send %d: %v", i+1, err)
		}
	}
	if _, err := svc.Send(ctx, ana, "hola"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if _, err := svc.Send(ctx, luis, "hola"); err != nil {
		t.Fatalf("other users keep their quota: %v", err)
	}
}

func TestChatServiceDeleteNeedsAdmin(t *testing.T) {
	svc, _ := newTestChatService(t, 10)
	ctx := context.Background()
	msg, _ := svc.Send(ctx, ana, "spam")

	if err := svc.Delete(ctx, ana, msg.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := svc.Delete(ctx, model.Identity{}, msg.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := svc.Delete(ctx, admin, msg.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, admin, msg.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestChatServiceHistory(t *testing.T) {
	svc, store := newTestChatService(t, 10)
	ctx := context.Background()
	for ts := int64(1); ts <= 70; ts++ {
		if _, err := store.Push(ctx, model.ChatMessage{Text: "m", Timestamp: ts}); err != nil {
			t.Fatalf("push: %v", err)
		}
	}

	latest, err := svc.History(ctx, 0, 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(latest) != 50 || latest[0].Timestamp != 21 || latest[49].Timestamp != 70 {
		t.Fatalf("expected newest 50 ascending, got %d from %d", len(latest), latest[0].Timestamp)
	}
	older, _ := svc.History(ctx, 21, 10)
	if len(older) != 10 || older[0].Timestamp != 11 || older[9].Timestamp != 20 {
		t.Fatalf("unexpected older page: %+v", older)
	}
	if _, err := svc.History(ctx, -1, 10); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestChatServiceNewEngineSharesStore(t *testing.T) {
	svc, store := newTestChatService(t, 10)
	e := svc.NewEngine()
	e.Start(context.Background())
	defer e.Shutdown()
	if store.SubscriberCount() != 1 {
		t.Fatalf("expected the engine to subscribe to the service store")
	}
}
