package realtime

import (
	"context"
	"errors"
	"testing"

	"campusportal/internal/model"
)

func pushAll(t *testing.T, s Store, timestamps ...int64) []string {
	t.Helper()
	ids := make([]string, 0, len(timestamps))
	for _, ts := range timestamps {
		id, err := s.Push(context.Background(), model.ChatMessage{Text: "m", Timestamp: ts, Username: "ana"})
		if err != nil {
			t.Fatalf("push: %v", err)
		}
		ids = append(ids, id)
	}
	return ids
}

func timestampsOf(msgs []model.ChatMessage) []int64 {
	out := make([]int64, len(msgs))
	for i, m := range msgs {
		out[i] = m.Timestamp
	}
	return out
}

func equalInts(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestMemoryStoreFetchQuery(t *testing.T) {
	s := NewMemoryStore()
	pushAll(t, s, 50, 10, 40, 20, 30)

	tests := []struct {
		name string
		q    Query
		want []int64
	}{
		{"all", Query{}, []int64{10, 20, 30, 40, 50}},
		{"newest two", Query{Limit: 2}, []int64{40, 50}},
		{"before is exclusive", Query{Before: 30}, []int64{10, 20}},
		{"before with limit", Query{Before: 50, Limit: 2}, []int64{30, 40}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Fetch(context.Background(), tt.q)
			if err != nil {
				t.Fatalf("fetch: %v", err)
			}
			if !equalInts(timestampsOf(got), tt.want) {
				t.Fatalf("got %v, want %v", timestampsOf(got), tt.want)
			}
		})
	}
}

func TestMemoryStoreSubscribeDeliversChanges(t *testing.T) {
	s := NewMemoryStore()
	pushAll(t, s, 1)

	var snaps []Snapshot
	sub, err := s.Subscribe(context.Background(), Query{Limit: 2}, func(snap Snapshot) {
		snaps = append(snaps, snap)
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if len(snaps) != 1 || len(snaps[0].Messages) != 1 {
		t.Fatalf("expected initial snapshot with one message, got %+v", snaps)
	}

	pushAll(t, s, 2, 3)
	last := snaps[len(snaps)-1]
	if !equalInts(timestampsOf(last.Messages), []int64{2, 3}) {
		t.Fatalf("expected newest two after push, got %v", timestampsOf(last.Messages))
	}

	sub.Unsubscribe()
	sub.Unsubscribe()
	delivered := len(snaps)
	pushAll(t, s, 4)
	if len(snaps) != delivered {
		t.Fatal("expected no delivery after unsubscribe")
	}
	if s.SubscriberCount() != 0 {
		t.Fatalf("expected no subscribers, got %d", s.SubscriberCount())
	}
}

func TestMemoryStoreRemove(t *testing.T) {
	s := NewMemoryStore()
	ids := pushAll(t, s, 1, 2)

	if err := s.Remove(context.Background(), ids[0]); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := s.Remove(context.Background(), ids[0]); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	got, _ := s.Fetch(context.Background(), Query{})
	if len(got) != 1 || got[0].ID != ids[1] {
		t.Fatalf("unexpected remaining messages: %+v", got)
	}
}

func TestMemoryStoreHonoursCanceledContext(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Push(ctx, model.ChatMessage{Timestamp: 1}); err == nil {
		t.Fatal("expected push to fail on canceled context")
	}
}
