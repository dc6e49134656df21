package realtime

import (
	"context"
	"sync"

	"campusportal/internal/model"

	"github.com/google/uuid"
)

// MemoryStore keeps messages in process. Subscribers are notified
// synchronously on the goroutine that made the change.
type MemoryStore struct {
	mu       sync.Mutex
	messages map[string]model.ChatMessage
	subs     map[int]*memorySub
	nextSub  int
}

type memorySub struct {
	store *MemoryStore
	id    int
	query Query
	fn    func(Snapshot)
	once  sync.Once
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		messages: make(map[string]model.ChatMessage),
		subs:     make(map[int]*memorySub),
	}
}

func (s *MemoryStore) Subscribe(ctx context.Context, q Query, fn func(Snapshot)) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	sub := &memorySub{store: s, id: s.nextSub, query: q, fn: fn}
	s.nextSub++
	s.subs[sub.id] = sub
	snap := apply(s.all(), q)
	s.mu.Unlock()

	fn(Snapshot{Messages: snap})
	return sub, nil
}

func (s *MemoryStore) Fetch(ctx context.Context, q Query) ([]model.ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return apply(s.all(), q), nil
}

func (s *MemoryStore) Push(ctx context.Context, msg model.ChatMessage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	msg.ID = uuid.NewString()
	s.mu.Lock()
	s.messages[msg.ID] = msg
	s.mu.Unlock()
	s.notify()
	return msg.ID, nil
}

func (s *MemoryStore) Remove(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	if _, ok := s.messages[id]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.messages, id)
	s.mu.Unlock()
	s.notify()
	return nil
}

// SubscriberCount reports how many subscriptions are live.
func (s *MemoryStore) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *MemoryStore) all() []model.ChatMessage {
	out := make([]model.ChatMessage, 0, len(s.messages))
	for _, m := range s.messages {
		out = append(out, m)
	}
	return out
}

// notify computes every subscriber's snapshot under the lock and delivers
// them after releasing it, so callbacks may call back into the store.
func (s *MemoryStore) notify() {
	type delivery struct {
		sub  *memorySub
		snap []model.ChatMessage
	}
	s.mu.Lock()
	all := s.all()
	pending := make([]delivery, 0, len(s.subs))
	for _, sub := range s.subs {
		pending = append(pending, delivery{sub: sub, snap: apply(all, sub.query)})
	}
	s.mu.Unlock()

	for _, d := range pending {
		if !d.sub.active() {
			continue
		}
		d.sub.fn(Snapshot{Messages: d.snap})
	}
}

func (sub *memorySub) active() bool {
	sub.store.mu.Lock()
	defer sub.store.mu.Unlock()
	_, ok := sub.store.subs[sub.id]
	return ok
}

func (sub *memorySub) Unsubscribe() {
	sub.once.Do(func() {
		sub.store.mu.Lock()
		delete(sub.store.subs, sub.id)
		sub.store.mu.Unlock()
	})
}
