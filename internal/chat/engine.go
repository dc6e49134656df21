// Package chat maintains the public chat window on top of a realtime store.
//
// An Engine is either closed, where it only counts recent messages for the
// unread badge, or open, where it holds an ascending window of the newest
// messages and can page backwards. Each state owns exactly one store
// subscription, acquired on entry and released on exit.
package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"campusportal/internal/model"
	"campusportal/internal/realtime"

	"github.com/looplab/fsm"
	"github.com/rs/zerolog"
)

const (
	// WindowSize caps a window snapshot and each backward page.
	WindowSize = 50
	// UnreadWindow is how far back the closed-state badge counts.
	UnreadWindow = 5 * time.Minute

	StateClosed = "closed"
	StateOpen   = "open"

	eventOpen  = "open"
	eventClose = "close"
)

type Option func(*Engine)

// WithClock replaces time.Now for timestamps and the unread cutoff.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithTimeout bounds every store call.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

type Engine struct {
	store   realtime.Store
	logger  zerolog.Logger
	now     func() time.Time
	timeout time.Duration

	// transMu serializes state transitions and owns sub.
	transMu  sync.Mutex
	machine  *fsm.FSM
	sub      realtime.Subscription
	started  bool
	shutdown bool

	// mu guards everything below. It is never held across a store call.
	mu       sync.Mutex
	gen      uint64
	open     bool
	window   []model.ChatMessage
	unread   int
	loading  bool
	onChange func()
}

func New(store realtime.Store, logger zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		logger:  logger.With().Str("service", "ChatEngine").Logger(),
		now:     time.Now,
		timeout: 10 * time.Second,
		window:  []model.ChatMessage{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.machine = fsm.NewFSM(
		StateClosed,
		fsm.Events{
			{Name: eventOpen, Src: []string{StateClosed}, Dst: StateOpen},
			{Name: eventClose, Src: []string{StateOpen}, Dst: StateClosed},
		},
		fsm.Callbacks{
			"leave_" + StateClosed: e.onLeaveScope,
			"leave_" + StateOpen:   e.onLeaveScope,
			"enter_" + StateClosed: e.onEnterClosed,
			"enter_" + StateOpen:   e.onEnterOpen,
		},
	)
	return e
}

// Start acquires the closed-state subscription. The engine starts closed.
func (e *Engine) Start(ctx context.Context) {
	e.transMu.Lock()
	defer e.transMu.Unlock()
	if e.started || e.shutdown {
		return
	}
	e.started = true
	if e.machine.Current() == StateClosed {
		e.acquireUnread(ctx)
	}
}

// Open switches to the window state. Opening an open engine is a no-op.
func (e *Engine) Open(ctx context.Context) {
	e.transition(ctx, eventOpen)
}

// Close switches back to unread counting. Closing a closed engine is a no-op.
func (e *Engine) Close(ctx context.Context) {
	e.transition(ctx, eventClose)
}

func (e *Engine) transition(ctx context.Context, event string) {
	e.transMu.Lock()
	defer e.transMu.Unlock()
	if e.shutdown || !e.machine.Can(event) {
		return
	}
	e.started = true
	if err := e.machine.Event(ctx, event); err != nil {
		e.logger.Error().Err(err).Str("event", event).Msg("Chat state transition failed")
	}
}

// Shutdown releases the live subscription. The engine is unusable afterwards.
func (e *Engine) Shutdown() {
	e.transMu.Lock()
	defer e.transMu.Unlock()
	if e.shutdown {
		return
	}
	e.shutdown = true
	e.release()
}

// State returns "open" or "closed".
func (e *Engine) State() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.open {
		return StateOpen
	}
	return StateClosed
}

func (e *Engine) IsOpen() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.open
}

// Messages returns a copy of the window, ascending by timestamp.
func (e *Engine) Messages() []model.ChatMessage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]model.ChatMessage(nil), e.window...)
}

// UnreadCount reads 0 while open.
func (e *Engine) UnreadCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.open {
		return 0
	}
	return e.unread
}

// Loading is true from opening until the first window snapshot arrives.
func (e *Engine) Loading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loading
}

// OnChange registers fn to run after every state change. fn runs on the
// goroutine that caused the change and must not block.
func (e *Engine) OnChange(fn func()) {
	e.mu.Lock()
	e.onChange = fn
	e.mu.Unlock()
}

// SendMessage stamps the message with the current time and pushes it.
func (e *Engine) SendMessage(ctx context.Context, text, username string, isAdmin bool) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	_, err := e.store.Push(ctx, model.ChatMessage{
		Text:      text,
		Timestamp: e.now().UnixMilli(),
		Username:  username,
		IsAdmin:   isAdmin,
	})
	if err != nil {
		e.logger.Error().Err(err).Msg("Error sending message")
		return false
	}
	return true
}

// DeleteMessage removes a message from the store and from the window.
// Callers check admin rights.
func (e *Engine) DeleteMessage(ctx context.Context, id string) bool {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	if err := e.store.Remove(ctx, id); err != nil {
		e.logger.Error().Err(err).Str("id", id).Msg("Error deleting message")
		return false
	}
	e.mu.Lock()
	e.window = without(e.window, id)
	e.mu.Unlock()
	e.notify()
	return true
}

// LoadMoreMessages prepends up to WindowSize messages strictly older than
// the current oldest and returns how many were added.
func (e *Engine) LoadMoreMessages(ctx context.Context) int {
	e.mu.Lock()
	if !e.open || len(e.window) == 0 {
		e.mu.Unlock()
		return 0
	}
	gen := e.gen
	oldest := e.window[0].Timestamp
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	older, err := e.store.Fetch(ctx, realtime.Query{Limit: WindowSize, Before: oldest})
	if err != nil {
		e.logger.Error().Err(err).Msg("Error loading more messages")
		return 0
	}

	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		return 0
	}
	var added int
	e.window, added = prependOlder(e.window, older)
	e.mu.Unlock()
	if added > 0 {
		e.notify()
	}
	return added
}

func (e *Engine) onEnterOpen(ctx context.Context, _ *fsm.Event) {
	e.mu.Lock()
	e.open = true
	e.loading = true
	e.window = []model.ChatMessage{}
	e.mu.Unlock()
	e.notify()
	e.acquire(ctx, realtime.Query{Limit: WindowSize}, func(snap realtime.Snapshot) {
		e.loading = false
		if snap.Err != nil {
			e.logger.Error().Err(snap.Err).Msg("Chat window subscription error")
			return
		}
		e.window = mergeSnapshot(e.window, newest(snap.Messages, WindowSize))
	})
}

func (e *Engine) onEnterClosed(ctx context.Context, _ *fsm.Event) {
	e.mu.Lock()
	e.open = false
	e.loading = false
	e.window = []model.ChatMessage{}
	e.mu.Unlock()
	e.notify()
	e.acquireUnread(ctx)
}

func (e *Engine) onLeaveScope(_ context.Context, _ *fsm.Event) {
	e.release()
}

func (e *Engine) acquireUnread(ctx context.Context) {
	e.acquire(ctx, realtime.Query{}, func(snap realtime.Snapshot) {
		if snap.Err != nil {
			e.logger.Error().Err(snap.Err).Msg("Chat unread subscription error")
			return
		}
		cutoff := e.now().Add(-UnreadWindow).UnixMilli()
		n := 0
		for _, m := range snap.Messages {
			if m.Timestamp > cutoff {
				n++
			}
		}
		e.unread = n
	})
}

// acquire opens the subscription for the current state. handle runs with
// mu held and only for snapshots of this generation.
func (e *Engine) acquire(ctx context.Context, q realtime.Query, handle func(realtime.Snapshot)) {
	e.mu.Lock()
	e.gen++
	gen := e.gen
	e.mu.Unlock()

	subCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	sub, err := e.store.Subscribe(subCtx, q, func(snap realtime.Snapshot) {
		e.mu.Lock()
		if gen != e.gen {
			e.mu.Unlock()
			return
		}
		handle(snap)
		e.mu.Unlock()
		e.notify()
	})
	if err != nil {
		e.logger.Error().Err(err).Msg("Error subscribing to chat")
		e.mu.Lock()
		if gen == e.gen {
			e.loading = false
		}
		e.mu.Unlock()
		e.notify()
		return
	}
	e.sub = sub
}

// release bumps the generation first so in-flight deliveries are dropped.
func (e *Engine) release() {
	e.mu.Lock()
	e.gen++
	e.mu.Unlock()
	if e.sub != nil {
		e.sub.Unsubscribe()
		e.sub = nil
	}
}

func (e *Engine) notify() {
	e.mu.Lock()
	fn := e.onChange
	e.mu.Unlock()
	if fn != nil {
		fn()
	}
}
