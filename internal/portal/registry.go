package portal

import (
	"context"
	"sync"
	"time"

	"campusportal/internal/model"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
)

// Registry keeps detached sessions around for ttl so a client can reconnect
// and resume them. Attached sessions never expire.
type Registry struct {
	catalogs Catalogs
	chat     ChatBackend
	sessions *cache.Cache
	logger   zerolog.Logger

	// mu serializes resume and release so a session is attached at most once.
	mu sync.Mutex
}

func NewRegistry(catalogs Catalogs, backend ChatBackend, ttl time.Duration, logger zerolog.Logger) *Registry {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Registry{
		catalogs: catalogs,
		chat:     backend,
		sessions: cache.New(ttl, time.Minute),
		logger:   logger.With().Str("service", "PortalRegistry").Logger(),
	}
}

// Attach resumes the detached session with the given id, or starts a new one
// when the id is unknown, expired or already in use.
func (r *Registry) Attach(ctx context.Context, sessionID string, identity model.Identity) *Session {
	r.mu.Lock()
	var s *Session
	if sessionID != "" {
		if cached, ok := r.sessions.Get(sessionID); ok {
			if candidate := cached.(*Session); !candidate.Attached() {
				s = candidate
			}
		}
	}
	if s == nil {
		s = newSession(uuid.NewString(), r.catalogs, r.chat, r.logger)
		r.logger.Debug().Str("session_id", s.ID()).Msg("Portal session created")
	} else {
		r.logger.Debug().Str("session_id", s.ID()).Msg("Portal session resumed")
	}
	s.Attach(ctx, identity)
	r.sessions.Set(s.ID(), s, cache.NoExpiration)
	r.mu.Unlock()
	return s
}

// Release detaches s and starts its expiry clock.
func (r *Registry) Release(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.Detach()
	r.sessions.Set(s.ID(), s, cache.DefaultExpiration)
}

// Len counts live and resumable sessions.
func (r *Registry) Len() int {
	return r.sessions.ItemCount()
}

// Close detaches every session. Used on shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.sessions.Items() {
		item.Object.(*Session).Detach()
	}
	r.sessions.Flush()
}
