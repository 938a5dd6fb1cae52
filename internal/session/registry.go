package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Registry holds every live session in memory. Sessions are ephemeral: they
// exist only between creation and close (explicit or janitor-driven).
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	log      zerolog.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		sessions: make(map[uuid.UUID]*Session),
		log:      log.With().Str("component", "session_registry").Logger(),
	}
}

// Put registers a session and starts its clock.
func (r *Registry) Put(s *Session) {
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	s.StartClock()
}

// Get returns the session or nil.
func (r *Registry) Get(id uuid.UUID) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[id]
}

// Remove closes and unregisters a session. Safe to call for unknown ids.
func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		s.Close()
	}
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Janitor closes sessions idle for longer than ttl. Call in a goroutine;
// stops when ctx is cancelled.
func (r *Registry) Janitor(ctx context.Context, ttl time.Duration) {
	r.log.Info().Dur("ttl", ttl).Msg("Session janitor started")

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("Session janitor stopping")
			r.closeAll()
			return
		case <-ticker.C:
			r.sweep(ttl)
		}
	}
}

func (r *Registry) sweep(ttl time.Duration) {
	cutoff := time.Now().Add(-ttl)

	r.mu.Lock()
	var stale []*Session
	for id, s := range r.sessions {
		if s.LastActivity().Before(cutoff) {
			stale = append(stale, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range stale {
		s.Close()
		r.log.Info().Str("session_id", s.ID.String()).Msg("Closed idle session")
	}
}

func (r *Registry) closeAll() {
	r.mu.Lock()
	all := make([]*Session, 0, len(r.sessions))
	for id, s := range r.sessions {
		all = append(all, s)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, s := range all {
		s.Close()
	}
}
