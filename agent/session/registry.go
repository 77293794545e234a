package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Registry owns every in-process session. Sessions are created lazily on
// first acquire and live until an explicit reset or idle eviction; without
// eviction the map grows without bound in long-lived deployments.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Acquire returns the session for id, creating it if unseen.
func (r *Registry) Acquire(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		s = newSession(id, r.now())
		r.sessions[id] = s
		log.Debug().Str("session_id", id).Msg("session created")
	}
	return s
}

// Reset drops the in-process session only. Persisted lead memory is not
// touched. Reports whether a session existed.
func (r *Registry) Reset(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// EvictIdle removes sessions idle for longer than maxIdle and returns how
// many were dropped. Run periodically; idle sessions are reconstructible
// from the lead store plus fresh history.
func (r *Registry) EvictIdle(maxIdle time.Duration) int {
	if maxIdle <= 0 {
		return 0
	}

	cutoff := r.now().Add(-maxIdle)

	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for id, s := range r.sessions {
		if s.lastActiveAt().Before(cutoff) {
			delete(r.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		log.Info().Int("evicted", evicted).Int("remaining", len(r.sessions)).Msg("idle sessions evicted")
	}
	return evicted
}
