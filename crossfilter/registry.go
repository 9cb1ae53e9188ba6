package crossfilter

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"airbnb-dashboard/utils"
)

type session struct {
	state    *State
	lastSeen atomic.Int64 // unix nanos
}

// Registry maps dashboard session ids to their selection state. Sessions
// idle for longer than the TTL, with no live observers, are pruned.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*session
	ttl      time.Duration
	now      func() time.Time
	logger   *utils.Logger
}

func NewRegistry(ttl time.Duration, logger *utils.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*session),
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

// Create starts a new session with an empty selection.
func (r *Registry) Create() (string, *State) {
	id := uuid.NewString()
	sess := &session{state: NewState()}
	sess.lastSeen.Store(r.now().UnixNano())

	r.mu.Lock()
	r.sessions[id] = sess
	r.mu.Unlock()

	r.logger.Debug("[sessions] Created %s", id)
	return id, sess.state
}

// Get returns the session's state and marks it as recently used.
func (r *Registry) Get(id string) (*State, error) {
	r.mu.RLock()
	sess, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	sess.lastSeen.Store(r.now().UnixNano())
	return sess.state, nil
}

func (r *Registry) Delete(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Prune removes expired sessions and returns how many were removed.
func (r *Registry) Prune() int {
	cutoff := r.now().Add(-r.ttl).UnixNano()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, sess := range r.sessions {
		if sess.lastSeen.Load() >= cutoff || sess.state.Observers() > 0 {
			continue
		}
		delete(r.sessions, id)
		removed++
	}
	return removed
}

// Start runs Prune every interval until ctx is cancelled.
func (r *Registry) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := r.Prune(); n > 0 {
					r.logger.Info("[sessions] Pruned %d idle sessions (%d active)", n, r.Len())
				}
			}
		}
	}()
}
