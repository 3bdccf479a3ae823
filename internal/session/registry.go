package session

import (
	"log/slog"
	"sync"

	"capsyhub/pkg/interfaces"
	"capsyhub/pkg/types"
)

// Registry is the process-wide map from account identifier to Session. It
// owns creation, lookup, and teardown.
//
// Lock ordering is registry mutex before session mutex, never the reverse.
// The registry mutex covers only map insert/lookup/evict; per-account
// serialization lives in the session mutex. Attach/Detach hold the read
// lock for the duration of the session mutation so eviction (write lock)
// cannot interleave with them.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// GetOrCreate returns the session for userID, creating it with empty slots
// and an empty timer table if absent. Idempotent: an existing session is
// returned unchanged apart from a refresh of its cached account.
func (r *Registry) GetOrCreate(userID string, account *types.Account) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[userID]; ok {
		s.setAccount(account)
		return s
	}

	s := newSession(userID, account, func(id string) { r.TryEvict(id) })
	r.sessions[userID] = s
	slog.Info("session created", "userId", userID)
	return s
}

// Get returns the session for userID, if any.
func (r *Registry) Get(userID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[userID]
	return s, ok
}

// Attach installs conn into the session's slot for kind, evicting any older
// handle of that kind with a close signal first.
func (r *Registry) Attach(userID, kind string, conn interfaces.Connection) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[userID]
	if !ok {
		return ErrSessionNotFound
	}
	if err := s.Attach(kind, conn); err != nil {
		return err
	}
	slog.Info("connection attached", "userId", userID, "kind", kind, "connId", conn.ID())
	return nil
}

// Detach clears the slot holding conn and schedules eviction. The session is
// destroyed only once both slots are empty and no timers remain, so a
// reconnect in flight or pending reminders keep its state alive.
func (r *Registry) Detach(userID, kind string, conn interfaces.Connection) {
	r.mu.RLock()
	s, ok := r.sessions[userID]
	var cleared bool
	if ok {
		cleared = s.Detach(kind, conn)
	}
	r.mu.RUnlock()

	if !cleared {
		return
	}
	slog.Info("connection detached", "userId", userID, "kind", kind, "connId", conn.ID())
	r.TryEvict(userID)
}

// TryEvict destroys the session for userID if it is idle (both slots empty,
// timer table empty). Returns whether an eviction happened.
func (r *Registry) TryEvict(userID string) bool {
	r.mu.Lock()
	s, ok := r.sessions[userID]
	if !ok || !s.Idle() {
		r.mu.Unlock()
		return false
	}
	delete(r.sessions, userID)
	r.mu.Unlock()

	s.destroy()
	slog.Info("session evicted", "userId", userID)
	return true
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Stats reports registry counters for the ops API.
func (r *Registry) Stats() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mobile, device, timers := 0, 0, 0
	for _, s := range r.sessions {
		if s.MobileConn() != nil {
			mobile++
		}
		if s.DeviceConn() != nil {
			device++
		}
		timers += s.TimerCount()
	}
	return map[string]int{
		"sessions":           len(r.sessions),
		"mobile_connections": mobile,
		"device_connections": device,
		"pending_timers":     timers,
	}
}

// Shutdown destroys every session: all timers cancelled, then both handles
// closed. Order across sessions is unspecified.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.destroy()
	}
	slog.Info("session registry shut down", "sessions", len(sessions))
}
