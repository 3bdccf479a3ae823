package session

import (
	"log/slog"
	"sync"

	"capsyhub/pkg/interfaces"
	"capsyhub/pkg/types"
)

// MaxTimers bounds the timer table per session. Exceeding it is treated as
// a protocol violation by the router.
const MaxTimers = 32

// Session pairs one account with zero-or-one mobile connection, zero-or-one
// device connection, its timer table, and a cached account copy.
//
// All mutation is funneled through the session mutex, which is the per-userID
// ordering domain: attach, detach, timer schedule/cancel/fire checks, and
// slot reads for dispatch all serialize on it. Operations on different
// sessions proceed fully in parallel.
type Session struct {
	userID string

	mu        sync.Mutex
	account   *types.Account
	mobile    interfaces.Connection
	device    interfaces.Connection
	timers    map[string]*timerEntry
	destroyed bool

	// onIdle is invoked (outside the mutex) whenever an operation may have
	// left the session idle, so the registry can evict it.
	onIdle func(userID string)
}

func newSession(userID string, account *types.Account, onIdle func(string)) *Session {
	if onIdle == nil {
		onIdle = func(string) {}
	}
	return &Session{
		userID:  userID,
		account: account,
		timers:  make(map[string]*timerEntry),
		onIdle:  onIdle,
	}
}

// UserID returns the account identifier this session is keyed by.
func (s *Session) UserID() string {
	return s.userID
}

// Account returns the cached account copy.
func (s *Session) Account() types.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.account == nil {
		return types.Account{UserID: s.userID}
	}
	return *s.account
}

// setAccount refreshes the cached account. Called by the registry on
// getOrCreate for an existing session.
func (s *Session) setAccount(account *types.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.account = account
}

// Attach installs conn into the slot for its kind. An existing handle of the
// same kind is instructed to close first: last writer wins, the older
// connection is evicted before the new one becomes visible.
func (s *Session) Attach(kind string, conn interfaces.Connection) error {
	if kind != types.ConnKindMobile && kind != types.ConnKindDevice {
		return ErrInvalidConnKind
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return ErrSessionDestroyed
	}

	slot := &s.mobile
	if kind == types.ConnKindDevice {
		slot = &s.device
	}

	if old := *slot; old != nil && old.ID() != conn.ID() {
		if err := old.Close(); err != nil {
			slog.Warn("failed to close replaced connection",
				"userId", s.userID, "kind", kind, "error", err)
		}
	}
	*slot = conn
	return nil
}

// Detach clears the slot for kind, but only if it still holds conn: a stale
// handle replaced by a newer attach must not detach its successor. Returns
// whether the slot was cleared. Eviction is the registry's job; the session
// stays alive while the other side or pending timers exist.
func (s *Session) Detach(kind string, conn interfaces.Connection) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot := &s.mobile
	if kind == types.ConnKindDevice {
		slot = &s.device
	}

	if *slot == nil || conn == nil || (*slot).ID() != conn.ID() {
		return false
	}
	*slot = nil
	return true
}

// MobileConn returns the attached mobile handle, or nil.
func (s *Session) MobileConn() interfaces.Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mobile
}

// DeviceConn returns the attached device handle, or nil.
func (s *Session) DeviceConn() interfaces.Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.device
}

// Idle reports whether both slots are empty and no timers remain pending.
func (s *Session) Idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mobile == nil && s.device == nil && len(s.timers) == 0 && !s.destroyed
}

// TimerCount returns the number of pending timer entries.
func (s *Session) TimerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// destroy cancels all timers and closes both connection handles. After
// destroy, Attach and Schedule fail with ErrSessionDestroyed.
func (s *Session) destroy() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.destroyed = true
	s.cancelAllLocked()
	mobile, device := s.mobile, s.device
	s.mobile, s.device = nil, nil
	s.mu.Unlock()

	if mobile != nil {
		_ = mobile.Close()
	}
	if device != nil {
		_ = device.Close()
	}
}
