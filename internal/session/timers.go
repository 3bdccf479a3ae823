package session

import (
	"time"

	"capsyhub/pkg/types"
)

// timerEntry is one named, cancelable scheduled callback owned by a session.
// Exactly one of timer/ticker is set, matching the kind.
type timerEntry struct {
	id     string
	kind   string
	timer  *time.Timer
	ticker *time.Ticker
	stop   chan struct{}
}

// Schedule installs a timer under id. A timeout fires onFire once after delay
// and self-removes; an interval fires every delay until cancelled.
// Re-scheduling an existing id cancels the prior entry first, so there is
// never more than one live handle per id.
//
// onFire runs on a timer goroutine only after the entry has been verified,
// under the session mutex, to still be the current entry for its id. A
// cancelled entry is therefore never observably fired after Cancel returns;
// a fire already past that check may complete.
func (s *Session) Schedule(id, kind string, delay time.Duration, onFire func()) error {
	if kind != types.TimerKindInterval && kind != types.TimerKindTimeout {
		return ErrInvalidTimerKind
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return ErrSessionDestroyed
	}

	if prior, ok := s.timers[id]; ok {
		cancelEntry(prior)
		delete(s.timers, id)
	}
	if len(s.timers) >= MaxTimers {
		return ErrTimerTableFull
	}

	entry := &timerEntry{id: id, kind: kind}
	s.timers[id] = entry

	switch kind {
	case types.TimerKindTimeout:
		entry.timer = time.AfterFunc(delay, func() {
			if s.takeTimeout(entry) {
				onFire()
				s.onIdle(s.userID)
			}
		})
	case types.TimerKindInterval:
		entry.ticker = time.NewTicker(delay)
		entry.stop = make(chan struct{})
		go func() {
			for {
				select {
				case <-entry.stop:
					return
				case <-entry.ticker.C:
					if !s.entryCurrent(entry) {
						return
					}
					onFire()
				}
			}
		}()
	}

	return nil
}

// Cancel removes the entry under id after stopping its handle. Synchronous
// with respect to subsequent Schedule calls for the same id.
func (s *Session) Cancel(id string) error {
	s.mu.Lock()
	entry, ok := s.timers[id]
	if ok {
		cancelEntry(entry)
		delete(s.timers, id)
	}
	s.mu.Unlock()

	if !ok {
		return ErrTimerNotFound
	}
	s.onIdle(s.userID)
	return nil
}

// CancelAll stops and removes every entry. Invoked on session destruction;
// must be exhaustive so no callback outlives the session.
func (s *Session) CancelAll() {
	s.mu.Lock()
	s.cancelAllLocked()
	s.mu.Unlock()
	s.onIdle(s.userID)
}

func (s *Session) cancelAllLocked() {
	for id, entry := range s.timers {
		cancelEntry(entry)
		delete(s.timers, id)
	}
}

// takeTimeout self-removes a fired timeout entry. Returns false if the entry
// was cancelled or replaced before the fire reached the ordering domain.
func (s *Session) takeTimeout(entry *timerEntry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed || s.timers[entry.id] != entry {
		return false
	}
	delete(s.timers, entry.id)
	return true
}

// entryCurrent reports whether entry is still the live entry for its id.
func (s *Session) entryCurrent(entry *timerEntry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.destroyed && s.timers[entry.id] == entry
}

func cancelEntry(entry *timerEntry) {
	if entry.timer != nil {
		entry.timer.Stop()
	}
	if entry.ticker != nil {
		entry.ticker.Stop()
	}
	if entry.stop != nil {
		select {
		case <-entry.stop:
		default:
			close(entry.stop)
		}
	}
}
