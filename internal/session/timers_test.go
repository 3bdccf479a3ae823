package session

import (
	"sync/atomic"
	"testing"
	"time"

	"capsyhub/pkg/types"
)

func newTestSession() *Session {
	return newSession("u1", testAccount("u1"), nil)
}

func TestSchedule_TimeoutFiresOnceAndSelfRemoves(t *testing.T) {
	sess := newTestSession()

	var fires int32
	if err := sess.Schedule("t1", types.TimerKindTimeout, 10*time.Millisecond, func() {
		atomic.AddInt32(&fires, 1)
	}); err != nil {
		t.Fatalf("schedule failed: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	if got := atomic.LoadInt32(&fires); got != 1 {
		t.Errorf("expected exactly one fire, got %d", got)
	}
	if sess.TimerCount() != 0 {
		t.Error("timeout entry should self-remove after firing")
	}
}

func TestSchedule_CancelBeforeFire(t *testing.T) {
	sess := newTestSession()

	var fires int32
	if err := sess.Schedule("t1", types.TimerKindTimeout, 100*time.Millisecond, func() {
		atomic.AddInt32(&fires, 1)
	}); err != nil {
		t.Fatalf("schedule failed: %v", err)
	}

	if err := sess.Cancel("t1"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	time.Sleep(200 * time.Millisecond)
	if got := atomic.LoadInt32(&fires); got != 0 {
		t.Errorf("cancelled timer fired %d times", got)
	}
}

func TestSchedule_IntervalFiresUntilCancelAll(t *testing.T) {
	sess := newTestSession()

	var fires int32
	if err := sess.Schedule("t2", types.TimerKindInterval, 50*time.Millisecond, func() {
		atomic.AddInt32(&fires, 1)
	}); err != nil {
		t.Fatalf("schedule failed: %v", err)
	}

	time.Sleep(275 * time.Millisecond)
	before := atomic.LoadInt32(&fires)
	if before < 2 {
		t.Fatalf("interval timer should have fired repeatedly, got %d", before)
	}

	sess.CancelAll()
	if sess.TimerCount() != 0 {
		t.Error("CancelAll should empty the timer table")
	}

	// A fire already dispatched at the instant of cancellation may complete;
	// sample after a settling period and verify no further fires occur.
	time.Sleep(75 * time.Millisecond)
	settled := atomic.LoadInt32(&fires)
	time.Sleep(200 * time.Millisecond)
	if after := atomic.LoadInt32(&fires); after != settled {
		t.Errorf("interval fired after CancelAll: %d -> %d", settled, after)
	}
}

func TestSchedule_RescheduleReplacesPriorEntry(t *testing.T) {
	sess := newTestSession()

	var oldFires, newFires int32
	if err := sess.Schedule("t1", types.TimerKindTimeout, 30*time.Millisecond, func() {
		atomic.AddInt32(&oldFires, 1)
	}); err != nil {
		t.Fatalf("schedule failed: %v", err)
	}
	if err := sess.Schedule("t1", types.TimerKindTimeout, 60*time.Millisecond, func() {
		atomic.AddInt32(&newFires, 1)
	}); err != nil {
		t.Fatalf("reschedule failed: %v", err)
	}

	if sess.TimerCount() != 1 {
		t.Errorf("expected one entry after reschedule, got %d", sess.TimerCount())
	}

	time.Sleep(200 * time.Millisecond)
	if got := atomic.LoadInt32(&oldFires); got != 0 {
		t.Errorf("replaced entry fired %d times", got)
	}
	if got := atomic.LoadInt32(&newFires); got != 1 {
		t.Errorf("expected replacement to fire once, got %d", got)
	}
}

func TestSchedule_TableBound(t *testing.T) {
	sess := newTestSession()

	for i := 0; i < MaxTimers; i++ {
		id := string(rune('a'+i%26)) + string(rune('0'+i/26))
		if err := sess.Schedule(id, types.TimerKindTimeout, time.Hour, func() {}); err != nil {
			t.Fatalf("schedule %d failed: %v", i, err)
		}
	}

	if err := sess.Schedule("overflow", types.TimerKindTimeout, time.Hour, func() {}); err != ErrTimerTableFull {
		t.Errorf("expected ErrTimerTableFull, got %v", err)
	}

	// Re-scheduling an existing id does not count against the bound.
	if err := sess.Schedule("a0", types.TimerKindTimeout, time.Hour, func() {}); err != nil {
		t.Errorf("reschedule within a full table should succeed: %v", err)
	}
}

func TestSchedule_Validation(t *testing.T) {
	sess := newTestSession()

	if err := sess.Schedule("t1", "cron", time.Second, func() {}); err != ErrInvalidTimerKind {
		t.Errorf("expected ErrInvalidTimerKind, got %v", err)
	}
	if err := sess.Cancel("missing"); err != ErrTimerNotFound {
		t.Errorf("expected ErrTimerNotFound, got %v", err)
	}
}
