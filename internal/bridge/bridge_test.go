package bridge

import (
	"encoding/json"
	"sync"
	"testing"

	"capsyhub/internal/session"
	"capsyhub/pkg/types"
)

type mockConn struct {
	id   string
	kind string

	mu     sync.Mutex
	userID string
	frames []*types.OutboundFrame
}

func (c *mockConn) ID() string   { return c.id }
func (c *mockConn) Kind() string { return c.kind }
func (c *mockConn) Close() error { return nil }

func (c *mockConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if frame, ok := v.(*types.OutboundFrame); ok {
		c.frames = append(c.frames, frame)
	}
	return nil
}

func (c *mockConn) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

func (c *mockConn) Bind(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = userID
}

func (c *mockConn) lastFrame() *types.OutboundFrame {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.frames) == 0 {
		return nil
	}
	return c.frames[len(c.frames)-1]
}

func testSession(t *testing.T, mobile, device *mockConn) *session.Session {
	t.Helper()
	registry := session.NewRegistry()
	account := &types.Account{UserID: "u1", Role: "patient", Locale: "en", PushEnabled: true}
	sess := registry.GetOrCreate("u1", account)
	if mobile != nil {
		if err := registry.Attach("u1", types.ConnKindMobile, mobile); err != nil {
			t.Fatalf("mobile attach failed: %v", err)
		}
	}
	if device != nil {
		if err := registry.Attach("u1", types.ConnKindDevice, device); err != nil {
			t.Fatalf("device attach failed: %v", err)
		}
	}
	return sess
}

func TestRelay_ForwardsPayloadUnmodified(t *testing.T) {
	mobile := &mockConn{id: "m1", kind: types.ConnKindMobile}
	device := &mockConn{id: "d1", kind: types.ConnKindDevice}
	sess := testSession(t, mobile, device)

	payload := json.RawMessage(`{"dose":3,"slot":"B"}`)
	if err := NewBridge().Relay(sess, payload); err != nil {
		t.Fatalf("relay failed: %v", err)
	}

	frame := mobile.lastFrame()
	if frame == nil || frame.Type != types.MessageTypeCapsy {
		t.Fatalf("expected capsy frame, got %+v", frame)
	}
	if string(frame.Settings) != string(payload) {
		t.Errorf("payload modified in relay: %s", frame.Settings)
	}
}

func TestRelay_NoDeviceAttached(t *testing.T) {
	mobile := &mockConn{id: "m1", kind: types.ConnKindMobile}
	sess := testSession(t, mobile, nil)

	if err := NewBridge().Relay(sess, json.RawMessage(`{}`)); err != ErrNoDeviceAttached {
		t.Errorf("expected ErrNoDeviceAttached, got %v", err)
	}
	if mobile.lastFrame() != nil {
		t.Error("nothing should reach the mobile connection")
	}
}

func TestRelay_NoMobileAttachedDrops(t *testing.T) {
	device := &mockConn{id: "d1", kind: types.ConnKindDevice}
	sess := testSession(t, nil, device)

	// Best effort while connected: an absent mobile peer is not an error.
	if err := NewBridge().Relay(sess, json.RawMessage(`{}`)); err != nil {
		t.Errorf("relay without mobile peer must not error: %v", err)
	}
}

func TestReportDeviceError_SendsErrorCapsy(t *testing.T) {
	mobile := &mockConn{id: "m1", kind: types.ConnKindMobile}
	sess := testSession(t, mobile, nil)

	NewBridge().ReportDeviceError(sess, "dispense jam")

	frame := mobile.lastFrame()
	if frame == nil || frame.Type != types.MessageTypeErrorCapsy {
		t.Fatalf("expected error-capsy frame, got %+v", frame)
	}
	if frame.Message != "dispense jam" {
		t.Errorf("unexpected message %q", frame.Message)
	}
}

func TestReportDeviceReady(t *testing.T) {
	mobile := &mockConn{id: "m1", kind: types.ConnKindMobile}
	device := &mockConn{id: "d1", kind: types.ConnKindDevice}
	sess := testSession(t, mobile, device)

	NewBridge().ReportDeviceReady(sess)

	frame := mobile.lastFrame()
	if frame == nil || frame.Type != types.MessageTypeCapsy {
		t.Fatalf("expected capsy frame, got %+v", frame)
	}
}
