package types

import (
	"encoding/json"
	"time"
)

// Inbound frame discriminants.
const (
	MessageTypeInit  = "init"
	MessageTypePing  = "ping"
	MessageTypeTest  = "test"
	MessageTypeCapsy = "capsy"
)

// Outbound frame discriminants.
const (
	MessageTypeInitSuccess  = "init-success"
	MessageTypeNotUserID    = "not-user-id"
	MessageTypePong         = "pong"
	MessageTypeNotification = "notification"
	MessageTypeError        = "error"
	MessageTypeErrorCapsy   = "error-capsy"
)

// Test kinds accepted in the `testing` field of a test frame.
const (
	TestKindNotification = "notification"
	TestKindPing         = "ping"
	TestKindWaitForCapsy = "waitForCapsy"
)

// Timer kinds accepted in test frame data entries.
const (
	TimerKindInterval = "interval"
	TimerKindTimeout  = "timeout"
)

// TestTimer is one entry of a test frame's data map. Timeout is in
// milliseconds, matching the mobile client's scheduler units.
type TestTimer struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Timeout int64  `json:"timeout"`
}

// Delay converts the entry's millisecond timeout to a duration.
func (t TestTimer) Delay() time.Duration {
	return time.Duration(t.Timeout) * time.Millisecond
}

// InboundFrame is the union of all frame shapes a connection may send.
// Type selects which of the remaining fields are meaningful; Validate
// enforces the per-type shape.
type InboundFrame struct {
	Type     string               `json:"type"`
	UserID   string               `json:"userId,omitempty"`
	Testing  string               `json:"testing,omitempty"`
	Data     map[string]TestTimer `json:"data,omitempty"`
	Settings json.RawMessage      `json:"settings,omitempty"`
}

// OutboundFrame is the union of all frame shapes the broker emits.
// Timestamp is an ISO-8601 string generated at send time.
type OutboundFrame struct {
	Type         string          `json:"type"`
	Message      string          `json:"message,omitempty"`
	Notification *Notification   `json:"notification,omitempty"`
	Settings     json.RawMessage `json:"settings,omitempty"`
	Timestamp    string          `json:"timestamp"`
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// NewInitSuccess builds the reply to a successfully bound init frame.
func NewInitSuccess(userID string) *OutboundFrame {
	return &OutboundFrame{
		Type:      MessageTypeInitSuccess,
		Message:   "connected as " + userID,
		Timestamp: now(),
	}
}

// NewNotUserID builds the reply to an init frame naming an unknown account.
func NewNotUserID() *OutboundFrame {
	return &OutboundFrame{
		Type:      MessageTypeNotUserID,
		Message:   "unknown or missing userId",
		Timestamp: now(),
	}
}

// NewPong builds the keepalive reply to a ping frame.
func NewPong() *OutboundFrame {
	return &OutboundFrame{
		Type:      MessageTypePong,
		Timestamp: now(),
	}
}

// NewNotification wraps a notification payload for delivery.
func NewNotification(n *Notification) *OutboundFrame {
	return &OutboundFrame{
		Type:         MessageTypeNotification,
		Notification: n,
		Timestamp:    now(),
	}
}

// NewCapsy builds an outbound capsy frame. settings carries the relayed
// device payload unmodified and may be nil for status-only frames.
func NewCapsy(message string, settings json.RawMessage) *OutboundFrame {
	return &OutboundFrame{
		Type:      MessageTypeCapsy,
		Message:   message,
		Settings:  settings,
		Timestamp: now(),
	}
}

// NewError builds a generic protocol error frame.
func NewError(message string) *OutboundFrame {
	return &OutboundFrame{
		Type:      MessageTypeError,
		Message:   message,
		Timestamp: now(),
	}
}

// NewErrorCapsy builds a device-fault frame, distinct from a generic error
// so the client can present device-specific recovery UI.
func NewErrorCapsy(message string) *OutboundFrame {
	return &OutboundFrame{
		Type:      MessageTypeErrorCapsy,
		Message:   message,
		Timestamp: now(),
	}
}
