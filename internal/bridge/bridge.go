package bridge

import (
	"encoding/json"
	"errors"
	"log/slog"

	"capsyhub/internal/session"
	"capsyhub/pkg/types"
)

// ErrNoDeviceAttached rejects a relay for an account with an empty device
// slot. The router answers it on the offending connection as an error frame.
var ErrNoDeviceAttached = errors.New("no capsy device attached for this account")

// Bridge relays device-originated status to the mobile connection and
// surfaces device-side faults distinctly from mobile-side errors.
type Bridge struct{}

// NewBridge creates a device bridge.
func NewBridge() *Bridge {
	return &Bridge{}
}

// Relay forwards a capsy settings payload from the device connection to the
// mobile connection, unmodified. The broker does not interpret
// device-specific settings. A missing device slot rejects the relay; a
// missing mobile slot drops it (best effort while connected).
func (b *Bridge) Relay(sess *session.Session, settings json.RawMessage) error {
	if sess.DeviceConn() == nil {
		return ErrNoDeviceAttached
	}

	mobile := sess.MobileConn()
	if mobile == nil {
		slog.Debug("capsy relay dropped: no mobile connection", "userId", sess.UserID())
		return nil
	}

	if err := mobile.WriteJSON(types.NewCapsy("capsy status", settings)); err != nil {
		slog.Warn("capsy relay failed", "userId", sess.UserID(), "error", err)
	}
	return nil
}

// ReportDeviceError surfaces a device-side fault to the mobile connection as
// an error-capsy frame, so the client can present device-specific recovery
// UI instead of a generic error.
func (b *Bridge) ReportDeviceError(sess *session.Session, message string) {
	mobile := sess.MobileConn()
	if mobile == nil {
		slog.Debug("device error dropped: no mobile connection",
			"userId", sess.UserID(), "message", message)
		return
	}

	if err := mobile.WriteJSON(types.NewErrorCapsy(message)); err != nil {
		slog.Warn("device error delivery failed", "userId", sess.UserID(), "error", err)
	}
}

// ReportDeviceReady tells the mobile connection the device slot is attached,
// used by the waitForCapsy simulated test path.
func (b *Bridge) ReportDeviceReady(sess *session.Session) {
	mobile := sess.MobileConn()
	if mobile == nil {
		return
	}

	if err := mobile.WriteJSON(types.NewCapsy("capsy connected", nil)); err != nil {
		slog.Warn("device ready delivery failed", "userId", sess.UserID(), "error", err)
	}
}
