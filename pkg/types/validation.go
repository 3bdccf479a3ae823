package types

import (
	"encoding/json"
	"regexp"
)

// Compiled once; validation runs on every inbound frame.
var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// IsValidUserID checks the account identifier format.
func IsValidUserID(userID string) bool {
	if len(userID) < 1 || len(userID) > 50 {
		return false
	}
	return idRegex.MatchString(userID)
}

// IsValidTimerID checks a caller-supplied timer identifier. Same character
// set as user ids; uniqueness is scoped to the Session, not validated here.
func IsValidTimerID(id string) bool {
	if len(id) < 1 || len(id) > 50 {
		return false
	}
	return idRegex.MatchString(id)
}

// IsValidTestKind checks the `testing` field of a test frame.
func IsValidTestKind(kind string) bool {
	switch kind {
	case TestKindNotification, TestKindPing, TestKindWaitForCapsy:
		return true
	default:
		return false
	}
}

// IsValidTimerKind checks the `type` field of a test timer entry.
func IsValidTimerKind(kind string) bool {
	return kind == TimerKindInterval || kind == TimerKindTimeout
}

// ParseInbound decodes and shape-validates a raw frame. A failure here is a
// ProtocolViolation: the caller answers with an error frame and keeps the
// connection open.
func ParseInbound(data []byte) (*InboundFrame, error) {
	var frame InboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, ErrMalformedFrame
	}
	if err := frame.Validate(); err != nil {
		return nil, err
	}
	return &frame, nil
}

// Validate enforces the per-type frame shape. It does not check routing
// preconditions (connection state, connection kind); those belong to the
// protocol router.
func (f *InboundFrame) Validate() error {
	switch f.Type {
	case MessageTypeInit:
		// userId may be absent; an unresolvable id is answered with
		// not-user-id rather than rejected as malformed.
		if f.UserID != "" && !IsValidUserID(f.UserID) {
			return ErrInvalidUserID
		}
		return nil

	case MessageTypePing:
		return nil

	case MessageTypeTest:
		if !IsValidTestKind(f.Testing) {
			return ErrInvalidTestKind
		}
		if len(f.Data) == 0 {
			return ErrEmptyTestData
		}
		for key, entry := range f.Data {
			if !IsValidTimerID(entry.ID) {
				return ErrInvalidTimerID
			}
			if entry.ID != key {
				return ErrTimerIDMismatch
			}
			if !IsValidTimerKind(entry.Type) {
				return ErrInvalidTimerKind
			}
			if entry.Timeout <= 0 {
				return ErrInvalidTimeout
			}
		}
		return nil

	case MessageTypeCapsy:
		if len(f.Settings) == 0 {
			return ErrMissingSettings
		}
		return nil

	default:
		return ErrInvalidFrameType
	}
}
