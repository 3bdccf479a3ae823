package types

import "encoding/json"

// Connection kinds. Every broker connection is exactly one of these,
// fixed by the endpoint it arrived on.
const (
	ConnKindMobile = "mobile"
	ConnKindDevice = "device"
)

// Account is the broker's read-only view of a caregiver/patient identity.
// It is owned by the user directory; each Session caches a copy, refreshed
// on session creation.
type Account struct {
	UserID      string `json:"userId" db:"user_id"`
	Role        string `json:"role" db:"role"`
	Locale      string `json:"locale" db:"locale"`
	PushEnabled bool   `json:"pushNotificationsEnabled" db:"push_enabled"`
}

// Notification reason codes. Each reason maps to a localized catalog entry
// and a fixed target screen.
const (
	ReasonMedicationReminder = "medicationReminder"
	ReasonRefillReminder     = "refillReminder"
	ReasonTestNotification   = "testNotification"
	ReasonDeviceOffline      = "deviceOffline"
)

// Target screens the mobile client navigates to when a notification is opened.
const (
	ScreenMedication = "medication"
	ScreenHome       = "home"
	ScreenDevice     = "device"
)

// reasonScreens is the fixed reason -> screen mapping.
var reasonScreens = map[string]string{
	ReasonMedicationReminder: ScreenMedication,
	ReasonRefillReminder:     ScreenMedication,
	ReasonTestNotification:   ScreenHome,
	ReasonDeviceOffline:      ScreenDevice,
}

// ScreenForReason returns the target screen for a reason code.
func ScreenForReason(reason string) (string, bool) {
	screen, ok := reasonScreens[reason]
	return screen, ok
}

// IsValidReason reports whether reason is a known notification reason.
func IsValidReason(reason string) bool {
	_, ok := reasonScreens[reason]
	return ok
}

// Notification is the payload pushed to the mobile connection. It is
// ephemeral: built per dispatch from the catalog plus the account locale,
// never persisted.
type Notification struct {
	Reason       string            `json:"reason"`
	Title        string            `json:"title"`
	Body         string            `json:"body"`
	TargetScreen string            `json:"targetScreen"`
	Data         map[string]string `json:"data,omitempty"`

	// Trigger is an optional scheduling descriptor the mobile client uses
	// to schedule the reminder locally. The broker relays it opaquely.
	Trigger json.RawMessage `json:"trigger,omitempty"`
}

// LocalizedContent is a title/body pair resolved from the content catalog.
type LocalizedContent struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}
