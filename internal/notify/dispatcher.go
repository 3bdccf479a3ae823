package notify

import (
	"log/slog"

	"capsyhub/internal/session"
	"capsyhub/pkg/interfaces"
	"capsyhub/pkg/types"
)

// Dispatcher builds localized notification payloads from a reason code and
// the session's account locale, and pushes them to the mobile connection
// when one is attached. This is the sole path by which scheduled timer
// callbacks and device-originated events become user-visible.
type Dispatcher struct {
	catalog interfaces.ContentCatalog
}

// NewDispatcher creates a notification dispatcher over a content catalog.
func NewDispatcher(catalog interfaces.ContentCatalog) *Dispatcher {
	return &Dispatcher{catalog: catalog}
}

// Notify resolves reason against the catalog in the account's locale and
// sends a notification frame to the session's mobile connection.
//
// Delivery is best-effort-while-connected: an absent mobile slot or a
// disabled push preference drops the notification silently, with no queueing
// and no retry. An unknown reason is a programming error and is returned.
func (d *Dispatcher) Notify(sess *session.Session, reason string, extraData map[string]string) error {
	account := sess.Account()

	content, err := d.catalog.Localize(reason, account.Locale)
	if err != nil {
		return err
	}

	screen, ok := types.ScreenForReason(reason)
	if !ok {
		return interfaces.ErrUnknownReason
	}

	notification := &types.Notification{
		Reason:       reason,
		Title:        content.Title,
		Body:         content.Body,
		TargetScreen: screen,
		Data:         extraData,
	}

	if !account.PushEnabled {
		slog.Debug("notification dropped: push disabled",
			"userId", sess.UserID(), "reason", reason)
		return nil
	}

	conn := sess.MobileConn()
	if conn == nil {
		slog.Debug("notification dropped: no mobile connection",
			"userId", sess.UserID(), "reason", reason)
		return nil
	}

	if err := conn.WriteJSON(types.NewNotification(notification)); err != nil {
		// Transport is going away; the normal detach path handles cleanup.
		slog.Warn("notification delivery failed",
			"userId", sess.UserID(), "reason", reason, "error", err)
	}
	return nil
}
