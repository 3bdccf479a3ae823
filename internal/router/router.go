package router

import (
	"context"
	"log/slog"
	"time"

	"capsyhub/internal/bridge"
	"capsyhub/internal/notify"
	"capsyhub/internal/session"
	"capsyhub/pkg/interfaces"
	"capsyhub/pkg/types"
)

// lookupTimeout bounds directory lookups during init handling.
const lookupTimeout = 5 * time.Second

// Router parses inbound frames from either connection kind, validates them
// against the expected shapes, and dispatches to the session registry, the
// timer table, the notification dispatcher, or the device bridge.
//
// Each connection carries its own Unbound/Bound state (the bound account id
// lives on the connection handle), independent of session state. No error
// here is fatal: a misbehaving connection is answered with an error frame
// and stays open.
type Router struct {
	registry   *session.Registry
	directory  interfaces.AccountDirectory
	dispatcher *notify.Dispatcher
	bridge     *bridge.Bridge
	limiter    *limiter
}

// NewRouter creates a protocol router over its collaborators.
func NewRouter(registry *session.Registry, directory interfaces.AccountDirectory,
	dispatcher *notify.Dispatcher, deviceBridge *bridge.Bridge) *Router {
	return &Router{
		registry:   registry,
		directory:  directory,
		dispatcher: dispatcher,
		bridge:     deviceBridge,
		limiter:    newLimiter(),
	}
}

// HandleFrame processes one raw inbound frame from conn.
func (r *Router) HandleFrame(conn interfaces.Connection, raw []byte) {
	if !r.limiter.allow(conn.ID()) {
		r.reply(conn, types.NewError(ErrRateLimitExceeded.Error()))
		return
	}

	frame, err := types.ParseInbound(raw)
	if err != nil {
		slog.Debug("frame rejected", "connId", conn.ID(), "error", err)
		r.reply(conn, types.NewError(err.Error()))
		r.surfaceDeviceFault(conn, "malformed device frame: "+err.Error())
		return
	}

	switch frame.Type {
	case types.MessageTypeInit:
		r.handleInit(conn, frame)
	case types.MessageTypePing:
		r.handlePing(conn)
	case types.MessageTypeTest:
		r.handleTest(conn, frame)
	case types.MessageTypeCapsy:
		r.handleCapsy(conn, frame)
	}
}

// HandleClose runs the detach path after the transport closes. A close in
// the Unbound state is a no-op.
func (r *Router) HandleClose(conn interfaces.Connection) {
	r.limiter.release(conn.ID())

	userID := conn.UserID()
	if userID == "" {
		return
	}
	r.registry.Detach(userID, conn.Kind(), conn)
}

// handleInit resolves the account and attaches the connection into its
// session slot. An unresolvable or absent userId is answered with
// not-user-id and the connection stays Unbound, permitting a corrected
// retry. A re-init replaces whatever handle currently occupies the slot.
func (r *Router) handleInit(conn interfaces.Connection, frame *types.InboundFrame) {
	if frame.UserID == "" {
		r.reply(conn, types.NewNotUserID())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()

	account, err := r.directory.Lookup(ctx, frame.UserID)
	if err == interfaces.ErrAccountNotFound {
		r.reply(conn, types.NewNotUserID())
		return
	}
	if err != nil {
		slog.Error("directory lookup failed", "userId", frame.UserID, "error", err)
		r.reply(conn, types.NewError("user directory unavailable"))
		return
	}

	// A bound connection re-initing under a different account leaves its
	// previous session first.
	if prev := conn.UserID(); prev != "" && prev != frame.UserID {
		r.registry.Detach(prev, conn.Kind(), conn)
	}

	r.registry.GetOrCreate(frame.UserID, account)
	if err := r.registry.Attach(frame.UserID, conn.Kind(), conn); err != nil {
		slog.Error("attach failed", "userId", frame.UserID, "kind", conn.Kind(), "error", err)
		r.reply(conn, types.NewError("failed to attach connection"))
		return
	}

	conn.Bind(frame.UserID)
	r.reply(conn, types.NewInitSuccess(frame.UserID))
}

// handlePing answers the keepalive immediately, with no session mutation.
func (r *Router) handlePing(conn interfaces.Connection) {
	if conn.UserID() == "" {
		r.reply(conn, types.NewError(ErrNotBound.Error()))
		return
	}
	r.reply(conn, types.NewPong())
}

// handleTest schedules one timer per data entry. The frame is all-or-nothing
// against the session's timer bound: a frame that would exceed it is
// answered with an error and schedules nothing.
func (r *Router) handleTest(conn interfaces.Connection, frame *types.InboundFrame) {
	sess, ok := r.boundSession(conn)
	if !ok {
		return
	}

	if sess.TimerCount()+len(frame.Data) > session.MaxTimers {
		r.reply(conn, types.NewError(ErrTooManyTimers.Error()))
		return
	}

	for _, entry := range frame.Data {
		onFire := r.testFireFunc(sess, frame.Testing, entry.ID)
		if err := sess.Schedule(entry.ID, entry.Type, entry.Delay(), onFire); err != nil {
			r.reply(conn, types.NewError(err.Error()))
			return
		}
	}
	slog.Info("test timers scheduled",
		"userId", sess.UserID(), "testing", frame.Testing, "count", len(frame.Data))
}

// testFireFunc builds the timer callback for one test entry. The callback
// runs on the session's ordering domain once the timer table has verified
// the entry is still live.
func (r *Router) testFireFunc(sess *session.Session, testing, timerID string) func() {
	switch testing {
	case types.TestKindNotification:
		return func() {
			data := map[string]string{"testId": timerID}
			if err := r.dispatcher.Notify(sess, types.ReasonTestNotification, data); err != nil {
				slog.Error("test notification dispatch failed",
					"userId", sess.UserID(), "timerId", timerID, "error", err)
			}
		}

	case types.TestKindPing:
		return func() {
			if mobile := sess.MobileConn(); mobile != nil {
				_ = mobile.WriteJSON(types.NewPong())
			}
		}

	case types.TestKindWaitForCapsy:
		return func() {
			if sess.DeviceConn() != nil {
				r.bridge.ReportDeviceReady(sess)
				return
			}
			r.bridge.ReportDeviceError(sess, "capsy not connected")
		}

	default:
		// Unreachable: the testing kind was shape-validated.
		return func() {}
	}
}

// handleCapsy delegates a device status frame to the bridge. Only meaningful
// on a device-kind connection; a mobile-kind sender is rejected and nothing
// is relayed.
func (r *Router) handleCapsy(conn interfaces.Connection, frame *types.InboundFrame) {
	sess, ok := r.boundSession(conn)
	if !ok {
		return
	}

	if conn.Kind() != types.ConnKindDevice {
		r.reply(conn, types.NewError(ErrCapsyFromMobile.Error()))
		return
	}

	if err := r.bridge.Relay(sess, frame.Settings); err != nil {
		r.reply(conn, types.NewError(err.Error()))
	}
}

// boundSession resolves the sender's session, answering the appropriate
// error frame when the connection is Unbound or its session is gone.
func (r *Router) boundSession(conn interfaces.Connection) (*session.Session, bool) {
	userID := conn.UserID()
	if userID == "" {
		r.reply(conn, types.NewError(ErrNotBound.Error()))
		return nil, false
	}

	sess, ok := r.registry.Get(userID)
	if !ok {
		r.reply(conn, types.NewError(session.ErrSessionNotFound.Error()))
		return nil, false
	}
	return sess, true
}

// surfaceDeviceFault reports a device-origin protocol failure to the mobile
// peer as error-capsy, distinct from the generic error sent to the device.
func (r *Router) surfaceDeviceFault(conn interfaces.Connection, message string) {
	if conn.Kind() != types.ConnKindDevice || conn.UserID() == "" {
		return
	}
	if sess, ok := r.registry.Get(conn.UserID()); ok {
		r.bridge.ReportDeviceError(sess, message)
	}
}

func (r *Router) reply(conn interfaces.Connection, frame *types.OutboundFrame) {
	if err := conn.WriteJSON(frame); err != nil {
		slog.Debug("reply failed", "connId", conn.ID(), "type", frame.Type, "error", err)
	}
}
