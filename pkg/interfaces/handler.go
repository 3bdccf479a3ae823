package interfaces

// FrameHandler consumes inbound frames and transport-close events for a
// connection. The WebSocket layer feeds it; the protocol router implements
// it. Keeping the dependency here avoids an import cycle between the two.
type FrameHandler interface {
	// HandleFrame processes one raw inbound frame. Errors are answered on
	// the connection itself, never returned; a bad frame must not tear the
	// connection down.
	HandleFrame(conn Connection, raw []byte)

	// HandleClose runs the detach path after the transport closes. Closing
	// an Unbound connection is a no-op.
	HandleClose(conn Connection)
}
