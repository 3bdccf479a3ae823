package ws

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"capsyhub/internal/config"
	"capsyhub/pkg/interfaces"
	"capsyhub/pkg/types"
)

var upgrader = websocket.Upgrader{
	// Transport authentication is negotiated before the broker takes
	// ownership of the connection; origin policy belongs to that layer.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	HandshakeTimeout: 10 * time.Second,
}

// Handler upgrades incoming requests and pumps frames into the protocol
// router. Connection kind is fixed by the endpoint: the mobile listener
// serves ServeMobile, the device listener ServeDevice.
type Handler struct {
	frames interfaces.FrameHandler
	cfg    *config.WebSocketConfig
}

// NewHandler creates a WebSocket handler feeding frames.
func NewHandler(frames interfaces.FrameHandler, cfg *config.WebSocketConfig) *Handler {
	return &Handler{frames: frames, cfg: cfg}
}

// ServeMobile accepts a patient-facing mobile connection.
func (h *Handler) ServeMobile(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, types.ConnKindMobile)
}

// ServeDevice accepts a dispenser hardware connection.
func (h *Handler) ServeDevice(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, types.ConnKindDevice)
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, kind string) {
	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "kind", kind, "remote", r.RemoteAddr, "error", err)
		return
	}

	conn := NewConnection(wsConn, kind, h.cfg.BufferSize, h.cfg.WriteTimeout)
	slog.Info("connection accepted", "kind", kind, "connId", conn.ID(), "remote", r.RemoteAddr)

	go h.readLoop(conn)
}

// readLoop serves one connection: it suspends waiting for the next inbound
// frame and hands each frame to the router. There is no blocking wait for
// peer availability. Exit runs the normal detach path.
func (h *Handler) readLoop(conn *Connection) {
	defer func() {
		h.frames.HandleClose(conn)
		_ = conn.Close()
		slog.Info("connection closed", "kind", conn.Kind(), "connId", conn.ID())
	}()

	if err := conn.conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout)); err != nil {
		return
	}
	conn.conn.SetPongHandler(func(string) error {
		return conn.conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
	})

	// Transport heartbeat. Protocol-level liveness is the ping/pong frame
	// exchange; this only keeps NATs and dead TCP sessions honest.
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ticker.C:
				deadline := time.Now().Add(h.cfg.WriteTimeout)
				if err := conn.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					return
				}
			case <-conn.ctx.Done():
				return
			}
		}
	}()

	for {
		messageType, data, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				slog.Warn("websocket read error", "connId", conn.ID(), "error", err)
			}
			return
		}

		if messageType == websocket.TextMessage {
			h.frames.HandleFrame(conn, data)
		}
	}
}
