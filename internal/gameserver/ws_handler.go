package gameserver

import (
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	gamev1 "github.com/cory-johannsen/connectfour/internal/gameserver/gamev1"
)

// WebSocketConfig tunes the browser endpoint.
type WebSocketConfig struct {
	// AllowedOrigins lists the Origin headers accepted on upgrade. Empty or
	// containing "*" accepts any origin.
	AllowedOrigins []string
	// ReadLimit caps the size of one inbound message in bytes.
	ReadLimit int64
	// PongWait is how long the peer may stay silent before the connection is dropped.
	PongWait time.Duration
	// WriteWait bounds a single frame write.
	WriteWait time.Duration
}

// DefaultWebSocketConfig returns the settings used when none are configured.
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		ReadLimit: 4096,
		PongWait:  60 * time.Second,
		WriteWait: 10 * time.Second,
	}
}

// WebSocketHandler serves one player per WebSocket connection. Each inbound
// text frame is one JSON ClientMessage; each outbound frame is one ServerEvent.
type WebSocketHandler struct {
	hub      *Hub
	cfg      WebSocketConfig
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewWebSocketHandler creates a handler bridging WebSocket clients to hub.
//
// Precondition: hub and logger must be non-nil.
func NewWebSocketHandler(hub *Hub, cfg WebSocketConfig, logger *zap.Logger) *WebSocketHandler {
	def := DefaultWebSocketConfig()
	if cfg.ReadLimit <= 0 {
		cfg.ReadLimit = def.ReadLimit
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = def.PongWait
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = def.WriteWait
	}
	h := &WebSocketHandler{hub: hub, cfg: cfg, logger: logger}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	if len(h.cfg.AllowedOrigins) == 0 || slices.Contains(h.cfg.AllowedOrigins, "*") {
		return true
	}
	return slices.Contains(h.cfg.AllowedOrigins, r.Header.Get("Origin"))
}

// ServeHTTP upgrades the request and runs the connection until the peer leaves.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}

	ob := h.hub.Connect()
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writePump(conn, ob)
	}()

	h.readPump(conn, ob.Player())
	h.hub.Disconnect(ob.Player())
	<-done
}

// pingPeriod must be less than pongWait.
func (h *WebSocketHandler) pingPeriod() time.Duration {
	return h.cfg.PongWait * 9 / 10
}

func (h *WebSocketHandler) readPump(conn *websocket.Conn, player string) {
	defer conn.Close()

	conn.SetReadLimit(h.cfg.ReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket read failed", zap.String("player", player), zap.Error(err))
			}
			return
		}
		var msg gamev1.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.hub.Deliver([]Envelope{to(player, &gamev1.ServerEvent{
				Type:    gamev1.EventError,
				Message: "malformed message: " + err.Error(),
			})})
			continue
		}
		h.hub.Dispatch(player, &msg)
	}
}

func (h *WebSocketHandler) writePump(conn *websocket.Conn, ob *Outbox) {
	ticker := time.NewTicker(h.pingPeriod())
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case ev, ok := <-ob.Events():
			_ = conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				h.logger.Debug("websocket write failed", zap.String("player", ob.Player()), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
