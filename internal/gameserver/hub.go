package gameserver

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	gamev1 "github.com/cory-johannsen/connectfour/internal/gameserver/gamev1"
)

// Hub tracks connected players and routes Coordinator notifications to their
// outboxes. Transports register a connection with Connect, feed its intents
// to Dispatch, and call Disconnect exactly once when it goes away.
//
// Dispatch and delivery run under one lock, so every player observes
// notifications in the order the Coordinator committed the intents that
// produced them.
type Hub struct {
	coord      *Coordinator
	bufferSize int
	logger     *zap.Logger

	dispatchMu sync.Mutex
	mu         sync.RWMutex
	outboxes   map[string]*Outbox
}

// NewHub creates a Hub in front of coord.
//
// Precondition: coord and logger must be non-nil.
func NewHub(coord *Coordinator, bufferSize int, logger *zap.Logger) *Hub {
	return &Hub{
		coord:      coord,
		bufferSize: bufferSize,
		logger:     logger,
		outboxes:   make(map[string]*Outbox),
	}
}

// Connect assigns a fresh player id and registers its outbox.
//
// Postcondition: The outbox already holds the connected notification
// carrying the assigned id.
func (h *Hub) Connect() *Outbox {
	h.mu.Lock()
	player := uuid.NewString()
	for _, taken := h.outboxes[player]; taken; _, taken = h.outboxes[player] {
		player = uuid.NewString()
	}
	ob := NewOutbox(player, h.bufferSize)
	h.outboxes[player] = ob
	h.mu.Unlock()

	_ = ob.Push(&gamev1.ServerEvent{Type: gamev1.EventConnected, PlayerID: player})
	h.logger.Info("player connected", zap.String("player", player))
	return ob
}

// Dispatch applies msg on behalf of player and delivers the results.
// The disconnect intent is reserved for transports and is rejected here.
func (h *Hub) Dispatch(player string, msg *gamev1.ClientMessage) {
	if msg.Type == gamev1.IntentDisconnect {
		h.Deliver([]Envelope{to(player, &gamev1.ServerEvent{
			RequestID: msg.RequestID,
			Type:      gamev1.EventError,
			Message:   ErrReservedIntent.Error(),
		})})
		return
	}

	h.dispatchMu.Lock()
	defer h.dispatchMu.Unlock()
	h.Deliver(h.coord.Handle(player, msg))
}

// Disconnect closes player's outbox and runs the Coordinator's disconnect
// cleanup, delivering the resulting notifications to the players left behind.
func (h *Hub) Disconnect(player string) {
	h.mu.Lock()
	ob, ok := h.outboxes[player]
	delete(h.outboxes, player)
	h.mu.Unlock()
	if !ok {
		return
	}
	ob.Close()

	h.dispatchMu.Lock()
	defer h.dispatchMu.Unlock()
	h.Deliver(h.coord.Disconnect(player))
	h.logger.Info("player disconnected", zap.String("player", player))
}

// Deliver pushes each envelope to every connected recipient. Recipients that
// are not connected are skipped.
func (h *Hub) Deliver(envs []Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, env := range envs {
		for _, player := range env.To {
			ob, ok := h.outboxes[player]
			if !ok {
				continue
			}
			if err := ob.Push(env.Event); err != nil {
				h.logger.Warn("dropping notification",
					zap.String("player", player),
					zap.String("event", env.Event.Type),
					zap.Error(err),
				)
			}
		}
	}
}

// Connected returns the number of registered connections.
func (h *Hub) Connected() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.outboxes)
}

// Coordinator returns the Coordinator behind the Hub.
func (h *Hub) Coordinator() *Coordinator {
	return h.coord
}
