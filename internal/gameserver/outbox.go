package gameserver

import (
	"fmt"
	"sync"

	gamev1 "github.com/cory-johannsen/connectfour/internal/gameserver/gamev1"
)

// DefaultOutboxSize is the notification buffer used when none is configured.
const DefaultOutboxSize = 64

// Outbox buffers notifications for one connected player, bridging the Hub to
// whichever transport goroutine writes them out.
type Outbox struct {
	player string
	events chan *gamev1.ServerEvent
	mu     sync.Mutex
	closed bool
}

// NewOutbox creates an Outbox for player.
//
// Precondition: player must be non-empty.
// Postcondition: Returns an Outbox with an open events channel.
func NewOutbox(player string, bufferSize int) *Outbox {
	if bufferSize <= 0 {
		bufferSize = DefaultOutboxSize
	}
	return &Outbox{
		player: player,
		events: make(chan *gamev1.ServerEvent, bufferSize),
	}
}

// Player returns the connection's player id.
func (o *Outbox) Player() string {
	return o.player
}

// Push enqueues ev without blocking.
//
// Postcondition: ev is buffered, or an error is returned if the outbox is
// closed or its buffer is full.
func (o *Outbox) Push(ev *gamev1.ServerEvent) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return fmt.Errorf("outbox %s is closed", o.player)
	}
	select {
	case o.events <- ev:
		return nil
	default:
		return fmt.Errorf("outbox %s event buffer full", o.player)
	}
}

// Events returns the read-only events channel. It is closed by Close.
func (o *Outbox) Events() <-chan *gamev1.ServerEvent {
	return o.events
}

// Close closes the events channel. Further Push calls return an error.
func (o *Outbox) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.closed {
		o.closed = true
		close(o.events)
	}
}

// Closed reports whether Close has been called.
func (o *Outbox) Closed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}
