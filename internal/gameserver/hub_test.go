package gameserver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	gamev1 "github.com/cory-johannsen/connectfour/internal/gameserver/gamev1"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	return NewHub(newTestCoordinator(t), 16, zaptest.NewLogger(t))
}

// next reads one event from ob or fails after a second.
func next(t *testing.T, ob *Outbox) *gamev1.ServerEvent {
	t.Helper()
	select {
	case ev, ok := <-ob.Events():
		require.True(t, ok, "outbox closed")
		return ev
	case <-time.After(time.Second):
		t.Fatalf("no event for %s", ob.Player())
		return nil
	}
}

func TestOutbox_PushAndClose(t *testing.T) {
	ob := NewOutbox("p1", 1)
	require.NoError(t, ob.Push(&gamev1.ServerEvent{Type: gamev1.EventGameQuit}))
	assert.Error(t, ob.Push(&gamev1.ServerEvent{Type: gamev1.EventGameQuit}), "buffer full")

	ob.Close()
	ob.Close()
	assert.True(t, ob.Closed())
	assert.Error(t, ob.Push(&gamev1.ServerEvent{Type: gamev1.EventGameQuit}))

	ev, ok := <-ob.Events()
	require.True(t, ok)
	assert.Equal(t, gamev1.EventGameQuit, ev.Type)
	_, ok = <-ob.Events()
	assert.False(t, ok)
}

func TestOutbox_DefaultBuffer(t *testing.T) {
	ob := NewOutbox("p1", 0)
	assert.Equal(t, DefaultOutboxSize, cap(ob.events))
}

func TestHub_ConnectAnnouncesPlayerID(t *testing.T) {
	h := newTestHub(t)
	a := h.Connect()
	b := h.Connect()
	assert.NotEqual(t, a.Player(), b.Player())
	assert.Equal(t, 2, h.Connected())

	ev := next(t, a)
	assert.Equal(t, gamev1.EventConnected, ev.Type)
	assert.Equal(t, a.Player(), ev.PlayerID)
}

func TestHub_RoutesToEveryRecipient(t *testing.T) {
	h := newTestHub(t)
	a, b := h.Connect(), h.Connect()
	next(t, a)
	next(t, b)

	h.Dispatch(a.Player(), &gamev1.ClientMessage{Type: gamev1.IntentCreateGame})
	assert.Equal(t, gamev1.EventWaitingForOpponent, next(t, a).Type)

	h.Dispatch(b.Player(), &gamev1.ClientMessage{Type: gamev1.IntentCreateGame})
	assert.Equal(t, gamev1.EventGameCreated, next(t, b).Type)
	assert.Equal(t, gamev1.EventGameStarted, next(t, b).Type)
	started := next(t, a)
	assert.Equal(t, gamev1.EventGameStarted, started.Type)
	assert.Equal(t, []string{a.Player(), b.Player()}, started.Session.Players)
}

func TestHub_RejectsClientDisconnectIntent(t *testing.T) {
	h := newTestHub(t)
	a := h.Connect()
	next(t, a)

	h.Dispatch(a.Player(), &gamev1.ClientMessage{RequestID: "r1", Type: gamev1.IntentDisconnect})
	ev := next(t, a)
	assert.Equal(t, gamev1.EventError, ev.Type)
	assert.Equal(t, "r1", ev.RequestID)
	assert.Equal(t, ErrReservedIntent.Error(), ev.Message)
	assert.Equal(t, 1, h.Connected())
}

func TestHub_DisconnectNotifiesOpponent(t *testing.T) {
	h := newTestHub(t)
	a, b := h.Connect(), h.Connect()
	next(t, a)
	next(t, b)
	h.Dispatch(a.Player(), &gamev1.ClientMessage{Type: gamev1.IntentCreateGame})
	h.Dispatch(b.Player(), &gamev1.ClientMessage{Type: gamev1.IntentCreateGame})
	next(t, a)
	next(t, a)
	next(t, b)
	next(t, b)

	h.Disconnect(a.Player())
	h.Disconnect(a.Player())
	assert.True(t, a.Closed())
	assert.Equal(t, 1, h.Connected())

	ev := next(t, b)
	assert.Equal(t, gamev1.EventPlayerDisconnected, ev.Type)
	assert.Equal(t, []string{b.Player()}, ev.RemainingPlayers)
}

func TestStatsReporter_Report(t *testing.T) {
	h := newTestHub(t)
	a := h.Connect()
	h.Dispatch(a.Player(), &gamev1.ClientMessage{Type: gamev1.IntentCreateGame})

	r := NewStatsReporter(time.Hour, h, zaptest.NewLogger(t))
	st := r.Report()
	assert.Equal(t, Stats{Forming: 1, Queued: 1, PendingCreations: 1}, st)
}

func TestStatsReporter_RunStopsOnCancel(t *testing.T) {
	r := NewStatsReporter(5*time.Millisecond, newTestHub(t), zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNewStatsReporter_PanicsOnZeroInterval(t *testing.T) {
	assert.Panics(t, func() { NewStatsReporter(0, newTestHub(t), zaptest.NewLogger(t)) })
}
