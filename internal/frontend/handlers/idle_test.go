package handlers_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/connectfour/internal/frontend/handlers"
)

func signal(ch chan struct{}) func() {
	return func() {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func TestIdleMonitor_WarnsThenDisconnects(t *testing.T) {
	var lastInput atomic.Int64
	lastInput.Store(time.Now().UnixNano())
	warned := make(chan struct{}, 1)
	disconnected := make(chan struct{}, 1)

	stop := handlers.StartIdleMonitor(handlers.IdleMonitorConfig{
		LastInput:    &lastInput,
		IdleTimeout:  100 * time.Millisecond,
		GracePeriod:  50 * time.Millisecond,
		TickInterval: 10 * time.Millisecond,
		OnWarning:    signal(warned),
		OnDisconnect: signal(disconnected),
	})
	defer stop()

	select {
	case <-warned:
	case <-time.After(time.Second):
		t.Fatal("no warning after the idle timeout")
	}
	select {
	case <-disconnected:
	case <-time.After(time.Second):
		t.Fatal("no disconnect after the grace period")
	}
}

func TestIdleMonitor_InputAfterWarningRearms(t *testing.T) {
	var lastInput atomic.Int64
	lastInput.Store(time.Now().Add(-time.Minute).UnixNano())
	warned := make(chan struct{}, 1)
	var disconnects atomic.Int32

	stop := handlers.StartIdleMonitor(handlers.IdleMonitorConfig{
		LastInput:    &lastInput,
		IdleTimeout:  time.Second,
		GracePeriod:  300 * time.Millisecond,
		TickInterval: 10 * time.Millisecond,
		OnWarning:    signal(warned),
		OnDisconnect: func() { disconnects.Add(1) },
	})

	select {
	case <-warned:
	case <-time.After(time.Second):
		t.Fatal("no warning for an already idle player")
	}
	lastInput.Store(time.Now().UnixNano())
	time.Sleep(500 * time.Millisecond)
	stop()

	assert.Zero(t, disconnects.Load(), "input during the grace period cancels the disconnect")
}

func TestIdleMonitor_StopPreventsCallbacks(t *testing.T) {
	var lastInput atomic.Int64
	lastInput.Store(time.Now().UnixNano())
	var warned, disconnected atomic.Bool

	stop := handlers.StartIdleMonitor(handlers.IdleMonitorConfig{
		LastInput:    &lastInput,
		IdleTimeout:  10 * time.Millisecond,
		GracePeriod:  10 * time.Millisecond,
		TickInterval: 5 * time.Millisecond,
		OnWarning:    func() { warned.Store(true) },
		OnDisconnect: func() { disconnected.Store(true) },
	})
	stop()
	stop()

	lastInput.Store(time.Now().Add(-10 * time.Second).UnixNano())
	time.Sleep(50 * time.Millisecond)

	assert.False(t, warned.Load())
	assert.False(t, disconnected.Load())
}

func TestIdleMonitor_WarningOnlyOnce(t *testing.T) {
	var lastInput atomic.Int64
	lastInput.Store(time.Now().Add(-10 * time.Second).UnixNano())
	var warnings atomic.Int64

	stop := handlers.StartIdleMonitor(handlers.IdleMonitorConfig{
		LastInput:    &lastInput,
		IdleTimeout:  10 * time.Millisecond,
		GracePeriod:  time.Second,
		TickInterval: 5 * time.Millisecond,
		OnWarning:    func() { warnings.Add(1) },
		OnDisconnect: func() {},
	})
	time.Sleep(100 * time.Millisecond)
	stop()

	assert.Equal(t, int64(1), warnings.Load())
}

// Property: a player who types more often than the idle timeout is never disconnected.
func TestPropertyIdleMonitor_ActivePlayerStays(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		var lastInput atomic.Int64
		lastInput.Store(time.Now().UnixNano())
		var disconnected atomic.Bool

		stop := handlers.StartIdleMonitor(handlers.IdleMonitorConfig{
			LastInput:    &lastInput,
			IdleTimeout:  120 * time.Millisecond,
			GracePeriod:  20 * time.Millisecond,
			TickInterval: 10 * time.Millisecond,
			OnWarning:    func() {},
			OnDisconnect: func() { disconnected.Store(true) },
		})

		inputs := rapid.IntRange(2, 4).Draw(rt, "inputs")
		for i := 0; i < inputs; i++ {
			time.Sleep(20 * time.Millisecond)
			lastInput.Store(time.Now().UnixNano())
		}
		stop()

		if disconnected.Load() {
			rt.Fatal("active player was disconnected")
		}
	})
}
