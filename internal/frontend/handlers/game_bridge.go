package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/connectfour/internal/frontend/telnet"
	"github.com/cory-johannsen/connectfour/internal/game/command"
	gamev1 "github.com/cory-johannsen/connectfour/internal/gameserver/gamev1"
)

var prompt = telnet.Colorize(telnet.BrightCyan, "c4> ")

// gameBridge relays one Telnet client to the game server over a Session
// stream.
//
// Precondition: conn must be open.
// Postcondition: Returns nil when the player quits, or an error when the
// connection or the stream fails.
func (h *GameHandler) gameBridge(ctx context.Context, conn *telnet.Conn) error {
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := h.client.Session(streamCtx)
	if err != nil {
		h.logger.Error("opening game session", zap.Error(err))
		_ = conn.WriteLine(telnet.Colorize(telnet.Red, "The game server is unavailable. Please try again later."))
		return fmt.Errorf("opening session stream: %w", err)
	}

	first, err := stream.Recv()
	if err != nil {
		return fmt.Errorf("receiving connected event: %w", err)
	}
	if first.Type != gamev1.EventConnected {
		return fmt.Errorf("expected %s event, got %s", gamev1.EventConnected, first.Type)
	}

	view := newPlayerView()
	view.Apply(first)
	if err := conn.WriteLines(RenderEvent(first, view.Self())...); err != nil {
		return fmt.Errorf("writing welcome: %w", err)
	}
	if err := conn.WritePrompt(prompt); err != nil {
		return fmt.Errorf("writing initial prompt: %w", err)
	}

	var lastInput atomic.Int64
	lastInput.Store(time.Now().UnixNano())
	if h.cfg.IdleTimeout > 0 {
		stop := StartIdleMonitor(IdleMonitorConfig{
			LastInput:    &lastInput,
			IdleTimeout:  h.cfg.IdleTimeout,
			GracePeriod:  h.cfg.IdleGrace,
			TickInterval: idleTick(h.cfg.IdleTimeout),
			OnWarning: func() {
				_ = conn.Notify(telnet.Colorf(telnet.Yellow, "You have been idle; you will be disconnected in %s.", h.cfg.IdleGrace))
			},
			OnDisconnect: func() {
				h.logger.Info("disconnecting idle player", zap.String("player", view.Self()))
				_ = conn.WriteLine(telnet.Colorize(telnet.Yellow, "Disconnected for inactivity."))
				_ = conn.Close()
			},
		})
		defer stop()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.forwardServerEvents(streamCtx, stream, conn, view)
	}()

	err = h.commandLoop(streamCtx, stream, conn, view, &lastInput)

	_ = stream.CloseSend()
	cancel()
	wg.Wait()
	return err
}

func idleTick(timeout time.Duration) time.Duration {
	tick := timeout / 10
	if tick > time.Second {
		tick = time.Second
	}
	if tick <= 0 {
		tick = time.Millisecond
	}
	return tick
}

// commandLoop reads lines from the Telnet connection and dispatches them
// through the bridge handlers.
//
// Postcondition: Returns nil on quit, or a wrapped error on failure.
func (h *GameHandler) commandLoop(ctx context.Context, stream gamev1.SessionClient, conn *telnet.Conn, view *playerView, lastInput *atomic.Int64) error {
	requestID := 0

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := conn.ReadLine()
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		lastInput.Store(time.Now().UnixNano())

		parsed := command.Parse(line)
		if parsed.Command == "" {
			_ = conn.WritePrompt(prompt)
			continue
		}

		cmd, ok := h.registry.Resolve(parsed.Command)
		if !ok {
			_ = conn.WriteLine(telnet.Colorf(telnet.Dim, "Unknown command: %s. Type 'help' for available commands.", parsed.Command))
			_ = conn.WritePrompt(prompt)
			continue
		}

		requestID++
		bctx := &bridgeContext{
			reqID:  fmt.Sprintf("req-%d", requestID),
			cmd:    cmd,
			parsed: parsed,
			conn:   conn,
			view:   view,
			helpFn: func() { h.showHelp(conn) },
		}
		res, err := bridgeHandlerMap[cmd.Handler](bctx)
		if err != nil {
			return fmt.Errorf("handling %s: %w", cmd.Name, err)
		}
		if res.quit {
			return nil
		}
		if res.msg != nil {
			if err := stream.Send(res.msg); err != nil {
				return fmt.Errorf("sending message: %w", err)
			}
			continue
		}
		_ = conn.WritePrompt(prompt)
	}
}

// forwardServerEvents renders every event from the stream until it closes.
func (h *GameHandler) forwardServerEvents(ctx context.Context, stream gamev1.SessionClient, conn *telnet.Conn, view *playerView) {
	for {
		ev, err := stream.Recv()
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				h.logger.Debug("stream recv error in forwarder", zap.Error(err))
				_ = conn.Notify(telnet.Colorize(telnet.Red, "Lost connection to the game server."))
				_ = conn.Close()
			}
			return
		}

		view.Apply(ev)
		if lines := RenderEvent(ev, view.Self()); len(lines) > 0 {
			_ = conn.Notify(lines...)
		}
	}
}

// showHelp lists commands by category.
func (h *GameHandler) showHelp(conn *telnet.Conn) {
	lines := []string{telnet.Colorize(telnet.Bold, "Available commands:")}

	categories := []struct {
		name  string
		label string
	}{
		{command.CategoryLobby, "Lobby"},
		{command.CategoryGame, "Game"},
		{command.CategorySystem, "System"},
	}
	byCategory := h.registry.CommandsByCategory()
	for _, cat := range categories {
		cmds := byCategory[cat.name]
		if len(cmds) == 0 {
			continue
		}
		lines = append(lines, telnet.Colorf(telnet.BrightYellow, "  %s:", cat.label))
		for _, cmd := range cmds {
			synopsis := strings.TrimSpace(cmd.Name + " " + cmd.Usage)
			entry := "    " + telnet.Colorize(telnet.Green, telnet.PadRight(synopsis, 24)) + cmd.Help
			if len(cmd.Aliases) > 0 {
				entry += telnet.Colorf(telnet.Dim, " (%s)", strings.Join(cmd.Aliases, ", "))
			}
			lines = append(lines, entry)
		}
	}
	_ = conn.WriteLines(lines...)
}
