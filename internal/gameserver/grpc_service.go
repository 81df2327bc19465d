package gameserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	gamev1 "github.com/cory-johannsen/connectfour/internal/gameserver/gamev1"
)

// GameServiceServer carries one player per Session stream between a client
// and the Hub.
type GameServiceServer struct {
	hub    *Hub
	logger *zap.Logger
}

// NewGameServiceServer creates a GameServiceServer backed by hub.
//
// Precondition: hub and logger must be non-nil.
func NewGameServiceServer(hub *Hub, logger *zap.Logger) *GameServiceServer {
	return &GameServiceServer{
		hub:    hub,
		logger: logger,
	}
}

// Session registers the stream as a new player, forwards its intents to the
// Hub, and streams the player's notifications back until either side closes.
//
// Postcondition: the player's disconnect cleanup has run when Session returns.
func (s *GameServiceServer) Session(stream gamev1.SessionServer) error {
	ob := s.hub.Connect()
	player := ob.Player()
	defer s.hub.Disconnect(player)

	ctx, cancel := context.WithCancel(stream.Context())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.forwardEvents(ctx, ob, stream)
	}()

	err := s.commandLoop(ctx, player, stream)

	cancel()
	wg.Wait()

	if err != nil && !errors.Is(err, io.EOF) {
		s.logger.Debug("session stream ended", zap.String("player", player), zap.Error(err))
		return err
	}
	return nil
}

func (s *GameServiceServer) commandLoop(ctx context.Context, player string, stream gamev1.SessionServer) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msg, err := stream.Recv()
		if err == io.EOF {
			return io.EOF
		}
		if err != nil {
			return fmt.Errorf("receiving message: %w", err)
		}
		s.hub.Dispatch(player, msg)
	}
}

func (s *GameServiceServer) forwardEvents(ctx context.Context, ob *Outbox, stream gamev1.SessionServer) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ob.Events():
			if !ok {
				return
			}
			if err := stream.Send(ev); err != nil {
				s.logger.Debug("forward event send failed", zap.String("player", ob.Player()), zap.Error(err))
				return
			}
		}
	}
}
