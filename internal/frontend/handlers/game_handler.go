// Package handlers provides Telnet session handling and command processing.
package handlers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/connectfour/internal/config"
	"github.com/cory-johannsen/connectfour/internal/frontend/telnet"
	"github.com/cory-johannsen/connectfour/internal/game/command"
	gamev1 "github.com/cory-johannsen/connectfour/internal/gameserver/gamev1"
)

const welcomeBanner = "\r\n" + telnet.Bold + telnet.BrightCyan +
	"  ___                          _     ___\r\n" +
	" / __|___ _ _  _ _  ___ __ _| |_  | __|__ _  _ _ _\r\n" +
	"| (__/ _ \\ ' \\| ' \\/ -_) _|  _| | _/ _ \\ || | '_|\r\n" +
	" \\___\\___/_||_|_||_\\___\\__|\\__| |_|\\___/\\_,_|_|\r\n" +
	telnet.Reset + "\r\n" +
	"  Drop discs, line up four, win.\r\n" +
	"  Type " + telnet.Green + "create" + telnet.Reset + " for a quick game or " +
	telnet.Green + "help" + telnet.Reset + " for every command.\r\n\r\n"

// GameHandler implements telnet.SessionHandler by bridging each Telnet
// client to the game server.
type GameHandler struct {
	client   gamev1.GameServiceClient
	cfg      config.TelnetConfig
	registry *command.Registry
	logger   *zap.Logger
}

// NewGameHandler creates a GameHandler that opens a Session stream on client
// for every connection.
//
// Precondition: client and logger must be non-nil.
func NewGameHandler(client gamev1.GameServiceClient, cfg config.TelnetConfig, logger *zap.Logger) *GameHandler {
	return &GameHandler{
		client:   client,
		cfg:      cfg,
		registry: command.DefaultRegistry(),
		logger:   logger,
	}
}

// HandleSession implements telnet.SessionHandler.
//
// Postcondition: Returns nil when the player quits, or an error if the
// session ended abnormally.
func (h *GameHandler) HandleSession(ctx context.Context, conn *telnet.Conn) error {
	start := time.Now()
	if err := conn.Write([]byte(welcomeBanner)); err != nil {
		return err
	}

	err := h.gameBridge(ctx, conn)
	h.logger.Info("telnet player left",
		zap.String("remote_addr", conn.RemoteAddr().String()),
		zap.Duration("session_duration", time.Since(start)),
		zap.Error(err),
	)
	return err
}
