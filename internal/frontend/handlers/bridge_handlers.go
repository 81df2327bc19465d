package handlers

import (
	"github.com/cory-johannsen/connectfour/internal/frontend/telnet"
	"github.com/cory-johannsen/connectfour/internal/game/command"
	gamev1 "github.com/cory-johannsen/connectfour/internal/gameserver/gamev1"
)

// bridgeContext carries all inputs a bridge handler needs.
type bridgeContext struct {
	reqID  string
	cmd    *command.Command
	parsed command.ParseResult
	conn   *telnet.Conn
	view   *playerView
	helpFn func()
}

// bridgeResult is returned by every bridge handler.
// msg is the ClientMessage to send (nil if nothing to send).
// quit is true when the player asked to disconnect.
type bridgeResult struct {
	msg  *gamev1.ClientMessage
	quit bool
}

type bridgeHandlerFunc func(bctx *bridgeContext) (bridgeResult, error)

// BridgeHandlers returns the map from Handler constant to bridge function.
func BridgeHandlers() map[string]bridgeHandlerFunc {
	return bridgeHandlerMap
}

// bridgeHandlerMap is the single source of truth for frontend command dispatch.
var bridgeHandlerMap = map[string]bridgeHandlerFunc{
	command.HandlerCreate:   bridgeIntent,
	command.HandlerJoin:     bridgeIntent,
	command.HandlerInvite:   bridgeIntent,
	command.HandlerAccept:   bridgeIntent,
	command.HandlerDecline:  bridgeIntent,
	command.HandlerCancel:   bridgeIntent,
	command.HandlerWithdraw: bridgeIntent,
	command.HandlerMove:     bridgeIntent,
	command.HandlerLeave:    bridgeIntent,
	command.HandlerRejoin:   bridgeIntent,
	command.HandlerBoard:    bridgeBoard,
	command.HandlerWhoami:   bridgeWhoami,
	command.HandlerHelp:     bridgeHelp,
	command.HandlerQuit:     bridgeQuit,
}

// bridgeIntent turns a lobby or game command into a server message.
//
// Postcondition: On a usage error the error is shown and no message is returned.
func bridgeIntent(bctx *bridgeContext) (bridgeResult, error) {
	msg, err := command.BuildIntent(bctx.cmd, bctx.parsed.Args, bctx.view.Current())
	if err != nil {
		return bridgeResult{}, bctx.conn.WriteLines(RenderError(err.Error()))
	}
	msg.RequestID = bctx.reqID
	return bridgeResult{msg: msg}, nil
}

func bridgeBoard(bctx *bridgeContext) (bridgeResult, error) {
	id := bctx.view.Current()
	if len(bctx.parsed.Args) > 0 {
		id = bctx.parsed.Args[0]
	}
	snap, line, ok := bctx.view.Game(id)
	if !ok {
		return bridgeResult{}, bctx.conn.WriteLines(RenderError("you are not following that game"))
	}
	lines := append(RenderBoard(snap, line), RenderStatus(snap, bctx.view.Self()))
	return bridgeResult{}, bctx.conn.WriteLines(lines...)
}

func bridgeWhoami(bctx *bridgeContext) (bridgeResult, error) {
	return bridgeResult{}, bctx.conn.WriteLines(telnet.Colorf(telnet.Cyan, "Your player id is %s.", bctx.view.Self()))
}

func bridgeHelp(bctx *bridgeContext) (bridgeResult, error) {
	if bctx.helpFn != nil {
		bctx.helpFn()
	}
	return bridgeResult{}, nil
}

func bridgeQuit(bctx *bridgeContext) (bridgeResult, error) {
	_ = bctx.conn.WriteLine(telnet.Colorize(telnet.Cyan, "Thanks for playing. Goodbye!"))
	return bridgeResult{quit: true}, nil
}
