package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cory-johannsen/connectfour/internal/game/board"
	gamev1 "github.com/cory-johannsen/connectfour/internal/gameserver/gamev1"
)

// ErrNoCurrentGame is returned when a command needs a game id, none was
// given, and the player is not following a game.
var ErrNoCurrentGame = errors.New("no current game; give a game id")

// UsageError reports a command invoked with the wrong arguments.
type UsageError struct {
	Cmd *Command
}

func (e *UsageError) Error() string {
	if e.Cmd.Usage == "" {
		return "Usage: " + e.Cmd.Name
	}
	return "Usage: " + e.Cmd.Name + " " + e.Cmd.Usage
}

// BuildIntent translates a resolved server command into the message sent to
// the game server. current is the game the player is following, or "" when
// none; it fills in an omitted game id. Columns are typed 1-based.
//
// Precondition: cmd is not a local command.
// Postcondition: Returns a message ready to send, or a *UsageError,
// ErrNoCurrentGame, or a column error without touching any state.
func BuildIntent(cmd *Command, args []string, current string) (*gamev1.ClientMessage, error) {
	usage := &UsageError{Cmd: cmd}
	gameArg := func(i int) (string, error) {
		if len(args) > i {
			return args[i], nil
		}
		if current == "" {
			return "", ErrNoCurrentGame
		}
		return current, nil
	}

	switch cmd.Handler {
	case HandlerCreate:
		if len(args) > 1 || (len(args) == 1 && !strings.EqualFold(args[0], "manual")) {
			return nil, usage
		}
		return &gamev1.ClientMessage{Type: gamev1.IntentCreateGame, Manual: len(args) == 1}, nil

	case HandlerJoin:
		if len(args) > 1 {
			return nil, usage
		}
		msg := &gamev1.ClientMessage{Type: gamev1.IntentJoinGame}
		if len(args) == 1 {
			msg.SessionID = args[0]
		}
		return msg, nil

	case HandlerInvite:
		if len(args) < 1 || len(args) > 2 {
			return nil, usage
		}
		id, err := gameArg(1)
		if err != nil {
			return nil, err
		}
		return &gamev1.ClientMessage{Type: gamev1.IntentInvitePlayer, SessionID: id, TargetID: args[0]}, nil

	case HandlerAccept, HandlerDecline, HandlerRejoin:
		if len(args) != 1 {
			return nil, usage
		}
		return &gamev1.ClientMessage{Type: intentFor(cmd.Handler), SessionID: args[0]}, nil

	case HandlerCancel, HandlerWithdraw, HandlerLeave:
		if len(args) != 0 {
			return nil, usage
		}
		return &gamev1.ClientMessage{Type: intentFor(cmd.Handler)}, nil

	case HandlerMove:
		if len(args) < 1 || len(args) > 2 {
			return nil, usage
		}
		col, err := ParseColumn(args[0])
		if err != nil {
			return nil, err
		}
		id, err := gameArg(1)
		if err != nil {
			return nil, err
		}
		return &gamev1.ClientMessage{Type: gamev1.IntentMakeMove, SessionID: id, Column: col}, nil
	}
	return nil, fmt.Errorf("%s is not a server command", cmd.Name)
}

func intentFor(handler string) string {
	switch handler {
	case HandlerAccept:
		return gamev1.IntentAcceptInvitation
	case HandlerDecline:
		return gamev1.IntentCancelInvitation
	case HandlerRejoin:
		return gamev1.IntentRejoinGame
	case HandlerCancel:
		return gamev1.IntentCancelGameCreation
	case HandlerWithdraw:
		return gamev1.IntentCancelJoinRequest
	case HandlerLeave:
		return gamev1.IntentQuitGame
	}
	return ""
}

// ParseColumn converts a 1-based column typed by a player into the 0-based
// board column.
//
// Postcondition: On success the result is within [0, board.Columns).
func ParseColumn(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > board.Columns {
		return 0, fmt.Errorf("column must be a number from 1 to %d", board.Columns)
	}
	return n - 1, nil
}
