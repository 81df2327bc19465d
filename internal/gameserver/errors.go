package gameserver

import (
	"errors"

	"github.com/cory-johannsen/connectfour/internal/game/board"
)

// Rejections surfaced to the originating player as an error notification.
// None of them leaves shared state modified.
var (
	ErrSessionNotFound     = errors.New("game not found")
	ErrSessionFull         = errors.New("game is already full")
	ErrNotAParticipant     = errors.New("you are not in this game")
	ErrNotYourTurn         = errors.New("not your turn")
	ErrColumnFull          = board.ErrColumnFull
	ErrInvalidColumn       = board.ErrInvalidColumn
	ErrInvalidInvitation   = errors.New("invalid invitation")
	ErrNoPendingCreation   = errors.New("no game creation request found")
	ErrNoPendingInvitation = errors.New("no invitation found or already accepted")
	ErrGameNotStarted      = errors.New("game has not started")
	ErrAlreadyWaiting      = errors.New("already waiting for an opponent")
	ErrAlreadyInSession    = errors.New("already in this game")
	ErrNotQueued           = errors.New("no join request found")
	ErrUnknownIntent       = errors.New("unknown intent")
	ErrReservedIntent      = errors.New("intent is reserved for the transport")
)
