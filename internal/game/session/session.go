// Package session provides the game session entity and the registry that
// owns every active session.
package session

import (
	"slices"
	"sync"

	"github.com/cory-johannsen/connectfour/internal/game/board"
)

// MaxPlayers is the number of seats in a session.
const MaxPlayers = 2

// Mode is the pairing mode a session was created with.
type Mode string

const (
	// ModeQuick sessions are paired through the FIFO matchmaking queue.
	ModeQuick Mode = "quick"
	// ModeManual sessions are paired by explicit join or invitation.
	ModeManual Mode = "manual"
)

// Status is the lifecycle stage of a session.
type Status string

const (
	StatusForming Status = "forming"
	StatusActive  Status = "active"
	StatusEnded   Status = "ended"
)

// Session is one two-player match: its seats, board, turn pointer and
// pending invitations.
//
// Every accessor and mutator other than ID, Mode and Seq requires the caller
// to hold the session lock (Lock/Unlock).
type Session struct {
	mu sync.Mutex

	id   string
	mode Mode
	seq  uint64

	players []string
	invited []string
	board   *board.Board
	turn    string
	ended   bool
}

func newSession(id string, mode Mode, seq uint64) *Session {
	return &Session{
		id:    id,
		mode:  mode,
		seq:   seq,
		board: board.New(),
	}
}

// Lock acquires the session lock.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session lock.
func (s *Session) Unlock() { s.mu.Unlock() }

// ID returns the immutable session identifier.
func (s *Session) ID() string { return s.id }

// Mode returns the pairing mode fixed at creation.
func (s *Session) Mode() Mode { return s.mode }

// Seq returns the creation sequence number; lower values were created earlier.
func (s *Session) Seq() uint64 { return s.seq }

// Status derives the lifecycle stage from the seat count.
func (s *Session) Status() Status {
	switch {
	case s.ended:
		return StatusEnded
	case len(s.players) == MaxPlayers:
		return StatusActive
	default:
		return StatusForming
	}
}

// Ended reports whether the session has been removed from the registry.
func (s *Session) Ended() bool { return s.ended }

// MarkEnded flags the session as removed. Holders of a stale pointer must
// treat an ended session as not found.
func (s *Session) MarkEnded() { s.ended = true }

// Players returns a copy of the seated player IDs in seat order.
func (s *Session) Players() []string { return slices.Clone(s.players) }

// PlayerCount returns the number of seated players.
func (s *Session) PlayerCount() int { return len(s.players) }

// HasPlayer reports whether id is seated in the session.
func (s *Session) HasPlayer(id string) bool { return slices.Contains(s.players, id) }

// Turn returns the player whose move is accepted next.
func (s *Session) Turn() string { return s.turn }

// Board returns the session board. Callers must not retain it past Unlock.
func (s *Session) Board() *board.Board { return s.board }

// AddPlayer seats id in the next free seat.
//
// Precondition: id is not already seated and a seat is free.
// Postcondition: Returns false without mutation if the precondition fails.
// When the turn pointer does not name a seated player it is reset to the first seat.
func (s *Session) AddPlayer(id string) bool {
	if id == "" || len(s.players) >= MaxPlayers || s.HasPlayer(id) {
		return false
	}
	s.players = append(s.players, id)
	s.repairTurn()
	return true
}

// RemovePlayer vacates id's seat.
//
// Postcondition: Returns false if id was not seated. Otherwise the remaining
// players keep their order and the turn passes to the first remaining seat.
func (s *Session) RemovePlayer(id string) bool {
	i := slices.Index(s.players, id)
	if i < 0 {
		return false
	}
	s.players = slices.Delete(s.players, i, i+1)
	if len(s.players) == 0 {
		s.turn = ""
	} else {
		s.turn = s.players[0]
	}
	return true
}

func (s *Session) repairTurn() {
	if !s.HasPlayer(s.turn) && len(s.players) > 0 {
		s.turn = s.players[0]
	}
}

// Invited returns a copy of the pending invitees in invitation order.
func (s *Session) Invited() []string { return slices.Clone(s.invited) }

// IsInvited reports whether id holds a pending invitation.
func (s *Session) IsInvited(id string) bool { return slices.Contains(s.invited, id) }

// Invite records a pending invitation for id. Re-inviting is a no-op.
func (s *Session) Invite(id string) {
	if !s.IsInvited(id) {
		s.invited = append(s.invited, id)
	}
}

// Uninvite drops id's pending invitation and reports whether one existed.
func (s *Session) Uninvite(id string) bool {
	i := slices.Index(s.invited, id)
	if i < 0 {
		return false
	}
	s.invited = slices.Delete(s.invited, i, i+1)
	return true
}

// Accept converts id's pending invitation into a seat.
//
// Precondition: id is invited, not seated, and a seat is free.
// Postcondition: Returns false without mutation if the precondition fails.
func (s *Session) Accept(id string) bool {
	if !s.IsInvited(id) || s.HasPlayer(id) || len(s.players) >= MaxPlayers {
		return false
	}
	s.Uninvite(id)
	return s.AddPlayer(id)
}

// Opponent returns the other seated player, or "" if id has no opponent.
func (s *Session) Opponent(id string) string {
	for _, p := range s.players {
		if p != id {
			return p
		}
	}
	return ""
}

// Move drops the current turn holder's disc into column and passes the turn.
//
// Precondition: the caller has verified the session is Active and that the
// mover holds the turn.
// Postcondition: On success returns the row written and, if the move
// completes a line, the winning line. On error the session is unchanged.
func (s *Session) Move(column int) (int, board.Line, error) {
	mover := s.turn
	row, err := s.board.Drop(column, mover)
	if err != nil {
		return -1, nil, err
	}
	s.turn = s.Opponent(mover)
	line, _ := s.board.DetectWin(row, column, mover)
	return row, line, nil
}
