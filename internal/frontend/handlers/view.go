package handlers

import (
	"sync"

	gamev1 "github.com/cory-johannsen/connectfour/internal/gameserver/gamev1"
)

// playerView is the frontend's record of what one player has been told: their
// id, the game their commands default to, and the latest board of every game
// they follow.
type playerView struct {
	mu      sync.Mutex
	self    string
	current string
	games   map[string]*gamev1.GameSnapshot
	lines   map[string][]gamev1.Cell
}

func newPlayerView() *playerView {
	return &playerView{
		games: make(map[string]*gamev1.GameSnapshot),
		lines: make(map[string][]gamev1.Cell),
	}
}

// Apply folds ev into the view.
func (v *playerView) Apply(ev *gamev1.ServerEvent) {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch ev.Type {
	case gamev1.EventConnected:
		v.self = ev.PlayerID

	case gamev1.EventGameCreated, gamev1.EventWaitingForOpponent, gamev1.EventGameStarted,
		gamev1.EventMoveMade, gamev1.EventPlayerQuit:
		v.track(ev)

	case gamev1.EventGameRejoined:
		if ev.PlayerID == "" || ev.PlayerID == v.self {
			v.track(ev)
		} else if ev.Session != nil {
			v.games[ev.SessionID] = ev.Session
		}

	case gamev1.EventGameWon:
		v.track(ev)
		v.lines[ev.SessionID] = ev.WinningLine

	case gamev1.EventGameCreationCancelled, gamev1.EventGameEnded:
		v.forget(ev.SessionID)

	case gamev1.EventGameQuit:
		v.current = ""
		clear(v.games)
		clear(v.lines)
	}
}

func (v *playerView) track(ev *gamev1.ServerEvent) {
	if ev.SessionID == "" {
		return
	}
	if ev.Session != nil {
		v.games[ev.SessionID] = ev.Session
	}
	if ev.Type != gamev1.EventPlayerQuit {
		v.current = ev.SessionID
	}
}

func (v *playerView) forget(id string) {
	delete(v.games, id)
	delete(v.lines, id)
	if v.current == id {
		v.current = ""
	}
}

// Self returns the player's id, or "" before the connected event.
func (v *playerView) Self() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.self
}

// Current returns the game commands default to.
func (v *playerView) Current() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Game returns the latest snapshot of id and its winning line, if any.
func (v *playerView) Game(id string) (*gamev1.GameSnapshot, []gamev1.Cell, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	snap, ok := v.games[id]
	return snap, v.lines[id], ok
}
