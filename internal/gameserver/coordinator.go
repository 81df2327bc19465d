package gameserver

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/connectfour/internal/game/board"
	"github.com/cory-johannsen/connectfour/internal/game/matchmaking"
	"github.com/cory-johannsen/connectfour/internal/game/session"
	"github.com/cory-johannsen/connectfour/internal/gameserver/gamev1"
)

// Reasons carried by gameEnded.
const (
	ReasonPlayerQuit         = "Player quit"
	ReasonPlayerDisconnected = "Player disconnected"
	ReasonGameCancelled      = "Game cancelled"
)

// Envelope addresses one notification to a set of players.
type Envelope struct {
	To    []string
	Event *gamev1.ServerEvent
}

// Stats summarises the shared state for periodic reporting.
type Stats struct {
	Forming          int
	Active           int
	Queued           int
	PendingCreations int
}

// Coordinator applies player intents to the shared session state and returns
// the notifications each intent produces.
//
// Every intent runs to completion atomically. The lobby lock serialises all
// intents that change seats, the queue, the pending table, or the registry;
// each session's own lock guards its board, turn and invitations. The lock
// order is always lobby, then session. Moves, invitations and invitation
// cancellations take only the session lock.
type Coordinator struct {
	lobby    sync.Mutex
	sessions *session.Registry
	queue    *matchmaking.Queue
	pending  *matchmaking.PendingTable
	logger   *zap.Logger
}

// NewCoordinator creates a Coordinator over the given stores.
//
// Precondition: sessions, queue, pending and logger must be non-nil.
func NewCoordinator(sessions *session.Registry, queue *matchmaking.Queue, pending *matchmaking.PendingTable, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		sessions: sessions,
		queue:    queue,
		pending:  pending,
		logger:   logger,
	}
}

// Handle dispatches one intent from player.
//
// Postcondition: Returns the notifications to deliver. A rejected intent
// yields a single error notification addressed to player and leaves the
// shared state untouched.
func (c *Coordinator) Handle(player string, msg *gamev1.ClientMessage) []Envelope {
	start := time.Now()
	envs, err := c.dispatch(player, msg)
	if err != nil {
		if errors.Is(err, session.ErrIDExhausted) {
			c.logger.Fatal("session id generation exhausted", zap.Error(err))
		}
		c.logger.Info("intent rejected",
			zap.String("player", player),
			zap.String("intent", msg.Type),
			zap.Error(err),
		)
		return []Envelope{{
			To: []string{player},
			Event: &gamev1.ServerEvent{
				RequestID: msg.RequestID,
				Type:      gamev1.EventError,
				Message:   err.Error(),
			},
		}}
	}
	c.logger.Debug("intent handled",
		zap.String("player", player),
		zap.String("intent", msg.Type),
		zap.Int("notifications", len(envs)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return envs
}

func (c *Coordinator) dispatch(player string, msg *gamev1.ClientMessage) ([]Envelope, error) {
	switch msg.Type {
	case gamev1.IntentCreateGame:
		return c.CreateGame(player, msg.Manual)
	case gamev1.IntentJoinGame:
		return c.JoinGame(player, msg.SessionID)
	case gamev1.IntentInvitePlayer:
		return c.InvitePlayer(player, msg.SessionID, msg.TargetID)
	case gamev1.IntentAcceptInvitation:
		return c.AcceptInvitation(player, msg.SessionID)
	case gamev1.IntentCancelGameCreation:
		return c.CancelGameCreation(player)
	case gamev1.IntentCancelInvitation:
		return c.CancelInvitation(player, msg.SessionID)
	case gamev1.IntentCancelJoinRequest:
		return c.CancelJoinRequest(player)
	case gamev1.IntentMakeMove:
		return c.MakeMove(player, msg.SessionID, msg.Column)
	case gamev1.IntentQuitGame:
		return c.QuitGame(player), nil
	case gamev1.IntentRejoinGame:
		return c.RejoinGame(player, msg.SessionID)
	case gamev1.IntentDisconnect:
		return c.Disconnect(player), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownIntent, msg.Type)
	}
}

// CreateGame opens a new game for player.
//
// A manual game waits for an explicit join or invitation. A quick game pairs
// with the head of the matchmaking queue when one is waiting; otherwise the
// player is queued with a forming session of their own.
func (c *Coordinator) CreateGame(player string, manual bool) ([]Envelope, error) {
	c.lobby.Lock()
	defer c.lobby.Unlock()

	if manual {
		s, err := c.sessions.Create(session.ModeManual)
		if err != nil {
			return nil, err
		}
		s.Lock()
		s.AddPlayer(player)
		snap := snapshot(s)
		s.Unlock()
		c.pending.Record(player, s.ID())

		c.logger.Info("manual game created",
			zap.String("session", s.ID()),
			zap.String("player", player),
		)
		return []Envelope{to(player, &gamev1.ServerEvent{Type: gamev1.EventGameCreated, SessionID: s.ID(), Session: snap})}, nil
	}

	if c.queue.Contains(player) {
		return nil, ErrAlreadyWaiting
	}
	if head, ok := c.queue.Pop(); ok {
		return c.pairQuick(head, player)
	}

	s, err := c.sessions.Create(session.ModeQuick)
	if err != nil {
		return nil, err
	}
	s.Lock()
	s.AddPlayer(player)
	snap := snapshot(s)
	s.Unlock()
	c.pending.Record(player, s.ID())
	c.queue.Enqueue(player)

	c.logger.Info("quick game waiting for opponent",
		zap.String("session", s.ID()),
		zap.String("player", player),
	)
	return []Envelope{to(player, &gamev1.ServerEvent{Type: gamev1.EventWaitingForOpponent, SessionID: s.ID(), Session: snap})}, nil
}

// JoinGame seats player in the manual game sessionID or, when sessionID is
// empty, pairs player with the queue head. With nobody queued, player takes
// the free seat of the oldest quick game an opponent has left, and only
// otherwise joins the queue.
func (c *Coordinator) JoinGame(player, sessionID string) ([]Envelope, error) {
	c.lobby.Lock()
	defer c.lobby.Unlock()

	if sessionID == "" {
		if c.queue.Contains(player) {
			return nil, ErrAlreadyWaiting
		}
		if head, ok := c.queue.Pop(); ok {
			return c.pairQuick(head, player)
		}
		if envs, ok := c.fillOpenQuick(player); ok {
			return envs, nil
		}
		c.queue.Enqueue(player)
		return []Envelope{to(player, &gamev1.ServerEvent{Type: gamev1.EventWaitingToJoinGame})}, nil
	}

	s, err := c.lockSession(sessionID)
	if err != nil {
		return nil, err
	}
	defer s.Unlock()

	if s.HasPlayer(player) {
		return nil, ErrAlreadyInSession
	}
	if s.Mode() != session.ModeManual {
		return nil, fmt.Errorf("%w: quick games are paired through the queue", ErrSessionFull)
	}
	if s.PlayerCount() != 1 {
		return nil, ErrSessionFull
	}

	s.AddPlayer(player)
	s.Uninvite(player)
	c.pending.ClearSession(s.ID())

	c.logger.Info("player joined manual game",
		zap.String("session", s.ID()),
		zap.String("player", player),
	)
	snap := snapshot(s)
	return []Envelope{{To: s.Players(), Event: &gamev1.ServerEvent{Type: gamev1.EventGameStarted, SessionID: s.ID(), Session: snap}}}, nil
}

// pairQuick seats newcomer against the queue head. When the head is holding
// a forming quick session of its own, newcomer joins it; otherwise a new
// session is created. The head always takes the first seat and moves first.
//
// Precondition: the lobby lock is held and head has been popped from the queue.
func (c *Coordinator) pairQuick(head, newcomer string) ([]Envelope, error) {
	if id, ok := c.pending.Lookup(head); ok {
		if envs, joined := c.joinWaiting(id, head, newcomer); joined {
			return envs, nil
		}
	}

	s, err := c.sessions.Create(session.ModeQuick)
	if err != nil {
		return nil, err
	}
	s.Lock()
	defer s.Unlock()
	s.AddPlayer(head)
	s.AddPlayer(newcomer)

	c.logger.Info("quick players paired",
		zap.String("session", s.ID()),
		zap.String("first", head),
		zap.String("second", newcomer),
	)
	return startedEnvelopes(s, head), nil
}

func (c *Coordinator) joinWaiting(sessionID, head, newcomer string) ([]Envelope, bool) {
	s, ok := c.sessions.Get(sessionID)
	if !ok {
		return nil, false
	}
	s.Lock()
	defer s.Unlock()
	if s.Ended() || s.Mode() != session.ModeQuick || s.PlayerCount() != 1 || !s.HasPlayer(head) {
		return nil, false
	}
	s.AddPlayer(newcomer)
	c.pending.Clear(head)

	c.logger.Info("quick players paired",
		zap.String("session", s.ID()),
		zap.String("first", head),
		zap.String("second", newcomer),
	)
	return startedEnvelopes(s, newcomer), true
}

// fillOpenQuick seats player in the oldest quick game left with a single
// player after its opponent departed.
//
// Precondition: the lobby lock is held.
func (c *Coordinator) fillOpenQuick(player string) ([]Envelope, bool) {
	for _, s := range c.sessions.All() {
		if s.Mode() != session.ModeQuick {
			continue
		}
		s.Lock()
		if s.Ended() || s.PlayerCount() != 1 || s.HasPlayer(player) {
			s.Unlock()
			continue
		}
		s.AddPlayer(player)
		c.pending.ClearSession(s.ID())
		snap := snapshot(s)
		players := s.Players()
		s.Unlock()

		c.logger.Info("player filled open quick game",
			zap.String("session", s.ID()),
			zap.String("player", player),
		)
		return []Envelope{{To: players, Event: &gamev1.ServerEvent{Type: gamev1.EventGameStarted, SessionID: s.ID(), Session: snap}}}, true
	}
	return nil, false
}

// startedEnvelopes tells newcomer about a session it did not create and
// announces the start to both seats.
func startedEnvelopes(s *session.Session, newcomer string) []Envelope {
	snap := snapshot(s)
	return []Envelope{
		to(newcomer, &gamev1.ServerEvent{Type: gamev1.EventGameCreated, SessionID: s.ID(), Session: snap}),
		{To: s.Players(), Event: &gamev1.ServerEvent{Type: gamev1.EventGameStarted, SessionID: s.ID(), Session: snap}},
	}
}

// InvitePlayer records an invitation from player to target for a manual game.
func (c *Coordinator) InvitePlayer(player, sessionID, target string) ([]Envelope, error) {
	s, err := c.lockSession(sessionID)
	if err != nil {
		return nil, err
	}
	defer s.Unlock()

	if !s.HasPlayer(player) {
		return nil, ErrNotAParticipant
	}
	if s.Mode() != session.ModeManual {
		return nil, fmt.Errorf("%w: quick games do not take invitations", ErrInvalidInvitation)
	}
	if target == "" || target == player || s.HasPlayer(target) {
		return nil, fmt.Errorf("%w: cannot invite %q", ErrInvalidInvitation, target)
	}
	if s.PlayerCount() >= session.MaxPlayers {
		return nil, ErrSessionFull
	}

	s.Invite(target)
	return []Envelope{to(target, &gamev1.ServerEvent{
		Type:      gamev1.EventGameInvitation,
		SessionID: s.ID(),
		InviterID: player,
	})}, nil
}

// AcceptInvitation seats player in sessionID in place of their invitation.
func (c *Coordinator) AcceptInvitation(player, sessionID string) ([]Envelope, error) {
	c.lobby.Lock()
	defer c.lobby.Unlock()

	s, err := c.lockSession(sessionID)
	if err != nil {
		return nil, err
	}
	defer s.Unlock()

	if !s.IsInvited(player) || s.HasPlayer(player) {
		return nil, ErrInvalidInvitation
	}
	if s.PlayerCount() >= session.MaxPlayers {
		return nil, ErrSessionFull
	}

	s.Accept(player)
	c.pending.ClearSession(s.ID())

	c.logger.Info("invitation accepted",
		zap.String("session", s.ID()),
		zap.String("player", player),
	)
	snap := snapshot(s)
	return []Envelope{{To: s.Players(), Event: &gamev1.ServerEvent{Type: gamev1.EventGameStarted, SessionID: s.ID(), Session: snap}}}, nil
}

// CancelGameCreation deletes the game player is still creating.
func (c *Coordinator) CancelGameCreation(player string) ([]Envelope, error) {
	c.lobby.Lock()
	defer c.lobby.Unlock()

	id, ok := c.pending.Lookup(player)
	if !ok {
		return nil, ErrNoPendingCreation
	}
	c.pending.Clear(player)
	c.queue.Remove(player)

	envs := []Envelope{to(player, &gamev1.ServerEvent{Type: gamev1.EventGameCreationCancelled, SessionID: id})}

	s, ok := c.sessions.Get(id)
	if !ok {
		return envs, nil
	}
	s.Lock()
	defer s.Unlock()
	if s.Ended() {
		return envs, nil
	}
	invited := s.Invited()
	others := slices.DeleteFunc(s.Players(), func(p string) bool { return p == player })
	s.MarkEnded()
	c.sessions.Delete(id)

	c.logger.Info("game creation cancelled",
		zap.String("session", id),
		zap.String("player", player),
	)
	if len(invited) > 0 {
		envs = append(envs, Envelope{To: invited, Event: &gamev1.ServerEvent{Type: gamev1.EventInvitationCancelled, SessionID: id}})
	}
	if len(others) > 0 {
		envs = append(envs, Envelope{To: others, Event: &gamev1.ServerEvent{Type: gamev1.EventGameEnded, SessionID: id, Reason: ReasonGameCancelled}})
	}
	return envs, nil
}

// CancelInvitation withdraws player's pending invitation to sessionID.
func (c *Coordinator) CancelInvitation(player, sessionID string) ([]Envelope, error) {
	s, err := c.lockSession(sessionID)
	if err != nil {
		return nil, err
	}
	defer s.Unlock()

	if !s.Uninvite(player) {
		return nil, ErrNoPendingInvitation
	}
	audience := append([]string{player}, s.Invited()...)
	return []Envelope{{To: audience, Event: &gamev1.ServerEvent{Type: gamev1.EventInvitationCancelled, SessionID: s.ID()}}}, nil
}

// CancelJoinRequest takes player out of the matchmaking queue.
func (c *Coordinator) CancelJoinRequest(player string) ([]Envelope, error) {
	c.lobby.Lock()
	defer c.lobby.Unlock()

	if !c.queue.Remove(player) {
		return nil, ErrNotQueued
	}
	return []Envelope{to(player, &gamev1.ServerEvent{Type: gamev1.EventJoinRequestCancelled})}, nil
}

// MakeMove drops player's disc into column of sessionID.
//
// Postcondition: On success the turn passes to the opponent, both seats
// receive moveMade, and gameWon follows when the move completes a line.
// The session stays open after a win.
func (c *Coordinator) MakeMove(player, sessionID string, column int) ([]Envelope, error) {
	s, err := c.lockSession(sessionID)
	if err != nil {
		return nil, err
	}
	defer s.Unlock()

	if !s.HasPlayer(player) {
		return nil, ErrNotAParticipant
	}
	if s.Status() != session.StatusActive {
		return nil, ErrGameNotStarted
	}
	if s.Turn() != player {
		return nil, ErrNotYourTurn
	}

	row, line, err := s.Move(column)
	if err != nil {
		return nil, err
	}

	snap := snapshot(s)
	snap.Draw = line == nil && s.Board().Full()
	players := s.Players()

	c.logger.Debug("move made",
		zap.String("session", s.ID()),
		zap.String("player", player),
		zap.Int("row", row),
		zap.Int("column", column),
	)

	envs := []Envelope{{To: players, Event: &gamev1.ServerEvent{
		Type:      gamev1.EventMoveMade,
		SessionID: s.ID(),
		PlayerID:  player,
		Session:   snap,
	}}}
	if line != nil {
		c.logger.Info("game won",
			zap.String("session", s.ID()),
			zap.String("winner", player),
			zap.Int("line_length", len(line)),
		)
		envs = append(envs, Envelope{To: players, Event: &gamev1.ServerEvent{
			Type:        gamev1.EventGameWon,
			SessionID:   s.ID(),
			WinnerID:    player,
			WinningLine: wireLine(line),
			Session:     snap,
		}})
	}
	return envs, nil
}

// departure distinguishes a voluntary quit from a transport disconnect.
type departure int

const (
	departureQuit departure = iota
	departureDisconnect
)

func (d departure) reason() string {
	if d == departureDisconnect {
		return ReasonPlayerDisconnected
	}
	return ReasonPlayerQuit
}

// QuitGame removes player from every session they are seated in, the
// matchmaking queue, every invitation list, and the pending table.
func (c *Coordinator) QuitGame(player string) []Envelope {
	envs := c.leaveAll(player, departureQuit)
	return append(envs, to(player, &gamev1.ServerEvent{Type: gamev1.EventGameQuit}))
}

// Disconnect performs the same cleanup as QuitGame for a player whose
// connection has gone away. Nothing is addressed to the departed player.
func (c *Coordinator) Disconnect(player string) []Envelope {
	return c.leaveAll(player, departureDisconnect)
}

func (c *Coordinator) leaveAll(player string, how departure) []Envelope {
	c.lobby.Lock()
	defer c.lobby.Unlock()

	var envs []Envelope
	for _, s := range c.sessions.All() {
		envs = append(envs, c.leave(s, player, how)...)
	}
	c.queue.Remove(player)
	c.pending.Clear(player)
	return envs
}

// leave vacates player's seat in s. A session left without players is deleted.
//
// Precondition: the lobby lock is held.
func (c *Coordinator) leave(s *session.Session, player string, how departure) []Envelope {
	s.Lock()
	defer s.Unlock()

	if s.Ended() {
		return nil
	}
	s.Uninvite(player)
	if !s.RemovePlayer(player) {
		return nil
	}

	if s.PlayerCount() == 0 {
		audience := s.Invited()
		if how == departureQuit {
			audience = append(audience, player)
		}
		s.MarkEnded()
		c.sessions.Delete(s.ID())
		c.pending.ClearSession(s.ID())
		c.logger.Info("session ended",
			zap.String("session", s.ID()),
			zap.String("player", player),
			zap.String("reason", how.reason()),
		)
		if len(audience) == 0 {
			return nil
		}
		return []Envelope{{To: audience, Event: &gamev1.ServerEvent{
			Type:      gamev1.EventGameEnded,
			SessionID: s.ID(),
			Reason:    how.reason(),
		}}}
	}

	remaining := s.Players()
	c.logger.Info("player left session",
		zap.String("session", s.ID()),
		zap.String("player", player),
		zap.String("reason", how.reason()),
	)
	if how == departureDisconnect {
		return []Envelope{{To: remaining, Event: &gamev1.ServerEvent{
			Type:             gamev1.EventPlayerDisconnected,
			SessionID:        s.ID(),
			RemainingPlayers: remaining,
		}}}
	}
	return []Envelope{{To: remaining, Event: &gamev1.ServerEvent{
		Type:      gamev1.EventPlayerQuit,
		SessionID: s.ID(),
		PlayerID:  player,
		Session:   snapshot(s),
	}}}
}

// RejoinGame seats player in sessionID if a seat is free and re-announces
// the session to everyone seated.
func (c *Coordinator) RejoinGame(player, sessionID string) ([]Envelope, error) {
	c.lobby.Lock()
	defer c.lobby.Unlock()

	s, err := c.lockSession(sessionID)
	if err != nil {
		return nil, err
	}
	defer s.Unlock()

	if !s.HasPlayer(player) {
		if s.PlayerCount() >= session.MaxPlayers {
			return nil, ErrSessionFull
		}
		s.AddPlayer(player)
		s.Uninvite(player)
		if s.Status() == session.StatusActive {
			c.pending.ClearSession(s.ID())
		}
	}

	snap := snapshot(s)
	return []Envelope{
		{To: s.Players(), Event: &gamev1.ServerEvent{Type: gamev1.EventGameRejoined, SessionID: s.ID(), PlayerID: player, Session: snap}},
		to(player, &gamev1.ServerEvent{Type: gamev1.EventGameRejoined, SessionID: s.ID(), Session: snap}),
	}, nil
}

// Session returns a snapshot of sessionID.
//
// Postcondition: Returns (nil, false) if the session does not exist.
func (c *Coordinator) Session(sessionID string) (*gamev1.GameSnapshot, bool) {
	s, err := c.lockSession(sessionID)
	if err != nil {
		return nil, false
	}
	defer s.Unlock()
	return snapshot(s), true
}

// Stats counts sessions by status along with queue and pending sizes.
func (c *Coordinator) Stats() Stats {
	st := Stats{
		Queued:           c.queue.Len(),
		PendingCreations: c.pending.Len(),
	}
	for _, s := range c.sessions.All() {
		s.Lock()
		switch s.Status() {
		case session.StatusForming:
			st.Forming++
		case session.StatusActive:
			st.Active++
		}
		s.Unlock()
	}
	return st
}

// lockSession returns the live session for id with its lock held.
func (c *Coordinator) lockSession(id string) (*session.Session, error) {
	s, ok := c.sessions.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	s.Lock()
	if s.Ended() {
		s.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	return s, nil
}

// snapshot copies s into its wire form.
//
// Precondition: the session lock is held.
func snapshot(s *session.Session) *gamev1.GameSnapshot {
	return &gamev1.GameSnapshot{
		ID:      s.ID(),
		Players: s.Players(),
		Board:   s.Board().Cells(),
		Turn:    s.Turn(),
		Mode:    string(s.Mode()),
		Status:  string(s.Status()),
		Invited: s.Invited(),
	}
}

func wireLine(line board.Line) []gamev1.Cell {
	out := make([]gamev1.Cell, len(line))
	for i, c := range line {
		out[i] = gamev1.Cell{Row: c.Row, Col: c.Col}
	}
	return out
}

func to(player string, ev *gamev1.ServerEvent) Envelope {
	return Envelope{To: []string{player}, Event: ev}
}
