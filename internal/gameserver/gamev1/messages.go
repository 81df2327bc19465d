// Package gamev1 defines the wire messages exchanged between clients and the
// game server, the JSON codec used to carry them over gRPC, and the
// GameService stream declaration.
package gamev1

// Intent names carried in ClientMessage.Type.
const (
	IntentCreateGame         = "createGame"
	IntentJoinGame           = "joinGame"
	IntentInvitePlayer       = "invitePlayer"
	IntentAcceptInvitation   = "acceptInvitation"
	IntentCancelGameCreation = "cancelGameCreation"
	IntentCancelInvitation   = "cancelInvitation"
	IntentCancelJoinRequest  = "cancelJoinRequest"
	IntentMakeMove           = "makeMove"
	IntentQuitGame           = "quitGame"
	IntentRejoinGame         = "rejoinGame"
	IntentDisconnect         = "disconnect"
)

// Notification names carried in ServerEvent.Type.
const (
	EventConnected             = "connected"
	EventGameCreated           = "gameCreated"
	EventWaitingForOpponent    = "waitingForOpponent"
	EventWaitingToJoinGame     = "waitingToJoinGame"
	EventGameStarted           = "gameStarted"
	EventGameInvitation        = "gameInvitation"
	EventInvitationCancelled   = "invitationCancelled"
	EventGameCreationCancelled = "gameCreationCancelled"
	EventJoinRequestCancelled  = "joinRequestCancelled"
	EventMoveMade              = "moveMade"
	EventGameWon               = "gameWon"
	EventPlayerQuit            = "playerQuit"
	EventGameQuit              = "gameQuit"
	EventPlayerDisconnected    = "playerDisconnected"
	EventGameEnded             = "gameEnded"
	EventGameRejoined          = "gameRejoined"
	EventError                 = "error"
)

// ClientMessage is one player intent.
type ClientMessage struct {
	// RequestID is echoed on an error reply so clients can correlate it.
	RequestID string `json:"requestId,omitempty"`
	// Type is one of the Intent* names.
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	TargetID  string `json:"targetId,omitempty"`
	Column    int    `json:"column"`
	Manual    bool   `json:"manual,omitempty"`
}

// Cell is a board coordinate; row 0 is the top row.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// GameSnapshot is the session view embedded in notifications.
type GameSnapshot struct {
	ID      string      `json:"id"`
	Players []string    `json:"players"`
	Board   [][]*string `json:"board"`
	Turn    string      `json:"turn"`
	Mode    string      `json:"mode"`
	Status  string      `json:"status"`
	Invited []string    `json:"invited,omitempty"`
	Draw    bool        `json:"draw,omitempty"`
}

// ServerEvent is one notification delivered to a player.
type ServerEvent struct {
	RequestID        string        `json:"requestId,omitempty"`
	Type             string        `json:"type"`
	PlayerID         string        `json:"playerId,omitempty"`
	SessionID        string        `json:"sessionId,omitempty"`
	InviterID        string        `json:"inviterId,omitempty"`
	WinnerID         string        `json:"winnerId,omitempty"`
	WinningLine      []Cell        `json:"winningLine,omitempty"`
	Session          *GameSnapshot `json:"session,omitempty"`
	RemainingPlayers []string      `json:"remainingPlayers,omitempty"`
	Reason           string        `json:"reason,omitempty"`
	Message          string        `json:"message,omitempty"`
}
