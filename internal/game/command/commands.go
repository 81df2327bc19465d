// Package command provides the command registry, parser, and the built-in
// commands of the text frontend.
package command

// Categories for organizing commands in help output.
const (
	CategoryLobby  = "lobby"
	CategoryGame   = "game"
	CategorySystem = "system"
)

// Handler identifiers. Game and lobby handlers map to a server intent; system
// handlers are answered by the frontend itself.
const (
	HandlerCreate   = "create"
	HandlerJoin     = "join"
	HandlerInvite   = "invite"
	HandlerAccept   = "accept"
	HandlerDecline  = "decline"
	HandlerCancel   = "cancel"
	HandlerWithdraw = "withdraw"
	HandlerMove     = "move"
	HandlerLeave    = "leave"
	HandlerRejoin   = "rejoin"
	HandlerBoard    = "board"
	HandlerWhoami   = "whoami"
	HandlerHelp     = "help"
	HandlerQuit     = "quit"
)

// Command defines a player-invocable command.
type Command struct {
	// Name is the canonical command name.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Usage is the argument synopsis shown in help.
	Usage string
	// Help is the short help text displayed to players.
	Help string
	// Category groups the command (lobby, game, system).
	Category string
	// Handler identifies the intent builder or local handler.
	Handler string
}

// BuiltinCommands returns all built-in commands.
func BuiltinCommands() []Command {
	return []Command{
		{Name: "create", Aliases: []string{"new"}, Usage: "[manual]", Help: "Start a quick game, or a manual game you invite people to", Category: CategoryLobby, Handler: HandlerCreate},
		{Name: "join", Aliases: []string{"j"}, Usage: "[game]", Help: "Join a game by id, or wait for the next quick game", Category: CategoryLobby, Handler: HandlerJoin},
		{Name: "invite", Aliases: []string{"inv"}, Usage: "<player> [game]", Help: "Invite a player to your manual game", Category: CategoryLobby, Handler: HandlerInvite},
		{Name: "accept", Aliases: nil, Usage: "<game>", Help: "Accept an invitation", Category: CategoryLobby, Handler: HandlerAccept},
		{Name: "decline", Aliases: nil, Usage: "<game>", Help: "Decline an invitation", Category: CategoryLobby, Handler: HandlerDecline},
		{Name: "cancel", Aliases: nil, Usage: "", Help: "Cancel the game you are creating", Category: CategoryLobby, Handler: HandlerCancel},
		{Name: "withdraw", Aliases: []string{"unjoin"}, Usage: "", Help: "Stop waiting for a quick game", Category: CategoryLobby, Handler: HandlerWithdraw},

		{Name: "move", Aliases: []string{"drop", "m"}, Usage: "<column 1-7> [game]", Help: "Drop a disc into a column; typing just the column works too", Category: CategoryGame, Handler: HandlerMove},
		{Name: "leave", Aliases: []string{"forfeit"}, Usage: "", Help: "Leave every game you are in", Category: CategoryGame, Handler: HandlerLeave},
		{Name: "rejoin", Aliases: nil, Usage: "<game>", Help: "Resubscribe to a game you are still seated in", Category: CategoryGame, Handler: HandlerRejoin},
		{Name: "board", Aliases: []string{"b", "look"}, Usage: "[game]", Help: "Show the board", Category: CategoryGame, Handler: HandlerBoard},

		{Name: "whoami", Aliases: []string{"id"}, Usage: "", Help: "Show your player id", Category: CategorySystem, Handler: HandlerWhoami},
		{Name: "help", Aliases: []string{"?"}, Usage: "", Help: "Show available commands", Category: CategorySystem, Handler: HandlerHelp},
		{Name: "quit", Aliases: []string{"exit"}, Usage: "", Help: "Disconnect", Category: CategorySystem, Handler: HandlerQuit},
	}
}

// IsLocal reports whether the handler is answered without contacting the
// server.
func IsLocal(handler string) bool {
	switch handler {
	case HandlerBoard, HandlerWhoami, HandlerHelp, HandlerQuit:
		return true
	default:
		return false
	}
}
