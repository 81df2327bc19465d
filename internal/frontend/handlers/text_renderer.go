package handlers

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/connectfour/internal/frontend/telnet"
	"github.com/cory-johannsen/connectfour/internal/game/board"
	gamev1 "github.com/cory-johannsen/connectfour/internal/gameserver/gamev1"
)

// seatDiscs are the disc glyphs for the first and second seat.
var seatDiscs = [2]string{
	telnet.Colorize(telnet.BrightRed, "X"),
	telnet.Colorize(telnet.BrightYellow, "O"),
}

// formerDisc marks a disc whose owner has left the game.
var formerDisc = telnet.Colorize(telnet.BrightBlack, "#")

// RenderBoard draws snap's grid with column numbers, one string per line.
// Cells in highlight are drawn bold.
func RenderBoard(snap *gamev1.GameSnapshot, highlight []gamev1.Cell) []string {
	marked := make(map[gamev1.Cell]bool, len(highlight))
	for _, c := range highlight {
		marked[c] = true
	}

	width := 0
	if len(snap.Board) > 0 {
		width = len(snap.Board[0])
	}

	header := make([]string, width)
	for c := range header {
		header[c] = fmt.Sprintf("%d", c+1)
	}
	lines := []string{"  " + telnet.Colorize(telnet.Cyan, strings.Join(header, " "))}

	for r, row := range snap.Board {
		cells := make([]string, len(row))
		for c, owner := range row {
			cells[c] = disc(snap, owner)
			if marked[gamev1.Cell{Row: r, Col: c}] {
				cells[c] = telnet.Bold + cells[c] + telnet.Reset
			}
		}
		lines = append(lines, " |"+strings.Join(cells, " ")+"|")
	}
	lines = append(lines, " +"+strings.Repeat("-", width*2-1)+"+")
	return lines
}

func disc(snap *gamev1.GameSnapshot, owner *string) string {
	if owner == nil {
		return telnet.Colorize(telnet.Dim, ".")
	}
	for i, p := range snap.Players {
		if p == *owner && i < len(seatDiscs) {
			return seatDiscs[i]
		}
	}
	return formerDisc
}

// RenderStatus summarises snap from self's point of view.
func RenderStatus(snap *gamev1.GameSnapshot, self string) string {
	var turn string
	switch {
	case snap.Draw:
		turn = "The board is full; it's a draw."
	case snap.Status != "active":
		turn = "Waiting for players."
	case snap.Turn == self:
		turn = telnet.Colorize(telnet.Green, "Your turn.")
	default:
		turn = fmt.Sprintf("Waiting for %s.", who(snap.Turn, self))
	}
	return fmt.Sprintf("Game %s (%s, %s). %s", snap.ID, snap.Mode, snap.Status, turn)
}

// RenderEvent turns a server event into the lines shown to self. A nil
// result means the event has nothing to show.
func RenderEvent(ev *gamev1.ServerEvent, self string) []string {
	switch ev.Type {
	case gamev1.EventConnected:
		return []string{telnet.Colorf(telnet.Cyan, "Connected. Your player id is %s.", ev.PlayerID)}

	case gamev1.EventGameCreated:
		if ev.Session != nil && ev.Session.Mode == "manual" {
			return []string{
				telnet.Colorf(telnet.Green, "Game %s created.", ev.SessionID),
				"Invite someone with: invite <player-id>, or share the game id.",
			}
		}
		return []string{telnet.Colorf(telnet.Green, "Matched into game %s.", ev.SessionID)}

	case gamev1.EventWaitingForOpponent:
		return []string{telnet.Colorf(telnet.Yellow, "Game %s is waiting for an opponent...", ev.SessionID)}

	case gamev1.EventWaitingToJoinGame:
		return []string{telnet.Colorize(telnet.Yellow, "Waiting for someone to start a quick game...")}

	case gamev1.EventGameStarted:
		return withBoard(ev, self, nil, telnet.Colorf(telnet.Green, "Game %s started!", ev.SessionID))

	case gamev1.EventGameInvitation:
		return []string{
			telnet.Colorf(telnet.Magenta, "%s invited you to game %s.", ev.InviterID, ev.SessionID),
			fmt.Sprintf("Type accept %s to play, or decline %s.", ev.SessionID, ev.SessionID),
		}

	case gamev1.EventInvitationCancelled:
		return []string{telnet.Colorf(telnet.Yellow, "Invitation to game %s cancelled.", ev.SessionID)}

	case gamev1.EventGameCreationCancelled:
		return []string{telnet.Colorf(telnet.Yellow, "Game %s cancelled.", ev.SessionID)}

	case gamev1.EventJoinRequestCancelled:
		return []string{telnet.Colorize(telnet.Yellow, "You are no longer waiting for a game.")}

	case gamev1.EventMoveMade:
		return withBoard(ev, self, nil, fmt.Sprintf("%s dropped a disc in game %s.", who(ev.PlayerID, self), ev.SessionID))

	case gamev1.EventGameWon:
		headline := telnet.Colorf(telnet.BrightYellow, "%s won game %s!", who(ev.WinnerID, self), ev.SessionID)
		if ev.WinnerID == self {
			headline = telnet.Colorf(telnet.BrightYellow, "You won game %s!", ev.SessionID)
		}
		return []string{headline, "Winning line: " + RenderLine(ev.WinningLine)}

	case gamev1.EventPlayerQuit:
		return []string{telnet.Colorf(telnet.Yellow, "%s left game %s.", who(ev.PlayerID, self), ev.SessionID)}

	case gamev1.EventGameQuit:
		return []string{telnet.Colorize(telnet.Cyan, "You left all your games.")}

	case gamev1.EventPlayerDisconnected:
		return []string{telnet.Colorf(telnet.Yellow, "Your opponent in game %s disconnected.", ev.SessionID)}

	case gamev1.EventGameEnded:
		return []string{telnet.Colorf(telnet.Yellow, "Game %s ended: %s.", ev.SessionID, ev.Reason)}

	case gamev1.EventGameRejoined:
		switch ev.PlayerID {
		case "":
			return withBoard(ev, self, nil, telnet.Colorf(telnet.Green, "Rejoined game %s.", ev.SessionID))
		case self:
			return nil
		default:
			return []string{fmt.Sprintf("%s rejoined game %s.", ev.PlayerID, ev.SessionID)}
		}

	case gamev1.EventError:
		return []string{RenderError(ev.Message)}
	}
	return []string{telnet.Colorf(telnet.Dim, "[%s]", ev.Type)}
}

// RenderError formats a rejection.
func RenderError(msg string) string {
	return telnet.Colorf(telnet.Red, "Error: %s", msg)
}

// RenderLine lists cells as 1-based (column, row-from-bottom) pairs, the way
// players count them.
func RenderLine(line []gamev1.Cell) string {
	parts := make([]string, len(line))
	for i, c := range line {
		parts[i] = fmt.Sprintf("(%d,%d)", c.Col+1, board.Rows-c.Row)
	}
	return strings.Join(parts, " ")
}

func withBoard(ev *gamev1.ServerEvent, self string, highlight []gamev1.Cell, headline string) []string {
	if ev.Session == nil {
		return []string{headline}
	}
	lines := append([]string{headline}, RenderBoard(ev.Session, highlight)...)
	return append(lines, RenderStatus(ev.Session, self))
}

func who(player, self string) string {
	if player == self {
		return "You"
	}
	return player
}
