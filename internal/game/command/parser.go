package command

import "strings"

// ParseResult is one input line split into a command word and its arguments.
type ParseResult struct {
	// Command is lowercased; arguments keep their case since game and player
	// ids are case sensitive.
	Command string
	Args    []string
}

// Parse splits line on whitespace. A line that starts with a number is a
// move: "4" and "4 game-1" parse as "move 4" and "move 4 game-1", so a player
// in a game can just type the column.
//
// Postcondition: A blank line yields an empty Command and nil Args.
func Parse(line string) ParseResult {
	fields := strings.Fields(line)
	switch {
	case len(fields) == 0:
		return ParseResult{}
	case isNumber(fields[0]):
		return ParseResult{Command: "move", Args: fields}
	case len(fields) == 1:
		return ParseResult{Command: strings.ToLower(fields[0])}
	}
	return ParseResult{Command: strings.ToLower(fields[0]), Args: fields[1:]}
}

func isNumber(word string) bool {
	for i := 0; i < len(word); i++ {
		if word[i] < '0' || word[i] > '9' {
			return false
		}
	}
	return word != ""
}
