// Package telnet provides the line-oriented Telnet server and ANSI styling
// used by the Connect Four text frontend.
package telnet

import (
	"fmt"
	"strings"
)

// ANSI escape codes used by the frontend.
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	White   = "\033[37m"

	BrightBlack  = "\033[90m"
	BrightRed    = "\033[91m"
	BrightYellow = "\033[93m"
	BrightCyan   = "\033[96m"

	// ClearLine returns the cursor to column 0 and erases the line, so an
	// asynchronous notification can overwrite a pending prompt.
	ClearLine = "\r\033[K"
)

// Colorize wraps text with the given ANSI color code and a reset suffix.
//
// Precondition: color must be a valid ANSI escape sequence.
// Postcondition: Returns text wrapped with the color code and Reset.
func Colorize(color, text string) string {
	return color + text + Reset
}

// Colorf wraps a formatted string with the given ANSI color code.
func Colorf(color, format string, args ...any) string {
	return color + fmt.Sprintf(format, args...) + Reset
}

// StripANSI removes all ANSI escape sequences from a string.
//
// Postcondition: Returns text with all \033[...m sequences removed.
func StripANSI(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\033' && i+1 < len(s) && s[i+1] == '[' {
			if end := csiEnd(s, i+2); end >= 0 {
				i = end
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// csiEnd returns the index of the final byte of the control sequence whose
// parameters start at i, or -1 if the sequence is unterminated.
func csiEnd(s string, i int) int {
	for ; i < len(s); i++ {
		if s[i] >= 0x40 && s[i] <= 0x7e {
			return i
		}
	}
	return -1
}

// VisibleWidth returns the number of printable bytes in s once styling is removed.
func VisibleWidth(s string) int {
	return len(StripANSI(s))
}

// PadRight pads styled text with spaces to width printable columns.
func PadRight(s string, width int) string {
	if n := width - VisibleWidth(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}
