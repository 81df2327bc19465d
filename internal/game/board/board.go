// Package board implements the fixed 6x7 Connect Four grid: gravity-drop
// placement and the four-axis line scan used to detect a win.
package board

import "errors"

// Grid dimensions and the run length that wins.
const (
	Rows    = 6
	Columns = 7
	ToWin   = 4
)

var (
	// ErrColumnFull is returned by Drop when the target column has no empty cell.
	ErrColumnFull = errors.New("column is full")
	// ErrInvalidColumn is returned by Drop when the column is outside 0..Columns-1.
	ErrInvalidColumn = errors.New("column out of range")
)

// Cell identifies one board coordinate. Row 0 is the top row.
type Cell struct {
	Row int `json:"row" yaml:"row"`
	Col int `json:"col" yaml:"col"`
}

// Line is an ordered run of contiguous cells owned by one player.
type Line []Cell

// axis is a unit step; the backward direction is its negation.
type axis struct {
	dRow, dCol int
}

// axes are scanned in this order and the first qualifying one is reported.
// Vertical steps upward so a column win reads bottom to top.
var axes = [4]axis{
	{dRow: 0, dCol: 1},  // horizontal
	{dRow: -1, dCol: 0}, // vertical
	{dRow: 1, dCol: 1},  // diagonal down-right
	{dRow: -1, dCol: 1}, // diagonal up-right (same line as down-left)
}

// Board is a 6x7 grid of player IDs. The empty string marks an empty cell.
//
// Board is not safe for concurrent use; the owning session serializes access.
type Board struct {
	cells [Rows][Columns]string
	moves int
}

// New returns an empty board.
func New() *Board {
	return &Board{}
}

// At returns the owner of (row, col), or "" when the cell is empty or out of bounds.
func (b *Board) At(row, col int) string {
	if !inBounds(row, col) {
		return ""
	}
	return b.cells[row][col]
}

// Drop places player in the lowest empty row of column.
//
// Precondition: player must be non-empty.
// Postcondition: Returns the row written, or ErrInvalidColumn/ErrColumnFull with the board unchanged.
func (b *Board) Drop(column int, player string) (int, error) {
	if column < 0 || column >= Columns {
		return -1, ErrInvalidColumn
	}
	for row := Rows - 1; row >= 0; row-- {
		if b.cells[row][column] == "" {
			b.cells[row][column] = player
			b.moves++
			return row, nil
		}
	}
	return -1, ErrColumnFull
}

// DetectWin scans the four axes through (row, col) for a run of at least
// ToWin cells owned by player.
//
// For each axis it walks up to ToWin-1 cells forward and backward, stopping
// at the board edge or the first cell not owned by player. The reported line
// is the backward run reversed, then the origin, then the forward run.
//
// Postcondition: Returns (line, true) for the first qualifying axis, or (nil, false).
func (b *Board) DetectWin(row, col int, player string) (Line, bool) {
	if player == "" || b.At(row, col) != player {
		return nil, false
	}
	for _, ax := range axes {
		backward := b.run(row, col, -ax.dRow, -ax.dCol, player)
		forward := b.run(row, col, ax.dRow, ax.dCol, player)
		if len(backward)+1+len(forward) < ToWin {
			continue
		}
		line := make(Line, 0, len(backward)+1+len(forward))
		for i := len(backward) - 1; i >= 0; i-- {
			line = append(line, backward[i])
		}
		line = append(line, Cell{Row: row, Col: col})
		line = append(line, forward...)
		return line, true
	}
	return nil, false
}

// run collects up to ToWin-1 consecutive cells owned by player, starting one
// step from (row, col) in direction (dRow, dCol).
func (b *Board) run(row, col, dRow, dCol int, player string) []Cell {
	var cells []Cell
	for i := 1; i < ToWin; i++ {
		r, c := row+dRow*i, col+dCol*i
		if !inBounds(r, c) || b.cells[r][c] != player {
			break
		}
		cells = append(cells, Cell{Row: r, Col: c})
	}
	return cells
}

// Full reports whether every cell is occupied.
func (b *Board) Full() bool {
	return b.moves == Rows*Columns
}

// MoveCount returns the number of occupied cells.
func (b *Board) MoveCount() int {
	return b.moves
}

// Cells returns a copy of the grid as row-major slices, with nil for empty cells.
func (b *Board) Cells() [][]*string {
	out := make([][]*string, Rows)
	for r := 0; r < Rows; r++ {
		out[r] = make([]*string, Columns)
		for c := 0; c < Columns; c++ {
			if b.cells[r][c] != "" {
				id := b.cells[r][c]
				out[r][c] = &id
			}
		}
	}
	return out
}

func inBounds(row, col int) bool {
	return row >= 0 && row < Rows && col >= 0 && col < Columns
}
