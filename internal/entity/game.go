package entity

import "fmt"

type Mark string

const (
	PlayerX   Mark = "X"
	PlayerO   Mark = "O"
	EmptyCell Mark = ""
)

const BoardSize = 9

// WinCombos - the 8 lines of the board: 3 rows, 3 columns, 2 diagonals.
var WinCombos = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Board is a row-major 3x3 snapshot. Being an array it is copied on assignment.
type Board [BoardSize]Mark

// Winner returns the mark completing any line, or EmptyCell when there is none.
func (that Board) Winner() Mark {
	for _, combo := range WinCombos {
		a, b, c := that[combo[0]], that[combo[1]], that[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return a
		}
	}

	return EmptyCell
}

// Filled counts the cells holding a mark.
func (that Board) Filled() int {
	filled := 0
	for _, cell := range that {
		if cell != EmptyCell {
			filled++
		}
	}

	return filled
}

// IsFull - every cell holds a mark.
func (that Board) IsFull() bool {
	return that.Filled() == BoardSize
}

// IsDraw - the board is full and nobody has completed a line.
func (that Board) IsDraw() bool {
	return that.IsFull() && that.Winner() == EmptyCell
}

// IsEmptyCell reports whether cell is on the board and holds no mark.
// Cells outside 0..8 are never empty; range errors are the caller's to report.
func (that Board) IsEmptyCell(cell int) bool {
	if cell < 0 || cell >= BoardSize {
		return false
	}

	return that[cell] == EmptyCell
}

// NextPlayer - X moves from even snapshots, O from odd ones.
func NextPlayer(move int) Mark {
	if move%2 == 0 {
		return PlayerX
	}
	return PlayerO
}

// StatusText describes the board for a player: the winner if there is one,
// otherwise who moves next at the given snapshot index.
func StatusText(board Board, move int) string {
	if winner := board.Winner(); winner != EmptyCell {
		return fmt.Sprintf("Winner: %s", winner)
	}

	return fmt.Sprintf("Next player: %s", NextPlayer(move))
}

func MoveLabel(move int) string {
	if move == 0 {
		return "Go to game start"
	}

	return fmt.Sprintf("Go to move #%d", move)
}
