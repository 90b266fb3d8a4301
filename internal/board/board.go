package board

import (
	"fmt"

	"github.com/web3anand/tictactoe-gameserver/internal/apperror"
)

const (
	SymbolX   = "X"
	SymbolO   = "O"
	EmptyCell = ""
)

// Config fixes the grid size and the number of consecutive same-symbol
// cells required to win. Both are deployment constants; the engine stays
// parametric so it can be exercised at classic 3x3 as well.
type Config struct {
	Size      int
	WinLength int
}

// Board is a row-major N*N grid of cell symbols.
type Board []string

func New(conf Config) Board {
	return make(Board, conf.Size*conf.Size)
}

// Clone returns an independent copy of the board.
func (that Board) Clone() Board {
	copyBoard := make(Board, len(that))
	copy(copyBoard, that)

	return copyBoard
}

// ApplyMove places symbol on cell and returns the resulting board.
// The input board is never mutated.
func ApplyMove(gameBoard Board, cell int, symbol string) (Board, error) {
	if cell < 0 || cell >= len(gameBoard) {
		return nil, fmt.Errorf("%w: cell %d out of range", apperror.ErrIllegalMove, cell)
	}

	if gameBoard[cell] != EmptyCell {
		return nil, fmt.Errorf("%w: cell %d is occupied", apperror.ErrIllegalMove, cell)
	}

	next := gameBoard.Clone()
	next[cell] = symbol

	return next, nil
}

// Winner scans rows, then columns, then top-left to bottom-right
// diagonals, then top-right to bottom-left diagonals, and returns the
// symbol of the first completed line. A winning move ends the game at
// first detection, so simultaneous lines are not disambiguated.
func Winner(gameBoard Board, conf Config) string {
	if cells := WinningCells(gameBoard, conf); len(cells) > 0 {
		return gameBoard[cells[0]]
	}

	return EmptyCell
}

// WinningCells returns the cell indices of the first winning line found
// by the same scan Winner performs, or nil when no line is complete.
func WinningCells(gameBoard Board, conf Config) []int {
	size, winLen := conf.Size, conf.WinLength

	// rows, top to bottom, left to right
	for row := 0; row < size; row++ {
		for col := 0; col+winLen <= size; col++ {
			if cells := runAt(gameBoard, size, winLen, row, col, 0, 1); cells != nil {
				return cells
			}
		}
	}

	// columns
	for row := 0; row+winLen <= size; row++ {
		for col := 0; col < size; col++ {
			if cells := runAt(gameBoard, size, winLen, row, col, 1, 0); cells != nil {
				return cells
			}
		}
	}

	// diagonals, top-left to bottom-right
	for row := 0; row+winLen <= size; row++ {
		for col := 0; col+winLen <= size; col++ {
			if cells := runAt(gameBoard, size, winLen, row, col, 1, 1); cells != nil {
				return cells
			}
		}
	}

	// diagonals, top-right to bottom-left
	for row := 0; row+winLen <= size; row++ {
		for col := winLen - 1; col < size; col++ {
			if cells := runAt(gameBoard, size, winLen, row, col, 1, -1); cells != nil {
				return cells
			}
		}
	}

	return nil
}

// IsDraw reports a draw: every cell played and no winner.
func IsDraw(gameBoard Board, conf Config, moveCount int) bool {
	return moveCount == conf.Size*conf.Size && Winner(gameBoard, conf) == EmptyCell
}

// runAt checks one run of winLen cells starting at (row, col) and
// stepping by (dRow, dCol). It returns the run's indices when all cells
// hold the same non-empty symbol.
func runAt(gameBoard Board, size, winLen, row, col, dRow, dCol int) []int {
	first := gameBoard[row*size+col]
	if first == EmptyCell {
		return nil
	}

	cells := make([]int, 0, winLen)
	for step := 0; step < winLen; step++ {
		idx := (row+step*dRow)*size + (col + step*dCol)
		if gameBoard[idx] != first {
			return nil
		}
		cells = append(cells, idx)
	}

	return cells
}

// ToggleSymbol returns the opponent symbol.
func ToggleSymbol(symbol string) string {
	if symbol == SymbolX {
		return SymbolO
	}

	return SymbolX
}
