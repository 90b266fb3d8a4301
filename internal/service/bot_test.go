package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/web3anand/tictactoe-gameserver/internal/board"
)

func classicBoard(rows ...string) board.Board {
	gameBoard := make(board.Board, 0, 9)
	for _, row := range rows {
		for _, cell := range row {
			if cell == '.' {
				gameBoard = append(gameBoard, board.EmptyCell)
			} else {
				gameBoard = append(gameBoard, string(cell))
			}
		}
	}

	return gameBoard
}

func TestBotService_PickCell(t *testing.T) {
	conf := board.Config{Size: 3, WinLength: 3}
	bot := NewBotService()

	t.Run("Takes a winning cell when one exists", func(t *testing.T) {
		// Given: O can complete the middle row at cell 5
		gameBoard := classicBoard(
			"XX.",
			"OO.",
			"...",
		)

		// When: the bot picks for O
		cell, err := bot.PickCell(gameBoard, conf, board.SymbolO)

		// Then: it takes the win over merely blocking X
		require.NoError(t, err)
		assert.Equal(t, 5, cell)
	})

	t.Run("Blocks the opponent's winning cell", func(t *testing.T) {
		// Given: X threatens the top row at cell 2 and O has no win
		gameBoard := classicBoard(
			"XX.",
			".O.",
			"...",
		)

		// When: the bot picks for O
		cell, err := bot.PickCell(gameBoard, conf, board.SymbolO)

		// Then: it blocks
		require.NoError(t, err)
		assert.Equal(t, 2, cell)
	})

	t.Run("Plays an empty cell when nothing is at stake", func(t *testing.T) {
		// Given: a single X in the corner
		gameBoard := classicBoard(
			"X..",
			"...",
			"...",
		)

		// When: the bot picks for O
		cell, err := bot.PickCell(gameBoard, conf, board.SymbolO)

		// Then: it lands on some empty cell
		require.NoError(t, err)
		assert.Equal(t, board.EmptyCell, gameBoard[cell])
	})

	t.Run("Fails on a full board", func(t *testing.T) {
		// Given: no empty cell anywhere
		gameBoard := classicBoard(
			"XOX",
			"XOO",
			"OXX",
		)

		// When: the bot picks
		_, err := bot.PickCell(gameBoard, conf, board.SymbolO)

		// Then: there is nothing to play
		assert.ErrorIs(t, err, ErrNoAvailableMoves)
	})
}
