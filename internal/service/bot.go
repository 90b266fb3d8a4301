package service

import (
	"errors"
	"math/rand"

	"github.com/web3anand/tictactoe-gameserver/internal/board"
)

var ErrNoAvailableMoves = errors.New("no available moves")

// BotService picks a move for an automated participant. The room manager
// only knows that "something" will respond to a turn; this is that
// something for bot slots.
type BotService interface {
	PickCell(gameBoard board.Board, conf board.Config, symbol string) (int, error)
}

type botService struct{}

func NewBotService() BotService {
	return &botService{}
}

// PickCell takes a winning cell when one exists, blocks the opponent's
// winning cell otherwise, and falls back to a random empty cell.
func (that *botService) PickCell(gameBoard board.Board, conf board.Config, symbol string) (int, error) {
	available := make([]int, 0, len(gameBoard))
	for i, cell := range gameBoard {
		if cell == board.EmptyCell {
			available = append(available, i)
		}
	}

	if len(available) == 0 {
		return 0, ErrNoAvailableMoves
	}

	if cell, ok := winningCellFor(gameBoard, conf, available, symbol); ok {
		return cell, nil
	}

	if cell, ok := winningCellFor(gameBoard, conf, available, board.ToggleSymbol(symbol)); ok {
		return cell, nil
	}

	return available[rand.Intn(len(available))], nil //nolint:gosec // not security sensitive
}

func winningCellFor(gameBoard board.Board, conf board.Config, available []int, symbol string) (int, bool) {
	for _, cell := range available {
		next, err := board.ApplyMove(gameBoard, cell, symbol)
		if err != nil {
			continue
		}
		if board.Winner(next, conf) == symbol {
			return cell, true
		}
	}

	return 0, false
}
