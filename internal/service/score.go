package service

import "math"

const (
	speedBonusRate     = 0.25
	streakBonusRate    = 0.10
	streakBonusMaximum = 0.50
)

// WinnerPoints computes the points awarded to a winner:
// floor(basePoints * multiplier), raised by a speed bonus when the win
// took the minimum possible number of own moves and by a streak bonus of
// 10% per consecutive prior win, capped at 50%. Losers and draws score
// nothing.
func WinnerPoints(basePoints int, multiplier float64, winnerMoves, winLength, streak int) int {
	points := float64(basePoints) * multiplier

	if winnerMoves <= winLength {
		points += points * speedBonusRate
	}

	streakBonus := float64(streak) * streakBonusRate
	if streakBonus > streakBonusMaximum {
		streakBonus = streakBonusMaximum
	}
	points += points * streakBonus

	return int(math.Floor(points))
}
