package service

import "github.com/web3anand/tictactoe-gameserver/internal/entity"

const (
	baseSkill       = 1000
	winRateWeight   = 800
	experienceCap   = 100
	experienceScale = 2
)

// ComputeSkill derives the matchmaking scalar from a stats snapshot:
// the base level, a win-rate term, and a small capped experience term.
// An identity with no games sits exactly at the base.
func ComputeSkill(stats *entity.PlayerStats) int {
	if stats == nil || stats.Games == 0 {
		return baseSkill
	}

	winRate := float64(stats.Wins) / float64(stats.Games)

	experience := stats.Games
	if experience > experienceCap {
		experience = experienceCap
	}

	return baseSkill + int(winRate*winRateWeight) + experience*experienceScale
}
