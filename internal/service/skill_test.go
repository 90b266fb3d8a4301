package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/web3anand/tictactoe-gameserver/internal/entity"
)

func TestComputeSkill(t *testing.T) {
	tests := []struct {
		name     string
		stats    *entity.PlayerStats
		expected int
	}{
		{
			name:     "Nil snapshot sits at the base level",
			stats:    nil,
			expected: 1000,
		},
		{
			name:     "A fresh identity sits at the base level",
			stats:    &entity.PlayerStats{},
			expected: 1000,
		},
		{
			name:     "Perfect record maxes the win-rate term",
			stats:    &entity.PlayerStats{Wins: 10, Games: 10},
			expected: 1000 + 800 + 20,
		},
		{
			name:     "Half the games won earns half the win-rate term",
			stats:    &entity.PlayerStats{Wins: 25, Games: 50},
			expected: 1000 + 400 + 100,
		},
		{
			name:     "Experience term caps at one hundred games",
			stats:    &entity.PlayerStats{Wins: 0, Games: 500},
			expected: 1000 + 200,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, ComputeSkill(test.stats))
		})
	}
}
