package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/web3anand/tictactoe-gameserver/testing/suite"
)

func TestStatsRepository_Snapshot(t *testing.T) {
	t.Run("Snapshot_Empty", func(t *testing.T) {
		ctx, st := suite.New(t)

		statsRepo := NewStatsRepository(st.Storage)

		// When: Snapshot is called for an identity with no history
		stats, err := statsRepo.Snapshot(ctx, "fresh-player")

		// Then: a zero snapshot is returned, not an error
		require.NoError(t, err)
		assert.Equal(t, 0, stats.Wins)
		assert.Equal(t, 0, stats.Games)
		assert.Equal(t, 0, stats.Points)
		assert.Equal(t, 0, stats.Streak)
	})
}

func TestStatsRepository_RecordResult(t *testing.T) {
	t.Run("RecordResult_UpdatesBothSides", func(t *testing.T) {
		ctx, st := suite.New(t)

		statsRepo := NewStatsRepository(st.Storage)

		// Given: a recorded win for alice over bob
		err := statsRepo.RecordResult(ctx, "alice", "bob", 187)
		require.NoError(t, err)

		// When: both snapshots are read back
		winner, err := statsRepo.Snapshot(ctx, "alice")
		require.NoError(t, err)
		loser, err := statsRepo.Snapshot(ctx, "bob")
		require.NoError(t, err)

		// Then: the winner gained a win, points and streak; the loser only a game
		assert.Equal(t, 1, winner.Wins)
		assert.Equal(t, 1, winner.Games)
		assert.Equal(t, 187, winner.Points)
		assert.Equal(t, 1, winner.Streak)

		assert.Equal(t, 0, loser.Wins)
		assert.Equal(t, 1, loser.Games)
		assert.Equal(t, 0, loser.Points)
		assert.Equal(t, 0, loser.Streak)
	})

	t.Run("RecordResult_StreakGrowsAndResets", func(t *testing.T) {
		ctx, st := suite.New(t)

		statsRepo := NewStatsRepository(st.Storage)

		// Given: alice wins twice in a row
		require.NoError(t, statsRepo.RecordResult(ctx, "alice", "bob", 150))
		require.NoError(t, statsRepo.RecordResult(ctx, "alice", "bob", 150))

		stats, err := statsRepo.Snapshot(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Streak)

		// When: bob beats alice
		require.NoError(t, statsRepo.RecordResult(ctx, "bob", "alice", 150))

		// Then: alice's streak resets while her wins stay
		stats, err = statsRepo.Snapshot(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, 0, stats.Streak)
		assert.Equal(t, 2, stats.Wins)
		assert.Equal(t, 3, stats.Games)
	})

	t.Run("RecordResult_BotLoserOnlyCountsWinner", func(t *testing.T) {
		ctx, st := suite.New(t)

		statsRepo := NewStatsRepository(st.Storage)

		// When: a win over a bot is recorded with no loser ID
		err := statsRepo.RecordResult(ctx, "alice", "", 150)

		// Then: only the winner's stats move
		require.NoError(t, err)

		stats, err := statsRepo.Snapshot(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Wins)
		assert.Equal(t, 150, stats.Points)
	})
}

func TestStatsRepository_RecordDraw(t *testing.T) {
	ctx, st := suite.New(t)

	statsRepo := NewStatsRepository(st.Storage)

	// Given: alice on a one-win streak
	require.NoError(t, statsRepo.RecordResult(ctx, "alice", "bob", 150))

	// When: the next game between them is a draw
	err := statsRepo.RecordDraw(ctx, "alice", "bob")
	require.NoError(t, err)

	// Then: both played a game, nobody scored, and the streak is gone
	first, err := statsRepo.Snapshot(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, first.Games)
	assert.Equal(t, 150, first.Points)
	assert.Equal(t, 0, first.Streak)

	second, err := statsRepo.Snapshot(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, second.Games)
	assert.Equal(t, 0, second.Wins)
}
