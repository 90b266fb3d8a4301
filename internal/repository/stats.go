package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/web3anand/tictactoe-gameserver/internal/entity"
)

const (
	fieldWins   = "wins"
	fieldGames  = "games"
	fieldPoints = "points"
	fieldStreak = "streak"
)

// StatsRepository is the persistence side of game finalization: it
// records outcomes and serves the snapshot the matchmaker derives skill
// levels from. An identity with no recorded games yields a zero snapshot.
type StatsRepository interface {
	Snapshot(ctx context.Context, identityID string) (*entity.PlayerStats, error)
	RecordResult(ctx context.Context, winnerID, loserID string, points int) error
	RecordDraw(ctx context.Context, firstID, secondID string) error
}

type dbStats struct {
	client *redis.Client
}

func NewStatsRepository(client *redis.Client) StatsRepository {
	return &dbStats{
		client: client,
	}
}

func (that *dbStats) Snapshot(ctx context.Context, identityID string) (*entity.PlayerStats, error) {
	fields, err := that.client.HGetAll(ctx, statsKey(identityID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get stats snapshot: %w", err)
	}

	stats := &entity.PlayerStats{}
	stats.Wins = parseField(fields, fieldWins)
	stats.Games = parseField(fields, fieldGames)
	stats.Points = parseField(fields, fieldPoints)
	stats.Streak = parseField(fields, fieldStreak)

	return stats, nil
}

// RecordResult counts a win with points for the winner and a played game
// with a reset streak for the loser, in one round trip.
func (that *dbStats) RecordResult(ctx context.Context, winnerID, loserID string, points int) error {
	pipe := that.client.TxPipeline()

	if winnerID != "" {
		winnerKey := statsKey(winnerID)
		pipe.HIncrBy(ctx, winnerKey, fieldWins, 1)
		pipe.HIncrBy(ctx, winnerKey, fieldGames, 1)
		pipe.HIncrBy(ctx, winnerKey, fieldPoints, int64(points))
		pipe.HIncrBy(ctx, winnerKey, fieldStreak, 1)
	}

	if loserID != "" {
		loserKey := statsKey(loserID)
		pipe.HIncrBy(ctx, loserKey, fieldGames, 1)
		pipe.HSet(ctx, loserKey, fieldStreak, 0)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record game result: %w", err)
	}

	return nil
}

// RecordDraw counts a played game for both sides, no points awarded.
func (that *dbStats) RecordDraw(ctx context.Context, firstID, secondID string) error {
	pipe := that.client.TxPipeline()

	for _, id := range []string{firstID, secondID} {
		if id == "" {
			continue
		}
		pipe.HIncrBy(ctx, statsKey(id), fieldGames, 1)
		pipe.HSet(ctx, statsKey(id), fieldStreak, 0)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record draw: %w", err)
	}

	return nil
}

func statsKey(identityID string) string {
	return "stats:" + identityID
}

func parseField(fields map[string]string, name string) int {
	value, err := strconv.Atoi(fields[name])
	if err != nil {
		return 0
	}

	return value
}
