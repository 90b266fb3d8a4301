package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/web3anand/tictactoe-gameserver/internal/board"
	"github.com/web3anand/tictactoe-gameserver/internal/config"
	"github.com/web3anand/tictactoe-gameserver/internal/matchmaker"
	"github.com/web3anand/tictactoe-gameserver/internal/notifier"
	"github.com/web3anand/tictactoe-gameserver/internal/repository"
	"github.com/web3anand/tictactoe-gameserver/internal/repository/storage"
	"github.com/web3anand/tictactoe-gameserver/internal/room"
	"github.com/web3anand/tictactoe-gameserver/internal/service"
	"github.com/web3anand/tictactoe-gameserver/internal/session"
	"github.com/web3anand/tictactoe-gameserver/transport/rest"
	"github.com/web3anand/tictactoe-gameserver/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

const (
	roomSweepInterval   = 15 * time.Second
	ticketSweepInterval = 30 * time.Second
)

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.New(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	identityRepo := repository.NewIdentityRepository(redisStorage.Connection)
	statsRepo := repository.NewStatsRepository(redisStorage.Connection)

	sink := notifier.New(logger, redisStorage.Connection)
	registry := session.NewRegistry(logger)
	authService := service.NewAuthService(logger, conf.JWTSecretKey, identityRepo)
	botService := service.NewBotService()

	roomManager := room.NewManager(logger, room.Options{
		BoardConfig:   board.Config{Size: conf.Game.BoardSize, WinLength: conf.Game.WinLength},
		BasePoints:    conf.Game.BasePoints,
		Multiplier:    conf.Game.Multiplier,
		RoomRetention: conf.Game.RoomRetention,
	}, registry, statsRepo, sink, botService)

	matchMaker := matchmaker.New(logger, matchmaker.Options{
		QuickBand:  conf.Matchmaking.QuickBand,
		RankedBand: conf.Matchmaking.RankedBand,
		TicketTTL:  conf.Matchmaking.TicketTTL,
	}, roomManager, registry, sink)

	scheduler, err := startSweeps(ctx, roomManager, matchMaker)
	if err != nil {
		return fmt.Errorf("could not start sweep scheduler: %w", err)
	}
	defer func() {
		if shutdownErr := scheduler.Shutdown(); shutdownErr != nil {
			log.Error("could not shut down scheduler", "error", shutdownErr)
		}
	}()

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.Start(conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run WebSocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, authService, registry, roomManager, matchMaker, statsRepo, conf.AuthTimeout)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

// startSweeps schedules the two periodic cleanups: dead rooms owned by
// the room manager, stale tickets owned by the matchmaker.
func startSweeps(ctx context.Context, roomManager *room.Manager, matchMaker *matchmaker.Matchmaker) (gocron.Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	if _, err = scheduler.NewJob(
		gocron.DurationJob(roomSweepInterval),
		gocron.NewTask(roomManager.Sweep),
	); err != nil {
		return nil, fmt.Errorf("failed to schedule room sweep: %w", err)
	}

	if _, err = scheduler.NewJob(
		gocron.DurationJob(ticketSweepInterval),
		gocron.NewTask(func() { matchMaker.Sweep(ctx) }),
	); err != nil {
		return nil, fmt.Errorf("failed to schedule ticket sweep: %w", err)
	}

	scheduler.Start()

	return scheduler, nil
}
