package room

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/web3anand/tictactoe-gameserver/internal/apperror"
	"github.com/web3anand/tictactoe-gameserver/internal/board"
	"github.com/web3anand/tictactoe-gameserver/internal/entity"
	"github.com/web3anand/tictactoe-gameserver/internal/service"
	"github.com/web3anand/tictactoe-gameserver/internal/session"
)

// Room codes avoid easily confused characters so they stay typable.
const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 6
)

type connections interface {
	Lookup(identityID string) (session.Connection, bool)
}

type statsStore interface {
	Snapshot(ctx context.Context, identityID string) (*entity.PlayerStats, error)
	RecordResult(ctx context.Context, winnerID, loserID string, points int) error
	RecordDraw(ctx context.Context, firstID, secondID string) error
}

type notificationSink interface {
	Notify(ctx context.Context, identityID, event string, payload any)
}

type botResponder interface {
	PickCell(gameBoard board.Board, conf board.Config, symbol string) (int, error)
}

type Options struct {
	BoardConfig   board.Config
	BasePoints    int
	Multiplier    float64
	RoomRetention time.Duration
}

// Manager owns the set of active rooms. Every mutation of one room runs
// under that room's own lock, so moves within a room are totally ordered
// while different rooms proceed in parallel. Broadcasts happen inside
// the same critical section, after the mutation, so no participant can
// observe a stale board after another saw the new one.
type Manager struct {
	logger *slog.Logger
	opts   Options

	sessions connections
	stats    statsStore
	sink     notificationSink
	bot      botResponder

	mu    sync.RWMutex
	rooms map[string]*managedRoom
}

type managedRoom struct {
	mu       sync.Mutex
	room     *entity.Room
	removeAt time.Time
}

func NewManager(logger *slog.Logger, opts Options, sessions connections, stats statsStore, sink notificationSink, bot botResponder) *Manager {
	return &Manager{
		logger:   logger.With("component", "room_manager"),
		opts:     opts,
		sessions: sessions,
		stats:    stats,
		sink:     sink,
		bot:      bot,
		rooms:    make(map[string]*managedRoom),
	}
}

// Create allocates a fresh room with the creator in the X slot. A room
// created against a bot starts playing immediately.
func (that *Manager) Create(creator *entity.Identity, mode string, private, withBot bool) (*entity.Room, error) {
	newRoom := entity.NewRoom(uuid.NewString(), "", mode, private, that.opts.BoardConfig, that.opts.BasePoints, that.opts.Multiplier)
	newRoom.PlayerX = &entity.Slot{Identity: creator, Symbol: board.SymbolX}

	if withBot {
		newRoom.PlayerO = &entity.Slot{
			Identity: &entity.Identity{ID: "bot:" + uuid.NewString(), Name: "Bot"},
			Symbol:   board.SymbolO,
			Bot:      true,
		}
		newRoom.Status = entity.StatusPlaying
		newRoom.StartedAt = time.Now()
	}

	that.mu.Lock()
	newRoom.Code = that.uniqueCode()
	managed := &managedRoom{room: newRoom}
	that.rooms[newRoom.Code] = managed
	that.mu.Unlock()

	managed.mu.Lock()
	defer managed.mu.Unlock()

	that.broadcast(managed.room, EventRoomState, StatePayload{Room: snapshot(managed.room)})

	that.logger.Info("room created", "code", newRoom.Code, "mode", mode, "bot", withBot)

	return snapshot(managed.room), nil
}

// CreatePaired builds a room for a matchmaker pairing: both slots
// filled, already playing. The longer-waiting identity takes X.
func (that *Manager) CreatePaired(playerX, playerO *entity.Identity, mode string) (*entity.Room, error) {
	newRoom := entity.NewRoom(uuid.NewString(), "", mode, false, that.opts.BoardConfig, that.opts.BasePoints, that.opts.Multiplier)
	newRoom.PlayerX = &entity.Slot{Identity: playerX, Symbol: board.SymbolX}
	newRoom.PlayerO = &entity.Slot{Identity: playerO, Symbol: board.SymbolO}
	newRoom.Status = entity.StatusPlaying
	newRoom.StartedAt = time.Now()

	that.mu.Lock()
	newRoom.Code = that.uniqueCode()
	managed := &managedRoom{room: newRoom}
	that.rooms[newRoom.Code] = managed
	that.mu.Unlock()

	managed.mu.Lock()
	defer managed.mu.Unlock()

	that.broadcast(managed.room, EventRoomState, StatePayload{Room: snapshot(managed.room)})

	that.logger.Info("room created by pairing", "code", newRoom.Code, "mode", mode)

	return snapshot(managed.room), nil
}

// Join fills the O slot of a waiting room, or seats the identity as a
// spectator when both slots are taken and the room is not private.
func (that *Manager) Join(identity *entity.Identity, code string) (*entity.Room, bool, error) {
	managed, err := that.byCode(code)
	if err != nil {
		return nil, false, err
	}

	managed.mu.Lock()
	defer managed.mu.Unlock()

	current := managed.room

	// re-joining a room you are already part of just replays the state
	if current.SlotOf(identity.ID) != nil || current.Spectators[identity.ID] != nil {
		that.send(identity.ID, EventRoomState, StatePayload{Room: snapshot(current)})
		return snapshot(current), current.SlotOf(identity.ID) != nil, nil
	}

	if current.PlayerCount() < 2 {
		openSymbol := board.SymbolO
		if current.PlayerX == nil {
			openSymbol = board.SymbolX
		}

		slot := &entity.Slot{Identity: identity, Symbol: openSymbol}
		if openSymbol == board.SymbolX {
			current.PlayerX = slot
		} else {
			current.PlayerO = slot
		}

		if current.PlayerCount() == 2 && current.IsWaiting() {
			current.Status = entity.StatusPlaying
			current.StartedAt = time.Now()
		}

		that.broadcast(current, EventParticipantJoined, ParticipantPayload{
			Identity:   identity,
			IsPlayer:   true,
			Players:    current.PlayerCount(),
			Spectators: len(current.Spectators),
		})
		that.broadcast(current, EventRoomState, StatePayload{Room: snapshot(current)})

		that.logger.Info("player joined room", "code", code, "identity", identity.ID)

		return snapshot(current), true, nil
	}

	if current.Private {
		return nil, false, fmt.Errorf("%w: room %s", apperror.ErrRoomFull, code)
	}

	current.Spectators[identity.ID] = identity

	that.broadcast(current, EventParticipantJoined, ParticipantPayload{
		Identity:   identity,
		IsPlayer:   false,
		Players:    current.PlayerCount(),
		Spectators: len(current.Spectators),
	})
	that.send(identity.ID, EventRoomState, StatePayload{Room: snapshot(current)})

	that.logger.Info("spectator joined room", "code", code, "identity", identity.ID)

	return snapshot(current), false, nil
}

// Leave removes the identity from its slot or the spectator set. A
// player leaving a playing room abandons it; an abandoned room earns no
// points for anyone.
func (that *Manager) Leave(identityID, code string) error {
	managed, err := that.byCode(code)
	if err != nil {
		return err
	}

	managed.mu.Lock()
	defer managed.mu.Unlock()

	that.leaveLocked(managed, identityID)

	return nil
}

// DropParticipant handles a transport drop: an implicit leave from every
// room the identity is part of.
func (that *Manager) DropParticipant(identityID string) {
	that.mu.RLock()
	all := make([]*managedRoom, 0, len(that.rooms))
	for _, managed := range that.rooms {
		all = append(all, managed)
	}
	that.mu.RUnlock()

	for _, managed := range all {
		managed.mu.Lock()
		if managed.room.SlotOf(identityID) != nil || managed.room.Spectators[identityID] != nil {
			that.leaveLocked(managed, identityID)
		}
		managed.mu.Unlock()
	}
}

func (that *Manager) leaveLocked(managed *managedRoom, identityID string) {
	current := managed.room

	var left *entity.Identity
	wasPlayer := false

	if slot := current.SlotOf(identityID); slot != nil {
		left = slot.Identity
		wasPlayer = true

		if current.PlayerX == slot {
			current.PlayerX = nil
		} else {
			current.PlayerO = nil
		}
	} else if spectator, ok := current.Spectators[identityID]; ok {
		left = spectator
		delete(current.Spectators, identityID)
	} else {
		return
	}

	that.broadcast(current, EventParticipantLeft, ParticipantPayload{
		Identity:   left,
		IsPlayer:   wasPlayer,
		Players:    current.PlayerCount(),
		Spectators: len(current.Spectators),
	})

	if wasPlayer && current.IsPlaying() {
		current.Status = entity.StatusAbandoned
		current.FinishedAt = time.Now()
		managed.removeAt = time.Now().Add(that.opts.RoomRetention)

		that.broadcast(current, EventRoomState, StatePayload{Room: snapshot(current)})

		that.logger.Info("room abandoned", "code", current.Code, "identity", identityID)

		return
	}

	if current.IsEmpty() {
		managed.removeAt = time.Now().Add(that.opts.RoomRetention)
	}
}

// MakeMove validates and applies one placement. On a terminal result it
// finalizes the room: scoring, best-effort persistence, notifications,
// and scheduling the room for deferred removal.
func (that *Manager) MakeMove(ctx context.Context, identityID, code string, cell int) (*entity.Room, error) {
	managed, err := that.byCode(code)
	if err != nil {
		return nil, err
	}

	managed.mu.Lock()
	defer managed.mu.Unlock()

	current := managed.room

	if !current.IsPlaying() {
		return nil, fmt.Errorf("%w: room %s is %s", apperror.ErrRoomNotPlaying, code, current.Status)
	}

	slot := current.SlotOf(identityID)
	if slot == nil || slot.Symbol != current.Turn {
		return nil, apperror.ErrNotYourTurn
	}

	if err = that.applyLocked(ctx, managed, slot, cell); err != nil {
		return nil, err
	}

	// a bot opponent answers inside the same serialization domain, so
	// its move lands in order right behind the human's
	for current.IsPlaying() {
		next := current.SlotBySymbol(current.Turn)
		if !next.IsBot() {
			break
		}

		botCell, pickErr := that.bot.PickCell(current.Board, that.opts.BoardConfig, next.Symbol)
		if pickErr != nil {
			that.logger.Error("bot failed to pick a cell", "code", code, "error", pickErr)
			break
		}

		if err = that.applyLocked(ctx, managed, next, botCell); err != nil {
			that.logger.Error("bot failed to move", "code", code, "error", err)
			break
		}
	}

	return snapshot(current), nil
}

func (that *Manager) applyLocked(ctx context.Context, managed *managedRoom, slot *entity.Slot, cell int) error {
	current := managed.room

	nextBoard, err := board.ApplyMove(current.Board, cell, slot.Symbol)
	if err != nil {
		return err
	}

	current.Board = nextBoard
	current.MoveCount++

	move := entity.Move{
		Sequence:   current.MoveCount,
		Cell:       cell,
		Symbol:     slot.Symbol,
		IdentityID: slot.Identity.ID,
		Elapsed:    time.Since(current.StartedAt),
	}
	current.Moves = append(current.Moves, move)

	winner := board.Winner(current.Board, that.opts.BoardConfig)
	draw := winner == board.EmptyCell && board.IsDraw(current.Board, that.opts.BoardConfig, current.MoveCount)

	if winner == board.EmptyCell && !draw {
		current.Turn = board.ToggleSymbol(current.Turn)
		that.broadcast(current, EventMoveApplied, MovePayload{Move: move, Room: snapshot(current)})

		return nil
	}

	current.Status = entity.StatusFinished
	current.Winner = winner
	current.Turn = board.EmptyCell
	current.FinishedAt = time.Now()
	managed.removeAt = current.FinishedAt.Add(that.opts.RoomRetention)

	that.broadcast(current, EventMoveApplied, MovePayload{Move: move, Room: snapshot(current)})

	points := that.finalize(ctx, current, winner, draw)

	that.broadcast(current, EventRoomFinished, FinishedPayload{
		Winner:       winner,
		Draw:         draw,
		WinningCells: board.WinningCells(current.Board, that.opts.BoardConfig),
		Points:       points,
		Room:         snapshot(current),
	})

	return nil
}

// finalize writes the outcome to the store. The in-memory transition has
// already happened; a storage outage is logged and never blocks play.
func (that *Manager) finalize(ctx context.Context, current *entity.Room, winner string, draw bool) int {
	log := that.logger.With("method", "finalize", "code", current.Code)

	winnerSlot := current.SlotBySymbol(winner)
	loserSlot := current.SlotBySymbol(board.ToggleSymbol(winner))

	if draw {
		firstID, secondID := humanID(current.PlayerX), humanID(current.PlayerO)
		if err := that.stats.RecordDraw(ctx, firstID, secondID); err != nil {
			log.Error("failed to record draw", "error", err)
		}

		for _, id := range []string{firstID, secondID} {
			if id != "" {
				that.sink.Notify(ctx, id, "match:draw", StatePayload{Room: snapshot(current)})
			}
		}

		return 0
	}

	if winnerSlot == nil {
		return 0
	}

	streak := 0
	if !winnerSlot.Bot {
		stats, err := that.stats.Snapshot(ctx, winnerSlot.Identity.ID)
		if err != nil {
			log.Error("failed to load winner stats", "error", err)
		} else {
			streak = stats.Streak
		}
	}

	winnerMoves := 0
	for _, move := range current.Moves {
		if move.Symbol == winner {
			winnerMoves++
		}
	}

	points := service.WinnerPoints(current.BasePoints, current.Multiplier, winnerMoves, that.opts.BoardConfig.WinLength, streak)

	if err := that.stats.RecordResult(ctx, humanID(winnerSlot), humanID(loserSlot), points); err != nil {
		log.Error("failed to record game result", "error", err)
	}

	if id := humanID(winnerSlot); id != "" {
		that.sink.Notify(ctx, id, "match:won", FinishedPayload{Winner: winner, Points: points})
	}
	if id := humanID(loserSlot); id != "" {
		that.sink.Notify(ctx, id, "match:lost", FinishedPayload{Winner: winner})
	}

	return points
}

// Sweep garbage-collects rooms past their retention deadline. Runs on
// the scheduler, never from a connection task. The manager lock is never
// held while waiting on a room lock: one room stuck in a slow store call
// must not stall lookups and moves in every other room.
func (that *Manager) Sweep() {
	now := time.Now()

	that.mu.RLock()
	all := make(map[string]*managedRoom, len(that.rooms))
	for code, managed := range that.rooms {
		all[code] = managed
	}
	that.mu.RUnlock()

	expired := make([]string, 0)
	for code, managed := range all {
		managed.mu.Lock()
		if !managed.removeAt.IsZero() && now.After(managed.removeAt) {
			expired = append(expired, code)
		}
		managed.mu.Unlock()
	}

	if len(expired) == 0 {
		return
	}

	that.mu.Lock()
	for _, code := range expired {
		delete(that.rooms, code)
		that.logger.Info("room swept", "code", code)
	}
	that.mu.Unlock()
}

// Room returns a snapshot of the room behind the code.
func (that *Manager) Room(code string) (*entity.Room, error) {
	managed, err := that.byCode(code)
	if err != nil {
		return nil, err
	}

	managed.mu.Lock()
	defer managed.mu.Unlock()

	return snapshot(managed.room), nil
}

func (that *Manager) byCode(code string) (*managedRoom, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	managed, ok := that.rooms[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, code)
	}

	return managed, nil
}

// uniqueCode must be called with the manager lock held.
func (that *Manager) uniqueCode() string {
	for {
		buf := make([]byte, codeLength)
		for i := range buf {
			buf[i] = codeAlphabet[rand.Intn(len(codeAlphabet))] //nolint:gosec // codes are not secrets
		}

		code := string(buf)
		if _, taken := that.rooms[code]; !taken {
			return code
		}
	}
}

func (that *Manager) broadcast(current *entity.Room, event string, payload any) {
	for _, id := range current.ParticipantIDs() {
		that.send(id, event, payload)
	}
}

func (that *Manager) send(identityID, event string, payload any) {
	conn, ok := that.sessions.Lookup(identityID)
	if !ok {
		return
	}

	conn.Send(event, payload)
}

func humanID(slot *entity.Slot) string {
	if slot == nil || slot.Bot || slot.Identity == nil {
		return ""
	}

	return slot.Identity.ID
}

// snapshot copies the room so a broadcast can never observe a later
// mutation.
func snapshot(current *entity.Room) *entity.Room {
	copied := *current
	copied.Board = current.Board.Clone()
	copied.Moves = append([]entity.Move(nil), current.Moves...)

	return &copied
}
