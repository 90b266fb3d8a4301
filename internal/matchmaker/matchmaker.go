package matchmaker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/web3anand/tictactoe-gameserver/internal/apperror"
	"github.com/web3anand/tictactoe-gameserver/internal/entity"
	"github.com/web3anand/tictactoe-gameserver/internal/session"
)

// Outbound event names pushed to queued identities.
const (
	EventEnqueued = "matchmaking:enqueued"
	EventDequeued = "matchmaking:dequeued"
	EventMatched  = "matchmaking:matched"
	EventExpired  = "matchmaking:expired"
)

type EnqueuedPayload struct {
	Skill int    `json:"skill"`
	Mode  string `json:"mode"`
}

type MatchedPayload struct {
	RoomCode string           `json:"room_code"`
	Symbol   string           `json:"symbol"`
	Opponent *entity.Identity `json:"opponent"`
}

type ExpiredPayload struct {
	Mode string `json:"mode"`
}

type roomCreator interface {
	CreatePaired(playerX, playerO *entity.Identity, mode string) (*entity.Room, error)
}

type connections interface {
	Lookup(identityID string) (session.Connection, bool)
}

type notificationSink interface {
	Notify(ctx context.Context, identityID, event string, payload any)
}

type Options struct {
	QuickBand  int
	RankedBand int
	TicketTTL  time.Duration
}

// Matchmaker keeps the skill-bucketed waiting queue. Matching runs on
// enqueue: the oldest same-mode ticket within the mode's tolerance band
// wins, and the longer-waiting identity is assigned X.
type Matchmaker struct {
	logger *slog.Logger
	opts   Options

	rooms    roomCreator
	sessions connections
	sink     notificationSink

	mu      sync.Mutex
	tickets map[string]*entity.Ticket
}

func New(logger *slog.Logger, opts Options, rooms roomCreator, sessions connections, sink notificationSink) *Matchmaker {
	return &Matchmaker{
		logger:   logger.With("component", "matchmaker"),
		opts:     opts,
		rooms:    rooms,
		sessions: sessions,
		sink:     sink,
		tickets:  make(map[string]*entity.Ticket),
	}
}

// Enqueue files a ticket for the identity and tries to pair it right
// away. The returned flag reports whether a match was made; when it is
// true both sides have already been notified.
func (that *Matchmaker) Enqueue(ctx context.Context, identity *entity.Identity, skill int, mode string) (*entity.Ticket, bool, error) {
	ticket := &entity.Ticket{
		ID:         uuid.NewString(),
		Identity:   identity,
		Skill:      skill,
		Mode:       mode,
		EnqueuedAt: time.Now(),
	}

	that.mu.Lock()

	if _, queued := that.tickets[identity.ID]; queued {
		that.mu.Unlock()
		return nil, false, fmt.Errorf("%w: identity %s", apperror.ErrAlreadyQueued, identity.ID)
	}

	opponent := that.bestCandidateLocked(ticket)
	if opponent == nil {
		that.tickets[identity.ID] = ticket
		that.mu.Unlock()

		that.logger.Info("ticket enqueued", "identity", identity.ID, "mode", mode, "skill", skill)

		return ticket, false, nil
	}

	delete(that.tickets, opponent.Identity.ID)
	that.mu.Unlock()

	if err := that.pair(ctx, opponent, ticket); err != nil {
		// the opponent keeps their queue position when pairing fails
		that.mu.Lock()
		if _, requeued := that.tickets[opponent.Identity.ID]; !requeued {
			that.tickets[opponent.Identity.ID] = opponent
		}
		that.mu.Unlock()

		return nil, false, err
	}

	return ticket, true, nil
}

// Dequeue removes the identity's ticket. Calling it without a ticket is
// a no-op, so transport drops can always fire it.
func (that *Matchmaker) Dequeue(identityID string) {
	that.mu.Lock()
	_, queued := that.tickets[identityID]
	delete(that.tickets, identityID)
	that.mu.Unlock()

	if queued {
		that.logger.Info("ticket dequeued", "identity", identityID)
	}
}

// Queued reports whether the identity currently holds a ticket.
func (that *Matchmaker) Queued(identityID string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	_, queued := that.tickets[identityID]

	return queued
}

// Sweep evicts tickets older than the TTL and tells their owners that
// matchmaking was abandoned, so clients can fall back to a bot opponent.
func (that *Matchmaker) Sweep(ctx context.Context) {
	deadline := time.Now().Add(-that.opts.TicketTTL)

	that.mu.Lock()
	stale := lo.Filter(lo.Values(that.tickets), func(ticket *entity.Ticket, _ int) bool {
		return ticket.EnqueuedAt.Before(deadline)
	})
	for _, ticket := range stale {
		delete(that.tickets, ticket.Identity.ID)
	}
	that.mu.Unlock()

	for _, ticket := range stale {
		that.logger.Info("ticket expired", "identity", ticket.Identity.ID, "mode", ticket.Mode)

		payload := ExpiredPayload{Mode: ticket.Mode}
		if conn, ok := that.sessions.Lookup(ticket.Identity.ID); ok {
			conn.Send(EventExpired, payload)
		}
		that.sink.Notify(ctx, ticket.Identity.ID, EventExpired, payload)
	}
}

// bestCandidateLocked picks the oldest queued same-mode ticket within
// the mode's tolerance band of the new ticket's skill.
func (that *Matchmaker) bestCandidateLocked(ticket *entity.Ticket) *entity.Ticket {
	band := that.opts.QuickBand
	if ticket.Mode == entity.ModeRanked {
		band = that.opts.RankedBand
	}

	candidates := lo.Filter(lo.Values(that.tickets), func(queued *entity.Ticket, _ int) bool {
		if queued.Mode != ticket.Mode {
			return false
		}

		diff := queued.Skill - ticket.Skill
		if diff < 0 {
			diff = -diff
		}

		return diff <= band
	})

	if len(candidates) == 0 {
		return nil
	}

	return lo.MinBy(candidates, func(a, b *entity.Ticket) bool {
		return a.EnqueuedAt.Before(b.EnqueuedAt)
	})
}

// pair creates the room and tells both identities. The ticket that
// waited longer takes X.
func (that *Matchmaker) pair(ctx context.Context, older, newer *entity.Ticket) error {
	created, err := that.rooms.CreatePaired(older.Identity, newer.Identity, newer.Mode)
	if err != nil {
		return fmt.Errorf("failed to create paired room: %w", err)
	}

	that.notifyMatched(ctx, older.Identity, newer.Identity, created.Code, created.PlayerX.Symbol)
	that.notifyMatched(ctx, newer.Identity, older.Identity, created.Code, created.PlayerO.Symbol)

	that.logger.Info("tickets matched", "room", created.Code, "mode", newer.Mode,
		"x", older.Identity.ID, "o", newer.Identity.ID)

	return nil
}

func (that *Matchmaker) notifyMatched(ctx context.Context, identity, opponent *entity.Identity, roomCode, symbol string) {
	payload := MatchedPayload{
		RoomCode: roomCode,
		Symbol:   symbol,
		Opponent: opponent,
	}

	if conn, ok := that.sessions.Lookup(identity.ID); ok {
		conn.Send(EventMatched, payload)
	}

	that.sink.Notify(ctx, identity.ID, EventMatched, payload)
}
