package entity

import (
	"time"

	"github.com/samber/lo"

	"github.com/web3anand/tictactoe-gameserver/internal/board"
)

const (
	StatusWaiting   = "waiting"
	StatusPlaying   = "playing"
	StatusFinished  = "finished"
	StatusAbandoned = "abandoned"

	ModeQuick  = "quick"
	ModeRanked = "ranked"
)

// Slot is one of the two player positions in a room.
type Slot struct {
	Identity *Identity `json:"identity"`
	Symbol   string    `json:"symbol"`
	Bot      bool      `json:"bot,omitempty"`
}

func (that *Slot) IsBot() bool {
	return that != nil && that.Bot
}

// Room is one live match instance. All mutation goes through the room
// manager, which serializes access per room.
type Room struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Mode    string `json:"mode"`
	Private bool   `json:"private,omitempty"`

	Board     board.Board `json:"board"`
	Turn      string      `json:"turn,omitempty"`
	MoveCount int         `json:"move_count"`
	Status    string      `json:"status"`
	Winner    string      `json:"winner,omitempty"`

	PlayerX    *Slot                `json:"player_x,omitempty"`
	PlayerO    *Slot                `json:"player_o,omitempty"`
	Spectators map[string]*Identity `json:"-"`

	Moves []Move `json:"moves,omitempty"`

	BasePoints int     `json:"base_points"`
	Multiplier float64 `json:"multiplier"`

	CreatedAt  time.Time `json:"created_at"`
	StartedAt  time.Time `json:"started_at,omitempty"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

func NewRoom(id, code, mode string, private bool, conf board.Config, basePoints int, multiplier float64) *Room {
	return &Room{
		ID:         id,
		Code:       code,
		Mode:       mode,
		Private:    private,
		Board:      board.New(conf),
		Turn:       board.SymbolX,
		Status:     StatusWaiting,
		Spectators: make(map[string]*Identity),
		BasePoints: basePoints,
		Multiplier: multiplier,
		CreatedAt:  time.Now(),
	}
}

func (that *Room) IsWaiting() bool   { return that.Status == StatusWaiting }
func (that *Room) IsPlaying() bool   { return that.Status == StatusPlaying }
func (that *Room) IsFinished() bool  { return that.Status == StatusFinished }
func (that *Room) IsAbandoned() bool { return that.Status == StatusAbandoned }

// SlotOf returns the player slot held by the identity, or nil when the
// identity is a spectator or not in the room at all.
func (that *Room) SlotOf(identityID string) *Slot {
	for _, slot := range []*Slot{that.PlayerX, that.PlayerO} {
		if slot != nil && slot.Identity != nil && slot.Identity.ID == identityID {
			return slot
		}
	}

	return nil
}

// SlotBySymbol returns the slot assigned to the symbol, or nil.
func (that *Room) SlotBySymbol(symbol string) *Slot {
	switch {
	case that.PlayerX != nil && that.PlayerX.Symbol == symbol:
		return that.PlayerX
	case that.PlayerO != nil && that.PlayerO.Symbol == symbol:
		return that.PlayerO
	default:
		return nil
	}
}

// ParticipantIDs lists every human participant that should receive a
// room broadcast: both players plus all spectators. Bots are skipped.
func (that *Room) ParticipantIDs() []string {
	ids := make([]string, 0, 2+len(that.Spectators))

	for _, slot := range []*Slot{that.PlayerX, that.PlayerO} {
		if slot != nil && !slot.Bot && slot.Identity != nil {
			ids = append(ids, slot.Identity.ID)
		}
	}

	for id := range that.Spectators {
		ids = append(ids, id)
	}

	return lo.Uniq(ids)
}

// PlayerCount reports how many player slots are occupied.
func (that *Room) PlayerCount() int {
	return lo.CountBy([]*Slot{that.PlayerX, that.PlayerO}, func(slot *Slot) bool {
		return slot != nil
	})
}

// IsEmpty reports whether no human is left in the room.
func (that *Room) IsEmpty() bool {
	return len(that.ParticipantIDs()) == 0
}
