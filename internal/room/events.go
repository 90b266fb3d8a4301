package room

import "github.com/web3anand/tictactoe-gameserver/internal/entity"

// Outbound event names pushed to room participants.
const (
	EventRoomState         = "room:state"
	EventParticipantJoined = "room:participant_joined"
	EventParticipantLeft   = "room:participant_left"
	EventMoveApplied       = "room:move_applied"
	EventRoomFinished      = "room:finished"
)

type StatePayload struct {
	Room *entity.Room `json:"room"`
}

type ParticipantPayload struct {
	Identity   *entity.Identity `json:"identity"`
	IsPlayer   bool             `json:"is_player"`
	Players    int              `json:"players"`
	Spectators int              `json:"spectators"`
}

type MovePayload struct {
	Move entity.Move  `json:"move"`
	Room *entity.Room `json:"room"`
}

type FinishedPayload struct {
	Winner       string       `json:"winner,omitempty"`
	Draw         bool         `json:"draw"`
	WinningCells []int        `json:"winning_cells,omitempty"`
	Points       int          `json:"points"`
	Room         *entity.Room `json:"room"`
}
