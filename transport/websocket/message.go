package websocket

import (
	"encoding/json"

	"github.com/web3anand/tictactoe-gameserver/internal/entity"
)

// Inbound actions a client may send.
const (
	ActionAuth       = "auth"
	ActionCreateRoom = "room:create"
	ActionJoinRoom   = "room:join"
	ActionLeaveRoom  = "room:leave"
	ActionMove       = "room:move"
	ActionEnqueue    = "matchmaking:join"
	ActionDequeue    = "matchmaking:leave"
)

// Outbound events owned by the gateway itself. Room and matchmaking
// events are defined next to their components.
const (
	EventAuthenticated = "auth:ok"
	EventAuthFailed    = "auth:failed"
	EventError         = "error"
)

// Message is one inbound frame: an action and its raw payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response is one outbound frame.
type Response struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

type AuthPayload struct {
	Token string `json:"token"`
}

type AuthenticatedPayload struct {
	Identity *entity.Identity `json:"identity"`
}

type CreateRoomPayload struct {
	Mode    string `json:"mode,omitempty"`
	Private bool   `json:"private,omitempty"`
	WithBot bool   `json:"with_bot,omitempty"`
}

type JoinRoomPayload struct {
	RoomCode string `json:"room_code"`
}

type MovePayload struct {
	RoomCode string `json:"room_code"`
	Cell     int    `json:"cell"`
}

type EnqueuePayload struct {
	Mode string `json:"mode,omitempty"`
}

type ErrorPayload struct {
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
