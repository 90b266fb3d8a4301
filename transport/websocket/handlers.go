package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/web3anand/tictactoe-gameserver/internal/apperror"
	"github.com/web3anand/tictactoe-gameserver/internal/entity"
	"github.com/web3anand/tictactoe-gameserver/internal/matchmaker"
	"github.com/web3anand/tictactoe-gameserver/internal/service"
)

// Error codes returned in typed error replies. Every rejection leaves
// the connection open and usable.
const (
	codeAuthenticationFailed = "authentication_failed"
	codeNotAuthenticated     = "not_authenticated"
	codeRoomNotFound         = "room_not_found"
	codeRoomFull             = "room_full"
	codeRoomNotPlaying       = "room_not_playing"
	codeNotYourTurn          = "not_your_turn"
	codeIllegalMove          = "illegal_move"
	codeAlreadyQueued        = "already_queued"
	codeBadMessage           = "bad_message"
	codeInternal             = "internal"
)

func (that *Server) handleAuth(ctx context.Context, client *Client, msg *Message) error {
	var payload AuthPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		client.Send(EventAuthFailed, ErrorPayload{Code: codeBadMessage, Message: "malformed auth payload"})
		return fmt.Errorf("failed to unmarshal auth payload: %w", err)
	}

	identity, err := that.auth.Authenticate(ctx, payload.Token)
	if err != nil {
		client.Send(EventAuthFailed, ErrorPayload{Code: codeAuthenticationFailed, Message: "invalid credentials"})

		if errors.Is(err, apperror.ErrAuthenticationFailed) {
			return nil
		}

		return fmt.Errorf("failed to authenticate: %w", err)
	}

	if !client.completeAuth(identity) {
		// the handshake timed out in the same instant; the connection is closing
		return nil
	}
	that.registry.Register(identity.ID, client)

	client.Send(EventAuthenticated, AuthenticatedPayload{Identity: identity})

	client.logger.Info("client authenticated", "identity", identity.ID)

	return nil
}

func (that *Server) handleCreateRoom(_ context.Context, client *Client, msg *Message) error {
	var payload CreateRoomPayload
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return that.reject(client, msg.Action, fmt.Errorf("%w: malformed payload", apperror.ErrIllegalMove))
		}
	}

	mode := payload.Mode
	if mode == "" {
		mode = entity.ModeQuick
	}

	created, err := that.rooms.Create(client.Identity(), mode, payload.Private, payload.WithBot)
	if err != nil {
		return that.reject(client, msg.Action, err)
	}

	client.setRoomCode(created.Code)

	return nil
}

func (that *Server) handleJoinRoom(_ context.Context, client *Client, msg *Message) error {
	var payload JoinRoomPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return that.reject(client, msg.Action, fmt.Errorf("%w: malformed payload", apperror.ErrRoomNotFound))
	}

	joined, _, err := that.rooms.Join(client.Identity(), payload.RoomCode)
	if err != nil {
		return that.reject(client, msg.Action, err)
	}

	client.setRoomCode(joined.Code)

	return nil
}

func (that *Server) handleLeaveRoom(_ context.Context, client *Client, msg *Message) error {
	code := client.RoomCode()
	if code == "" {
		return nil
	}

	if err := that.rooms.Leave(client.Identity().ID, code); err != nil {
		return that.reject(client, msg.Action, err)
	}

	client.setRoomCode("")

	return nil
}

func (that *Server) handleMove(ctx context.Context, client *Client, msg *Message) error {
	var payload MovePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return that.reject(client, msg.Action, fmt.Errorf("%w: malformed payload", apperror.ErrIllegalMove))
	}

	code := payload.RoomCode
	if code == "" {
		code = client.RoomCode()
	}

	if _, err := that.rooms.MakeMove(ctx, client.Identity().ID, code, payload.Cell); err != nil {
		return that.reject(client, msg.Action, err)
	}

	return nil
}

func (that *Server) handleEnqueue(ctx context.Context, client *Client, msg *Message) error {
	var payload EnqueuePayload
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return that.reject(client, msg.Action, fmt.Errorf("%w: malformed payload", apperror.ErrAlreadyQueued))
		}
	}

	mode := payload.Mode
	if mode == "" {
		mode = entity.ModeQuick
	}

	identity := client.Identity()

	// skill is recomputed from the store's snapshot at enqueue time
	stats, err := that.stats.Snapshot(ctx, identity.ID)
	if err != nil {
		client.logger.Error("failed to load stats snapshot", "error", err)
		stats = &entity.PlayerStats{}
	}
	skill := service.ComputeSkill(stats)

	ticket, matched, err := that.matchmaking.Enqueue(ctx, identity, skill, mode)
	if err != nil {
		return that.reject(client, msg.Action, err)
	}

	if !matched {
		client.Send(matchmaker.EventEnqueued, matchmaker.EnqueuedPayload{Skill: ticket.Skill, Mode: ticket.Mode})
	}

	return nil
}

func (that *Server) handleDequeue(_ context.Context, client *Client, _ *Message) error {
	that.matchmaking.Dequeue(client.Identity().ID)
	client.Send(matchmaker.EventDequeued, nil)

	return nil
}

// reject sends a typed error reply to the requester only. Validation
// failures never broadcast and never close the connection.
func (that *Server) reject(client *Client, action string, err error) error {
	client.Send(EventError, ErrorPayload{
		Action:  action,
		Code:    errorCode(err),
		Message: err.Error(),
	})

	return nil
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, apperror.ErrAuthenticationFailed):
		return codeAuthenticationFailed
	case errors.Is(err, apperror.ErrNotAuthenticated):
		return codeNotAuthenticated
	case errors.Is(err, apperror.ErrRoomNotFound):
		return codeRoomNotFound
	case errors.Is(err, apperror.ErrRoomFull):
		return codeRoomFull
	case errors.Is(err, apperror.ErrRoomNotPlaying):
		return codeRoomNotPlaying
	case errors.Is(err, apperror.ErrNotYourTurn):
		return codeNotYourTurn
	case errors.Is(err, apperror.ErrIllegalMove):
		return codeIllegalMove
	case errors.Is(err, apperror.ErrAlreadyQueued):
		return codeAlreadyQueued
	default:
		return codeInternal
	}
}
