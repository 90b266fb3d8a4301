package apperror

import "errors"

var (
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrNotAuthenticated     = errors.New("not authenticated")

	ErrRoomNotFound   = errors.New("room not found")
	ErrRoomFull       = errors.New("room is full")
	ErrRoomNotPlaying = errors.New("room is not playing")
	ErrNotYourTurn    = errors.New("it's not your turn")
	ErrIllegalMove    = errors.New("illegal move")

	ErrAlreadyQueued = errors.New("already queued for matchmaking")

	ErrIdentityNotFound       = errors.New("identity not found")
	ErrPersistenceUnavailable = errors.New("persistence store unavailable")
)
