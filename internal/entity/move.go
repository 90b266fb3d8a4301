package entity

import "time"

// Move is one accepted placement, recorded append-only for replay and
// audit. Sequence numbers are monotonic per room, starting at 1.
type Move struct {
	Sequence   int           `json:"sequence"`
	Cell       int           `json:"cell"`
	Symbol     string        `json:"symbol"`
	IdentityID string        `json:"identity_id"`
	Elapsed    time.Duration `json:"elapsed"`
}
