package entity

import "time"

// Ticket is a queued matchmaking request. An identity holds at most one
// active ticket; it leaves the queue on match, cancel, or staleness.
type Ticket struct {
	ID         string    `json:"id"`
	Identity   *Identity `json:"identity"`
	Skill      int       `json:"skill"`
	Mode       string    `json:"mode"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}
