package entity

// Identity is the stable user reference the server caches for the life
// of a connection. The persistence store owns the record; the core only
// carries it around.
type Identity struct {
	ID     string `json:"id"`
	Wallet string `json:"wallet,omitempty"`
	Name   string `json:"name,omitempty"`
}

// PlayerStats is the store's snapshot of an identity's history, used to
// derive a skill level at enqueue time and a streak bonus at scoring
// time. Never tracked incrementally by the core.
type PlayerStats struct {
	Wins   int `json:"wins"`
	Games  int `json:"games"`
	Points int `json:"points"`
	Streak int `json:"streak"`
}
