package domain

import "time"

// VoteDirection is the polarity of a ticket vote.
type VoteDirection string

const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

// IsValid reports whether the direction is up or down.
func (d VoteDirection) IsValid() bool {
	return d == VoteUp || d == VoteDown
}

// Vote records a voter's latest direction on a ticket, keyed by
// (ticket, voter). The ticket's counters remain the authoritative tally;
// this row is the per-voter audit behind them.
type Vote struct {
	ID        string
	TicketID  string
	VoterID   string
	Direction VoteDirection
	CreatedAt time.Time
	UpdatedAt time.Time
}
