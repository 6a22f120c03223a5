package domain

import "time"

// Comment is one entry in a ticket's conversation thread. Immutable once
// created.
type Comment struct {
	ID        string
	TicketID  string
	AuthorID  string
	Content   string
	CreatedAt time.Time
}
