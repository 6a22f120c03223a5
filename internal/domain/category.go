package domain

import "time"

// Category groups tickets by topic. It cannot be deleted while tickets
// still reference it.
type Category struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
}
