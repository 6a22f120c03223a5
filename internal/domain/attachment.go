package domain

import "time"

// Attachment stores metadata for a file uploaded with a ticket. The
// bytes live in object storage under StorageKey; rows are created only
// alongside ticket creation and never updated.
type Attachment struct {
	ID               string
	TicketID         string
	StoredFilename   string
	OriginalFilename string
	StorageKey       string
	SizeBytes        int64
	CreatedAt        time.Time
}
