package domain

import "time"

// NotificationType enumerates the lifecycle events a notification can
// originate from.
type NotificationType string

const (
	NotificationTicketCreated  NotificationType = "ticket_created"
	NotificationTicketAssigned NotificationType = "ticket_assigned"
	NotificationStatusChanged  NotificationType = "status_changed"
	NotificationCommentAdded   NotificationType = "comment_added"
)

// Notification is one per-recipient record materialized from a lifecycle
// event. Only IsRead is ever updated after creation; rows are never
// deleted. TicketID and CommentID are non-owning lookups and survive
// deletion of the referenced rows.
type Notification struct {
	ID          string
	RecipientID string
	TicketID    *string
	CommentID   *string
	Type        NotificationType
	Message     string
	IsRead      bool
	CreatedAt   time.Time
}
