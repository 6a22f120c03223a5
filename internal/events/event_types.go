package events

import (
	"time"

	"github.com/quickdesk/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated  EventType = "ticket_created"
	EventTicketAssigned EventType = "ticket_assigned"
	EventStatusChanged  EventType = "status_changed"
	EventCommentAdded   EventType = "comment_added"
)

// Actor is a snapshot of the account that triggered an event.
type Actor struct {
	ID       string      `json:"id"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Subject    string                `json:"subject"`
	CategoryID string                `json:"category_id"`
	Priority   domain.TicketPriority `json:"priority"`
	CreatorID  string                `json:"creator_id"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	Subject    string `json:"subject"`
	AssigneeID string `json:"assignee_id"`
}

// StatusChangedPayload payload.
type StatusChangedPayload struct {
	Subject   string              `json:"subject"`
	CreatorID string              `json:"creator_id"`
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID  string                `json:"comment_id"`
	Subject    string                `json:"subject"`
	CreatorID  string                `json:"creator_id"`
	AssigneeID *string               `json:"assignee_id,omitempty"`
	Priority   domain.TicketPriority `json:"priority"`
}
