package dto

import (
	"time"

	"github.com/quickdesk/helpdesk-service/internal/domain"
)

// UpdateTicketRequest payload; nil fields stay untouched.
type UpdateTicketRequest struct {
	Subject     *string                `json:"subject"`
	Description *string                `json:"description"`
	CategoryID  *string                `json:"category_id"`
	Priority    *domain.TicketPriority `json:"priority"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// AssignRequest payload; a null assignee clears the assignment.
type AssignRequest struct {
	AssigneeID *string `json:"assignee_id"`
}

// VoteRequest payload.
type VoteRequest struct {
	Direction domain.VoteDirection `json:"direction"`
}

// VoteResponse returns the tallies after a vote.
type VoteResponse struct {
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Content string `json:"content"`
}

// CommentResponse is one thread entry.
type CommentResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID               string    `json:"id"`
	OriginalFilename string    `json:"original_filename"`
	StoredFilename   string    `json:"stored_filename"`
	SizeBytes        int64     `json:"size_bytes"`
	CreatedAt        time.Time `json:"created_at"`
}

// TicketSummary response.
type TicketSummary struct {
	ID          string                `json:"id"`
	Subject     string                `json:"subject"`
	Description string                `json:"description"`
	Status      domain.TicketStatus   `json:"status"`
	Priority    domain.TicketPriority `json:"priority"`
	CreatorID   string                `json:"creator_id"`
	CategoryID  string                `json:"category_id"`
	AssigneeID  *string               `json:"assignee_id"`
	Upvotes     int                   `json:"upvotes"`
	Downvotes   int                   `json:"downvotes"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides the full ticket with its thread. The
// viewer_vote field carries the requesting user's vote direction and is
// omitted when they have not voted.
type TicketDetailResponse struct {
	TicketSummary
	Comments    []CommentResponse     `json:"comments"`
	Attachments []AttachmentResponse  `json:"attachments"`
	ViewerVote  *domain.VoteDirection `json:"viewer_vote,omitempty"`
}

// PageResponse wraps one page of items with pager metadata.
type PageResponse[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// NewPageResponse converts a domain page item-by-item.
func NewPageResponse[T any, U any](page *domain.Page[T], convert func(*T) U) PageResponse[U] {
	items := make([]U, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, convert(&page.Items[i]))
	}
	return PageResponse[U]{
		Items:      items,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalItems: page.TotalItems,
		TotalPages: page.TotalPages,
		HasNext:    page.HasNext,
		HasPrev:    page.HasPrev,
	}
}

// NewTicketSummary maps a ticket.
func NewTicketSummary(ticket *domain.Ticket) TicketSummary {
	return TicketSummary{
		ID:          ticket.ID,
		Subject:     ticket.Subject,
		Description: ticket.Description,
		Status:      ticket.Status,
		Priority:    ticket.Priority,
		CreatorID:   ticket.CreatorID,
		CategoryID:  ticket.CategoryID,
		AssigneeID:  ticket.AssigneeID,
		Upvotes:     ticket.Upvotes,
		Downvotes:   ticket.Downvotes,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
	}
}

// NewCommentResponse maps a comment.
func NewCommentResponse(comment *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:        comment.ID,
		TicketID:  comment.TicketID,
		AuthorID:  comment.AuthorID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	}
}

// NewAttachmentResponse maps attachment metadata.
func NewAttachmentResponse(att *domain.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:               att.ID,
		OriginalFilename: att.OriginalFilename,
		StoredFilename:   att.StoredFilename,
		SizeBytes:        att.SizeBytes,
		CreatedAt:        att.CreatedAt,
	}
}

// NewTicketDetailResponse maps a ticket with its comments, attachments,
// and the viewer's vote.
func NewTicketDetailResponse(ticket *domain.Ticket, comments []domain.Comment, attachments []domain.Attachment, viewerVote *domain.VoteDirection) TicketDetailResponse {
	commentItems := make([]CommentResponse, 0, len(comments))
	for i := range comments {
		commentItems = append(commentItems, NewCommentResponse(&comments[i]))
	}
	attachmentItems := make([]AttachmentResponse, 0, len(attachments))
	for i := range attachments {
		attachmentItems = append(attachmentItems, NewAttachmentResponse(&attachments[i]))
	}
	return TicketDetailResponse{
		TicketSummary: NewTicketSummary(ticket),
		Comments:      commentItems,
		Attachments:   attachmentItems,
		ViewerVote:    viewerVote,
	}
}
