package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/quickdesk/helpdesk-service/internal/domain"
	"github.com/quickdesk/helpdesk-service/internal/events"
	"github.com/quickdesk/helpdesk-service/internal/persistence"
	"github.com/quickdesk/helpdesk-service/internal/repository"
	"github.com/quickdesk/helpdesk-service/internal/storage"
	"github.com/quickdesk/helpdesk-service/pkg/errorutil"
	"github.com/quickdesk/helpdesk-service/pkg/metrics"
)

const ticketPageSize = 10

// Actor is the authenticated account an operation runs on behalf of.
type Actor struct {
	ID       string
	Username string
	Role     domain.Role
}

// IsStaff reports whether the actor holds an agent or admin role.
func (a Actor) IsStaff() bool {
	return a.Role.IsStaff()
}

func (a Actor) eventActor() events.Actor {
	return events.Actor{ID: a.ID, Username: a.Username, Role: a.Role}
}

// AttachmentInput is one uploaded file destined for object storage.
type AttachmentInput struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Subject     string
	Description string
	CategoryID  string
	Priority    domain.TicketPriority
	Attachments []AttachmentInput
}

// TicketUpdateInput carries partial edits; nil fields stay untouched.
type TicketUpdateInput struct {
	Subject     *string
	Description *string
	CategoryID  *string
	Priority    *domain.TicketPriority
}

// TicketListQuery describes listing filters and pagination.
type TicketListQuery struct {
	Status     *domain.TicketStatus
	CategoryID *string
	Search     *string
	Sort       repository.TicketSort
	Page       int
}

// TicketDetail bundles a ticket with its discussion thread. ViewerVote
// is the requesting actor's recorded vote direction, nil when they have
// not voted.
type TicketDetail struct {
	Ticket      *domain.Ticket
	Comments    []domain.Comment
	Attachments []domain.Attachment
	ViewerVote  *domain.VoteDirection
}

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets     repository.TicketRepository
	comments    repository.CommentRepository
	attachments repository.AttachmentRepository
	categories  repository.CategoryRepository
	users       repository.UserRepository
	votes       repository.VoteRepository
	txm         *persistence.TxManager
	store       storage.ObjectStore
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	CommentRepo    repository.CommentRepository
	AttachmentRepo repository.AttachmentRepository
	CategoryRepo   repository.CategoryRepository
	UserRepo       repository.UserRepository
	VoteRepo       repository.VoteRepository
	TxManager      *persistence.TxManager
	Store          storage.ObjectStore
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:     deps.TicketRepo,
		comments:    deps.CommentRepo,
		attachments: deps.AttachmentRepo,
		categories:  deps.CategoryRepo,
		users:       deps.UserRepo,
		votes:       deps.VoteRepo,
		txm:         deps.TxManager,
		store:       deps.Store,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
	}
}

// CreateTicket validates input, stores uploads, and opens the ticket.
// Uploads that fail the attachment policy are skipped; the ticket is
// still created with the files that passed. The ticket row, attachment
// rows, and notification fan-out commit or roll back together; stored
// objects are compensated on rollback.
func (s *TicketService) CreateTicket(ctx context.Context, actor Actor, input TicketCreateInput) (*domain.Ticket, error) {
	subject := strings.TrimSpace(input.Subject)
	description := strings.TrimSpace(input.Description)
	if subject == "" {
		return nil, errorutil.NewValidationError("subject is required", nil)
	}
	if description == "" {
		return nil, errorutil.NewValidationError("description is required", nil)
	}
	if strings.TrimSpace(input.CategoryID) == "" {
		return nil, errorutil.NewValidationError("category is required", nil)
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !priority.IsValid() {
		return nil, errorutil.NewValidationError("unknown priority", map[string]any{"priority": priority})
	}

	if _, err := s.categories.GetByID(ctx, input.CategoryID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorutil.NewNotFound("category", map[string]any{"id": input.CategoryID})
		}
		return nil, errorutil.NewInternalError(err)
	}

	accepted := make([]AttachmentInput, 0, len(input.Attachments))
	for _, upload := range input.Attachments {
		if !acceptableUpload(upload) {
			s.logger.Info("skipping disallowed upload",
				zap.String("filename", upload.Filename))
			continue
		}
		accepted = append(accepted, upload)
	}

	ticket := &domain.Ticket{
		Subject:     subject,
		Description: description,
		Status:      domain.TicketStatusOpen,
		Priority:    priority,
		CreatorID:   actor.ID,
		CategoryID:  input.CategoryID,
	}

	var storedKeys []string
	err := s.txm.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.tickets.Create(ctx, ticket); err != nil {
			return err
		}
		for _, upload := range accepted {
			key, err := s.storeAttachment(ctx, ticket.ID, upload)
			if key != "" {
				storedKeys = append(storedKeys, key)
			}
			if err != nil {
				return err
			}
		}
		return s.publish(ctx, events.Event{
			Type:     events.EventTicketCreated,
			TicketID: ticket.ID,
			Actor:    actor.eventActor(),
			Payload: events.TicketCreatedPayload{
				Subject:    ticket.Subject,
				CategoryID: ticket.CategoryID,
				Priority:   ticket.Priority,
				CreatorID:  ticket.CreatorID,
			},
		})
	})
	if err != nil {
		s.removeStoredObjects(storedKeys)
		return nil, errorutil.MapError(err)
	}

	metrics.TicketsCreated.WithLabelValues(string(ticket.Priority)).Inc()
	return ticket, nil
}

// GetTicket returns the ticket with its comments, attachments, and the
// actor's own vote if one exists.
func (s *TicketService) GetTicket(ctx context.Context, actor Actor, ticketID string) (*TicketDetail, error) {
	ticket, err := s.loadVisible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	attachments, err := s.attachments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	detail := &TicketDetail{Ticket: ticket, Comments: comments, Attachments: attachments}
	vote, err := s.votes.GetByTicketAndVoter(ctx, ticket.ID, actor.ID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, errorutil.NewInternalError(err)
	}
	if vote != nil {
		detail.ViewerVote = &vote.Direction
	}
	return detail, nil
}

// UpdateTicket edits subject, description, category, or priority. The
// creator and staff may edit; status and assignee have dedicated
// operations and raise events there.
func (s *TicketService) UpdateTicket(ctx context.Context, actor Actor, ticketID string, input TicketUpdateInput) (*domain.Ticket, error) {
	ticket, err := s.loadVisible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}

	if input.Subject != nil {
		subject := strings.TrimSpace(*input.Subject)
		if subject == "" {
			return nil, errorutil.NewValidationError("subject is required", nil)
		}
		ticket.Subject = subject
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description == "" {
			return nil, errorutil.NewValidationError("description is required", nil)
		}
		ticket.Description = description
	}
	if input.Priority != nil {
		if !input.Priority.IsValid() {
			return nil, errorutil.NewValidationError("unknown priority", map[string]any{"priority": *input.Priority})
		}
		ticket.Priority = *input.Priority
	}
	if input.CategoryID != nil {
		if _, err := s.categories.GetByID(ctx, *input.CategoryID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, errorutil.NewNotFound("category", map[string]any{"id": *input.CategoryID})
			}
			return nil, errorutil.NewInternalError(err)
		}
		ticket.CategoryID = *input.CategoryID
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, errorutil.MapError(err)
	}
	return ticket, nil
}

// DeleteTicket removes a ticket and its stored attachment objects.
// Comments, attachment rows, votes, and notification links go with the
// row; object removal is best-effort after the delete commits.
func (s *TicketService) DeleteTicket(ctx context.Context, actor Actor, ticketID string) error {
	if actor.Role != domain.RoleAdmin {
		return errorutil.NewForbidden("only admins can delete tickets")
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errorutil.NewNotFound("ticket", map[string]any{"id": ticketID})
		}
		return errorutil.NewInternalError(err)
	}

	attachments, err := s.attachments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return errorutil.NewInternalError(err)
	}
	if err := s.tickets.Delete(ctx, ticket.ID); err != nil {
		return errorutil.MapError(err)
	}

	keys := make([]string, 0, len(attachments))
	for _, att := range attachments {
		keys = append(keys, att.StorageKey)
	}
	s.removeStoredObjects(keys)
	return nil
}

// AddComment appends a comment to a visible ticket and bumps the
// ticket's updated_at so it surfaces in recent listings.
func (s *TicketService) AddComment(ctx context.Context, actor Actor, ticketID, content string) (*domain.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errorutil.NewValidationError("comment content is required", nil)
	}
	ticket, err := s.loadVisible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		TicketID: ticket.ID,
		AuthorID: actor.ID,
		Content:  content,
	}
	err = s.txm.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.comments.Create(ctx, comment); err != nil {
			return err
		}
		if err := s.tickets.TouchUpdated(ctx, ticket.ID); err != nil {
			return err
		}
		return s.publish(ctx, events.Event{
			Type:     events.EventCommentAdded,
			TicketID: ticket.ID,
			Actor:    actor.eventActor(),
			Payload: events.CommentAddedPayload{
				CommentID:  comment.ID,
				Subject:    ticket.Subject,
				CreatorID:  ticket.CreatorID,
				AssigneeID: ticket.AssigneeID,
				Priority:   ticket.Priority,
			},
		})
	})
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	return comment, nil
}

// SetStatus moves the ticket to another lifecycle state. Any of the
// four states is reachable from any other; requesting the current state
// is an exact no-op with no event.
func (s *TicketService) SetStatus(ctx context.Context, actor Actor, ticketID string, status domain.TicketStatus) (*domain.Ticket, error) {
	if !actor.IsStaff() {
		return nil, errorutil.NewForbidden("only agents or admins can change ticket status")
	}
	if !status.IsValid() {
		return nil, errorutil.NewValidationError("unknown status", map[string]any{"status": status})
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorutil.NewNotFound("ticket", map[string]any{"id": ticketID})
		}
		return nil, errorutil.NewInternalError(err)
	}
	if ticket.Status == status {
		return ticket, nil
	}

	oldStatus := ticket.Status
	ticket.Status = status
	err = s.txm.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.tickets.Update(ctx, ticket); err != nil {
			return err
		}
		return s.publish(ctx, events.Event{
			Type:     events.EventStatusChanged,
			TicketID: ticket.ID,
			Actor:    actor.eventActor(),
			Payload: events.StatusChangedPayload{
				Subject:   ticket.Subject,
				CreatorID: ticket.CreatorID,
				OldStatus: oldStatus,
				NewStatus: status,
			},
		})
	})
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	return ticket, nil
}

// AssignTicket sets or clears the assignee. The assignee must hold a
// staff role; reassigning the current assignee is a no-op.
func (s *TicketService) AssignTicket(ctx context.Context, actor Actor, ticketID string, assigneeID *string) (*domain.Ticket, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, errorutil.NewForbidden("only admins can assign tickets")
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorutil.NewNotFound("ticket", map[string]any{"id": ticketID})
		}
		return nil, errorutil.NewInternalError(err)
	}

	if assigneeID == nil {
		if ticket.AssigneeID == nil {
			return ticket, nil
		}
		ticket.AssigneeID = nil
		if err := s.tickets.Update(ctx, ticket); err != nil {
			return nil, errorutil.MapError(err)
		}
		return ticket, nil
	}

	if ticket.AssigneeID != nil && *ticket.AssigneeID == *assigneeID {
		return ticket, nil
	}

	assignee, err := s.users.GetByID(ctx, *assigneeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorutil.NewValidationError("assignee does not exist", map[string]any{"assignee_id": *assigneeID})
		}
		return nil, errorutil.NewInternalError(err)
	}
	if !assignee.Role.IsStaff() {
		return nil, errorutil.NewValidationError("assignee must be an agent or admin", map[string]any{"assignee_id": assignee.ID})
	}

	ticket.AssigneeID = assigneeID
	err = s.txm.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.tickets.Update(ctx, ticket); err != nil {
			return err
		}
		return s.publish(ctx, events.Event{
			Type:     events.EventTicketAssigned,
			TicketID: ticket.ID,
			Actor:    actor.eventActor(),
			Payload: events.TicketAssignedPayload{
				Subject:    ticket.Subject,
				AssigneeID: assignee.ID,
			},
		})
	})
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	return ticket, nil
}

// VoteTicket records an up or down vote and returns the new tallies.
// The counter bump is a single UPDATE, so concurrent votes all land;
// the per-voter row keeps only the latest direction.
func (s *TicketService) VoteTicket(ctx context.Context, actor Actor, ticketID string, direction domain.VoteDirection) (int, int, error) {
	if !direction.IsValid() {
		return 0, 0, errorutil.NewValidationError("unknown vote direction", map[string]any{"direction": direction})
	}

	var upvotes, downvotes int
	err := s.txm.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		upvotes, downvotes, err = s.tickets.IncrementVote(ctx, ticketID, direction)
		if err != nil {
			return err
		}
		return s.votes.Upsert(ctx, &domain.Vote{
			TicketID:  ticketID,
			VoterID:   actor.ID,
			Direction: direction,
		})
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, errorutil.NewNotFound("ticket", map[string]any{"id": ticketID})
		}
		return 0, 0, errorutil.MapError(err)
	}
	return upvotes, downvotes, nil
}

// ListTickets returns one page of tickets the actor may see. Users see
// their own tickets; staff see everything.
func (s *TicketService) ListTickets(ctx context.Context, actor Actor, query TicketListQuery) (*domain.Page[domain.Ticket], error) {
	if query.Status != nil && !query.Status.IsValid() {
		return nil, errorutil.NewValidationError("unknown status", map[string]any{"status": *query.Status})
	}
	sort := query.Sort
	if sort == "" {
		sort = repository.SortRecent
	}
	if !sort.IsValid() {
		return nil, errorutil.NewValidationError("unknown sort", map[string]any{"sort": sort})
	}
	page := query.Page
	if page < 1 {
		page = 1
	}

	filter := repository.TicketFilter{
		Status:     query.Status,
		CategoryID: query.CategoryID,
		Search:     query.Search,
		Sort:       sort,
		Limit:      ticketPageSize,
		Offset:     (page - 1) * ticketPageSize,
	}
	if !actor.IsStaff() {
		creatorID := actor.ID
		filter.CreatorID = &creatorID
	}

	items, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	total, err := s.tickets.CountWithFilter(ctx, filter)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	result := domain.NewPage(items, page, ticketPageSize, total)
	return &result, nil
}

// OpenAttachment authorizes and streams one stored attachment. The
// caller owns closing the reader.
func (s *TicketService) OpenAttachment(ctx context.Context, actor Actor, ticketID, attachmentID string) (*domain.Attachment, io.ReadCloser, error) {
	if _, err := s.loadVisible(ctx, actor, ticketID); err != nil {
		return nil, nil, err
	}
	att, err := s.attachments.GetByID(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, errorutil.NewNotFound("attachment", map[string]any{"id": attachmentID})
		}
		return nil, nil, errorutil.NewInternalError(err)
	}
	if att.TicketID != ticketID {
		return nil, nil, errorutil.NewNotFound("attachment", map[string]any{"id": attachmentID})
	}
	reader, err := s.store.Get(ctx, att.StorageKey)
	if err != nil {
		return nil, nil, errorutil.NewInternalError(err)
	}
	return att, reader, nil
}

// loadVisible fetches a ticket and applies the view rule: creators see
// their own tickets, staff see all.
func (s *TicketService) loadVisible(ctx context.Context, actor Actor, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorutil.NewNotFound("ticket", map[string]any{"id": ticketID})
		}
		return nil, errorutil.NewInternalError(err)
	}
	if ticket.CreatorID != actor.ID && !actor.IsStaff() {
		return nil, errorutil.NewForbidden("not allowed to access this ticket")
	}
	return ticket, nil
}

func (s *TicketService) storeAttachment(ctx context.Context, ticketID string, upload AttachmentInput) (string, error) {
	stored := fmt.Sprintf("%s_%s", ticketID, sanitizeFilename(upload.Filename))
	if err := s.store.Put(ctx, stored, upload.Content, upload.Size, upload.ContentType); err != nil {
		return "", err
	}
	record := &domain.Attachment{
		TicketID:         ticketID,
		StoredFilename:   stored,
		OriginalFilename: upload.Filename,
		StorageKey:       stored,
		SizeBytes:        upload.Size,
	}
	if err := s.attachments.Create(ctx, record); err != nil {
		return stored, err
	}
	return stored, nil
}

func (s *TicketService) removeStoredObjects(keys []string) {
	if s.store == nil || len(keys) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, key := range keys {
		if err := s.store.Remove(ctx, key); err != nil {
			s.logger.Warn("attachment object left behind",
				zap.String("key", key),
				zap.Error(err))
		}
	}
}

func (s *TicketService) publish(ctx context.Context, event events.Event) error {
	if s.dispatcher == nil {
		return nil
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return s.dispatcher.Publish(ctx, event)
}

// allowedExtensions is the upload policy: plain documents and common
// image formats only. The check is case-insensitive and requires an
// extension to be present at all.
var allowedExtensions = map[string]struct{}{
	".txt":  {},
	".pdf":  {},
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".doc":  {},
	".docx": {},
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// acceptableUpload reports whether an upload carries content and an
// allow-listed extension.
func acceptableUpload(upload AttachmentInput) bool {
	if upload.Content == nil {
		return false
	}
	ext := strings.ToLower(filepath.Ext(upload.Filename))
	_, ok := allowedExtensions[ext]
	return ok
}

// sanitizeFilename strips directory components and collapses anything
// outside [A-Za-z0-9._-] so the name is safe as an object key segment.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "file"
	}
	return name
}
