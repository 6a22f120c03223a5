package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/quickdesk/helpdesk-service/internal/domain"
	"github.com/quickdesk/helpdesk-service/internal/events"
	"github.com/quickdesk/helpdesk-service/internal/repository"
	"github.com/quickdesk/helpdesk-service/pkg/errorutil"
	"github.com/quickdesk/helpdesk-service/pkg/metrics"
)

const notificationPageSize = 20

// NotificationService materializes per-recipient notifications from
// ticket events and serves the notification feed.
type NotificationService struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	dispatcher    events.Dispatcher
	cache         *redis.Client
	cacheTTL      time.Duration
	logger        *zap.Logger
}

// NotificationDependencies bundles collaborators.
type NotificationDependencies struct {
	NotificationRepo repository.NotificationRepository
	UserRepo         repository.UserRepository
	Dispatcher       events.Dispatcher
	Cache            *redis.Client
	CacheTTL         time.Duration
	Logger           *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		notifications: deps.NotificationRepo,
		users:         deps.UserRepo,
		dispatcher:    deps.Dispatcher,
		cache:         deps.Cache,
		cacheTTL:      deps.CacheTTL,
		logger:        logger,
	}
}

// RegisterHandlers subscribes the fan-out handlers. Handlers run on the
// publisher's goroutine inside the publishing transaction, so a failed
// insert aborts the whole operation.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
	n.dispatcher.Subscribe(events.EventStatusChanged, n.handleStatusChanged)
	n.dispatcher.Subscribe(events.EventCommentAdded, n.handleCommentAdded)
}

// handleTicketCreated notifies every admin and agent except the creator.
func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}

	staff, err := n.users.ListByRoles(ctx, domain.RoleAdmin, domain.RoleAgent)
	if err != nil {
		return err
	}

	message := fmt.Sprintf(`New ticket "%s" created by %s`, payload.Subject, event.Actor.Username)
	seen := map[string]struct{}{payload.CreatorID: {}}
	for _, member := range staff {
		if _, ok := seen[member.ID]; ok {
			continue
		}
		seen[member.ID] = struct{}{}
		if err := n.insert(ctx, event, domain.NotificationTicketCreated, member.ID, message, nil); err != nil {
			return err
		}
	}
	return nil
}

// handleTicketAssigned notifies the newly assigned staff member.
func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	message := fmt.Sprintf(`Ticket "%s" has been assigned to you`, payload.Subject)
	return n.insert(ctx, event, domain.NotificationTicketAssigned, payload.AssigneeID, message, nil)
}

// handleStatusChanged notifies the ticket's creator with humanized
// status names.
func (n *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.StatusChangedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	message := fmt.Sprintf(`Your ticket "%s" status changed from %s to %s`,
		payload.Subject, payload.OldStatus.Label(), payload.NewStatus.Label())
	return n.insert(ctx, event, domain.NotificationStatusChanged, payload.CreatorID, message, nil)
}

// handleCommentAdded notifies the creator, the assignee, and, on high or
// urgent tickets, every admin. The commenter never notifies themselves
// and nobody receives two rows for one comment; the first matching rule
// decides the message.
func (n *NotificationService) handleCommentAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CommentAddedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}

	commentID := payload.CommentID
	seen := map[string]struct{}{event.Actor.ID: {}}
	notifyOnce := func(recipientID, message string) error {
		if _, ok := seen[recipientID]; ok {
			return nil
		}
		seen[recipientID] = struct{}{}
		return n.insert(ctx, event, domain.NotificationCommentAdded, recipientID, message, &commentID)
	}

	if err := notifyOnce(payload.CreatorID,
		fmt.Sprintf(`New comment on your ticket "%s" by %s`, payload.Subject, event.Actor.Username)); err != nil {
		return err
	}
	if payload.AssigneeID != nil {
		if err := notifyOnce(*payload.AssigneeID,
			fmt.Sprintf(`New comment on assigned ticket "%s" by %s`, payload.Subject, event.Actor.Username)); err != nil {
			return err
		}
	}
	if payload.Priority.IsEscalated() {
		admins, err := n.users.ListByRoles(ctx, domain.RoleAdmin)
		if err != nil {
			return err
		}
		message := fmt.Sprintf(`New comment on %s priority ticket "%s" by %s`,
			payload.Priority, payload.Subject, event.Actor.Username)
		for _, admin := range admins {
			if err := notifyOnce(admin.ID, message); err != nil {
				return err
			}
		}
	}
	return nil
}

// ListForUser returns one page of the user's notifications, newest
// first.
func (n *NotificationService) ListForUser(ctx context.Context, userID string, page int) (*domain.Page[domain.Notification], error) {
	if page < 1 {
		page = 1
	}
	items, err := n.notifications.ListByRecipient(ctx, userID, notificationPageSize, (page-1)*notificationPageSize)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	total, err := n.notifications.CountByRecipient(ctx, userID)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	result := domain.NewPage(items, page, notificationPageSize, total)
	return &result, nil
}

// UnreadCount returns the unread badge value, reading through the cache
// when one is configured. Cache failures fall back to the database.
func (n *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	if n.cache != nil {
		cached, err := n.cache.Get(ctx, unreadCountKey(userID)).Result()
		switch {
		case err == nil:
			if count, parseErr := strconv.ParseInt(cached, 10, 64); parseErr == nil {
				return count, nil
			}
		case !errors.Is(err, redis.Nil):
			n.logger.Warn("unread count cache read failed",
				zap.String("user_id", userID),
				zap.Error(err))
		}
	}

	count, err := n.notifications.CountUnread(ctx, userID)
	if err != nil {
		return 0, errorutil.NewInternalError(err)
	}
	if n.cache != nil {
		if err := n.cache.Set(ctx, unreadCountKey(userID), count, n.cacheTTL).Err(); err != nil {
			n.logger.Warn("unread count cache write failed",
				zap.String("user_id", userID),
				zap.Error(err))
		}
	}
	return count, nil
}

// MarkRead marks one owned notification as read. Already-read rows are
// a no-op.
func (n *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	notification, err := n.notifications.GetByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errorutil.NewNotFound("notification", map[string]any{"id": notificationID})
		}
		return errorutil.NewInternalError(err)
	}
	if notification.RecipientID != userID {
		return errorutil.NewForbidden("notification belongs to another user")
	}
	if notification.IsRead {
		return nil
	}
	if err := n.notifications.MarkRead(ctx, notificationID); err != nil {
		return errorutil.MapError(err)
	}
	n.invalidateUnreadCount(ctx, userID)
	return nil
}

// MarkAllRead marks every unread notification for the user and returns
// how many rows changed.
func (n *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	updated, err := n.notifications.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, errorutil.NewInternalError(err)
	}
	if updated > 0 {
		n.invalidateUnreadCount(ctx, userID)
	}
	return updated, nil
}

// insert writes one notification row and drops the recipient's cached
// unread count.
func (n *NotificationService) insert(ctx context.Context, event events.Event, kind domain.NotificationType, recipientID, message string, commentID *string) error {
	ticketID := event.TicketID
	notification := &domain.Notification{
		RecipientID: recipientID,
		TicketID:    &ticketID,
		CommentID:   commentID,
		Type:        kind,
		Message:     message,
	}
	if err := n.notifications.Create(ctx, notification); err != nil {
		return err
	}
	metrics.NotificationsFannedOut.WithLabelValues(string(kind)).Inc()
	n.invalidateUnreadCount(ctx, recipientID)
	return nil
}

func (n *NotificationService) invalidateUnreadCount(ctx context.Context, userID string) {
	if n.cache == nil {
		return
	}
	if err := n.cache.Del(ctx, unreadCountKey(userID)).Err(); err != nil {
		n.logger.Warn("unread count cache invalidation failed",
			zap.String("user_id", userID),
			zap.Error(err))
	}
}

func unreadCountKey(userID string) string {
	return "notif:unread:" + userID
}
