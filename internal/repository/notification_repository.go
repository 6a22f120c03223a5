package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quickdesk/helpdesk-service/internal/domain"
)

// NotificationRepository persists per-recipient notification records.
// Rows are insert-only except for the read flag.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	GetByID(ctx context.Context, id string) (*domain.Notification, error)
	ListByRecipient(ctx context.Context, recipientID string, limit, offset int) ([]domain.Notification, error)
	CountByRecipient(ctx context.Context, recipientID string) (int64, error)
	CountUnread(ctx context.Context, recipientID string) (int64, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository builds repository.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

func (r *notificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	const query = `
        INSERT INTO notifications (recipient_id, ticket_id, comment_id, type, message)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, is_read, created_at`
	return dbFrom(ctx, r.pool).QueryRow(ctx, query,
		notification.RecipientID,
		notification.TicketID,
		notification.CommentID,
		notification.Type,
		notification.Message,
	).Scan(&notification.ID, &notification.IsRead, &notification.CreatedAt)
}

func (r *notificationRepository) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	const query = `
        SELECT id, recipient_id, ticket_id, comment_id, type, message, is_read, created_at
        FROM notifications WHERE id=$1`
	var notification domain.Notification
	if err := dbFrom(ctx, r.pool).QueryRow(ctx, query, id).Scan(
		&notification.ID,
		&notification.RecipientID,
		&notification.TicketID,
		&notification.CommentID,
		&notification.Type,
		&notification.Message,
		&notification.IsRead,
		&notification.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &notification, nil
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID string, limit, offset int) ([]domain.Notification, error) {
	const query = `
        SELECT id, recipient_id, ticket_id, comment_id, type, message, is_read, created_at
        FROM notifications WHERE recipient_id=$1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3`
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := dbFrom(ctx, r.pool).Query(ctx, query, recipientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		var notification domain.Notification
		if err := rows.Scan(
			&notification.ID,
			&notification.RecipientID,
			&notification.TicketID,
			&notification.CommentID,
			&notification.Type,
			&notification.Message,
			&notification.IsRead,
			&notification.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, notification)
	}
	return result, rows.Err()
}

func (r *notificationRepository) CountByRecipient(ctx context.Context, recipientID string) (int64, error) {
	const query = `SELECT COUNT(*) FROM notifications WHERE recipient_id=$1`
	var count int64
	if err := dbFrom(ctx, r.pool).QueryRow(ctx, query, recipientID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	const query = `SELECT COUNT(*) FROM notifications WHERE recipient_id=$1 AND is_read = FALSE`
	var count int64
	if err := dbFrom(ctx, r.pool).QueryRow(ctx, query, recipientID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id string) error {
	const query = `UPDATE notifications SET is_read = TRUE WHERE id=$1`
	cmd, err := dbFrom(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// MarkAllRead flips every unread row for the recipient in one statement
// and reports how many it touched; a repeat call therefore returns 0.
func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	const query = `UPDATE notifications SET is_read = TRUE WHERE recipient_id=$1 AND is_read = FALSE`
	cmd, err := dbFrom(ctx, r.pool).Exec(ctx, query, recipientID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
