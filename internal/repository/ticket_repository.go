package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quickdesk/helpdesk-service/internal/domain"
)

// TicketSort selects the listing order.
type TicketSort string

const (
	SortRecent   TicketSort = "recent"
	SortPriority TicketSort = "priority"
)

// IsValid reports whether the sort mode is known.
func (s TicketSort) IsValid() bool {
	return s == SortRecent || s == SortPriority
}

// TicketFilter captures listing parameters. Visibility scoping is
// expressed through CreatorID; nil means all tickets.
type TicketFilter struct {
	CreatorID  *string
	Status     *domain.TicketStatus
	CategoryID *string
	Search     *string
	Sort       TicketSort
	Limit      int
	Offset     int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	CountWithFilter(ctx context.Context, filter TicketFilter) (int64, error)
	IncrementVote(ctx context.Context, id string, direction domain.VoteDirection) (upvotes, downvotes int, err error)
	TouchUpdated(ctx context.Context, id string) error
	CountByCategory(ctx context.Context, categoryID string) (int64, error)
	CountByCreator(ctx context.Context, creatorID string) (int64, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (subject, description, status, priority, creator_id, category_id, assignee_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, upvotes, downvotes, created_at, updated_at`
	return dbFrom(ctx, r.pool).QueryRow(ctx, query,
		ticket.Subject,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.CreatorID,
		ticket.CategoryID,
		ticket.AssigneeID,
	).Scan(&ticket.ID, &ticket.Upvotes, &ticket.Downvotes, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET subject=$1, description=$2, status=$3, priority=$4,
            category_id=$5, assignee_id=$6, updated_at=NOW()
        WHERE id=$7
        RETURNING updated_at`
	if err := dbFrom(ctx, r.pool).QueryRow(ctx, query,
		ticket.Subject,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.CategoryID,
		ticket.AssigneeID,
		ticket.ID,
	).Scan(&ticket.UpdatedAt); err != nil {
		return err
	}
	return nil
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM tickets WHERE id=$1`
	cmd, err := dbFrom(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `
        SELECT id, subject, description, status, priority, creator_id, category_id,
               assignee_id, upvotes, downvotes, created_at, updated_at
        FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := dbFrom(ctx, r.pool).QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.Subject,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.CreatorID,
		&ticket.CategoryID,
		&ticket.AssigneeID,
		&ticket.Upvotes,
		&ticket.Downvotes,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := `SELECT id, subject, description, status, priority, creator_id, category_id,
                    assignee_id, upvotes, downvotes, created_at, updated_at
             FROM tickets`
	clauses, args := buildTicketClauses(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY %s LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), orderClause(filter.Sort), limit, offset)

	rows, err := dbFrom(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) CountWithFilter(ctx context.Context, filter TicketFilter) (int64, error) {
	clauses, args := buildTicketClauses(filter)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM tickets WHERE %s`, strings.Join(clauses, " AND "))

	var count int64
	if err := dbFrom(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// IncrementVote bumps one counter by exactly 1 in a single statement so
// concurrent votes never lose updates.
func (r *ticketRepository) IncrementVote(ctx context.Context, id string, direction domain.VoteDirection) (int, int, error) {
	const upQuery = `
        UPDATE tickets SET upvotes = upvotes + 1, updated_at=NOW()
        WHERE id=$1
        RETURNING upvotes, downvotes`
	const downQuery = `
        UPDATE tickets SET downvotes = downvotes + 1, updated_at=NOW()
        WHERE id=$1
        RETURNING upvotes, downvotes`

	query := upQuery
	if direction == domain.VoteDown {
		query = downQuery
	}

	var upvotes, downvotes int
	if err := dbFrom(ctx, r.pool).QueryRow(ctx, query, id).Scan(&upvotes, &downvotes); err != nil {
		return 0, 0, err
	}
	return upvotes, downvotes, nil
}

func (r *ticketRepository) TouchUpdated(ctx context.Context, id string) error {
	const query = `UPDATE tickets SET updated_at=NOW() WHERE id=$1`
	cmd, err := dbFrom(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) CountByCategory(ctx context.Context, categoryID string) (int64, error) {
	const query = `SELECT COUNT(*) FROM tickets WHERE category_id=$1`
	var count int64
	if err := dbFrom(ctx, r.pool).QueryRow(ctx, query, categoryID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ticketRepository) CountByCreator(ctx context.Context, creatorID string) (int64, error) {
	const query = `SELECT COUNT(*) FROM tickets WHERE creator_id=$1`
	var count int64
	if err := dbFrom(ctx, r.pool).QueryRow(ctx, query, creatorID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func buildTicketClauses(filter TicketFilter) ([]string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CreatorID != nil {
		args = append(args, *filter.CreatorID)
		clauses = append(clauses, fmt.Sprintf("creator_id=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("category_id=$%d", len(args)))
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		search := "%" + strings.TrimSpace(*filter.Search) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(subject LIKE %s OR description LIKE %s)", placeholder, placeholder))
	}
	return clauses, args
}

// priorityRankSQL is derived from the domain rank so SQL ordering and
// in-process ordering can never drift apart.
var priorityRankSQL = func() string {
	var b strings.Builder
	b.WriteString("CASE priority")
	for _, p := range []domain.TicketPriority{
		domain.TicketPriorityLow,
		domain.TicketPriorityMedium,
		domain.TicketPriorityHigh,
		domain.TicketPriorityUrgent,
	} {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", p, p.Rank())
	}
	b.WriteString(" ELSE 0 END")
	return b.String()
}()

func orderClause(sort TicketSort) string {
	if sort == SortPriority {
		return priorityRankSQL + " DESC, updated_at DESC"
	}
	return "updated_at DESC"
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Subject,
			&ticket.Description,
			&ticket.Status,
			&ticket.Priority,
			&ticket.CreatorID,
			&ticket.CategoryID,
			&ticket.AssigneeID,
			&ticket.Upvotes,
			&ticket.Downvotes,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
