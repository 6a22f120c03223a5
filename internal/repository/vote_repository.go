package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quickdesk/helpdesk-service/internal/domain"
)

// VoteRepository stores each voter's latest direction per ticket.
type VoteRepository interface {
	Upsert(ctx context.Context, vote *domain.Vote) error
	GetByTicketAndVoter(ctx context.Context, ticketID, voterID string) (*domain.Vote, error)
}

type voteRepository struct {
	pool *pgxpool.Pool
}

// NewVoteRepository constructs repository.
func NewVoteRepository(pool *pgxpool.Pool) VoteRepository {
	return &voteRepository{pool: pool}
}

func (r *voteRepository) Upsert(ctx context.Context, vote *domain.Vote) error {
	const query = `
        INSERT INTO votes (ticket_id, voter_id, direction)
        VALUES ($1,$2,$3)
        ON CONFLICT (ticket_id, voter_id)
        DO UPDATE SET direction=EXCLUDED.direction, updated_at=NOW()
        RETURNING id, created_at, updated_at`
	return dbFrom(ctx, r.pool).QueryRow(ctx, query,
		vote.TicketID,
		vote.VoterID,
		vote.Direction,
	).Scan(&vote.ID, &vote.CreatedAt, &vote.UpdatedAt)
}

func (r *voteRepository) GetByTicketAndVoter(ctx context.Context, ticketID, voterID string) (*domain.Vote, error) {
	const query = `
        SELECT id, ticket_id, voter_id, direction, created_at, updated_at
        FROM votes WHERE ticket_id=$1 AND voter_id=$2`
	var vote domain.Vote
	if err := dbFrom(ctx, r.pool).QueryRow(ctx, query, ticketID, voterID).Scan(
		&vote.ID,
		&vote.TicketID,
		&vote.VoterID,
		&vote.Direction,
		&vote.CreatedAt,
		&vote.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &vote, nil
}
