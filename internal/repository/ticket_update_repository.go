package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opensupport/helpdesk/internal/domain"
)

// TicketUpdateRepository manages ticket activity entries.
type TicketUpdateRepository interface {
	Create(ctx context.Context, update *domain.TicketUpdate) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketUpdate, error)
}

type ticketUpdateRepository struct {
	pool *pgxpool.Pool
}

// NewTicketUpdateRepository builds repository.
func NewTicketUpdateRepository(pool *pgxpool.Pool) TicketUpdateRepository {
	return &ticketUpdateRepository{pool: pool}
}

func (r *ticketUpdateRepository) Create(ctx context.Context, update *domain.TicketUpdate) error {
	const query = `
        INSERT INTO ticket_updates (ticket_id, kind, author_id, body, internal)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		update.TicketID,
		update.Kind,
		update.AuthorID,
		update.Body,
		update.Internal,
	).Scan(&update.ID, &update.CreatedAt)
}

// ListByTicket returns updates newest-first, matching how threads are
// displayed.
func (r *ticketUpdateRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketUpdate, error) {
	const query = `
        SELECT id, ticket_id, kind, author_id, body, internal, created_at
        FROM ticket_updates WHERE ticket_id=$1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketUpdate
	for rows.Next() {
		var update domain.TicketUpdate
		if err := rows.Scan(
			&update.ID,
			&update.TicketID,
			&update.Kind,
			&update.AuthorID,
			&update.Body,
			&update.Internal,
			&update.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, update)
	}
	return result, rows.Err()
}
