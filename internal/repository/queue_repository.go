package repository

import (
	"context"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// QueueRepository provides queue lookups.
type QueueRepository interface {
	Create(ctx context.Context, queue *domain.Queue) error
	GetByID(ctx context.Context, id string) (*domain.Queue, error)
	List(ctx context.Context) ([]domain.Queue, error)
}

type queueRepository struct {
	db DBTX
}

func (r *queueRepository) Create(ctx context.Context, queue *domain.Queue) error {
	const query = `
        INSERT INTO queues (title, slug, from_address, updated_ticket_cc, new_ticket_cc)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		queue.Title,
		queue.Slug,
		queue.FromAddress,
		queue.UpdatedTicketCC,
		queue.NewTicketCC,
	).Scan(&queue.ID, &queue.CreatedAt)
}

func (r *queueRepository) GetByID(ctx context.Context, id string) (*domain.Queue, error) {
	const query = `
        SELECT id, title, slug, from_address, updated_ticket_cc, new_ticket_cc, created_at
        FROM queues WHERE id=$1`
	var q domain.Queue
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&q.ID, &q.Title, &q.Slug, &q.FromAddress, &q.UpdatedTicketCC, &q.NewTicketCC, &q.CreatedAt,
	); err != nil {
		return nil, notFound(err, "queue", id)
	}
	return &q, nil
}

func (r *queueRepository) List(ctx context.Context) ([]domain.Queue, error) {
	const query = `
        SELECT id, title, slug, from_address, updated_ticket_cc, new_ticket_cc, created_at
        FROM queues ORDER BY title`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Queue
	for rows.Next() {
		var q domain.Queue
		if err := rows.Scan(&q.ID, &q.Title, &q.Slug, &q.FromAddress, &q.UpdatedTicketCC, &q.NewTicketCC, &q.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, q)
	}
	return result, rows.Err()
}
