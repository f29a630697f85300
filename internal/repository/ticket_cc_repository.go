package repository

import (
	"context"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// TicketCCRepository stores ticket subscriptions.
type TicketCCRepository interface {
	Create(ctx context.Context, cc *domain.TicketCC) error
	GetByID(ctx context.Context, id string) (*domain.TicketCC, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketCC, error)
	Delete(ctx context.Context, id string) error
}

type ticketCCRepository struct {
	db DBTX
}

const ccSelect = `
        SELECT c.id, c.ticket_id, c.user_id, COALESCE(u.username, ''), COALESCE(u.email, ''), c.email, c.can_view, c.can_update
        FROM ticket_ccs c LEFT JOIN users u ON u.id = c.user_id`

func (r *ticketCCRepository) Create(ctx context.Context, cc *domain.TicketCC) error {
	const query = `
        INSERT INTO ticket_ccs (id, ticket_id, user_id, email, can_view, can_update)
        VALUES ($1,$2,$3,$4,$5,$6)`
	_, err := r.db.Exec(ctx, query, cc.ID, cc.TicketID, cc.UserID, cc.Email, cc.CanView, cc.CanUpdate)
	return err
}

func (r *ticketCCRepository) GetByID(ctx context.Context, id string) (*domain.TicketCC, error) {
	var cc domain.TicketCC
	if err := r.db.QueryRow(ctx, ccSelect+` WHERE c.id=$1`, id).Scan(
		&cc.ID, &cc.TicketID, &cc.UserID, &cc.Username, &cc.UserEmail, &cc.Email, &cc.CanView, &cc.CanUpdate,
	); err != nil {
		return nil, notFound(err, "cc", id)
	}
	return &cc, nil
}

func (r *ticketCCRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketCC, error) {
	rows, err := r.db.Query(ctx, ccSelect+` WHERE c.ticket_id=$1 ORDER BY c.id`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketCC
	for rows.Next() {
		var cc domain.TicketCC
		if err := rows.Scan(&cc.ID, &cc.TicketID, &cc.UserID, &cc.Username, &cc.UserEmail, &cc.Email, &cc.CanView, &cc.CanUpdate); err != nil {
			return nil, err
		}
		result = append(result, cc)
	}
	return result, rows.Err()
}

func (r *ticketCCRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM ticket_ccs WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(tag, "cc", id)
}
