package repository

import (
	"context"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// FollowUpRepository stores follow-ups in creation order.
type FollowUpRepository interface {
	Create(ctx context.Context, followUp *domain.FollowUp) error
	Update(ctx context.Context, followUp *domain.FollowUp) error
	GetByID(ctx context.Context, id string) (*domain.FollowUp, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.FollowUp, error)
	Delete(ctx context.Context, id string) error
}

type followUpRepository struct {
	db DBTX
}

const followUpColumns = `id, ticket_id, title, comment, public, new_status, user_id, date`

func (r *followUpRepository) Create(ctx context.Context, followUp *domain.FollowUp) error {
	const query = `
        INSERT INTO followups (id, ticket_id, title, comment, public, new_status, user_id, date)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := r.db.Exec(ctx, query,
		followUp.ID,
		followUp.TicketID,
		followUp.Title,
		followUp.Comment,
		followUp.Public,
		followUp.NewStatus,
		followUp.UserID,
		followUp.Date,
	)
	return err
}

func (r *followUpRepository) Update(ctx context.Context, followUp *domain.FollowUp) error {
	const query = `
        UPDATE followups SET title=$1, comment=$2, public=$3, new_status=$4
        WHERE id=$5`
	tag, err := r.db.Exec(ctx, query,
		followUp.Title,
		followUp.Comment,
		followUp.Public,
		followUp.NewStatus,
		followUp.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(tag, "follow-up", followUp.ID)
}

func (r *followUpRepository) GetByID(ctx context.Context, id string) (*domain.FollowUp, error) {
	var fu domain.FollowUp
	err := r.db.QueryRow(ctx, `SELECT `+followUpColumns+` FROM followups WHERE id=$1`, id).Scan(
		&fu.ID, &fu.TicketID, &fu.Title, &fu.Comment, &fu.Public, &fu.NewStatus, &fu.UserID, &fu.Date,
	)
	if err != nil {
		return nil, notFound(err, "follow-up", id)
	}
	return &fu, nil
}

func (r *followUpRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.FollowUp, error) {
	rows, err := r.db.Query(ctx, `SELECT `+followUpColumns+` FROM followups WHERE ticket_id=$1 ORDER BY seq ASC`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.FollowUp
	for rows.Next() {
		var fu domain.FollowUp
		if err := rows.Scan(&fu.ID, &fu.TicketID, &fu.Title, &fu.Comment, &fu.Public, &fu.NewStatus, &fu.UserID, &fu.Date); err != nil {
			return nil, err
		}
		result = append(result, fu)
	}
	return result, rows.Err()
}

func (r *followUpRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM followups WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(tag, "follow-up", id)
}
