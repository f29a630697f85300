package repository

import (
	"context"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// TicketChangeRepository stores field-level audit rows.
type TicketChangeRepository interface {
	Create(ctx context.Context, change *domain.TicketChange) error
	ListByFollowUp(ctx context.Context, followUpID string) ([]domain.TicketChange, error)
}

type ticketChangeRepository struct {
	db DBTX
}

func (r *ticketChangeRepository) Create(ctx context.Context, change *domain.TicketChange) error {
	const query = `
        INSERT INTO ticket_changes (id, followup_id, field, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5)`
	_, err := r.db.Exec(ctx, query,
		change.ID,
		change.FollowUpID,
		change.Field,
		change.OldValue,
		change.NewValue,
	)
	return err
}

func (r *ticketChangeRepository) ListByFollowUp(ctx context.Context, followUpID string) ([]domain.TicketChange, error) {
	const query = `
        SELECT id, followup_id, field, old_value, new_value
        FROM ticket_changes WHERE followup_id=$1 ORDER BY seq ASC`
	rows, err := r.db.Query(ctx, query, followUpID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketChange
	for rows.Next() {
		var change domain.TicketChange
		if err := rows.Scan(
			&change.ID,
			&change.FollowUpID,
			&change.Field,
			&change.OldValue,
			&change.NewValue,
		); err != nil {
			return nil, err
		}
		result = append(result, change)
	}
	return result, rows.Err()
}
