package repository

import (
	"context"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// DependencyRepository stores ticket dependencies.
type DependencyRepository interface {
	Create(ctx context.Context, dep *domain.TicketDependency) error
	GetByID(ctx context.Context, id string) (*domain.TicketDependency, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketDependency, error)
	Delete(ctx context.Context, id string) error
}

type dependencyRepository struct {
	db DBTX
}

func (r *dependencyRepository) Create(ctx context.Context, dep *domain.TicketDependency) error {
	const query = `
        INSERT INTO ticket_dependencies (id, ticket_id, depends_on_id)
        VALUES ($1,$2,$3)
        ON CONFLICT (ticket_id, depends_on_id) DO NOTHING`
	_, err := r.db.Exec(ctx, query, dep.ID, dep.TicketID, dep.DependsOnID)
	return err
}

func (r *dependencyRepository) GetByID(ctx context.Context, id string) (*domain.TicketDependency, error) {
	var dep domain.TicketDependency
	err := r.db.QueryRow(ctx, `SELECT id, ticket_id, depends_on_id FROM ticket_dependencies WHERE id=$1`, id).
		Scan(&dep.ID, &dep.TicketID, &dep.DependsOnID)
	if err != nil {
		return nil, notFound(err, "dependency", id)
	}
	return &dep, nil
}

func (r *dependencyRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketDependency, error) {
	rows, err := r.db.Query(ctx, `SELECT id, ticket_id, depends_on_id FROM ticket_dependencies WHERE ticket_id=$1 ORDER BY id`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketDependency
	for rows.Next() {
		var dep domain.TicketDependency
		if err := rows.Scan(&dep.ID, &dep.TicketID, &dep.DependsOnID); err != nil {
			return nil, err
		}
		result = append(result, dep)
	}
	return result, rows.Err()
}

func (r *dependencyRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM ticket_dependencies WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(tag, "dependency", id)
}
