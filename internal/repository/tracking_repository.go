package repository

import (
	"context"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// TimeTrackRepository stores time spent on tickets.
type TimeTrackRepository interface {
	Create(ctx context.Context, track *domain.TimeTrack) error
	Update(ctx context.Context, track *domain.TimeTrack) error
	GetByID(ctx context.Context, id string) (*domain.TimeTrack, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TimeTrack, error)
	Delete(ctx context.Context, id string) error
}

// MoneyTrackRepository stores money spent on tickets.
type MoneyTrackRepository interface {
	Create(ctx context.Context, track *domain.MoneyTrack) error
	Update(ctx context.Context, track *domain.MoneyTrack) error
	GetByID(ctx context.Context, id string) (*domain.MoneyTrack, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.MoneyTrack, error)
	Delete(ctx context.Context, id string) error
}

type timeTrackRepository struct {
	db DBTX
}

func (r *timeTrackRepository) Create(ctx context.Context, track *domain.TimeTrack) error {
	const query = `
        INSERT INTO time_tracks (id, ticket_id, tracked_by_id, duration_seconds, tracked_at, description)
        VALUES ($1,$2,$3,$4,$5,$6)`
	_, err := r.db.Exec(ctx, query, track.ID, track.TicketID, track.TrackedByID,
		int64(track.Duration/time.Second), track.TrackedAt, track.Description)
	return err
}

func (r *timeTrackRepository) Update(ctx context.Context, track *domain.TimeTrack) error {
	tag, err := r.db.Exec(ctx, `UPDATE time_tracks SET duration_seconds=$1, tracked_at=$2, description=$3 WHERE id=$4`,
		int64(track.Duration/time.Second), track.TrackedAt, track.Description, track.ID)
	if err != nil {
		return err
	}
	return requireRow(tag, "time track", track.ID)
}

func (r *timeTrackRepository) GetByID(ctx context.Context, id string) (*domain.TimeTrack, error) {
	row := r.db.QueryRow(ctx, `SELECT id, ticket_id, tracked_by_id, duration_seconds, tracked_at, description FROM time_tracks WHERE id=$1`, id)
	track, err := scanTimeTrack(row)
	if err != nil {
		return nil, notFound(err, "time track", id)
	}
	return track, nil
}

func (r *timeTrackRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TimeTrack, error) {
	rows, err := r.db.Query(ctx, `SELECT id, ticket_id, tracked_by_id, duration_seconds, tracked_at, description
        FROM time_tracks WHERE ticket_id=$1 ORDER BY tracked_at`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TimeTrack
	for rows.Next() {
		track, err := scanTimeTrack(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *track)
	}
	return result, rows.Err()
}

func (r *timeTrackRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM time_tracks WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(tag, "time track", id)
}

func scanTimeTrack(row rowScanner) (*domain.TimeTrack, error) {
	var track domain.TimeTrack
	var seconds int64
	if err := row.Scan(&track.ID, &track.TicketID, &track.TrackedByID, &seconds, &track.TrackedAt, &track.Description); err != nil {
		return nil, err
	}
	track.Duration = time.Duration(seconds) * time.Second
	return &track, nil
}

type moneyTrackRepository struct {
	db DBTX
}

func (r *moneyTrackRepository) Create(ctx context.Context, track *domain.MoneyTrack) error {
	const query = `
        INSERT INTO money_tracks (id, ticket_id, tracked_by_id, amount_cents, tracked_at, description)
        VALUES ($1,$2,$3,$4,$5,$6)`
	_, err := r.db.Exec(ctx, query, track.ID, track.TicketID, track.TrackedByID, track.AmountCents, track.TrackedAt, track.Description)
	return err
}

func (r *moneyTrackRepository) Update(ctx context.Context, track *domain.MoneyTrack) error {
	tag, err := r.db.Exec(ctx, `UPDATE money_tracks SET amount_cents=$1, tracked_at=$2, description=$3 WHERE id=$4`,
		track.AmountCents, track.TrackedAt, track.Description, track.ID)
	if err != nil {
		return err
	}
	return requireRow(tag, "money track", track.ID)
}

func (r *moneyTrackRepository) GetByID(ctx context.Context, id string) (*domain.MoneyTrack, error) {
	var track domain.MoneyTrack
	err := r.db.QueryRow(ctx, `SELECT id, ticket_id, tracked_by_id, amount_cents, tracked_at, description FROM money_tracks WHERE id=$1`, id).
		Scan(&track.ID, &track.TicketID, &track.TrackedByID, &track.AmountCents, &track.TrackedAt, &track.Description)
	if err != nil {
		return nil, notFound(err, "money track", id)
	}
	return &track, nil
}

func (r *moneyTrackRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.MoneyTrack, error) {
	rows, err := r.db.Query(ctx, `SELECT id, ticket_id, tracked_by_id, amount_cents, tracked_at, description
        FROM money_tracks WHERE ticket_id=$1 ORDER BY tracked_at`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.MoneyTrack
	for rows.Next() {
		var track domain.MoneyTrack
		if err := rows.Scan(&track.ID, &track.TicketID, &track.TrackedByID, &track.AmountCents, &track.TrackedAt, &track.Description); err != nil {
			return nil, err
		}
		result = append(result, track)
	}
	return result, rows.Err()
}

func (r *moneyTrackRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM money_tracks WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(tag, "money track", id)
}
