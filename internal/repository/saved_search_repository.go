package repository

import (
	"context"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// SavedSearchRepository stores named ticket filters.
type SavedSearchRepository interface {
	Create(ctx context.Context, search *domain.SavedSearch) error
	Update(ctx context.Context, search *domain.SavedSearch) error
	GetByID(ctx context.Context, id string) (*domain.SavedSearch, error)
	// ListVisible returns the user's own searches plus shared ones.
	ListVisible(ctx context.Context, userID string) ([]domain.SavedSearch, error)
	Delete(ctx context.Context, id string) error
}

type savedSearchRepository struct {
	db DBTX
}

func (r *savedSearchRepository) Create(ctx context.Context, search *domain.SavedSearch) error {
	const query = `
        INSERT INTO saved_searches (id, user_id, title, shared, query, created_at)
        VALUES ($1,$2,$3,$4,$5,$6)`
	_, err := r.db.Exec(ctx, query, search.ID, search.UserID, search.Title, search.Shared, search.Query, search.CreatedAt)
	return err
}

func (r *savedSearchRepository) Update(ctx context.Context, search *domain.SavedSearch) error {
	tag, err := r.db.Exec(ctx, `UPDATE saved_searches SET title=$1, shared=$2, query=$3 WHERE id=$4`,
		search.Title, search.Shared, search.Query, search.ID)
	if err != nil {
		return err
	}
	return requireRow(tag, "saved search", search.ID)
}

func (r *savedSearchRepository) GetByID(ctx context.Context, id string) (*domain.SavedSearch, error) {
	var s domain.SavedSearch
	err := r.db.QueryRow(ctx, `SELECT id, user_id, title, shared, query, created_at FROM saved_searches WHERE id=$1`, id).
		Scan(&s.ID, &s.UserID, &s.Title, &s.Shared, &s.Query, &s.CreatedAt)
	if err != nil {
		return nil, notFound(err, "saved search", id)
	}
	return &s, nil
}

func (r *savedSearchRepository) ListVisible(ctx context.Context, userID string) ([]domain.SavedSearch, error) {
	const query = `
        SELECT id, user_id, title, shared, query, created_at
        FROM saved_searches WHERE user_id=$1 OR shared ORDER BY title`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SavedSearch
	for rows.Next() {
		var s domain.SavedSearch
		if err := rows.Scan(&s.ID, &s.UserID, &s.Title, &s.Shared, &s.Query, &s.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func (r *savedSearchRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM saved_searches WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(tag, "saved search", id)
}
