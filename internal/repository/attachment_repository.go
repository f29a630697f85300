package repository

import (
	"context"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// AttachmentRepository persists attachment metadata.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.Attachment) error
	GetByID(ctx context.Context, id string) (*domain.Attachment, error)
	ListByFollowUp(ctx context.Context, followUpID string) ([]domain.Attachment, error)
	Delete(ctx context.Context, id string) error
}

type attachmentRepository struct {
	db DBTX
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *domain.Attachment) error {
	const query = `
        INSERT INTO attachments (id, followup_id, storage_key, file_name, mime_type, size_bytes, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := r.db.Exec(ctx, query,
		attachment.ID,
		attachment.FollowUpID,
		attachment.StorageKey,
		attachment.FileName,
		attachment.MimeType,
		attachment.SizeBytes,
		attachment.CreatedAt,
	)
	return err
}

func (r *attachmentRepository) GetByID(ctx context.Context, id string) (*domain.Attachment, error) {
	const query = `
        SELECT id, followup_id, storage_key, file_name, mime_type, size_bytes, created_at
        FROM attachments WHERE id=$1`
	var a domain.Attachment
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.FollowUpID, &a.StorageKey, &a.FileName, &a.MimeType, &a.SizeBytes, &a.CreatedAt,
	); err != nil {
		return nil, notFound(err, "attachment", id)
	}
	return &a, nil
}

func (r *attachmentRepository) ListByFollowUp(ctx context.Context, followUpID string) ([]domain.Attachment, error) {
	const query = `
        SELECT id, followup_id, storage_key, file_name, mime_type, size_bytes, created_at
        FROM attachments WHERE followup_id=$1 ORDER BY created_at, id`
	rows, err := r.db.Query(ctx, query, followUpID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Attachment
	for rows.Next() {
		var a domain.Attachment
		if err := rows.Scan(
			&a.ID,
			&a.FollowUpID,
			&a.StorageKey,
			&a.FileName,
			&a.MimeType,
			&a.SizeBytes,
			&a.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (r *attachmentRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM attachments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(tag, "attachment", id)
}
