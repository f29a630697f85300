package service

import (
	"context"
	"strings"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// FollowUpEditInput replaces the editable parts of a follow-up.
type FollowUpEditInput struct {
	Title     string
	Comment   string
	Public    bool
	NewStatus *domain.TicketStatus
}

// EditFollowUp rewrites a follow-up in place. Date, author, change rows and
// attachments are kept.
func (s *TicketService) EditFollowUp(ctx context.Context, actor *domain.User, ticketID, followUpID string, input FollowUpEditInput) (*domain.FollowUp, error) {
	if err := s.requireStaff(actor); err != nil {
		return nil, err
	}
	if input.NewStatus != nil && !input.NewStatus.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": int(*input.NewStatus)})
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}

	var out *domain.FollowUp
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, _, err := s.loadAccessible(ctx, tx, actor, ticketID); err != nil {
			return err
		}
		fu, err := followUpOf(ctx, tx, ticketID, followUpID)
		if err != nil {
			return err
		}
		fu.Title = title
		fu.Comment = input.Comment
		fu.Public = input.Public
		fu.NewStatus = input.NewStatus
		if err := tx.FollowUps().Update(ctx, fu); err != nil {
			return err
		}
		out = fu
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteFollowUp removes a follow-up with its changes and attachments.
// Only superusers may delete history.
func (s *TicketService) DeleteFollowUp(ctx context.Context, actor *domain.User, ticketID, followUpID string) error {
	if err := s.requireStaff(actor); err != nil {
		return err
	}
	if !actor.IsSuperuser {
		return apperrors.NewForbidden("only superusers may delete follow-ups", nil)
	}
	return s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := followUpOf(ctx, tx, ticketID, followUpID); err != nil {
			return err
		}
		return tx.FollowUps().Delete(ctx, followUpID)
	})
}

// DeleteAttachment removes one attachment from a ticket's history.
func (s *TicketService) DeleteAttachment(ctx context.Context, actor *domain.User, ticketID, attachmentID string) error {
	if err := s.requireStaff(actor); err != nil {
		return err
	}
	return s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, _, err := s.loadAccessible(ctx, tx, actor, ticketID); err != nil {
			return err
		}
		attachment, err := tx.Attachments().GetByID(ctx, attachmentID)
		if err != nil {
			return err
		}
		if _, err := followUpOf(ctx, tx, ticketID, attachment.FollowUpID); err != nil {
			return apperrors.NewNotFound("attachment", map[string]any{"id": attachmentID})
		}
		return tx.Attachments().Delete(ctx, attachmentID)
	})
}

// followUpOf loads a follow-up and checks that it belongs to ticketID.
func followUpOf(ctx context.Context, store repository.Store, ticketID, followUpID string) (*domain.FollowUp, error) {
	fu, err := store.FollowUps().GetByID(ctx, followUpID)
	if err != nil {
		return nil, err
	}
	if fu.TicketID != ticketID {
		return nil, apperrors.NewNotFound("follow-up", map[string]any{"id": followUpID})
	}
	return fu, nil
}
