package service

import (
	"context"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// CCInput subscribes either a registered user or a bare address.
type CCInput struct {
	UserID    *string
	Email     string
	CanView   bool
	CanUpdate bool
}

// ListCCs returns the subscribers of a ticket.
func (s *TicketService) ListCCs(ctx context.Context, actor *domain.User, ticketID string) ([]domain.TicketCC, error) {
	if err := s.requireStaff(actor); err != nil {
		return nil, err
	}
	if _, _, err := s.loadAccessible(ctx, s.store, actor, ticketID); err != nil {
		return nil, err
	}
	return s.store.CCs().ListByTicket(ctx, ticketID)
}

// AddCC subscribes a user or e-mail address to a ticket.
func (s *TicketService) AddCC(ctx context.Context, actor *domain.User, ticketID string, input CCInput) (*domain.TicketCC, error) {
	if err := s.requireStaff(actor); err != nil {
		return nil, err
	}
	hasUser := input.UserID != nil && *input.UserID != ""
	email := strings.TrimSpace(input.Email)
	if hasUser == (email != "") {
		return nil, apperrors.NewValidationError("provide exactly one of user or email", nil)
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, apperrors.NewValidationError("invalid email", map[string]any{"email": email})
		}
	}

	var out *domain.TicketCC
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, _, err := s.loadAccessible(ctx, tx, actor, ticketID); err != nil {
			return err
		}
		cc := &domain.TicketCC{
			ID:        uuid.NewString(),
			TicketID:  ticketID,
			Email:     email,
			CanView:   input.CanView,
			CanUpdate: input.CanUpdate,
		}
		if hasUser {
			user, err := tx.Users().GetByID(ctx, *input.UserID)
			if err != nil {
				return err
			}
			id := user.ID
			cc.UserID = &id
			cc.Username = user.Username
			cc.UserEmail = user.Email
		}
		if err := tx.CCs().Create(ctx, cc); err != nil {
			return err
		}
		out = cc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RemoveCC drops a subscription from a ticket.
func (s *TicketService) RemoveCC(ctx context.Context, actor *domain.User, ticketID, ccID string) error {
	if err := s.requireStaff(actor); err != nil {
		return err
	}
	return s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, _, err := s.loadAccessible(ctx, tx, actor, ticketID); err != nil {
			return err
		}
		cc, err := tx.CCs().GetByID(ctx, ccID)
		if err != nil {
			return err
		}
		if cc.TicketID != ticketID {
			return apperrors.NewNotFound("ticket cc", map[string]any{"id": ccID})
		}
		return tx.CCs().Delete(ctx, ccID)
	})
}

// autoSubscribe adds the responder as a CC when the ticket does not already
// reach them as submitter, owner or subscriber. Failures are logged only.
func (s *TicketService) autoSubscribe(ctx context.Context, actor *domain.User, ticket domain.Ticket, assignee *domain.User, ccs []domain.TicketCC) bool {
	if !s.cfg.AutoSubscribeOnTicketResponse || actor == nil {
		return false
	}
	if !shouldSubscribe(actor, ticket, assignee, ccs) {
		return false
	}
	id := actor.ID
	cc := &domain.TicketCC{
		ID:        uuid.NewString(),
		TicketID:  ticket.ID,
		UserID:    &id,
		Username:  actor.Username,
		UserEmail: actor.Email,
		CanView:   true,
		CanUpdate: true,
	}
	if err := s.store.CCs().Create(ctx, cc); err != nil {
		s.logger.Warn("auto subscribe failed",
			zap.String("ticket_id", ticket.ID),
			zap.String("user_id", actor.ID),
			zap.Error(err))
		return false
	}
	return true
}

func shouldSubscribe(actor *domain.User, ticket domain.Ticket, assignee *domain.User, ccs []domain.TicketCC) bool {
	matches := func(v string) bool {
		v = strings.TrimSpace(v)
		return v != "" && (strings.EqualFold(v, actor.Username) || strings.EqualFold(v, actor.Email))
	}
	for _, cc := range ccs {
		if matches(cc.Display()) || (cc.UserID != nil && *cc.UserID == actor.ID) {
			return false
		}
	}
	if matches(ticket.SubmitterEmail) {
		return false
	}
	if assignee != nil && (assignee.ID == actor.ID || matches(assignee.Username)) {
		return false
	}
	return true
}

// AddDependency records that ticketID depends on dependsOnID.
func (s *TicketService) AddDependency(ctx context.Context, actor *domain.User, ticketID, dependsOnID string) (*domain.TicketDependency, error) {
	if err := s.requireStaff(actor); err != nil {
		return nil, err
	}
	if ticketID == dependsOnID {
		return nil, apperrors.NewValidationError("a ticket cannot depend on itself", map[string]any{"ticket_id": ticketID})
	}
	var out *domain.TicketDependency
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, _, err := s.loadAccessible(ctx, tx, actor, ticketID); err != nil {
			return err
		}
		if _, err := tx.Tickets().GetByID(ctx, dependsOnID); err != nil {
			return err
		}
		dep := &domain.TicketDependency{ID: uuid.NewString(), TicketID: ticketID, DependsOnID: dependsOnID}
		if err := tx.Dependencies().Create(ctx, dep); err != nil {
			return err
		}
		out = dep
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RemoveDependency deletes a dependency owned by ticketID.
func (s *TicketService) RemoveDependency(ctx context.Context, actor *domain.User, ticketID, dependencyID string) error {
	if err := s.requireStaff(actor); err != nil {
		return err
	}
	return s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, _, err := s.loadAccessible(ctx, tx, actor, ticketID); err != nil {
			return err
		}
		dep, err := tx.Dependencies().GetByID(ctx, dependencyID)
		if err != nil {
			return err
		}
		if dep.TicketID != ticketID {
			return apperrors.NewNotFound("ticket dependency", map[string]any{"id": dependencyID})
		}
		return tx.Dependencies().Delete(ctx, dependencyID)
	})
}
