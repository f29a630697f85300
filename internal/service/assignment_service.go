package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/workflow"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// AssignmentService handles self-assignment and owner selection.
type AssignmentService struct {
	store      repository.Store
	dispatcher events.Dispatcher
	cfg        config.HelpdeskConfig
	logger     *zap.Logger
	now        func() time.Time
}

// AssignmentDependencies bundles collaborators.
type AssignmentDependencies struct {
	Store      repository.Store
	Dispatcher events.Dispatcher
	Config     config.HelpdeskConfig
	Logger     *zap.Logger
	Now        func() time.Time
}

// TakeOutcome reports a take attempt. Taken is false when the ticket already
// belonged to the actor.
type TakeOutcome struct {
	Ticket   domain.Ticket
	FollowUp *domain.FollowUp
	Taken    bool
	Message  string
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &AssignmentService{
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		cfg:        deps.Config,
		logger:     logger,
		now:        now,
	}
}

// TakeTicket assigns the ticket to the acting staff member. It records a
// private follow-up and sends no mail.
func (s *AssignmentService) TakeTicket(ctx context.Context, actor *domain.User, ticketID string) (*TakeOutcome, error) {
	if err := requireStaff(s.cfg, actor); err != nil {
		return nil, err
	}
	if s.cfg.StaffOnlyTicketOwners && !actor.IsStaff {
		return nil, apperrors.NewValidationError("ticket owners must be staff", map[string]any{"owner": actor.ID})
	}

	var out *TakeOutcome
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		ticket, _, err := loadAccessible(ctx, tx, s.cfg, actor, ticketID)
		if err != nil {
			return err
		}
		if ticket.IsAssignedTo(actor.ID) {
			out = &TakeOutcome{Ticket: *ticket, Message: "This was already assigned to you!"}
			return nil
		}

		previous := workflow.OwnerDisplay(nil)
		if ticket.AssignedToID != nil {
			previous = *ticket.AssignedToID
			if owner, err := tx.Users().GetByID(ctx, *ticket.AssignedToID); err == nil {
				previous = workflow.OwnerDisplay(owner)
			}
		}

		now := s.now()
		id := actor.ID
		ticket.AssignedToID = &id
		ticket.UpdatedAt = now
		if err := tx.Tickets().Update(ctx, ticket); err != nil {
			return err
		}
		fu := &domain.FollowUp{
			ID:       uuid.NewString(),
			TicketID: ticket.ID,
			Title:    fmt.Sprintf("Assigned to [%s]", actor.Username),
			Date:     now,
			UserID:   actorID(actor),
		}
		if change, ok := workflow.Diff(fu, workflow.FieldOwner, previous, workflow.OwnerDisplay(actor)); ok {
			fu.Changes = []domain.TicketChange{change}
		}
		if err := tx.FollowUps().Create(ctx, fu); err != nil {
			return err
		}
		for i := range fu.Changes {
			if err := tx.Changes().Create(ctx, &fu.Changes[i]); err != nil {
				return err
			}
		}
		out = &TakeOutcome{
			Ticket:   *ticket,
			FollowUp: fu,
			Taken:    true,
			Message:  fmt.Sprintf("[%s] Ticket assigned to you successfully!", ticket.Title),
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if out.Taken {
		publishEvent(ctx, s.dispatcher, s.logger, events.Event{
			Type:      events.EventTicketAssigned,
			TicketID:  out.Ticket.ID,
			QueueID:   out.Ticket.QueueID,
			Actor:     events.ActorFor(actor),
			Timestamp: s.now(),
			Payload: events.TicketAssignedPayload{
				AssigneeID: out.Ticket.AssignedToID,
				Assignee:   actor.Username,
			},
		})
	}
	return out, nil
}

// OwnerCandidates lists the users a ticket may be assigned to: active users,
// restricted to staff when owners must be staff.
func (s *AssignmentService) OwnerCandidates(ctx context.Context, actor *domain.User) ([]domain.User, error) {
	if err := requireStaff(s.cfg, actor); err != nil {
		return nil, err
	}
	users, err := s.store.Users().List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(users))
	for _, u := range users {
		if !u.IsActive {
			continue
		}
		if s.cfg.StaffOnlyTicketOwners && !u.IsStaff {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}
