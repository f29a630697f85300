package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/notify"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/workflow"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	store      repository.Store
	engine     *workflow.Engine
	notifier   *notify.Dispatcher
	dispatcher events.Dispatcher
	cfg        config.HelpdeskConfig
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Store      repository.Store
	Notifier   *notify.Dispatcher
	Dispatcher events.Dispatcher
	Config     config.HelpdeskConfig
	Logger     *zap.Logger
	Now        func() time.Time
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	QueueID        string
	Title          string
	Description    string
	Priority       domain.TicketPriority
	SubmitterEmail string
	AssignedToID   *string
	DueDate        string
}

// TicketDetail is a ticket with everything it owns.
type TicketDetail struct {
	Ticket       domain.Ticket
	Queue        domain.Queue
	Assignee     *domain.User
	FollowUps    []domain.FollowUp
	CCs          []domain.TicketCC
	Dependencies []domain.TicketDependency
	TimeTracks   []domain.TimeTrack
	MoneyTracks  []domain.MoneyTrack
}

// UpdateOutcome reports what an update did. NoChanges is set when the request
// matched the ticket's current state; nothing was written in that case.
type UpdateOutcome struct {
	Ticket     domain.Ticket
	FollowUp   *domain.FollowUp
	Changes    []domain.TicketChange
	Notified   []string
	Subscribed bool
	NoChanges  bool
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &TicketService{
		store: deps.Store,
		engine: workflow.NewEngine(deps.Store.Users(), workflow.Options{
			AllowNonStaffTicketUpdate: deps.Config.AllowNonStaffTicketUpdate,
			StaffOnlyTicketOwners:     deps.Config.StaffOnlyTicketOwners,
			Now:                       now,
		}),
		notifier:   deps.Notifier,
		dispatcher: deps.Dispatcher,
		cfg:        deps.Config,
		logger:     logger,
		now:        now,
	}
}

// CreateTicket opens a ticket in a queue and announces it.
func (s *TicketService) CreateTicket(ctx context.Context, actor *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	if err := s.requireStaff(actor); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}
	queue, err := s.store.Queues().GetByID(ctx, input.QueueID)
	if err != nil {
		return nil, err
	}
	if !auth.HasQueueAccess(s.cfg, actor, *queue) {
		return nil, apperrors.NewForbidden("no access to queue", map[string]any{"queue": queue.Slug})
	}
	priority := input.Priority
	if priority == 0 {
		priority = domain.DefaultPriority
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": int(priority)})
	}

	var assignee *domain.User
	if input.AssignedToID != nil && *input.AssignedToID != "" {
		if assignee, err = s.store.Users().GetByID(ctx, *input.AssignedToID); err != nil {
			return nil, err
		}
		if s.cfg.StaffOnlyTicketOwners && !assignee.IsStaff {
			return nil, apperrors.NewValidationError("ticket owners must be staff", map[string]any{"owner": assignee.ID})
		}
	}

	now := s.now()
	ticket := &domain.Ticket{
		ID:             uuid.NewString(),
		QueueID:        queue.ID,
		Title:          title,
		Description:    strings.TrimSpace(input.Description),
		Status:         domain.TicketStatusOpen,
		Priority:       priority,
		SubmitterEmail: strings.TrimSpace(input.SubmitterEmail),
		CreatedAt:      now,
		UpdatedAt:      now,
		ModifiedStatus: now,
	}
	if assignee != nil {
		id := assignee.ID
		ticket.AssignedToID = &id
	}
	if due, ok := workflow.ParseDueDate(input.DueDate); ok {
		ticket.DueDate = &due
	}
	opened := &domain.FollowUp{
		ID:       uuid.NewString(),
		TicketID: ticket.ID,
		Title:    "Ticket Opened",
		Comment:  ticket.Description,
		Public:   true,
		Date:     now,
		UserID:   actorID(actor),
	}

	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Tickets().Create(ctx, ticket); err != nil {
			return err
		}
		return tx.FollowUps().Create(ctx, opened)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if s.notifier != nil {
		s.notifier.DispatchCreated(ctx, *ticket, *queue, assignee, actor)
	}
	s.publishEvent(ctx, *ticket, actor, events.EventTicketCreated, events.TicketCreatedPayload{
		Title:          ticket.Title,
		Priority:       ticket.Priority.String(),
		SubmitterEmail: ticket.SubmitterEmail,
	})
	if assignee != nil {
		s.publishEvent(ctx, *ticket, actor, events.EventTicketAssigned, events.TicketAssignedPayload{
			AssigneeID: ticket.AssignedToID,
			Assignee:   assignee.Username,
		})
	}
	return ticket, nil
}

// GetTicket loads a ticket with its history and subscriptions.
func (s *TicketService) GetTicket(ctx context.Context, actor *domain.User, ticketID string) (*TicketDetail, error) {
	if err := s.requireStaff(actor); err != nil {
		return nil, err
	}
	ticket, queue, err := s.loadAccessible(ctx, s.store, actor, ticketID)
	if err != nil {
		return nil, err
	}
	detail := &TicketDetail{Ticket: *ticket, Queue: *queue}
	if detail.Assignee, err = s.currentAssignee(ctx, s.store, ticket); err != nil {
		return nil, err
	}
	if detail.FollowUps, err = s.followUpsWithDetails(ctx, ticket.ID); err != nil {
		return nil, err
	}
	if detail.CCs, err = s.store.CCs().ListByTicket(ctx, ticket.ID); err != nil {
		return nil, err
	}
	if detail.Dependencies, err = s.store.Dependencies().ListByTicket(ctx, ticket.ID); err != nil {
		return nil, err
	}
	if detail.TimeTracks, err = s.store.TimeTracks().ListByTicket(ctx, ticket.ID); err != nil {
		return nil, err
	}
	if detail.MoneyTracks, err = s.store.MoneyTracks().ListByTicket(ctx, ticket.ID); err != nil {
		return nil, err
	}
	return detail, nil
}

// ListTickets returns tickets matching filter within the queues actor can see.
func (s *TicketService) ListTickets(ctx context.Context, actor *domain.User, filter repository.TicketFilter) ([]domain.Ticket, error) {
	if err := s.requireStaff(actor); err != nil {
		return nil, err
	}
	scoped, err := scopeFilter(ctx, s.store, s.cfg, actor, filter)
	if err != nil {
		return nil, err
	}
	return s.store.Tickets().List(ctx, scoped)
}

// UpdateTicket applies one update through the workflow engine, persists it
// atomically and then notifies subscribers.
func (s *TicketService) UpdateTicket(ctx context.Context, actor *domain.User, ticketID string, req workflow.UpdateRequest) (*UpdateOutcome, error) {
	if err := s.requireStaff(actor); err != nil {
		return nil, err
	}
	ticket, queue, err := s.loadAccessible(ctx, s.store, actor, ticketID)
	if err != nil {
		return nil, err
	}
	assignee, err := s.currentAssignee(ctx, s.store, ticket)
	if err != nil {
		return nil, err
	}

	res, err := s.engine.ApplyUpdate(ctx, workflow.Subject{Ticket: *ticket, Queue: *queue, Assignee: assignee}, req, actor)
	if errors.Is(err, workflow.ErrNoChanges) {
		return &UpdateOutcome{Ticket: *ticket, NoChanges: true}, nil
	}
	if err != nil {
		return nil, err
	}

	var ccs []domain.TicketCC
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := workflow.Persist(ctx, tx, res); err != nil {
			return err
		}
		var err error
		ccs, err = tx.CCs().ListByTicket(ctx, res.Ticket.ID)
		return err
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	var notified []string
	if s.notifier != nil {
		notified = s.notifier.Dispatch(ctx, res, ccs).Recipients()
	}
	subscribed := s.autoSubscribe(ctx, actor, res.Ticket, res.Assignee, ccs)

	fu := res.FollowUp
	s.publishUpdateEvents(ctx, res, notified)
	return &UpdateOutcome{
		Ticket:     res.Ticket,
		FollowUp:   &fu,
		Changes:    res.Changes,
		Notified:   notified,
		Subscribed: subscribed,
	}, nil
}

// DeleteTicket removes a ticket and everything it owns.
func (s *TicketService) DeleteTicket(ctx context.Context, actor *domain.User, ticketID string) error {
	if err := s.requireStaff(actor); err != nil {
		return err
	}
	ticket, _, err := s.loadAccessible(ctx, s.store, actor, ticketID)
	if err != nil {
		return err
	}
	if err := s.store.Tickets().Delete(ctx, ticket.ID); err != nil {
		return err
	}
	s.publishEvent(ctx, *ticket, actor, events.EventTicketDeleted, events.TicketDeletedPayload{Title: ticket.Title})
	return nil
}

func (s *TicketService) publishUpdateEvents(ctx context.Context, res *workflow.UpdateResult, notified []string) {
	fields := make([]string, 0, len(res.Changes))
	for _, c := range res.Changes {
		fields = append(fields, c.Field)
	}
	s.publishEvent(ctx, res.Ticket, res.Actor, events.EventTicketUpdated, events.TicketUpdatedPayload{
		FollowUpID: res.FollowUp.ID,
		Title:      res.FollowUp.Title,
		Public:     res.FollowUp.Public,
		Fields:     fields,
		Notified:   notified,
	})
	if res.StatusChanged {
		s.publishEvent(ctx, res.Ticket, res.Actor, events.EventTicketStatusChanged, events.TicketStatusChangedPayload{
			OldStatus: res.Previous.Status.String(),
			NewStatus: res.Ticket.Status.String(),
			Comment:   res.FollowUp.Comment,
		})
	}
	if !sameOwner(res.Previous.AssignedToID, res.Ticket.AssignedToID) {
		s.publishEvent(ctx, res.Ticket, res.Actor, events.EventTicketAssigned, events.TicketAssignedPayload{
			AssigneeID: res.Ticket.AssignedToID,
			Assignee:   workflow.OwnerDisplay(res.Assignee),
		})
	}
}

func (s *TicketService) followUpsWithDetails(ctx context.Context, ticketID string) ([]domain.FollowUp, error) {
	followUps, err := s.store.FollowUps().ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	for i := range followUps {
		if followUps[i].Changes, err = s.store.Changes().ListByFollowUp(ctx, followUps[i].ID); err != nil {
			return nil, err
		}
		if followUps[i].Attachments, err = s.store.Attachments().ListByFollowUp(ctx, followUps[i].ID); err != nil {
			return nil, err
		}
	}
	return followUps, nil
}

func (s *TicketService) requireStaff(actor *domain.User) error {
	return requireStaff(s.cfg, actor)
}

func (s *TicketService) loadAccessible(ctx context.Context, store repository.Store, actor *domain.User, ticketID string) (*domain.Ticket, *domain.Queue, error) {
	return loadAccessible(ctx, store, s.cfg, actor, ticketID)
}

// currentAssignee resolves the ticket owner. An owner that no longer exists
// is treated as unassigned.
func (s *TicketService) currentAssignee(ctx context.Context, store repository.Store, ticket *domain.Ticket) (*domain.User, error) {
	if ticket.AssignedToID == nil {
		return nil, nil
	}
	user, err := store.Users().GetByID(ctx, *ticket.AssignedToID)
	if apperrors.IsNotFound(err) {
		s.logger.Warn("ticket owner missing", zap.String("ticket_id", ticket.ID), zap.String("owner_id", *ticket.AssignedToID))
		return nil, nil
	}
	return user, err
}

func (s *TicketService) publishEvent(ctx context.Context, ticket domain.Ticket, actor *domain.User, eventType events.EventType, payload interface{}) {
	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:      eventType,
		TicketID:  ticket.ID,
		QueueID:   ticket.QueueID,
		Actor:     events.ActorFor(actor),
		Timestamp: s.now(),
		Payload:   payload,
	})
}

func requireStaff(cfg config.HelpdeskConfig, actor *domain.User) error {
	if actor == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if !auth.IsHelpdeskStaff(cfg, actor) {
		return apperrors.NewForbidden("staff access required", nil)
	}
	return nil
}

func loadAccessible(ctx context.Context, store repository.Store, cfg config.HelpdeskConfig, actor *domain.User, ticketID string) (*domain.Ticket, *domain.Queue, error) {
	ticket, err := store.Tickets().GetByID(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	queue, err := store.Queues().GetByID(ctx, ticket.QueueID)
	if err != nil {
		return nil, nil, err
	}
	if !auth.HasQueueAccess(cfg, actor, *queue) {
		return nil, nil, apperrors.NewForbidden("no access to ticket", map[string]any{"ticket_id": ticket.ID})
	}
	return ticket, queue, nil
}

// scopeFilter narrows filter to the queues actor may see.
func scopeFilter(ctx context.Context, store repository.Store, cfg config.HelpdeskConfig, actor *domain.User, filter repository.TicketFilter) (repository.TicketFilter, error) {
	queues, err := store.Queues().List(ctx)
	if err != nil {
		return filter, err
	}
	allowed := auth.AccessibleQueueIDs(cfg, actor, queues)
	if allowed == nil {
		return filter, nil
	}
	if filter.QueueIDs == nil {
		filter.QueueIDs = allowed
		return filter, nil
	}
	permitted := make(map[string]bool, len(allowed))
	for _, id := range allowed {
		permitted[id] = true
	}
	scoped := []string{}
	for _, id := range filter.QueueIDs {
		if permitted[id] {
			scoped = append(scoped, id)
		}
	}
	filter.QueueIDs = scoped
	return filter, nil
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("publish event failed",
			zap.String("type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}

func actorID(actor *domain.User) *string {
	if actor == nil {
		return nil
	}
	id := actor.ID
	return &id
}

func sameOwner(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
