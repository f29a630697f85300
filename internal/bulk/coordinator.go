// Package bulk applies assign, close and delete actions across a list of
// tickets. Each ticket commits on its own; a failure on one ticket is
// reported and the batch moves on.
package bulk

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/notify"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/workflow"
	"github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// Level grades an outcome message.
type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Action names.
const (
	ActionAssign = "assign"
	ActionClose  = "close"
	ActionDelete = "delete"
)

// Message is one line of feedback for the caller. TicketID is empty for the
// batch summary.
type Message struct {
	Level    Level  `json:"level"`
	TicketID string `json:"ticket_id,omitempty"`
	Text     string `json:"text"`
}

// Outcome summarises a bulk action.
type Outcome struct {
	Action   string    `json:"action"`
	Count    int       `json:"count"`
	Messages []Message `json:"messages"`
}

func (o *Outcome) add(level Level, ticketID, text string) {
	o.Messages = append(o.Messages, Message{Level: level, TicketID: ticketID, Text: text})
}

// Dependencies bundles collaborators for the coordinator.
type Dependencies struct {
	Store    repository.Store
	Notifier *notify.Dispatcher
	Events   events.Dispatcher
	Config   config.HelpdeskConfig
	Logger   *zap.Logger
	Metrics  *observability.Metrics
	Now      func() time.Time
}

// Coordinator runs bulk actions.
type Coordinator struct {
	store    repository.Store
	notifier *notify.Dispatcher
	events   events.Dispatcher
	cfg      config.HelpdeskConfig
	logger   *zap.Logger
	metrics  *observability.Metrics
	now      func() time.Time
}

// NewCoordinator constructs the coordinator.
func NewCoordinator(deps Dependencies) *Coordinator {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Coordinator{
		store:    deps.Store,
		notifier: deps.Notifier,
		events:   deps.Events,
		cfg:      deps.Config,
		logger:   logger,
		metrics:  deps.Metrics,
		now:      now,
	}
}

// itemFunc mutates one ticket inside its transaction. It reports whether the
// ticket counted towards the batch and may return a hook to run after commit.
type itemFunc func(tx repository.Store, ticket *domain.Ticket, queue domain.Queue) (bool, func(), error)

// Assign sets the owner of every listed ticket to assigneeID, or clears it
// when assigneeID is nil.
func (c *Coordinator) Assign(ctx context.Context, actor *domain.User, ids []string, assigneeID *string) (*Outcome, error) {
	var assignee *domain.User
	if assigneeID != nil {
		user, err := c.store.Users().GetByID(ctx, *assigneeID)
		if err != nil {
			return nil, err
		}
		if c.cfg.StaffOnlyTicketOwners && !user.IsStaff {
			return nil, errorutil.NewValidationError("ticket owners must be staff", map[string]any{"owner": user.ID})
		}
		assignee = user
	}

	title := "Unassigned in bulk update"
	if assignee != nil {
		title = fmt.Sprintf("Assigned to %s in bulk update", assignee.Username)
	}

	out, err := c.run(ctx, ActionAssign, actor, ids, func(tx repository.Store, t *domain.Ticket, q domain.Queue) (bool, func(), error) {
		if assignee == nil && t.AssignedToID == nil {
			return false, nil, nil
		}
		if assignee != nil && t.IsAssignedTo(assignee.ID) {
			return false, nil, nil
		}
		previous := c.ownerDisplay(ctx, tx, t.AssignedToID)
		if assignee != nil {
			id := assignee.ID
			t.AssignedToID = &id
		} else {
			t.AssignedToID = nil
		}
		fu, err := c.save(ctx, tx, t, actor, c.now(), title, true, nil, workflow.FieldOwner, previous, workflow.OwnerDisplay(assignee))
		if err != nil {
			return false, nil, err
		}
		ticket := *t
		return true, func() {
			c.publish(ctx, events.EventTicketAssigned, ticket, actor, events.TicketAssignedPayload{
				AssigneeID: ticket.AssignedToID,
				Assignee:   workflow.OwnerDisplay(assignee),
			})
			c.publishUpdated(ctx, ticket, actor, fu, nil)
		}, nil
	})
	if err != nil {
		return nil, err
	}

	verb := "unassigned"
	if assignee != nil {
		verb = "assigned"
	}
	if out.Count == 0 {
		out.add(LevelWarning, "", fmt.Sprintf("No ticket %s!", verb))
	} else {
		out.add(LevelSuccess, "", fmt.Sprintf("[%d] Tickets %s!", out.Count, title))
	}
	return out, nil
}

// Close closes every listed ticket that is not already closed. With notify
// the follow-up is public and the closed_* notifications go out after each
// ticket commits.
func (c *Coordinator) Close(ctx context.Context, actor *domain.User, ids []string, notify bool) (*Outcome, error) {
	out, err := c.run(ctx, ActionClose, actor, ids, func(tx repository.Store, t *domain.Ticket, q domain.Queue) (bool, func(), error) {
		if t.Status == domain.TicketStatusClosed {
			return false, nil, nil
		}
		prev := t.Clone()
		closed := domain.TicketStatusClosed
		t.Status = closed
		now := c.now()
		t.ModifiedStatus = now
		fu, err := c.save(ctx, tx, t, actor, now, "Closed in bulk update", notify, &closed, workflow.FieldStatus, prev.Status.String(), closed.String())
		if err != nil {
			return false, nil, err
		}

		var res *workflow.UpdateResult
		var ccs []domain.TicketCC
		if notify && c.notifier != nil {
			var assignee *domain.User
			if t.AssignedToID != nil {
				if assignee, err = tx.Users().GetByID(ctx, *t.AssignedToID); err != nil && !errorutil.IsNotFound(err) {
					return false, nil, err
				}
			}
			if ccs, err = tx.CCs().ListByTicket(ctx, t.ID); err != nil {
				return false, nil, err
			}
			res = closeResult(*t, prev, q, *fu, assignee, actor)
		}

		ticket := *t
		return true, func() {
			var notified []string
			if res != nil {
				notified = c.notifier.Dispatch(ctx, res, ccs).Recipients()
			}
			c.publish(ctx, events.EventTicketStatusChanged, ticket, actor, events.TicketStatusChangedPayload{
				OldStatus: prev.Status.String(),
				NewStatus: ticket.Status.String(),
			})
			c.publishUpdated(ctx, ticket, actor, fu, notified)
		}, nil
	})
	if err != nil {
		return nil, err
	}

	if out.Count == 0 {
		out.add(LevelWarning, "", "No ticket closed!")
	} else {
		out.add(LevelSuccess, "", fmt.Sprintf("[%d] Tickets bulk closed!", out.Count))
	}
	return out, nil
}

// Delete removes every listed ticket together with everything it owns.
func (c *Coordinator) Delete(ctx context.Context, actor *domain.User, ids []string) (*Outcome, error) {
	out, err := c.run(ctx, ActionDelete, actor, ids, func(tx repository.Store, t *domain.Ticket, q domain.Queue) (bool, func(), error) {
		if err := tx.Tickets().Delete(ctx, t.ID); err != nil {
			return false, nil, err
		}
		ticket := *t
		return true, func() {
			c.publish(ctx, events.EventTicketDeleted, ticket, actor, events.TicketDeletedPayload{Title: ticket.Title})
		}, nil
	})
	if err != nil {
		return nil, err
	}

	if out.Count == 0 {
		out.add(LevelWarning, "", "No ticket deleted!")
	} else {
		out.add(LevelSuccess, "", fmt.Sprintf("[%d] Tickets bulk deleted!", out.Count))
	}
	return out, nil
}

func (c *Coordinator) run(ctx context.Context, action string, actor *domain.User, ids []string, fn itemFunc) (*Outcome, error) {
	if !auth.IsHelpdeskStaff(c.cfg, actor) {
		return nil, errorutil.NewForbidden("staff access required", nil)
	}
	out := &Outcome{Action: action}
	for _, id := range ids {
		var (
			counted bool
			after   func()
		)
		err := c.store.WithinTx(ctx, func(tx repository.Store) error {
			ticket, err := tx.Tickets().GetByID(ctx, id)
			if err != nil {
				return err
			}
			queue, err := tx.Queues().GetByID(ctx, ticket.QueueID)
			if err != nil {
				return err
			}
			if !auth.HasQueueAccess(c.cfg, actor, *queue) {
				return errorutil.NewForbidden("no access to queue", map[string]any{"queue": queue.Slug})
			}
			counted, after, err = fn(tx, ticket, *queue)
			return err
		})
		switch {
		case err == nil:
			if counted {
				out.Count++
				if after != nil {
					after()
				}
			}
		case errorutil.IsNotFound(err):
			out.add(LevelError, id, fmt.Sprintf("Ticket [%s] not found", id))
		case errorutil.IsForbidden(err):
			out.add(LevelError, id, fmt.Sprintf("No access to ticket [%s]", id))
		default:
			c.logger.Error("bulk action failed",
				zap.String("action", action),
				zap.String("ticket_id", id),
				zap.Error(err))
			return nil, err
		}
	}
	c.metrics.RecordBulk(action, out.Count)
	c.logger.Info("bulk action completed",
		zap.String("action", action),
		zap.Int("requested", len(ids)),
		zap.Int("affected", out.Count))
	return out, nil
}

// save writes the ticket, its bulk follow-up and the single change row. The
// ticket's UpdatedAt and the follow-up date are both set to now.
func (c *Coordinator) save(ctx context.Context, tx repository.Store, t *domain.Ticket, actor *domain.User, now time.Time, title string, public bool, newStatus *domain.TicketStatus, field, oldValue, newValue string) (*domain.FollowUp, error) {
	t.UpdatedAt = now
	if err := tx.Tickets().Update(ctx, t); err != nil {
		return nil, err
	}
	fu := &domain.FollowUp{
		ID:        uuid.NewString(),
		TicketID:  t.ID,
		Title:     title,
		Public:    public,
		NewStatus: newStatus,
		Date:      now,
	}
	if actor != nil {
		id := actor.ID
		fu.UserID = &id
	}
	if change, ok := workflow.Diff(fu, field, oldValue, newValue); ok {
		fu.Changes = []domain.TicketChange{change}
	}
	if err := tx.FollowUps().Create(ctx, fu); err != nil {
		return nil, err
	}
	for i := range fu.Changes {
		if err := tx.Changes().Create(ctx, &fu.Changes[i]); err != nil {
			return nil, err
		}
	}
	return fu, nil
}

func (c *Coordinator) ownerDisplay(ctx context.Context, tx repository.Store, id *string) string {
	if id == nil {
		return workflow.OwnerDisplay(nil)
	}
	user, err := tx.Users().GetByID(ctx, *id)
	if err != nil {
		return *id
	}
	return workflow.OwnerDisplay(user)
}

func closeResult(t, prev domain.Ticket, q domain.Queue, fu domain.FollowUp, assignee, actor *domain.User) *workflow.UpdateResult {
	tmplCtx := workflow.TemplateContext(t, q, assignee)
	tmplCtx["comment"] = ""
	resolution := ""
	if t.Resolution != nil {
		resolution = *t.Resolution
	}
	tmplCtx["resolution"] = resolution
	return &workflow.UpdateResult{
		Ticket:        t,
		Previous:      prev,
		Queue:         q,
		FollowUp:      fu,
		Changes:       fu.Changes,
		Assignee:      assignee,
		Actor:         actor,
		StatusChanged: true,
		Context:       tmplCtx,
	}
}

func (c *Coordinator) publishUpdated(ctx context.Context, t domain.Ticket, actor *domain.User, fu *domain.FollowUp, notified []string) {
	fields := make([]string, 0, len(fu.Changes))
	for _, ch := range fu.Changes {
		fields = append(fields, ch.Field)
	}
	c.publish(ctx, events.EventTicketUpdated, t, actor, events.TicketUpdatedPayload{
		FollowUpID: fu.ID,
		Title:      fu.Title,
		Public:     fu.Public,
		Fields:     fields,
		Notified:   notified,
		Bulk:       true,
	})
}

func (c *Coordinator) publish(ctx context.Context, eventType events.EventType, t domain.Ticket, actor *domain.User, payload interface{}) {
	if c.events == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  t.ID,
		QueueID:   t.QueueID,
		Actor:     events.ActorFor(actor),
		Timestamp: c.now(),
		Payload:   payload,
	}
	if err := c.events.Publish(ctx, event); err != nil {
		c.logger.Warn("publish event failed",
			zap.String("type", string(eventType)),
			zap.String("ticket_id", t.ID),
			zap.Error(err))
	}
}
