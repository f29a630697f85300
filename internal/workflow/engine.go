package workflow

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// ErrNoChanges signals that an update would change nothing. Callers must not
// persist or dispatch anything when they receive it.
var ErrNoChanges = errors.New("workflow: update changes nothing")

// UserLookup resolves owner ids. Implementations return a NOT_FOUND
// DomainError for unknown ids.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// Options carries the feature flags that influence the engine.
type Options struct {
	AllowNonStaffTicketUpdate bool
	StaffOnlyTicketOwners     bool
	Now                       func() time.Time
}

// Engine applies update requests to tickets.
type Engine struct {
	users UserLookup
	opts  Options
}

// NewEngine builds an Engine.
func NewEngine(users UserLookup, opts Options) *Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{users: users, opts: opts}
}

// Subject is the ticket being updated together with the records the engine
// needs to describe it.
type Subject struct {
	Ticket   domain.Ticket
	Queue    domain.Queue
	Assignee *domain.User
}

// UpdateRequest holds one update. Nil pointers and an empty DueDate keep the
// ticket's current value.
type UpdateRequest struct {
	Comment   string
	NewStatus *domain.TicketStatus
	Title     *string
	Public    bool
	Owner     OwnerChange
	Priority  *domain.TicketPriority
	DueDate   string
	Files     []domain.Attachment
}

// UpdateResult describes an applied update. Ticket is the new state; nothing
// has been persisted yet.
type UpdateResult struct {
	Ticket        domain.Ticket
	Previous      domain.Ticket
	Queue         domain.Queue
	FollowUp      domain.FollowUp
	Changes       []domain.TicketChange
	Files         []domain.Attachment
	Assignee      *domain.User
	Actor         *domain.User
	Reassigned    bool
	StatusChanged bool
	Context       map[string]any
}

// ApplyUpdate applies req to subject.Ticket on behalf of actor.
func (e *Engine) ApplyUpdate(ctx context.Context, subject Subject, req UpdateRequest, actor *domain.User) (*UpdateResult, error) {
	prev := subject.Ticket.Clone()
	t := subject.Ticket.Clone()

	newStatus := t.Status
	if req.NewStatus != nil {
		if !req.NewStatus.Valid() {
			return nil, errorutil.NewValidationError("invalid status", map[string]any{"status": int(*req.NewStatus)})
		}
		newStatus = *req.NewStatus
	}
	priority := t.Priority
	if req.Priority != nil {
		if !req.Priority.Valid() {
			return nil, errorutil.NewValidationError("invalid priority", map[string]any{"priority": int(*req.Priority)})
		}
		priority = *req.Priority
	}
	title := t.Title
	if req.Title != nil && strings.TrimSpace(*req.Title) != "" {
		title = strings.TrimSpace(*req.Title)
	}
	dueDate := t.DueDate
	if parsed, ok := ParseDueDate(req.DueDate); ok {
		dueDate = &parsed
	}

	ownerTarget, ownerChanged := e.ownerTarget(subject, req.Owner)

	if len(req.Files) == 0 &&
		req.Comment == "" &&
		newStatus == t.Status &&
		title == t.Title &&
		priority == t.Priority &&
		sameDay(dueDate, t.DueDate) &&
		!ownerChanged {
		return nil, ErrNoChanges
	}

	assignee := subject.Assignee
	reassigned := false
	if ownerChanged && ownerTarget != "" {
		user, err := e.users.GetByID(ctx, ownerTarget)
		if err != nil {
			return nil, err
		}
		if e.opts.StaffOnlyTicketOwners && !user.IsStaff {
			return nil, errorutil.NewValidationError("ticket owners must be staff", map[string]any{"owner": ownerTarget})
		}
		assignee = user
		reassigned = true
	} else if ownerChanged {
		assignee = nil
	}

	now := e.opts.Now()
	fu := domain.FollowUp{
		ID:       uuid.NewString(),
		TicketID: t.ID,
		Date:     now,
		Public:   req.Public,
	}
	if actor != nil && (actor.IsStaff || e.opts.AllowNonStaffTicketUpdate) {
		id := actor.ID
		fu.UserID = &id
	}
	fu.Comment = RenderComment(req.Comment, TemplateContext(prev, subject.Queue, subject.Assignee))

	switch {
	case reassigned:
		id := assignee.ID
		t.AssignedToID = &id
		fu.Title = "Assigned to " + assignee.Username
	case ownerChanged:
		t.AssignedToID = nil
		fu.Title = "Unassigned"
	}

	statusChanged := newStatus != prev.Status
	if statusChanged {
		t.Status = newStatus
		t.ModifiedStatus = now
		s := newStatus
		fu.NewStatus = &s
		if fu.Title != "" {
			fu.Title += " and " + newStatus.String()
		} else {
			fu.Title = newStatus.String()
		}
	}
	if fu.Title == "" {
		if fu.Comment != "" {
			fu.Title = "Comment"
		} else {
			fu.Title = "Updated"
		}
	}

	var changes []domain.TicketChange
	record := func(field, oldValue, newValue string) {
		if c, ok := Diff(&fu, field, oldValue, newValue); ok {
			changes = append(changes, c)
		}
	}
	if title != prev.Title {
		record(FieldTitle, prev.Title, title)
		t.Title = title
	}
	if statusChanged {
		record(FieldStatus, prev.Status.String(), t.Status.String())
	}
	if ownerChanged {
		record(FieldOwner, OwnerDisplay(subject.Assignee), OwnerDisplay(assignee))
	}
	if priority != prev.Priority {
		record(FieldPriority, prev.Priority.String(), priority.String())
		t.Priority = priority
	}
	if !sameDay(dueDate, prev.DueDate) {
		record(FieldDueDate, DueDateDisplay(prev.DueDate), DueDateDisplay(dueDate))
		t.DueDate = dueDate
	}

	if t.Status == domain.TicketStatusResolved || (t.Status == domain.TicketStatusClosed && prev.Resolution == nil) {
		r := fu.Comment
		t.Resolution = &r
	}

	files := make([]domain.Attachment, 0, len(req.Files))
	for _, f := range req.Files {
		if f.ID == "" {
			f.ID = uuid.NewString()
		}
		f.FollowUpID = fu.ID
		if f.CreatedAt.IsZero() {
			f.CreatedAt = now
		}
		files = append(files, f)
	}
	fu.Changes = changes
	fu.Attachments = files
	t.UpdatedAt = now

	tmplCtx := TemplateContext(t, subject.Queue, assignee)
	tmplCtx["comment"] = fu.Comment
	resolution := ""
	if t.Resolution != nil {
		resolution = *t.Resolution
	}
	tmplCtx["resolution"] = resolution

	return &UpdateResult{
		Ticket:        t,
		Previous:      prev,
		Queue:         subject.Queue,
		FollowUp:      fu,
		Changes:       changes,
		Files:         files,
		Assignee:      assignee,
		Actor:         actor,
		Reassigned:    reassigned,
		StatusChanged: statusChanged,
		Context:       tmplCtx,
	}, nil
}

// ownerTarget reports whether the owner actually changes and, for an
// assignment, the new user id.
func (e *Engine) ownerTarget(subject Subject, change OwnerChange) (string, bool) {
	current := subject.Ticket.AssignedToID
	if change.IsUnassign() {
		return "", current != nil
	}
	if id, ok := change.UserID(); ok {
		return id, !subject.Ticket.IsAssignedTo(id)
	}
	return "", false
}

// ParseDueDate accepts a calendar date or an RFC 3339 timestamp. Failures
// report ok=false so callers keep the previous value.
func ParseDueDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if d, err := time.Parse(domain.DueDateLayout, raw); err == nil {
		return d, true
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		y, m, d := ts.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

func sameDay(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return DueDateDisplay(a) == DueDateDisplay(b)
}
