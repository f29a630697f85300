package service

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/notify"
	"github.com/spec-kit/helpdesk/internal/repository/memory"
)

var fixedNow = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

type recordingMailer struct {
	sent []string
}

func (m *recordingMailer) SendTemplatedMessage(_ context.Context, templateKey string, _ map[string]any, recipient, _ string, _ []domain.Attachment) error {
	m.sent = append(m.sent, templateKey+"->"+recipient)
	return nil
}

type fixture struct {
	store   *memory.Store
	mailer  *recordingMailer
	events  []events.Event
	staff   *domain.User
	owner   *domain.User
	admin   *domain.User
	tickets *TicketService
	assign  *AssignmentService
}

func newFixture(t *testing.T, cfg config.HelpdeskConfig) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{store: memory.NewStore(), mailer: &recordingMailer{}}
	f.staff = &domain.User{ID: "u-staff", Username: "alice", Email: "alice@example.com", IsStaff: true, IsActive: true,
		Permissions: []string{"helpdesk.queue_access_support"}}
	f.owner = &domain.User{ID: "u-owner", Username: "bob", Email: "bob@example.com", IsStaff: true, IsActive: true,
		Settings: domain.UserSettings{EmailOnTicketAssign: true, EmailOnTicketChange: true}}
	f.admin = &domain.User{ID: "u-admin", Username: "root", Email: "root@example.com", IsStaff: true, IsSuperuser: true, IsActive: true}
	for _, u := range []*domain.User{f.staff, f.owner, f.admin} {
		mustNil(t, f.store.Users().Create(ctx, u))
	}
	for _, q := range []*domain.Queue{
		{ID: "q-support", Title: "Support", Slug: "support", NewTicketCC: "new@example.com", UpdatedTicketCC: "support-cc@example.com"},
		{ID: "q-billing", Title: "Billing", Slug: "billing"},
	} {
		mustNil(t, f.store.Queues().Create(ctx, q))
	}

	dispatcher := events.NewInMemoryDispatcher(nil)
	for _, et := range events.AllEventTypes {
		dispatcher.Subscribe(et, func(_ context.Context, e events.Event) error {
			f.events = append(f.events, e)
			return nil
		})
	}
	now := func() time.Time { return fixedNow }
	f.tickets = NewTicketService(TicketDependencies{
		Store:      f.store,
		Notifier:   notify.NewDispatcher(f.mailer, nil, nil, "noreply@example.com"),
		Dispatcher: dispatcher,
		Config:     cfg,
		Now:        now,
	})
	f.assign = NewAssignmentService(AssignmentDependencies{
		Store:      f.store,
		Dispatcher: dispatcher,
		Config:     cfg,
		Now:        now,
	})
	return f
}

// ticket stores a ticket directly, bypassing notifications.
func (f *fixture) ticket(t *testing.T, id, queueID string, status domain.TicketStatus, assignee *string) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{
		ID:             id,
		QueueID:        queueID,
		Title:          "ticket " + id,
		Description:    "printer on fire",
		Status:         status,
		Priority:       domain.DefaultPriority,
		AssignedToID:   assignee,
		SubmitterEmail: "customer@example.com",
		CreatedAt:      fixedNow.Add(-time.Hour),
	}
	mustNil(t, f.store.Tickets().Create(context.Background(), ticket))
	return ticket
}

func (f *fixture) eventTypes() []events.EventType {
	out := make([]events.EventType, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}

func mustNil(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

func strptr(s string) *string { return &s }

func statusPtr(s domain.TicketStatus) *domain.TicketStatus { return &s }
