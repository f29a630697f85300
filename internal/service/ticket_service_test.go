package service

import (
	"context"
	"reflect"
	"testing"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/workflow"
	"github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func TestCreateTicketAnnounces(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.HelpdeskConfig{})

	ticket, err := f.tickets.CreateTicket(ctx, f.staff, TicketCreateInput{
		QueueID:        "q-support",
		Title:          "  Printer on fire ",
		Description:    "Third floor",
		SubmitterEmail: "customer@example.com",
		AssignedToID:   strptr(f.owner.ID),
		DueDate:        "2024-05-10",
	})
	mustNil(t, err)

	if ticket.Title != "Printer on fire" || ticket.Status != domain.TicketStatusOpen || ticket.Priority != domain.DefaultPriority {
		t.Errorf("ticket = %+v", ticket)
	}
	if ticket.DueDate == nil || ticket.DueDate.Format(domain.DueDateLayout) != "2024-05-10" {
		t.Errorf("due date = %v", ticket.DueDate)
	}
	wantSent := []string{
		"newticket_submitter->customer@example.com",
		"assigned_owner->bob@example.com",
		"newticket_cc->new@example.com",
		"newticket_cc->support-cc@example.com",
	}
	if !reflect.DeepEqual(f.mailer.sent, wantSent) {
		t.Errorf("sent = %v, want %v", f.mailer.sent, wantSent)
	}
	wantEvents := []events.EventType{events.EventTicketCreated, events.EventTicketAssigned}
	if !reflect.DeepEqual(f.eventTypes(), wantEvents) {
		t.Errorf("events = %v, want %v", f.eventTypes(), wantEvents)
	}

	detail, err := f.tickets.GetTicket(ctx, f.staff, ticket.ID)
	mustNil(t, err)
	if len(detail.FollowUps) != 1 {
		t.Fatalf("follow-ups = %d, want 1", len(detail.FollowUps))
	}
	opened := detail.FollowUps[0]
	if opened.Title != "Ticket Opened" || !opened.Public || opened.Comment != "Third floor" {
		t.Errorf("opening follow-up = %+v", opened)
	}
	if detail.Assignee == nil || detail.Assignee.Username != "bob" {
		t.Errorf("assignee = %+v", detail.Assignee)
	}
}

func TestCreateTicketValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.HelpdeskConfig{StaffOnlyTicketOwners: true})
	customer := &domain.User{ID: "u-customer", Username: "carol", IsActive: true}
	mustNil(t, f.store.Users().Create(ctx, customer))

	tests := []struct {
		name  string
		input TicketCreateInput
		code  string
	}{
		{name: "blank title", input: TicketCreateInput{QueueID: "q-support", Title: " "}, code: errorutil.CodeValidation},
		{name: "bad priority", input: TicketCreateInput{QueueID: "q-support", Title: "x", Priority: 9}, code: errorutil.CodeValidation},
		{name: "unknown queue", input: TicketCreateInput{QueueID: "q-missing", Title: "x"}, code: errorutil.CodeNotFound},
		{name: "non-staff owner", input: TicketCreateInput{QueueID: "q-support", Title: "x", AssignedToID: strptr("u-customer")}, code: errorutil.CodeValidation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.tickets.CreateTicket(ctx, f.staff, tc.input)
			if !errorutil.IsCode(err, tc.code) {
				t.Fatalf("err = %v, want %s", err, tc.code)
			}
		})
	}
	if len(f.mailer.sent) != 0 {
		t.Errorf("rejected creates sent %v", f.mailer.sent)
	}
}

func TestUpdateTicketPersistsNotifiesAndSubscribes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.HelpdeskConfig{AutoSubscribeOnTicketResponse: true})
	f.ticket(t, "t-1", "q-support", domain.TicketStatusOpen, strptr(f.owner.ID))
	mustNil(t, f.store.CCs().Create(ctx, &domain.TicketCC{ID: "cc-1", TicketID: "t-1", Email: "watcher@example.com", CanView: true}))

	out, err := f.tickets.UpdateTicket(ctx, f.staff, "t-1", workflow.UpdateRequest{
		Comment:   "Replaced the toner",
		NewStatus: statusPtr(domain.TicketStatusResolved),
		Public:    true,
	})
	mustNil(t, err)

	if out.NoChanges {
		t.Fatal("update reported no changes")
	}
	if out.FollowUp.Title != "Resolved" {
		t.Errorf("follow-up title = %q", out.FollowUp.Title)
	}
	wantSent := []string{
		"resolved_submitter->customer@example.com",
		"resolved_cc->watcher@example.com",
		"resolved_owner->bob@example.com",
		"resolved_cc->support-cc@example.com",
	}
	if !reflect.DeepEqual(f.mailer.sent, wantSent) {
		t.Errorf("sent = %v, want %v", f.mailer.sent, wantSent)
	}
	if !reflect.DeepEqual(out.Notified, []string{"customer@example.com", "watcher@example.com", "bob@example.com", "support-cc@example.com"}) {
		t.Errorf("notified = %v", out.Notified)
	}
	if !out.Subscribed {
		t.Error("responder was not subscribed")
	}

	stored, err := f.store.Tickets().GetByID(ctx, "t-1")
	mustNil(t, err)
	if stored.Status != domain.TicketStatusResolved || stored.Version != 2 {
		t.Errorf("stored = status %v version %d", stored.Status, stored.Version)
	}
	if stored.Resolution == nil || *stored.Resolution != "Replaced the toner" {
		t.Errorf("resolution = %v", stored.Resolution)
	}

	detail, err := f.tickets.GetTicket(ctx, f.staff, "t-1")
	mustNil(t, err)
	if len(detail.FollowUps) != 1 || len(detail.FollowUps[0].Changes) != 1 {
		t.Fatalf("history = %+v", detail.FollowUps)
	}
	change := detail.FollowUps[0].Changes[0]
	if change.Field != workflow.FieldStatus || change.OldValue != "Open" || change.NewValue != "Resolved" {
		t.Errorf("change = %+v", change)
	}
	if len(detail.CCs) != 2 || detail.CCs[1].Display() != "alice" || !detail.CCs[1].CanUpdate {
		t.Errorf("ccs = %+v", detail.CCs)
	}

	wantEvents := []events.EventType{events.EventTicketUpdated, events.EventTicketStatusChanged}
	if !reflect.DeepEqual(f.eventTypes(), wantEvents) {
		t.Errorf("events = %v, want %v", f.eventTypes(), wantEvents)
	}
}

func TestUpdateTicketNoChanges(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.HelpdeskConfig{AutoSubscribeOnTicketResponse: true})
	f.ticket(t, "t-1", "q-support", domain.TicketStatusOpen, nil)

	out, err := f.tickets.UpdateTicket(ctx, f.staff, "t-1", workflow.UpdateRequest{
		NewStatus: statusPtr(domain.TicketStatusOpen),
		Title:     strptr("ticket t-1"),
	})
	mustNil(t, err)
	if !out.NoChanges || out.FollowUp != nil {
		t.Fatalf("outcome = %+v", out)
	}
	if len(f.mailer.sent) != 0 || len(f.events) != 0 {
		t.Errorf("no-op update sent %v and published %v", f.mailer.sent, f.eventTypes())
	}
	followUps, err := f.store.FollowUps().ListByTicket(ctx, "t-1")
	mustNil(t, err)
	if len(followUps) != 0 {
		t.Errorf("no-op update wrote %d follow-ups", len(followUps))
	}
}

func TestAutoSubscribeSkipsKnownParticipants(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.HelpdeskConfig
		// actor is the owner when true, else alice.
		asOwner bool
		ccEmail string
		want    bool
	}{
		{name: "disabled", cfg: config.HelpdeskConfig{}, want: false},
		{name: "new responder", cfg: config.HelpdeskConfig{AutoSubscribeOnTicketResponse: true}, want: true},
		{name: "assignee", cfg: config.HelpdeskConfig{AutoSubscribeOnTicketResponse: true}, asOwner: true, want: false},
		{name: "already cc by email", cfg: config.HelpdeskConfig{AutoSubscribeOnTicketResponse: true}, ccEmail: "ALICE@example.com", want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, tc.cfg)
			f.ticket(t, "t-1", "q-support", domain.TicketStatusOpen, strptr(f.owner.ID))
			if tc.ccEmail != "" {
				mustNil(t, f.store.CCs().Create(ctx, &domain.TicketCC{ID: "cc-1", TicketID: "t-1", Email: tc.ccEmail}))
			}
			actor := f.staff
			if tc.asOwner {
				actor = f.owner
			}
			out, err := f.tickets.UpdateTicket(ctx, actor, "t-1", workflow.UpdateRequest{Comment: "noted"})
			mustNil(t, err)
			if out.Subscribed != tc.want {
				t.Errorf("subscribed = %v, want %v", out.Subscribed, tc.want)
			}
		})
	}
}

func TestPerQueueAccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.HelpdeskConfig{EnablePerQueueStaffPermission: true})
	f.ticket(t, "t-support", "q-support", domain.TicketStatusOpen, nil)
	f.ticket(t, "t-billing", "q-billing", domain.TicketStatusOpen, nil)

	_, err := f.tickets.UpdateTicket(ctx, f.staff, "t-billing", workflow.UpdateRequest{Comment: "hi"})
	if !errorutil.IsForbidden(err) {
		t.Errorf("update err = %v, want FORBIDDEN", err)
	}
	_, err = f.tickets.GetTicket(ctx, f.staff, "t-billing")
	if !errorutil.IsForbidden(err) {
		t.Errorf("get err = %v, want FORBIDDEN", err)
	}

	list, err := f.tickets.ListTickets(ctx, f.staff, repository.TicketFilter{})
	mustNil(t, err)
	if len(list) != 1 || list[0].ID != "t-support" {
		t.Errorf("list = %+v", list)
	}
	list, err = f.tickets.ListTickets(ctx, f.staff, repository.TicketFilter{QueueIDs: []string{"q-billing"}})
	mustNil(t, err)
	if len(list) != 0 {
		t.Errorf("explicit foreign queue listed %d tickets", len(list))
	}
	list, err = f.tickets.ListTickets(ctx, f.admin, repository.TicketFilter{})
	mustNil(t, err)
	if len(list) != 2 {
		t.Errorf("superuser listed %d tickets, want 2", len(list))
	}
}

func TestNonStaffCannotUpdate(t *testing.T) {
	ctx := context.Background()
	customer := &domain.User{ID: "u-customer", Username: "carol", IsActive: true}

	f := newFixture(t, config.HelpdeskConfig{})
	f.ticket(t, "t-1", "q-support", domain.TicketStatusOpen, nil)
	if _, err := f.tickets.UpdateTicket(ctx, customer, "t-1", workflow.UpdateRequest{Comment: "hi"}); !errorutil.IsForbidden(err) {
		t.Errorf("err = %v, want FORBIDDEN", err)
	}
	if _, err := f.tickets.UpdateTicket(ctx, nil, "t-1", workflow.UpdateRequest{Comment: "hi"}); !errorutil.IsCode(err, errorutil.CodeUnauthorized) {
		t.Errorf("nil actor err = %v, want UNAUTHORIZED", err)
	}

	f = newFixture(t, config.HelpdeskConfig{AllowNonStaffTicketUpdate: true})
	f.ticket(t, "t-1", "q-support", domain.TicketStatusOpen, nil)
	out, err := f.tickets.UpdateTicket(ctx, customer, "t-1", workflow.UpdateRequest{Comment: "hi"})
	mustNil(t, err)
	if out.FollowUp.UserID == nil || *out.FollowUp.UserID != "u-customer" {
		t.Errorf("follow-up author = %v", out.FollowUp.UserID)
	}
}

func TestFollowUpEditAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.HelpdeskConfig{})
	f.ticket(t, "t-1", "q-support", domain.TicketStatusOpen, nil)
	f.ticket(t, "t-2", "q-support", domain.TicketStatusOpen, nil)
	out, err := f.tickets.UpdateTicket(ctx, f.staff, "t-1", workflow.UpdateRequest{Comment: "first draft"})
	mustNil(t, err)
	fuID := out.FollowUp.ID

	edited, err := f.tickets.EditFollowUp(ctx, f.staff, "t-1", fuID, FollowUpEditInput{Title: "Comment", Comment: "final", Public: true})
	mustNil(t, err)
	if edited.Comment != "final" || !edited.Public || !edited.Date.Equal(fixedNow) {
		t.Errorf("edited = %+v", edited)
	}
	if _, err := f.tickets.EditFollowUp(ctx, f.staff, "t-2", fuID, FollowUpEditInput{Title: "x"}); !errorutil.IsNotFound(err) {
		t.Errorf("edit through wrong ticket err = %v, want NOT_FOUND", err)
	}

	if err := f.tickets.DeleteFollowUp(ctx, f.staff, "t-1", fuID); !errorutil.IsForbidden(err) {
		t.Errorf("staff delete err = %v, want FORBIDDEN", err)
	}
	mustNil(t, f.tickets.DeleteFollowUp(ctx, f.admin, "t-1", fuID))
	if _, err := f.store.FollowUps().GetByID(ctx, fuID); !errorutil.IsNotFound(err) {
		t.Errorf("follow-up still present: %v", err)
	}
}

func TestCCManagement(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.HelpdeskConfig{})
	f.ticket(t, "t-1", "q-support", domain.TicketStatusOpen, nil)

	tests := []struct {
		name  string
		input CCInput
	}{
		{name: "neither", input: CCInput{}},
		{name: "both", input: CCInput{UserID: strptr(f.owner.ID), Email: "x@example.com"}},
		{name: "bad email", input: CCInput{Email: "not-an-address"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.tickets.AddCC(ctx, f.staff, "t-1", tc.input); !errorutil.IsCode(err, errorutil.CodeValidation) {
				t.Errorf("err = %v, want VALIDATION_FAILED", err)
			}
		})
	}

	cc, err := f.tickets.AddCC(ctx, f.staff, "t-1", CCInput{UserID: strptr(f.owner.ID), CanView: true})
	mustNil(t, err)
	if cc.Display() != "bob" || cc.Address() != "bob@example.com" {
		t.Errorf("cc = %+v", cc)
	}
	mustNil(t, f.tickets.RemoveCC(ctx, f.staff, "t-1", cc.ID))
	ccs, err := f.tickets.ListCCs(ctx, f.staff, "t-1")
	mustNil(t, err)
	if len(ccs) != 0 {
		t.Errorf("ccs after remove = %+v", ccs)
	}
}

func TestDependencies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.HelpdeskConfig{})
	f.ticket(t, "t-1", "q-support", domain.TicketStatusOpen, nil)
	f.ticket(t, "t-2", "q-support", domain.TicketStatusOpen, nil)

	if _, err := f.tickets.AddDependency(ctx, f.staff, "t-1", "t-1"); !errorutil.IsCode(err, errorutil.CodeValidation) {
		t.Errorf("self dependency err = %v, want VALIDATION_FAILED", err)
	}
	if _, err := f.tickets.AddDependency(ctx, f.staff, "t-1", "t-missing"); !errorutil.IsNotFound(err) {
		t.Errorf("missing dependency err = %v, want NOT_FOUND", err)
	}
	dep, err := f.tickets.AddDependency(ctx, f.staff, "t-1", "t-2")
	mustNil(t, err)
	if err := f.tickets.RemoveDependency(ctx, f.staff, "t-2", dep.ID); !errorutil.IsNotFound(err) {
		t.Errorf("remove through other ticket err = %v, want NOT_FOUND", err)
	}
	mustNil(t, f.tickets.RemoveDependency(ctx, f.staff, "t-1", dep.ID))
}

func TestDeleteTicket(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.HelpdeskConfig{})
	f.ticket(t, "t-1", "q-support", domain.TicketStatusOpen, nil)

	mustNil(t, f.tickets.DeleteTicket(ctx, f.staff, "t-1"))
	if _, err := f.store.Tickets().GetByID(ctx, "t-1"); !errorutil.IsNotFound(err) {
		t.Errorf("ticket still present: %v", err)
	}
	if !reflect.DeepEqual(f.eventTypes(), []events.EventType{events.EventTicketDeleted}) {
		t.Errorf("events = %v", f.eventTypes())
	}
}
