package service

import (
	"context"
	"reflect"
	"testing"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/workflow"
	"github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func TestTakeTicket(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.HelpdeskConfig{})
	f.ticket(t, "t-1", "q-support", domain.TicketStatusOpen, strptr(f.owner.ID))

	out, err := f.assign.TakeTicket(ctx, f.staff, "t-1")
	mustNil(t, err)
	if !out.Taken || out.Message != "[ticket t-1] Ticket assigned to you successfully!" {
		t.Errorf("outcome = %+v", out)
	}
	if out.FollowUp.Title != "Assigned to [alice]" || out.FollowUp.Public {
		t.Errorf("follow-up = %+v", out.FollowUp)
	}
	wantChange := []domain.TicketChange{{
		ID:         out.FollowUp.Changes[0].ID,
		FollowUpID: out.FollowUp.ID,
		Field:      workflow.FieldOwner,
		OldValue:   "bob",
		NewValue:   "alice",
	}}
	if !reflect.DeepEqual(out.FollowUp.Changes, wantChange) {
		t.Errorf("changes = %+v", out.FollowUp.Changes)
	}
	stored, err := f.store.Tickets().GetByID(ctx, "t-1")
	mustNil(t, err)
	if !stored.IsAssignedTo(f.staff.ID) {
		t.Errorf("assigned to %v", stored.AssignedToID)
	}
	if len(f.mailer.sent) != 0 {
		t.Errorf("take sent %v", f.mailer.sent)
	}
	if !reflect.DeepEqual(f.eventTypes(), []events.EventType{events.EventTicketAssigned}) {
		t.Errorf("events = %v", f.eventTypes())
	}

	again, err := f.assign.TakeTicket(ctx, f.staff, "t-1")
	mustNil(t, err)
	if again.Taken || again.Message != "This was already assigned to you!" || again.FollowUp != nil {
		t.Errorf("second take = %+v", again)
	}
	followUps, err := f.store.FollowUps().ListByTicket(ctx, "t-1")
	mustNil(t, err)
	if len(followUps) != 1 {
		t.Errorf("follow-ups = %d, want 1", len(followUps))
	}
}

func TestTakeTicketRequiresQueueAccess(t *testing.T) {
	f := newFixture(t, config.HelpdeskConfig{EnablePerQueueStaffPermission: true})
	f.ticket(t, "t-1", "q-billing", domain.TicketStatusOpen, nil)

	if _, err := f.assign.TakeTicket(context.Background(), f.staff, "t-1"); !errorutil.IsForbidden(err) {
		t.Errorf("err = %v, want FORBIDDEN", err)
	}
}

func TestOwnerCandidates(t *testing.T) {
	ctx := context.Background()
	names := func(users []domain.User) []string {
		out := []string{}
		for _, u := range users {
			out = append(out, u.Username)
		}
		return out
	}

	tests := []struct {
		name string
		cfg  config.HelpdeskConfig
		want []string
	}{
		{name: "everyone active", cfg: config.HelpdeskConfig{}, want: []string{"alice", "bob", "carol", "root"}},
		{name: "staff only", cfg: config.HelpdeskConfig{StaffOnlyTicketOwners: true}, want: []string{"alice", "bob", "root"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, tc.cfg)
			mustNil(t, f.store.Users().Create(ctx, &domain.User{ID: "u-c", Username: "carol", IsActive: true}))
			mustNil(t, f.store.Users().Create(ctx, &domain.User{ID: "u-d", Username: "dave", IsStaff: true}))
			got, err := f.assign.OwnerCandidates(ctx, f.staff)
			mustNil(t, err)
			if !reflect.DeepEqual(names(got), tc.want) {
				t.Errorf("candidates = %v, want %v", names(got), tc.want)
			}
		})
	}
}
