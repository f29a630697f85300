package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func seedTicket(t *testing.T, s *Store, id string) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{ID: id, QueueID: "q-1", Title: id, Status: domain.TicketStatusOpen, Priority: domain.DefaultPriority}
	if err := s.Tickets().Create(context.Background(), ticket); err != nil {
		t.Fatal(err)
	}
	return ticket
}

func TestDeleteTicketCascades(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedTicket(t, s, "t-1")
	seedTicket(t, s, "t-2")

	fu := &domain.FollowUp{ID: "f-1", TicketID: "t-1", Title: "Comment", Date: time.Now()}
	mustNil(t, s.FollowUps().Create(ctx, fu))
	mustNil(t, s.Changes().Create(ctx, &domain.TicketChange{ID: "c-1", FollowUpID: "f-1", Field: "Title"}))
	mustNil(t, s.Attachments().Create(ctx, &domain.Attachment{ID: "a-1", FollowUpID: "f-1", FileName: "x"}))
	mustNil(t, s.CCs().Create(ctx, &domain.TicketCC{ID: "cc-1", TicketID: "t-1", Email: "w@example.com"}))
	mustNil(t, s.Dependencies().Create(ctx, &domain.TicketDependency{ID: "d-1", TicketID: "t-2", DependsOnID: "t-1"}))
	mustNil(t, s.TimeTracks().Create(ctx, &domain.TimeTrack{ID: "tt-1", TicketID: "t-1"}))

	mustNil(t, s.Tickets().Delete(ctx, "t-1"))

	if _, err := s.FollowUps().GetByID(ctx, "f-1"); !errorutil.IsNotFound(err) {
		t.Errorf("follow-up survived delete: %v", err)
	}
	if changes, _ := s.Changes().ListByFollowUp(ctx, "f-1"); len(changes) != 0 {
		t.Errorf("changes survived delete: %v", changes)
	}
	if _, err := s.Attachments().GetByID(ctx, "a-1"); !errorutil.IsNotFound(err) {
		t.Errorf("attachment survived delete: %v", err)
	}
	if ccs, _ := s.CCs().ListByTicket(ctx, "t-1"); len(ccs) != 0 {
		t.Errorf("ccs survived delete: %v", ccs)
	}
	if deps, _ := s.Dependencies().ListByTicket(ctx, "t-2"); len(deps) != 0 {
		t.Errorf("dependency on deleted ticket survived: %v", deps)
	}
	if tracks, _ := s.TimeTracks().ListByTicket(ctx, "t-1"); len(tracks) != 0 {
		t.Errorf("time tracks survived delete: %v", tracks)
	}
	if _, err := s.Tickets().GetByID(ctx, "t-2"); err != nil {
		t.Errorf("unrelated ticket removed: %v", err)
	}
}

func TestWithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedTicket(t, s, "t-1")
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(tx repository.Store) error {
		ticket, err := tx.Tickets().GetByID(ctx, "t-1")
		if err != nil {
			return err
		}
		ticket.Title = "changed"
		if err := tx.Tickets().Update(ctx, ticket); err != nil {
			return err
		}
		if err := tx.FollowUps().Create(ctx, &domain.FollowUp{ID: "f-1", TicketID: "t-1"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithinTx() = %v, want boom", err)
	}

	ticket, _ := s.Tickets().GetByID(ctx, "t-1")
	if ticket.Title != "t-1" || ticket.Version != 1 {
		t.Errorf("ticket after rollback = %+v", ticket)
	}
	if fus, _ := s.FollowUps().ListByTicket(ctx, "t-1"); len(fus) != 0 {
		t.Errorf("follow-ups after rollback = %v", fus)
	}
}

func TestUpdateDetectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedTicket(t, s, "t-1")

	a, _ := s.Tickets().GetByID(ctx, "t-1")
	b, _ := s.Tickets().GetByID(ctx, "t-1")

	a.Title = "first"
	mustNil(t, s.Tickets().Update(ctx, a))
	if a.Version != 2 {
		t.Errorf("version after update = %d, want 2", a.Version)
	}

	b.Title = "second"
	if err := s.Tickets().Update(ctx, b); !errorutil.IsCode(err, errorutil.CodeConflict) {
		t.Fatalf("stale update err = %v, want CONFLICT", err)
	}
}

func TestListFilters(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	owner := "u-1"
	tickets := []domain.Ticket{
		{ID: "a", QueueID: "q-1", Title: "Printer jam", Status: domain.TicketStatusOpen, AssignedToID: &owner},
		{ID: "b", QueueID: "q-1", Title: "VPN down", Status: domain.TicketStatusClosed},
		{ID: "c", QueueID: "q-2", Title: "Printer toner", Status: domain.TicketStatusOpen},
	}
	for i := range tickets {
		tickets[i].CreatedAt = time.Date(2024, 1, i+1, 0, 0, 0, 0, time.UTC)
		mustNil(t, s.Tickets().Create(ctx, &tickets[i]))
	}
	search := "printer"

	tests := []struct {
		name   string
		filter repository.TicketFilter
		want   []string
	}{
		{name: "all newest first", want: []string{"c", "b", "a"}},
		{name: "queue", filter: repository.TicketFilter{QueueIDs: []string{"q-1"}}, want: []string{"b", "a"}},
		{name: "no queues", filter: repository.TicketFilter{QueueIDs: []string{}}, want: nil},
		{name: "open", filter: repository.TicketFilter{Statuses: []domain.TicketStatus{domain.TicketStatusOpen}}, want: []string{"c", "a"}},
		{name: "assignee", filter: repository.TicketFilter{AssigneeID: &owner}, want: []string{"a"}},
		{name: "unassigned", filter: repository.TicketFilter{Unassigned: true}, want: []string{"c", "b"}},
		{name: "search", filter: repository.TicketFilter{SearchTerm: &search}, want: []string{"c", "a"}},
		{name: "page", filter: repository.TicketFilter{Limit: 1, Offset: 1}, want: []string{"b"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.Tickets().List(ctx, tc.filter)
			mustNil(t, err)
			var ids []string
			for _, ticket := range got {
				ids = append(ids, ticket.ID)
			}
			if len(ids) != len(tc.want) {
				t.Fatalf("ids = %v, want %v", ids, tc.want)
			}
			for i := range ids {
				if ids[i] != tc.want[i] {
					t.Fatalf("ids = %v, want %v", ids, tc.want)
				}
			}
		})
	}
}

func TestCCHydratesUser(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedTicket(t, s, "t-1")
	u := &domain.User{Username: "dana", Email: "dana@example.com", IsActive: true}
	mustNil(t, s.Users().Create(ctx, u))
	mustNil(t, s.CCs().Create(ctx, &domain.TicketCC{ID: "cc-1", TicketID: "t-1", UserID: &u.ID}))

	ccs, err := s.CCs().ListByTicket(ctx, "t-1")
	mustNil(t, err)
	if len(ccs) != 1 || ccs[0].Address() != "dana@example.com" || ccs[0].Display() != "dana" {
		t.Errorf("ccs = %+v", ccs)
	}
}

func mustNil(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
