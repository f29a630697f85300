package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

type stubUsers map[string]*domain.User

func (s stubUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, errorutil.NewNotFound("user", map[string]any{"id": id})
}

var fixedNow = time.Date(2024, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestEngine(users stubUsers) *Engine {
	return NewEngine(users, Options{Now: func() time.Time { return fixedNow }})
}

func ptr[T any](v T) *T { return &v }

func baseSubject() Subject {
	created := fixedNow.Add(-48 * time.Hour)
	return Subject{
		Ticket: domain.Ticket{
			ID:             "t-1",
			QueueID:        "q-1",
			Title:          "T",
			Status:         domain.TicketStatusOpen,
			Priority:       domain.TicketPriorityNormal,
			SubmitterEmail: "sub@example.com",
			CreatedAt:      created,
			ModifiedStatus: created,
		},
		Queue: domain.Queue{ID: "q-1", Title: "Support", Slug: "support"},
	}
}

var staff = &domain.User{ID: "u-staff", Username: "alice", Email: "alice@example.com", IsActive: true, IsStaff: true}

func TestApplyUpdateNoOp(t *testing.T) {
	owner := "u-bob"
	tests := []struct {
		name    string
		subject func() Subject
		req     UpdateRequest
	}{
		{name: "empty request", subject: baseSubject},
		{
			name:    "explicit current values",
			subject: baseSubject,
			req: UpdateRequest{
				NewStatus: ptr(domain.TicketStatusOpen),
				Priority:  ptr(domain.TicketPriorityNormal),
				Title:     ptr("T"),
			},
		},
		{name: "blank title", subject: baseSubject, req: UpdateRequest{Title: ptr("   ")}},
		{name: "unassign when unassigned", subject: baseSubject, req: UpdateRequest{Owner: Unassign()}},
		{
			name: "assign to current owner",
			subject: func() Subject {
				s := baseSubject()
				s.Ticket.AssignedToID = &owner
				return s
			},
			req: UpdateRequest{Owner: AssignTo(owner)},
		},
		{name: "unparseable due date", subject: baseSubject, req: UpdateRequest{DueDate: "next tuesday"}},
		{
			name: "same due date",
			subject: func() Subject {
				s := baseSubject()
				d := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
				s.Ticket.DueDate = &d
				return s
			},
			req: UpdateRequest{DueDate: "2024-04-01"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := newTestEngine(stubUsers{}).ApplyUpdate(context.Background(), tc.subject(), tc.req, staff)
			if !errors.Is(err, ErrNoChanges) {
				t.Fatalf("ApplyUpdate() = %+v, %v; want ErrNoChanges", res, err)
			}
		})
	}
}

func TestApplyUpdateResolveExample(t *testing.T) {
	res, err := newTestEngine(stubUsers{}).ApplyUpdate(context.Background(), baseSubject(), UpdateRequest{
		NewStatus: ptr(domain.TicketStatusResolved),
		Comment:   "Fixed",
		Public:    true,
	}, staff)
	if err != nil {
		t.Fatalf("ApplyUpdate() error = %v", err)
	}
	if res.Ticket.Status != domain.TicketStatusResolved {
		t.Errorf("status = %v, want Resolved", res.Ticket.Status)
	}
	if res.Ticket.Resolution == nil || *res.Ticket.Resolution != "Fixed" {
		t.Errorf("resolution = %v, want Fixed", res.Ticket.Resolution)
	}
	if res.FollowUp.Title != "Resolved" {
		t.Errorf("follow-up title = %q, want Resolved", res.FollowUp.Title)
	}
	if !res.Ticket.ModifiedStatus.Equal(res.FollowUp.Date) {
		t.Errorf("modified_status = %v, want follow-up date %v", res.Ticket.ModifiedStatus, res.FollowUp.Date)
	}
	if res.FollowUp.NewStatus == nil || *res.FollowUp.NewStatus != domain.TicketStatusResolved {
		t.Errorf("follow-up new status = %v", res.FollowUp.NewStatus)
	}
	if len(res.Changes) != 1 {
		t.Fatalf("changes = %+v, want exactly one", res.Changes)
	}
	c := res.Changes[0]
	if c.Field != FieldStatus || c.OldValue != "Open" || c.NewValue != "Resolved" || c.FollowUpID != res.FollowUp.ID {
		t.Errorf("change = %+v", c)
	}
	if res.FollowUp.UserID == nil || *res.FollowUp.UserID != staff.ID {
		t.Errorf("follow-up user = %v, want %s", res.FollowUp.UserID, staff.ID)
	}
	if res.Previous.Status != domain.TicketStatusOpen {
		t.Errorf("previous status mutated to %v", res.Previous.Status)
	}
}

func TestApplyUpdateOwnerTitles(t *testing.T) {
	bob := &domain.User{ID: "u-bob", Username: "bob", Email: "bob@example.com", IsActive: true, IsStaff: true}
	users := stubUsers{bob.ID: bob}

	tests := []struct {
		name       string
		assigned   *domain.User
		req        UpdateRequest
		wantTitle  string
		reassigned bool
		wantOwner  [2]string
	}{
		{
			name:       "assign",
			req:        UpdateRequest{Owner: AssignTo("u-bob")},
			wantTitle:  "Assigned to bob",
			reassigned: true,
			wantOwner:  [2]string{"Unassigned", "bob"},
		},
		{
			name:      "unassign",
			assigned:  bob,
			req:       UpdateRequest{Owner: Unassign()},
			wantTitle: "Unassigned",
			wantOwner: [2]string{"bob", "Unassigned"},
		},
		{
			name:       "assign and close",
			req:        UpdateRequest{Owner: AssignTo("u-bob"), NewStatus: ptr(domain.TicketStatusClosed)},
			wantTitle:  "Assigned to bob and Closed",
			reassigned: true,
			wantOwner:  [2]string{"Unassigned", "bob"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := baseSubject()
			if tc.assigned != nil {
				s.Ticket.AssignedToID = &tc.assigned.ID
				s.Assignee = tc.assigned
			}
			res, err := newTestEngine(users).ApplyUpdate(context.Background(), s, tc.req, staff)
			if err != nil {
				t.Fatalf("ApplyUpdate() error = %v", err)
			}
			if res.FollowUp.Title != tc.wantTitle {
				t.Errorf("title = %q, want %q", res.FollowUp.Title, tc.wantTitle)
			}
			if res.Reassigned != tc.reassigned {
				t.Errorf("reassigned = %v, want %v", res.Reassigned, tc.reassigned)
			}
			var owner *domain.TicketChange
			for i := range res.Changes {
				if res.Changes[i].Field == FieldOwner {
					owner = &res.Changes[i]
				}
			}
			if owner == nil || owner.OldValue != tc.wantOwner[0] || owner.NewValue != tc.wantOwner[1] {
				t.Errorf("owner change = %+v, want %v", owner, tc.wantOwner)
			}
		})
	}
}

func TestApplyUpdateOwnerNotFound(t *testing.T) {
	_, err := newTestEngine(stubUsers{}).ApplyUpdate(context.Background(), baseSubject(), UpdateRequest{Owner: AssignTo("ghost")}, staff)
	if !errorutil.IsNotFound(err) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
}

func TestApplyUpdateStaffOnlyOwners(t *testing.T) {
	customer := &domain.User{ID: "u-cust", Username: "carol", IsActive: true}
	e := NewEngine(stubUsers{customer.ID: customer}, Options{StaffOnlyTicketOwners: true})
	_, err := e.ApplyUpdate(context.Background(), baseSubject(), UpdateRequest{Owner: AssignTo(customer.ID)}, staff)
	if !errorutil.IsCode(err, errorutil.CodeValidation) {
		t.Fatalf("err = %v, want VALIDATION_FAILED", err)
	}
}

func TestApplyUpdateTitleFallback(t *testing.T) {
	e := newTestEngine(stubUsers{})

	res, err := e.ApplyUpdate(context.Background(), baseSubject(), UpdateRequest{Comment: "ping"}, staff)
	if err != nil {
		t.Fatal(err)
	}
	if res.FollowUp.Title != "Comment" {
		t.Errorf("title = %q, want Comment", res.FollowUp.Title)
	}

	res, err = e.ApplyUpdate(context.Background(), baseSubject(), UpdateRequest{Priority: ptr(domain.TicketPriorityCritical)}, staff)
	if err != nil {
		t.Fatal(err)
	}
	if res.FollowUp.Title != "Updated" {
		t.Errorf("title = %q, want Updated", res.FollowUp.Title)
	}
	if len(res.Changes) != 1 || res.Changes[0].Field != FieldPriority || res.Changes[0].OldValue != "Normal" || res.Changes[0].NewValue != "Critical" {
		t.Errorf("changes = %+v", res.Changes)
	}
}

func TestApplyUpdateChangeOrder(t *testing.T) {
	bob := &domain.User{ID: "u-bob", Username: "bob", IsActive: true, IsStaff: true}
	res, err := newTestEngine(stubUsers{bob.ID: bob}).ApplyUpdate(context.Background(), baseSubject(), UpdateRequest{
		Title:     ptr("New title"),
		NewStatus: ptr(domain.TicketStatusReopened),
		Owner:     AssignTo(bob.ID),
		Priority:  ptr(domain.TicketPriorityLow),
		DueDate:   "2024-05-01",
	}, staff)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{FieldTitle, FieldStatus, FieldOwner, FieldPriority, FieldDueDate}
	if len(res.Changes) != len(want) {
		t.Fatalf("changes = %+v", res.Changes)
	}
	for i, f := range want {
		if res.Changes[i].Field != f {
			t.Errorf("changes[%d].Field = %q, want %q", i, res.Changes[i].Field, f)
		}
	}
	if got := res.Changes[4]; got.OldValue != "" || got.NewValue != "2024-05-01" {
		t.Errorf("due date change = %+v", got)
	}
	if res.Ticket.Title != "New title" || res.Ticket.Priority != domain.TicketPriorityLow {
		t.Errorf("ticket = %+v", res.Ticket)
	}
}

func TestApplyUpdateResolutionCapture(t *testing.T) {
	tests := []struct {
		name       string
		status     domain.TicketStatus
		prior      *string
		wantResult *string
	}{
		{name: "close without resolution", status: domain.TicketStatusClosed, wantResult: ptr("done")},
		{name: "close keeps prior resolution", status: domain.TicketStatusClosed, prior: ptr("earlier"), wantResult: ptr("earlier")},
		{name: "resolve overwrites", status: domain.TicketStatusResolved, prior: ptr("earlier"), wantResult: ptr("done")},
		{name: "reopen leaves it", status: domain.TicketStatusReopened},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := baseSubject()
			s.Ticket.Resolution = tc.prior
			res, err := newTestEngine(stubUsers{}).ApplyUpdate(context.Background(), s, UpdateRequest{NewStatus: &tc.status, Comment: "done"}, staff)
			if err != nil {
				t.Fatal(err)
			}
			got := res.Ticket.Resolution
			if (got == nil) != (tc.wantResult == nil) || (got != nil && *got != *tc.wantResult) {
				t.Errorf("resolution = %v, want %v", got, tc.wantResult)
			}
		})
	}
}

func TestApplyUpdateCommentIsData(t *testing.T) {
	res, err := newTestEngine(stubUsers{}).ApplyUpdate(context.Background(), baseSubject(), UpdateRequest{
		Comment: "{% include 'secret.html' %} re: {{ ticket.title }} in {{ queue.title }}",
	}, staff)
	if err != nil {
		t.Fatal(err)
	}
	want := "{% include 'secret.html' %} re: T in Support"
	if res.FollowUp.Comment != want {
		t.Errorf("comment = %q, want %q", res.FollowUp.Comment, want)
	}
}

func TestApplyUpdateFilesAndAuthor(t *testing.T) {
	customer := &domain.User{ID: "u-cust", Username: "carol", IsActive: true}
	res, err := newTestEngine(stubUsers{}).ApplyUpdate(context.Background(), baseSubject(), UpdateRequest{
		Files: []domain.Attachment{{FileName: "log.txt", StorageKey: "blob/1"}},
	}, customer)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Files) != 1 || res.Files[0].FollowUpID != res.FollowUp.ID || res.Files[0].ID == "" {
		t.Errorf("files = %+v", res.Files)
	}
	if res.FollowUp.UserID != nil {
		t.Errorf("non-staff author recorded without AllowNonStaffTicketUpdate")
	}
	if res.FollowUp.Title != "Updated" {
		t.Errorf("title = %q", res.FollowUp.Title)
	}
}

func TestParseOwnerChange(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", "unchanged"},
		{"-1", "unchanged"},
		{"0", "unassign"},
		{" u-7 ", "assign:u-7"},
	}
	for _, tc := range tests {
		if got := ParseOwnerChange(tc.raw).String(); got != tc.want {
			t.Errorf("ParseOwnerChange(%q) = %s, want %s", tc.raw, got, tc.want)
		}
	}
}
