package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/app"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
)

func newContainer(t *testing.T) (*app.Container, *domain.User) {
	t.Helper()
	ctx := context.Background()
	c, err := app.Build(ctx, config.Config{Auth: config.AuthConfig{JWTSecret: "test", BcryptCost: 4}}, zap.NewNop())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(c.Close)
	alice, err := c.Auth.CreateUser(ctx, service.NewUserInput{Username: "alice", Password: "correct-horse", IsStaff: true})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := c.Store.Queues().Create(ctx, &domain.Queue{ID: "q-support", Title: "Support", Slug: "support"}); err != nil {
		t.Fatalf("create queue: %v", err)
	}
	return c, alice
}

func execute(t *testing.T, opts Options, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(opts)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestBulkCommands(t *testing.T) {
	ctx := context.Background()
	c, alice := newContainer(t)
	opts := Options{Build: func(context.Context) (*app.Container, error) { return c, nil }, KeepOpen: true}

	var ids []string
	for _, title := range []string{"one", "two"} {
		ticket, err := c.Tickets.CreateTicket(ctx, alice, service.TicketCreateInput{QueueID: "q-support", Title: title})
		if err != nil {
			t.Fatalf("create ticket: %v", err)
		}
		ids = append(ids, ticket.ID)
	}

	out, err := execute(t, opts, append([]string{"bulk", "assign", "--as", "alice", "--to", "alice"}, ids...)...)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if !strings.Contains(out, "AFFECTED  2") {
		t.Errorf("assign output = %q", out)
	}

	out, err = execute(t, opts, "bulk", "close", "--as", "alice", "--output", "json", ids[0], "missing")
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	var outcome struct {
		Count    int `json:"count"`
		Messages []struct {
			Level    string `json:"level"`
			TicketID string `json:"ticket_id"`
		} `json:"messages"`
	}
	if err := json.Unmarshal([]byte(out), &outcome); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if outcome.Count != 1 || len(outcome.Messages) != 2 || outcome.Messages[0].TicketID != "missing" {
		t.Errorf("outcome = %+v", outcome)
	}

	if _, err := execute(t, opts, "bulk", "assign", "--as", "alice", ids[0]); err == nil {
		t.Error("assign without --to or --unassign succeeded")
	}
	if _, err := execute(t, opts, "bulk", "delete", ids[1]); err == nil || !strings.Contains(err.Error(), "--as") {
		t.Errorf("delete without actor err = %v", err)
	}
}

func TestReportCommand(t *testing.T) {
	ctx := context.Background()
	c, alice := newContainer(t)
	opts := Options{Build: func(context.Context) (*app.Container, error) { return c, nil }, KeepOpen: true}
	if _, err := c.Tickets.CreateTicket(ctx, alice, service.TicketCreateInput{QueueID: "q-support", Title: "one"}); err != nil {
		t.Fatalf("create ticket: %v", err)
	}

	out, err := execute(t, opts, "report", "queuestatus", "--as", "alice", "--output", "json")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	var report service.Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(report.Rows) != 1 || report.Rows[0].Label != "Support" || report.Rows[0].Values[0] != 1 {
		t.Errorf("report = %+v", report)
	}

	out, err = execute(t, opts, "report", "basic", "--as", "alice")
	if err != nil {
		t.Fatalf("basic: %v", err)
	}
	if !strings.Contains(out, "Tickets < 30 days") {
		t.Errorf("basic output = %q", out)
	}
}

func TestUserAndMigrateCommands(t *testing.T) {
	ctx := context.Background()
	c, _ := newContainer(t)
	var migrated string
	opts := Options{
		Build:    func(context.Context) (*app.Container, error) { return c, nil },
		Migrate:  func(_ context.Context, dir string) error { migrated = dir; return nil },
		KeepOpen: true,
	}

	if _, err := execute(t, opts, "user", "create", "--username", "dave", "--password", "long-enough", "--perm", "helpdesk.queue_access_support"); err != nil {
		t.Fatalf("user create: %v", err)
	}
	dave, err := c.Store.Users().GetByUsername(ctx, "dave")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if dave.IsStaff || len(dave.Permissions) != 1 {
		t.Errorf("dave = %+v", dave)
	}

	if _, err := execute(t, opts, "migrate", "--dir", "db/sql"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if migrated != "db/sql" {
		t.Errorf("migrated dir = %q", migrated)
	}
}
