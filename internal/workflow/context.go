package workflow

import (
	"github.com/spec-kit/helpdesk/internal/domain"
)

// TemplateContext builds the values exposed to comment placeholders and mail
// templates. Only plain display values are included.
func TemplateContext(t domain.Ticket, q domain.Queue, assignee *domain.User) map[string]any {
	resolution := ""
	if t.Resolution != nil {
		resolution = *t.Resolution
	}
	ticket := map[string]any{
		"id":              t.ID,
		"title":           t.Title,
		"description":     t.Description,
		"status":          t.Status.String(),
		"priority":        t.Priority.String(),
		"submitter_email": t.SubmitterEmail,
		"assigned_to":     OwnerDisplay(assignee),
		"resolution":      resolution,
		"due_date":        DueDateDisplay(t.DueDate),
		"created":         t.CreatedAt.Format("2006-01-02 15:04"),
		"queue":           q.Title,
	}
	queue := map[string]any{
		"id":           q.ID,
		"title":        q.Title,
		"slug":         q.Slug,
		"from_address": q.FromAddress,
	}
	return map[string]any{
		"ticket": ticket,
		"queue":  queue,
	}
}

// lookup resolves a dotted path such as "ticket.title" against ctx.
func lookup(ctx map[string]any, path []string) (any, bool) {
	var cur any = ctx
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[key]; !ok {
			return nil, false
		}
	}
	return cur, true
}
