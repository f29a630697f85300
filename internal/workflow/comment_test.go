package workflow

import (
	"testing"

	"github.com/spec-kit/helpdesk/internal/domain"
)

func TestRenderComment(t *testing.T) {
	ctx := TemplateContext(
		domain.Ticket{ID: "t-9", Title: "Printer {{ queue.slug }}", Status: domain.TicketStatusOpen, Priority: domain.TicketPriorityHigh},
		domain.Queue{Title: "Hardware", Slug: "hw"},
		nil,
	)
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plain", raw: "no placeholders", want: "no placeholders"},
		{name: "ticket field", raw: "{{ticket.priority}} issue", want: "High issue"},
		{name: "unknown renders empty", raw: "[{{ ticket.nope }}]", want: "[]"},
		{name: "namespace only renders empty", raw: "[{{ ticket }}]", want: "[]"},
		{name: "tags stay literal", raw: "{% if x %}a{% endif %}", want: "{% if x %}a{% endif %}"},
		{name: "placeholder inside tag stays literal", raw: "{% {{ ticket.title }} %}", want: "{% {{ ticket.title }} %}"},
		{name: "placeholders around tag expand", raw: "{{ queue.title }} {% x %} {{ ticket.id }}", want: "Hardware {% x %} t-9"},
		{name: "unclosed tag does not hide placeholders", raw: "{% {{ ticket.priority }}", want: "{% High"},
		{name: "filters stay literal", raw: "{{ ticket.title|upper }}", want: "{{ ticket.title|upper }}"},
		{name: "no re-expansion", raw: "{{ ticket.title }}", want: "Printer {{ queue.slug }}"},
		{name: "owner", raw: "owner={{ ticket.assigned_to }}", want: "owner=Unassigned"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := RenderComment(tc.raw, ctx); got != tc.want {
				t.Errorf("RenderComment(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestDiffSkipsEqualValues(t *testing.T) {
	fu := &domain.FollowUp{ID: "f-1"}
	if _, ok := Diff(fu, FieldTitle, "a", "a"); ok {
		t.Fatal("Diff produced a row for equal values")
	}
	c, ok := Diff(fu, FieldTitle, "a", "b")
	if !ok || c.FollowUpID != "f-1" || c.OldValue != "a" || c.NewValue != "b" {
		t.Fatalf("Diff = %+v, %v", c, ok)
	}
}
