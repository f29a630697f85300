package workflow

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// Field names recorded on TicketChange rows.
const (
	FieldTitle    = "Title"
	FieldStatus   = "Status"
	FieldOwner    = "Owner"
	FieldPriority = "Priority"
	FieldDueDate  = "Due on"
)

// Diff returns the change row for field when the display values differ.
func Diff(followUp *domain.FollowUp, field, oldValue, newValue string) (domain.TicketChange, bool) {
	if oldValue == newValue {
		return domain.TicketChange{}, false
	}
	return domain.TicketChange{
		ID:         uuid.NewString(),
		FollowUpID: followUp.ID,
		Field:      field,
		OldValue:   oldValue,
		NewValue:   newValue,
	}, true
}

// OwnerDisplay renders an assignee for change rows and templates.
func OwnerDisplay(u *domain.User) string {
	if u == nil {
		return "Unassigned"
	}
	return u.Username
}

// DueDateDisplay renders an optional due date.
func DueDateDisplay(d *time.Time) string {
	if d == nil {
		return ""
	}
	return d.Format(domain.DueDateLayout)
}
