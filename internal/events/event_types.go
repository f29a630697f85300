package events

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketUpdated       EventType = "ticket_updated"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketDeleted       EventType = "ticket_deleted"
)

// AllEventTypes lists every type the services publish.
var AllEventTypes = []EventType{
	EventTicketCreated,
	EventTicketUpdated,
	EventTicketStatusChanged,
	EventTicketAssigned,
	EventTicketDeleted,
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID   *string `json:"user_id,omitempty"`
	Username string  `json:"username,omitempty"`
}

// ActorFor describes user, which may be nil for system actions.
func ActorFor(user *domain.User) Actor {
	if user == nil {
		return Actor{}
	}
	id := user.ID
	return Actor{UserID: &id, Username: user.Username}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	QueueID   string      `json:"queue_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title          string `json:"title"`
	Priority       string `json:"priority"`
	SubmitterEmail string `json:"submitter_email,omitempty"`
}

// TicketUpdatedPayload describes a follow-up written by the update engine.
type TicketUpdatedPayload struct {
	FollowUpID string   `json:"followup_id"`
	Title      string   `json:"title"`
	Public     bool     `json:"public"`
	Fields     []string `json:"fields,omitempty"`
	Notified   []string `json:"notified,omitempty"`
	Bulk       bool     `json:"bulk,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
	Comment   string `json:"comment,omitempty"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssigneeID *string `json:"assignee_id,omitempty"`
	Assignee   string  `json:"assignee"`
}

// TicketDeletedPayload payload.
type TicketDeletedPayload struct {
	Title string `json:"title"`
}
