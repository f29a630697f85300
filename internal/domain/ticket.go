package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus int

const (
	TicketStatusOpen      TicketStatus = 1
	TicketStatusReopened  TicketStatus = 2
	TicketStatusResolved  TicketStatus = 3
	TicketStatusClosed    TicketStatus = 4
	TicketStatusDuplicate TicketStatus = 5
)

var statusLabels = map[TicketStatus]string{
	TicketStatusOpen:      "Open",
	TicketStatusReopened:  "Reopened",
	TicketStatusResolved:  "Resolved",
	TicketStatusClosed:    "Closed",
	TicketStatusDuplicate: "Duplicate",
}

// TicketStatuses lists statuses in display order.
var TicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusReopened,
	TicketStatusResolved,
	TicketStatusClosed,
	TicketStatusDuplicate,
}

// String returns the display label.
func (s TicketStatus) String() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return "Unknown"
}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// IsOpen is true for statuses that still need work.
func (s TicketStatus) IsOpen() bool {
	return s == TicketStatusOpen || s == TicketStatusReopened || s == TicketStatusResolved
}

// TicketPriority ranges from 1 (Critical) to 5 (Very Low).
type TicketPriority int

const (
	TicketPriorityCritical TicketPriority = 1
	TicketPriorityHigh     TicketPriority = 2
	TicketPriorityNormal   TicketPriority = 3
	TicketPriorityLow      TicketPriority = 4
	TicketPriorityVeryLow  TicketPriority = 5
)

// DefaultPriority is applied to new tickets without an explicit priority.
const DefaultPriority = TicketPriorityNormal

var priorityLabels = map[TicketPriority]string{
	TicketPriorityCritical: "Critical",
	TicketPriorityHigh:     "High",
	TicketPriorityNormal:   "Normal",
	TicketPriorityLow:      "Low",
	TicketPriorityVeryLow:  "Very Low",
}

// TicketPriorities lists priorities from highest to lowest.
var TicketPriorities = []TicketPriority{
	TicketPriorityCritical,
	TicketPriorityHigh,
	TicketPriorityNormal,
	TicketPriorityLow,
	TicketPriorityVeryLow,
}

func (p TicketPriority) String() string {
	if label, ok := priorityLabels[p]; ok {
		return label
	}
	return "Unknown"
}

func (p TicketPriority) Valid() bool {
	_, ok := priorityLabels[p]
	return ok
}

// DueDateLayout is the wire format for due dates.
const DueDateLayout = "2006-01-02"

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID             string
	QueueID        string
	Title          string
	Description    string
	Status         TicketStatus
	Priority       TicketPriority
	AssignedToID   *string
	SubmitterEmail string
	Resolution     *string
	DueDate        *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ModifiedStatus time.Time
	Version        int
}

// Clone returns a deep copy so callers can mutate it freely.
func (t Ticket) Clone() Ticket {
	c := t
	if t.AssignedToID != nil {
		id := *t.AssignedToID
		c.AssignedToID = &id
	}
	if t.Resolution != nil {
		r := *t.Resolution
		c.Resolution = &r
	}
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	return c
}

// IsAssignedTo reports whether the ticket is owned by userID.
func (t Ticket) IsAssignedTo(userID string) bool {
	return t.AssignedToID != nil && *t.AssignedToID == userID
}

// TicketDependency records that TicketID cannot close before DependsOnID.
type TicketDependency struct {
	ID          string
	TicketID    string
	DependsOnID string
}
