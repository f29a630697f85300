package domain

import "time"

// Queue is a named bucket of tickets with its own permission scope and
// notification addresses.
type Queue struct {
	ID              string
	Title           string
	Slug            string
	FromAddress     string
	UpdatedTicketCC string
	NewTicketCC     string
	CreatedAt       time.Time
}

// PermissionName is the capability a user needs when per-queue staff
// permissions are enabled.
func (q Queue) PermissionName() string {
	return "helpdesk.queue_access_" + q.Slug
}
