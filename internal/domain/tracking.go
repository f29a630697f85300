package domain

import "time"

// TimeTrack records time spent on a ticket.
type TimeTrack struct {
	ID          string
	TicketID    string
	TrackedByID string
	Duration    time.Duration
	TrackedAt   time.Time
	Description string
}

// MoneyTrack records money spent on a ticket, in minor currency units.
type MoneyTrack struct {
	ID          string
	TicketID    string
	TrackedByID string
	AmountCents int64
	TrackedAt   time.Time
	Description string
}
