package domain

import "time"

// FollowUp is one audit entry or comment in a ticket's history.
type FollowUp struct {
	ID          string
	TicketID    string
	Title       string
	Comment     string
	Public      bool
	NewStatus   *TicketStatus
	UserID      *string
	Date        time.Time
	Changes     []TicketChange
	Attachments []Attachment
}

// TicketChange is one field-level before/after record attached to a FollowUp.
type TicketChange struct {
	ID         string
	FollowUpID string
	Field      string
	OldValue   string
	NewValue   string
}

// Attachment references an uploaded blob owned by a FollowUp.
type Attachment struct {
	ID         string
	FollowUpID string
	StorageKey string
	FileName   string
	MimeType   string
	SizeBytes  int64
	CreatedAt  time.Time
}
