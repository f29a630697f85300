package dto

import "time"

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	QueueID        string  `json:"queue_id"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Priority       int     `json:"priority"`
	SubmitterEmail string  `json:"submitter_email"`
	AssignedToID   *string `json:"assigned_to_id"`
	DueDate        string  `json:"due_date"`
}

// UpdateTicketRequest payload for POST /staff/tickets/:id/update. Owner uses
// the form encoding: empty or "-1" keeps the owner, "0" unassigns.
type UpdateTicketRequest struct {
	Comment     string              `json:"comment"`
	NewStatus   *int                `json:"new_status"`
	Title       *string             `json:"title"`
	Public      bool                `json:"public"`
	Owner       string              `json:"owner"`
	Priority    *int                `json:"priority"`
	DueDate     string              `json:"due_date"`
	Attachments []AttachmentRequest `json:"attachments"`
}

// TicketListQuery captures query filters for the ticket list.
type TicketListQuery struct {
	Queues      []string
	Statuses    []int
	Priorities  []int
	AssigneeID  *string
	Unassigned  bool
	Search      *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	SavedQuery  string
	Page        int
	PageSize    int
}

// TicketSummary response.
type TicketSummary struct {
	ID             string    `json:"id"`
	QueueID        string    `json:"queue_id"`
	Title          string    `json:"title"`
	Status         int       `json:"status"`
	StatusLabel    string    `json:"status_label"`
	Priority       int       `json:"priority"`
	PriorityLabel  string    `json:"priority_label"`
	AssignedToID   *string   `json:"assigned_to_id"`
	SubmitterEmail string    `json:"submitter_email"`
	DueDate        *string   `json:"due_date"`
	Version        int       `json:"version"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	ModifiedStatus time.Time `json:"modified_status"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	TicketSummary
	Description  string               `json:"description"`
	Resolution   *string              `json:"resolution"`
	QueueTitle   string               `json:"queue_title"`
	Assignee     *string              `json:"assignee"`
	FollowUps    []FollowUpResponse   `json:"followups"`
	CCs          []CCResponse         `json:"ccs"`
	Dependencies []DependencyResponse `json:"dependencies"`
	TimeTracks   []TimeTrackResponse  `json:"time_tracks"`
	MoneyTracks  []MoneyTrackResponse `json:"money_tracks"`
}

// FollowUpResponse represents one history entry.
type FollowUpResponse struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Comment     string               `json:"comment"`
	Public      bool                 `json:"public"`
	NewStatus   *int                 `json:"new_status"`
	UserID      *string              `json:"user_id"`
	Date        time.Time            `json:"date"`
	Changes     []ChangeResponse     `json:"changes"`
	Attachments []AttachmentResponse `json:"attachments"`
}

// ChangeResponse is one field-level change.
type ChangeResponse struct {
	Field    string `json:"field"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID        string `json:"id"`
	FileName  string `json:"file_name"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
}

// AttachmentRequest describes attachment input.
type AttachmentRequest struct {
	StorageKey string `json:"storage_key"`
	FileName   string `json:"file_name"`
	MimeType   string `json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes"`
}

// UpdateTicketResponse reports the result of an update.
type UpdateTicketResponse struct {
	Ticket     TicketSummary     `json:"ticket"`
	FollowUp   *FollowUpResponse `json:"followup,omitempty"`
	Notified   []string          `json:"notified"`
	Subscribed bool              `json:"subscribed"`
	NoChanges  bool              `json:"no_changes"`
}

// TakeTicketResponse reports a take.
type TakeTicketResponse struct {
	Ticket  TicketSummary `json:"ticket"`
	Taken   bool          `json:"taken"`
	Message string        `json:"message"`
}

// FollowUpEditRequest rewrites a follow-up.
type FollowUpEditRequest struct {
	Title     string `json:"title"`
	Comment   string `json:"comment"`
	Public    bool   `json:"public"`
	NewStatus *int   `json:"new_status"`
}

// CCRequest subscribes a user or address.
type CCRequest struct {
	UserID    *string `json:"user_id"`
	Email     string  `json:"email"`
	CanView   bool    `json:"can_view"`
	CanUpdate bool    `json:"can_update"`
}

// CCResponse describes a subscription.
type CCResponse struct {
	ID        string  `json:"id"`
	UserID    *string `json:"user_id"`
	Display   string  `json:"display"`
	Email     string  `json:"email"`
	CanView   bool    `json:"can_view"`
	CanUpdate bool    `json:"can_update"`
}

// DependencyRequest links a ticket to one it depends on.
type DependencyRequest struct {
	DependsOnID string `json:"depends_on_id"`
}

// DependencyResponse describes a dependency.
type DependencyResponse struct {
	ID          string `json:"id"`
	DependsOnID string `json:"depends_on_id"`
}
