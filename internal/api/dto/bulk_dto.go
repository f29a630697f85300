package dto

// BulkAssignRequest payload. A null assignee unassigns.
type BulkAssignRequest struct {
	TicketIDs  []string `json:"ticket_ids"`
	AssigneeID *string  `json:"assignee_id"`
}

// BulkCloseRequest payload.
type BulkCloseRequest struct {
	TicketIDs []string `json:"ticket_ids"`
	Notify    bool     `json:"notify"`
}

// BulkDeleteRequest payload.
type BulkDeleteRequest struct {
	TicketIDs []string `json:"ticket_ids"`
}
