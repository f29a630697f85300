package domain

// TicketCC subscribes a registered user or a bare e-mail address to a ticket.
// UserEmail and Username are filled in by repositories when UserID is set.
type TicketCC struct {
	ID        string
	TicketID  string
	UserID    *string
	Username  string
	UserEmail string
	Email     string
	CanView   bool
	CanUpdate bool
}

// Address is the e-mail used for notifications.
func (c TicketCC) Address() string {
	if c.UserID != nil {
		return c.UserEmail
	}
	return c.Email
}

// Display is the label shown in subscriber lists.
func (c TicketCC) Display() string {
	if c.UserID != nil {
		return c.Username
	}
	return c.Email
}
