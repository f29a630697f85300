package domain

import "time"

// UserSettings holds per-user helpdesk preferences.
type UserSettings struct {
	EmailOnTicketAssign     bool    `json:"email_on_ticket_assign"`
	EmailOnTicketChange     bool    `json:"email_on_ticket_change"`
	DefaultTicketSavedQuery *string `json:"default_ticket_saved_query,omitempty"`
}

// DefaultUserSettings mirrors the preferences applied to new accounts.
func DefaultUserSettings() UserSettings {
	return UserSettings{EmailOnTicketAssign: true, EmailOnTicketChange: false}
}

// User is a staff member or end-user who acts on tickets.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	IsActive     bool
	IsStaff      bool
	IsSuperuser  bool
	Permissions  []string
	Settings     UserSettings
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPerm reports whether the user holds perm. Superusers hold every permission.
func (u *User) HasPerm(perm string) bool {
	if u == nil || !u.IsActive {
		return false
	}
	if u.IsSuperuser {
		return true
	}
	for _, p := range u.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// SameUser compares identities and tolerates nil.
func SameUser(a, b *User) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID
}
