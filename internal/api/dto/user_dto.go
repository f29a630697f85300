package dto

import "time"

// LoginRequest payload for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PasswordChangeRequest payload for authenticated password changes.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// UserSettingsRequest updates notification preferences.
type UserSettingsRequest struct {
	EmailOnTicketAssign bool `json:"email_on_ticket_assign"`
	EmailOnTicketChange bool `json:"email_on_ticket_change"`
}

// UserResponse describes an account without credentials.
type UserResponse struct {
	ID          string       `json:"id"`
	Username    string       `json:"username"`
	Email       string       `json:"email"`
	IsStaff     bool         `json:"is_staff"`
	IsSuperuser bool         `json:"is_superuser"`
	Settings    UserSettings `json:"settings"`
}

// UserSettings mirrors the stored preferences.
type UserSettings struct {
	EmailOnTicketAssign     bool    `json:"email_on_ticket_assign"`
	EmailOnTicketChange     bool    `json:"email_on_ticket_change"`
	DefaultTicketSavedQuery *string `json:"default_ticket_saved_query,omitempty"`
}
