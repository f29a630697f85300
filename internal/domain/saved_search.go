package domain

import "time"

// SavedSearch is a named ticket filter. Query holds base64-encoded JSON.
type SavedSearch struct {
	ID        string
	UserID    string
	Title     string
	Shared    bool
	Query     string
	CreatedAt time.Time
}
