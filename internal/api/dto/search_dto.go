package dto

import "time"

// SavedSearchRequest payload. Query is base64-encoded JSON.
type SavedSearchRequest struct {
	Title  string `json:"title"`
	Shared bool   `json:"shared"`
	Query  string `json:"query"`
}

// SavedSearchResponse describes a saved search.
type SavedSearchResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Shared    bool      `json:"shared"`
	Query     string    `json:"query"`
	CreatedAt time.Time `json:"created_at"`
}
