package dto

import "time"

// TimeTrackRequest payload.
type TimeTrackRequest struct {
	DurationMinutes int        `json:"duration_minutes"`
	TrackedAt       *time.Time `json:"tracked_at"`
	Description     string     `json:"description"`
}

// TimeTrackResponse describes a time entry.
type TimeTrackResponse struct {
	ID              string    `json:"id"`
	TrackedByID     string    `json:"tracked_by_id"`
	DurationMinutes int       `json:"duration_minutes"`
	TrackedAt       time.Time `json:"tracked_at"`
	Description     string    `json:"description"`
}

// MoneyTrackRequest payload.
type MoneyTrackRequest struct {
	AmountCents int64      `json:"amount_cents"`
	TrackedAt   *time.Time `json:"tracked_at"`
	Description string     `json:"description"`
}

// MoneyTrackResponse describes a money entry.
type MoneyTrackResponse struct {
	ID          string    `json:"id"`
	TrackedByID string    `json:"tracked_by_id"`
	AmountCents int64     `json:"amount_cents"`
	TrackedAt   time.Time `json:"tracked_at"`
	Description string    `json:"description"`
}
