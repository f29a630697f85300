package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const (
	PermChangeOthersTimeTrack  = "helpdesk.change_others_tickettimetrack"
	PermDeleteOthersTimeTrack  = "helpdesk.delete_others_tickettimetrack"
	PermChangeOthersMoneyTrack = "helpdesk.change_others_ticketmoneytrack"
	PermDeleteOthersMoneyTrack = "helpdesk.delete_others_ticketmoneytrack"
)

// TrackingService records time and money spent on tickets.
type TrackingService struct {
	store repository.Store
	cfg   config.HelpdeskConfig
	now   func() time.Time
}

// NewTrackingService creates the service. A nil now defaults to time.Now.
func NewTrackingService(store repository.Store, cfg config.HelpdeskConfig, now func() time.Time) *TrackingService {
	if now == nil {
		now = time.Now
	}
	return &TrackingService{store: store, cfg: cfg, now: now}
}

// TimeTrackInput describes a time entry. A zero or future TrackedAt becomes now.
type TimeTrackInput struct {
	Duration    time.Duration
	TrackedAt   time.Time
	Description string
}

// MoneyTrackInput describes a money entry.
type MoneyTrackInput struct {
	AmountCents int64
	TrackedAt   time.Time
	Description string
}

func (s *TrackingService) clamp(at time.Time) time.Time {
	now := s.now()
	if at.IsZero() || at.After(now) {
		return now
	}
	return at
}

// AddTime tracks time on a ticket for the actor.
func (s *TrackingService) AddTime(ctx context.Context, actor *domain.User, ticketID string, input TimeTrackInput) (*domain.TimeTrack, error) {
	if err := requireStaff(s.cfg, actor); err != nil {
		return nil, err
	}
	if input.Duration <= 0 {
		return nil, apperrors.NewValidationError("duration must be positive", nil)
	}
	if _, _, err := loadAccessible(ctx, s.store, s.cfg, actor, ticketID); err != nil {
		return nil, err
	}
	track := &domain.TimeTrack{
		ID:          uuid.NewString(),
		TicketID:    ticketID,
		TrackedByID: actor.ID,
		Duration:    input.Duration,
		TrackedAt:   s.clamp(input.TrackedAt),
		Description: input.Description,
	}
	if err := s.store.TimeTracks().Create(ctx, track); err != nil {
		return nil, err
	}
	return track, nil
}

// UpdateTime edits a time entry. Other users' entries need the change permission.
func (s *TrackingService) UpdateTime(ctx context.Context, actor *domain.User, ticketID, trackID string, input TimeTrackInput) (*domain.TimeTrack, error) {
	if err := requireStaff(s.cfg, actor); err != nil {
		return nil, err
	}
	if input.Duration <= 0 {
		return nil, apperrors.NewValidationError("duration must be positive", nil)
	}
	track, err := s.timeTrack(ctx, actor, ticketID, trackID)
	if err != nil {
		return nil, err
	}
	if track.TrackedByID != actor.ID && !actor.HasPerm(PermChangeOthersTimeTrack) {
		return nil, apperrors.NewForbidden("cannot change another user's time entry", map[string]any{"id": trackID})
	}
	track.Duration = input.Duration
	track.TrackedAt = s.clamp(input.TrackedAt)
	track.Description = input.Description
	if err := s.store.TimeTracks().Update(ctx, track); err != nil {
		return nil, err
	}
	return track, nil
}

// DeleteTime removes a time entry.
func (s *TrackingService) DeleteTime(ctx context.Context, actor *domain.User, ticketID, trackID string) error {
	if err := requireStaff(s.cfg, actor); err != nil {
		return err
	}
	track, err := s.timeTrack(ctx, actor, ticketID, trackID)
	if err != nil {
		return err
	}
	if track.TrackedByID != actor.ID && !actor.HasPerm(PermDeleteOthersTimeTrack) {
		return apperrors.NewForbidden("cannot delete another user's time entry", map[string]any{"id": trackID})
	}
	return s.store.TimeTracks().Delete(ctx, track.ID)
}

// AddMoney tracks money on a ticket for the actor.
func (s *TrackingService) AddMoney(ctx context.Context, actor *domain.User, ticketID string, input MoneyTrackInput) (*domain.MoneyTrack, error) {
	if err := requireStaff(s.cfg, actor); err != nil {
		return nil, err
	}
	if input.AmountCents <= 0 {
		return nil, apperrors.NewValidationError("amount must be positive", nil)
	}
	if _, _, err := loadAccessible(ctx, s.store, s.cfg, actor, ticketID); err != nil {
		return nil, err
	}
	track := &domain.MoneyTrack{
		ID:          uuid.NewString(),
		TicketID:    ticketID,
		TrackedByID: actor.ID,
		AmountCents: input.AmountCents,
		TrackedAt:   s.clamp(input.TrackedAt),
		Description: input.Description,
	}
	if err := s.store.MoneyTracks().Create(ctx, track); err != nil {
		return nil, err
	}
	return track, nil
}

// UpdateMoney edits a money entry.
func (s *TrackingService) UpdateMoney(ctx context.Context, actor *domain.User, ticketID, trackID string, input MoneyTrackInput) (*domain.MoneyTrack, error) {
	if err := requireStaff(s.cfg, actor); err != nil {
		return nil, err
	}
	if input.AmountCents <= 0 {
		return nil, apperrors.NewValidationError("amount must be positive", nil)
	}
	track, err := s.moneyTrack(ctx, actor, ticketID, trackID)
	if err != nil {
		return nil, err
	}
	if track.TrackedByID != actor.ID && !actor.HasPerm(PermChangeOthersMoneyTrack) {
		return nil, apperrors.NewForbidden("cannot change another user's money entry", map[string]any{"id": trackID})
	}
	track.AmountCents = input.AmountCents
	track.TrackedAt = s.clamp(input.TrackedAt)
	track.Description = input.Description
	if err := s.store.MoneyTracks().Update(ctx, track); err != nil {
		return nil, err
	}
	return track, nil
}

// DeleteMoney removes a money entry.
func (s *TrackingService) DeleteMoney(ctx context.Context, actor *domain.User, ticketID, trackID string) error {
	if err := requireStaff(s.cfg, actor); err != nil {
		return err
	}
	track, err := s.moneyTrack(ctx, actor, ticketID, trackID)
	if err != nil {
		return err
	}
	if track.TrackedByID != actor.ID && !actor.HasPerm(PermDeleteOthersMoneyTrack) {
		return apperrors.NewForbidden("cannot delete another user's money entry", map[string]any{"id": trackID})
	}
	return s.store.MoneyTracks().Delete(ctx, track.ID)
}

func (s *TrackingService) timeTrack(ctx context.Context, actor *domain.User, ticketID, trackID string) (*domain.TimeTrack, error) {
	if _, _, err := loadAccessible(ctx, s.store, s.cfg, actor, ticketID); err != nil {
		return nil, err
	}
	track, err := s.store.TimeTracks().GetByID(ctx, trackID)
	if err != nil {
		return nil, err
	}
	if track.TicketID != ticketID {
		return nil, apperrors.NewNotFound("time track", map[string]any{"id": trackID})
	}
	return track, nil
}

func (s *TrackingService) moneyTrack(ctx context.Context, actor *domain.User, ticketID, trackID string) (*domain.MoneyTrack, error) {
	if _, _, err := loadAccessible(ctx, s.store, s.cfg, actor, ticketID); err != nil {
		return nil, err
	}
	track, err := s.store.MoneyTracks().GetByID(ctx, trackID)
	if err != nil {
		return nil, err
	}
	if track.TicketID != ticketID {
		return nil, apperrors.NewNotFound("money track", map[string]any{"id": trackID})
	}
	return track, nil
}
