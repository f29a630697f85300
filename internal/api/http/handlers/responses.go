package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func currentUser(c *fiber.Ctx) (*domain.User, error) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("user required")
	}
	return user, nil
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	var due *string
	if ticket.DueDate != nil {
		d := ticket.DueDate.Format(domain.DueDateLayout)
		due = &d
	}
	return dto.TicketSummary{
		ID:             ticket.ID,
		QueueID:        ticket.QueueID,
		Title:          ticket.Title,
		Status:         int(ticket.Status),
		StatusLabel:    ticket.Status.String(),
		Priority:       int(ticket.Priority),
		PriorityLabel:  ticket.Priority.String(),
		AssignedToID:   ticket.AssignedToID,
		SubmitterEmail: ticket.SubmitterEmail,
		DueDate:        due,
		Version:        ticket.Version,
		CreatedAt:      ticket.CreatedAt,
		UpdatedAt:      ticket.UpdatedAt,
		ModifiedStatus: ticket.ModifiedStatus,
	}
}

func ticketDetail(detail *service.TicketDetail) dto.TicketDetailResponse {
	resp := dto.TicketDetailResponse{
		TicketSummary: ticketSummary(&detail.Ticket),
		Description:   detail.Ticket.Description,
		Resolution:    detail.Ticket.Resolution,
		QueueTitle:    detail.Queue.Title,
		FollowUps:     make([]dto.FollowUpResponse, 0, len(detail.FollowUps)),
		CCs:           make([]dto.CCResponse, 0, len(detail.CCs)),
		Dependencies:  make([]dto.DependencyResponse, 0, len(detail.Dependencies)),
		TimeTracks:    make([]dto.TimeTrackResponse, 0, len(detail.TimeTracks)),
		MoneyTracks:   make([]dto.MoneyTrackResponse, 0, len(detail.MoneyTracks)),
	}
	if detail.Assignee != nil {
		name := detail.Assignee.Username
		resp.Assignee = &name
	}
	for i := range detail.FollowUps {
		resp.FollowUps = append(resp.FollowUps, followUpResponse(&detail.FollowUps[i]))
	}
	for _, cc := range detail.CCs {
		resp.CCs = append(resp.CCs, ccResponse(cc))
	}
	for _, dep := range detail.Dependencies {
		resp.Dependencies = append(resp.Dependencies, dto.DependencyResponse{ID: dep.ID, DependsOnID: dep.DependsOnID})
	}
	for i := range detail.TimeTracks {
		resp.TimeTracks = append(resp.TimeTracks, timeTrackResponse(&detail.TimeTracks[i]))
	}
	for i := range detail.MoneyTracks {
		resp.MoneyTracks = append(resp.MoneyTracks, moneyTrackResponse(&detail.MoneyTracks[i]))
	}
	return resp
}

func followUpResponse(fu *domain.FollowUp) dto.FollowUpResponse {
	resp := dto.FollowUpResponse{
		ID:          fu.ID,
		Title:       fu.Title,
		Comment:     fu.Comment,
		Public:      fu.Public,
		UserID:      fu.UserID,
		Date:        fu.Date,
		Changes:     make([]dto.ChangeResponse, 0, len(fu.Changes)),
		Attachments: make([]dto.AttachmentResponse, 0, len(fu.Attachments)),
	}
	if fu.NewStatus != nil {
		status := int(*fu.NewStatus)
		resp.NewStatus = &status
	}
	for _, ch := range fu.Changes {
		resp.Changes = append(resp.Changes, dto.ChangeResponse{Field: ch.Field, OldValue: ch.OldValue, NewValue: ch.NewValue})
	}
	for _, att := range fu.Attachments {
		resp.Attachments = append(resp.Attachments, dto.AttachmentResponse{
			ID:        att.ID,
			FileName:  att.FileName,
			MimeType:  att.MimeType,
			SizeBytes: att.SizeBytes,
		})
	}
	return resp
}

func ccResponse(cc domain.TicketCC) dto.CCResponse {
	return dto.CCResponse{
		ID:        cc.ID,
		UserID:    cc.UserID,
		Display:   cc.Display(),
		Email:     cc.Address(),
		CanView:   cc.CanView,
		CanUpdate: cc.CanUpdate,
	}
}

func timeTrackResponse(t *domain.TimeTrack) dto.TimeTrackResponse {
	return dto.TimeTrackResponse{
		ID:              t.ID,
		TrackedByID:     t.TrackedByID,
		DurationMinutes: int(t.Duration.Minutes()),
		TrackedAt:       t.TrackedAt,
		Description:     t.Description,
	}
}

func moneyTrackResponse(m *domain.MoneyTrack) dto.MoneyTrackResponse {
	return dto.MoneyTrackResponse{
		ID:          m.ID,
		TrackedByID: m.TrackedByID,
		AmountCents: m.AmountCents,
		TrackedAt:   m.TrackedAt,
		Description: m.Description,
	}
}

func userResponse(u *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
		Settings: dto.UserSettings{
			EmailOnTicketAssign:     u.Settings.EmailOnTicketAssign,
			EmailOnTicketChange:     u.Settings.EmailOnTicketChange,
			DefaultTicketSavedQuery: u.Settings.DefaultTicketSavedQuery,
		},
	}
}

func savedSearchResponse(s *domain.SavedSearch) dto.SavedSearchResponse {
	return dto.SavedSearchResponse{
		ID:        s.ID,
		UserID:    s.UserID,
		Title:     s.Title,
		Shared:    s.Shared,
		Query:     s.Query,
		CreatedAt: s.CreatedAt,
	}
}
