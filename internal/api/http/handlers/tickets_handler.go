package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/internal/workflow"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// TicketsHandler manages staff ticket endpoints.
type TicketsHandler struct {
	service  *service.TicketService
	assign   *service.AssignmentService
	searches *service.SavedSearchService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, assignService *service.AssignmentService, searches *service.SavedSearchService) *TicketsHandler {
	return &TicketsHandler{service: ticketService, assign: assignService, searches: searches}
}

// CreateTicket POST /staff/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.QueueID == "" || strings.TrimSpace(req.Title) == "" {
		return apperrors.NewValidationError("queue_id and title required", nil)
	}
	ticket, err := h.service.CreateTicket(c.UserContext(), user, service.TicketCreateInput{
		QueueID:        req.QueueID,
		Title:          req.Title,
		Description:    req.Description,
		Priority:       domain.TicketPriority(req.Priority),
		SubmitterEmail: req.SubmitterEmail,
		AssignedToID:   req.AssignedToID,
		DueDate:        req.DueDate,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// ListTickets GET /staff/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	filter, err := h.ticketFilter(c, user)
	if err != nil {
		return err
	}
	tickets, err := h.service.ListTickets(c.UserContext(), user, filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /staff/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	detail, err := h.service.GetTicket(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(detail)})
}

// UpdateTicket POST /staff/tickets/:id/update.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	update := workflow.UpdateRequest{
		Comment: req.Comment,
		Title:   req.Title,
		Public:  req.Public,
		Owner:   workflow.ParseOwnerChange(req.Owner),
		DueDate: req.DueDate,
	}
	if req.NewStatus != nil {
		status := domain.TicketStatus(*req.NewStatus)
		update.NewStatus = &status
	}
	if req.Priority != nil {
		priority := domain.TicketPriority(*req.Priority)
		update.Priority = &priority
	}
	for _, att := range req.Attachments {
		update.Files = append(update.Files, domain.Attachment{
			StorageKey: att.StorageKey,
			FileName:   att.FileName,
			MimeType:   att.MimeType,
			SizeBytes:  att.SizeBytes,
		})
	}

	out, err := h.service.UpdateTicket(c.UserContext(), user, c.Params("id"), update)
	if err != nil {
		return err
	}
	resp := dto.UpdateTicketResponse{
		Ticket:     ticketSummary(&out.Ticket),
		Notified:   out.Notified,
		Subscribed: out.Subscribed,
		NoChanges:  out.NoChanges,
	}
	if resp.Notified == nil {
		resp.Notified = []string{}
	}
	if out.FollowUp != nil {
		fu := followUpResponse(out.FollowUp)
		resp.FollowUp = &fu
	}
	return c.JSON(fiber.Map{"data": resp})
}

// DeleteTicket DELETE /staff/tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteTicket(c.UserContext(), user, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// TakeTicket POST /staff/tickets/:id/take.
func (h *TicketsHandler) TakeTicket(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	out, err := h.assign.TakeTicket(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TakeTicketResponse{
		Ticket:  ticketSummary(&out.Ticket),
		Taken:   out.Taken,
		Message: out.Message,
	}})
}

// OwnerCandidates GET /staff/owners.
func (h *TicketsHandler) OwnerCandidates(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	users, err := h.assign.OwnerCandidates(c.UserContext(), user)
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, userResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// EditFollowUp PUT /staff/tickets/:id/followups/:followupID.
func (h *TicketsHandler) EditFollowUp(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.FollowUpEditRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	input := service.FollowUpEditInput{Title: req.Title, Comment: req.Comment, Public: req.Public}
	if req.NewStatus != nil {
		status := domain.TicketStatus(*req.NewStatus)
		input.NewStatus = &status
	}
	fu, err := h.service.EditFollowUp(c.UserContext(), user, c.Params("id"), c.Params("followupID"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": followUpResponse(fu)})
}

// DeleteFollowUp DELETE /staff/tickets/:id/followups/:followupID.
func (h *TicketsHandler) DeleteFollowUp(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteFollowUp(c.UserContext(), user, c.Params("id"), c.Params("followupID")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// DeleteAttachment DELETE /staff/tickets/:id/attachments/:attachmentID.
func (h *TicketsHandler) DeleteAttachment(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteAttachment(c.UserContext(), user, c.Params("id"), c.Params("attachmentID")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListCCs GET /staff/tickets/:id/cc.
func (h *TicketsHandler) ListCCs(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	ccs, err := h.service.ListCCs(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.CCResponse, 0, len(ccs))
	for _, cc := range ccs {
		items = append(items, ccResponse(cc))
	}
	return c.JSON(fiber.Map{"data": items})
}

// AddCC POST /staff/tickets/:id/cc.
func (h *TicketsHandler) AddCC(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CCRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	cc, err := h.service.AddCC(c.UserContext(), user, c.Params("id"), service.CCInput{
		UserID:    req.UserID,
		Email:     req.Email,
		CanView:   req.CanView,
		CanUpdate: req.CanUpdate,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ccResponse(*cc)})
}

// RemoveCC DELETE /staff/tickets/:id/cc/:ccID.
func (h *TicketsHandler) RemoveCC(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.service.RemoveCC(c.UserContext(), user, c.Params("id"), c.Params("ccID")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// AddDependency POST /staff/tickets/:id/dependencies.
func (h *TicketsHandler) AddDependency(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.DependencyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.DependsOnID == "" {
		return apperrors.NewValidationError("depends_on_id required", nil)
	}
	dep, err := h.service.AddDependency(c.UserContext(), user, c.Params("id"), req.DependsOnID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.DependencyResponse{ID: dep.ID, DependsOnID: dep.DependsOnID}})
}

// RemoveDependency DELETE /staff/tickets/:id/dependencies/:dependencyID.
func (h *TicketsHandler) RemoveDependency(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.service.RemoveDependency(c.UserContext(), user, c.Params("id"), c.Params("dependencyID")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ticketFilter builds the list filter. A saved_query parameter, or the user's
// default saved search when no filter is given, replaces the query filters.
func (h *TicketsHandler) ticketFilter(c *fiber.Ctx, user *domain.User) (repository.TicketFilter, error) {
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)

	savedID := c.Query("saved_query")
	if savedID == "" && !hasFilterParams(c) && user.Settings.DefaultTicketSavedQuery != nil {
		savedID = *user.Settings.DefaultTicketSavedQuery
	}

	var filter repository.TicketFilter
	if savedID != "" {
		saved, err := h.searches.Filter(c.UserContext(), user, savedID)
		if err != nil {
			return filter, err
		}
		filter = saved
	} else {
		parsed, err := parseTicketQuery(c)
		if err != nil {
			return filter, err
		}
		filter = parsed
	}
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter, nil
}

func parseTicketQuery(c *fiber.Ctx) (repository.TicketFilter, error) {
	filter := repository.TicketFilter{}
	if queues := splitList(c.Query("queue")); len(queues) > 0 {
		filter.QueueIDs = queues
	}
	for _, part := range splitList(c.Query("status")) {
		n, err := strconv.Atoi(part)
		if err != nil || !domain.TicketStatus(n).Valid() {
			return filter, apperrors.NewValidationError("invalid status", map[string]any{"status": part})
		}
		filter.Statuses = append(filter.Statuses, domain.TicketStatus(n))
	}
	for _, part := range splitList(c.Query("priority")) {
		n, err := strconv.Atoi(part)
		if err != nil || !domain.TicketPriority(n).Valid() {
			return filter, apperrors.NewValidationError("invalid priority", map[string]any{"priority": part})
		}
		filter.Priorities = append(filter.Priorities, domain.TicketPriority(n))
	}
	if assignee := c.Query("assigned_to"); assignee != "" {
		filter.AssigneeID = &assignee
	}
	filter.Unassigned = c.QueryBool("unassigned", false)
	if term := strings.TrimSpace(c.Query("q")); term != "" {
		filter.SearchTerm = &term
	}
	filter.CreatedFrom = parseTime(c.Query("created_from"))
	filter.CreatedTo = parseTime(c.Query("created_to"))
	return filter, nil
}

var filterParams = []string{"queue", "status", "priority", "assigned_to", "unassigned", "q", "created_from", "created_to"}

func hasFilterParams(c *fiber.Ctx) bool {
	for _, key := range filterParams {
		if c.Query(key) != "" {
			return true
		}
	}
	return false
}

func splitList(val string) []string {
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseTime accepts RFC3339 timestamps or bare dates.
func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		if t, err = time.Parse(domain.DueDateLayout, val); err != nil {
			return nil
		}
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
