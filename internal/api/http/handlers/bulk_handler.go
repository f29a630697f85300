package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/bulk"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// BulkHandler runs actions over many tickets at once.
type BulkHandler struct {
	coordinator *bulk.Coordinator
}

// NewBulkHandler constructs handler.
func NewBulkHandler(coordinator *bulk.Coordinator) *BulkHandler {
	return &BulkHandler{coordinator: coordinator}
}

// Assign POST /staff/tickets/bulk/assign.
func (h *BulkHandler) Assign(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.BulkAssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	out, err := h.coordinator.Assign(c.UserContext(), user, req.TicketIDs, req.AssigneeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": out})
}

// Close POST /staff/tickets/bulk/close.
func (h *BulkHandler) Close(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.BulkCloseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	out, err := h.coordinator.Close(c.UserContext(), user, req.TicketIDs, req.Notify)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": out})
}

// Delete POST /staff/tickets/bulk/delete.
func (h *BulkHandler) Delete(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.BulkDeleteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	out, err := h.coordinator.Delete(c.UserContext(), user, req.TicketIDs)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": out})
}
