package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// TrackingHandler records time and money spent on tickets.
type TrackingHandler struct {
	tracking *service.TrackingService
}

// NewTrackingHandler constructs handler.
func NewTrackingHandler(tracking *service.TrackingService) *TrackingHandler {
	return &TrackingHandler{tracking: tracking}
}

func timeInput(req dto.TimeTrackRequest) service.TimeTrackInput {
	input := service.TimeTrackInput{
		Duration:    time.Duration(req.DurationMinutes) * time.Minute,
		Description: req.Description,
	}
	if req.TrackedAt != nil {
		input.TrackedAt = *req.TrackedAt
	}
	return input
}

func moneyInput(req dto.MoneyTrackRequest) service.MoneyTrackInput {
	input := service.MoneyTrackInput{AmountCents: req.AmountCents, Description: req.Description}
	if req.TrackedAt != nil {
		input.TrackedAt = *req.TrackedAt
	}
	return input
}

// AddTime POST /staff/tickets/:id/time.
func (h *TrackingHandler) AddTime(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.TimeTrackRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	track, err := h.tracking.AddTime(c.UserContext(), user, c.Params("id"), timeInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": timeTrackResponse(track)})
}

// UpdateTime PUT /staff/tickets/:id/time/:trackID.
func (h *TrackingHandler) UpdateTime(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.TimeTrackRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	track, err := h.tracking.UpdateTime(c.UserContext(), user, c.Params("id"), c.Params("trackID"), timeInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": timeTrackResponse(track)})
}

// DeleteTime DELETE /staff/tickets/:id/time/:trackID.
func (h *TrackingHandler) DeleteTime(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.tracking.DeleteTime(c.UserContext(), user, c.Params("id"), c.Params("trackID")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// AddMoney POST /staff/tickets/:id/money.
func (h *TrackingHandler) AddMoney(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.MoneyTrackRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	track, err := h.tracking.AddMoney(c.UserContext(), user, c.Params("id"), moneyInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": moneyTrackResponse(track)})
}

// UpdateMoney PUT /staff/tickets/:id/money/:trackID.
func (h *TrackingHandler) UpdateMoney(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.MoneyTrackRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	track, err := h.tracking.UpdateMoney(c.UserContext(), user, c.Params("id"), c.Params("trackID"), moneyInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": moneyTrackResponse(track)})
}

// DeleteMoney DELETE /staff/tickets/:id/money/:trackID.
func (h *TrackingHandler) DeleteMoney(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.tracking.DeleteMoney(c.UserContext(), user, c.Params("id"), c.Params("trackID")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
