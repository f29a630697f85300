package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// SearchesHandler manages saved ticket searches.
type SearchesHandler struct {
	searches *service.SavedSearchService
}

// NewSearchesHandler constructs handler.
func NewSearchesHandler(searches *service.SavedSearchService) *SearchesHandler {
	return &SearchesHandler{searches: searches}
}

// List GET /staff/searches.
func (h *SearchesHandler) List(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	searches, err := h.searches.List(c.UserContext(), user)
	if err != nil {
		return err
	}
	items := make([]dto.SavedSearchResponse, 0, len(searches))
	for i := range searches {
		items = append(items, savedSearchResponse(&searches[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Create POST /staff/searches.
func (h *SearchesHandler) Create(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.SavedSearchRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	search, err := h.searches.Add(c.UserContext(), user, service.SavedSearchInput{Title: req.Title, Shared: req.Shared, Query: req.Query})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": savedSearchResponse(search)})
}

// Delete DELETE /staff/searches/:id.
func (h *SearchesHandler) Delete(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.searches.Delete(c.UserContext(), user, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ToggleShared POST /staff/searches/:id/share.
func (h *SearchesHandler) ToggleShared(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	search, err := h.searches.ToggleShared(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": savedSearchResponse(search)})
}

// SetDefault POST /staff/searches/:id/default. An id of "0" clears the default.
func (h *SearchesHandler) SetDefault(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	updated, err := h.searches.SetDefault(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(updated)})
}
