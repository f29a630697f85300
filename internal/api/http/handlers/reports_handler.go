package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/service"
)

// ReportsHandler serves ticket statistics.
type ReportsHandler struct {
	reports *service.ReportService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reports *service.ReportService) *ReportsHandler {
	return &ReportsHandler{reports: reports}
}

// Index GET /staff/reports.
func (h *ReportsHandler) Index(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	stats, err := h.reports.BasicStats(c.UserContext(), user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"reports": service.ReportNames,
		"stats":   stats,
	}})
}

// Basic GET /staff/reports/basic.
func (h *ReportsHandler) Basic(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	stats, err := h.reports.BasicStats(c.UserContext(), user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}

// Run GET /staff/reports/:name?saved_query=id.
func (h *ReportsHandler) Run(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	report, err := h.reports.RunReport(c.UserContext(), user, c.Params("name"), c.Query("saved_query"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": report})
}
