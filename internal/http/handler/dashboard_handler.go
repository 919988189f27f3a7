package handler

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/rahmatrdn/go-sql-dashboard/entity"
	"github.com/rahmatrdn/go-sql-dashboard/internal/helper"
	"github.com/rahmatrdn/go-sql-dashboard/internal/repository/lakehouse"
	"github.com/rahmatrdn/go-sql-dashboard/internal/usecase"
)

type DashboardHandler struct {
	dashboardUsecase usecase.DashboardUsecase
	validator        *helper.Validator
	log              *zap.Logger
}

func NewDashboardHandler(dashboardUsecase usecase.DashboardUsecase, validator *helper.Validator, log *zap.Logger) *DashboardHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &DashboardHandler{
		dashboardUsecase: dashboardUsecase,
		validator:        validator,
		log:              log,
	}
}

func (h *DashboardHandler) Register(app fiber.Router) {
	app.Get("/", func(c *fiber.Ctx) error { return c.Redirect("/workspaces") })
	app.Get("/workspaces", h.ListWorkspaces)

	group := app.Group("/workspaces/:workspace")
	group.Get("/facets", h.GetFacets)
	group.Get("/dashboard", h.GetDashboard)
	group.Get("/dashboard/export/:section", h.ExportSection)
}

func wantsJSON(c *fiber.Ctx) bool {
	return c.Query("format") == "json" || c.Get("Accept") == "application/json"
}

func (h *DashboardHandler) ListWorkspaces(c *fiber.Ctx) error {
	workspaces := h.dashboardUsecase.Workspaces()
	if wantsJSON(c) {
		return c.JSON(fiber.Map{"data": workspaces})
	}
	return c.Render("dashboard/workspaces", fiber.Map{
		"Workspaces": workspaces,
		"Workspace":  "",
		"ActiveMenu": "workspaces",
	}, "layouts/main")
}

func (h *DashboardHandler) GetFacets(c *fiber.Ctx) error {
	facets, err := h.dashboardUsecase.Facets(c.UserContext(), c.Params("workspace"))
	if err != nil {
		return h.sendError(c, err)
	}
	return c.JSON(fiber.Map{"data": facets})
}

// parseRequest reads the dashboard selections over the configured defaults.
func (h *DashboardHandler) parseRequest(c *fiber.Ctx) (entity.DashboardRequest, error) {
	req := h.dashboardUsecase.DefaultRequest()
	if err := c.QueryParser(&req); err != nil {
		return req, fiber.NewError(fiber.StatusBadRequest, "Invalid query parameters: "+err.Error())
	}
	if err := h.validator.Struct(req); err != nil {
		return req, err
	}
	return req, nil
}

func (h *DashboardHandler) GetDashboard(c *fiber.Ctx) error {
	workspace := c.Params("workspace")

	req, err := h.parseRequest(c)
	if err != nil {
		return h.sendError(c, err)
	}

	dashboard, err := h.dashboardUsecase.Analyze(c.UserContext(), workspace, req)
	if err != nil {
		return h.sendError(c, err)
	}

	if wantsJSON(c) {
		return c.JSON(fiber.Map{"data": dashboard})
	}

	// Marshaling dashboard to JSON for the charts
	dashboardJSON, _ := json.Marshal(dashboard)

	return c.Render("dashboard/index", fiber.Map{
		"Dashboard":     dashboard,
		"DashboardJSON": string(dashboardJSON),
		"Request":       req,
		"Workspace":     workspace,
		"Workspaces":    h.dashboardUsecase.Workspaces(),
		"Sections":      entity.Sections,
		"ExportLinks":   exportLinks(workspace, string(c.Request().URI().QueryString())),
		"ActiveMenu":    "dashboard",
	}, "layouts/main")
}

// exportLinks points every section's CSV export at the same selections as
// the rendered page.
func exportLinks(workspace, rawQuery string) map[string]template.URL {
	links := make(map[string]template.URL, len(entity.Sections))
	for _, s := range entity.Sections {
		link := "/workspaces/" + url.PathEscape(workspace) + "/dashboard/export/" + s
		if rawQuery != "" {
			link += "?" + rawQuery
		}
		links[s] = template.URL(link)
	}
	return links
}

// sendError maps usecase and repository errors onto HTTP statuses.
func (h *DashboardHandler) sendError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	body := fiber.Map{"error": err.Error()}

	var verr *helper.ValidationError
	var ferr *fiber.Error
	switch {
	case errors.As(err, &verr):
		status = fiber.StatusBadRequest
		body["fields"] = verr.Fields
	case errors.As(err, &ferr):
		status = ferr.Code
	case errors.Is(err, usecase.ErrInvalidRequest):
		status = fiber.StatusBadRequest
	case errors.Is(err, lakehouse.ErrConnectionUnavailable):
		status = fiber.StatusServiceUnavailable
		body["remediation"] = lakehouse.Remediation
	}

	if status >= fiber.StatusInternalServerError {
		h.log.Error("dashboard request failed",
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Error(err))
	}

	if wantsJSON(c) {
		return c.Status(status).JSON(body)
	}
	msg := err.Error()
	if r, ok := body["remediation"].(string); ok {
		msg += "\n" + r
	}
	return c.Status(status).SendString(msg)
}
