// handlers_projects.go - Project persistence handlers
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/design-review/backend/internal/compliance"
	"github.com/design-review/backend/internal/models"
	"github.com/design-review/backend/internal/projects"
	"github.com/labstack/echo/v4"
)

// ProjectHandlerImpl implements the ProjectHandler and ComplianceHandler
// interfaces
type ProjectHandlerImpl struct {
	repo projects.Repository
	now  func() time.Time
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(repo projects.Repository) *ProjectHandlerImpl {
	return &ProjectHandlerImpl{repo: repo, now: time.Now}
}

// HandleListProjects returns every stored project, newest first
func (h *ProjectHandlerImpl) HandleListProjects(c echo.Context) error {
	return c.JSON(http.StatusOK, h.repo.List(c.Request().Context()))
}

// HandleSaveProject stores a project, replacing any with the same id
func (h *ProjectHandlerImpl) HandleSaveProject(c echo.Context) error {
	var req models.Project
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if req.Name == "" {
		return NewValidationError("name")
	}

	saved, err := h.repo.Save(c.Request().Context(), req)
	if err != nil {
		return fromDomainError(err, "project", req.ID)
	}
	return c.JSON(http.StatusCreated, saved)
}

// HandleGetProject returns a single project
func (h *ProjectHandlerImpl) HandleGetProject(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	p, err := h.repo.Get(c.Request().Context(), id)
	if err != nil {
		return fromDomainError(err, "project", id)
	}
	return c.JSON(http.StatusOK, p)
}

// HandleUpdateProject applies a partial update. A stale expectedVersion
// yields 409.
func (h *ProjectHandlerImpl) HandleUpdateProject(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	var patch projects.Patch
	if err := c.Bind(&patch); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	p, err := h.repo.Update(c.Request().Context(), id, patch)
	if err != nil {
		return fromDomainError(err, "project", id)
	}
	return c.JSON(http.StatusOK, p)
}

// HandleDeleteProject removes a project
func (h *ProjectHandlerImpl) HandleDeleteProject(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	if err := h.repo.Delete(c.Request().Context(), id); err != nil {
		return fromDomainError(err, "project", id)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleComplianceOverview returns the compliance page data
func (h *ProjectHandlerImpl) HandleComplianceOverview(c echo.Context) error {
	return c.JSON(http.StatusOK, compliance.Build(h.repo.List(c.Request().Context())))
}

// HandleComplianceDetails returns the per-discipline checks of one project
func (h *ProjectHandlerImpl) HandleComplianceDetails(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	d, err := compliance.Details(id)
	if err != nil {
		return fromDomainError(err, "compliance project", id)
	}
	return c.JSON(http.StatusOK, d)
}

// HandleListIssues returns compliance issues, optionally filtered by ?status=
func (h *ProjectHandlerImpl) HandleListIssues(c echo.Context) error {
	issues, err := compliance.Issues(h.now(), compliance.IssueStatus(c.QueryParam("status")))
	if err != nil {
		return fromDomainError(err, "issue", "")
	}
	return c.JSON(http.StatusOK, issues)
}

// HandleSearchBuildingCodes searches the code sections for ?q=
func (h *ProjectHandlerImpl) HandleSearchBuildingCodes(c echo.Context) error {
	q := c.QueryParam("q")
	if strings.TrimSpace(q) == "" {
		return NewValidationError("q")
	}
	return c.JSON(http.StatusOK, compliance.SearchCodes(q))
}

var (
	_ ProjectHandler    = (*ProjectHandlerImpl)(nil)
	_ ComplianceHandler = (*ProjectHandlerImpl)(nil)
)
