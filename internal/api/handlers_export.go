// handlers_export.go - Report export handlers
package api

import (
	"net/http"

	"github.com/design-review/backend/internal/export"
	"github.com/labstack/echo/v4"
)

// ExportHandlerImpl implements the ExportHandler interface
type ExportHandlerImpl struct {
	exports *export.Service
}

// NewExportHandler creates a new export handler
func NewExportHandler(exports *export.Service) ExportHandler {
	return &ExportHandlerImpl{exports: exports}
}

// HandleListExportOptions returns the known formats and sections
func (h *ExportHandlerImpl) HandleListExportOptions(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"formats":  export.Formats,
		"sections": export.Sections,
	})
}

// HandlePreviewExport estimates the report a request would produce
func (h *ExportHandlerImpl) HandlePreviewExport(c echo.Context) error {
	var req export.Request
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	preview, err := export.BuildPreview(req)
	if err != nil {
		return fromDomainError(err, "export", "")
	}
	return c.JSON(http.StatusOK, preview)
}

// HandleStartExport starts generating a report
func (h *ExportHandlerImpl) HandleStartExport(c echo.Context) error {
	var req export.Request
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	job, err := h.exports.Start(req)
	if err != nil {
		return fromDomainError(err, "export", "")
	}
	return c.JSON(http.StatusAccepted, job)
}

// HandleGetExport returns an export job with live progress
func (h *ExportHandlerImpl) HandleGetExport(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	job, err := h.exports.Get(id)
	if err != nil {
		return fromDomainError(err, "export", id)
	}
	return c.JSON(http.StatusOK, job)
}
