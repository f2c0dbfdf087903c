// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"github.com/labstack/echo/v4"
)

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// SessionHandler handles chat session operations
type SessionHandler interface {
	HandleListSurfaces(c echo.Context) error
	HandleCreateSession(c echo.Context) error
	HandleGetSession(c echo.Context) error
	HandleDeleteSession(c echo.Context) error
	HandleSendMessage(c echo.Context) error
	HandleGetMessages(c echo.Context) error
	HandleGetMessagesMsgpack(c echo.Context) error
	HandleUploadFiles(c echo.Context) error
	HandleCreateProject(c echo.Context) error
	HandleAttachProject(c echo.Context) error
}

// FileHandler handles tracked file operations
type FileHandler interface {
	HandleGetFile(c echo.Context) error
	HandleDeleteFile(c echo.Context) error
	HandleFileProgressStream(c echo.Context) error
}

// ProjectHandler handles project persistence operations
type ProjectHandler interface {
	HandleListProjects(c echo.Context) error
	HandleSaveProject(c echo.Context) error
	HandleGetProject(c echo.Context) error
	HandleUpdateProject(c echo.Context) error
	HandleDeleteProject(c echo.Context) error
}

// ExportHandler handles report export operations
type ExportHandler interface {
	HandleListExportOptions(c echo.Context) error
	HandlePreviewExport(c echo.Context) error
	HandleStartExport(c echo.Context) error
	HandleGetExport(c echo.Context) error
}

// ComplianceHandler handles the compliance overview
type ComplianceHandler interface {
	HandleComplianceOverview(c echo.Context) error
	HandleComplianceDetails(c echo.Context) error
	HandleListIssues(c echo.Context) error
	HandleSearchBuildingCodes(c echo.Context) error
}

// ProgressSocketHandler streams tracker events over a WebSocket
type ProgressSocketHandler interface {
	HandleProgressSocket(c echo.Context) error
}
