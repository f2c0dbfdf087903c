// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"github.com/design-review/backend/internal/chat"
	"github.com/design-review/backend/internal/export"
	"github.com/design-review/backend/internal/projects"
	"github.com/design-review/backend/internal/upload"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Sessions *chat.Manager
	Tracker  *upload.Tracker
	Projects projects.Repository
	Exports  *export.Service
	Logger   *zap.Logger
	Version  string
}

// Handlers holds all handler instances
type Handlers struct {
	Health     HealthHandler
	Session    SessionHandler
	File       FileHandler
	Project    ProjectHandler
	Export     ExportHandler
	Compliance ComplianceHandler
	Socket     ProgressSocketHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	projectHandler := NewProjectHandler(deps.Projects)
	return &Handlers{
		Health:     NewHealthHandler(deps.Version, deps.Sessions),
		Session:    NewSessionHandler(deps.Sessions),
		File:       NewFileHandler(deps.Tracker),
		Project:    projectHandler,
		Export:     NewExportHandler(deps.Exports),
		Compliance: projectHandler,
		Socket:     NewWebSocketHandler(deps.Tracker, deps.Logger),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	apiGroup := e.Group("/api")

	// Health check
	apiGroup.GET("/health", handlers.Health.HandleHealth)

	// Chat sessions
	apiGroup.GET("/surfaces", handlers.Session.HandleListSurfaces)
	apiGroup.POST("/sessions", handlers.Session.HandleCreateSession)
	apiGroup.GET("/sessions/:id", handlers.Session.HandleGetSession)
	apiGroup.DELETE("/sessions/:id", handlers.Session.HandleDeleteSession)
	apiGroup.POST("/sessions/:id/messages", handlers.Session.HandleSendMessage)
	apiGroup.GET("/sessions/:id/messages", handlers.Session.HandleGetMessages)
	apiGroup.GET("/sessions/:id/messages/msgpack", handlers.Session.HandleGetMessagesMsgpack)
	apiGroup.POST("/sessions/:id/files", handlers.Session.HandleUploadFiles)
	apiGroup.POST("/sessions/:id/projects", handlers.Session.HandleCreateProject)
	apiGroup.POST("/sessions/:id/projects/attach", handlers.Session.HandleAttachProject)

	// Tracked files
	apiGroup.GET("/files/:id", handlers.File.HandleGetFile)
	apiGroup.DELETE("/files/:id", handlers.File.HandleDeleteFile)
	apiGroup.GET("/files/:id/progress", handlers.File.HandleFileProgressStream)

	// Projects
	apiGroup.GET("/projects", handlers.Project.HandleListProjects)
	apiGroup.POST("/projects", handlers.Project.HandleSaveProject)
	apiGroup.GET("/projects/:id", handlers.Project.HandleGetProject)
	apiGroup.PATCH("/projects/:id", handlers.Project.HandleUpdateProject)
	apiGroup.DELETE("/projects/:id", handlers.Project.HandleDeleteProject)

	// Exports
	apiGroup.GET("/exports/options", handlers.Export.HandleListExportOptions)
	apiGroup.POST("/exports/preview", handlers.Export.HandlePreviewExport)
	apiGroup.POST("/exports", handlers.Export.HandleStartExport)
	apiGroup.GET("/exports/:id", handlers.Export.HandleGetExport)

	// Compliance
	apiGroup.GET("/compliance/overview", handlers.Compliance.HandleComplianceOverview)
	apiGroup.GET("/compliance/projects/:id", handlers.Compliance.HandleComplianceDetails)
	apiGroup.GET("/compliance/issues", handlers.Compliance.HandleListIssues)
	apiGroup.GET("/building-codes/search", handlers.Compliance.HandleSearchBuildingCodes)
}

// RegisterWebSocketRoutes registers WebSocket routes
func RegisterWebSocketRoutes(e *echo.Echo, handlers *Handlers) {
	e.GET("/api/ws/progress", handlers.Socket.HandleProgressSocket)
}
