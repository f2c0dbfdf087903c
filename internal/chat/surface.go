// Package chat holds conversation sessions for the dashboard chat surfaces.
// Every surface is the same session type configured with a different intake
// profile, progress preset and responder.
package chat

import (
	"math/rand/v2"
	"time"

	"github.com/design-review/backend/internal/intake"
	"github.com/design-review/backend/internal/models"
	"github.com/design-review/backend/internal/responder"
	"github.com/design-review/backend/internal/upload"
)

// Surface names.
const (
	SurfaceGeneralChat   = "general-chat"
	SurfaceProjectSetup  = "project-setup"
	SurfaceBuildingCodes = "building-codes"
	SurfaceFileUpload    = "file-upload"
)

// Surface configures a session.
type Surface struct {
	Name      string
	Title     string
	Profile   intake.Profile
	Preset    upload.Preset
	Responder responder.Responder // nil disables free-text chat
	Greeting  string

	ReplyDelay time.Duration
	AckDelay   time.Duration

	AllowUploads  bool
	AllowProjects bool
	// ProjectNoticeRole is who announces a created project.
	ProjectNoticeRole models.Role
}

// SurfaceInfo is the public description of a surface.
type SurfaceInfo struct {
	Name          string `json:"name"`
	Title         string `json:"title"`
	Profile       string `json:"profile"`
	Chat          bool   `json:"chat"`
	AllowUploads  bool   `json:"allowUploads"`
	AllowProjects bool   `json:"allowProjects"`
}

// Info describes the surface.
func (s Surface) Info() SurfaceInfo {
	return SurfaceInfo{
		Name:          s.Name,
		Title:         s.Title,
		Profile:       s.Profile.Name,
		Chat:          s.Responder != nil,
		AllowUploads:  s.AllowUploads,
		AllowProjects: s.AllowProjects,
	}
}

// DefaultSurfaces builds the four dashboard surfaces from a catalog. A nil
// rng uses the global source for template picks.
func DefaultSurfaces(c *responder.Catalog, rng *rand.Rand) map[string]Surface {
	surfaces := []Surface{
		{
			Name:              SurfaceGeneralChat,
			Title:             "AI Design Assistant",
			Profile:           intake.CAD,
			Preset:            upload.PresetCAD,
			Responder:         responder.NewTemplateResponder(c, rng),
			Greeting:          c.Greeting(SurfaceGeneralChat),
			ReplyDelay:        1500 * time.Millisecond,
			AckDelay:          1500 * time.Millisecond,
			AllowUploads:      true,
			AllowProjects:     true,
			ProjectNoticeRole: models.RoleSystem,
		},
		{
			Name:              SurfaceProjectSetup,
			Title:             "New Project",
			Profile:           intake.CAD,
			Preset:            upload.PresetCAD,
			Responder:         responder.NewKeywordResponder(c),
			Greeting:          c.Greeting(SurfaceProjectSetup),
			ReplyDelay:        1000 * time.Millisecond,
			AckDelay:          1500 * time.Millisecond,
			AllowUploads:      true,
			AllowProjects:     true,
			ProjectNoticeRole: models.RoleAssistant,
		},
		{
			Name:         SurfaceBuildingCodes,
			Title:        "Building Codes",
			Profile:      intake.BuildingCode,
			Preset:       upload.PresetBuildingCode,
			AllowUploads: true,
		},
		{
			Name:         SurfaceFileUpload,
			Title:        "Upload CAD Files",
			Profile:      intake.CAD,
			Preset:       upload.PresetFileUpload,
			AllowUploads: true,
		},
	}

	out := make(map[string]Surface, len(surfaces))
	for _, s := range surfaces {
		out[s.Name] = s
	}
	return out
}
