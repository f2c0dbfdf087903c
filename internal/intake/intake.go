// Package intake filters dropped or selected files by extension and size
// before they enter the upload tracker.
package intake

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/design-review/backend/internal/discipline"
	"github.com/design-review/backend/internal/models"
	"github.com/google/uuid"
)

const megabyte = 1024 * 1024

// Profile describes what a surface accepts.
type Profile struct {
	Name        string
	Extensions  []string // lower-case, with leading dot
	MaxSize     int64    // bytes, inclusive
	DefaultType string
	Rejection   string
}

// Built-in profiles.
var (
	CAD = Profile{
		Name:        "cad",
		Extensions:  []string{".dxf"},
		MaxSize:     100 * megabyte,
		DefaultType: "application/dxf",
		Rejection:   "Please upload only DXF files under 100MB.",
	}
	BuildingCode = Profile{
		Name:        "building-code",
		Extensions:  []string{".pdf", ".doc", ".docx"},
		MaxSize:     50 * megabyte,
		DefaultType: "application/octet-stream",
		Rejection:   "Please upload only PDF or Word documents under 50MB.",
	}
)

// ProfileByName returns a built-in profile.
func ProfileByName(name string) (Profile, error) {
	switch name {
	case CAD.Name:
		return CAD, nil
	case BuildingCode.Name:
		return BuildingCode, nil
	}
	return Profile{}, fmt.Errorf("unknown intake profile: %s", name)
}

// Allows reports whether a single file passes the extension and size checks.
func (p Profile) Allows(f models.FileHandle) bool {
	if f.Size < 0 || f.Size > p.MaxSize {
		return false
	}
	ext := strings.ToLower(filepath.Ext(f.Name))
	for _, allowed := range p.Extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// Accept splits a batch into tracked files ready for upload and the number of
// files rejected. Rejected files are not reported individually.
func (p Profile) Accept(files []models.FileHandle) ([]models.TrackedFile, int) {
	now := time.Now()
	accepted := make([]models.TrackedFile, 0, len(files))
	for _, f := range files {
		if !p.Allows(f) {
			continue
		}
		typ := f.Type
		if typ == "" {
			typ = p.DefaultType
		}
		accepted = append(accepted, models.TrackedFile{
			ID:         uuid.New().String(),
			Name:       f.Name,
			Size:       f.Size,
			Type:       typ,
			Status:     models.FileStatusUploading,
			Progress:   0,
			Discipline: discipline.Classify(f.Name),
			CreatedAt:  now,
		})
	}
	return accepted, len(files) - len(accepted)
}

// RejectionMessage is the text posted when a batch has no acceptable files.
func (p Profile) RejectionMessage() string {
	return p.Rejection
}
