// Package models contains domain types for the design review backend.
package models

import "time"

// FileStatus represents the lifecycle state of a tracked file.
type FileStatus string

const (
	FileStatusUploading  FileStatus = "uploading"
	FileStatusProcessing FileStatus = "processing"
	FileStatusCompleted  FileStatus = "completed"
	FileStatusError      FileStatus = "error"
)

// Terminal reports whether no further transitions can happen.
func (s FileStatus) Terminal() bool {
	return s == FileStatusCompleted || s == FileStatusError
}

// TrackedFile is the in-memory representation of a file during its upload and
// processing lifecycle. Only metadata is kept; contents are never read.
type TrackedFile struct {
	ID          string     `json:"id" msgpack:"id"`
	Name        string     `json:"name" msgpack:"name"`
	Size        int64      `json:"size" msgpack:"size"`
	Type        string     `json:"type" msgpack:"type"`
	Status      FileStatus `json:"status" msgpack:"status"`
	Progress    float64    `json:"progress" msgpack:"progress"` // 0-100
	Discipline  string     `json:"discipline,omitempty" msgpack:"discipline,omitempty"`
	Category    string     `json:"category,omitempty" msgpack:"category,omitempty"` // building codes only
	Sections    int        `json:"sections,omitempty" msgpack:"sections,omitempty"` // building codes only
	Error       string     `json:"error,omitempty" msgpack:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt" msgpack:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty" msgpack:"completedAt,omitempty"`
}

// FileHandle is the metadata of a dropped or selected file before intake.
type FileHandle struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}
