package models

import "time"

// ProjectStatus represents the review state of a project.
type ProjectStatus string

const (
	ProjectStatusInProgress    ProjectStatus = "In Progress"
	ProjectStatusPendingReview ProjectStatus = "Pending Review"
	ProjectStatusCompleted     ProjectStatus = "Completed"
)

// Project is the one durable record. Field names match the JSON layout the
// dashboard front-end already stores.
type Project struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Type         string        `json:"type"`
	Status       ProjectStatus `json:"status"`
	Progress     int           `json:"progress"`
	LastActivity string        `json:"lastActivity"`
	Compliance   int           `json:"compliance"`
	TotalChecks  int           `json:"totalChecks"`
	CreatedAt    time.Time     `json:"createdAt"`
	Files        []string      `json:"files"`
	Discipline   string        `json:"discipline"`
	Description  string        `json:"description,omitempty"`
	Version      int           `json:"version,omitempty"`
	UpdatedAt    *time.Time    `json:"updatedAt,omitempty"`
}

// ValidProjectStatus reports whether s is a known project status.
func ValidProjectStatus(s ProjectStatus) bool {
	switch s {
	case ProjectStatusInProgress, ProjectStatusPendingReview, ProjectStatusCompleted:
		return true
	}
	return false
}
