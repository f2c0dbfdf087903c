package compliance

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidStatus is returned when filtering by an unknown issue status.
var ErrInvalidStatus = errors.New("unknown issue status")

// IssueStatus is where an issue is in its resolution.
type IssueStatus string

const (
	IssueOpen       IssueStatus = "open"
	IssueInProgress IssueStatus = "in-progress"
	IssueResolved   IssueStatus = "resolved"
)

// dueDateLayout is the format of Issue.DueDate. Dates are midnight UTC.
const dueDateLayout = "2006-01-02"

// Issue is a tracked compliance problem.
type Issue struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Discipline string      `json:"discipline"`
	Priority   string      `json:"priority"`
	Status     IssueStatus `json:"status"`
	Assignee   string      `json:"assignee"`
	DueDate    string      `json:"dueDate"`
	Progress   int         `json:"progress"`
	Overdue    bool        `json:"overdue"`
}

var sampleIssues = []Issue{
	{ID: "ISS-001", Title: "Emergency Lighting Battery Backup", Discipline: "Electrical", Priority: "high",
		Status: IssueOpen, Assignee: "Mike Chen", DueDate: "2024-01-15", Progress: 0},
	{ID: "ISS-002", Title: "HVAC Equipment Clearances", Discipline: "HVAC", Priority: "medium",
		Status: IssueInProgress, Assignee: "Sarah Johnson", DueDate: "2024-01-18", Progress: 65},
	{ID: "ISS-003", Title: "Water Hammer Protection", Discipline: "Mechanical", Priority: "medium",
		Status: IssueInProgress, Assignee: "David Park", DueDate: "2024-01-20", Progress: 30},
	{ID: "ISS-004", Title: "Conduit Fill Verification", Discipline: "Electrical", Priority: "low",
		Status: IssueResolved, Assignee: "Mike Chen", DueDate: "2024-01-12", Progress: 100},
}

// ValidIssueStatus reports whether s is a known issue status.
func ValidIssueStatus(s IssueStatus) bool {
	switch s {
	case IssueOpen, IssueInProgress, IssueResolved:
		return true
	}
	return false
}

// IsOverdue reports whether an unresolved issue is past its due date at now.
func IsOverdue(issue Issue, now time.Time) bool {
	if issue.Status == IssueResolved {
		return false
	}
	due, err := time.Parse(dueDateLayout, issue.DueDate)
	if err != nil {
		return false
	}
	return due.Before(now)
}

// Issues returns the tracked issues with Overdue evaluated at now. A non-empty
// status keeps only issues in that status.
func Issues(now time.Time, status IssueStatus) ([]Issue, error) {
	if status != "" && !ValidIssueStatus(status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	out := make([]Issue, 0, len(sampleIssues))
	for _, issue := range sampleIssues {
		if status != "" && issue.Status != status {
			continue
		}
		issue.Overdue = IsOverdue(issue, now)
		out = append(out, issue)
	}
	return out, nil
}
