package compliance

import (
	"errors"
	"fmt"
	"sort"
)

// ErrNotFound is returned for unknown detail projects.
var ErrNotFound = errors.New("compliance project not found")

// CheckStatus is the outcome of one compliance check.
type CheckStatus string

const (
	CheckPassed  CheckStatus = "passed"
	CheckFailed  CheckStatus = "failed"
	CheckPending CheckStatus = "pending"
)

// Check is a single reviewed item.
type Check struct {
	Name     string      `json:"name"`
	Status   CheckStatus `json:"status"`
	Priority string      `json:"priority"`
	Code     string      `json:"code"`
}

// DisciplineChecks groups checks by discipline. Progress is the share of
// passed checks.
type DisciplineChecks struct {
	Name     string  `json:"name"`
	Checks   []Check `json:"checks"`
	Progress int     `json:"progress"`
	Rating   Rating  `json:"rating"`
}

// ProjectDetails is the per-discipline breakdown of one project.
type ProjectDetails struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Disciplines []DisciplineChecks `json:"disciplines"`
}

// DisciplineProgress is the passed percentage of checks, 0 for none.
func DisciplineProgress(checks []Check) int {
	passed := 0
	for _, c := range checks {
		if c.Status == CheckPassed {
			passed++
		}
	}
	return Percentage(passed, len(checks))
}

var sampleDetails = map[string]ProjectDetails{
	"downtown-office": {
		ID:   "downtown-office",
		Name: "Downtown Office Complex",
		Disciplines: []DisciplineChecks{
			{Name: "HVAC Systems", Checks: []Check{
				{"Downtown Office Complex - HVAC Design", CheckPassed, "high", "Project #2024-001"},
				{"Retail Plaza - Ventilation System", CheckPassed, "high", "Project #2024-002"},
				{"Medical Center - Air Handling Units", CheckPassed, "medium", "Project #2024-003"},
				{"Warehouse Facility - HVAC Layout", CheckFailed, "medium", "Project #2024-004"},
				{"School Building - Climate Control", CheckPending, "low", "Project #2024-005"},
			}},
			{Name: "Electrical Systems", Checks: []Check{
				{"Corporate Headquarters - Electrical Design", CheckPassed, "high", "Project #2024-006"},
				{"Shopping Mall - Power Distribution", CheckPassed, "high", "Project #2024-007"},
				{"Hospital Wing - Emergency Systems", CheckFailed, "high", "Project #2024-008"},
				{"Data Center - Electrical Infrastructure", CheckPassed, "medium", "Project #2024-009"},
				{"Apartment Complex - Electrical Layout", CheckPending, "medium", "Project #2024-010"},
			}},
			{Name: "Mechanical Systems", Checks: []Check{
				{"Hotel Tower - Plumbing Systems", CheckPassed, "high", "Project #2024-011"},
				{"Restaurant Chain - Kitchen Plumbing", CheckPassed, "high", "Project #2024-012"},
				{"Office Building - Water Systems", CheckFailed, "medium", "Project #2024-013"},
				{"Manufacturing Plant - Process Piping", CheckPending, "low", "Project #2024-014"},
			}},
		},
	},
}

// DetailProjects lists the ids that have a breakdown.
func DetailProjects() []string {
	ids := make([]string, 0, len(sampleDetails))
	for id := range sampleDetails {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Details returns the breakdown of one project with progress filled in.
func Details(id string) (ProjectDetails, error) {
	d, ok := sampleDetails[id]
	if !ok {
		return ProjectDetails{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	out := ProjectDetails{ID: d.ID, Name: d.Name, Disciplines: make([]DisciplineChecks, len(d.Disciplines))}
	for i, disc := range d.Disciplines {
		disc.Checks = append([]Check(nil), disc.Checks...)
		disc.Progress = DisciplineProgress(disc.Checks)
		disc.Rating = Rate(disc.Progress)
		out.Disciplines[i] = disc
	}
	return out, nil
}
