// Package compliance serves the dashboard's compliance overview. The figures
// are fixed sample data; no rules are evaluated.
package compliance

import (
	"math"

	"github.com/design-review/backend/internal/models"
)

// Rating is the colour band of a compliance percentage.
type Rating string

const (
	RatingGood     Rating = "good"
	RatingWarning  Rating = "warning"
	RatingCritical Rating = "critical"
)

// Rate bands a percentage: 80 and up is good, 60 and up is a warning.
func Rate(percentage int) Rating {
	switch {
	case percentage >= 80:
		return RatingGood
	case percentage >= 60:
		return RatingWarning
	}
	return RatingCritical
}

// Percentage is round(passed/total*100), or 0 when total is 0.
func Percentage(passed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(passed) / float64(total) * 100))
}

// Totals are the portfolio-wide counters.
type Totals struct {
	TotalProjects     int `json:"totalProjects"`
	CompliantProjects int `json:"compliantProjects"`
	InReviewProjects  int `json:"inReviewProjects"`
	TotalChecks       int `json:"totalChecks"`
	PassedChecks      int `json:"passedChecks"`
	FailedChecks      int `json:"failedChecks"`
	PendingChecks     int `json:"pendingChecks"`
}

// DisciplineStats are the check counts of one discipline.
type DisciplineStats struct {
	Name       string `json:"name"`
	Total      int    `json:"total"`
	Passed     int    `json:"passed"`
	Failed     int    `json:"failed"`
	Pending    int    `json:"pending"`
	Compliance int    `json:"compliance"`
	Rating     Rating `json:"rating"`
}

// ProjectStats is the compliance of one stored project.
type ProjectStats struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Compliance int    `json:"compliance"`
	Rating     Rating `json:"rating"`
}

// Overview is the full compliance page.
type Overview struct {
	Totals      Totals            `json:"totals"`
	Overall     int               `json:"overall"`
	Rating      Rating            `json:"rating"`
	Disciplines []DisciplineStats `json:"disciplines"`
	Projects    []ProjectStats    `json:"projects"`
}

var sampleTotals = Totals{
	TotalProjects:     3,
	CompliantProjects: 1,
	InReviewProjects:  2,
	TotalChecks:       67,
	PassedChecks:      48,
	FailedChecks:      8,
	PendingChecks:     11,
}

var sampleDisciplines = []DisciplineStats{
	{Name: "HVAC Systems", Total: 22, Passed: 18, Failed: 2, Pending: 2, Compliance: 82},
	{Name: "Electrical Systems", Total: 18, Passed: 15, Failed: 1, Pending: 2, Compliance: 83},
	{Name: "Mechanical Systems", Total: 15, Passed: 8, Failed: 3, Pending: 4, Compliance: 53},
	{Name: "Structural Systems", Total: 12, Passed: 7, Failed: 2, Pending: 3, Compliance: 58},
}

// Build returns the sample overview plus a row per stored project.
func Build(projects []models.Project) Overview {
	overall := Percentage(sampleTotals.PassedChecks, sampleTotals.TotalChecks)

	disciplines := make([]DisciplineStats, len(sampleDisciplines))
	for i, d := range sampleDisciplines {
		d.Rating = Rate(d.Compliance)
		disciplines[i] = d
	}

	rows := make([]ProjectStats, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, ProjectStats{
			ID:         p.ID,
			Name:       p.Name,
			Compliance: p.Compliance,
			Rating:     Rate(p.Compliance),
		})
	}

	return Overview{
		Totals:      sampleTotals,
		Overall:     overall,
		Rating:      Rate(overall),
		Disciplines: disciplines,
		Projects:    rows,
	}
}
