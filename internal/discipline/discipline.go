// Package discipline maps file names to engineering discipline and building
// code category labels.
package discipline

import "strings"

// Labels returned by Classify.
const (
	HVAC       = "HVAC"
	Electrical = "Electrical"
	Mechanical = "Mechanical"
	Structural = "Structural"
	General    = "General"
)

type rule struct {
	label    string
	keywords []string
}

// Order matters: a name matching several rows takes the first one.
var disciplineRules = []rule{
	{HVAC, []string{"hvac", "heating", "ventilation"}},
	{Electrical, []string{"electrical", "power", "lighting"}},
	{Mechanical, []string{"mechanical", "plumbing", "piping"}},
	{Structural, []string{"structural", "foundation", "beam"}},
}

var documentRules = []rule{
	{"Building", []string{"ibc", "building"}},
	{"Electrical", []string{"nec", "electrical"}},
	{"Mechanical", []string{"imc", "mechanical"}},
	{"Plumbing", []string{"ipc", "plumbing"}},
	{"Fire Safety", []string{"nfpa", "fire"}},
}

// Classify returns the discipline label for a CAD file name.
func Classify(filename string) string {
	return match(disciplineRules, filename)
}

// DocumentCategory returns the code family label for a building code document.
func DocumentCategory(filename string) string {
	return match(documentRules, filename)
}

// Known reports whether label is one of the discipline labels, General included.
func Known(label string) bool {
	if label == General {
		return true
	}
	for _, r := range disciplineRules {
		if r.label == label {
			return true
		}
	}
	return false
}

func match(rules []rule, filename string) string {
	name := strings.ToLower(filename)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(name, kw) {
				return r.label
			}
		}
	}
	return General
}
