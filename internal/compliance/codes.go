package compliance

import "strings"

// CodeSection is one searchable building code excerpt.
type CodeSection struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Code        string `json:"code"`
	Section     string `json:"section"`
	Content     string `json:"content"`
	Relevance   int    `json:"relevance"`
	Category    string `json:"category"`
	LastUpdated string `json:"lastUpdated"`
}

var codeSections = []CodeSection{
	{
		ID:      "1",
		Title:   "HVAC System Requirements",
		Code:    "IBC 2021",
		Section: "Section 1203.3",
		Content: "Mechanical ventilation systems shall be designed to have the capacity to supply the minimum " +
			"quantity of outdoor air as determined in accordance with Section 1203.4 and the International Mechanical Code.",
		Relevance:   95,
		Category:    "Mechanical",
		LastUpdated: "2021-01-01",
	},
	{
		ID:      "2",
		Title:   "Electrical Panel Clearances",
		Code:    "NEC 2020",
		Section: "Article 110.26",
		Content: "Working space for equipment operating at 600 volts, nominal, or less to ground and likely to " +
			"require examination, adjustment, servicing, or maintenance while energized shall comply with the " +
			"dimensions of Table 110.26(A)(1) or Table 110.26(A)(2).",
		Relevance:   88,
		Category:    "Electrical",
		LastUpdated: "2020-01-01",
	},
	{
		ID:      "3",
		Title:   "Plumbing Fixture Requirements",
		Code:    "IPC 2021",
		Section: "Section 403.1",
		Content: "Plumbing fixtures shall conform to the applicable standards referenced in this code. Plumbing " +
			"fixtures shall be constructed of dense, durable, nonabsorbent materials, shall have smooth surfaces, " +
			"shall be free from concealed fouling surfaces and shall be of such form and design as to facilitate cleaning.",
		Relevance:   82,
		Category:    "Plumbing",
		LastUpdated: "2021-01-01",
	},
	{
		ID:      "4",
		Title:   "Fire Safety Systems",
		Code:    "NFPA 13",
		Section: "Section 8.15.1",
		Content: "Automatic sprinkler systems shall be hydraulically designed and shall be capable of delivering " +
			"the densities and quantities of water specified in this standard over the areas specified herein.",
		Relevance:   79,
		Category:    "Fire Safety",
		LastUpdated: "2022-01-01",
	},
}

// SearchCodes returns the sections whose title, content or category contains
// query, ignoring case, most relevant first. A blank query matches nothing.
func SearchCodes(query string) []CodeSection {
	q := strings.ToLower(strings.TrimSpace(query))
	results := []CodeSection{}
	if q == "" {
		return results
	}
	for _, s := range codeSections {
		if strings.Contains(strings.ToLower(s.Title), q) ||
			strings.Contains(strings.ToLower(s.Content), q) ||
			strings.Contains(strings.ToLower(s.Category), q) {
			results = append(results, s)
		}
	}
	return results
}
