package graph

import "strings"

// Category is one step of the standard construction sequence. Phases are
// assigned to a category when their name contains one of its keywords.
// Categories sharing an Order run in parallel (plumbing and electrical).
type Category struct {
	Name     string
	Order    int
	Keywords []string
}

// Categories is an ordered category table. Match consults it in slice
// order, so more specific categories should come first.
type Categories []Category

// DefaultCategories returns the Foundation → Skeleton → Systems → Finishes
// sequence used on residential projects, with Hebrew site vocabulary.
func DefaultCategories() Categories {
	return Categories{
		{Name: "Foundation", Order: 0, Keywords: []string{"foundation", "excavation", "earthwork", "יסודות", "חפירה"}},
		{Name: "Skeleton", Order: 1, Keywords: []string{"skeleton", "frame", "structure", "שלד"}},
		{Name: "Plumbing", Order: 2, Keywords: []string{"plumbing", "אינסטלציה"}},
		{Name: "Electrical", Order: 2, Keywords: []string{"electrical", "electric", "חשמל"}},
		{Name: "Finishes", Order: 3, Keywords: []string{"finish", "גמר"}},
	}
}

// Match returns the first category with a keyword contained in name,
// compared case-insensitively.
func (c Categories) Match(name string) (Category, bool) {
	lower := strings.ToLower(name)
	for _, cat := range c {
		for _, kw := range cat.Keywords {
			if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
				return cat, true
			}
		}
	}
	return Category{}, false
}
