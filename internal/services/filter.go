package services

import (
	"ledger/internal/core"
)

// AllCategories is the category option that disables category filtering.
const AllCategories = "All"

// Criteria narrows a set of transactions. Zero dates leave that side of the
// range open; an empty Category or AllCategories matches everything.
type Criteria struct {
	From     core.Date `json:"from"`
	To       core.Date `json:"to"`
	Category string    `json:"category,omitempty"`
}

// Filter keeps the records matching c, in their original order. Date bounds
// are inclusive.
func Filter(records []core.Transaction, c Criteria) []core.Transaction {
	out := make([]core.Transaction, 0, len(records))
	for _, r := range records {
		if !c.From.IsZero() && r.Date.Before(c.From.Time) {
			continue
		}
		if !c.To.IsZero() && r.Date.After(c.To.Time) {
			continue
		}
		if c.Category != "" && c.Category != AllCategories && r.Category != c.Category {
			continue
		}
		out = append(out, r)
	}
	return out
}

// CategoryOptions returns AllCategories followed by the distinct categories
// of records in first-seen order.
func CategoryOptions(records []core.Transaction) []string {
	seen := make(map[string]struct{}, len(records))
	out := []string{AllCategories}
	for _, r := range records {
		if _, ok := seen[r.Category]; ok {
			continue
		}
		seen[r.Category] = struct{}{}
		out = append(out, r.Category)
	}
	return out
}

// DateBounds returns the earliest and latest dates in records. ok is false
// for an empty slice.
func DateBounds(records []core.Transaction) (first, last core.Date, ok bool) {
	for i, r := range records {
		if i == 0 || r.Date.Before(first.Time) {
			first = r.Date
		}
		if i == 0 || r.Date.After(last.Time) {
			last = r.Date
		}
	}
	return first, last, len(records) > 0
}
