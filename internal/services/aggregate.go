package services

import (
	"sort"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

// Report is a filtered summary of one partition, with the selector options
// the UI needs to refine it.
type Report struct {
	Key        core.PartitionKey `json:"partition"`
	Criteria   Criteria          `json:"criteria"`
	Categories []string          `json:"categories"`
	MinDate    core.Date         `json:"min_date"`
	MaxDate    core.Date         `json:"max_date"`
	Count      int               `json:"count"`
	Summary    core.Summary      `json:"summary"`
	Warning    string            `json:"warning,omitempty"`
}

// Aggregate totals income and expense and breaks expenses down by category,
// payment mode and day. Groups are sorted by amount descending, then name;
// days chronologically.
func Aggregate(records []core.Transaction) core.Summary {
	sum := core.Summary{
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
		ByCategory:   []core.GroupAmount{},
		ByMode:       []core.GroupAmount{},
		DailyTrend:   []core.DayAmount{},
	}
	byCategory := map[string]decimal.Decimal{}
	byMode := map[string]decimal.Decimal{}
	byDay := map[core.Date]decimal.Decimal{}

	for _, r := range records {
		switch r.Type {
		case core.Income:
			sum.TotalIncome = sum.TotalIncome.Add(r.Amount)
		case core.Expense:
			sum.TotalExpense = sum.TotalExpense.Add(r.Amount)
			byCategory[r.Category] = byCategory[r.Category].Add(r.Amount)
			byMode[string(r.Mode)] = byMode[string(r.Mode)].Add(r.Amount)
			byDay[r.Date] = byDay[r.Date].Add(r.Amount)
		}
	}
	sum.NetBalance = sum.TotalIncome.Sub(sum.TotalExpense)
	sum.ByCategory = sortedGroups(byCategory)
	sum.ByMode = sortedGroups(byMode)

	for d, amt := range byDay {
		sum.DailyTrend = append(sum.DailyTrend, core.DayAmount{Date: d, Amount: amt})
	}
	sort.Slice(sum.DailyTrend, func(i, j int) bool {
		return sum.DailyTrend[i].Date.Before(sum.DailyTrend[j].Date.Time)
	})
	return sum
}

func sortedGroups(m map[string]decimal.Decimal) []core.GroupAmount {
	out := make([]core.GroupAmount, 0, len(m))
	for name, amt := range m {
		out = append(out, core.GroupAmount{Name: name, Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}
