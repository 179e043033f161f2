package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ledger/internal/core"
)

func TestFilter(t *testing.T) {
	records := []core.Transaction{
		tx(1, core.Income, "Salary", core.Card, 5000),
		tx(5, core.Expense, "Rent", core.Card, 900),
		tx(10, core.Expense, "Taxi", core.UPI, 40),
		tx(15, core.Expense, "Taxi", core.Cash, 60),
	}

	tests := []struct {
		name string
		c    Criteria
		want []int
	}{
		{"no criteria", Criteria{}, []int{1, 5, 10, 15}},
		{"all category", Criteria{Category: AllCategories}, []int{1, 5, 10, 15}},
		{"inclusive range", Criteria{From: core.NewDate(2024, 3, 5), To: core.NewDate(2024, 3, 10)}, []int{5, 10}},
		{"open start", Criteria{To: core.NewDate(2024, 3, 5)}, []int{1, 5}},
		{"category", Criteria{Category: "Taxi"}, []int{10, 15}},
		{"category and range", Criteria{From: core.NewDate(2024, 3, 11), Category: "Taxi"}, []int{15}},
		{"no match", Criteria{Category: "Laundry"}, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(records, tt.c)
			days := make([]int, len(got))
			for i, r := range got {
				days[i] = r.Date.Day()
			}
			assert.Equal(t, tt.want, days)
		})
	}
}

func TestFilterIdempotent(t *testing.T) {
	records := []core.Transaction{
		tx(1, core.Income, "Salary", core.Card, 5000),
		tx(5, core.Expense, "Rent", core.Card, 900),
		tx(10, core.Expense, "Taxi", core.UPI, 40),
	}
	c := Criteria{From: core.NewDate(2024, 3, 2), Category: "Rent"}
	once := Filter(records, c)
	assert.Equal(t, once, Filter(once, c))
}

func TestCategoryOptionsAndBounds(t *testing.T) {
	records := []core.Transaction{
		tx(10, core.Expense, "Taxi", core.UPI, 40),
		tx(1, core.Income, "Salary", core.Card, 5000),
		tx(12, core.Expense, "Taxi", core.Cash, 60),
	}
	assert.Equal(t, []string{AllCategories, "Taxi", "Salary"}, CategoryOptions(records))
	assert.Equal(t, []string{AllCategories}, CategoryOptions(nil))

	first, last, ok := DateBounds(records)
	assert.True(t, ok)
	assert.Equal(t, "2024-03-01", first.String())
	assert.Equal(t, "2024-03-12", last.String())

	_, _, ok = DateBounds(nil)
	assert.False(t, ok)
}
