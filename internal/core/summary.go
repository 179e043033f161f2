package core

import "github.com/shopspring/decimal"

// GroupAmount is an amount aggregated under a group name (category or mode).
type GroupAmount struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// DayAmount is the expense total of one day.
type DayAmount struct {
	Date   Date            `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// Summary is the aggregate view of a set of transactions. It is derived, never persisted.
type Summary struct {
	TotalIncome  decimal.Decimal `json:"total_income"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	NetBalance   decimal.Decimal `json:"net_balance"`
	ByCategory   []GroupAmount   `json:"by_category"`
	ByMode       []GroupAmount   `json:"by_mode"`
	DailyTrend   []DayAmount     `json:"daily_trend"`
}
