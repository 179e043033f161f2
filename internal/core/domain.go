package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TxType = "Income"
	Expense TxType = "Expense"
)

const (
	Cash Mode = "Cash"
	Card Mode = "Card"
	UPI  Mode = "UPI"
)

type (
	TxType string

	Mode string

	// Date is a calendar day stored as UTC midnight.
	Date struct {
		time.Time
	}

	Transaction struct {
		Date        Date            `json:"date"`
		Type        TxType          `json:"type"`
		Category    string          `json:"category"`
		Description string          `json:"description"`
		Mode        Mode            `json:"mode"`
		Amount      decimal.Decimal `json:"amount"`
	}

	// Candidate is an unvalidated transaction as submitted by a form.
	Candidate struct {
		Date        time.Time
		Type        string
		Category    string
		Description string
		Mode        string
		Amount      decimal.Decimal
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrInvalidMode     = errors.New("invalid payment mode")
	ErrInvalidDate     = errors.New("invalid date")
)

// ValidationError reports which field of a candidate was rejected.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

var (
	incomeCategories = []string{"Salary", "Other"}

	expenseCategories = []string{
		"Rent", "Groceries", "Laundry", "Mobile Recharge",
		"Entertainment", "Outside Food", "Taxi", "Miscellaneous",
	}
)

// CategoriesFor returns the categories allowed for t, in display order.
func CategoriesFor(t TxType) []string {
	switch t {
	case Income:
		return append([]string(nil), incomeCategories...)
	case Expense:
		return append([]string(nil), expenseCategories...)
	}
	return nil
}

// Types returns the transaction types in display order.
func Types() []TxType { return []TxType{Income, Expense} }

// Modes returns the payment modes in display order.
func Modes() []Mode { return []Mode{Cash, Card, UPI} }

// ParseTxType matches s case-insensitively against the known types.
func ParseTxType(s string) (TxType, error) {
	s = strings.TrimSpace(s)
	for _, t := range Types() {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return "", ErrInvalidType
}

// ParseMode matches s case-insensitively against the known payment modes.
func ParseMode(s string) (Mode, error) {
	s = strings.TrimSpace(s)
	for _, m := range Modes() {
		if strings.EqualFold(s, string(m)) {
			return m, nil
		}
	}
	return "", ErrInvalidMode
}

// AllowsCategory reports whether category belongs to the vocabulary of t.
func (t TxType) AllowsCategory(category string) bool {
	for _, c := range CategoriesFor(t) {
		if c == category {
			return true
		}
	}
	return false
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf drops the time of day and zone of t, keeping the calendar day as seen in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		*d = Date{}
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	*d = DateOf(t)
	return nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Validate checks a candidate and returns the canonical transaction.
// It has no side effects.
func Validate(c Candidate) (Transaction, error) {
	if c.Date.IsZero() {
		return Transaction{}, &ValidationError{Field: "date", Err: ErrInvalidDate}
	}
	typ, err := ParseTxType(c.Type)
	if err != nil {
		return Transaction{}, &ValidationError{Field: "type", Err: err}
	}
	mode, err := ParseMode(c.Mode)
	if err != nil {
		return Transaction{}, &ValidationError{Field: "mode", Err: err}
	}
	if !c.Amount.IsPositive() {
		return Transaction{}, &ValidationError{Field: "amount", Err: ErrInvalidAmount}
	}
	category := strings.TrimSpace(c.Category)
	if !typ.AllowsCategory(category) {
		return Transaction{}, &ValidationError{Field: "category", Err: ErrInvalidCategory}
	}
	return Transaction{
		Date:        DateOf(c.Date),
		Type:        typ,
		Category:    category,
		Description: strings.TrimSpace(c.Description),
		Mode:        mode,
		Amount:      c.Amount,
	}, nil
}

// Equal compares two transactions field by field, dates at day granularity.
func (t Transaction) Equal(o Transaction) bool {
	return t.Date.Equal(o.Date.Time) &&
		t.Type == o.Type &&
		t.Category == o.Category &&
		t.Description == o.Description &&
		t.Mode == o.Mode &&
		t.Amount.Equal(o.Amount)
}
