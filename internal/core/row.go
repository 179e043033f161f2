package core

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Persisted column names. The names are the contract with every backing store;
// the order is only the order new partitions are written in.
const (
	ColDate        = "Date"
	ColType        = "Type"
	ColCategory    = "Category"
	ColDescription = "Description"
	ColMode        = "Mode"
	ColAmount      = "Amount"
)

// Columns is the canonical column set in write order.
var Columns = []string{ColDate, ColType, ColCategory, ColDescription, ColMode, ColAmount}

// Row is one persisted record as read from a table: cells keyed by column
// name, with whatever types the backing store produced.
type Row map[string]any

// CanonicalColumn maps a header cell to its canonical column name.
func CanonicalColumn(header string) (string, bool) {
	h := strings.TrimSpace(header)
	for _, c := range Columns {
		if strings.EqualFold(h, c) {
			return c, true
		}
	}
	return "", false
}

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Row renders the transaction in its canonical persisted form.
func (t Transaction) Row() Row {
	return Row{
		ColDate:        t.Date.String(),
		ColType:        string(t.Type),
		ColCategory:    t.Category,
		ColDescription: t.Description,
		ColMode:        string(t.Mode),
		ColAmount:      t.Amount,
	}
}

// NormalizeRow converts a loosely-typed row into a Transaction. Stored rows
// are not re-validated against the category vocabulary.
func NormalizeRow(r Row) (Transaction, error) {
	d, err := ParseDate(r[ColDate])
	if err != nil {
		return Transaction{}, fmt.Errorf("column %s: %w", ColDate, err)
	}
	typ, err := ParseTxType(CellString(r[ColType]))
	if err != nil {
		return Transaction{}, fmt.Errorf("column %s: %w", ColType, err)
	}
	mode, err := ParseMode(CellString(r[ColMode]))
	if err != nil {
		return Transaction{}, fmt.Errorf("column %s: %w", ColMode, err)
	}
	amount, err := amountFromCell(r[ColAmount])
	if err != nil {
		return Transaction{}, fmt.Errorf("column %s: %w", ColAmount, err)
	}
	return Transaction{
		Date:        d,
		Type:        typ,
		Category:    CellString(r[ColCategory]),
		Description: CellString(r[ColDescription]),
		Mode:        mode,
		Amount:      amount,
	}, nil
}

// CellString renders a cell as trimmed text.
func CellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case fmt.Stringer:
		return strings.TrimSpace(x.String())
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006/01/02",
	"1/2/2006",
	"1/2/2006 15:04:05",
}

// spreadsheet serial day 0
var serialEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// ParseDate accepts the date representations found in stored rows: time
// values, ISO-like strings, US sheet-formatted strings and spreadsheet serial
// day numbers. The result never carries a time of day.
func ParseDate(v any) (Date, error) {
	switch x := v.(type) {
	case Date:
		if x.IsZero() {
			return Date{}, ErrInvalidDate
		}
		return DateOf(x.Time), nil
	case time.Time:
		if x.IsZero() {
			return Date{}, ErrInvalidDate
		}
		return DateOf(x), nil
	case float64:
		return fromSerial(x)
	case int:
		return fromSerial(float64(x))
	case int64:
		return fromSerial(float64(x))
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Date{}, ErrInvalidDate
		}
		return fromSerial(f)
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return Date{}, ErrInvalidDate
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return DateOf(t), nil
			}
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return fromSerial(f)
		}
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{}, fmt.Errorf("%w: unsupported cell %T", ErrInvalidDate, v)
}

func fromSerial(f float64) (Date, error) {
	if f < 1 || math.IsNaN(f) || math.IsInf(f, 0) {
		return Date{}, ErrInvalidDate
	}
	return DateOf(serialEpoch.AddDate(0, 0, int(math.Floor(f)))), nil
}
