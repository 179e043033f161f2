package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseDateRepresentations(t *testing.T) {
	want := NewDate(2024, 3, 15)
	cases := []struct {
		name string
		in   any
	}{
		{"iso", "2024-03-15"},
		{"pandas timestamp", "2024-03-15 00:00:00"},
		{"iso with time", "2024-03-15T10:11:12"},
		{"rfc3339", "2024-03-15T23:00:00+05:30"},
		{"sheet formatted", "3/15/2024"},
		{"slashes", "2024/03/15"},
		{"serial float", 45366.0},
		{"serial string", "45366"},
		{"serial json", json.Number("45366")},
		{"time", time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)},
		{"date", want},
	}
	for _, tc := range cases {
		got, err := ParseDate(tc.in)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if !got.Equal(want.Time) {
			t.Fatalf("%s: expected %s, got %s", tc.name, want, got)
		}
	}
}

func TestParseDateRejects(t *testing.T) {
	for _, in := range []any{nil, "", "yesterday", 0.0, time.Time{}, true} {
		if _, err := ParseDate(in); err == nil {
			t.Fatalf("%v: expected error", in)
		}
	}
}

func TestNormalizeRowLooseTypes(t *testing.T) {
	row := Row{
		ColDate:        "2024-03-15 00:00:00",
		ColType:        "expense",
		ColCategory:    " Groceries ",
		ColDescription: nil,
		ColMode:        "upi",
		ColAmount:      "1,250.50",
	}
	tx, err := NormalizeRow(row)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.Type != Expense || tx.Mode != UPI || tx.Category != "Groceries" || tx.Description != "" {
		t.Fatalf("unexpected transaction: %+v", tx)
	}
	if !tx.Amount.Equal(decimal.RequireFromString("1250.50")) {
		t.Fatalf("unexpected amount: %s", tx.Amount)
	}
}

func TestNormalizeRowErrors(t *testing.T) {
	base := Transaction{
		Date: NewDate(2024, 1, 2), Type: Income, Category: "Salary", Mode: Cash,
		Amount: decimal.NewFromInt(10),
	}.Row()
	for _, col := range []string{ColDate, ColType, ColMode, ColAmount} {
		r := base.Clone()
		r[col] = "???"
		if _, err := NormalizeRow(r); err == nil {
			t.Fatalf("expected error for bad %s", col)
		}
	}
}

func TestTransactionRowRoundTrip(t *testing.T) {
	tx := Transaction{
		Date:        NewDate(2024, 12, 31),
		Type:        Expense,
		Category:    "Outside Food",
		Description: "dinner",
		Mode:        Card,
		Amount:      decimal.RequireFromString("0.01"),
	}
	got, err := NormalizeRow(tx.Row())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(tx) {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, tx)
	}
}

func TestCanonicalColumn(t *testing.T) {
	if c, ok := CanonicalColumn(" amount "); !ok || c != ColAmount {
		t.Fatalf("expected Amount, got %q %v", c, ok)
	}
	if _, ok := CanonicalColumn("Notes"); ok {
		t.Fatalf("unexpected match for Notes")
	}
}

func TestPartitionKeys(t *testing.T) {
	if k := NewPartitionKey(2024, 3); k != "2024-03" {
		t.Fatalf("unexpected key %q", k)
	}
	if k := MonthKey(NewDate(2023, 11, 30)); k != "2023-11" {
		t.Fatalf("unexpected key %q", k)
	}
	for _, ok := range []string{"2024-03", "all", " 1999-12 "} {
		if _, err := ParsePartitionKey(ok); err != nil {
			t.Fatalf("%q: unexpected error %v", ok, err)
		}
	}
	for _, bad := range []string{"2024-13", "2024-3", "24-03", "2024/03", ""} {
		if _, err := ParsePartitionKey(bad); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
	y, m, ok := PartitionKey("2024-03").YearMonth()
	if !ok || y != 2024 || m != 3 {
		t.Fatalf("unexpected YearMonth %d %d %v", y, m, ok)
	}
}
