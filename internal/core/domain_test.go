package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func candidate(typ, category, mode, amount string) Candidate {
	return Candidate{
		Date:     time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC),
		Type:     typ,
		Category: category,
		Mode:     mode,
		Amount:   decimal.RequireFromString(amount),
	}
}

func TestValidateAmount(t *testing.T) {
	cases := []struct {
		amount string
		ok     bool
	}{
		{"0.01", true},
		{"5000", true},
		{"0", false},
		{"-1", false},
	}
	for _, tc := range cases {
		_, err := Validate(candidate("Expense", "Groceries", "Cash", tc.amount))
		if tc.ok && err != nil {
			t.Fatalf("amount %s expected ok, got %v", tc.amount, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("amount %s expected ErrInvalidAmount, got %v", tc.amount, err)
		}
	}
}

func TestValidateCategoryFollowsType(t *testing.T) {
	cases := []struct {
		typ, category string
		ok            bool
	}{
		{"Income", "Salary", true},
		{"Income", "Other", true},
		{"Income", "Rent", false},
		{"Expense", "Mobile Recharge", true},
		{"Expense", "Outside Food", true},
		{"Expense", "Salary", false},
		{"Expense", "", false},
	}
	for _, tc := range cases {
		_, err := Validate(candidate(tc.typ, tc.category, "UPI", "10"))
		if tc.ok && err != nil {
			t.Fatalf("%s/%s expected ok, got %v", tc.typ, tc.category, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidCategory) {
			t.Fatalf("%s/%s expected ErrInvalidCategory, got %v", tc.typ, tc.category, err)
		}
	}
}

func TestValidateRejectsUnknownEnums(t *testing.T) {
	if _, err := Validate(candidate("Transfer", "Salary", "Cash", "1")); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
	if _, err := Validate(candidate("Income", "Salary", "Cheque", "1")); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
	c := candidate("Income", "Salary", "Cash", "1")
	c.Date = time.Time{}
	if _, err := Validate(c); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestValidateNormalizesDate(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	c := candidate("Expense", "Taxi", "card", "12.5")
	c.Date = time.Date(2024, 3, 15, 23, 59, 0, 0, loc)

	tx, err := Validate(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tx.Date.Equal(NewDate(2024, 3, 15).Time) {
		t.Fatalf("date not normalized: %v", tx.Date)
	}
	if tx.Date.Location() != time.UTC || tx.Date.Hour() != 0 {
		t.Fatalf("expected UTC midnight, got %v", tx.Date.Time)
	}
	if tx.Mode != Card {
		t.Fatalf("expected mode Card, got %q", tx.Mode)
	}
}

func TestValidateIsPure(t *testing.T) {
	c := candidate("Expense", "Rent", "Card", "300")
	a, errA := Validate(c)
	b, errB := Validate(c)
	if errA != nil || errB != nil {
		t.Fatalf("unexpected errors: %v %v", errA, errB)
	}
	if !a.Equal(b) {
		t.Fatalf("same input produced different output: %+v vs %+v", a, b)
	}
	if !c.Date.Equal(time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)) {
		t.Fatalf("candidate was mutated")
	}
}

func TestValidationErrorField(t *testing.T) {
	_, err := Validate(candidate("Income", "Salary", "Cash", "0"))
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if ve.Field != "amount" {
		t.Fatalf("expected field amount, got %q", ve.Field)
	}
}

func TestCategoriesForReturnsCopy(t *testing.T) {
	cats := CategoriesFor(Expense)
	if len(cats) != 8 {
		t.Fatalf("expected 8 expense categories, got %d", len(cats))
	}
	cats[0] = "changed"
	if CategoriesFor(Expense)[0] != "Rent" {
		t.Fatalf("vocabulary was mutated through returned slice")
	}
	if CategoriesFor("bogus") != nil {
		t.Fatalf("unknown type should have no categories")
	}
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		D Date `json:"d"`
		Z Date `json:"z"`
	}{D: NewDate(2024, 3, 5)})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"d":"2024-03-05","z":null}` {
		t.Fatalf("marshal=%s", b)
	}

	var got struct {
		D Date `json:"d"`
		Z Date `json:"z"`
	}
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if got.D.String() != "2024-03-05" || !got.Z.IsZero() {
		t.Fatalf("unmarshal=%+v", got)
	}

	var bad Date
	if err := json.Unmarshal([]byte(`"05/03/2024"`), &bad); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("err=%v, want ErrInvalidDate", err)
	}
}
