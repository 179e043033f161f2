package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

const (
	maxBodyBytes      = 64 << 10
	maxAmountExponent = 18
)

// amountInput accepts an amount as a JSON number or as a decimal string,
// including the comma separator.
type amountInput string

func (a *amountInput) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*a = amountInput(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("amount must be a number or a decimal string")
	}
	*a = amountInput(n.String())
	// JSON numbers may use exponent notation; spell them out so the amount
	// parser sees plain digits. Absurd exponents are left for it to reject.
	if d, err := decimal.NewFromString(n.String()); err == nil &&
		d.Exponent() >= -maxAmountExponent && d.Exponent() <= maxAmountExponent {
		*a = amountInput(d.String())
	}
	return nil
}

type createTransactionRequest struct {
	Date        string      `json:"date" validate:"required,datetime=2006-01-02"`
	Type        string      `json:"type" validate:"required,oneof=Income Expense"`
	Category    string      `json:"category" validate:"required,max=64"`
	Description string      `json:"description" validate:"max=500"`
	Mode        string      `json:"mode" validate:"required,oneof=Cash Card UPI"`
	Amount      amountInput `json:"amount" validate:"required"`
}

type deleteRequest struct {
	Indices []int `json:"indices"`
}

// candidate converts a validated request into the ledger's input. Amounts
// that do not parse are reported against the amount field.
func (req createTransactionRequest) candidate() (core.Candidate, error) {
	day, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return core.Candidate{}, &core.ValidationError{Field: "date", Err: core.ErrInvalidDate}
	}
	amount, err := core.ParseAmount(string(req.Amount))
	if err != nil {
		return core.Candidate{}, &core.ValidationError{Field: "amount", Err: err}
	}
	return core.Candidate{
		Date:        day,
		Type:        req.Type,
		Category:    sanitizeInput(req.Category),
		Description: sanitizeInput(req.Description),
		Mode:        req.Mode,
		Amount:      amount,
	}, nil
}

// decodeJSON reads a single JSON object from the body, rejecting unknown
// fields and bodies over maxBodyBytes.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("malformed request body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("malformed request body: trailing data")
	}
	return nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fieldErrors flattens validator failures into field -> message.
func fieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"request": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			out[fe.Field()] = "is required"
		case "oneof":
			out[fe.Field()] = "must be one of " + fe.Param()
		case "datetime":
			out[fe.Field()] = "must be a date formatted YYYY-MM-DD"
		case "max":
			out[fe.Field()] = "must be at most " + fe.Param() + " characters"
		default:
			out[fe.Field()] = "is invalid"
		}
	}
	return out
}

// parseDateParam reads an optional YYYY-MM-DD query parameter.
func parseDateParam(r *http.Request, name string) (core.Date, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return core.Date{}, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return core.Date{}, fmt.Errorf("%s: %w", name, core.ErrInvalidDate)
	}
	return core.DateOf(t), nil
}

// partitionParam reads the {key} path value and rejects keys the ledger's
// partition mode does not use.
func (s *Server) partitionParam(r *http.Request) (core.PartitionKey, error) {
	key, err := core.ParsePartitionKey(r.PathValue("key"))
	if err != nil {
		return "", err
	}
	if err := s.ledger.CheckPeriod(key); err != nil {
		return "", err
	}
	return key, nil
}

// sanitizeInput drops control characters other than tab and newlines and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
