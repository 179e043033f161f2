package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// PartitionKey names one independently stored slice of the ledger.
type PartitionKey string

// SingleKey is the only partition of a single-store ledger.
const SingleKey PartitionKey = "all"

var ErrInvalidPartition = errors.New("invalid partition key")

// NewPartitionKey returns the monthly key "YYYY-MM".
func NewPartitionKey(year, month int) PartitionKey {
	return PartitionKey(fmt.Sprintf("%04d-%02d", year, month))
}

// MonthKey returns the monthly partition a date belongs to.
func MonthKey(d Date) PartitionKey {
	return NewPartitionKey(d.Year(), int(d.Month()))
}

// ParsePartitionKey accepts SingleKey or a "YYYY-MM" monthly key.
func ParsePartitionKey(s string) (PartitionKey, error) {
	s = strings.TrimSpace(s)
	if s == string(SingleKey) {
		return SingleKey, nil
	}
	year, month, ok := splitMonthKey(s)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidPartition, s)
	}
	return NewPartitionKey(year, month), nil
}

// YearMonth returns the year and month of a monthly key.
func (k PartitionKey) YearMonth() (year, month int, ok bool) {
	return splitMonthKey(string(k))
}

func (k PartitionKey) String() string { return string(k) }

func splitMonthKey(s string) (int, int, bool) {
	if len(s) != 7 || s[4] != '-' {
		return 0, 0, false
	}
	y, err := strconv.Atoi(s[:4])
	if err != nil || y < 1 {
		return 0, 0, false
	}
	m, err := strconv.Atoi(s[5:])
	if err != nil || m < 1 || m > 12 {
		return 0, 0, false
	}
	return y, m, true
}
