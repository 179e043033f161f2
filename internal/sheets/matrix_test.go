package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
)

func TestRowsFromMatrixUsesHeaderNames(t *testing.T) {
	values := [][]any{
		{"amount", "Date", "Notes", "Type", "Category", "Mode"},
		{"200", "2024-03-01", "ignored", "Expense", "Groceries", "Cash"},
		{"", "", ""},
		{"5000", "2024-03-02", "", "Income", "Salary"},
	}
	rows := RowsFromMatrix(values)
	require.Len(t, rows, 2)

	assert.Equal(t, "200", rows[0][core.ColAmount])
	assert.Equal(t, "Groceries", rows[0][core.ColCategory])
	assert.NotContains(t, rows[0], "Notes")
	assert.Nil(t, rows[1][core.ColMode])
	assert.Contains(t, rows[1], core.ColMode)
}

func TestRowsFromMatrixWithoutHeader(t *testing.T) {
	values := [][]any{
		{"2024-03-01", "Expense", "Taxi", "cab", "UPI", 12.5},
	}
	rows := RowsFromMatrix(values)
	require.Len(t, rows, 1)
	tx, err := core.NormalizeRow(rows[0])
	require.NoError(t, err)
	assert.Equal(t, "cab", tx.Description)
}

func TestRowsFromMatrixEmpty(t *testing.T) {
	assert.Empty(t, RowsFromMatrix(nil))
	assert.Empty(t, RowsFromMatrix([][]any{{"Date", "Type", "Category", "Description", "Mode", "Amount"}}))
}

func TestMatrixFromRowsWritesCanonicalHeader(t *testing.T) {
	m := MatrixFromRows(nil, func(_ string, v any) any { return v })
	require.Len(t, m, 1)
	assert.Equal(t, []any{"Date", "Type", "Category", "Description", "Mode", "Amount"}, m[0])

	m = MatrixFromRows([]core.Row{{core.ColDate: "2024-01-01", core.ColAmount: 3}}, func(col string, v any) any {
		if v == nil {
			return ""
		}
		return v
	})
	require.Len(t, m, 2)
	assert.Equal(t, []any{"2024-01-01", "", "", "", "", 3}, m[1])
}
