package sheets

import (
	"ledger/internal/core"
)

// RowsFromMatrix turns a header-first cell matrix into rows keyed by column.
// Header names are matched case-insensitively and unknown columns are dropped.
// When the first line carries no known header the matrix is read positionally
// in canonical column order. Blank lines are skipped.
func RowsFromMatrix(values [][]any) []core.Row {
	if len(values) == 0 {
		return nil
	}
	cols, ok := headerColumns(values[0])
	body := values[1:]
	if !ok {
		cols = core.Columns
		body = values
	}
	out := make([]core.Row, 0, len(body))
	for _, line := range body {
		if isBlank(line) {
			continue
		}
		row := make(core.Row, len(core.Columns))
		for i, name := range cols {
			if name == "" {
				continue
			}
			if i < len(line) {
				row[name] = line[i]
			} else {
				row[name] = nil
			}
		}
		out = append(out, row)
	}
	return out
}

// MatrixFromRows renders rows as a header-first matrix in canonical column
// order. cell converts each stored value to what the backend can persist.
func MatrixFromRows(rows []core.Row, cell func(col string, v any) any) [][]any {
	out := make([][]any, 0, len(rows)+1)
	header := make([]any, len(core.Columns))
	for i, c := range core.Columns {
		header[i] = c
	}
	out = append(out, header)
	for _, r := range rows {
		line := make([]any, len(core.Columns))
		for i, c := range core.Columns {
			line[i] = cell(c, r[c])
		}
		out = append(out, line)
	}
	return out
}

func headerColumns(first []any) ([]string, bool) {
	cols := make([]string, len(first))
	found := false
	for i, v := range first {
		if name, ok := core.CanonicalColumn(core.CellString(v)); ok {
			cols[i] = name
			found = true
		}
	}
	return cols, found
}

func isBlank(line []any) bool {
	for _, v := range line {
		if core.CellString(v) != "" {
			return false
		}
	}
	return true
}
