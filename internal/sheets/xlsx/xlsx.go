// Package xlsx stores partitions as local spreadsheet files, one workbook per
// partition.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"ledger/internal/core"
	"ledger/internal/log"
	ports "ledger/internal/sheets"
)

const (
	sheetName  = "Transactions"
	filePrefix = "transactions"
	fileExt    = ".xlsx"
)

var (
	_ ports.Table           = (*Store)(nil)
	_ ports.PartitionLister = (*Store)(nil)
)

// Store keeps transactions_YYYY-MM.xlsx files (or transactions.xlsx for the
// single partition) under one directory.
type Store struct {
	dir    string
	logger *log.Logger
}

func New(dir string, logger *log.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("missing data directory")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Store{dir: dir, logger: logger.WithComponent(log.ComponentXLSX)}, nil
}

// Path returns the file that holds partition key.
func (s *Store) Path(key core.PartitionKey) string {
	if key == core.SingleKey {
		return filepath.Join(s.dir, filePrefix+fileExt)
	}
	return filepath.Join(s.dir, filePrefix+"_"+key.String()+fileExt)
}

func (s *Store) ReadTable(ctx context.Context, key core.PartitionKey) ([]core.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := s.Path(key)
	f, err := excelize.OpenFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	name := f.GetSheetName(0)
	if name == "" {
		return nil, nil
	}
	lines, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	values := make([][]any, len(lines))
	for i, line := range lines {
		values[i] = make([]any, len(line))
		for j, cell := range line {
			values[i][j] = cell
		}
	}
	return ports.RowsFromMatrix(values), nil
}

// WriteTable writes a fresh workbook next to the old one and renames it into
// place, so a failed write leaves the previous file intact.
func (s *Store) WriteTable(ctx context.Context, key core.PartitionKey, rows []core.Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := s.Path(key)

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	for i, line := range ports.MatrixFromRows(rows, fileCell) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &line); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*"+fileExt)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := f.WriteTo(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	s.logger.DebugContext(ctx, "Workbook written",
		"path", path,
		log.FieldRows, len(rows))
	return nil
}

// ListPartitions returns the monthly partitions that have a file.
func (s *Store) ListPartitions(ctx context.Context) ([]core.PartitionKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	matches, err := filepath.Glob(filepath.Join(s.dir, filePrefix+"_*"+fileExt))
	if err != nil {
		return nil, fmt.Errorf("list workbooks: %w", err)
	}
	var out []core.PartitionKey
	for _, m := range matches {
		name := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(m), filePrefix+"_"), fileExt)
		key, err := core.ParsePartitionKey(name)
		if err != nil || key == core.SingleKey {
			continue
		}
		out = append(out, key)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// fileCell stores dates as ISO text and amounts as numbers.
func fileCell(_ string, v any) any {
	switch x := v.(type) {
	case nil:
		return ""
	case core.Date:
		return x.String()
	case time.Time:
		return core.DateOf(x).String()
	case decimal.Decimal:
		return core.AmountCell(x)
	}
	return v
}
