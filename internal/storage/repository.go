package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/sheets"
)

var (
	_ sheets.Table           = (*SQLiteRepository)(nil)
	_ sheets.PartitionLister = (*SQLiteRepository)(nil)
)

// SQLiteRepository stores partitions as ordered rows in a local database.
// Cells are kept as text so rows read back exactly as they were written.
type SQLiteRepository struct {
	db     *sql.DB
	logger *log.Logger
}

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// one writer at a time; sqlite serializes anyway
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:     db,
		logger: logger.WithComponent(log.ComponentStorage),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const selectRows = `
SELECT date, type, category, description, mode, amount
FROM ledger_rows
WHERE partition_key = ?
ORDER BY position`

func (r *SQLiteRepository) ReadTable(ctx context.Context, key core.PartitionKey) ([]core.Row, error) {
	rows, err := r.db.QueryContext(ctx, selectRows, key.String())
	if err != nil {
		return nil, fmt.Errorf("query partition %s: %w", key, err)
	}
	defer rows.Close()

	var out []core.Row
	for rows.Next() {
		var date, typ, category, description, mode, amount string
		if err := rows.Scan(&date, &typ, &category, &description, &mode, &amount); err != nil {
			return nil, fmt.Errorf("scan partition %s: %w", key, err)
		}
		out = append(out, core.Row{
			core.ColDate:        date,
			core.ColType:        typ,
			core.ColCategory:    category,
			core.ColDescription: description,
			core.ColMode:        mode,
			core.ColAmount:      amount,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read partition %s: %w", key, err)
	}
	return out, nil
}

// WriteTable replaces the partition inside one transaction.
func (r *SQLiteRepository) WriteTable(ctx context.Context, key core.PartitionKey, rows []core.Row) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM ledger_rows WHERE partition_key = ?`, key.String()); err != nil {
		return fmt.Errorf("clear partition %s: %w", key, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO ledger_rows (partition_key, position, date, type, category, description, mode, amount)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		_, err := stmt.ExecContext(ctx, key.String(), i,
			cellText(row[core.ColDate]),
			cellText(row[core.ColType]),
			cellText(row[core.ColCategory]),
			cellText(row[core.ColDescription]),
			cellText(row[core.ColMode]),
			cellText(row[core.ColAmount]),
		)
		if err != nil {
			return fmt.Errorf("insert row %d of %s: %w", i, key, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO ledger_partitions (partition_key, updated_at) VALUES (?, ?)
ON CONFLICT(partition_key) DO UPDATE SET updated_at = excluded.updated_at`,
		key.String(), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("touch partition %s: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit partition %s: %w", key, err)
	}
	r.logger.DebugContext(ctx, "Partition stored",
		log.FieldPartition, key.String(),
		log.FieldRows, len(rows))
	return nil
}

// ListPartitions returns every partition that has been written, even if it
// is now empty.
func (r *SQLiteRepository) ListPartitions(ctx context.Context) ([]core.PartitionKey, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT partition_key FROM ledger_partitions ORDER BY partition_key`)
	if err != nil {
		return nil, fmt.Errorf("list partitions: %w", err)
	}
	defer rows.Close()

	var out []core.PartitionKey
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan partition key: %w", err)
		}
		out = append(out, core.PartitionKey(k))
	}
	return out, rows.Err()
}

func cellText(v any) string {
	switch x := v.(type) {
	case core.Date:
		return x.String()
	case time.Time:
		return core.DateOf(x).String()
	case decimal.Decimal:
		return x.String()
	}
	return core.CellString(v)
}
