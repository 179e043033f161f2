package sheets

import (
	"context"

	"ledger/internal/core"
)

// Ports for outbound table adapters. A table stores each partition as an
// ordered list of rows and replaces a partition as a whole.
type (
	TableReader interface {
		// ReadTable returns the rows of a partition in stored order.
		// A partition that does not exist yet yields no rows and no error.
		ReadTable(ctx context.Context, key core.PartitionKey) ([]core.Row, error)
	}

	TableWriter interface {
		// WriteTable replaces the partition with rows, header included.
		// On error the previously stored rows are left as they were.
		WriteTable(ctx context.Context, key core.PartitionKey, rows []core.Row) error
	}

	// PartitionLister enumerates the partitions a table currently holds.
	PartitionLister interface {
		ListPartitions(ctx context.Context) ([]core.PartitionKey, error)
	}

	Table interface {
		TableReader
		TableWriter
	}
)
