package backend

import (
	"context"

	"ledger/internal/period"
	"ledger/internal/sheets"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult is the table a ledger runs on plus what releases it.
type BackendResult struct {
	Table   sheets.Table
	Mode    period.Mode
	Cleanup CleanupFunc
}

// Close runs Cleanup if there is one.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType
	Mode period.Mode

	// SQLite specific
	SQLiteDBPath string

	// Local workbook specific
	XLSXDataDir string

	// Google Sheets specific
	GoogleSpreadsheetID string
	GoogleSheetName     string
	GoogleSheetPrefix   string
	ServiceAccountJSON  []byte
	OAuthClientJSON     []byte
	OAuthTokenJSON      []byte
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	XLSXBackend   BackendType = "xlsx"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, SheetsBackend, XLSXBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
