package backend

import (
	"context"
	"fmt"

	"ledger/internal/log"
	gsheet "ledger/internal/sheets/google"
	"ledger/internal/sheets/memory"
	"ledger/internal/sheets/xlsx"
	"ledger/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(config)
	case SheetsBackend:
		result, err = f.createSheetsBackend(ctx, config)
	case XLSXBackend:
		result, err = f.createXLSXBackend(config)
	case MemoryBackend:
		result = &BackendResult{Table: memory.New()}
		f.logger.Warn("Using in-memory backend, data is lost on restart")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}
	result.Mode = config.Mode
	f.logger.Info("Backend ready",
		log.FieldBackend, config.Type.String(),
		log.FieldStorageMode, string(config.Mode))
	return result, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &BackendResult{Table: repo, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      config.GoogleSpreadsheetID,
		SheetName:          config.GoogleSheetName,
		SheetPrefix:        config.GoogleSheetPrefix,
		ServiceAccountJSON: config.ServiceAccountJSON,
		OAuthClientJSON:    config.OAuthClientJSON,
		OAuthTokenJSON:     config.OAuthTokenJSON,
	}, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.Info("Initialized Google Sheets backend", "spreadsheet_id", config.GoogleSpreadsheetID)
	return &BackendResult{Table: cli}, nil
}

func (f *DefaultFactory) createXLSXBackend(config Config) (*BackendResult, error) {
	store, err := xlsx.New(config.XLSXDataDir, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize workbook backend: %w", err)
	}
	f.logger.Info("Initialized workbook backend", "data_directory", config.XLSXDataDir)
	return &BackendResult{Table: store}, nil
}
