package backend

import (
	"errors"
	"fmt"
	"strings"

	"ledger/internal/config"
	"ledger/internal/period"
)

// FromAppConfig converts the application config to backend config, reading
// credential files on the way.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s (valid: %s)",
			appConfig.DataBackend, strings.Join(GetBackendTypeStrings(), ", "))
	}
	mode, err := period.ParseMode(appConfig.StorageMode)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Type:                backendType,
		Mode:                mode,
		SQLiteDBPath:        appConfig.SQLiteDBPath,
		XLSXDataDir:         appConfig.XLSXDataDir,
		GoogleSpreadsheetID: appConfig.GoogleSpreadsheetID,
		GoogleSheetName:     appConfig.GoogleSheetName,
		GoogleSheetPrefix:   appConfig.GoogleSheetPrefix,
	}

	if backendType == SheetsBackend {
		cfg.ServiceAccountJSON, err = appConfig.ServiceAccountCredentials()
		if err != nil {
			return Config{}, fmt.Errorf("service account credentials: %w", err)
		}
		if cfg.ServiceAccountJSON == nil {
			cfg.OAuthClientJSON, cfg.OAuthTokenJSON, err = appConfig.OAuthCredentials()
			if err != nil {
				return Config{}, fmt.Errorf("oauth credentials: %w", err)
			}
		}
	}
	return cfg, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Mode != period.ModeSingle && c.Mode != period.ModeMonthly {
		return fmt.Errorf("invalid storage mode: %q", c.Mode)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite backend")
		}
	case XLSXBackend:
		if c.XLSXDataDir == "" {
			return errors.New("data directory is required for xlsx backend")
		}
	case SheetsBackend:
		if c.GoogleSpreadsheetID == "" {
			return errors.New("Google Spreadsheet ID is required for sheets backend")
		}
		if len(c.ServiceAccountJSON) == 0 && (len(c.OAuthClientJSON) == 0 || len(c.OAuthTokenJSON) == 0) {
			return errors.New("service account or OAuth client and token credentials are required for sheets backend")
		}
	case MemoryBackend:
	}
	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{SQLiteBackend, SheetsBackend, XLSXBackend, MemoryBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
