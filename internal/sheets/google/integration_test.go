//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
	"ledger/internal/log"
)

// Integration tests require a real spreadsheet and credentials.
// Run with: go test -tags=integration ./internal/sheets/google

func integrationConfig(t *testing.T) Config {
	t.Helper()
	cfg := Config{
		SpreadsheetID: os.Getenv("GOOGLE_SPREADSHEET_ID"),
		SheetPrefix:   "it-",
	}
	if cfg.SpreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}
	readEnvOrFile := func(jsonKey, fileKey string) []byte {
		if v := os.Getenv(jsonKey); v != "" {
			return []byte(v)
		}
		if p := os.Getenv(fileKey); p != "" {
			b, err := os.ReadFile(p)
			if err != nil {
				t.Fatalf("read %s: %v", p, err)
			}
			return b
		}
		return nil
	}
	cfg.ServiceAccountJSON = readEnvOrFile("GOOGLE_SERVICE_ACCOUNT_JSON", "GOOGLE_SERVICE_ACCOUNT_FILE")
	cfg.OAuthClientJSON = readEnvOrFile("GOOGLE_OAUTH_CLIENT_JSON", "GOOGLE_OAUTH_CLIENT_FILE")
	cfg.OAuthTokenJSON = readEnvOrFile("GOOGLE_OAUTH_TOKEN_JSON", "GOOGLE_OAUTH_TOKEN_FILE")
	if cfg.ServiceAccountJSON == nil && (cfg.OAuthClientJSON == nil || cfg.OAuthTokenJSON == nil) {
		t.Skip("credentials not configured, skipping integration test")
	}
	return cfg
}

func TestIntegration_PartitionRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := New(ctx, integrationConfig(t), log.Discard())
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	key := core.NewPartitionKey(1999, 1)
	tx := core.Transaction{
		Date:        core.NewDate(1999, 1, 15),
		Type:        core.Expense,
		Category:    "Miscellaneous",
		Description: "integration " + time.Now().Format(time.RFC3339),
		Mode:        core.Cash,
		Amount:      decimal.RequireFromString("1.23"),
	}

	if err := client.WriteTable(ctx, key, []core.Row{tx.Row(), tx.Row()}); err != nil {
		t.Fatalf("WriteTable: %v", err)
	}
	if err := client.WriteTable(ctx, key, []core.Row{tx.Row()}); err != nil {
		t.Fatalf("WriteTable: %v", err)
	}

	rows, err := client.ReadTable(ctx, key)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row after shrink, got %d", len(rows))
	}
	got, err := core.NormalizeRow(rows[0])
	if err != nil {
		t.Fatalf("NormalizeRow: %v", err)
	}
	if !got.Equal(tx) {
		t.Errorf("round trip mismatch: got %+v want %+v", got, tx)
	}

	keys, err := client.ListPartitions(ctx)
	if err != nil {
		t.Fatalf("ListPartitions: %v", err)
	}
	found := false
	for _, k := range keys {
		found = found || k == key
	}
	if !found {
		t.Errorf("expected %s in %v", key, keys)
	}

	if err := client.WriteTable(ctx, key, nil); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
}
