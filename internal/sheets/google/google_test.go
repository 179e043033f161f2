package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"

	"ledger/internal/core"
	"ledger/internal/log"
)

const testSpreadsheet = "sheet-123"

// fakeSheets implements the subset of the Sheets REST API the client uses.
type fakeSheets struct {
	mu      sync.Mutex
	tabs    map[string][][]any
	updates int
	failPut bool

	// query of the last values read
	readQuery url.Values
}

func newFakeSheets(tabs ...string) *fakeSheets {
	f := &fakeSheets{tabs: map[string][][]any{}}
	for _, t := range tabs {
		f.tabs[t] = nil
	}
	return f
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	base := "/v4/spreadsheets/" + testSpreadsheet
	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && path == base:
		var sheets []map[string]any
		names := make([]string, 0, len(f.tabs))
		for name := range f.tabs {
			names = append(names, name)
		}
		sort.Strings(names)
		for i, name := range names {
			sheets = append(sheets, map[string]any{"properties": map[string]any{"sheetId": i + 1, "title": name}})
		}
		writeJSON(w, http.StatusOK, map[string]any{"spreadsheetId": testSpreadsheet, "sheets": sheets})

	case r.Method == http.MethodPost && path == base+":batchUpdate":
		var req struct {
			Requests []struct {
				AddSheet struct {
					Properties struct {
						Title string `json:"title"`
					} `json:"properties"`
				} `json:"addSheet"`
			} `json:"requests"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, apiError(400, err.Error()))
			return
		}
		for _, rq := range req.Requests {
			f.tabs[rq.AddSheet.Properties.Title] = nil
		}
		writeJSON(w, http.StatusOK, map[string]any{"spreadsheetId": testSpreadsheet})

	case strings.HasPrefix(path, base+"/values/"):
		rng := strings.TrimPrefix(path, base+"/values/")
		tab := tabOf(rng)
		if _, ok := f.tabs[tab]; !ok {
			writeJSON(w, http.StatusBadRequest, apiError(400, "Unable to parse range: "+rng))
			return
		}
		if r.Method == http.MethodGet {
			f.readQuery = r.URL.Query()
			writeJSON(w, http.StatusOK, map[string]any{"range": rng, "values": f.tabs[tab]})
			return
		}
		if f.failPut {
			writeJSON(w, http.StatusForbidden, apiError(403, "The caller does not have permission"))
			return
		}
		var body struct {
			Values [][]any `json:"values"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, apiError(400, err.Error()))
			return
		}
		f.updates++
		f.tabs[tab] = trimBlank(body.Values)
		writeJSON(w, http.StatusOK, map[string]any{"updatedRange": rng, "updatedRows": len(body.Values)})

	default:
		writeJSON(w, http.StatusNotFound, apiError(404, "not found: "+r.Method+" "+path))
	}
}

func (f *fakeSheets) values(tab string) [][]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tabs[tab]
}

func tabOf(rng string) string {
	name := rng[:strings.LastIndex(rng, "!")]
	if strings.HasPrefix(name, "'") {
		name = strings.ReplaceAll(name[1:len(name)-1], "''", "'")
	}
	return name
}

// trimBlank drops trailing rows of empty strings, as Sheets does on read.
func trimBlank(values [][]any) [][]any {
	end := len(values)
	for end > 0 {
		blank := true
		for _, v := range values[end-1] {
			if s, ok := v.(string); !ok || s != "" {
				blank = false
				break
			}
		}
		if !blank {
			break
		}
		end--
	}
	return values[:end]
}

func apiError(code int, msg string) map[string]any {
	return map[string]any{"error": map[string]any{"code": code, "message": msg}}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, fake *fakeSheets, prefix string) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Config{
		SpreadsheetID: testSpreadsheet,
		SheetPrefix:   prefix,
	}, log.Discard(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return c
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{}, log.Discard())
	assert.Error(t, err)
}

func TestNewRejectsMissingCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "x"}, log.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing credentials")
}

func TestNewRejectsInvalidOAuthClient(t *testing.T) {
	_, err := New(context.Background(), Config{
		SpreadsheetID:   "x",
		OAuthClientJSON: []byte("invalid-json"),
		OAuthTokenJSON:  []byte(`{"access_token":"test"}`),
	}, log.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oauth config")
}

func TestTabName(t *testing.T) {
	c := &Client{sheetName: "Transactions", sheetPrefix: "Tx "}
	assert.Equal(t, "Transactions", c.TabName(core.SingleKey))
	assert.Equal(t, "Tx 2024-03", c.TabName("2024-03"))
	assert.Equal(t, "'It''s'", quoteTab("It's"))
}

func TestReadMissingTabIsEmpty(t *testing.T) {
	c := newTestClient(t, newFakeSheets(), "")
	rows, err := c.ReadTable(context.Background(), "2024-03")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestWriteCreatesTabAndRoundTrips(t *testing.T) {
	ctx := context.Background()
	fake := newFakeSheets()
	c := newTestClient(t, fake, "")

	want := []core.Transaction{
		{Date: core.NewDate(2024, 3, 1), Type: core.Income, Category: "Salary", Mode: core.Card, Amount: decimal.NewFromInt(5000)},
		{Date: core.NewDate(2024, 3, 4), Type: core.Expense, Category: "Outside Food", Description: "dinner", Mode: core.UPI, Amount: decimal.RequireFromString("12.5")},
	}
	rows := []core.Row{want[0].Row(), want[1].Row()}
	require.NoError(t, c.WriteTable(ctx, "2024-03", rows))

	stored := fake.values("2024-03")
	require.Len(t, stored, 3)
	assert.Equal(t, []any{"Date", "Type", "Category", "Description", "Mode", "Amount"}, stored[0])

	got, err := c.ReadTable(ctx, "2024-03")
	require.NoError(t, err)
	require.Len(t, got, 2)
	for i := range want {
		tx, err := core.NormalizeRow(got[i])
		require.NoError(t, err)
		assert.True(t, want[i].Equal(tx), "row %d: %+v", i, tx)
	}
}

func TestWriteClearsStaleRows(t *testing.T) {
	ctx := context.Background()
	fake := newFakeSheets()
	c := newTestClient(t, fake, "")

	three := []core.Row{
		{core.ColCategory: "A"}, {core.ColCategory: "B"}, {core.ColCategory: "C"},
	}
	require.NoError(t, c.WriteTable(ctx, core.SingleKey, three))
	require.NoError(t, c.WriteTable(ctx, core.SingleKey, three[1:2]))

	got, err := c.ReadTable(ctx, core.SingleKey)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "B", got[0][core.ColCategory])

	require.NoError(t, c.WriteTable(ctx, core.SingleKey, nil))
	assert.Len(t, fake.values(DefaultSheetName), 1, "header survives an empty write")
}

func TestWriteFailureLeavesTab(t *testing.T) {
	ctx := context.Background()
	fake := newFakeSheets()
	c := newTestClient(t, fake, "")
	require.NoError(t, c.WriteTable(ctx, "2024-03", []core.Row{{core.ColCategory: "A"}}))

	fake.mu.Lock()
	fake.failPut = true
	fake.mu.Unlock()

	err := c.WriteTable(ctx, "2024-03", nil)
	require.Error(t, err)
	assert.Len(t, fake.values("2024-03"), 2)
}

func TestListPartitionsByPrefix(t *testing.T) {
	fake := newFakeSheets("Tx 2024-01", "Tx 2023-12", "Tx notes", "Summary")
	c := newTestClient(t, fake, "Tx ")

	keys, err := c.ListPartitions(context.Background())
	require.NoError(t, err)
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	assert.Equal(t, []core.PartitionKey{"2023-12", "2024-01"}, keys)
}

func TestSheetCell(t *testing.T) {
	assert.Equal(t, "", sheetCell(core.ColMode, nil))
	assert.Equal(t, "2024-03-01", sheetCell(core.ColDate, core.NewDate(2024, 3, 1)))
	assert.Equal(t, 12.5, sheetCell(core.ColAmount, decimal.RequireFromString("12.5")))
	assert.Equal(t, "99999999999999.99", sheetCell(core.ColAmount, decimal.RequireFromString("99999999999999.99")))
	assert.Equal(t, "Cash", sheetCell(core.ColMode, "Cash"))
}

func TestReadRequestsSerialDates(t *testing.T) {
	fake := newFakeSheets()
	// A date typed into the sheet by hand comes back as a day serial.
	fake.tabs["2024-03"] = [][]any{
		{"Date", "Type", "Category", "Description", "Mode", "Amount"},
		{float64(45352), "Expense", "Taxi", "", "UPI", float64(20)},
	}
	c := newTestClient(t, fake, "")

	got, err := c.ReadTable(context.Background(), "2024-03")
	require.NoError(t, err)
	require.Len(t, got, 1)
	tx, err := core.NormalizeRow(got[0])
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", tx.Date.String())

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, "SERIAL_NUMBER", fake.readQuery.Get("dateTimeRenderOption"))
	assert.Equal(t, "UNFORMATTED_VALUE", fake.readQuery.Get("valueRenderOption"))
}

func TestLargeAmountRoundTripsExactly(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, newFakeSheets(), "")

	want := core.Transaction{Date: core.NewDate(2024, 3, 1), Type: core.Income, Category: "Salary", Mode: core.Card, Amount: decimal.RequireFromString("99999999999999.99")}
	require.NoError(t, c.WriteTable(ctx, "2024-03", []core.Row{want.Row()}))

	got, err := c.ReadTable(ctx, "2024-03")
	require.NoError(t, err)
	require.Len(t, got, 1)
	tx, err := core.NormalizeRow(got[0])
	require.NoError(t, err)
	assert.Equal(t, "99999999999999.99", tx.Amount.String())
}
