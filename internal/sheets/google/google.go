package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/oauth2"
	gauth "golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"ledger/internal/core"
	"ledger/internal/log"
	ports "ledger/internal/sheets"
)

const (
	DefaultSheetName = "Transactions"
	lastColumn       = "F"
)

// Ensure interface conformance
var (
	_ ports.Table           = (*Client)(nil)
	_ ports.PartitionLister = (*Client)(nil)
)

// Config selects the spreadsheet, tab naming and credentials. Exactly one of
// ServiceAccountJSON or the OAuth client/token pair must be set.
type Config struct {
	SpreadsheetID string
	// SheetName is the tab of a single-store ledger.
	SheetName string
	// SheetPrefix is prepended to "YYYY-MM" to name monthly tabs.
	SheetPrefix string

	ServiceAccountJSON []byte
	OAuthClientJSON    []byte
	OAuthTokenJSON     []byte
}

// Client stores each partition in its own tab of one spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	sheetPrefix   string
	logger        *log.Logger
}

// New creates a client from cfg. Extra options replace the credential-based
// transport entirely, which lets tests point the client at a fake server.
func New(ctx context.Context, cfg Config, logger *log.Logger, opts ...goption.ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentSheets)

	if len(opts) == 0 {
		httpClient, err := authorizedClient(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{goption.WithHTTPClient(httpClient)}
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	name := strings.TrimSpace(cfg.SheetName)
	if name == "" {
		name = DefaultSheetName
	}
	return &Client{
		svc:           svc,
		spreadsheetID: strings.TrimSpace(cfg.SpreadsheetID),
		sheetName:     name,
		sheetPrefix:   cfg.SheetPrefix,
		logger:        logger,
	}, nil
}

// authorizedClient builds an HTTP client carrying service account or OAuth
// user credentials on top of a pooled transport.
func authorizedClient(ctx context.Context, cfg Config, logger *log.Logger) (*http.Client, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, newHTTPClientWithPooling())

	switch {
	case len(cfg.ServiceAccountJSON) > 0:
		logger.InfoContext(ctx, "Using service account credentials", "json_length", len(cfg.ServiceAccountJSON))
		creds, err := gauth.CredentialsFromJSON(ctx, cfg.ServiceAccountJSON, gsheet.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("service account credentials: %w", err)
		}
		return oauth2.NewClient(ctx, creds.TokenSource), nil

	case len(cfg.OAuthClientJSON) > 0 && len(cfg.OAuthTokenJSON) > 0:
		logger.InfoContext(ctx, "Using OAuth user credentials")
		oc, err := gauth.ConfigFromJSON(cfg.OAuthClientJSON, gsheet.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("oauth config: %w", err)
		}
		var tok oauth2.Token
		if err := json.Unmarshal(cfg.OAuthTokenJSON, &tok); err != nil {
			return nil, fmt.Errorf("oauth token: %w", err)
		}
		return oc.Client(ctx, &tok), nil
	}
	return nil, errors.New("missing credentials: set a service account or an OAuth client and token")
}

// newHTTPClientWithPooling creates an HTTP client tuned for the Sheets API
// with connection pooling and bounded timeouts.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// TabName returns the tab that holds partition key.
func (c *Client) TabName(key core.PartitionKey) string {
	if key == core.SingleKey {
		return c.sheetName
	}
	return c.sheetPrefix + key.String()
}

func quoteTab(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func (c *Client) ReadTable(ctx context.Context, key core.PartitionKey) ([]core.Row, error) {
	values, err := c.readValues(ctx, c.TabName(key))
	if err != nil {
		return nil, err
	}
	return ports.RowsFromMatrix(values), nil
}

// readValues returns the raw cells of a tab; a missing tab has none.
func (c *Client) readValues(ctx context.Context, tab string) ([][]any, error) {
	rng := fmt.Sprintf("%s!A:%s", quoteTab(tab), lastColumn)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("SERIAL_NUMBER").
		Context(ctx).Do()
	if err != nil {
		if isMissingTab(err) {
			c.logger.DebugContext(ctx, "Tab does not exist yet", "tab", tab)
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

// WriteTable rewrites the tab with one values update. The update range is
// padded with blank rows so rows beyond the new end are cleared in the same
// call.
func (c *Client) WriteTable(ctx context.Context, key core.PartitionKey, rows []core.Row) error {
	tab := c.TabName(key)
	tabs, err := c.tabs(ctx)
	if err != nil {
		return err
	}

	previous := 0
	if _, ok := tabs[tab]; ok {
		old, err := c.readValues(ctx, tab)
		if err != nil {
			return err
		}
		previous = len(old)
	} else if err := c.addTab(ctx, tab); err != nil {
		return err
	}

	matrix := ports.MatrixFromRows(rows, sheetCell)
	for len(matrix) < previous {
		matrix = append(matrix, blankLine())
	}

	rng := fmt.Sprintf("%s!A1:%s%d", quoteTab(tab), lastColumn, len(matrix))
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: matrix}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	c.logger.DebugContext(ctx, "Tab rewritten",
		"tab", tab,
		log.FieldRows, len(rows),
		"cleared", len(matrix)-len(rows)-1)
	return nil
}

// ListPartitions returns the monthly partitions that have a tab.
func (c *Client) ListPartitions(ctx context.Context) ([]core.PartitionKey, error) {
	tabs, err := c.tabs(ctx)
	if err != nil {
		return nil, err
	}
	var out []core.PartitionKey
	for title := range tabs {
		if !strings.HasPrefix(title, c.sheetPrefix) {
			continue
		}
		key, err := core.ParsePartitionKey(strings.TrimPrefix(title, c.sheetPrefix))
		if err != nil || key == core.SingleKey {
			continue
		}
		out = append(out, key)
	}
	return out, nil
}

func (c *Client) tabs(ctx context.Context) (map[string]int64, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties(sheetId,title)").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get spreadsheet: %w", err)
	}
	out := make(map[string]int64, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			out[sh.Properties.Title] = sh.Properties.SheetId
		}
	}
	return out, nil
}

func (c *Client) addTab(ctx context.Context, tab string) error {
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: tab},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add tab %s: %w", tab, err)
	}
	c.logger.InfoContext(ctx, "Tab created", "tab", tab)
	return nil
}

func isMissingTab(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	return gerr.Code == http.StatusBadRequest && strings.Contains(gerr.Message, "Unable to parse range")
}

// sheetCell converts a stored value into something the values API accepts.
func sheetCell(_ string, v any) any {
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

func blankLine() []any {
	line := make([]any, len(core.Columns))
	for i := range line {
		line[i] = ""
	}
	return line
}
