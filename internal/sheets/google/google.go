package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"casal/internal/core"
	"casal/internal/insights"
	ports "casal/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
}

var _ ports.MonthExporter = (*Client)(nil)

// NewFromEnv creates a Sheets client from the environment.
// Required: GOOGLE_SPREADSHEET_ID
// Auth: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
		goption.WithHTTPClient(newHTTPClientWithPooling()))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created")
	return service, nil
}

// newHTTPClientWithPooling creates an HTTP client tuned for the Sheets API.
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

// ExportMonth rewrites the month's tab, creating it on first export.
func (c *Client) ExportMonth(ctx context.Context, m ports.MonthSheet) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if m.Couple.ID == "" {
		return core.ErrNoHousehold
	}
	tab := ports.TabName(m.Couple.ID, m.YearMonth)
	if err := c.ensureTab(ctx, tab); err != nil {
		return err
	}

	rng := quoteTab(tab) + "!A:Z"
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", tab, err)
	}

	rows := toRows(m)
	vr := &gsheet.ValueRange{Values: rows}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, quoteTab(tab)+"!A1", vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update %s: %w", tab, err)
	}

	slog.InfoContext(ctx, "Month exported to Google Sheets",
		"couple_id", m.Couple.ID,
		"year_month", m.YearMonth.String(),
		"rows", len(rows))
	return nil
}

func (c *Client) ensureTab(ctx context.Context, tab string) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == tab {
			return nil
		}
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: tab}},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", tab, err)
	}
	slog.InfoContext(ctx, "Sheet tab created", "tab", tab)
	return nil
}

// quoteTab wraps a tab name for A1 notation; embedded quotes are doubled.
func quoteTab(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}

var expenseHeader = []any{"Date", "Title", "Category", "Amount", "Paid by", "Split A", "Split B", "Fixed", "Card", "Installment"}

// toRows lays out the month: totals first, then the balance, the tips and
// one row per expense.
func toRows(m ports.MonthSheet) [][]any {
	s := m.Summary
	rows := [][]any{
		{"Month", m.YearMonth.String()},
		{"Currency", m.Couple.Currency},
		{"Total in", decimalString(s.TotalIn)},
		{"Total out", decimalString(s.TotalOut)},
		{"Saved", decimalString(s.Saved)},
		{"Fixed", decimalString(s.Fixed)},
		{"Variable", decimalString(s.Variable)},
		{"Card", decimalString(s.CardTotal)},
		{"Paid by " + m.Couple.Name(core.PartyA), decimalString(s.PaidA)},
		{"Paid by " + m.Couple.Name(core.PartyB), decimalString(s.PaidB)},
		{"Balance", balanceLine(m.Couple, m.Balance)},
		{},
	}
	for _, tip := range m.Tips {
		rows = append(rows, tipRow(tip))
	}
	if len(m.Tips) > 0 {
		rows = append(rows, []any{})
	}

	rows = append(rows, expenseHeader)
	for _, e := range m.Expenses {
		installment := ""
		if e.InstallmentNumber > 0 {
			installment = fmt.Sprintf("%d/%d", e.InstallmentNumber, e.Installments)
		}
		rows = append(rows, []any{
			e.Date.String(),
			e.Title,
			e.Category,
			decimalString(e.Amount.Cents),
			m.Couple.Name(e.PaidBy),
			e.Split.A,
			e.Split.B,
			yesNo(e.IsFixed),
			yesNo(e.IsCard),
			installment,
		})
	}
	return rows
}

func tipRow(t insights.Tip) []any {
	return []any{"Tip", string(t.Kind), t.Message}
}

func balanceLine(c core.Couple, b core.BalanceStatus) string {
	if b.State != core.Owed {
		return "balanced"
	}
	return fmt.Sprintf("%s owes %s %s", c.Name(b.Debtor), c.Name(b.Creditor), decimalString(b.Amount))
}

func decimalString(cents int64) string {
	return core.FormatCents(cents, "")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}
