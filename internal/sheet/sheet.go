package sheet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"assigntrack/internal/config"
	appLog "assigntrack/internal/log"
	"assigntrack/internal/model"
)

// Column layout, matching the tracker sheet the original deployment
// accumulated:
//
//	B Assignment | C Course | D Status | E Due Date | F Days Left | G Priority
//
// Column F holds a live formula so the sheet stays current between polls.

// RetryPolicy bounds the snapshot-read retry loop.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// Client wraps the Sheets API for one fixed spreadsheet.
type Client struct {
	svc           *sheets.Service
	spreadsheetID string
	tab           string
	retry         RetryPolicy
}

// NewClient authenticates with the configured service-account key
// (file path or inline JSON; config validation guarantees exactly one).
func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	switch {
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	default:
		return nil, errors.New("no sheet credentials configured")
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SheetID,
		tab:           cfg.SheetTab,
		retry: RetryPolicy{
			MaxAttempts: cfg.ReadRetries,
			Delay:       time.Duration(cfg.ReadRetrySeconds) * time.Second,
		},
	}, nil
}

// Snapshot reads the assignment-title column (B) and returns it as an
// ordered, position-preserving list. Transient API errors are retried
// per the policy; exhausting it fails the cycle's write.
func (c *Client) Snapshot(ctx context.Context) ([]string, error) {
	rng := c.tab + "!B:B"

	var lastErr error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
		if err == nil {
			return flattenColumn(resp.Values), nil
		}
		lastErr = err
		appLog.Error("sheet snapshot read failed", err, "attempt", attempt, "max_attempts", c.retry.MaxAttempts)
		if attempt < c.retry.MaxAttempts {
			select {
			case <-time.After(c.retry.Delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, fmt.Errorf("sheet snapshot read exhausted %d attempts: %w", c.retry.MaxAttempts, lastErr)
}

// ApplyRefreshes rewrites the derived columns (E:G) of each targeted
// row. B:D stay untouched so hand-edited status text survives.
func (c *Client) ApplyRefreshes(ctx context.Context, refreshes []model.Refresh) error {
	if len(refreshes) == 0 {
		return nil
	}

	data := make([]*sheets.ValueRange, 0, len(refreshes))
	for _, r := range refreshes {
		data = append(data, &sheets.ValueRange{
			Range: fmt.Sprintf("%s!E%d:G%d", c.tab, r.Position, r.Position),
			Values: [][]interface{}{{
				r.Record.DueDate,
				daysLeftFormula(r.Position),
				string(r.Record.Priority),
			}},
		})
	}

	req := &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "USER_ENTERED",
		Data:             data,
	}
	if _, err := c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("refresh batch: %w", err)
	}
	appLog.Info("refreshed existing rows", "count", len(refreshes))
	return nil
}

// ApplyAppends writes new rows (columns B:G) starting at the first
// append's position. Reconciliation assigns contiguous positions, so
// one range update covers the whole batch.
func (c *Client) ApplyAppends(ctx context.Context, appends []model.Append) error {
	if len(appends) == 0 {
		return nil
	}

	startRow := appends[0].Position
	rows := make([][]interface{}, 0, len(appends))
	for _, a := range appends {
		rows = append(rows, []interface{}{
			a.Record.Title,
			a.Record.Course,
			a.Record.Status,
			a.Record.DueDate,
			daysLeftFormula(a.Position),
			string(a.Record.Priority),
		})
	}

	rng := fmt.Sprintf("%s!B%d:G%d", c.tab, startRow, startRow+len(rows)-1)
	vr := &sheets.ValueRange{Values: rows}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("append batch: %w", err)
	}
	appLog.Info("appended new rows", "count", len(appends), "start_row", startRow)
	return nil
}

func daysLeftFormula(row int) string {
	return fmt.Sprintf("=E%d-TODAY()", row)
}

// flattenColumn converts the API's row-major cell values into a flat
// title list, keeping blanks so positions stay addressable.
func flattenColumn(values [][]interface{}) []string {
	out := make([]string, 0, len(values))
	for _, row := range values {
		if len(row) == 0 {
			out = append(out, "")
			continue
		}
		out = append(out, fmt.Sprint(row[0]))
	}
	return out
}
