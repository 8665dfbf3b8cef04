// Package sheets is a thin client for the spreadsheet service backing
// the guest registries: row-range reads and writes addressed by A1
// labels, cells as plain strings. The store is externally owned; no
// connection or lock is held between requests.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"doorlist/internal/config"
	"doorlist/lib/sl"
)

type Client struct {
	hc      *http.Client
	baseURL string
	token   string
	sheetID string
	tab     string
	log     *slog.Logger
}

func New(cfg config.SheetsConfig, sheetID string, logger *slog.Logger) *Client {
	return &Client{
		hc:      &http.Client{Timeout: 10 * time.Second},
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		sheetID: sheetID,
		tab:     cfg.Tab,
		log:     logger.With(sl.Module("sheets")),
	}
}

type valueRange struct {
	Range  string          `json:"range,omitempty"`
	Values [][]interface{} `json:"values,omitempty"`
}

// request performs one API round trip. Each call is a single network
// operation cancellable through ctx.
func (c *Client) request(ctx context.Context, method, endpoint string, payload interface{}) ([]byte, error) {
	log := c.log.With(
		slog.String("method", method),
		slog.String("endpoint", endpoint),
	)

	status := "ERROR"
	t1 := time.Now()
	defer func() {
		log.Debug("sheets API request completed",
			slog.String("duration", fmt.Sprintf("%.3fms", float64(time.Since(t1))/float64(time.Millisecond))),
			slog.String("status", status))
	}()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			log.Error("marshal payload", sl.Err(err))
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		log.Error("create request", sl.Err(err))
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.hc.Do(req)
	if err != nil {
		log.Error("request failed", sl.Err(err))
		return nil, err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)

	status = resp.Status
	if resp.StatusCode >= 300 {
		log.Error("sheets API returned error",
			slog.String("status", resp.Status),
			slog.String("body", string(respBody)))
		return nil, fmt.Errorf("sheets %s: %s", resp.Status, respBody)
	}

	return respBody, nil
}

func (c *Client) rangeURL(rangeA1, suffix string) string {
	label := url.PathEscape(fmt.Sprintf("%s!%s", c.tab, rangeA1))
	return fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s%s", c.baseURL, c.sheetID, label, suffix)
}

// ReadRange returns the cells of an A1 range, e.g. "A1:H1" or "A:H",
// as a 2D string table. Trailing empty rows are not included by the
// service; short rows are returned as-is.
func (c *Client) ReadRange(ctx context.Context, rangeA1 string) ([][]string, error) {
	body, err := c.request(ctx, http.MethodGet, c.rangeURL(rangeA1, ""), nil)
	if err != nil {
		return nil, err
	}
	var vr valueRange
	if err = json.Unmarshal(body, &vr); err != nil {
		return nil, fmt.Errorf("parse values response: %w", err)
	}
	rows := make([][]string, 0, len(vr.Values))
	for _, raw := range vr.Values {
		row := make([]string, len(raw))
		for i, cell := range raw {
			row[i] = fmt.Sprint(cell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteRange overwrites an A1 range with the given rows.
func (c *Client) WriteRange(ctx context.Context, rangeA1 string, rows [][]string) error {
	endpoint := c.rangeURL(rangeA1, "?valueInputOption=RAW")
	_, err := c.request(ctx, http.MethodPut, endpoint, toValueRange(rows))
	return err
}

// AppendRow appends a single row after the last data row of the range.
// The write either commits fully or not at all; there is no partial-row
// state to clean up on error.
func (c *Client) AppendRow(ctx context.Context, rangeA1 string, row []string) error {
	endpoint := c.rangeURL(rangeA1, ":append?valueInputOption=RAW&insertDataOption=INSERT_ROWS")
	_, err := c.request(ctx, http.MethodPost, endpoint, toValueRange([][]string{row}))
	return err
}

func toValueRange(rows [][]string) valueRange {
	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		values[i] = make([]interface{}, len(row))
		for j, cell := range row {
			values[i][j] = cell
		}
	}
	return valueRange{Values: values}
}
