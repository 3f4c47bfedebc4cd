// Package timeslice provides a Go SDK for the timeslice-server API.
package timeslice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to a running timeslice-server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the server at baseURL, e.g.
// "http://127.0.0.1:8080".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// BacktestRequest is the body of a backtest call. Hedge switches to spread
// mode when set. Explicit Dates take precedence over Filters.
type BacktestRequest struct {
	Instrument string   `json:"instrument"`
	Hedge      string   `json:"hedge,omitempty"`
	EntryTime  string   `json:"entryTime"`
	ExitTime   string   `json:"exitTime"`
	Position   string   `json:"position"`
	Filters    []string `json:"filters,omitempty"`
	Dates      []string `json:"dates,omitempty"`
}

// Leg is one instrument leg of a backtested trade.
type Leg struct {
	Symbol     string  `json:"symbol"`
	EntryPrice float64 `json:"entryPrice"`
	ExitPrice  float64 `json:"exitPrice"`
	Diff       float64 `json:"diff"`
}

// TradeRow is one backtested trade with its running PnL.
type TradeRow struct {
	Date          string  `json:"date"`
	EntryTime     string  `json:"entryTime"`
	ExitTime      string  `json:"exitTime"`
	Primary       Leg     `json:"primary"`
	Hedge         *Leg    `json:"hedge,omitempty"`
	PriceDiff     float64 `json:"priceDiff"`
	PnL           float64 `json:"pnl"`
	CumulativePnL float64 `json:"cumulativePnl"`
}

// Stats summarizes a backtest run. Pointer fields are nil when the server
// could not compute the value (no trades, zero variance).
type Stats struct {
	TradeCount int      `json:"tradeCount"`
	MeanPnL    *float64 `json:"meanPnl"`
	StdPnL     *float64 `json:"stdPnl"`
	AvgGapDays float64  `json:"avgGapDays"`
	Sharpe     *float64 `json:"sharpe"`
}

// BacktestResult is the server's response to a backtest call.
type BacktestResult struct {
	Instrument    string     `json:"instrument"`
	Hedge         string     `json:"hedge,omitempty"`
	Position      string     `json:"position"`
	SelectedDates int        `json:"selectedDates"`
	Trades        []TradeRow `json:"trades"`
	Stats         Stats      `json:"stats"`
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Instruments lists the instruments loaded on the server.
func (c *Client) Instruments(ctx context.Context) ([]string, error) {
	var out struct {
		Instruments []string `json:"instruments"`
	}
	if err := c.get(ctx, "/api/instruments", &out); err != nil {
		return nil, err
	}
	return out.Instruments, nil
}

// Times lists the distinct times-of-day observed for an instrument, as
// "15:04" strings.
func (c *Client) Times(ctx context.Context, instrument string) ([]string, error) {
	var out struct {
		Times []string `json:"times"`
	}
	if err := c.get(ctx, "/api/instruments/"+url.PathEscape(instrument)+"/times", &out); err != nil {
		return nil, err
	}
	return out.Times, nil
}

// Dates lists the distinct dates observed for an instrument, as "2006-01-02"
// strings.
func (c *Client) Dates(ctx context.Context, instrument string) ([]string, error) {
	var out struct {
		Dates []string `json:"dates"`
	}
	if err := c.get(ctx, "/api/instruments/"+url.PathEscape(instrument)+"/dates", &out); err != nil {
		return nil, err
	}
	return out.Dates, nil
}

// Filters lists the date-filter labels the server offers.
func (c *Client) Filters(ctx context.Context) ([]string, error) {
	var out struct {
		Filters []string `json:"filters"`
	}
	if err := c.get(ctx, "/api/filters", &out); err != nil {
		return nil, err
	}
	return out.Filters, nil
}

// Backtest runs a backtest on the server.
func (c *Client) Backtest(ctx context.Context, req BacktestRequest) (*BacktestResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/backtest", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var out BacktestResult
	if err := c.do(httpReq, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func readErrorMessage(r io.Reader) string {
	var body struct {
		Error string `json:"error"`
	}
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return ""
	}
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(raw))
}
