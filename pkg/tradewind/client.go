// Package tradewind provides a Go SDK for the tradewind-trader HTTP API.
package tradewind

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client provides a Go SDK for interacting with the tradewind-trader API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new tradewind API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// ---------------------------------------------------------------------------
// Wire types
// ---------------------------------------------------------------------------

// Order mirrors the server's order representation.
type Order struct {
	ID           string        `json:"id"`
	ParentID     string        `json:"parent_id,omitempty"`
	Symbol       string        `json:"symbol"`
	Side         string        `json:"side"`
	Type         string        `json:"type"`
	Status       string        `json:"status"`
	Qty          float64       `json:"qty"`
	FilledQty    float64       `json:"filled_qty"`
	LimitPrice   float64       `json:"limit_price,omitempty"`
	TWAPSlices   int           `json:"twap_slices,omitempty"`
	TWAPDuration time.Duration `json:"twap_duration,omitempty"`
	VisibleQty   float64       `json:"visible_qty,omitempty"`
	Reason       string        `json:"reason,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Position mirrors the server's position representation.
type Position struct {
	Symbol    string    `json:"symbol"`
	Qty       float64   `json:"qty"`
	AvgCost   float64   `json:"avg_cost"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RiskStats mirrors the risk engine's validation counters.
type RiskStats struct {
	Validations uint64 `json:"validations"`
	Approved    uint64 `json:"approved"`
	Rejected    uint64 `json:"rejected"`
}

// SubmitOrderRequest is the order submission payload. Durations are Go
// duration strings ("5m", "90s").
type SubmitOrderRequest struct {
	Symbol       string  `json:"symbol"`
	Side         string  `json:"side"`
	Type         string  `json:"type"`
	Qty          float64 `json:"qty"`
	LimitPrice   float64 `json:"limit_price,omitempty"`
	TWAPSlices   int     `json:"twap_slices,omitempty"`
	TWAPDuration string  `json:"twap_duration,omitempty"`
	VisibleQty   float64 `json:"visible_qty,omitempty"`
}

// OrderDetail is an order with, for parents, its children.
type OrderDetail struct {
	Order    Order   `json:"order"`
	Children []Order `json:"children,omitempty"`
}

type ordersResponse struct {
	Orders []Order `json:"orders"`
}

type positionsResponse struct {
	Positions []Position `json:"positions"`
}

// RefData carries risk reference-data updates. Only non-nil fields are
// applied by the server.
type RefData struct {
	ADV           map[string]float64 `json:"adv,omitempty"`
	TotalNAV      *float64           `json:"total_nav,omitempty"`
	PnL           *float64           `json:"pnl,omitempty"`
	StartOfDayNAV *float64           `json:"start_of_day_nav,omitempty"`
}

type pricesRequest struct {
	Prices map[string]float64 `json:"prices"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ---------------------------------------------------------------------------
// Operations
// ---------------------------------------------------------------------------

// SubmitOrder submits a new parent order and returns its accepted state.
func (c *Client) SubmitOrder(ctx context.Context, req SubmitOrderRequest) (*Order, error) {
	var detail OrderDetail
	if err := c.do(ctx, http.MethodPost, "/api/v1/orders", req, &detail); err != nil {
		return nil, err
	}
	return &detail.Order, nil
}

// GetOrder retrieves one order and, for parents, its children.
func (c *Client) GetOrder(ctx context.Context, id string) (*OrderDetail, error) {
	var detail OrderDetail
	if err := c.do(ctx, http.MethodGet, "/api/v1/orders/"+id, nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListOrders retrieves all orders, optionally filtered by status.
func (c *Client) ListOrders(ctx context.Context, status string) ([]Order, error) {
	path := "/api/v1/orders"
	if status != "" {
		path += "?status=" + status
	}
	var resp ordersResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Orders, nil
}

// CancelOrder requests cancellation of a parent order.
func (c *Client) CancelOrder(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/orders/"+id, nil, nil)
}

// GetPositions retrieves current positions.
func (c *Client) GetPositions(ctx context.Context) ([]Position, error) {
	var resp positionsResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/positions", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Positions, nil
}

// GetRiskStats retrieves the risk engine's validation counters.
func (c *Client) GetRiskStats(ctx context.Context) (*RiskStats, error) {
	var stats RiskStats
	if err := c.do(ctx, http.MethodGet, "/api/v1/risk/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// UpdateRefData pushes risk reference data (ADV, NAV, PnL) to the server.
func (c *Client) UpdateRefData(ctx context.Context, data RefData) error {
	return c.do(ctx, http.MethodPost, "/api/v1/risk/refdata", data, nil)
}

// UpdatePrices pushes market prices to the server's price feed.
func (c *Client) UpdatePrices(ctx context.Context, prices map[string]float64) error {
	return c.do(ctx, http.MethodPost, "/api/v1/prices", pricesRequest{Prices: prices}, nil)
}

// do performs one request/response cycle. A non-2xx status is returned as an
// error carrying the server's message.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e errorResponse
		if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Error != "" {
			return fmt.Errorf("%s %s: %s (status %d)", method, path, e.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
