// Package polymarketdata wraps the Polymarket data-api endpoints the
// engine consumes: wallet activity, wallet positions, and market trades.
package polymarketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"insiderwatch/internal/models"
)

const defaultHost = "https://data-api.polymarket.com"

type Client struct {
	host       string
	httpClient *http.Client
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.Status, e.Body)
}

func NewClient(httpClient *http.Client, host string) *Client {
	if host == "" {
		host = defaultHost
	}
	host = strings.TrimRight(host, "/")
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		host:       host,
		httpClient: httpClient,
	}
}

func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	fullURL := c.host + path
	if len(query) > 0 {
		fullURL = fullURL + "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// activityWire is one data-api activity row. Timestamps are unix seconds
// on the wire.
type activityWire struct {
	Type      string  `json:"type"`
	Side      string  `json:"side"`
	Outcome   string  `json:"outcome"`
	Size      float64 `json:"size"`
	Price     float64 `json:"price"`
	UsdcSize  float64 `json:"usdcSize"`
	Timestamp int64   `json:"timestamp"`

	ConditionID string `json:"conditionId"`
	Title       string `json:"title"`
}

type positionWire struct {
	Title    string  `json:"title"`
	AvgPrice float64 `json:"avgPrice"`
	CurPrice float64 `json:"curPrice"`
}

type tradeWire struct {
	ProxyWallet string  `json:"proxyWallet"`
	ConditionID string  `json:"conditionId"`
	Side        string  `json:"side"`
	Outcome     string  `json:"outcome"`
	Size        float64 `json:"size"`
	Price       float64 `json:"price"`
	Timestamp   int64   `json:"timestamp"`
}

// GetActivity returns a wallet's activity feed, newest-first per the API.
func (c *Client) GetActivity(ctx context.Context, address string, limit int) ([]models.ActivityItem, error) {
	if address == "" {
		return nil, fmt.Errorf("address is required")
	}
	query := url.Values{}
	query.Set("user", address)
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	body, err := c.doRequest(ctx, "/activity", query)
	if err != nil {
		return nil, err
	}

	var rows []activityWire
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse activity: %w", err)
	}

	items := make([]models.ActivityItem, 0, len(rows))
	for _, r := range rows {
		usd := r.UsdcSize
		if usd == 0 {
			usd = r.Size * r.Price
		}
		items = append(items, models.ActivityItem{
			Type:        models.ActivityType(r.Type),
			Side:        models.TradeSide(r.Side),
			Outcome:     r.Outcome,
			Size:        decimal.NewFromFloat(r.Size),
			Price:       r.Price,
			UsdcValue:   decimal.NewFromFloat(usd),
			Timestamp:   r.Timestamp * 1000,
			ConditionID: r.ConditionID,
			MarketTitle: r.Title,
		})
	}
	return items, nil
}

// GetPositions returns a wallet's currently open positions.
func (c *Client) GetPositions(ctx context.Context, address string) ([]models.PositionItem, error) {
	if address == "" {
		return nil, fmt.Errorf("address is required")
	}
	query := url.Values{}
	query.Set("user", address)
	body, err := c.doRequest(ctx, "/positions", query)
	if err != nil {
		return nil, err
	}

	var rows []positionWire
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse positions: %w", err)
	}

	items := make([]models.PositionItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, models.PositionItem{
			Title:    r.Title,
			AvgPrice: r.AvgPrice,
			CurPrice: r.CurPrice,
		})
	}
	return items, nil
}

// GetMarketTrades returns recent trades for one market.
func (c *Client) GetMarketTrades(ctx context.Context, conditionID string, limit int) ([]models.MarketTrade, error) {
	if conditionID == "" {
		return nil, fmt.Errorf("condition_id is required")
	}
	query := url.Values{}
	query.Set("market", conditionID)
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	body, err := c.doRequest(ctx, "/trades", query)
	if err != nil {
		return nil, err
	}

	var rows []tradeWire
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse trades: %w", err)
	}

	trades := make([]models.MarketTrade, 0, len(rows))
	for _, r := range rows {
		trades = append(trades, models.MarketTrade{
			ProxyWallet: strings.ToLower(r.ProxyWallet),
			ConditionID: r.ConditionID,
			Side:        models.TradeSide(r.Side),
			Outcome:     r.Outcome,
			Size:        decimal.NewFromFloat(r.Size),
			Price:       r.Price,
			UsdcValue:   decimal.NewFromFloat(r.Size * r.Price),
			Timestamp:   r.Timestamp * 1000,
		})
	}
	return trades, nil
}
