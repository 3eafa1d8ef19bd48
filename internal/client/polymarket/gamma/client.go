// Package polymarketgamma wraps the Gamma markets API. Gamma encodes a
// few list fields as JSON strings inside the JSON body; this client
// decodes them into typed models.
package polymarketgamma

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"insiderwatch/internal/models"
)

const defaultHost = "https://gamma-api.polymarket.com"

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

// marketWire is one Gamma market row. OutcomePrices arrives as a JSON
// string holding an array of decimal strings.
type marketWire struct {
	ConditionID   string  `json:"conditionId"`
	Question      string  `json:"question"`
	Description   string  `json:"description"`
	Slug          string  `json:"slug"`
	Volume24hr    float64 `json:"volume24hr"`
	OutcomePrices string  `json:"outcomePrices"`
	ClobTokenIDs  string  `json:"clobTokenIds"`
	Active        bool    `json:"active"`
	EndDate       string  `json:"endDate"`
}

// GetMarketsParams narrows a market listing. Zero values are omitted.
type GetMarketsParams struct {
	Active *bool
	Closed *bool
	Limit  int
	Offset int
	Order  string // e.g. "volume24hr"
}

// GetMarkets lists markets with the given filters.
func (c *Client) GetMarkets(ctx context.Context, params GetMarketsParams) ([]models.Market, error) {
	query := url.Values{}
	if params.Active != nil {
		query.Set("active", strconv.FormatBool(*params.Active))
	}
	if params.Closed != nil {
		query.Set("closed", strconv.FormatBool(*params.Closed))
	}
	if params.Limit > 0 {
		query.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Offset > 0 {
		query.Set("offset", strconv.Itoa(params.Offset))
	}
	if params.Order != "" {
		query.Set("order", params.Order)
		query.Set("ascending", "false")
	}
	body, err := c.doRequest(ctx, "/markets", query)
	if err != nil {
		return nil, err
	}

	var rows []marketWire
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse markets: %w", err)
	}

	markets := make([]models.Market, 0, len(rows))
	for _, r := range rows {
		markets = append(markets, models.Market{
			ConditionID:   r.ConditionID,
			Question:      r.Question,
			Description:   r.Description,
			Slug:          r.Slug,
			Volume24hr:    r.Volume24hr,
			OutcomePrices: parseOutcomePrices(r.OutcomePrices),
			ClobTokenIDs:  parseTokenIDs(r.ClobTokenIDs),
			Active:        r.Active,
			EndDate:       r.EndDate,
		})
	}
	return markets, nil
}

// GetMarket fetches one market by condition ID.
func (c *Client) GetMarket(ctx context.Context, conditionID string) (*models.Market, error) {
	if conditionID == "" {
		return nil, fmt.Errorf("condition_id is required")
	}
	query := url.Values{}
	query.Set("condition_ids", conditionID)
	body, err := c.doRequest(ctx, "/markets", query)
	if err != nil {
		return nil, err
	}

	var rows []marketWire
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse market: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	r := rows[0]
	return &models.Market{
		ConditionID:   r.ConditionID,
		Question:      r.Question,
		Description:   r.Description,
		Slug:          r.Slug,
		Volume24hr:    r.Volume24hr,
		OutcomePrices: parseOutcomePrices(r.OutcomePrices),
		ClobTokenIDs:  parseTokenIDs(r.ClobTokenIDs),
		Active:        r.Active,
		EndDate:       r.EndDate,
	}, nil
}

func parseTokenIDs(encoded string) []string {
	if encoded == "" {
		return nil
	}
	var raw []string
	if err := json.Unmarshal([]byte(encoded), &raw); err != nil {
		return nil
	}
	return raw
}

func parseOutcomePrices(encoded string) []float64 {
	if encoded == "" {
		return nil
	}
	var raw []string
	if err := json.Unmarshal([]byte(encoded), &raw); err != nil {
		return nil
	}
	prices := make([]float64, 0, len(raw))
	for _, s := range raw {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		prices = append(prices, v)
	}
	return prices
}
