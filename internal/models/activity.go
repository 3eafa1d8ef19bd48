package models

import "github.com/shopspring/decimal"

// ActivityType mirrors the data-api activity feed event types.
type ActivityType string

const (
	ActivityTrade      ActivityType = "TRADE"
	ActivitySplit      ActivityType = "SPLIT"
	ActivityMerge      ActivityType = "MERGE"
	ActivityRedeem     ActivityType = "REDEEM"
	ActivityReward     ActivityType = "REWARD"
	ActivityConversion ActivityType = "CONVERSION"
)

// TradeSide is BUY or SELL.
type TradeSide string

const (
	SideBuy  TradeSide = "BUY"
	SideSell TradeSide = "SELL"
)

// ActivityItem is one event from a wallet's activity history.
type ActivityItem struct {
	Type        ActivityType    `json:"type"`
	Side        TradeSide       `json:"side,omitempty"`
	Outcome     string          `json:"outcome,omitempty"`
	Size        decimal.Decimal `json:"size"`
	Price       float64         `json:"price,omitempty"`
	UsdcValue   decimal.Decimal `json:"usdcValue"`
	Timestamp   int64           `json:"timestamp"` // epoch ms
	ConditionID string          `json:"conditionId,omitempty"`
	MarketTitle string          `json:"marketTitle,omitempty"`
}

// PositionItem is one current position held by a wallet.
type PositionItem struct {
	Title    string  `json:"title,omitempty"`
	AvgPrice float64 `json:"avgPrice"`
	CurPrice float64 `json:"curPrice"`
}

// MarketTrade is one recent trade within a market, used by the scan and
// the live trade watcher. ProxyWallet is the trading wallet.
type MarketTrade struct {
	ProxyWallet string          `json:"proxyWallet"`
	ConditionID string          `json:"conditionId"`
	Side        TradeSide       `json:"side"`
	Outcome     string          `json:"outcome,omitempty"`
	Size        decimal.Decimal `json:"size"`
	Price       float64         `json:"price"`
	UsdcValue   decimal.Decimal `json:"usdcValue"`
	Timestamp   int64           `json:"timestamp"` // epoch ms
}

// Market is the gamma metadata for one market.
type Market struct {
	ConditionID   string    `json:"conditionId"`
	Question      string    `json:"question"`
	Description   string    `json:"description,omitempty"`
	Slug          string    `json:"slug"`
	Volume24hr    float64   `json:"volume24hr"`
	OutcomePrices []float64 `json:"outcomePrices,omitempty"`
	ClobTokenIDs  []string  `json:"clobTokenIds,omitempty"`
	Active        bool      `json:"active"`
	EndDate       string    `json:"endDate,omitempty"`
}
