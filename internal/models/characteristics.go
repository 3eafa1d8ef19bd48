package models

// MarketType is the coarse category of the market a wallet primarily trades.
type MarketType string

const (
	MarketTypeStandard  MarketType = "standard"
	MarketTypePolitical MarketType = "political"
	MarketTypeCrypto    MarketType = "crypto"
	MarketTypeSports    MarketType = "sports"
	MarketTypeOther     MarketType = "other"
)

// InsiderCharacteristics is one analysis run over a wallet's history.
// Every boolean flag is derived from the scalar fields by a pure predicate;
// the optional pointers stay nil when the underlying data was unavailable.
type InsiderCharacteristics struct {
	IsNewWallet         bool `json:"isNewWallet"`
	HasNoHistory        bool `json:"hasNoHistory"`
	SingleSidedBet      bool `json:"singleSidedBet"`
	LargePosition       bool `json:"largePosition"`
	TimingSensitive     bool `json:"timingSensitive"`
	ShortDepositWindow  bool `json:"shortDepositWindow"`
	LowPriceSensitivity bool `json:"lowPriceSensitivity"`
	TwoPhasePattern     bool `json:"twoPhasePattern"`

	WalletAgeDays     int     `json:"walletAgeDays"`
	TotalTradeCount   int     `json:"totalTradeCount"`
	MaxSingleTradeUsd float64 `json:"maxSingleTradeUsd"`
	YesBetRatio       float64 `json:"yesBetRatio"`

	HoursBeforeEvent       *float64 `json:"hoursBeforeEvent,omitempty"`
	DepositToTradeMinutes  *float64 `json:"depositToTradeMinutes,omitempty"`
	PriceStandardDeviation *float64 `json:"priceStandardDeviation,omitempty"`

	ReturnMultiple float64    `json:"returnMultiple"`
	MarketType     MarketType `json:"marketType,omitempty"`
}
