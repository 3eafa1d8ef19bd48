package models

// TagCategory is the closed set of tag groupings for wallet classification.
type TagCategory string

const (
	TagCategoryTradingStyle     TagCategory = "trading-style"
	TagCategoryMarketPreference TagCategory = "market-preference"
	TagCategoryScale            TagCategory = "scale"
	TagCategoryPerformance      TagCategory = "performance"
	TagCategoryActivity         TagCategory = "activity"
	TagCategoryRiskProfile      TagCategory = "risk-profile"
	TagCategorySpecial          TagCategory = "special"
)

func TagCategories() []TagCategory {
	return []TagCategory{
		TagCategoryTradingStyle,
		TagCategoryMarketPreference,
		TagCategoryScale,
		TagCategoryPerformance,
		TagCategoryActivity,
		TagCategoryRiskProfile,
		TagCategorySpecial,
	}
}

func (c TagCategory) Valid() bool {
	for _, known := range TagCategories() {
		if c == known {
			return true
		}
	}
	return false
}

// TagDefinition is one entry of the controlled tag vocabulary. Predefined
// tags are created by "system"; agent-added ones by "agent".
type TagDefinition struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Category    TagCategory `json:"category"`
	Criteria    string      `json:"criteria,omitempty"`
	CreatedBy   string      `json:"createdBy"`
	CreatedAt   int64       `json:"createdAt"` // epoch ms
}

// ClassificationMetrics captures the analysis numbers behind a classification.
type ClassificationMetrics struct {
	TotalPnL        *float64 `json:"totalPnL,omitempty"`
	WinRate         *float64 `json:"winRate,omitempty"`
	PrimaryCategory string   `json:"primaryCategory,omitempty"`
	TradeCount      *int     `json:"tradeCount,omitempty"`
	AvgHoldingDays  *float64 `json:"avgHoldingDays,omitempty"`
}

// WalletClassification maps a wallet address to a set of tag IDs.
type WalletClassification struct {
	Address    string                 `json:"address"`
	Tags       []string               `json:"tags"`
	Confidence float64                `json:"confidence"`
	AnalyzedAt int64                  `json:"analyzedAt"` // epoch ms
	AnalyzedBy string                 `json:"analyzedBy"`
	Metrics    *ClassificationMetrics `json:"metrics,omitempty"`
	Notes      string                 `json:"notes,omitempty"`
}

// ClassificationDocument backs the classification store. Only agent-added
// tag definitions are persisted; the predefined vocabulary is code.
type ClassificationDocument struct {
	Version int                             `json:"version"`
	Tags    map[string]TagDefinition        `json:"tags"`
	Wallets map[string]WalletClassification `json:"wallets"`
}
