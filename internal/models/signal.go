package models

// SignalType identifies what kind of insider event a signal reports.
type SignalType string

const (
	SignalInsiderNew        SignalType = "insider_new"
	SignalInsiderLargeTrade SignalType = "insider_large_trade"
	SignalInsiderCluster    SignalType = "insider_cluster"
)

// SignalSeverity is the coarse urgency label attached to a signal.
type SignalSeverity string

const (
	SeverityLow    SignalSeverity = "low"
	SeverityMedium SignalSeverity = "medium"
	SeverityHigh   SignalSeverity = "high"
)

// InsiderSignal is an append-only notification record. Nothing is ever
// mutated after emission except the Read flag.
type InsiderSignal struct {
	ID        string         `json:"id"`
	Type      SignalType     `json:"type"`
	Severity  SignalSeverity `json:"severity"`
	Timestamp int64          `json:"timestamp"` // epoch ms
	Read      bool           `json:"read"`

	Address     string  `json:"address,omitempty"`
	ConditionID string  `json:"conditionId,omitempty"`
	Score       int     `json:"score,omitempty"`
	TradeUsd    float64 `json:"tradeUsd,omitempty"`
	WalletCount int     `json:"walletCount,omitempty"`
	Message     string  `json:"message,omitempty"`
}

func (t SignalType) Valid() bool {
	switch t {
	case SignalInsiderNew, SignalInsiderLargeTrade, SignalInsiderCluster:
		return true
	}
	return false
}

func (s SignalSeverity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}
