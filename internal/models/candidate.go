package models

// InsiderCandidate is a wallet whose score crossed the persistence
// threshold. Keyed by lowercase address: at most one record per wallet,
// overwritten on every qualifying re-analysis.
type InsiderCandidate struct {
	Address         string                 `json:"address"`
	Score           int                    `json:"score"`
	Level           InsiderLevel           `json:"level"`
	AnalyzedAt      int64                  `json:"analyzedAt"` // epoch ms
	Characteristics InsiderCharacteristics `json:"characteristics"`
	Markets         []string               `json:"markets"`
	TotalVolume     float64                `json:"totalVolume"`
	WalletAge       int                    `json:"walletAge"`
	PotentialProfit float64                `json:"potentialProfit"`
	Tags            []string               `json:"tags"`
}

// CandidateStoreMetadata is recomputed on every write, never cached stale.
type CandidateStoreMetadata struct {
	LastScanAt      int64 `json:"lastScanAt"` // epoch ms
	TotalCandidates int   `json:"totalCandidates"`
	HighScoreCount  int   `json:"highScoreCount"`
}

// CandidateDocument is the single JSON document backing the candidate store.
type CandidateDocument struct {
	Version    int                         `json:"version"`
	Candidates map[string]InsiderCandidate `json:"candidates"`
	Metadata   CandidateStoreMetadata      `json:"metadata"`
}
