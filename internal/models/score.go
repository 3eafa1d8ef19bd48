package models

// InsiderLevel is a step function of the insider score.
type InsiderLevel string

const (
	LevelLow      InsiderLevel = "low"
	LevelMedium   InsiderLevel = "medium"
	LevelHigh     InsiderLevel = "high"
	LevelCritical InsiderLevel = "critical"
)

// ScoreFeature is one triggered feature or bonus in a score breakdown.
// Untriggered features are omitted, never listed with a zero contribution.
type ScoreFeature struct {
	Feature      string `json:"feature"`
	Weight       int    `json:"weight"`
	Contribution int    `json:"contribution"`
	Description  string `json:"description"`
}

// ScoreBreakdown separates base features from bonuses with named totals.
type ScoreBreakdown struct {
	BaseScore  int            `json:"baseScore"`
	BonusScore int            `json:"bonusScore"`
	Features   []ScoreFeature `json:"features"`
	Bonuses    []ScoreFeature `json:"bonuses"`
}

// InsiderScoreResult is the full output of the scoring engine.
type InsiderScoreResult struct {
	Score           int                    `json:"score"`
	Level           InsiderLevel           `json:"level"`
	Characteristics InsiderCharacteristics `json:"characteristics"`
	Breakdown       ScoreBreakdown         `json:"breakdown"`
	RiskFactors     []string               `json:"riskFactors"`
}
