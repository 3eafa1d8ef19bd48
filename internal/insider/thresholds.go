package insider

// Detection thresholds. Derived from the Venezuela/Greenland case studies;
// tune with care, the score weights below assume these cutoffs.
const (
	NewWalletMaxAgeDays      = 7
	MinTradeHistory          = 3
	SingleSidedRatio         = 0.9
	LargePositionUSD         = 1000.0
	LargePositionVolumeShare = 0.5
	TimingWindowHours        = 24.0
	DepositWindowMinutes     = 1440.0
	PriceSensitivityStdDev   = 0.05
	ReturnMultipleBonusMin   = 5.0
	FailedTradeMaxPrice      = 0.02
	SuccessTradeMinPrice     = 0.05
)

// Feature weights and bonuses for the scoring engine.
const (
	WeightNewWallet           = 15
	WeightNoHistory           = 10
	WeightSingleSidedBet      = 20
	WeightLargePosition       = 15
	WeightTimingSensitive     = 10
	WeightShortDepositWindow  = 25
	WeightLowPriceSensitivity = 10
	WeightTwoPhasePattern     = 15

	BonusHighReturnMultiple = 10
	BonusPoliticalMarket    = 5

	MaxScore = 100
)

// Score thresholds. ThresholdHigh gates candidate persistence;
// ThresholdCritical drives the store's highScoreCount metadata.
const (
	ThresholdMedium   = 40
	ThresholdHigh     = 60
	ThresholdCritical = 80
)
