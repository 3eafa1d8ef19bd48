package insider

import (
	"fmt"

	"insiderwatch/internal/models"
)

// Score maps characteristics to a capped 0-100 suspicion score with an
// explainable breakdown. Pure and side-effect free; it never touches
// storage.
func Score(ch models.InsiderCharacteristics) models.InsiderScoreResult {
	base := 0
	bonus := 0
	features := []models.ScoreFeature{}
	bonuses := []models.ScoreFeature{}
	riskFactors := []string{}

	addFeature := func(weight int, name, description, risk string) {
		base += weight
		features = append(features, models.ScoreFeature{
			Feature:      name,
			Weight:       weight,
			Contribution: weight,
			Description:  description,
		})
		riskFactors = append(riskFactors, risk)
	}

	if ch.IsNewWallet {
		addFeature(WeightNewWallet, "New Wallet",
			fmt.Sprintf("Wallet age: %d days", ch.WalletAgeDays),
			"New wallet created recently")
	}
	if ch.HasNoHistory {
		addFeature(WeightNoHistory, "No History",
			fmt.Sprintf("Only %d trades", ch.TotalTradeCount),
			"Minimal trading history")
	}
	if ch.SingleSidedBet {
		addFeature(WeightSingleSidedBet, "Single-Sided Bet",
			fmt.Sprintf("YES ratio: %.1f%%", ch.YesBetRatio*100),
			"Only betting on one outcome")
	}
	if ch.LargePosition {
		addFeature(WeightLargePosition, "Large Position",
			fmt.Sprintf("Max trade: $%.2f", ch.MaxSingleTradeUsd),
			"Large position size")
	}
	if ch.TimingSensitive {
		desc := "Traded close to event time"
		if ch.HoursBeforeEvent != nil {
			desc = fmt.Sprintf("Traded %.1fh before event", *ch.HoursBeforeEvent)
		}
		addFeature(WeightTimingSensitive, "Timing Sensitive", desc,
			"Traded close to event time")
	}
	if ch.ShortDepositWindow {
		desc := "Deposited and traded quickly"
		if ch.DepositToTradeMinutes != nil {
			desc = fmt.Sprintf("Deposit to trade: %.0f minutes", *ch.DepositToTradeMinutes)
		}
		addFeature(WeightShortDepositWindow, "Short Deposit Window", desc,
			"Deposited and traded quickly")
	}
	if ch.LowPriceSensitivity {
		desc := "Price std dev below threshold"
		if ch.PriceStandardDeviation != nil {
			desc = fmt.Sprintf("Price std dev: %.4f", *ch.PriceStandardDeviation)
		}
		addFeature(WeightLowPriceSensitivity, "Low Price Sensitivity", desc,
			"Not price-sensitive")
	}
	if ch.TwoPhasePattern {
		addFeature(WeightTwoPhasePattern, "Two-Phase Pattern",
			"Failed trades followed by success",
			"Two-phase trading pattern")
	}

	if ch.ReturnMultiple >= ReturnMultipleBonusMin {
		bonus += BonusHighReturnMultiple
		bonuses = append(bonuses, models.ScoreFeature{
			Feature:      "High Return Multiple",
			Weight:       BonusHighReturnMultiple,
			Contribution: BonusHighReturnMultiple,
			Description:  fmt.Sprintf("Return: %.2fx", ch.ReturnMultiple),
		})
		riskFactors = append(riskFactors, "High return multiple")
	}
	if ch.MarketType == models.MarketTypePolitical {
		bonus += BonusPoliticalMarket
		bonuses = append(bonuses, models.ScoreFeature{
			Feature:      "Political Market",
			Weight:       BonusPoliticalMarket,
			Contribution: BonusPoliticalMarket,
			Description:  "Trading in political market",
		})
		riskFactors = append(riskFactors, "Trading in political market")
	}

	total := base + bonus
	if total > MaxScore {
		total = MaxScore
	}

	return models.InsiderScoreResult{
		Score:           total,
		Level:           Level(total),
		Characteristics: ch,
		Breakdown: models.ScoreBreakdown{
			BaseScore:  base,
			BonusScore: bonus,
			Features:   features,
			Bonuses:    bonuses,
		},
		RiskFactors: riskFactors,
	}
}

// Level is the deterministic step function from score to level.
func Level(score int) models.InsiderLevel {
	switch {
	case score >= ThresholdCritical:
		return models.LevelCritical
	case score >= ThresholdHigh:
		return models.LevelHigh
	case score >= ThresholdMedium:
		return models.LevelMedium
	default:
		return models.LevelLow
	}
}

// LevelColor is a display hint for clients rendering a level.
func LevelColor(level models.InsiderLevel) string {
	switch level {
	case models.LevelCritical:
		return "red"
	case models.LevelHigh:
		return "orange"
	case models.LevelMedium:
		return "yellow"
	case models.LevelLow:
		return "green"
	default:
		return "gray"
	}
}

// LevelDescription is a short human summary per level.
func LevelDescription(level models.InsiderLevel) string {
	switch level {
	case models.LevelCritical:
		return "Highly suspicious, needs close attention"
	case models.LevelHigh:
		return "Moderately suspicious, worth tracking"
	case models.LevelMedium:
		return "Slightly suspicious, possibly a speculator"
	case models.LevelLow:
		return "Normal trader"
	default:
		return "Unknown"
	}
}
