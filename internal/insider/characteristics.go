// Package insider derives behavioral characteristics from wallet history
// and converts them into a bounded, explainable suspicion score.
package insider

import (
	"math"
	"sort"
	"strings"
	"time"

	"insiderwatch/internal/models"
	"insiderwatch/internal/political"
)

// ExtractInput is everything an extraction run may look at. Extraction is
// total and pure: the same input always yields the same characteristics.
type ExtractInput struct {
	Activity  []models.ActivityItem
	Positions []models.PositionItem
	Now       time.Time
	// EventTimestamp enables the timing-sensitivity check; epoch ms.
	EventTimestamp *int64
}

// ExtractResult carries the characteristics plus the aggregates the
// candidate record and scan summaries need.
type ExtractResult struct {
	Characteristics models.InsiderCharacteristics
	TotalVolume     float64
	Markets         []string
	RecentTrades    []models.ActivityItem
}

const recentTradesCap = 20

// Extractor turns raw activity and positions into one characteristics
// record. The classifier is shared with the political market scan so the
// lexicons cannot drift apart.
type Extractor struct {
	Classifier *political.Classifier
}

func NewExtractor(classifier *political.Classifier) *Extractor {
	if classifier == nil {
		classifier = political.NewClassifier()
	}
	return &Extractor{Classifier: classifier}
}

func (e *Extractor) Extract(in ExtractInput) ExtractResult {
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	nowMs := now.UnixMilli()

	trades := make([]models.ActivityItem, 0, len(in.Activity))
	deposits := make([]models.ActivityItem, 0)
	firstActivity := nowMs
	for _, a := range in.Activity {
		if a.Timestamp < firstActivity {
			firstActivity = a.Timestamp
		}
		switch a.Type {
		case models.ActivityTrade:
			trades = append(trades, a)
		case models.ActivitySplit, models.ActivityConversion:
			deposits = append(deposits, a)
		}
	}

	walletAgeDays := int(math.Floor(float64(nowMs-firstActivity) / float64(24*time.Hour.Milliseconds())))
	if walletAgeDays < 0 {
		walletAgeDays = 0
	}

	yesCount := 0
	maxTradeUsd := 0.0
	totalVolume := 0.0
	markets := make([]string, 0, 4)
	seenMarkets := map[string]struct{}{}
	buyPrices := make([]float64, 0, len(trades))
	hasFailed := false
	hasSuccess := false
	for _, t := range trades {
		if isYesOutcome(t.Outcome) {
			yesCount++
		}
		usd := t.UsdcValue.InexactFloat64()
		if usd > maxTradeUsd {
			maxTradeUsd = usd
		}
		totalVolume += usd
		if t.ConditionID != "" {
			if _, ok := seenMarkets[t.ConditionID]; !ok {
				seenMarkets[t.ConditionID] = struct{}{}
				markets = append(markets, t.ConditionID)
			}
		}
		if t.Side == models.SideBuy && t.Price > 0 {
			buyPrices = append(buyPrices, t.Price)
		}
		if t.Price > 0 && t.Price < FailedTradeMaxPrice {
			hasFailed = true
		}
		if t.Price > SuccessTradeMinPrice {
			hasSuccess = true
		}
	}

	yesRatio := 0.5
	if len(trades) > 0 {
		yesRatio = float64(yesCount) / float64(len(trades))
	}

	var depositToTradeMinutes *float64
	firstTrade := earliestTimestamp(trades)
	firstDeposit := earliestTimestamp(deposits)
	if firstTrade != nil && firstDeposit != nil {
		minutes := float64(*firstTrade-*firstDeposit) / float64(time.Minute.Milliseconds())
		if minutes < 0 {
			minutes = 0
		}
		depositToTradeMinutes = &minutes
	}

	var priceStdDev *float64
	if len(buyPrices) >= 2 {
		sd := stdDev(buyPrices)
		priceStdDev = &sd
	}

	var hoursBeforeEvent *float64
	if in.EventTimestamp != nil && firstTrade != nil {
		hours := float64(*in.EventTimestamp-*firstTrade) / float64(time.Hour.Milliseconds())
		hoursBeforeEvent = &hours
	}

	returnMultiple := computeReturnMultiple(in.Positions)

	primaryTitle := ""
	if len(in.Positions) > 0 && in.Positions[0].Title != "" {
		primaryTitle = in.Positions[0].Title
	} else if len(trades) > 0 {
		primaryTitle = trades[0].MarketTitle
	}
	marketType := e.Classifier.MarketType(primaryTitle, "")

	ch := models.InsiderCharacteristics{
		IsNewWallet:    walletAgeDays < NewWalletMaxAgeDays,
		HasNoHistory:   len(trades) < MinTradeHistory,
		SingleSidedBet: yesRatio >= SingleSidedRatio || yesRatio <= 1-SingleSidedRatio,
		LargePosition: maxTradeUsd >= LargePositionUSD ||
			(totalVolume > 0 && maxTradeUsd/totalVolume > LargePositionVolumeShare),
		TimingSensitive:     hoursBeforeEvent != nil && *hoursBeforeEvent >= 0 && *hoursBeforeEvent <= TimingWindowHours,
		ShortDepositWindow:  depositToTradeMinutes != nil && *depositToTradeMinutes < DepositWindowMinutes,
		LowPriceSensitivity: priceStdDev != nil && *priceStdDev < PriceSensitivityStdDev,
		// Known heuristic looseness: the cheap and the dear trade are not
		// required to be ordered in time or to share a market.
		TwoPhasePattern: hasFailed && hasSuccess,

		WalletAgeDays:     walletAgeDays,
		TotalTradeCount:   len(trades),
		MaxSingleTradeUsd: maxTradeUsd,
		YesBetRatio:       yesRatio,

		HoursBeforeEvent:       hoursBeforeEvent,
		DepositToTradeMinutes:  depositToTradeMinutes,
		PriceStandardDeviation: priceStdDev,

		ReturnMultiple: returnMultiple,
		MarketType:     marketType,
	}

	recent := make([]models.ActivityItem, len(trades))
	copy(recent, trades)
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].Timestamp > recent[j].Timestamp })
	if len(recent) > recentTradesCap {
		recent = recent[:recentTradesCap]
	}

	return ExtractResult{
		Characteristics: ch,
		TotalVolume:     totalVolume,
		Markets:         markets,
		RecentTrades:    recent,
	}
}

func isYesOutcome(outcome string) bool {
	return strings.EqualFold(strings.TrimSpace(outcome), "yes")
}

func earliestTimestamp(items []models.ActivityItem) *int64 {
	if len(items) == 0 {
		return nil
	}
	earliest := items[0].Timestamp
	for _, it := range items[1:] {
		if it.Timestamp < earliest {
			earliest = it.Timestamp
		}
	}
	return &earliest
}

func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}

// computeReturnMultiple divides the first position's current price by the
// average entry price. Missing per-position prices fall back to 0.5; a
// zero average entry (no positions) guards to 0 instead of dividing.
func computeReturnMultiple(positions []models.PositionItem) float64 {
	avgEntry := 0.0
	for _, p := range positions {
		price := p.AvgPrice
		if price == 0 {
			price = 0.5
		}
		avgEntry += price
	}
	if len(positions) > 0 {
		avgEntry /= float64(len(positions))
	}

	current := 0.0
	if len(positions) > 0 {
		current = positions[0].CurPrice
	}
	if current == 0 {
		current = avgEntry
	}
	if current == 0 {
		current = 0.5
	}
	if avgEntry == 0 {
		return 0
	}
	return current / avgEntry
}
