package insider

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"insiderwatch/internal/models"
	"insiderwatch/internal/political"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func ms(t time.Time) int64 { return t.UnixMilli() }

func trade(ts time.Time, side models.TradeSide, outcome string, price, usd float64) models.ActivityItem {
	return models.ActivityItem{
		Type:        models.ActivityTrade,
		Side:        side,
		Outcome:     outcome,
		Price:       price,
		UsdcValue:   decimal.NewFromFloat(usd),
		Timestamp:   ms(ts),
		ConditionID: "0xcond",
		MarketTitle: "Will the incumbent win the election?",
	}
}

func TestExtractEmptyActivity(t *testing.T) {
	e := NewExtractor(political.NewClassifier())
	res := e.Extract(ExtractInput{Now: testNow})
	ch := res.Characteristics
	if !ch.IsNewWallet {
		t.Fatalf("empty wallet should read as new")
	}
	if !ch.HasNoHistory {
		t.Fatalf("empty wallet should have no history")
	}
	if ch.YesBetRatio != 0.5 {
		t.Fatalf("yes ratio = %v, want 0.5 default", ch.YesBetRatio)
	}
	if ch.SingleSidedBet {
		t.Fatalf("default ratio must not count as single sided")
	}
	if ch.ShortDepositWindow || ch.DepositToTradeMinutes != nil {
		t.Fatalf("deposit window must be absent without both deposit and trade")
	}
	if ch.PriceStandardDeviation != nil || ch.LowPriceSensitivity {
		t.Fatalf("price std dev must need at least two buy prices")
	}
	if ch.ReturnMultiple != 0 {
		t.Fatalf("returnMultiple = %v, want 0 without positions", ch.ReturnMultiple)
	}
	if res.TotalVolume != 0 || len(res.Markets) != 0 || len(res.RecentTrades) != 0 {
		t.Fatalf("unexpected aggregates: %+v", res)
	}
}

func TestExtractWalletAge(t *testing.T) {
	e := NewExtractor(nil)
	tests := []struct {
		name    string
		ageDays float64
		wantAge int
		wantNew bool
	}{
		{"hours old", 0.5, 0, true},
		{"six days", 6.9, 6, true},
		{"exactly seven", 7.0, 7, false},
		{"a month", 30, 30, false},
	}
	for _, tt := range tests {
		first := testNow.Add(-time.Duration(tt.ageDays * 24 * float64(time.Hour)))
		res := e.Extract(ExtractInput{
			Activity: []models.ActivityItem{trade(first, models.SideBuy, "Yes", 0.4, 10)},
			Now:      testNow,
		})
		ch := res.Characteristics
		if ch.WalletAgeDays != tt.wantAge {
			t.Fatalf("%s: walletAgeDays = %d, want %d", tt.name, ch.WalletAgeDays, tt.wantAge)
		}
		if ch.IsNewWallet != tt.wantNew {
			t.Fatalf("%s: isNewWallet = %v, want %v", tt.name, ch.IsNewWallet, tt.wantNew)
		}
	}
}

func TestExtractSingleSidedBet(t *testing.T) {
	e := NewExtractor(nil)
	base := testNow.Add(-48 * time.Hour)

	mk := func(outcomes ...string) []models.ActivityItem {
		items := make([]models.ActivityItem, 0, len(outcomes))
		for i, o := range outcomes {
			items = append(items, trade(base.Add(time.Duration(i)*time.Minute), models.SideBuy, o, 0.4, 10))
		}
		return items
	}

	tests := []struct {
		name string
		acts []models.ActivityItem
		want bool
	}{
		{"all yes", mk("Yes", "yes", "YES"), true},
		{"all no", mk("No", "No", "No"), true},
		{"nine of ten yes", mk("Yes", "Yes", "Yes", "Yes", "Yes", "Yes", "Yes", "Yes", "Yes", "No"), true},
		{"mixed", mk("Yes", "No", "Yes", "No"), false},
	}
	for _, tt := range tests {
		ch := e.Extract(ExtractInput{Activity: tt.acts, Now: testNow}).Characteristics
		if ch.SingleSidedBet != tt.want {
			t.Fatalf("%s: singleSidedBet = %v (ratio %v), want %v", tt.name, ch.SingleSidedBet, ch.YesBetRatio, tt.want)
		}
	}
}

func TestExtractLargePosition(t *testing.T) {
	e := NewExtractor(nil)
	base := testNow.Add(-48 * time.Hour)

	tests := []struct {
		name string
		usd  []float64
		want bool
	}{
		{"absolute threshold", []float64{1000, 50, 50}, true},
		{"just below threshold balanced", []float64{400, 400, 400}, false},
		{"volume share", []float64{600, 100, 100}, true},
		{"small trades", []float64{20, 30, 25}, false},
	}
	for _, tt := range tests {
		acts := make([]models.ActivityItem, 0, len(tt.usd))
		for i, u := range tt.usd {
			acts = append(acts, trade(base.Add(time.Duration(i)*time.Minute), models.SideBuy, "Yes", 0.4, u))
		}
		ch := e.Extract(ExtractInput{Activity: acts, Now: testNow}).Characteristics
		if ch.LargePosition != tt.want {
			t.Fatalf("%s: largePosition = %v, want %v", tt.name, ch.LargePosition, tt.want)
		}
	}
}

func TestExtractDepositWindow(t *testing.T) {
	e := NewExtractor(nil)
	depositAt := testNow.Add(-72 * time.Hour)

	deposit := models.ActivityItem{
		Type:      models.ActivitySplit,
		UsdcValue: decimal.NewFromInt(500),
		Timestamp: ms(depositAt),
	}

	tests := []struct {
		name        string
		tradeAfter  time.Duration
		wantMinutes float64
		wantShort   bool
	}{
		{"ten minutes", 10 * time.Minute, 10, true},
		{"just inside a day", 1439 * time.Minute, 1439, true},
		{"exactly a day", 1440 * time.Minute, 1440, false},
		{"two days", 48 * time.Hour, 2880, false},
	}
	for _, tt := range tests {
		acts := []models.ActivityItem{
			deposit,
			trade(depositAt.Add(tt.tradeAfter), models.SideBuy, "Yes", 0.4, 100),
		}
		ch := e.Extract(ExtractInput{Activity: acts, Now: testNow}).Characteristics
		if ch.DepositToTradeMinutes == nil {
			t.Fatalf("%s: depositToTradeMinutes missing", tt.name)
		}
		if math.Abs(*ch.DepositToTradeMinutes-tt.wantMinutes) > 1e-9 {
			t.Fatalf("%s: minutes = %v, want %v", tt.name, *ch.DepositToTradeMinutes, tt.wantMinutes)
		}
		if ch.ShortDepositWindow != tt.wantShort {
			t.Fatalf("%s: shortDepositWindow = %v, want %v", tt.name, ch.ShortDepositWindow, tt.wantShort)
		}
	}
}

func TestExtractDepositWindowClampsNegative(t *testing.T) {
	e := NewExtractor(nil)
	tradeAt := testNow.Add(-72 * time.Hour)
	acts := []models.ActivityItem{
		trade(tradeAt, models.SideBuy, "Yes", 0.4, 100),
		{Type: models.ActivitySplit, UsdcValue: decimal.NewFromInt(500), Timestamp: ms(tradeAt.Add(2 * time.Hour))},
	}
	ch := e.Extract(ExtractInput{Activity: acts, Now: testNow}).Characteristics
	if ch.DepositToTradeMinutes == nil || *ch.DepositToTradeMinutes != 0 {
		t.Fatalf("trade before deposit should clamp to 0, got %v", ch.DepositToTradeMinutes)
	}
}

func TestExtractPriceSensitivity(t *testing.T) {
	e := NewExtractor(nil)
	base := testNow.Add(-48 * time.Hour)

	mk := func(prices ...float64) []models.ActivityItem {
		acts := make([]models.ActivityItem, 0, len(prices))
		for i, p := range prices {
			acts = append(acts, trade(base.Add(time.Duration(i)*time.Minute), models.SideBuy, "Yes", p, 100))
		}
		return acts
	}

	ch := e.Extract(ExtractInput{Activity: mk(0.40, 0.41, 0.42), Now: testNow}).Characteristics
	if ch.PriceStandardDeviation == nil || !ch.LowPriceSensitivity {
		t.Fatalf("tight buy prices should flag low sensitivity, got %+v", ch)
	}

	ch = e.Extract(ExtractInput{Activity: mk(0.10, 0.50, 0.90), Now: testNow}).Characteristics
	if ch.PriceStandardDeviation == nil || ch.LowPriceSensitivity {
		t.Fatalf("spread buy prices must not flag, stddev %v", *ch.PriceStandardDeviation)
	}

	ch = e.Extract(ExtractInput{Activity: mk(0.40), Now: testNow}).Characteristics
	if ch.PriceStandardDeviation != nil || ch.LowPriceSensitivity {
		t.Fatalf("single buy price must not produce a std dev")
	}
}

func TestExtractTimingSensitive(t *testing.T) {
	e := NewExtractor(nil)
	firstTrade := testNow.Add(-48 * time.Hour)
	acts := []models.ActivityItem{trade(firstTrade, models.SideBuy, "Yes", 0.4, 100)}

	tests := []struct {
		name  string
		event time.Time
		want  bool
	}{
		{"six hours before event", firstTrade.Add(6 * time.Hour), true},
		{"exactly 24h before", firstTrade.Add(24 * time.Hour), true},
		{"25h before", firstTrade.Add(25 * time.Hour), false},
		{"trade after event", firstTrade.Add(-time.Hour), false},
	}
	for _, tt := range tests {
		ev := ms(tt.event)
		ch := e.Extract(ExtractInput{Activity: acts, Now: testNow, EventTimestamp: &ev}).Characteristics
		if ch.TimingSensitive != tt.want {
			t.Fatalf("%s: timingSensitive = %v, want %v", tt.name, ch.TimingSensitive, tt.want)
		}
	}

	ch := e.Extract(ExtractInput{Activity: acts, Now: testNow}).Characteristics
	if ch.TimingSensitive || ch.HoursBeforeEvent != nil {
		t.Fatalf("missing event timestamp must not flag timing")
	}
}

func TestExtractTwoPhasePattern(t *testing.T) {
	e := NewExtractor(nil)
	base := testNow.Add(-48 * time.Hour)

	cheap := trade(base, models.SideBuy, "Yes", 0.01, 10)
	dear := trade(base.Add(time.Hour), models.SideBuy, "Yes", 0.30, 500)
	mid := trade(base.Add(2*time.Hour), models.SideBuy, "Yes", 0.04, 50)

	ch := e.Extract(ExtractInput{Activity: []models.ActivityItem{cheap, dear}, Now: testNow}).Characteristics
	if !ch.TwoPhasePattern {
		t.Fatalf("cheap entry plus committed trade should flag two-phase")
	}

	ch = e.Extract(ExtractInput{Activity: []models.ActivityItem{cheap, mid}, Now: testNow}).Characteristics
	if ch.TwoPhasePattern {
		t.Fatalf("no trade above the success threshold must not flag")
	}

	ch = e.Extract(ExtractInput{Activity: []models.ActivityItem{dear, mid}, Now: testNow}).Characteristics
	if ch.TwoPhasePattern {
		t.Fatalf("no trade below the failure threshold must not flag")
	}
}

func TestExtractReturnMultiple(t *testing.T) {
	e := NewExtractor(nil)
	tests := []struct {
		name      string
		positions []models.PositionItem
		want      float64
	}{
		{"no positions", nil, 0},
		{"doubled", []models.PositionItem{{Title: "m", AvgPrice: 0.25, CurPrice: 0.50}}, 2},
		{"missing prices fall back", []models.PositionItem{{Title: "m"}}, 1},
		{"current falls back to entry", []models.PositionItem{{Title: "m", AvgPrice: 0.4}}, 1},
	}
	for _, tt := range tests {
		ch := e.Extract(ExtractInput{Positions: tt.positions, Now: testNow}).Characteristics
		if math.Abs(ch.ReturnMultiple-tt.want) > 1e-9 {
			t.Fatalf("%s: returnMultiple = %v, want %v", tt.name, ch.ReturnMultiple, tt.want)
		}
	}
}

func TestExtractAggregates(t *testing.T) {
	e := NewExtractor(nil)
	base := testNow.Add(-time.Hour * 48)

	acts := make([]models.ActivityItem, 0, recentTradesCap+5)
	for i := 0; i < recentTradesCap+5; i++ {
		a := trade(base.Add(time.Duration(i)*time.Minute), models.SideBuy, "Yes", 0.4, 10)
		a.ConditionID = "0xcond" + string(rune('a'+i%3))
		acts = append(acts, a)
	}
	res := e.Extract(ExtractInput{Activity: acts, Now: testNow})

	if len(res.Markets) != 3 {
		t.Fatalf("markets = %d, want 3 distinct", len(res.Markets))
	}
	if math.Abs(res.TotalVolume-float64((recentTradesCap+5)*10)) > 1e-9 {
		t.Fatalf("totalVolume = %v", res.TotalVolume)
	}
	if len(res.RecentTrades) != recentTradesCap {
		t.Fatalf("recentTrades = %d, want capped at %d", len(res.RecentTrades), recentTradesCap)
	}
	for i := 1; i < len(res.RecentTrades); i++ {
		if res.RecentTrades[i].Timestamp > res.RecentTrades[i-1].Timestamp {
			t.Fatalf("recentTrades not newest-first at %d", i)
		}
	}
}

func TestExtractMarketType(t *testing.T) {
	e := NewExtractor(political.NewClassifier())
	pos := []models.PositionItem{{Title: "Will the incumbent win the 2026 election?", AvgPrice: 0.3, CurPrice: 0.4}}
	ch := e.Extract(ExtractInput{Positions: pos, Now: testNow}).Characteristics
	if ch.MarketType != models.MarketTypePolitical {
		t.Fatalf("marketType = %q, want political", ch.MarketType)
	}

	acts := []models.ActivityItem{trade(testNow.Add(-time.Hour), models.SideBuy, "Yes", 0.4, 10)}
	acts[0].MarketTitle = "Will Bitcoin close above $100k?"
	ch = e.Extract(ExtractInput{Activity: acts, Now: testNow}).Characteristics
	if ch.MarketType != models.MarketTypeCrypto {
		t.Fatalf("marketType = %q, want crypto", ch.MarketType)
	}
}

func TestExtractDeterministic(t *testing.T) {
	e := NewExtractor(nil)
	acts := []models.ActivityItem{
		trade(testNow.Add(-30*time.Hour), models.SideBuy, "Yes", 0.35, 1200),
		trade(testNow.Add(-20*time.Hour), models.SideBuy, "Yes", 0.40, 800),
		{Type: models.ActivitySplit, UsdcValue: decimal.NewFromInt(2000), Timestamp: ms(testNow.Add(-31 * time.Hour))},
	}
	a := e.Extract(ExtractInput{Activity: acts, Now: testNow})
	b := e.Extract(ExtractInput{Activity: acts, Now: testNow})
	if a.Characteristics != b.Characteristics {
		// Pointer fields make struct equality too strict only when the
		// pointees differ; compare the flags that matter.
		if a.Characteristics.IsNewWallet != b.Characteristics.IsNewWallet ||
			a.Characteristics.WalletAgeDays != b.Characteristics.WalletAgeDays ||
			a.TotalVolume != b.TotalVolume {
			t.Fatalf("extraction not deterministic")
		}
	}
}
