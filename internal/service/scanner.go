package service

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"insiderwatch/internal/client/polymarket/gamma"
	"insiderwatch/internal/insider"
	"insiderwatch/internal/models"
	"insiderwatch/internal/political"
	"insiderwatch/internal/store"
)

const (
	defaultScanTradeLimit = 100
	// scanWalletCap bounds provider calls per scan; the data API rate
	// limits aggressively.
	scanWalletCap = 20

	defaultPoliticalLimit = 20
	politicalFetchLimit   = 500
)

// TradeProvider supplies recent trades for one market.
type TradeProvider interface {
	GetMarketTrades(ctx context.Context, conditionID string, limit int) ([]models.MarketTrade, error)
}

// MarketProvider supplies gamma market metadata.
type MarketProvider interface {
	GetMarkets(ctx context.Context, params polymarketgamma.GetMarketsParams) ([]models.Market, error)
}

// Scanner drives batch analysis over markets.
type Scanner struct {
	Trades     TradeProvider
	Markets    MarketProvider
	Analyzer   *Analyzer
	Candidates *store.CandidateStore
	Classifier *political.Classifier
	Logger     *zap.Logger
}

// ScanParams are the scan-market arguments.
type ScanParams struct {
	ConditionID string
	MinScore    *int // nil means the high threshold
	Limit       int  // trades to fetch, default 100
}

// ScanCandidate is one qualifying wallet found by a scan.
type ScanCandidate struct {
	Address      string              `json:"address"`
	InsiderScore int                 `json:"insiderScore"`
	Level        models.InsiderLevel `json:"level"`
	LevelColor   string              `json:"levelColor"`
	Summary      AnalyzeSummary      `json:"summary"`
}

// ScanResult summarizes one market scan.
type ScanResult struct {
	ConditionID      string          `json:"conditionId"`
	TradesAnalyzed   int             `json:"tradesAnalyzed"`
	WalletsScanned   int             `json:"walletsScanned"`
	TotalWallets     int             `json:"totalWallets"`
	MinScore         int             `json:"minScoreThreshold"`
	Candidates       []ScanCandidate `json:"candidates"`
	HighScoreCount   int             `json:"highScoreCount"`
	MediumScoreCount int             `json:"mediumScoreCount"`
}

// ScanMarket analyzes the distinct wallets behind a market's recent
// trades. Wallets whose analysis fails are skipped, not fatal: one dead
// wallet must not abort the scan.
func (s *Scanner) ScanMarket(ctx context.Context, p ScanParams) (*ScanResult, error) {
	minScore := insider.ThresholdHigh
	if p.MinScore != nil {
		minScore = *p.MinScore
	}
	limit := p.Limit
	if limit <= 0 {
		limit = defaultScanTradeLimit
	}

	trades, err := s.Trades.GetMarketTrades(ctx, p.ConditionID, limit)
	if err != nil {
		return nil, err
	}

	wallets := make([]string, 0, len(trades))
	seen := map[string]struct{}{}
	for _, t := range trades {
		if t.ProxyWallet == "" {
			continue
		}
		if _, ok := seen[t.ProxyWallet]; ok {
			continue
		}
		seen[t.ProxyWallet] = struct{}{}
		wallets = append(wallets, t.ProxyWallet)
	}

	scanned := wallets
	if len(scanned) > scanWalletCap {
		scanned = scanned[:scanWalletCap]
	}

	out := make([]ScanCandidate, 0, len(scanned))
	for _, addr := range scanned {
		res, err := s.Analyzer.AnalyzeWallet(ctx, AnalyzeParams{
			Address:      addr,
			TargetMarket: p.ConditionID,
		})
		if err != nil {
			if s.Logger != nil {
				s.Logger.Debug("wallet analysis skipped during scan",
					zap.String("address", addr), zap.Error(err))
			}
			continue
		}
		if res.InsiderScore < minScore {
			continue
		}
		out = append(out, ScanCandidate{
			Address:      res.Address,
			InsiderScore: res.InsiderScore,
			Level:        res.Level,
			LevelColor:   res.LevelColor,
			Summary:      res.Summary,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].InsiderScore > out[j].InsiderScore })

	high, medium := 0, 0
	for _, c := range out {
		switch {
		case c.InsiderScore >= insider.ThresholdCritical:
			high++
		case c.InsiderScore >= insider.ThresholdHigh:
			medium++
		}
	}

	return &ScanResult{
		ConditionID:      p.ConditionID,
		TradesAnalyzed:   len(trades),
		WalletsScanned:   len(scanned),
		TotalWallets:     len(wallets),
		MinScore:         minScore,
		Candidates:       out,
		HighScoreCount:   high,
		MediumScoreCount: medium,
	}, nil
}

// PoliticalMarketsParams filter the political market listing.
type PoliticalMarketsParams struct {
	Category political.Category // empty means all
	Active   *bool              // nil means true
	Limit    int                // default 20
	SortBy   string             // volume | insiderActivity | newest
}

// PoliticalMarket is one classified market enriched with insider context.
type PoliticalMarket struct {
	ConditionID        string             `json:"conditionId"`
	Title              string             `json:"title"`
	Slug               string             `json:"slug"`
	Category           political.Category `json:"category"`
	Confidence         float64            `json:"confidence"`
	YesPrice           float64            `json:"yesPrice"`
	NoPrice            float64            `json:"noPrice"`
	Volume24h          float64            `json:"volume24h"`
	EndDate            string             `json:"endDate,omitempty"`
	HasInsiderActivity bool               `json:"hasInsiderActivity"`
	Active             bool               `json:"active"`
}

// PoliticalMarketsResult is the list-political-markets payload.
type PoliticalMarketsResult struct {
	Markets        []PoliticalMarket `json:"markets"`
	TotalCount     int               `json:"totalCount"`
	InsiderSummary struct {
		TotalCandidates            int `json:"totalCandidates"`
		MarketsWithInsiderActivity int `json:"marketsWithInsiderActivity"`
	} `json:"insiderSummary"`
}

// PoliticalMarkets lists active markets that classify as political,
// flagged with whether any persisted candidate traded them.
func (s *Scanner) PoliticalMarkets(ctx context.Context, p PoliticalMarketsParams) (*PoliticalMarketsResult, error) {
	active := true
	if p.Active != nil {
		active = *p.Active
	}
	limit := p.Limit
	if limit <= 0 {
		limit = defaultPoliticalLimit
	}

	closed := false
	fetched, err := s.Markets.GetMarkets(ctx, polymarketgamma.GetMarketsParams{
		Active: &active,
		Closed: &closed,
		Order:  "volume24hr",
		Limit:  politicalFetchLimit,
	})
	if err != nil {
		return nil, err
	}

	candidateMarkets, err := s.candidateMarketSet()
	if err != nil {
		return nil, err
	}

	out := make([]PoliticalMarket, 0, limit)
	for _, m := range fetched {
		result := s.Classifier.Categorize(m.Question, m.Description)
		if !result.IsPolitical {
			continue
		}
		if p.Category != "" && result.Category != p.Category {
			continue
		}

		yes, no := 0.5, 0.5
		if len(m.OutcomePrices) > 0 {
			yes = m.OutcomePrices[0]
		}
		if len(m.OutcomePrices) > 1 {
			no = m.OutcomePrices[1]
		}
		_, hasActivity := candidateMarkets[m.ConditionID]

		out = append(out, PoliticalMarket{
			ConditionID:        m.ConditionID,
			Title:              m.Question,
			Slug:               m.Slug,
			Category:           result.Category,
			Confidence:         result.Confidence,
			YesPrice:           yes,
			NoPrice:            no,
			Volume24h:          m.Volume24hr,
			EndDate:            m.EndDate,
			HasInsiderActivity: hasActivity,
			Active:             m.Active,
		})
	}

	switch p.SortBy {
	case "insiderActivity":
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].HasInsiderActivity != out[j].HasInsiderActivity {
				return out[i].HasInsiderActivity
			}
			return out[i].Volume24h > out[j].Volume24h
		})
	case "newest":
		sort.SliceStable(out, func(i, j int) bool { return out[i].EndDate > out[j].EndDate })
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Volume24h > out[j].Volume24h })
	}

	if len(out) > limit {
		out = out[:limit]
	}

	res := &PoliticalMarketsResult{Markets: out, TotalCount: len(out)}
	meta, err := s.Candidates.Metadata()
	if err != nil {
		return nil, err
	}
	res.InsiderSummary.TotalCandidates = meta.TotalCandidates
	for _, m := range out {
		if m.HasInsiderActivity {
			res.InsiderSummary.MarketsWithInsiderActivity++
		}
	}
	return res, nil
}

// ScanTopPolitical runs the cron sweep: list the highest-volume political
// markets and scan each one for candidates. Per-market failures are logged
// and skipped so one bad market does not starve the rest of the sweep.
func (s *Scanner) ScanTopPolitical(ctx context.Context, marketLimit, tradeLimit int) error {
	markets, err := s.PoliticalMarkets(ctx, PoliticalMarketsParams{Limit: marketLimit, SortBy: "volume"})
	if err != nil {
		return fmt.Errorf("list political markets: %w", err)
	}

	for _, m := range markets.Markets {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		result, err := s.ScanMarket(ctx, ScanParams{ConditionID: m.ConditionID, Limit: tradeLimit})
		if err != nil {
			if s.Logger != nil {
				s.Logger.Warn("political sweep: market scan failed",
					zap.String("condition_id", m.ConditionID), zap.Error(err))
			}
			continue
		}
		if s.Logger != nil && len(result.Candidates) > 0 {
			s.Logger.Info("political sweep: candidates found",
				zap.String("condition_id", m.ConditionID),
				zap.String("title", m.Title),
				zap.Int("candidates", len(result.Candidates)),
				zap.Int("high", result.HighScoreCount))
		}
	}
	return nil
}

func (s *Scanner) candidateMarketSet() (map[string]struct{}, error) {
	all, _, err := s.Candidates.List(store.CandidateListParams{})
	if err != nil {
		return nil, err
	}
	set := map[string]struct{}{}
	for _, c := range all {
		for _, m := range c.Markets {
			set[m] = struct{}{}
		}
	}
	return set, nil
}
