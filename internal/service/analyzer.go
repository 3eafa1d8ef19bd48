// Package service holds the wallet analysis pipeline and its scan and
// watch front-ends: fetch history, extract characteristics, score,
// persist qualifying candidates, emit signals.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"insiderwatch/internal/insider"
	"insiderwatch/internal/models"
	"insiderwatch/internal/signals"
	"insiderwatch/internal/store"
)

const activityFetchLimit = 500

// ActivityProvider supplies the wallet history the extractor consumes.
type ActivityProvider interface {
	GetActivity(ctx context.Context, address string, limit int) ([]models.ActivityItem, error)
	GetPositions(ctx context.Context, address string) ([]models.PositionItem, error)
}

// ErrInvalidAddress marks analyze requests with a malformed wallet address.
type ErrInvalidAddress struct {
	Address string
}

func (e *ErrInvalidAddress) Error() string {
	return fmt.Sprintf("invalid wallet address %q: must start with 0x and be 42 characters", e.Address)
}

// NormalizeAddress validates and lowercases a wallet address.
func NormalizeAddress(address string) (string, error) {
	addr := strings.ToLower(strings.TrimSpace(address))
	if !strings.HasPrefix(addr, "0x") || len(addr) != 42 {
		return "", &ErrInvalidAddress{Address: address}
	}
	return addr, nil
}

// Analyzer runs the full pipeline for one wallet.
type Analyzer struct {
	Provider   ActivityProvider
	Extractor  *insider.Extractor
	Candidates *store.CandidateStore
	Signals    *signals.Service
	Logger     *zap.Logger

	// Now is swappable for tests; zero means wall clock.
	Now func() time.Time
}

// AnalyzeParams are the analyze-wallet arguments.
type AnalyzeParams struct {
	Address        string
	TargetMarket   string
	EventTimestamp *int64 // epoch ms
	SaveCandidate  *bool  // nil means true
}

// AnalyzeSummary aggregates the volume-side numbers of one analysis.
type AnalyzeSummary struct {
	TotalVolume     float64 `json:"totalVolume"`
	PotentialProfit float64 `json:"potentialProfit"`
	Markets         int     `json:"markets"`
	RecentTrades    int     `json:"recentTrades"`
}

// AnalyzeResult is the analyze-wallet response payload.
type AnalyzeResult struct {
	Address          string                        `json:"address"`
	InsiderScore     int                           `json:"insiderScore"`
	Level            models.InsiderLevel           `json:"level"`
	LevelColor       string                        `json:"levelColor"`
	LevelDescription string                        `json:"levelDescription"`
	Breakdown        models.ScoreBreakdown         `json:"breakdown"`
	Characteristics  models.InsiderCharacteristics `json:"characteristics"`
	RiskFactors      []string                      `json:"riskFactors"`
	Summary          AnalyzeSummary                `json:"summary"`
	Saved            bool                          `json:"saved"`
}

func (a *Analyzer) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now().UTC()
}

// AnalyzeWallet fetches history, scores the wallet, persists it when the
// score qualifies, and emits an insider_new signal for first-time saves.
func (a *Analyzer) AnalyzeWallet(ctx context.Context, p AnalyzeParams) (*AnalyzeResult, error) {
	addr, err := NormalizeAddress(p.Address)
	if err != nil {
		return nil, err
	}

	activity, err := a.Provider.GetActivity(ctx, addr, activityFetchLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch activity for %s: %w", addr, err)
	}
	positions, err := a.Provider.GetPositions(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("fetch positions for %s: %w", addr, err)
	}

	now := a.now()
	extracted := a.Extractor.Extract(insider.ExtractInput{
		Activity:       activity,
		Positions:      positions,
		Now:            now,
		EventTimestamp: p.EventTimestamp,
	})
	scored := insider.Score(extracted.Characteristics)

	candidate := models.InsiderCandidate{
		Address:         addr,
		Score:           scored.Score,
		Level:           scored.Level,
		AnalyzedAt:      now.UnixMilli(),
		Characteristics: extracted.Characteristics,
		Markets:         extracted.Markets,
		TotalVolume:     extracted.TotalVolume,
		WalletAge:       extracted.Characteristics.WalletAgeDays,
		PotentialProfit: potentialProfit(extracted.TotalVolume, extracted.Characteristics.ReturnMultiple),
		Tags:            []string{},
	}

	saved := false
	if p.SaveCandidate == nil || *p.SaveCandidate {
		var created bool
		saved, created, err = a.Candidates.Upsert(candidate, now)
		if err != nil {
			return nil, err
		}
		if created {
			a.emitNewCandidate(candidate)
		}
	}

	return &AnalyzeResult{
		Address:          addr,
		InsiderScore:     scored.Score,
		Level:            scored.Level,
		LevelColor:       insider.LevelColor(scored.Level),
		LevelDescription: insider.LevelDescription(scored.Level),
		Breakdown:        scored.Breakdown,
		Characteristics:  extracted.Characteristics,
		RiskFactors:      scored.RiskFactors,
		Summary: AnalyzeSummary{
			TotalVolume:     extracted.TotalVolume,
			PotentialProfit: candidate.PotentialProfit,
			Markets:         len(extracted.Markets),
			RecentTrades:    len(extracted.RecentTrades),
		},
		Saved: saved,
	}, nil
}

func (a *Analyzer) emitNewCandidate(c models.InsiderCandidate) {
	severity := models.SeverityMedium
	if c.Score >= insider.ThresholdCritical {
		severity = models.SeverityHigh
	}
	conditionID := ""
	if len(c.Markets) > 0 {
		conditionID = c.Markets[0]
	}
	_, err := a.Signals.Emit(models.InsiderSignal{
		Type:        models.SignalInsiderNew,
		Severity:    severity,
		Timestamp:   c.AnalyzedAt,
		Address:     c.Address,
		ConditionID: conditionID,
		Score:       c.Score,
		Message:     fmt.Sprintf("New insider candidate %s with score %d (%s)", c.Address, c.Score, c.Level),
	})
	if err != nil && a.Logger != nil {
		a.Logger.Warn("failed to emit insider_new signal", zap.String("address", c.Address), zap.Error(err))
	}
}

// potentialProfit is a rough unrealized-gain estimate over total traded
// volume. A return multiple of 0 (no positions) yields 0, not a loss.
func potentialProfit(totalVolume, returnMultiple float64) float64 {
	if returnMultiple == 0 {
		return 0
	}
	return totalVolume * (returnMultiple - 1)
}
