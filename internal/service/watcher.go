package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"insiderwatch/internal/insider"
	"insiderwatch/internal/models"
	"insiderwatch/internal/signals"
	"insiderwatch/internal/store"
)

const (
	// largeTradeHighUsd upgrades a large-trade signal to high severity.
	largeTradeHighUsd = 10000.0

	clusterWindow    = 30 * time.Minute
	clusterMinWallet = 3

	candidateRefreshInterval = time.Minute
)

// TradeSource is the live feed the watcher consumes.
type TradeSource interface {
	Run(ctx context.Context, onTrade func(models.MarketTrade)) error
}

// TradeWatcher follows live trades and emits signals when persisted
// candidates act: a single large trade, or several candidates converging
// on one market inside a short window.
type TradeWatcher struct {
	Source     TradeSource
	Candidates *store.CandidateStore
	Signals    *signals.Service
	Logger     *zap.Logger

	// LargeTradeUSD overrides the large-trade alert floor; zero means
	// the extractor's large position threshold.
	LargeTradeUSD float64

	mu        sync.Mutex
	known     map[string]struct{}
	refreshed time.Time
	recent    map[string][]clusterEntry
	alertedAt map[string]int64
	now       func() time.Time
}

type clusterEntry struct {
	address string
	at      int64 // epoch ms
}

// Run consumes the trade source until the context is canceled.
func (w *TradeWatcher) Run(ctx context.Context) error {
	if w.Source == nil {
		return fmt.Errorf("trade watcher has no source")
	}
	return w.Source.Run(ctx, func(t models.MarketTrade) { w.handleTrade(t) })
}

func (w *TradeWatcher) clock() time.Time {
	if w.now != nil {
		return w.now()
	}
	return time.Now().UTC()
}

func (w *TradeWatcher) handleTrade(t models.MarketTrade) {
	if t.ProxyWallet == "" {
		return
	}
	if !w.isCandidate(t.ProxyWallet) {
		return
	}

	floor := w.LargeTradeUSD
	if floor <= 0 {
		floor = insider.LargePositionUSD
	}
	usd := t.UsdcValue.InexactFloat64()
	if usd >= floor {
		severity := models.SeverityMedium
		if usd >= largeTradeHighUsd {
			severity = models.SeverityHigh
		}
		w.emit(models.InsiderSignal{
			Type:        models.SignalInsiderLargeTrade,
			Severity:    severity,
			Timestamp:   t.Timestamp,
			Address:     t.ProxyWallet,
			ConditionID: t.ConditionID,
			TradeUsd:    usd,
			Message:     fmt.Sprintf("Candidate %s traded $%.2f on %s", t.ProxyWallet, usd, t.ConditionID),
		})
	}

	w.trackCluster(t)
}

// isCandidate checks the wallet against the persisted candidate set,
// refreshing the cached set at most once a minute.
func (w *TradeWatcher) isCandidate(address string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.clock()
	if w.known == nil || now.Sub(w.refreshed) > candidateRefreshInterval {
		addrs, err := w.Candidates.Addresses()
		if err != nil {
			if w.Logger != nil {
				w.Logger.Warn("candidate refresh failed", zap.Error(err))
			}
			if w.known == nil {
				return false
			}
		} else {
			w.known = addrs
			w.refreshed = now
		}
	}
	_, ok := w.known[address]
	return ok
}

// trackCluster records candidate activity per market and emits one
// cluster signal when enough distinct candidates trade the same market
// inside the window. The window resets after an alert so a sustained
// burst does not spam the log.
func (w *TradeWatcher) trackCluster(t models.MarketTrade) {
	if t.ConditionID == "" {
		return
	}

	w.mu.Lock()
	if w.recent == nil {
		w.recent = map[string][]clusterEntry{}
		w.alertedAt = map[string]int64{}
	}

	cutoff := t.Timestamp - clusterWindow.Milliseconds()
	entries := w.recent[t.ConditionID]
	kept := entries[:0]
	for _, e := range entries {
		if e.at >= cutoff {
			kept = append(kept, e)
		}
	}
	kept = append(kept, clusterEntry{address: t.ProxyWallet, at: t.Timestamp})
	w.recent[t.ConditionID] = kept

	distinct := map[string]struct{}{}
	for _, e := range kept {
		distinct[e.address] = struct{}{}
	}

	shouldAlert := len(distinct) >= clusterMinWallet && w.alertedAt[t.ConditionID] < cutoff
	if shouldAlert {
		w.alertedAt[t.ConditionID] = t.Timestamp
		w.recent[t.ConditionID] = nil
	}
	walletCount := len(distinct)
	w.mu.Unlock()

	if shouldAlert {
		w.emit(models.InsiderSignal{
			Type:        models.SignalInsiderCluster,
			Severity:    models.SeverityHigh,
			Timestamp:   t.Timestamp,
			ConditionID: t.ConditionID,
			WalletCount: walletCount,
			Message:     fmt.Sprintf("%d insider candidates traded %s within %s", walletCount, t.ConditionID, clusterWindow),
		})
	}
}

func (w *TradeWatcher) emit(sig models.InsiderSignal) {
	if _, err := w.Signals.Emit(sig); err != nil && w.Logger != nil {
		w.Logger.Warn("failed to emit signal",
			zap.String("type", string(sig.Type)), zap.Error(err))
	}
}
