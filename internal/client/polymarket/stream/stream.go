// Package stream follows live market trades over the Polymarket
// websocket feed. The connection loop reconnects with jittered
// exponential backoff and keeps the subscription aligned with a
// caller-supplied market list.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"insiderwatch/internal/models"
)

const DefaultMarketWSSURL = "wss://ws-subscriptions-clob.polymarket.com/ws/market"

type subscribeRequest struct {
	Type      string   `json:"type"`
	AssetsIDs []string `json:"assets_ids,omitempty"`
}

type subscriptionUpdate struct {
	AssetsIDs []string `json:"assets_ids"`
	Operation string   `json:"operation"`
}

// tradeEvent is the last_trade_price wire message, the one event type
// carrying executed trades with counterparty addresses.
type tradeEvent struct {
	EventType string `json:"event_type"`
	AssetID   string `json:"asset_id"`
	Market    string `json:"market"`
	Price     string `json:"price"`
	Size      string `json:"size"`
	Side      string `json:"side"`
	Outcome   string `json:"outcome"`
	Maker     string `json:"maker"`
	Taker     string `json:"taker"`
	Timestamp string `json:"timestamp"`
}

// AssetIDProvider returns the asset IDs to subscribe to. Re-resolved on
// every reconnect and on the refresh interval.
type AssetIDProvider func(context.Context) ([]string, error)

type wsConn struct {
	url  string
	conn *websocket.Conn
}

func newWSConn(url string) *wsConn {
	if strings.TrimSpace(url) == "" {
		url = DefaultMarketWSSURL
	}
	return &wsConn{url: url}
}

func (c *wsConn) connect(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, c.url, nil)
	if err != nil {
		return err
	}
	conn.SetReadLimit(2 << 20) // 2MB
	c.conn = conn
	return nil
}

func (c *wsConn) close(status websocket.StatusCode, reason string) error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close(status, reason)
}

func (c *wsConn) subscribe(ctx context.Context, assetIDs []string) error {
	payload, err := json.Marshal(subscribeRequest{Type: "market", AssetsIDs: assetIDs})
	if err != nil {
		return err
	}
	return c.conn.Write(ctx, websocket.MessageText, payload)
}

func (c *wsConn) updateSubscription(ctx context.Context, assetIDs []string, operation string) error {
	payload, err := json.Marshal(subscriptionUpdate{AssetsIDs: assetIDs, Operation: operation})
	if err != nil {
		return err
	}
	return c.conn.Write(ctx, websocket.MessageText, payload)
}

func (c *wsConn) read(ctx context.Context) ([]byte, error) {
	_, data, err := c.conn.Read(ctx)
	return data, err
}

func (c *wsConn) respondPong(ctx context.Context) error {
	return c.conn.Write(ctx, websocket.MessageText, []byte(`{"event_type":"pong"}`))
}

// TradeStreamOptions configure the reconnecting trade stream.
type TradeStreamOptions struct {
	URL               string
	AssetIDs          []string
	AssetIDProvider   AssetIDProvider
	RefreshInterval   time.Duration
	HeartbeatInterval time.Duration
	PingTimeout       time.Duration
	BackoffMin        time.Duration
	BackoffMax        time.Duration
	Logger            *zap.Logger
}

type TradeStream struct {
	opts      TradeStreamOptions
	seenFirst bool
}

func NewTradeStream(opts TradeStreamOptions) *TradeStream {
	if opts.URL == "" {
		opts.URL = DefaultMarketWSSURL
	}
	if opts.HeartbeatInterval == 0 {
		opts.HeartbeatInterval = 20 * time.Second
	}
	if opts.PingTimeout == 0 {
		opts.PingTimeout = 5 * time.Second
	}
	if opts.BackoffMin == 0 {
		opts.BackoffMin = 1 * time.Second
	}
	if opts.BackoffMax == 0 {
		opts.BackoffMax = 30 * time.Second
	}
	if opts.RefreshInterval == 0 {
		opts.RefreshInterval = 30 * time.Second
	}
	return &TradeStream{opts: opts}
}

// Run connects, subscribes, and delivers every executed trade to onTrade
// until the context is canceled. Non-trade events are dropped here so
// consumers only ever see trades.
func (s *TradeStream) Run(ctx context.Context, onTrade func(models.MarketTrade)) error {
	if s == nil {
		return fmt.Errorf("trade stream is nil")
	}
	backoff := s.opts.BackoffMin
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn := newWSConn(s.opts.URL)
		if err := conn.connect(ctx); err != nil {
			if s.opts.Logger != nil {
				s.opts.Logger.Warn("trade ws connect failed", zap.Error(err))
			}
			if err := sleepWithJitter(ctx, backoff); err != nil {
				return err
			}
			backoff = nextBackoff(backoff, s.opts.BackoffMax)
			continue
		}

		assetIDs := s.opts.AssetIDs
		if s.opts.AssetIDProvider != nil {
			if ids, err := s.opts.AssetIDProvider(ctx); err == nil {
				assetIDs = ids
			}
		}
		if len(assetIDs) == 0 {
			if s.opts.Logger != nil {
				s.opts.Logger.Warn("trade ws subscribe skipped: no markets")
			}
			_ = conn.close(websocket.StatusInternalError, "no markets to subscribe")
			if err := sleepWithJitter(ctx, backoff); err != nil {
				return err
			}
			backoff = nextBackoff(backoff, s.opts.BackoffMax)
			continue
		}
		if err := conn.subscribe(ctx, assetIDs); err != nil {
			if s.opts.Logger != nil {
				s.opts.Logger.Warn("trade ws subscribe failed", zap.Error(err))
			}
			_ = conn.close(websocket.StatusInternalError, "subscribe failed")
			if err := sleepWithJitter(ctx, backoff); err != nil {
				return err
			}
			backoff = nextBackoff(backoff, s.opts.BackoffMax)
			continue
		}
		if s.opts.Logger != nil {
			s.opts.Logger.Info("trade ws subscribed", zap.Int("assets", len(assetIDs)))
		}
		backoff = s.opts.BackoffMin

		current := setFromSlice(assetIDs)
		err := s.consume(ctx, conn, onTrade, current)
		_ = conn.close(websocket.StatusNormalClosure, "reconnect")
		if err == nil || errors.Is(err, context.Canceled) {
			return err
		}
		if err := sleepWithJitter(ctx, backoff); err != nil {
			return err
		}
		backoff = nextBackoff(backoff, s.opts.BackoffMax)
	}
}

func (s *TradeStream) consume(ctx context.Context, conn *wsConn, onTrade func(models.MarketTrade), current map[string]struct{}) error {
	heartbeatErr := make(chan error, 1)
	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		ticker := time.NewTicker(s.opts.HeartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				heartbeatErr <- loopCtx.Err()
				return
			case <-ticker.C:
				pingCtx, cancelPing := context.WithTimeout(loopCtx, s.opts.PingTimeout)
				err := conn.conn.Ping(pingCtx)
				cancelPing()
				if err != nil {
					heartbeatErr <- err
					return
				}
			}
		}
	}()

	if s.opts.AssetIDProvider != nil && s.opts.RefreshInterval > 0 {
		go func() {
			ticker := time.NewTicker(s.opts.RefreshInterval)
			defer ticker.Stop()
			for {
				select {
				case <-loopCtx.Done():
					return
				case <-ticker.C:
					ids, err := s.opts.AssetIDProvider(loopCtx)
					if err != nil {
						continue
					}
					next := setFromSlice(ids)
					added, removed := diffSets(current, next)
					if len(added) > 0 {
						_ = conn.updateSubscription(loopCtx, added, "subscribe")
					}
					if len(removed) > 0 {
						_ = conn.updateSubscription(loopCtx, removed, "unsubscribe")
					}
					current = next
				}
			}
		}()
	}

	for {
		select {
		case err := <-heartbeatErr:
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		default:
		}
		raw, err := conn.read(ctx)
		if err != nil {
			if s.opts.Logger != nil && !errors.Is(err, context.Canceled) {
				s.opts.Logger.Warn("trade ws read failed", zap.Error(err))
			}
			return err
		}
		if isPingPayload(raw) {
			_ = conn.respondPong(ctx)
			continue
		}
		trades := parseTrades(raw)
		if s.opts.Logger != nil && !s.seenFirst && len(trades) > 0 {
			s.seenFirst = true
			s.opts.Logger.Info("trade ws first trade", zap.String("market", trades[0].ConditionID))
		}
		if onTrade != nil {
			for _, t := range trades {
				onTrade(t)
			}
		}
	}
}

// parseTrades extracts executed trades from a raw message. The feed
// sends both single events and arrays.
func parseTrades(raw []byte) []models.MarketTrade {
	var events []tradeEvent
	if err := json.Unmarshal(raw, &events); err != nil {
		var single tradeEvent
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil
		}
		events = []tradeEvent{single}
	}

	trades := make([]models.MarketTrade, 0, len(events))
	for _, ev := range events {
		if !strings.EqualFold(ev.EventType, "last_trade_price") {
			continue
		}
		t, ok := convertTrade(ev)
		if !ok {
			continue
		}
		trades = append(trades, t)
	}
	return trades
}

func convertTrade(ev tradeEvent) (models.MarketTrade, bool) {
	price, err := strconv.ParseFloat(ev.Price, 64)
	if err != nil || price <= 0 {
		return models.MarketTrade{}, false
	}
	size, err := decimal.NewFromString(ev.Size)
	if err != nil {
		return models.MarketTrade{}, false
	}

	wallet := ev.Taker
	if wallet == "" {
		wallet = ev.Maker
	}

	return models.MarketTrade{
		ProxyWallet: strings.ToLower(wallet),
		ConditionID: ev.Market,
		Side:        models.TradeSide(strings.ToUpper(ev.Side)),
		Outcome:     ev.Outcome,
		Size:        size,
		Price:       price,
		UsdcValue:   size.Mul(decimal.NewFromFloat(price)),
		Timestamp:   parseWireTimestamp(ev.Timestamp),
	}, true
}

// parseWireTimestamp accepts both second and millisecond epoch strings.
func parseWireTimestamp(s string) int64 {
	ts, err := strconv.ParseInt(s, 10, 64)
	if err != nil || ts <= 0 {
		return time.Now().UTC().UnixMilli()
	}
	if ts < 1e12 {
		return ts * 1000
	}
	return ts
}

func isPingPayload(raw []byte) bool {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "ping" {
		return true
	}
	var header struct {
		Type      string `json:"type"`
		EventType string `json:"event_type"`
	}
	if err := json.Unmarshal(raw, &header); err == nil {
		if strings.EqualFold(header.Type, "ping") || strings.EqualFold(header.EventType, "ping") {
			return true
		}
	}
	return false
}

func nextBackoff(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func sleepWithJitter(ctx context.Context, base time.Duration) error {
	if base <= 0 {
		return nil
	}
	var jitter time.Duration
	if half := int64(base / 2); half > 0 {
		jitter = time.Duration(rand.Int63n(half))
	}
	timer := time.NewTimer(base + jitter)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func setFromSlice(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}

func diffSets(current, next map[string]struct{}) (added, removed []string) {
	for id := range next {
		if _, ok := current[id]; !ok {
			added = append(added, id)
		}
	}
	for id := range current {
		if _, ok := next[id]; !ok {
			removed = append(removed, id)
		}
	}
	return added, removed
}
