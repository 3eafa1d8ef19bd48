package stream

import (
	"sort"
	"testing"
	"time"

	"insiderwatch/internal/models"
)

func TestParseTradesArrayAndSingle(t *testing.T) {
	array := []byte(`[
		{"event_type":"last_trade_price","asset_id":"a1","market":"0xc1","price":"0.42","size":"100","side":"buy","outcome":"Yes","taker":"0xABC","timestamp":"1724900000"},
		{"event_type":"book","asset_id":"a1","market":"0xc1"}
	]`)
	trades := parseTrades(array)
	if len(trades) != 1 {
		t.Fatalf("array trades = %d, want 1", len(trades))
	}
	tr := trades[0]
	if tr.ProxyWallet != "0xabc" {
		t.Fatalf("wallet = %q, want lowercased taker", tr.ProxyWallet)
	}
	if tr.ConditionID != "0xc1" || tr.Side != models.SideBuy {
		t.Fatalf("unexpected trade: %+v", tr)
	}
	// Second-resolution wire timestamps come back in ms.
	if tr.Timestamp != 1724900000000 {
		t.Fatalf("timestamp = %d, want 1724900000000", tr.Timestamp)
	}
	if got := tr.UsdcValue.InexactFloat64(); got < 41.9 || got > 42.1 {
		t.Fatalf("usdc value = %v, want ~42", got)
	}

	single := []byte(`{"event_type":"last_trade_price","market":"0xc2","price":"0.10","size":"5","side":"sell","maker":"0xDEF","timestamp":"1724900000123"}`)
	trades = parseTrades(single)
	if len(trades) != 1 {
		t.Fatalf("single trades = %d, want 1", len(trades))
	}
	if trades[0].ProxyWallet != "0xdef" {
		t.Fatalf("maker fallback wallet = %q", trades[0].ProxyWallet)
	}
	if trades[0].Timestamp != 1724900000123 {
		t.Fatalf("ms timestamp mangled: %d", trades[0].Timestamp)
	}
}

func TestConvertTradeRejectsBadPrices(t *testing.T) {
	for _, price := range []string{"", "0", "-1", "abc"} {
		ev := tradeEvent{EventType: "last_trade_price", Price: price, Size: "10", Taker: "0x1"}
		if _, ok := convertTrade(ev); ok {
			t.Fatalf("price %q accepted", price)
		}
	}
}

func TestIsPingPayload(t *testing.T) {
	cases := []struct {
		raw  string
		want bool
	}{
		{"ping", true},
		{`{"type":"ping"}`, true},
		{`{"event_type":"PING"}`, true},
		{`{"event_type":"last_trade_price"}`, false},
		{"pong", false},
	}
	for _, tc := range cases {
		if got := isPingPayload([]byte(tc.raw)); got != tc.want {
			t.Fatalf("isPingPayload(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestNextBackoffCapsAtMax(t *testing.T) {
	max := 30 * time.Second
	b := 1 * time.Second
	for i := 0; i < 10; i++ {
		b = nextBackoff(b, max)
		if b > max {
			t.Fatalf("backoff %v exceeds max", b)
		}
	}
	if b != max {
		t.Fatalf("backoff = %v, want saturated at %v", b, max)
	}
}

func TestDiffSets(t *testing.T) {
	current := setFromSlice([]string{"a", "b", "c"})
	next := setFromSlice([]string{"b", "c", "d", "e"})

	added, removed := diffSets(current, next)
	sort.Strings(added)
	sort.Strings(removed)

	if len(added) != 2 || added[0] != "d" || added[1] != "e" {
		t.Fatalf("added = %v, want [d e]", added)
	}
	if len(removed) != 1 || removed[0] != "a" {
		t.Fatalf("removed = %v, want [a]", removed)
	}
}
