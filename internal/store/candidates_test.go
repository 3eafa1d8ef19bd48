package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"insiderwatch/internal/models"
)

var storeNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func candidate(addr string, score int) models.InsiderCandidate {
	return models.InsiderCandidate{
		Address:    addr,
		Score:      score,
		Level:      models.LevelHigh,
		AnalyzedAt: storeNow.UnixMilli(),
		Markets:    []string{"0xm1"},
	}
}

func TestUpsertThreshold(t *testing.T) {
	s := NewCandidateStore(t.TempDir())

	saved, created, err := s.Upsert(candidate("0xAAA", 65), storeNow)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !saved || !created {
		t.Fatalf("saved=%v created=%v, want both true", saved, created)
	}

	saved, created, err = s.Upsert(candidate("0xbbb", 50), storeNow)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if saved || created {
		t.Fatalf("sub-threshold candidate must not persist")
	}

	list, meta, err := s.List(CandidateListParams{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("candidates = %d, want 1", len(list))
	}
	if list[0].Address != "0xaaa" {
		t.Fatalf("address = %q, want lowercased 0xaaa", list[0].Address)
	}
	if meta.TotalCandidates != 1 || meta.HighScoreCount != 0 {
		t.Fatalf("metadata = %+v", meta)
	}
	if meta.LastScanAt != storeNow.UnixMilli() {
		t.Fatalf("lastScanAt = %d", meta.LastScanAt)
	}
}

func TestUpsertReplaceUnionsMarkets(t *testing.T) {
	s := NewCandidateStore(t.TempDir())

	first := candidate("0xaaa", 65)
	first.Markets = []string{"0xm1", "0xm2"}
	if _, _, err := s.Upsert(first, storeNow); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	second := candidate("0xaaa", 85)
	second.Markets = []string{"0xm2", "0xm3"}
	saved, created, err := s.Upsert(second, storeNow.Add(time.Hour))
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !saved || created {
		t.Fatalf("saved=%v created=%v, want saved not created", saved, created)
	}

	got, ok, err := s.Get("0xAAA")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.Score != 85 {
		t.Fatalf("score = %d, want replaced 85", got.Score)
	}
	want := []string{"0xm1", "0xm2", "0xm3"}
	if len(got.Markets) != len(want) {
		t.Fatalf("markets = %v, want %v", got.Markets, want)
	}
	for i := range want {
		if got.Markets[i] != want[i] {
			t.Fatalf("markets = %v, want %v", got.Markets, want)
		}
	}

	meta, err := s.Metadata()
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if meta.TotalCandidates != 1 || meta.HighScoreCount != 1 {
		t.Fatalf("metadata = %+v", meta)
	}
}

func TestListFilterSortLimit(t *testing.T) {
	s := NewCandidateStore(t.TempDir())
	scores := map[string]int{"0xa": 60, "0xb": 95, "0xc": 72, "0xd": 85}
	for addr, score := range scores {
		c := candidate(addr, score)
		c.PotentialProfit = float64(score) * 10
		if _, _, err := s.Upsert(c, storeNow); err != nil {
			t.Fatalf("upsert %s: %v", addr, err)
		}
	}

	min := 70
	list, _, err := s.List(CandidateListParams{MinScore: &min})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("filtered = %d, want 3", len(list))
	}
	if list[0].Score != 95 || list[2].Score != 72 {
		t.Fatalf("default sort should be score desc, got %v", list)
	}

	max := 85
	list, _, err = s.List(CandidateListParams{MinScore: &min, MaxScore: &max, SortBy: "potentialProfit", SortOrder: "asc", Limit: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Score != 72 {
		t.Fatalf("asc potentialProfit limit 1 = %v", list)
	}
}

func TestListStableTieBreak(t *testing.T) {
	s := NewCandidateStore(t.TempDir())
	for _, addr := range []string{"0xccc", "0xaaa", "0xbbb"} {
		if _, _, err := s.Upsert(candidate(addr, 70), storeNow); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	list, _, err := s.List(CandidateListParams{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for i, want := range []string{"0xaaa", "0xbbb", "0xccc"} {
		if list[i].Address != want {
			t.Fatalf("tie break not by address order: %v", list)
		}
	}
}

func TestColdStartMissingFile(t *testing.T) {
	s := NewCandidateStore(filepath.Join(t.TempDir(), "never-created"))
	list, meta, err := s.List(CandidateListParams{})
	if err != nil {
		t.Fatalf("missing file must read as empty, got %v", err)
	}
	if len(list) != 0 || meta.TotalCandidates != 0 {
		t.Fatalf("expected empty store, got %v %+v", list, meta)
	}
}

func TestCorruptFileFallsBackToEmpty(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, candidateFileName), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}
	s := NewCandidateStore(dir)

	list, _, err := s.List(CandidateListParams{})
	if err != nil {
		t.Fatalf("corrupt file must read as empty, got %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty store, got %v", list)
	}

	// A save over the corrupt file recovers the document.
	if _, _, err := s.Upsert(candidate("0xaaa", 65), storeNow); err != nil {
		t.Fatalf("upsert over corrupt file: %v", err)
	}
	list, _, err = s.List(CandidateListParams{})
	if err != nil || len(list) != 1 {
		t.Fatalf("recovered list = %v, err %v", list, err)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewCandidateStore(dir)
	if _, _, err := s.Upsert(candidate("0xaaa", 65), storeNow); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != candidateFileName {
		t.Fatalf("unexpected files after save: %v", entries)
	}
}

func TestHasMarket(t *testing.T) {
	s := NewCandidateStore(t.TempDir())
	c := candidate("0xaaa", 70)
	c.Markets = []string{"0xcond1", "0xcond2"}
	if _, _, err := s.Upsert(c, storeNow); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if ok, err := s.HasMarket("0xcond2"); err != nil || !ok {
		t.Fatalf("hasMarket(0xcond2) = %v, %v", ok, err)
	}
	if ok, err := s.HasMarket("0xother"); err != nil || ok {
		t.Fatalf("hasMarket(0xother) = %v, %v", ok, err)
	}
}
