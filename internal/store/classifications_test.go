package store

import (
	"testing"
	"time"

	"insiderwatch/internal/models"
)

func TestDefaultTagVocabulary(t *testing.T) {
	defs := DefaultTagDefinitions()
	if len(defs) != 22 {
		t.Fatalf("predefined tags = %d, want 22", len(defs))
	}
	seen := map[string]struct{}{}
	byCategory := map[models.TagCategory]int{}
	for _, def := range defs {
		if _, dup := seen[def.ID]; dup {
			t.Fatalf("duplicate tag id %q", def.ID)
		}
		seen[def.ID] = struct{}{}
		if !def.Category.Valid() {
			t.Fatalf("tag %q has unknown category %q", def.ID, def.Category)
		}
		if def.CreatedBy != "system" {
			t.Fatalf("tag %q createdBy = %q", def.ID, def.CreatedBy)
		}
		byCategory[def.Category]++
	}
	if len(byCategory) != 7 {
		t.Fatalf("categories used = %d, want all 7", len(byCategory))
	}
}

func TestTagDefinitionsFilterByCategory(t *testing.T) {
	s := NewClassificationStore(t.TempDir())
	defs, err := s.TagDefinitions(models.TagCategoryScale)
	if err != nil {
		t.Fatalf("tagDefinitions: %v", err)
	}
	if len(defs) != 3 {
		t.Fatalf("scale tags = %d, want 3", len(defs))
	}
	for _, def := range defs {
		if def.Category != models.TagCategoryScale {
			t.Fatalf("unexpected category %q", def.Category)
		}
	}
}

func TestAddTagDefinition(t *testing.T) {
	s := NewClassificationStore(t.TempDir())

	def, err := s.AddTagDefinition(models.TagDefinition{
		ID:          "news-sensitive",
		Name:        "News Sensitive",
		Description: "Trades within an hour of major news",
		Category:    models.TagCategoryTradingStyle,
	}, storeNow)
	if err != nil {
		t.Fatalf("addTagDefinition: %v", err)
	}
	if def.CreatedBy != "agent" || def.CreatedAt != storeNow.UnixMilli() {
		t.Fatalf("agent tag stamped wrong: %+v", def)
	}

	got, ok, err := s.TagDefinition("news-sensitive")
	if err != nil || !ok {
		t.Fatalf("lookup: ok=%v err=%v", ok, err)
	}
	if got.Name != "News Sensitive" {
		t.Fatalf("name = %q", got.Name)
	}

	tests := []struct {
		name string
		def  models.TagDefinition
	}{
		{"duplicate custom", models.TagDefinition{ID: "news-sensitive", Name: "x", Description: "y", Category: models.TagCategoryTradingStyle}},
		{"duplicate predefined", models.TagDefinition{ID: "whale", Name: "x", Description: "y", Category: models.TagCategoryScale}},
		{"not kebab case", models.TagDefinition{ID: "NewsSensitive", Name: "x", Description: "y", Category: models.TagCategoryTradingStyle}},
		{"unknown category", models.TagDefinition{ID: "other-tag", Name: "x", Description: "y", Category: "made-up"}},
		{"missing name", models.TagDefinition{ID: "other-tag", Description: "y", Category: models.TagCategoryTradingStyle}},
	}
	for _, tt := range tests {
		if _, err := s.AddTagDefinition(tt.def, storeNow); err == nil {
			t.Fatalf("%s: expected error", tt.name)
		}
	}
}

func TestClassifyWallet(t *testing.T) {
	s := NewClassificationStore(t.TempDir())

	c, err := s.ClassifyWallet(models.WalletClassification{
		Address: "0xABC",
		Tags:    []string{"whale", "politics-focused"},
	}, storeNow)
	if err != nil {
		t.Fatalf("classifyWallet: %v", err)
	}
	if c.Address != "0xabc" {
		t.Fatalf("address not lowercased: %q", c.Address)
	}
	if c.Confidence != 0.8 {
		t.Fatalf("confidence = %v, want 0.8 default", c.Confidence)
	}
	if c.AnalyzedAt != storeNow.UnixMilli() || c.AnalyzedBy != "agent" {
		t.Fatalf("stamp wrong: %+v", c)
	}

	got, ok, err := s.WalletClassification("0xAbC")
	if err != nil || !ok {
		t.Fatalf("lookup: ok=%v err=%v", ok, err)
	}
	if len(got.Tags) != 2 {
		t.Fatalf("tags = %v", got.Tags)
	}

	if _, err := s.ClassifyWallet(models.WalletClassification{Address: "0xdef", Tags: []string{"no-such-tag"}}, storeNow); err == nil {
		t.Fatalf("unknown tag must be rejected")
	}
	if _, err := s.ClassifyWallet(models.WalletClassification{Address: "0xdef", Tags: []string{"whale"}, Confidence: 1.5}, storeNow); err == nil {
		t.Fatalf("confidence above 1 must be rejected")
	}
	if _, err := s.ClassifyWallet(models.WalletClassification{Address: "0xdef"}, storeNow); err == nil {
		t.Fatalf("empty tag list must be rejected")
	}
}

func TestWalletsByTag(t *testing.T) {
	s := NewClassificationStore(t.TempDir())
	seed := []struct {
		addr       string
		tags       []string
		confidence float64
		at         time.Time
	}{
		{"0xa", []string{"whale"}, 0.9, storeNow},
		{"0xb", []string{"whale", "dormant"}, 0.6, storeNow.Add(time.Hour)},
		{"0xc", []string{"fish"}, 0.7, storeNow.Add(2 * time.Hour)},
	}
	for _, sd := range seed {
		if _, err := s.ClassifyWallet(models.WalletClassification{
			Address: sd.addr, Tags: sd.tags, Confidence: sd.confidence,
		}, sd.at); err != nil {
			t.Fatalf("seed %s: %v", sd.addr, err)
		}
	}

	whales, err := s.WalletsByTag("whale", "", "")
	if err != nil {
		t.Fatalf("walletsByTag: %v", err)
	}
	if len(whales) != 2 || whales[0].Address != "0xa" {
		t.Fatalf("confidence desc default, got %v", whales)
	}

	whales, err = s.WalletsByTag("whale", "analyzedAt", "asc")
	if err != nil {
		t.Fatalf("walletsByTag: %v", err)
	}
	if whales[0].Address != "0xa" || whales[1].Address != "0xb" {
		t.Fatalf("analyzedAt asc, got %v", whales)
	}

	none, err := s.WalletsByTag("scalper", "", "")
	if err != nil || len(none) != 0 {
		t.Fatalf("unused tag should list empty, got %v err %v", none, err)
	}
}

func TestRemoveWalletTag(t *testing.T) {
	s := NewClassificationStore(t.TempDir())
	if _, err := s.ClassifyWallet(models.WalletClassification{
		Address: "0xabc", Tags: []string{"whale", "dormant"},
	}, storeNow); err != nil {
		t.Fatalf("seed: %v", err)
	}

	remaining, removed, err := s.RemoveWalletTag("0xABC", "whale")
	if err != nil {
		t.Fatalf("removeWalletTag: %v", err)
	}
	if !removed || len(remaining) != 1 || remaining[0] != "dormant" {
		t.Fatalf("removed=%v remaining=%v", removed, remaining)
	}

	// Removing again reports no change, no error.
	_, removed, err = s.RemoveWalletTag("0xabc", "whale")
	if err != nil || removed {
		t.Fatalf("second removal: removed=%v err=%v", removed, err)
	}

	// Unknown wallet reports no change, no error.
	_, removed, err = s.RemoveWalletTag("0xnobody", "whale")
	if err != nil || removed {
		t.Fatalf("unknown wallet: removed=%v err=%v", removed, err)
	}
}
