package political

import (
	"testing"

	"insiderwatch/internal/models"
)

func TestCategorize(t *testing.T) {
	c := NewClassifier()
	tests := []struct {
		title     string
		desc      string
		political bool
		category  Category
	}{
		{"Will Trump win the 2028 election?", "", true, CategoryElection},
		{"Will Russia declare a ceasefire before March?", "", true, CategoryGeopolitics},
		{"Will the tariff bill pass?", "", true, CategoryPolicy},
		{"Will the prime minister resign this year?", "", true, CategoryLeadership},
		{"Will NATO admit a new member in 2026?", "", true, CategoryInternational},
		{"Will Bitcoin hit $200k?", "", false, ""},
		{"", "", false, ""},
	}
	for _, tt := range tests {
		got := c.Categorize(tt.title, tt.desc)
		if got.IsPolitical != tt.political {
			t.Fatalf("Categorize(%q).IsPolitical = %v, want %v", tt.title, got.IsPolitical, tt.political)
		}
		if got.IsPolitical && got.Category != tt.category {
			t.Fatalf("Categorize(%q).Category = %q, want %q", tt.title, got.Category, tt.category)
		}
	}
}

func TestCategorizePriority(t *testing.T) {
	c := NewClassifier()
	// Title matches both election and geopolitics terms; election wins.
	got := c.Categorize("Will the war change the election outcome?", "")
	if !got.IsPolitical || got.Category != CategoryElection {
		t.Fatalf("got %+v, want political election", got)
	}
}

func TestCategorizeUsesDescription(t *testing.T) {
	c := NewClassifier()
	got := c.Categorize("Market 42", "resolves YES if the sanction package passes")
	if !got.IsPolitical || got.Category != CategoryGeopolitics {
		t.Fatalf("got %+v, want political geopolitics", got)
	}
}

func TestMarketType(t *testing.T) {
	c := NewClassifier()
	tests := []struct {
		title string
		want  models.MarketType
	}{
		{"Will Congress pass the bill?", models.MarketTypePolitical},
		{"Will Bitcoin close above $100k?", models.MarketTypeCrypto},
		{"Will the NBA finals go to game 7?", models.MarketTypeSports},
		{"Will it rain in London tomorrow?", models.MarketTypeOther},
	}
	for _, tt := range tests {
		if got := c.MarketType(tt.title, ""); got != tt.want {
			t.Fatalf("MarketType(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}
