// Package political categorizes market titles with an ordered keyword
// rule list. The same lexicon drives both the political-market scan and
// the extractor's market-type classification, so it lives in one place.
package political

import (
	"regexp"
	"strings"
	"sync"

	"insiderwatch/internal/models"
)

// Category is the closed set of political market categories.
type Category string

const (
	CategoryElection      Category = "election"
	CategoryGeopolitics   Category = "geopolitics"
	CategoryPolicy        Category = "policy"
	CategoryLeadership    Category = "leadership"
	CategoryInternational Category = "international"
)

func Categories() []Category {
	return []Category{
		CategoryElection,
		CategoryGeopolitics,
		CategoryPolicy,
		CategoryLeadership,
		CategoryInternational,
	}
}

func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// Result is the outcome of categorizing one market.
type Result struct {
	IsPolitical bool     `json:"isPolitical"`
	Category    Category `json:"category,omitempty"`
	Confidence  float64  `json:"confidence,omitempty"`
}

type rule struct {
	category   Category
	pattern    string
	confidence float64

	compiled *regexp.Regexp
}

// Rule order is the tie-break priority: the first matching group wins, so
// a title hitting both "election" and "war" terms categorizes as election.
func defaultRules() []rule {
	return []rule{
		{
			category:   CategoryElection,
			pattern:    `\b(election|vote|candidate|party|senate|congress|president|governor)\b`,
			confidence: 0.8,
		},
		{
			category:   CategoryGeopolitics,
			pattern:    `\b(war|conflict|sanction|embargo|diplomacy|geopolitics|invasion|ceasefire)\b`,
			confidence: 0.8,
		},
		{
			category:   CategoryPolicy,
			pattern:    `\b(policy|law|bill|legislation|regulation|tariff)\b`,
			confidence: 0.8,
		},
		{
			category:   CategoryLeadership,
			pattern:    `\b(leadership|minister|prime minister|chancellor|leader|resign)\b`,
			confidence: 0.8,
		},
		{
			category:   CategoryInternational,
			pattern:    `\b(treaty|alliance|summit|international|un|nato)\b`,
			confidence: 0.8,
		},
	}
}

var (
	cryptoTerms = []string{"btc", "bitcoin", "eth", "ethereum", "crypto", "sol", "solana", "xrp"}
	sportsTerms = []string{"nfl", "nba", "mlb", "soccer", "football", "tennis", "match"}
)

// Classifier tests ordered category rules against lowercased title+description.
type Classifier struct {
	rules []rule
	once  sync.Once
}

func NewClassifier() *Classifier {
	return &Classifier{rules: defaultRules()}
}

func (c *Classifier) compile() {
	c.once.Do(func() {
		for i := range c.rules {
			c.rules[i].compiled = regexp.MustCompile(c.rules[i].pattern)
		}
	})
}

// Categorize returns the first matching category, or a non-political result
// when no rule matches.
func (c *Classifier) Categorize(title, description string) Result {
	c.compile()
	text := normalize(title, description)
	if text == "" {
		return Result{}
	}
	for _, r := range c.rules {
		if r.compiled.MatchString(text) {
			return Result{IsPolitical: true, Category: r.category, Confidence: r.confidence}
		}
	}
	return Result{}
}

// IsPolitical reports whether any category rule matches.
func (c *Classifier) IsPolitical(title, description string) bool {
	return c.Categorize(title, description).IsPolitical
}

// MarketType maps a market title to the extractor's coarse market type.
// Political detection reuses the category rules; crypto and sports fall
// back to plain term lookup.
func (c *Classifier) MarketType(title, description string) models.MarketType {
	if c.IsPolitical(title, description) {
		return models.MarketTypePolitical
	}
	text := normalize(title, description)
	for _, term := range cryptoTerms {
		if strings.Contains(text, term) {
			return models.MarketTypeCrypto
		}
	}
	for _, term := range sportsTerms {
		if strings.Contains(text, term) {
			return models.MarketTypeSports
		}
	}
	return models.MarketTypeOther
}

func normalize(title, description string) string {
	return strings.ToLower(strings.TrimSpace(title + " " + description))
}
