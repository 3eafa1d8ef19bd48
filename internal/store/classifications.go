package store

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"insiderwatch/internal/models"
)

const classificationFileName = "wallet-classifications.json"

const classificationDocumentVersion = 1

const defaultClassificationConfidence = 0.8

var kebabCaseID = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// DefaultTagDefinitions is the predefined vocabulary. It lives in code,
// not in the document: only agent-added definitions are persisted.
func DefaultTagDefinitions() []models.TagDefinition {
	mk := func(id, name, desc string, cat models.TagCategory, criteria string) models.TagDefinition {
		return models.TagDefinition{
			ID: id, Name: name, Description: desc, Category: cat,
			Criteria: criteria, CreatedBy: "system",
		}
	}
	return []models.TagDefinition{
		mk("high-frequency", "High Frequency", "Trades many times per day across markets", models.TagCategoryTradingStyle, "More than 20 trades per day on average"),
		mk("swing-trader", "Swing Trader", "Holds positions for days to weeks", models.TagCategoryTradingStyle, "Average holding period between 2 and 30 days"),
		mk("scalper", "Scalper", "Takes small profits on short-lived price moves", models.TagCategoryTradingStyle, "Median holding period under one hour"),
		mk("position-trader", "Position Trader", "Builds large positions held to resolution", models.TagCategoryTradingStyle, "Majority of positions held to market resolution"),

		mk("crypto-focused", "Crypto Focused", "Primarily trades cryptocurrency price markets", models.TagCategoryMarketPreference, "Over 60% of volume in crypto markets"),
		mk("politics-focused", "Politics Focused", "Primarily trades political markets", models.TagCategoryMarketPreference, "Over 60% of volume in political markets"),
		mk("sports-focused", "Sports Focused", "Primarily trades sports markets", models.TagCategoryMarketPreference, "Over 60% of volume in sports markets"),
		mk("diversified", "Diversified", "Spreads volume across many market categories", models.TagCategoryMarketPreference, "No single category above 40% of volume"),

		mk("whale", "Whale", "Very large position sizes", models.TagCategoryScale, "Single positions regularly above $50,000"),
		mk("shark", "Shark", "Mid-size positions with aggressive entries", models.TagCategoryScale, "Typical position between $5,000 and $50,000"),
		mk("fish", "Fish", "Small retail-size positions", models.TagCategoryScale, "Typical position under $5,000"),

		mk("consistently-profitable", "Consistently Profitable", "Positive PnL sustained over months", models.TagCategoryPerformance, "Positive PnL in at least 3 consecutive months"),
		mk("break-even", "Break Even", "PnL oscillates around zero", models.TagCategoryPerformance, "Lifetime PnL within ±5% of volume"),
		mk("losing", "Losing", "Sustained negative PnL", models.TagCategoryPerformance, "Negative PnL in at least 3 consecutive months"),

		mk("highly-active", "Highly Active", "Trades on most days", models.TagCategoryActivity, "Activity on more than 20 days per month"),
		mk("regular", "Regular", "Trades weekly", models.TagCategoryActivity, "Activity on 4 to 20 days per month"),
		mk("dormant", "Dormant", "No recent activity", models.TagCategoryActivity, "No trades in the last 30 days"),

		mk("high-conviction", "High Conviction", "Concentrates capital in few markets", models.TagCategoryRiskProfile, "Top 3 positions hold over 80% of capital"),
		mk("balanced-risk", "Balanced Risk", "Moderate position concentration", models.TagCategoryRiskProfile, "Top 3 positions hold 40-80% of capital"),
		mk("risk-averse", "Risk Averse", "Many small hedged positions", models.TagCategoryRiskProfile, "No position above 10% of capital"),

		mk("insider-suspected", "Insider Suspected", "Trading pattern consistent with privileged information", models.TagCategorySpecial, "Insider score at or above the high threshold"),
		mk("copy-worthy", "Copy Worthy", "Track record worth mirroring", models.TagCategorySpecial, "Consistently profitable with verifiable edge"),
	}
}

// ClassificationStore keeps the tag vocabulary extensions and per-wallet
// classifications in one JSON document.
type ClassificationStore struct {
	mu   sync.Mutex
	path string
}

func NewClassificationStore(dir string) *ClassificationStore {
	return &ClassificationStore{path: filepath.Join(dir, classificationFileName)}
}

func (s *ClassificationStore) load() (models.ClassificationDocument, error) {
	doc := models.ClassificationDocument{Version: classificationDocumentVersion}
	if _, err := Load(s.path, &doc); err != nil {
		return doc, err
	}
	if doc.Tags == nil {
		doc.Tags = map[string]models.TagDefinition{}
	}
	if doc.Wallets == nil {
		doc.Wallets = map[string]models.WalletClassification{}
	}
	return doc, nil
}

// TagDefinitions returns predefined plus agent-added definitions,
// optionally filtered by category. Predefined tags come first, each group
// in a stable order.
func (s *ClassificationStore) TagDefinitions(category models.TagCategory) ([]models.TagDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	out := make([]models.TagDefinition, 0, len(doc.Tags)+22)
	for _, def := range DefaultTagDefinitions() {
		if category == "" || def.Category == category {
			out = append(out, def)
		}
	}
	custom := make([]models.TagDefinition, 0, len(doc.Tags))
	for _, def := range doc.Tags {
		if category == "" || def.Category == category {
			custom = append(custom, def)
		}
	}
	sort.Slice(custom, func(i, j int) bool { return custom[i].ID < custom[j].ID })
	return append(out, custom...), nil
}

// TagDefinition looks up one definition by ID across both vocabularies.
func (s *ClassificationStore) TagDefinition(id string) (models.TagDefinition, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tagDefinitionLocked(id)
}

func (s *ClassificationStore) tagDefinitionLocked(id string) (models.TagDefinition, bool, error) {
	for _, def := range DefaultTagDefinitions() {
		if def.ID == id {
			return def, true, nil
		}
	}
	doc, err := s.load()
	if err != nil {
		return models.TagDefinition{}, false, err
	}
	def, ok := doc.Tags[id]
	return def, ok, nil
}

// AddTagDefinition registers an agent-added tag. IDs must be kebab-case
// and must not collide with any existing definition.
func (s *ClassificationStore) AddTagDefinition(def models.TagDefinition, now time.Time) (models.TagDefinition, error) {
	if !kebabCaseID.MatchString(def.ID) {
		return models.TagDefinition{}, fmt.Errorf("%w: tag id %q is not kebab-case", ErrInvalidInput, def.ID)
	}
	if def.Name == "" || def.Description == "" {
		return models.TagDefinition{}, fmt.Errorf("%w: tag name and description are required", ErrInvalidInput)
	}
	if !def.Category.Valid() {
		return models.TagDefinition{}, fmt.Errorf("%w: unknown tag category %q", ErrInvalidInput, def.Category)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists, err := s.tagDefinitionLocked(def.ID); err != nil {
		return models.TagDefinition{}, err
	} else if exists {
		return models.TagDefinition{}, fmt.Errorf("%w: tag %q already defined", ErrInvalidInput, def.ID)
	}

	doc, err := s.load()
	if err != nil {
		return models.TagDefinition{}, err
	}

	def.CreatedBy = "agent"
	def.CreatedAt = now.UnixMilli()
	doc.Tags[def.ID] = def
	doc.Version = classificationDocumentVersion

	if err := Save(s.path, doc); err != nil {
		return models.TagDefinition{}, err
	}
	return def, nil
}

// ClassifyWallet replaces the classification for an address. Every tag ID
// must exist in the vocabulary; confidence defaults to 0.8 and must be in
// [0, 1].
func (s *ClassificationStore) ClassifyWallet(c models.WalletClassification, now time.Time) (models.WalletClassification, error) {
	if len(c.Tags) == 0 {
		return models.WalletClassification{}, fmt.Errorf("%w: at least one tag is required", ErrInvalidInput)
	}
	if c.Confidence == 0 {
		c.Confidence = defaultClassificationConfidence
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return models.WalletClassification{}, fmt.Errorf("%w: confidence %v out of range [0, 1]", ErrInvalidInput, c.Confidence)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tag := range c.Tags {
		if _, ok, err := s.tagDefinitionLocked(tag); err != nil {
			return models.WalletClassification{}, err
		} else if !ok {
			return models.WalletClassification{}, fmt.Errorf("%w: unknown tag %q", ErrInvalidInput, tag)
		}
	}

	doc, err := s.load()
	if err != nil {
		return models.WalletClassification{}, err
	}

	c.Address = strings.ToLower(c.Address)
	c.AnalyzedAt = now.UnixMilli()
	if c.AnalyzedBy == "" {
		c.AnalyzedBy = "agent"
	}
	doc.Wallets[c.Address] = c
	doc.Version = classificationDocumentVersion

	if err := Save(s.path, doc); err != nil {
		return models.WalletClassification{}, err
	}
	return c, nil
}

// WalletClassification returns the record for one address, if any.
func (s *ClassificationStore) WalletClassification(address string) (models.WalletClassification, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return models.WalletClassification{}, false, err
	}
	c, ok := doc.Wallets[strings.ToLower(address)]
	return c, ok, nil
}

// WalletsByTag lists classifications carrying the tag, sorted by the
// requested field (confidence or analyzedAt), descending by default.
func (s *ClassificationStore) WalletsByTag(tagID, sortBy, sortOrder string) ([]models.WalletClassification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	addrs := make([]string, 0, len(doc.Wallets))
	for addr := range doc.Wallets {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)

	out := make([]models.WalletClassification, 0, len(addrs))
	for _, addr := range addrs {
		c := doc.Wallets[addr]
		for _, tag := range c.Tags {
			if tag == tagID {
				out = append(out, c)
				break
			}
		}
	}

	asc := strings.EqualFold(sortOrder, "asc")
	less := func(a, b models.WalletClassification) bool {
		if sortBy == "analyzedAt" {
			return a.AnalyzedAt < b.AnalyzedAt
		}
		return a.Confidence < b.Confidence
	}
	sort.SliceStable(out, func(i, j int) bool {
		if asc {
			return less(out[i], out[j])
		}
		return less(out[j], out[i])
	})
	return out, nil
}

// RemoveWalletTag removes one tag from a wallet's classification. Returns
// the remaining tags and whether anything changed; a wallet whose last tag
// is removed keeps an empty record so the analysis metadata survives.
func (s *ClassificationStore) RemoveWalletTag(address, tagID string) ([]string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, false, err
	}

	addr := strings.ToLower(address)
	c, ok := doc.Wallets[addr]
	if !ok {
		return nil, false, nil
	}

	remaining := make([]string, 0, len(c.Tags))
	removed := false
	for _, tag := range c.Tags {
		if tag == tagID {
			removed = true
			continue
		}
		remaining = append(remaining, tag)
	}
	if !removed {
		return c.Tags, false, nil
	}

	c.Tags = remaining
	doc.Wallets[addr] = c
	doc.Version = classificationDocumentVersion

	if err := Save(s.path, doc); err != nil {
		return nil, false, err
	}
	return remaining, true, nil
}
