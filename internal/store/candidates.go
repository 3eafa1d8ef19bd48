package store

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"insiderwatch/internal/insider"
	"insiderwatch/internal/models"
)

const candidateFileName = "insider-candidates.json"

const candidateDocumentVersion = 1

// CandidateStore keeps one record per suspicious wallet in a single JSON
// document. Only wallets at or above the high threshold are persisted;
// everything below is scored but never written.
type CandidateStore struct {
	mu   sync.Mutex
	path string
}

func NewCandidateStore(dir string) *CandidateStore {
	return &CandidateStore{path: filepath.Join(dir, candidateFileName)}
}

func (s *CandidateStore) load() (models.CandidateDocument, error) {
	doc := models.CandidateDocument{Version: candidateDocumentVersion}
	if _, err := Load(s.path, &doc); err != nil {
		return doc, err
	}
	if doc.Candidates == nil {
		doc.Candidates = map[string]models.InsiderCandidate{}
	}
	return doc, nil
}

// Upsert writes or overwrites the record for the candidate's address when
// the score qualifies. The previous record is fully replaced except for
// markets, which are unioned. Returns whether the record was persisted and
// whether it is new.
func (s *CandidateStore) Upsert(c models.InsiderCandidate, now time.Time) (saved, created bool, err error) {
	if c.Score < insider.ThresholdHigh {
		return false, false, nil
	}
	c.Address = strings.ToLower(c.Address)

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return false, false, err
	}

	prev, existed := doc.Candidates[c.Address]
	if existed {
		c.Markets = unionStrings(prev.Markets, c.Markets)
	}
	doc.Candidates[c.Address] = c

	doc.Version = candidateDocumentVersion
	doc.Metadata = recomputeMetadata(doc.Candidates, now)

	if err := Save(s.path, doc); err != nil {
		return false, false, err
	}
	return true, !existed, nil
}

// Get returns the persisted record for a wallet, if any.
func (s *CandidateStore) Get(address string) (models.InsiderCandidate, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return models.InsiderCandidate{}, false, err
	}
	c, ok := doc.Candidates[strings.ToLower(address)]
	return c, ok, nil
}

// CandidateListParams filters and orders a candidate listing. Zero values
// mean "no bound" for scores and "score desc" for ordering.
type CandidateListParams struct {
	MinScore  *int
	MaxScore  *int
	SortBy    string // score | analyzedAt | potentialProfit
	SortOrder string // asc | desc
	Limit     int
}

// List filters by inclusive score range, sorts, and truncates. Ordering is
// deterministic: ties fall back to address order.
func (s *CandidateStore) List(p CandidateListParams) ([]models.InsiderCandidate, models.CandidateStoreMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, models.CandidateStoreMetadata{}, err
	}

	addrs := make([]string, 0, len(doc.Candidates))
	for addr := range doc.Candidates {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)

	out := make([]models.InsiderCandidate, 0, len(addrs))
	for _, addr := range addrs {
		c := doc.Candidates[addr]
		if p.MinScore != nil && c.Score < *p.MinScore {
			continue
		}
		if p.MaxScore != nil && c.Score > *p.MaxScore {
			continue
		}
		out = append(out, c)
	}

	asc := strings.EqualFold(p.SortOrder, "asc")
	less := func(a, b models.InsiderCandidate) bool {
		switch p.SortBy {
		case "analyzedAt":
			return a.AnalyzedAt < b.AnalyzedAt
		case "potentialProfit":
			return a.PotentialProfit < b.PotentialProfit
		default:
			return a.Score < b.Score
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if asc {
			return less(out[i], out[j])
		}
		return less(out[j], out[i])
	})

	if p.Limit > 0 && len(out) > p.Limit {
		out = out[:p.Limit]
	}
	return out, doc.Metadata, nil
}

// Metadata returns the stored counters without loading the candidate list
// into the caller.
func (s *CandidateStore) Metadata() (models.CandidateStoreMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return models.CandidateStoreMetadata{}, err
	}
	return doc.Metadata, nil
}

// HasMarket reports whether any persisted candidate traded the condition.
func (s *CandidateStore) HasMarket(conditionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return false, err
	}
	for _, c := range doc.Candidates {
		for _, m := range c.Markets {
			if m == conditionID {
				return true, nil
			}
		}
	}
	return false, nil
}

// Addresses returns the set of persisted candidate addresses, lowercased.
func (s *CandidateStore) Addresses() (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	addrs := make(map[string]struct{}, len(doc.Candidates))
	for addr := range doc.Candidates {
		addrs[addr] = struct{}{}
	}
	return addrs, nil
}

func recomputeMetadata(candidates map[string]models.InsiderCandidate, now time.Time) models.CandidateStoreMetadata {
	high := 0
	for _, c := range candidates {
		if c.Score >= insider.ThresholdCritical {
			high++
		}
	}
	return models.CandidateStoreMetadata{
		LastScanAt:      now.UnixMilli(),
		TotalCandidates: len(candidates),
		HighScoreCount:  high,
	}
}

func unionStrings(prev, next []string) []string {
	seen := make(map[string]struct{}, len(prev)+len(next))
	out := make([]string, 0, len(prev)+len(next))
	for _, lists := range [][]string{prev, next} {
		for _, v := range lists {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}
