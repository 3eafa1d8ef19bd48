// Package signals keeps the append-only insider signal log. Records are
// never deleted; the only mutation after emission is the read flag.
package signals

import (
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"insiderwatch/internal/models"
	"insiderwatch/internal/store"
)

const signalFileName = "signals.json"

const signalDocumentVersion = 1

const (
	defaultQueryLimit = 20
	maxQueryLimit     = 100
)

type document struct {
	Version int                    `json:"version"`
	Signals []models.InsiderSignal `json:"signals"`
}

// Service is the signal log, backed by one JSON document in its own
// directory, separate from the candidate store.
type Service struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

func NewService(dir string) *Service {
	return &Service{
		path: filepath.Join(dir, signalFileName),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) load() (document, error) {
	doc := document{Version: signalDocumentVersion}
	if _, err := store.Load(s.path, &doc); err != nil {
		return doc, err
	}
	return doc, nil
}

// Emit appends a signal. The ID and read flag are always assigned here; a
// zero timestamp is filled with the current time.
func (s *Service) Emit(sig models.InsiderSignal) (models.InsiderSignal, error) {
	sig.ID = uuid.NewString()
	sig.Read = false
	if sig.Timestamp == 0 {
		sig.Timestamp = s.now().UnixMilli()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return models.InsiderSignal{}, err
	}
	doc.Signals = append(doc.Signals, sig)
	doc.Version = signalDocumentVersion

	if err := store.Save(s.path, doc); err != nil {
		return models.InsiderSignal{}, err
	}
	return sig, nil
}

// QueryParams are AND-combined filters over the log.
type QueryParams struct {
	Type       models.SignalType
	Severity   models.SignalSeverity
	UnreadOnly bool
	Since      int64 // epoch ms, inclusive
	Limit      int
}

// QueryResult carries the page plus the pre-limit total and the global
// unread count, which ignores the filters.
type QueryResult struct {
	Signals     []models.InsiderSignal `json:"signals"`
	Total       int                    `json:"total"`
	UnreadCount int                    `json:"unreadCount"`
}

// Signals filters, sorts newest-first, and truncates. Limit is clamped to
// [1, 100] with a default of 20.
func (s *Service) Signals(p QueryParams) (QueryResult, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	if limit > maxQueryLimit {
		limit = maxQueryLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return QueryResult{}, err
	}

	unread := 0
	matched := make([]models.InsiderSignal, 0, len(doc.Signals))
	for _, sig := range doc.Signals {
		if !sig.Read {
			unread++
		}
		if p.Type != "" && sig.Type != p.Type {
			continue
		}
		if p.Severity != "" && sig.Severity != p.Severity {
			continue
		}
		if p.UnreadOnly && sig.Read {
			continue
		}
		if p.Since > 0 && sig.Timestamp < p.Since {
			continue
		}
		matched = append(matched, sig)
	}

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Timestamp > matched[j].Timestamp })

	total := len(matched)
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return QueryResult{Signals: matched, Total: total, UnreadCount: unread}, nil
}

// UnreadCount scans the log for unread records.
func (s *Service) UnreadCount() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return 0, err
	}
	unread := 0
	for _, sig := range doc.Signals {
		if !sig.Read {
			unread++
		}
	}
	return unread, nil
}

// MarkAsRead flips one signal to read. Returns false for an unknown ID or
// an already-read signal; both are no-ops, never errors.
func (s *Service) MarkAsRead(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return false, err
	}
	for i, sig := range doc.Signals {
		if sig.ID != id {
			continue
		}
		if sig.Read {
			return false, nil
		}
		doc.Signals[i].Read = true
		if err := store.Save(s.path, doc); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// MarkAllAsRead flips every unread signal and returns how many changed.
func (s *Service) MarkAllAsRead() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return 0, err
	}
	changed := 0
	for i := range doc.Signals {
		if !doc.Signals[i].Read {
			doc.Signals[i].Read = true
			changed++
		}
	}
	if changed == 0 {
		return 0, nil
	}
	if err := store.Save(s.path, doc); err != nil {
		return 0, err
	}
	return changed, nil
}
