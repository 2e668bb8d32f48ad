package history

import (
	"strings"
	"sync"

	"github.com/kjstillabower/weather-lookup-app/internal/format"
)

// DefaultLimit is the number of recent searches kept.
const DefaultLimit = 5

// SearchHistory is a bounded, most-recent-first list of distinct city names.
// Names are stored title-cased; two names are the same entry when their
// title-cased forms match. Nothing is persisted.
type SearchHistory struct {
	mu      sync.RWMutex
	entries []string
	limit   int
}

// New creates a SearchHistory. A limit <= 0 uses DefaultLimit.
func New(limit int) *SearchHistory {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &SearchHistory{limit: limit}
}

// Add records city at the front when its title-cased form is not already present,
// then truncates to the limit. Existing entries keep their position.
// Returns true when the list changed.
func (h *SearchHistory) Add(city string) bool {
	name := format.Title(strings.TrimSpace(city))
	if name == "" {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, e := range h.entries {
		if e == name {
			return false
		}
	}

	h.entries = append([]string{name}, h.entries...)
	if len(h.entries) > h.limit {
		h.entries = h.entries[:h.limit]
	}
	return true
}

// Entries returns a copy of the list, most recent first.
func (h *SearchHistory) Entries() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}

func (h *SearchHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Limit is the most entries the list holds.
func (h *SearchHistory) Limit() int {
	return h.limit
}
