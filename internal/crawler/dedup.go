package crawler

import "sync"

// VisitedSet provides thread-safe visited URL tracking for one crawl session.
// Marking is atomic relative to concurrent lookups, so a URL observed by two
// discovery paths at once is enqueued at most once.
type VisitedSet struct {
	seen sync.Map
}

// NewVisitedSet constructs an empty VisitedSet.
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{}
}

// MarkIfNew stores the canonical URL if it has not been seen before and
// returns true exactly once per URL.
func (s *VisitedSet) MarkIfNew(url string) bool {
	if url == "" {
		return false
	}
	_, loaded := s.seen.LoadOrStore(url, struct{}{})
	return !loaded
}

// Seen reports whether the URL was already marked.
func (s *VisitedSet) Seen(url string) bool {
	_, ok := s.seen.Load(url)
	return ok
}
