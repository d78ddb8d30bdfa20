package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Snapshot is the full serializable term→postings mapping plus the set of
// indexed document IDs. It is independent of the document store.
type Snapshot struct {
	Docs  []int64              `json:"docs"`
	Terms map[string][]Posting `json:"terms"`
}

// Snapshot captures a consistent copy of the index.
func (ix *Index) Snapshot() Snapshot {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	snap := Snapshot{
		Docs:  make([]int64, 0, len(ix.docs)),
		Terms: make(map[string][]Posting, len(ix.terms)),
	}
	for id := range ix.docs {
		snap.Docs = append(snap.Docs, id)
	}
	for term, postings := range ix.terms {
		cp := make([]Posting, len(postings))
		copy(cp, postings)
		snap.Terms[term] = cp
	}
	return snap
}

// Restore replaces the index contents with the snapshot.
func (ix *Index) Restore(snap Snapshot) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.docs = make(map[int64]struct{}, len(snap.Docs))
	for _, id := range snap.Docs {
		ix.docs[id] = struct{}{}
	}
	ix.terms = make(map[string][]Posting, len(snap.Terms))
	for term, postings := range snap.Terms {
		if len(postings) == 0 {
			continue
		}
		cp := make([]Posting, len(postings))
		copy(cp, postings)
		ix.terms[term] = cp
	}
}

// Save writes the snapshot as JSON, creating parent directories as needed.
func (ix *Index) Save(path string) error {
	snap := ix.Snapshot()
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Load replaces the index contents from a JSON snapshot file. A missing,
// unreadable, or corrupt file leaves the index empty and returns the error;
// callers treat that as recoverable.
func (ix *Index) Load(path string) error {
	ix.Restore(Snapshot{})

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	ix.Restore(snap)
	return nil
}
