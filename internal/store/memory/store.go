// Package memory provides an in-process DocumentStore.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/pagehound/pagehound/internal/store"
)

// Store keeps documents in process memory. It is safe for concurrent use
// and is the default backend when no database is configured.
type Store struct {
	mu     sync.RWMutex
	docs   map[int64]store.Document
	byURL  map[string]int64
	nextID int64
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		docs:   make(map[int64]store.Document),
		byURL:  make(map[string]int64),
		nextID: 1,
	}
}

// Put upserts by URL. A new URL gets the next ID in sequence; a known URL
// keeps its ID even across delete-free content updates. IDs are never
// reused, deletions leave gaps.
func (s *Store) Put(_ context.Context, doc store.Document) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byURL[doc.URL]
	if !ok {
		id = s.nextID
		s.nextID++
		s.byURL[doc.URL] = id
	}
	doc.ID = id
	s.docs[id] = doc
	return id, nil
}

// Get returns the document with the given ID.
func (s *Store) Get(_ context.Context, id int64) (store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return store.Document{}, store.ErrNotFound
	}
	return doc, nil
}

// GetByURL returns the document stored for a URL.
func (s *Store) GetByURL(_ context.Context, url string) (store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byURL[url]
	if !ok {
		return store.Document{}, store.ErrNotFound
	}
	return s.docs[id], nil
}

// ListIDs returns all document IDs in ascending order.
func (s *Store) ListIDs(_ context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.docs))
	for id := range s.docs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Delete removes a document. Deleting an absent ID returns ErrNotFound.
func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return store.ErrNotFound
	}
	delete(s.docs, id)
	delete(s.byURL, doc.URL)
	return nil
}

// Count returns the number of stored documents.
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs), nil
}

// Close is a no-op for the in-memory backend.
func (s *Store) Close() {}
