// Package store defines persistence for crawled documents.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// Document is one crawled page as persisted by a DocumentStore. IDs are
// assigned by the store, are unique per URL, and are never reused.
type Document struct {
	ID          int64     `json:"id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Body        string    `json:"body"`
	Headings    []string  `json:"headings,omitempty"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// DocumentStore persists documents keyed by ID with URL uniqueness. Put is
// an upsert: storing a document whose URL already exists replaces the stored
// content and returns the existing ID.
type DocumentStore interface {
	Put(ctx context.Context, doc Document) (int64, error)
	Get(ctx context.Context, id int64) (Document, error)
	GetByURL(ctx context.Context, url string) (Document, error)
	ListIDs(ctx context.Context) ([]int64, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
	Close()
}
