// Package crawler defines core types shared across the crawl subsystems.
package crawler

import (
	"context"
	"time"
)

// TaskState represents the lifecycle state of a crawl task.
type TaskState string

// Task states. A task is created Pending, claimed InProgress by a worker,
// and destroyed on a terminal state.
const (
	TaskPending    TaskState = "pending"
	TaskInProgress TaskState = "in_progress"
	TaskDone       TaskState = "done"
	TaskFailed     TaskState = "failed"
)

// Task is one pending fetch in the frontier. URL is always canonical.
type Task struct {
	URL     string
	Host    string
	Depth   int
	Attempt int
}

// PageRecord is the extracted form of a fetched page, handed to the indexer
// exactly once.
type PageRecord struct {
	URL         string
	Title       string
	Body        string
	Headings    []string
	Description string
	FetchedAt   time.Time
	Depth       int
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL        string
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// Fetcher fetches a URL and returns the body plus metadata.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (FetchResponse, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// HostGate reports how long a fetch for host must still wait. A zero return
// consumes the host's pacing slot; a positive return leaves it untouched.
type HostGate interface {
	ReserveHost(host string) time.Duration
}
