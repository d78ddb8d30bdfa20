package crawler

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pagehound/pagehound/internal/telemetry"
)

// ErrExhausted signals that the frontier is empty, nothing is in flight, and
// no task can ever become available again.
var ErrExhausted = errors.New("frontier exhausted")

// Frontier is the depth-bounded queue of pending fetch tasks. Enqueue order
// determines discovery order; tasks whose host gate is closed are deferred
// behind the gate's remaining delay, never dropped. A fetch budget bounds how
// many tasks are ever handed to workers.
type Frontier struct {
	visited  *VisitedSet
	gate     HostGate
	maxDepth int
	logger   *zap.Logger

	mu       sync.Mutex
	cond     *sync.Cond
	pending  []Task
	delayed  delayedQueue
	inFlight int
	budget   int
	wake     *time.Timer
}

// NewFrontier constructs a Frontier. budget is the maximum number of tasks
// handed out (the max-page bound); maxDepth bounds link depth.
func NewFrontier(visited *VisitedSet, gate HostGate, maxDepth, budget int, logger *zap.Logger) *Frontier {
	f := &Frontier{
		visited:  visited,
		gate:     gate,
		maxDepth: maxDepth,
		budget:   budget,
		logger:   logger,
	}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// Push enqueues a canonical URL at the given depth. It returns false when the
// URL is over the depth bound or was already seen this session; the dedup
// check is atomic, so the same URL discovered concurrently is enqueued once.
func (f *Frontier) Push(url string, depth int) bool {
	if depth > f.maxDepth {
		return false
	}
	if !f.visited.MarkIfNew(url) {
		return false
	}
	task := Task{URL: url, Host: HostOf(url), Depth: depth, Attempt: 1}

	f.mu.Lock()
	f.pending = append(f.pending, task)
	f.mu.Unlock()
	f.cond.Broadcast()
	return true
}

// Next returns the next runnable task in enqueue order. It blocks until a
// task is available, the crawl is exhausted (ErrExhausted), or the context
// ends. A returned task counts as in flight until Done, Retry, or Abandon.
func (f *Frontier) Next(ctx context.Context) (Task, error) {
	stop := context.AfterFunc(ctx, f.cond.Broadcast)
	defer stop()

	f.mu.Lock()
	defer f.mu.Unlock()
	for {
		if err := ctx.Err(); err != nil {
			return Task{}, fmt.Errorf("frontier next: %w", err)
		}
		f.promoteLocked()

		if f.budget > 0 && len(f.pending) > 0 {
			task := f.pending[0]
			f.pending = f.pending[1:]
			if f.gate != nil {
				if delay := f.gate.ReserveHost(task.Host); delay > 0 {
					telemetry.ObserveRateLimitDelay(task.Host, delay)
					f.deferLocked(task, delay)
					continue
				}
			}
			f.budget--
			f.inFlight++
			return task, nil
		}

		if f.inFlight == 0 {
			if f.budget <= 0 || (len(f.pending) == 0 && len(f.delayed) == 0) {
				return Task{}, ErrExhausted
			}
		}
		if len(f.delayed) > 0 {
			f.scheduleWakeLocked()
		}
		f.cond.Wait()
	}
}

// Done marks an in-flight task terminal; its fetch slot stays consumed.
func (f *Frontier) Done(Task) {
	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()
	f.cond.Broadcast()
}

// Retry re-enqueues a failed task behind the given backoff delay. The task's
// fetch slot is refunded so retries never shrink the page budget.
func (f *Frontier) Retry(task Task, delay time.Duration) {
	task.Attempt++
	f.mu.Lock()
	f.inFlight--
	f.budget++
	f.deferLocked(task, delay)
	f.mu.Unlock()
	f.cond.Broadcast()
}

// Abandon marks an in-flight task terminal without a page having been
// produced (robots rejection or exhausted retries) and refunds its slot.
func (f *Frontier) Abandon(Task) {
	f.mu.Lock()
	f.inFlight--
	f.budget++
	f.mu.Unlock()
	f.cond.Broadcast()
}

func (f *Frontier) deferLocked(task Task, delay time.Duration) {
	f.logger.Debug("task deferred",
		zap.String("url", task.URL),
		zap.Duration("delay", delay))
	heap.Push(&f.delayed, delayedTask{task: task, readyAt: time.Now().Add(delay)})
}

// promoteLocked moves due deferred tasks back into the pending queue in
// readiness order.
func (f *Frontier) promoteLocked() {
	now := time.Now()
	for len(f.delayed) > 0 && !f.delayed[0].readyAt.After(now) {
		item := heap.Pop(&f.delayed).(delayedTask)
		f.pending = append(f.pending, item.task)
	}
}

func (f *Frontier) scheduleWakeLocked() {
	until := time.Until(f.delayed[0].readyAt)
	if until < 0 {
		until = 0
	}
	if f.wake != nil {
		f.wake.Stop()
	}
	f.wake = time.AfterFunc(until, f.cond.Broadcast)
}

type delayedTask struct {
	task    Task
	readyAt time.Time
}

type delayedQueue []delayedTask

func (q delayedQueue) Len() int            { return len(q) }
func (q delayedQueue) Less(i, j int) bool  { return q[i].readyAt.Before(q[j].readyAt) }
func (q delayedQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *delayedQueue) Push(x any)         { *q = append(*q, x.(delayedTask)) }
func (q *delayedQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
