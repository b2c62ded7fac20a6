package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// BookkeepingJob is a single back-reference write
type BookkeepingJob struct {
	Kind     string // "user" or "shoe"
	TargetID string
	RecordID string
	Run      func(ctx context.Context) error
}

// BookkeeperStats counts job outcomes since start
type BookkeeperStats struct {
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Dropped   int64 `json:"dropped"`
}

// Bookkeeper runs back-reference writes off the request path.
// Failures are logged and counted, never returned to the submitter.
type Bookkeeper struct {
	jobs    chan BookkeepingJob
	timeout time.Duration

	mu      sync.RWMutex
	closed  bool
	workers sync.WaitGroup
	pending sync.WaitGroup

	completed atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
}

// NewBookkeeper starts a pool of workers draining a queue of queueSize jobs
func NewBookkeeper(workers, queueSize int, timeout time.Duration) *Bookkeeper {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	b := &Bookkeeper{
		jobs:    make(chan BookkeepingJob, queueSize),
		timeout: timeout,
	}
	for i := 0; i < workers; i++ {
		b.workers.Add(1)
		go b.work()
	}
	return b
}

// Submit queues a job without blocking. It reports false when the job was dropped.
func (b *Bookkeeper) Submit(job BookkeepingJob) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		b.drop(job, "bookkeeper closed")
		return false
	}

	b.pending.Add(1)
	select {
	case b.jobs <- job:
		return true
	default:
		b.pending.Done()
		b.drop(job, "bookkeeping queue full")
		return false
	}
}

// Wait blocks until every submitted job has finished
func (b *Bookkeeper) Wait() {
	b.pending.Wait()
}

// Close stops accepting jobs and waits for the queue to drain
func (b *Bookkeeper) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.jobs)
	b.mu.Unlock()

	b.workers.Wait()
}

// Stats returns the job counters
func (b *Bookkeeper) Stats() BookkeeperStats {
	return BookkeeperStats{
		Completed: b.completed.Load(),
		Failed:    b.failed.Load(),
		Dropped:   b.dropped.Load(),
	}
}

func (b *Bookkeeper) work() {
	defer b.workers.Done()
	for job := range b.jobs {
		b.run(job)
	}
}

func (b *Bookkeeper) run(job BookkeepingJob) {
	defer b.pending.Done()

	ctx := context.Background()
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	if err := job.Run(ctx); err != nil {
		b.failed.Add(1)
		log.Warn().
			Err(err).
			Str("kind", job.Kind).
			Str("target_id", job.TargetID).
			Str("record_id", job.RecordID).
			Msg("Back-reference update failed")
		return
	}
	b.completed.Add(1)
}

func (b *Bookkeeper) drop(job BookkeepingJob, reason string) {
	b.dropped.Add(1)
	log.Warn().
		Str("kind", job.Kind).
		Str("target_id", job.TargetID).
		Str("record_id", job.RecordID).
		Msg(reason)
}
