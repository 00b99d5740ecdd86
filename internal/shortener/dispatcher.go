package shortener

import (
	"context"
	"sync"
	"time"

	"github.com/abdusco/linkzip/internal/metrics"
	"github.com/rs/zerolog"
)

const (
	DefaultWorkers   = 4
	DefaultQueueSize = 1024
	jobTimeout       = 5 * time.Second
)

// ClickRecorder is the work a Dispatcher runs in the background.
type ClickRecorder interface {
	Record(ctx context.Context, linkID int64, visit Visit)
}

type clickJob struct {
	ctx    context.Context
	linkID int64
	visit  Visit
}

// Dispatcher runs click recording off the request path on a fixed pool of workers fed by a
// bounded queue. Submit never blocks; when the queue is full the click is dropped.
type Dispatcher struct {
	recorder ClickRecorder
	jobs     chan clickJob
	logger   zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(recorder ClickRecorder, workers, queueSize int, logger zerolog.Logger) *Dispatcher {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	d := &Dispatcher{
		recorder: recorder,
		jobs:     make(chan clickJob, queueSize),
		logger:   logger.With().Str("component", "dispatcher").Logger(),
	}

	d.wg.Add(workers)
	for range workers {
		go d.work()
	}
	return d
}

// Submit queues a click for recording. The job keeps the values of ctx (request logger, ids)
// but not its cancellation, so it outlives the request that produced it.
func (d *Dispatcher) Submit(ctx context.Context, linkID int64, visit Visit) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		metrics.ClicksDropped.Inc()
		d.logger.Warn().Int64("link_id", linkID).Msg("dispatcher closed, dropping click")
		return false
	}

	select {
	case d.jobs <- clickJob{ctx: context.WithoutCancel(ctx), linkID: linkID, visit: visit}:
		return true
	default:
		metrics.ClicksDropped.Inc()
		d.logger.Warn().Int64("link_id", linkID).Msg("click queue full, dropping click")
		return false
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for job := range d.jobs {
		d.run(job)
	}
}

func (d *Dispatcher) run(job clickJob) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().Interface("panic", r).Int64("link_id", job.linkID).Msg("click recorder panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(job.ctx, jobTimeout)
	defer cancel()
	d.recorder.Record(ctx, job.linkID, job.visit)
}

// Close stops accepting clicks and waits for queued ones to finish or for ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobs)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info().Msg("click dispatcher drained")
		return nil
	case <-ctx.Done():
		d.logger.Warn().Int("pending", len(d.jobs)).Msg("click dispatcher drain interrupted")
		return ctx.Err()
	}
}
