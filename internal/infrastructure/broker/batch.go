package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"quotesignal/internal/domain/entity/quote"
	"quotesignal/internal/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// BatchConfig controls batching thresholds for record persistence.
type BatchConfig struct {
	Size    int
	Timeout time.Duration
}

// BatchWriter buffers published records and flushes them into the quote store
// once the batch is full or the timeout elapses.
type BatchWriter struct {
	records *batchBuffer[quote.Record]
}

var _ interfaces.Recorder = (*BatchWriter)(nil)

// NewBatchWriter configures a batch writer on top of the given repository.
func NewBatchWriter(cfg BatchConfig, repo interfaces.QuoteRepository, logger *logrus.Logger) *BatchWriter {
	componentLogger := logger.WithField("component", "batch_writer")
	return &BatchWriter{
		records: newBatchBuffer(cfg, func(ctx context.Context, batch []quote.Record) error {
			return repo.AddRecords(ctx, batch)
		}, componentLogger.WithField("entity", "record")),
	}
}

// Run sets the base context for asynchronous flush operations.
func (b *BatchWriter) Run(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	b.records.setContext(ctx)
}

// Stop waits for in-flight flushes and writes the remaining buffer using the
// provided context.
func (b *BatchWriter) Stop(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	b.records.setContext(ctx)
	return b.records.drain(ctx)
}

// Record appends a record to the buffer. A full batch is handed to a
// background flush, so the caller never waits on the store.
func (b *BatchWriter) Record(_ context.Context, record quote.Record) error {
	return b.records.enqueue(record)
}

// FailedFlushes reports how many batches the store rejected.
func (b *BatchWriter) FailedFlushes() int64 {
	return b.records.failed.Load()
}

// Pending reports the number of buffered records.
func (b *BatchWriter) Pending() int {
	b.records.mu.Lock()
	defer b.records.mu.Unlock()
	return len(b.records.items)
}

// ErrBatchNotRunning is returned when records arrive before Run or after the
// run context has been cancelled without a Stop.
var ErrBatchNotRunning = errors.New("batch buffer is not running")

type batchBuffer[T any] struct {
	size    int
	timeout time.Duration
	flushFn func(context.Context, []T) error
	logger  *logrus.Entry

	mu    sync.Mutex
	items []T
	timer *time.Timer
	ctx   context.Context

	inflight sync.WaitGroup
	failed   atomic.Int64
}

func newBatchBuffer[T any](cfg BatchConfig, flushFn func(context.Context, []T) error, logger *logrus.Entry) *batchBuffer[T] {
	size := cfg.Size
	if size <= 0 {
		size = 1
	}
	return &batchBuffer[T]{
		size:    size,
		timeout: cfg.Timeout,
		flushFn: flushFn,
		logger:  logger,
		items:   make([]T, 0, size),
	}
}

func (bb *batchBuffer[T]) setContext(ctx context.Context) {
	bb.mu.Lock()
	bb.ctx = ctx
	bb.mu.Unlock()
}

func (bb *batchBuffer[T]) enqueue(item T) error {
	bb.mu.Lock()
	ctx := bb.ctx
	if ctx == nil || ctx.Err() != nil {
		bb.mu.Unlock()
		return ErrBatchNotRunning
	}
	bb.items = append(bb.items, item)
	if len(bb.items) < bb.size {
		if bb.timer == nil && bb.timeout > 0 {
			bb.timer = time.AfterFunc(bb.timeout, bb.flushOnTimer)
		}
		bb.mu.Unlock()
		return nil
	}
	batch := bb.detachLocked()
	bb.inflight.Add(1)
	bb.mu.Unlock()

	// Handed-off batches are written even after the run context ends.
	// drain bounds the wait.
	go func() {
		defer bb.inflight.Done()
		if err := bb.flush(context.WithoutCancel(ctx), batch); err != nil {
			bb.logger.WithError(err).Warn("batch flush failed")
		}
	}()
	return nil
}

func (bb *batchBuffer[T]) flushOnTimer() {
	bb.mu.Lock()
	ctx := bb.ctx
	batch := bb.detachLocked()
	bb.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}
	if err := bb.flush(ctx, batch); err != nil {
		bb.logger.WithError(err).Warn("timed batch flush failed")
	}
}

// detachLocked hands the pending items to the caller and resets the buffer.
func (bb *batchBuffer[T]) detachLocked() []T {
	if bb.timer != nil {
		bb.timer.Stop()
		bb.timer = nil
	}
	batch := bb.items
	bb.items = make([]T, 0, bb.size)
	return batch
}

func (bb *batchBuffer[T]) flush(ctx context.Context, batch []T) error {
	if len(batch) == 0 {
		return nil
	}
	start := time.Now()
	if err := bb.flushFn(ctx, batch); err != nil {
		bb.failed.Add(1)
		return fmt.Errorf("flush %d items: %w", len(batch), err)
	}
	bb.logger.WithFields(logrus.Fields{
		"size":    len(batch),
		"took_ms": time.Since(start).Milliseconds(),
	}).Debug("flushed batch")
	return nil
}

func (bb *batchBuffer[T]) drain(ctx context.Context) error {
	flushed := make(chan struct{})
	go func() {
		bb.inflight.Wait()
		close(flushed)
	}()
	select {
	case <-flushed:
	case <-ctx.Done():
		return fmt.Errorf("wait for in-flight flushes: %w", ctx.Err())
	}

	bb.mu.Lock()
	batch := bb.detachLocked()
	bb.mu.Unlock()
	return bb.flush(ctx, batch)
}
