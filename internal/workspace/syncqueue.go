package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/emiliopalmerini/growthops/internal/domain"
	"github.com/emiliopalmerini/growthops/internal/ports"
)

// Default remote write rate.
const (
	defaultWriteRate  = 50
	defaultWriteBurst = 10
)

type writeOp string

const (
	opUpsertBoard      writeOp = "upsert_board"
	opUpsertExperiment writeOp = "upsert_experiment"
	opDeleteExperiment writeOp = "delete_experiment"
)

// write is one pending store call. Exactly one of board or experiment is set,
// except for deletes which carry only the id.
type write struct {
	op         writeOp
	id         string
	board      *domain.Board
	experiment *domain.Experiment
}

func (w write) key() string {
	if w.op == opUpsertBoard {
		return "board:" + w.id
	}
	return "experiment:" + w.id
}

// conflictFunc is called after the store rejects a stale write.
type conflictFunc func(ctx context.Context, w write)

// WriteQueue holds writes that have been applied locally but not yet stored.
// Writes to the same record coalesce so only the latest snapshot is sent, in the
// order the record was first enqueued.
type WriteQueue struct {
	store      ports.Store
	limiter    *rate.Limiter
	metrics    ports.MetricsExporter
	logger     *zap.Logger
	onConflict conflictFunc

	mu      sync.Mutex
	order   []string
	pending map[string]write
	notify  chan struct{}

	flushMu sync.Mutex
}

func newWriteQueue(store ports.Store, limiter *rate.Limiter, metrics ports.MetricsExporter, logger *zap.Logger, onConflict conflictFunc) *WriteQueue {
	return &WriteQueue{
		store:      store,
		limiter:    limiter,
		metrics:    metrics,
		logger:     logger,
		onConflict: onConflict,
		pending:    make(map[string]write),
		notify:     make(chan struct{}, 1),
	}
}

func (q *WriteQueue) enqueue(w write) {
	q.mu.Lock()
	k := w.key()
	if _, ok := q.pending[k]; !ok {
		q.order = append(q.order, k)
	}
	q.pending[k] = w
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Len returns the number of records waiting to be stored.
func (q *WriteQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}

// snapshot returns the pending writes in flush order.
func (q *WriteQueue) snapshot() []write {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]write, 0, len(q.order))
	for _, k := range q.order {
		out = append(out, q.pending[k])
	}
	return out
}

func (q *WriteQueue) drain() []write {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]write, 0, len(q.order))
	for _, k := range q.order {
		out = append(out, q.pending[k])
	}
	q.order = nil
	q.pending = make(map[string]write)
	return out
}

// requeue puts failed writes back ahead of anything enqueued during the flush.
// A record written again in the meantime keeps its newer snapshot.
func (q *WriteQueue) requeue(failed []write) {
	if len(failed) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	order := make([]string, 0, len(failed)+len(q.order))
	for _, w := range failed {
		k := w.key()
		if _, ok := q.pending[k]; ok {
			continue
		}
		q.pending[k] = w
		order = append(order, k)
	}
	q.order = append(order, q.order...)
}

// Flush sends every pending write. Writes that fail stay queued for the next
// flush; the first such error is returned. Stale writes are dropped and handed
// to the conflict handler.
func (q *WriteQueue) Flush(ctx context.Context) error {
	q.flushMu.Lock()
	defer q.flushMu.Unlock()

	batch := q.drain()
	var failed []write
	var firstErr error

	for i, w := range batch {
		if err := q.limiter.Wait(ctx); err != nil {
			failed = append(failed, batch[i:]...)
			if firstErr == nil {
				firstErr = fmt.Errorf("flush interrupted: %w", err)
			}
			break
		}

		err := q.apply(ctx, w)
		switch {
		case err == nil:
		case errors.Is(err, ports.ErrConflict):
			q.logger.Warn("stale write rejected, keeping stored version",
				zap.String("op", string(w.op)),
				zap.String("id", w.id))
			if q.onConflict != nil {
				q.onConflict(ctx, w)
			}
		default:
			q.logger.Error("sync failed",
				zap.String("op", string(w.op)),
				zap.String("id", w.id),
				zap.Error(err))
			q.metrics.RecordSyncFailure(ctx, string(w.op))
			failed = append(failed, w)
			if firstErr == nil {
				firstErr = fmt.Errorf("%s %s: %w", w.op, w.id, err)
			}
		}
	}

	q.requeue(failed)
	return firstErr
}

func (q *WriteQueue) apply(ctx context.Context, w write) error {
	switch w.op {
	case opUpsertBoard:
		return q.store.UpsertBoard(ctx, w.board)
	case opUpsertExperiment:
		return q.store.UpsertExperiment(ctx, w.experiment)
	case opDeleteExperiment:
		return q.store.DeleteExperiment(ctx, w.id)
	}
	return fmt.Errorf("unknown write op %q", w.op)
}

// Run flushes on every tick and whenever a write is enqueued, until ctx is done.
func (q *WriteQueue) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-q.notify:
		}
		if q.Len() == 0 {
			continue
		}
		if err := q.Flush(ctx); err != nil && ctx.Err() == nil {
			q.logger.Debug("pending writes kept for retry", zap.Int("pending", q.Len()))
		}
	}
}

// Close performs a final flush.
func (q *WriteQueue) Close(ctx context.Context) error {
	if q.Len() == 0 {
		return nil
	}
	return q.Flush(ctx)
}
