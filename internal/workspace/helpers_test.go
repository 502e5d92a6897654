package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/time/rate"

	"github.com/emiliopalmerini/growthops/internal/adapters/memory"
	"github.com/emiliopalmerini/growthops/internal/domain"
)

var errStoreDown = errors.New("store unavailable")

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

type recordingMetrics struct {
	mu           sync.Mutex
	created      int
	transitions  []string
	completed    []float64
	syncFailures []string
}

func (m *recordingMetrics) RecordExperimentCreated(context.Context, *domain.Experiment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created++
}

func (m *recordingMetrics) RecordStatusChange(_ context.Context, from, to domain.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions = append(m.transitions, string(from)+"->"+string(to))
}

func (m *recordingMetrics) RecordCompleted(_ context.Context, _ *domain.Experiment, score float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completed = append(m.completed, score)
}

func (m *recordingMetrics) RecordSyncFailure(_ context.Context, op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncFailures = append(m.syncFailures, op)
}

func (m *recordingMetrics) Close(context.Context) error { return nil }

// flakyStore wraps the memory store, can fail writes on demand and records
// the order writes arrive in.
type flakyStore struct {
	*memory.Store

	mu     sync.Mutex
	fail   bool
	writes []string
	syncs  int
}

func (s *flakyStore) setFailing(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = v
}

func (s *flakyStore) record(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errStoreDown
	}
	s.writes = append(s.writes, op)
	return nil
}

func (s *flakyStore) written() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.writes...)
}

func (s *flakyStore) UpsertBoard(ctx context.Context, b *domain.Board) error {
	if err := s.record("board:" + b.ID); err != nil {
		return err
	}
	return s.Store.UpsertBoard(ctx, b)
}

func (s *flakyStore) UpsertExperiment(ctx context.Context, e *domain.Experiment) error {
	if err := s.record("experiment:" + e.ID); err != nil {
		return err
	}
	return s.Store.UpsertExperiment(ctx, e)
}

func (s *flakyStore) DeleteExperiment(ctx context.Context, id string) error {
	if err := s.record("delete:" + id); err != nil {
		return err
	}
	return s.Store.DeleteExperiment(ctx, id)
}

func (s *flakyStore) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncs++
	return nil
}

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	svc     *Service
	store   *flakyStore
	metrics *recordingMetrics
	logs    *observer.ObservedLogs
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	store := &flakyStore{Store: memory.NewStore()}
	metrics := &recordingMetrics{}
	opts.WriteRate = rate.Inf
	svc := New(store, fixedClock{testNow}, &seqIDs{}, metrics, zap.New(core), opts)
	return &harness{svc: svc, store: store, metrics: metrics, logs: logs}
}

// board creates a board and flushes it.
func (h *harness) board(t *testing.T, name string) *domain.Board {
	t.Helper()
	b, err := h.svc.CreateBoard(context.Background(), name, "")
	if err != nil {
		t.Fatalf("CreateBoard failed: %v", err)
	}
	return b
}

func (h *harness) experiment(t *testing.T, boardID, title string) *domain.Experiment {
	t.Helper()
	e, err := h.svc.CreateExperiment(context.Background(), NewExperimentInput{BoardID: boardID, Title: title, Owner: "Me"})
	if err != nil {
		t.Fatalf("CreateExperiment failed: %v", err)
	}
	return e
}

func (h *harness) flush(t *testing.T) {
	t.Helper()
	if err := h.svc.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
}
