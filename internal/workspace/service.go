// Package workspace holds the in-memory working copy of boards and experiments
// and keeps it in step with the store.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/emiliopalmerini/growthops/internal/domain"
	"github.com/emiliopalmerini/growthops/internal/ports"
)

// Options tune the service.
type Options struct {
	// RequireResultOnComplete rejects Complete until a result is recorded.
	RequireResultOnComplete bool
	// WriteRate and WriteBurst bound store writes per second. Zero uses the defaults.
	WriteRate  rate.Limit
	WriteBurst int
}

// syncer is implemented by stores backed by a replica.
type syncer interface {
	Sync() error
}

// Service applies every mutation to the local copy first and queues the store
// write. It is safe for concurrent use.
type Service struct {
	store   ports.Store
	clock   ports.Clock
	ids     ports.IDGenerator
	metrics ports.MetricsExporter
	logger  *zap.Logger
	opts    Options
	queue   *WriteQueue

	mu          sync.RWMutex
	boards      []*domain.Board
	experiments []*domain.Experiment
}

// New returns a service with an empty working copy. Call Load to fill it.
func New(store ports.Store, clock ports.Clock, ids ports.IDGenerator, metrics ports.MetricsExporter, logger *zap.Logger, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.WriteRate == 0 {
		opts.WriteRate = defaultWriteRate
	}
	if opts.WriteBurst == 0 {
		opts.WriteBurst = defaultWriteBurst
	}
	s := &Service{
		store:   store,
		clock:   clock,
		ids:     ids,
		metrics: metrics,
		logger:  logger,
		opts:    opts,
	}
	s.queue = newWriteQueue(store, rate.NewLimiter(opts.WriteRate, opts.WriteBurst), metrics, logger.Named("sync"), s.resolveConflict)
	return s
}

// Load replaces the working copy with the stored records. Writes still pending
// are laid over the fetched state so optimistic changes are not lost.
func (s *Service) Load(ctx context.Context) error {
	if r, ok := s.store.(syncer); ok {
		if err := r.Sync(); err != nil {
			s.logger.Warn("replica sync failed, using local copy", zap.Error(err))
			s.metrics.RecordSyncFailure(ctx, "sync")
		}
	}

	var boards []*domain.Board
	var exps []*domain.Experiment
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		boards, err = s.store.FetchBoards(gctx)
		if err != nil {
			return fmt.Errorf("failed to fetch boards: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		exps, err = s.store.FetchExperiments(gctx)
		if err != nil {
			return fmt.Errorf("failed to fetch experiments: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.boards = boards
	s.experiments = exps
	for _, w := range s.queue.snapshot() {
		switch w.op {
		case opUpsertBoard:
			s.putBoard(w.board.Clone())
		case opUpsertExperiment:
			s.putExperiment(w.experiment.Clone())
		case opDeleteExperiment:
			s.experiments = domain.RemoveByID(s.experiments, w.id)
		}
	}

	s.logger.Debug("workspace loaded",
		zap.Int("boards", len(s.boards)),
		zap.Int("experiments", len(s.experiments)))
	return nil
}

// Flush pushes pending writes to the store.
func (s *Service) Flush(ctx context.Context) error {
	return s.queue.Flush(ctx)
}

// Run flushes in the background until ctx is done.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	s.queue.Run(ctx, interval)
}

// Pending returns the number of records not yet stored.
func (s *Service) Pending() int {
	return s.queue.Len()
}

// Close flushes the remaining writes.
func (s *Service) Close(ctx context.Context) error {
	return s.queue.Close(ctx)
}

// resolveConflict replaces the local record with the stored one.
func (s *Service) resolveConflict(ctx context.Context, w write) {
	switch w.op {
	case opUpsertBoard:
		b, err := s.store.GetBoard(ctx, w.id)
		if err != nil {
			s.logger.Error("failed to refetch board", zap.String("id", w.id), zap.Error(err))
			return
		}
		s.mu.Lock()
		s.putBoard(b)
		s.mu.Unlock()
	case opUpsertExperiment:
		e, err := s.store.GetExperiment(ctx, w.id)
		s.mu.Lock()
		defer s.mu.Unlock()
		switch {
		case errors.Is(err, domain.ErrNotFound):
			s.experiments = domain.RemoveByID(s.experiments, w.id)
		case err != nil:
			s.logger.Error("failed to refetch experiment", zap.String("id", w.id), zap.Error(err))
		default:
			s.putExperiment(e)
		}
	}
}

// putBoard replaces or appends b. Callers hold mu.
func (s *Service) putBoard(b *domain.Board) {
	if i := s.boardIndex(b.ID); i >= 0 {
		s.boards[i] = b
		return
	}
	s.boards = append(s.boards, b)
}

// putExperiment replaces e in place or inserts it first. Callers hold mu.
func (s *Service) putExperiment(e *domain.Experiment) {
	if i := s.experimentIndex(e.ID); i >= 0 {
		s.experiments[i] = e
		return
	}
	s.experiments = append([]*domain.Experiment{e}, s.experiments...)
}

func (s *Service) boardIndex(id string) int {
	return slices.IndexFunc(s.boards, func(b *domain.Board) bool { return b.ID == id })
}

func (s *Service) experimentIndex(id string) int {
	return slices.IndexFunc(s.experiments, func(e *domain.Experiment) bool { return e.ID == id })
}

func (s *Service) board(id string) (*domain.Board, error) {
	if i := s.boardIndex(id); i >= 0 {
		return s.boards[i], nil
	}
	return nil, &domain.NotFoundError{Kind: "board", ID: id}
}

// Boards returns every board in creation order.
func (s *Service) Boards() []*domain.Board {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Board, len(s.boards))
	for i, b := range s.boards {
		out[i] = b.Clone()
	}
	return out
}

// Board returns a board by id.
func (s *Service) Board(id string) (*domain.Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, err := s.board(id)
	if err != nil {
		return nil, err
	}
	return b.Clone(), nil
}

// Experiments returns the experiments on a board, newest first. An empty
// boardID returns all of them.
func (s *Service) Experiments(boardID string) []*domain.Experiment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Experiment, 0, len(s.experiments))
	for _, e := range s.experiments {
		if boardID == "" || e.BoardID == boardID {
			out = append(out, e.Clone())
		}
	}
	return out
}

// Experiment returns an experiment by id.
func (s *Service) Experiment(id string) (*domain.Experiment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.experimentIndex(id); i >= 0 {
		return s.experiments[i].Clone(), nil
	}
	return nil, &domain.NotFoundError{Kind: "experiment", ID: id}
}

// CreateBoard adds a board with the default config.
func (s *Service) CreateBoard(ctx context.Context, name, description string) (*domain.Board, error) {
	cfg := domain.DefaultBoardConfig()
	b := &domain.Board{
		ID:          s.ids.NewID(),
		Name:        strings.TrimSpace(name),
		Description: description,
		CreatedAt:   s.clock.Now(),
		Config:      &cfg,
		Version:     1,
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.boards = append(s.boards, b)
	s.queue.enqueue(write{op: opUpsertBoard, id: b.ID, board: b.Clone()})
	s.logger.Info("board created", zap.String("id", b.ID), zap.String("name", b.Name))
	return b.Clone(), nil
}

// BoardEdit holds the renameable fields of a board. Nil fields are unchanged.
type BoardEdit struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// UpdateBoard renames or redescribes a board.
func (s *Service) UpdateBoard(ctx context.Context, id string, edit BoardEdit) (*domain.Board, error) {
	return s.mutateBoard(id, func(b *domain.Board) error {
		if edit.Name != nil {
			b.Name = strings.TrimSpace(*edit.Name)
		}
		if edit.Description != nil {
			b.Description = *edit.Description
		}
		return nil
	})
}

// SaveBoardConfig replaces the metrics and scoring dimensions of a board.
func (s *Service) SaveBoardConfig(ctx context.Context, id string, cfg domain.BoardConfig) (*domain.Board, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return s.mutateBoard(id, func(b *domain.Board) error {
		c := cfg.Clone()
		b.Config = &c
		return nil
	})
}

func (s *Service) mutateBoard(id string, fn func(*domain.Board) error) (*domain.Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.boardIndex(id)
	if i < 0 {
		return nil, &domain.NotFoundError{Kind: "board", ID: id}
	}
	next := s.boards[i].Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	next.Version++
	s.boards[i] = next
	s.queue.enqueue(write{op: opUpsertBoard, id: next.ID, board: next.Clone()})
	return next.Clone(), nil
}

// NewExperimentInput holds the fields of a new experiment. Empty market and
// type take the defaults.
type NewExperimentInput struct {
	BoardID     string   `json:"board_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Market      string   `json:"market"`
	Type        string   `json:"type"`
	Owner       string   `json:"owner"`
	Tags        []string `json:"tags"`
}

// CreateExperiment adds an idea to a board. On boards with custom scoring every
// dimension starts at its midpoint.
func (s *Service) CreateExperiment(ctx context.Context, in NewExperimentInput) (*domain.Experiment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.board(in.BoardID)
	if err != nil {
		return nil, err
	}

	e := domain.NewExperiment(s.ids.NewID(), b.ID, strings.TrimSpace(in.Title), in.Owner, s.clock.Now())
	e.Description = in.Description
	if in.Market != "" {
		e.Market = in.Market
	}
	if in.Type != "" {
		e.Type = in.Type
	}
	for _, t := range in.Tags {
		if err := e.AddTag(t); err != nil {
			return nil, err
		}
	}
	if b.UsesCustomDimensions() {
		domain.SeedDimensionScores(e, b.ScoringDimensions())
	}
	e.Version = 1
	if err := e.Validate(); err != nil {
		return nil, err
	}

	s.putExperiment(e)
	s.queue.enqueue(write{op: opUpsertExperiment, id: e.ID, experiment: e.Clone()})
	s.metrics.RecordExperimentCreated(ctx, e)
	s.logger.Info("experiment created", zap.String("id", e.ID), zap.String("board_id", b.ID))
	return e.Clone(), nil
}

// mutateExperiment applies fn to a copy of the experiment and keeps the copy
// only if fn and validation succeed. Unchanged versions are not queued.
func (s *Service) mutateExperiment(id string, fn func(e *domain.Experiment, b *domain.Board) error) (*domain.Experiment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.experimentIndex(id)
	if i < 0 {
		return nil, &domain.NotFoundError{Kind: "experiment", ID: id}
	}
	cur := s.experiments[i]
	b, _ := s.board(cur.BoardID)

	next := cur.Clone()
	if err := fn(next, b); err != nil {
		return nil, err
	}
	if next.Version == cur.Version {
		return next, nil
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	s.experiments[i] = next
	s.queue.enqueue(write{op: opUpsertExperiment, id: next.ID, experiment: next.Clone()})
	return next.Clone(), nil
}

// EditExperiment updates the free-form fields.
func (s *Service) EditExperiment(ctx context.Context, id string, edit domain.Edit) (*domain.Experiment, error) {
	return s.mutateExperiment(id, func(e *domain.Experiment, _ *domain.Board) error {
		return e.Apply(edit)
	})
}

// SetStatus moves an experiment to another column.
func (s *Service) SetStatus(ctx context.Context, id string, status domain.Status) (*domain.Experiment, error) {
	var from domain.Status
	e, err := s.mutateExperiment(id, func(e *domain.Experiment, _ *domain.Board) error {
		from = e.Status
		return e.SetStatus(status)
	})
	if err == nil && from != status {
		s.metrics.RecordStatusChange(ctx, from, status)
	}
	return e, err
}

// SetDimensionScore records a score on one of the board's scoring dimensions.
func (s *Service) SetDimensionScore(ctx context.Context, id, dimensionID string, value int) (*domain.Experiment, error) {
	return s.mutateExperiment(id, func(e *domain.Experiment, b *domain.Board) error {
		return e.SetDimensionValue(b.ScoringDimensions(), dimensionID, value)
	})
}

// SetLegacyScores sets the three ICE scores.
func (s *Service) SetLegacyScores(ctx context.Context, id string, impact, confidence, ease int) (*domain.Experiment, error) {
	return s.mutateExperiment(id, func(e *domain.Experiment, _ *domain.Board) error {
		return e.SetLegacyScores(impact, confidence, ease)
	})
}

// SetMetricValue records baseline, target and actual for a board metric.
func (s *Service) SetMetricValue(ctx context.Context, id, metricID string, baseline, target, actual *float64) (*domain.Experiment, error) {
	return s.mutateExperiment(id, func(e *domain.Experiment, b *domain.Board) error {
		return e.SetMetricValue(b.Metrics(), metricID, baseline, target, actual)
	})
}

// SetResult records the outcome of a finished experiment.
func (s *Service) SetResult(ctx context.Context, id string, result domain.Result) (*domain.Experiment, error) {
	return s.mutateExperiment(id, func(e *domain.Experiment, _ *domain.Board) error {
		return e.SetResult(result)
	})
}

// AddTag appends a tag.
func (s *Service) AddTag(ctx context.Context, id, tag string) (*domain.Experiment, error) {
	return s.mutateExperiment(id, func(e *domain.Experiment, _ *domain.Board) error {
		return e.AddTag(tag)
	})
}

// RemoveTag drops a tag.
func (s *Service) RemoveTag(ctx context.Context, id, tag string) (*domain.Experiment, error) {
	return s.mutateExperiment(id, func(e *domain.Experiment, _ *domain.Board) error {
		return e.RemoveTag(tag)
	})
}

// CommentInput is a comment before it is assigned an id and timestamp.
type CommentInput struct {
	AuthorID      string `json:"author_id"`
	AuthorName    string `json:"author_name"`
	Text          string `json:"text"`
	HasAttachment bool   `json:"has_attachment"`
}

// AddComment appends a comment. Locked experiments accept comments.
func (s *Service) AddComment(ctx context.Context, id string, in CommentInput) (*domain.Experiment, error) {
	return s.mutateExperiment(id, func(e *domain.Experiment, _ *domain.Board) error {
		return e.AddComment(domain.Comment{
			ID:            s.ids.NewID(),
			AuthorID:      in.AuthorID,
			AuthorName:    in.AuthorName,
			Text:          strings.TrimSpace(in.Text),
			Timestamp:     s.clock.Now(),
			HasAttachment: in.HasAttachment,
		})
	})
}

// Archive moves an experiment to learnings and hides it from the board.
func (s *Service) Archive(ctx context.Context, id string) (*domain.Experiment, error) {
	var from domain.Status
	e, err := s.mutateExperiment(id, func(e *domain.Experiment, _ *domain.Board) error {
		from = e.Status
		return e.Archive()
	})
	if err == nil && from != domain.StatusLearnings {
		s.metrics.RecordStatusChange(ctx, from, domain.StatusLearnings)
	}
	return e, err
}

// Complete archives and locks an experiment.
func (s *Service) Complete(ctx context.Context, id string) (*domain.Experiment, error) {
	var from domain.Status
	var score float64
	e, err := s.mutateExperiment(id, func(e *domain.Experiment, b *domain.Board) error {
		from = e.Status
		if err := e.Complete(s.opts.RequireResultOnComplete); err != nil {
			return err
		}
		score = domain.CompositeScore(e, b)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if from != domain.StatusLearnings {
		s.metrics.RecordStatusChange(ctx, from, domain.StatusLearnings)
	}
	s.metrics.RecordCompleted(ctx, e, score)
	s.logger.Info("experiment completed",
		zap.String("id", e.ID),
		zap.String("result", string(e.Result)),
		zap.Float64("score", score))
	return e, nil
}

// Delete removes an experiment permanently. Locked experiments may be deleted.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.experimentIndex(id) < 0 {
		return &domain.NotFoundError{Kind: "experiment", ID: id}
	}
	s.experiments = domain.RemoveByID(s.experiments, id)
	s.queue.enqueue(write{op: opDeleteExperiment, id: id})
	s.logger.Info("experiment deleted", zap.String("id", id))
	return nil
}

// Kanban returns the board's columns.
func (s *Service) Kanban(boardID string) ([]domain.Column, error) {
	b, err := s.Board(boardID)
	if err != nil {
		return nil, err
	}
	return domain.KanbanColumns(b, s.Experiments(boardID)), nil
}

// Vault returns the experiments matching f, newest first.
func (s *Service) Vault(f domain.VaultFilter) []*domain.Experiment {
	return domain.FilterVault(s.Experiments(f.BoardID), f)
}

// Analytics summarizes a board as of now.
func (s *Service) Analytics(boardID string) (domain.BoardAnalytics, error) {
	b, err := s.Board(boardID)
	if err != nil {
		return domain.BoardAnalytics{}, err
	}
	return domain.SummarizeBoard(b, s.Experiments(boardID), s.clock.Now()), nil
}

// Score returns the composite score of an experiment on its board.
func (s *Service) Score(e *domain.Experiment) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, _ := s.board(e.BoardID)
	return domain.CompositeScore(e, b)
}
