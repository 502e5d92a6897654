package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/emiliopalmerini/growthops/internal/domain"
	sharedmw "github.com/emiliopalmerini/growthops/internal/shared/middleware"
	"github.com/emiliopalmerini/growthops/internal/workspace"
)

// experimentResponse adds the composite score to the stored fields.
type experimentResponse struct {
	*domain.Experiment
	Score float64 `json:"score"`
}

func (s *Server) experimentJSON(e *domain.Experiment) experimentResponse {
	return experimentResponse{Experiment: e, Score: s.svc.Score(e)}
}

func (s *Server) experimentsJSON(exps []*domain.Experiment) []experimentResponse {
	out := make([]experimentResponse, len(exps))
	for i, e := range exps {
		out[i] = s.experimentJSON(e)
	}
	return out
}

// respondExperiment writes the result of a single-experiment mutation.
func (s *Server) respondExperiment(w http.ResponseWriter, r *http.Request, e *domain.Experiment, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.experimentJSON(e))
}

func (s *Server) handleAPIListBoards(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Boards())
}

type createBoardRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handleAPICreateBoard(w http.ResponseWriter, r *http.Request) {
	var req createBoardRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	b, err := s.svc.CreateBoard(r.Context(), req.Name, req.Description)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) handleAPIGetBoard(w http.ResponseWriter, r *http.Request) {
	b, err := s.svc.Board(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleAPIUpdateBoard(w http.ResponseWriter, r *http.Request) {
	var edit workspace.BoardEdit
	if err := decodeJSON(r, &edit); err != nil {
		s.writeError(w, r, err)
		return
	}
	b, err := s.svc.UpdateBoard(r.Context(), chi.URLParam(r, "id"), edit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleAPISaveBoardConfig(w http.ResponseWriter, r *http.Request) {
	var cfg domain.BoardConfig
	if err := decodeJSON(r, &cfg); err != nil {
		s.writeError(w, r, err)
		return
	}
	b, err := s.svc.SaveBoardConfig(r.Context(), chi.URLParam(r, "id"), cfg)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleAPIBoardExperiments(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.svc.Board(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.experimentsJSON(s.svc.Experiments(id)))
}

type columnResponse struct {
	Status      domain.Status        `json:"status"`
	Label       string               `json:"label"`
	Experiments []experimentResponse `json:"experiments"`
}

func (s *Server) handleAPIKanban(w http.ResponseWriter, r *http.Request) {
	cols, err := s.svc.Kanban(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]columnResponse, len(cols))
	for i, c := range cols {
		out[i] = columnResponse{Status: c.Status, Label: c.Label, Experiments: s.experimentsJSON(c.Experiments)}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAPIAnalytics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Analytics(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleAPIListExperiments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.experimentsJSON(s.svc.Experiments(r.URL.Query().Get("board"))))
}

func (s *Server) handleAPICreateExperiment(w http.ResponseWriter, r *http.Request) {
	var in workspace.NewExperimentInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if in.Owner == "" {
		in.Owner = sharedmw.OwnerFrom(r.Context())
	}
	e, err := s.svc.CreateExperiment(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.experimentJSON(e))
}

func (s *Server) handleAPIGetExperiment(w http.ResponseWriter, r *http.Request) {
	e, err := s.svc.Experiment(chi.URLParam(r, "id"))
	s.respondExperiment(w, r, e, err)
}

func (s *Server) handleAPIEditExperiment(w http.ResponseWriter, r *http.Request) {
	var edit domain.Edit
	if err := decodeJSON(r, &edit); err != nil {
		s.writeError(w, r, err)
		return
	}
	e, err := s.svc.EditExperiment(r.Context(), chi.URLParam(r, "id"), edit)
	s.respondExperiment(w, r, e, err)
}

func (s *Server) handleAPIDeleteExperiment(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleAPISetStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	e, err := s.svc.SetStatus(r.Context(), chi.URLParam(r, "id"), status)
	s.respondExperiment(w, r, e, err)
}

type scoreRequest struct {
	Value int `json:"value"`
}

func (s *Server) handleAPISetDimensionScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	e, err := s.svc.SetDimensionScore(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "dimension"), req.Value)
	s.respondExperiment(w, r, e, err)
}

type iceRequest struct {
	Impact     int `json:"impact"`
	Confidence int `json:"confidence"`
	Ease       int `json:"ease"`
}

func (s *Server) handleAPISetLegacyScores(w http.ResponseWriter, r *http.Request) {
	var req iceRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	e, err := s.svc.SetLegacyScores(r.Context(), chi.URLParam(r, "id"), req.Impact, req.Confidence, req.Ease)
	s.respondExperiment(w, r, e, err)
}

type metricValueRequest struct {
	Baseline *float64 `json:"baseline"`
	Target   *float64 `json:"target"`
	Actual   *float64 `json:"actual"`
}

func (s *Server) handleAPISetMetricValue(w http.ResponseWriter, r *http.Request) {
	var req metricValueRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	e, err := s.svc.SetMetricValue(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "metric"), req.Baseline, req.Target, req.Actual)
	s.respondExperiment(w, r, e, err)
}

type resultRequest struct {
	Result domain.Result `json:"result"`
}

func (s *Server) handleAPISetResult(w http.ResponseWriter, r *http.Request) {
	var req resultRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	e, err := s.svc.SetResult(r.Context(), chi.URLParam(r, "id"), req.Result)
	s.respondExperiment(w, r, e, err)
}

type tagRequest struct {
	Tag string `json:"tag"`
}

func (s *Server) handleAPIAddTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	e, err := s.svc.AddTag(r.Context(), chi.URLParam(r, "id"), req.Tag)
	s.respondExperiment(w, r, e, err)
}

func (s *Server) handleAPIRemoveTag(w http.ResponseWriter, r *http.Request) {
	e, err := s.svc.RemoveTag(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "tag"))
	s.respondExperiment(w, r, e, err)
}

type commentRequest struct {
	Text          string `json:"text"`
	HasAttachment bool   `json:"has_attachment"`
}

func (s *Server) handleAPIAddComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	owner := sharedmw.OwnerFrom(r.Context())
	e, err := s.svc.AddComment(r.Context(), chi.URLParam(r, "id"), workspace.CommentInput{
		AuthorID:      owner,
		AuthorName:    owner,
		Text:          req.Text,
		HasAttachment: req.HasAttachment,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.experimentJSON(e))
}

func (s *Server) handleAPIArchive(w http.ResponseWriter, r *http.Request) {
	e, err := s.svc.Archive(r.Context(), chi.URLParam(r, "id"))
	s.respondExperiment(w, r, e, err)
}

func (s *Server) handleAPIComplete(w http.ResponseWriter, r *http.Request) {
	e, err := s.svc.Complete(r.Context(), chi.URLParam(r, "id"))
	s.respondExperiment(w, r, e, err)
}

func (s *Server) handleAPIVault(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.experimentsJSON(s.svc.Vault(vaultFilter(r))))
}

type syncResponse struct {
	Pending int    `json:"pending"`
	Error   string `json:"error,omitempty"`
}

// handleAPISync flushes pending writes. Failed writes stay queued and are
// reported with 503.
func (s *Server) handleAPISync(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Flush(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, syncResponse{Pending: s.svc.Pending(), Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, syncResponse{Pending: s.svc.Pending()})
}
