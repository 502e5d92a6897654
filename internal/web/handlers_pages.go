package web

import (
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/emiliopalmerini/growthops/internal/domain"
	sharedmw "github.com/emiliopalmerini/growthops/internal/shared/middleware"
	"github.com/emiliopalmerini/growthops/internal/web/templates"
	"github.com/emiliopalmerini/growthops/internal/workspace"
)

func (s *Server) render(w http.ResponseWriter, r *http.Request, page templates.Page, body templ.Component) {
	s.renderStatus(w, r, http.StatusOK, page, body)
}

// renderStatus writes body alone for htmx requests and wrapped in the layout otherwise.
func (s *Server) renderStatus(w http.ResponseWriter, r *http.Request, status int, page templates.Page, body templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	c := body
	if !sharedmw.IsHTMX(r) {
		page.Owner = sharedmw.OwnerFrom(r.Context())
		c = templates.Layout(page, body)
	}
	if err := c.Render(r.Context(), w); err != nil {
		s.logger.Warn("render failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
}

func (s *Server) handleBoards(w http.ResponseWriter, r *http.Request) {
	boards := s.svc.Boards()
	rows := make([]templates.BoardSummary, len(boards))
	for i, b := range boards {
		rows[i].Board = b
		for _, e := range s.svc.Experiments(b.ID) {
			rows[i].Experiments++
			if e.Status == domain.StatusRunning {
				rows[i].Running++
			}
		}
	}
	s.render(w, r, templates.Page{Title: "Boards", Active: "boards"}, templates.BoardList(rows))
}

func (s *Server) handleCreateBoardForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.writePageError(w, r, errBadRequest)
		return
	}
	b, err := s.svc.CreateBoard(r.Context(), r.FormValue("name"), r.FormValue("description"))
	if err != nil {
		s.writePageError(w, r, err)
		return
	}
	redirect(w, r, "/boards/"+b.ID)
}

func (s *Server) kanbanData(id string) (templates.KanbanData, error) {
	b, err := s.svc.Board(id)
	if err != nil {
		return templates.KanbanData{}, err
	}
	cols, err := s.svc.Kanban(id)
	if err != nil {
		return templates.KanbanData{}, err
	}
	return templates.KanbanData{Board: b, Columns: cols}, nil
}

func (s *Server) handleKanban(w http.ResponseWriter, r *http.Request) {
	data, err := s.kanbanData(chi.URLParam(r, "id"))
	if err != nil {
		s.writePageError(w, r, err)
		return
	}
	s.render(w, r, templates.Page{Title: data.Board.Name, Active: "boards"}, templates.Kanban(data))
}

func (s *Server) handleCreateExperimentForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.writePageError(w, r, errBadRequest)
		return
	}
	boardID := chi.URLParam(r, "id")
	_, err := s.svc.CreateExperiment(r.Context(), workspace.NewExperimentInput{
		BoardID: boardID,
		Title:   r.FormValue("title"),
		Market:  r.FormValue("market"),
		Type:    r.FormValue("type"),
		Owner:   sharedmw.OwnerFrom(r.Context()),
		Tags:    splitTags(r.FormValue("tags")),
	})
	if err != nil {
		s.writePageError(w, r, err)
		return
	}
	s.kanbanFragment(w, r, boardID)
}

func (s *Server) handleStatusForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.writePageError(w, r, errBadRequest)
		return
	}
	status, err := domain.ParseStatus(r.FormValue("status"))
	if err != nil {
		s.writePageError(w, r, err)
		return
	}
	e, err := s.svc.SetStatus(r.Context(), chi.URLParam(r, "id"), status)
	if err != nil {
		s.writePageError(w, r, err)
		return
	}
	s.kanbanFragment(w, r, e.BoardID)
}

// kanbanFragment answers htmx with the refreshed columns and plain forms with a redirect.
func (s *Server) kanbanFragment(w http.ResponseWriter, r *http.Request, boardID string) {
	if !sharedmw.IsHTMX(r) {
		redirect(w, r, "/boards/"+boardID)
		return
	}
	data, err := s.kanbanData(boardID)
	if err != nil {
		s.writePageError(w, r, err)
		return
	}
	s.render(w, r, templates.Page{}, templates.KanbanColumns(data))
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b, err := s.svc.Board(id)
	if err != nil {
		s.writePageError(w, r, err)
		return
	}
	stats, err := s.svc.Analytics(id)
	if err != nil {
		s.writePageError(w, r, err)
		return
	}
	s.render(w, r, templates.Page{Title: b.Name + " analytics", Active: "boards"},
		templates.Analytics(templates.AnalyticsData{Board: b, Stats: stats}))
}

func (s *Server) handleVault(w http.ResponseWriter, r *http.Request) {
	f := vaultFilter(r)
	boards := s.svc.Boards()
	names := make(map[string]string, len(boards))
	for _, b := range boards {
		names[b.ID] = b.Name
	}

	exps := s.svc.Vault(f)
	rows := make([]templates.VaultRow, len(exps))
	for i, e := range exps {
		rows[i] = templates.VaultRow{Experiment: e, BoardName: names[e.BoardID], Score: s.svc.Score(e)}
	}

	if sharedmw.IsHTMX(r) && sharedmw.HTMXTarget(r) == "vault-table" {
		s.render(w, r, templates.Page{}, templates.VaultTable(rows))
		return
	}
	s.render(w, r, templates.Page{Title: "Vault", Active: "vault"},
		templates.Vault(templates.VaultData{Filter: f, Boards: boards, Rows: rows}))
}

func vaultFilter(r *http.Request) domain.VaultFilter {
	q := r.URL.Query()
	return domain.VaultFilter{
		BoardID: q.Get("board"),
		Search:  q.Get("q"),
		Status:  q.Get("status"),
		Result:  q.Get("result"),
		Market:  q.Get("market"),
		Type:    q.Get("type"),
	}
}

func splitTags(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// redirect uses HX-Redirect for htmx requests so the whole page navigates.
func redirect(w http.ResponseWriter, r *http.Request, url string) {
	if sharedmw.IsHTMX(r) {
		w.Header().Set("HX-Redirect", url)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}
