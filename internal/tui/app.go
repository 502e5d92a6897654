// Package tui is the terminal dashboard: a kanban screen and an analytics
// screen over one board at a time.
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/emiliopalmerini/growthops/internal/domain"
	"github.com/emiliopalmerini/growthops/internal/tui/components"
	"github.com/emiliopalmerini/growthops/internal/tui/theme"
)

// Workspace is the slice of the workspace service the dashboard drives.
type Workspace interface {
	Boards() []*domain.Board
	Board(id string) (*domain.Board, error)
	Experiments(boardID string) []*domain.Experiment
	Kanban(boardID string) ([]domain.Column, error)
	Analytics(boardID string) (domain.BoardAnalytics, error)
	Score(e *domain.Experiment) float64
	SetStatus(ctx context.Context, id string, status domain.Status) (*domain.Experiment, error)
	SetDimensionScore(ctx context.Context, id, dimensionID string, value int) (*domain.Experiment, error)
	Load(ctx context.Context) error
	Flush(ctx context.Context) error
}

// ErrNoBoards is returned when there is nothing to show.
var ErrNoBoards = errors.New("no boards, create one with: growthops board create <name>")

// Screen identifies the current screen
type Screen int

const (
	ScreenKanban Screen = iota
	ScreenAnalytics
)

// intakeWeeks is the span of the weekly intake sparkline.
const intakeWeeks = 12

type refreshedMsg struct{ err error }

type mutatedMsg struct {
	exp  *domain.Experiment
	note string
	err  error
}

type openScoringMsg struct{ exp *domain.Experiment }

type closeScoringMsg struct{}

// App is the root dashboard model.
type App struct {
	ctx     context.Context
	ws      Workspace
	boardID string
	screen  Screen
	now     func() time.Time

	kanban    *Kanban
	analytics *Analytics
	scoring   *Scoring
	picker    *components.Picker
	spinner   spinner.Model
	loading   bool

	status string
	err    error
	styles *theme.Styles
	width  int
	height int
}

// New builds the dashboard on boardID, or on the first board when boardID is empty.
func New(ctx context.Context, ws Workspace, boardID string) (*App, error) {
	if boardID == "" {
		boards := ws.Boards()
		if len(boards) == 0 {
			return nil, ErrNoBoards
		}
		boardID = boards[0].ID
	}
	if _, err := ws.Board(boardID); err != nil {
		return nil, err
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Default().Subtitle

	a := &App{
		ctx:       ctx,
		ws:        ws,
		boardID:   boardID,
		now:       time.Now,
		kanban:    NewKanban(ctx, ws),
		analytics: NewAnalytics(),
		spinner:   sp,
		styles:    theme.Default(),
	}
	a.reload()
	return a, nil
}

// Run starts the dashboard and blocks until the user quits or ctx ends.
func Run(ctx context.Context, ws Workspace, boardID string) error {
	app, err := New(ctx, ws, boardID)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// BoardID returns the board on screen.
func (a *App) BoardID() string { return a.boardID }

// Screen returns the active screen.
func (a *App) Screen() Screen { return a.screen }

// reload pulls the current board from the working copy into both screens.
func (a *App) reload() {
	board, err := a.ws.Board(a.boardID)
	if err != nil {
		a.err = err
		return
	}
	cols, err := a.ws.Kanban(a.boardID)
	if err != nil {
		a.err = err
		return
	}
	summary, err := a.ws.Analytics(a.boardID)
	if err != nil {
		a.err = err
		return
	}
	a.kanban.SetColumns(board, cols)
	a.analytics.SetData(board, summary, domain.WeeklyIntake(a.ws.Experiments(a.boardID), a.now(), intakeWeeks))
}

func (a *App) refresh() tea.Cmd {
	ctx, ws := a.ctx, a.ws
	return func() tea.Msg {
		if err := ws.Flush(ctx); err != nil {
			return refreshedMsg{fmt.Errorf("flush: %w", err)}
		}
		if err := ws.Load(ctx); err != nil {
			return refreshedMsg{fmt.Errorf("refresh: %w", err)}
		}
		return refreshedMsg{}
	}
}

// switchBoard moves by delta through the board list, wrapping around.
func (a *App) switchBoard(delta int) {
	boards := a.ws.Boards()
	if len(boards) < 2 {
		return
	}
	i := 0
	for j, b := range boards {
		if b.ID == a.boardID {
			i = j
		}
	}
	i = (i + delta + len(boards)) % len(boards)
	a.selectBoard(boards[i].ID)
}

func (a *App) selectBoard(id string) {
	a.boardID = id
	a.kanban.Reset()
	a.status = ""
	a.err = nil
	a.reload()
}

func (a *App) openPicker() {
	var opts []components.Option
	for _, b := range a.ws.Boards() {
		opts = append(opts, components.Option{Label: b.Name, Value: b.ID})
	}
	p := components.NewPicker("Switch board", opts, a.boardID)
	a.picker = &p
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.kanban.SetWidth(msg.Width)
		a.analytics.SetWidth(msg.Width)
		return a, nil

	case spinner.TickMsg:
		if !a.loading {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case refreshedMsg:
		a.loading = false
		a.err = msg.err
		if msg.err == nil {
			a.status = "Refreshed"
		}
		if _, err := a.ws.Board(a.boardID); err != nil {
			boards := a.ws.Boards()
			if len(boards) == 0 {
				a.err = ErrNoBoards
				return a, nil
			}
			a.boardID = boards[0].ID
		}
		a.reload()
		return a, nil

	case mutatedMsg:
		a.err = msg.err
		if msg.err == nil {
			a.status = msg.note
			a.reload()
			a.kanban.Focus(msg.exp.ID)
		}
		return a, nil

	case openScoringMsg:
		board, err := a.ws.Board(msg.exp.BoardID)
		if err != nil {
			a.err = err
			return a, nil
		}
		a.scoring = NewScoring(a.ctx, a.ws, msg.exp, board)
		return a, nil

	case closeScoringMsg:
		a.scoring = nil
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	if a.scoring != nil {
		var cmd tea.Cmd
		a.scoring, cmd = a.scoring.Update(msg)
		return a, cmd
	}

	if a.picker != nil {
		if msg.String() == "esc" {
			a.picker = nil
			return a, nil
		}
		p, _ := a.picker.Update(msg)
		a.picker = &p
		if p.Chosen != "" {
			a.picker = nil
			a.selectBoard(p.Chosen)
		}
		return a, nil
	}

	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "1":
		a.screen = ScreenKanban
		return a, nil
	case "2":
		a.screen = ScreenAnalytics
		return a, nil
	case "tab":
		a.switchBoard(1)
		return a, nil
	case "shift+tab":
		a.switchBoard(-1)
		return a, nil
	case "b":
		a.openPicker()
		return a, nil
	case "r":
		if a.loading {
			return a, nil
		}
		a.loading = true
		a.status = ""
		return a, tea.Batch(a.spinner.Tick, a.refresh())
	}

	if a.screen == ScreenKanban {
		var cmd tea.Cmd
		a.kanban, cmd = a.kanban.Update(msg)
		return a, cmd
	}
	return a, nil
}

// View implements tea.Model
func (a *App) View() string {
	header := a.renderHeader()
	nav := NewNavBar([]NavItem{
		{Key: "1", Label: "Kanban", Active: a.screen == ScreenKanban},
		{Key: "2", Label: "Analytics", Active: a.screen == ScreenAnalytics},
	}).View()

	var content string
	switch {
	case a.scoring != nil:
		content = a.scoring.View()
	case a.picker != nil:
		content = a.picker.View()
	case a.screen == ScreenAnalytics:
		content = a.analytics.View()
	default:
		content = a.kanban.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, nav, "", content, "", a.renderFooter())
}

func (a *App) renderHeader() string {
	title := a.styles.Title.Render("GROWTHOPS")
	name := a.boardID
	if b, err := a.ws.Board(a.boardID); err == nil {
		name = b.Name
	}
	board := a.styles.Subtitle.Render(name)
	return lipgloss.JoinHorizontal(lipgloss.Bottom, title, "  ", board)
}

func (a *App) renderFooter() string {
	var line string
	switch {
	case a.loading:
		line = a.spinner.View() + " " + a.styles.Muted.Render("syncing...")
	case a.err != nil:
		line = a.styles.Error.Render(a.err.Error())
	case a.status != "":
		line = a.styles.Success.Render(a.status)
	}

	var help components.HelpBar
	switch {
	case a.scoring != nil:
		help = components.NewHelpBar(
			components.KeyBinding{Key: "←/→", Desc: "score"},
			components.KeyBinding{Key: "↑/↓", Desc: "dimension"},
			components.KeyBinding{Key: "enter", Desc: "save"},
			components.KeyBinding{Key: "esc", Desc: "cancel"},
		)
	case a.picker != nil:
		help = components.NewHelpBar(
			components.KeyBinding{Key: "↑/↓", Desc: "move"},
			components.KeyBinding{Key: "enter", Desc: "open"},
			components.KeyBinding{Key: "esc", Desc: "cancel"},
		)
	default:
		bindings := []components.KeyBinding{
			{Key: "1/2", Desc: "screen"},
			{Key: "tab", Desc: "next board"},
			{Key: "b", Desc: "boards"},
			{Key: "r", Desc: "refresh"},
		}
		if a.screen == ScreenKanban {
			bindings = append(bindings,
				components.KeyBinding{Key: "hjkl", Desc: "move"},
				components.KeyBinding{Key: "[ ]", Desc: "status"},
				components.KeyBinding{Key: "s", Desc: "score"},
			)
		}
		bindings = append(bindings, components.KeyBinding{Key: "q", Desc: "quit"})
		help = components.NewHelpBar(bindings...)
	}

	if line == "" {
		return help.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, line, help.View())
}
