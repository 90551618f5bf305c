// Package tui is the terminal clock-in screen for a single worker.
package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"fichaje/internal/attendance"
	"fichaje/internal/project"
	"fichaje/internal/worker"
	"fichaje/internal/worktime"
)

type MsgTick struct{}

// ProjectLister supplies the projects a worker can pick from.
type ProjectLister interface {
	ListProjects(ctx context.Context, activeOnly bool) ([]project.Project, error)
}

type Model struct {
	Worker        *worker.Worker
	Projects      []project.Project
	SelectedIndex int
	Record        *attendance.Record
	Notice        *attendance.Notice
	Elapsed       time.Duration
	Err           error

	// History viewer state
	ShowHistory   bool
	HistoryScroll int
	History       []attendance.Record

	svc      *attendance.Service
	projects ProjectLister
	log      *zap.Logger
}

func NewModel(ctx context.Context, svc *attendance.Service, projects ProjectLister, w *worker.Worker, log *zap.Logger) (*Model, error) {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Model{
		Worker:   w,
		svc:      svc,
		projects: projects,
		log:      log,
	}
	if err := m.reload(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// reload fetches the active projects and today's record, and points the
// selection at the record's project.
func (m *Model) reload(ctx context.Context) error {
	list, err := m.projects.ListProjects(ctx, true)
	if err != nil {
		return fmt.Errorf("failed to load projects: %w", err)
	}
	rec, err := m.svc.Today(ctx, m.Worker.ID)
	if err != nil {
		return fmt.Errorf("failed to load today's record: %w", err)
	}

	m.Projects = list
	m.Record = rec
	m.SelectedIndex = 0
	if rec.ProjectID != nil {
		for i, p := range list {
			if p.ID == *rec.ProjectID {
				m.SelectedIndex = i
				break
			}
		}
	}
	m.refreshElapsed()
	return nil
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case MsgTick:
		m.tick()
		return m, nil
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case tea.WindowSizeMsg:
		return m, nil
	}
	return m, nil
}

func (m *Model) View() string {
	if m.ShowHistory {
		return m.historyView()
	}
	return m.mainView()
}

func (m *Model) SelectedProject() *project.Project {
	if m.SelectedIndex >= 0 && m.SelectedIndex < len(m.Projects) {
		return &m.Projects[m.SelectedIndex]
	}
	return nil
}

// open reports whether the record has an entry but no exit yet.
func (m *Model) open() bool {
	return m.Record != nil && m.Record.Entry != nil && m.Record.Exit == nil
}

// tick updates the running time and moves to a new day once the current
// record is no longer open.
func (m *Model) tick() {
	if m.Record != nil && !m.open() && !worktime.Day(m.svc.Now()).Equal(m.Record.Date) {
		if err := m.reload(context.Background()); err != nil {
			m.Err = err
		}
		return
	}
	m.refreshElapsed()
}

func (m *Model) refreshElapsed() {
	switch {
	case m.Record == nil || m.Record.Entry == nil:
		m.Elapsed = 0
	case m.Record.Worked != nil:
		m.Elapsed = *m.Record.Worked
	default:
		now := m.svc.Now()
		wall := worktime.At(now).On(worktime.Day(now))
		m.Elapsed = max(wall.Sub(m.Record.Entry.On(m.Record.Date)), 0)
	}
}

func (m *Model) show(n attendance.Notice, err error) {
	if err != nil {
		m.Err = err
		m.Notice = nil
		m.log.Error("attendance action failed", zap.Error(err))
		return
	}
	m.Err = nil
	m.Notice = &n
	m.refreshElapsed()
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.ShowHistory {
		return m.handleHistoryInput(msg)
	}

	ctx := context.Background()
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.SelectedIndex > 0 {
			m.SelectedIndex--
		}
	case "down", "j":
		if m.SelectedIndex < len(m.Projects)-1 {
			m.SelectedIndex++
		}
	case "enter":
		if p := m.SelectedProject(); p != nil {
			id := p.ID
			m.show(m.svc.Update(ctx, m.Record, &id, nil))
		}
	case "m":
		next := m.Record.Modality.Next()
		m.show(m.svc.Update(ctx, m.Record, nil, &next))
	case "i":
		m.show(m.svc.ClockIn(ctx, m.Record))
	case "o":
		m.show(m.svc.ClockOut(ctx, m.Record))
	case "h":
		history, err := m.svc.History(ctx, m.Worker.ID, attendance.DefaultHistory)
		if err != nil {
			m.Err = err
			return m, nil
		}
		m.History = history
		m.ShowHistory = true
		m.HistoryScroll = 0
	}
	return m, nil
}

func (m *Model) handleHistoryInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc", "h":
		m.ShowHistory = false
		m.History = nil
	case "up", "k":
		if m.HistoryScroll > 0 {
			m.HistoryScroll--
		}
	case "down", "j":
		maxScroll := max(len(m.History)-1, 0)
		if m.HistoryScroll < maxScroll {
			m.HistoryScroll++
		}
	}
	return m, nil
}
