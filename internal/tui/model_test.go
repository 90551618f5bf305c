package tui

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fichaje/internal/attendance"
	"fichaje/internal/clock"
	"fichaje/internal/project"
	"fichaje/internal/store"
	"fichaje/internal/worker"
	"fichaje/internal/worktime"
)

func key(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func newTestModel(t *testing.T, projects ...string) (*Model, *clock.Manual) {
	t.Helper()
	ctx := context.Background()
	repo, err := store.Open(filepath.Join(t.TempDir(), "tui.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	w, err := worker.NewWorker("ana", "ana@example.com", worker.RoleUser)
	require.NoError(t, err)
	w.FirstName, w.LastName = "Ana", "García"
	require.NoError(t, repo.CreateWorker(ctx, w))

	for _, name := range projects {
		p, err := project.NewProject(name, "")
		require.NoError(t, err)
		require.NoError(t, repo.CreateProject(ctx, p))
	}

	c := clock.NewManual(time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC))
	m, err := NewModel(ctx, attendance.NewService(repo, c, nil), repo, w, nil)
	require.NoError(t, err)
	return m, c
}

func TestNewModel(t *testing.T) {
	m, _ := newTestModel(t, "Billing", "Intranet")

	require.Len(t, m.Projects, 2)
	assert.Equal(t, "Billing", m.Projects[0].Name)
	require.NotNil(t, m.Record)
	assert.Equal(t, "2024-01-15", worktime.FormatDate(m.Record.Date))
	assert.Equal(t, attendance.OnSite, m.Record.Modality)
	assert.Nil(t, m.Init())

	view := m.View()
	assert.Contains(t, view, "Ana García")
	assert.Contains(t, view, "Intranet")
	assert.Contains(t, view, "Not clocked in")
}

func TestClockInWithoutProject(t *testing.T) {
	m, _ := newTestModel(t, "Intranet")

	m.Update(key('i'))
	require.NotNil(t, m.Notice)
	assert.Equal(t, attendance.LevelError, m.Notice.Level)
	assert.ErrorIs(t, m.Notice.Reason, attendance.ErrNoProject)
	assert.Nil(t, m.Record.Entry)
	assert.Contains(t, m.View(), "Select a project before clocking in")
}

func TestFullDay(t *testing.T) {
	m, c := newTestModel(t, "Billing", "Intranet")

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, m.Record.HasProject())
	assert.Equal(t, "Intranet", m.Record.ProjectName)

	m.Update(key('i'))
	require.True(t, m.Notice.OK())
	assert.Equal(t, "Clocked in at 09:00 on project Intranet", m.Notice.Message)
	assert.True(t, m.open())

	c.Advance(90 * time.Minute)
	m.Update(MsgTick{})
	assert.Equal(t, 90*time.Minute, m.Elapsed)
	assert.Contains(t, m.View(), "1:30:00")

	m.Update(key('i'))
	assert.Equal(t, attendance.LevelWarning, m.Notice.Level)

	c.Advance(30 * time.Minute)
	m.Update(key('o'))
	require.True(t, m.Notice.OK())
	assert.True(t, m.Record.Complete)
	assert.Equal(t, 2*time.Hour, m.Elapsed)
	assert.Contains(t, m.View(), "Day complete")

	m.Update(key('o'))
	assert.ErrorIs(t, m.Notice.Reason, attendance.ErrAlreadyClockedOut)
}

func TestCycleModality(t *testing.T) {
	m, _ := newTestModel(t, "Intranet")

	m.Update(key('m'))
	assert.Equal(t, attendance.Remote, m.Record.Modality)
	m.Update(key('m'))
	assert.Equal(t, attendance.Travel, m.Record.Modality)
	m.Update(key('m'))
	assert.Equal(t, attendance.OnSite, m.Record.Modality)
}

func TestDayRollover(t *testing.T) {
	m, c := newTestModel(t, "Intranet")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(key('i'))
	require.True(t, m.open())

	// An open record survives midnight so the overnight clock-out lands on it.
	c.Set(time.Date(2024, 1, 16, 6, 0, 0, 0, time.UTC))
	m.Update(MsgTick{})
	assert.Equal(t, "2024-01-15", worktime.FormatDate(m.Record.Date))
	assert.Equal(t, 21*time.Hour, m.Elapsed)

	m.Update(key('o'))
	require.True(t, m.Record.Complete)
	assert.Equal(t, 21*time.Hour, *m.Record.Worked)

	m.Update(MsgTick{})
	assert.Equal(t, "2024-01-16", worktime.FormatDate(m.Record.Date))
	assert.Nil(t, m.Record.Entry)
	assert.Zero(t, m.Elapsed)
}

func TestHistoryView(t *testing.T) {
	m, _ := newTestModel(t, "Intranet")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	m.Update(key('h'))
	require.True(t, m.ShowHistory)
	require.Len(t, m.History, 1)
	assert.Contains(t, m.View(), "Recent Records")
	assert.Contains(t, m.View(), "[Intranet]")

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Zero(t, m.HistoryScroll)

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.ShowHistory)
	assert.Nil(t, m.History)
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t)
	_, cmd := m.Update(key('q'))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
