package report_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fichaje/internal/attendance"
	"fichaje/internal/clock"
	"fichaje/internal/project"
	"fichaje/internal/report"
	"fichaje/internal/store"
	"fichaje/internal/worker"
	"fichaje/internal/worktime"
)

type fixture struct {
	t        *testing.T
	repo     *store.Repository
	agg      *report.Aggregator
	workers  map[string]*worker.Worker
	projects map[string]*project.Project
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	repo, err := store.Open(filepath.Join(t.TempDir(), "report.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return &fixture{
		t:        t,
		repo:     repo,
		agg:      report.NewAggregator(repo, clock.NewManual(now), nil),
		workers:  make(map[string]*worker.Worker),
		projects: make(map[string]*project.Project),
	}
}

func (f *fixture) worker(username string) *worker.Worker {
	if w, ok := f.workers[username]; ok {
		return w
	}
	w, err := worker.NewWorker(username, username+"@example.com", worker.RoleUser)
	require.NoError(f.t, err)
	require.NoError(f.t, f.repo.CreateWorker(context.Background(), w))
	f.workers[username] = w
	return w
}

func (f *fixture) project(name string) *project.Project {
	if p, ok := f.projects[name]; ok {
		return p
	}
	p, err := project.NewProject(name, "")
	require.NoError(f.t, err)
	require.NoError(f.t, f.repo.CreateProject(context.Background(), p))
	f.projects[name] = p
	return p
}

// day records a worker's day; an empty exit leaves it open.
func (f *fixture) day(username, projectName, date, entry, exit string, m attendance.Modality) {
	ctx := context.Background()
	d, err := worktime.ParseDate(date)
	require.NoError(f.t, err)
	rec, err := f.repo.GetOrCreateRecord(ctx, f.worker(username).ID, d, m)
	require.NoError(f.t, err)
	if projectName != "" {
		id := f.project(projectName).ID
		rec.ProjectID = &id
	}
	in, err := worktime.ParseTimeOfDay(entry)
	require.NoError(f.t, err)
	rec.Entry = &in
	if exit != "" {
		out, err := worktime.ParseTimeOfDay(exit)
		require.NoError(f.t, err)
		rec.Exit = &out
	}
	require.NoError(f.t, f.repo.UpdateRecord(ctx, rec))
}

func TestWorkers_Scenario(t *testing.T) {
	f := newFixture(t, time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC))
	f.day("w", "Intranet", "2024-01-01", "09:00", "12:00", attendance.OnSite)
	f.day("w", "Intranet", "2024-01-02", "14:00", "16:00", attendance.Remote)

	summaries, err := f.agg.Workers(context.Background(), report.ParseRange("2024-01-01", "2024-01-02"))
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	s := summaries[0]
	assert.Equal(t, "w", s.Username)
	assert.Equal(t, 5*time.Hour, s.Worked)
	assert.Equal(t, 2, s.Days)
	assert.Equal(t, 150*time.Minute, s.AveragePerDay)
	assert.Equal(t, 1, s.Projects)
	assert.Equal(t, report.Breakdown{
		attendance.OnSite: {Records: 1, Worked: 3 * time.Hour},
		attendance.Remote: {Records: 1, Worked: 2 * time.Hour},
	}, s.ByModality)
}

func TestWorkers_RangeAndOrdering(t *testing.T) {
	f := newFixture(t, time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC))
	f.day("ana", "Intranet", "2024-01-01", "09:00", "10:00", attendance.OnSite)
	f.day("bob", "Intranet", "2024-01-01", "09:00", "17:00", attendance.OnSite)
	f.day("ana", "Intranet", "2024-02-01", "09:00", "19:00", attendance.OnSite)
	f.worker("cid")

	ctx := context.Background()
	january, err := f.agg.Workers(ctx, report.ParseRange("2024-01-01", "2024-01-31"))
	require.NoError(t, err)
	require.Len(t, january, 3)
	assert.Equal(t, "bob", january[0].Username)
	assert.Equal(t, "ana", january[1].Username)
	assert.Equal(t, time.Hour, january[1].Worked)
	assert.Equal(t, "cid", january[2].Username)
	assert.Zero(t, january[2].Days)

	everything, err := f.agg.Workers(ctx, report.ParseRange("", "not-a-date"))
	require.NoError(t, err)
	assert.Equal(t, "ana", everything[0].Username)
	assert.Equal(t, 11*time.Hour, everything[0].Worked)
}

func TestProjects(t *testing.T) {
	f := newFixture(t, time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC))
	f.day("ana", "Intranet", "2024-01-01", "09:00", "12:00", attendance.OnSite)
	f.day("bob", "Intranet", "2024-01-01", "22:00", "06:00", attendance.Travel)
	f.day("ana", "Billing", "2024-01-02", "09:00", "", attendance.Remote)
	idle := f.project("Idle")

	archived := f.project("Archived")
	archived.Active = false
	require.NoError(t, f.repo.UpdateProject(context.Background(), archived))

	summaries, err := f.agg.Projects(context.Background(), report.Filter{})
	require.NoError(t, err)
	require.Len(t, summaries, 3)

	intranet := summaries[0]
	assert.Equal(t, "Intranet", intranet.Name)
	assert.Equal(t, 2, intranet.Workers)
	assert.Equal(t, 2, intranet.Records)
	assert.Equal(t, 11*time.Hour, intranet.Worked)
	assert.Equal(t, 8*time.Hour, intranet.ByModality[attendance.Travel].Worked)

	billing := summaries[1]
	assert.Equal(t, "Billing", billing.Name)
	assert.Equal(t, 1, billing.Records)
	assert.Zero(t, billing.Worked)

	assert.Equal(t, idle.ID, summaries[2].ProjectID)
	assert.Zero(t, summaries[2].Records)
}

func TestProjectDetail(t *testing.T) {
	f := newFixture(t, time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC))
	f.day("ana", "Intranet", "2024-01-01", "09:00", "12:00", attendance.OnSite)
	f.day("ana", "Intranet", "2024-01-02", "09:00", "10:00", attendance.Remote)
	f.day("bob", "Intranet", "2024-01-01", "08:00", "16:00", attendance.OnSite)
	f.day("bob", "Billing", "2024-01-02", "08:00", "16:00", attendance.OnSite)

	detail, err := f.agg.ProjectDetail(context.Background(), f.project("Intranet").ID, report.ParseRange("2024-01-01", ""))
	require.NoError(t, err)

	assert.Equal(t, 3, detail.Project.Records)
	assert.Equal(t, 12*time.Hour, detail.Project.Worked)
	require.Len(t, detail.Workers, 2)
	assert.Equal(t, "bob", detail.Workers[0].Username)
	assert.Equal(t, 8*time.Hour, detail.Workers[0].Worked)
	assert.Equal(t, "ana", detail.Workers[1].Username)
	assert.Equal(t, 2, detail.Workers[1].Days)
	require.Len(t, detail.Recent, 3)
	assert.Equal(t, "2024-01-02", worktime.FormatDate(detail.Recent[0].Date))

	_, err = f.agg.ProjectDetail(context.Background(), 999, report.Filter{})
	assert.ErrorIs(t, err, project.ErrNotFound)
}

func TestWorkerDetail(t *testing.T) {
	f := newFixture(t, time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC))
	f.day("ana", "Intranet", "2024-01-01", "09:00", "12:00", attendance.OnSite)
	f.day("ana", "Billing", "2024-01-02", "09:00", "17:00", attendance.Remote)
	f.day("ana", "", "2024-01-03", "09:00", "10:00", attendance.Travel)
	f.day("bob", "Intranet", "2024-01-01", "08:00", "16:00", attendance.OnSite)

	detail, err := f.agg.WorkerDetail(context.Background(), f.worker("ana").ID, report.Filter{})
	require.NoError(t, err)

	assert.Equal(t, 3, detail.Worker.Days)
	assert.Equal(t, 12*time.Hour, detail.Worker.Worked)
	assert.Equal(t, 2, detail.Worker.Projects)
	require.Len(t, detail.Projects, 3)
	assert.Equal(t, "Billing", detail.Projects[0].Name)
	assert.Equal(t, "Intranet", detail.Projects[1].Name)
	assert.Equal(t, report.NoProjectName, detail.Projects[2].Name)
	assert.Len(t, detail.Recent, 3)

	_, err = f.agg.WorkerDetail(context.Background(), 999, report.Filter{})
	assert.ErrorIs(t, err, worker.ErrNotFound)
}

func TestDashboard(t *testing.T) {
	f := newFixture(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	f.day("ana", "Intranet", "2024-02-20", "09:00", "12:00", attendance.OnSite)
	f.day("ana", "Intranet", "2024-02-21", "09:00", "12:00", attendance.OnSite)
	f.day("bob", "Billing", "2024-02-25", "09:00", "12:00", attendance.OnSite)
	f.day("bob", "Billing", "2023-12-01", "09:00", "12:00", attendance.OnSite)

	d, err := f.agg.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, d.ActiveProjects)
	assert.Equal(t, 2, d.ActiveWorkers)
	assert.Equal(t, 3, d.RecentRecords)
	assert.Equal(t, "2024-01-31", worktime.FormatDate(d.Since))
	require.Len(t, d.TopProjects, 2)
	assert.Equal(t, report.Ranked{ID: f.project("Intranet").ID, Name: "Intranet", Records: 2}, d.TopProjects[0])
	assert.Equal(t, "ana", d.TopWorkers[0].Name)
}

func TestParseRange(t *testing.T) {
	f := report.ParseRange("2024-01-01", "2024-13-45")
	require.NotNil(t, f.From)
	assert.Nil(t, f.To)
	assert.Equal(t, "2024-01-01 to any", f.String())

	f = report.ParseRange("", "")
	assert.Nil(t, f.From)
	assert.Nil(t, f.To)
	assert.Equal(t, "any to any", f.String())
}
