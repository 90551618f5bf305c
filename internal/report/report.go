// Package report aggregates attendance records into per-project and
// per-worker summaries. It only reads; the heavy lifting (counting,
// summing, averaging) is delegated to the Source.
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"fichaje/internal/attendance"
	"fichaje/internal/clock"
	"fichaje/internal/project"
	"fichaje/internal/worker"
	"fichaje/internal/worktime"
)

const (
	ProjectDetailRecords = 50
	WorkerDetailRecords  = 30
	DashboardWindowDays  = 30
	DashboardTop         = 5

	// NoProjectName labels records whose project was never set or was removed.
	NoProjectName = "(no project)"
)

// Totals are the aggregates of one group of records.
type Totals struct {
	Key       int64
	Records   int
	Workers   int
	Projects  int
	Completed int
	Worked    time.Duration
	Average   time.Duration
}

// Bucket is the share of a group spent in one modality.
type Bucket struct {
	Records int           `json:"records"`
	Worked  time.Duration `json:"worked_ns"`
}

type Breakdown map[attendance.Modality]Bucket

// Source is the read side of the persistence layer.
type Source interface {
	Aggregate(ctx context.Context, f Filter, by GroupBy) ([]Totals, error)
	Breakdown(ctx context.Context, f Filter, by GroupBy) (map[int64]Breakdown, error)
	Records(ctx context.Context, f Filter, limit int) ([]attendance.Record, error)
	ListProjects(ctx context.Context, activeOnly bool) ([]project.Project, error)
	ListWorkers(ctx context.Context, activeOnly bool) ([]worker.Worker, error)
	GetProject(ctx context.Context, id int64) (*project.Project, error)
	GetWorker(ctx context.Context, id int64) (*worker.Worker, error)
}

type ProjectSummary struct {
	ProjectID  int64         `json:"project_id"`
	Name       string        `json:"name"`
	Workers    int           `json:"workers"`
	Records    int           `json:"records"`
	Worked     time.Duration `json:"worked_ns"`
	ByModality Breakdown     `json:"by_modality,omitempty"`
}

type WorkerSummary struct {
	WorkerID      int64         `json:"worker_id"`
	Username      string        `json:"username"`
	Name          string        `json:"name,omitempty"`
	Days          int           `json:"days"`
	Worked        time.Duration `json:"worked_ns"`
	AveragePerDay time.Duration `json:"average_per_day_ns"`
	Projects      int           `json:"projects"`
	ByModality    Breakdown     `json:"by_modality,omitempty"`
}

type ProjectDetail struct {
	Project ProjectSummary      `json:"project"`
	Workers []WorkerSummary     `json:"workers"`
	Recent  []attendance.Record `json:"recent"`
}

type WorkerDetail struct {
	Worker   WorkerSummary       `json:"worker"`
	Projects []ProjectSummary    `json:"projects"`
	Recent   []attendance.Record `json:"recent"`
}

type Ranked struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Records int    `json:"records"`
}

type Dashboard struct {
	ActiveProjects int       `json:"active_projects"`
	ActiveWorkers  int       `json:"active_workers"`
	RecentRecords  int       `json:"recent_records"`
	Since          time.Time `json:"since"`
	TopProjects    []Ranked  `json:"top_projects"`
	TopWorkers     []Ranked  `json:"top_workers"`
}

type Aggregator struct {
	src   Source
	clock clock.Clock
	log   *zap.Logger
}

func NewAggregator(src Source, c clock.Clock, log *zap.Logger) *Aggregator {
	if c == nil {
		c = clock.System{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Aggregator{src: src, clock: c, log: log}
}

// Projects summarises every active project over f, busiest first.
func (a *Aggregator) Projects(ctx context.Context, f Filter) ([]ProjectSummary, error) {
	projects, err := a.src.ListProjects(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("projects report: %w", err)
	}
	totals, breakdowns, err := a.grouped(ctx, f, ByProject)
	if err != nil {
		return nil, fmt.Errorf("projects report: %w", err)
	}

	out := make([]ProjectSummary, 0, len(projects))
	for _, p := range projects {
		if f.ProjectID != 0 && p.ID != f.ProjectID {
			continue
		}
		out = append(out, projectSummary(p.ID, p.Name, totals[p.ID], breakdowns[p.ID]))
	}
	sortProjects(out)

	a.log.Debug("projects report", zap.Stringer("range", f), zap.Int("projects", len(out)))
	return out, nil
}

// Workers summarises every active worker over f, hardest-working first.
func (a *Aggregator) Workers(ctx context.Context, f Filter) ([]WorkerSummary, error) {
	workers, err := a.src.ListWorkers(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("workers report: %w", err)
	}
	totals, breakdowns, err := a.grouped(ctx, f, ByWorker)
	if err != nil {
		return nil, fmt.Errorf("workers report: %w", err)
	}

	out := make([]WorkerSummary, 0, len(workers))
	for _, w := range workers {
		if f.WorkerID != 0 && w.ID != f.WorkerID {
			continue
		}
		out = append(out, workerSummary(&w, totals[w.ID], breakdowns[w.ID]))
	}
	sortWorkers(out)

	a.log.Debug("workers report", zap.Stringer("range", f), zap.Int("workers", len(out)))
	return out, nil
}

// ProjectDetail breaks one project down by worker and lists its most
// recent records.
func (a *Aggregator) ProjectDetail(ctx context.Context, projectID int64, f Filter) (*ProjectDetail, error) {
	p, err := a.src.GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("project detail: %w", err)
	}
	f = f.ForProject(projectID)

	totals, breakdowns, err := a.grouped(ctx, f, ByProject)
	if err != nil {
		return nil, fmt.Errorf("project detail: %w", err)
	}
	detail := &ProjectDetail{
		Project: projectSummary(p.ID, p.Name, totals[p.ID], breakdowns[p.ID]),
	}

	perWorker, perWorkerModality, err := a.grouped(ctx, f, ByWorker)
	if err != nil {
		return nil, fmt.Errorf("project detail: %w", err)
	}
	names, err := a.workerIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("project detail: %w", err)
	}
	for id, t := range perWorker {
		w, ok := names[id]
		if !ok {
			w = &worker.Worker{ID: id, Username: fmt.Sprintf("worker-%d", id)}
		}
		detail.Workers = append(detail.Workers, workerSummary(w, t, perWorkerModality[id]))
	}
	sortWorkers(detail.Workers)

	detail.Recent, err = a.src.Records(ctx, f, ProjectDetailRecords)
	if err != nil {
		return nil, fmt.Errorf("project detail: %w", err)
	}
	return detail, nil
}

// WorkerDetail breaks one worker down by project and lists their most
// recent records.
func (a *Aggregator) WorkerDetail(ctx context.Context, workerID int64, f Filter) (*WorkerDetail, error) {
	w, err := a.src.GetWorker(ctx, workerID)
	if err != nil {
		return nil, fmt.Errorf("worker detail: %w", err)
	}
	f = f.ForWorker(workerID)

	totals, breakdowns, err := a.grouped(ctx, f, ByWorker)
	if err != nil {
		return nil, fmt.Errorf("worker detail: %w", err)
	}
	detail := &WorkerDetail{
		Worker: workerSummary(w, totals[w.ID], breakdowns[w.ID]),
	}

	perProject, perProjectModality, err := a.grouped(ctx, f, ByProject)
	if err != nil {
		return nil, fmt.Errorf("worker detail: %w", err)
	}
	projects, err := a.src.ListProjects(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("worker detail: %w", err)
	}
	names := make(map[int64]string, len(projects))
	for _, p := range projects {
		names[p.ID] = p.Name
	}
	for id, t := range perProject {
		name, ok := names[id]
		if !ok {
			name = NoProjectName
		}
		detail.Projects = append(detail.Projects, projectSummary(id, name, t, perProjectModality[id]))
	}
	sort.SliceStable(detail.Projects, func(i, j int) bool {
		pi, pj := detail.Projects[i], detail.Projects[j]
		if pi.Worked != pj.Worked {
			return pi.Worked > pj.Worked
		}
		return pi.Name < pj.Name
	})

	detail.Recent, err = a.src.Records(ctx, f, WorkerDetailRecords)
	if err != nil {
		return nil, fmt.Errorf("worker detail: %w", err)
	}
	return detail, nil
}

// Dashboard gives the headline numbers for the last thirty days.
func (a *Aggregator) Dashboard(ctx context.Context) (*Dashboard, error) {
	since := worktime.Day(a.clock.Now()).AddDate(0, 0, -DashboardWindowDays)
	f := Filter{}.Since(since)

	projects, err := a.src.ListProjects(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	workers, err := a.src.ListWorkers(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	byProject, err := a.totals(ctx, f, ByProject)
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	byWorker, err := a.totals(ctx, f, ByWorker)
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}

	d := &Dashboard{
		ActiveProjects: len(projects),
		ActiveWorkers:  len(workers),
		Since:          since,
	}
	for _, t := range byWorker {
		d.RecentRecords += t.Records
	}
	for _, p := range projects {
		d.TopProjects = append(d.TopProjects, Ranked{ID: p.ID, Name: p.Name, Records: byProject[p.ID].Records})
	}
	for _, w := range workers {
		d.TopWorkers = append(d.TopWorkers, Ranked{ID: w.ID, Name: w.Username, Records: byWorker[w.ID].Records})
	}
	d.TopProjects = top(d.TopProjects, DashboardTop)
	d.TopWorkers = top(d.TopWorkers, DashboardTop)
	return d, nil
}

func (a *Aggregator) totals(ctx context.Context, f Filter, by GroupBy) (map[int64]Totals, error) {
	rows, err := a.src.Aggregate(ctx, f, by)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]Totals, len(rows))
	for _, t := range rows {
		out[t.Key] = t
	}
	return out, nil
}

func (a *Aggregator) grouped(ctx context.Context, f Filter, by GroupBy) (map[int64]Totals, map[int64]Breakdown, error) {
	totals, err := a.totals(ctx, f, by)
	if err != nil {
		return nil, nil, err
	}
	breakdowns, err := a.src.Breakdown(ctx, f, by)
	if err != nil {
		return nil, nil, err
	}
	return totals, breakdowns, nil
}

func (a *Aggregator) workerIndex(ctx context.Context) (map[int64]*worker.Worker, error) {
	workers, err := a.src.ListWorkers(ctx, false)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]*worker.Worker, len(workers))
	for i := range workers {
		out[workers[i].ID] = &workers[i]
	}
	return out, nil
}

func projectSummary(id int64, name string, t Totals, b Breakdown) ProjectSummary {
	return ProjectSummary{
		ProjectID:  id,
		Name:       name,
		Workers:    t.Workers,
		Records:    t.Records,
		Worked:     t.Worked,
		ByModality: b,
	}
}

func workerSummary(w *worker.Worker, t Totals, b Breakdown) WorkerSummary {
	return WorkerSummary{
		WorkerID:      w.ID,
		Username:      w.Username,
		Name:          w.FullName(),
		Days:          t.Records,
		Worked:        t.Worked,
		AveragePerDay: t.Average,
		Projects:      t.Projects,
		ByModality:    b,
	}
}

func sortProjects(s []ProjectSummary) {
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].Records != s[j].Records {
			return s[i].Records > s[j].Records
		}
		return s[i].Name < s[j].Name
	})
}

func sortWorkers(s []WorkerSummary) {
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].Worked != s[j].Worked {
			return s[i].Worked > s[j].Worked
		}
		return s[i].Username < s[j].Username
	})
}

func top(s []Ranked, n int) []Ranked {
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].Records != s[j].Records {
			return s[i].Records > s[j].Records
		}
		return s[i].Name < s[j].Name
	})
	if len(s) > n {
		s = s[:n]
	}
	return s
}
