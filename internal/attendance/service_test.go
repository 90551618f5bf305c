package attendance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fichaje/internal/clock"
	"fichaje/internal/project"
	"fichaje/internal/worktime"
)

type dayKey struct {
	worker int64
	day    string
}

// memStore keeps records in memory and enforces the (worker, day)
// uniqueness the real store gets from its index.
type memStore struct {
	mu       sync.Mutex
	nextID   int64
	records  map[dayKey]*Record
	projects map[int64]*project.Project
	failNext error
	writes   int
}

func newMemStore() *memStore {
	return &memStore{
		records: make(map[dayKey]*Record),
		projects: map[int64]*project.Project{
			1: {ID: 1, Name: "Intranet", Active: true},
			2: {ID: 2, Name: "Legacy", Active: false},
		},
	}
}

func (m *memStore) GetOrCreateRecord(_ context.Context, workerID int64, day time.Time, modality Modality) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := dayKey{workerID, worktime.FormatDate(day)}
	if rec, ok := m.records[key]; ok {
		cp := *rec
		return &cp, nil
	}
	m.nextID++
	rec := &Record{ID: m.nextID, WorkerID: workerID, Date: day, Modality: modality}
	m.records[key] = rec
	cp := *rec
	return &cp, nil
}

func (m *memStore) UpdateRecord(_ context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	rec.Recompute()
	cp := *rec
	m.records[dayKey{rec.WorkerID, worktime.FormatDate(rec.Date)}] = &cp
	m.writes++
	return nil
}

func (m *memStore) GetProject(_ context.Context, id int64) (*project.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return nil, project.ErrNotFound
	}
	return p, nil
}

func (m *memStore) WorkerRecords(_ context.Context, workerID int64, limit int) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Record
	for k, r := range m.records {
		if k.worker == workerID {
			out = append(out, *r)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func newTestService(t *testing.T, now time.Time) (*Service, *memStore, *clock.Manual) {
	t.Helper()
	store := newMemStore()
	c := clock.NewManual(now)
	return NewService(store, c, nil), store, c
}

func withProject(t *testing.T, svc *Service, rec *Record) {
	t.Helper()
	id := int64(1)
	n, err := svc.Update(context.Background(), rec, &id, nil)
	require.NoError(t, err)
	require.True(t, n.OK(), n.Message)
}

func TestToday_NoDuplicates(t *testing.T) {
	svc, store, _ := newTestService(t, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	first, err := svc.Today(ctx, 7)
	require.NoError(t, err)
	second, err := svc.Today(ctx, 7)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, store.records, 1)
	assert.Equal(t, OnSite, first.Modality)
	assert.Equal(t, "2024-01-01", worktime.FormatDate(first.Date))
}

func TestToday_NewDayNewRecord(t *testing.T) {
	svc, _, c := newTestService(t, time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC))
	ctx := context.Background()

	first, err := svc.Today(ctx, 7)
	require.NoError(t, err)
	c.Advance(2 * time.Hour)
	second, err := svc.Today(ctx, 7)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
}

func TestClockIn_RequiresProject(t *testing.T) {
	svc, store, _ := newTestService(t, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()
	rec, err := svc.Today(ctx, 7)
	require.NoError(t, err)

	n, err := svc.ClockIn(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, LevelError, n.Level)
	assert.ErrorIs(t, n.Reason, ErrNoProject)
	assert.Nil(t, rec.Entry)
	assert.Zero(t, store.writes)
}

func TestClockInOut_FullDay(t *testing.T) {
	svc, _, c := newTestService(t, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()
	rec, err := svc.Today(ctx, 7)
	require.NoError(t, err)
	withProject(t, svc, rec)

	n, err := svc.ClockIn(ctx, rec)
	require.NoError(t, err)
	assert.True(t, n.OK())
	assert.Equal(t, "Clocked in at 09:00 on project Intranet", n.Message)
	require.NotNil(t, rec.Entry)
	assert.False(t, rec.Complete)
	assert.Nil(t, rec.Worked)

	c.Advance(8*time.Hour + 15*time.Minute)
	n, err = svc.ClockOut(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, LevelSuccess, n.Level)
	require.NotNil(t, rec.Worked)
	assert.Equal(t, 8*time.Hour+15*time.Minute, *rec.Worked)
	assert.True(t, rec.Complete)
}

func TestClockIn_Twice(t *testing.T) {
	svc, _, c := newTestService(t, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()
	rec, _ := svc.Today(ctx, 7)
	withProject(t, svc, rec)
	_, err := svc.ClockIn(ctx, rec)
	require.NoError(t, err)
	entry := *rec.Entry

	c.Advance(time.Hour)
	n, err := svc.ClockIn(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, LevelWarning, n.Level)
	assert.ErrorIs(t, n.Reason, ErrAlreadyClockedIn)
	assert.Equal(t, entry, *rec.Entry)
}

func TestClockOut_WithoutClockIn(t *testing.T) {
	svc, store, _ := newTestService(t, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()
	rec, _ := svc.Today(ctx, 7)
	withProject(t, svc, rec)
	before := *rec
	writes := store.writes

	n, err := svc.ClockOut(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, LevelError, n.Level)
	assert.ErrorIs(t, n.Reason, ErrNotClockedIn)
	assert.Equal(t, before, *rec)
	assert.Equal(t, writes, store.writes)
}

func TestClockOut_Twice(t *testing.T) {
	svc, _, c := newTestService(t, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()
	rec, _ := svc.Today(ctx, 7)
	withProject(t, svc, rec)
	_, _ = svc.ClockIn(ctx, rec)
	c.Advance(time.Hour)
	_, _ = svc.ClockOut(ctx, rec)
	worked := *rec.Worked

	c.Advance(time.Hour)
	n, err := svc.ClockOut(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, LevelWarning, n.Level)
	assert.ErrorIs(t, n.Reason, ErrAlreadyClockedOut)
	assert.Equal(t, worked, *rec.Worked)
}

func TestClockOut_RequiresProject(t *testing.T) {
	svc, _, _ := newTestService(t, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	rec, _ := svc.Today(context.Background(), 7)

	n, err := svc.ClockOut(context.Background(), rec)
	require.NoError(t, err)
	assert.ErrorIs(t, n.Reason, ErrNoProject)
}

func TestClockOut_Overnight(t *testing.T) {
	svc, _, c := newTestService(t, time.Date(2024, 1, 1, 22, 0, 0, 0, time.UTC))
	ctx := context.Background()
	rec, _ := svc.Today(ctx, 7)
	withProject(t, svc, rec)
	_, err := svc.ClockIn(ctx, rec)
	require.NoError(t, err)

	c.Advance(8 * time.Hour)
	_, err = svc.ClockOut(ctx, rec)
	require.NoError(t, err)
	require.NotNil(t, rec.Worked)
	assert.Equal(t, 8*time.Hour, *rec.Worked)
	assert.True(t, rec.Complete)
}

func TestUpdate(t *testing.T) {
	svc, _, _ := newTestService(t, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()
	rec, _ := svc.Today(ctx, 7)

	remote := Remote
	n, err := svc.Update(ctx, rec, nil, &remote)
	require.NoError(t, err)
	assert.True(t, n.OK())
	assert.Equal(t, Remote, rec.Modality)
	assert.False(t, rec.HasProject())

	missing := int64(99)
	travel := Travel
	n, err = svc.Update(ctx, rec, &missing, &travel)
	require.NoError(t, err)
	assert.ErrorIs(t, n.Reason, ErrUnknownProject)
	assert.Equal(t, Travel, rec.Modality, "modality is saved even when the project is refused")

	legacy := int64(2)
	n, err = svc.Update(ctx, rec, &legacy, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, n.Reason, ErrInactiveProject)

	bogus := Modality("holiday")
	n, err = svc.Update(ctx, rec, nil, &bogus)
	require.NoError(t, err)
	assert.ErrorIs(t, n.Reason, ErrInvalidModality)
	assert.Equal(t, Travel, rec.Modality)

	withProject(t, svc, rec)
	assert.Equal(t, "Intranet", rec.ProjectName)
}

func TestSaveFailureLeavesRecordUntouched(t *testing.T) {
	svc, store, _ := newTestService(t, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()
	rec, _ := svc.Today(ctx, 7)
	withProject(t, svc, rec)

	store.failNext = errors.New("disk full")
	_, err := svc.ClockIn(ctx, rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Nil(t, rec.Entry)
}

func TestHistory_DefaultLimit(t *testing.T) {
	svc, _, c := newTestService(t, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		_, err := svc.Today(ctx, 7)
		require.NoError(t, err)
		c.Advance(24 * time.Hour)
	}

	records, err := svc.History(ctx, 7, 0)
	require.NoError(t, err)
	assert.Len(t, records, DefaultHistory)
}

func TestPermissions(t *testing.T) {
	rec := &Record{}
	assert.Equal(t, Permissions{NeedsProject: true}, rec.Permissions())

	id := int64(1)
	rec.ProjectID = &id
	assert.Equal(t, Permissions{CanClockIn: true}, rec.Permissions())

	in := worktime.TimeOfDay{Hour: 9}
	rec.Entry = &in
	assert.Equal(t, Permissions{CanClockOut: true}, rec.Permissions())

	out := worktime.TimeOfDay{Hour: 17}
	rec.Exit = &out
	assert.Equal(t, Permissions{}, rec.Permissions())
}

func TestModality(t *testing.T) {
	m, err := ParseModality(" Remote ")
	require.NoError(t, err)
	assert.Equal(t, Remote, m)

	_, err = ParseModality("holiday")
	assert.ErrorIs(t, err, ErrInvalidModality)

	assert.Equal(t, Remote, OnSite.Next())
	assert.Equal(t, Travel, Remote.Next())
	assert.Equal(t, OnSite, Travel.Next())
	assert.Equal(t, "On-site", OnSite.Label())
}
