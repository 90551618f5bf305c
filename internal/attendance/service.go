package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fichaje/internal/clock"
	"fichaje/internal/project"
	"fichaje/internal/worktime"
)

const DefaultHistory = 10

// Store is the persistence the attendance service needs.
type Store interface {
	// GetOrCreateRecord returns the worker's record for day, inserting
	// one with the given modality when none exists. Concurrent callers
	// for the same (worker, day) all receive the same row.
	GetOrCreateRecord(ctx context.Context, workerID int64, day time.Time, modality Modality) (*Record, error)
	// UpdateRecord persists rec, recomputing its derived fields first.
	UpdateRecord(ctx context.Context, rec *Record) error
	GetProject(ctx context.Context, id int64) (*project.Project, error)
	WorkerRecords(ctx context.Context, workerID int64, limit int) ([]Record, error)
}

// Service records check-ins and check-outs.
type Service struct {
	store Store
	clock clock.Clock
	log   *zap.Logger
}

func NewService(store Store, c clock.Clock, log *zap.Logger) *Service {
	if c == nil {
		c = clock.System{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, clock: c, log: log}
}

// Today returns the worker's record for the current day, creating it
// on first access.
func (s *Service) Today(ctx context.Context, workerID int64) (*Record, error) {
	day := worktime.Day(s.clock.Now())
	rec, err := s.store.GetOrCreateRecord(ctx, workerID, day, OnSite)
	if err != nil {
		return nil, fmt.Errorf("today's record for worker %d: %w", workerID, err)
	}
	return rec, nil
}

// ClockIn stamps the entry time. The record must have a project and no
// entry yet; otherwise it is left as is and the notice says why.
func (s *Service) ClockIn(ctx context.Context, rec *Record) (Notice, error) {
	if !rec.HasProject() {
		return s.refuse(rec, LevelError, ErrNoProject, "Select a project before clocking in"), nil
	}
	if rec.Entry != nil {
		return s.refuse(rec, LevelWarning, ErrAlreadyClockedIn, "You have already clocked in today"), nil
	}

	now := worktime.At(s.clock.Now())
	next := *rec
	next.Entry = &now
	if err := s.save(ctx, rec, &next); err != nil {
		return Notice{}, fmt.Errorf("clock in: %w", err)
	}

	s.log.Info("clocked in",
		zap.Int64("worker_id", rec.WorkerID),
		zap.Int64("record_id", rec.ID),
		zap.Int64("project_id", *rec.ProjectID),
		zap.Stringer("at", now),
	)
	return success(fmt.Sprintf("Clocked in at %s on project %s", now.Short(), rec.ProjectName)), nil
}

// ClockOut stamps the exit time, which completes the record.
func (s *Service) ClockOut(ctx context.Context, rec *Record) (Notice, error) {
	switch {
	case !rec.HasProject():
		return s.refuse(rec, LevelError, ErrNoProject, "Select a project before clocking out"), nil
	case rec.Entry == nil:
		return s.refuse(rec, LevelError, ErrNotClockedIn, "You must clock in first"), nil
	case rec.Exit != nil:
		return s.refuse(rec, LevelWarning, ErrAlreadyClockedOut, "You have already clocked out today"), nil
	}

	now := worktime.At(s.clock.Now())
	next := *rec
	next.Exit = &now
	if err := s.save(ctx, rec, &next); err != nil {
		return Notice{}, fmt.Errorf("clock out: %w", err)
	}

	s.log.Info("clocked out",
		zap.Int64("worker_id", rec.WorkerID),
		zap.Int64("record_id", rec.ID),
		zap.Stringer("at", now),
		zap.String("worked", worktime.FormatPtr(rec.Worked)),
	)
	return success(fmt.Sprintf("Clocked out at %s on project %s", now.Short(), rec.ProjectName)), nil
}

// Update changes the project and/or modality of rec. A nil argument
// leaves that field alone. An unusable project does not prevent the
// modality from being saved.
func (s *Service) Update(ctx context.Context, rec *Record, projectID *int64, modality *Modality) (Notice, error) {
	next := *rec
	var problem *Notice

	if projectID != nil {
		p, err := s.store.GetProject(ctx, *projectID)
		switch {
		case errors.Is(err, project.ErrNotFound):
			n := refused(LevelError, ErrUnknownProject, fmt.Sprintf("Project %d does not exist", *projectID))
			problem = &n
		case err != nil:
			return Notice{}, fmt.Errorf("update record: %w", err)
		case !p.Active:
			n := refused(LevelError, ErrInactiveProject, fmt.Sprintf("Project %s is no longer active", p.Name))
			problem = &n
		default:
			id := p.ID
			next.ProjectID = &id
			next.ProjectName = p.Name
		}
	}

	if modality != nil {
		if modality.Valid() {
			next.Modality = *modality
		} else if problem == nil {
			n := refused(LevelError, ErrInvalidModality, fmt.Sprintf("Unknown modality %q", string(*modality)))
			problem = &n
		}
	}

	if err := s.save(ctx, rec, &next); err != nil {
		return Notice{}, fmt.Errorf("update record: %w", err)
	}

	if problem != nil {
		s.log.Debug("record update partially refused",
			zap.Int64("record_id", rec.ID),
			zap.Error(problem.Reason),
		)
		return *problem, nil
	}
	s.log.Info("record updated",
		zap.Int64("record_id", rec.ID),
		zap.String("modality", string(rec.Modality)),
	)
	return success("Record updated"), nil
}

// History returns the worker's most recent records, newest first.
func (s *Service) History(ctx context.Context, workerID int64, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultHistory
	}
	records, err := s.store.WorkerRecords(ctx, workerID, limit)
	if err != nil {
		return nil, fmt.Errorf("history for worker %d: %w", workerID, err)
	}
	return records, nil
}

// Now exposes the service clock so façades can show live elapsed time.
func (s *Service) Now() time.Time {
	return s.clock.Now()
}

// save writes next and, only once the write succeeded, copies it over rec.
func (s *Service) save(ctx context.Context, rec, next *Record) error {
	next.Recompute()
	if err := s.store.UpdateRecord(ctx, next); err != nil {
		return err
	}
	*rec = *next
	return nil
}

func (s *Service) refuse(rec *Record, level Level, reason error, msg string) Notice {
	s.log.Debug("attendance action refused",
		zap.Int64("worker_id", rec.WorkerID),
		zap.Int64("record_id", rec.ID),
		zap.Error(reason),
	)
	return refused(level, reason, msg)
}
