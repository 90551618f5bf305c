package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fichaje/internal/attendance"
	"fichaje/internal/report"
	"fichaje/internal/worktime"
)

var (
	_ attendance.Store = (*Repository)(nil)
	_ report.Source    = (*Repository)(nil)
)

const recordSelect = `
	SELECT r.id, r.worker_id, r.work_date, r.entry_time, r.exit_time, r.project_id,
	       COALESCE(p.name, ''), r.modality, r.worked, r.complete, r.created_at, r.updated_at
	FROM attendance_records r
	LEFT JOIN projects p ON p.id = r.project_id`

const recordOrder = " ORDER BY r.work_date DESC, r.entry_time DESC"

func scanRecord(row scanner) (*attendance.Record, error) {
	var rec attendance.Record
	var date, modality, createdAt, updatedAt string
	var entry, exit sql.NullString
	var projectID, worked sql.NullInt64
	var complete int
	if err := row.Scan(&rec.ID, &rec.WorkerID, &date, &entry, &exit, &projectID,
		&rec.ProjectName, &modality, &worked, &complete, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if rec.Date, err = worktime.ParseDate(date); err != nil {
		return nil, fmt.Errorf("record %d: work date: %w", rec.ID, err)
	}
	if rec.Entry, err = parseTimeOfDay(entry); err != nil {
		return nil, fmt.Errorf("record %d: entry time: %w", rec.ID, err)
	}
	if rec.Exit, err = parseTimeOfDay(exit); err != nil {
		return nil, fmt.Errorf("record %d: exit time: %w", rec.ID, err)
	}
	if projectID.Valid {
		id := projectID.Int64
		rec.ProjectID = &id
	}
	if worked.Valid {
		d := time.Duration(worked.Int64)
		rec.Worked = &d
	}
	rec.Modality = attendance.Modality(modality)
	rec.Complete = complete == 1
	if rec.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("record %d: %w", rec.ID, err)
	}
	if rec.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, fmt.Errorf("record %d: %w", rec.ID, err)
	}
	return &rec, nil
}

func parseTimeOfDay(s sql.NullString) (*worktime.TimeOfDay, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := worktime.ParseTimeOfDay(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullTimeOfDay(t *worktime.TimeOfDay) any {
	if t == nil {
		return nil
	}
	return t.String()
}

func nullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullDuration(d *time.Duration) any {
	if d == nil {
		return nil
	}
	return int64(*d)
}

// GetOrCreateRecord inserts the (worker, day) row unless it exists and
// then reads it back. When two callers race, the unique index lets only
// one insert land and both read the same row.
func (r *Repository) GetOrCreateRecord(ctx context.Context, workerID int64, day time.Time, modality attendance.Modality) (*attendance.Record, error) {
	date := worktime.FormatDate(day)
	_, now := r.stamp()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("get or create record: begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO attendance_records (worker_id, work_date, modality, complete, created_at, updated_at)
		VALUES (?, ?, ?, 0, ?, ?)
		ON CONFLICT(worker_id, work_date) DO NOTHING`,
		workerID, date, string(modality), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("get or create record: insert: %w", err)
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("get or create record: rows affected: %w", err)
	}

	rec, err := scanRecord(tx.QueryRowContext(ctx,
		recordSelect+" WHERE r.worker_id = ? AND r.work_date = ?", workerID, date))
	if err != nil {
		return nil, fmt.Errorf("get or create record: select: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("get or create record: commit: %w", err)
	}

	if inserted > 0 {
		r.log.Debug("attendance record created",
			zap.Int64("worker_id", workerID),
			zap.Int64("record_id", rec.ID),
			zap.String("date", date),
		)
	}
	return rec, nil
}

func (r *Repository) GetRecord(ctx context.Context, id int64) (*attendance.Record, error) {
	rec, err := scanRecord(r.db.QueryRowContext(ctx, recordSelect+" WHERE r.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record %d: %w", id, attendance.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get record %d: %w", id, err)
	}
	return rec, nil
}

// UpdateRecord recomputes the derived fields of rec and saves its mutable
// columns. The worker and date of a record never change.
func (r *Repository) UpdateRecord(ctx context.Context, rec *attendance.Record) error {
	rec.Recompute()
	updated, updatedAt := r.stamp()

	result, err := r.db.ExecContext(ctx, `
		UPDATE attendance_records
		SET entry_time = ?, exit_time = ?, project_id = ?, modality = ?, worked = ?, complete = ?, updated_at = ?
		WHERE id = ?`,
		nullTimeOfDay(rec.Entry), nullTimeOfDay(rec.Exit), nullInt64(rec.ProjectID),
		string(rec.Modality), nullDuration(rec.Worked), boolInt(rec.Complete), updatedAt,
		rec.ID,
	)
	if err != nil {
		return fmt.Errorf("update record %d: %w", rec.ID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update record %d: %w", rec.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("record %d: %w", rec.ID, attendance.ErrNotFound)
	}
	rec.UpdatedAt = updated
	return nil
}

// WorkerRecords returns the worker's latest records, newest first.
func (r *Repository) WorkerRecords(ctx context.Context, workerID int64, limit int) ([]attendance.Record, error) {
	return r.Records(ctx, report.Filter{WorkerID: workerID}, limit)
}

// Records returns the records matching f, newest first. A limit of zero
// or less returns them all.
func (r *Repository) Records(ctx context.Context, f report.Filter, limit int) ([]attendance.Record, error) {
	where, args := whereClause(f)
	query := recordSelect + where + recordOrder
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("list records: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}
