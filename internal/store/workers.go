package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fichaje/internal/worker"
)

const workerColumns = "id, username, email, first_name, last_name, role, active, employee_id, created_at"

func scanWorker(row scanner) (*worker.Worker, error) {
	var w worker.Worker
	var role, employeeID, createdAt string
	var active int
	if err := row.Scan(&w.ID, &w.Username, &w.Email, &w.FirstName, &w.LastName,
		&role, &active, &employeeID, &createdAt); err != nil {
		return nil, err
	}
	w.Role = worker.Role(role)
	w.Active = active == 1
	var err error
	if w.EmployeeID, err = uuid.Parse(employeeID); err != nil {
		return nil, fmt.Errorf("worker %d: employee id: %w", w.ID, err)
	}
	if w.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("worker %d: %w", w.ID, err)
	}
	return &w, nil
}

func (r *Repository) CreateWorker(ctx context.Context, w *worker.Worker) error {
	if w.EmployeeID == uuid.Nil {
		w.EmployeeID = uuid.New()
	}
	created, createdAt := r.stamp()
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO workers (username, email, first_name, last_name, role, active, employee_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		w.Username, w.Email, w.FirstName, w.LastName, string(w.Role), boolInt(w.Active),
		w.EmployeeID.String(), createdAt,
	)
	if err != nil {
		return fmt.Errorf("create worker %q: %w", w.Username, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("create worker %q: %w", w.Username, err)
	}
	w.ID = id
	w.CreatedAt = created

	r.log.Info("worker created",
		zap.Int64("worker_id", id),
		zap.String("username", w.Username),
		zap.String("role", string(w.Role)),
	)
	return nil
}

func (r *Repository) GetWorker(ctx context.Context, id int64) (*worker.Worker, error) {
	return r.getWorker(ctx, "id = ?", id)
}

func (r *Repository) GetWorkerByUsername(ctx context.Context, username string) (*worker.Worker, error) {
	return r.getWorker(ctx, "username = ?", username)
}

func (r *Repository) getWorker(ctx context.Context, where string, arg any) (*worker.Worker, error) {
	w, err := scanWorker(r.db.QueryRowContext(ctx,
		"SELECT "+workerColumns+" FROM workers WHERE "+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("worker %v: %w", arg, worker.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get worker %v: %w", arg, err)
	}
	return w, nil
}

// ListWorkers returns workers ordered by username.
func (r *Repository) ListWorkers(ctx context.Context, activeOnly bool) ([]worker.Worker, error) {
	query := "SELECT " + workerColumns + " FROM workers"
	if activeOnly {
		query += " WHERE active = 1"
	}
	query += " ORDER BY username"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list workers: %w", err)
	}
	defer rows.Close()

	var workers []worker.Worker
	for rows.Next() {
		w, err := scanWorker(rows)
		if err != nil {
			return nil, fmt.Errorf("list workers: %w", err)
		}
		workers = append(workers, *w)
	}
	return workers, rows.Err()
}

// UpdateWorker saves everything but the employee identification, which
// never changes once issued.
func (r *Repository) UpdateWorker(ctx context.Context, w *worker.Worker) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE workers SET username = ?, email = ?, first_name = ?, last_name = ?, role = ?, active = ?
		WHERE id = ?`,
		w.Username, w.Email, w.FirstName, w.LastName, string(w.Role), boolInt(w.Active), w.ID,
	)
	if err != nil {
		return fmt.Errorf("update worker %d: %w", w.ID, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("worker %d: %w", w.ID, worker.ErrNotFound)
	}
	return nil
}
