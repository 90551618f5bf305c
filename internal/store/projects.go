package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"fichaje/internal/project"
)

const projectColumns = "id, name, description, active, created_at"

func scanProject(row scanner) (*project.Project, error) {
	var p project.Project
	var active int
	var createdAt string
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &active, &createdAt); err != nil {
		return nil, err
	}
	p.Active = active == 1
	created, err := parseTimestamp(createdAt)
	if err != nil {
		return nil, fmt.Errorf("project %d: %w", p.ID, err)
	}
	p.CreatedAt = created
	return &p, nil
}

func (r *Repository) CreateProject(ctx context.Context, p *project.Project) error {
	created, createdAt := r.stamp()
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO projects (name, description, active, created_at) VALUES (?, ?, ?, ?)",
		p.Name, p.Description, boolInt(p.Active), createdAt,
	)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	p.ID = id
	p.CreatedAt = created

	r.log.Info("project created", zap.Int64("project_id", id), zap.String("name", p.Name))
	return nil
}

func (r *Repository) GetProject(ctx context.Context, id int64) (*project.Project, error) {
	p, err := scanProject(r.db.QueryRowContext(ctx,
		"SELECT "+projectColumns+" FROM projects WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %d: %w", id, project.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get project %d: %w", id, err)
	}
	return p, nil
}

// ListProjects returns projects ordered by name.
func (r *Repository) ListProjects(ctx context.Context, activeOnly bool) ([]project.Project, error) {
	query := "SELECT " + projectColumns + " FROM projects"
	if activeOnly {
		query += " WHERE active = 1"
	}
	query += " ORDER BY name, id"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []project.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("list projects: %w", err)
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

func (r *Repository) UpdateProject(ctx context.Context, p *project.Project) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE projects SET name = ?, description = ?, active = ? WHERE id = ?",
		p.Name, p.Description, boolInt(p.Active), p.ID,
	)
	if err != nil {
		return fmt.Errorf("update project %d: %w", p.ID, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("project %d: %w", p.ID, project.ErrNotFound)
	}
	return nil
}
