package store

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"fichaje/internal/attendance"
	"fichaje/internal/report"
	"fichaje/internal/worktime"
)

func whereClause(f report.Filter) (string, []any) {
	var clauses []string
	var args []any
	if f.From != nil {
		clauses = append(clauses, "r.work_date >= ?")
		args = append(args, worktime.FormatDate(*f.From))
	}
	if f.To != nil {
		clauses = append(clauses, "r.work_date <= ?")
		args = append(args, worktime.FormatDate(*f.To))
	}
	if f.ProjectID != 0 {
		clauses = append(clauses, "r.project_id = ?")
		args = append(args, f.ProjectID)
	}
	if f.WorkerID != 0 {
		clauses = append(clauses, "r.worker_id = ?")
		args = append(args, f.WorkerID)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// groupKey is the SQL expression records are grouped on. Records without
// a project group under key 0.
func groupKey(by report.GroupBy) string {
	if by == report.ByProject {
		return "COALESCE(r.project_id, 0)"
	}
	return "r.worker_id"
}

// Aggregate counts, sums and averages the records matching f per group.
// Durations only count complete records; the average is per complete
// record.
func (r *Repository) Aggregate(ctx context.Context, f report.Filter, by report.GroupBy) ([]report.Totals, error) {
	where, args := whereClause(f)
	query := `
		SELECT ` + groupKey(by) + `,
		       COUNT(*),
		       COUNT(DISTINCT r.worker_id),
		       COUNT(DISTINCT r.project_id),
		       COUNT(r.worked),
		       COALESCE(SUM(r.worked), 0),
		       COALESCE(AVG(r.worked), 0.0)
		FROM attendance_records r` + where + `
		GROUP BY 1
		ORDER BY 1`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("aggregate records: %w", err)
	}
	defer rows.Close()

	var out []report.Totals
	for rows.Next() {
		var t report.Totals
		var worked int64
		var avg float64
		if err := rows.Scan(&t.Key, &t.Records, &t.Workers, &t.Projects, &t.Completed, &worked, &avg); err != nil {
			return nil, fmt.Errorf("aggregate records: %w", err)
		}
		t.Worked = time.Duration(worked)
		t.Average = time.Duration(math.Round(avg))
		out = append(out, t)
	}
	return out, rows.Err()
}

// Breakdown splits the records matching f per group and modality.
func (r *Repository) Breakdown(ctx context.Context, f report.Filter, by report.GroupBy) (map[int64]report.Breakdown, error) {
	where, args := whereClause(f)
	query := `
		SELECT ` + groupKey(by) + `, r.modality, COUNT(*), COALESCE(SUM(r.worked), 0)
		FROM attendance_records r` + where + `
		GROUP BY 1, 2`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("modality breakdown: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]report.Breakdown)
	for rows.Next() {
		var key, worked int64
		var modality string
		var bucket report.Bucket
		if err := rows.Scan(&key, &modality, &bucket.Records, &worked); err != nil {
			return nil, fmt.Errorf("modality breakdown: %w", err)
		}
		bucket.Worked = time.Duration(worked)
		if out[key] == nil {
			out[key] = make(report.Breakdown)
		}
		out[key][attendance.Modality(modality)] = bucket
	}
	return out, rows.Err()
}
