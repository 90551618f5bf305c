package report

import (
	"strings"
	"time"

	"fichaje/internal/worktime"
)

// Filter narrows the records a report looks at. Nil bounds and zero IDs
// mean "no restriction".
type Filter struct {
	From      *time.Time
	To        *time.Time
	ProjectID int64
	WorkerID  int64
}

// ParseRange builds a date filter from YYYY-MM-DD strings. Empty or
// malformed bounds are dropped rather than reported.
func ParseRange(from, to string) Filter {
	var f Filter
	if d, err := worktime.ParseDate(strings.TrimSpace(from)); err == nil {
		f.From = &d
	}
	if d, err := worktime.ParseDate(strings.TrimSpace(to)); err == nil {
		f.To = &d
	}
	return f
}

func (f Filter) ForProject(id int64) Filter {
	f.ProjectID = id
	return f
}

func (f Filter) ForWorker(id int64) Filter {
	f.WorkerID = id
	return f
}

func (f Filter) Since(day time.Time) Filter {
	f.From = &day
	return f
}

func (f Filter) String() string {
	from, to := "any", "any"
	if f.From != nil {
		from = worktime.FormatDate(*f.From)
	}
	if f.To != nil {
		to = worktime.FormatDate(*f.To)
	}
	return from + " to " + to
}

// GroupBy selects the key totals are grouped on.
type GroupBy int

const (
	ByProject GroupBy = iota
	ByWorker
)
