package attendance

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fichaje/internal/worktime"
)

var ErrNotFound = errors.New("attendance record not found")

// Modality is the work mode of a day's attendance.
type Modality string

const (
	OnSite Modality = "on-site"
	Remote Modality = "remote"
	Travel Modality = "travel"
)

var Modalities = []Modality{OnSite, Remote, Travel}

func ParseModality(s string) (Modality, error) {
	m := Modality(strings.ToLower(strings.TrimSpace(s)))
	if m.Valid() {
		return m, nil
	}
	return "", fmt.Errorf("%w: %q must be one of %v", ErrInvalidModality, s, Modalities)
}

func (m Modality) Valid() bool {
	for _, known := range Modalities {
		if m == known {
			return true
		}
	}
	return false
}

func (m Modality) Label() string {
	switch m {
	case OnSite:
		return "On-site"
	case Remote:
		return "Remote"
	case Travel:
		return "Travel"
	}
	return string(m)
}

// Next cycles through the modalities in declaration order.
func (m Modality) Next() Modality {
	for i, known := range Modalities {
		if m == known {
			return Modalities[(i+1)%len(Modalities)]
		}
	}
	return OnSite
}

// Record is one worker's attendance for one calendar day. Worked and
// Complete are derived from Entry and Exit; call Recompute after changing
// either.
type Record struct {
	ID          int64               `json:"id"`
	WorkerID    int64               `json:"worker_id"`
	Date        time.Time           `json:"date"`
	Entry       *worktime.TimeOfDay `json:"entry"`
	Exit        *worktime.TimeOfDay `json:"exit"`
	ProjectID   *int64              `json:"project_id"`
	ProjectName string              `json:"project_name,omitempty"`
	Modality    Modality            `json:"modality"`
	Worked      *time.Duration      `json:"worked_ns"`
	Complete    bool                `json:"complete"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

func (r *Record) Recompute() {
	r.Worked, r.Complete = worktime.Compute(r.Date, r.Entry, r.Exit)
}

func (r *Record) HasProject() bool {
	return r.ProjectID != nil
}

// Permissions tells a façade which actions make sense for the record as
// it stands.
type Permissions struct {
	CanClockIn   bool `json:"can_clock_in"`
	CanClockOut  bool `json:"can_clock_out"`
	NeedsProject bool `json:"needs_project"`
}

func (r *Record) Permissions() Permissions {
	return Permissions{
		CanClockIn:   r.HasProject() && r.Entry == nil,
		CanClockOut:  r.HasProject() && r.Entry != nil && r.Exit == nil,
		NeedsProject: !r.HasProject(),
	}
}

func (r *Record) String() string {
	return fmt.Sprintf("worker %d - %s", r.WorkerID, worktime.FormatDate(r.Date))
}
