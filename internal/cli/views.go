package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"fichaje/internal/attendance"
	"fichaje/internal/directory"
	"fichaje/internal/project"
	"fichaje/internal/report"
	"fichaje/internal/worker"
	"fichaje/internal/worktime"
)

// Text renderings of command results. Each view is a defined type over
// the domain value so JSON output keeps the domain field names while
// text output goes through String.

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == 0 {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}

func shortTime(t *worktime.TimeOfDay) string {
	if t == nil {
		return "--:--"
	}
	return t.Short()
}

func projectName(name string) string {
	if name == "" {
		return report.NoProjectName
	}
	return name
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func breakdownText(b report.Breakdown) string {
	var parts []string
	for _, m := range attendance.Modalities {
		if bucket, ok := b[m]; ok {
			parts = append(parts, fmt.Sprintf("%s %s", m, worktime.Format(bucket.Worked)))
		}
	}
	return strings.Join(parts, ", ")
}

type recordView attendance.Record

func (r recordView) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Date:     %s\n", worktime.FormatDate(r.Date))
	fmt.Fprintf(&sb, "Project:  %s\n", projectName(r.ProjectName))
	fmt.Fprintf(&sb, "Modality: %s\n", r.Modality.Label())
	fmt.Fprintf(&sb, "Entry:    %s\n", shortTime(r.Entry))
	fmt.Fprintf(&sb, "Exit:     %s\n", shortTime(r.Exit))
	fmt.Fprintf(&sb, "Worked:   %s", worktime.FormatPtr(r.Worked))
	return sb.String()
}

type statusView struct {
	Record      recordView             `json:"record"`
	Permissions attendance.Permissions `json:"permissions"`
}

func (s statusView) String() string {
	var hints []string
	if s.Permissions.NeedsProject {
		hints = append(hints, "select a project with 'clock set --project'")
	}
	if s.Permissions.CanClockIn {
		hints = append(hints, "clock in with 'clock in'")
	}
	if s.Permissions.CanClockOut {
		hints = append(hints, "clock out with 'clock out'")
	}
	out := s.Record.String()
	if len(hints) > 0 {
		out += "\nNext:     " + strings.Join(hints, "; ")
	}
	return out
}

type noticeView struct {
	Level   string     `json:"level"`
	Message string     `json:"message"`
	Record  recordView `json:"record"`
}

func (n noticeView) String() string {
	return n.Message + "\n\n" + n.Record.String()
}

type recordTable []attendance.Record

func (t recordTable) String() string {
	if len(t) == 0 {
		return "No records."
	}
	rows := make([][]string, 0, len(t))
	for _, r := range t {
		rows = append(rows, []string{
			worktime.FormatDate(r.Date),
			shortTime(r.Entry),
			shortTime(r.Exit),
			worktime.FormatPtr(r.Worked),
			projectName(r.ProjectName),
			r.Modality.Label(),
		})
	}
	return renderTable([]string{"Date", "Entry", "Exit", "Worked", "Project", "Modality"}, rows)
}

type projectView project.Project

func (p projectView) String() string {
	return fmt.Sprintf("Project %d: %s (active: %s)", p.ID, p.Name, yesNo(p.Active))
}

type projectList []project.Project

func (l projectList) String() string {
	if len(l) == 0 {
		return "No projects."
	}
	rows := make([][]string, 0, len(l))
	for _, p := range l {
		rows = append(rows, []string{strconv.FormatInt(p.ID, 10), p.Name, yesNo(p.Active), p.Description})
	}
	return renderTable([]string{"ID", "Name", "Active", "Description"}, rows)
}

type workerView worker.Worker

func (w workerView) String() string {
	return fmt.Sprintf("Worker %d: %s (%s, employee %s)", w.ID, w.Username, w.Role, w.EmployeeID)
}

type workerList []worker.Worker

func (l workerList) String() string {
	if len(l) == 0 {
		return "No workers."
	}
	rows := make([][]string, 0, len(l))
	for i := range l {
		w := &l[i]
		rows = append(rows, []string{
			strconv.FormatInt(w.ID, 10), w.Username, w.FullName(), string(w.Role), yesNo(w.Active), w.Email,
		})
	}
	return renderTable([]string{"ID", "Username", "Name", "Role", "Active", "Email"}, rows)
}

type projectReport []report.ProjectSummary

func (r projectReport) String() string {
	if len(r) == 0 {
		return "No projects."
	}
	rows := make([][]string, 0, len(r))
	for _, s := range r {
		rows = append(rows, []string{
			strconv.FormatInt(s.ProjectID, 10),
			s.Name,
			strconv.Itoa(s.Workers),
			strconv.Itoa(s.Records),
			worktime.FormatShort(s.Worked),
			breakdownText(s.ByModality),
		})
	}
	return renderTable([]string{"ID", "Project", "Workers", "Records", "Worked", "By modality"}, rows)
}

type workerReport []report.WorkerSummary

func (r workerReport) String() string {
	if len(r) == 0 {
		return "No workers."
	}
	rows := make([][]string, 0, len(r))
	for _, s := range r {
		rows = append(rows, []string{
			strconv.FormatInt(s.WorkerID, 10),
			s.Username,
			s.Name,
			strconv.Itoa(s.Days),
			worktime.FormatShort(s.Worked),
			worktime.FormatShort(s.AveragePerDay),
			strconv.Itoa(s.Projects),
		})
	}
	return renderTable([]string{"ID", "Username", "Name", "Days", "Worked", "Average", "Projects"}, rows)
}

type projectDetailView report.ProjectDetail

func (d projectDetailView) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Project %s: %d records, %d workers, %s worked\n",
		d.Project.Name, d.Project.Records, d.Project.Workers, worktime.Format(d.Project.Worked))
	if text := breakdownText(d.Project.ByModality); text != "" {
		fmt.Fprintf(&sb, "By modality: %s\n", text)
	}
	sb.WriteString("\n")
	sb.WriteString(workerReport(d.Workers).String())
	sb.WriteString("\n\nRecent records\n")
	sb.WriteString(recordTable(d.Recent).String())
	return sb.String()
}

type workerDetailView report.WorkerDetail

func (d workerDetailView) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Worker %s: %d days, %s worked, %s average\n",
		d.Worker.Username, d.Worker.Days, worktime.Format(d.Worker.Worked), worktime.Format(d.Worker.AveragePerDay))
	if text := breakdownText(d.Worker.ByModality); text != "" {
		fmt.Fprintf(&sb, "By modality: %s\n", text)
	}
	sb.WriteString("\n")
	sb.WriteString(projectReport(d.Projects).String())
	sb.WriteString("\n\nRecent records\n")
	sb.WriteString(recordTable(d.Recent).String())
	return sb.String()
}

type dashboardView report.Dashboard

func (d dashboardView) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Active projects: %d\n", d.ActiveProjects)
	fmt.Fprintf(&sb, "Active workers:  %d\n", d.ActiveWorkers)
	fmt.Fprintf(&sb, "Records since %s: %d\n", worktime.FormatDate(d.Since), d.RecentRecords)

	ranked := func(title string, list []report.Ranked) {
		fmt.Fprintf(&sb, "\n%s\n", title)
		rows := make([][]string, 0, len(list))
		for _, r := range list {
			rows = append(rows, []string{r.Name, strconv.Itoa(r.Records)})
		}
		sb.WriteString(renderTable([]string{"Name", "Records"}, rows))
		sb.WriteString("\n")
	}
	ranked("Top projects", d.TopProjects)
	ranked("Top workers", d.TopWorkers)
	return strings.TrimRight(sb.String(), "\n")
}

type provisionView struct {
	DN     string   `json:"dn"`
	Groups []string `json:"groups"`
}

func (p provisionView) String() string {
	return fmt.Sprintf("Created %s\nGroups: %s", p.DN, strings.Join(p.Groups, ", "))
}

type accountList []directory.Account

func (l accountList) String() string {
	if len(l) == 0 {
		return "No directory accounts."
	}
	rows := make([][]string, 0, len(l))
	for _, a := range l {
		rows = append(rows, []string{a.Username, a.Name, a.Email, a.DN})
	}
	return renderTable([]string{"Username", "Name", "Email", "DN"}, rows)
}
