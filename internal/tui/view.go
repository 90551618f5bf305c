package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"fichaje/internal/attendance"
	"fichaje/internal/worktime"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true).
			Align(lipgloss.Center)

	projectItemStyle = lipgloss.NewStyle().
				Padding(0, 1)

	projectItemSelectedStyle = lipgloss.NewStyle().
					Foreground(lipgloss.Color("170")).
					Background(lipgloss.Color("235")).
					Padding(0, 1)

	timerDisplayStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("69")).
				Bold(true)

	timerRunningStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("82")).
				Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 0)

	inactiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	logHeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true)

	logTagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170"))

	logTimeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	noticeStyles = map[attendance.Level]lipgloss.Style{
		attendance.LevelSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("82")),
		attendance.LevelInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("69")),
		attendance.LevelWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		attendance.LevelError:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
)

const historyPage = 10

func (m *Model) mainView() string {
	var sb strings.Builder

	title := "Fichaje"
	if m.Worker != nil {
		name := m.Worker.FullName()
		if name == "" {
			name = m.Worker.Username
		}
		title = fmt.Sprintf("Fichaje - %s", name)
	}
	sb.WriteString(titleStyle.Width(80).Render(title))
	sb.WriteString("\n\n")

	boxes := lipgloss.JoinHorizontal(lipgloss.Top,
		m.projectListView(),
		"  ",
		m.recordView(),
	)
	sb.WriteString(boxes)
	sb.WriteString("\n\n")
	if line := m.statusLine(); line != "" {
		sb.WriteString(line)
		sb.WriteString("\n\n")
	}
	sb.WriteString(helpStyle.Render("Navigate: Up/Down | Assign project: Enter | Modality: m | Clock in: i | Clock out: o | History: h | Quit: q"))

	return sb.String()
}

func (m *Model) statusLine() string {
	if m.Err != nil {
		return noticeStyles[attendance.LevelError].Render("Error: " + m.Err.Error())
	}
	if m.Notice != nil {
		return noticeStyles[m.Notice.Level].Render(m.Notice.Message)
	}
	return ""
}

func (m *Model) projectListView() string {
	var sb strings.Builder

	sb.WriteString("Projects\n\n")
	if len(m.Projects) == 0 {
		sb.WriteString(inactiveStyle.Render("No active projects."))
	}

	for i, p := range m.Projects {
		marker := ""
		if m.Record != nil && m.Record.ProjectID != nil && *m.Record.ProjectID == p.ID {
			marker = " ●"
		}
		line := p.Name + marker

		if i == m.SelectedIndex {
			sb.WriteString(projectItemSelectedStyle.Render(line))
		} else {
			sb.WriteString(projectItemStyle.Render(inactiveStyle.Render(line)))
		}
		sb.WriteString("\n")
	}

	return boxStyle.Width(25).Height(15).Render(sb.String())
}

func (m *Model) recordView() string {
	rec := m.Record
	if rec == nil {
		return boxStyle.Width(45).Height(15).Render("No record loaded")
	}

	projectName := rec.ProjectName
	if projectName == "" {
		projectName = inactiveStyle.Render("none")
	}

	var timerStr string
	if m.open() {
		timerStr = timerRunningStyle.Render(worktime.Format(m.Elapsed))
	} else {
		timerStr = timerDisplayStyle.Render(worktime.Format(m.Elapsed))
	}

	status, statusStyle := "Not clocked in", inactiveStyle
	switch {
	case rec.Complete:
		status, statusStyle = "Day complete", timerDisplayStyle
	case m.open():
		status, statusStyle = "Clocked in", timerRunningStyle
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Date: %s\n\n", worktime.FormatDate(rec.Date)))
	sb.WriteString(timerStr)
	sb.WriteString(fmt.Sprintf("\n\n%s\n", statusStyle.Render(status)))
	sb.WriteString(fmt.Sprintf("Project:  %s\n", projectName))
	sb.WriteString(fmt.Sprintf("Modality: %s\n", rec.Modality.Label()))
	sb.WriteString(fmt.Sprintf("Entry:    %s\n", shortTime(rec.Entry)))
	sb.WriteString(fmt.Sprintf("Exit:     %s\n", shortTime(rec.Exit)))

	return boxStyle.Width(45).Height(15).Render(sb.String())
}

func (m *Model) historyView() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Width(80).Render("Recent Records"))
	sb.WriteString("\n\n")

	if len(m.History) == 0 {
		sb.WriteString(inactiveStyle.Render("No records yet."))
	} else {
		sb.WriteString(logHeaderStyle.Render(fmt.Sprintf("%-12s %-7s %-7s %-10s %s", "Date", "Entry", "Exit", "Worked", "Project")))
		sb.WriteString("\n")
		end := min(m.HistoryScroll+historyPage, len(m.History))
		for _, rec := range m.History[m.HistoryScroll:end] {
			sb.WriteString(formatRecordEntry(rec))
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render("Scroll: Up/Down | Back: h/Esc"))
	return sb.String()
}

func formatRecordEntry(rec attendance.Record) string {
	date := logTimeStyle.Render(fmt.Sprintf("%-12s", worktime.FormatDate(rec.Date)))
	worked := worktime.FormatPtr(rec.Worked)
	tag := ""
	if rec.ProjectName != "" {
		tag = logTagStyle.Render("[" + rec.ProjectName + "]")
	}
	return fmt.Sprintf("%s %-7s %-7s %-10s %s", date, shortTime(rec.Entry), shortTime(rec.Exit), worked, tag)
}

func shortTime(t *worktime.TimeOfDay) string {
	if t == nil {
		return "--:--"
	}
	return t.Short()
}
