package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"ID", "Name"}, [][]string{{"1", "Intranet"}, {"2", "Portal"}})

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 6)
	assert.Contains(t, lines[1], "ID")
	assert.Contains(t, lines[1], "Name")
	assert.Contains(t, lines[3], "Intranet")
	assert.Contains(t, lines[4], "Portal")
}

func TestProjectReport_String(t *testing.T) {
	out := projectReport{{
		ProjectID: 1,
		Name:      "Intranet",
		Workers:   1,
		Records:   2,
		Worked:    5*time.Hour + 30*time.Minute,
	}}.String()

	assert.Contains(t, out, " 5:30 ")
	assert.NotContains(t, out, "5:30:00")

	assert.Equal(t, "No projects.", projectReport{}.String())
}

func TestWorkerReport_String(t *testing.T) {
	out := workerReport{{
		WorkerID:      1,
		Username:      "w",
		Days:          2,
		Worked:        5*time.Hour + 7*time.Second,
		AveragePerDay: 2*time.Hour + 30*time.Minute,
	}}.String()

	assert.Contains(t, out, "5:00:07")
	assert.Contains(t, out, " 2:30 ")
}
