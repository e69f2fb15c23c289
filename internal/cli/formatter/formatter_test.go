package formatter

import (
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/kickoff/internal/domain"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestRenderTable_AlignsStyledCells(t *testing.T) {
	out := RenderTable(
		[]string{"Task", "Status"},
		[][]string{
			{"Laptop", StatusPill(domain.TaskReady)},
			{"Accounts for everything", StatusPill(domain.TaskPending)},
		},
	)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 4)

	// The status column starts at the same visible offset on every row.
	col := lipgloss.Width("Accounts for everything") + colGap
	for _, line := range lines[2:] {
		prefix := []rune(stripANSI(line))
		assert.GreaterOrEqual(t, len(prefix), col)
	}
	assert.Empty(t, RenderTable(nil, nil))
}

func TestRenderProgress_Clamps(t *testing.T) {
	assert.Contains(t, RenderProgress(50, 10), " 50%")
	assert.Contains(t, RenderProgress(150, 10), "100%")
	assert.Contains(t, RenderProgress(-5, 10), "  0%")
	assert.Equal(t, 10, strings.Count(stripANSI(RenderProgress(50, 10)), filledBlock)+
		strings.Count(stripANSI(RenderProgress(50, 10)), emptyBlock))
}

func TestDeadline(t *testing.T) {
	now := time.Date(2025, time.March, 3, 15, 0, 0, 0, time.UTC)
	day := func(d int) *time.Time {
		v := time.Date(2025, time.March, d, 0, 0, 0, 0, time.UTC)
		return &v
	}

	assert.Contains(t, Deadline(&domain.Task{}, now), "--")
	assert.Contains(t, Deadline(&domain.Task{Deadline: day(1), Status: domain.TaskReady}, now), "2025-03-01")
	assert.Contains(t, Deadline(&domain.Task{Deadline: day(20), DeadlineOverridden: true}, now), "2025-03-20*")
}

func TestStatusPill_UsesLabel(t *testing.T) {
	assert.Contains(t, StatusPill(domain.TaskInProgress), "in progress")
	assert.Contains(t, StatusPill(domain.TaskSkipped), "skipped")
}

func stripANSI(s string) string {
	var b strings.Builder
	inEsc := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEsc = true
		case inEsc && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'):
			inEsc = false
		case !inEsc:
			b.WriteRune(r)
		}
	}
	return b.String()
}
