package formatter

import (
	"time"

	"github.com/alexanderramin/kickoff/internal/domain"
)

// TruncID returns the first 8 characters of an ID, dimmed.
func TruncID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return StyleDim.Render(id)
}

// Deadline renders a task deadline relative to today: red when the task is
// overdue, yellow within three days, plain otherwise.
func Deadline(t *domain.Task, now time.Time) string {
	if t.Deadline == nil {
		return Dim("--")
	}
	text := t.Deadline.Format(time.DateOnly)
	if t.DeadlineOverridden {
		text += "*"
	}
	if t.Status.IsDone() {
		return Dim(text)
	}
	if t.IsOverdue(now) {
		return StyleRed.Render(text)
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if t.Deadline.Sub(today) <= 3*24*time.Hour {
		return StyleYellow.Render(text)
	}
	return text
}

// Optional renders s, or a dimmed placeholder when s is empty.
func Optional(s string) string {
	if s == "" {
		return Dim("--")
	}
	return s
}

// Check renders a todo item box.
func Check(done bool) string {
	if done {
		return StyleGreen.Render("[x]")
	}
	return "[ ]"
}
