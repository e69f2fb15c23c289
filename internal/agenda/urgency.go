// Package agenda orders an assignee's open tasks across processes.
package agenda

import (
	"math"
	"time"

	"github.com/alexanderramin/kickoff/internal/domain"
)

type Urgency string

const (
	UrgencyOverdue Urgency = "overdue"
	UrgencyDueSoon Urgency = "due_soon"
	UrgencyOnTrack Urgency = "on_track"
)

// DueSoonDays is how many days ahead a deadline counts as due soon.
const DueSoonDays = 3

// Priority returns a sort priority (lower = more urgent).
func (u Urgency) Priority() int {
	switch u {
	case UrgencyOverdue:
		return 0
	case UrgencyDueSoon:
		return 1
	default:
		return 2
	}
}

// ComputeUrgency classifies t against the calendar day of now. DaysLeft is
// nil when the task has no deadline.
func ComputeUrgency(t *domain.Task, now time.Time) (Urgency, *int) {
	if t.Deadline == nil {
		return UrgencyOnTrack, nil
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	daysLeft := int(math.Round(t.Deadline.Sub(today).Hours() / 24))

	switch {
	case t.IsOverdue(now):
		return UrgencyOverdue, &daysLeft
	case daysLeft <= DueSoonDays:
		return UrgencyDueSoon, &daysLeft
	default:
		return UrgencyOnTrack, &daysLeft
	}
}
