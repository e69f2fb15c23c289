package agenda

import (
	"time"

	"github.com/alexanderramin/kickoff/internal/domain"
)

// Item is one open task on an assignee's agenda.
type Item struct {
	Task     *domain.Task
	Process  *domain.Process
	Urgency  Urgency
	DaysLeft *int
}

// Agenda is the dashboard view of one assignee: their open tasks in
// canonical order plus counts over everything assigned to them.
type Agenda struct {
	UserID    string
	Items     []Item
	Overdue   int
	Completed int
}

// Build assembles the agenda from every task assigned to userID. Tasks whose
// process is missing from processes are ignored. limit caps Items when
// positive; the counts always cover all tasks.
func Build(userID string, tasks []*domain.Task, processes map[string]*domain.Process, now time.Time, limit int) *Agenda {
	a := &Agenda{UserID: userID}
	for _, t := range tasks {
		p, ok := processes[t.ProcessID]
		if !ok {
			continue
		}
		if t.Status == domain.TaskCompleted {
			a.Completed++
		}
		if t.Status.IsDone() {
			continue
		}
		urgency, daysLeft := ComputeUrgency(t, now)
		if urgency == UrgencyOverdue {
			a.Overdue++
		}
		a.Items = append(a.Items, Item{Task: t, Process: p, Urgency: urgency, DaysLeft: daysLeft})
	}

	CanonicalSort(a.Items)
	if limit > 0 && len(a.Items) > limit {
		a.Items = a.Items[:limit]
	}
	return a
}
