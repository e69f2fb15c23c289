package agenda

import (
	"sort"

	"github.com/alexanderramin/kickoff/internal/domain"
)

// statusPriority puts actionable work first.
func statusPriority(s domain.TaskStatus) int {
	switch s {
	case domain.TaskInProgress:
		return 0
	case domain.TaskReady:
		return 1
	default:
		return 2
	}
}

// CanonicalSort sorts agenda items by the deterministic canonical rules:
// 1. Urgency: overdue > due soon > on track
// 2. Deadline: earliest first (nil last)
// 3. Status: in progress > ready > pending
// 4. Process start date: earliest first
// 5. Task sort order, then task ID
func CanonicalSort(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]

		if pa, pb := a.Urgency.Priority(), b.Urgency.Priority(); pa != pb {
			return pa < pb
		}

		da, db := a.Task.Deadline, b.Task.Deadline
		if (da == nil) != (db == nil) {
			return da != nil
		}
		if da != nil && db != nil && !da.Equal(*db) {
			return da.Before(*db)
		}

		if sa, sb := statusPriority(a.Task.Status), statusPriority(b.Task.Status); sa != sb {
			return sa < sb
		}

		if !a.Process.StartDate.Equal(b.Process.StartDate) {
			return a.Process.StartDate.Before(b.Process.StartDate)
		}

		if a.Task.SortOrder != b.Task.SortOrder {
			return a.Task.SortOrder < b.Task.SortOrder
		}
		return a.Task.ID < b.Task.ID
	})
}
