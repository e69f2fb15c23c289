// Package notify turns task transitions into notification requests and
// delivers them. Planning is pure; delivery happens after the transition's
// unit of work has committed and never fails the transition.
package notify

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/alexanderramin/kickoff/internal/domain"
	"github.com/alexanderramin/kickoff/internal/engine"
	"github.com/google/uuid"
)

// Dispatcher evaluates a task's notification rules against a trigger.
type Dispatcher struct {
	clock    engine.Clock
	linkBase string
	newID    func() string
}

// NewDispatcher returns a dispatcher that renders dependent-task links under
// linkBase. An empty linkBase renders bare task paths.
func NewDispatcher(clock engine.Clock, linkBase string) *Dispatcher {
	return &Dispatcher{
		clock:    clock,
		linkBase: strings.TrimRight(linkBase, "/"),
		newID:    func() string { return uuid.New().String() },
	}
}

// Plan returns the notifications produced by every rule on t whose trigger
// equals trigger. Direct recipients (the rule's user and, when asked, the
// task assignee) get one notification each. Assignees of direct dependents
// get one notification listing their affected tasks, unless they were
// already a direct recipient of the same rule.
func (d *Dispatcher) Plan(g *engine.TaskGraph, t *domain.Task, trigger domain.TaskStatus) []domain.Notification {
	var out []domain.Notification
	label := trigger.Label()
	title := fmt.Sprintf("Task %s: %s", label, t.Name)
	body := fmt.Sprintf("Task %q in onboarding for %s is now %s.", t.Name, g.Process.EmployeeName, label)
	typ := domain.NotificationTypeFor(trigger)

	for _, rule := range t.Rules {
		if rule.Trigger != trigger {
			continue
		}

		direct := make(map[string]bool)
		var order []string
		addDirect := func(id string) {
			if id == "" || direct[id] {
				return
			}
			direct[id] = true
			order = append(order, id)
		}
		if rule.NotifyUserID != nil {
			addDirect(*rule.NotifyUserID)
		}
		if rule.NotifyAssignee && t.AssigneeID != nil {
			addDirect(*t.AssigneeID)
		}
		for _, id := range order {
			out = append(out, d.build(g, t, rule, id, typ, title, body))
		}

		if !rule.NotifyDependentAssignees {
			continue
		}
		byAssignee := make(map[string][]*domain.Task)
		for _, dep := range g.DependentsOf(t.ID) {
			if dep.AssigneeID == nil || *dep.AssigneeID == "" {
				continue
			}
			byAssignee[*dep.AssigneeID] = append(byAssignee[*dep.AssigneeID], dep)
		}
		assignees := make([]string, 0, len(byAssignee))
		for id := range byAssignee {
			if !direct[id] {
				assignees = append(assignees, id)
			}
		}
		sort.Strings(assignees)
		for _, id := range assignees {
			out = append(out, d.build(g, t, rule, id, typ, title, body+"\n"+d.dependentList(g, byAssignee[id])))
		}
	}
	return out
}

// PlanOverdue returns the reminder for an overdue task: one notification to
// its assignee on both channels, or nothing when it has no assignee.
func (d *Dispatcher) PlanOverdue(g *engine.TaskGraph, t *domain.Task) []domain.Notification {
	if t.AssigneeID == nil || *t.AssigneeID == "" || t.Deadline == nil {
		return nil
	}
	rule := domain.NotificationRule{SendEmail: true, SendInApp: true}
	title := fmt.Sprintf("Overdue task: %s", t.Name)
	body := fmt.Sprintf("Task %q in onboarding for %s is overdue. The deadline was %s.",
		t.Name, g.Process.EmployeeName, t.Deadline.Format(time.DateOnly))
	return []domain.Notification{d.build(g, t, rule, *t.AssigneeID, domain.NotifyTaskOverdue, title, body)}
}

// TaskLink is the path of a task's detail page under the dispatcher's base.
func (d *Dispatcher) TaskLink(processID, taskID string) string {
	return fmt.Sprintf("%s/processes/%s/tasks/%s", d.linkBase, processID, taskID)
}

func (d *Dispatcher) dependentList(g *engine.TaskGraph, tasks []*domain.Task) string {
	parts := make([]string, 0, len(tasks))
	for _, t := range tasks {
		parts = append(parts, fmt.Sprintf("%s (%s)", t.Name, d.TaskLink(g.Process.ID, t.ID)))
	}
	return "Your dependent tasks: " + strings.Join(parts, ", ")
}

func (d *Dispatcher) build(g *engine.TaskGraph, t *domain.Task, rule domain.NotificationRule,
	recipient string, typ domain.NotificationType, title, body string,
) domain.Notification {
	return domain.Notification{
		ID:          d.newID(),
		RecipientID: recipient,
		Type:        typ,
		Title:       title,
		Body:        body,
		ProcessID:   g.Process.ID,
		TaskID:      t.ID,
		SendEmail:   rule.SendEmail,
		SendInApp:   rule.SendInApp,
		CreatedAt:   d.clock.Now(),
	}
}
