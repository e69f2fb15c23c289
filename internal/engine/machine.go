package engine

import (
	"github.com/alexanderramin/kickoff/internal/domain"
)

// Notifier receives every status a task enters through the machine or
// through instantiation. Implementations must not fail the transition.
type Notifier interface {
	Notify(g *TaskGraph, t *domain.Task, trigger domain.TaskStatus)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(g *TaskGraph, t *domain.Task, trigger domain.TaskStatus)

func (f NotifierFunc) Notify(g *TaskGraph, t *domain.Task, trigger domain.TaskStatus) {
	f(g, t, trigger)
}

// Machine owns task status for one TaskGraph. Callers serialize access per
// process and persist Changed() as a single unit of work.
type Machine struct {
	graph    *TaskGraph
	clock    Clock
	notifier Notifier

	changed map[string]bool
	order   []string
}

func NewMachine(g *TaskGraph, clock Clock, notifier Notifier) *Machine {
	return &Machine{
		graph:    g,
		clock:    clock,
		notifier: notifier,
		changed:  make(map[string]bool),
	}
}

// Complete marks the task completed, stamps time and actor, fires completed
// rules and unlocks direct dependents whose dependencies are now all done.
func (m *Machine) Complete(taskID, actor string) error {
	t, err := m.task(taskID)
	if err != nil {
		return err
	}
	m.finish(t, domain.TaskCompleted, actor)
	return nil
}

// Skip is Complete with status skipped and trigger skipped.
func (m *Machine) Skip(taskID, actor string) error {
	t, err := m.task(taskID)
	if err != nil {
		return err
	}
	m.finish(t, domain.TaskSkipped, actor)
	return nil
}

// Start moves a ready task to in_progress. Any other current state is
// rejected with *domain.InvalidTransitionError.
func (m *Machine) Start(taskID string) error {
	t, err := m.task(taskID)
	if err != nil {
		return err
	}
	if t.Status != domain.TaskReady {
		return &domain.InvalidTransitionError{TaskID: t.ID, From: t.Status, To: domain.TaskInProgress}
	}
	t.Status = domain.TaskInProgress
	m.markChanged(t)
	m.notifier.Notify(m.graph, t, domain.TaskInProgress)
	return nil
}

// SetStatus is the generic entry point. Moving a done task back to a
// non-done status clears its completion stamp and relocks dependents that
// are blocked again.
func (m *Machine) SetStatus(taskID string, status domain.TaskStatus, actor string) error {
	t, err := m.task(taskID)
	if err != nil {
		return err
	}
	if !domain.ValidTaskStatuses[status] {
		return &domain.InvalidTransitionError{TaskID: t.ID, From: t.Status, To: status}
	}
	if status == t.Status {
		return nil
	}

	switch status {
	case domain.TaskCompleted, domain.TaskSkipped:
		m.finish(t, status, actor)
		return nil
	}

	wasDone := t.Status.IsDone()
	if wasDone {
		t.CompletedAt = nil
		t.CompletedBy = nil
	}
	t.Status = status
	m.markChanged(t)
	m.notifier.Notify(m.graph, t, status)

	if wasDone {
		m.relockDependents(t)
	}
	return nil
}

// Changed returns the tasks modified so far, in order of first change.
func (m *Machine) Changed() []*domain.Task {
	out := make([]*domain.Task, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.graph.tasks[id])
	}
	return out
}

func (m *Machine) finish(t *domain.Task, status domain.TaskStatus, actor string) {
	now := m.clock.Now()
	t.Status = status
	t.CompletedAt = &now
	t.CompletedBy = nil
	if actor != "" {
		a := actor
		t.CompletedBy = &a
	}
	m.markChanged(t)
	m.notifier.Notify(m.graph, t, status)
	m.unlockDependents(t)
}

// unlockDependents promotes pending direct dependents that are no longer
// blocked. It does not recurse: a promoted task is ready, not done.
func (m *Machine) unlockDependents(t *domain.Task) {
	for _, dep := range m.graph.DependentsOf(t.ID) {
		if dep.Status != domain.TaskPending || m.graph.IsBlocked(dep.ID) {
			continue
		}
		dep.Status = domain.TaskReady
		m.markChanged(dep)
		m.notifier.Notify(m.graph, dep, domain.TaskReady)
	}
}

// relockDependents forces blocked, not-done direct dependents back to
// pending, including ones already in progress. The relock is silent.
func (m *Machine) relockDependents(t *domain.Task) {
	for _, dep := range m.graph.DependentsOf(t.ID) {
		if dep.Status.IsDone() || dep.Status == domain.TaskPending {
			continue
		}
		if !m.graph.IsBlocked(dep.ID) {
			continue
		}
		dep.Status = domain.TaskPending
		m.markChanged(dep)
	}
}

func (m *Machine) task(id string) (*domain.Task, error) {
	t, ok := m.graph.Task(id)
	if !ok {
		return nil, &domain.NotFoundError{Kind: "task", ID: id}
	}
	return t, nil
}

func (m *Machine) markChanged(t *domain.Task) {
	if m.changed[t.ID] {
		return
	}
	m.changed[t.ID] = true
	m.order = append(m.order, t.ID)
}
