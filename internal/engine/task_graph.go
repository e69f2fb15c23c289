package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/alexanderramin/kickoff/internal/domain"
	"github.com/alexanderramin/kickoff/internal/graph"
)

// TaskGraph is the set of tasks of one onboarding process plus the edges
// copied from its template. Edges are fixed after instantiation.
type TaskGraph struct {
	Process *domain.Process
	tasks   map[string]*domain.Task
	edges   *graph.Graph
}

// NewTaskGraph assembles a graph from loaded rows.
func NewTaskGraph(p *domain.Process, tasks []*domain.Task, deps []domain.Dependency) (*TaskGraph, error) {
	g := newTaskGraph(p)
	for _, t := range tasks {
		g.add(t)
	}
	for _, d := range deps {
		if !g.edges.HasNode(d.NodeID) || !g.edges.HasNode(d.DependsOnID) {
			return nil, fmt.Errorf("task dependency %s -> %s references a task outside process %s",
				d.NodeID, d.DependsOnID, p.ID)
		}
		if err := g.edges.AddEdge(d.NodeID, d.DependsOnID); err != nil {
			return nil, fmt.Errorf("loading process %s: %w", p.ID, err)
		}
	}
	return g, nil
}

func newTaskGraph(p *domain.Process) *TaskGraph {
	return &TaskGraph{
		Process: p,
		tasks:   make(map[string]*domain.Task),
		edges:   graph.New(),
	}
}

func (g *TaskGraph) add(t *domain.Task) {
	g.tasks[t.ID] = t
	g.edges.AddNode(t.ID)
}

func (g *TaskGraph) Task(id string) (*domain.Task, bool) {
	t, ok := g.tasks[id]
	return t, ok
}

// Tasks returns every task in display order.
func (g *TaskGraph) Tasks() []*domain.Task {
	out := make([]*domain.Task, 0, len(g.tasks))
	for _, t := range g.tasks {
		out = append(out, t)
	}
	sortTasks(out)
	return out
}

func (g *TaskGraph) DependenciesOf(id string) []*domain.Task {
	return g.resolve(g.edges.DependenciesOf(id))
}

func (g *TaskGraph) DependentsOf(id string) []*domain.Task {
	return g.resolve(g.edges.DependentsOf(id))
}

// IsBlocked reports whether any direct dependency of the task is not done.
func (g *TaskGraph) IsBlocked(id string) bool {
	for _, dep := range g.DependenciesOf(id) {
		if !dep.Status.IsDone() {
			return true
		}
	}
	return false
}

func (g *TaskGraph) Edges() []domain.Dependency { return g.edges.Edges() }

func (g *TaskGraph) Len() int { return len(g.tasks) }

func (g *TaskGraph) EdgeCount() int { return g.edges.EdgeCount() }

// Progress is the whole-number percentage of done tasks; 0 when empty.
func (g *TaskGraph) Progress() int {
	if len(g.tasks) == 0 {
		return 0
	}
	done := 0
	for _, t := range g.tasks {
		if t.Status.IsDone() {
			done++
		}
	}
	return done * 100 / len(g.tasks)
}

func (g *TaskGraph) IsComplete() bool {
	return len(g.tasks) > 0 && g.Progress() == 100
}

// Overdue returns the tasks whose deadline has passed and that are not done.
func (g *TaskGraph) Overdue(now time.Time) []*domain.Task {
	var out []*domain.Task
	for _, t := range g.Tasks() {
		if t.IsOverdue(now) {
			out = append(out, t)
		}
	}
	return out
}

func (g *TaskGraph) resolve(ids []string) []*domain.Task {
	out := make([]*domain.Task, 0, len(ids))
	for _, id := range ids {
		if t, ok := g.tasks[id]; ok {
			out = append(out, t)
		}
	}
	sortTasks(out)
	return out
}

func sortTasks(ts []*domain.Task) {
	sort.Slice(ts, func(i, j int) bool {
		if ts[i].SortOrder != ts[j].SortOrder {
			return ts[i].SortOrder < ts[j].SortOrder
		}
		return ts[i].ID < ts[j].ID
	})
}
