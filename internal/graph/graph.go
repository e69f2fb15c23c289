// Package graph holds the dependency adjacency shared by template and task
// graphs: node -> set of dependencies, with a reverse index of dependents.
package graph

import (
	"fmt"
	"sort"

	"github.com/alexanderramin/kickoff/internal/domain"
)

type set map[string]struct{}

// Graph is a directed dependency graph. An edge (node, dep) means node
// depends on dep. The dependents index is kept in step with every mutation.
type Graph struct {
	deps       map[string]set
	dependents map[string]set
}

func New() *Graph {
	return &Graph{
		deps:       make(map[string]set),
		dependents: make(map[string]set),
	}
}

func (g *Graph) AddNode(id string) {
	if _, ok := g.deps[id]; ok {
		return
	}
	g.deps[id] = make(set)
	g.dependents[id] = make(set)
}

func (g *Graph) HasNode(id string) bool {
	_, ok := g.deps[id]
	return ok
}

// RemoveNode deletes the node and every edge that references it, whether as
// dependency or as dependent.
func (g *Graph) RemoveNode(id string) {
	if !g.HasNode(id) {
		return
	}
	for dep := range g.deps[id] {
		delete(g.dependents[dep], id)
	}
	for d := range g.dependents[id] {
		delete(g.deps[d], id)
	}
	delete(g.deps, id)
	delete(g.dependents, id)
}

// AddEdge records that node depends on dependency. It fails with a
// *domain.CycleError, leaving the graph unchanged, when dependency already
// reaches node. Adding an existing edge is a no-op.
func (g *Graph) AddEdge(node, dependency string) error {
	if !g.HasNode(node) {
		return fmt.Errorf("unknown node %s", node)
	}
	if !g.HasNode(dependency) {
		return fmt.Errorf("unknown node %s", dependency)
	}
	if _, ok := g.deps[node][dependency]; ok {
		return nil
	}
	path, err := FindPath(g.lookup, dependency, node)
	if err != nil {
		return err
	}
	if path != nil {
		return &domain.CycleError{NodeID: node, DependencyID: dependency, Path: path}
	}
	g.deps[node][dependency] = struct{}{}
	g.dependents[dependency][node] = struct{}{}
	return nil
}

func (g *Graph) RemoveEdge(node, dependency string) {
	if s, ok := g.deps[node]; ok {
		delete(s, dependency)
	}
	if s, ok := g.dependents[dependency]; ok {
		delete(s, node)
	}
}

func (g *Graph) HasEdge(node, dependency string) bool {
	_, ok := g.deps[node][dependency]
	return ok
}

// DependenciesOf returns the direct dependencies of id, sorted.
func (g *Graph) DependenciesOf(id string) []string {
	return sorted(g.deps[id])
}

// DependentsOf returns the nodes that directly depend on id, sorted.
func (g *Graph) DependentsOf(id string) []string {
	return sorted(g.dependents[id])
}

func (g *Graph) Nodes() []string {
	out := make([]string, 0, len(g.deps))
	for id := range g.deps {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Edges returns every edge ordered by node then dependency.
func (g *Graph) Edges() []domain.Dependency {
	var out []domain.Dependency
	for _, node := range g.Nodes() {
		for _, dep := range g.DependenciesOf(node) {
			out = append(out, domain.Dependency{NodeID: node, DependsOnID: dep})
		}
	}
	return out
}

func (g *Graph) Len() int { return len(g.deps) }

func (g *Graph) EdgeCount() int {
	n := 0
	for _, s := range g.deps {
		n += len(s)
	}
	return n
}

func (g *Graph) Clone() *Graph {
	c := New()
	for id := range g.deps {
		c.AddNode(id)
	}
	for node, s := range g.deps {
		for dep := range s {
			c.deps[node][dep] = struct{}{}
			c.dependents[dep][node] = struct{}{}
		}
	}
	return c
}

func (g *Graph) lookup(id string) ([]string, error) {
	return g.DependenciesOf(id), nil
}

func sorted(s set) []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
