package engine

import (
	"fmt"
	"sort"

	"github.com/alexanderramin/kickoff/internal/domain"
	"github.com/alexanderramin/kickoff/internal/graph"
)

// TemplateGraph is a template's nodes plus their acyclic dependency edges.
// Edits never reach processes that were already instantiated from it.
type TemplateGraph struct {
	Template *domain.Template
	nodes    map[string]*domain.TemplateNode
	edges    *graph.Graph
}

// NewTemplateGraph assembles a graph from loaded rows. Edges must reference
// known nodes and must not form a cycle.
func NewTemplateGraph(t *domain.Template, nodes []*domain.TemplateNode, deps []domain.Dependency) (*TemplateGraph, error) {
	g := &TemplateGraph{
		Template: t,
		nodes:    make(map[string]*domain.TemplateNode, len(nodes)),
		edges:    graph.New(),
	}
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			return nil, err
		}
	}
	for _, d := range deps {
		if err := g.AddDependency(d.NodeID, d.DependsOnID); err != nil {
			return nil, fmt.Errorf("loading template %s: %w", t.ID, err)
		}
	}
	return g, nil
}

func (g *TemplateGraph) AddNode(n *domain.TemplateNode) error {
	if _, ok := g.nodes[n.ID]; ok {
		return fmt.Errorf("template node %s already present", n.ID)
	}
	g.nodes[n.ID] = n
	g.edges.AddNode(n.ID)
	return nil
}

// RemoveNode drops the node and all edges referencing it.
func (g *TemplateGraph) RemoveNode(id string) error {
	if _, ok := g.nodes[id]; !ok {
		return &domain.NotFoundError{Kind: "template node", ID: id}
	}
	delete(g.nodes, id)
	g.edges.RemoveNode(id)
	return nil
}

// AddDependency makes nodeID depend on dependencyID, or returns a
// *domain.CycleError and leaves the graph untouched.
func (g *TemplateGraph) AddDependency(nodeID, dependencyID string) error {
	for _, id := range []string{nodeID, dependencyID} {
		if _, ok := g.nodes[id]; !ok {
			return &domain.NotFoundError{Kind: "template node", ID: id}
		}
	}
	return g.edges.AddEdge(nodeID, dependencyID)
}

func (g *TemplateGraph) RemoveDependency(nodeID, dependencyID string) {
	g.edges.RemoveEdge(nodeID, dependencyID)
}

func (g *TemplateGraph) Node(id string) (*domain.TemplateNode, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns nodes in display order.
func (g *TemplateGraph) Nodes() []*domain.TemplateNode {
	out := make([]*domain.TemplateNode, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (g *TemplateGraph) DependenciesOf(id string) []string { return g.edges.DependenciesOf(id) }

func (g *TemplateGraph) DependentsOf(id string) []string { return g.edges.DependentsOf(id) }

func (g *TemplateGraph) Edges() []domain.Dependency { return g.edges.Edges() }

func (g *TemplateGraph) Len() int { return len(g.nodes) }

func (g *TemplateGraph) EdgeCount() int { return g.edges.EdgeCount() }
