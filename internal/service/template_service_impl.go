package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/kickoff/internal/db"
	"github.com/alexanderramin/kickoff/internal/domain"
	"github.com/alexanderramin/kickoff/internal/engine"
	"github.com/alexanderramin/kickoff/internal/graph"
	"github.com/alexanderramin/kickoff/internal/importer"
	"github.com/alexanderramin/kickoff/internal/lock"
	"github.com/alexanderramin/kickoff/internal/repository"
	"github.com/google/uuid"
)

type templateService struct {
	graphs templateGraphStore
	rt     Runtime
}

func NewTemplateService(
	templates repository.TemplateRepo,
	nodes repository.TemplateNodeRepo,
	deps repository.TemplateDependencyRepo,
	entities repository.EntityRepo,
	rt Runtime,
) TemplateService {
	return &templateService{
		graphs: templateGraphStore{templates: templates, nodes: nodes, deps: deps, entities: entities},
		rt:     rt.withDefaults(),
	}
}

func (s *templateService) Create(ctx context.Context, name, description string) (t *domain.Template, err error) {
	defer observe(ctx, s.rt.Observer, "create_template", time.Now(), &err, nil)

	if err := requireName("name", name); err != nil {
		return nil, err
	}
	now := s.rt.Clock.Now()
	t = &domain.Template{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(name),
		Description: description,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.graphs.templates.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *templateService) Get(ctx context.Context, id string) (*domain.Template, error) {
	return s.graphs.templates.GetByID(ctx, id)
}

func (s *templateService) List(ctx context.Context, includeInactive bool) ([]*domain.Template, error) {
	return s.graphs.templates.List(ctx, includeInactive)
}

func (s *templateService) SetActive(ctx context.Context, id string, active bool) (err error) {
	defer observe(ctx, s.rt.Observer, "set_template_active", time.Now(), &err, map[string]any{"template_id": id})

	return s.editTemplate(ctx, id, func(ctx context.Context, store templateGraphStore) error {
		t, err := store.templates.GetByID(ctx, id)
		if err != nil {
			return err
		}
		t.Active = active
		return store.templates.Update(ctx, t)
	})
}

// Delete removes the template with its nodes and edges. Processes created
// from it keep their tasks.
func (s *templateService) Delete(ctx context.Context, id string) (err error) {
	defer observe(ctx, s.rt.Observer, "delete_template", time.Now(), &err, map[string]any{"template_id": id})

	return s.rt.locked(ctx, lock.TemplateKey(id), func() error {
		return s.graphs.templates.Delete(ctx, id)
	})
}

func (s *templateService) CreateTemplateNode(ctx context.Context, n *domain.TemplateNode) (g *engine.TemplateGraph, err error) {
	defer observe(ctx, s.rt.Observer, "create_template_node", time.Now(), &err, map[string]any{"template_id": n.TemplateID})

	if n.DaysBeforeStart != nil && *n.DaysBeforeStart < 0 {
		return nil, &domain.ValidationError{Field: "days_before_start", Message: "must not be negative"}
	}
	for i := range n.Rules {
		if err := validateRule(&n.Rules[i]); err != nil {
			return nil, err
		}
	}
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	for i := range n.Rules {
		n.Rules[i].ID = uuid.New().String()
	}

	err = s.editTemplate(ctx, n.TemplateID, func(ctx context.Context, store templateGraphStore) error {
		e, err := store.entities.GetByID(ctx, n.EntityID)
		if err != nil {
			return err
		}
		if err := store.checkAssignee(ctx, n.DefaultAssigneeID); err != nil {
			return err
		}
		if err := store.nodes.Create(ctx, n); err != nil {
			return err
		}
		n.Entity = e
		g, err = store.load(ctx, n.TemplateID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

// UpdateTemplateNode changes entity, offset, default assignee and order.
// Rules and edges are edited separately.
func (s *templateService) UpdateTemplateNode(ctx context.Context, n *domain.TemplateNode) (err error) {
	defer observe(ctx, s.rt.Observer, "update_template_node", time.Now(), &err, map[string]any{"node_id": n.ID})

	if n.DaysBeforeStart != nil && *n.DaysBeforeStart < 0 {
		return &domain.ValidationError{Field: "days_before_start", Message: "must not be negative"}
	}
	current, err := s.graphs.nodes.GetByID(ctx, n.ID)
	if err != nil {
		return err
	}
	return s.editTemplate(ctx, current.TemplateID, func(ctx context.Context, store templateGraphStore) error {
		if _, err := store.entities.GetByID(ctx, n.EntityID); err != nil {
			return err
		}
		if err := store.checkAssignee(ctx, n.DefaultAssigneeID); err != nil {
			return err
		}
		n.TemplateID = current.TemplateID
		return store.nodes.Update(ctx, n)
	})
}

// RemoveTemplateNode deletes the node and every edge that references it.
func (s *templateService) RemoveTemplateNode(ctx context.Context, nodeID string) (err error) {
	defer observe(ctx, s.rt.Observer, "remove_template_node", time.Now(), &err, map[string]any{"node_id": nodeID})

	n, err := s.graphs.nodes.GetByID(ctx, nodeID)
	if err != nil {
		return err
	}
	return s.editTemplate(ctx, n.TemplateID, func(ctx context.Context, store templateGraphStore) error {
		return store.nodes.Delete(ctx, nodeID)
	})
}

// AddDependency walks the stored edges from dependencyID and rejects the edge
// if nodeID is reachable. Only the reachable subgraph is read.
func (s *templateService) AddDependency(ctx context.Context, nodeID, dependencyID string) (g *engine.TemplateGraph, err error) {
	defer observe(ctx, s.rt.Observer, "add_dependency", time.Now(), &err,
		map[string]any{"node_id": nodeID, "dependency_id": dependencyID})

	node, err := s.graphs.nodes.GetByID(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	err = s.editTemplate(ctx, node.TemplateID, func(ctx context.Context, store templateGraphStore) error {
		dep, err := store.nodes.GetByID(ctx, dependencyID)
		if err != nil {
			return err
		}
		if dep.TemplateID != node.TemplateID {
			return &domain.ValidationError{Field: "dependency", Message: "nodes belong to different templates"}
		}

		lookup := func(id string) ([]string, error) { return store.deps.ListDependencyIDs(ctx, id) }
		path, err := graph.FindPath(lookup, dependencyID, nodeID)
		if err != nil {
			return fmt.Errorf("checking for cycles: %w", err)
		}
		if path != nil {
			return &domain.CycleError{NodeID: nodeID, DependencyID: dependencyID, Path: path}
		}

		if err := store.deps.Create(ctx, domain.Dependency{NodeID: nodeID, DependsOnID: dependencyID}); err != nil {
			return err
		}
		g, err = store.load(ctx, node.TemplateID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (s *templateService) RemoveDependency(ctx context.Context, nodeID, dependencyID string) (g *engine.TemplateGraph, err error) {
	defer observe(ctx, s.rt.Observer, "remove_dependency", time.Now(), &err,
		map[string]any{"node_id": nodeID, "dependency_id": dependencyID})

	node, err := s.graphs.nodes.GetByID(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	err = s.editTemplate(ctx, node.TemplateID, func(ctx context.Context, store templateGraphStore) error {
		if err := store.deps.Delete(ctx, nodeID, dependencyID); err != nil {
			return err
		}
		g, err = store.load(ctx, node.TemplateID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (s *templateService) AddNotificationRule(ctx context.Context, nodeID string, r *domain.NotificationRule) (err error) {
	defer observe(ctx, s.rt.Observer, "add_notification_rule", time.Now(), &err, map[string]any{"node_id": nodeID})

	if err := validateRule(r); err != nil {
		return err
	}
	n, err := s.graphs.nodes.GetByID(ctx, nodeID)
	if err != nil {
		return err
	}
	r.ID = uuid.New().String()
	return s.editTemplate(ctx, n.TemplateID, func(ctx context.Context, store templateGraphStore) error {
		return store.nodes.AddRule(ctx, nodeID, r)
	})
}

func (s *templateService) RemoveNotificationRule(ctx context.Context, ruleID string) (err error) {
	defer observe(ctx, s.rt.Observer, "remove_notification_rule", time.Now(), &err, map[string]any{"rule_id": ruleID})

	n, err := s.graphs.nodes.GetByRuleID(ctx, ruleID)
	if err != nil {
		return err
	}
	return s.editTemplate(ctx, n.TemplateID, func(ctx context.Context, store templateGraphStore) error {
		return store.nodes.DeleteRule(ctx, ruleID)
	})
}

func (s *templateService) Graph(ctx context.Context, templateID string) (*engine.TemplateGraph, error) {
	return s.graphs.load(ctx, templateID)
}

func (s *templateService) Duplicate(ctx context.Context, templateID string) (copied *domain.Template, err error) {
	defer observe(ctx, s.rt.Observer, "duplicate_template", time.Now(), &err, map[string]any{"template_id": templateID})

	copied, err = db.InTx(ctx, s.rt.UoW, func(ctx context.Context, tx db.DBTX) (*domain.Template, error) {
		store := txTemplateGraphStore(tx)
		src, err := store.load(ctx, templateID)
		if err != nil {
			return nil, err
		}

		now := s.rt.Clock.Now()
		dst := &domain.Template{
			ID:          uuid.New().String(),
			Name:        src.Template.Name + " (copy)",
			Description: src.Template.Description,
			Active:      true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := store.templates.Create(ctx, dst); err != nil {
			return nil, err
		}

		newID := make(map[string]string, src.Len())
		for _, n := range src.Nodes() {
			clone := *n
			clone.ID = uuid.New().String()
			clone.TemplateID = dst.ID
			clone.Rules = make([]domain.NotificationRule, len(n.Rules))
			for i, r := range n.Rules {
				r.ID = uuid.New().String()
				clone.Rules[i] = r
			}
			if err := store.nodes.Create(ctx, &clone); err != nil {
				return nil, err
			}
			newID[n.ID] = clone.ID
		}
		for _, e := range src.Edges() {
			d := domain.Dependency{NodeID: newID[e.NodeID], DependsOnID: newID[e.DependsOnID]}
			if err := store.deps.Create(ctx, d); err != nil {
				return nil, err
			}
		}
		return dst, nil
	})
	if err != nil {
		return nil, err
	}
	return copied, nil
}

func (s *templateService) Import(ctx context.Context, doc *importer.TemplateDocument) (g *engine.TemplateGraph, err error) {
	fields := map[string]any{"nodes": len(doc.Nodes)}
	defer observe(ctx, s.rt.Observer, "import_template", time.Now(), &err, fields)

	if errs := importer.Validate(doc); len(errs) > 0 {
		return nil, importValidationError(errs)
	}

	g, err = db.InTx(ctx, s.rt.UoW, func(ctx context.Context, tx db.DBTX) (*engine.TemplateGraph, error) {
		store := txTemplateGraphStore(tx)
		entities, err := store.entities.List(ctx)
		if err != nil {
			return nil, err
		}
		users, err := store.users.List(ctx, true)
		if err != nil {
			return nil, err
		}

		gen, err := importer.Convert(doc, importer.NewRefs(entities, users), s.rt.Clock.Now())
		if err != nil {
			return nil, err
		}
		for _, e := range gen.Entities {
			if err := store.entities.Create(ctx, e); err != nil {
				return nil, fmt.Errorf("creating entity %q: %w", e.Name, err)
			}
		}
		if err := store.templates.Create(ctx, gen.Template); err != nil {
			return nil, err
		}
		for _, n := range gen.Nodes {
			if err := store.nodes.Create(ctx, n); err != nil {
				return nil, fmt.Errorf("creating node %q: %w", n.Name(), err)
			}
		}
		for _, d := range gen.Dependencies {
			if err := store.deps.Create(ctx, d); err != nil {
				return nil, err
			}
		}
		return store.load(ctx, gen.Template.ID)
	})
	if err != nil {
		return nil, err
	}
	fields["template_id"] = g.Template.ID
	return g, nil
}

func importValidationError(errs []error) error {
	msg := fmt.Sprintf("import validation failed (%d errors):", len(errs))
	for _, e := range errs {
		msg += "\n  - " + e.Error()
	}
	return &domain.ValidationError{Field: "document", Message: msg}
}

// editTemplate runs fn in a transaction while holding the template lock, so
// two concurrent edge insertions cannot jointly close a cycle.
func (s *templateService) editTemplate(ctx context.Context, templateID string, fn func(ctx context.Context, store templateGraphStore) error) error {
	return s.rt.locked(ctx, lock.TemplateKey(templateID), func() error {
		return s.rt.UoW.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
			store := txTemplateGraphStore(tx)
			if _, err := store.templates.GetByID(ctx, templateID); err != nil {
				return err
			}
			if err := fn(ctx, store); err != nil {
				return err
			}
			t, err := store.templates.GetByID(ctx, templateID)
			if err != nil {
				return err
			}
			t.UpdatedAt = s.rt.Clock.Now()
			return store.templates.Update(ctx, t)
		})
	})
}
