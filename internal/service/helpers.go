package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/kickoff/internal/db"
	"github.com/alexanderramin/kickoff/internal/domain"
	"github.com/alexanderramin/kickoff/internal/engine"
	"github.com/alexanderramin/kickoff/internal/repository"
)

// taskGraphStore loads and saves the rows behind one engine.TaskGraph.
type taskGraphStore struct {
	processes repository.ProcessRepo
	tasks     repository.TaskRepo
	deps      repository.TaskDependencyRepo
}

func txTaskGraphStore(tx db.DBTX) taskGraphStore {
	return taskGraphStore{
		processes: repository.NewSQLiteProcessRepo(tx),
		tasks:     repository.NewSQLiteTaskRepo(tx),
		deps:      repository.NewSQLiteTaskDependencyRepo(tx),
	}
}

func (s taskGraphStore) load(ctx context.Context, processID string) (*engine.TaskGraph, error) {
	p, err := s.processes.GetByID(ctx, processID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListByProcess(ctx, processID)
	if err != nil {
		return nil, err
	}
	deps, err := s.deps.ListByProcess(ctx, processID)
	if err != nil {
		return nil, err
	}
	return engine.NewTaskGraph(p, tasks, deps)
}

// create stores a freshly instantiated graph: process, tasks with their rules
// and fields, then edges.
func (s taskGraphStore) create(ctx context.Context, g *engine.TaskGraph) error {
	if err := s.processes.Create(ctx, g.Process); err != nil {
		return err
	}
	for _, t := range g.Tasks() {
		if err := s.tasks.Create(ctx, t); err != nil {
			return err
		}
	}
	for _, e := range g.Edges() {
		if err := s.deps.Create(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// saveStates writes status and completion stamps for changed tasks.
func (s taskGraphStore) saveStates(ctx context.Context, g *engine.TaskGraph, changed []*domain.Task, clock engine.Clock) error {
	if len(changed) == 0 {
		return nil
	}
	for _, t := range changed {
		if err := s.tasks.UpdateState(ctx, t); err != nil {
			return err
		}
	}
	return s.processes.Touch(ctx, g.Process.ID, clock.Now())
}

// templateGraphStore loads the rows behind one engine.TemplateGraph.
type templateGraphStore struct {
	templates repository.TemplateRepo
	nodes     repository.TemplateNodeRepo
	deps      repository.TemplateDependencyRepo
	entities  repository.EntityRepo
	users     repository.UserRepo
}

func txTemplateGraphStore(tx db.DBTX) templateGraphStore {
	return templateGraphStore{
		templates: repository.NewSQLiteTemplateRepo(tx),
		nodes:     repository.NewSQLiteTemplateNodeRepo(tx),
		deps:      repository.NewSQLiteTemplateDependencyRepo(tx),
		entities:  repository.NewSQLiteEntityRepo(tx),
		users:     repository.NewSQLiteUserRepo(tx),
	}
}

// load returns the template graph with every node's entity attached.
func (s templateGraphStore) load(ctx context.Context, templateID string) (*engine.TemplateGraph, error) {
	t, err := s.templates.GetByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	nodes, err := s.nodes.ListByTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if err := s.attachEntities(ctx, nodes); err != nil {
		return nil, err
	}
	deps, err := s.deps.ListByTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	return engine.NewTemplateGraph(t, nodes, deps)
}

func (s templateGraphStore) attachEntities(ctx context.Context, nodes []*domain.TemplateNode) error {
	cache := make(map[string]*domain.Entity)
	for _, n := range nodes {
		e, ok := cache[n.EntityID]
		if !ok {
			var err error
			if e, err = s.entities.GetByID(ctx, n.EntityID); err != nil {
				return fmt.Errorf("loading entity of node %s: %w", n.ID, err)
			}
			cache[n.EntityID] = e
		}
		n.Entity = e
	}
	return nil
}

// checkAssignee verifies that a default assignee, when given, exists.
func (s templateGraphStore) checkAssignee(ctx context.Context, userID *string) error {
	if userID == nil || *userID == "" {
		return nil
	}
	_, err := s.users.GetByID(ctx, *userID)
	return err
}

func validateRule(r *domain.NotificationRule) error {
	if !domain.ValidTriggerStatuses[r.Trigger] {
		return &domain.ValidationError{Field: "trigger", Message: fmt.Sprintf("%q is not a trigger status", r.Trigger)}
	}
	if r.NotifyUserID == nil && !r.NotifyAssignee && !r.NotifyDependentAssignees {
		return &domain.ValidationError{Field: "recipients", Message: "rule notifies nobody"}
	}
	if !r.SendEmail && !r.SendInApp {
		return &domain.ValidationError{Field: "channels", Message: "rule has no channel"}
	}
	return nil
}

func requireName(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return &domain.ValidationError{Field: field, Message: "is required"}
	}
	return nil
}
